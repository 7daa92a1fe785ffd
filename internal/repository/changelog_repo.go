package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/epeers/marketdata/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChangelogRepository polls the durable store's changelog so the reconciler
// can rebuild early when reference data changes out of band.
type ChangelogRepository struct {
	pool *pgxpool.Pool

	mu       sync.Mutex
	lastSeen time.Time
}

// NewChangelogRepository creates a new ChangelogRepository
func NewChangelogRepository(pool *pgxpool.Pool) *ChangelogRepository {
	return &ChangelogRepository{pool: pool}
}

// HasChangedSinceLastCheck reports whether any changelog entry landed since
// the previous call. The first call baselines and reports false.
func (r *ChangelogRepository) HasChangedSinceLastCheck(ctx context.Context) (bool, error) {
	var latest *time.Time
	err := r.pool.QueryRow(ctx, `SELECT MAX(changed_at) FROM changelog`).Scan(&latest)
	if err != nil {
		return false, fmt.Errorf("failed to query changelog: %w", err)
	}
	if latest == nil {
		return false, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastSeen.IsZero() {
		r.lastSeen = *latest
		return false, nil
	}
	changed := latest.After(r.lastSeen)
	r.lastSeen = *latest
	return changed, nil
}

// Directory aggregates the reference-data repositories behind the
// reconciler's directory interface.
type Directory struct {
	Users     *UserRepository
	Assets    *AssetRepository
	Portfolio *PortfolioRepository
}

// NewDirectory creates a Directory over one pool.
func NewDirectory(pool *pgxpool.Pool) *Directory {
	return &Directory{
		Users:     NewUserRepository(pool),
		Assets:    NewAssetRepository(pool),
		Portfolio: NewPortfolioRepository(pool),
	}
}

func (d *Directory) AllAssets(ctx context.Context) ([]*models.Asset, error) {
	return d.Assets.GetAll(ctx)
}

func (d *Directory) AllUsers(ctx context.Context) ([]*models.User, error) {
	return d.Users.GetAll(ctx)
}

func (d *Directory) AllFolders(ctx context.Context) ([]*models.Folder, error) {
	return d.Portfolio.GetAllFolders(ctx)
}
