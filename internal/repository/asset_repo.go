package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/epeers/marketdata/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrAssetNotFound = errors.New("asset not found")

// AssetRepository handles database operations for assets
type AssetRepository struct {
	pool *pgxpool.Pool
}

// NewAssetRepository creates a new AssetRepository
func NewAssetRepository(pool *pgxpool.Pool) *AssetRepository {
	return &AssetRepository{pool: pool}
}

// GetAll retrieves all assets from dim_asset, including inactive ones.
// Assets are never deleted, only marked inactive.
func (r *AssetRepository) GetAll(ctx context.Context) ([]*models.Asset, error) {
	query := `
		SELECT id, symbol, name, type, history_eligible, earliest_history, owner_id, active
		FROM dim_asset
		ORDER BY id
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query all assets: %w", err)
	}
	defer rows.Close()

	var result []*models.Asset
	for rows.Next() {
		a := &models.Asset{}
		if err := rows.Scan(&a.ID, &a.Symbol, &a.Name, &a.Type, &a.HistoryEligible, &a.EarliestHistory, &a.OwnerID, &a.Active); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

// GetBySymbol retrieves one asset by symbol
func (r *AssetRepository) GetBySymbol(ctx context.Context, symbol string) (*models.Asset, error) {
	query := `
		SELECT id, symbol, name, type, history_eligible, earliest_history, owner_id, active
		FROM dim_asset
		WHERE symbol = $1
	`
	a := &models.Asset{}
	err := r.pool.QueryRow(ctx, query, symbol).
		Scan(&a.ID, &a.Symbol, &a.Name, &a.Type, &a.HistoryEligible, &a.EarliestHistory, &a.OwnerID, &a.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAssetNotFound
		}
		return nil, fmt.Errorf("failed to get asset %s: %w", symbol, err)
	}
	return a, nil
}

// Insert adds a new asset and returns it with its assigned ID
func (r *AssetRepository) Insert(ctx context.Context, a *models.Asset) (*models.Asset, error) {
	query := `
		INSERT INTO dim_asset (symbol, name, type, history_eligible, earliest_history, owner_id, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.pool.QueryRow(ctx, query,
		a.Symbol, a.Name, a.Type, a.HistoryEligible, a.EarliestHistory, a.OwnerID, a.Active).
		Scan(&a.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert asset %s: %w", a.Symbol, err)
	}
	return a, nil
}

// Deactivate marks an asset inactive. The row is never deleted.
func (r *AssetRepository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE dim_asset SET active = false WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate asset %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAssetNotFound
	}
	return nil
}
