package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/epeers/marketdata/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrFolderNotFound = errors.New("folder not found")

// PortfolioRepository handles database operations for portfolio folders,
// portfolios, and trade history
type PortfolioRepository struct {
	pool *pgxpool.Pool
}

// NewPortfolioRepository creates a new PortfolioRepository
func NewPortfolioRepository(pool *pgxpool.Pool) *PortfolioRepository {
	return &PortfolioRepository{pool: pool}
}

// GetAllFolders retrieves all folders with their portfolio ID lists
func (r *PortfolioRepository) GetAllFolders(ctx context.Context) ([]*models.Folder, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, owner_id, name FROM dim_folder ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query folders: %w", err)
	}
	defer rows.Close()

	var result []*models.Folder
	byID := make(map[int64]*models.Folder)
	for rows.Next() {
		f := &models.Folder{}
		if err := rows.Scan(&f.ID, &f.OwnerID, &f.Name); err != nil {
			return nil, fmt.Errorf("failed to scan folder: %w", err)
		}
		result = append(result, f)
		byID[f.ID] = f
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	prows, err := r.pool.Query(ctx, `SELECT id, folder_id FROM portfolio WHERE folder_id IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("failed to query folder memberships: %w", err)
	}
	defer prows.Close()
	for prows.Next() {
		var pid, fid int64
		if err := prows.Scan(&pid, &fid); err != nil {
			return nil, fmt.Errorf("failed to scan folder membership: %w", err)
		}
		if f, ok := byID[fid]; ok {
			f.Portfolios = append(f.Portfolios, pid)
		}
	}
	return result, prows.Err()
}

// InsertFolder adds a new folder and returns it with its assigned ID
func (r *PortfolioRepository) InsertFolder(ctx context.Context, f *models.Folder) (*models.Folder, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO dim_folder (owner_id, name)
		VALUES ($1, $2)
		RETURNING id
	`, f.OwnerID, f.Name).Scan(&f.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert folder: %w", err)
	}
	return f, nil
}

// DeleteFolder removes a folder; contained portfolios are detached, not deleted
func (r *PortfolioRepository) DeleteFolder(ctx context.Context, id int64) error {
	if _, err := r.pool.Exec(ctx, `UPDATE portfolio SET folder_id = NULL WHERE folder_id = $1`, id); err != nil {
		return fmt.Errorf("failed to detach portfolios from folder %d: %w", id, err)
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM dim_folder WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete folder %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFolderNotFound
	}
	return nil
}

// GetPortfoliosByOwner retrieves all portfolios for one user
func (r *PortfolioRepository) GetPortfoliosByOwner(ctx context.Context, ownerID int64) ([]*models.Portfolio, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, owner_id, folder_id, name, comment, created_at, ended_at
		FROM portfolio
		WHERE owner_id = $1
		ORDER BY id
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolios: %w", err)
	}
	defer rows.Close()

	var result []*models.Portfolio
	for rows.Next() {
		p := &models.Portfolio{}
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.FolderID, &p.Name, &p.Comment, &p.CreatedAt, &p.EndedAt); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// InsertTrade records one trade into fact_trade
func (r *PortfolioRepository) InsertTrade(ctx context.Context, t *models.Trade) (*models.Trade, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO fact_trade (portfolio_id, asset_id, quantity, price, executed_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, t.PortfolioID, t.AssetID, t.Quantity, t.Price, t.ExecutedAt).Scan(&t.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert trade: %w", err)
	}
	return t, nil
}

// GetTrades retrieves the trade history for one portfolio, oldest first
func (r *PortfolioRepository) GetTrades(ctx context.Context, portfolioID int64) ([]*models.Trade, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, portfolio_id, asset_id, quantity, price, executed_at
		FROM fact_trade
		WHERE portfolio_id = $1
		ORDER BY executed_at, id
	`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var result []*models.Trade
	for rows.Next() {
		t := &models.Trade{}
		if err := rows.Scan(&t.ID, &t.PortfolioID, &t.AssetID, &t.Quantity, &t.Price, &t.ExecutedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		result = append(result, t)
	}
	return result, rows.Err()
}
