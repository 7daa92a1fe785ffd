package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/epeers/marketdata/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NavRepository handles database operations for account NAV history and
// cash-flow events. It feeds the equity reconciliation and records broker
// samples.
type NavRepository struct {
	pool *pgxpool.Pool
}

// NewNavRepository creates a new NavRepository
func NewNavRepository(pool *pgxpool.Pool) *NavRepository {
	return &NavRepository{pool: pool}
}

// Values retrieves the raw NAV series for one account asset, ascending by
// date. At most one value per date: same-day samples overwrite.
func (r *NavRepository) Values(ctx context.Context, assetID int64) ([]models.DatedValue, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT date, value
		FROM fact_nav
		WHERE asset_id = $1
		ORDER BY date
	`, assetID)
	if err != nil {
		return nil, fmt.Errorf("failed to query NAV history for asset %d: %w", assetID, err)
	}
	defer rows.Close()

	var result []models.DatedValue
	for rows.Next() {
		var p models.DatedValue
		if err := rows.Scan(&p.Date, &p.Value); err != nil {
			return nil, fmt.Errorf("failed to scan NAV value: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// Flows retrieves the cash-flow events for one account asset, ascending by
// date. Multiple flows on one date are kept as separate rows; the adjuster
// nets them.
func (r *NavRepository) Flows(ctx context.Context, assetID int64) ([]models.CashFlow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT date, amount
		FROM fact_cash_flow
		WHERE asset_id = $1
		ORDER BY date, id
	`, assetID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cash flows for asset %d: %w", assetID, err)
	}
	defer rows.Close()

	var result []models.CashFlow
	for rows.Next() {
		var f models.CashFlow
		if err := rows.Scan(&f.Date, &f.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan cash flow: %w", err)
		}
		result = append(result, f)
	}
	return result, rows.Err()
}

// RecordValue upserts one sampled NAV observation onto its calendar date.
// Later samples on the same date win; history keeps one close per day.
func (r *NavRepository) RecordValue(ctx context.Context, assetID int64, value float64, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO fact_nav (asset_id, date, value, sampled_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (asset_id, date) DO UPDATE
		SET value = EXCLUDED.value, sampled_at = EXCLUDED.sampled_at
	`, assetID, at.Truncate(24*time.Hour), value, at)
	if err != nil {
		return fmt.Errorf("failed to record NAV for asset %d: %w", assetID, err)
	}
	return nil
}

// RecordFlow inserts one cash-flow event
func (r *NavRepository) RecordFlow(ctx context.Context, assetID int64, f models.CashFlow) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO fact_cash_flow (asset_id, date, amount)
		VALUES ($1, $2, $3)
	`, assetID, f.Date, f.Amount)
	if err != nil {
		return fmt.Errorf("failed to record cash flow for asset %d: %w", assetID, err)
	}
	return nil
}
