package history

import (
	"context"
	"time"

	"github.com/epeers/marketdata/internal/models"
)

// PriceProvider is the upstream price and corporate-action feed. Every call
// is fallible and independent; the reconciler isolates per-asset failures.
type PriceProvider interface {
	// DailyHistory returns ascending native trading dates and raw closes.
	DailyHistory(ctx context.Context, symbol string, start, end time.Time) ([]time.Time, []float64, error)
	// Splits returns the primary per-asset split records in the window.
	Splits(ctx context.Context, symbol string, start, end time.Time) ([]models.Split, error)
	// RecentSplits is the bulk secondary backstop, consulted only for dates
	// the primary source lacks.
	RecentSplits(ctx context.Context, since time.Time) ([]models.SymbolSplit, error)
}

// NavSource supplies raw account-value observations and cash-flow events for
// account-equity assets.
type NavSource interface {
	Values(ctx context.Context, assetID int64) ([]models.DatedValue, error)
	Flows(ctx context.Context, assetID int64) ([]models.CashFlow, error)
}

// Directory loads the asset and user universe from the durable store.
type Directory interface {
	AllAssets(ctx context.Context) ([]*models.Asset, error)
	AllUsers(ctx context.Context) ([]*models.User, error)
	AllFolders(ctx context.Context) ([]*models.Folder, error)
}
