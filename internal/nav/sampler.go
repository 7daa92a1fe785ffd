package nav

import (
	"context"
	"time"

	"github.com/epeers/marketdata/internal/broker"
	"github.com/epeers/marketdata/internal/models"
	"github.com/epeers/marketdata/internal/snapshot"
	log "github.com/sirupsen/logrus"
)

// Broker is the slice of the broker gateway the sampler needs.
type Broker interface {
	GetAccountSummary(ctx context.Context, accountID string) (*broker.AccountSummary, error)
}

// Recorder persists sampled net-liquidation values into NAV history.
type Recorder interface {
	RecordValue(ctx context.Context, assetID int64, value float64, at time.Time) error
}

// Sampler periodically polls the broker for each account-equity asset and
// records the net-liquidation scalar into NAV history, where the next
// reconciliation cycle picks it up. An account asset's symbol is its broker
// account ID.
type Sampler struct {
	store    *snapshot.Store
	broker   Broker
	recorder Recorder
	interval time.Duration
}

// NewSampler creates a NAV sampler.
func NewSampler(store *snapshot.Store, b Broker, recorder Recorder, interval time.Duration) *Sampler {
	return &Sampler{store: store, broker: b, recorder: recorder, interval: interval}
}

// Run samples until ctx is cancelled. The timer re-arms after each pass
// completes, so slow broker calls never stack passes.
func (s *Sampler) Run(ctx context.Context) {
	timer := time.NewTimer(s.interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			s.SampleOnce(ctx)
			timer.Reset(s.interval)
		}
	}
}

// SampleOnce polls every account-equity asset once. Per-account failures are
// logged and do not affect siblings.
func (s *Sampler) SampleOnce(ctx context.Context) {
	snap := s.store.Current()
	for _, a := range snap.Assets {
		if a.Type != models.AssetTypeAccountEquity || !a.Active {
			continue
		}
		if a.ID < 0 {
			// Synthetic combined accounts are derived, never sampled.
			continue
		}
		summary, err := s.broker.GetAccountSummary(ctx, a.Symbol)
		if err != nil {
			log.Errorf("NAV sample failed for account %s: %v", a.Symbol, err)
			continue
		}
		at := summary.AsOf
		if at.IsZero() {
			at = time.Now()
		}
		if err := s.recorder.RecordValue(ctx, a.ID, summary.NetLiquidation, at); err != nil {
			log.Errorf("failed to record NAV for account %s: %v", a.Symbol, err)
		}
	}
}
