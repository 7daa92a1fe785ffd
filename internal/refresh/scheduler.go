package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/epeers/marketdata/internal/models"
	"github.com/epeers/marketdata/internal/observability"
	"github.com/epeers/marketdata/internal/snapshot"
	"github.com/epeers/marketdata/internal/util"
	log "github.com/sirupsen/logrus"
)

// QuoteProvider is the external real-time quote feed, fetched in batches.
type QuoteProvider interface {
	Quotes(ctx context.Context, symbols []string) ([]models.Quote, error)
}

// Config controls the refresh tiers.
type Config struct {
	// Pins are symbols always refreshed by the hot tier.
	Pins []string
	// Watch is the fixed mid-tier subset.
	Watch []string

	HotWindow     time.Duration // trailing window for hot promotion
	HotInterval   time.Duration
	WatchInterval time.Duration
	SweepInterval time.Duration
	SweepBatch    int // assets per sweep firing

	// ClosedFactor stretches every interval while the market session is
	// closed. Applied when a tier re-arms, not retroactively.
	ClosedFactor int
}

func (c *Config) applyDefaults() {
	if c.HotWindow == 0 {
		c.HotWindow = 5 * time.Minute
	}
	if c.HotInterval == 0 {
		c.HotInterval = 15 * time.Second
	}
	if c.WatchInterval == 0 {
		c.WatchInterval = time.Minute
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = 10 * time.Minute
	}
	if c.SweepBatch == 0 {
		c.SweepBatch = 50
	}
	if c.ClosedFactor == 0 {
		c.ClosedFactor = 6
	}
}

// TierStatus is a diagnostics view of one tier.
type TierStatus struct {
	Name      string
	Interval  time.Duration
	LastFired time.Time
	LastBatch int
}

type tier struct {
	name     string
	interval time.Duration
	subset   func() []*models.Asset

	mu        sync.Mutex
	timer     *time.Timer
	lastFired time.Time
	lastBatch int
}

// Scheduler refreshes per-asset real-time quotes on independently-timed
// tiers. Each tier is a one-shot timer that re-arms after its batch
// completes, so firings of one tier never overlap and session-state changes
// take effect at the next firing. Quote writes go to each Asset's mutable
// live fields in place; no snapshot is republished.
type Scheduler struct {
	store   *snapshot.Store
	quotes  QuoteProvider
	metrics *observability.Metrics
	cfg     Config

	hotMu sync.Mutex
	hot   map[int64]time.Time // asset ID -> last consumer query

	sweepMu     sync.Mutex
	sweepCursor int

	tiers []*tier
}

// New creates a Scheduler with the standard three tiers: hot (pins plus
// recently-queried assets), watch (fixed subset), and sweep (full eligible
// universe in batches, so every asset refreshes even with zero demand).
func New(store *snapshot.Store, quotes QuoteProvider, metrics *observability.Metrics, cfg Config) *Scheduler {
	cfg.applyDefaults()
	s := &Scheduler{
		store:   store,
		quotes:  quotes,
		metrics: metrics,
		cfg:     cfg,
		hot:     make(map[int64]time.Time),
	}
	s.tiers = []*tier{
		{name: "hot", interval: cfg.HotInterval, subset: s.hotSubset},
		{name: "watch", interval: cfg.WatchInterval, subset: s.watchSubset},
		{name: "sweep", interval: cfg.SweepInterval, subset: s.sweepSubset},
	}
	return s
}

// Start arms every tier. Firing stops when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	for _, t := range s.tiers {
		s.arm(ctx, t, s.intervalFor(t))
	}
}

// Stop cancels all pending timers. A batch already in flight finishes.
func (s *Scheduler) Stop() {
	for _, t := range s.tiers {
		t.mu.Lock()
		if t.timer != nil {
			t.timer.Stop()
		}
		t.mu.Unlock()
	}
}

func (s *Scheduler) arm(ctx context.Context, t *tier, delay time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timer = time.AfterFunc(delay, func() {
		s.fire(ctx, t)
		if ctx.Err() == nil {
			s.arm(ctx, t, s.intervalFor(t))
		}
	})
}

// intervalFor picks the tier's delay from current session state.
func (s *Scheduler) intervalFor(t *tier) time.Duration {
	if util.MarketOpen(time.Now()) {
		return t.interval
	}
	return t.interval * time.Duration(s.cfg.ClosedFactor)
}

// Fire runs one tier batch synchronously by name. Exposed for tests and the
// on-demand diagnostics path.
func (s *Scheduler) Fire(ctx context.Context, name string) {
	for _, t := range s.tiers {
		if t.name == name {
			s.fire(ctx, t)
			return
		}
	}
}

func (s *Scheduler) fire(ctx context.Context, t *tier) {
	batch := t.subset()

	t.mu.Lock()
	t.lastFired = time.Now()
	t.lastBatch = len(batch)
	t.mu.Unlock()

	s.metrics.TierBatchSize.WithLabelValues(t.name).Observe(float64(len(batch)))
	if len(batch) == 0 {
		s.metrics.TierFirings.WithLabelValues(t.name, "ok").Inc()
		return
	}

	bySymbol := make(map[string]*models.Asset, len(batch))
	symbols := make([]string, 0, len(batch))
	for _, a := range batch {
		bySymbol[a.Symbol] = a
		symbols = append(symbols, a.Symbol)
	}

	quotes, err := s.quotes.Quotes(ctx, symbols)
	if err != nil {
		// Previous values stay published and age one more interval; other
		// tiers are unaffected.
		log.Errorf("%s tier quote fetch failed for %d symbols: %v", t.name, len(symbols), err)
		s.metrics.QuoteFetchErrors.WithLabelValues(t.name).Inc()
		s.metrics.TierFirings.WithLabelValues(t.name, "error").Inc()
		return
	}

	for _, q := range quotes {
		if a, ok := bySymbol[q.Symbol]; ok {
			a.SetLive(&models.LiveQuote{Price: q.Price, PrevClose: q.PrevClose, At: q.At})
		}
	}
	s.metrics.TierFirings.WithLabelValues(t.name, "ok").Inc()
}

// MarkQueried promotes an asset to the hot tier for the trailing window.
// Called by the read path on every consumer query.
func (s *Scheduler) MarkQueried(assetID int64) {
	s.hotMu.Lock()
	defer s.hotMu.Unlock()
	s.hot[assetID] = time.Now()
}

// Status reports per-tier diagnostics.
func (s *Scheduler) Status() []TierStatus {
	out := make([]TierStatus, 0, len(s.tiers))
	for _, t := range s.tiers {
		t.mu.Lock()
		out = append(out, TierStatus{
			Name:      t.name,
			Interval:  t.interval,
			LastFired: t.lastFired,
			LastBatch: t.lastBatch,
		})
		t.mu.Unlock()
	}
	return out
}

// hotSubset is the fixed pins plus any asset a consumer queried within the
// trailing window. Expired promotions are pruned as a side effect.
func (s *Scheduler) hotSubset() []*models.Asset {
	snap := s.store.Current()

	var out []*models.Asset
	seen := make(map[int64]bool)
	for _, sym := range s.cfg.Pins {
		if a := snap.AssetBySymbol(sym); a != nil && a.PriceEligible() {
			out = append(out, a)
			seen[a.ID] = true
		}
	}

	s.hotMu.Lock()
	cutoff := time.Now().Add(-s.cfg.HotWindow)
	hotIDs := make(map[int64]bool, len(s.hot))
	for id, at := range s.hot {
		if at.Before(cutoff) {
			delete(s.hot, id)
			continue
		}
		hotIDs[id] = true
	}
	s.hotMu.Unlock()

	for _, a := range snap.Assets {
		if hotIDs[a.ID] && !seen[a.ID] && a.PriceEligible() {
			out = append(out, a)
			seen[a.ID] = true
		}
	}
	return out
}

func (s *Scheduler) watchSubset() []*models.Asset {
	snap := s.store.Current()
	var out []*models.Asset
	for _, sym := range s.cfg.Watch {
		if a := snap.AssetBySymbol(sym); a != nil && a.PriceEligible() {
			out = append(out, a)
		}
	}
	return out
}

// sweepSubset returns the next batch of the full eligible universe. The
// cursor wraps, so consecutive firings cover every asset regardless of
// external demand.
func (s *Scheduler) sweepSubset() []*models.Asset {
	snap := s.store.Current()
	var eligible []*models.Asset
	for _, a := range snap.Assets {
		if a.PriceEligible() {
			eligible = append(eligible, a)
		}
	}
	if len(eligible) == 0 {
		return nil
	}

	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()
	if s.sweepCursor >= len(eligible) {
		s.sweepCursor = 0
	}
	end := s.sweepCursor + s.cfg.SweepBatch
	if end > len(eligible) {
		end = len(eligible)
	}
	batch := eligible[s.sweepCursor:end]
	s.sweepCursor = end
	return batch
}
