package history

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/epeers/marketdata/internal/models"
	"github.com/epeers/marketdata/internal/observability"
	"github.com/epeers/marketdata/internal/snapshot"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	// defaultLookbackYears bounds the fetch window for assets with no
	// recorded earliest-history date.
	defaultLookbackYears = 20

	// backstopWindowDays is how far back the bulk secondary split feed is
	// queried on each rebuild.
	backstopWindowDays = 90

	defaultFetchLimit = 8
)

// ChangeDetector is the durable store's cheap "anything new?" poll. A true
// result triggers an early rebuild.
type ChangeDetector interface {
	HasChangedSinceLastCheck(ctx context.Context) (bool, error)
}

// Engine performs the wholesale reconciliation rebuild: fetch every asset's
// raw history, adjust, merge calendars, and publish one new snapshot. A
// failed rebuild leaves the previous snapshot published; partial results are
// never merged in.
type Engine struct {
	store    *snapshot.Store
	provider PriceProvider
	nav      NavSource
	dir      Directory
	changes  ChangeDetector // may be nil
	metrics  *observability.Metrics

	fetchLimit int
	interval   time.Duration
	pollEvery  time.Duration

	reloadCh chan chan error
}

// NewEngine creates a reconciliation engine. changes may be nil if the
// durable store offers no change feed.
func NewEngine(
	store *snapshot.Store,
	provider PriceProvider,
	nav NavSource,
	dir Directory,
	changes ChangeDetector,
	metrics *observability.Metrics,
	interval time.Duration,
) *Engine {
	return &Engine{
		store:      store,
		provider:   provider,
		nav:        nav,
		dir:        dir,
		changes:    changes,
		metrics:    metrics,
		fetchLimit: defaultFetchLimit,
		interval:   interval,
		pollEvery:  time.Minute,
		reloadCh:   make(chan chan error),
	}
}

// SetFetchLimit caps concurrent per-asset history fetches within a rebuild.
func (e *Engine) SetFetchLimit(n int) {
	if n > 0 {
		e.fetchLimit = n
	}
}

// SetChangePollInterval sets how often Run polls the durable store change
// feed.
func (e *Engine) SetChangePollInterval(d time.Duration) {
	if d > 0 {
		e.pollEvery = d
	}
}

// Run drives periodic rebuilds, on-demand reload requests, and the durable
// store change poll until ctx is cancelled. Concurrent rebuild paths all
// funnel through this loop, so two rebuilds never race to publish.
func (e *Engine) Run(ctx context.Context) {
	rebuild := time.NewTimer(e.interval)
	defer rebuild.Stop()
	poll := time.NewTicker(e.pollEvery)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-rebuild.C:
			if err := e.Rebuild(ctx); err != nil {
				log.Errorf("scheduled rebuild failed: %v", err)
			}
			rebuild.Reset(e.interval)
		case resp := <-e.reloadCh:
			resp <- e.Rebuild(ctx)
			if !rebuild.Stop() {
				select {
				case <-rebuild.C:
				default:
				}
			}
			rebuild.Reset(e.interval)
		case <-poll.C:
			if e.changes == nil {
				continue
			}
			changed, err := e.changes.HasChangedSinceLastCheck(ctx)
			if err != nil {
				log.Warnf("change poll failed: %v", err)
				continue
			}
			if changed {
				log.Info("durable store changed, rebuilding")
				if err := e.Rebuild(ctx); err != nil {
					log.Errorf("change-triggered rebuild failed: %v", err)
				}
			}
		}
	}
}

// TriggerRebuild requests an immediate rebuild through the Run loop and
// waits for its outcome.
func (e *Engine) TriggerRebuild(ctx context.Context) error {
	resp := make(chan error, 1)
	select {
	case e.reloadCh <- resp:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-resp:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

type assetSeries struct {
	asset  *models.Asset
	dates  []time.Time
	values []float64
}

// Rebuild builds and publishes one new snapshot. An error means nothing was
// published and the previous snapshot remains current.
func (e *Engine) Rebuild(ctx context.Context) (err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		e.metrics.RebuildsTotal.WithLabelValues(outcome).Inc()
		e.metrics.RebuildDuration.Observe(time.Since(start).Seconds())
		log.Debugf("rebuild took %d ms (outcome %s)", time.Since(start).Milliseconds(), outcome)
	}()

	assets, err := e.dir.AllAssets(ctx)
	if err != nil {
		return fmt.Errorf("failed to load asset directory: %w", err)
	}
	users, err := e.dir.AllUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}
	folders, err := e.dir.AllFolders(ctx)
	if err != nil {
		return fmt.Errorf("failed to load folders: %w", err)
	}

	backstop := e.fetchBackstopSplits(ctx, start)

	var (
		mu     sync.Mutex
		series []assetSeries
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.fetchLimit)
	for _, a := range assets {
		if !a.PriceEligible() {
			continue
		}
		a := a
		g.Go(func() error {
			s, ferr := e.buildPriceSeries(gctx, a, backstop[a.Symbol], start)
			if ferr != nil {
				// A per-asset failure only costs that asset its coverage in
				// this cycle; siblings and the rest of the rebuild proceed.
				log.Errorf("skipping %s this cycle: %v", a.Symbol, ferr)
				e.metrics.RebuildAssetsSkipped.Inc()
				return nil
			}
			mu.Lock()
			series = append(series, s)
			mu.Unlock()
			return nil
		})
	}
	if werr := g.Wait(); werr != nil {
		return fmt.Errorf("history fetch aborted: %w", werr)
	}
	if cerr := ctx.Err(); cerr != nil {
		return cerr
	}

	accountSeries, synthetic := e.buildAccountSeries(ctx, assets)
	series = append(series, accountSeries...)

	calendars := make([][]time.Time, len(series))
	for i, s := range series {
		calendars[i] = s.dates
	}
	axis := UnionDates(calendars...)

	daily := models.NewDailySeries(axis)
	for _, s := range series {
		daily.Closes[s.asset.ID] = Project(axis, s.dates, s.values)
	}

	directory := append(append([]*models.Asset(nil), assets...), synthetic...)

	e.store.Publish(&snapshot.Snapshot{
		Users:         users,
		Assets:        directory,
		Folders:       folders,
		Series:        daily,
		BuiltAt:       time.Now(),
		BuildDuration: time.Since(start),
	})
	e.metrics.SnapshotAssets.Set(float64(len(daily.Closes)))

	log.Infof("published snapshot: %d axis dates, %d assets with history, %d users",
		len(axis), len(daily.Closes), len(users))
	return nil
}

// fetchBackstopSplits loads the bulk secondary split feed, keyed by symbol.
// The backstop is best-effort: on failure the rebuild proceeds with primary
// splits only.
func (e *Engine) fetchBackstopSplits(ctx context.Context, now time.Time) map[string][]models.Split {
	since := now.AddDate(0, 0, -backstopWindowDays)
	rows, err := e.provider.RecentSplits(ctx, since)
	if err != nil {
		log.Warnf("secondary split backstop unavailable: %v", err)
		return nil
	}
	out := make(map[string][]models.Split)
	for _, r := range rows {
		out[r.Symbol] = append(out[r.Symbol], r.Split)
	}
	return out
}

func (e *Engine) buildPriceSeries(ctx context.Context, a *models.Asset, backstop []models.Split, now time.Time) (assetSeries, error) {
	fetchStart := now.AddDate(-defaultLookbackYears, 0, 0)
	if a.EarliestHistory != nil && a.EarliestHistory.After(fetchStart) {
		fetchStart = *a.EarliestHistory
	}

	dates, closes, err := e.provider.DailyHistory(ctx, a.Symbol, fetchStart, now)
	if err != nil {
		return assetSeries{}, fmt.Errorf("failed to fetch history: %w", err)
	}
	primary, err := e.provider.Splits(ctx, a.Symbol, fetchStart, now)
	if err != nil {
		return assetSeries{}, fmt.Errorf("failed to fetch splits: %w", err)
	}

	adjusted := AdjustForSplits(dates, closes, MergeSplits(primary, backstop))
	return assetSeries{asset: a, dates: dates, values: adjusted}, nil
}

// buildAccountSeries adjusts every account-equity asset and synthesizes a
// combined account for each owner with two or more valid sub-accounts. The
// combined series is built from raw sub-account values and then adjusted
// independently.
func (e *Engine) buildAccountSeries(ctx context.Context, assets []*models.Asset) ([]assetSeries, []*models.Asset) {
	type sub struct {
		values []models.DatedValue
		flows  []models.CashFlow
	}
	byOwner := make(map[int64][]sub)

	var out []assetSeries
	for _, a := range assets {
		if a.Type != models.AssetTypeAccountEquity || !a.Active {
			continue
		}
		values, err := e.nav.Values(ctx, a.ID)
		if err != nil {
			log.Errorf("skipping account %s this cycle: %v", a.Symbol, err)
			e.metrics.RebuildAssetsSkipped.Inc()
			continue
		}
		if len(values) == 0 {
			continue
		}
		flows, err := e.nav.Flows(ctx, a.ID)
		if err != nil {
			log.Errorf("skipping account %s this cycle: %v", a.Symbol, err)
			e.metrics.RebuildAssetsSkipped.Inc()
			continue
		}

		adjusted := AdjustEquity(a.Symbol, values, flows)
		dates, vals := datesOf(adjusted)
		out = append(out, assetSeries{asset: a, dates: dates, values: vals})

		byOwner[a.OwnerID] = append(byOwner[a.OwnerID], sub{values: values, flows: flows})
	}

	var synthetic []*models.Asset
	owners := make([]int64, 0, len(byOwner))
	for owner := range byOwner {
		owners = append(owners, owner)
	}
	sort.Slice(owners, func(i, j int) bool { return owners[i] < owners[j] })

	for _, owner := range owners {
		subs := byOwner[owner]
		if len(subs) < 2 {
			continue
		}
		subValues := make([][]models.DatedValue, len(subs))
		subFlows := make([][]models.CashFlow, len(subs))
		for i, s := range subs {
			subValues[i] = s.values
			subFlows[i] = s.flows
		}
		rawCombined, flows := CombineAccounts(subValues, subFlows)
		combined := &models.Asset{
			// Synthetic combined accounts are rebuilt each cycle and never
			// stored; negated owner ID keeps the ID stable across cycles
			// without colliding with durable asset IDs.
			ID:      -owner,
			Symbol:  fmt.Sprintf("COMBINED-%d", owner),
			Name:    fmt.Sprintf("Combined accounts (owner %d)", owner),
			Type:    models.AssetTypeAccountEquity,
			OwnerID: owner,
			Active:  true,
		}
		adjusted := AdjustEquity(combined.Symbol, rawCombined, flows)
		dates, vals := datesOf(adjusted)
		out = append(out, assetSeries{asset: combined, dates: dates, values: vals})
		synthetic = append(synthetic, combined)
	}

	return out, synthetic
}
