package history

import (
	"sort"
	"time"

	"github.com/epeers/marketdata/internal/models"
	log "github.com/sirupsen/logrus"
)

// AdjustEquity converts raw account values into a flow-neutral equity curve:
// every day-over-day ratio of the output equals the true performance ratio,
// with deposits and withdrawals factored out. points must be ascending by
// date; the output is aligned 1:1 with it.
//
// The walk runs newest to oldest with a running multiplier. A value is scaled
// before the multiplier is updated at its own date, so the flow on a date
// affects only strictly earlier dates. Multiple flows on one date are summed
// first. A date whose pre-flow value is exactly zero is a data error: the
// multiplier update is skipped and logged rather than propagating Inf/NaN
// into published data.
func AdjustEquity(symbol string, points []models.DatedValue, flows []models.CashFlow) []models.DatedValue {
	netFlow := make(map[string]float64, len(flows))
	for _, f := range flows {
		netFlow[dayKey(f.Date)] += f.Amount
	}

	adjusted := make([]models.DatedValue, len(points))
	multiplier := 1.0
	for i := len(points) - 1; i >= 0; i-- {
		p := points[i]
		adjusted[i] = models.DatedValue{Date: p.Date, Value: p.Value * multiplier}

		f, ok := netFlow[dayKey(p.Date)]
		if !ok || f == 0 {
			continue
		}
		actual := p.Value - f
		if actual == 0 {
			log.Errorf("equity adjust %s: zero pre-flow value on %s (value=%.2f flow=%.2f), skipping multiplier update",
				symbol, dayKey(p.Date), p.Value, f)
			continue
		}
		multiplier *= p.Value / actual
	}
	return adjusted
}

// CombineAccounts builds the raw series and flow list for a synthetic
// combined account from two or more sub-accounts. The combined value on a
// date is the sum of the sub-accounts that reported a value on that date;
// absent sub-accounts contribute nothing, not zero. The flow list is the
// union of the sub-account flows. The caller adjusts the combined series
// independently; summing already-adjusted curves would bake each
// sub-account's own flow multipliers into the total.
func CombineAccounts(subValues [][]models.DatedValue, subFlows [][]models.CashFlow) ([]models.DatedValue, []models.CashFlow) {
	sums := make(map[string]float64)
	byKey := make(map[string]time.Time)
	for _, series := range subValues {
		for _, p := range series {
			k := dayKey(p.Date)
			sums[k] += p.Value
			byKey[k] = p.Date
		}
	}

	combined := make([]models.DatedValue, 0, len(sums))
	for k, v := range sums {
		combined = append(combined, models.DatedValue{Date: byKey[k], Value: v})
	}
	sort.Slice(combined, func(i, j int) bool { return combined[i].Date.Before(combined[j].Date) })

	var flows []models.CashFlow
	for _, fs := range subFlows {
		flows = append(flows, fs...)
	}
	sort.Slice(flows, func(i, j int) bool { return flows[i].Date.Before(flows[j].Date) })

	return combined, flows
}
