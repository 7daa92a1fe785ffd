package models

import (
	"sync/atomic"
	"time"
)

// AssetType represents the kind of asset
type AssetType string

const (
	AssetTypeEquity        AssetType = "EQUITY"
	AssetTypeETF           AssetType = "ETF"
	AssetTypeIndex         AssetType = "INDEX"
	AssetTypeAccountEquity AssetType = "ACCOUNT"
)

// Asset represents one tracked instrument. Asset objects live for the process
// lifetime and are shared across snapshots; only the live quote is mutated in
// place, through an atomic pointer swap, so readers never take a lock.
// Assets are never deleted, only marked inactive.
type Asset struct {
	ID              int64      `json:"id"`
	Symbol          string     `json:"symbol"`
	Name            string     `json:"name"`
	Type            AssetType  `json:"type"`
	HistoryEligible bool       `json:"history_eligible"`
	EarliestHistory *time.Time `json:"earliest_history"` // nullable DATE
	OwnerID         int64      `json:"owner_id"`         // account-equity assets only
	Active          bool       `json:"active"`

	live atomic.Pointer[LiveQuote]
}

// LiveQuote holds the mutable real-time fields of an Asset. A LiveQuote is
// immutable once published; refreshes install a new one.
type LiveQuote struct {
	Price     float64   `json:"price"`
	PrevClose float64   `json:"prev_close"`
	At        time.Time `json:"at"`
}

// Live returns the most recently published quote, or nil if the asset has
// never been refreshed.
func (a *Asset) Live() *LiveQuote {
	return a.live.Load()
}

// SetLive installs a new live quote. Last write wins across refresh tiers;
// that relaxation is acceptable because every tier writes equally-fresh data.
func (a *Asset) SetLive(q *LiveQuote) {
	a.live.Store(q)
}

// PriceEligible reports whether the reconciler should fetch daily history
// and splits for this asset from the price provider.
func (a *Asset) PriceEligible() bool {
	return a.Active && a.HistoryEligible && a.Type != AssetTypeAccountEquity
}
