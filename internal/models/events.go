package models

import "time"

// Split represents one corporate action: a BeforeQty-for-AfterQty share change
// effective on Date. A 4-for-1 split has BeforeQty=1, AfterQty=4.
type Split struct {
	Date      time.Time `json:"date"`
	BeforeQty float64   `json:"before_qty"`
	AfterQty  float64   `json:"after_qty"`
}

// Ratio is the multiplier applied to prices dated strictly before the split
// so that returns across the split date are undistorted.
func (s Split) Ratio() float64 {
	return s.BeforeQty / s.AfterQty
}

// SymbolSplit is a split row from the bulk backstop feed, which returns
// splits for many symbols at once.
type SymbolSplit struct {
	Symbol string `json:"symbol"`
	Split
}

// CashFlow represents one external deposit (positive) or withdrawal
// (negative) on an account-equity asset.
type CashFlow struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

// DatedValue is one raw observation in an account-value series.
type DatedValue struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}
