package models

import "time"

// ErrorResponse is the standard error envelope for API responses
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Quote is a real-time quote as served to consumers.
type Quote struct {
	AssetID   int64     `json:"asset_id"`
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	PrevClose float64   `json:"prev_close"`
	At        time.Time `json:"at"`
}

// HistoryPoint is one (date, close) pair in a history response. Close is nil
// for axis dates the asset did not trade.
type HistoryPoint struct {
	Date  string   `json:"date"`
	Close *float64 `json:"close"`
}

// HistoryResponse is the payload of GET /history/:symbol.
type HistoryResponse struct {
	AssetID int64          `json:"asset_id"`
	Symbol  string         `json:"symbol"`
	BuiltAt time.Time      `json:"built_at"`
	Points  []HistoryPoint `json:"points"`
}

// CreateFolderRequest is the payload of POST /folders.
type CreateFolderRequest struct {
	OwnerID int64  `json:"owner_id" binding:"required"`
	Name    string `json:"name" binding:"required"`
}

// CreateUserRequest is the payload of POST /users.
type CreateUserRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required"`
}

// CreateAssetRequest is the payload of POST /assets.
type CreateAssetRequest struct {
	Symbol          string    `json:"symbol" binding:"required"`
	Name            string    `json:"name" binding:"required"`
	Type            AssetType `json:"type" binding:"required"`
	HistoryEligible bool      `json:"history_eligible"`
	OwnerID         int64     `json:"owner_id"`
}

// RecordFlowRequest is the payload of POST /flows.
type RecordFlowRequest struct {
	AssetID int64     `json:"asset_id" binding:"required"`
	Date    time.Time `json:"date" binding:"required"`
	Amount  float64   `json:"amount" binding:"required"`
}

// RecordTradeRequest is the payload of POST /trades.
type RecordTradeRequest struct {
	PortfolioID int64     `json:"portfolio_id" binding:"required"`
	AssetID     int64     `json:"asset_id" binding:"required"`
	Quantity    float64   `json:"quantity" binding:"required"`
	Price       float64   `json:"price" binding:"required"`
	ExecutedAt  time.Time `json:"executed_at"`
}
