package models

import "time"

// User represents an account owner.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Folder is a named grouping of portfolios belonging to one user.
type Folder struct {
	ID         int64   `json:"id"`
	OwnerID    int64   `json:"owner_id"`
	Name       string  `json:"name"`
	Portfolios []int64 `json:"portfolios"`
}

// Portfolio represents a collection of holdings tracked for one user.
type Portfolio struct {
	ID        int64      `json:"id"`
	OwnerID   int64      `json:"owner_id"`
	FolderID  *int64     `json:"folder_id,omitempty"`
	Name      string     `json:"name"`
	Comment   *string    `json:"comment,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// Trade is one historical trade record kept in the durable store.
type Trade struct {
	ID          int64     `json:"id"`
	PortfolioID int64     `json:"portfolio_id"`
	AssetID     int64     `json:"asset_id"`
	Quantity    float64   `json:"quantity"`
	Price       float64   `json:"price"`
	ExecutedAt  time.Time `json:"executed_at"`
}
