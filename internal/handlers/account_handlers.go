package handlers

import (
	"context"
	"net/http"

	"github.com/epeers/marketdata/internal/broker"
	"github.com/epeers/marketdata/internal/models"
	"github.com/gin-gonic/gin"
)

// PositionLister is the slice of the broker gateway the account diagnostics
// surface needs.
type PositionLister interface {
	GetPositions(ctx context.Context, accountID string) ([]broker.Position, error)
}

// AccountHandler proxies broker account diagnostics. Only registered when a
// broker gateway is configured.
type AccountHandler struct {
	positions PositionLister
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(positions PositionLister) *AccountHandler {
	return &AccountHandler{positions: positions}
}

// GetPositions handles GET /accounts/:account_id/positions
func (h *AccountHandler) GetPositions(c *gin.Context) {
	positions, err := h.positions.GetPositions(c.Request.Context(), c.Param("account_id"))
	if err != nil {
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   "broker_unavailable",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, positions)
}
