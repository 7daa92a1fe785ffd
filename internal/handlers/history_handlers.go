package handlers

import (
	"math"
	"net/http"

	"github.com/epeers/marketdata/internal/models"
	"github.com/epeers/marketdata/internal/refresh"
	"github.com/epeers/marketdata/internal/snapshot"
	"github.com/gin-gonic/gin"
)

// HistoryHandler serves reconciled daily history and live quotes. Every
// read captures one snapshot and answers entirely from it, and marks the
// asset hot so the fast refresh tier picks it up.
type HistoryHandler struct {
	store *snapshot.Store
	sched *refresh.Scheduler
}

// NewHistoryHandler creates a new HistoryHandler
func NewHistoryHandler(store *snapshot.Store, sched *refresh.Scheduler) *HistoryHandler {
	return &HistoryHandler{
		store: store,
		sched: sched,
	}
}

// GetHistory handles GET /history/:symbol
func (h *HistoryHandler) GetHistory(c *gin.Context) {
	symbol := c.Param("symbol")

	// One capture; the axis and the asset's closes come from the same
	// snapshot even if a rebuild publishes mid-request.
	snap := h.store.Current()
	asset := snap.AssetBySymbol(symbol)
	if asset == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "unknown symbol",
		})
		return
	}
	h.sched.MarkQueried(asset.ID)

	closes, ok := snap.Series.Closes[asset.ID]
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "no_history",
			Message: "asset has no reconciled history in the current snapshot",
		})
		return
	}

	points := make([]models.HistoryPoint, 0, len(snap.Series.Dates))
	for i, d := range snap.Series.Dates {
		p := models.HistoryPoint{Date: d.Format("2006-01-02")}
		if v := closes[i]; !math.IsNaN(v) {
			p.Close = &v
		}
		points = append(points, p)
	}

	c.JSON(http.StatusOK, models.HistoryResponse{
		AssetID: asset.ID,
		Symbol:  asset.Symbol,
		BuiltAt: snap.BuiltAt,
		Points:  points,
	})
}

// GetQuote handles GET /quotes/:symbol
func (h *HistoryHandler) GetQuote(c *gin.Context) {
	symbol := c.Param("symbol")

	snap := h.store.Current()
	asset := snap.AssetBySymbol(symbol)
	if asset == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "unknown symbol",
		})
		return
	}
	h.sched.MarkQueried(asset.ID)

	live := asset.Live()
	if live == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "no_quote",
			Message: "asset has not been refreshed yet",
		})
		return
	}

	c.JSON(http.StatusOK, models.Quote{
		AssetID:   asset.ID,
		Symbol:    asset.Symbol,
		Price:     live.Price,
		PrevClose: live.PrevClose,
		At:        live.At,
	})
}
