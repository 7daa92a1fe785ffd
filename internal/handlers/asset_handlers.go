package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/epeers/marketdata/internal/models"
	"github.com/epeers/marketdata/internal/repository"
	"github.com/epeers/marketdata/internal/snapshot"
	"github.com/gin-gonic/gin"
)

// AssetWriter persists asset directory mutations.
type AssetWriter interface {
	Insert(ctx context.Context, a *models.Asset) (*models.Asset, error)
	GetBySymbol(ctx context.Context, symbol string) (*models.Asset, error)
	Deactivate(ctx context.Context, id int64) error
}

// FlowRecorder persists cash-flow events against account-equity assets.
type FlowRecorder interface {
	RecordFlow(ctx context.Context, assetID int64, f models.CashFlow) error
}

// AssetHandler serves asset directory administration and cash-flow event
// recording. New assets appear in the directory immediately but get their
// history on the next reconciliation cycle; deactivations take effect on the
// next cycle.
type AssetHandler struct {
	store  *snapshot.Store
	assets AssetWriter
	flows  FlowRecorder
}

// NewAssetHandler creates a new AssetHandler
func NewAssetHandler(store *snapshot.Store, assets AssetWriter, flows FlowRecorder) *AssetHandler {
	return &AssetHandler{store: store, assets: assets, flows: flows}
}

// CreateAsset handles POST /assets
func (h *AssetHandler) CreateAsset(c *gin.Context) {
	var req models.CreateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	if snap := h.store.Current(); snap.AssetBySymbol(req.Symbol) != nil {
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "already_exists",
			Message: "symbol already in the directory",
		})
		return
	}

	asset, err := h.assets.Insert(c.Request.Context(), &models.Asset{
		Symbol:          req.Symbol,
		Name:            req.Name,
		Type:            req.Type,
		HistoryEligible: req.HistoryEligible,
		OwnerID:         req.OwnerID,
		Active:          true,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "insert_failed",
			Message: err.Error(),
		})
		return
	}

	h.store.AppendAsset(asset)
	c.JSON(http.StatusCreated, asset)
}

// DeactivateAsset handles DELETE /assets/:symbol
func (h *AssetHandler) DeactivateAsset(c *gin.Context) {
	symbol := c.Param("symbol")

	asset, err := h.assets.GetBySymbol(c.Request.Context(), symbol)
	if err != nil {
		if errors.Is(err, repository.ErrAssetNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "not_found",
				Message: "unknown symbol",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "query_failed",
			Message: err.Error(),
		})
		return
	}

	if err := h.assets.Deactivate(c.Request.Context(), asset.ID); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "update_failed",
			Message: err.Error(),
		})
		return
	}

	// The published snapshot keeps serving the asset until the next rebuild
	// reloads the directory.
	c.Status(http.StatusNoContent)
}

// RecordFlow handles POST /flows
func (h *AssetHandler) RecordFlow(c *gin.Context) {
	var req models.RecordFlowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	flow := models.CashFlow{Date: req.Date.Truncate(24 * time.Hour), Amount: req.Amount}
	if err := h.flows.RecordFlow(c.Request.Context(), req.AssetID, flow); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "insert_failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, flow)
}
