package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/epeers/marketdata/internal/models"
	"github.com/epeers/marketdata/internal/repository"
	"github.com/epeers/marketdata/internal/snapshot"
	"github.com/gin-gonic/gin"
)

// UserWriter persists new users.
type UserWriter interface {
	Insert(ctx context.Context, u *models.User) (*models.User, error)
}

// FolderWriter persists folder and trade mutations.
type FolderWriter interface {
	InsertFolder(ctx context.Context, f *models.Folder) (*models.Folder, error)
	DeleteFolder(ctx context.Context, id int64) error
	InsertTrade(ctx context.Context, t *models.Trade) (*models.Trade, error)
	GetTrades(ctx context.Context, portfolioID int64) ([]*models.Trade, error)
}

// PortfolioHandler serves user, folder and trade operations. Mutations go
// to the durable store first and are then merged into the in-memory
// snapshot, so readers see the change without waiting for a full reload.
type PortfolioHandler struct {
	store   *snapshot.Store
	users   UserWriter
	folders FolderWriter
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(store *snapshot.Store, users UserWriter, folders FolderWriter) *PortfolioHandler {
	return &PortfolioHandler{
		store:   store,
		users:   users,
		folders: folders,
	}
}

// CreateUser handles POST /users
func (h *PortfolioHandler) CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	user, err := h.users.Insert(c.Request.Context(), &models.User{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "insert_failed",
			Message: err.Error(),
		})
		return
	}

	h.store.AppendUser(user)
	c.JSON(http.StatusCreated, user)
}

// GetFolders handles GET /folders
func (h *PortfolioHandler) GetFolders(c *gin.Context) {
	snap := h.store.Current()
	c.JSON(http.StatusOK, snap.Folders)
}

// CreateFolder handles POST /folders
func (h *PortfolioHandler) CreateFolder(c *gin.Context) {
	var req models.CreateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	folder, err := h.folders.InsertFolder(c.Request.Context(), &models.Folder{
		OwnerID: req.OwnerID,
		Name:    req.Name,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "insert_failed",
			Message: err.Error(),
		})
		return
	}

	h.store.AddFolder(folder)
	c.JSON(http.StatusCreated, folder)
}

// DeleteFolder handles DELETE /folders/:id
func (h *PortfolioHandler) DeleteFolder(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "folder id must be an integer",
		})
		return
	}

	if err := h.folders.DeleteFolder(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrFolderNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "not_found",
				Message: "no such folder",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "delete_failed",
			Message: err.Error(),
		})
		return
	}

	h.store.RemoveFolder(id)
	c.Status(http.StatusNoContent)
}

// RecordTrade handles POST /trades
func (h *PortfolioHandler) RecordTrade(c *gin.Context) {
	var req models.RecordTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	executedAt := req.ExecutedAt
	if executedAt.IsZero() {
		executedAt = time.Now()
	}

	trade, err := h.folders.InsertTrade(c.Request.Context(), &models.Trade{
		PortfolioID: req.PortfolioID,
		AssetID:     req.AssetID,
		Quantity:    req.Quantity,
		Price:       req.Price,
		ExecutedAt:  executedAt,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "insert_failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, trade)
}

// GetTrades handles GET /trades/:portfolio_id
func (h *PortfolioHandler) GetTrades(c *gin.Context) {
	portfolioID, err := strconv.ParseInt(c.Param("portfolio_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "portfolio id must be an integer",
		})
		return
	}

	trades, err := h.folders.GetTrades(c.Request.Context(), portfolioID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "query_failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, trades)
}
