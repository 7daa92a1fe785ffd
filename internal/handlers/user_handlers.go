package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/epeers/marketdata/internal/models"
	"github.com/epeers/marketdata/internal/repository"
	"github.com/gin-gonic/gin"
)

// UserReader loads users from the durable store.
type UserReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// PortfolioReader loads portfolios from the durable store.
type PortfolioReader interface {
	GetPortfoliosByOwner(ctx context.Context, ownerID int64) ([]*models.Portfolio, error)
}

// UserHandler serves per-user read operations.
type UserHandler struct {
	users      UserReader
	portfolios PortfolioReader
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users UserReader, portfolios PortfolioReader) *UserHandler {
	return &UserHandler{users: users, portfolios: portfolios}
}

// ListPortfolios handles GET /users/:user_id/portfolios
func (h *UserHandler) ListPortfolios(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "user id must be an integer",
		})
		return
	}

	if _, err := h.users.GetByID(c.Request.Context(), userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error:   "not_found",
				Message: "no such user",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "query_failed",
			Message: err.Error(),
		})
		return
	}

	portfolios, err := h.portfolios.GetPortfoliosByOwner(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "query_failed",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, portfolios)
}
