package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/epeers/marketdata/internal/models"
	"github.com/epeers/marketdata/internal/refresh"
	"github.com/epeers/marketdata/internal/snapshot"
	"github.com/epeers/marketdata/internal/util"
	"github.com/gin-gonic/gin"
)

// Rebuilder triggers an on-demand reconciliation rebuild and blocks
// until it completes.
type Rebuilder interface {
	TriggerRebuild(ctx context.Context) error
}

// AdminHandler serves the diagnostics surface: the plain-text status dump
// and the on-demand reload endpoint. The dump is operational visibility
// only, not a stable API.
type AdminHandler struct {
	store     *snapshot.Store
	sched     *refresh.Scheduler
	engine    Rebuilder
	startedAt time.Time
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(store *snapshot.Store, sched *refresh.Scheduler, engine Rebuilder) *AdminHandler {
	return &AdminHandler{
		store:     store,
		sched:     sched,
		engine:    engine,
		startedAt: time.Now(),
	}
}

// Status handles GET /status
func (h *AdminHandler) Status(c *gin.Context) {
	snap := h.store.Current()

	var b strings.Builder
	fmt.Fprintf(&b, "marketdata status\n")
	fmt.Fprintf(&b, "=================\n")
	fmt.Fprintf(&b, "uptime:            %s\n", time.Since(h.startedAt).Round(time.Second))
	fmt.Fprintf(&b, "users:             %d\n", len(snap.Users))
	fmt.Fprintf(&b, "assets:            %d\n", len(snap.Assets))
	fmt.Fprintf(&b, "folders:           %d\n", len(snap.Folders))
	fmt.Fprintf(&b, "axis dates:        %d\n", len(snap.Series.Dates))
	fmt.Fprintf(&b, "assets w/ history: %d\n", len(snap.Series.Closes))
	if snap.BuiltAt.IsZero() {
		fmt.Fprintf(&b, "last reload:       never\n")
	} else {
		fmt.Fprintf(&b, "last reload:       %s (took %s)\n",
			snap.BuiltAt.Format(time.RFC3339), snap.BuildDuration.Round(time.Millisecond))
	}
	fmt.Fprintf(&b, "next daily data:   %s\n", util.NextMarketDate(time.Now()).Format(time.RFC3339))

	fmt.Fprintf(&b, "\nrefresh tiers\n")
	fmt.Fprintf(&b, "-------------\n")
	for _, t := range h.sched.Status() {
		last := "never"
		if !t.LastFired.IsZero() {
			last = t.LastFired.Format(time.RFC3339)
		}
		fmt.Fprintf(&b, "%-6s interval=%-8s last=%s batch=%d\n", t.Name, t.Interval, last, t.LastBatch)
	}

	c.String(http.StatusOK, b.String())
}

// Reload handles POST /reload
func (h *AdminHandler) Reload(c *gin.Context) {
	if err := h.engine.TriggerRebuild(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "reload_failed",
			Message: err.Error(),
		})
		return
	}
	snap := h.store.Current()
	c.JSON(http.StatusOK, gin.H{
		"built_at":       snap.BuiltAt,
		"build_duration": snap.BuildDuration.String(),
		"assets":         len(snap.Series.Closes),
	})
}

// Health handles GET /health
func (h *AdminHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
