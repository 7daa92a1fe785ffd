package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/epeers/marketdata/config"
	"github.com/epeers/marketdata/internal/alphavantage"
	"github.com/epeers/marketdata/internal/broker"
	"github.com/epeers/marketdata/internal/database"
	"github.com/epeers/marketdata/internal/handlers"
	"github.com/epeers/marketdata/internal/history"
	"github.com/epeers/marketdata/internal/nav"
	"github.com/epeers/marketdata/internal/observability"
	"github.com/epeers/marketdata/internal/refresh"
	"github.com/epeers/marketdata/internal/repository"
	"github.com/epeers/marketdata/internal/snapshot"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection
	db, err := database.New(ctx, cfg.PGURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize AlphaVantage client
	avClient := alphavantage.NewClient(cfg.AVKey)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.Pool)
	assetRepo := repository.NewAssetRepository(db.Pool)
	portfolioRepo := repository.NewPortfolioRepository(db.Pool)
	navRepo := repository.NewNavRepository(db.Pool)
	directory := repository.NewDirectory(db.Pool)
	changelog := repository.NewChangelogRepository(db.Pool)

	// Initialize snapshot store and metrics
	store := snapshot.NewStore()
	registry := prometheus.NewRegistry()
	metrics := observability.New(registry)

	// Initialize the reconciliation engine
	engine := history.NewEngine(store, avClient, navRepo, directory, changelog, metrics, cfg.RebuildInterval)
	engine.SetFetchLimit(cfg.FetchLimit)
	engine.SetChangePollInterval(cfg.ChangePollEvery)

	// First snapshot before serving traffic
	if err := engine.Rebuild(ctx); err != nil {
		log.Fatalf("Failed to build initial snapshot: %v", err)
	}
	go engine.Run(ctx)

	// Initialize the tiered refresh scheduler
	sched := refresh.New(store, avClient, metrics, refresh.Config{
		Pins:          cfg.Pins,
		Watch:         cfg.Watch,
		HotWindow:     cfg.HotWindow,
		HotInterval:   cfg.HotInterval,
		WatchInterval: cfg.WatchInterval,
		SweepInterval: cfg.SweepInterval,
		SweepBatch:    cfg.SweepBatch,
		ClosedFactor:  cfg.ClosedFactor,
	})
	sched.Start(ctx)
	defer sched.Stop()

	// Initialize NAV sampling when a broker gateway is configured
	var brokerClient *broker.Client
	if cfg.BrokerURL != "" {
		brokerClient = broker.NewClient(cfg.BrokerURL)
		sampler := nav.NewSampler(store, brokerClient, navRepo, cfg.NavSampleInterval)
		go sampler.Run(ctx)
	} else {
		log.Info("BROKER_URL not set, account value sampling disabled")
	}

	// Initialize handlers
	historyHandler := handlers.NewHistoryHandler(store, sched)
	portfolioHandler := handlers.NewPortfolioHandler(store, userRepo, portfolioRepo)
	userHandler := handlers.NewUserHandler(userRepo, portfolioRepo)
	assetHandler := handlers.NewAssetHandler(store, assetRepo, navRepo)
	adminHandler := handlers.NewAdminHandler(store, sched, engine)

	// Setup Gin router
	router := gin.Default()

	// Health and diagnostics
	router.GET("/health", adminHandler.Health)
	router.GET("/status", adminHandler.Status)
	router.POST("/reload", adminHandler.Reload)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// History and quote routes
	router.GET("/history/:symbol", historyHandler.GetHistory)
	router.GET("/quotes/:symbol", historyHandler.GetQuote)

	// User, folder and trade routes
	router.POST("/users", portfolioHandler.CreateUser)
	router.GET("/users/:user_id/portfolios", userHandler.ListPortfolios)
	router.GET("/folders", portfolioHandler.GetFolders)
	router.POST("/folders", portfolioHandler.CreateFolder)
	router.DELETE("/folders/:id", portfolioHandler.DeleteFolder)
	router.POST("/trades", portfolioHandler.RecordTrade)
	router.GET("/trades/:portfolio_id", portfolioHandler.GetTrades)

	// Asset directory and cash-flow administration
	router.POST("/assets", assetHandler.CreateAsset)
	router.DELETE("/assets/:symbol", assetHandler.DeactivateAsset)
	router.POST("/flows", assetHandler.RecordFlow)

	// Broker diagnostics, only when a gateway is configured
	if brokerClient != nil {
		accountHandler := handlers.NewAccountHandler(brokerClient)
		router.GET("/accounts/:account_id/positions", accountHandler.GetPositions)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")
	cancel()

	// Give outstanding requests 5 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}
