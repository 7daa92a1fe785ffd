package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds application configuration loaded from environment variables
type Config struct {
	PGURL string
	AVKey string
	Port  string

	// BrokerURL points at the brokerage gateway. Empty disables account
	// value sampling.
	BrokerURL string

	// History reconciliation.
	RebuildInterval time.Duration
	ChangePollEvery time.Duration
	FetchLimit      int

	// Refresh tiers.
	Pins          []string
	Watch         []string
	HotWindow     time.Duration
	HotInterval   time.Duration
	WatchInterval time.Duration
	SweepInterval time.Duration
	SweepBatch    int
	ClosedFactor  int

	NavSampleInterval time.Duration
}

// Load reads configuration from a .env file if present, then from
// environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debugf("no .env file loaded: %v", err)
	}

	pgURL := os.Getenv("PG_URL")
	if pgURL == "" {
		return nil, fmt.Errorf("PG_URL environment variable is required")
	}

	avKey := os.Getenv("AV_KEY")
	if avKey == "" {
		return nil, fmt.Errorf("AV_KEY environment variable is required")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	cfg := &Config{
		PGURL:     pgURL,
		AVKey:     avKey,
		Port:      port,
		BrokerURL: os.Getenv("BROKER_URL"),

		RebuildInterval: envDuration("REBUILD_INTERVAL", 6*time.Hour),
		ChangePollEvery: envDuration("CHANGE_POLL_EVERY", time.Minute),
		FetchLimit:      envInt("FETCH_LIMIT", 8),

		Pins:          envList("REFRESH_PINS"),
		Watch:         envList("REFRESH_WATCH"),
		HotWindow:     envDuration("HOT_WINDOW", 15*time.Minute),
		HotInterval:   envDuration("HOT_INTERVAL", 30*time.Second),
		WatchInterval: envDuration("WATCH_INTERVAL", 5*time.Minute),
		SweepInterval: envDuration("SWEEP_INTERVAL", 15*time.Minute),
		SweepBatch:    envInt("SWEEP_BATCH", 50),
		ClosedFactor:  envInt("CLOSED_FACTOR", 10),

		NavSampleInterval: envDuration("NAV_SAMPLE_INTERVAL", time.Hour),
	}

	return cfg, nil
}

func envDuration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Warnf("invalid %s %q, using default %s", key, raw, def)
		return def
	}
	return d
}

func envInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Warnf("invalid %s %q, using default %d", key, raw, def)
		return def
	}
	return n
}

func envList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
