package chart

import (
	"fmt"
	"time"

	"github.com/penwyp/go-sim-monitor/internal/core/constants"
	"github.com/penwyp/go-sim-monitor/internal/core/model"
	"github.com/penwyp/go-sim-monitor/internal/data/client"
)

// ChartConfig contains configuration for the chart and the one-shot series commands
type ChartConfig struct {
	// Data source: the API unless DataDir is set
	APIURL   string
	DataDir  string
	CacheDir string

	// Record filters applied before aggregation
	Status       string
	ExperimentID string
	Tags         []client.Tag

	// Display settings
	Timezone string

	// Refresh settings
	RefreshInterval time.Duration
	APITimeout      time.Duration

	// Performance settings
	Concurrency int
}

// Validate fills defaults and rejects unusable values
func (c *ChartConfig) Validate() error {
	if c.APIURL == "" {
		c.APIURL = constants.DefaultAPIURL
	}
	if c.CacheDir == "" {
		c.CacheDir = "~/.go-sim-monitor/cache"
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	if c.RefreshInterval == 0 {
		c.RefreshInterval = constants.DefaultRefreshInterval
	}
	if c.RefreshInterval < constants.MinRefreshInterval {
		c.RefreshInterval = constants.MinRefreshInterval
	}
	if c.APITimeout == 0 {
		c.APITimeout = constants.DefaultAPITimeout
	}
	if c.Concurrency == 0 {
		c.Concurrency = 4
	}
	if c.Status != "" && !model.IsValidStatus(c.Status) {
		return fmt.Errorf("unknown status %q, expected one of %v", c.Status, model.Statuses)
	}
	return nil
}

// UseDirectory reports whether records come from snapshot files
func (c *ChartConfig) UseDirectory() bool {
	return c.DataDir != ""
}
