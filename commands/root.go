package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/penwyp/go-sim-monitor/internal/application/chart"
	"github.com/penwyp/go-sim-monitor/internal/core/constants"
	"github.com/penwyp/go-sim-monitor/internal/core/model"
	"github.com/penwyp/go-sim-monitor/internal/data/aggregator"
	"github.com/penwyp/go-sim-monitor/internal/data/cache"
	"github.com/penwyp/go-sim-monitor/internal/data/client"
	"github.com/penwyp/go-sim-monitor/internal/presentation/formatter"
	"github.com/penwyp/go-sim-monitor/internal/util"
	"github.com/spf13/cobra"
)

var (
	// Logging related
	debug bool

	// Data source
	apiURL     string
	apiTimeout time.Duration
	dataDir    string
	configFile string

	// Output related
	outputFormat string
	timezone     string

	// Filtering
	startTime  string
	endTime    string
	status     string
	experiment string
	tags       []string
	reset      bool

	rootCmd = &cobra.Command{
		Use:   "go-sim-monitor [flags]",
		Short: "Simulation activity monitoring tool",
		Long: `go-sim-monitor shows how many simulation runs were created per hour.

Records come from the simulations API, or from a directory of .json/.jsonl
snapshot files when --dir is given. Without a subcommand the hourly series is
printed once.

Examples:
  go-sim-monitor                                       # Hourly counts from the API
  go-sim-monitor --dir ./snapshots --output csv        # Offline, as CSV
  go-sim-monitor --status failed --output json         # Failed runs only
  go-sim-monitor --start 2024-01-01T00:00:00Z --end 2024-01-02T00:00:00Z
  go-sim-monitor chart                                 # Interactive zoomable chart`,
		RunE:         runSeries,
		SilenceUsage: true,
	}
)

const (
	defaultLogFile    = "~/.go-sim-monitor/logs/app.log"
	defaultCacheDir   = "~/.go-sim-monitor/cache"
	defaultConfigFile = "~/.go-sim-monitor/config.yaml"
)

func init() {
	// Data source configuration
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "",
		"Simulations API base URL (default http://localhost:5000)")
	rootCmd.PersistentFlags().DurationVar(&apiTimeout, "api-timeout", constants.DefaultAPITimeout,
		"Timeout of a single API request")
	rootCmd.PersistentFlags().StringVar(&dataDir, "dir", "",
		"Read snapshot files from this directory instead of the API")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", defaultConfigFile,
		"YAML config file")

	// Record filters
	rootCmd.PersistentFlags().StringVar(&status, "status", "",
		"Only count simulations with this status (created, in_progress, done, failed, canceled)")
	rootCmd.PersistentFlags().StringVar(&experiment, "experiment", "",
		"Only count simulations of this experiment")
	rootCmd.PersistentFlags().StringArrayVar(&tags, "tag", nil,
		"Only count simulations carrying this tag, as name=value (repeatable)")

	// Output configuration
	rootCmd.Flags().StringVarP(&outputFormat, "output", "o", "table",
		"Output format (table, json, csv)")
	rootCmd.PersistentFlags().StringVar(&timezone, "timezone", "Local",
		"Timezone setting (e.g., Asia/Shanghai, UTC)")

	// Time filtering
	rootCmd.Flags().StringVar(&startTime, "start", "",
		"Only count simulations created at or after this time (RFC3339 or YYYY-MM-DD)")
	rootCmd.Flags().StringVar(&endTime, "end", "",
		"Only count simulations created before this time (RFC3339 or YYYY-MM-DD)")

	// System and debugging
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug mode")
	rootCmd.PersistentFlags().BoolVarP(&reset, "reset", "r", false,
		"Clear the snapshot cache before loading")
}

func runSeries(cmd *cobra.Command, args []string) error {
	config, err := setup(cmd)
	if err != nil {
		return err
	}
	defer util.CloseLogger()

	filter, err := parseRange(startTime, endTime)
	if err != nil {
		return err
	}

	f, err := formatter.New(outputFormat)
	if err != nil {
		return err
	}

	loader, err := chart.NewDataLoader(config)
	if err != nil {
		return fmt.Errorf("failed to create data loader: %w", err)
	}

	records, err := loader.Load(contextOf(cmd))
	if err != nil {
		return err
	}

	series, stats := aggregator.AggregateWithStats(model.FilterSimulations(records, filter))
	stats.LogSkipped(loader.Source())
	util.LogInfo(fmt.Sprintf("Aggregated %d simulations into %d buckets", aggregator.Total(series), len(series)))

	return f.Format(cmd.OutOrStdout(), series)
}

func Execute() error {
	return rootCmd.Execute()
}

// setup initializes logging and the timezone, merges the config file under the
// flags and returns a validated config with expanded paths
func setup(cmd *cobra.Command) (*chart.ChartConfig, error) {
	logLevel := "info"
	if debug {
		logLevel = "debug"
	}

	logFile := expandPath(defaultLogFile)
	if err := ensureDir(filepath.Dir(logFile)); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	if err := util.InitLogger(logLevel, logFile, debug); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	fc, err := loadFileConfig(expandPath(configFile), cmd.Flags().Changed("config"))
	if err != nil {
		return nil, err
	}
	mergeFileConfig(cmd, fc)

	if err := util.InitializeTimeProvider(timezone); err != nil {
		return nil, fmt.Errorf("failed to initialize timezone: %w", err)
	}

	tagFilters, err := parseTags(tags)
	if err != nil {
		return nil, err
	}

	config := &chart.ChartConfig{
		APIURL:          apiURL,
		CacheDir:        expandPath(defaultCacheDir),
		Status:          status,
		ExperimentID:    experiment,
		Tags:            tagFilters,
		Timezone:        timezone,
		RefreshInterval: chartRefreshInterval,
		APITimeout:      apiTimeout,
		Concurrency:     runtime.NumCPU(),
	}
	if dataDir != "" {
		config.DataDir = expandPath(dataDir)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if reset {
		if err := clearCache(config.CacheDir); err != nil {
			return nil, fmt.Errorf("failed to clear cache: %w", err)
		}
		util.LogInfo("Cache cleared")
	}

	return config, nil
}

// parseRange builds a filter from optional --start/--end values
func parseRange(start, end string) (model.FilterRange, error) {
	var filter model.FilterRange

	if start != "" {
		t, err := parseTime(start)
		if err != nil {
			return filter, fmt.Errorf("invalid start time: %w", err)
		}
		filter.Start = &t
	}
	if end != "" {
		t, err := parseTime(end)
		if err != nil {
			return filter, fmt.Errorf("invalid end time: %w", err)
		}
		filter.End = &t
	}
	if filter.Start != nil && filter.End != nil && !filter.Start.Before(*filter.End) {
		return filter, fmt.Errorf("start %s must be before end %s", start, end)
	}
	return filter, nil
}

func parseTags(values []string) ([]client.Tag, error) {
	var out []client.Tag
	for _, v := range values {
		tag, err := client.ParseTag(v)
		if err != nil {
			return nil, err
		}
		out = append(out, tag)
	}
	return out, nil
}

// parseTime accepts RFC3339 or a bare date in the configured timezone
func parseTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02", value, util.GetTimeProvider().Location())
}

// Helper functions

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}

func clearCache(cacheDir string) error {
	fc, err := cache.NewFileCache(cacheDir)
	if err != nil {
		return err
	}
	return fc.Clear()
}
