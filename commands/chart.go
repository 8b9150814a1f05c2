package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/penwyp/go-sim-monitor/internal/application/chart"
	"github.com/penwyp/go-sim-monitor/internal/core/constants"
	"github.com/penwyp/go-sim-monitor/internal/util"
	"github.com/spf13/cobra"
)

var chartRefreshInterval time.Duration

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Interactive hourly chart of simulation runs",
	Long: `Draws a bar chart of simulations created per hour and keeps it up to date.

Move the cursor with the arrow keys, mark a range with space and press enter to
zoom into it. Press 0 to reset the zoom. Resizing the terminal also resets it.

Records shown at startup come from the snapshot cache while the first fetch runs.`,
	RunE: runChart,
}

func init() {
	rootCmd.AddCommand(chartCmd)

	chartCmd.Flags().DurationVar(&chartRefreshInterval, "refresh-interval", constants.DefaultRefreshInterval,
		"How often to fetch simulations")
}

func runChart(cmd *cobra.Command, args []string) error {
	config, err := setup(cmd)
	if err != nil {
		return err
	}
	defer util.CloseLogger()

	orchestrator, err := chart.NewOrchestrator(config)
	if err != nil {
		return fmt.Errorf("failed to create chart: %w", err)
	}

	ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return orchestrator.Run(ctx)
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
