package commands

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/penwyp/go-sim-monitor/internal/data/client"
	"github.com/penwyp/go-sim-monitor/internal/util"
	"github.com/spf13/cobra"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel <simulation-id>",
	Short: "Cancel a simulation run",
	Args:  cobra.ExactArgs(1),
	RunE:  runCancel,
}

func init() {
	rootCmd.AddCommand(cancelCmd)
}

func runCancel(cmd *cobra.Command, args []string) error {
	id, err := simulationID(args[0])
	if err != nil {
		return err
	}

	config, err := setup(cmd)
	if err != nil {
		return err
	}
	defer util.CloseLogger()

	if config.UseDirectory() {
		return errors.New("cancel needs the simulations API, not --dir")
	}

	c, err := client.New(config.APIURL, client.WithHTTPClient(&http.Client{Timeout: config.APITimeout}))
	if err != nil {
		return err
	}

	if err := c.Cancel(contextOf(cmd), id); err != nil {
		if errors.Is(err, client.ErrNotFound) {
			return fmt.Errorf("simulation %s not found", id)
		}
		return fmt.Errorf("failed to cancel simulation %s: %w", id, err)
	}

	util.LogInfo(fmt.Sprintf("Canceled simulation %s", id))
	fmt.Fprintf(cmd.OutOrStdout(), "Canceled simulation %s\n", id)
	return nil
}

// simulationID trims and validates a simulation id. UUIDs are normalized to
// their canonical lowercase form; sequence ids pass through unchanged.
func simulationID(arg string) (string, error) {
	id := strings.TrimSpace(arg)
	if id == "" {
		return "", errors.New("simulation id must not be empty")
	}
	if u, err := uuid.Parse(id); err == nil {
		return u.String(), nil
	}
	return id, nil
}
