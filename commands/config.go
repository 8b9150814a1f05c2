package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/penwyp/go-sim-monitor/internal/util"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// fileConfig is the optional YAML config file. Flags set on the command line
// take precedence over it.
type fileConfig struct {
	APIURL          string        `yaml:"api_url"`
	Dir             string        `yaml:"dir"`
	Timezone        string        `yaml:"timezone"`
	Status          string        `yaml:"status"`
	Experiment      string        `yaml:"experiment"`
	Tags            []string      `yaml:"tags"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	APITimeout      time.Duration `yaml:"api_timeout"`
	Addr            string        `yaml:"addr"`
}

// loadFileConfig reads path. A missing file is only an error when it was
// asked for explicitly.
func loadFileConfig(path string, explicit bool) (*fileConfig, error) {
	fc := &fileConfig{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return fc, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	util.LogDebug(fmt.Sprintf("Loaded config file %s", path))
	return fc, nil
}

// mergeFileConfig copies file values into the flag variables the user did not set
func mergeFileConfig(cmd *cobra.Command, fc *fileConfig) {
	merge := func(flag string, target *string, value string) {
		if value != "" && !cmd.Flags().Changed(flag) {
			*target = value
		}
	}

	merge("api-url", &apiURL, fc.APIURL)
	merge("dir", &dataDir, fc.Dir)
	merge("timezone", &timezone, fc.Timezone)
	merge("status", &status, fc.Status)
	merge("experiment", &experiment, fc.Experiment)
	merge("addr", &serveAddr, fc.Addr)

	if len(fc.Tags) > 0 && !cmd.Flags().Changed("tag") {
		tags = fc.Tags
	}
	if fc.RefreshInterval > 0 && !cmd.Flags().Changed("refresh-interval") {
		chartRefreshInterval = fc.RefreshInterval
	}
	if fc.APITimeout > 0 && !cmd.Flags().Changed("api-timeout") {
		apiTimeout = fc.APITimeout
	}
}
