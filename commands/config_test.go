package commands

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`api_url: http://sims.local:5000
timezone: Europe/Berlin
status: failed
refresh_interval: 45s
api_timeout: 3s
tags:
  - type=calib
`), 0644))

	fc, err := loadFileConfig(path, true)
	require.NoError(t, err)
	assert.Equal(t, "http://sims.local:5000", fc.APIURL)
	assert.Equal(t, "Europe/Berlin", fc.Timezone)
	assert.Equal(t, "failed", fc.Status)
	assert.Equal(t, 45*time.Second, fc.RefreshInterval)
	assert.Equal(t, 3*time.Second, fc.APITimeout)
	assert.Equal(t, []string{"type=calib"}, fc.Tags)
}

func TestLoadFileConfig_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")

	fc, err := loadFileConfig(path, false)
	require.NoError(t, err)
	assert.Equal(t, &fileConfig{}, fc)

	_, err = loadFileConfig(path, true)
	assert.Error(t, err, "an explicit --config must exist")
}

func TestLoadFileConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: [unclosed"), 0644))

	_, err := loadFileConfig(path, true)
	assert.Error(t, err)
}

func TestMergeFileConfig_FlagsWin(t *testing.T) {
	saved := []interface{}{apiURL, timezone, apiTimeout, chartRefreshInterval, status}
	t.Cleanup(func() {
		apiURL = saved[0].(string)
		timezone = saved[1].(string)
		apiTimeout = saved[2].(time.Duration)
		chartRefreshInterval = saved[3].(time.Duration)
		status = saved[4].(string)
	})

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("api-url", "", "")
	cmd.Flags().String("timezone", "Local", "")
	require.NoError(t, cmd.ParseFlags([]string{"--api-url", "http://flag:5000"}))

	apiURL = "http://flag:5000"
	timezone = "Local"
	status = ""
	apiTimeout = 10 * time.Second
	chartRefreshInterval = 30 * time.Second

	mergeFileConfig(cmd, &fileConfig{
		APIURL:          "http://file:5000",
		Timezone:        "UTC",
		Status:          "done",
		APITimeout:      3 * time.Second,
		RefreshInterval: 45 * time.Second,
	})

	assert.Equal(t, "http://flag:5000", apiURL)
	assert.Equal(t, "UTC", timezone)
	assert.Equal(t, "done", status)
	assert.Equal(t, 3*time.Second, apiTimeout)
	assert.Equal(t, 45*time.Second, chartRefreshInterval)
}

func TestMergeFileConfig_Tags(t *testing.T) {
	t.Cleanup(func() { tags = nil })

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringArray("tag", nil, "")

	tags = nil
	mergeFileConfig(cmd, &fileConfig{Tags: []string{"type=calib"}})
	assert.Equal(t, []string{"type=calib"}, tags)

	require.NoError(t, cmd.ParseFlags([]string{"--tag", "type=sweep"}))
	tags = []string{"type=sweep"}
	mergeFileConfig(cmd, &fileConfig{Tags: []string{"type=calib"}})
	assert.Equal(t, []string{"type=sweep"}, tags, "--tag wins over the file")
}
