package constants

import "time"

const (
	// Chart buckets
	BucketDuration = time.Hour
	BucketSeconds  = int64(3600)

	// Refresh cadence
	DefaultRefreshInterval = 30 * time.Second
	MinRefreshInterval     = 2 * time.Second

	// Simulations API
	DefaultAPIURL     = "http://localhost:5000"
	DefaultAPITimeout = 10 * time.Second
	DefaultPageSize   = 500
	MaxPages          = 1000
)
