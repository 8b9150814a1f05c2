package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

// Simulation statuses reported by the local platform
const (
	StatusCreated    = "created"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
	StatusFailed     = "failed"
	StatusCanceled   = "canceled"
)

// Statuses lists every known simulation status
var Statuses = []string{StatusCreated, StatusInProgress, StatusDone, StatusFailed, StatusCanceled}

// Simulation is a single simulation run as returned by GET /api/simulations.
// Records are read-only once decoded.
type Simulation struct {
	UUID         string                 `json:"uuid"`
	ParentUUID   string                 `json:"parent_uuid,omitempty"`
	Status       string                 `json:"status"`
	DataPath     string                 `json:"data_path,omitempty"`
	Tags         map[string]interface{} `json:"tags,omitempty"`
	ExtraDetails map[string]interface{} `json:"extra_details,omitempty"`
	Created      Timestamp              `json:"created"`
	Updated      Timestamp              `json:"updated,omitempty"`
}

// ExperimentID returns the experiment the simulation belongs to
func (s Simulation) ExperimentID() string {
	return s.ParentUUID
}

// CreatedTime returns the parsed creation time; ok is false when the field is
// missing or unparseable.
func (s Simulation) CreatedTime() (time.Time, bool) {
	return s.Created.Time()
}

// HasTag reports whether the simulation carries tag name with the given value
func (s Simulation) HasTag(name, value string) bool {
	v, ok := s.Tags[name]
	if !ok {
		return false
	}
	return fmt.Sprint(v) == value
}

// IsValidStatus reports whether status is a known simulation status
func IsValidStatus(status string) bool {
	for _, s := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// Timestamp keeps the raw value of a timestamp field. The API emits ISO-8601
// strings, older snapshots carry epoch seconds or milliseconds.
type Timestamp string

// timestampLayouts are tried in order; layouts without a zone are read as UTC
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC1123,
	time.RFC1123Z,
}

// epochMillisThreshold separates epoch seconds from epoch milliseconds
const epochMillisThreshold = 100_000_000_000

// NewTimestamp builds a Timestamp from a time value
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t.UTC().Format(time.RFC3339Nano))
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		*ts = ""
		return nil
	}

	var str string
	if err := sonic.Unmarshal(data, &str); err == nil {
		*ts = Timestamp(str)
		return nil
	}

	var num float64
	if err := sonic.Unmarshal(data, &num); err == nil {
		*ts = Timestamp(strconv.FormatFloat(num, 'f', -1, 64))
		return nil
	}

	return fmt.Errorf("timestamp must be a string, a number or null")
}

// Time parses the timestamp
func (ts Timestamp) Time() (time.Time, bool) {
	raw := strings.TrimSpace(string(ts))
	if raw == "" {
		return time.Time{}, false
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}

	if num, err := strconv.ParseFloat(raw, 64); err == nil && num > 0 {
		if num >= epochMillisThreshold {
			return time.UnixMilli(int64(num)).UTC(), true
		}
		sec := int64(num)
		nsec := int64((num - float64(sec)) * float64(time.Second))
		return time.Unix(sec, nsec).UTC(), true
	}

	return time.Time{}, false
}
