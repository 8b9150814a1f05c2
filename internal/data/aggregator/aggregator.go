package aggregator

import (
	"sort"
	"time"

	"github.com/penwyp/go-sim-monitor/internal/core/constants"
	"github.com/penwyp/go-sim-monitor/internal/core/model"
	"github.com/penwyp/go-sim-monitor/internal/util"
)

// Bucket holds the number of simulations created within one hour.
type Bucket struct {
	Start time.Time `json:"date"` // Hour start, UTC
	Count int       `json:"count"`
}

// End returns the exclusive end of the bucket
func (b Bucket) End() time.Time {
	return b.Start.Add(constants.BucketDuration)
}

// Stats describes how many input records ended up in the series.
type Stats struct {
	Records int // Input records
	Counted int // Records placed in a bucket
	Skipped int // Records without a usable creation time
}

// LogSkipped reports records left out of the series at debug level
func (s Stats) LogSkipped(source string) {
	if s.Skipped == 0 {
		return
	}
	util.LogDebugf("%s: skipped %d of %d simulations without a usable creation time",
		source, s.Skipped, s.Records)
}

// Aggregate converts records into a gap-free hourly series spanning
// floor(earliest) to floor(latest). Hours without records are present with a
// zero count. Records whose creation time is missing or unparseable are left
// out. The result depends only on the input.
func Aggregate(records []model.Simulation) []Bucket {
	series, _ := AggregateWithStats(records)
	return series
}

// AggregateWithStats is Aggregate plus counters for the caller to report.
func AggregateWithStats(records []model.Simulation) ([]Bucket, Stats) {
	stats := Stats{Records: len(records)}

	times := make([]time.Time, 0, len(records))
	for _, rec := range records {
		created, ok := rec.CreatedTime()
		if !ok {
			stats.Skipped++
			continue
		}
		times = append(times, created)
	}

	series := AggregateTimes(times)
	stats.Counted = Total(series)
	return series, stats
}

// AggregateTimes buckets raw creation times by hour.
func AggregateTimes(times []time.Time) []Bucket {
	if len(times) == 0 {
		return []Bucket{}
	}

	// Work on hour-floored unix seconds, sorted ascending. The caller's slice
	// is left untouched.
	hours := make([]int64, len(times))
	for i, t := range times {
		hours[i] = floorHourUnix(t)
	}
	sort.SliceStable(hours, func(i, j int) bool {
		return hours[i] < hours[j]
	})

	firstHour := hours[0]
	lastHour := hours[len(hours)-1]
	hourSpan := (lastHour - firstHour) / constants.BucketSeconds

	buckets := make([]Bucket, hourSpan+1)
	for i := range buckets {
		buckets[i] = Bucket{
			Start: time.Unix(firstHour+int64(i)*constants.BucketSeconds, 0).UTC(),
		}
	}

	for _, hour := range hours {
		idx := (hour - firstHour) / constants.BucketSeconds
		if idx < 0 || idx >= int64(len(buckets)) {
			continue
		}
		buckets[idx].Count++
	}

	return buckets
}

// FloorHour truncates t to the start of its hour on the UTC instant, so zones
// with non-hour offsets and DST changes cannot produce duplicate buckets.
func FloorHour(t time.Time) time.Time {
	return time.Unix(floorHourUnix(t), 0).UTC()
}

func floorHourUnix(t time.Time) int64 {
	sec := t.Unix()
	rem := sec % constants.BucketSeconds
	if rem < 0 {
		rem += constants.BucketSeconds
	}
	return sec - rem
}

// Total sums the bucket counts
func Total(series []Bucket) int {
	total := 0
	for _, b := range series {
		total += b.Count
	}
	return total
}

// Extent returns the covered window [first start, last end). ok is false for
// an empty series.
func Extent(series []Bucket) (start, end time.Time, ok bool) {
	if len(series) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return series[0].Start, series[len(series)-1].End(), true
}

// Peak returns the largest bucket count
func Peak(series []Bucket) int {
	peak := 0
	for _, b := range series {
		if b.Count > peak {
			peak = b.Count
		}
	}
	return peak
}
