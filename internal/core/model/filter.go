package model

import "time"

// FilterRange is the time window selected on the chart. Both bounds nil means
// no filter.
type FilterRange struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

// NewFilterRange builds a bounded range
func NewFilterRange(start, end time.Time) FilterRange {
	return FilterRange{Start: &start, End: &end}
}

// IsZero reports whether the range is unfiltered
func (f FilterRange) IsZero() bool {
	return f.Start == nil && f.End == nil
}

// Contains reports whether t falls inside the range. The start is inclusive,
// the end exclusive.
func (f FilterRange) Contains(t time.Time) bool {
	if f.Start != nil && t.Before(*f.Start) {
		return false
	}
	if f.End != nil && !t.Before(*f.End) {
		return false
	}
	return true
}

// Equal compares two ranges by instant
func (f FilterRange) Equal(o FilterRange) bool {
	return timePtrEqual(f.Start, o.Start) && timePtrEqual(f.End, o.End)
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// SetFilter is the single message the chart sends to the application store
type SetFilter struct {
	Start *time.Time
	End   *time.Time
}

// Range returns the message payload as a FilterRange
func (m SetFilter) Range() FilterRange {
	return FilterRange{Start: m.Start, End: m.End}
}

// ClearFilter is the message dispatched when no range is selected
func ClearFilter() SetFilter {
	return SetFilter{}
}

// FilterSimulations returns the records whose creation time falls inside r.
// Records without a parseable creation time only pass an unfiltered range.
func FilterSimulations(records []Simulation, r FilterRange) []Simulation {
	if r.IsZero() {
		return records
	}
	out := make([]Simulation, 0, len(records))
	for _, rec := range records {
		created, ok := rec.CreatedTime()
		if !ok {
			continue
		}
		if r.Contains(created) {
			out = append(out, rec)
		}
	}
	return out
}
