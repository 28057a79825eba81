package scanquery

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrShape reports radar and window lists that cannot be paired.
var ErrShape = errors.New("scanquery: radar and time range counts cannot be paired")

// TimeRange bounds a query window. Both ends are inclusive.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (r TimeRange) String() string {
	return fmt.Sprintf("%s to %s", r.Start.UTC().Format(time.RFC3339), r.End.UTC().Format(time.RFC3339))
}

// Request is one (radar, window) lookup.
type Request struct {
	RadarID string    `json:"radar_id"`
	Range   TimeRange `json:"range"`
}

// NewTimeRanges pairs start and end instants positionally.
func NewTimeRanges(starts, ends []time.Time) ([]TimeRange, error) {
	if len(starts) != len(ends) {
		return nil, fmt.Errorf("%w: %d start times but %d end times", ErrShape, len(starts), len(ends))
	}
	ranges := make([]TimeRange, len(starts))
	for i := range starts {
		ranges[i] = TimeRange{Start: starts[i].UTC(), End: ends[i].UTC()}
	}
	return ranges, nil
}

// BuildRequests pairs radars with ranges. Supported shapes:
//   - one radar, one range
//   - one radar, many ranges (the radar is repeated)
//   - many radars, one range (the range is broadcast)
//   - many radars, the same number of ranges (matched by position)
func BuildRequests(radars []string, ranges []TimeRange) ([]Request, error) {
	cleaned := make([]string, 0, len(radars))
	for _, radar := range radars {
		if trimmed := strings.TrimSpace(radar); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("%w: at least one radar id is required", ErrShape)
	}
	if len(ranges) == 0 {
		return nil, fmt.Errorf("%w: at least one time range is required", ErrShape)
	}

	switch {
	case len(cleaned) == 1:
		requests := make([]Request, len(ranges))
		for i, r := range ranges {
			requests[i] = Request{RadarID: cleaned[0], Range: r}
		}
		return requests, nil
	case len(ranges) == 1:
		requests := make([]Request, len(cleaned))
		for i, radar := range cleaned {
			requests[i] = Request{RadarID: radar, Range: ranges[0]}
		}
		return requests, nil
	case len(cleaned) == len(ranges):
		requests := make([]Request, len(cleaned))
		for i, radar := range cleaned {
			requests[i] = Request{RadarID: radar, Range: ranges[i]}
		}
		return requests, nil
	default:
		return nil, fmt.Errorf("%w: %d radars and %d time ranges", ErrShape, len(cleaned), len(ranges))
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTime parses a timestamp in RFC 3339 or one of the shorter layouts.
// Values without a zone are taken as UTC.
func ParseTime(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, trimmed, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse time %q: expected RFC 3339 or YYYY-MM-DD[THH:MM[:SS]]", value)
}
