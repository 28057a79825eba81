package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"nexscan/internal/archive"
	"nexscan/internal/scanquery"
)

// scanSelection holds the --radar/--start/--end flags shared by the commands
// that query the archive.
type scanSelection struct {
	radars []string
	starts []string
	ends   []string
}

func (s *scanSelection) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringSliceVarP(&s.radars, "radar", "r", nil, "Radar identifier, e.g. KTLX (repeatable)")
	flags.StringSliceVar(&s.starts, "start", nil, "Window start, UTC (repeatable; pairs with --end)")
	flags.StringSliceVar(&s.ends, "end", nil, "Window end, UTC (repeatable; pairs with --start)")
}

func (s *scanSelection) set() bool {
	return len(s.radars) > 0 || len(s.starts) > 0 || len(s.ends) > 0
}

func (s *scanSelection) ranges() ([]scanquery.TimeRange, error) {
	if len(s.radars) == 0 {
		return nil, errors.New("at least one --radar is required")
	}
	if len(s.starts) == 0 || len(s.ends) == 0 {
		return nil, errors.New("--start and --end are required")
	}
	starts, err := parseTimes("--start", s.starts)
	if err != nil {
		return nil, err
	}
	ends, err := parseTimes("--end", s.ends)
	if err != nil {
		return nil, err
	}
	return scanquery.NewTimeRanges(starts, ends)
}

// query runs the scan query stage for the selection.
func (s *scanSelection) query(sess *session) (scanquery.Result, error) {
	ranges, err := s.ranges()
	if err != nil {
		return scanquery.Result{}, err
	}
	radars := make([]string, len(s.radars))
	for i, radar := range s.radars {
		radars[i] = strings.TrimSpace(radar)
	}
	return scanquery.Query(sess.ctx, sess.archive, radars, ranges, sess.logger)
}

func parseTimes(flag string, values []string) ([]time.Time, error) {
	times := make([]time.Time, 0, len(values))
	for _, value := range values {
		t, err := scanquery.ParseTime(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", flag, err)
		}
		times = append(times, t)
	}
	return times, nil
}

// failedOutcomeLines describes requests that returned nothing, for the
// human-readable output.
func failedOutcomeLines(result scanquery.Result, colorize bool) []string {
	var lines []string
	for _, outcome := range result.Failed() {
		kind := statusWarn
		message := "no scans in archive"
		if outcome.Status == scanquery.StatusError {
			kind = statusError
			message = "lookup failed"
			if errors.Is(outcome.Err, archive.ErrBucketNotFound) {
				message = "bucket not found"
			} else if errors.Is(outcome.Err, archive.ErrAccessDenied) {
				message = "access denied"
			}
		}
		label := fmt.Sprintf("%s %s", outcome.Request.RadarID, outcome.Request.Range)
		lines = append(lines, renderStatusLine(label, kind, message, colorize))
	}
	return lines
}
