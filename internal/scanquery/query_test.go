package scanquery_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"nexscan/internal/archive"
	"nexscan/internal/logging"
	"nexscan/internal/scanquery"
)

type call struct {
	radar      string
	start, end time.Time
}

type stubClient struct {
	calls   []call
	results map[string][]archive.Scan
	errs    map[string]error
	onCall  func()
}

func (s *stubClient) AvailableScans(_ context.Context, start, end time.Time, radarID string) ([]archive.Scan, error) {
	s.calls = append(s.calls, call{radar: radarID, start: start, end: end})
	if s.onCall != nil {
		s.onCall()
	}
	if err, ok := s.errs[radarID]; ok {
		return nil, err
	}
	return s.results[radarID], nil
}

func scansFor(radar string, n int) []archive.Scan {
	scans := make([]archive.Scan, n)
	for i := range scans {
		scans[i] = archive.Scan{
			Filename:   fmt.Sprintf("%s20200101_00%02d00_V06", radar, i*5),
			RemotePath: "2020/01/01/" + radar,
			RadarID:    radar,
		}
	}
	return scans
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := scanquery.ParseTime(value)
	if err != nil {
		t.Fatalf("ParseTime(%q): %v", value, err)
	}
	return parsed
}

func TestQuerySingleRadarReturnsArchiveRecords(t *testing.T) {
	client := &stubClient{results: map[string][]archive.Scan{"KTLX": scansFor("KTLX", 3)}}
	window := scanquery.Window(mustTime(t, "2020-01-01T00:05"), mustTime(t, "2020-01-01T01:00"))

	result, err := scanquery.Query(context.Background(), client, []string{"KTLX"}, []scanquery.TimeRange{window}, nil)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(result.Scans) != 3 {
		t.Fatalf("expected 3 scans, got %d", len(result.Scans))
	}
	if len(client.calls) != 1 {
		t.Fatalf("expected one archive call, got %d", len(client.calls))
	}
	got := client.calls[0]
	if got.radar != "KTLX" || !got.start.Equal(window.Start) || !got.end.Equal(window.End) {
		t.Fatalf("unexpected call %+v", got)
	}
}

func TestQueryNoDataYieldsEmptyListWithoutError(t *testing.T) {
	client := &stubClient{errs: map[string]error{"KTLX": fmt.Errorf("%w: nothing", archive.ErrNoData)}}
	window := scanquery.Window(mustTime(t, "2020-01-01T00:05"), mustTime(t, "2020-01-01T01:00"))

	result, err := scanquery.Query(context.Background(), client, []string{"KTLX"}, []scanquery.TimeRange{window}, nil)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if result.Scans == nil || len(result.Scans) != 0 {
		t.Fatalf("expected empty non-nil scan list, got %#v", result.Scans)
	}
	if len(result.Outcomes) != 1 || result.Outcomes[0].Status != scanquery.StatusNoData {
		t.Fatalf("expected no_data outcome, got %+v", result.Outcomes)
	}
}

func TestQueryMatchedRadarsInvokeClientOncePerPair(t *testing.T) {
	radars := []string{"KTLX", "KINX", "KVNX", "KFDR"}
	client := &stubClient{results: map[string][]archive.Scan{}}
	var ranges []scanquery.TimeRange
	for i, radar := range radars {
		client.results[radar] = scansFor(radar, i+1)
		start := mustTime(t, fmt.Sprintf("2020-01-0%dT00:00", i+1))
		ranges = append(ranges, scanquery.Window(start, start.Add(time.Hour)))
	}

	result, err := scanquery.Query(context.Background(), client, radars, ranges, nil)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(client.calls) != len(radars) {
		t.Fatalf("expected %d archive calls, got %d", len(radars), len(client.calls))
	}
	for i, c := range client.calls {
		if c.radar != radars[i] || !c.start.Equal(ranges[i].Start) {
			t.Fatalf("call %d paired %s with %s, want %s with %s", i, c.radar, c.start, radars[i], ranges[i].Start)
		}
	}
	if len(result.Scans) != 1+2+3+4 {
		t.Fatalf("expected 10 scans, got %d", len(result.Scans))
	}
}

func TestQueryContinuesAfterFailures(t *testing.T) {
	var logs bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &logs})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	client := &stubClient{
		results: map[string][]archive.Scan{"KINX": scansFor("KINX", 2)},
		errs: map[string]error{
			"KTLX": fmt.Errorf("%w: nothing", archive.ErrNoData),
			"KVNX": errors.New("connection reset"),
		},
	}
	window := scanquery.Window(mustTime(t, "2020-01-01T00:00"), mustTime(t, "2020-01-01T01:00"))

	requests, err := scanquery.BuildRequests([]string{"KTLX", "KVNX", "KINX"}, []scanquery.TimeRange{window})
	if err != nil {
		t.Fatalf("BuildRequests: %v", err)
	}
	result := scanquery.NewQuerier(client, logger).Query(context.Background(), requests)

	if len(client.calls) != 3 {
		t.Fatalf("expected every pair to be attempted, got %d calls", len(client.calls))
	}
	if len(result.Scans) != 2 {
		t.Fatalf("expected 2 scans from the healthy radar, got %d", len(result.Scans))
	}
	statuses := []scanquery.Status{result.Outcomes[0].Status, result.Outcomes[1].Status, result.Outcomes[2].Status}
	want := []scanquery.Status{scanquery.StatusNoData, scanquery.StatusError, scanquery.StatusOK}
	for i := range want {
		if statuses[i] != want[i] {
			t.Fatalf("unexpected statuses %v, want %v", statuses, want)
		}
	}
	if len(result.Failed()) != 2 {
		t.Fatalf("expected 2 failed outcomes, got %d", len(result.Failed()))
	}

	out := logs.String()
	if !strings.Contains(out, "archive has no record for radar in time range") || !strings.Contains(out, "radar=KTLX") {
		t.Fatalf("expected no-data warning naming KTLX, got %q", out)
	}
	if !strings.Contains(out, "archive lookup failed") || !strings.Contains(out, "radar=KVNX") {
		t.Fatalf("expected failure warning naming KVNX, got %q", out)
	}
	if !strings.Contains(out, "start=2020-01-01T00:00:00Z") {
		t.Fatalf("expected window in warning, got %q", out)
	}
}

func TestQueryKeepsDuplicatesFromOverlappingRanges(t *testing.T) {
	client := &stubClient{results: map[string][]archive.Scan{"KTLX": scansFor("KTLX", 2)}}
	a := scanquery.Window(mustTime(t, "2020-01-01T00:00"), mustTime(t, "2020-01-01T01:00"))
	b := scanquery.Window(mustTime(t, "2020-01-01T00:30"), mustTime(t, "2020-01-01T01:30"))

	result, err := scanquery.Query(context.Background(), client, []string{"KTLX"}, []scanquery.TimeRange{a, b}, nil)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(result.Scans) != 4 {
		t.Fatalf("expected duplicates to be kept, got %d scans", len(result.Scans))
	}
}

func TestQueryStopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := &stubClient{results: map[string][]archive.Scan{"KTLX": scansFor("KTLX", 1)}, onCall: cancel}
	window := scanquery.Window(mustTime(t, "2020-01-01T00:00"), mustTime(t, "2020-01-01T01:00"))

	result, err := scanquery.Query(ctx, client, []string{"KTLX", "KINX"}, []scanquery.TimeRange{window}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(client.calls) != 1 {
		t.Fatalf("expected the loop to stop after cancellation, got %d calls", len(client.calls))
	}
	if len(result.Scans) != 1 {
		t.Fatalf("expected partial results to be kept, got %d", len(result.Scans))
	}
}
