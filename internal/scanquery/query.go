package scanquery

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"nexscan/internal/archive"
	"nexscan/internal/logging"
)

// Status classifies the result of one request.
type Status string

const (
	StatusOK     Status = "ok"
	StatusNoData Status = "no_data"
	StatusError  Status = "error"
)

// Outcome records what happened to one request.
type Outcome struct {
	Request Request `json:"request"`
	Status  Status  `json:"status"`
	Count   int     `json:"count"`
	Err     error   `json:"-"`
}

// Result is the flattened output of a query.
type Result struct {
	Scans    []archive.Scan
	Outcomes []Outcome
	// Err is set only when the context ended before every request ran.
	Err error
}

// Failed returns the outcomes that produced no scans.
func (r Result) Failed() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if o.Status != StatusOK {
			failed = append(failed, o)
		}
	}
	return failed
}

// Querier runs requests against an archive client.
type Querier struct {
	client archive.Client
	logger *slog.Logger
}

// NewQuerier constructs a Querier. A nil logger discards output.
func NewQuerier(client archive.Client, logger *slog.Logger) *Querier {
	return &Querier{
		client: client,
		logger: logging.NewComponentLogger(logger, "scanquery"),
	}
}

// Query issues one archive lookup per request, in order, and appends every
// returned scan to a flat list. Failures are logged and counted as zero scans.
func (q *Querier) Query(ctx context.Context, requests []Request) Result {
	logger := logging.WithContext(ctx, q.logger)
	result := Result{Scans: []archive.Scan{}}
	started := time.Now()

	for _, req := range requests {
		if err := ctx.Err(); err != nil {
			result.Err = err
			return result
		}

		scans, err := q.client.AvailableScans(ctx, req.Range.Start, req.Range.End, req.RadarID)
		outcome := Outcome{Request: req, Status: StatusOK, Count: len(scans)}
		if err != nil {
			outcome.Count = 0
			outcome.Err = err
			outcome.Status = StatusError
			if errors.Is(err, archive.ErrNoData) {
				outcome.Status = StatusNoData
			}
			q.logFailure(logger, req, outcome.Status, err)
			if ctxErr := ctx.Err(); ctxErr != nil {
				result.Outcomes = append(result.Outcomes, outcome)
				result.Err = ctxErr
				return result
			}
		} else {
			result.Scans = append(result.Scans, scans...)
			logger.Debug("archive lookup complete",
				logging.String(logging.FieldRadar, req.RadarID),
				logging.String("window", req.Range.String()),
				logging.Int("scans", len(scans)),
			)
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	logger.Info("scan query complete",
		logging.Int("requests", len(requests)),
		logging.Int("scans", len(result.Scans)),
		logging.Int("failed", len(result.Failed())),
		logging.Duration("elapsed", time.Since(started)),
	)
	return result
}

func (q *Querier) logFailure(logger *slog.Logger, req Request, status Status, err error) {
	attrs := []logging.Attr{
		logging.String(logging.FieldRadar, req.RadarID),
		logging.Time("start", req.Range.Start),
		logging.Time("end", req.Range.End),
		logging.Error(err),
		logging.String(logging.FieldImpact, "no scans returned for this radar and window"),
	}
	if status == StatusNoData {
		logging.WarnWithContext(logger, "archive has no record for radar in time range", "archive_no_data", attrs...)
		return
	}
	logging.WarnWithContext(logger, "archive lookup failed for radar in time range", "archive_lookup_failed", attrs...)
}

// Query is a convenience wrapper: pair radars with ranges, then run the
// lookups with client.
func Query(ctx context.Context, client archive.Client, radars []string, ranges []TimeRange, logger *slog.Logger) (Result, error) {
	requests, err := BuildRequests(radars, ranges)
	if err != nil {
		return Result{}, err
	}
	result := NewQuerier(client, logger).Query(ctx, requests)
	return result, result.Err
}

// Window is shorthand for building a TimeRange.
func Window(start, end time.Time) TimeRange {
	return TimeRange{Start: start.UTC(), End: end.UTC()}
}
