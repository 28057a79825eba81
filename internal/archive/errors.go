package archive

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

var (
	// ErrNoData reports that the archive holds no scans for the requested window.
	ErrNoData = errors.New("archive: no scans in window")
	// ErrInvalidRequest reports a malformed radar id or time window.
	ErrInvalidRequest = errors.New("archive: invalid request")
	// ErrBucketNotFound reports that the configured bucket does not exist.
	ErrBucketNotFound = errors.New("archive: bucket not found")
	// ErrObjectNotFound reports that a scan object is no longer in the archive.
	ErrObjectNotFound = errors.New("archive: object not found")
	// ErrAccessDenied reports that the archive refused the request.
	ErrAccessDenied = errors.New("archive: access denied")
)

// Error records which archive operation failed and on what.
type Error struct {
	Op     string
	Bucket string
	Key    string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Bucket != "" && e.Key != "":
		return fmt.Sprintf("archive.%s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
	case e.Bucket != "":
		return fmt.Sprintf("archive.%s bucket %s: %v", e.Op, e.Bucket, e.Err)
	default:
		return fmt.Sprintf("archive.%s: %v", e.Op, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op, bucket, key string, err error) *Error {
	return &Error{Op: op, Bucket: bucket, Key: key, Err: classify(err)}
}

// classify attaches a package sentinel to known S3 error codes so callers can
// use errors.Is without depending on the SDK.
func classify(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.ErrorCode() {
	case "NoSuchBucket":
		return fmt.Errorf("%w: %w", ErrBucketNotFound, err)
	case "NoSuchKey", "NotFound":
		return fmt.Errorf("%w: %w", ErrObjectNotFound, err)
	case "AccessDenied", "Forbidden":
		return fmt.Errorf("%w: %w", ErrAccessDenied, err)
	default:
		return err
	}
}
