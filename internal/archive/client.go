package archive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"nexscan/internal/logging"
)

// Client answers "which scans exist for this radar in this window".
type Client interface {
	AvailableScans(ctx context.Context, start, end time.Time, radarID string) ([]Scan, error)
}

// ObjectAPI is the subset of the S3 API the archive client uses.
type ObjectAPI interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

var _ ObjectAPI = (*s3.Client)(nil)

// Options configures an S3Client.
type Options struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Timeout         time.Duration
	MaxRetries      int
	Logger          *slog.Logger
}

// S3Client lists and fetches scans from an S3 bucket laid out like the NEXRAD archive.
type S3Client struct {
	api    ObjectAPI
	bucket string
	logger *slog.Logger
}

// NewS3Client builds an S3Client. Requests are unsigned unless both access key
// fields are set, since the public archive allows anonymous reads.
func NewS3Client(ctx context.Context, opts Options) (*S3Client, error) {
	bucket := strings.TrimSpace(opts.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("%w: bucket must be set", ErrInvalidRequest)
	}

	region := strings.TrimSpace(opts.Region)
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	} else {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(aws.AnonymousCredentials{}))
	}
	if opts.MaxRetries > 0 {
		loadOpts = append(loadOpts, awsconfig.WithRetryMaxAttempts(opts.MaxRetries))
	}
	if opts.Timeout > 0 {
		loadOpts = append(loadOpts, awsconfig.WithHTTPClient(&http.Client{Timeout: opts.Timeout}))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, newError("init", bucket, "", err)
	}

	endpoint := strings.TrimSpace(opts.Endpoint)
	api := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return NewWithAPI(api, bucket, opts.Logger), nil
}

// NewWithAPI wraps an existing ObjectAPI implementation.
func NewWithAPI(api ObjectAPI, bucket string, logger *slog.Logger) *S3Client {
	return &S3Client{
		api:    api,
		bucket: bucket,
		logger: logging.NewComponentLogger(logger, "archive"),
	}
}

// Bucket returns the bucket the client reads from.
func (c *S3Client) Bucket() string {
	return c.bucket
}

// AvailableScans lists the scans for radarID whose scan time falls within
// [start, end]. It returns ErrNoData when the window holds no scans.
func (c *S3Client) AvailableScans(ctx context.Context, start, end time.Time, radarID string) ([]Scan, error) {
	radar, err := NormalizeRadarID(radarID)
	if err != nil {
		return nil, err
	}
	if start.IsZero() || end.IsZero() {
		return nil, fmt.Errorf("%w: start and end times must be set", ErrInvalidRequest)
	}
	start, end = start.UTC(), end.UTC()
	if start.After(end) {
		return nil, fmt.Errorf("%w: start %s is after end %s", ErrInvalidRequest,
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	var scans []Scan
	for _, day := range spannedDays(start, end) {
		listed, err := c.listPrefix(ctx, DayPrefix(day, radar))
		if err != nil {
			return nil, err
		}
		for _, scan := range listed {
			if scan.ScanTime.IsZero() {
				continue
			}
			if scan.ScanTime.Before(start) || scan.ScanTime.After(end) {
				continue
			}
			scans = append(scans, scan)
		}
	}

	if len(scans) == 0 {
		return nil, fmt.Errorf("%w: radar %s between %s and %s", ErrNoData, radar,
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return scans, nil
}

func (c *S3Client) listPrefix(ctx context.Context, prefix string) ([]Scan, error) {
	paginator := s3.NewListObjectsV2Paginator(c.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(prefix),
	})

	var scans []Scan
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, newError("list", c.bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if key == "" || strings.HasSuffix(key, "/") {
				continue
			}
			scans = append(scans, ScanFromKey(key, aws.ToInt64(obj.Size)))
		}
	}

	c.logger.Debug("listed archive prefix",
		logging.String("prefix", prefix),
		logging.Int("objects", len(scans)),
	)
	return scans, nil
}

// Open returns the body of the object behind scan along with its reported
// length (-1 when unknown). The caller closes the body.
func (c *S3Client) Open(ctx context.Context, scan Scan) (io.ReadCloser, int64, error) {
	key := scan.ObjectKey()
	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, 0, newError("fetch", c.bucket, key, err)
	}
	size := int64(-1)
	if out.ContentLength != nil {
		size = *out.ContentLength
	}
	return out.Body, size, nil
}

// Fetch streams the object behind scan into w and returns the bytes written.
func (c *S3Client) Fetch(ctx context.Context, scan Scan, w io.Writer) (int64, error) {
	body, _, err := c.Open(ctx, scan)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	written, err := io.Copy(w, body)
	if err != nil {
		return written, newError("fetch", c.bucket, scan.ObjectKey(), err)
	}
	return written, nil
}
