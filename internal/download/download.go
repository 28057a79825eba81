// Package download fetches archive scans that are missing from the local
// folder. Scans are fetched one at a time; a failed scan is logged and the
// remaining scans are still attempted.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/gofrs/flock"

	"nexscan/internal/archive"
	"nexscan/internal/availability"
	"nexscan/internal/fileutil"
	"nexscan/internal/logging"
)

// LockFileName is created in the download root while a download runs.
const LockFileName = ".nexscan.lock"

var (
	// ErrLocked reports that another process holds the download lock.
	ErrLocked = errors.New("another download is already writing to this folder")
	// ErrInsufficientSpace reports that the missing scans would not fit.
	ErrInsufficientSpace = errors.New("insufficient free space")
)

// Source opens archive objects for reading.
type Source interface {
	Open(ctx context.Context, scan archive.Scan) (io.ReadCloser, int64, error)
}

// Options configures a Downloader.
type Options struct {
	// FS receives the scan files. Left nil, the host filesystem is used and
	// the download takes the folder lock and runs the free-space preflight.
	// Both work on host paths, so they are skipped for any other FS.
	FS           billy.Filesystem
	Root         string
	Mirrored     bool
	SkipSuffixes []string
	Logger       *slog.Logger
}

// Item is one scan written to disk.
type Item struct {
	Scan   archive.Scan `json:"scan"`
	Path   string       `json:"path"`
	Size   int64        `json:"size"`
	SHA256 string       `json:"sha256"`
}

// Failure is one scan that could not be fetched.
type Failure struct {
	Scan  archive.Scan `json:"scan"`
	Error string       `json:"error"`
}

// Summary reports what a download run did.
type Summary struct {
	Downloaded []Item    `json:"downloaded"`
	Failed     []Failure `json:"failed"`
	Present    int       `json:"present"`
	Skipped    int       `json:"skipped"`
	Bytes      int64     `json:"bytes"`
}

// Downloader writes missing scans under a local root.
type Downloader struct {
	source    Source
	fs        billy.Filesystem
	root      string
	checker   *availability.Checker
	logger    *slog.Logger
	hostFS    bool
	freeSpace func(path string) (uint64, error)
}

// New constructs a Downloader reading from source.
func New(source Source, opts Options) (*Downloader, error) {
	if source == nil {
		return nil, errors.New("download: archive source is required")
	}
	root := strings.TrimSpace(opts.Root)
	if root == "" {
		return nil, errors.New("download: root folder is required")
	}
	fs, hostFS := opts.FS, false
	if fs == nil {
		fs, hostFS = osfs.New("/"), true
	}
	return &Downloader{
		source: source,
		fs:     fs,
		root:   root,
		checker: &availability.Checker{
			FS:           fs,
			Root:         root,
			Mirrored:     opts.Mirrored,
			SkipSuffixes: opts.SkipSuffixes,
			Logger:       opts.Logger,
		},
		logger:    logging.NewComponentLogger(opts.Logger, "download"),
		hostFS:    hostFS,
		freeSpace: availableBytes,
	}, nil
}

// Download fetches every scan the availability check reports as missing.
// The returned error covers run-level problems (lock, preflight, listing,
// cancellation); per-scan failures are collected in Summary.Failed.
func (d *Downloader) Download(ctx context.Context, scans []archive.Scan) (Summary, error) {
	summary := Summary{Downloaded: []Item{}, Failed: []Failure{}}
	started := time.Now()

	unlock, err := d.lock()
	if err != nil {
		return summary, err
	}
	defer unlock()

	checked, err := d.checker.Check(scans)
	if err != nil {
		return summary, err
	}
	summary.Present = len(checked.Present)
	summary.Skipped = len(checked.Skipped)
	if len(checked.Missing) == 0 {
		d.logger.Info("nothing to download", logging.Int("present", summary.Present))
		return summary, nil
	}

	if d.hostFS {
		if err := d.preflight(checked.Missing); err != nil {
			return summary, err
		}
	}

	for _, scan := range checked.Missing {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		item, err := d.fetch(ctx, scan)
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			logging.WarnWithContext(d.logger, "scan download failed", "download_failed",
				logging.String("filename", scan.Filename),
				logging.String(logging.FieldRadar, scan.RadarID),
				logging.Error(err),
				logging.String(logging.FieldImpact, "scan remains missing locally"),
			)
			summary.Failed = append(summary.Failed, Failure{Scan: scan, Error: err.Error()})
			continue
		}
		summary.Downloaded = append(summary.Downloaded, item)
		summary.Bytes += item.Size
		d.logger.Debug("scan downloaded",
			logging.String("path", item.Path),
			logging.String("size", humanize.Bytes(uint64(item.Size))),
		)
	}

	d.logger.Info("download complete",
		logging.Int("downloaded", len(summary.Downloaded)),
		logging.Int("failed", len(summary.Failed)),
		logging.Int("present", summary.Present),
		logging.Int("skipped", summary.Skipped),
		logging.String("size", humanize.Bytes(uint64(summary.Bytes))),
		logging.Int64("bytes", summary.Bytes),
		logging.Duration("elapsed", time.Since(started)),
	)
	return summary, nil
}

// lock creates the root and takes the folder lock. Without a host filesystem
// there is no lock file to take.
func (d *Downloader) lock() (func(), error) {
	if !d.hostFS {
		if err := d.fs.MkdirAll(d.root, 0o755); err != nil {
			return nil, fmt.Errorf("create download root: %w", err)
		}
		return func() {}, nil
	}

	if err := os.MkdirAll(d.root, 0o755); err != nil {
		return nil, fmt.Errorf("create download root: %w", err)
	}
	lock := flock.New(filepath.Join(d.root, LockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, d.root)
	}
	return func() { _ = lock.Unlock() }, nil
}

func (d *Downloader) fetch(ctx context.Context, scan archive.Scan) (Item, error) {
	name := scan.Filename
	if name == "" || name == "." || name == ".." || name != filepath.Base(name) {
		return Item{}, fmt.Errorf("invalid scan file name %q", name)
	}
	folder, err := d.checker.Folder(scan)
	if err != nil {
		return Item{}, err
	}

	body, size, err := d.source.Open(ctx, scan)
	if err != nil {
		return Item{}, err
	}
	defer body.Close()

	if size < 0 {
		size = fileutil.UnknownSize
		if scan.Size > 0 {
			size = scan.Size
		}
	}
	dest := filepath.Join(folder, name)
	written, err := fileutil.WriteVerified(d.fs, dest, body, size)
	if err != nil {
		return Item{}, err
	}
	return Item{Scan: scan, Path: written.Path, Size: written.Size, SHA256: written.SHA256}, nil
}
