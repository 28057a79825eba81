// Package availability classifies archive scans as already downloaded or
// missing by looking for their file names in a local folder.
package availability

import (
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"nexscan/internal/archive"
	"nexscan/internal/logging"
)

// ErrUnsafePath reports a scan whose remote path would resolve outside Root.
var ErrUnsafePath = errors.New("availability: remote path escapes the local root")

// DefaultSkipSuffixes are file name endings that are never classified.
var DefaultSkipSuffixes = []string{"MDM"}

// Result splits scans by local presence. Skipped holds scans with an
// unreadable suffix; they are in neither Present nor Missing.
type Result struct {
	Present []archive.Scan `json:"present"`
	Missing []archive.Scan `json:"missing"`
	Skipped []archive.Scan `json:"skipped"`
}

// Checker looks for scans under Root. With Mirrored set, each scan is looked
// up under Root/RemotePath instead, matching the archive's folder layout.
type Checker struct {
	FS           billy.Filesystem
	Root         string
	Mirrored     bool
	SkipSuffixes []string
	Logger       *slog.Logger
}

// NewOSChecker returns a Checker over the host filesystem.
func NewOSChecker(root string, mirrored bool, skipSuffixes []string, logger *slog.Logger) *Checker {
	return &Checker{
		FS:           osfs.New("/"),
		Root:         root,
		Mirrored:     mirrored,
		SkipSuffixes: skipSuffixes,
		Logger:       logger,
	}
}

// Skip reports whether a file name ends with one of the suffixes.
func Skip(filename string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if suffix != "" && strings.HasSuffix(filename, suffix) {
			return true
		}
	}
	return false
}

// Check classifies every scan. A scan is present iff some file name in its
// folder contains the scan's file name. Listing errors other than a missing
// folder are returned unchanged.
func (c *Checker) Check(scans []archive.Scan) (Result, error) {
	logger := logging.NewComponentLogger(c.Logger, "availability")
	suffixes := c.SkipSuffixes
	if suffixes == nil {
		suffixes = DefaultSkipSuffixes
	}

	result := Result{Present: []archive.Scan{}, Missing: []archive.Scan{}, Skipped: []archive.Scan{}}

	var rootNames []string
	rootListed := false

	for _, scan := range scans {
		if Skip(scan.Filename, suffixes) {
			result.Skipped = append(result.Skipped, scan)
			continue
		}

		var names []string
		if c.Mirrored {
			folder, err := c.Folder(scan)
			if err != nil {
				return result, err
			}
			listed, err := c.list(folder)
			if err != nil {
				return result, err
			}
			names = listed
		} else {
			if !rootListed {
				listed, err := c.list(c.Root)
				if err != nil {
					return result, err
				}
				rootNames, rootListed = listed, true
			}
			names = rootNames
		}

		if containsName(names, scan.Filename) {
			result.Present = append(result.Present, scan)
		} else {
			result.Missing = append(result.Missing, scan)
		}
	}

	logger.Info("availability check complete",
		logging.String("root", c.Root),
		logging.Bool("mirrored", c.Mirrored),
		logging.Int("present", len(result.Present)),
		logging.Int("missing", len(result.Missing)),
		logging.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

// Folder returns the local folder a scan is expected in. A remote path that
// is absolute or climbs out of Root is rejected with ErrUnsafePath.
func (c *Checker) Folder(scan archive.Scan) (string, error) {
	if !c.Mirrored || scan.RemotePath == "" {
		return c.Root, nil
	}
	cleaned := path.Clean(filepath.ToSlash(scan.RemotePath))
	if path.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q for %s", ErrUnsafePath, scan.RemotePath, scan.Filename)
	}
	return filepath.Join(c.Root, filepath.FromSlash(cleaned)), nil
}

// list returns the visible file names in dir. Dot-files are left out, which
// also hides temp files from interrupted downloads.
func (c *Checker) list(dir string) ([]string, error) {
	matches, err := util.Glob(c.FS, filepath.Join(dir, "*"))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	names := make([]string, 0, len(matches))
	for _, match := range matches {
		name := filepath.Base(match)
		if strings.HasPrefix(name, ".") {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

func containsName(names []string, filename string) bool {
	for _, name := range names {
		if strings.Contains(name, filename) {
			return true
		}
	}
	return false
}
