package download

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"nexscan/internal/archive"
	"nexscan/internal/logging"
)

// preflight confirms the root is writable and that the listed sizes of the
// scans fit in the free space of its filesystem. A failed statfs is logged
// and does not block the download.
func (d *Downloader) preflight(scans []archive.Scan) error {
	if err := unix.Access(d.root, unix.W_OK|unix.X_OK); err != nil {
		return fmt.Errorf("download root %s is not writable: %w", d.root, err)
	}

	var need uint64
	for _, scan := range scans {
		if scan.Size > 0 {
			need += uint64(scan.Size)
		}
	}
	if need == 0 {
		return nil
	}

	free, err := d.freeSpace(d.root)
	if err != nil {
		logging.WarnWithContext(d.logger, "free space check failed", "preflight_statfs_failed",
			logging.String("root", d.root),
			logging.Error(err),
			logging.String(logging.FieldImpact, "download proceeds without a space check"),
		)
		return nil
	}
	if free < need {
		return fmt.Errorf("%w: need %s, %s available in %s", ErrInsufficientSpace,
			humanize.Bytes(need), humanize.Bytes(free), d.root)
	}
	return nil
}

func availableBytes(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}
