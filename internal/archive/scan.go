package archive

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const scanTimeLayout = "20060102_150405"

var (
	filenamePattern = regexp.MustCompile(`^([A-Za-z0-9]{4})(\d{8}_\d{6})`)
	radarIDPattern  = regexp.MustCompile(`^[A-Z0-9]{4}$`)
	upperCaser      = cases.Upper(language.Und)
)

// Scan is the metadata for one archived radar volume file.
type Scan struct {
	Filename   string    `json:"filename"`
	RemotePath string    `json:"remote_path"`
	Key        string    `json:"key"`
	RadarID    string    `json:"radar_id"`
	ScanTime   time.Time `json:"scan_time"`
	Size       int64     `json:"size"`
}

// ScanFromKey builds a Scan from an archive object key. RadarID and ScanTime are
// left zero when the file name does not follow the archive naming scheme.
func ScanFromKey(key string, size int64) Scan {
	key = strings.TrimPrefix(key, "/")
	scan := Scan{
		Filename: path.Base(key),
		Key:      key,
		Size:     size,
	}
	if dir := path.Dir(key); dir != "." {
		scan.RemotePath = dir
	}
	if radar, when, ok := ParseFilename(scan.Filename); ok {
		scan.RadarID = radar
		scan.ScanTime = when
	}
	return scan
}

// ObjectKey returns Key, or rebuilds it from RemotePath and Filename for
// records that were serialised without one.
func (s Scan) ObjectKey() string {
	if s.Key != "" {
		return s.Key
	}
	return strings.Trim(s.RemotePath+"/"+s.Filename, "/")
}

// ParseFilename extracts the radar identifier and UTC scan time from an archive
// file name such as KTLX20200101_000512_V06.
func ParseFilename(name string) (string, time.Time, bool) {
	matches := filenamePattern.FindStringSubmatch(strings.TrimSpace(name))
	if matches == nil {
		return "", time.Time{}, false
	}
	when, err := time.ParseInLocation(scanTimeLayout, matches[2], time.UTC)
	if err != nil {
		return "", time.Time{}, false
	}
	return upperCaser.String(matches[1]), when, true
}

// NormalizeRadarID trims and upper-cases a station identifier and rejects
// anything that is not four alphanumeric characters.
func NormalizeRadarID(id string) (string, error) {
	normalized := upperCaser.String(strings.TrimSpace(id))
	if !radarIDPattern.MatchString(normalized) {
		return "", fmt.Errorf("%w: radar id %q must be four alphanumeric characters", ErrInvalidRequest, id)
	}
	return normalized, nil
}

// DayPrefix returns the archive folder holding a radar's scans for the UTC day
// containing t, with a trailing slash.
func DayPrefix(t time.Time, radarID string) string {
	t = t.UTC()
	return fmt.Sprintf("%04d/%02d/%02d/%s/", t.Year(), int(t.Month()), t.Day(), radarID)
}

// spannedDays returns UTC midnights for every calendar day touched by [start, end].
func spannedDays(start, end time.Time) []time.Time {
	start, end = start.UTC(), end.UTC()
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	var days []time.Time
	for !day.After(end) {
		days = append(days, day)
		day = day.AddDate(0, 0, 1)
	}
	return days
}
