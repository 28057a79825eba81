package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// UnknownSize disables the size check in WriteVerified.
const UnknownSize int64 = -1

// Written describes a file produced by WriteVerified.
type Written struct {
	Path   string
	Size   int64
	SHA256 string
}

// WriteVerified streams r into dst via a temp file in the same directory and
// renames it into place once the byte count matches expectedSize. The temp
// file is removed on any failure, so dst is either complete or untouched.
func WriteVerified(fs billy.Filesystem, dst string, r io.Reader, expectedSize int64) (Written, error) {
	dir := filepath.Dir(dst)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return Written{}, fmt.Errorf("create directory: %w", err)
	}

	tmp, err := util.TempFile(fs, dir, ".nexscan-part-")
	if err != nil {
		return Written{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = fs.Remove(tmpName)
		}
	}()

	hasher := sha256.New()
	written, err := io.Copy(io.MultiWriter(tmp, hasher), r)
	if err != nil {
		return Written{}, fmt.Errorf("write %s: %w", dst, err)
	}
	if err := tmp.Close(); err != nil {
		return Written{}, fmt.Errorf("close temp file: %w", err)
	}
	if expectedSize >= 0 && written != expectedSize {
		return Written{}, fmt.Errorf("size mismatch for %s: expected %d bytes, wrote %d bytes", dst, expectedSize, written)
	}

	if err := fs.Rename(tmpName, dst); err != nil {
		return Written{}, fmt.Errorf("rename into place: %w", err)
	}
	committed = true

	return Written{
		Path:   dst,
		Size:   written,
		SHA256: hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}
