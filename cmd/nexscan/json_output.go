package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"nexscan/internal/archive"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readScans decodes scan records written by `query --json`. A path of "-"
// reads from the command's stdin.
func readScans(cmd *cobra.Command, path string) ([]archive.Scan, error) {
	path = strings.TrimSpace(path)
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open scan list: %w", err)
		}
		defer file.Close()
		r = file
	}

	var scans []archive.Scan
	if err := json.NewDecoder(r).Decode(&scans); err != nil {
		return nil, fmt.Errorf("decode scan list: %w", err)
	}
	return scans, nil
}
