package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"nexscan/internal/archive"
	"nexscan/internal/config"
	"nexscan/internal/testsupport"
)

// stubArchive serves a fixed set of scans per radar.
type stubArchive struct {
	scans  map[string][]archive.Scan
	bodies map[string]string
	calls  []string
}

func (s *stubArchive) AvailableScans(_ context.Context, start, end time.Time, radarID string) ([]archive.Scan, error) {
	radar := strings.ToUpper(strings.TrimSpace(radarID))
	s.calls = append(s.calls, radar)
	var out []archive.Scan
	for _, scan := range s.scans[radar] {
		if scan.ScanTime.Before(start) || scan.ScanTime.After(end) {
			continue
		}
		out = append(out, scan)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: radar %s", archive.ErrNoData, radar)
	}
	return out, nil
}

func (s *stubArchive) Open(_ context.Context, scan archive.Scan) (io.ReadCloser, int64, error) {
	body, ok := s.bodies[scan.ObjectKey()]
	if !ok {
		return nil, 0, archive.ErrObjectNotFound
	}
	return io.NopCloser(strings.NewReader(body)), int64(len(body)), nil
}

// newStubArchive holds three KTLX scans on 2020-01-01 plus an _MDM object.
func newStubArchive() *stubArchive {
	keys := []string{
		"2020/01/01/KTLX/KTLX20200101_000512_V06",
		"2020/01/01/KTLX/KTLX20200101_001027_V06",
		"2020/01/01/KTLX/KTLX20200101_001542_V06",
		"2020/01/01/KTLX/KTLX20200101_001542_V06_MDM",
	}
	stub := &stubArchive{scans: map[string][]archive.Scan{}, bodies: map[string]string{}}
	for _, key := range keys {
		body := "volume:" + filepath.Base(key)
		scan := archive.ScanFromKey(key, int64(len(body)))
		stub.scans[scan.RadarID] = append(stub.scans[scan.RadarID], scan)
		stub.bodies[key] = body
	}
	return stub
}

type cliTestEnv struct {
	cfg        *config.Config
	archive    *stubArchive
	configPath string
	dataDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	homeDir := filepath.Join(t.TempDir(), "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	cfg := testsupport.NewConfig(t, opts...)
	return &cliTestEnv{
		cfg:        cfg,
		archive:    newStubArchive(),
		configPath: testsupport.WriteConfig(t, cfg),
		dataDir:    cfg.Local.DataDir,
	}
}

func (e *cliTestEnv) factory(context.Context, *config.Config, *slog.Logger) (archiveService, error) {
	return e.archive, nil
}

func runCLI(t *testing.T, env *cliTestEnv, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommandWith(env.factory)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
