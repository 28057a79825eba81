package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nexscan/internal/archive"
	"nexscan/internal/availability"
	"nexscan/internal/download"
	"nexscan/internal/testsupport"
)

func TestQueryCommandPrintsTable(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "", "query", "--radar", "ktlx", "--start", "2020-01-01T00:05", "--end", "2020-01-01T01:00")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	requireContains(t, out, "KTLX20200101_000512_V06")
	requireContains(t, out, "2020/01/01/KTLX")
	requireContains(t, out, "4 scans from 1 requests")
}

func TestQueryCommandJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "", "query", "-r", "KTLX", "--start", "2020-01-01T00:05", "--end", "2020-01-01T00:11", "--json")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	var scans []archive.Scan
	if err := json.Unmarshal([]byte(out), &scans); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if len(scans) != 2 {
		t.Fatalf("expected 2 scans in window, got %d", len(scans))
	}
	if scans[0].RemotePath != "2020/01/01/KTLX" || scans[0].Filename != "KTLX20200101_000512_V06" {
		t.Fatalf("unexpected first scan %+v", scans[0])
	}
}

func TestQueryCommandContinuesPastMissingRadar(t *testing.T) {
	env := setupCLITestEnv(t)

	out, stderr, err := runCLI(t, env, "", "query",
		"-r", "KINX", "-r", "KTLX",
		"--start", "2020-01-01T00:00", "--end", "2020-01-01T01:00")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(env.archive.calls) != 2 {
		t.Fatalf("expected one archive call per radar, got %v", env.archive.calls)
	}
	requireContains(t, out, "no scans in archive")
	requireContains(t, out, "4 scans from 2 requests")
	requireContains(t, stderr, "archive has no record for radar in time range")
	requireContains(t, stderr, "run_id=")
}

func TestQueryCommandNoScans(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "", "query", "-r", "KTLX", "--start", "2021-01-01", "--end", "2021-01-02")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	requireContains(t, out, "No scans found")
}

func TestQueryCommandRejectsUnpairableShape(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, env, "", "query",
		"-r", "KTLX", "-r", "KINX", "-r", "KFWS",
		"--start", "2020-01-01", "--start", "2020-01-02",
		"--end", "2020-01-01T12:00", "--end", "2020-01-02T12:00")
	if err == nil || !strings.Contains(err.Error(), "cannot be paired") {
		t.Fatalf("expected shape error, got %v", err)
	}
}

func TestQueryCommandRejectsBadTime(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, env, "", "query", "-r", "KTLX", "--start", "yesterday", "--end", "2020-01-01")
	if err == nil || !strings.Contains(err.Error(), "--start") {
		t.Fatalf("expected --start parse error, got %v", err)
	}
}

func TestCheckCommandFromScanFile(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteFile(t, filepath.Join(env.dataDir, "KTLX20200101_000512_V06.gz"), 0)

	scansJSON, _, err := runCLI(t, env, "", "query", "-r", "KTLX", "--start", "2020-01-01", "--end", "2020-01-01T01:00", "--json")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	scansPath := filepath.Join(t.TempDir(), "scans.json")
	if err := os.WriteFile(scansPath, []byte(scansJSON), 0o644); err != nil {
		t.Fatalf("write scans: %v", err)
	}

	out, _, err := runCLI(t, env, "", "check", "--scans", scansPath, "--json")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	var result availability.Result
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if len(result.Present) != 1 || result.Present[0].Filename != "KTLX20200101_000512_V06" {
		t.Fatalf("unexpected present %+v", result.Present)
	}
	if len(result.Missing) != 2 || len(result.Skipped) != 1 {
		t.Fatalf("expected 2 missing and 1 skipped, got %+v", result)
	}
}

func TestCheckCommandReadsStdin(t *testing.T) {
	env := setupCLITestEnv(t)
	scans := []archive.Scan{archive.ScanFromKey("2020/01/01/KTLX/KTLX20200101_000512_V06", 10)}
	payload, err := json.Marshal(scans)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	out, _, err := runCLI(t, env, string(payload), "check", "--scans", "-")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	requireContains(t, out, "missing")
	requireContains(t, out, "Present: 0  Missing: 1  Skipped: 0")
}

func TestCheckCommandQueriesArchiveWithMirroredLayout(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteFile(t, filepath.Join(env.dataDir, "2020", "01", "01", "KTLX", "KTLX20200101_001027_V06"), 0)
	// A flat copy does not count when the mirrored layout is in effect.
	testsupport.WriteFile(t, filepath.Join(env.dataDir, "KTLX20200101_000512_V06"), 0)

	out, _, err := runCLI(t, env, "", "check", "-r", "KTLX", "--start", "2020-01-01", "--end", "2020-01-01T01:00", "--mirrored")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	requireContains(t, out, "Present: 1  Missing: 2  Skipped: 1")
	requireContains(t, out, "mirrored: yes")
}

func TestCheckCommandRequiresOneSource(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, env, "", "check"); err == nil {
		t.Fatal("expected error without a scan source")
	}
	_, _, err := runCLI(t, env, "[]", "check", "--scans", "-", "-r", "KTLX")
	if err == nil || !strings.Contains(err.Error(), "either --scans or") {
		t.Fatalf("expected exclusive source error, got %v", err)
	}
}

func TestDownloadCommandFetchesMissingScans(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteFile(t, filepath.Join(env.dataDir, "2020", "01", "01", "KTLX", "KTLX20200101_000512_V06"), 0)

	out, _, err := runCLI(t, env, "", "download", "-r", "KTLX", "--start", "2020-01-01", "--end", "2020-01-01T01:00", "--mirrored", "--json")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	var summary download.Summary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if len(summary.Downloaded) != 2 || summary.Present != 1 || summary.Skipped != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	target := filepath.Join(env.dataDir, "2020", "01", "01", "KTLX", "KTLX20200101_001542_V06")
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read downloaded scan: %v", err)
	}
	if string(data) != "volume:KTLX20200101_001542_V06" {
		t.Fatalf("unexpected content %q", data)
	}
	if _, err := os.Stat(filepath.Join(env.dataDir, "KTLX20200101_001542_V06_MDM")); !os.IsNotExist(err) {
		t.Fatalf("MDM scan must not be downloaded, stat err=%v", err)
	}
}

func TestDownloadCommandHumanSummary(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := t.TempDir()

	out, _, err := runCLI(t, env, "", "download", "-r", "KTLX", "--start", "2020-01-01T00:10", "--end", "2020-01-01T00:11", "--dir", dir)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	requireContains(t, out, "KTLX20200101_001027_V06")
	requireContains(t, out, "Downloaded: 1")
	if _, err := os.Stat(filepath.Join(dir, "KTLX20200101_001027_V06")); err != nil {
		t.Fatalf("expected scan in flat folder: %v", err)
	}
}

func TestDownloadCommandJSONFailsWhenScansFail(t *testing.T) {
	env := setupCLITestEnv(t)
	delete(env.archive.bodies, "2020/01/01/KTLX/KTLX20200101_001027_V06")

	out, _, err := runCLI(t, env, "", "download", "-r", "KTLX", "--start", "2020-01-01", "--end", "2020-01-01T01:00", "--json")
	if err == nil || !strings.Contains(err.Error(), "1 of 3 scans failed") {
		t.Fatalf("expected failure error, got %v", err)
	}
	var summary download.Summary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("summary should still be written: %v\n%s", err, out)
	}
	if len(summary.Failed) != 1 || len(summary.Downloaded) != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}
