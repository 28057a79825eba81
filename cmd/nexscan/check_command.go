package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"nexscan/internal/archive"
	"nexscan/internal/availability"
	"nexscan/internal/config"
)

// localTarget holds the --dir/--mirrored flags shared by check and download.
type localTarget struct {
	dir      string
	mirrored bool
}

func (l *localTarget) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&l.dir, "dir", "d", "", "Local scan folder (defaults to local.data_dir)")
	cmd.Flags().BoolVar(&l.mirrored, "mirrored", false, "Expect scans under <dir>/<YYYY>/<MM>/<DD>/<RADAR> (defaults to local.mirrored_structure)")
}

// resolve applies config defaults for flags the user did not set.
func (l *localTarget) resolve(cmd *cobra.Command, cfg *config.Config) (string, bool, error) {
	dir := cfg.Local.DataDir
	if strings.TrimSpace(l.dir) != "" {
		expanded, err := config.ExpandPath(l.dir)
		if err != nil {
			return "", false, fmt.Errorf("resolve --dir: %w", err)
		}
		dir = expanded
	}
	mirrored := cfg.Local.MirroredStructure
	if cmd.Flags().Changed("mirrored") {
		mirrored = l.mirrored
	}
	return dir, mirrored, nil
}

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var selection scanSelection
	var target localTarget
	var scansPath string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report which archive scans are already in a local folder",
		Long: `Classify scans as present or missing in a local folder.

Scans come either from a file written by "nexscan query --json" (--scans, "-"
for stdin) or from a fresh archive query (--radar/--start/--end). A scan is
present when a file in its folder has a name containing the scan's file name,
so compressed copies such as KTLX20200101_001027_V06.gz count. Files with an
unreadable suffix (local.skip_suffixes) are skipped.`,
		Example: `  nexscan query -r KTLX --start 2020-01-01 --end 2020-01-02 --json | nexscan check --scans -
  nexscan check -r KTLX --start 2020-01-01T00:05 --end 2020-01-01T01:00 --dir ~/nexrad --mirrored`,
		RunE: func(cmd *cobra.Command, args []string) error {
			hasScans := strings.TrimSpace(scansPath) != ""
			if hasScans == selection.set() {
				return errors.New("provide either --scans or --radar/--start/--end")
			}

			var sess *session
			var err error
			if hasScans {
				sess, err = ctx.openLocalSession(cmd)
			} else {
				sess, err = ctx.openSession(cmd)
			}
			if err != nil {
				return err
			}
			dir, mirrored, err := target.resolve(cmd, sess.cfg)
			if err != nil {
				return err
			}

			var scans []archive.Scan
			if hasScans {
				scans, err = readScans(cmd, scansPath)
				if err != nil {
					return err
				}
			} else {
				result, err := selection.query(sess)
				if err != nil {
					return err
				}
				if !asJSON {
					for _, line := range failedOutcomeLines(result, shouldColorize(cmd.OutOrStdout())) {
						fmt.Fprintln(cmd.OutOrStdout(), line)
					}
				}
				scans = result.Scans
			}

			checker := availability.NewOSChecker(dir, mirrored, sess.cfg.Local.SkipSuffixes, sess.runLogger)
			result, err := checker.Check(scans)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, result)
			}
			printAvailability(cmd, dir, mirrored, result)
			return nil
		},
	}

	selection.bind(cmd)
	target.bind(cmd)
	cmd.Flags().StringVar(&scansPath, "scans", "", `Scan list written by "query --json" ("-" for stdin)`)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Write the present/missing/skipped lists as JSON")
	return cmd
}

func printAvailability(cmd *cobra.Command, dir string, mirrored bool, result availability.Result) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	rows := make([][]string, 0, len(result.Present)+len(result.Missing)+len(result.Skipped))
	for _, scan := range result.Present {
		rows = append(rows, []string{scan.Filename, scan.RemotePath, colorText("present", statusOK, colorize)})
	}
	for _, scan := range result.Missing {
		rows = append(rows, []string{scan.Filename, scan.RemotePath, colorText("missing", statusWarn, colorize)})
	}
	for _, scan := range result.Skipped {
		rows = append(rows, []string{scan.Filename, scan.RemotePath, colorText("skipped", statusInfo, colorize)})
	}
	if len(rows) == 0 {
		fmt.Fprintln(out, "No scans to check")
		return
	}

	fmt.Fprintln(out, renderTable([]string{"File", "Remote Path", "Status"}, rows, nil))
	fmt.Fprintf(out, "Folder: %s (mirrored: %s)\n", dir, yesNo(mirrored))
	fmt.Fprintf(out, "Present: %d  Missing: %d  Skipped: %d\n",
		len(result.Present), len(result.Missing), len(result.Skipped))
}
