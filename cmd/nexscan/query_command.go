package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"nexscan/internal/archive"
)

func newQueryCommand(ctx *commandContext) *cobra.Command {
	var selection scanSelection
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "query",
		Short: "List archive scans for radars and time windows",
		Long: `List the scans the archive holds for each radar and window.

One radar may be paired with several windows, several radars with one window,
or several radars with the same number of windows (matched by position).
Times are UTC and accept RFC3339, "2006-01-02T15:04[:05]", "2006-01-02 15:04[:05]"
or a bare date.`,
		Example: `  nexscan query --radar KTLX --start 2020-01-01T00:05 --end 2020-01-01T01:00
  nexscan query -r KTLX -r KINX --start 2020-01-01 --end 2020-01-01T06:00 --json > scans.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.openSession(cmd)
			if err != nil {
				return err
			}
			result, err := selection.query(sess)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, result.Scans)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range failedOutcomeLines(result, colorize) {
				fmt.Fprintln(out, line)
			}
			if len(result.Scans) == 0 {
				fmt.Fprintln(out, "No scans found")
				return nil
			}
			fmt.Fprintln(out, renderScanTable(result.Scans))
			fmt.Fprintf(out, "%d scans from %d requests\n", len(result.Scans), len(result.Outcomes))
			return nil
		},
	}

	selection.bind(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Write scan records as JSON")
	return cmd
}

func renderScanTable(scans []archive.Scan) string {
	rows := make([][]string, 0, len(scans))
	for _, scan := range scans {
		scanTime := "-"
		if !scan.ScanTime.IsZero() {
			scanTime = scan.ScanTime.UTC().Format(time.DateTime)
		}
		rows = append(rows, []string{
			scan.RadarID,
			scanTime,
			scan.Filename,
			humanize.Bytes(uint64(max(scan.Size, 0))),
			scan.RemotePath,
		})
	}
	return renderTable(
		[]string{"Radar", "Scan Time (UTC)", "File", "Size", "Remote Path"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	)
}
