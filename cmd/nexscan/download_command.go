package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"nexscan/internal/download"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var selection scanSelection
	var target localTarget
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Fetch archive scans missing from the local folder",
		Long: `Query the archive, check the local folder, and download every missing scan.

Scans are written through a temporary file and renamed once their size matches
the archive listing. A lock file in the folder keeps two downloads from writing
there at once. Failed scans are reported and the rest are still fetched.`,
		Example: `  nexscan download -r KTLX --start 2020-01-01T00:05 --end 2020-01-01T01:00 --mirrored`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.openSession(cmd)
			if err != nil {
				return err
			}
			dir, mirrored, err := target.resolve(cmd, sess.cfg)
			if err != nil {
				return err
			}

			result, err := selection.query(sess)
			if err != nil {
				return err
			}

			downloader, err := download.New(sess.archive, download.Options{
				Root:         dir,
				Mirrored:     mirrored,
				SkipSuffixes: sess.cfg.Local.SkipSuffixes,
				Logger:       sess.runLogger,
			})
			if err != nil {
				return err
			}
			summary, err := downloader.Download(sess.ctx, result.Scans)
			if err != nil {
				return err
			}

			if asJSON {
				if err := writeJSON(cmd, summary); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range failedOutcomeLines(result, colorize) {
					fmt.Fprintln(out, line)
				}
				printDownloadSummary(cmd, summary, colorize)
			}
			return downloadFailures(summary)
		},
	}

	selection.bind(cmd)
	target.bind(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Write the download summary as JSON")
	return cmd
}

// downloadFailures turns per-scan failures into the command's error so the
// exit status is non-zero whatever the output format.
func downloadFailures(summary download.Summary) error {
	if len(summary.Failed) == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d scans failed to download", len(summary.Failed), len(summary.Failed)+len(summary.Downloaded))
}

func printDownloadSummary(cmd *cobra.Command, summary download.Summary, colorize bool) {
	out := cmd.OutOrStdout()
	if len(summary.Downloaded)+len(summary.Failed) > 0 {
		rows := make([][]string, 0, len(summary.Downloaded)+len(summary.Failed))
		for _, item := range summary.Downloaded {
			rows = append(rows, []string{item.Scan.Filename, humanize.Bytes(uint64(item.Size)), colorText("downloaded", statusOK, colorize)})
		}
		for _, failure := range summary.Failed {
			rows = append(rows, []string{failure.Scan.Filename, "-", colorText("failed: "+failure.Error, statusError, colorize)})
		}
		fmt.Fprintln(out, renderTable([]string{"File", "Size", "Result"}, rows, []columnAlignment{alignLeft, alignRight, alignLeft}))
	}
	fmt.Fprintf(out, "Downloaded: %d (%s)  Failed: %d  Already present: %d  Skipped: %d\n",
		len(summary.Downloaded), humanize.Bytes(uint64(summary.Bytes)),
		len(summary.Failed), summary.Present, summary.Skipped)
}
