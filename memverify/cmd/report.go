package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/spf13/cobra"

	"github.com/sarchlab/memverify/tracing"
)

var reportCmd = &cobra.Command{
	Use:   "report [recording]",
	Short: "Summarize a recorded run.",
	Long: "`report [recording]` prints the outcome of the runs stored in a " +
		"SQLite recording, the failing verdicts, and a histogram of the " +
		"ticks where the mismatches happened.",
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		bins, _ := cmd.Flags().GetInt("bins")
		maxListed, _ := cmd.Flags().GetInt("max-listed")

		err := report(cmd.Context(), cmd.OutOrStdout(), args[0], bins, maxListed)
		if err != nil {
			exitWithError(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().Int("bins", 10, "Number of bins of the mismatch histogram")
	reportCmd.Flags().Int("max-listed", 20, "Number of mismatches to list")
}

func report(
	ctx context.Context,
	w io.Writer,
	path string,
	bins, maxListed int,
) error {
	rec, err := tracing.ReadRecording(ctx, path)
	if err != nil {
		return err
	}

	for _, info := range rec.ExecInfo {
		if info.Property == "Command" || info.Property == "Start Time" {
			fmt.Fprintf(w, "%s: %s\n", info.Property, info.Value)
		}
	}

	for _, run := range rec.Runs {
		fmt.Fprintln(w, run.Summary)
	}

	mismatches := rec.Mismatches()

	fmt.Fprintf(w, "%d ticks driven, %d verdicts, %d mismatches\n",
		rec.NumStimulus, len(rec.Verdicts), len(mismatches))

	if len(mismatches) == 0 {
		return nil
	}

	for i, m := range mismatches {
		if i == maxListed {
			fmt.Fprintf(w, "... %d more\n", len(mismatches)-maxListed)
			break
		}

		fmt.Fprintf(w, "@%d expected=0x%02X observed=0x%02X (read issued at %d)\n",
			m.Tick, m.Expected, m.Observed, m.IssuedAt)
	}

	ticks := make([]float64, 0, len(mismatches))
	distinct := map[uint64]bool{}

	for _, m := range mismatches {
		ticks = append(ticks, float64(m.Tick))
		distinct[m.Tick] = true
	}

	if len(distinct) < 2 {
		return nil
	}

	fmt.Fprintln(w, "Mismatches by tick:")

	return histogram.Fprint(w, histogram.Hist(bins, ticks), histogram.Linear(40))
}
