package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// syncTotal is the sync --total flag value; negative means the configured total
var syncTotal int

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Ingest questions from the Stack Exchange API",
	Long: `Fetch the most recently active questions with their answers and store them
in the local database. Ctrl+C stops after the current question.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().IntVar(&syncTotal, "total", -1, "Number of questions to ingest (default from config)")
}

func runSync(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	total := a.cfg.TotalQuestions
	if syncTotal >= 0 {
		total = syncTotal
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, runErr := a.syncer().Run(ctx, total)
	if summary == nil {
		return runErr
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s %s in %v\n", summary.RunID, summary.Status, summary.Duration.Round(time.Millisecond))
	fmt.Fprintf(out, "  requested %d, fetched %d, saved %d, failed %d\n",
		summary.Requested, summary.Fetched, summary.Succeeded, summary.Failed)

	failures := summary.Failures()
	sampleSize := 5
	if len(failures) < sampleSize {
		sampleSize = len(failures)
	}
	if sampleSize > 0 {
		fmt.Fprintln(out, "Sample of failures:")
		for _, item := range failures[:sampleSize] {
			fmt.Fprintf(out, "  - question %d (%s): %v\n", item.QuestionID, item.Reason, item.Err)
		}
	}

	return runErr
}
