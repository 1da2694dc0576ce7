package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/wesm/stack-digest/internal/analytics"
)

var (
	reportTop           int
	reportMinReputation int64
	reportSort          string
	reportQuestion      int64
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print analytics over the stored questions as JSON",
}

var reportTagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Most frequent tags",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAnalytics(cmd, func(svc *analytics.Service) (interface{}, error) {
			return svc.TopTags(cmd.Context(), reportTop)
		})
	},
}

var reportEngagementCmd = &cobra.Command{
	Use:   "engagement",
	Short: "Tags ranked by mean question engagement",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAnalytics(cmd, func(svc *analytics.Service) (interface{}, error) {
			var minReputation *int64
			if reportMinReputation >= 0 {
				minReputation = &reportMinReputation
			}
			return svc.TopEngagement(cmd.Context(), reportTop, minReputation)
		})
	},
}

var reportExceptionsCmd = &cobra.Command{
	Use:   "exceptions",
	Short: "Most mentioned Java exceptions and errors",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAnalytics(cmd, func(svc *analytics.Service) (interface{}, error) {
			return svc.TopExceptions(cmd.Context(), reportTop)
		})
	},
}

var reportAnswersCmd = &cobra.Command{
	Use:   "answers",
	Short: "Answers ranked by quality",
	Long: `Rank answers by quality. With --question only the answers of that question
are listed, all of them.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		by, err := analytics.ParseSortBy(reportSort)
		if err != nil {
			return err
		}
		return withAnalytics(cmd, func(svc *analytics.Service) (interface{}, error) {
			if reportQuestion > 0 {
				return svc.QuestionAnswerQuality(cmd.Context(), reportQuestion, by)
			}
			return svc.AnswerQuality(cmd.Context(), reportTop, by)
		})
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportTagsCmd, reportEngagementCmd, reportExceptionsCmd, reportAnswersCmd)

	reportCmd.PersistentFlags().IntVar(&reportTop, "top", 10, "Number of entries to print")
	reportEngagementCmd.Flags().Int64Var(&reportMinReputation, "min-reputation", -1, "Only count questions of owners with at least this reputation")
	reportAnswersCmd.Flags().StringVar(&reportSort, "sort", "quality", "Sort key: quality, recency, reputation or score")
	reportAnswersCmd.Flags().Int64Var(&reportQuestion, "question", 0, "Only rank the answers of this question id")
}

// withAnalytics opens the database, runs query and prints its result
func withAnalytics(cmd *cobra.Command, query func(svc *analytics.Service) (interface{}, error)) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := query(a.analyticsService())
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), result)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
