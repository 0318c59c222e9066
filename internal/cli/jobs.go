package cli

import (
	"context"
	"fmt"

	"hiringbuddy/internal/common"
	"hiringbuddy/internal/types"

	"github.com/spf13/cobra"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs [resume-file] [job-description-file]",
	Short: "Search job postings for the extracted skills",
	Long: `Search job postings using the skills extracted from the job
description. Location and result count fall back to the configured
defaults when not given.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if jobsConfig.OutputFormat == "" {
			jobsConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(jobsConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runJobs,
}

var (
	jobsConfig     common.CommandConfig
	jobsRole       string
	jobsLocation   string
	jobsNumResults int
)

func init() {
	jobsCmd.Flags().StringVarP(&jobsConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	jobsCmd.Flags().StringVar(&jobsConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	jobsCmd.Flags().StringVar(&jobsRole, "role", "", "Target role to search for")
	jobsCmd.Flags().StringVar(&jobsLocation, "location", "", "Location to search in")
	jobsCmd.Flags().IntVar(&jobsNumResults, "num", 0, "Number of postings to return")
}

func runJobs(cmd *cobra.Command, args []string) error {
	logger := getLoggerFromContext(cmd.Context())

	controller, client, err := newController(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	operation := func(ctx context.Context) (types.JobSearchResult, error) {
		if err := runCompareStage(ctx, controller, args[0], args[1]); err != nil {
			return types.JobSearchResult{}, err
		}
		if err := controller.SearchJobs(ctx, jobsRole, jobsLocation, jobsNumResults); err != nil {
			return types.JobSearchResult{}, err
		}
		snap := controller.Snapshot()
		return *snap.Jobs, nil
	}

	if err := common.RunWorkflowCommand(cmd.Context(), logger, jobsConfig, operation); err != nil {
		return fmt.Errorf("failed to search jobs: %w", err)
	}
	logger.Info("Job search completed successfully")
	return nil
}
