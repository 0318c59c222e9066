package cli

import (
	"context"
	"fmt"

	"hiringbuddy/internal/common"
	"hiringbuddy/internal/types"

	"github.com/spf13/cobra"
)

var compareCmd = &cobra.Command{
	Use:   "compare [resume-file] [job-description-file]",
	Short: "Match a resume against a job description",
	Long: `Compare a resume against a job description. The resume is converted
to text, indexed and scored; the job description's keywords are extracted
and checked against the resume text.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if compareConfig.OutputFormat == "" {
			compareConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(compareConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runCompare,
}

var compareConfig common.CommandConfig

func init() {
	compareCmd.Flags().StringVarP(&compareConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	compareCmd.Flags().StringVar(&compareConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	// Add completion for format flag
	_ = compareCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runCompare(cmd *cobra.Command, args []string) error {
	logger := getLoggerFromContext(cmd.Context())

	controller, client, err := newController(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	logger.Info("Starting comparison",
		"resume_file", args[0],
		"jd_file", args[1],
		"output_format", compareConfig.OutputFormat)

	operation := func(ctx context.Context) (types.CompareOutput, error) {
		if err := runCompareStage(ctx, controller, args[0], args[1]); err != nil {
			return types.CompareOutput{}, err
		}
		snap := controller.Snapshot()
		return types.CompareOutput{
			Matches:       snap.Matches,
			MissingSkills: snap.MissingSkills,
			Keywords:      snap.Keywords,
		}, nil
	}

	if err := common.RunWorkflowCommand(cmd.Context(), logger, compareConfig, operation); err != nil {
		return fmt.Errorf("failed to compare resume: %w", err)
	}
	logger.Info("Comparison completed successfully")
	return nil
}
