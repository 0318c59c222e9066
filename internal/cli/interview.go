package cli

import (
	"bufio"
	"context"
	"fmt"

	"hiringbuddy/internal/common"
	"hiringbuddy/internal/types"
	"hiringbuddy/internal/workflow"

	"github.com/spf13/cobra"
)

var interviewCmd = &cobra.Command{
	Use:   "interview [resume-file] [job-description-file]",
	Short: "Run a mock interview and grade the answers",
	Long: `Generate interview questions for the target role, collect answers
interactively, and submit them for grading. Unanswered questions are
submitted as empty answers and scored accordingly.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if interviewConfig.OutputFormat == "" {
			interviewConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(interviewConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runInterview,
}

var (
	interviewConfig common.CommandConfig
	interviewRole   string
)

func init() {
	interviewCmd.Flags().StringVarP(&interviewConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	interviewCmd.Flags().StringVar(&interviewConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	interviewCmd.Flags().StringVar(&interviewRole, "role", "", "Target role for the interview questions")
}

func runInterview(cmd *cobra.Command, args []string) error {
	logger := getLoggerFromContext(cmd.Context())

	controller, client, err := newController(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	operation := func(ctx context.Context) (types.InterviewEvaluation, error) {
		if err := runCompareStage(ctx, controller, args[0], args[1]); err != nil {
			return types.InterviewEvaluation{}, err
		}
		if err := controller.StartInterview(ctx, interviewRole); err != nil {
			return types.InterviewEvaluation{}, err
		}

		if err := collectAnswers(cmd, controller); err != nil {
			return types.InterviewEvaluation{}, err
		}

		if err := controller.EvaluateInterview(ctx); err != nil {
			return types.InterviewEvaluation{}, err
		}
		snap := controller.Snapshot()
		return *snap.Evaluation, nil
	}

	if err := common.RunWorkflowCommand(cmd.Context(), logger, interviewConfig, operation); err != nil {
		return fmt.Errorf("failed to run interview: %w", err)
	}
	logger.Info("Interview completed successfully")
	return nil
}

// collectAnswers prompts for one answer per question on the command's
// input stream. An empty line skips a question.
func collectAnswers(cmd *cobra.Command, controller *workflow.Controller) error {
	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for i, question := range controller.Snapshot().Questions {
		fmt.Fprintf(out, "\n%d. [%s] %s\n> ", i+1, question.Category, question.Text)
		if !scanner.Scan() {
			break
		}
		answer := scanner.Text()
		if answer == "" {
			continue
		}
		if err := controller.SubmitAnswer(question.ID, answer); err != nil {
			return err
		}
	}

	return scanner.Err()
}
