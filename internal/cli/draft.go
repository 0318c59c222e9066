package cli

import (
	"context"
	"fmt"
	"strings"

	"hiringbuddy/internal/common"
	"hiringbuddy/internal/synth"
	"hiringbuddy/internal/types"

	"github.com/spf13/cobra"
)

var draftCmd = &cobra.Command{
	Use:   "draft [resume-file] [job-description-file]",
	Short: "Generate a tailored CV draft",
	Long: `Generate a CV draft tailored to a job description. Section headers
can be customized with --header; the default set is Profile, Professional
Experience, Education, Projects, Certificates, Skills and Languages.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if draftConfig.OutputFormat == "" {
			draftConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(draftConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runDraft,
}

var (
	draftConfig     common.CommandConfig
	draftHeaders    []string
	draftMarkdownTo string
)

func init() {
	draftCmd.Flags().StringVarP(&draftConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	draftCmd.Flags().StringVar(&draftConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	draftCmd.Flags().StringArrayVar(&draftHeaders, "header", nil, "Section header as 'Title' or 'Title=context hint' (repeatable)")
	draftCmd.Flags().StringVar(&draftMarkdownTo, "save-markdown", "", "Also save the draft as a Markdown file (use '-' for "+synth.MarkdownFileName+")")
}

// parseDraftHeaders turns --header values into the request shape.
func parseDraftHeaders(values []string) []types.DraftHeader {
	headers := make([]types.DraftHeader, 0, len(values))
	for _, value := range values {
		title, context, _ := strings.Cut(value, "=")
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}
		headers = append(headers, types.DraftHeader{
			Title:   title,
			Context: strings.TrimSpace(context),
		})
	}
	return headers
}

func runDraft(cmd *cobra.Command, args []string) error {
	logger := getLoggerFromContext(cmd.Context())

	controller, client, err := newController(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	operation := func(ctx context.Context) (types.DraftDocument, error) {
		if err := runCompareStage(ctx, controller, args[0], args[1]); err != nil {
			return types.DraftDocument{}, err
		}
		if err := controller.GenerateDraft(ctx, parseDraftHeaders(draftHeaders)); err != nil {
			return types.DraftDocument{}, err
		}
		snap := controller.Snapshot()
		return *snap.Draft, nil
	}

	if err := common.RunWorkflowCommand(cmd.Context(), logger, draftConfig, operation); err != nil {
		return fmt.Errorf("failed to generate draft: %w", err)
	}

	if draftMarkdownTo != "" {
		target := draftMarkdownTo
		if target == "-" {
			target = synth.MarkdownFileName
		}
		snap := controller.Snapshot()
		fileProcessor := common.NewFileProcessor(logger)
		if err := fileProcessor.WriteFile(target, synth.ToMarkdown(*snap.Draft)); err != nil {
			return err
		}
		logger.Info("Draft saved", "file", target)
	}

	logger.Info("Draft generation completed successfully")
	return nil
}
