package cli

import (
	"fmt"

	"hiringbuddy/internal/common"
	"hiringbuddy/internal/synth"
	"hiringbuddy/internal/types"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [resume-file] [job-description-file]",
	Short: "Generate a draft and export it as a docx document",
	Long: `Generate a tailored CV draft and export it as a Word document via
the backend. A Markdown copy of the same draft can be saved alongside it;
both renderings come from the identical section list.`,
	Args: cobra.ExactArgs(2),
	RunE: runExport,
}

var (
	exportName     string
	exportPhone    string
	exportEmail    string
	exportLocation string
	exportLinkedIn string
	exportHeaders  []string
	exportMarkdown bool
)

func init() {
	exportCmd.Flags().StringVar(&exportName, "name", "", "Full name on the exported document (required)")
	exportCmd.Flags().StringArrayVar(&exportHeaders, "header", nil, "Section header as 'Title' or 'Title=context hint' (repeatable)")
	exportCmd.Flags().StringVar(&exportPhone, "phone", "", "Contact phone number")
	exportCmd.Flags().StringVar(&exportEmail, "email", "", "Contact email address")
	exportCmd.Flags().StringVar(&exportLocation, "location", "", "Contact location")
	exportCmd.Flags().StringVar(&exportLinkedIn, "linkedin", "", "LinkedIn profile URL")
	exportCmd.Flags().BoolVar(&exportMarkdown, "markdown", false, "Also save a Markdown copy as "+synth.MarkdownFileName)
	_ = exportCmd.MarkFlagRequired("name")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := getLoggerFromContext(ctx)

	controller, client, err := newController(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	if err := runCompareStage(ctx, controller, args[0], args[1]); err != nil {
		return err
	}
	if err := controller.GenerateDraft(ctx, parseDraftHeaders(exportHeaders)); err != nil {
		return err
	}

	snap := controller.Snapshot()
	doc := *snap.Draft

	contact := types.ContactInfo{
		Phone:    exportPhone,
		Email:    exportEmail,
		Location: exportLocation,
		LinkedIn: exportLinkedIn,
	}
	content, err := client.ExportDocument(ctx, synth.ExportPayload(doc, exportName, contact))
	if err != nil {
		return fmt.Errorf("failed to export document: %w", err)
	}

	outputHandler := common.NewOutputHandler(logger)
	docxFile := synth.DocxFileName(exportName)
	if err := outputHandler.HandleBinaryOutput(content, docxFile); err != nil {
		return err
	}

	if exportMarkdown {
		fileProcessor := common.NewFileProcessor(logger)
		if err := fileProcessor.WriteFile(synth.MarkdownFileName, synth.ToMarkdown(doc)); err != nil {
			return err
		}
		logger.Info("Markdown copy saved", "file", synth.MarkdownFileName)
	}

	logger.Info("Export completed successfully", "file", docxFile)
	return nil
}
