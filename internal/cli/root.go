package cli

import (
	"context"
	"fmt"

	"hiringbuddy/internal/backend"
	"hiringbuddy/internal/common"
	"hiringbuddy/internal/config"
	"hiringbuddy/internal/errors"
	"hiringbuddy/internal/observability"
	"hiringbuddy/internal/workflow"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}
type metricsKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}
var metricsKey = metricsKeyType{}

var rootLanguage string

var rootCmd = &cobra.Command{
	Use:   "hiringbuddy",
	Short: "A CLI tool for matching resumes against job descriptions",
	Long: `HiringBuddy compares a resume against a job description and walks
through the follow-up stages: a tailored CV draft, a mock interview with
graded answers, and a job search based on the extracted skills.`,
}

func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger, metrics *observability.Metrics) error {
	// Attach the config and logger to the context, making them available to all subcommands
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	ctx = context.WithValue(ctx, metricsKey, metrics)
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context") // Should not happen if properly initialized
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context") // Should not happen if properly initialized
}

// getMetricsFromContext returns the metrics instance, which may be nil
func getMetricsFromContext(ctx context.Context) *observability.Metrics {
	metrics, _ := ctx.Value(metricsKey).(*observability.Metrics)
	return metrics
}

// newBackendClient selects the backend implementation from configuration.
func newBackendClient(cfg *config.Config, logger *errors.Logger) (backend.Client, error) {
	switch cfg.AI.Provider {
	case config.ProviderGemini:
		client, err := backend.NewGeminiClient(cfg, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.ProviderBackend:
		return backend.NewHTTPClient(cfg.Backend, logger), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.AI.Provider)
	}
}

// newController builds a workflow controller wired to the configured
// backend. The caller must Close the returned client.
func newController(ctx context.Context) (*workflow.Controller, backend.Client, error) {
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	client, err := newBackendClient(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create backend client: %w", err)
	}

	controller := workflow.New(client, cfg.Workflow, logger)
	if metrics := getMetricsFromContext(ctx); metrics != nil {
		controller.SetMetrics(metrics)
		switch typed := client.(type) {
		case *backend.HTTPClient:
			typed.SetRecorder(metrics)
		case *backend.GeminiClient:
			typed.SetRecorder(metrics)
		}
	}
	if rootLanguage != "" {
		if err := controller.SetLanguage(rootLanguage); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
	}

	return controller, client, nil
}

// runCompareStage reads the resume and job description files and runs
// the compare pipeline every later stage depends on.
func runCompareStage(ctx context.Context, controller *workflow.Controller, resumeFile, jdFile string) error {
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	fileProcessor := common.NewFileProcessor(logger)
	resumeData, err := fileProcessor.ReadResumeFile(resumeFile, cfg.App.MaxFileSize)
	if err != nil {
		return err
	}
	contents, err := fileProcessor.ValidateAndReadFiles(jdFile)
	if err != nil {
		return err
	}

	return controller.RunCompare(ctx, resumeFile, resumeData, contents[0])
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootLanguage, "language", "", "Language for backend operations: en or fr")

	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(draftCmd)
	rootCmd.AddCommand(interviewCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(versionCmd)
}
