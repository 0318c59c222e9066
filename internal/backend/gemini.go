package backend

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"sync"
	"time"

	"hiringbuddy/internal/config"
	apperrors "hiringbuddy/internal/errors"
	"hiringbuddy/internal/extract"
	"hiringbuddy/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// UsageRecorder observes token consumption of model calls.
type UsageRecorder interface {
	RecordTokenUsage(ctx context.Context, operation string, inputTokens, outputTokens, totalTokens int64)
}

// GeminiClient implements Client against the Gemini API directly, for
// running the workflow without the hosted backend. Document conversion
// happens locally and the resume is held in memory; job search and
// binary export need the hosted service.
type GeminiClient struct {
	client   *genai.Client
	logger   *apperrors.Logger
	system   SystemPrompts
	user     UserPrompts
	timeout  time.Duration
	recorder UsageRecorder

	matchCfg     config.OperationAIConfig
	draftCfg     config.OperationAIConfig
	interviewCfg config.OperationAIConfig

	matchBreaker     *AICircuitBreaker
	draftBreaker     *AICircuitBreaker
	interviewBreaker *AICircuitBreaker

	mu         sync.Mutex
	resumeName string
	resumeText string
}

var _ Client = (*GeminiClient)(nil)

// NewGeminiClient creates a local provider from the loaded configuration.
func NewGeminiClient(cfg *config.Config, logger *apperrors.Logger) (*GeminiClient, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.AI.APIKey,
	})
	if err != nil {
		return nil, apperrors.NewConfigError(apperrors.ErrCodeMissingAPIKey,
			"failed to create Gemini client", err)
	}

	system, user := LoadPrompts(cfg.Workflow.PromptDir)

	matchCfg := cfg.GetMatchConfig()
	draftCfg := cfg.GetDraftConfig()
	interviewCfg := cfg.GetInterviewConfig()

	return &GeminiClient{
		client:           client,
		logger:           logger,
		system:           system,
		user:             user,
		timeout:          cfg.AI.Timeout,
		matchCfg:         matchCfg,
		draftCfg:         draftCfg,
		interviewCfg:     interviewCfg,
		matchBreaker:     NewAICircuitBreaker("match", &matchCfg, logger),
		draftBreaker:     NewAICircuitBreaker("draft", &draftCfg, logger),
		interviewBreaker: NewAICircuitBreaker("interview", &interviewCfg, logger),
	}, nil
}

// SetRecorder attaches a token usage recorder to the client.
func (g *GeminiClient) SetRecorder(recorder UsageRecorder) {
	g.recorder = recorder
}

// PreviewDocument implements Client using local text extraction.
func (g *GeminiClient) PreviewDocument(ctx context.Context, fileName string, data []byte, headChars int) (types.DocumentPreview, error) {
	full, err := extract.FromBytes(data, fileName)
	if err != nil {
		return types.DocumentPreview{}, err
	}

	runes := []rune(full)
	head := full
	if len(runes) > headChars {
		head = string(runes[:headChars])
	}

	return types.DocumentPreview{
		Chars: len(runes),
		Head:  head,
		Full:  full,
	}, nil
}

// IndexResume implements Client by holding the extracted resume text in
// memory for the following match calls.
func (g *GeminiClient) IndexResume(ctx context.Context, fileName string, data []byte) error {
	text, err := extract.FromBytes(data, fileName)
	if err != nil {
		return err
	}

	g.mu.Lock()
	g.resumeName = fileName
	g.resumeText = text
	g.mu.Unlock()

	g.logger.Debug("Resume indexed locally", "file", fileName, "chars", len(text))
	return nil
}

func (g *GeminiClient) indexedResume() (string, string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.resumeText == "" {
		return "", "", apperrors.NewValidationError(apperrors.ErrCodeMissingInput,
			"no resume indexed", nil)
	}
	return g.resumeName, g.resumeText, nil
}

// MatchResume implements Client. The single in-memory resume is the
// only candidate; its model output stays raw for the normalizer.
func (g *GeminiClient) MatchResume(ctx context.Context, jobDescription string, topK int) ([]RawMatch, error) {
	name, text, err := g.indexedResume()
	if err != nil {
		return nil, err
	}

	userPrompt := fmt.Sprintf(g.user.MatchResume, text, jobDescription)
	raw, _, err := executeAIOperation[json.RawMessage](
		g, ctx, "match_resume", g.matchBreaker, &g.matchCfg,
		userPrompt, g.system.MatchResume, buildMatchSchema(&g.matchCfg),
		attribute.Int("input.resume_length", len(text)),
		attribute.Int("input.jd_length", len(jobDescription)),
	)
	if err != nil {
		return nil, err
	}

	return []RawMatch{{Candidate: name, LLMJSON: raw}}, nil
}

// ExtractKeywords implements Client.
func (g *GeminiClient) ExtractKeywords(ctx context.Context, jobDescription string, language string) ([]string, error) {
	userPrompt := fmt.Sprintf(g.user.ExtractKeywords, jobDescription)
	output, _, err := executeAIOperation[struct {
		Keywords []string `json:"keywords"`
	}](
		g, ctx, "extract_keywords", g.matchBreaker, &g.matchCfg,
		userPrompt, g.system.ExtractKeywords, buildKeywordsSchema(&g.matchCfg),
		attribute.Int("input.jd_length", len(jobDescription)),
	)
	if err != nil {
		return nil, err
	}
	return output.Keywords, nil
}

// GenerateDraft implements Client, returning the raw model payload.
func (g *GeminiClient) GenerateDraft(ctx context.Context, req DraftRequest) (json.RawMessage, error) {
	var headerLines []string
	for _, header := range req.Headers {
		line := "- " + header.Title
		if header.Context != "" {
			line += " " + header.Context
		}
		headerLines = append(headerLines, line)
	}

	userPrompt := fmt.Sprintf(g.user.DraftResume,
		joinLines(headerLines), req.Language, req.ResumeText, req.JobDescription)

	raw, _, err := executeAIOperation[json.RawMessage](
		g, ctx, "generate_draft", g.draftBreaker, &g.draftCfg,
		userPrompt, g.system.DraftResume, buildDraftSchema(&g.draftCfg),
		attribute.Int("input.resume_length", len(req.ResumeText)),
		attribute.Int("input.jd_length", len(req.JobDescription)),
		attribute.Int("input.headers", len(req.Headers)),
	)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// GenerateInterviewQuestions implements Client.
func (g *GeminiClient) GenerateInterviewQuestions(ctx context.Context, req InterviewRequest) ([]types.InterviewQuestion, error) {
	userPrompt := fmt.Sprintf(g.user.InterviewQuestions,
		req.NumQuestions, req.Language, req.ResumeText, req.JobDescription)

	output, _, err := executeAIOperation[struct {
		Questions []types.InterviewQuestion `json:"questions"`
	}](
		g, ctx, "interview_questions", g.interviewBreaker, &g.interviewCfg,
		userPrompt, g.system.InterviewQuestions, buildQuestionsSchema(&g.interviewCfg),
		attribute.Int("num_questions", req.NumQuestions),
	)
	if err != nil {
		return nil, err
	}
	return output.Questions, nil
}

// EvaluateInterview implements Client.
func (g *GeminiClient) EvaluateInterview(ctx context.Context, req EvaluationRequest) (types.InterviewEvaluation, error) {
	transcript, err := json.MarshalIndent(req.Answers, "", "  ")
	if err != nil {
		return types.InterviewEvaluation{}, apperrors.NewInternalError(apperrors.ErrCodeInvalidFormat,
			"failed to encode interview answers", err)
	}

	userPrompt := fmt.Sprintf(g.user.EvaluateAnswers, req.Language, string(transcript))

	output, _, err := executeAIOperation[types.InterviewEvaluation](
		g, ctx, "evaluate_answers", g.interviewBreaker, &g.interviewCfg,
		userPrompt, g.system.EvaluateAnswers, buildEvaluationSchema(&g.interviewCfg),
		attribute.Int("num_answers", len(req.Answers)),
	)
	if err != nil {
		return types.InterviewEvaluation{}, err
	}
	return output, nil
}

// SearchJobs implements Client. The local provider has no search index.
func (g *GeminiClient) SearchJobs(ctx context.Context, req JobSearchRequest) (types.JobSearchResult, error) {
	return types.JobSearchResult{}, apperrors.NewTransportError(apperrors.ErrCodeUnsupported,
		"job search requires the hosted backend", nil)
}

// ExportDocument implements Client. Binary export needs the hosted
// backend; the Markdown export path still works locally.
func (g *GeminiClient) ExportDocument(ctx context.Context, req types.ExportRequest) ([]byte, error) {
	return nil, apperrors.NewTransportError(apperrors.ErrCodeUnsupported,
		"document export requires the hosted backend", nil)
}

// Close implements Client.
func (g *GeminiClient) Close() error {
	// Gemini client doesn't have a Close method in current single-shot usage
	return nil
}

// executeWithRetry executes a Gemini operation with retry logic and exponential backoff
func (g *GeminiClient) executeWithRetry(ctx context.Context, operation string, opCfg *config.OperationAIConfig, fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= *opCfg.MaxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("Retrying AI operation",
				"operation", operation,
				"attempt", attempt,
				"max_retries", *opCfg.MaxRetries,
				"error", lastErr.Error())

			// Exponential backoff with jitter to prevent thundering herd
			baseDelay := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			jitterMax := big.NewInt(int64(float64(baseDelay) * 0.1))
			jitterBig, _ := rand.Int(rand.Reader, jitterMax)
			jitter := time.Duration(jitterBig.Int64())
			// Cap maximum backoff at 30 seconds
			backoff := min(baseDelay+jitter, 30*time.Second)

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				g.logger.Info("AI operation succeeded after retry",
					"operation", operation,
					"successful_attempt", attempt+1)
			}
			return result, nil
		}

		lastErr = err

		// Don't retry on certain errors (auth, invalid input, etc.)
		if !isRetryableAIError(err) {
			g.logger.Debug("Error is not retryable, stopping retry attempts",
				"operation", operation,
				"error", err.Error())
			break
		}
	}

	g.logger.LogError(lastErr, "AI operation failed after all retry attempts",
		"operation", operation,
		"total_attempts", *opCfg.MaxRetries+1)

	return nil, fmt.Errorf("operation '%s' failed after %d retries: %w", operation, *opCfg.MaxRetries, lastErr)
}

// isRetryableAIError determines if a Gemini error should trigger a retry
func isRetryableAIError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	return false
}

// executeAIOperation is a generic helper to run Gemini operations with
// common tracing, circuit breaker and parsing logic.
func executeAIOperation[Out any](
	g *GeminiClient,
	ctx context.Context,
	operationName string,
	breaker *AICircuitBreaker,
	opCfg *config.OperationAIConfig,
	userPrompt string,
	systemPrompt string,
	genaiConfig *genai.GenerateContentConfig,
	spanAttributes ...attribute.KeyValue,
) (Out, *TokenUsage, error) {
	var output Out
	tracer := otel.Tracer("hiringbuddy.backend.gemini")
	ctx, span := tracer.Start(ctx, "gemini."+operationName)
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", opCfg.Model),
		attribute.Float64("ai.temperature", float64(*opCfg.Temperature)),
	)
	span.SetAttributes(spanAttributes...)

	if systemPrompt != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	ctx, cancel := context.WithTimeout(ctx, *opCfg.Timeout)
	defer cancel()

	result, err := breaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.executeWithRetry(ctx, operationName, opCfg, func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(ctx, opCfg.Model, genai.Text(userPrompt), genaiConfig)
		})
	})

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, apperrors.NewTransportError(apperrors.ErrCodeBackendFailed,
			"failed to generate content for "+operationName, err)
	}

	if err := json.Unmarshal([]byte(result.Text()), &output); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, apperrors.NewParseError(apperrors.ErrCodePayloadMalformed,
			"failed to parse AI response for "+operationName, err)
	}

	tokenUsage := extractTokenUsage(result)
	if tokenUsage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", tokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", tokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", tokenUsage.TotalTokens),
		)
		if g.recorder != nil {
			g.recorder.RecordTokenUsage(ctx, operationName,
				tokenUsage.InputTokens, tokenUsage.OutputTokens, tokenUsage.TotalTokens)
		}
	}

	span.SetAttributes(attribute.Bool("success", true))
	return output, tokenUsage, nil
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// extractTokenUsage extracts token usage information from a Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}

func joinLines(lines []string) string {
	out := ""
	for i, line := range lines {
		if i > 0 {
			out += "\n"
		}
		out += line
	}
	return out
}

// buildMatchSchema creates the schema for match requests
func buildMatchSchema(opCfg *config.OperationAIConfig) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"score": {Type: genai.TypeInteger},
				"highlights": {
					Type:  genai.TypeArray,
					Items: &genai.Schema{Type: genai.TypeString},
				},
				"missing": {
					Type:  genai.TypeArray,
					Items: &genai.Schema{Type: genai.TypeString},
				},
			},
			Required: []string{"score", "highlights", "missing"},
		},
	}

	applyTemperature(config, opCfg)
	return config
}

// buildKeywordsSchema creates the schema for keyword extraction requests
func buildKeywordsSchema(opCfg *config.OperationAIConfig) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"keywords": {
					Type:  genai.TypeArray,
					Items: &genai.Schema{Type: genai.TypeString},
				},
			},
			Required: []string{"keywords"},
		},
	}

	applyTemperature(config, opCfg)
	return config
}

// buildDraftSchema creates the schema for draft requests
func buildDraftSchema(opCfg *config.OperationAIConfig) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"sections": {
					Type: genai.TypeArray,
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"title":   {Type: genai.TypeString},
							"content": {Type: genai.TypeString},
						},
						Required: []string{"title", "content"},
					},
				},
			},
			Required: []string{"sections"},
		},
	}

	applyTemperature(config, opCfg)
	return config
}

// buildQuestionsSchema creates the schema for interview question requests
func buildQuestionsSchema(opCfg *config.OperationAIConfig) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"questions": {
					Type: genai.TypeArray,
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"id":       {Type: genai.TypeString},
							"category": {Type: genai.TypeString},
							"text":     {Type: genai.TypeString},
						},
						Required: []string{"id", "category", "text"},
					},
				},
			},
			Required: []string{"questions"},
		},
	}

	applyTemperature(config, opCfg)
	return config
}

// buildEvaluationSchema creates the schema for answer grading requests
func buildEvaluationSchema(opCfg *config.OperationAIConfig) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"per_question": {
					Type: genai.TypeArray,
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"id":           {Type: genai.TypeString},
							"score":        {Type: genai.TypeInteger},
							"feedback":     {Type: genai.TypeString},
							"ideal_answer": {Type: genai.TypeString},
						},
						Required: []string{"id", "score", "feedback"},
					},
				},
				"final": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"final_score": {Type: genai.TypeInteger},
						"strengths": {
							Type:  genai.TypeArray,
							Items: &genai.Schema{Type: genai.TypeString},
						},
						"improvements": {
							Type:  genai.TypeArray,
							Items: &genai.Schema{Type: genai.TypeString},
						},
						"resources": {
							Type:  genai.TypeArray,
							Items: &genai.Schema{Type: genai.TypeString},
						},
					},
					Required: []string{"final_score", "strengths", "improvements", "resources"},
				},
			},
			Required: []string{"per_question", "final"},
		},
	}

	applyTemperature(config, opCfg)
	return config
}

// applyTemperature applies the configured temperature if set
func applyTemperature(config *genai.GenerateContentConfig, opCfg *config.OperationAIConfig) {
	if *opCfg.Temperature > 0 {
		config.Temperature = opCfg.Temperature
	}
}
