package backend

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"mime/multipart"
	"net"
	"net/http"
	"strconv"
	"time"

	"hiringbuddy/internal/config"
	apperrors "hiringbuddy/internal/errors"
	"hiringbuddy/internal/types"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Backend endpoint paths.
const (
	endpointPreview           = "/ai/peek_doc"
	endpointIndexResume       = "/ai/index_resume_mem"
	endpointMatch             = "/ai/match_mem"
	endpointExtractKeywords   = "/ai/extract_keywords"
	endpointGenerateDraft     = "/ai/draft_cv_with_headers"
	endpointInterviewQuestion = "/ai/interviewer/questions"
	endpointEvaluateAnswers   = "/ai/interviewer/evaluate"
	endpointSearchJobs        = "/ai/job_search_serper"
	endpointExportDocx        = "/ai/cv_docx_download"
)

// RequestRecorder observes the outcome of each backend call.
type RequestRecorder interface {
	RecordBackendRequest(ctx context.Context, endpoint string, success bool, duration time.Duration)
}

// HTTPClient talks to the hosted matching service.
type HTTPClient struct {
	baseURL    string
	token      string
	maxRetries int
	httpClient *http.Client
	limiter    *LimiterManager
	breaker    *RequestCircuitBreaker
	recorder   RequestRecorder
	logger     *apperrors.Logger
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a client for the configured backend.
func NewHTTPClient(cfg config.BackendConfig, logger *apperrors.Logger) *HTTPClient {
	var limiter *LimiterManager
	if cfg.RateLimit.Enabled {
		limiter = NewLimiterManager(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstCapacity, logger)
	}

	return &HTTPClient{
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		maxRetries: cfg.MaxRetries,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   cfg.Timeout,
		},
		limiter: limiter,
		breaker: NewRequestCircuitBreaker("requests", cfg.CircuitBreaker, logger),
		logger:  logger,
	}
}

// SetRecorder attaches a metrics recorder to the client.
func (c *HTTPClient) SetRecorder(recorder RequestRecorder) {
	c.recorder = recorder
}

// statusError carries a non-2xx backend response through the retry loop.
type statusError struct {
	Code int
	Body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("backend returned status %d: %s", e.Code, e.Body)
}

// PreviewDocument implements Client.
func (c *HTTPClient) PreviewDocument(ctx context.Context, fileName string, data []byte, headChars int) (types.DocumentPreview, error) {
	var preview types.DocumentPreview
	fields := map[string]string{"head_chars": strconv.Itoa(headChars)}
	if err := c.postMultipart(ctx, endpointPreview, fileName, data, fields, &preview); err != nil {
		return types.DocumentPreview{}, err
	}
	return preview, nil
}

// IndexResume implements Client.
func (c *HTTPClient) IndexResume(ctx context.Context, fileName string, data []byte) error {
	var ack struct {
		Status string `json:"status"`
	}
	return c.postMultipart(ctx, endpointIndexResume, fileName, data, nil, &ack)
}

// MatchResume implements Client.
func (c *HTTPClient) MatchResume(ctx context.Context, jobDescription string, topK int) ([]RawMatch, error) {
	payload := map[string]any{"jd": jobDescription, "top_k": topK}
	var response struct {
		Results []RawMatch `json:"results"`
	}
	if err := c.postJSON(ctx, endpointMatch, payload, &response); err != nil {
		return nil, err
	}
	return response.Results, nil
}

// ExtractKeywords implements Client.
func (c *HTTPClient) ExtractKeywords(ctx context.Context, jobDescription string, language string) ([]string, error) {
	payload := map[string]any{"jd": jobDescription, "language": language}
	var response struct {
		Keywords []string `json:"keywords"`
	}
	if err := c.postJSON(ctx, endpointExtractKeywords, payload, &response); err != nil {
		return nil, err
	}
	return response.Keywords, nil
}

// GenerateDraft implements Client.
func (c *HTTPClient) GenerateDraft(ctx context.Context, req DraftRequest) (json.RawMessage, error) {
	var response struct {
		Draft json.RawMessage `json:"draft"`
	}
	if err := c.postJSON(ctx, endpointGenerateDraft, req, &response); err != nil {
		return nil, err
	}
	return response.Draft, nil
}

// GenerateInterviewQuestions implements Client.
func (c *HTTPClient) GenerateInterviewQuestions(ctx context.Context, req InterviewRequest) ([]types.InterviewQuestion, error) {
	var response struct {
		Questions []types.InterviewQuestion `json:"questions"`
	}
	if err := c.postJSON(ctx, endpointInterviewQuestion, req, &response); err != nil {
		return nil, err
	}
	return response.Questions, nil
}

// EvaluateInterview implements Client.
func (c *HTTPClient) EvaluateInterview(ctx context.Context, req EvaluationRequest) (types.InterviewEvaluation, error) {
	var response struct {
		Evaluation types.InterviewEvaluation `json:"evaluation"`
	}
	if err := c.postJSON(ctx, endpointEvaluateAnswers, req, &response); err != nil {
		return types.InterviewEvaluation{}, err
	}
	return response.Evaluation, nil
}

// SearchJobs implements Client.
func (c *HTTPClient) SearchJobs(ctx context.Context, req JobSearchRequest) (types.JobSearchResult, error) {
	var result types.JobSearchResult
	if err := c.postJSON(ctx, endpointSearchJobs, req, &result); err != nil {
		return types.JobSearchResult{}, err
	}
	return result, nil
}

// ExportDocument implements Client.
func (c *HTTPClient) ExportDocument(ctx context.Context, req types.ExportRequest) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, apperrors.NewInternalError(apperrors.ErrCodeInvalidFormat,
			"failed to encode export request", err)
	}

	return c.do(ctx, endpointExportDocx, func(ctx context.Context) (*http.Request, error) {
		return c.newRequest(ctx, endpointExportDocx, "application/json", bytes.NewReader(body))
	})
}

// Close implements Client.
func (c *HTTPClient) Close() error {
	c.limiter.Close()
	c.httpClient.CloseIdleConnections()
	return nil
}

// postJSON posts a JSON payload and decodes the JSON response into out.
func (c *HTTPClient) postJSON(ctx context.Context, endpoint string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return apperrors.NewInternalError(apperrors.ErrCodeInvalidFormat,
			"failed to encode request payload", err).WithContext("endpoint", endpoint)
	}

	responseBody, err := c.do(ctx, endpoint, func(ctx context.Context) (*http.Request, error) {
		return c.newRequest(ctx, endpoint, "application/json", bytes.NewReader(body))
	})
	if err != nil {
		return err
	}

	return c.decodeResponse(endpoint, responseBody, out)
}

// postMultipart uploads a file with optional extra form fields and
// decodes the JSON response into out.
func (c *HTTPClient) postMultipart(ctx context.Context, endpoint string, fileName string, data []byte, fields map[string]string, out any) error {
	responseBody, err := c.do(ctx, endpoint, func(ctx context.Context) (*http.Request, error) {
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)

		part, err := writer.CreateFormFile("file", fileName)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(data); err != nil {
			return nil, err
		}
		for key, value := range fields {
			if err := writer.WriteField(key, value); err != nil {
				return nil, err
			}
		}
		if err := writer.Close(); err != nil {
			return nil, err
		}

		return c.newRequest(ctx, endpoint, writer.FormDataContentType(), &buf)
	})
	if err != nil {
		return err
	}

	return c.decodeResponse(endpoint, responseBody, out)
}

func (c *HTTPClient) newRequest(ctx context.Context, endpoint, contentType string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *HTTPClient) decodeResponse(endpoint string, body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return apperrors.NewTransportError(apperrors.ErrCodePayloadMalformed,
			"backend response is not valid JSON", err).WithContext("endpoint", endpoint)
	}
	return nil
}

// do runs one logical backend call: request pacing, circuit breaker,
// then retries with backoff. newRequest is called once per attempt
// because request bodies are single-use.
func (c *HTTPClient) do(ctx context.Context, endpoint string, newRequest func(context.Context) (*http.Request, error)) ([]byte, error) {
	if err := c.limiter.Wait(ctx, endpoint); err != nil {
		return nil, apperrors.NewTransportError(apperrors.ErrCodeBackendTimeout,
			"request pacing interrupted", err).WithContext("endpoint", endpoint)
	}

	started := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.executeWithRetry(ctx, endpoint, newRequest)
	})
	if c.recorder != nil {
		c.recorder.RecordBackendRequest(ctx, endpoint, err == nil, time.Since(started))
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.NewTransportError(apperrors.ErrCodeBackendTimeout,
				"backend request timed out", err).WithContext("endpoint", endpoint)
		}
		return nil, apperrors.NewTransportError(apperrors.ErrCodeBackendFailed,
			"backend request failed", err).WithContext("endpoint", endpoint)
	}
	return body, nil
}

// executeWithRetry executes a backend request with retry logic and exponential backoff
func (c *HTTPClient) executeWithRetry(ctx context.Context, endpoint string, newRequest func(context.Context) (*http.Request, error)) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn("Retrying backend request",
				"endpoint", endpoint,
				"attempt", attempt,
				"max_retries", c.maxRetries,
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

		body, err := c.attempt(ctx, newRequest)
		if err == nil {
			if attempt > 0 {
				c.logger.Info("Backend request succeeded after retry",
					"endpoint", endpoint,
					"successful_attempt", attempt+1)
			}
			return body, nil
		}

		lastErr = err

		if !isRetryableError(err) {
			c.logger.Debug("Error is not retryable, stopping retry attempts",
				"endpoint", endpoint,
				"error", err.Error())
			break
		}
	}

	c.logger.LogError(lastErr, "Backend request failed after all retry attempts",
		"endpoint", endpoint,
		"total_attempts", c.maxRetries+1)

	return nil, fmt.Errorf("request to '%s' failed after %d retries: %w", endpoint, c.maxRetries, lastErr)
}

func (c *HTTPClient) attempt(ctx context.Context, newRequest func(context.Context) (*http.Request, error)) ([]byte, error) {
	req, err := newRequest(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := string(body)
		if len(detail) > 512 {
			detail = detail[:512]
		}
		return nil, &statusError{Code: resp.StatusCode, Body: detail}
	}

	return body, nil
}

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Check for network errors (timeouts, connection issues)
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var stErr *statusError
	if errors.As(err, &stErr) {
		switch stErr.Code {
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
