// Package workflow sequences the compare, draft, interview and job
// search stages of a session. The controller owns all session state and
// is the only place failures from the backend surface; the transforms
// it calls (normalize, keywords, synth) never fail outward.
package workflow

import (
	"context"
	"strings"
	"sync"
	"time"

	"hiringbuddy/internal/backend"
	"hiringbuddy/internal/config"
	apperrors "hiringbuddy/internal/errors"
	"hiringbuddy/internal/keywords"
	"hiringbuddy/internal/normalize"
	"hiringbuddy/internal/types"
)

// Stage is a workflow stage. Sessions start at StageUpload and only the
// operation that produces a stage's data can move the session forward.
type Stage string

const (
	StageUpload    Stage = "upload"
	StageResults   Stage = "results"
	StageDraft     Stage = "draft"
	StageInterview Stage = "interview"
	StageJobs      Stage = "jobs"
)

const (
	defaultTopK         = 3
	defaultNumQuestions = 5
)

// MetricsRecorder receives one record per completed workflow operation
// and one per absorbed parse failure. A nil recorder records nothing.
type MetricsRecorder interface {
	RecordWorkflowOperation(ctx context.Context, operation string, success bool, duration time.Duration)
	RecordParseFallback(ctx context.Context, operation string)
}

// Snapshot is a point-in-time copy of the session state. Slices are
// shared with the controller and must be treated as read-only.
type Snapshot struct {
	Stage          Stage
	Busy           bool
	Language       string
	ResumeText     string
	JobDescription string
	Matches        []types.MatchResult
	MissingSkills  []string
	Keywords       []types.KeywordStatus
	Draft          *types.DraftDocument
	Questions      []types.InterviewQuestion
	Answers        map[string]string
	Evaluation     *types.InterviewEvaluation
	Jobs           *types.JobSearchResult
	LastError      error
}

// Controller is the session state machine. All exported methods are
// safe for concurrent use; the busy flag, not the mutex, is what keeps
// two network operations from overlapping.
type Controller struct {
	backend    backend.Client
	normalizer *normalize.Normalizer
	logger     *apperrors.Logger
	cfg        config.WorkflowConfig
	metrics    MetricsRecorder

	mu             sync.Mutex
	busy           bool
	stage          Stage
	reached        map[Stage]bool
	language       string
	resumeText     string
	jobDescription string
	matches        []types.MatchResult
	missingSkills  []string
	keywordStatus  []types.KeywordStatus
	keywordList    []string
	draft          *types.DraftDocument
	questions      []types.InterviewQuestion
	answers        map[string]string
	evaluation     *types.InterviewEvaluation
	jobs           *types.JobSearchResult
	lastError      error
}

// New creates a controller at the upload stage.
func New(client backend.Client, cfg config.WorkflowConfig, logger *apperrors.Logger) *Controller {
	language := cfg.Language
	if language == "" {
		language = types.LanguageEnglish
	}
	return &Controller{
		backend:    client,
		normalizer: normalize.New(logger),
		logger:     logger,
		cfg:        cfg,
		stage:      StageUpload,
		reached:    map[Stage]bool{StageUpload: true},
		language:   language,
		answers:    map[string]string{},
	}
}

// SetMetrics attaches a metrics recorder. Call before running operations.
func (c *Controller) SetMetrics(m MetricsRecorder) {
	c.metrics = m
	if m != nil {
		c.normalizer.OnFallback = func(operation string) {
			m.RecordParseFallback(context.Background(), operation)
		}
	}
}

// Snapshot returns the current session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	answers := make(map[string]string, len(c.answers))
	for id, text := range c.answers {
		answers[id] = text
	}
	return Snapshot{
		Stage:          c.stage,
		Busy:           c.busy,
		Language:       c.language,
		ResumeText:     c.resumeText,
		JobDescription: c.jobDescription,
		Matches:        c.matches,
		MissingSkills:  c.missingSkills,
		Keywords:       c.keywordStatus,
		Draft:          c.draft,
		Questions:      c.questions,
		Answers:        answers,
		Evaluation:     c.evaluation,
		Jobs:           c.jobs,
		LastError:      c.lastError,
	}
}

// begin claims the busy flag. The caller must release it with finish.
func (c *Controller) begin(operation string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return apperrors.NewValidationError(apperrors.ErrCodeActionInFlight,
			"another action is still running", nil).
			WithContext("operation", operation)
	}
	c.busy = true
	return nil
}

// finish releases the busy flag and records the operation outcome.
// A non-nil err is stored as the session's last error; a nil err clears it.
func (c *Controller) finish(ctx context.Context, operation string, started time.Time, err error) {
	c.mu.Lock()
	c.busy = false
	c.lastError = err
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.RecordWorkflowOperation(ctx, operation, err == nil, time.Since(started))
	}
	if err != nil {
		c.logger.LogError(err, "workflow operation failed", "operation", operation)
	} else {
		c.logger.Debug("workflow operation completed",
			"operation", operation, "duration", time.Since(started).String())
	}
}

// RunCompare runs the full compare pipeline: preview the resume, index
// it, match it against the job description, and derive keyword coverage.
// Results commit together with the move to the results stage; any
// backend failure leaves the session exactly as it was.
func (c *Controller) RunCompare(ctx context.Context, fileName string, fileData []byte, jobDescription string) error {
	if len(fileData) == 0 {
		return apperrors.NewValidationError(apperrors.ErrCodeMissingInput,
			"no resume file selected", nil)
	}
	if strings.TrimSpace(jobDescription) == "" {
		return apperrors.NewValidationError(apperrors.ErrCodeMissingInput,
			"job description is empty", nil)
	}

	if err := c.begin("compare"); err != nil {
		return err
	}
	started := time.Now()

	err := func() error {
		preview, err := c.backend.PreviewDocument(ctx, fileName, fileData, c.cfg.PreviewHeadChars)
		if err != nil {
			return err
		}

		if err := c.backend.IndexResume(ctx, fileName, fileData); err != nil {
			return err
		}

		rawMatches, err := c.backend.MatchResume(ctx, jobDescription, defaultTopK)
		if err != nil {
			return err
		}
		matches := make([]types.MatchResult, 0, len(rawMatches))
		for _, raw := range rawMatches {
			result := c.normalizer.Match(raw.LLMJSON)
			result.Candidate = raw.Candidate
			matches = append(matches, result)
		}
		var missing []string
		if len(matches) > 0 {
			missing = matches[0].Missing
		}

		keywordList, err := c.backend.ExtractKeywords(ctx, jobDescription, c.currentLanguage())
		if err != nil {
			return err
		}
		statuses := keywords.Match(keywordList, preview.Head)

		c.mu.Lock()
		c.resumeText = preview.Head
		c.jobDescription = jobDescription
		c.matches = matches
		c.missingSkills = missing
		c.keywordList = keywordList
		c.keywordStatus = statuses
		c.stage = StageResults
		c.reached[StageResults] = true
		c.mu.Unlock()
		return nil
	}()

	c.finish(ctx, "compare", started, err)
	return err
}

// GenerateDraft asks the backend for a tailored CV draft. Empty headers
// fall back to the default section list.
func (c *Controller) GenerateDraft(ctx context.Context, headers []types.DraftHeader) error {
	c.mu.Lock()
	resumeText, jobDescription := c.resumeText, c.jobDescription
	missing := c.missingSkills
	c.mu.Unlock()
	if resumeText == "" {
		return apperrors.NewValidationError(apperrors.ErrCodeMissingInput,
			"run a comparison before generating a draft", nil)
	}
	if len(headers) == 0 {
		headers = types.DefaultDraftHeaders()
	}

	if err := c.begin("draft"); err != nil {
		return err
	}
	started := time.Now()

	err := func() error {
		raw, err := c.backend.GenerateDraft(ctx, backend.DraftRequest{
			ResumeText:     resumeText,
			JobDescription: jobDescription,
			MissingSkills:  missing,
			Headers:        headers,
			Language:       c.currentLanguage(),
		})
		if err != nil {
			return err
		}
		doc := c.normalizer.Draft(raw)

		c.mu.Lock()
		c.draft = &doc
		c.stage = StageDraft
		c.reached[StageDraft] = true
		c.mu.Unlock()
		return nil
	}()

	c.finish(ctx, "draft", started, err)
	return err
}

// StartInterview generates practice questions for the target role and
// resets any previous answers and evaluation.
func (c *Controller) StartInterview(ctx context.Context, targetRole string) error {
	c.mu.Lock()
	resumeText, jobDescription := c.resumeText, c.jobDescription
	c.mu.Unlock()
	if resumeText == "" {
		return apperrors.NewValidationError(apperrors.ErrCodeMissingInput,
			"run a comparison before starting an interview", nil)
	}

	if err := c.begin("interview"); err != nil {
		return err
	}
	started := time.Now()

	err := func() error {
		questions, err := c.backend.GenerateInterviewQuestions(ctx, backend.InterviewRequest{
			ResumeText:     resumeText,
			JobDescription: jobDescription,
			TargetRole:     targetRole,
			NumQuestions:   defaultNumQuestions,
			Language:       c.currentLanguage(),
		})
		if err != nil {
			return err
		}

		c.mu.Lock()
		c.questions = questions
		c.answers = map[string]string{}
		c.evaluation = nil
		c.stage = StageInterview
		c.reached[StageInterview] = true
		c.mu.Unlock()
		return nil
	}()

	c.finish(ctx, "interview", started, err)
	return err
}

// SubmitAnswer stores the answer for one question. Answers may be
// revised any number of times before evaluation.
func (c *Controller) SubmitAnswer(questionID, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, q := range c.questions {
		if q.ID == questionID {
			c.answers[questionID] = text
			return nil
		}
	}
	return apperrors.NewValidationError(apperrors.ErrCodeMissingInput,
		"unknown question", nil).WithContext("question_id", questionID)
}

// EvaluateInterview submits the answered questions for grading.
// Unanswered questions are submitted as empty strings.
func (c *Controller) EvaluateInterview(ctx context.Context) error {
	c.mu.Lock()
	questions := c.questions
	answers := make(map[string]string, len(c.answers))
	for id, text := range c.answers {
		answers[id] = text
	}
	c.mu.Unlock()
	if len(questions) == 0 {
		return apperrors.NewValidationError(apperrors.ErrCodeMissingInput,
			"no interview questions to evaluate", nil)
	}

	if err := c.begin("evaluate"); err != nil {
		return err
	}
	started := time.Now()

	err := func() error {
		payload := make([]types.InterviewAnswer, 0, len(questions))
		for _, q := range questions {
			payload = append(payload, types.InterviewAnswer{
				ID:       q.ID,
				Category: q.Category,
				Question: q.Text,
				Answer:   answers[q.ID],
			})
		}

		evaluation, err := c.backend.EvaluateInterview(ctx, backend.EvaluationRequest{
			Answers:  payload,
			Language: c.currentLanguage(),
		})
		if err != nil {
			return err
		}

		c.mu.Lock()
		c.evaluation = &evaluation
		c.mu.Unlock()
		return nil
	}()

	c.finish(ctx, "evaluate", started, err)
	return err
}

// SearchJobs looks up postings for the extracted skills. Empty location
// and non-positive numResults fall back to the configured defaults.
func (c *Controller) SearchJobs(ctx context.Context, targetRole, location string, numResults int) error {
	c.mu.Lock()
	skills := c.keywordList
	resumeText := c.resumeText
	c.mu.Unlock()
	if resumeText == "" {
		return apperrors.NewValidationError(apperrors.ErrCodeMissingInput,
			"run a comparison before searching jobs", nil)
	}
	if location == "" {
		location = c.cfg.DefaultLocation
	}
	if numResults <= 0 {
		numResults = c.cfg.DefaultNumResults
	}

	if err := c.begin("jobs"); err != nil {
		return err
	}
	started := time.Now()

	err := func() error {
		result, err := c.backend.SearchJobs(ctx, backend.JobSearchRequest{
			Role:       targetRole,
			Skills:     skills,
			Location:   location,
			NumResults: numResults,
			Language:   c.currentLanguage(),
		})
		if err != nil {
			return err
		}

		c.mu.Lock()
		c.jobs = &result
		c.stage = StageJobs
		c.reached[StageJobs] = true
		c.mu.Unlock()
		return nil
	}()

	c.finish(ctx, "jobs", started, err)
	return err
}

// Navigate moves to a stage the session has already reached. Forward
// movement happens only through the operation that produces the
// destination's data.
func (c *Controller) Navigate(stage Stage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return apperrors.NewValidationError(apperrors.ErrCodeActionInFlight,
			"another action is still running", nil)
	}
	if !c.reached[stage] {
		return apperrors.NewValidationError(apperrors.ErrCodeMissingInput,
			"stage not reached yet", nil).WithContext("stage", string(stage))
	}
	c.stage = stage
	return nil
}

// SetLanguage selects the language for subsequent backend calls.
func (c *Controller) SetLanguage(language string) error {
	if language != types.LanguageEnglish && language != types.LanguageFrench {
		return apperrors.NewValidationError(apperrors.ErrCodeInvalidConfig,
			"unsupported language", nil).WithContext("language", language)
	}
	c.mu.Lock()
	c.language = language
	c.mu.Unlock()
	return nil
}

func (c *Controller) currentLanguage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.language
}
