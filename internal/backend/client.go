// Package backend talks to the matching service that does the heavy
// lifting: document conversion, retrieval, generation and export. Two
// implementations exist, the HTTP client for the hosted service and a
// local Gemini provider for running without it.
package backend

import (
	"context"
	"encoding/json"

	"hiringbuddy/internal/types"
)

// RawMatch is one retrieval candidate before normalization. LLMJSON is
// the model output verbatim; callers must never assume it parses.
type RawMatch struct {
	Candidate string          `json:"candidate"`
	LLMJSON   json.RawMessage `json:"llm_json"`
}

// DraftRequest carries everything needed to generate a resume draft.
type DraftRequest struct {
	ResumeText     string              `json:"resume_text"`
	JobDescription string              `json:"jd"`
	MissingSkills  []string            `json:"missing_skills"`
	Headers        []types.DraftHeader `json:"headers"`
	Language       string              `json:"language"`
}

// InterviewRequest asks for practice interview questions.
type InterviewRequest struct {
	ResumeText     string `json:"resume_text"`
	JobDescription string `json:"jd"`
	TargetRole     string `json:"target_role"`
	NumQuestions   int    `json:"num_questions"`
	Language       string `json:"language"`
}

// EvaluationRequest carries the answered questions for grading.
type EvaluationRequest struct {
	Answers  []types.InterviewAnswer `json:"answers"`
	Language string                  `json:"language"`
}

// JobSearchRequest describes a job posting search.
type JobSearchRequest struct {
	Role       string   `json:"role"`
	Skills     []string `json:"skills"`
	Location   string   `json:"location"`
	NumResults int      `json:"num_results"`
	Language   string   `json:"language"`
}

// Client is the matching backend surface the workflow depends on.
type Client interface {
	// PreviewDocument converts the uploaded file to text and returns
	// the head slice alongside the full text.
	PreviewDocument(ctx context.Context, fileName string, data []byte, headChars int) (types.DocumentPreview, error)

	// IndexResume stores the resume in the retrieval index.
	IndexResume(ctx context.Context, fileName string, data []byte) error

	// MatchResume retrieves candidates for a job description. The
	// per-candidate model output comes back raw.
	MatchResume(ctx context.Context, jobDescription string, topK int) ([]RawMatch, error)

	// ExtractKeywords pulls the salient keywords out of a job description.
	ExtractKeywords(ctx context.Context, jobDescription string, language string) ([]string, error)

	// GenerateDraft produces a tailored resume draft as a raw model
	// payload for the normalizer.
	GenerateDraft(ctx context.Context, req DraftRequest) (json.RawMessage, error)

	// GenerateInterviewQuestions produces practice questions.
	GenerateInterviewQuestions(ctx context.Context, req InterviewRequest) ([]types.InterviewQuestion, error)

	// EvaluateInterview grades the answered questions.
	EvaluateInterview(ctx context.Context, req EvaluationRequest) (types.InterviewEvaluation, error)

	// SearchJobs finds job postings matching the extracted skills.
	SearchJobs(ctx context.Context, req JobSearchRequest) (types.JobSearchResult, error)

	// ExportDocument renders the draft as a binary document.
	ExportDocument(ctx context.Context, req types.ExportRequest) ([]byte, error)

	Close() error
}
