package types

// Language codes accepted by every backend operation that takes one.
const (
	LanguageEnglish = "en"
	LanguageFrench  = "fr"
)

// DocumentPreview is the text preview of an uploaded document.
type DocumentPreview struct {
	Chars int    `json:"chars"`
	Head  string `json:"head"`
	Full  string `json:"full"`
}

// KeywordStatus reports whether one job-description keyword was found in
// the resume text. Keyword keeps the original casing for display.
type KeywordStatus struct {
	Keyword string `json:"keyword"`
	Present bool   `json:"present"`
}

// MatchResult is the normalized outcome of one candidate's resume/job match.
type MatchResult struct {
	Candidate  string   `json:"candidate,omitempty"`
	Score      Score    `json:"score"`
	Highlights []string `json:"highlights"`
	Missing    []string `json:"missing"`
}

// CompareOutput bundles everything a completed comparison produced.
type CompareOutput struct {
	Matches       []MatchResult   `json:"matches"`
	MissingSkills []string        `json:"missing_skills"`
	Keywords      []KeywordStatus `json:"keywords"`
}

// SectionKind distinguishes plain-text sections from structured skills sections.
type SectionKind string

const (
	SectionText   SectionKind = "text"
	SectionSkills SectionKind = "skills"
)

// SkillsContent is the structured form of a skills section.
type SkillsContent struct {
	AllFromResume      []string `json:"allFromResume"`
	JDRelevantEmphasis []string `json:"jdRelevantEmphasis"`
}

// DraftSection is one titled unit of a CV draft.
type DraftSection struct {
	Title  string        `json:"title"`
	Kind   SectionKind   `json:"kind"`
	Text   string        `json:"text,omitempty"`
	Skills SkillsContent `json:"skills,omitzero"`
}

// DraftDocument holds the ordered sections of a generated CV draft.
// Section order as received from the backend is preserved through every
// rendering.
type DraftDocument struct {
	Sections []DraftSection `json:"sections"`
}

// DraftHeader is a user-editable section header sent with a draft request.
type DraftHeader struct {
	Title   string `json:"title"`
	Context string `json:"context"`
}

// DefaultDraftHeaders returns the section headers used when the user has
// not customized them.
func DefaultDraftHeaders() []DraftHeader {
	return []DraftHeader{
		{Title: "Profile", Context: "(keep it brief)"},
		{Title: "Professional Experience"},
		{Title: "Education"},
		{Title: "Projects"},
		{Title: "Certificates"},
		{Title: "Skills"},
		{Title: "Languages"},
	}
}

// InterviewQuestion is one generated interview question.
type InterviewQuestion struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Text     string `json:"text"`
}

// InterviewAnswer pairs a question with the candidate's answer for evaluation.
type InterviewAnswer struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// QuestionFeedback is the per-question evaluation outcome (score 0-5).
type QuestionFeedback struct {
	ID          string `json:"id"`
	Score       int    `json:"score"`
	Feedback    string `json:"feedback"`
	IdealAnswer string `json:"ideal_answer,omitempty"`
}

// FinalEvaluation is the overall interview assessment (score 0-100).
type FinalEvaluation struct {
	FinalScore   int      `json:"final_score"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
	Resources    []string `json:"resources"`
}

// InterviewEvaluation is the full result of evaluating an interview.
type InterviewEvaluation struct {
	PerQuestion []QuestionFeedback `json:"per_question"`
	Final       FinalEvaluation    `json:"final"`
}

// JobPosting is a single job-search hit.
type JobPosting struct {
	Title         string   `json:"title"`
	Link          string   `json:"link"`
	Snippet       string   `json:"snippet"`
	Source        string   `json:"source"`
	Position      int      `json:"position"`
	MatchedSkills []string `json:"matched_skills"`
}

// JobSearchResult is the full outcome of a job search.
type JobSearchResult struct {
	Jobs       []JobPosting `json:"jobs"`
	Query      string       `json:"query"`
	SkillsUsed []string     `json:"skills_used"`
	Location   string       `json:"location"`
}

// ContactInfo is the contact block of an exported CV document.
type ContactInfo struct {
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Location string `json:"location"`
	LinkedIn string `json:"linkedin"`
}

// ExportSection is the flattened section shape of the document-export contract.
type ExportSection struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ExportRequest is the payload for binary document export.
type ExportRequest struct {
	FullName string          `json:"full_name"`
	Contact  ContactInfo     `json:"contact"`
	Sections []ExportSection `json:"sections"`
}
