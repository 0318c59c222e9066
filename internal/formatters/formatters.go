package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"hiringbuddy/internal/synth"
	"hiringbuddy/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	// Register default formatters
	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "CompareOutput", &CompareTextFormatter{})
	registry.RegisterFormatter("markdown", "CompareOutput", &CompareMarkdownFormatter{})
	registry.RegisterFormatter("text", "DraftDocument", &DraftFormatter{})
	registry.RegisterFormatter("markdown", "DraftDocument", &DraftFormatter{})
	registry.RegisterFormatter("text", "InterviewEvaluation", &EvaluationTextFormatter{})
	registry.RegisterFormatter("markdown", "InterviewEvaluation", &EvaluationMarkdownFormatter{})
	registry.RegisterFormatter("text", "JobSearchResult", &JobSearchTextFormatter{})
	registry.RegisterFormatter("markdown", "JobSearchResult", &JobSearchMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.CompareOutput:
		return "CompareOutput"
	case types.DraftDocument:
		return "DraftDocument"
	case types.InterviewEvaluation:
		return "InterviewEvaluation"
	case types.JobSearchResult:
		return "JobSearchResult"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// CompareTextFormatter handles text formatting for comparison results
type CompareTextFormatter struct{}

func (ctf *CompareTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.CompareOutput)
	if !ok {
		return "", fmt.Errorf("expected CompareOutput, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== MATCH RESULTS ===\n\n")
	for i, match := range result.Matches {
		label := match.Candidate
		if label == "" {
			label = fmt.Sprintf("Candidate %d", i+1)
		}
		output.WriteString(fmt.Sprintf("%s (score %s/100)\n", label, match.Score))
		for _, highlight := range match.Highlights {
			output.WriteString(fmt.Sprintf("  + %s\n", highlight))
		}
		for _, missing := range match.Missing {
			output.WriteString(fmt.Sprintf("  - missing: %s\n", missing))
		}
		output.WriteString("\n")
	}

	if len(result.MissingSkills) > 0 {
		output.WriteString("=== MISSING SKILLS ===\n")
		for _, skill := range result.MissingSkills {
			output.WriteString(fmt.Sprintf("- %s\n", skill))
		}
		output.WriteString("\n")
	}

	output.WriteString("=== KEYWORD COVERAGE ===\n")
	for _, kw := range result.Keywords {
		mark := "MISSING"
		if kw.Present {
			mark = "present"
		}
		output.WriteString(fmt.Sprintf("%-30s %s\n", kw.Keyword, mark))
	}

	return output.String(), nil
}

func (ctf *CompareTextFormatter) SupportedType() string {
	return "CompareOutput"
}

// CompareMarkdownFormatter handles markdown formatting for comparison results
type CompareMarkdownFormatter struct{}

func (cmf *CompareMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.CompareOutput)
	if !ok {
		return "", fmt.Errorf("expected CompareOutput, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Match Results\n\n")
	for i, match := range result.Matches {
		label := match.Candidate
		if label == "" {
			label = fmt.Sprintf("Candidate %d", i+1)
		}
		output.WriteString(fmt.Sprintf("## %s\n\n", label))
		output.WriteString(fmt.Sprintf("**Score:** %s/100\n\n", match.Score))
		if len(match.Highlights) > 0 {
			output.WriteString("### Highlights\n")
			for _, highlight := range match.Highlights {
				output.WriteString(fmt.Sprintf("- %s\n", highlight))
			}
			output.WriteString("\n")
		}
		if len(match.Missing) > 0 {
			output.WriteString("### Missing\n")
			for _, missing := range match.Missing {
				output.WriteString(fmt.Sprintf("- %s\n", missing))
			}
			output.WriteString("\n")
		}
	}

	output.WriteString("## Keyword Coverage\n\n")
	output.WriteString("| Keyword | Present |\n|---|---|\n")
	for _, kw := range result.Keywords {
		mark := "no"
		if kw.Present {
			mark = "yes"
		}
		output.WriteString(fmt.Sprintf("| %s | %s |\n", kw.Keyword, mark))
	}

	return output.String(), nil
}

func (cmf *CompareMarkdownFormatter) SupportedType() string {
	return "CompareOutput"
}

// DraftFormatter renders a draft document. Text and markdown output are
// the same rendering since the draft is Markdown by construction.
type DraftFormatter struct{}

func (df *DraftFormatter) Format(data any) (string, error) {
	doc, ok := data.(types.DraftDocument)
	if !ok {
		return "", fmt.Errorf("expected DraftDocument, got %T", data)
	}
	return synth.ToMarkdown(doc), nil
}

func (df *DraftFormatter) SupportedType() string {
	return "DraftDocument"
}

// EvaluationTextFormatter handles text formatting for interview evaluations
type EvaluationTextFormatter struct{}

func (etf *EvaluationTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.InterviewEvaluation)
	if !ok {
		return "", fmt.Errorf("expected InterviewEvaluation, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== INTERVIEW EVALUATION ===\n\n")
	output.WriteString(fmt.Sprintf("Final Score: %d/100\n\n", result.Final.FinalScore))

	for i, feedback := range result.PerQuestion {
		output.WriteString(fmt.Sprintf("%d. [%s] score %d/5\n", i+1, feedback.ID, feedback.Score))
		output.WriteString("   Feedback: ")
		output.WriteString(feedback.Feedback)
		output.WriteString("\n")
		if feedback.IdealAnswer != "" {
			output.WriteString("   Ideal answer: ")
			output.WriteString(feedback.IdealAnswer)
			output.WriteString("\n")
		}
		output.WriteString("\n")
	}

	writeTextList(&output, "Strengths", result.Final.Strengths)
	writeTextList(&output, "Improvements", result.Final.Improvements)
	writeTextList(&output, "Resources", result.Final.Resources)

	return output.String(), nil
}

func (etf *EvaluationTextFormatter) SupportedType() string {
	return "InterviewEvaluation"
}

func writeTextList(output *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	output.WriteString(title + ":\n")
	for _, item := range items {
		output.WriteString(fmt.Sprintf("- %s\n", item))
	}
	output.WriteString("\n")
}

// EvaluationMarkdownFormatter handles markdown formatting for interview evaluations
type EvaluationMarkdownFormatter struct{}

func (emf *EvaluationMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.InterviewEvaluation)
	if !ok {
		return "", fmt.Errorf("expected InterviewEvaluation, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Interview Evaluation\n\n")
	output.WriteString(fmt.Sprintf("**Final Score:** %d/100\n\n", result.Final.FinalScore))

	if len(result.PerQuestion) > 0 {
		output.WriteString("## Per Question\n\n")
		for i, feedback := range result.PerQuestion {
			output.WriteString(fmt.Sprintf("### %d. %s (%d/5)\n\n", i+1, feedback.ID, feedback.Score))
			output.WriteString(feedback.Feedback)
			output.WriteString("\n\n")
			if feedback.IdealAnswer != "" {
				output.WriteString("**Ideal answer:** ")
				output.WriteString(feedback.IdealAnswer)
				output.WriteString("\n\n")
			}
		}
	}

	writeMarkdownList(&output, "Strengths", result.Final.Strengths)
	writeMarkdownList(&output, "Improvements", result.Final.Improvements)
	writeMarkdownList(&output, "Resources", result.Final.Resources)

	return output.String(), nil
}

func (emf *EvaluationMarkdownFormatter) SupportedType() string {
	return "InterviewEvaluation"
}

func writeMarkdownList(output *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	output.WriteString("## " + title + "\n\n")
	for _, item := range items {
		output.WriteString(fmt.Sprintf("- %s\n", item))
	}
	output.WriteString("\n")
}

// JobSearchTextFormatter handles text formatting for job search results
type JobSearchTextFormatter struct{}

func (jtf *JobSearchTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.JobSearchResult)
	if !ok {
		return "", fmt.Errorf("expected JobSearchResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== JOB SEARCH ===\n\n")
	output.WriteString(fmt.Sprintf("Query: %s\n", result.Query))
	output.WriteString(fmt.Sprintf("Location: %s\n", result.Location))
	if len(result.SkillsUsed) > 0 {
		output.WriteString(fmt.Sprintf("Skills used: %s\n", strings.Join(result.SkillsUsed, ", ")))
	}
	output.WriteString("\n")

	if len(result.Jobs) == 0 {
		output.WriteString("No postings found.\n")
		return output.String(), nil
	}

	for i, job := range result.Jobs {
		output.WriteString(fmt.Sprintf("%d. %s (%s)\n", i+1, job.Title, job.Source))
		output.WriteString("   " + job.Link + "\n")
		if job.Snippet != "" {
			output.WriteString("   " + job.Snippet + "\n")
		}
		if len(job.MatchedSkills) > 0 {
			output.WriteString(fmt.Sprintf("   Matched skills: %s\n", strings.Join(job.MatchedSkills, ", ")))
		}
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (jtf *JobSearchTextFormatter) SupportedType() string {
	return "JobSearchResult"
}

// JobSearchMarkdownFormatter handles markdown formatting for job search results
type JobSearchMarkdownFormatter struct{}

func (jmf *JobSearchMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.JobSearchResult)
	if !ok {
		return "", fmt.Errorf("expected JobSearchResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Job Search\n\n")
	output.WriteString(fmt.Sprintf("**Query:** %s\n\n", result.Query))
	output.WriteString(fmt.Sprintf("**Location:** %s\n\n", result.Location))

	if len(result.Jobs) == 0 {
		output.WriteString("No postings found.\n")
		return output.String(), nil
	}

	for i, job := range result.Jobs {
		output.WriteString(fmt.Sprintf("## %d. [%s](%s)\n\n", i+1, job.Title, job.Link))
		if job.Snippet != "" {
			output.WriteString(job.Snippet)
			output.WriteString("\n\n")
		}
		if len(job.MatchedSkills) > 0 {
			output.WriteString(fmt.Sprintf("**Matched skills:** %s\n\n", strings.Join(job.MatchedSkills, ", ")))
		}
	}

	return output.String(), nil
}

func (jmf *JobSearchMarkdownFormatter) SupportedType() string {
	return "JobSearchResult"
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
