package backend

import (
	"os"
	"path/filepath"
	"strings"
)

// SystemPrompts contains all system-level instructions for AI interactions
type SystemPrompts struct {
	MatchResume        string
	DraftResume        string
	InterviewQuestions string
	EvaluateAnswers    string
	ExtractKeywords    string
}

// UserPrompts contains user-level prompts with placeholders for dynamic content
type UserPrompts struct {
	MatchResume        string
	DraftResume        string
	InterviewQuestions string
	EvaluateAnswers    string
	ExtractKeywords    string
}

// DefaultSystemPrompts provides the default system instructions
var DefaultSystemPrompts = SystemPrompts{
	MatchResume: `You are an expert technical recruiter with a strict commitment to honesty and accuracy. Your core principles are:

- Score the match between a resume and a job description from 0 to 100
- Every highlight must be directly traceable to the resume text
- Missing skills are requirements from the job description absent from the resume
- Never invent or exaggerate candidate qualifications`,

	DraftResume: `You are an expert resume writer. Your core principles are:

- NEVER invent, exaggerate, or misattribute any skills or experiences
- Every piece of information must be directly traceable to the candidate's resume
- Reorder and rephrase for relevance to the target role, nothing more
- Respect the requested section structure exactly`,

	InterviewQuestions: `You are an experienced technical interviewer. Generate practice interview questions that:

- Probe the candidate's actual experience as stated in their resume
- Cover the gaps between the resume and the job description
- Mix technical, behavioral and situational categories`,

	EvaluateAnswers: `You are an experienced interview coach. Grade each answer honestly:

- Score each answer from 0 to 100 with concrete feedback
- Show what an ideal answer would contain when the score is low
- Summarize strengths, improvement areas and learning resources`,

	ExtractKeywords: `You are an ATS keyword analyst. Extract the skills, tools and qualifications that an applicant tracking system would scan for. Return only terms that actually appear in the job description.`,
}

// DefaultUserPrompts provides the default user prompt templates
var DefaultUserPrompts = UserPrompts{
	MatchResume: `Score how well this resume matches the job description. Return a score from 0 to 100, the resume highlights that support the match, and the job requirements missing from the resume.

**Resume:**
-----
%s
-----

**Job Description:**
-----
%s
-----`,

	DraftResume: `Write a tailored resume draft for this candidate targeting the job below. Use exactly these sections, in this order:
%s

For the skills section, separate the skills found in the resume from the job-relevant skills to emphasize.
Answer in this language: %s.

**Resume:**
-----
%s
-----

**Job Description:**
-----
%s
-----`,

	InterviewQuestions: `Generate %d practice interview questions for this candidate and role. Each question needs an id, a category and the question text.
Answer in this language: %s.

**Resume:**
-----
%s
-----

**Job Description:**
-----
%s
-----`,

	EvaluateAnswers: `Grade these interview answers. For each, give a score from 0 to 100, concrete feedback, and an ideal answer when the score is below 70. Finish with a final score, strengths, improvements and learning resources.
Answer in this language: %s.

**Questions and Answers:**
-----
%s
-----`,

	ExtractKeywords: `Extract the keywords an ATS would scan for from this job description. Return them as a flat list.

**Job Description:**
-----
%s
-----`,
}

// promptOverrideFiles maps prompt override file names to their slot.
// Files live in the configured prompt directory; a missing file keeps
// the default.
var promptOverrideFiles = map[string]func(*SystemPrompts, *UserPrompts, string){
	"match_system.txt":     func(s *SystemPrompts, _ *UserPrompts, v string) { s.MatchResume = v },
	"match_user.txt":       func(_ *SystemPrompts, u *UserPrompts, v string) { u.MatchResume = v },
	"draft_system.txt":     func(s *SystemPrompts, _ *UserPrompts, v string) { s.DraftResume = v },
	"draft_user.txt":       func(_ *SystemPrompts, u *UserPrompts, v string) { u.DraftResume = v },
	"interview_system.txt": func(s *SystemPrompts, _ *UserPrompts, v string) { s.InterviewQuestions = v },
	"interview_user.txt":   func(_ *SystemPrompts, u *UserPrompts, v string) { u.InterviewQuestions = v },
	"evaluate_system.txt":  func(s *SystemPrompts, _ *UserPrompts, v string) { s.EvaluateAnswers = v },
	"evaluate_user.txt":    func(_ *SystemPrompts, u *UserPrompts, v string) { u.EvaluateAnswers = v },
	"keywords_system.txt":  func(s *SystemPrompts, _ *UserPrompts, v string) { s.ExtractKeywords = v },
	"keywords_user.txt":    func(_ *SystemPrompts, u *UserPrompts, v string) { u.ExtractKeywords = v },
}

// LoadPrompts returns the prompt set, with any overrides found in
// promptDir applied on top of the defaults. An empty promptDir returns
// the defaults unchanged.
func LoadPrompts(promptDir string) (SystemPrompts, UserPrompts) {
	system := DefaultSystemPrompts
	user := DefaultUserPrompts

	if promptDir == "" {
		return system, user
	}

	for name, apply := range promptOverrideFiles {
		content, err := os.ReadFile(filepath.Join(promptDir, name))
		if err != nil {
			continue
		}
		if text := strings.TrimSpace(string(content)); text != "" {
			apply(&system, &user, text)
		}
	}

	return system, user
}
