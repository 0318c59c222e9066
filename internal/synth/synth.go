package synth

import (
	"fmt"
	"slices"
	"strings"

	"hiringbuddy/internal/types"
)

// Output artifact names and MIME types for the two export paths.
const (
	MarkdownFileName = "cv_draft.md"
	MarkdownMIMEType = "text/markdown;charset=utf-8"
	DocxMIMEType     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Paragraph styles used in the paragraph tree.
const (
	StyleHeading = "heading"
	StyleBody    = "body"
	StyleBullet  = "bullet"
)

// Skills sub-list labels. JD-relevant always renders first.
const (
	labelJDRelevant = "JD-Relevant (emphasis):"
	labelAllSkills  = "All skills (from resume):"
	bulletMarker    = "- "
)

// Run is a styled text fragment within a paragraph.
type Run struct {
	Text string
	Bold bool
}

// Paragraph is one node of the paragraph tree consumed by the binary
// document builder.
type Paragraph struct {
	Style string
	Runs  []Run
}

// DocxFileName derives the exported document filename from the full name.
func DocxFileName(fullName string) string {
	return strings.ReplaceAll(strings.TrimSpace(fullName), " ", "_") + ".docx"
}

// ToMarkdown renders the draft sections as Markdown. Every section is
// processed, even with empty content, so the heading count and order
// always match the input exactly.
func ToMarkdown(doc types.DraftDocument) string {
	blocks := make([]string, len(doc.Sections))
	for i, section := range doc.Sections {
		blocks[i] = fmt.Sprintf("## %s\n\n%s\n", sectionTitle(i, section), sectionMarkdown(section))
	}
	return strings.Join(blocks, "\n")
}

func sectionMarkdown(section types.DraftSection) string {
	if section.Kind == types.SectionSkills {
		return formatSkills(section.Skills)
	}
	return section.Text
}

// ToParagraphs renders the draft sections as a paragraph tree. It derives
// from the same canonical section list as ToMarkdown so the two exports
// never diverge in content, only in formatting.
func ToParagraphs(doc types.DraftDocument) []Paragraph {
	var paragraphs []Paragraph
	for i, section := range doc.Sections {
		paragraphs = append(paragraphs, Paragraph{
			Style: StyleHeading,
			Runs:  []Run{{Text: sectionTitle(i, section), Bold: true}},
		})
		paragraphs = append(paragraphs, sectionParagraphs(section)...)
	}
	return paragraphs
}

func sectionParagraphs(section types.DraftSection) []Paragraph {
	if section.Kind == types.SectionSkills {
		var out []Paragraph
		out = append(out, skillListParagraphs(labelJDRelevant, markAdditions(section.Skills))...)
		out = append(out, skillListParagraphs(labelAllSkills, section.Skills.AllFromResume)...)
		return out
	}

	// one paragraph per line; empty content still emits a placeholder
	lines := strings.Split(section.Text, "\n")
	out := make([]Paragraph, len(lines))
	for i, line := range lines {
		out[i] = Paragraph{Style: StyleBody, Runs: []Run{{Text: line}}}
	}
	return out
}

// skillListParagraphs renders a labeled bulleted sub-list. Unlike the
// Markdown path, an empty sub-list still renders a visible placeholder
// because the exported document needs explicit structure.
func skillListParagraphs(label string, items []string) []Paragraph {
	out := []Paragraph{{Style: StyleBody, Runs: []Run{{Text: label, Bold: true}}}}
	if len(items) == 0 {
		return append(out, Paragraph{Style: StyleBody, Runs: []Run{{Text: "none found"}}})
	}
	for _, item := range items {
		out = append(out, Paragraph{
			Style: StyleBullet,
			Runs:  []Run{{Text: bulletMarker, Bold: true}, {Text: item}},
		})
	}
	return out
}

// ExportPayload flattens the draft into the binary document export
// contract, with skills sections collapsed into their labeled text form.
func ExportPayload(doc types.DraftDocument, fullName string, contact types.ContactInfo) types.ExportRequest {
	sections := make([]types.ExportSection, len(doc.Sections))
	for i, section := range doc.Sections {
		sections[i] = types.ExportSection{
			Title:   sectionTitle(i, section),
			Content: sectionMarkdown(section),
		}
	}
	return types.ExportRequest{
		FullName: fullName,
		Contact:  contact,
		Sections: sections,
	}
}

func sectionTitle(index int, section types.DraftSection) string {
	if section.Title != "" {
		return section.Title
	}
	return fmt.Sprintf("Section %d", index+1)
}

// formatSkills renders structured skills content as labeled bulleted
// sub-lists, JD-relevant first. Empty sub-lists are omitted here; the
// paragraph tree handles them with explicit placeholders instead.
func formatSkills(skills types.SkillsContent) string {
	var parts []string
	if jd := markAdditions(skills); len(jd) > 0 {
		parts = append(parts, labelJDRelevant+"\n"+bulleted(jd))
	}
	if len(skills.AllFromResume) > 0 {
		parts = append(parts, labelAllSkills+"\n"+bulleted(skills.AllFromResume))
	}
	return strings.Join(parts, "\n\n")
}

// markAdditions annotates JD-relevant skills that do not appear in the
// resume's own skill list, so the reader can tell claims from additions.
func markAdditions(skills types.SkillsContent) []string {
	out := make([]string, len(skills.JDRelevantEmphasis))
	for i, skill := range skills.JDRelevantEmphasis {
		if slices.Contains(skills.AllFromResume, skill) {
			out[i] = skill
		} else {
			out[i] = skill + " (add)"
		}
	}
	return out
}

func bulleted(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = bulletMarker + item
	}
	return strings.Join(lines, "\n")
}
