package synth

import (
	"reflect"
	"strings"
	"testing"

	"hiringbuddy/internal/types"
)

func skillsSection(title string, all, jd []string) types.DraftSection {
	return types.DraftSection{
		Title: title,
		Kind:  types.SectionSkills,
		Skills: types.SkillsContent{
			AllFromResume:      all,
			JDRelevantEmphasis: jd,
		},
	}
}

func TestToMarkdownHeadingsMatchSections(t *testing.T) {
	tests := []struct {
		name     string
		sections []types.DraftSection
		headings []string
	}{
		{
			name: "titled sections in order",
			sections: []types.DraftSection{
				{Title: "Profile", Text: "Engineer."},
				{Title: "Education", Text: "BSc."},
			},
			headings: []string{"## Profile", "## Education"},
		},
		{
			name: "untitled section gets positional heading",
			sections: []types.DraftSection{
				{Title: "Profile", Text: "Engineer."},
				{Text: "Loose content."},
			},
			headings: []string{"## Profile", "## Section 2"},
		},
		{
			name: "empty content keeps its heading",
			sections: []types.DraftSection{
				{Title: "Certificates"},
			},
			headings: []string{"## Certificates"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := ToMarkdown(types.DraftDocument{Sections: tt.sections})

			var got []string
			for _, line := range strings.Split(md, "\n") {
				if strings.HasPrefix(line, "## ") {
					got = append(got, line)
				}
			}
			if !reflect.DeepEqual(got, tt.headings) {
				t.Errorf("headings = %v, want %v", got, tt.headings)
			}
		})
	}
}

func TestToMarkdownSkillsOrdering(t *testing.T) {
	doc := types.DraftDocument{Sections: []types.DraftSection{
		skillsSection("Skills", []string{"Python", "SQL"}, []string{"Python"}),
	}}

	md := ToMarkdown(doc)

	jdAt := strings.Index(md, "JD-Relevant (emphasis):")
	allAt := strings.Index(md, "All skills (from resume):")
	if jdAt < 0 || allAt < 0 {
		t.Fatalf("missing skills labels in output:\n%s", md)
	}
	if jdAt > allAt {
		t.Errorf("JD-relevant list must render before the full list:\n%s", md)
	}
	if !strings.Contains(md[allAt:], "- Python\n- SQL") {
		t.Errorf("full skill list not rendered in order:\n%s", md)
	}
}

func TestToMarkdownSkillsMarksAdditions(t *testing.T) {
	doc := types.DraftDocument{Sections: []types.DraftSection{
		skillsSection("Skills", []string{"Python"}, []string{"Python", "Kubernetes"}),
	}}

	md := ToMarkdown(doc)

	if !strings.Contains(md, "- Kubernetes (add)") {
		t.Errorf("skill absent from the resume should be marked:\n%s", md)
	}
	if strings.Contains(md, "- Python (add)") {
		t.Errorf("skill present in the resume should not be marked:\n%s", md)
	}
}

func TestToMarkdownOmitsEmptySkillSublists(t *testing.T) {
	doc := types.DraftDocument{Sections: []types.DraftSection{
		skillsSection("Skills", []string{"Go"}, nil),
	}}

	md := ToMarkdown(doc)

	if strings.Contains(md, "JD-Relevant") {
		t.Errorf("empty sub-list should be omitted from Markdown:\n%s", md)
	}
	if !strings.Contains(md, "All skills (from resume):\n- Go") {
		t.Errorf("expected remaining sub-list:\n%s", md)
	}
}

func TestToParagraphsStructure(t *testing.T) {
	doc := types.DraftDocument{Sections: []types.DraftSection{
		{Title: "Profile", Text: "Line one\nLine two"},
		{Title: "Certificates"},
		skillsSection("Skills", []string{"Python", "SQL"}, []string{"Python"}),
	}}

	paragraphs := ToParagraphs(doc)

	var headings []string
	for _, p := range paragraphs {
		if p.Style == StyleHeading {
			headings = append(headings, p.Runs[0].Text)
		}
	}
	want := []string{"Profile", "Certificates", "Skills"}
	if !reflect.DeepEqual(headings, want) {
		t.Fatalf("headings = %v, want %v", headings, want)
	}

	// Profile splits per line.
	if paragraphs[1].Runs[0].Text != "Line one" || paragraphs[2].Runs[0].Text != "Line two" {
		t.Errorf("multi-line content not split per line: %+v", paragraphs[1:3])
	}

	// Empty section still gets a body placeholder between its heading
	// and the next one.
	if paragraphs[4].Style != StyleBody || paragraphs[4].Runs[0].Text != "" {
		t.Errorf("empty section placeholder = %+v", paragraphs[4])
	}
}

func TestToParagraphsSkillsPlaceholders(t *testing.T) {
	doc := types.DraftDocument{Sections: []types.DraftSection{
		skillsSection("Skills", []string{"Go"}, nil),
	}}

	paragraphs := ToParagraphs(doc)

	var texts []string
	for _, p := range paragraphs {
		for _, r := range p.Runs {
			texts = append(texts, r.Text)
		}
	}
	joined := strings.Join(texts, "|")

	if !strings.Contains(joined, "JD-Relevant (emphasis):|none found") {
		t.Errorf("empty sub-list should render an explicit placeholder: %s", joined)
	}
	if !strings.Contains(joined, "All skills (from resume):|- |Go") {
		t.Errorf("populated sub-list should render bullets: %s", joined)
	}
}

func TestExportPayload(t *testing.T) {
	doc := types.DraftDocument{Sections: []types.DraftSection{
		{Title: "Profile", Text: "Engineer."},
		skillsSection("Skills", []string{"Python", "SQL"}, []string{"SQL"}),
	}}
	contact := types.ContactInfo{Email: "a@b.c", Location: "Rabat"}

	req := ExportPayload(doc, "Amina El Fassi", contact)

	if req.FullName != "Amina El Fassi" {
		t.Errorf("FullName = %q", req.FullName)
	}
	if req.Contact != contact {
		t.Errorf("Contact = %+v", req.Contact)
	}
	if len(req.Sections) != 2 {
		t.Fatalf("len(Sections) = %d, want 2", len(req.Sections))
	}
	if req.Sections[0].Content != "Engineer." {
		t.Errorf("text section content = %q", req.Sections[0].Content)
	}
	wantSkills := "JD-Relevant (emphasis):\n- SQL\n\nAll skills (from resume):\n- Python\n- SQL"
	if req.Sections[1].Content != wantSkills {
		t.Errorf("skills content = %q, want %q", req.Sections[1].Content, wantSkills)
	}
}

func TestDocxFileName(t *testing.T) {
	tests := []struct {
		name     string
		fullName string
		want     string
	}{
		{"spaces become underscores", "Amina El Fassi", "Amina_El_Fassi.docx"},
		{"single name", "Amina", "Amina.docx"},
		{"surrounding whitespace trimmed", "  Amina El Fassi ", "Amina_El_Fassi.docx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DocxFileName(tt.fullName); got != tt.want {
				t.Errorf("DocxFileName(%q) = %q, want %q", tt.fullName, got, tt.want)
			}
		})
	}
}
