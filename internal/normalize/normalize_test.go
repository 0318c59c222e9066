package normalize

import (
	"encoding/json"
	"reflect"
	"testing"

	"hiringbuddy/internal/types"
)

func mustQuote(t *testing.T, s string) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("failed to quote payload: %v", err)
	}
	return raw
}

func TestCleanFences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "fenced json block",
			input:    "```json\n{\"score\":72}\n```",
			expected: "{\"score\":72}",
		},
		{
			name:     "bare fences",
			input:    "```\n{\"a\":1}\n```",
			expected: "{\"a\":1}",
		},
		{
			name:     "fences mid-string",
			input:    "prefix ```json{\"a\":1}``` suffix",
			expected: "prefix {\"a\":1} suffix",
		},
		{
			name:     "no fences",
			input:    "  {\"a\":1}  ",
			expected: "{\"a\":1}",
		},
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanFences(tt.input); got != tt.expected {
				t.Errorf("CleanFences(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestMatchRoundTrip(t *testing.T) {
	n := New(nil)

	payload := mustQuote(t, "```json\n{\"score\":72,\"highlights\":[\"a\"],\"missing\":[\"b\"]}\n```")
	result := n.Match(payload)

	if !result.Score.Known || result.Score.Value != 72 {
		t.Errorf("score = %s, want 72", result.Score)
	}
	if !reflect.DeepEqual(result.Highlights, []string{"a"}) {
		t.Errorf("highlights = %v, want [a]", result.Highlights)
	}
	if !reflect.DeepEqual(result.Missing, []string{"b"}) {
		t.Errorf("missing = %v, want [b]", result.Missing)
	}
}

func TestMatchNeverFails(t *testing.T) {
	n := New(nil)

	tests := []struct {
		name string
		raw  json.RawMessage
	}{
		{name: "empty payload", raw: nil},
		{name: "plain prose string", raw: json.RawMessage(`"this is not json at all"`)},
		{name: "broken json string", raw: json.RawMessage(`"{\"score\": 12,"`)},
		{name: "bare number", raw: json.RawMessage(`42`)},
		{name: "bare array", raw: json.RawMessage(`[1,2,3]`)},
		{name: "null", raw: json.RawMessage(`null`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := n.Match(tt.raw)
			if result.Score.Known {
				t.Errorf("score = %s, want ?", result.Score)
			}
			if result.Score.String() != "?" {
				t.Errorf("score display = %q, want ?", result.Score.String())
			}
			if result.Highlights == nil || len(result.Highlights) != 0 {
				t.Errorf("highlights = %v, want empty", result.Highlights)
			}
			if result.Missing == nil || len(result.Missing) != 0 {
				t.Errorf("missing = %v, want empty", result.Missing)
			}
		})
	}
}

func TestMatchVariantShapes(t *testing.T) {
	n := New(nil)

	tests := []struct {
		name          string
		raw           json.RawMessage
		wantScore     string
		wantHighlight []string
		wantMissing   []string
	}{
		{
			name:          "already-parsed object",
			raw:           json.RawMessage(`{"score":65,"highlights":["Python"],"missing":["SQL"]}`),
			wantScore:     "65",
			wantHighlight: []string{"Python"},
			wantMissing:   []string{"SQL"},
		},
		{
			name:          "numeric string score",
			raw:           json.RawMessage(`{"score":"85","highlights":[],"missing":[]}`),
			wantScore:     "85",
			wantHighlight: []string{},
			wantMissing:   []string{},
		},
		{
			name:          "percent string score",
			raw:           json.RawMessage(`{"score":"90%","highlights":[],"missing":[]}`),
			wantScore:     "90",
			wantHighlight: []string{},
			wantMissing:   []string{},
		},
		{
			name:          "non-numeric score keeps lists",
			raw:           json.RawMessage(`{"score":"high","highlights":["a"],"missing":["b"]}`),
			wantScore:     "?",
			wantHighlight: []string{"a"},
			wantMissing:   []string{"b"},
		},
		{
			name:          "missing fields",
			raw:           json.RawMessage(`{"score":50}`),
			wantScore:     "50",
			wantHighlight: []string{},
			wantMissing:   []string{},
		},
		{
			name:          "single string instead of list",
			raw:           json.RawMessage(`{"score":50,"highlights":"Python","missing":[]}`),
			wantScore:     "50",
			wantHighlight: []string{"Python"},
			wantMissing:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := n.Match(tt.raw)
			if got := result.Score.String(); got != tt.wantScore {
				t.Errorf("score = %q, want %q", got, tt.wantScore)
			}
			if !reflect.DeepEqual(result.Highlights, tt.wantHighlight) {
				t.Errorf("highlights = %v, want %v", result.Highlights, tt.wantHighlight)
			}
			if !reflect.DeepEqual(result.Missing, tt.wantMissing) {
				t.Errorf("missing = %v, want %v", result.Missing, tt.wantMissing)
			}
		})
	}
}

func TestDraftSectionsPassthrough(t *testing.T) {
	n := New(nil)

	raw := json.RawMessage(`{"sections":[{"title":"Profile","content":"Engineer."},{"title":"Education","content":"BSc."}]}`)
	doc := n.Draft(raw)

	if len(doc.Sections) != 2 {
		t.Fatalf("sections = %d, want 2", len(doc.Sections))
	}
	if doc.Sections[0].Title != "Profile" || doc.Sections[0].Text != "Engineer." {
		t.Errorf("first section = %+v", doc.Sections[0])
	}
	if doc.Sections[1].Title != "Education" || doc.Sections[1].Text != "BSc." {
		t.Errorf("second section = %+v", doc.Sections[1])
	}
}

func TestDraftRawUnwrap(t *testing.T) {
	n := New(nil)

	inner := "```json\n{\"sections\":[{\"title\":\"Profile\",\"content\":\"Engineer.\"}]}\n```"
	wrapper, err := json.Marshal(map[string]string{"raw": inner})
	if err != nil {
		t.Fatalf("failed to build wrapper: %v", err)
	}

	doc := n.Draft(wrapper)
	if len(doc.Sections) != 1 {
		t.Fatalf("sections = %d, want 1", len(doc.Sections))
	}
	if doc.Sections[0].Title != "Profile" {
		t.Errorf("title = %q, want Profile", doc.Sections[0].Title)
	}
}

func TestDraftStringPayload(t *testing.T) {
	n := New(nil)

	doc := n.Draft(mustQuote(t, "```json\n{\"sections\":[{\"title\":\"Skills\",\"content\":{\"allFromResume\":[\"Python\",\"SQL\"],\"jdRelevantEmphasis\":[\"SQL\"]}}]}\n```"))

	if len(doc.Sections) != 1 {
		t.Fatalf("sections = %d, want 1", len(doc.Sections))
	}
	s := doc.Sections[0]
	if s.Kind != types.SectionSkills {
		t.Fatalf("kind = %s, want skills", s.Kind)
	}
	if !reflect.DeepEqual(s.Skills.AllFromResume, []string{"Python", "SQL"}) {
		t.Errorf("allFromResume = %v", s.Skills.AllFromResume)
	}
	if !reflect.DeepEqual(s.Skills.JDRelevantEmphasis, []string{"SQL"}) {
		t.Errorf("jdRelevantEmphasis = %v", s.Skills.JDRelevantEmphasis)
	}
}

func TestDraftSnakeCaseSkills(t *testing.T) {
	n := New(nil)

	raw := json.RawMessage(`{"sections":[{"title":"Skills","content":{"all_from_resume":["Go"],"jd_relevant_emphasis":["Go"]}}]}`)
	doc := n.Draft(raw)

	if len(doc.Sections) != 1 || doc.Sections[0].Kind != types.SectionSkills {
		t.Fatalf("sections = %+v", doc.Sections)
	}
	if !reflect.DeepEqual(doc.Sections[0].Skills.AllFromResume, []string{"Go"}) {
		t.Errorf("allFromResume = %v", doc.Sections[0].Skills.AllFromResume)
	}
}

func TestDraftBareArray(t *testing.T) {
	n := New(nil)

	raw := json.RawMessage(`[{"title":"A","content":"one"},"just text"]`)
	doc := n.Draft(raw)

	if len(doc.Sections) != 2 {
		t.Fatalf("sections = %d, want 2", len(doc.Sections))
	}
	if doc.Sections[0].Title != "A" || doc.Sections[0].Text != "one" {
		t.Errorf("first section = %+v", doc.Sections[0])
	}
	if doc.Sections[1].Title != "" || doc.Sections[1].Text != "just text" {
		t.Errorf("second section = %+v", doc.Sections[1])
	}
}

func TestDraftGenericObjectKeepsKeyOrder(t *testing.T) {
	n := New(nil)

	raw := json.RawMessage(`{"Zeta":"last letter","Alpha":"first letter","Middle":"in between"}`)
	doc := n.Draft(raw)

	wantTitles := []string{"Zeta", "Alpha", "Middle"}
	if len(doc.Sections) != len(wantTitles) {
		t.Fatalf("sections = %d, want %d", len(doc.Sections), len(wantTitles))
	}
	for i, want := range wantTitles {
		if doc.Sections[i].Title != want {
			t.Errorf("section[%d].Title = %q, want %q", i, doc.Sections[i].Title, want)
		}
	}
}

func TestDraftFallback(t *testing.T) {
	n := New(nil)

	tests := []struct {
		name string
		raw  json.RawMessage
	}{
		{name: "empty payload", raw: nil},
		{name: "plain prose", raw: mustQuote(t, "the model apologizes instead of answering")},
		{name: "broken json", raw: mustQuote(t, "{\"sections\": [")},
		{name: "bare number", raw: json.RawMessage(`7`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := n.Draft(tt.raw)
			if doc.Sections == nil {
				t.Fatal("sections is nil, want empty slice")
			}
			if len(doc.Sections) != 0 {
				t.Errorf("sections = %+v, want empty", doc.Sections)
			}
		})
	}
}

func TestDraftNestedObjectContent(t *testing.T) {
	n := New(nil)

	raw := json.RawMessage(`{"sections":[{"title":"Contact","content":{"email":"a@b.c","phone":"123"}}]}`)
	doc := n.Draft(raw)

	if len(doc.Sections) != 1 {
		t.Fatalf("sections = %d, want 1", len(doc.Sections))
	}
	s := doc.Sections[0]
	if s.Kind != types.SectionText {
		t.Fatalf("kind = %s, want text", s.Kind)
	}
	want := "{\n  \"email\": \"a@b.c\",\n  \"phone\": \"123\"\n}"
	if s.Text != want {
		t.Errorf("text = %q, want %q", s.Text, want)
	}
}
