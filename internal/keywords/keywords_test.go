package keywords

import (
	"reflect"
	"testing"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		name        string
		keywords    []string
		resumeText  string
		wantPresent []bool
	}{
		{
			name:        "spacing artifacts absorbed",
			keywords:    []string{"Node.js", "Kubernetes"},
			resumeText:  "Experience with N o d e . j s framework",
			wantPresent: []bool{true, false},
		},
		{
			name:        "plain substring",
			keywords:    []string{"Python", "SQL", "Rust"},
			resumeText:  "Built data pipelines in Python with SQL.",
			wantPresent: []bool{true, true, false},
		},
		{
			name:        "case insensitive",
			keywords:    []string{"DOCKER"},
			resumeText:  "docker and compose",
			wantPresent: []bool{true},
		},
		{
			name:        "plus is significant",
			keywords:    []string{"C++"},
			resumeText:  "Ten years of C++ development",
			wantPresent: []bool{true},
		},
		{
			name:        "empty resume",
			keywords:    []string{"Python"},
			resumeText:  "",
			wantPresent: []bool{false},
		},
		{
			name:        "punctuation-only keyword never matches",
			keywords:    []string{"..."},
			resumeText:  "anything at all",
			wantPresent: []bool{false},
		},
		{
			name:        "no keywords",
			keywords:    []string{},
			resumeText:  "some resume text",
			wantPresent: []bool{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			statuses := Match(tt.keywords, tt.resumeText)

			if len(statuses) != len(tt.keywords) {
				t.Fatalf("got %d statuses, want %d", len(statuses), len(tt.keywords))
			}
			for i, status := range statuses {
				if status.Keyword != tt.keywords[i] {
					t.Errorf("status[%d].Keyword = %q, want %q (original casing preserved)",
						i, status.Keyword, tt.keywords[i])
				}
				if status.Present != tt.wantPresent[i] {
					t.Errorf("status[%d].Present = %v for %q, want %v",
						i, status.Present, status.Keyword, tt.wantPresent[i])
				}
			}
		})
	}
}

func TestMatchDeterministic(t *testing.T) {
	keywords := []string{"Go", "Python", "Node.js", "gRPC"}
	resumeText := "Go services with gRPC, some Python tooling"

	first := Match(keywords, resumeText)
	for range 10 {
		if again := Match(keywords, resumeText); !reflect.DeepEqual(first, again) {
			t.Fatalf("repeated calls diverged: %v vs %v", first, again)
		}
	}
}

func TestNormalizeBody(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "collapses whitespace runs",
			input:    "a   b\t\nc",
			expected: "a b c",
		},
		{
			name:     "keeps allowed punctuation",
			input:    "C#, C++ and Node.js!",
			expected: "c#, c++ and node.js",
		},
		{
			name:     "strips symbols",
			input:    "résumé & CV (2024)",
			expected: "rsum  cv 2024",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeBody(tt.input); got != tt.expected {
				t.Errorf("NormalizeBody(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeToken(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "strips dots and spaces", input: "Node . js", expected: "nodejs"},
		{name: "keeps plus", input: "C++", expected: "c++"},
		{name: "strips hash", input: "C#", expected: "c"},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeToken(tt.input); got != tt.expected {
				t.Errorf("NormalizeToken(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
