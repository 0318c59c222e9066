package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"hiringbuddy/internal/errors"
	"hiringbuddy/internal/types"
)

// Normalizer converts raw model payloads into stable shapes. The model
// output is usually valid JSON but not reliably so: it may arrive fenced
// in a Markdown code block, double-encoded as a JSON string, or in one of
// several object layouts. Every method is total: parse failures are
// logged and absorbed into a deterministic fallback, never returned.
type Normalizer struct {
	logger *errors.Logger

	// OnFallback, when set, is called once per absorbed parse failure
	// with the operation name ("match" or "draft").
	OnFallback func(operation string)
}

// New creates a normalizer. A nil logger disables parse-failure logging.
func New(logger *errors.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// maxUnwrapDepth bounds recursive unwrapping of nested raw/string payloads.
const maxUnwrapDepth = 4

// CleanFences removes Markdown code-fence markers wherever they occur,
// not only at string boundaries, and trims surrounding whitespace.
func CleanFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// Match normalizes a raw per-candidate match payload. The payload may be
// a JSON object, a JSON string holding fenced JSON, or anything else; on
// failure the fallback is {score:"?", highlights:[], missing:[]}.
func (n *Normalizer) Match(raw json.RawMessage) types.MatchResult {
	fallback := types.MatchResult{Highlights: []string{}, Missing: []string{}}

	text := CleanFences(rawToText(raw))
	if text == "" {
		return fallback
	}

	var fields struct {
		Score      json.RawMessage `json:"score"`
		Highlights json.RawMessage `json:"highlights"`
		Missing    json.RawMessage `json:"missing"`
	}
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		n.logParseFailure("match", err)
		return fallback
	}

	result := fallback
	if len(fields.Score) > 0 {
		// a malformed score leaves the zero value, which displays as "?"
		_ = result.Score.UnmarshalJSON(fields.Score)
	}
	result.Highlights = stringList(fields.Highlights)
	result.Missing = stringList(fields.Missing)
	return result
}

// Draft normalizes a raw draft payload into the canonical section list.
// Accepted shapes: an object with a "sections" key (passthrough), an
// object with a "raw" key holding fenced text (unwrapped recursively), a
// bare array (sections with empty titles), a generic object (one section
// per key in original key order), or a string holding any of the above.
// Anything unparseable yields {sections:[]}.
func (n *Normalizer) Draft(raw json.RawMessage) types.DraftDocument {
	return n.draftFromRaw(raw, 0)
}

func (n *Normalizer) draftFromRaw(raw json.RawMessage, depth int) types.DraftDocument {
	empty := types.DraftDocument{Sections: []types.DraftSection{}}
	if depth > maxUnwrapDepth || len(raw) == 0 {
		return empty
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		cleaned := CleanFences(text)
		if cleaned == "" {
			return empty
		}
		return n.draftFromRaw(json.RawMessage(cleaned), depth+1)
	}

	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) > 0 && trimmed[0] == '{':
		entries, err := decodeObjectEntries(trimmed)
		if err != nil {
			n.logParseFailure("draft", err)
			return empty
		}
		for _, e := range entries {
			if e.Key == "sections" {
				return types.DraftDocument{Sections: n.sectionsFromArray(e.Value)}
			}
		}
		for _, e := range entries {
			if e.Key == "raw" {
				return n.draftFromRaw(e.Value, depth+1)
			}
		}
		// generic object: one section per key, enumeration order preserved
		sections := make([]types.DraftSection, 0, len(entries))
		for _, e := range entries {
			sections = append(sections, n.sectionFromContent(e.Key, e.Value))
		}
		return types.DraftDocument{Sections: sections}
	case len(trimmed) > 0 && trimmed[0] == '[':
		return types.DraftDocument{Sections: n.sectionsFromArray(trimmed)}
	default:
		n.logParseFailure("draft", fmt.Errorf("payload is not structured data"))
		return empty
	}
}

// sectionsFromArray builds sections from a JSON array of section objects
// or bare strings. Elements without titles keep an empty title.
func (n *Normalizer) sectionsFromArray(raw json.RawMessage) []types.DraftSection {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		n.logParseFailure("draft_sections", err)
		return []types.DraftSection{}
	}

	sections := make([]types.DraftSection, 0, len(items))
	for _, item := range items {
		var text string
		if err := json.Unmarshal(item, &text); err == nil {
			sections = append(sections, types.DraftSection{Kind: types.SectionText, Text: text})
			continue
		}

		var obj struct {
			Title   string          `json:"title"`
			Content json.RawMessage `json:"content"`
		}
		if err := json.Unmarshal(item, &obj); err != nil {
			n.logParseFailure("draft_sections", err)
			continue
		}
		sections = append(sections, n.sectionFromContent(obj.Title, obj.Content))
	}
	return sections
}

// sectionFromContent builds one section from a title and raw content.
// String content stays text, a skills-shaped object becomes structured
// skills, anything else is kept as an indented JSON block in original
// key order.
func (n *Normalizer) sectionFromContent(title string, content json.RawMessage) types.DraftSection {
	section := types.DraftSection{Title: title, Kind: types.SectionText}
	if len(content) == 0 {
		return section
	}

	var text string
	if err := json.Unmarshal(content, &text); err == nil {
		section.Text = text
		return section
	}

	if skills, ok := parseSkills(content); ok {
		section.Kind = types.SectionSkills
		section.Skills = skills
		return section
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, content, "", "  "); err != nil {
		section.Text = string(content)
		return section
	}
	section.Text = buf.String()
	return section
}

// parseSkills recognizes structured skills content. Both camelCase and
// snake_case key spellings occur in backend payloads.
func parseSkills(raw json.RawMessage) (types.SkillsContent, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return types.SkillsContent{}, false
	}

	all, okAll := skillList(fields, "allFromResume", "all_from_resume")
	jd, okJD := skillList(fields, "jdRelevantEmphasis", "jd_relevant_emphasis")
	if !okAll && !okJD {
		return types.SkillsContent{}, false
	}
	return types.SkillsContent{AllFromResume: all, JDRelevantEmphasis: jd}, true
}

func skillList(fields map[string]json.RawMessage, keys ...string) ([]string, bool) {
	for _, key := range keys {
		if raw, ok := fields[key]; ok {
			return stringList(raw), true
		}
	}
	return []string{}, false
}

// objectEntry is one top-level key/value pair of a JSON object in
// original enumeration order.
type objectEntry struct {
	Key   string
	Value json.RawMessage
}

// decodeObjectEntries walks the token stream so that key order survives;
// a plain map would lose it.
func decodeObjectEntries(raw []byte) ([]objectEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var entries []objectEntry
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", keyTok)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		entries = append(entries, objectEntry{Key: key, Value: value})
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return entries, nil
}

// rawToText unwraps a JSON string payload; any other payload is used as
// its literal JSON text, mirroring structural serialization of already
// parsed values.
func rawToText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	return string(raw)
}

// stringList reads a JSON value as a list of strings: arrays keep their
// string elements, a single string becomes a one-element list, anything
// else is empty. Never nil.
func stringList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return []string{}
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		if list == nil {
			return []string{}
		}
		return list
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil && single != "" {
		return []string{single}
	}

	var mixed []any
	if err := json.Unmarshal(raw, &mixed); err == nil {
		out := make([]string, 0, len(mixed))
		for _, v := range mixed {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}

	return []string{}
}

func (n *Normalizer) logParseFailure(operation string, err error) {
	if n == nil {
		return
	}
	if n.OnFallback != nil {
		n.OnFallback(operation)
	}
	if n.logger == nil {
		return
	}
	n.logger.Warn("Backend payload not parseable, using fallback",
		"operation", operation,
		"error", err.Error())
}
