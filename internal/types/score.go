package types

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Score is a match score that may be unknown when the backend payload
// could not be parsed. The zero value is the unknown score, displayed
// as "?".
type Score struct {
	Value float64
	Known bool
}

// KnownScore constructs a score with a definite value.
func KnownScore(v float64) Score {
	return Score{Value: v, Known: true}
}

func (s Score) String() string {
	if !s.Known {
		return "?"
	}
	if s.Value == math.Trunc(s.Value) {
		return strconv.FormatInt(int64(s.Value), 10)
	}
	return strconv.FormatFloat(s.Value, 'f', -1, 64)
}

// MarshalJSON renders known scores as numbers and unknown scores as "?".
func (s Score) MarshalJSON() ([]byte, error) {
	if !s.Known {
		return []byte(`"?"`), nil
	}
	return json.Marshal(s.Value)
}

// UnmarshalJSON accepts numbers and numeric strings; anything else
// leaves the score unknown rather than failing.
func (s *Score) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch n := v.(type) {
	case float64:
		s.Value, s.Known = n, true
	case string:
		trimmed := strings.TrimSuffix(strings.TrimSpace(n), "%")
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			s.Value, s.Known = f, true
		} else {
			s.Value, s.Known = 0, false
		}
	default:
		s.Value, s.Known = 0, false
	}
	return nil
}
