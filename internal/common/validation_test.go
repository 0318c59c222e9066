package common

import (
	"testing"

	"hiringbuddy/internal/errors"
)

func TestValidateOutputFormat(t *testing.T) {
	supported := []string{"json", "text", "markdown"}

	tests := []struct {
		name        string
		format      string
		supported   []string
		expectError bool
	}{
		{"valid json", "json", supported, false},
		{"valid markdown", "markdown", supported, false},
		{"unknown format", "xml", supported, true},
		{"case sensitive", "JSON", supported, true},
		{"empty format", "", supported, true},
		{"no restrictions", "xml", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, tt.supported)
			if tt.expectError && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("expected no error but got: %v", err)
			}
		})
	}
}

func TestValidateOutputFormatErrorMessage(t *testing.T) {
	err := ValidateOutputFormat("xml", []string{"json", "text"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.IsValidation(err) {
		t.Errorf("expected a validation error, got %v", err)
	}
	want := "INVALID_FORMAT: unsupported output format 'xml', supported formats: json, text"
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}
