package common

import (
	"fmt"
	"slices"
	"strings"

	"hiringbuddy/internal/errors"
)

// ValidateOutputFormat checks a requested format against the configured
// supported formats. An empty supported list disables the check.
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil
	}

	if slices.Contains(supportedFormats, format) {
		return nil
	}

	return errors.NewValidationError(errors.ErrCodeInvalidFormat,
		fmt.Sprintf("unsupported output format '%s', supported formats: %s",
			format, strings.Join(supportedFormats, ", ")), nil)
}

// GetSupportedFormats returns the list of supported formats
func GetSupportedFormats(supportedFormats []string) []string {
	return supportedFormats
}
