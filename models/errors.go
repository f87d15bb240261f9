package models

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrValidation marks input rejected before any network call.
var ErrValidation = errors.New("validation failed")

// Invalid returns an error wrapping ErrValidation.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// ValidateCaption checks the optional caption bound.
func ValidateCaption(caption string) error {
	if utf8.RuneCountInString(caption) > MaxCaptionLength {
		return Invalid("caption must be at most %d characters", MaxCaptionLength)
	}
	return nil
}

// ValidatePromptText checks that prompt text is present and bounded.
func ValidatePromptText(text string) error {
	if strings.TrimSpace(text) == "" {
		return Invalid("prompt text is required")
	}
	if utf8.RuneCountInString(text) > MaxPromptLength {
		return Invalid("prompt must be at most %d characters", MaxPromptLength)
	}
	return nil
}
