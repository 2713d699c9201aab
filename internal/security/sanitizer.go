package security

import (
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mroshb/trivia_bot/pkg/errors"
)

// MaxCategoryBytes keeps "admcat:<name>" inside Telegram's 64 byte callback data.
const MaxCategoryBytes = 48

var htmlPolicy = bluemonday.StrictPolicy()

// SanitizeString removes potentially dangerous characters
func SanitizeString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.ReplaceAll(input, "\x00", "")

	if len(input) > 1000 {
		input = input[:1000]
		for !utf8.ValidString(input) {
			input = input[:len(input)-1]
		}
	}

	return input
}

// SanitizeHTML removes all HTML tags so user text can be embedded in
// HTML-formatted messages.
func SanitizeHTML(input string) string {
	return htmlPolicy.Sanitize(input)
}

// ValidateCategoryName checks that a category name can be shown on a button
// and carried in callback data.
func ValidateCategoryName(name string) error {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return errors.New(errors.ErrCodeValidation, "category name is empty")
	case len(name) > MaxCategoryBytes:
		return errors.New(errors.ErrCodeValidation, "category name is too long")
	case strings.ContainsAny(name, "|\n"):
		return errors.New(errors.ErrCodeValidation, "category name contains a reserved character")
	}
	return nil
}

// ValidateFileType checks if file extension is allowed
func ValidateFileType(filename string, allowedTypes []string) bool {
	filename = strings.ToLower(filename)
	for _, ext := range allowedTypes {
		if strings.HasSuffix(filename, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// ValidateFileSize checks if file size is within limit
func ValidateFileSize(size int64, maxSize int64) bool {
	return size > 0 && size <= maxSize
}
