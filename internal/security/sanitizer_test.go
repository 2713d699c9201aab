package security

import (
	"strings"
	"testing"

	"github.com/mroshb/trivia_bot/pkg/errors"
)

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Trims whitespace", input: "  Budi \n", expected: "Budi"},
		{name: "Removes null bytes", input: "Bu\x00di", expected: "Budi"},
		{name: "Keeps plain text", input: "Menara miring", expected: "Menara miring"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeString(tt.input); got != tt.expected {
				t.Errorf("SanitizeString() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestSanitizeString_TruncatesOnRuneBoundary(t *testing.T) {
	input := strings.Repeat("a", 999) + "é"
	got := SanitizeString(input)
	if len(got) != 999 {
		t.Errorf("len(SanitizeString()) = %d, want 999", len(got))
	}
}

func TestSanitizeHTML(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "<b>Budi</b>", expected: "Budi"},
		{input: "<script>alert(1)</script>Sari", expected: "Sari"},
		{input: "Andi", expected: "Andi"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := SanitizeHTML(tt.input); got != tt.expected {
				t.Errorf("SanitizeHTML() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestValidateCategoryName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "Valid", input: "Sejarah", wantErr: false},
		{name: "Empty", input: "   ", wantErr: true},
		{name: "Too long", input: strings.Repeat("x", MaxCategoryBytes+1), wantErr: true},
		{name: "Exactly max", input: strings.Repeat("x", MaxCategoryBytes), wantErr: false},
		{name: "Separator", input: "a|b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCategoryName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCategoryName() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.HasCode(err, errors.ErrCodeValidation) {
				t.Errorf("ValidateCategoryName() code = %s", errors.CodeOf(err))
			}
		})
	}
}

func TestValidateFileType(t *testing.T) {
	if !ValidateFileType("soal.XLSX", []string{".xlsx"}) {
		t.Error("ValidateFileType() rejected .XLSX")
	}
	if ValidateFileType("soal.csv", []string{".xlsx"}) {
		t.Error("ValidateFileType() accepted .csv")
	}
}
