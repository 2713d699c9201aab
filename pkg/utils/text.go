package utils

import "strings"

// NormalizeAnswer case-folds an answer and collapses runs of whitespace so
// "  Kuala   Lumpur " and "kuala lumpur" compare equal.
func NormalizeAnswer(input string) string {
	return strings.Join(strings.Fields(strings.ToLower(input)), " ")
}
