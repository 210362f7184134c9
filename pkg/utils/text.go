// Package utils provides shared utilities for text, math, and logging.
package utils

import "strings"

// Truncate returns s truncated to maxLen characters, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// EstimateTokens approximates the token count of text. The average word
// is roughly 1.3 tokens, which is close enough for usage reporting.
// Empty or whitespace-only text yields 0.
func EstimateTokens(text string) int {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}
	return int(float64(len(words)) * 1.3)
}
