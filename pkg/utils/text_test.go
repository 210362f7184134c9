package utils

import "testing"

func TestTruncate(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"hello", 10, "hello"},
		{"hello world", 5, "hello..."},
		{"hello", 0, "hello"},
		{"", 3, ""},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}

func TestEstimateTokens(t *testing.T) {
	if got := EstimateTokens(""); got != 0 {
		t.Errorf("EstimateTokens(\"\") = %d, want 0", got)
	}
	if got := EstimateTokens("   "); got != 0 {
		t.Errorf("EstimateTokens(whitespace) = %d, want 0", got)
	}
	one := EstimateTokens("satu")
	if one != 1 {
		t.Errorf("EstimateTokens(one word) = %d, want 1", one)
	}
	// Monotonically non-decreasing in word count.
	prev := 0
	text := ""
	for i := 0; i < 20; i++ {
		text += "kata "
		n := EstimateTokens(text)
		if n < prev {
			t.Fatalf("EstimateTokens decreased from %d to %d at %d words", prev, n, i+1)
		}
		prev = n
	}
}
