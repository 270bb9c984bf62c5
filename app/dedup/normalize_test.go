package dedup

import (
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello World", "hello world"},
		{"  Hello\n\tWorld  ", "hello world"},
		{"HELLO    WORLD", "hello world"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		if got := Normalize(tt.input); got != tt.expected {
			t.Errorf("Normalize(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestHashDeterministicAcrossVariants(t *testing.T) {
	base := Hash("The Quick Brown Fox")

	variants := []string{
		"the quick brown fox",
		"  The   Quick\nBrown\tFox ",
		"THE QUICK BROWN FOX",
	}

	for _, v := range variants {
		if got := Hash(v); got != base {
			t.Errorf("Hash(%q) = %s, expected %s", v, got, base)
		}
	}

	if Hash("a different text") == base {
		t.Error("Expected different input to produce a different hash")
	}
}

func TestHashLength(t *testing.T) {
	if got := len(Hash("anything")); got != 64 {
		t.Errorf("Expected 64 hex characters, got %d", got)
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		min  float64
		max  float64
	}{
		{"identical", "hello world", "hello world", 1.0, 1.0},
		{"both empty", "", "", 1.0, 1.0},
		{"one empty", "hello", "", 0.0, 0.0},
		{"completely different", "aaaaaaaaaa", "bbbbbbbbbb", 0.0, 0.0},
		{"single edit", "hello worlds", "hello world", 0.9, 0.95},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similarity(tt.a, tt.b)
			if got < tt.min || got > tt.max {
				t.Errorf("Similarity(%q, %q) = %f, expected in [%f, %f]", tt.a, tt.b, got, tt.min, tt.max)
			}
		})
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	a, b := "grant application deadline", "grant application deadlines"
	if Similarity(a, b) != Similarity(b, a) {
		t.Error("Expected similarity to be symmetric")
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a        string
		b        string
		expected int
	}{
		{"kitten", "sitting", 3},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"flaw", "lawn", 2},
	}

	for _, tt := range tests {
		if got := levenshtein([]rune(tt.a), []rune(tt.b)); got != tt.expected {
			t.Errorf("levenshtein(%q, %q) = %d, expected %d", tt.a, tt.b, got, tt.expected)
		}
	}
}
