package joincode

import (
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		code := Generate()
		if !Valid(code) {
			t.Fatalf("Generate() produced invalid code %q", code)
		}
		seen[code] = true
	}

	// 27^6 codes; 100 draws colliding would point at a broken generator.
	if len(seen) < 100 {
		t.Errorf("Generate() produced %d distinct codes out of 100", len(seen))
	}
}

func TestAlphabetExcludesConfusables(t *testing.T) {
	for _, c := range "0O1ILS5B8" {
		if strings.ContainsRune(Alphabet, c) {
			t.Errorf("Alphabet must not contain confusable character %q", c)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"acdefg", "ACDEFG"},
		{"  ACDEFG  ", "ACDEFG"},
		{"AcDeFg", "ACDEFG"},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.expected {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.expected)
		}
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		code     string
		expected bool
	}{
		{"ACDEFG", true},
		{"ACDEF", false},   // too short
		{"ACDEFGH", false}, // too long
		{"ACDEF0", false},  // character outside the alphabet
		{"acdefg", false},  // Valid expects normalized input
		{"", false},
	}

	for _, tt := range tests {
		if got := Valid(tt.code); got != tt.expected {
			t.Errorf("Valid(%q) = %v, want %v", tt.code, got, tt.expected)
		}
	}
}
