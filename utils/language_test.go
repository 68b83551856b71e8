package utils

import (
	"testing"
)

var detectTests = []struct {
	text     string
	expected string
}{
	{"Considero que esta es una frase claramente escrita en castellano.", "es"},
	{"", ""},
}

func TestDetectLanguage(t *testing.T) {
	detector := NewLanguageDetector()

	for _, tt := range detectTests {
		t.Run(tt.text, func(t *testing.T) {
			detected := detector.DetectLanguage(tt.text)
			if detected != tt.expected {
				t.Errorf("got %q, want %q", detected, tt.expected)
			}
		})
	}
}
