package utils

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

const LanguageConfidenceThreshold = 0.7

// LanguageDetector tags post bodies with an ISO 639-1 language code.
type LanguageDetector struct {
	model lingua.LanguageDetector
}

func NewLanguageDetector() *LanguageDetector {
	model := lingua.NewLanguageDetectorBuilder().
		FromAllLanguages().
		Build()
	return &LanguageDetector{model}
}

// DetectLanguage returns the detected language code, or "" when the
// model is not confident enough to tag the text.
func (d *LanguageDetector) DetectLanguage(text string) string {
	text = strings.Replace(text, "\n", ". ", -1)
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	confidenceValues := d.model.ComputeLanguageConfidenceValues(text)
	if len(confidenceValues) == 0 {
		return ""
	}
	bestMatch := confidenceValues[0]
	if bestMatch.Value() < LanguageConfidenceThreshold {
		return ""
	}
	return strings.ToLower(bestMatch.Language().IsoCode639_1().String())
}
