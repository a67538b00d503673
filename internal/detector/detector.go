// Package detector guesses the language a document is written in.
package detector

import (
	"os"

	lingua "github.com/pemistahl/lingua-go"

	"github.com/valpere/booktran/internal/markdown"
)

// sampleRunes bounds the text handed to the detector; the opening of a
// document is enough and keeps detection fast for book-length sources.
const sampleRunes = 4000

type Detector struct {
	detector lingua.LanguageDetector
}

func New() *Detector {
	detector := lingua.NewLanguageDetectorBuilder().
		FromAllLanguages().
		Build()

	return &Detector{detector: detector}
}

func (d *Detector) Detect(text string) (lingua.Language, bool) {
	if text == "" {
		return lingua.Unknown, false
	}
	return d.detector.DetectLanguageOf(text)
}

// DetectISO returns the upper-case ISO 639-1 code, e.g. "EN".
func (d *Detector) DetectISO(text string) (string, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return "", false
	}
	return lang.IsoCode639_1().String(), true
}

// DetectName returns the English language name, e.g. "German".
func (d *Detector) DetectName(text string) (string, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return "", false
	}
	return lang.String(), true
}

// SourceLanguage detects the language of the document at path. Markdown is
// rendered to plain text first. It returns "auto" when the file cannot be read
// or the language is ambiguous.
func (d *Detector) SourceLanguage(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return "auto"
	}

	text := string(data)
	if markdown.IsMarkdown(path) {
		text = markdown.ToPlainText(data)
	}
	if runes := []rune(text); len(runes) > sampleRunes {
		text = string(runes[:sampleRunes])
	}

	if name, ok := d.DetectName(text); ok {
		return name
	}
	return "auto"
}
