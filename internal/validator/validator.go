// Package validator checks that translated segments are in the target language.
package validator

import (
	"fmt"
	"strings"

	"github.com/valpere/booktran/internal/detector"
	"github.com/valpere/booktran/internal/lang"
)

// minValidationLength is the minimum rune count required to attempt language detection.
// Shorter texts produce unreliable results and are accepted without validation.
const minValidationLength = 20

// MismatchError reports a segment detected in another language.
type MismatchError struct {
	Expected lang.Language
	Detected string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("expected %s but detected %s", e.Expected, e.Detected)
}

// Validator checks that a translation is written in the expected target language.
// The underlying language detector is expensive to build; reuse the instance.
type Validator struct {
	det *detector.Detector
}

func New() *Validator {
	return &Validator{det: detector.New()}
}

// NewWithDetector reuses an existing detector.
func NewWithDetector(det *detector.Detector) *Validator {
	return &Validator{det: det}
}

// Check returns nil when translated appears to be written in target.
//
// Short texts and texts whose language cannot be determined pass. An empty
// translation is an error.
func (v *Validator) Check(translated string, target lang.Language) error {
	text := strings.TrimSpace(translated)
	if text == "" {
		return fmt.Errorf("translation is empty")
	}

	// Detector is unreliable for very short texts; skip validation.
	if len([]rune(text)) < minValidationLength {
		return nil
	}

	detected, ok := v.det.DetectISO(text)
	if !ok {
		return nil
	}

	if !strings.EqualFold(detected, target.Code()) {
		return &MismatchError{Expected: target, Detected: strings.ToLower(detected)}
	}
	return nil
}
