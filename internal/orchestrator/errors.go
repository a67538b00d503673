package orchestrator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/valpere/booktran/internal/submit"
)

// ErrExhausted matches every *ExhaustedError.
var ErrExhausted = errors.New("fallback sequence exhausted")

// Remedies are suggested when no submit mode fits the document.
var Remedies = []string{
	"try a different edition or copy of the document",
	"preprocess the document with an external tool (re-export or convert it) and retry",
	"report the incompatibility together with the document",
}

// ExhaustedError is returned when every submit mode failed structurally.
type ExhaustedError struct {
	Tried          []submit.Mode
	LastStructural string
}

func (e *ExhaustedError) Error() string {
	ids := make([]string, len(e.Tried))
	for i, m := range e.Tried {
		ids[i] = m.ID()
	}
	return fmt.Sprintf("no submit mode fits this document (tried %s); last error: %s; you can %s",
		strings.Join(ids, ", "), e.LastStructural, strings.Join(Remedies, "; or "))
}

func (e *ExhaustedError) Is(target error) bool {
	return target == ErrExhausted
}
