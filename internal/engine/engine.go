// Package engine defines the contract between the orchestrator and a
// translation engine: one full, independent translation run per Attempt.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/valpere/booktran/internal/config"
	"github.com/valpere/booktran/internal/lang"
	"github.com/valpere/booktran/internal/submit"
)

// Request describes one translation run. It is a value: WithMode returns a
// modified copy and never touches the receiver.
type Request struct {
	SourcePath     string
	TargetPath     string
	TargetLanguage lang.Language
	Mode           submit.Mode
	Instructions   string
	Settings       config.Settings
}

// WithMode derives a request using mode m.
func (r Request) WithMode(m submit.Mode) Request {
	r.Mode = m
	return r
}

// Kind classifies an attempt result.
type Kind int

const (
	KindSuccess Kind = iota
	// KindStructural means the submit mode could not locate or modify the
	// markup it needs; another mode may succeed.
	KindStructural
	// KindFatal is any other failure; switching modes will not help.
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindStructural:
		return "structural"
	case KindFatal:
		return "fatal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Outcome is the result of one Attempt.
type Outcome struct {
	Kind    Kind
	Message string
	Err     error
}

// Success reports a completed run.
func Success() Outcome {
	return Outcome{Kind: KindSuccess}
}

// Structural reports a submit-mode incompatibility.
func Structural(msg string) Outcome {
	return Outcome{Kind: KindStructural, Message: msg}
}

// Fatal reports an unrecoverable failure carrying err unmodified.
func Fatal(err error) Outcome {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return Outcome{Kind: KindFatal, Message: msg, Err: err}
}

// Engine performs translation runs. onProgress receives fractions in [0, 1]
// and may be called from several goroutines.
type Engine interface {
	Attempt(ctx context.Context, req Request, onProgress func(float64)) Outcome
}

// Func adapts a function to Engine.
type Func func(ctx context.Context, req Request, onProgress func(float64)) Outcome

func (f Func) Attempt(ctx context.Context, req Request, onProgress func(float64)) Outcome {
	return f(ctx, req, onProgress)
}

// ErrStructural matches every *StructuralError.
var ErrStructural = errors.New("submit mode incompatible with document structure")

// StructuralError describes where a submit mode failed to find its anchor.
type StructuralError struct {
	Mode   submit.Mode
	Line   int
	Reason string
}

func (e *StructuralError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: line %d: %s", e.Mode.ID(), e.Line, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Mode.ID(), e.Reason)
}

func (e *StructuralError) Is(target error) bool {
	return target == ErrStructural
}

// Classify maps an error returned by an engine implementation to an Outcome:
// nil is success, errors matching ErrStructural are structural, everything
// else is fatal.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return Success()
	case errors.Is(err, ErrStructural):
		return Structural(err.Error())
	default:
		return Fatal(err)
	}
}
