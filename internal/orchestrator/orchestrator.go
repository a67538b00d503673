// Package orchestrator drives a fallback sequence of submit modes against a
// translation engine until one attempt succeeds, a fatal error aborts the
// job, or the sequence is exhausted.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/valpere/booktran/internal/engine"
	"github.com/valpere/booktran/internal/progress"
	"github.com/valpere/booktran/internal/submit"
)

// State is a state of the job state machine.
type State int

const (
	StateIdle State = iota
	StateAttempting
	StateSucceeded
	StateExhaustedFailed
	StateAbortedFatal
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAttempting:
		return "attempting"
	case StateSucceeded:
		return "succeeded"
	case StateExhaustedFailed:
		return "exhausted"
	case StateAbortedFatal:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transition leaves s.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateExhaustedFailed || s == StateAbortedFatal
}

// next is the transition taken after attempt i of n produced an outcome of kind k.
func next(i, n int, k engine.Kind) State {
	switch k {
	case engine.KindSuccess:
		return StateSucceeded
	case engine.KindStructural:
		if i+1 < n {
			return StateAttempting
		}
		return StateExhaustedFailed
	default:
		return StateAbortedFatal
	}
}

// Job is one translation job: a base request and the modes to try.
type Job struct {
	ID       string
	Request  engine.Request
	Sequence submit.Sequence
}

// NewJob creates a job with a fresh ID.
func NewJob(req engine.Request, seq submit.Sequence) Job {
	return Job{ID: uuid.New().String(), Request: req, Sequence: seq}
}

// Attempt records one engine invocation.
type Attempt struct {
	Index   int
	Mode    submit.Mode
	Outcome engine.Outcome
	Elapsed time.Duration
}

// JobResult is the final artifact of a job.
type JobResult struct {
	JobID      string
	OutputPath string
	Success    bool
	State      State
	// Mode is the mode that succeeded; zero unless Success.
	Mode       submit.Mode
	Attempts   []Attempt
	Diagnostic string
}

// Recorder persists job history. Errors are logged and never fail the job.
type Recorder interface {
	RecordStart(ctx context.Context, job Job) error
	RecordAttempt(ctx context.Context, jobID string, a Attempt) error
	RecordResult(ctx context.Context, res *JobResult) error
}

// Config holds the optional collaborators of an Orchestrator.
type Config struct {
	Logger   *slog.Logger
	Metrics  *Metrics
	Recorder Recorder
}

type Orchestrator struct {
	engine engine.Engine
	config Config
	logger *slog.Logger
}

func New(eng engine.Engine, config Config) *Orchestrator {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		engine: eng,
		config: config,
		logger: logger,
	}
}

// Run executes job. Attempts are strictly sequential and each one is a full,
// independent run of the engine. onProgress receives non-decreasing
// percentages, starting with 0 and, on completion, ending with 100.
//
// The returned JobResult is always non-nil. On failure the error is either
// the fatal engine error wrapped with the source path, or an *ExhaustedError
// wrapped the same way.
func (o *Orchestrator) Run(ctx context.Context, job Job, onProgress func(int)) (*JobResult, error) {
	res := &JobResult{
		JobID:      job.ID,
		OutputPath: job.Request.TargetPath,
		State:      StateIdle,
	}
	n := job.Sequence.Len()
	if n == 0 {
		return res, fmt.Errorf("translate %s: empty fallback sequence", job.Request.SourcePath)
	}

	log := o.logger.With("job", job.ID)
	preexisting := stat(res.OutputPath)
	bridge := progress.New(onProgress)
	bridge.Start()
	o.recordStart(ctx, log, job)

	var (
		lastStructural string
		failure        error
	)

	for i := 0; i < n; i++ {
		step := job.Sequence.At(i)
		res.State = StateAttempting
		log.Info("attempt started", "attempt", i+1, "of", n, "mode", step.Mode.ID())

		start := time.Now()
		out := o.engine.Attempt(ctx, job.Request.WithMode(step.Mode), bridge.Update)
		a := Attempt{Index: i, Mode: step.Mode, Outcome: out, Elapsed: time.Since(start)}
		res.Attempts = append(res.Attempts, a)
		o.config.Metrics.observeAttempt(a)
		o.recordAttempt(ctx, log, job.ID, a)

		res.State = next(i, n, out.Kind)
		switch res.State {
		case StateSucceeded:
			res.Success = true
			res.Mode = step.Mode
			log.Info("attempt succeeded", "attempt", i+1, "mode", step.Mode.ID(), "elapsed", a.Elapsed)
		case StateAttempting:
			lastStructural = out.Message
			log.Warn("submit mode incompatible, falling back",
				"mode", step.Mode.ID(), "next", job.Sequence.At(i+1).Mode.ID(), "error", out.Message)
		case StateExhaustedFailed:
			lastStructural = out.Message
			failure = &ExhaustedError{Tried: job.Sequence.Modes(), LastStructural: lastStructural}
			log.Error("all submit modes failed", "error", out.Message)
		case StateAbortedFatal:
			failure = out.Err
			if failure == nil {
				failure = errors.New(out.Message)
			}
			log.Error("attempt failed", "mode", step.Mode.ID(), "error", failure)
		}

		if res.State.Terminal() {
			break
		}
	}

	o.config.Metrics.observeJob(res.State)

	if res.Success {
		bridge.Finish()
		o.recordResult(ctx, log, res)
		return res, nil
	}

	res.Diagnostic = failure.Error()
	if outputWritten(preexisting, res.OutputPath) {
		bridge.Finish()
	}
	o.recordResult(ctx, log, res)
	return res, fmt.Errorf("translate %s: %w", job.Request.SourcePath, failure)
}

func (o *Orchestrator) recordStart(ctx context.Context, log *slog.Logger, job Job) {
	if o.config.Recorder == nil {
		return
	}
	if err := o.config.Recorder.RecordStart(ctx, job); err != nil {
		log.Warn("failed to record job start", "error", err)
	}
}

func (o *Orchestrator) recordAttempt(ctx context.Context, log *slog.Logger, jobID string, a Attempt) {
	if o.config.Recorder == nil {
		return
	}
	if err := o.config.Recorder.RecordAttempt(ctx, jobID, a); err != nil {
		log.Warn("failed to record attempt", "attempt", a.Index+1, "error", err)
	}
}

func (o *Orchestrator) recordResult(ctx context.Context, log *slog.Logger, res *JobResult) {
	if o.config.Recorder == nil {
		return
	}
	// the result is stored even when the job was cancelled
	if err := o.config.Recorder.RecordResult(context.WithoutCancel(ctx), res); err != nil {
		log.Warn("failed to record job result", "error", err)
	}
}

func stat(path string) os.FileInfo {
	if path == "" {
		return nil
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil
	}
	return fi
}

// outputWritten reports whether path was created or replaced since before
// was taken. A file left untouched from an earlier run does not count.
func outputWritten(before os.FileInfo, path string) bool {
	after := stat(path)
	if after == nil {
		return false
	}
	if before == nil {
		return true
	}
	return !os.SameFile(before, after) ||
		!after.ModTime().Equal(before.ModTime()) ||
		after.Size() != before.Size()
}
