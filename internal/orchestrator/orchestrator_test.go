package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/booktran/internal/engine"
	"github.com/valpere/booktran/internal/submit"
)

// mockEngine returns scripted outcomes per submit mode and records calls.
type mockEngine struct {
	mu       sync.Mutex
	outcomes map[submit.Mode]engine.Outcome
	progress map[submit.Mode][]float64
	calls    []submit.Mode
	requests []engine.Request
	onCall   func(req engine.Request)
}

func (m *mockEngine) Attempt(ctx context.Context, req engine.Request, onProgress func(float64)) engine.Outcome {
	m.mu.Lock()
	m.calls = append(m.calls, req.Mode)
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.onCall != nil {
		m.onCall(req)
	}
	for _, f := range m.progress[req.Mode] {
		onProgress(f)
	}
	if out, ok := m.outcomes[req.Mode]; ok {
		return out
	}
	return engine.Success()
}

type progressLog struct {
	values []int
}

func (p *progressLog) report(v int) { p.values = append(p.values, v) }

func newJob(t *testing.T, first submit.Mode) Job {
	t.Helper()
	req := engine.Request{
		SourcePath: filepath.Join(t.TempDir(), "book.md"),
		TargetPath: filepath.Join(t.TempDir(), "book_Chinese.md"),
	}
	return NewJob(req, submit.SequenceFrom(first))
}

func TestNext(t *testing.T) {
	tests := []struct {
		name string
		i, n int
		kind engine.Kind
		want State
	}{
		{"success first", 0, 3, engine.KindSuccess, StateSucceeded},
		{"success last", 2, 3, engine.KindSuccess, StateSucceeded},
		{"structural continues", 0, 3, engine.KindStructural, StateAttempting},
		{"structural exhausts", 2, 3, engine.KindStructural, StateExhaustedFailed},
		{"structural single", 0, 1, engine.KindStructural, StateExhaustedFailed},
		{"fatal aborts early", 0, 3, engine.KindFatal, StateAbortedFatal},
		{"fatal aborts last", 2, 3, engine.KindFatal, StateAbortedFatal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, next(tt.i, tt.n, tt.kind))
		})
	}
}

func TestRun_FirstModeSucceeds(t *testing.T) {
	eng := &mockEngine{progress: map[submit.Mode][]float64{submit.AppendAsBlock: {0.25, 0.5}}}
	job := newJob(t, submit.AppendAsBlock)
	prog := &progressLog{}

	res, err := New(eng, Config{}).Run(context.Background(), job, prog.report)

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, StateSucceeded, res.State)
	assert.Equal(t, submit.AppendAsBlock, res.Mode)
	assert.Equal(t, job.Request.TargetPath, res.OutputPath)
	assert.Equal(t, []submit.Mode{submit.AppendAsBlock}, eng.calls)
	assert.Equal(t, []int{0, 25, 50, 100}, prog.values)
}

func TestRun_FallsBackAfterStructuralFailure(t *testing.T) {
	eng := &mockEngine{
		outcomes: map[submit.Mode]engine.Outcome{
			submit.AppendInline: engine.Structural("APPEND_INLINE: line 3: block spans several lines"),
		},
	}
	job := newJob(t, submit.AppendInline)

	res, err := New(eng, Config{}).Run(context.Background(), job, nil)

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, submit.ReplaceOriginal, res.Mode)
	assert.Equal(t, []submit.Mode{submit.AppendInline, submit.ReplaceOriginal}, eng.calls)
	require.Len(t, res.Attempts, 2)
	assert.Equal(t, engine.KindStructural, res.Attempts[0].Outcome.Kind)
	assert.Equal(t, engine.KindSuccess, res.Attempts[1].Outcome.Kind)
}

func TestRun_DerivesRequestPerAttempt(t *testing.T) {
	eng := &mockEngine{
		outcomes: map[submit.Mode]engine.Outcome{
			submit.ReplaceOriginal: engine.Structural("no anchor"),
		},
	}
	job := newJob(t, submit.ReplaceOriginal)
	job.Request.Instructions = "keep names untranslated"

	_, err := New(eng, Config{}).Run(context.Background(), job, nil)
	require.NoError(t, err)

	require.Len(t, eng.requests, 2)
	assert.Equal(t, submit.ReplaceOriginal, eng.requests[0].Mode)
	assert.Equal(t, submit.AppendAsBlock, eng.requests[1].Mode)
	assert.Equal(t, "keep names untranslated", eng.requests[1].Instructions)
	assert.Equal(t, submit.Mode(0), job.Request.Mode)
}

func TestRun_FatalAbortsImmediately(t *testing.T) {
	boom := errors.New("401 unauthorized")
	eng := &mockEngine{
		outcomes: map[submit.Mode]engine.Outcome{
			submit.ReplaceOriginal: engine.Fatal(boom),
		},
	}
	job := newJob(t, submit.ReplaceOriginal)
	prog := &progressLog{}

	res, err := New(eng, Config{}).Run(context.Background(), job, prog.report)

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, strings.HasPrefix(err.Error(), "translate "+job.Request.SourcePath+": "))
	assert.False(t, res.Success)
	assert.Equal(t, StateAbortedFatal, res.State)
	assert.Equal(t, boom.Error(), res.Diagnostic)
	assert.Equal(t, []submit.Mode{submit.ReplaceOriginal}, eng.calls)
	// Nothing was written, so no completion is reported.
	assert.Equal(t, []int{0}, prog.values)
}

func TestRun_FatalAfterStructuralStopsFallback(t *testing.T) {
	boom := errors.New("disk full")
	eng := &mockEngine{
		outcomes: map[submit.Mode]engine.Outcome{
			submit.ReplaceOriginal: engine.Structural("no anchor"),
			submit.AppendAsBlock:   engine.Fatal(boom),
		},
	}
	job := newJob(t, submit.ReplaceOriginal)

	res, err := New(eng, Config{}).Run(context.Background(), job, nil)

	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrExhausted)
	assert.Equal(t, StateAbortedFatal, res.State)
	assert.Equal(t, []submit.Mode{submit.ReplaceOriginal, submit.AppendAsBlock}, eng.calls)
}

func TestRun_ExhaustedReportsLastStructuralError(t *testing.T) {
	eng := &mockEngine{
		outcomes: map[submit.Mode]engine.Outcome{
			submit.ReplaceOriginal: engine.Structural("first failure"),
			submit.AppendAsBlock:   engine.Structural("second failure"),
			submit.AppendInline:    engine.Structural("third failure"),
		},
	}
	job := newJob(t, submit.ReplaceOriginal)

	res, err := New(eng, Config{}).Run(context.Background(), job, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExhausted)

	var ee *ExhaustedError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "third failure", ee.LastStructural)
	assert.Contains(t, err.Error(), "third failure")
	assert.NotContains(t, err.Error(), "first failure")
	assert.Contains(t, err.Error(), Remedies[0])

	assert.False(t, res.Success)
	assert.Equal(t, StateExhaustedFailed, res.State)
	assert.Len(t, res.Attempts, 3)
	assert.Len(t, eng.calls, 3)
	assert.Equal(t, ee.Error(), res.Diagnostic)
}

func TestRun_ProgressMonotonicAcrossFallback(t *testing.T) {
	eng := &mockEngine{
		outcomes: map[submit.Mode]engine.Outcome{
			submit.AppendInline: engine.Structural("no anchor"),
		},
		progress: map[submit.Mode][]float64{
			submit.AppendInline:    {0.1, 0.45},
			submit.ReplaceOriginal: {0.0, 0.3, 0.5, 0.8},
		},
	}
	prog := &progressLog{}

	_, err := New(eng, Config{}).Run(context.Background(), newJob(t, submit.AppendInline), prog.report)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 10, 45, 50, 80, 100}, prog.values)
}

func TestRun_FinishesProgressWhenPartialOutputExists(t *testing.T) {
	job := newJob(t, submit.ReplaceOriginal)
	eng := &mockEngine{
		outcomes: map[submit.Mode]engine.Outcome{
			submit.ReplaceOriginal: engine.Fatal(errors.New("connection reset")),
		},
		onCall: func(req engine.Request) {
			_ = os.WriteFile(req.TargetPath, []byte("partial"), 0644)
		},
	}
	prog := &progressLog{}

	_, err := New(eng, Config{}).Run(context.Background(), job, prog.report)
	require.Error(t, err)
	assert.Equal(t, []int{0, 100}, prog.values)
}

func TestRun_NoFinishWhenExistingOutputUntouched(t *testing.T) {
	job := newJob(t, submit.ReplaceOriginal)
	require.NoError(t, os.WriteFile(job.Request.TargetPath, []byte("earlier run"), 0644))
	eng := &mockEngine{
		outcomes: map[submit.Mode]engine.Outcome{
			submit.ReplaceOriginal: engine.Fatal(errors.New("connection refused")),
		},
	}
	prog := &progressLog{}

	_, err := New(eng, Config{}).Run(context.Background(), job, prog.report)
	require.Error(t, err)
	assert.Equal(t, []int{0}, prog.values)
}

func TestRun_FinishesWhenExistingOutputReplaced(t *testing.T) {
	job := newJob(t, submit.ReplaceOriginal)
	require.NoError(t, os.WriteFile(job.Request.TargetPath, []byte("earlier run"), 0644))
	eng := &mockEngine{
		outcomes: map[submit.Mode]engine.Outcome{
			submit.ReplaceOriginal: engine.Fatal(errors.New("disk full")),
		},
		onCall: func(req engine.Request) {
			tmp := req.TargetPath + ".tmp"
			_ = os.WriteFile(tmp, []byte("partial"), 0644)
			_ = os.Rename(tmp, req.TargetPath)
		},
	}
	prog := &progressLog{}

	_, err := New(eng, Config{}).Run(context.Background(), job, prog.report)
	require.Error(t, err)
	assert.Equal(t, []int{0, 100}, prog.values)
}

func TestRun_EngineReachingFullReports100Once(t *testing.T) {
	eng := &mockEngine{
		progress: map[submit.Mode][]float64{
			submit.ReplaceOriginal: {0.5, 1.0, 1.0},
		},
	}
	prog := &progressLog{}

	_, err := New(eng, Config{}).Run(context.Background(), newJob(t, submit.ReplaceOriginal), prog.report)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 50, 100}, prog.values)
}

func TestRun_EmptySequence(t *testing.T) {
	eng := &mockEngine{}
	job := Job{ID: "j1", Request: engine.Request{SourcePath: "book.md"}}

	res, err := New(eng, Config{}).Run(context.Background(), job, nil)
	require.Error(t, err)
	assert.NotNil(t, res)
	assert.Empty(t, eng.calls)
}

type memRecorder struct {
	started  []string
	attempts []Attempt
	results  []*JobResult
	failWith error
}

func (r *memRecorder) RecordStart(ctx context.Context, job Job) error {
	r.started = append(r.started, job.ID)
	return r.failWith
}

func (r *memRecorder) RecordAttempt(ctx context.Context, jobID string, a Attempt) error {
	r.attempts = append(r.attempts, a)
	return r.failWith
}

func (r *memRecorder) RecordResult(ctx context.Context, res *JobResult) error {
	r.results = append(r.results, res)
	return r.failWith
}

func TestRun_RecordsHistory(t *testing.T) {
	eng := &mockEngine{
		outcomes: map[submit.Mode]engine.Outcome{
			submit.AppendAsBlock: engine.Structural("unterminated code fence"),
		},
	}
	rec := &memRecorder{}
	job := newJob(t, submit.AppendAsBlock)

	res, err := New(eng, Config{Recorder: rec}).Run(context.Background(), job, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{job.ID}, rec.started)
	require.Len(t, rec.attempts, 2)
	assert.Equal(t, submit.AppendAsBlock, rec.attempts[0].Mode)
	assert.Equal(t, 1, rec.attempts[1].Index)
	require.Len(t, rec.results, 1)
	assert.Same(t, res, rec.results[0])
}

func TestRun_RecorderErrorsDoNotFailJob(t *testing.T) {
	rec := &memRecorder{failWith: errors.New("database is locked")}

	res, err := New(&mockEngine{}, Config{Recorder: rec}).Run(context.Background(), newJob(t, submit.ReplaceOriginal), nil)
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestRun_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	eng := &mockEngine{
		outcomes: map[submit.Mode]engine.Outcome{
			submit.AppendInline: engine.Structural("no anchor"),
		},
	}

	_, err := New(eng, Config{Metrics: m}).Run(context.Background(), newJob(t, submit.AppendInline), nil)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Attempts.WithLabelValues("APPEND_INLINE", "structural")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Attempts.WithLabelValues("REPLACE", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Jobs.WithLabelValues("succeeded")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.AttemptDuration))
}

func TestNewJob_UniqueIDs(t *testing.T) {
	a := NewJob(engine.Request{}, submit.SequenceFrom(submit.ReplaceOriginal))
	b := NewJob(engine.Request{}, submit.SequenceFrom(submit.ReplaceOriginal))
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}
