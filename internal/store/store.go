package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"

	"github.com/valpere/booktran/internal"
	"github.com/valpere/booktran/internal/orchestrator"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// segments are saved from several engine workers; sqlite allows one writer
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		source_path TEXT NOT NULL,
		target_path TEXT NOT NULL,
		target_language TEXT NOT NULL,
		initial_mode TEXT NOT NULL,
		state TEXT NOT NULL DEFAULT 'idle',
		success BOOLEAN DEFAULT FALSE,
		mode_used TEXT,
		diagnostic TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		finished_at TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS attempts (
		job_id TEXT NOT NULL,
		idx INTEGER NOT NULL,
		mode TEXT NOT NULL,
		outcome TEXT NOT NULL,
		message TEXT,
		elapsed_ms INTEGER,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (job_id, idx),
		FOREIGN KEY (job_id) REFERENCES jobs(id)
	);

	-- translation_memory caches translated segments across jobs and attempts
	CREATE TABLE IF NOT EXISTS translation_memory (
		id TEXT PRIMARY KEY,
		source_text TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		variant TEXT NOT NULL DEFAULT '',
		translated_text TEXT NOT NULL,
		service_used TEXT,
		usage_count INTEGER DEFAULT 1,
		last_used TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source_text, target_lang, variant)
	);

	CREATE INDEX IF NOT EXISTS idx_attempts_job ON attempts(job_id);
	CREATE INDEX IF NOT EXISTS idx_jobs_created ON jobs(created_at);
	CREATE INDEX IF NOT EXISTS idx_memory_lookup ON translation_memory(source_text, target_lang, variant);
	`

	_, err := s.db.Exec(schema)
	return err
}

// RecordStart inserts the job row.
func (s *Store) RecordStart(ctx context.Context, job orchestrator.Job) error {
	initial := ""
	if job.Sequence.Len() > 0 {
		initial = job.Sequence.At(0).Mode.ID()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, source_path, target_path, target_language, initial_mode, state, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.Request.SourcePath, job.Request.TargetPath, job.Request.TargetLanguage.String(), initial,
		orchestrator.StateAttempting.String(), time.Now())
	return err
}

// RecordAttempt stores one attempt of a job.
func (s *Store) RecordAttempt(ctx context.Context, jobID string, a orchestrator.Attempt) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attempts (job_id, idx, mode, outcome, message, elapsed_ms) VALUES (?, ?, ?, ?, ?, ?)`,
		jobID, a.Index, a.Mode.ID(), a.Outcome.Kind.String(), a.Outcome.Message, a.Elapsed.Milliseconds())
	return err
}

// RecordResult stores the terminal state of a job.
func (s *Store) RecordResult(ctx context.Context, res *orchestrator.JobResult) error {
	modeUsed := ""
	if res.Success {
		modeUsed = res.Mode.ID()
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET state = ?, success = ?, mode_used = ?, diagnostic = ?, target_path = ?, finished_at = ? WHERE id = ?`,
		res.State.String(), res.Success, modeUsed, res.Diagnostic, res.OutputPath, time.Now(), res.JobID)
	return err
}

// GetJob returns a job with its attempts.
func (s *Store) GetJob(ctx context.Context, id string) (*internal.JobRecord, error) {
	var (
		rec        internal.JobRecord
		modeUsed   sql.NullString
		diagnostic sql.NullString
		finishedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source_path, target_path, target_language, initial_mode, state, success, mode_used, diagnostic, created_at, finished_at FROM jobs WHERE id = ?`,
		id).Scan(&rec.ID, &rec.SourcePath, &rec.TargetPath, &rec.TargetLanguage, &rec.InitialMode,
		&rec.State, &rec.Success, &modeUsed, &diagnostic, &rec.CreatedAt, &finishedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("job not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	rec.ModeUsed = modeUsed.String
	rec.Diagnostic = diagnostic.String
	if finishedAt.Valid {
		t := finishedAt.Time
		rec.FinishedAt = &t
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, mode, outcome, message, elapsed_ms FROM attempts WHERE job_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var a internal.AttemptRecord
		var msg sql.NullString
		if err := rows.Scan(&a.Index, &a.Mode, &a.Outcome, &msg, &a.ElapsedMs); err != nil {
			return nil, err
		}
		a.Message = msg.String
		rec.Attempts = append(rec.Attempts, a)
	}
	return &rec, rows.Err()
}

// ListJobs returns the most recent jobs first, without attempts. limit ≤ 0 lists all.
func (s *Store) ListJobs(ctx context.Context, limit int) ([]internal.JobRecord, error) {
	query := `SELECT id, source_path, target_path, target_language, initial_mode, state, success, mode_used, created_at FROM jobs ORDER BY created_at DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []internal.JobRecord
	for rows.Next() {
		var rec internal.JobRecord
		var modeUsed sql.NullString
		if err := rows.Scan(&rec.ID, &rec.SourcePath, &rec.TargetPath, &rec.TargetLanguage, &rec.InitialMode,
			&rec.State, &rec.Success, &modeUsed, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.ModeUsed = modeUsed.String
		jobs = append(jobs, rec)
	}
	return jobs, rows.Err()
}

// JobStats summarises job history.
type JobStats struct {
	TotalJobs int
	ByState   map[string]int
	// FallbackWins counts successful jobs finished with a mode other than the initial one.
	FallbackWins int
}

// Stats returns summary statistics for the job history.
func (s *Store) Stats(ctx context.Context) (*JobStats, error) {
	stats := &JobStats{ByState: make(map[string]int)}

	rows, err := s.db.QueryContext(ctx, `SELECT state, COUNT(*) FROM jobs GROUP BY state`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var state string
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, err
		}
		stats.ByState[state] = n
		stats.TotalJobs += n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM jobs WHERE success AND mode_used IS NOT NULL AND mode_used != initial_mode`).Scan(&stats.FallbackWins)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Lookup returns a cached translation of sourceText into targetLang. variant
// identifies the service, model and instructions the entry was produced with;
// entries of other variants never match.
func (s *Store) Lookup(ctx context.Context, sourceText, targetLang, variant string) (string, bool, error) {
	key := normalizeText(sourceText)
	var translated string
	err := s.db.QueryRowContext(ctx,
		`SELECT translated_text FROM translation_memory WHERE source_text = ? AND target_lang = ? AND variant = ?`,
		key, targetLang, variant).Scan(&translated)

	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE translation_memory SET usage_count = usage_count + 1, last_used = ? WHERE source_text = ? AND target_lang = ? AND variant = ?`,
		time.Now(), key, targetLang, variant)

	return translated, true, err
}

// Save stores a translated segment in the translation memory.
func (s *Store) Save(ctx context.Context, sourceText, targetLang, variant, translated, serviceUsed string) error {
	id := "mem_" + uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO translation_memory (id, source_text, target_lang, variant, translated_text, service_used, usage_count, last_used, created_at) VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		id, normalizeText(sourceText), targetLang, variant, translated, serviceUsed, time.Now(), time.Now())
	return err
}

// CacheStats summarises translation memory usage.
type CacheStats struct {
	TotalEntries int
	TotalUsage   int
}

// MemoryStats returns summary statistics for the translation memory.
func (s *Store) MemoryStats(ctx context.Context) (*CacheStats, error) {
	stats := &CacheStats{}
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(usage_count), 0) FROM translation_memory`).Scan(&stats.TotalEntries, &stats.TotalUsage)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// ClearMemory removes all translation memory entries.
func (s *Store) ClearMemory(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM translation_memory`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) Close() error {
	return s.db.Close()
}

// normalizeText trims whitespace and applies Unicode NFC normalization
// for consistent cache key comparison.
func normalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}
