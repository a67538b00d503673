package internal

import "time"

// JobRecord is the persisted history of one translation job.
type JobRecord struct {
	ID             string          `json:"id" yaml:"id"`
	SourcePath     string          `json:"source_path" yaml:"source_path"`
	TargetPath     string          `json:"target_path" yaml:"target_path"`
	TargetLanguage string          `json:"target_language" yaml:"target_language"`
	InitialMode    string          `json:"initial_mode" yaml:"initial_mode"`
	State          string          `json:"state" yaml:"state"`
	Success        bool            `json:"success" yaml:"success"`
	ModeUsed       string          `json:"mode_used,omitempty" yaml:"mode_used,omitempty"`
	Diagnostic     string          `json:"diagnostic,omitempty" yaml:"diagnostic,omitempty"`
	CreatedAt      time.Time       `json:"created_at" yaml:"created_at"`
	FinishedAt     *time.Time      `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	Attempts       []AttemptRecord `json:"attempts,omitempty" yaml:"attempts,omitempty"`
}

// AttemptRecord is one engine invocation of a job.
type AttemptRecord struct {
	Index     int    `json:"index" yaml:"index"`
	Mode      string `json:"mode" yaml:"mode"`
	Outcome   string `json:"outcome" yaml:"outcome"`
	Message   string `json:"message,omitempty" yaml:"message,omitempty"`
	ElapsedMs int64  `json:"elapsed_ms" yaml:"elapsed_ms"`
}
