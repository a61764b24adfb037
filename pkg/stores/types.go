package stores

import (
	"time"
)

// RunStatus represents the outcome of an ingestion.
type RunStatus string

const (
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is a persisted ingestion.
type Run struct {
	ID        string        `json:"id"`
	Status    RunStatus     `json:"status"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Points    int           `json:"points"`
	Sources   string        `json:"sources"` // JSON object
	Inputs    string        `json:"inputs"`  // JSON object
	Error     *string       `json:"error,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// RuleResult is the summary of one rule in a run.
type RuleResult struct {
	RunID    string        `json:"run_id"`
	Rule     string        `json:"rule"`
	Skipped  bool          `json:"skipped"`
	Flagged  int           `json:"flagged"`
	Duration time.Duration `json:"duration"`
}

// Diagnostic holds the explanation lines of one tag under one rule.
type Diagnostic struct {
	RunID string   `json:"run_id"`
	Rule  string   `json:"rule"`
	KKS   string   `json:"kks"`
	Info  []string `json:"info"`
}

// FieldSeverity is a per-field annotation of a flagged tag.
type FieldSeverity struct {
	RunID    string `json:"run_id"`
	Rule     string `json:"rule"`
	KKS      string `json:"kks"`
	Field    string `json:"field"`
	Severity string `json:"severity"`
}

// BackgroundIssue is a background-integrity line of a run.
type BackgroundIssue struct {
	RunID  string   `json:"run_id"`
	File   string   `json:"file"`
	Line   int      `json:"line"`
	Issues []string `json:"issues"`
}

// RunRecord is everything saved for one run.
type RunRecord struct {
	Run         Run
	Rules       []RuleResult
	Diagnostics []Diagnostic
	Severities  []FieldSeverity
	Background  []BackgroundIssue
}
