package stores

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/pointaudit/pointaudit/pkg/ingest"
	"github.com/pointaudit/pointaudit/pkg/point"
	"github.com/pointaudit/pointaudit/pkg/validation"
)

// NewRunRecord snapshots a completed ingestion together with the current
// diagnostics of every rule that ran.
func NewRunRecord(report *ingest.Report, d *validation.Diagnostics) (*RunRecord, error) {
	sources, err := json.Marshal(report.Sources)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sources: %w", err)
	}
	inputs, err := json.Marshal(report.Inputs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode inputs: %w", err)
	}
	rec := &RunRecord{
		Run: Run{
			ID:        report.RunID,
			Status:    RunStatusCompleted,
			StartedAt: report.StartedAt,
			Duration:  report.Duration,
			Points:    report.Points,
			Sources:   string(sources),
			Inputs:    string(inputs),
			CreatedAt: time.Now(),
		},
	}
	if report.Validation != nil {
		for _, rr := range report.Validation.Rules {
			rule := rr.ID.String()
			rec.Rules = append(rec.Rules, RuleResult{
				RunID:    report.RunID,
				Rule:     rule,
				Skipped:  rr.Skipped,
				Flagged:  rr.Flagged,
				Duration: rr.Duration,
			})
			if rr.Skipped || rr.ID == validation.RuleAll {
				continue
			}
			for _, kks := range d.Annotated(rr.ID) {
				if info := d.Info(kks, rr.ID); len(info) > 0 {
					rec.Diagnostics = append(rec.Diagnostics, Diagnostic{RunID: report.RunID, Rule: rule, KKS: kks, Info: info})
				}
				severities := d.Severities(kks, rr.ID)
				fields := make([]point.Parameter, 0, len(severities))
				for field := range severities {
					fields = append(fields, field)
				}
				slices.Sort(fields)
				for _, field := range fields {
					rec.Severities = append(rec.Severities, FieldSeverity{
						RunID:    report.RunID,
						Rule:     rule,
						KKS:      kks,
						Field:    field.String(),
						Severity: string(severities[field]),
					})
				}
			}
		}
	}
	for _, issue := range report.Background {
		rec.Background = append(rec.Background, BackgroundIssue{
			RunID:  report.RunID,
			File:   issue.File,
			Line:   issue.Line,
			Issues: issue.Issues,
		})
	}
	return rec, nil
}

// NewFailedRun records an ingestion that was aborted by err.
func NewFailedRun(startedAt time.Time, inputs ingest.Inputs, cause error) (*RunRecord, error) {
	encoded, err := json.Marshal(inputs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode inputs: %w", err)
	}
	msg := cause.Error()
	return &RunRecord{
		Run: Run{
			ID:        uuid.New().String(),
			Status:    RunStatusFailed,
			StartedAt: startedAt,
			Duration:  time.Since(startedAt),
			Sources:   "{}",
			Inputs:    string(encoded),
			Error:     &msg,
			CreatedAt: time.Now(),
		},
	}, nil
}
