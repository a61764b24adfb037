package validation

import (
	"sort"
	"sync"

	"github.com/pointaudit/pointaudit/pkg/point"
)

// Severity classifies a per-field annotation.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// merge returns the severity kept when next is recorded over current:
// an error is never downgraded.
func (s Severity) merge(next Severity) Severity {
	if s == SeverityError {
		return s
	}
	return next
}

type fieldSeverities map[point.Parameter]Severity

// bucket holds the diagnostics of a single rule.
type bucket struct {
	info     map[string][]string
	severity map[string]fieldSeverities
}

func newBucket() *bucket {
	return &bucket{
		info:     make(map[string][]string),
		severity: make(map[string]fieldSeverities),
	}
}

func (b *bucket) addInfo(kks, text string) {
	b.info[kks] = append(b.info[kks], text)
}

func (b *bucket) addSeverity(kks string, field point.Parameter, severity Severity) {
	fields, ok := b.severity[kks]
	if !ok {
		fields = make(fieldSeverities)
		b.severity[kks] = fields
	}
	fields[field] = fields[field].merge(severity)
}

// Diagnostics stores, per rule, explanation lines per tag and a severity
// per (tag, field). It is safe for concurrent use.
type Diagnostics struct {
	mu      sync.RWMutex
	buckets map[RuleID]*bucket
}

// NewDiagnostics returns an empty store.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{buckets: make(map[RuleID]*bucket)}
}

func (d *Diagnostics) bucketFor(rule RuleID) *bucket {
	b, ok := d.buckets[rule]
	if !ok {
		b = newBucket()
		d.buckets[rule] = b
	}
	return b
}

// AddInfo appends an explanation line for kks under rule.
func (d *Diagnostics) AddInfo(kks string, rule RuleID, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bucketFor(rule).addInfo(kks, text)
}

// AddSeverity annotates a field of kks under rule. Once a field holds
// SeverityError for a rule, later warnings leave it unchanged.
func (d *Diagnostics) AddSeverity(kks string, rule RuleID, field point.Parameter, severity Severity) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bucketFor(rule).addSeverity(kks, field, severity)
}

// ClearRule removes every diagnostic recorded under rule.
func (d *Diagnostics) ClearRule(rule RuleID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.buckets, rule)
}

// Clear removes every diagnostic.
func (d *Diagnostics) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buckets = make(map[RuleID]*bucket)
}

// commit replaces the diagnostics of rule with b.
func (d *Diagnostics) commit(rule RuleID, b *bucket) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buckets[rule] = b
}

// HasError reports whether kks received any explanation under rule.
func (d *Diagnostics) HasError(kks string, rule RuleID) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	b, ok := d.buckets[rule]
	if !ok {
		return false
	}
	return len(b.info[kks]) > 0
}

// Info returns the explanation lines of kks under rule.
func (d *Diagnostics) Info(kks string, rule RuleID) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	b, ok := d.buckets[rule]
	if !ok {
		return nil
	}
	return append([]string(nil), b.info[kks]...)
}

// Severity returns the annotation of one field.
func (d *Diagnostics) Severity(kks string, rule RuleID, field point.Parameter) (Severity, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	b, ok := d.buckets[rule]
	if !ok {
		return "", false
	}
	s, ok := b.severity[kks][field]
	return s, ok
}

// Severities returns every annotated field of kks under rule.
func (d *Diagnostics) Severities(kks string, rule RuleID) map[point.Parameter]Severity {
	d.mu.RLock()
	defer d.mu.RUnlock()
	b, ok := d.buckets[rule]
	if !ok {
		return nil
	}
	result := make(map[point.Parameter]Severity, len(b.severity[kks]))
	for field, s := range b.severity[kks] {
		result[field] = s
	}
	return result
}

// Tags returns the tags with at least one explanation under rule, sorted.
func (d *Diagnostics) Tags(rule RuleID) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	b, ok := d.buckets[rule]
	if !ok {
		return nil
	}
	tags := make([]string, 0, len(b.info))
	for kks, lines := range b.info {
		if len(lines) > 0 {
			tags = append(tags, kks)
		}
	}
	sort.Strings(tags)
	return tags
}

// Annotated returns the tags with an explanation or a field severity
// under rule, sorted.
func (d *Diagnostics) Annotated(rule RuleID) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	b, ok := d.buckets[rule]
	if !ok {
		return nil
	}
	seen := make(map[string]struct{}, len(b.info)+len(b.severity))
	for kks := range b.info {
		seen[kks] = struct{}{}
	}
	for kks := range b.severity {
		seen[kks] = struct{}{}
	}
	tags := make([]string, 0, len(seen))
	for kks := range seen {
		tags = append(tags, kks)
	}
	sort.Strings(tags)
	return tags
}

// Count returns how many tags are flagged under rule.
func (d *Diagnostics) Count(rule RuleID) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	b, ok := d.buckets[rule]
	if !ok {
		return 0
	}
	return len(b.info)
}

// Recorder collects the diagnostics of one rule during a run. It is owned
// by a single goroutine and published as a whole when the rule completes.
type Recorder struct {
	rule   RuleID
	bucket *bucket
}

func newRecorder(rule RuleID) *Recorder {
	return &Recorder{rule: rule, bucket: newBucket()}
}

// Info appends an explanation line for kks.
func (r *Recorder) Info(kks, text string) {
	r.bucket.addInfo(kks, text)
}

// Mark annotates fields of kks with severity.
func (r *Recorder) Mark(kks string, severity Severity, fields ...point.Parameter) {
	for _, field := range fields {
		r.bucket.addSeverity(kks, field, severity)
	}
}

// Error annotates fields of kks as errors.
func (r *Recorder) Error(kks string, fields ...point.Parameter) {
	r.Mark(kks, SeverityError, fields...)
}

// Warning annotates fields of kks as warnings.
func (r *Recorder) Warning(kks string, fields ...point.Parameter) {
	r.Mark(kks, SeverityWarning, fields...)
}

// SeverityCounts returns how many (tag, field) pairs hold each severity
// under rule.
func (d *Diagnostics) SeverityCounts(rule RuleID) map[Severity]int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	counts := make(map[Severity]int, 2)
	b, ok := d.buckets[rule]
	if !ok {
		return counts
	}
	for _, fields := range b.severity {
		for _, s := range fields {
			counts[s]++
		}
	}
	return counts
}
