package validation

import (
	"context"
	"sync"
	"time"

	"github.com/pointaudit/pointaudit/pkg/point"
	"github.com/pointaudit/pointaudit/pkg/store"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
)

// Source is the point collection the rules inspect.
type Source interface {
	Points() []*point.Point
	Point(kks string) (*point.Point, bool)
	Drop(name string) (*store.DropInfo, bool)
	TasksAt(drop, location string) []string
}

// RuleResult summarizes one rule of a run.
type RuleResult struct {
	ID       RuleID        `json:"rule"`
	Skipped  bool          `json:"skipped"`
	Flagged  int           `json:"flagged"`
	Duration time.Duration `json:"duration"`
}

// Result summarizes a run.
type Result struct {
	Rules    []RuleResult  `json:"rules"`
	Duration time.Duration `json:"duration"`
}

// Flagged returns the number of tags flagged by rule in this run.
func (r *Result) Flagged(rule RuleID) int {
	for _, rr := range r.Rules {
		if rr.ID == rule {
			return rr.Flagged
		}
	}
	return 0
}

// Engine runs the rule catalogue over a Source. Only one run executes at a
// time; within a run, rules are checked concurrently, each into its own
// bucket.
type Engine struct {
	mu          sync.Mutex
	logger      zerolog.Logger
	source      Source
	diagnostics *Diagnostics
	tracer      trace.Tracer
	observer    func(RuleResult)
	concurrency int

	settingsMu sync.RWMutex
	settings   *compiledSettings
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithTracer records a span per run and per rule.
func WithTracer(tracer trace.Tracer) EngineOption {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

// WithRuleObserver is called once per checked or skipped rule, possibly
// from several goroutines at once.
func WithRuleObserver(fn func(RuleResult)) EngineOption {
	return func(e *Engine) {
		e.observer = fn
	}
}

// WithConcurrency bounds how many rules are checked at once.
func WithConcurrency(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// NewEngine creates an engine with DefaultSettings.
func NewEngine(source Source, logger zerolog.Logger, opts ...EngineOption) *Engine {
	settings, err := compileSettings(DefaultSettings())
	if err != nil {
		panic(err)
	}
	e := &Engine{
		logger:      logger,
		source:      source,
		diagnostics: NewDiagnostics(),
		tracer:      noop.NewTracerProvider().Tracer("validation"),
		concurrency: int(ruleCount),
		settings:    settings,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Diagnostics returns the diagnostic store filled by Run.
func (e *Engine) Diagnostics() *Diagnostics {
	return e.diagnostics
}

// Settings returns a copy of the active settings.
func (e *Engine) Settings() Settings {
	e.settingsMu.RLock()
	defer e.settingsMu.RUnlock()
	return e.settings.Settings.Clone()
}

// SetSettings validates and activates new settings. Diagnostics are not
// recomputed; callers re-run the affected rules.
func (e *Engine) SetSettings(s Settings) error {
	compiled, err := compileSettings(s)
	if err != nil {
		return err
	}
	e.settingsMu.Lock()
	defer e.settingsMu.Unlock()
	e.settings = compiled
	return nil
}

// Run checks the given rules over every point. With no rules, all
// diagnostics are cleared and the whole catalogue runs; otherwise only the
// listed rules are cleared and recomputed. Rules whose gate is closed for
// sources stay cleared. A run is never interrupted once started.
func (e *Engine) Run(ctx context.Context, sources Sources, rules ...RuleID) *Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	ctx, span := e.tracer.Start(ctx, "validation.run")
	defer span.End()

	started := time.Now()
	if len(rules) == 0 {
		e.diagnostics.Clear()
		rules = AllRules()
	} else {
		rules = distinct(rules)
		for _, id := range rules {
			e.diagnostics.ClearRule(id)
		}
	}

	e.settingsMu.RLock()
	c := &checkContext{source: e.source, settings: e.settings}
	e.settingsMu.RUnlock()
	points := e.source.Points()

	results := make([]RuleResult, len(rules))
	var eg errgroup.Group
	eg.SetLimit(e.concurrency)
	for i, id := range rules {
		i, id := i, id
		eg.Go(func() error {
			results[i] = e.runRule(ctx, c, id, sources, points)
			return nil
		})
	}
	_ = eg.Wait()

	result := &Result{Rules: results, Duration: time.Since(started)}
	span.SetAttributes(attribute.Int("points", len(points)), attribute.Int("rules", len(rules)))
	e.logger.Debug().
		Int("points", len(points)).
		Int("rules", len(rules)).
		Dur("duration", result.Duration).
		Msg("Validation run completed")
	return result
}

func (e *Engine) runRule(ctx context.Context, c *checkContext, id RuleID, sources Sources, points []*point.Point) RuleResult {
	rule := catalogue[id]
	_, span := e.tracer.Start(ctx, "validation.rule", trace.WithAttributes(attribute.String("rule", id.String())))
	defer span.End()

	started := time.Now()
	result := RuleResult{ID: id}
	if !rule.Gate(sources) {
		result.Skipped = true
	} else if rule.check != nil {
		rec := newRecorder(id)
		for _, p := range points {
			rule.check(c, p, rec)
		}
		e.diagnostics.commit(id, rec.bucket)
		result.Flagged = len(rec.bucket.info)
	}
	result.Duration = time.Since(started)
	span.SetAttributes(attribute.Bool("skipped", result.Skipped), attribute.Int("flagged", result.Flagged))
	if e.observer != nil {
		e.observer(result)
	}
	return result
}

// Flagged returns, in store order, the points flagged by rule. For
// RuleAll every point is returned.
func (e *Engine) Flagged(rule RuleID) []*point.Point {
	points := e.source.Points()
	if rule == RuleAll {
		return points
	}
	var result []*point.Point
	for _, p := range points {
		if e.diagnostics.HasError(p.KKS(), rule) {
			result = append(result, p)
		}
	}
	return result
}

func distinct(rules []RuleID) []RuleID {
	seen := make(map[RuleID]bool, len(rules))
	var result []RuleID
	for _, id := range rules {
		if !id.Valid() || seen[id] {
			continue
		}
		seen[id] = true
		result = append(result, id)
	}
	return result
}

// checkContext is the read-only state shared by checkers during a run.
type checkContext struct {
	source   Source
	settings *compiledSettings
}

func (c *checkContext) drop(name string) *store.DropInfo {
	d, _ := c.source.Drop(name)
	return d
}
