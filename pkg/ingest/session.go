// Package ingest runs the ingestion sequence over a set of exported files:
// DBID parse, tree merge, source scans, merge, full validation.
package ingest

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pointaudit/pointaudit/pkg/dbid"
	"github.com/pointaudit/pointaudit/pkg/point"
	"github.com/pointaudit/pointaudit/pkg/scan"
	"github.com/pointaudit/pointaudit/pkg/store"
	"github.com/pointaudit/pointaudit/pkg/telemetry"
	"github.com/pointaudit/pointaudit/pkg/validation"
	"github.com/rs/zerolog"
	"github.com/viant/afs"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// Inputs names the exported files of one unit. Every field is an afs URL
// or local path; empty fields are not loaded.
type Inputs struct {
	Dbid        string `json:"dbid,omitempty"`
	GraphicsDir string `json:"graphics_dir,omitempty"`
	LogicDir    string `json:"logic_dir,omitempty"`
	Historian   string `json:"historian,omitempty"`
}

func (i Inputs) empty() bool {
	return i.Dbid == "" && i.GraphicsDir == "" && i.LogicDir == "" && i.Historian == ""
}

// Report describes one completed ingestion.
type Report struct {
	RunID      string                `json:"run_id"`
	StartedAt  time.Time             `json:"started_at"`
	Duration   time.Duration         `json:"duration"`
	Inputs     Inputs                `json:"inputs"`
	Sources    validation.Sources    `json:"sources"`
	Points     int                   `json:"points"`
	Validation *validation.Result    `json:"validation"`
	Background scan.BackgroundIssues `json:"background,omitempty"`
}

// Session owns the point store, the validation engine and the parsed DBID
// tree of the latest ingestion. Loads, re-runs and exports are serialized.
type Session struct {
	mu     sync.Mutex
	fs     afs.Service
	tel    *telemetry.Telemetry
	log    *telemetry.Logger
	logger zerolog.Logger
	loader *scan.Loader

	store  *store.Store
	engine *validation.Engine

	tree       *dbid.Tree
	sources    validation.Sources
	background scan.BackgroundIssues
	last       *Report
}

// Option configures a Session.
type Option func(*sessionOptions)

type sessionOptions struct {
	codec       *scan.Codec
	concurrency int
	settings    *validation.Settings
}

// WithCodec sets the encoding of the exported files.
func WithCodec(codec *scan.Codec) Option {
	return func(o *sessionOptions) {
		o.codec = codec
	}
}

// WithConcurrency bounds concurrent file scans and rule checks.
func WithConcurrency(n int) Option {
	return func(o *sessionOptions) {
		o.concurrency = n
	}
}

// WithSettings replaces the default rule settings.
func WithSettings(s validation.Settings) Option {
	return func(o *sessionOptions) {
		o.settings = &s
	}
}

// NewSession creates an empty session. A nil tel records nothing.
func NewSession(fs afs.Service, tel *telemetry.Telemetry, opts ...Option) (*Session, error) {
	if tel == nil {
		tel = telemetry.Nop()
	}
	o := &sessionOptions{}
	for _, opt := range opts {
		opt(o)
	}

	log := tel.Logger.NewComponentLogger("ingest")
	s := &Session{
		fs:     fs,
		tel:    tel,
		log:    log,
		logger: log.Zerolog(),
		store:  store.New(tel.Logger.NewComponentLogger("store").Zerolog()),
	}

	loaderOpts := []scan.LoaderOption{
		scan.WithProgress(s.progress),
		scan.WithFileHook(tel.Metrics.RecordFileScanned),
	}
	engineOpts := []validation.EngineOption{validation.WithTracer(tel.Tracer.Tracer())}
	if o.codec != nil {
		loaderOpts = append(loaderOpts, scan.WithCodec(o.codec))
	}
	if o.concurrency > 0 {
		loaderOpts = append(loaderOpts, scan.WithConcurrency(o.concurrency))
		engineOpts = append(engineOpts, validation.WithConcurrency(o.concurrency))
	}
	s.loader = scan.NewLoader(fs, tel.Logger.NewComponentLogger("scan").Zerolog(), loaderOpts...)
	s.engine = validation.NewEngine(s.store, tel.Logger.NewComponentLogger("validation").Zerolog(), engineOpts...)
	if o.settings != nil {
		if err := s.engine.SetSettings(*o.settings); err != nil {
			return nil, newError(ErrorClassConfig, ErrCodeInvalidSetting, "invalid rule settings", err)
		}
	}
	return s, nil
}

func (s *Session) progress(stage string, percent int) {
	_ = s.tel.Events.PublishProgress("ingest", stage, percent)
}

// Load clears the session and ingests inputs, then runs every rule. On
// failure the session is left empty.
func (s *Session) Load(ctx context.Context, inputs Inputs) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := &Report{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
		Inputs:    inputs,
	}
	ctx, span := s.tel.Tracer.Start(ctx, "ingest", telemetry.AttrRunID.String(report.RunID))
	defer span.End()
	logger := s.log.WithRunID(report.RunID).Zerolog()

	s.clear()
	if err := s.load(ctx, inputs); err != nil {
		s.clear()
		s.tel.Metrics.RecordIngestError(string(Class(err)))
		_ = s.tel.Events.PublishIngestFailed(report.RunID, err)
		recordFailure(span, err)
		logger.Error().Err(err).Msg("Ingestion failed")
		return nil, err
	}
	_ = s.tel.Events.PublishIngestCompleted(report.RunID, s.store.Len(), time.Since(report.StartedAt))

	report.Validation = s.validate(ctx, report.RunID)
	report.Sources = s.sources
	report.Points = s.store.Len()
	report.Background = s.background
	report.Duration = time.Since(report.StartedAt)
	s.last = report

	span.SetAttributes(telemetry.AttrPoints.Int(report.Points))
	telemetry.RecordSuccess(span)
	logger.Info().
		Int("points", report.Points).
		Bool("dbid", s.sources.DBID).
		Bool("src", s.sources.Source).
		Bool("xml", s.sources.Logic).
		Bool("ophxml", s.sources.Historian).
		Int("background_issues", s.background.Count()).
		Dur("duration", report.Duration).
		Msg("Ingestion completed")
	return report, nil
}

func (s *Session) clear() {
	s.store.Reset()
	s.engine.Diagnostics().Clear()
	s.tree = nil
	s.sources = validation.Sources{}
	s.background = nil
	s.last = nil
}

func (s *Session) load(ctx context.Context, inputs Inputs) error {
	if inputs.empty() {
		return newError(ErrorClassConfig, ErrCodeNoInputs, "no inputs configured", nil)
	}

	if inputs.Dbid != "" {
		if err := s.loadDbid(ctx, inputs.Dbid); err != nil {
			return err
		}
	}

	var graphics *scan.GraphicsResult
	var logic, historian []point.Batch
	eg, egCtx := errgroup.WithContext(ctx)
	if inputs.GraphicsDir != "" {
		eg.Go(func() error {
			return s.scanInput(egCtx, scan.KindGraphics, inputs.GraphicsDir, func(ctx context.Context) (err error) {
				graphics, err = s.loader.LoadGraphicsDir(ctx, inputs.GraphicsDir)
				return err
			})
		})
	}
	if inputs.LogicDir != "" {
		eg.Go(func() error {
			return s.scanInput(egCtx, scan.KindLogic, inputs.LogicDir, func(ctx context.Context) (err error) {
				logic, err = s.loader.LoadLogicDir(ctx, inputs.LogicDir)
				return err
			})
		})
	}
	if inputs.Historian != "" {
		eg.Go(func() error {
			return s.scanInput(egCtx, scan.KindHistorian, inputs.Historian, func(ctx context.Context) (err error) {
				historian, err = s.loader.LoadHistorianFile(ctx, inputs.Historian)
				return err
			})
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	if graphics != nil {
		s.merge(graphics.Batches)
		s.background = graphics.Background
		s.sources.Source = true
	}
	if inputs.LogicDir != "" {
		s.merge(logic)
		s.sources.Logic = true
	}
	if inputs.Historian != "" {
		s.merge(historian)
		s.sources.Historian = true
	}
	return nil
}

func (s *Session) scanInput(ctx context.Context, kind, URL string, fn func(ctx context.Context) error) error {
	ctx, span := s.tel.Tracer.Start(ctx, "ingest.scan",
		telemetry.AttrFileKind.String(kind),
		telemetry.AttrFileURL.String(URL))
	defer span.End()
	if err := fn(ctx); err != nil {
		err = classify(URL, err)
		recordFailure(span, err)
		return err
	}
	telemetry.RecordSuccess(span)
	return nil
}

func (s *Session) loadDbid(ctx context.Context, URL string) error {
	_, span := s.tel.Tracer.Start(ctx, "ingest.dbid", telemetry.AttrFileURL.String(URL))
	defer span.End()

	text, err := s.loader.ReadText(ctx, URL)
	if err != nil {
		err = classify(URL, err)
		recordFailure(span, err)
		return err
	}
	s.tel.Metrics.RecordFileScanned(scan.KindDbid)

	tree, err := dbid.Parse(text, dbid.WithProgress(func(percent int) {
		s.progress(scan.KindDbid, percent)
	}))
	if err != nil {
		err = classify(URL, err)
		recordFailure(span, err)
		return err
	}
	batches, err := s.store.LoadDbidTree(tree)
	if err != nil {
		err = classify(URL, err)
		recordFailure(span, err)
		return err
	}
	s.merge(batches)
	s.tree = tree
	s.sources.DBID = true
	span.SetAttributes(attribute.Int("nodes", tree.Len()), telemetry.AttrPoints.Int(len(batches)))
	return nil
}

func (s *Session) merge(batches []point.Batch) {
	s.tel.Metrics.RecordPointsMerged(s.store.Merge(batches))
}

func (s *Session) validate(ctx context.Context, runID string, rules ...validation.RuleID) *validation.Result {
	result := s.engine.Run(ctx, s.sources, rules...)
	d := s.engine.Diagnostics()
	flagged := make(map[string]int, len(result.Rules))
	for _, rr := range result.Rules {
		name := rr.ID.String()
		flagged[name] = rr.Flagged
		s.tel.Metrics.SetFlaggedPoints(name, rr.Flagged)
		counts := d.SeverityCounts(rr.ID)
		for _, severity := range []validation.Severity{validation.SeverityWarning, validation.SeverityError} {
			s.tel.Metrics.SetFieldSeverities(name, string(severity), counts[severity])
		}
	}
	s.tel.Metrics.RecordValidationRun("completed", result.Duration)
	_ = s.tel.Events.PublishValidationCompleted(runID, flagged, result.Duration)
	return result
}

// Revalidate re-runs rules over the loaded points; with no rules the whole
// catalogue is recomputed.
func (s *Session) Revalidate(ctx context.Context, rules ...validation.RuleID) *validation.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	runID := ""
	if s.last != nil {
		runID = s.last.RunID
	}
	return s.validate(ctx, runID, rules...)
}

// ApplySettings activates new rule settings and re-runs only the rules
// whose settings changed. It returns nil when nothing changed.
func (s *Session) ApplySettings(ctx context.Context, settings validation.Settings) (*validation.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.engine.Settings()
	if err := s.engine.SetSettings(settings); err != nil {
		return nil, newError(ErrorClassConfig, ErrCodeInvalidSetting, "invalid rule settings", err)
	}
	var rules []validation.RuleID
	if previous.Characteristics != settings.Characteristics {
		rules = append(rules, validation.RuleCharacteristics)
	}
	if !maps.Equal(previous.Ancillary, settings.Ancillary) {
		rules = append(rules, validation.RuleAncillary)
	}
	if !maps.Equal(previous.AlarmPriorities, settings.AlarmPriorities) {
		rules = append(rules, validation.RuleLimitsPriority)
	}
	if len(rules) == 0 {
		return nil, nil
	}
	runID := ""
	if s.last != nil {
		runID = s.last.RunID
	}
	return s.validate(ctx, runID, rules...), nil
}

// ExportDbid writes the loaded DBID tree to URL, with EVENT_TAGGING_ENABLE
// of every module recomputed from its SOE points. The loaded tree is not
// modified.
func (s *Session) ExportDbid(ctx context.Context, URL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tree == nil {
		return newError(ErrorClassConfig, ErrCodeNoDbid, "no DBID loaded", nil)
	}
	_, span := s.tel.Tracer.Start(ctx, "export.dbid", telemetry.AttrFileURL.String(URL))
	defer span.End()

	derived, err := dbid.DeriveEventTagging(s.tree)
	if err != nil {
		e := newError(ErrorClassStructural, ErrCodeDbidStructure, "cannot derive event tagging", err)
		recordFailure(span, e)
		return e
	}
	if err := dbid.Write(ctx, s.fs, URL, derived, s.loader.Codec().Encode); err != nil {
		e := newError(ErrorClassIO, ErrCodeWriteFailed, "failed to write DBID", err).withSource(URL)
		recordFailure(span, e)
		return e
	}
	s.logger.Info().Str("url", URL).Msg("Exported DBID")
	return nil
}

// Background returns the background-integrity issues of the latest load,
// without the lines whose issues are all in ignored.
func (s *Session) Background(ignored []string) scan.BackgroundIssues {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.background.Filter(ignored)
}

// Last returns the report of the latest successful load.
func (s *Session) Last() *Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Store returns the point store.
func (s *Session) Store() *store.Store { return s.store }

// Engine returns the validation engine.
func (s *Session) Engine() *validation.Engine { return s.engine }

// Sources returns which input categories the latest load read.
func (s *Session) Sources() validation.Sources {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sources
}
