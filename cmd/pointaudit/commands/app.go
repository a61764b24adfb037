package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/pointaudit/pointaudit/pkg/config"
	"github.com/pointaudit/pointaudit/pkg/ingest"
	"github.com/pointaudit/pointaudit/pkg/stores"
	"github.com/pointaudit/pointaudit/pkg/telemetry"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/viant/afs"
)

// app is the runtime shared by the commands: configuration, telemetry
// and the file service.
type app struct {
	cfg     *config.Config
	tel     *telemetry.Telemetry
	fs      afs.Service
	logger  zerolog.Logger
	metrics *http.Server
}

// inputFlags override the inputs section of the configuration.
type inputFlags struct {
	dbid      string
	graphics  string
	logic     string
	historian string
	encoding  string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.dbid, "dbid", "", "DBID export file")
	cmd.Flags().StringVar(&f.graphics, "graphics", "", "directory of graphics sources (*.src)")
	cmd.Flags().StringVar(&f.logic, "logic", "", "directory of logic sheets (*.xml)")
	cmd.Flags().StringVar(&f.historian, "historian", "", "historian configuration file")
	cmd.Flags().StringVar(&f.encoding, "encoding", "", "text encoding of the inputs (utf-8, windows-1251, koi8-r, ...)")
}

func (f *inputFlags) apply(cfg *config.Config) {
	for _, o := range []struct {
		flag   string
		target *string
	}{
		{f.dbid, &cfg.Inputs.Dbid},
		{f.graphics, &cfg.Inputs.GraphicsDir},
		{f.logic, &cfg.Inputs.LogicDir},
		{f.historian, &cfg.Inputs.Historian},
		{f.encoding, &cfg.Inputs.Encoding},
	} {
		if o.flag != "" {
			*o.target = o.flag
		}
	}
}

func loadConfig(ctx context.Context, fs afs.Service) (*config.Config, error) {
	path := configPath
	if path == "" {
		if _, err := os.Stat(config.DefaultFileName); err != nil {
			return config.Default(), nil
		}
		path = config.DefaultFileName
	}
	return config.Load(ctx, fs, path)
}

// newApp reads the configuration, applies the global flags and starts
// telemetry. Callers must close the app.
func newApp(cmd *cobra.Command, inputs *inputFlags) (*app, error) {
	ctx := cmd.Context()
	fs := afs.New()
	cfg, err := loadConfig(ctx, fs)
	if err != nil {
		return nil, err
	}
	if inputs != nil {
		inputs.apply(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	telCfg := *cfg.Telemetry
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		telCfg.Logging.Level = level
	}
	if verbose {
		telCfg.Logging.Level = "debug"
	}
	if metricsAddr != "" {
		telCfg.Metrics.Enabled = true
		telCfg.Metrics.ListenAddress = metricsAddr
	}
	tel, err := telemetry.NewTelemetry(&telCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	a := &app{
		cfg:    cfg,
		tel:    tel,
		fs:     fs,
		logger: tel.Logger.Zerolog().With().Str("command", cmd.Name()).Logger(),
	}
	if a.metrics, err = tel.Metrics.StartMetricsServer(a.logger); err != nil {
		_ = tel.Shutdown(ctx)
		return nil, fmt.Errorf("failed to start metrics server: %w", err)
	}
	if a.metrics != nil {
		a.logger.Info().Str("address", telCfg.Metrics.ListenAddress).Msg("Serving metrics")
	}
	return a, nil
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if a.metrics != nil {
		_ = a.metrics.Shutdown(ctx)
	}
	if err := a.tel.Shutdown(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("Telemetry shutdown failed")
	}
}

func (a *app) newSession() (*ingest.Session, error) {
	codec, err := a.cfg.Codec()
	if err != nil {
		return nil, err
	}
	settings, err := a.cfg.Settings()
	if err != nil {
		return nil, err
	}
	return ingest.NewSession(a.fs, a.tel, ingest.WithCodec(codec), ingest.WithSettings(settings))
}

// openStore opens the run history database. dbPath overrides the
// configured one.
func (a *app) openStore(ctx context.Context, dbPath string) (*stores.SQLiteStore, error) {
	if dbPath == "" {
		dbPath = a.cfg.Report.Database
	}
	if dbPath == "" {
		return nil, errors.New("no report database configured (set report.database or --db)")
	}
	return stores.Open(ctx, stores.Config{Path: dbPath}, a.logger)
}

// saveRun persists the outcome of a load.
func (a *app) saveRun(ctx context.Context, db *stores.SQLiteStore, s *ingest.Session, started time.Time, report *ingest.Report, loadErr error) error {
	var (
		rec *stores.RunRecord
		err error
	)
	if loadErr != nil {
		rec, err = stores.NewFailedRun(started, a.cfg.IngestInputs(), loadErr)
	} else {
		rec, err = stores.NewRunRecord(report, s.Engine().Diagnostics())
	}
	if err != nil {
		return err
	}
	if err := db.SaveRun(ctx, rec); err != nil {
		return err
	}
	a.logger.Info().Str("run_id", rec.Run.ID).Msg("Saved run")
	return nil
}
