package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/contextkit/internal/config"
	"github.com/fyrsmithlabs/contextkit/internal/corpus"
	"github.com/fyrsmithlabs/contextkit/internal/logging"
	"github.com/fyrsmithlabs/contextkit/internal/metrics"
	"github.com/fyrsmithlabs/contextkit/internal/patterns"
	"github.com/fyrsmithlabs/contextkit/internal/sqlitedb"
	"github.com/fyrsmithlabs/contextkit/internal/usage"
)

// app is the environment of one command invocation.
type app struct {
	ctx     context.Context
	cfg     *config.Config
	logger  *logging.Logger
	metrics *metrics.Metrics
	out     io.Writer
	format  string

	closers []func() error
}

// newApp loads configuration, applies flag overrides and builds the logger.
// The caller must call close.
func newApp(cmd *cobra.Command, opts *rootOptions) (*app, error) {
	if opts.format != formatHuman && opts.format != formatJSON {
		return nil, fmt.Errorf("--format must be %q or %q, got %q", formatHuman, formatJSON, opts.format)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.root != "" {
		cfg.Corpus.Root = opts.root
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if cfg.Corpus.Root == "" {
		return nil, errors.New("corpus root not set: use --root or corpus.root")
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logging.WithRunID(ctx, uuid.NewString())
	ctx = logging.WithCommand(ctx, cmd.Name())
	ctx = logging.WithLogger(ctx, logger)

	a := &app{
		ctx:     ctx,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.New(),
		out:     cmd.OutOrStdout(),
		format:  opts.format,
	}
	logger.Debug(ctx, "configuration loaded",
		zap.String("root", cfg.Corpus.Root),
		zap.String("backend", cfg.Store.Backend),
	)
	return a, nil
}

func newLogger(lc config.LoggingConfig) (*logging.Logger, error) {
	cfg := logging.NewDefaultConfig()
	level, err := logging.LevelFromString(lc.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", lc.Level, err)
	}
	cfg.Level = level
	if lc.Format != "" {
		cfg.Format = lc.Format
	}
	cfg.Output.File = lc.File
	return logging.NewLogger(cfg)
}

// close releases stores, writes the metrics textfile and flushes the log.
func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	if err := a.metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		a.logger.Warn(a.ctx, "metrics textfile not written", zap.Error(err))
	}
	errs = append(errs, a.logger.Sync())
	return errors.Join(errs...)
}

// loadCorpus reads and indexes the corpus root.
func (a *app) loadCorpus() (*corpus.Corpus, *corpus.Index, error) {
	done := a.metrics.StartStage("load")
	defer done()

	c, err := corpus.NewLoader(a.cfg.Corpus.Root, a.cfg.Corpus.Extensions, a.logger).Load(a.ctx)
	if err != nil {
		return nil, nil, err
	}
	a.metrics.AddDocumentsLoaded(c.Len(), len(c.Skipped))
	return c, corpus.NewIndex(c.Documents), nil
}

// openStores opens the usage and pattern stores for the configured backend.
func (a *app) openStores() (usage.Store, patterns.Store, error) {
	st := a.cfg.Store
	switch st.Backend {
	case config.BackendSQLite:
		db, err := sqlitedb.Open(a.ctx, a.cfg.SQLitePath(), a.logger)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, db.Close)
		return usage.NewSQLiteStore(db), patterns.NewSQLiteStore(db), nil
	default:
		if err := os.MkdirAll(a.cfg.StoreDir(), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating store directory: %w", err)
		}
		timeout := st.LockTimeout.Duration()
		return usage.NewFileStore(a.cfg.UsagePath(), timeout), patterns.NewFileStore(a.cfg.PatternsPath(), timeout), nil
	}
}

// openLedger opens the usage ledger and pattern predictor.
func (a *app) openLedger() (*usage.Ledger, *patterns.Predictor, error) {
	us, ps, err := a.openStores()
	if err != nil {
		return nil, nil, err
	}
	ledger, err := usage.NewLedger(a.ctx, us,
		usage.WithQueryLimit(a.cfg.Store.QueryLogLimit),
		usage.WithLogger(a.logger),
	)
	if err != nil {
		return nil, nil, err
	}
	predictor, err := patterns.NewPredictor(a.ctx, ps, patterns.WithLogger(a.logger))
	if err != nil {
		return nil, nil, err
	}
	return ledger, predictor, nil
}
