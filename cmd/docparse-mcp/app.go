package main

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/ironsheep/docparse-mcp/internal/cache"
	"github.com/ironsheep/docparse-mcp/internal/config"
	"github.com/ironsheep/docparse-mcp/internal/entity"
	"github.com/ironsheep/docparse-mcp/internal/labeling"
	"github.com/ironsheep/docparse-mcp/internal/logging"
	"github.com/ironsheep/docparse-mcp/internal/ocr"
	"github.com/ironsheep/docparse-mcp/internal/pipeline"
)

// app holds the wired components shared by the commands.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	ocr      *ocr.Engine
	parser   *pipeline.Parser
	grouping []entity.Option
	closers  []func() error
	conv     entity.Convention
}

// loadConfig reads configuration and sets up logging.
func loadConfig(flags *globalFlags) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(flags.configFile, flags.envFile)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	logger, err := logging.Setup(cfg.Log.Level, cfg.Log.Format, nil)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, logger, nil
}

// newApp wires OCR, labeler, cache and parser from configuration.
func newApp(ctx context.Context, flags *globalFlags) (*app, error) {
	cfg, logger, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}

	grouping, conv, err := cfg.Grouping.Options()
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		ocr:      ocr.NewEngine(cfg.OCR),
		grouping: grouping,
		conv:     conv,
	}

	labeler, err := newLabeler(cfg.Labeler, logger)
	if err != nil {
		return nil, err
	}

	opts := []pipeline.Option{
		pipeline.WithPreprocess(cfg.Preprocess),
		pipeline.WithGrouping(grouping...),
		pipeline.WithConvention(conv),
		pipeline.WithLogger(logger),
	}
	store, err := a.newStore(ctx)
	if err != nil {
		return nil, err
	}
	if store != nil {
		opts = append(opts, pipeline.WithCache(store, cfg.Cache.TTL))
	}

	a.parser = pipeline.New(a.ocr, labeler, opts...)
	return a, nil
}

// newLabeler returns the HTTP labeler, or a labeler that marks every word
// outside when no endpoint is configured.
func newLabeler(cfg labeling.Config, logger zerolog.Logger) (labeling.Labeler, error) {
	l, err := labeling.NewHTTPLabeler(cfg)
	if errors.Is(err, labeling.ErrNoEndpoint) {
		logger.Warn().Msg("labeler.endpoint not set; every word will be labeled O")
		return labeling.NewStaticLabeler(), nil
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (a *app) newStore(ctx context.Context) (cache.Store, error) {
	switch a.cfg.Cache.Backend {
	case "memory":
		return cache.NewMemoryStore(), nil
	case "redis":
		rs, err := cache.NewRedisStore(ctx, a.cfg.Cache.RedisURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rs.Close)
		a.logger.Info().Msg("redis result cache connected")
		return rs, nil
	default:
		return nil, nil
	}
}

// groupingOptions returns the configured grouping options with the
// configured convention appended, in a slice the caller owns.
func (a *app) groupingOptions() []entity.Option {
	return append(append([]entity.Option(nil), a.grouping...), entity.WithConvention(a.conv))
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Warn().Err(err).Msg("close failed")
		}
	}
}
