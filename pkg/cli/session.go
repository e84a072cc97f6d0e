package cli

import (
	"fmt"
	"os"
	"runtime"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/devicelab-dev/flowdsl/pkg/catalog"
	"github.com/devicelab-dev/flowdsl/pkg/config"
	"github.com/devicelab-dev/flowdsl/pkg/converter"
	"github.com/devicelab-dev/flowdsl/pkg/dialects"
	"github.com/devicelab-dev/flowdsl/pkg/dsl"
	"github.com/devicelab-dev/flowdsl/pkg/logger"
	"github.com/devicelab-dev/flowdsl/pkg/metrics"
)

// session holds everything a command needs: merged configuration, the
// step catalog, the dialect registry and a converter.
type session struct {
	cfg       *config.Config
	home      config.Home
	log       *zap.Logger
	catalog   *catalog.Catalog
	registry  *dsl.Registry
	converter *converter.Converter
	metrics   *metrics.Collector
}

// newSession loads configuration, applies flag overrides (flags win over
// config values) and warms up the catalog.
func newSession(c *cli.Context) (*session, error) {
	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyFlags(c, cfg)

	if err := logger.Init(cfg.LogFile, cfg.LogLevel); err != nil {
		return nil, err
	}
	log := logger.L()

	home := config.ResolveHome(cfg)
	dirs := home.CatalogDirs(cfg.CatalogDirs)
	logger.Debug("home %s, %d catalog directories", home.Dir, len(dirs))
	cat := catalog.New(log, dirs...)
	cat.WarmUp(c.Context)

	m := metrics.NewCollector("flowdsl", log)

	if err := cat.WaitForWarmUp(c.Context); err != nil {
		logger.Close()
		return nil, fmt.Errorf("failed to load step catalog: %w", err)
	}
	reg, err := dialects.NewRegistry(cat, dsl.WithLogger(log), dsl.WithObserver(m))
	if err != nil {
		logger.Close()
		return nil, err
	}
	var ids []string
	for _, s := range reg.Specifications() {
		ids = append(ids, s.Identifier)
	}
	m.SetDialects(ids...)

	return &session{
		cfg:       cfg,
		home:      home,
		log:       log,
		catalog:   cat,
		registry:  reg,
		converter: converter.New(reg, converter.WithLogger(log), converter.WithMetrics(m)),
		metrics:   m,
	}, nil
}

// close exports metrics and flushes the logger.
func (s *session) close() {
	if s.cfg.MetricsFile != "" {
		if err := s.metrics.WriteTextfile(s.cfg.MetricsFile); err != nil {
			logger.Warn("failed to write metrics to %s: %v", s.cfg.MetricsFile, err)
		}
	}
	logger.Close()
}

// hint returns the dialect hint for a command: its --dsl flag, or the
// configured default.
func (s *session) hint(c *cli.Context) string {
	if c.IsSet("dsl") {
		return c.String("dsl")
	}
	return s.cfg.DSL
}

// parallel returns the batch worker limit.
func (s *session) parallel() int {
	if s.cfg.Parallel > 0 {
		return s.cfg.Parallel
	}
	return runtime.GOMAXPROCS(0)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return &config.Config{}, nil
	}
	return config.LoadFromDir(cwd)
}

func applyFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("log-file") {
		cfg.LogFile = c.String("log-file")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.Bool("verbose") {
		cfg.LogLevel = "debug"
	}
	if c.IsSet("catalog-dir") {
		cfg.CatalogDirs = append(cfg.CatalogDirs, c.StringSlice("catalog-dir")...)
	}
	if c.IsSet("metrics-file") {
		cfg.MetricsFile = c.String("metrics-file")
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "warn"
	}
}
