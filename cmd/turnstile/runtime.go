package main

import (
	"context"
	"errors"
	"io"
	"time"

	"mercator-hq/turnstile/pkg/cli"
	"mercator-hq/turnstile/pkg/config"
	"mercator-hq/turnstile/pkg/limits"
	"mercator-hq/turnstile/pkg/telemetry/logging"
	"mercator-hq/turnstile/pkg/telemetry/metrics"
	"mercator-hq/turnstile/pkg/telemetry/tracing"
)

// loadConfig loads the configuration named by --config, applies
// environment overrides and the --log-level flag.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, &cli.ConfigError{Field: "config", Message: err.Error()}
	}

	if logLevel != "" {
		cfg.Telemetry.Logging.Level = logLevel
		if err := config.Validate(cfg); err != nil {
			return nil, &cli.ConfigError{Field: "log-level", Message: err.Error()}
		}
	}

	return cfg, nil
}

// outputFormatter resolves the --output flag.
func outputFormatter() (cli.OutputFormat, cli.Formatter, error) {
	format, err := cli.ParseFormat(output)
	if err != nil {
		return "", nil, err
	}
	return format, cli.NewFormatter(format), nil
}

// environment holds the components a command needs to make decisions.
type environment struct {
	cfg       *config.Config
	logger    *logging.Logger
	collector *metrics.Collector
	tracer    *tracing.Tracer
	manager   *limits.Manager
}

// newEnvironment builds the logger, metrics, audit log and manager described
// by cfg. Logs are written to logOut.
func newEnvironment(cfg *config.Config, runID string, logOut io.Writer) (*environment, error) {
	logCfg := logging.ConfigFrom(cfg.Telemetry.Logging)
	logCfg.Writer = logOut

	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	var m *limits.Metrics
	if collector.Enabled() {
		m = limits.NewMetrics(collector.Namespace(), collector.Registry())
	}

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return nil, cli.NewConfigError("telemetry.tracing", err.Error())
	}

	audit, err := limits.OpenAudit(cfg.Audit)
	if err != nil {
		tracer.Shutdown(context.Background())
		return nil, cli.NewConfigError("audit", err.Error())
	}

	managerCfg := limits.ConfigFrom(cfg)
	managerCfg.Audit = audit
	managerCfg.Metrics = m
	managerCfg.Logger = logger
	managerCfg.Tracer = tracer.Tracer()
	managerCfg.RunID = runID

	manager, err := limits.NewManager(managerCfg)
	if err != nil {
		if audit != nil {
			audit.Close()
		}
		tracer.Shutdown(context.Background())
		return nil, cli.NewConfigError("limiter", err.Error())
	}

	return &environment{
		cfg:       cfg,
		logger:    logger,
		collector: collector,
		tracer:    tracer,
		manager:   manager,
	}, nil
}

// Close releases the manager's audit log and flushes pending spans.
func (e *environment) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return errors.Join(e.manager.Close(), e.tracer.Shutdown(ctx))
}
