package processor

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/timzifer/stepgen/config"
	"github.com/timzifer/stepgen/telemetry"
)

// WithLogger provides a custom logger instance for the processor. The
// logging section of the configuration is ignored in that case.
func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *settings) error {
		if cfg == nil {
			return nil
		}
		cfg.logger = logger
		cfg.customLogger = true
		return nil
	}
}

// WithConfigPath loads the configuration from path. Watch mode reloads it
// whenever the file changes.
func WithConfigPath(path string) Option {
	return func(cfg *settings) error {
		if cfg == nil {
			return nil
		}
		cfg.configPath = strings.TrimSpace(path)
		return nil
	}
}

// WithConfig supplies an already loaded configuration instance.
func WithConfig(cfgData *config.Config) Option {
	return func(cfg *settings) error {
		if cfg == nil {
			return nil
		}
		cfg.config = cfgData
		return nil
	}
}

// WithStrict turns every warning into a fatal error regardless of the
// lint.strict setting.
func WithStrict(strict bool) Option {
	return func(cfg *settings) error {
		if cfg == nil {
			return nil
		}
		cfg.strict = strict
		return nil
	}
}

// WithTelemetry injects a collector instance overriding the default configuration-based behaviour.
func WithTelemetry(collector telemetry.Collector) Option {
	return func(cfg *settings) error {
		if cfg == nil {
			return nil
		}
		if collector == nil {
			collector = telemetry.Noop()
		}
		cfg.telemetry = collector
		cfg.telemetryProvided = true
		return nil
	}
}
