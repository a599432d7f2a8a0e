package processor

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/timzifer/stepgen/config"
	"github.com/timzifer/stepgen/telemetry"
)

type textfileWriter interface {
	WriteTextfile(path string) error
}

func newTelemetryCollector(cfg config.TelemetryConfig) (telemetry.Collector, error) {
	if !cfg.Enabled {
		return telemetry.Noop(), nil
	}
	reg := prometheus.DefaultRegisterer
	if cfg.Textfile != "" {
		// A private registry keeps runtime metrics out of the textfile.
		reg = prometheus.NewRegistry()
	}
	collector, err := telemetry.NewPrometheusCollector(reg)
	if err != nil {
		return nil, err
	}
	return collector, nil
}

func (p *Processor) flushTelemetry(cfg *config.Config) {
	if cfg.Telemetry.Textfile == "" {
		return
	}
	writer, ok := p.collector.(textfileWriter)
	if !ok {
		return
	}
	if err := writer.WriteTextfile(cfg.Telemetry.Textfile); err != nil {
		p.log().Error().Err(err).Str("path", cfg.Telemetry.Textfile).Msg("failed to write metrics textfile")
	}
}
