package telemetry

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Generation results reported through IncGeneration.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Collector captures telemetry events emitted by the generator.
//
// Hooks run inline with the pipeline so implementations should return
// quickly.
type Collector interface {
	IncGeneration(result string)
	ObserveDiagram(blocks, connections int)
	IncWarning(code string)
	IncRegeneration(file string)
}

type noopCollector struct{}

// Noop returns a collector that discards all metrics.
func Noop() Collector {
	return noopCollector{}
}

func (noopCollector) IncGeneration(string)    {}
func (noopCollector) ObserveDiagram(int, int) {}
func (noopCollector) IncWarning(string)       {}
func (noopCollector) IncRegeneration(string)  {}

// PrometheusCollector exposes generator metrics via Prometheus.
type PrometheusCollector struct {
	generations   *prometheus.CounterVec
	warnings      *prometheus.CounterVec
	regenerations *prometheus.CounterVec
	blocks        prometheus.Gauge
	connections   prometheus.Gauge

	gatherer prometheus.Gatherer
}

// NewPrometheusCollector registers the generator metrics with reg. A nil
// registerer selects the default registry. Metrics that are already
// registered are reused so several collectors can share one registry.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	var gatherer prometheus.Gatherer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
		gatherer = prometheus.DefaultGatherer
	} else if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	generations, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stepgen_generations_total",
		Help: "Number of generation runs by result.",
	}, []string{"result"}))
	if err != nil {
		return nil, err
	}
	warnings, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stepgen_warnings_total",
		Help: "Number of diagram warnings by code.",
	}, []string{"code"}))
	if err != nil {
		return nil, err
	}
	regenerations, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stepgen_regenerations_total",
		Help: "Number of watch-mode regenerations triggered per changed file.",
	}, []string{"file"}))
	if err != nil {
		return nil, err
	}
	blocks, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "stepgen_diagram_blocks",
		Help: "Number of blocks in the last loaded diagram.",
	}))
	if err != nil {
		return nil, err
	}
	connections, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "stepgen_diagram_connections",
		Help: "Number of connections in the last loaded diagram.",
	}))
	if err != nil {
		return nil, err
	}

	return &PrometheusCollector{
		generations:   generations,
		warnings:      warnings,
		regenerations: regenerations,
		blocks:        blocks,
		connections:   connections,
		gatherer:      gatherer,
	}, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		var zero T
		return zero, err
	}
	return c, nil
}

// IncGeneration counts a finished generation run.
func (p *PrometheusCollector) IncGeneration(result string) {
	if p == nil || p.generations == nil {
		return
	}
	p.generations.WithLabelValues(result).Inc()
}

// ObserveDiagram records the size of the last loaded diagram.
func (p *PrometheusCollector) ObserveDiagram(blocks, connections int) {
	if p == nil || p.blocks == nil || p.connections == nil {
		return
	}
	p.blocks.Set(float64(blocks))
	p.connections.Set(float64(connections))
}

// IncWarning counts a diagram warning.
func (p *PrometheusCollector) IncWarning(code string) {
	if p == nil || p.warnings == nil {
		return
	}
	p.warnings.WithLabelValues(code).Inc()
}

// IncRegeneration increments the counter for the file that triggered a rebuild.
func (p *PrometheusCollector) IncRegeneration(file string) {
	if p == nil || p.regenerations == nil {
		return
	}
	p.regenerations.WithLabelValues(file).Inc()
}

// WriteTextfile dumps the registry in the node-exporter textfile format.
func (p *PrometheusCollector) WriteTextfile(path string) error {
	if p == nil || p.gatherer == nil {
		return fmt.Errorf("telemetry registry cannot be gathered")
	}
	if err := prometheus.WriteToTextfile(path, p.gatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
