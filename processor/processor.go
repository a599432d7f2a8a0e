package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/timzifer/stepgen/config"
	"github.com/timzifer/stepgen/diagram"
	"github.com/timzifer/stepgen/emitter"
	"github.com/timzifer/stepgen/internal/logging"
	"github.com/timzifer/stepgen/internal/reload"
	"github.com/timzifer/stepgen/lint"
	"github.com/timzifer/stepgen/scheduler"
	"github.com/timzifer/stepgen/schematic"
	"github.com/timzifer/stepgen/telemetry"
)

// Option configures the processor during construction.
type Option func(*settings) error

type settings struct {
	config            *config.Config
	configPath        string
	logger            zerolog.Logger
	customLogger      bool
	telemetry         telemetry.Collector
	telemetryProvided bool
	strict            bool
}

// Processor runs the load, lint, schedule and emit pipeline for one
// configuration.
type Processor struct {
	mu sync.Mutex

	config     *config.Config
	configPath string
	strict     bool

	collector telemetry.Collector

	customLogger bool
	logger       zerolog.Logger
	cleanup      func()

	watching bool
}

// ScheduledBlock describes one entry of the execution order.
type ScheduledBlock struct {
	SID  int
	Name string
	Kind diagram.Kind
}

// Result summarises one pipeline run.
type Result struct {
	// Order is the execution order of the blocks by SID.
	Order []int
	// Schedule carries the same order with block names and kinds.
	Schedule []ScheduledBlock
	// Warnings holds loader and lint warnings that survived lint.disabled.
	Warnings []diagram.Warning
	// Ports is the external port table of the generated code.
	Ports []emitter.ExtPort
	// Lines is the number of emitted lines.
	Lines int
	// Output is the file the artifact was written to. Empty for Analyze.
	Output string
}

// New constructs a processor with the supplied options. Without WithConfig
// or WithConfigPath the built-in defaults are used.
func New(ctx context.Context, opts ...Option) (*Processor, error) {
	if ctx != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}

	cfg := settings{
		logger:    zerolog.Nop(),
		telemetry: telemetry.Noop(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		if cfg.configPath != "" {
			loaded, err := config.Load(cfg.configPath)
			if err != nil {
				return nil, fmt.Errorf("load configuration: %w", err)
			}
			cfg.config = loaded
		} else {
			cfg.config = config.Default()
		}
	}
	if err := cfg.config.Validate(); err != nil {
		return nil, fmt.Errorf("validate configuration: %w", err)
	}

	if !cfg.telemetryProvided {
		collector, err := newTelemetryCollector(cfg.config.Telemetry)
		if err != nil {
			fmt.Fprintf(os.Stderr, "telemetry disabled: %v\n", err)
			cfg.telemetry = telemetry.Noop()
		} else {
			cfg.telemetry = collector
		}
	}

	proc := &Processor{
		configPath:   cfg.configPath,
		strict:       cfg.strict,
		collector:    cfg.telemetry,
		customLogger: cfg.customLogger,
		logger:       cfg.logger,
		cleanup:      func() {},
	}
	if err := proc.applyConfig(cfg.config); err != nil {
		return nil, err
	}
	return proc, nil
}

// Config returns the configuration currently in effect.
func (p *Processor) Config() *config.Config {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.config
}

// Generate converts the schematic at input into C source and writes it to
// output, falling back to output.path from the configuration. Nothing is
// written when any stage fails.
func (p *Processor) Generate(ctx context.Context, input, output string) (Result, error) {
	cfg, logger := p.snapshot()
	res, artifact, err := p.run(ctx, cfg, logger, input)
	if err == nil {
		if output == "" {
			output = cfg.Output.Path
		}
		if output == "" {
			output = config.DefaultOutputPath
		}
		if err = artifact.WriteFile(output); err == nil {
			res.Output = output
			logger.Info().Str("input", input).Str("output", output).Int("lines", res.Lines).Int("blocks", len(res.Order)).Msg("step function generated")
		}
	}
	p.finish(cfg, err)
	return res, err
}

// Analyze runs every stage of Generate except persisting the artifact. The
// result carries the warnings found so far even when an error is returned.
func (p *Processor) Analyze(ctx context.Context, input string) (Result, error) {
	cfg, logger := p.snapshot()
	res, _, err := p.run(ctx, cfg, logger, input)
	p.finish(cfg, err)
	return res, err
}

func (p *Processor) run(ctx context.Context, cfg *config.Config, logger zerolog.Logger, input string) (Result, *emitter.Artifact, error) {
	var res Result
	if err := ctx.Err(); err != nil {
		return res, nil, err
	}

	g, err := schematic.LoadFile(input)
	if err != nil {
		return res, nil, fmt.Errorf("load %s: %w", input, err)
	}
	p.collector.ObserveDiagram(g.Len(), g.Connections())
	logger.Debug().Str("input", input).Int("blocks", g.Len()).Int("connections", g.Connections()).Msg("diagram loaded")

	res.Warnings = lint.Check(g, cfg)
	for _, w := range res.Warnings {
		p.collector.IncWarning(w.Code)
		logger.Warn().Str("code", w.Code).Int("sid", w.SID).Msg(w.Message)
	}
	if err := lint.Enforce(res.Warnings, p.strict || cfg.Lint.Strict); err != nil {
		return res, nil, err
	}
	if err := ctx.Err(); err != nil {
		return res, nil, err
	}

	order, err := scheduler.Order(g)
	if err != nil {
		return res, nil, fmt.Errorf("schedule: %w", err)
	}
	res.Order = order
	res.Schedule = make([]ScheduledBlock, 0, len(order))
	for _, sid := range order {
		if block, ok := g.Block(sid); ok {
			res.Schedule = append(res.Schedule, ScheduledBlock{SID: sid, Name: block.Name, Kind: block.Kind})
		}
	}
	logger.Debug().Ints("order", order).Msg("blocks scheduled")

	artifact, err := emitter.Generate(g, order, emitter.Options{
		Prefix:   cfg.Output.Prefix,
		Header:   cfg.Output.Header,
		Includes: cfg.Output.Includes,
	})
	if err != nil {
		return res, nil, fmt.Errorf("emit: %w", err)
	}
	res.Lines = artifact.Len()
	if res.Ports, err = emitter.ExtPorts(g); err != nil {
		return res, nil, fmt.Errorf("emit: %w", err)
	}
	logger.Debug().Int("lines", res.Lines).Int("ports", len(res.Ports)).Msg("step function rendered")
	return res, artifact, nil
}

func (p *Processor) finish(cfg *config.Config, err error) {
	if err != nil {
		p.collector.IncGeneration(telemetry.ResultFailure)
	} else {
		p.collector.IncGeneration(telemetry.ResultSuccess)
	}
	p.flushTelemetry(cfg)
}

// Watch generates once and then regenerates whenever the schematic or the
// configuration file changes, until ctx is cancelled. Failed runs are
// logged and do not stop the loop.
func (p *Processor) Watch(ctx context.Context, input, output string) error {
	p.mu.Lock()
	if p.watching {
		p.mu.Unlock()
		return errors.New("processor already watching")
	}
	p.watching = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.watching = false
		p.mu.Unlock()
	}()

	if _, err := p.Generate(ctx, input, output); err != nil {
		p.log().Error().Err(err).Msg("generation failed")
	}

	cfg := p.Config()
	watcher, err := reload.NewWatcher(input, cfg)
	if err != nil {
		return fmt.Errorf("watch %s: %w", input, err)
	}
	interval := cfg.WatchInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	p.log().Info().Strs("files", watcher.Files()).Dur("interval", interval).Msg("watching for changes")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			changes, err := watcher.Check()
			if err != nil {
				p.log().Error().Err(err).Msg("failed to check for changes")
				continue
			}
			if len(changes) == 0 {
				continue
			}
			for _, file := range changes {
				p.collector.IncRegeneration(file)
			}
			p.log().Info().Strs("files", changes).Msg("change detected")

			if p.configChanged(changes) {
				if err := p.reloadConfig(); err != nil {
					p.log().Error().Err(err).Msg("failed to reload configuration, keeping previous one")
				}
			}
			cfg = p.Config()
			if next := cfg.WatchInterval(); next != interval {
				interval = next
				ticker.Reset(interval)
			}
			if err := watcher.Update(input, cfg); err != nil {
				p.log().Error().Err(err).Msg("failed to update watcher")
			}

			if _, err := p.Generate(ctx, input, output); err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				p.log().Error().Err(err).Msg("generation failed")
			}
		}
	}
}

// Close releases resources managed by the processor.
func (p *Processor) Close() {
	p.mu.Lock()
	cleanup := p.cleanup
	p.cleanup = func() {}
	p.mu.Unlock()
	cleanup()
}

func (p *Processor) configChanged(changes []string) bool {
	for _, source := range config.SourceFiles(p.Config()) {
		for _, file := range changes {
			if file == source {
				return true
			}
		}
	}
	return false
}

func (p *Processor) reloadConfig() error {
	if p.configPath == "" {
		return nil
	}
	cfg, err := config.Load(p.configPath)
	if err != nil {
		return err
	}
	return p.applyConfig(cfg)
}

func (p *Processor) applyConfig(cfg *config.Config) error {
	if cfg == nil {
		return errors.New("config must not be nil")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.customLogger {
		logger, cleanup, err := logging.Setup(cfg.Logging)
		if err != nil {
			return err
		}
		p.cleanup()
		p.logger = logger
		p.cleanup = cleanup
	}
	p.config = cfg
	return nil
}

func (p *Processor) snapshot() (*config.Config, zerolog.Logger) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.config, p.logger
}

func (p *Processor) log() *zerolog.Logger {
	p.mu.Lock()
	defer p.mu.Unlock()
	logger := p.logger
	return &logger
}
