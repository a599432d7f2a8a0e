package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/timzifer/stepgen/config"
	"github.com/timzifer/stepgen/emitter"
	"github.com/timzifer/stepgen/processor"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("stepgen", flag.ContinueOnError)
	flags.SetOutput(stderr)
	cfgPath := flags.String("config", "", "Path to configuration file (.yaml or .cue)")
	strict := flags.Bool("strict", false, "Treat every warning as fatal")
	check := flags.Bool("check", false, "Analyse the diagram and print the schedule without writing output")
	watch := flags.Bool("watch", false, "Regenerate whenever the diagram or configuration changes")
	logLevel := flags.String("log-level", "", "Override the configured log level")
	flags.Usage = func() {
		fmt.Fprintln(stderr, "usage: stepgen [flags] <input.xml> [output.c]")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if flags.NArg() < 1 || flags.NArg() > 2 {
		flags.Usage()
		return 1
	}
	input := flags.Arg(0)
	output := flags.Arg(1)

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			fmt.Fprintf(stderr, "stepgen: failed to load configuration: %v\n", err)
			return 1
		}
		cfg = loaded
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	proc, err := processor.New(ctx,
		processor.WithConfig(cfg),
		processor.WithConfigPath(*cfgPath),
		processor.WithStrict(*strict),
	)
	if err != nil {
		fmt.Fprintf(stderr, "stepgen: %v\n", err)
		return 1
	}
	defer proc.Close()

	switch {
	case *check:
		res, err := proc.Analyze(ctx, input)
		return printReport(stdout, stderr, input, res, err)
	case *watch || cfg.Watch.Enabled:
		if err := proc.Watch(ctx, input, output); err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(stderr, "stepgen: %v\n", err)
			return 1
		}
		return 0
	default:
		if _, err := proc.Generate(ctx, input, output); err != nil {
			fmt.Fprintf(stderr, "stepgen: %v\n", err)
			return 1
		}
		return 0
	}
}

func printReport(stdout, stderr io.Writer, input string, res processor.Result, runErr error) int {
	fmt.Fprintf(stdout, "Diagram %s\n", input)

	fmt.Fprintln(stdout, "  Schedule:")
	if len(res.Schedule) == 0 {
		fmt.Fprintln(stdout, "    <none>")
	}
	for idx, block := range res.Schedule {
		fmt.Fprintf(stdout, "    %2d. %s (SID %d, %s)\n", idx+1, block.Name, block.SID, block.Kind)
	}

	fmt.Fprintln(stdout, "  External ports:")
	if len(res.Ports) == 0 {
		fmt.Fprintln(stdout, "    <none>")
	}
	for _, port := range res.Ports {
		direction := "in"
		if port.Direction == emitter.DirectionOutput {
			direction = "out"
		}
		fmt.Fprintf(stdout, "    - %s -> %s [%s]\n", port.Name, port.Slot, direction)
	}

	fmt.Fprintln(stdout, "  Warnings:")
	if len(res.Warnings) == 0 {
		fmt.Fprintln(stdout, "    <none>")
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(stdout, "    - %s\n", w)
	}
	fmt.Fprintln(stdout)

	if runErr != nil {
		fmt.Fprintln(stdout, "Diagram check completed with errors.")
		fmt.Fprintf(stderr, "stepgen: %v\n", runErr)
		return 1
	}
	fmt.Fprintln(stdout, "Diagram check completed successfully.")
	return 0
}
