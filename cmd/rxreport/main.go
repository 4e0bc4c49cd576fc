// Command rxreport analyses a month of prescribing data against the postcode
// and practice address registers and writes a plain-text report.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"rxcli/internal/config"
	"rxcli/internal/infrastructure"
	"rxcli/internal/pipeline"
	"rxcli/internal/report"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

var errMissingInput = errors.New("missing required input file")

type options struct {
	postcodes     string
	addresses     string
	prescriptions string
	configFile    string
	output        string
	parallel      bool
	print         bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		return exitUsage
	}

	cfg, err := config.LoadFile(opts.configFile)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return exitError
	}
	opts.apply(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Invalid configuration: %v\n", err)
		return exitError
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to initialize logger: %v\n", err)
		return exitError
	}
	defer infrastructure.CloseLogFile()

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		logger.Error("Failed to initialize telemetry", "error", err)
		return exitError
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(ctx); err != nil {
			logger.Warn("Telemetry shutdown failed", "error", err)
		}
	}()

	paths, err := config.GetPaths()
	if err != nil {
		logger.Error("Failed to initialize paths", "error", err)
		return exitError
	}

	runner, err := pipeline.NewRunner(cfg, paths, providers, logger)
	if err != nil {
		logger.Error("Failed to create pipeline", "error", err)
		return exitError
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := runner.Run(ctx)
	if err != nil {
		logger.Error("Analysis failed", "error", err)
		return exitError
	}

	if opts.print {
		if err := report.Write(stdout, result.Summary); err != nil {
			logger.Error("Failed to print report", "error", err)
			return exitError
		}
	}

	logger.Info("Report written",
		"report_file", paths.Resolve(cfg.Output.ReportFile),
		"trace_id", result.TraceID,
		"duration", result.Duration)
	return exitOK
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}

	fs := flag.NewFlagSet(config.AppName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.postcodes, "postcodes", "", "postcode register CSV (required)")
	fs.StringVar(&opts.addresses, "addresses", "", "practice address CSV (required)")
	fs.StringVar(&opts.prescriptions, "prescriptions", "", "prescription CSV (required)")
	fs.StringVar(&opts.configFile, "config", "", "YAML configuration file")
	fs.StringVar(&opts.output, "output", "", "report file (overrides output.report_file)")
	fs.BoolVar(&opts.parallel, "parallel", false, "build the postcode and address lookups concurrently")
	fs.BoolVar(&opts.print, "print", false, "also print the report to stdout")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s -postcodes FILE -addresses FILE -prescriptions FILE [options]\n\n", config.AppName)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %s\n\n", strings.Join(fs.Args(), " "))
		fs.Usage()
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	var missing []string
	if opts.postcodes == "" {
		missing = append(missing, "-postcodes")
	}
	if opts.addresses == "" {
		missing = append(missing, "-addresses")
	}
	if opts.prescriptions == "" {
		missing = append(missing, "-prescriptions")
	}
	if len(missing) > 0 {
		fmt.Fprintf(stderr, "missing required flags: %s\n\n", strings.Join(missing, ", "))
		fs.Usage()
		return nil, fmt.Errorf("%w: %s", errMissingInput, strings.Join(missing, ", "))
	}

	return opts, nil
}

// apply writes the command-line overrides into cfg.
func (o *options) apply(cfg *config.Config) {
	cfg.Input.PostcodeFile = o.postcodes
	cfg.Input.AddressFile = o.addresses
	cfg.Input.PrescriptionFile = o.prescriptions
	if o.output != "" {
		cfg.Output.ReportFile = o.output
	}
	if o.parallel {
		cfg.Pipeline.ParallelLookups = true
	}
}
