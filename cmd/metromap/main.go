package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/signalsfoundry/metromap/internal/batch"
	"github.com/signalsfoundry/metromap/internal/logging"
	"github.com/signalsfoundry/metromap/internal/observability"
)

// Config holds the process flags.
type Config struct {
	InputPath   string
	OutputPath  string
	MetricsFile string
	EnvFile     string
}

func main() {
	cfg := Config{}
	flag.StringVar(&cfg.InputPath, "input", "", "command file to run (default stdin)")
	flag.StringVar(&cfg.OutputPath, "output", "", "where to write the JSON report (default stdout)")
	flag.StringVar(&cfg.MetricsFile, "metrics-file", "", "write Prometheus metrics in text format to this file after the run")
	flag.StringVar(&cfg.EnvFile, "env", ".env", "optional dotenv file loaded before reading the environment")
	flag.Parse()

	envErr := loadEnvFile(cfg.EnvFile)
	log := logging.NewFromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if envErr != nil {
		log.Warn(ctx, "ignoring env file", logging.String("path", cfg.EnvFile), logging.Err(envErr))
	}

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.Err(err))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdown, log)

	if err := runFiles(ctx, cfg, log); err != nil {
		log.Error(ctx, "batch failed", logging.Err(err))
		observability.ShutdownWithTimeout(context.Background(), shutdown, log)
		os.Exit(1)
	}
}

// loadEnvFile loads path into the environment. A missing file is not an
// error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// runFiles resolves the configured paths and runs the batch.
func runFiles(ctx context.Context, cfg Config, log logging.Logger) error {
	in := io.Reader(os.Stdin)
	if cfg.InputPath != "" {
		f, err := os.Open(cfg.InputPath)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	out := io.Writer(os.Stdout)
	if cfg.OutputPath != "" {
		f, err := os.Create(cfg.OutputPath)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	return run(ctx, cfg, log, in, out)
}

// run executes one batch from in and writes its report to out. A command
// file that cannot be parsed still produces a report carrying the fatal
// error.
func run(ctx context.Context, cfg Config, log logging.Logger, in io.Reader, out io.Writer) error {
	if log == nil {
		log = logging.Noop()
	}
	reg := prometheus.NewRegistry()
	collector, err := observability.NewIndexCollector(reg)
	if err != nil {
		return fmt.Errorf("metrics collector: %w", err)
	}

	b, err := batch.Load(in)
	if err != nil {
		report := &batch.Report{FatalError: err.Error()}
		if werr := report.WriteJSON(out); werr != nil {
			return errors.Join(err, werr)
		}
		return err
	}

	runner := batch.NewRunner(batch.WithLogger(log), batch.WithCollector(collector))
	report, err := runner.Run(ctx, b)
	if err != nil {
		if report == nil {
			report = &batch.Report{}
		}
		report.FatalError = err.Error()
		if werr := report.WriteJSON(out); werr != nil {
			return errors.Join(err, werr)
		}
		return err
	}
	if err := report.WriteJSON(out); err != nil {
		return err
	}

	if cfg.MetricsFile != "" {
		if err := collector.WriteTextfile(cfg.MetricsFile); err != nil {
			return err
		}
		log.Info(ctx, "wrote metrics", logging.String("path", cfg.MetricsFile))
	}
	return nil
}
