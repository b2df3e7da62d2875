// Command forcecal extracts the principal axes of a two-sensor force plate
// recording, plots both sensors and writes <test>_calibration.csv.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/banshee-data/forcecal/internal/calibration"
	"github.com/banshee-data/forcecal/internal/config"
	"github.com/banshee-data/forcecal/internal/version"
)

// parseCSVFloatSlice parses a comma-separated list of floats
func parseCSVFloatSlice(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float '%s': %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

type cliOptions struct {
	cfg         *config.Config
	showVersion bool
}

// parseArgs loads the layered config and applies any flags set explicitly on
// the command line, so unset flags never mask file or environment values.
func parseArgs(args []string, stderr io.Writer) (*cliOptions, error) {
	fs := flag.NewFlagSet("forcecal", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		configPath        = fs.String("config", "", "YAML config file (default $"+config.ConfigEnv+")")
		input             = fs.String("input", "", "Raw 13-column sensor recording (CSV)")
		outputDir         = fs.String("output-dir", "", "Directory for the report and plots (default calibration)")
		testID            = fs.String("test", "", "Test identifier used to name the outputs")
		imageBase         = fs.String("image-base", "", "Path prefix for plots (default <output-dir>/<test>)")
		ref               = fs.String("ref", "", "Applied force direction as x,y,z")
		channel           = fs.String("channel", "", "Columns to analyse: force or moment")
		display           = fs.Bool("display", false, "Open interactive views instead of saving images")
		noPlots           = fs.Bool("no-plots", false, "Skip plotting")
		includeMagnitudes = fs.Bool("include-magnitudes", false, "Append singular values to the report")
		arrowScale        = fs.Float64("arrow-scale", 0, "Arrow length as a multiple of the cloud extent (default 2)")
		dbPath            = fs.String("db", "", "SQLite database recording run history")
		metricsFile       = fs.String("metrics-file", "", "Write Prometheus metrics to this textfile")
		showVersion       = fs.Bool("version", false, "Print version and exit")
	)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if *showVersion {
		return &cliOptions{showVersion: true}, nil
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}

	var flagErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			cfg.Input = *input
		case "output-dir":
			cfg.OutputDir = *outputDir
		case "test":
			cfg.TestID = *testID
		case "image-base":
			cfg.ImageBase = *imageBase
		case "ref":
			vals, err := parseCSVFloatSlice(*ref)
			if err != nil {
				flagErr = fmt.Errorf("-ref: %w", err)
				return
			}
			if len(vals) != 3 {
				flagErr = fmt.Errorf("-ref: expected x,y,z, got %d values", len(vals))
				return
			}
			cfg.Reference = vals
		case "channel":
			cfg.Channel = *channel
		case "display":
			cfg.Display = *display
		case "no-plots":
			cfg.NoPlots = *noPlots
		case "include-magnitudes":
			cfg.IncludeMagnitudes = *includeMagnitudes
		case "arrow-scale":
			cfg.ArrowScale = *arrowScale
		case "db":
			cfg.DBPath = *dbPath
		case "metrics-file":
			cfg.MetricsFile = *metricsFile
		}
	})
	if flagErr != nil {
		return nil, flagErr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cliOptions{cfg: cfg}, nil
}

func main() {
	opts, err := parseArgs(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("forcecal: %v", err)
	}
	if opts.showVersion {
		fmt.Printf("forcecal %s\n", version.String())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out, err := calibration.Run(ctx, opts.cfg, calibration.Deps{})
	if err != nil {
		log.Fatalf("calibration failed: %v", err)
	}
	log.Printf("run %s complete: report %s", out.RunID, out.Report)
	for _, img := range out.Images {
		log.Printf("  plot %s", img)
	}
}
