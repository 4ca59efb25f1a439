package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"credscan/config"
	"credscan/logger"
	"credscan/output"
	"credscan/scanner"
	"credscan/systeminfo"

	"github.com/schollz/progressbar/v3"
)

// Exit codes: clean scan, findings present (for CI gating), hard failure.
const (
	exitClean    = 0
	exitFindings = 1
	exitFailure  = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return exitFailure
	}

	logger.Init(cfg.LogLevel)

	reg, err := scanner.DefaultRegistry(cfg.CustomPatterns)
	if err != nil {
		logger.Errorf("Invalid pattern registry: %v", err)
		return exitFailure
	}

	writer, err := output.New(cfg, systeminfo.Collect())
	if err != nil {
		logger.Errorf("Failed to initialize output: %v", err)
		return exitFailure
	}
	defer writer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	logger.Infof("Scanning %s", strings.Join(cfg.StartPaths, ", "))

	var bar *progressbar.ProgressBar
	progress := func(done int64, total int) {
		if !progressVisible(cfg) {
			return
		}
		if bar == nil {
			bar = newProgressBar(total)
		}
		_ = bar.Add(1)
	}

	result, err := scanner.Run(ctx, cfg, reg, writer, progress)
	if err != nil {
		logger.Errorf("Scan failed: %v", err)
		return exitFailure
	}
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)
	}

	sum := output.Summarize(result.Findings)
	if err := writer.WriteMetrics(result.Metrics, sum); err != nil {
		logger.Warnf("Failed to write metrics record: %v", err)
	}

	output.RenderText(os.Stdout, result.Findings, sum, result.Metrics)

	if result.HasFindings() {
		return exitFindings
	}
	return exitClean
}

func newProgressBar(total int) *progressbar.ProgressBar {
	if total < 0 {
		return progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("Scanning files"),
			progressbar.OptionShowCount(),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionFullWidth(),
		)
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Scanning files"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionFullWidth(),
	)
}

func progressVisible(cfg *config.Config) bool {
	if cfg.NoProgress {
		return false
	}
	value := strings.ToLower(strings.TrimSpace(os.Getenv("CREDSCAN_DISABLE_PROGRESS")))
	return value != "1" && value != "true" && value != "yes" && value != "on"
}

func handleSignals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info("Interrupt signal received. Shutting down...")
	cancel()
}
