// Package main implements the entry point for the into pipeline runner.
// It loads a graph definition, wires the operations through the factory
// registry, and executes the graph until completion or a signal.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/hesitationer/into/compound"
	"github.com/hesitationer/into/engine"
	"github.com/hesitationer/into/metric"
	"github.com/hesitationer/into/operation"
	"github.com/hesitationer/into/ops"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "into"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}
	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("Starting into (dataflow pipeline runner)",
		"version", Version,
		"build_time", BuildTime,
		"graph_path", cliCfg.GraphPath)

	eng, err := setupEngine(logger)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(cliCfg.GraphPath)
	if err != nil {
		return fmt.Errorf("read graph file: %w", err)
	}
	if err := eng.Load(data); err != nil {
		return fmt.Errorf("load graph: %w", err)
	}

	validation := eng.Validate()
	if validation.HasErrors() {
		for _, issue := range validation.Errors {
			slog.Error("Graph validation error",
				"type", string(issue.Type),
				"operation", issue.Operation,
				"message", issue.Message)
		}
		return fmt.Errorf("graph %q failed validation", cliCfg.GraphPath)
	}
	if cliCfg.Validate {
		slog.Info("Graph is valid", "graph", cliCfg.GraphPath)
		return nil
	}

	return runWithSignalHandling(eng)
}

// setupEngine creates the registry, the metrics registry, and the engine.
func setupEngine(logger *slog.Logger) (*engine.Engine, error) {
	registry := operation.NewRegistry()
	if err := ops.RegisterAll(registry); err != nil {
		return nil, fmt.Errorf("register operations: %w", err)
	}
	factories := registry.ListFactories()
	slog.Info("Operation factories registered", "count", len(factories), "factories", factories)

	metricsRegistry := metric.NewMetricsRegistry()

	eng := engine.New(compound.New("root"), engine.Options{
		Logger:   logger,
		Metrics:  metricsRegistry,
		Registry: registry,
	})
	return eng, nil
}

// runWithSignalHandling executes the graph; SIGINT and SIGTERM interrupt
// the run through context cancellation.
func runWithSignalHandling(eng *engine.Engine) error {
	signalCtx, signalCancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	slog.Info("Executing graph")
	result := eng.Execute(signalCtx)

	if !result.Success() {
		if result.FailedOperation != "" {
			slog.Error("Graph execution failed",
				"run_id", result.RunID,
				"duration", result.Duration,
				"failed_operation", result.FailedOperation,
				"error", result.Err)
		} else {
			slog.Error("Graph execution failed",
				"run_id", result.RunID,
				"duration", result.Duration,
				"error", result.Err)
		}
		return result.Err
	}

	slog.Info("Graph execution complete",
		"run_id", result.RunID,
		"duration", result.Duration)
	return nil
}
