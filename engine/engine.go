// Package engine provides the root orchestration over one compound graph:
// execute with failure aggregation, lifecycle fan-out, state waiting, and
// YAML persistence of graph topology and per-operation configuration.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hesitationer/into/compound"
	"github.com/hesitationer/into/errors"
	"github.com/hesitationer/into/metric"
	"github.com/hesitationer/into/operation"
)

// Options carries the explicit context an engine is constructed with:
// logger, metrics and the operation registry. There are no process-wide
// singletons; two engines in one process are fully independent.
type Options struct {
	Logger   *slog.Logger
	Metrics  *metric.MetricsRegistry
	Registry *operation.Registry
}

// Engine is a thin coordinator over one root compound.
type Engine struct {
	root            *compound.Compound
	logger          *slog.Logger
	metrics         *engineMetrics
	metricsRegistry *metric.MetricsRegistry
	registry        *operation.Registry

	// opTypes remembers the factory type of each loaded operation so
	// Save can round-trip the graph definition.
	opTypes map[string]string
}

// New creates an engine owning the given root compound. A nil root gets
// an empty compound named "root".
func New(root *compound.Compound, opts Options) *Engine {
	if root == nil {
		root = compound.New("root")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	root.SetLogger(logger)

	e := &Engine{
		root:     root,
		logger:   logger.With("engine", root.Name()),
		metrics:  newEngineMetrics(opts.Metrics),
		registry: opts.Registry,
		opTypes:  make(map[string]string),
	}
	e.metricsRegistry = opts.Metrics

	// Failure cascade: the first interrupted child flips the reduced
	// state; the remaining siblings are told to stop gracefully. Runs
	// off the listener goroutine so no operation lock is held.
	root.AddStateListener(func(op operation.Operation, old, new operation.State) {
		if new == operation.StateInterrupted {
			go func() { _ = e.root.Stop() }()
		}
	})
	return e
}

// Root returns the root compound.
func (e *Engine) Root() *compound.Compound { return e.root }

// Result is the aggregated outcome of one Execute call.
type Result struct {
	RunID    uuid.UUID
	Duration time.Duration
	Err      error
	// FailedOperation names the operation whose error is surfaced,
	// when the error carries one.
	FailedOperation string
}

// Success reports whether every operation reached the stopped state
// without error.
func (r Result) Success() bool { return r.Err == nil }

// Execute validates the graph, starts every operation, and blocks until
// the whole graph reaches a terminal state or ctx is canceled (which
// interrupts the graph). The first failure captured anywhere in the graph
// is surfaced with the failing operation's name.
func (e *Engine) Execute(ctx context.Context) (result Result) {
	result = Result{RunID: uuid.New()}
	start := time.Now()
	defer func() {
		result.Duration = time.Since(start)
		e.metrics.recordExecute(e.root.Name(), result.Success(), result.Duration)
	}()

	e.logger.Info("executing graph", "run_id", result.RunID.String())

	if issues := e.Validate(); issues.HasErrors() {
		result.Err = errors.WrapConfig(issues.firstError(), e.root.Name(), "Execute", "graph validation")
		return result
	}

	e.instrument(e.root)
	if err := e.root.Check(true); err != nil {
		result.Err = err
		return result
	}
	if err := e.root.Start(); err != nil {
		result.Err = err
		return result
	}

	e.metrics.runStarted()
	defer e.metrics.runFinished()

	done := make(chan struct{})
	go func() {
		e.root.WaitIdle(-1)
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		e.logger.Warn("execution canceled, interrupting graph")
		e.root.Interrupt()
		<-done
	}

	result.Err = e.root.Err()
	if result.Err == nil && ctx.Err() != nil {
		result.Err = errors.WrapRuntime(ctx.Err(), e.root.Name(), "Execute", "run")
	}
	if result.Err != nil {
		result.FailedOperation = errors.FailingOperation(result.Err)
		e.logger.Error("execution failed",
			"run_id", result.RunID.String(),
			"operation", result.FailedOperation,
			"error", result.Err)
	} else {
		e.logger.Info("execution finished", "run_id", result.RunID.String())
	}
	return result
}

// Wait blocks until the root compound reaches the target state.
func (e *Engine) Wait(target operation.State, timeout time.Duration) bool {
	return e.root.Wait(target, timeout)
}

// instrument hands the engine logger and metrics to every leaf operation
// before Check wires the socket hooks.
func (e *Engine) instrument(c *compound.Compound) {
	for _, op := range c.Operations() {
		switch o := op.(type) {
		case *operation.DefaultOperation:
			o.SetLogger(e.logger)
			o.SetMetrics(e.metricsRegistry)
		case *compound.Compound:
			o.SetLogger(e.logger)
			e.instrument(o)
		}
	}
}
