// Package into provides a dataflow pipeline engine: typed operations
// connected by sockets, executed concurrently, with in-order data and
// control propagation.
//
// # Model
//
// A pipeline is a directed graph of operations. Each operation owns named
// input and output sockets; an output socket fans out to any number of
// input sockets, each with its own FIFO queue. Objects are Variants: a
// tagged container carrying either data (integers, floats, booleans,
// strings, matrices) or a control tag (sync start/end, stop, pause,
// resume). Control tags travel the same queues as data and never overtake
// objects queued before them, which is what makes lifecycle transitions
// deterministic in a concurrent graph.
//
//	┌───────────┐      ┌───────────┐      ┌───────────┐
//	│ Generator │ ───► │   Scale   │ ───► │   Debug   │
//	│ (source)  │      │(transform)│      │  (sink)   │
//	└───────────┘      └───────────┘      └───────────┘
//	   threaded          synchronous        synchronous
//
// Sources run on their own goroutine (threaded). Transforms and sinks may
// run synchronously on the producer's goroutine, with at-most-one
// concurrent step guaranteed per operation, or threaded when they need to
// decouple from a fast producer.
//
// # Lifecycle
//
// Operations move through Stopped, Starting, Running, Pausing, Paused,
// Stopping and Interrupted. Check(reset) validates configuration and
// connections while stopped; Start on a source emits a sync-start tag and
// begins emission; Stop and Pause on a source emit the matching tag, and
// consumers complete the transition only when the tag has flushed through
// their queues behind any pending data. Interrupt aborts immediately,
// discarding queued objects. A failing operation classifies its error,
// stops its downstream and interrupts itself; the engine stops the rest
// of the graph and reports the failing operation by name.
//
// # Packages
//
// Core:
//   - variant: tagged values, control tags, numeric matrices
//   - operation: sockets, flow control, processors, the operation base,
//     typed property tables, the factory registry
//   - compound: nested operation graphs with exposed sockets
//   - engine: execution, YAML graph files, graph validation, metrics
//
// Infrastructure:
//   - errors: classified error handling
//   - metric: Prometheus metrics registry
//   - ops: stock operations (generator, scale, debug, collector, delay,
//     failer, passthrough)
//
// # Usage
//
// Building a graph in code:
//
//	gen := ops.NewGenerator("source")
//	_ = gen.Op().SetProperty("count", 100)
//	scale := ops.NewScale("doubler")
//	_ = scale.Op().SetProperty("factor", 2.0)
//	sink := ops.NewCollector("sink")
//
//	root := compound.New("root")
//	_ = root.AddOperation(gen.Op())
//	_ = root.AddOperation(scale.Op())
//	_ = root.AddOperation(sink.Op())
//	_ = operation.Connect(gen.Op().Output("output"), scale.Op().Input("input"))
//	_ = operation.Connect(scale.Op().Output("output"), sink.Input())
//
//	eng := engine.New(root, engine.Options{})
//	result := eng.Execute(ctx)
//
// Or loading one from YAML:
//
//	registry := operation.NewRegistry()
//	_ = ops.RegisterAll(registry)
//	eng := engine.New(compound.New("root"), engine.Options{Registry: registry})
//	_ = eng.Load(graphYAML)
//	result := eng.Execute(ctx)
//
// The cmd/into binary wraps the YAML path with flags, logging and signal
// handling.
package into
