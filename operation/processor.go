package operation

import (
	"errors"
	"sync/atomic"
)

// processor is the execution strategy bound to an operation. start is
// called once per run, notify after every input delivery, interrupt to
// wake a blocked loop.
type processor interface {
	start()
	notify()
	interrupt()
}

func newProcessor(op *DefaultOperation) processor {
	if op.kind == Synchronous {
		return &syncProcessor{op: op}
	}
	return &threadedProcessor{
		op:      op,
		pending: make(chan struct{}, 1),
		quit:    make(chan struct{}),
	}
}

// threadedProcessor owns one goroutine for the operation. The loop blocks
// until the flow controller reports readiness, runs one step, repeats.
type threadedProcessor struct {
	op      *DefaultOperation
	pending chan struct{}
	quit    chan struct{}
	stopped atomic.Bool
}

func (p *threadedProcessor) start() {
	go p.run()
}

func (p *threadedProcessor) notify() {
	select {
	case p.pending <- struct{}{}:
	default:
	}
}

func (p *threadedProcessor) interrupt() {
	if p.stopped.CompareAndSwap(false, true) {
		close(p.quit)
	}
}

func (p *threadedProcessor) run() {
	op := p.op
	if op.isSource() {
		p.runSource()
		return
	}

	for {
		progressed := op.runStep()
		if op.State().Terminal() {
			return
		}
		if progressed {
			continue
		}
		select {
		case <-p.pending:
		case <-p.quit:
			return
		case <-op.stateChanged():
			// Stop or pause requests re-evaluate readiness.
		}
	}
}

// runSource drives a pure source: one Process call per loop iteration
// while running, suspended while paused, done on a terminal state.
func (p *threadedProcessor) runSource() {
	op := p.op
	for {
		switch st := op.State(); {
		case st == StateRunning:
			op.stepMu.Lock()
			if op.State() != StateRunning {
				op.stepMu.Unlock()
				continue
			}
			err := op.body.Process(nil)
			op.stepMu.Unlock()
			if err != nil {
				if errors.Is(err, Finished) {
					_ = op.Stop()
					return
				}
				op.fail(err)
				return
			}

		case st.Terminal():
			return

		default: // Starting, Pausing, Paused
			select {
			case <-op.stateChanged():
			case <-p.quit:
				return
			}
		}
	}
}

// syncProcessor has no goroutine of its own. Each delivery drives the
// operation inline on the producer's thread. The busy flag guarantees at
// most one concurrent step and makes re-entrant deliveries from within a
// step (cycles of synchronous operations) safe: they queue and return, and
// the drain loop picks them up.
type syncProcessor struct {
	op   *DefaultOperation
	busy atomic.Bool
}

func (p *syncProcessor) start() {}

func (p *syncProcessor) interrupt() {}

func (p *syncProcessor) notify() {
	op := p.op
	for {
		if !p.busy.CompareAndSwap(false, true) {
			return
		}
		for !op.State().Terminal() && op.runStep() {
		}
		p.busy.Store(false)

		// Re-check: a delivery that raced with the drain above would
		// otherwise be stranded.
		if op.State().Terminal() || !op.hasPending() {
			return
		}
	}
}
