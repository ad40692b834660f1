// Package ops provides the stock leaf operations shipped with the engine.
// They implement the operation.Body contract and double as reference
// implementations for plugin authors: sources, transforms and sinks with
// typed property tables, usable from code or from YAML graph definitions.
package ops

import (
	"golang.org/x/time/rate"

	"github.com/hesitationer/into/operation"
	"github.com/hesitationer/into/variant"
)

// Generator is a pure source emitting consecutive integers, optionally
// throttled to a configured rate. A count of zero emits forever (until
// stopped); a positive count ends the run after that many objects.
type Generator struct {
	op  *operation.DefaultOperation
	out *operation.OutputSocket

	count   int64
	perSec  float64
	n       int64
	limiter *rate.Limiter
}

// NewGenerator creates a generator source with one output socket "output".
func NewGenerator(name string) *Generator {
	g := &Generator{}
	g.out = operation.NewOutput("output")
	g.op = operation.NewDefault(name, operation.Threaded, g, nil,
		[]*operation.OutputSocket{g.out})
	return g
}

// Op returns the underlying operation.
func (g *Generator) Op() *operation.DefaultOperation { return g.op }

// Properties returns the property table.
func (g *Generator) Properties() operation.PropertyMap {
	return operation.PropertyMap{
		"count": operation.IntProperty("count",
			"Number of objects to emit; 0 emits until stopped", &g.count),
		"rate": operation.FloatProperty("rate",
			"Maximum objects per second; 0 disables throttling", &g.perSec),
	}
}

// Check validates configuration and rebuilds the rate limiter.
func (g *Generator) Check(reset bool) error {
	if reset {
		g.n = 0
	}
	if g.perSec > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(g.perSec), 1)
	} else {
		g.limiter = nil
	}
	return nil
}

// Process emits one integer per call. Called with a nil step by the
// threaded processor loop.
func (g *Generator) Process(_ *operation.Step) error {
	if g.count > 0 && g.n >= g.count {
		return operation.Finished
	}
	if g.limiter != nil {
		if err := g.limiter.Wait(g.op.RunContext()); err != nil {
			// Run context canceled: the lifecycle already decided the
			// outcome, nothing to report.
			return nil
		}
	}
	if err := g.out.Emit(variant.NewInt(g.n)); err != nil {
		return err
	}
	g.n++
	return nil
}
