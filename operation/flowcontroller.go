package operation

import (
	"github.com/hesitationer/into/variant"
)

// FlowState is the outcome of a readiness check.
type FlowState int

const (
	// FlowIdle means nothing can be done with the queued objects yet.
	FlowIdle FlowState = iota
	// FlowProcess means a full input set was collected for one step.
	FlowProcess
	// FlowControl means a control tag reached quiescence on every
	// connected input and must be propagated.
	FlowControl
)

// Step is the input set collected for one processing step. Objects are
// keyed by input socket name; Group identifies the synchronization group
// the step belongs to.
type Step struct {
	Group   int
	Objects map[string]variant.Variant
}

// Object returns the variant collected for the named input socket.
func (s *Step) Object(input string) variant.Variant {
	if s == nil {
		return variant.Variant{}
	}
	return s.Objects[input]
}

// FlowController inspects the queued objects on an operation's connected
// inputs and decides whether a processing step may run now. Prepare is
// only ever called by the operation's processor, one call at a time.
//
// Control tags take priority over data readiness: a tag acts as soon as it
// reaches the head of every connected input queue, regardless of whether
// any data group is complete. A tag never overtakes data queued ahead of
// it on the same connection.
type FlowController interface {
	Prepare() (FlowState, *Step, variant.Tag)
}

// defaultController implements the grouped readiness protocol for an
// arbitrary number of connected inputs.
type defaultController struct {
	inputs []*InputSocket // connected inputs only
	groups map[int][]*InputSocket
	order  []int // group ids in first-seen socket order
}

// newDefaultController builds a controller over the connected inputs of an
// operation. Unconnected optional sockets take no part in the protocol.
func newDefaultController(connected []*InputSocket) FlowController {
	if len(connected) == 1 {
		return &oneInputController{input: connected[0]}
	}
	c := &defaultController{
		inputs: connected,
		groups: make(map[int][]*InputSocket),
	}
	for _, in := range connected {
		g := in.Group()
		if _, seen := c.groups[g]; !seen {
			c.order = append(c.order, g)
		}
		c.groups[g] = append(c.groups[g], in)
	}
	return c
}

func (c *defaultController) Prepare() (FlowState, *Step, variant.Tag) {
	if len(c.inputs) == 0 {
		return FlowIdle, nil, variant.Invalid
	}

	// Control barrier: all connected inputs show the same tag at head.
	if tag, ok := c.controlBarrier(); ok {
		for _, in := range c.inputs {
			in.pop()
		}
		return FlowControl, nil, tag
	}

	// Data readiness per group: every non-optional socket in the group
	// has a data object at its head. Optional sockets contribute when
	// they happen to have data queued.
	for _, g := range c.order {
		if step, ok := c.prepareGroup(g); ok {
			return FlowProcess, step, variant.Invalid
		}
	}
	return FlowIdle, nil, variant.Invalid
}

func (c *defaultController) controlBarrier() (variant.Tag, bool) {
	var tag variant.Tag
	for i, in := range c.inputs {
		v, ok := in.head()
		if !ok || !v.IsControl() {
			return variant.Invalid, false
		}
		if i == 0 {
			tag = v.Tag()
		} else if v.Tag() != tag {
			return variant.Invalid, false
		}
	}
	return tag, true
}

func (c *defaultController) prepareGroup(g int) (*Step, bool) {
	sockets := c.groups[g]

	required := 0
	for _, in := range sockets {
		if in.Optional() {
			continue
		}
		required++
		v, ok := in.head()
		if !ok || v.IsControl() {
			return nil, false
		}
	}
	if required == 0 {
		// A group of only optional sockets is ready when any of them
		// has data.
		any := false
		for _, in := range sockets {
			if v, ok := in.head(); ok && !v.IsControl() {
				any = true
				break
			}
		}
		if !any {
			return nil, false
		}
	}

	step := &Step{Group: g, Objects: make(map[string]variant.Variant, len(sockets))}
	for _, in := range sockets {
		v, ok := in.head()
		if !ok || v.IsControl() {
			continue // optional socket without data this step
		}
		in.pop()
		step.Objects[in.Name()] = v
	}
	return step, true
}

// oneInputController is the fast path for the most common shape: exactly
// one connected input.
type oneInputController struct {
	input *InputSocket
}

func (c *oneInputController) Prepare() (FlowState, *Step, variant.Tag) {
	v, ok := c.input.head()
	if !ok {
		return FlowIdle, nil, variant.Invalid
	}
	c.input.pop()
	if v.IsControl() {
		return FlowControl, nil, v.Tag()
	}
	step := &Step{
		Group:   c.input.Group(),
		Objects: map[string]variant.Variant{c.input.Name(): v},
	}
	return FlowProcess, step, variant.Invalid
}
