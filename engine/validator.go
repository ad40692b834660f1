package engine

import (
	"errors"
	"fmt"

	"github.com/hesitationer/into/compound"
	"github.com/hesitationer/into/operation"
)

// IssueType classifies a validation finding.
type IssueType string

// Validation issue types.
const (
	IssueUnconnectedInput IssueType = "unconnected_input"
	IssueSyncSource       IssueType = "synchronous_source"
	IssueOrphan           IssueType = "orphan_operation"
	IssueCycle            IssueType = "cycle"
)

// ValidationIssue is one finding about the graph.
type ValidationIssue struct {
	Type      IssueType
	Operation string
	Message   string
}

// ValidationResult aggregates findings from one validation pass. Errors
// block execution; warnings do not.
type ValidationResult struct {
	Errors   []ValidationIssue
	Warnings []ValidationIssue
}

// HasErrors reports whether execution must be refused.
func (r *ValidationResult) HasErrors() bool {
	return r != nil && len(r.Errors) > 0
}

func (r *ValidationResult) firstError() error {
	if !r.HasErrors() {
		return nil
	}
	first := r.Errors[0]
	return errors.New(first.Message)
}

// Validate inspects the whole graph without starting it. It reports
// unconnected required inputs and synchronous pure sources as errors,
// orphan operations and cycles as warnings. Cycles are legal (the flow
// controller, not the graph shape, prevents livelock) but worth flagging.
func (e *Engine) Validate() *ValidationResult {
	result := &ValidationResult{}
	e.validateCompound(e.root, result)
	e.warnCycles(e.root, result)

	for _, w := range result.Warnings {
		e.logger.Warn("graph validation warning",
			"type", string(w.Type),
			"operation", w.Operation,
			"message", w.Message)
	}
	return result
}

func (e *Engine) validateCompound(c *compound.Compound, result *ValidationResult) {
	for _, op := range c.Operations() {
		if nested, ok := op.(*compound.Compound); ok {
			e.validateCompound(nested, result)
			continue
		}

		connected := 0
		for _, in := range op.Inputs() {
			if in.Connected() {
				connected++
			} else if !in.Optional() {
				result.Errors = append(result.Errors, ValidationIssue{
					Type:      IssueUnconnectedInput,
					Operation: op.Name(),
					Message:   fmt.Sprintf("required input %s.%s is not connected", op.Name(), in.Name()),
				})
			}
		}

		if dop, ok := op.(*operation.DefaultOperation); ok {
			if dop.Kind() == operation.Synchronous && connected == 0 {
				result.Errors = append(result.Errors, ValidationIssue{
					Type:      IssueSyncSource,
					Operation: op.Name(),
					Message:   fmt.Sprintf("%s uses a synchronous processor but has no connected inputs", op.Name()),
				})
			}
		}

		outConnected := false
		for _, out := range op.Outputs() {
			if out.Connected() {
				outConnected = true
				break
			}
		}
		if connected == 0 && !outConnected && len(op.Inputs())+len(op.Outputs()) > 0 {
			result.Warnings = append(result.Warnings, ValidationIssue{
				Type:      IssueOrphan,
				Operation: op.Name(),
				Message:   fmt.Sprintf("%s has no connections at all", op.Name()),
			})
		}
	}
}

// warnCycles runs a depth-first search over the child connection graph
// and flags back-edges.
func (e *Engine) warnCycles(c *compound.Compound, result *ValidationResult) {
	ops := c.Operations()
	index := make(map[*operation.InputSocket]int)
	for i, op := range ops {
		for _, in := range op.Inputs() {
			index[in] = i
		}
	}

	adj := make([][]int, len(ops))
	for i, op := range ops {
		for _, out := range op.Outputs() {
			for _, in := range out.Connections() {
				if j, ok := index[in]; ok {
					adj[i] = append(adj[i], j)
				}
			}
		}
	}

	const (
		unvisited = 0
		inStack   = 1
		finished  = 2
	)
	color := make([]int, len(ops))
	var visit func(i int)
	visit = func(i int) {
		color[i] = inStack
		for _, j := range adj[i] {
			switch color[j] {
			case unvisited:
				visit(j)
			case inStack:
				result.Warnings = append(result.Warnings, ValidationIssue{
					Type:      IssueCycle,
					Operation: ops[j].Name(),
					Message:   fmt.Sprintf("feedback loop through %s", ops[j].Name()),
				})
			}
		}
		color[i] = finished
	}
	for i := range ops {
		if color[i] == unvisited {
			visit(i)
		}
	}
}
