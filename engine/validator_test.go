package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hesitationer/into/compound"
	"github.com/hesitationer/into/operation"
	"github.com/hesitationer/into/ops"
)

func issueTypes(issues []ValidationIssue) []IssueType {
	types := make([]IssueType, 0, len(issues))
	for _, i := range issues {
		types = append(types, i.Type)
	}
	return types
}

func TestValidateCleanGraph(t *testing.T) {
	root, _ := buildRoot(t, 3)
	e := New(root, Options{})

	result := e.Validate()
	assert.False(t, result.HasErrors())
	assert.Empty(t, result.Warnings)
}

func TestValidateUnconnectedInput(t *testing.T) {
	root := compound.New("test")
	scale := ops.NewScale("scale")
	sink := ops.NewCollector("sink")
	require.NoError(t, root.AddOperation(scale.Op()))
	require.NoError(t, root.AddOperation(sink.Op()))
	require.NoError(t, operation.Connect(scale.Op().Output("output"), sink.Input()))

	e := New(root, Options{})
	result := e.Validate()
	require.True(t, result.HasErrors())
	assert.Contains(t, issueTypes(result.Errors), IssueUnconnectedInput)
	for _, issue := range result.Errors {
		if issue.Type == IssueUnconnectedInput {
			assert.Equal(t, "scale", issue.Operation)
		}
	}
}

func TestValidateOrphan(t *testing.T) {
	root, _ := buildRoot(t, 3)
	lone := ops.NewCollector("lone")
	require.NoError(t, root.AddOperation(lone.Op()))

	e := New(root, Options{})
	result := e.Validate()
	// The orphan's required input is also unconnected.
	assert.Contains(t, issueTypes(result.Errors), IssueUnconnectedInput)
	assert.Contains(t, issueTypes(result.Warnings), IssueOrphan)
}

func TestValidateCycle(t *testing.T) {
	root := compound.New("test")
	a := ops.NewScale("a")
	b := ops.NewScale("b")
	require.NoError(t, root.AddOperation(a.Op()))
	require.NoError(t, root.AddOperation(b.Op()))
	require.NoError(t, operation.Connect(a.Op().Output("output"), b.Op().Input("input")))
	require.NoError(t, operation.Connect(b.Op().Output("output"), a.Op().Input("input")))

	e := New(root, Options{})
	result := e.Validate()
	assert.False(t, result.HasErrors())
	assert.Contains(t, issueTypes(result.Warnings), IssueCycle)
}

func TestValidateRecursesNestedCompounds(t *testing.T) {
	inner := compound.New("inner")
	lone := ops.NewCollector("lone")
	require.NoError(t, inner.AddOperation(lone.Op()))

	root := compound.New("test")
	require.NoError(t, root.AddOperation(inner))

	e := New(root, Options{})
	result := e.Validate()
	require.True(t, result.HasErrors())
	assert.Contains(t, issueTypes(result.Errors), IssueUnconnectedInput)
}
