package engine

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hesitationer/into/compound"
	"github.com/hesitationer/into/errors"
	"github.com/hesitationer/into/metric"
	"github.com/hesitationer/into/operation"
	"github.com/hesitationer/into/ops"
)

func testRegistry(t *testing.T) *operation.Registry {
	t.Helper()
	reg := operation.NewRegistry()
	require.NoError(t, ops.RegisterAll(reg))
	return reg
}

// buildRoot wires generator -> scale -> collector programmatically.
func buildRoot(t *testing.T, count int64) (*compound.Compound, *ops.Collector) {
	t.Helper()
	root := compound.New("test")
	gen := ops.NewGenerator("gen")
	require.NoError(t, gen.Op().SetProperty("count", count))
	scale := ops.NewScale("scale")
	require.NoError(t, scale.Op().SetProperty("factor", 2.0))
	col := ops.NewCollector("col")

	require.NoError(t, root.AddOperation(gen.Op()))
	require.NoError(t, root.AddOperation(scale.Op()))
	require.NoError(t, root.AddOperation(col.Op()))
	require.NoError(t, operation.Connect(gen.Op().Output("output"), scale.Op().Input("input")))
	require.NoError(t, operation.Connect(scale.Op().Output("output"), col.Input()))
	return root, col
}

func TestExecuteSuccess(t *testing.T) {
	root, col := buildRoot(t, 5)
	e := New(root, Options{Metrics: metric.NewMetricsRegistry()})

	result := e.Execute(context.Background())
	require.NoError(t, result.Err)
	assert.True(t, result.Success())
	assert.NotEqual(t, uuid.Nil, result.RunID)
	assert.Greater(t, result.Duration, time.Duration(0))
	assert.Empty(t, result.FailedOperation)

	assert.Equal(t, []int64{0, 2, 4, 6, 8}, col.Ints())
	assert.Equal(t, operation.StateStopped, root.State())
}

func TestExecuteTwice(t *testing.T) {
	root, col := buildRoot(t, 3)
	e := New(root, Options{})

	for round := 0; round < 2; round++ {
		result := e.Execute(context.Background())
		require.NoError(t, result.Err, "round %d", round)
		assert.Equal(t, []int64{0, 2, 4}, col.Ints(), "round %d", round)
	}
}

func TestExecuteFailureNamesOperationAndStopsSiblings(t *testing.T) {
	root := compound.New("test")

	gen := ops.NewGenerator("gen")
	require.NoError(t, gen.Op().SetProperty("count", 10))
	brittle := ops.NewFailer("brittle")
	require.NoError(t, brittle.Op().SetProperty("fail_at", 5))
	col := ops.NewCollector("col")

	// Independent sibling branch with an endless source. Only the
	// failure cascade can bring it down.
	sibSrc := ops.NewGenerator("sibling-src")
	require.NoError(t, sibSrc.Op().SetProperty("rate", 200.0))
	sibCol := ops.NewCollector("sibling-col")

	for _, op := range []operation.Operation{gen.Op(), brittle.Op(), col.Op(), sibSrc.Op(), sibCol.Op()} {
		require.NoError(t, root.AddOperation(op))
	}
	require.NoError(t, operation.Connect(gen.Op().Output("output"), brittle.Op().Input("input")))
	require.NoError(t, operation.Connect(brittle.Op().Output("output"), col.Input()))
	require.NoError(t, operation.Connect(sibSrc.Op().Output("output"), sibCol.Input()))

	e := New(root, Options{})
	result := e.Execute(context.Background())

	require.Error(t, result.Err)
	assert.False(t, result.Success())
	assert.Equal(t, "brittle", result.FailedOperation)
	assert.True(t, errors.IsRuntime(result.Err))

	assert.Equal(t, operation.StateInterrupted, brittle.Op().State())
	assert.Equal(t, operation.StateStopped, sibCol.Op().State(),
		"the sibling branch is stopped gracefully by the cascade")
	assert.Len(t, col.Ints(), 4)
}

func TestExecuteCancellationInterrupts(t *testing.T) {
	root := compound.New("test")
	gen := ops.NewGenerator("gen")
	require.NoError(t, gen.Op().SetProperty("rate", 100.0))
	col := ops.NewCollector("col")
	require.NoError(t, root.AddOperation(gen.Op()))
	require.NoError(t, root.AddOperation(col.Op()))
	require.NoError(t, operation.Connect(gen.Op().Output("output"), col.Input()))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	e := New(root, Options{})
	start := time.Now()
	result := e.Execute(ctx)

	require.Error(t, result.Err)
	assert.ErrorIs(t, result.Err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, operation.StateInterrupted, root.State())
}

func TestExecuteRefusesInvalidGraph(t *testing.T) {
	root := compound.New("test")
	col := ops.NewCollector("col")
	require.NoError(t, root.AddOperation(col.Op()))

	e := New(root, Options{})
	result := e.Execute(context.Background())
	require.Error(t, result.Err)
	assert.True(t, errors.IsConfig(result.Err))
	assert.Equal(t, operation.StateStopped, root.State(), "nothing was started")
}

func TestNewDefaults(t *testing.T) {
	e := New(nil, Options{Registry: testRegistry(t)})
	require.NotNil(t, e.Root())
	assert.Equal(t, "root", e.Root().Name())

	result := e.Execute(context.Background())
	assert.NoError(t, result.Err, "an empty graph completes trivially")
}
