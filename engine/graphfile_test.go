package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hesitationer/into/errors"
)

const testGraph = `
name: doubler
operations:
  - name: src
    type: generator
    config:
      count: 4
  - name: scale
    type: scale
    config:
      factor: 2
  - name: sink
    type: collector
connections:
  - from: src.output
    to: [scale.input]
  - from: scale.output
    to: [sink.input]
`

func TestLoadAndExecute(t *testing.T) {
	e := New(nil, Options{Registry: testRegistry(t)})
	require.NoError(t, e.Load([]byte(testGraph)))

	root := e.Root()
	assert.Equal(t, "doubler", root.Name())
	assert.Len(t, root.Operations(), 3)

	v, err := root.Property("scale.factor")
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)

	result := e.Execute(context.Background())
	require.NoError(t, result.Err)

	sinkOp, ok := root.Operation("sink")
	require.True(t, ok)
	assert.Equal(t, "sink", sinkOp.Name())
}

func TestLoadErrors(t *testing.T) {
	t.Run("no registry", func(t *testing.T) {
		e := New(nil, Options{})
		err := e.Load([]byte(testGraph))
		require.Error(t, err)
		assert.True(t, errors.IsConfig(err))
	})

	t.Run("invalid yaml", func(t *testing.T) {
		e := New(nil, Options{Registry: testRegistry(t)})
		assert.Error(t, e.Load([]byte("operations: [not: {valid")))
	})

	t.Run("unknown type", func(t *testing.T) {
		e := New(nil, Options{Registry: testRegistry(t)})
		err := e.Load([]byte("operations:\n  - name: x\n    type: warp-drive\n"))
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrUnknownFactory)
	})

	t.Run("unknown property", func(t *testing.T) {
		e := New(nil, Options{Registry: testRegistry(t)})
		err := e.Load([]byte(
			"operations:\n  - name: x\n    type: generator\n    config:\n      warp: 9\n"))
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrUnknownProperty)
	})

	t.Run("bad connection reference", func(t *testing.T) {
		e := New(nil, Options{Registry: testRegistry(t)})
		err := e.Load([]byte(
			"operations:\n  - name: x\n    type: generator\nconnections:\n  - from: x.output\n    to: [ghost.input]\n"))
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrUnknownPort)
	})
}

func TestSaveRoundTrip(t *testing.T) {
	e := New(nil, Options{Registry: testRegistry(t)})
	require.NoError(t, e.Load([]byte(testGraph)))

	data, err := e.Save()
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "doubler")
	assert.Contains(t, text, "generator")
	assert.Contains(t, text, "src.output")

	// A second engine reconstructs an equivalent, runnable graph.
	e2 := New(nil, Options{Registry: testRegistry(t)})
	require.NoError(t, e2.Load(data))
	assert.Len(t, e2.Root().Operations(), 3)

	v, err := e2.Root().Property("scale.factor")
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)

	result := e2.Execute(context.Background())
	require.NoError(t, result.Err)
}

func TestSaveExposures(t *testing.T) {
	e := New(nil, Options{Registry: testRegistry(t)})
	require.NoError(t, e.Load([]byte(testGraph)))

	require.NoError(t, e.Root().ExposeInput("feed", "scale", "input"))
	data, err := e.Save()
	require.NoError(t, err)
	assert.Contains(t, string(data), "scale.input")
}

func TestLoadExposures(t *testing.T) {
	graph := testGraph + `
expose:
  inputs:
    feed: scale.input
  outputs:
    drain: scale.output
`
	e := New(nil, Options{Registry: testRegistry(t)})
	require.NoError(t, e.Load([]byte(graph)))

	root := e.Root()
	require.NotNil(t, root.Input("feed"))
	require.NotNil(t, root.Output("drain"))
	scaleOp, _ := root.Operation("scale")
	assert.Equal(t, scaleOp.Input("input"), root.Input("feed"))
}

func TestSplitPort(t *testing.T) {
	op, socket, err := splitPort("gen.output")
	require.NoError(t, err)
	assert.Equal(t, "gen", op)
	assert.Equal(t, "output", socket)

	_, _, err = splitPort("nodot")
	assert.Error(t, err)
}
