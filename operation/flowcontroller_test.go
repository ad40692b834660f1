package operation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hesitationer/into/variant"
)

// connectedInput builds an input with a dangling upstream output so that
// the readiness protocol sees it as connected.
func connectedInput(t *testing.T, name string) (*InputSocket, *OutputSocket) {
	t.Helper()
	in := NewInput(name)
	out := NewOutput("upstream")
	require.NoError(t, Connect(out, in))
	return in, out
}

func TestOneInputReadiness(t *testing.T) {
	in, out := connectedInput(t, "input")
	fc := newDefaultController([]*InputSocket{in})

	fs, _, _ := fc.Prepare()
	assert.Equal(t, FlowIdle, fs)

	require.NoError(t, out.Emit(variant.NewInt(7)))
	fs, step, _ := fc.Prepare()
	require.Equal(t, FlowProcess, fs)
	got, err := step.Object("input").AsInt()
	require.NoError(t, err)
	assert.Equal(t, int64(7), got)
	assert.Equal(t, 0, in.Len(), "prepared object must be consumed")

	require.NoError(t, out.Emit(variant.NewControl(variant.Stop)))
	fs, _, tag := fc.Prepare()
	assert.Equal(t, FlowControl, fs)
	assert.Equal(t, variant.Stop, tag)
}

func TestGroupWaitsForAllInputs(t *testing.T) {
	a, outA := connectedInput(t, "a")
	b, outB := connectedInput(t, "b")
	fc := newDefaultController([]*InputSocket{a, b})

	require.NoError(t, outA.Emit(variant.NewInt(1)))
	fs, _, _ := fc.Prepare()
	assert.Equal(t, FlowIdle, fs, "one of two inputs is not a full set")

	require.NoError(t, outB.Emit(variant.NewInt(2)))
	fs, step, _ := fc.Prepare()
	require.Equal(t, FlowProcess, fs)
	va, _ := step.Object("a").AsInt()
	vb, _ := step.Object("b").AsInt()
	assert.Equal(t, int64(1), va)
	assert.Equal(t, int64(2), vb)
}

func TestControlBarrier(t *testing.T) {
	a, outA := connectedInput(t, "a")
	b, outB := connectedInput(t, "b")
	fc := newDefaultController([]*InputSocket{a, b})

	// A tag on one input only holds everything back.
	require.NoError(t, outA.Emit(variant.NewControl(variant.Pause)))
	fs, _, _ := fc.Prepare()
	assert.Equal(t, FlowIdle, fs)

	// Data on the other input cannot form a set past the waiting tag.
	require.NoError(t, outB.Emit(variant.NewInt(5)))
	fs, _, _ = fc.Prepare()
	assert.Equal(t, FlowIdle, fs)

	// Once the same tag heads every input, it flushes.
	b2, _ := b.pop()
	require.Equal(t, variant.Int, b2.Tag())
	require.NoError(t, outB.Emit(variant.NewControl(variant.Pause)))
	fs, _, tag := fc.Prepare()
	assert.Equal(t, FlowControl, fs)
	assert.Equal(t, variant.Pause, tag)
	assert.Equal(t, 0, a.Len())
	assert.Equal(t, 0, b.Len())
}

func TestTagNeverOvertakesData(t *testing.T) {
	a, outA := connectedInput(t, "a")
	b, outB := connectedInput(t, "b")
	fc := newDefaultController([]*InputSocket{a, b})

	for _, out := range []*OutputSocket{outA, outB} {
		require.NoError(t, out.Emit(variant.NewInt(1)))
		require.NoError(t, out.Emit(variant.NewControl(variant.Stop)))
	}

	fs, _, _ := fc.Prepare()
	assert.Equal(t, FlowProcess, fs, "queued data runs before the tag behind it")

	fs, _, tag := fc.Prepare()
	assert.Equal(t, FlowControl, fs)
	assert.Equal(t, variant.Stop, tag)
}

func TestOptionalInputJoinsWhenReady(t *testing.T) {
	req, outReq := connectedInput(t, "required")
	opt, outOpt := connectedInput(t, "optional")
	opt.SetOptional(true)
	fc := newDefaultController([]*InputSocket{req, opt})

	// The required input alone completes the set.
	require.NoError(t, outReq.Emit(variant.NewInt(1)))
	fs, step, _ := fc.Prepare()
	require.Equal(t, FlowProcess, fs)
	assert.False(t, step.Object("optional").IsValid())

	// With optional data queued, it rides along.
	require.NoError(t, outReq.Emit(variant.NewInt(2)))
	require.NoError(t, outOpt.Emit(variant.NewInt(20)))
	fs, step, _ = fc.Prepare()
	require.Equal(t, FlowProcess, fs)
	vo, err := step.Object("optional").AsInt()
	require.NoError(t, err)
	assert.Equal(t, int64(20), vo)
}

func TestIndependentGroups(t *testing.T) {
	a, outA := connectedInput(t, "a")
	b, outB := connectedInput(t, "b")
	b.SetGroup(1)
	fc := newDefaultController([]*InputSocket{a, b})

	require.NoError(t, outB.Emit(variant.NewInt(9)))
	fs, step, _ := fc.Prepare()
	require.Equal(t, FlowProcess, fs, "group 1 is ready on its own")
	assert.Equal(t, 1, step.Group)
	v, _ := step.Object("b").AsInt()
	assert.Equal(t, int64(9), v)

	require.NoError(t, outA.Emit(variant.NewInt(3)))
	fs, step, _ = fc.Prepare()
	require.Equal(t, FlowProcess, fs)
	assert.Equal(t, 0, step.Group)
}

func TestStepObjectNilSafe(t *testing.T) {
	var step *Step
	assert.False(t, step.Object("anything").IsValid())
}
