package operation

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hesitationer/into/errors"
	"github.com/hesitationer/into/variant"
)

// fakeOwner stands in for an operation in connection rule tests.
type fakeOwner struct {
	name  string
	state State
}

func (f *fakeOwner) Name() string { return f.name }
func (f *fakeOwner) State() State { return f.state }

func TestConnectDisconnect(t *testing.T) {
	out := NewOutput("output")
	in := NewInput("input")

	require.NoError(t, Connect(out, in))
	assert.True(t, out.Connected())
	assert.True(t, in.Connected())

	err := Connect(out, in)
	require.Error(t, err)
	assert.True(t, errors.IsConnection(err), "duplicate connection is a connection error")

	require.NoError(t, Disconnect(out, in))
	assert.False(t, out.Connected())
	assert.False(t, in.Connected())

	err = Disconnect(out, in)
	require.Error(t, err)
	assert.True(t, errors.IsConnection(err))
}

func TestConnectNilSocket(t *testing.T) {
	assert.Error(t, Connect(nil, NewInput("input")))
	assert.Error(t, Connect(NewOutput("output"), nil))
	assert.Error(t, Disconnect(nil, nil))
}

func TestConnectRequiresStoppedOwners(t *testing.T) {
	out := NewOutput("output")
	in := NewInput("input")
	in.owner = &fakeOwner{name: "consumer", state: StateRunning}

	err := Connect(out, in)
	require.Error(t, err)
	assert.True(t, errors.IsConnection(err))
	assert.Contains(t, err.Error(), "consumer")

	in.owner = &fakeOwner{name: "consumer", state: StateStopped}
	require.NoError(t, Connect(out, in))

	// Disconnect is gated the same way.
	in.owner = &fakeOwner{name: "consumer", state: StatePaused}
	assert.Error(t, Disconnect(out, in))
}

func TestEmitPreservesOrder(t *testing.T) {
	out := NewOutput("output")
	in := NewInput("input")
	require.NoError(t, Connect(out, in))

	const n = 100
	for i := 0; i < n; i++ {
		require.NoError(t, out.Emit(variant.NewInt(int64(i))))
	}
	require.Equal(t, n, in.Len())

	for i := 0; i < n; i++ {
		v, ok := in.pop()
		require.True(t, ok)
		got, err := v.AsInt()
		require.NoError(t, err)
		assert.Equal(t, int64(i), got)
	}
	_, ok := in.pop()
	assert.False(t, ok)
}

func TestEmitFansOutToAllInputs(t *testing.T) {
	out := NewOutput("output")
	a := NewInput("a")
	b := NewInput("b")
	require.NoError(t, Connect(out, a))
	require.NoError(t, Connect(out, b))

	for i := 0; i < 10; i++ {
		require.NoError(t, out.Emit(variant.NewInt(int64(i))))
	}

	for _, in := range []*InputSocket{a, b} {
		require.Equal(t, 10, in.Len())
		for i := 0; i < 10; i++ {
			v, _ := in.pop()
			got, _ := v.AsInt()
			assert.Equal(t, int64(i), got)
		}
	}
}

func TestEmitUnconnectedIsNoop(t *testing.T) {
	out := NewOutput("output")
	assert.NoError(t, out.Emit(variant.NewInt(1)))
}

func TestTagAndDataInterleaving(t *testing.T) {
	out := NewOutput("output")
	in := NewInput("input")
	require.NoError(t, Connect(out, in))

	require.NoError(t, out.Emit(variant.NewInt(1)))
	require.NoError(t, out.Emit(variant.NewControl(variant.Pause)))
	require.NoError(t, out.Emit(variant.NewInt(2)))

	v, _ := in.pop()
	assert.Equal(t, variant.Int, v.Tag())
	v, _ = in.pop()
	assert.Equal(t, variant.Pause, v.Tag())
	v, _ = in.pop()
	assert.Equal(t, variant.Int, v.Tag())
}

func TestBoundedQueueBlocksProducer(t *testing.T) {
	in := NewInput("input")
	require.NoError(t, in.SetQueueCapacity(2))

	require.NoError(t, in.deliver(variant.NewInt(1)))
	require.NoError(t, in.deliver(variant.NewInt(2)))

	delivered := make(chan error, 1)
	go func() {
		delivered <- in.deliver(variant.NewInt(3))
	}()

	select {
	case <-delivered:
		t.Fatal("delivery to a full queue must block")
	case <-time.After(50 * time.Millisecond):
	}

	// A pop frees a slot and wakes the producer.
	_, ok := in.pop()
	require.True(t, ok)

	select {
	case err := <-delivered:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("producer was not woken by pop")
	}
	assert.Equal(t, 2, in.Len())
}

func TestCloseWakesBlockedProducer(t *testing.T) {
	in := NewInput("input")
	require.NoError(t, in.SetQueueCapacity(1))
	require.NoError(t, in.deliver(variant.NewInt(1)))

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = in.deliver(variant.NewInt(int64(i)))
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	in.close()

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("close did not wake blocked producers")
	}
	for _, err := range errs {
		assert.ErrorIs(t, err, errors.ErrQueueClosed)
	}
}

func TestSetQueueCapacityRequiresStopped(t *testing.T) {
	in := NewInput("input")
	in.owner = &fakeOwner{name: "consumer", state: StateRunning}
	err := in.SetQueueCapacity(5)
	require.Error(t, err)
	assert.True(t, errors.IsConnection(err))

	in.owner = &fakeOwner{name: "consumer", state: StateStopped}
	assert.NoError(t, in.SetQueueCapacity(5))
	assert.Equal(t, 5, in.QueueCapacity())
}

func TestResetReopensClosedQueue(t *testing.T) {
	in := NewInput("input")
	require.NoError(t, in.deliver(variant.NewInt(1)))
	in.close()
	assert.ErrorIs(t, in.deliver(variant.NewInt(2)), errors.ErrQueueClosed)

	in.reset()
	assert.Equal(t, 0, in.Len())
	assert.NoError(t, in.deliver(variant.NewInt(3)))
}
