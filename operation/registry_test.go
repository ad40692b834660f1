package operation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hesitationer/into/errors"
)

func probeFactory(name string) (Operation, error) {
	body := &intSink{in: NewInput("input")}
	return NewDefault(name, Synchronous, body, []*InputSocket{body.in}, nil), nil
}

func TestRegisterFactory(t *testing.T) {
	reg := NewRegistry()

	err := reg.RegisterFactory(&Registration{
		Name:        "probe",
		Description: "Test sink",
		Version:     "1.0.0",
		Factory:     probeFactory,
	})
	require.NoError(t, err)

	op, err := reg.Create("probe", "probe-1")
	require.NoError(t, err)
	assert.Equal(t, "probe-1", op.Name())
	assert.Equal(t, StateStopped, op.State())
}

func TestRegisterFactoryValidation(t *testing.T) {
	reg := NewRegistry()

	assert.Error(t, reg.RegisterFactory(nil))
	assert.Error(t, reg.RegisterFactory(&Registration{Name: "", Factory: probeFactory}))
	assert.Error(t, reg.RegisterFactory(&Registration{Name: "probe"}))

	require.NoError(t, reg.RegisterFactory(&Registration{Name: "probe", Factory: probeFactory}))
	err := reg.RegisterFactory(&Registration{Name: "probe", Factory: probeFactory})
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))
}

func TestCreateUnknownType(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Create("nonexistent", "x")
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))
	assert.ErrorIs(t, err, errors.ErrUnknownFactory)

	_, err = reg.Create("nonexistent", "")
	assert.Error(t, err)
}

func TestListFactories(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterFactory(&Registration{Name: "zeta", Factory: probeFactory}))
	require.NoError(t, reg.RegisterFactory(&Registration{Name: "alpha", Factory: probeFactory}))

	assert.Equal(t, []string{"alpha", "zeta"}, reg.ListFactories())

	regd, ok := reg.Lookup("alpha")
	require.True(t, ok)
	assert.Equal(t, "alpha", regd.Name)

	_, ok = reg.Lookup("missing")
	assert.False(t, ok)
}
