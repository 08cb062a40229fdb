package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alsgregory/firedrake/element"
	"github.com/alsgregory/firedrake/fem"
	"github.com/alsgregory/firedrake/mesh"
)

func testFunction(t *testing.T, ncells int, name string) *fem.Function {
	t.Helper()
	m, err := mesh.NewUnitIntervalMesh(ncells)
	require.NoError(t, err)
	el, err := element.NewLagrange(1)
	require.NoError(t, err)
	fs, err := fem.NewFunctionSpace(m, el)
	require.NoError(t, err)
	fn, err := fem.NewFunction(fs, name)
	require.NoError(t, err)
	return fn
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.chk")
	src := testFunction(t, 4, "temperature")
	for i := range src.Data() {
		src.Data()[i] = float64(i)*0.25 - 1
	}
	require.NoError(t, Save(path, src))

	dst := testFunction(t, 4, "placeholder")
	require.NoError(t, Load(path, dst))
	assert.Equal(t, src.Data(), dst.Data())
	assert.Equal(t, "temperature", dst.Name())
}

func TestLoadRejectsForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("not a checkpoint at all"), 0o644))

	fn := testFunction(t, 4, "u")
	err := Load(path, fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a checkpoint file")
}

func TestLoadRejectsDofMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.chk")
	src := testFunction(t, 4, "u")
	require.NoError(t, Save(path, src))

	dst := testFunction(t, 8, "u")
	before := append([]float64(nil), dst.Data()...)
	err := Load(path, dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dofs")
	assert.Equal(t, before, dst.Data(), "a failed load must not touch the dofs")
}

func TestLoadMissingFile(t *testing.T) {
	fn := testFunction(t, 2, "u")
	err := Load(filepath.Join(t.TempDir(), "absent.chk"), fn)
	assert.Error(t, err)
}
