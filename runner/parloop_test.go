package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alsgregory/firedrake/fem"
)

// chainMap builds the cell-node map of ncells line cells sharing their
// endpoint nodes: cell c touches nodes c and c+1.
func chainMap(ncells int) *fem.Map {
	values := make([][]int, ncells)
	for c := range values {
		values[c] = []int{c, c + 1}
	}
	return fem.NewMap(2, values)
}

func TestParLoopRead(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5}
	got := make([]float64, 8)
	err := ParLoop(func(cell, sub int, locals [][]float64) {
		copy(got[2*cell:], locals[0])
	}, 4, 1, Arg{Data: data, Access: Read, Map: chainMap(4)})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 2, 3, 3, 4, 4, 5}, got)
}

func TestParLoopInc(t *testing.T) {
	// Adding one per node slot counts each node's cell multiplicity.
	data := make([]float64, 5)
	err := ParLoop(func(cell, sub int, locals [][]float64) {
		for i := range locals[0] {
			locals[0][i]++
		}
	}, 4, 1, Arg{Data: data, Access: Inc, Map: chainMap(4)})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 2, 2, 1}, data)
}

func TestParLoopWrite(t *testing.T) {
	t.Run("FullOverwrite", func(t *testing.T) {
		data := []float64{9, 9, 9, 9, 9}
		err := ParLoop(func(cell, sub int, locals [][]float64) {
			locals[0][0] = float64(cell)
			locals[0][1] = float64(cell + 1)
		}, 4, 1, Arg{Data: data, Access: Write, Map: chainMap(4)})
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 1, 2, 3, 4}, data)
	})

	t.Run("UntouchedEntriesKeepValues", func(t *testing.T) {
		data := []float64{9, 9, 9, 9, 9}
		err := ParLoop(func(cell, sub int, locals [][]float64) {
			locals[0][0] = -1 // leave the second node alone
		}, 4, 1, Arg{Data: data, Access: Write, Map: chainMap(4)})
		require.NoError(t, err)
		assert.Equal(t, []float64{-1, -1, -1, -1, 9}, data)
	})
}

func TestParLoopPerSubCell(t *testing.T) {
	// Two iteration cells with two subcells each; the per-subcell arg
	// addresses fine cells 2c+sub of a 4-cell chain.
	fine := make([]float64, 5)
	err := ParLoop(func(cell, sub int, locals [][]float64) {
		for i := range locals[0] {
			locals[0][i]++
		}
	}, 2, 2, Arg{Data: fine, Access: Inc, Map: chainMap(4), PerSubCell: true})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 2, 2, 1}, fine)
}

func TestParLoopBlockSize(t *testing.T) {
	// Two components per node, stored node-major.
	data := make([]float64, 10)
	err := ParLoop(func(cell, sub int, locals [][]float64) {
		for i := 0; i < 2; i++ {
			locals[0][2*i] += 1   // component 0
			locals[0][2*i+1] += 2 // component 1
		}
	}, 4, 1, Arg{Data: data, Access: Inc, Map: chainMap(4), BlockSize: 2})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 2, 4, 2, 4, 2, 4, 1, 2}, data)
}

func TestParLoopValidation(t *testing.T) {
	data := make([]float64, 5)

	t.Run("NilKernel", func(t *testing.T) {
		err := ParLoop(nil, 4, 1, Arg{Data: data, Access: Read, Map: chainMap(4)})
		assert.Error(t, err)
	})

	t.Run("NilMap", func(t *testing.T) {
		err := ParLoop(func(cell, sub int, locals [][]float64) {}, 4, 1,
			Arg{Data: data, Access: Read})
		assert.Error(t, err)
	})

	t.Run("MapTooShort", func(t *testing.T) {
		err := ParLoop(func(cell, sub int, locals [][]float64) {}, 8, 1,
			Arg{Data: data, Access: Read, Map: chainMap(4)})
		assert.Error(t, err)
	})

	t.Run("DataTooShort", func(t *testing.T) {
		err := ParLoop(func(cell, sub int, locals [][]float64) {}, 4, 1,
			Arg{Data: data[:3], Access: Read, Map: chainMap(4)})
		assert.Error(t, err)
	})

	t.Run("ReadAliasesInc", func(t *testing.T) {
		err := ParLoop(func(cell, sub int, locals [][]float64) {}, 4, 1,
			Arg{Data: data, Access: Read, Map: chainMap(4)},
			Arg{Data: data, Access: Inc, Map: chainMap(4)})
		assert.Error(t, err)
	})

	t.Run("NoCells", func(t *testing.T) {
		err := ParLoop(func(cell, sub int, locals [][]float64) {
			t.Error("kernel must not run over an empty cell set")
		}, 0, 1, Arg{Data: data, Access: Read, Map: chainMap(4)})
		assert.NoError(t, err)
	})
}

func TestParLoopLargeDeterministicSums(t *testing.T) {
	// Increment contributions are powers of two, so the accumulated
	// values are exact regardless of worker interleaving.
	const ncells = 4096
	data := make([]float64, ncells+1)
	err := ParLoop(func(cell, sub int, locals [][]float64) {
		locals[0][0] += 0.5
		locals[0][1] += 0.25
	}, ncells, 1, Arg{Data: data, Access: Inc, Map: chainMap(ncells)})
	require.NoError(t, err)
	assert.Equal(t, 0.5, data[0])
	assert.Equal(t, 0.25, data[ncells])
	for i := 1; i < ncells; i++ {
		if data[i] != 0.75 {
			t.Fatalf("node %d: expected 0.75, got %g", i, data[i])
		}
	}
}
