package mesh

import (
	"fmt"
)

// Mesh is a one-dimensional interval mesh. Cells join pairs of vertices;
// vertex coordinates need not be uniformly spaced.
type Mesh struct {
	Vertices []float64 // vertex coordinates
	Cells    [][2]int  // cell -> endpoint vertex indices, left to right
}

// NewIntervalMesh creates a mesh of ncells equal cells covering [0, length].
func NewIntervalMesh(ncells int, length float64) (*Mesh, error) {
	if ncells <= 0 {
		return nil, fmt.Errorf("interval mesh needs at least one cell, got %d", ncells)
	}
	if length <= 0 {
		return nil, fmt.Errorf("interval mesh needs positive length, got %g", length)
	}
	m := &Mesh{
		Vertices: make([]float64, ncells+1),
		Cells:    make([][2]int, ncells),
	}
	h := length / float64(ncells)
	for i := range m.Vertices {
		m.Vertices[i] = float64(i) * h
	}
	for c := range m.Cells {
		m.Cells[c] = [2]int{c, c + 1}
	}
	return m, nil
}

// NewUnitIntervalMesh creates a mesh of ncells equal cells covering [0, 1].
func NewUnitIntervalMesh(ncells int) (*Mesh, error) {
	return NewIntervalMesh(ncells, 1.0)
}

func (m *Mesh) NumCells() int {
	return len(m.Cells)
}

func (m *Mesh) NumVertices() int {
	return len(m.Vertices)
}

// CellCoords returns the endpoint coordinates of cell c.
func (m *Mesh) CellCoords(c int) (x0, x1 float64) {
	cell := m.Cells[c]
	return m.Vertices[cell[0]], m.Vertices[cell[1]]
}

// Refine uniformly bisects every cell. The children of coarse cell c are
// cells 2c and 2c+1 of the refined mesh, left child first. Midpoint
// vertices are appended after the coarse vertices, one per coarse cell.
func (m *Mesh) Refine() *Mesh {
	nv := m.NumVertices()
	fine := &Mesh{
		Vertices: make([]float64, nv+m.NumCells()),
		Cells:    make([][2]int, 2*m.NumCells()),
	}
	copy(fine.Vertices, m.Vertices)
	for c, cell := range m.Cells {
		x0, x1 := m.CellCoords(c)
		mid := nv + c
		fine.Vertices[mid] = 0.5 * (x0 + x1)
		fine.Cells[2*c] = [2]int{cell[0], mid}
		fine.Cells[2*c+1] = [2]int{mid, cell[1]}
	}
	return fine
}
