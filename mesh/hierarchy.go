package mesh

import (
	"fmt"
)

// SubCells is the number of children each cell is split into by one
// uniform refinement of an interval mesh.
const SubCells = 2

// Hierarchy is an ordered sequence of meshes, level 0 coarsest, each
// level a uniform refinement of the previous. Immutable once built.
type Hierarchy struct {
	meshes []*Mesh
}

// NewHierarchy builds a hierarchy of the given number of levels by
// repeatedly refining the coarse mesh. levels counts the meshes, so
// levels=1 is just the coarse mesh.
func NewHierarchy(coarse *Mesh, levels int) (*Hierarchy, error) {
	if coarse == nil {
		return nil, fmt.Errorf("mesh hierarchy needs a coarse mesh")
	}
	if levels < 1 {
		return nil, fmt.Errorf("mesh hierarchy needs at least one level, got %d", levels)
	}
	h := &Hierarchy{meshes: make([]*Mesh, levels)}
	h.meshes[0] = coarse
	for l := 1; l < levels; l++ {
		h.meshes[l] = h.meshes[l-1].Refine()
	}
	return h, nil
}

// Len returns the number of levels.
func (h *Hierarchy) Len() int {
	return len(h.meshes)
}

// Mesh returns the mesh at level l.
func (h *Hierarchy) Mesh(l int) *Mesh {
	return h.meshes[l]
}

// ChildCell returns the cell index at level l+1 of child sub of cell c
// at level l.
func (h *Hierarchy) ChildCell(c, sub int) int {
	return SubCells*c + sub
}
