package fem

import (
	"fmt"

	"github.com/alsgregory/firedrake/element"
	"github.com/alsgregory/firedrake/mesh"
)

// Space is a discrete function space a Function can be defined on:
// either a plain *FunctionSpace or a *MixedFunctionSpace.
type Space interface {
	// Dim is the total number of scalar degrees of freedom.
	Dim() int

	// hierarchy/level back-reference, stamped by hierarchy construction
	hierarchyLevel() (Hierarchy, int, bool)
}

// FunctionSpace binds a finite element to a mesh, numbering global
// nodes and building the cell-to-node map. Continuous elements share
// vertex nodes between neighbouring cells; discontinuous elements
// number every cell's nodes independently.
type FunctionSpace struct {
	mesh      *mesh.Mesh
	elem      element.Element
	cellNodes *Map
	numNodes  int

	// non-owning back-reference to the hierarchy this space is a level
	// of, if any
	hier  Hierarchy
	level int
}

// NewFunctionSpace creates a function space for the element on the mesh.
func NewFunctionSpace(m *mesh.Mesh, el element.Element) (*FunctionSpace, error) {
	if m == nil || el == nil {
		return nil, fmt.Errorf("function space needs a mesh and an element")
	}
	fs := &FunctionSpace{mesh: m, elem: el, level: -1}
	fs.numberNodes()
	return fs, nil
}

// numberNodes assigns global node indices. For continuous spaces the
// endpoint nodes take the vertex index and interior nodes are appended
// after all vertices, cell by cell. Discontinuous spaces number np
// nodes per cell contiguously.
func (fs *FunctionSpace) numberNodes() {
	np := fs.elem.Np()
	ncells := fs.mesh.NumCells()
	values := make([][]int, ncells)

	if !fs.elem.Continuous() {
		for c := 0; c < ncells; c++ {
			nodes := make([]int, np)
			for i := range nodes {
				nodes[i] = c*np + i
			}
			values[c] = nodes
		}
		fs.numNodes = ncells * np
		fs.cellNodes = NewMap(np, values)
		return
	}

	nv := fs.mesh.NumVertices()
	interior := np - 2
	for c := 0; c < ncells; c++ {
		cell := fs.mesh.Cells[c]
		nodes := make([]int, np)
		nodes[0] = cell[0]
		for i := 0; i < interior; i++ {
			nodes[1+i] = nv + c*interior + i
		}
		nodes[np-1] = cell[1]
		values[c] = nodes
	}
	fs.numNodes = nv + ncells*interior
	fs.cellNodes = NewMap(np, values)
}

func (fs *FunctionSpace) Mesh() *mesh.Mesh { return fs.mesh }

func (fs *FunctionSpace) Element() element.Element { return fs.elem }

// NumNodes is the number of global nodes (dofs per component).
func (fs *FunctionSpace) NumNodes() int { return fs.numNodes }

// BlockSize is the number of scalar dofs per node.
func (fs *FunctionSpace) BlockSize() int { return fs.elem.Components() }

// Dim is the total number of scalar degrees of freedom.
func (fs *FunctionSpace) Dim() int { return fs.numNodes * fs.BlockSize() }

// CellNodeMap returns the cell-to-node map.
func (fs *FunctionSpace) CellNodeMap() *Map { return fs.cellNodes }

// BoundaryNodes returns the global node indices on the mesh boundary
// (the first and last vertex of an interval mesh). Discontinuous
// spaces return the cell-local copies of those nodes.
func (fs *FunctionSpace) BoundaryNodes() []int {
	ncells := fs.mesh.NumCells()
	first := fs.cellNodes.Cell(0)
	last := fs.cellNodes.Cell(ncells - 1)
	if first[0] == last[len(last)-1] {
		return []int{first[0]}
	}
	return []int{first[0], last[len(last)-1]}
}

func (fs *FunctionSpace) hierarchyLevel() (Hierarchy, int, bool) {
	if fs.hier == nil {
		return nil, 0, false
	}
	return fs.hier, fs.level, true
}

// MixedFunctionSpace is an ordered product of component function
// spaces; functions on it hold the concatenated component dofs.
type MixedFunctionSpace struct {
	subs []*FunctionSpace

	hier  Hierarchy
	level int
}

// NewMixedFunctionSpace builds a mixed space from component spaces.
func NewMixedFunctionSpace(subs ...*FunctionSpace) (*MixedFunctionSpace, error) {
	if len(subs) < 2 {
		return nil, fmt.Errorf("mixed function space needs at least 2 components, got %d", len(subs))
	}
	for i, s := range subs {
		if s == nil {
			return nil, fmt.Errorf("mixed function space component %d is nil", i)
		}
	}
	return &MixedFunctionSpace{subs: subs, level: -1}, nil
}

// NumSubSpaces is the number of component spaces.
func (ms *MixedFunctionSpace) NumSubSpaces() int { return len(ms.subs) }

// SubSpace returns component space i.
func (ms *MixedFunctionSpace) SubSpace(i int) *FunctionSpace { return ms.subs[i] }

func (ms *MixedFunctionSpace) Dim() int {
	n := 0
	for _, s := range ms.subs {
		n += s.Dim()
	}
	return n
}

func (ms *MixedFunctionSpace) hierarchyLevel() (Hierarchy, int, bool) {
	if ms.hier == nil {
		return nil, 0, false
	}
	return ms.hier, ms.level, true
}

// GetLevel locates the hierarchy a space was registered with and the
// level index within it. ok is false for spaces that are not a level
// of any hierarchy.
func GetLevel(s Space) (h Hierarchy, level int, ok bool) {
	if s == nil {
		return nil, 0, false
	}
	return s.hierarchyLevel()
}
