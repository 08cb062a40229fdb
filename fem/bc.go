package fem

import (
	"fmt"
)

// DirichletBC pins the dofs of the given global nodes to a fixed value.
type DirichletBC struct {
	space *FunctionSpace
	value float64
	nodes []int
}

// NewDirichletBC creates a boundary condition on the given nodes. A nil
// or empty node list applies the condition on the mesh boundary nodes.
func NewDirichletBC(fs *FunctionSpace, value float64, nodes []int) (*DirichletBC, error) {
	if fs == nil {
		return nil, fmt.Errorf("boundary condition needs a function space")
	}
	if len(nodes) == 0 {
		nodes = fs.BoundaryNodes()
	}
	for _, n := range nodes {
		if n < 0 || n >= fs.NumNodes() {
			return nil, fmt.Errorf("boundary condition node %d out of range [0, %d)", n, fs.NumNodes())
		}
	}
	return &DirichletBC{space: fs, value: value, nodes: nodes}, nil
}

func (bc *DirichletBC) Space() *FunctionSpace { return bc.space }

func (bc *DirichletBC) Value() float64 { return bc.value }

// Nodes returns the constrained global node indices.
func (bc *DirichletBC) Nodes() []int { return bc.nodes }

// Dofs returns the constrained scalar dof indices, expanding vector
// nodes into all their components.
func (bc *DirichletBC) Dofs() []int {
	bs := bc.space.BlockSize()
	dofs := make([]int, 0, len(bc.nodes)*bs)
	for _, n := range bc.nodes {
		for c := 0; c < bs; c++ {
			dofs = append(dofs, n*bs+c)
		}
	}
	return dofs
}

// Apply overwrites the constrained dofs of f with the boundary value.
func (bc *DirichletBC) Apply(f *Function) error {
	if f.Space() != Space(bc.space) {
		return fmt.Errorf("boundary condition space does not match function %q", f.Name())
	}
	data := f.Data()
	for _, d := range bc.Dofs() {
		data[d] = bc.value
	}
	return nil
}
