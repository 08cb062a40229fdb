package solver

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/alsgregory/firedrake/fem"
)

// NonlinearVariationalProblem is the nonlinear problem F(u) = 0 with
// optional Dirichlet conditions pinning dofs of u.
type NonlinearVariationalProblem struct {
	F   Residual
	J   Jacobian
	U   *fem.Function
	BCs []*fem.DirichletBC
}

// NewNonlinearVariationalProblem creates a problem from a residual
// form and the function to solve for. A nil Jacobian is derived from
// the residual by finite differencing.
func NewNonlinearVariationalProblem(F Residual, u *fem.Function, bcs []*fem.DirichletBC, J Jacobian) (*NonlinearVariationalProblem, error) {
	if F == nil {
		return nil, fmt.Errorf("variational problem needs a residual form")
	}
	if u == nil {
		return nil, fmt.Errorf("variational problem needs a function to solve for")
	}
	if J == nil {
		J = fdJacobian(F)
	}
	return &NonlinearVariationalProblem{F: F, J: J, U: u, BCs: bcs}, nil
}

// constrainedDofs maps every boundary-condition dof to its pinned
// value, resolving component offsets for mixed functions.
func (p *NonlinearVariationalProblem) constrainedDofs() (map[int]float64, error) {
	pinned := make(map[int]float64)
	for _, bc := range p.BCs {
		offset, err := p.subSpaceOffset(bc.Space())
		if err != nil {
			return nil, err
		}
		for _, d := range bc.Dofs() {
			pinned[offset+d] = bc.Value()
		}
	}
	return pinned, nil
}

func (p *NonlinearVariationalProblem) subSpaceOffset(fs *fem.FunctionSpace) (int, error) {
	if p.U.Space() == fem.Space(fs) {
		return 0, nil
	}
	if ms, ok := p.U.Space().(*fem.MixedFunctionSpace); ok {
		offset := 0
		for i := 0; i < ms.NumSubSpaces(); i++ {
			if ms.SubSpace(i) == fs {
				return offset, nil
			}
			offset += ms.SubSpace(i).Dim()
		}
	}
	return 0, fmt.Errorf("boundary condition space is not part of the problem space")
}

// LinearVariationalProblem is the linear problem a(u, v) = L(v),
// expressed for the nonlinear iteration as F(u) = A*u - b with
// Jacobian A.
type LinearVariationalProblem struct {
	*NonlinearVariationalProblem

	a                BilinearForm
	constantJacobian bool
	cachedA          *mat.Dense
}

// NewLinearVariationalProblem creates a linear problem from a bilinear
// form, a right-hand-side form and the function to solve for. With
// constantJacobian the operator is assembled once and reused.
func NewLinearVariationalProblem(a BilinearForm, L LinearForm, u *fem.Function, bcs []*fem.DirichletBC, constantJacobian bool) (*LinearVariationalProblem, error) {
	if a == nil || L == nil {
		return nil, fmt.Errorf("linear variational problem needs both forms")
	}
	if u == nil {
		return nil, fmt.Errorf("linear variational problem needs a function to solve for")
	}
	p := &LinearVariationalProblem{constantJacobian: constantJacobian, a: a}

	F := func(u *fem.Function, r []float64) error {
		A, err := p.operator()
		if err != nil {
			return err
		}
		b := make([]float64, len(r))
		if err := L(b); err != nil {
			return fmt.Errorf("assembling right-hand side: %w", err)
		}
		rVec := mat.NewVecDense(len(r), r)
		rVec.MulVec(A, mat.NewVecDense(len(u.Data()), u.Data()))
		floats.Sub(r, b)
		return nil
	}
	J := func(u *fem.Function, J *mat.Dense) error {
		A, err := p.operator()
		if err != nil {
			return err
		}
		J.CloneFrom(A)
		return nil
	}

	np, err := NewNonlinearVariationalProblem(F, u, bcs, J)
	if err != nil {
		return nil, err
	}
	p.NonlinearVariationalProblem = np
	return p, nil
}

func (p *LinearVariationalProblem) operator() (*mat.Dense, error) {
	if p.constantJacobian && p.cachedA != nil {
		return p.cachedA, nil
	}
	n := len(p.U.Data())
	A := mat.NewDense(n, n, nil)
	if err := p.a(A); err != nil {
		return nil, fmt.Errorf("assembling operator: %w", err)
	}
	if p.constantJacobian {
		p.cachedA = A
	}
	return A, nil
}
