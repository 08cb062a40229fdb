package element

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// VectorElement carries several components of a scalar sub-element on a
// shared node layout. All components use the same basis; dof data is
// stored node-major with the components of one node adjacent.
type VectorElement struct {
	sub   Element
	ncomp int
}

// NewVector wraps a scalar element into a vector element with ncomp
// components.
func NewVector(sub Element, ncomp int) (*VectorElement, error) {
	if sub == nil {
		return nil, fmt.Errorf("vector element needs a scalar sub-element")
	}
	if sub.Components() != 1 {
		return nil, fmt.Errorf("vector element sub-element must be scalar, got %s", sub.Name())
	}
	if ncomp < 2 {
		return nil, fmt.Errorf("vector element needs at least 2 components, got %d", ncomp)
	}
	return &VectorElement{sub: sub, ncomp: ncomp}, nil
}

func (e *VectorElement) Name() string {
	return fmt.Sprintf("Vector(%s,%d)", e.sub.Name(), e.ncomp)
}

func (e *VectorElement) Family() Family { return e.sub.Family() }

func (e *VectorElement) Order() int { return e.sub.Order() }

func (e *VectorElement) Np() int { return e.sub.Np() }

func (e *VectorElement) Nodes() []float64 { return e.sub.Nodes() }

func (e *VectorElement) Continuous() bool { return e.sub.Continuous() }

func (e *VectorElement) Components() int { return e.ncomp }

func (e *VectorElement) Scalar() Element { return e.sub }

func (e *VectorElement) EvalBasis(j int, x float64) float64 {
	return e.sub.EvalBasis(j, x)
}

func (e *VectorElement) EvalMatrix(points []float64) *mat.Dense {
	return evalMatrix(e, points)
}
