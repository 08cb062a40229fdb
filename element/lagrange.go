package element

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// LagrangeElement is a nodal Lagrange element on [0, 1] with equispaced
// nodes. The continuous variant shares its endpoint nodes with
// neighbouring cells; the discontinuous variant owns all its nodes.
type LagrangeElement struct {
	family Family
	order  int
	nodes  []float64
}

// NewLagrange creates a continuous Lagrange element of the given order
// (order >= 1).
func NewLagrange(order int) (*LagrangeElement, error) {
	if order < 1 {
		return nil, fmt.Errorf("continuous Lagrange element needs order >= 1, got %d", order)
	}
	return &LagrangeElement{
		family: Lagrange,
		order:  order,
		nodes:  equispacedNodes(order),
	}, nil
}

// NewDiscontinuousLagrange creates a discontinuous Lagrange element of
// the given order (order >= 0). Order 0 places its single node at the
// cell midpoint.
func NewDiscontinuousLagrange(order int) (*LagrangeElement, error) {
	if order < 0 {
		return nil, fmt.Errorf("discontinuous Lagrange element needs order >= 0, got %d", order)
	}
	var nodes []float64
	if order == 0 {
		nodes = []float64{0.5}
	} else {
		nodes = equispacedNodes(order)
	}
	return &LagrangeElement{
		family: DiscontinuousLagrange,
		order:  order,
		nodes:  nodes,
	}, nil
}

func equispacedNodes(order int) []float64 {
	nodes := make([]float64, order+1)
	for i := range nodes {
		nodes[i] = float64(i) / float64(order)
	}
	return nodes
}

func (e *LagrangeElement) Name() string {
	if e.family == DiscontinuousLagrange {
		return fmt.Sprintf("DG%d", e.order)
	}
	return fmt.Sprintf("CG%d", e.order)
}

func (e *LagrangeElement) Family() Family { return e.family }

func (e *LagrangeElement) Order() int { return e.order }

func (e *LagrangeElement) Np() int { return len(e.nodes) }

func (e *LagrangeElement) Nodes() []float64 { return e.nodes }

func (e *LagrangeElement) Continuous() bool { return e.family == Lagrange }

func (e *LagrangeElement) Components() int { return 1 }

func (e *LagrangeElement) Scalar() Element { return e }

// EvalBasis evaluates the Lagrange interpolating polynomial anchored at
// node j:
//
//	(x - x0)   (x - x1)
//	-------- * -------- * ...   over all nodes other than xj
//	(xj - x0)  (xj - x1)
func (e *LagrangeElement) EvalBasis(j int, x float64) float64 {
	v := 1.0
	xj := e.nodes[j]
	for m, xm := range e.nodes {
		if m == j {
			continue
		}
		v *= (x - xm) / (xj - xm)
	}
	return v
}

func (e *LagrangeElement) EvalMatrix(points []float64) *mat.Dense {
	return evalMatrix(e, points)
}

func evalMatrix(e Element, points []float64) *mat.Dense {
	np := e.Np()
	m := mat.NewDense(len(points), np, nil)
	for i, x := range points {
		for j := 0; j < np; j++ {
			m.Set(i, j, e.EvalBasis(j, x))
		}
	}
	return m
}
