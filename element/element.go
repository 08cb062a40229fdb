package element

import "gonum.org/v1/gonum/mat"

type Family uint8

const (
	Lagrange Family = iota
	DiscontinuousLagrange
)

// Element defines a finite element on the reference interval [0, 1].
type Element interface {
	Name() string
	Family() Family
	Order() int
	Np() int // Number of nodes per cell

	// Nodes returns the reference coordinates of the element nodes in
	// ascending order.
	Nodes() []float64

	// Continuous reports whether degrees of freedom on cell boundaries
	// are shared with neighbouring cells.
	Continuous() bool

	// Components is the number of vector components carried per node;
	// 1 for scalar elements.
	Components() int

	// Scalar returns the scalar sub-element; scalar elements return
	// themselves.
	Scalar() Element

	// EvalBasis evaluates basis function j at reference coordinate x.
	EvalBasis(j int, x float64) float64

	// EvalMatrix returns the matrix of all basis functions evaluated at
	// the given reference points: entry (i, j) is basis j at points[i].
	EvalMatrix(points []float64) *mat.Dense
}
