package solver

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/alsgregory/firedrake/fem"
)

// Residual assembles the nonlinear residual F(u) into r, which has the
// same length as u's dof array. The assembly itself is opaque to the
// solver; only its values drive the iteration.
type Residual func(u *fem.Function, r []float64) error

// Jacobian assembles dF/du at u into J.
type Jacobian func(u *fem.Function, J *mat.Dense) error

// BilinearForm assembles the operator of a linear problem into A.
type BilinearForm func(A *mat.Dense) error

// LinearForm assembles the right-hand side of a linear problem into b.
type LinearForm func(b []float64) error

// fdJacobian derives a Jacobian from the residual by one-sided finite
// differences, standing in for a symbolically derived Jacobian when
// the problem does not supply one.
func fdJacobian(F Residual) Jacobian {
	return func(u *fem.Function, J *mat.Dense) error {
		data := u.Data()
		n := len(data)
		J.ReuseAs(n, n)

		base := make([]float64, n)
		if err := F(u, base); err != nil {
			return fmt.Errorf("assembling residual for finite-difference Jacobian: %w", err)
		}
		pert := make([]float64, n)
		for j := 0; j < n; j++ {
			h := math.Sqrt(2.2e-16) * math.Max(1, math.Abs(data[j]))
			saved := data[j]
			data[j] = saved + h
			err := F(u, pert)
			data[j] = saved
			if err != nil {
				return fmt.Errorf("assembling perturbed residual for finite-difference Jacobian: %w", err)
			}
			for i := 0; i < n; i++ {
				J.Set(i, j, (pert[i]-base[i])/h)
			}
		}
		return nil
	}
}
