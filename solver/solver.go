// Package solver binds opaque residual and Jacobian assembly forms to
// a damped-Newton iteration loop, with parameter maps, a prefixed
// options database and gcfg parameter files controlling the solve.
package solver

import (
	"fmt"
	"sync/atomic"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var solverID atomic.Int64

// Default solve parameters; entries in the solver's parameter map and
// prefixed options-database entries override them, in that order.
var defaultParameters = map[string]interface{}{
	"type":    "newtonls",
	"rtol":    1e-8,
	"atol":    1e-50,
	"dtol":    1e4,
	"max_it":  50,
	"monitor": false,
}

// NonlinearVariationalSolver solves a NonlinearVariationalProblem.
type NonlinearVariationalSolver struct {
	Parameters map[string]interface{}

	problem    *NonlinearVariationalProblem
	prefix     string
	autoPrefix bool
}

// NewNonlinearVariationalSolver creates a solver for the problem. The
// parameter map may be nil; an empty options prefix allocates a unique
// "fd_snes_<n>_" prefix.
func NewNonlinearVariationalSolver(p *NonlinearVariationalProblem, params map[string]interface{}, prefix string) (*NonlinearVariationalSolver, error) {
	if p == nil {
		return nil, fmt.Errorf("solver needs a problem")
	}
	s := &NonlinearVariationalSolver{
		Parameters: make(map[string]interface{}),
		problem:    p,
		prefix:     prefix,
	}
	if prefix == "" {
		s.prefix = fmt.Sprintf("fd_snes_%d_", solverID.Add(1)-1)
		s.autoPrefix = true
	}
	for k, v := range params {
		s.Parameters[k] = v
	}
	return s, nil
}

// OptionsPrefix returns the prefix scoping this solver's entries in the
// options database.
func (s *NonlinearVariationalSolver) OptionsPrefix() string { return s.prefix }

func (s *NonlinearVariationalSolver) effectiveParameters() map[string]interface{} {
	params := make(map[string]interface{}, len(defaultParameters))
	for k, v := range defaultParameters {
		params[k] = v
	}
	for k, v := range s.Parameters {
		params[k] = v
	}
	for k, v := range optionsWithPrefix(s.prefix) {
		params[k] = v
	}
	return params
}

func paramString(params map[string]interface{}, key string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

func paramFloat(params map[string]interface{}, key string) float64 {
	switch v := params[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func paramInt(params map[string]interface{}, key string) int {
	switch v := params[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func paramBool(params map[string]interface{}, key string) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return false
}

// Solve runs the iteration until the residual norm satisfies atol or
// rtol relative to the initial norm, returning a descriptive error on
// divergence. The boundary conditions are applied to the initial guess
// and held fixed by the updates.
func (s *NonlinearVariationalSolver) Solve() error {
	p := s.problem
	for _, bc := range p.BCs {
		if err := bc.Apply(p.U); err != nil {
			return fmt.Errorf("applying boundary condition: %w", err)
		}
	}
	pinned, err := p.constrainedDofs()
	if err != nil {
		return err
	}

	params := s.effectiveParameters()
	stype := paramString(params, "type")
	rtol := paramFloat(params, "rtol")
	atol := paramFloat(params, "atol")
	dtol := paramFloat(params, "dtol")
	maxIt := paramInt(params, "max_it")
	monitor := paramBool(params, "monitor")

	u := p.U
	n := len(u.Data())
	r := make([]float64, n)
	if err := p.F(u, r); err != nil {
		return fmt.Errorf("assembling residual: %w", err)
	}
	constrainResidual(r, pinned)
	norm0 := floats.Norm(r, 2)
	norm := norm0
	if monitor {
		fmt.Printf("  %3d Nonlinear residual norm %.12e\n", 0, norm)
	}

	steps := maxIt
	if stype == "ksponly" {
		steps = 1
	}
	J := mat.NewDense(n, n, nil)
	delta := mat.NewVecDense(n, nil)
	rhs := mat.NewVecDense(n, nil)
	for it := 0; it < steps; it++ {
		if stype != "ksponly" {
			if converged(norm, norm0, rtol, atol) {
				return nil
			}
			if norm > dtol*norm0 {
				return fmt.Errorf("nonlinear solve diverged: DIVERGED_DTOL after %d iterations, residual norm %g (initial %g)",
					it, norm, norm0)
			}
		}

		if err := p.J(u, J); err != nil {
			return fmt.Errorf("assembling Jacobian: %w", err)
		}
		constrainJacobian(J, pinned)
		for i := 0; i < n; i++ {
			rhs.SetVec(i, -r[i])
		}
		var lu mat.LU
		lu.Factorize(J)
		if err := lu.SolveVecTo(delta, false, rhs); err != nil {
			return fmt.Errorf("nonlinear solve diverged: DIVERGED_LINEAR_SOLVE at iteration %d: %w", it, err)
		}
		floats.Add(u.Data(), delta.RawVector().Data)

		if err := p.F(u, r); err != nil {
			return fmt.Errorf("assembling residual: %w", err)
		}
		constrainResidual(r, pinned)
		norm = floats.Norm(r, 2)
		if monitor {
			fmt.Printf("  %3d Nonlinear residual norm %.12e\n", it+1, norm)
		}
	}
	if stype == "ksponly" || converged(norm, norm0, rtol, atol) {
		return nil
	}
	return fmt.Errorf("nonlinear solve diverged: DIVERGED_MAX_IT after %d iterations, residual norm %g (initial %g)",
		maxIt, norm, norm0)
}

func converged(norm, norm0, rtol, atol float64) bool {
	return norm <= atol || norm <= rtol*norm0
}

// constrainResidual zeroes residual entries at pinned dofs; the
// iterate already satisfies the boundary values.
func constrainResidual(r []float64, pinned map[int]float64) {
	for d := range pinned {
		r[d] = 0
	}
}

// constrainJacobian replaces pinned rows by identity rows so Newton
// updates leave the boundary values in place.
func constrainJacobian(J *mat.Dense, pinned map[int]float64) {
	_, cols := J.Dims()
	for d := range pinned {
		for j := 0; j < cols; j++ {
			J.Set(d, j, 0)
		}
		J.Set(d, d, 1)
	}
}

// LinearVariationalSolver solves a LinearVariationalProblem; it is the
// nonlinear solver with a single-step type and a looser default
// relative tolerance.
type LinearVariationalSolver struct {
	*NonlinearVariationalSolver
}

// NewLinearVariationalSolver creates a solver for a linear problem.
func NewLinearVariationalSolver(p *LinearVariationalProblem, params map[string]interface{}, prefix string) (*LinearVariationalSolver, error) {
	if p == nil {
		return nil, fmt.Errorf("solver needs a problem")
	}
	inner, err := NewNonlinearVariationalSolver(p.NonlinearVariationalProblem, params, prefix)
	if err != nil {
		return nil, err
	}
	if _, ok := inner.Parameters["type"]; !ok {
		inner.Parameters["type"] = "ksponly"
	}
	if _, ok := inner.Parameters["rtol"]; !ok {
		inner.Parameters["rtol"] = 1e-7
	}
	return &LinearVariationalSolver{NonlinearVariationalSolver: inner}, nil
}
