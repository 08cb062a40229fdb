package solver

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gonum.org/v1/gonum/mat"

	"github.com/alsgregory/firedrake/element"
	"github.com/alsgregory/firedrake/fem"
	"github.com/alsgregory/firedrake/mesh"
)

func testSpace(t *testing.T, ncells int) *fem.FunctionSpace {
	t.Helper()
	m, err := mesh.NewUnitIntervalMesh(ncells)
	require.NoError(t, err)
	el, err := element.NewLagrange(1)
	require.NoError(t, err)
	fs, err := fem.NewFunctionSpace(m, el)
	require.NoError(t, err)
	return fs
}

// poissonForms assembles the P1 stiffness matrix and load vector for
// -u'' = 2 on the unit interval.
func poissonForms(fs *fem.FunctionSpace) (BilinearForm, LinearForm) {
	a := func(A *mat.Dense) error {
		m := fs.Mesh()
		cn := fs.CellNodeMap()
		for c := 0; c < m.NumCells(); c++ {
			x0, x1 := m.CellCoords(c)
			k := 1 / (x1 - x0)
			n := cn.Cell(c)
			A.Set(n[0], n[0], A.At(n[0], n[0])+k)
			A.Set(n[0], n[1], A.At(n[0], n[1])-k)
			A.Set(n[1], n[0], A.At(n[1], n[0])-k)
			A.Set(n[1], n[1], A.At(n[1], n[1])+k)
		}
		return nil
	}
	L := func(b []float64) error {
		m := fs.Mesh()
		cn := fs.CellNodeMap()
		for c := 0; c < m.NumCells(); c++ {
			x0, x1 := m.CellCoords(c)
			h := x1 - x0
			n := cn.Cell(c)
			b[n[0]] += h
			b[n[1]] += h
		}
		return nil
	}
	return a, L
}

// ============================================================================
// Section 1: Linear problems
// ============================================================================

func TestLinearPoisson(t *testing.T) {
	// -u'' = 2 with u(0) = u(1) = 0 has solution x(1-x), which P1
	// elements reproduce exactly at the nodes.
	fs := testSpace(t, 8)
	u, err := fem.NewFunction(fs, "u")
	require.NoError(t, err)
	bc, err := fem.NewDirichletBC(fs, 0, nil)
	require.NoError(t, err)

	a, L := poissonForms(fs)
	problem, err := NewLinearVariationalProblem(a, L, u, []*fem.DirichletBC{bc}, true)
	require.NoError(t, err)
	s, err := NewLinearVariationalSolver(problem, nil, "")
	require.NoError(t, err)
	require.NoError(t, s.Solve())

	for n, x := range fs.Mesh().Vertices {
		assert.InDelta(t, x*(1-x), u.Data()[n], 1e-12, "node %d", n)
	}
}

func TestLinearSolverDefaults(t *testing.T) {
	fs := testSpace(t, 2)
	u, err := fem.NewFunction(fs)
	require.NoError(t, err)
	a, L := poissonForms(fs)
	problem, err := NewLinearVariationalProblem(a, L, u, nil, true)
	require.NoError(t, err)

	s, err := NewLinearVariationalSolver(problem, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "ksponly", s.Parameters["type"])
	assert.Equal(t, 1e-7, s.Parameters["rtol"])

	// Caller-supplied parameters are not overridden.
	s2, err := NewLinearVariationalSolver(problem, map[string]interface{}{"type": "newtonls"}, "")
	require.NoError(t, err)
	assert.Equal(t, "newtonls", s2.Parameters["type"])
}

// ============================================================================
// Section 2: Nonlinear problems
// ============================================================================

// quadraticProblem builds the decoupled system F_i(u) = u_i^2 - 4 with
// roots at 2; the Jacobian is derived by finite differencing.
func quadraticProblem(t *testing.T) *NonlinearVariationalProblem {
	t.Helper()
	fs := testSpace(t, 2)
	u, err := fem.NewFunction(fs, "u")
	require.NoError(t, err)
	for i := range u.Data() {
		u.Data()[i] = 1
	}
	F := func(u *fem.Function, r []float64) error {
		for i, v := range u.Data() {
			r[i] = v*v - 4
		}
		return nil
	}
	p, err := NewNonlinearVariationalProblem(F, u, nil, nil)
	require.NoError(t, err)
	return p
}

func TestNewtonConvergence(t *testing.T) {
	p := quadraticProblem(t)
	s, err := NewNonlinearVariationalSolver(p, nil, "")
	require.NoError(t, err)
	require.NoError(t, s.Solve())
	for i, v := range p.U.Data() {
		assert.InDelta(t, 2.0, v, 1e-6, "dof %d", i)
	}
}

func TestNewtonDivergenceError(t *testing.T) {
	p := quadraticProblem(t)
	s, err := NewNonlinearVariationalSolver(p, map[string]interface{}{
		"max_it": 1,
		"rtol":   1e-14,
		"atol":   1e-14,
	}, "")
	require.NoError(t, err)
	err = s.Solve()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DIVERGED_MAX_IT")
}

func TestNewtonWithBoundaryConditions(t *testing.T) {
	// Nonlinear Poisson-like problem: the boundary dofs stay pinned.
	fs := testSpace(t, 4)
	u, err := fem.NewFunction(fs, "u")
	require.NoError(t, err)
	bc, err := fem.NewDirichletBC(fs, 1, nil)
	require.NoError(t, err)
	for i := range u.Data() {
		u.Data()[i] = 0.5
	}
	F := func(u *fem.Function, r []float64) error {
		for i, v := range u.Data() {
			r[i] = v*v*v - 1
		}
		return nil
	}
	p, err := NewNonlinearVariationalProblem(F, u, []*fem.DirichletBC{bc}, nil)
	require.NoError(t, err)
	s, err := NewNonlinearVariationalSolver(p, nil, "")
	require.NoError(t, err)
	require.NoError(t, s.Solve())
	for i, v := range u.Data() {
		assert.InDelta(t, 1.0, v, 1e-6, "dof %d", i)
	}
}

// ============================================================================
// Section 3: Parameter plumbing
// ============================================================================

func TestOptionsPrefix(t *testing.T) {
	p := quadraticProblem(t)
	s, err := NewNonlinearVariationalSolver(p, nil, "")
	require.NoError(t, err)
	assert.NotEmpty(t, s.OptionsPrefix())

	s2, err := NewNonlinearVariationalSolver(p, nil, "")
	require.NoError(t, err)
	assert.NotEqual(t, s.OptionsPrefix(), s2.OptionsPrefix(), "auto prefixes must be unique")

	s3, err := NewNonlinearVariationalSolver(p, nil, "my_solve_")
	require.NoError(t, err)
	assert.Equal(t, "my_solve_", s3.OptionsPrefix())
}

func TestOptionsDatabaseOverride(t *testing.T) {
	p := quadraticProblem(t)
	s, err := NewNonlinearVariationalSolver(p, nil, "override_test_")
	require.NoError(t, err)

	SetOption("override_test_max_it", "1")
	SetOption("override_test_rtol", "1e-14")
	SetOption("override_test_atol", "1e-14")
	defer func() {
		UnsetOption("override_test_max_it")
		UnsetOption("override_test_rtol")
		UnsetOption("override_test_atol")
	}()

	err = s.Solve()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DIVERGED_MAX_IT")

	v, ok := GetOption("override_test_max_it")
	require.True(t, ok)
	assert.Equal(t, "1", v)
}

func TestLoadParameters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "solver.ini")
	content := "[solver]\ntype = newtonls\nrtol = 1e-10\nmaxit = 25\nmonitor = true\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	params, err := LoadParameters(path)
	require.NoError(t, err)
	assert.Equal(t, "newtonls", params["type"])
	assert.Equal(t, 1e-10, params["rtol"])
	assert.Equal(t, 25, params["max_it"])
	assert.Equal(t, true, params["monitor"])
	_, ok := params["atol"]
	assert.False(t, ok, "unset keys must not appear")

	_, err = LoadParameters(filepath.Join(t.TempDir(), "missing.ini"))
	assert.Error(t, err)
}

// ============================================================================
// Section 4: Finite-difference Jacobian
// ============================================================================

func TestFDJacobian(t *testing.T) {
	fs := testSpace(t, 1)
	u, err := fem.NewFunction(fs)
	require.NoError(t, err)
	u.Data()[0] = 1.5
	u.Data()[1] = -0.5

	F := func(u *fem.Function, r []float64) error {
		r[0] = u.Data()[0] * u.Data()[1]
		r[1] = math.Sin(u.Data()[1])
		return nil
	}
	J := fdJacobian(F)
	n := len(u.Data())
	jac := mat.NewDense(n, n, nil)
	require.NoError(t, J(u, jac))

	assert.InDelta(t, -0.5, jac.At(0, 0), 1e-6)
	assert.InDelta(t, 1.5, jac.At(0, 1), 1e-6)
	assert.InDelta(t, 0.0, jac.At(1, 0), 1e-6)
	assert.InDelta(t, math.Cos(-0.5), jac.At(1, 1), 1e-6)
}
