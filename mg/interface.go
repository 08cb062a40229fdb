// Package mg implements the inter-level transfer operators of a
// geometric multigrid hierarchy: prolongation (coarse to fine),
// restriction (fine to coarse, weighted at shared dofs) and injection
// (fine to coarse, direct sampling).
package mg

import (
	"fmt"

	"github.com/alsgregory/firedrake/fem"
	"github.com/alsgregory/firedrake/mesh"
	"github.com/alsgregory/firedrake/runner"
)

// resolveLevels locates the hierarchy both functions belong to and the
// coarse level index. Failing any precondition is an error before any
// kernel is dispatched, so neither function is mutated.
func resolveLevels(coarse, fine *fem.Function) (fem.Hierarchy, int, error) {
	h, lvl, ok := fem.GetLevel(coarse.Space())
	if !ok {
		return nil, 0, fmt.Errorf("coarse function %q is not from a hierarchy", coarse.Name())
	}
	fh, flvl, ok := fem.GetLevel(fine.Space())
	if !ok {
		return nil, 0, fmt.Errorf("fine function %q is not from a hierarchy", fine.Name())
	}
	if fh != h {
		return nil, 0, fmt.Errorf("functions %q and %q are from different hierarchies",
			coarse.Name(), fine.Name())
	}
	if flvl != lvl+1 {
		return nil, 0, fmt.Errorf("levels are not adjacent: %q is level %d, %q is level %d",
			coarse.Name(), lvl, fine.Name(), flvl)
	}
	return h, lvl, nil
}

// Prolong interpolates the coarse function onto the fine function, one
// level up in the same hierarchy. Every fine dof is overwritten exactly
// once per call.
func Prolong(coarse, fine *fem.Function) error {
	h, lvl, err := resolveLevels(coarse, fine)
	if err != nil {
		return err
	}
	if _, ok := h.(*fem.MixedSpaceHierarchy); ok {
		cs, fs := coarse.Split(), fine.Split()
		if len(cs) != len(fs) {
			return fmt.Errorf("mixed component mismatch: %q has %d sub-functions, %q has %d",
				coarse.Name(), len(cs), fine.Name(), len(fs))
		}
		for i := range cs {
			if err := Prolong(cs[i], fs[i]); err != nil {
				return err
			}
		}
		return nil
	}
	sh := h.(*fem.SpaceHierarchy)
	ker := newTransferKernels(sh.Element(), mesh.SubCells)
	bs := sh.Element().Components()
	np := ker.np
	cfs, ffs := sh.Level(lvl), sh.Level(lvl+1)

	return runner.ParLoop(func(cell, sub int, locals [][]float64) {
		fineLocal, coarseLocal := locals[0], locals[1]
		P := ker.prolong[sub]
		for i := 0; i < np; i++ {
			for c := 0; c < bs; c++ {
				v := 0.0
				for j := 0; j < np; j++ {
					v += P.At(i, j) * coarseLocal[j*bs+c]
				}
				fineLocal[i*bs+c] = v
			}
		}
	}, cfs.Mesh().NumCells(), mesh.SubCells,
		runner.Arg{Data: fine.Data(), Access: runner.Write, Map: ffs.CellNodeMap(), PerSubCell: true, BlockSize: bs},
		runner.Arg{Data: coarse.Data(), Access: runner.Read, Map: cfs.CellNodeMap(), BlockSize: bs})
}

// Inject samples the fine function at the coarse node positions,
// overwriting the coarse function. No weighting is applied.
func Inject(fine, coarse *fem.Function) error {
	h, lvl, err := resolveLevels(coarse, fine)
	if err != nil {
		return err
	}
	if _, ok := h.(*fem.MixedSpaceHierarchy); ok {
		fs, cs := fine.Split(), coarse.Split()
		if len(fs) != len(cs) {
			return fmt.Errorf("mixed component mismatch: %q has %d sub-functions, %q has %d",
				fine.Name(), len(fs), coarse.Name(), len(cs))
		}
		for i := range fs {
			if err := Inject(fs[i], cs[i]); err != nil {
				return err
			}
		}
		return nil
	}
	sh := h.(*fem.SpaceHierarchy)
	ker := newTransferKernels(sh.Element(), mesh.SubCells)
	bs := sh.Element().Components()
	np := ker.np
	cfs, ffs := sh.Level(lvl), sh.Level(lvl+1)

	return runner.ParLoop(func(cell, sub int, locals [][]float64) {
		coarseLocal, fineLocal := locals[0], locals[1]
		E := ker.eval[sub]
		for r, i := range ker.owned[sub] {
			for c := 0; c < bs; c++ {
				v := 0.0
				for j := 0; j < np; j++ {
					v += E.At(r, j) * fineLocal[j*bs+c]
				}
				coarseLocal[i*bs+c] = v
			}
		}
	}, cfs.Mesh().NumCells(), mesh.SubCells,
		runner.Arg{Data: coarse.Data(), Access: runner.Write, Map: cfs.CellNodeMap(), BlockSize: bs},
		runner.Arg{Data: fine.Data(), Access: runner.Read, Map: ffs.CellNodeMap(), PerSubCell: true, BlockSize: bs})
}

// Restrict accumulates the fine function onto the coarse function. The
// coarse data is zeroed first, then assembled by increments over every
// fine subcell. Continuous spaces weight each fine dof by the
// reciprocal of its fine-cell incidence count, so dofs shared between
// cells are averaged rather than multiply counted; discontinuous
// spaces share no dofs and skip weighting.
func Restrict(fine, coarse *fem.Function) error {
	h, lvl, err := resolveLevels(coarse, fine)
	if err != nil {
		return err
	}
	if _, ok := h.(*fem.MixedSpaceHierarchy); ok {
		fs, cs := fine.Split(), coarse.Split()
		if len(fs) != len(cs) {
			return fmt.Errorf("mixed component mismatch: %q has %d sub-functions, %q has %d",
				fine.Name(), len(fs), coarse.Name(), len(cs))
		}
		for i := range fs {
			if err := Restrict(fs[i], cs[i]); err != nil {
				return err
			}
		}
		return nil
	}
	sh := h.(*fem.SpaceHierarchy)
	ker := newTransferKernels(sh.Element(), mesh.SubCells)
	bs := sh.Element().Components()
	np := ker.np
	cfs, ffs := sh.Level(lvl), sh.Level(lvl+1)

	// We hit each fine dof more than once when looping elementwise over
	// the coarse cells, so a count of how many times is needed to
	// weight each contribution.
	var weights *fem.Function
	if !sh.Discontinuous() {
		var buildErr error
		wh := sh.RestrictionWeights(func() *fem.FunctionHierarchy {
			fh, err := buildRestrictionWeights(sh)
			if err != nil {
				buildErr = err
				return nil
			}
			return fh
		})
		if buildErr != nil {
			return fmt.Errorf("building restriction weights: %w", buildErr)
		}
		if wh == nil {
			return fmt.Errorf("restriction weights unavailable: an earlier build failed")
		}
		weights = wh.Level(lvl + 1)
	}

	args := []runner.Arg{
		{Data: coarse.Data(), Access: runner.Inc, Map: cfs.CellNodeMap(), BlockSize: bs},
		{Data: fine.Data(), Access: runner.Read, Map: ffs.CellNodeMap(), PerSubCell: true, BlockSize: bs},
	}
	if weights != nil {
		wfs := weights.Space().(*fem.FunctionSpace)
		args = append(args, runner.Arg{
			Data:       weights.Data(),
			Access:     runner.Read,
			Map:        wfs.CellNodeMap(),
			PerSubCell: true,
		})
	}

	coarse.Zero()
	return runner.ParLoop(func(cell, sub int, locals [][]float64) {
		coarseLocal, fineLocal := locals[0], locals[1]
		E := ker.eval[sub]
		for r, i := range ker.owned[sub] {
			for c := 0; c < bs; c++ {
				v := 0.0
				for j := 0; j < np; j++ {
					w := 1.0
					if weights != nil {
						w = locals[2][j]
					}
					v += E.At(r, j) * w * fineLocal[j*bs+c]
				}
				coarseLocal[i*bs+c] += v
			}
		}
	}, cfs.Mesh().NumCells(), mesh.SubCells, args...)
}

// buildRestrictionWeights counts, for every fine dof at each level, the
// number of fine cells incident on it, then inverts the counts into
// averaging weights. Runs once per hierarchy.
func buildRestrictionWeights(h *fem.SpaceHierarchy) (*fem.FunctionHierarchy, error) {
	ws := h
	if el := h.Element(); el.Components() > 1 {
		// One scalar weight field serves every vector component; this
		// assumes all components share the node layout.
		scalar, err := fem.NewSpaceHierarchy(h.Meshes(), el.Scalar())
		if err != nil {
			return nil, err
		}
		ws = scalar
	}
	weights, err := fem.NewFunctionHierarchy(ws, "restriction_weights")
	if err != nil {
		return nil, err
	}
	for l := 1; l < weights.Len(); l++ {
		w := weights.Level(l)
		err := runner.ParLoop(func(cell, sub int, locals [][]float64) {
			for i := range locals[0] {
				locals[0][i]++
			}
		}, ws.Level(l-1).Mesh().NumCells(), mesh.SubCells,
			runner.Arg{Data: w.Data(), Access: runner.Inc, Map: ws.Level(l).CellNodeMap(), PerSubCell: true})
		if err != nil {
			return nil, err
		}
		// inverse, since they are used as weights, not counts
		data := w.Data()
		for i := range data {
			data[i] = 1 / data[i]
		}
	}
	return weights, nil
}
