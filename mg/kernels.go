package mg

import (
	"gonum.org/v1/gonum/mat"

	"github.com/alsgregory/firedrake/element"
)

// nodeTol decides whether a coarse node sits inside a subcell; nodes on
// a subcell boundary belong to both neighbouring subcells, matching the
// incidence counts the restriction weights are built from.
const nodeTol = 1e-12

// transferKernels holds the per-subcell element matrices the transfer
// kernels are driven by.
type transferKernels struct {
	np int

	// prolong[sub] evaluates the coarse basis at the fine node
	// positions of subcell sub: entry (i, j) is coarse basis j at fine
	// node i.
	prolong []*mat.Dense

	// owned[sub] lists the coarse nodes whose reference coordinate lies
	// in subcell sub; eval[sub] evaluates the fine basis at those
	// coordinates, rows aligned with owned[sub].
	owned [][]int
	eval  []*mat.Dense
}

func newTransferKernels(el element.Element, nsub int) *transferKernels {
	np := el.Np()
	nodes := el.Nodes()
	k := &transferKernels{
		np:      np,
		prolong: make([]*mat.Dense, nsub),
		owned:   make([][]int, nsub),
		eval:    make([]*mat.Dense, nsub),
	}
	for sub := 0; sub < nsub; sub++ {
		// fine node positions in coarse reference coordinates
		mapped := make([]float64, np)
		for i, x := range nodes {
			mapped[i] = (float64(sub) + x) / float64(nsub)
		}
		k.prolong[sub] = el.EvalMatrix(mapped)

		// coarse nodes landing in this subcell, in subcell coordinates
		var owned []int
		var points []float64
		for i, x := range nodes {
			local := x*float64(nsub) - float64(sub)
			if local >= -nodeTol && local <= 1+nodeTol {
				owned = append(owned, i)
				points = append(points, local)
			}
		}
		k.owned[sub] = owned
		k.eval[sub] = el.EvalMatrix(points)
	}
	return k
}
