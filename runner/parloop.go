package runner

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/alsgregory/firedrake/fem"
	"github.com/alsgregory/firedrake/utils"
)

// Arg binds one dof array into a parallel loop through a cell-to-node
// map with a declared access mode.
type Arg struct {
	Data   []float64
	Access Access
	Map    *fem.Map

	// PerSubCell indexes the map by cell*subCells+sub instead of by the
	// iteration cell, addressing the fine-level cells below each
	// iteration cell.
	PerSubCell bool

	// BlockSize is the number of scalar dofs per node; 0 means 1.
	BlockSize int
}

func (a *Arg) blockSize() int {
	if a.BlockSize <= 0 {
		return 1
	}
	return a.BlockSize
}

// Kernel is an elementwise operation invoked once per (cell, subcell).
// locals[i] holds argument i's local buffer of length arity*blockSize:
// gathered values for Read args, zeros for Inc args, and NaN sentinels
// for Write args. Write entries left at NaN are not scattered back.
type Kernel func(cell, sub int, locals [][]float64)

// ParLoop executes the kernel over cells*subCells invocations with no
// cross-cell ordering guarantee, gathering and scattering each
// argument through its map. The call is synchronous: it returns only
// after every invocation has completed and all increments are applied.
func ParLoop(k Kernel, cells, subCells int, args ...Arg) error {
	if k == nil {
		return fmt.Errorf("par loop needs a kernel")
	}
	if subCells < 1 {
		return fmt.Errorf("par loop needs subCells >= 1, got %d", subCells)
	}
	if len(args) == 0 {
		return fmt.Errorf("par loop needs at least one argument")
	}
	for i := range args {
		if err := validateArg(&args[i], i, cells, subCells); err != nil {
			return err
		}
	}
	if err := checkAliasing(args); err != nil {
		return err
	}
	if cells == 0 {
		return nil
	}

	chunks := utils.SplitRange(cells, runtime.GOMAXPROCS(0))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, chunk := range chunks {
		wg.Add(1)
		go func(chunk utils.Range) {
			defer wg.Done()
			locals := make([][]float64, len(args))
			for i := range args {
				locals[i] = make([]float64, args[i].Map.Arity()*args[i].blockSize())
			}
			for cell := chunk.Start; cell < chunk.End; cell++ {
				for sub := 0; sub < subCells; sub++ {
					for i := range args {
						stageLocal(&args[i], locals[i], cell, sub, subCells)
					}
					k(cell, sub, locals)
					mu.Lock()
					for i := range args {
						scatterLocal(&args[i], locals[i], cell, sub, subCells)
					}
					mu.Unlock()
				}
			}
		}(chunk)
	}
	wg.Wait()
	return nil
}

func validateArg(a *Arg, i, cells, subCells int) error {
	if a.Map == nil {
		return fmt.Errorf("par loop argument %d has no map", i)
	}
	need := cells
	if a.PerSubCell {
		need = cells * subCells
	}
	if a.Map.Len() < need {
		return fmt.Errorf("par loop argument %d: map covers %d cells, iteration needs %d",
			i, a.Map.Len(), need)
	}
	bs := a.blockSize()
	for c := 0; c < need; c++ {
		for _, n := range a.Map.Cell(c) {
			if (n+1)*bs > len(a.Data) {
				return fmt.Errorf("par loop argument %d: node %d exceeds data length %d (block size %d)",
					i, n, len(a.Data), bs)
			}
		}
	}
	return nil
}

// checkAliasing rejects loops whose read arguments share storage with a
// written argument; gathers run unlocked, so such aliasing would race.
func checkAliasing(args []Arg) error {
	for i := range args {
		if args[i].Access != Read || len(args[i].Data) == 0 {
			continue
		}
		for j := range args {
			if args[j].Access == Read || len(args[j].Data) == 0 {
				continue
			}
			if &args[i].Data[0] == &args[j].Data[0] {
				return fmt.Errorf("par loop argument %d (READ) aliases argument %d (%s)",
					i, j, args[j].Access)
			}
		}
	}
	return nil
}

func (a *Arg) effectiveCell(cell, sub, subCells int) int {
	if a.PerSubCell {
		return cell*subCells + sub
	}
	return cell
}

func stageLocal(a *Arg, local []float64, cell, sub, subCells int) {
	nodes := a.Map.Cell(a.effectiveCell(cell, sub, subCells))
	bs := a.blockSize()
	switch a.Access {
	case Read:
		for i, n := range nodes {
			copy(local[i*bs:(i+1)*bs], a.Data[n*bs:(n+1)*bs])
		}
	case Inc:
		for i := range local {
			local[i] = 0
		}
	case Write:
		for i := range local {
			local[i] = math.NaN()
		}
	}
}

func scatterLocal(a *Arg, local []float64, cell, sub, subCells int) {
	if a.Access == Read {
		return
	}
	nodes := a.Map.Cell(a.effectiveCell(cell, sub, subCells))
	bs := a.blockSize()
	for i, n := range nodes {
		for c := 0; c < bs; c++ {
			v := local[i*bs+c]
			switch a.Access {
			case Write:
				if !math.IsNaN(v) {
					a.Data[n*bs+c] = v
				}
			case Inc:
				a.Data[n*bs+c] += v
			}
		}
	}
}
