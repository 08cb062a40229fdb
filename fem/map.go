package fem

// Map is a fixed-arity cell-to-node map: for each cell, the ordered
// global node indices its element touches. Arity is constant within a
// map.
type Map struct {
	arity  int
	values [][]int
}

func NewMap(arity int, values [][]int) *Map {
	return &Map{arity: arity, values: values}
}

// Arity is the number of nodes per cell.
func (m *Map) Arity() int { return m.arity }

// Len is the number of cells the map covers.
func (m *Map) Len() int { return len(m.values) }

// Cell returns the node indices of cell c. Callers must not mutate the
// returned slice.
func (m *Map) Cell(c int) []int { return m.values[c] }
