package fem

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Function is a discrete field: a flat dof array bound to a function
// space. Functions on a mixed space hold the concatenated component
// dofs and expose per-component view Functions through Split.
type Function struct {
	name  string
	space Space
	data  []float64
	subs  []*Function
}

// NewFunction allocates a zeroed function on the space. An optional
// name is used in error messages and checkpoints.
func NewFunction(space Space, name ...string) (*Function, error) {
	if space == nil {
		return nil, fmt.Errorf("function needs a space")
	}
	f := &Function{
		name:  "function",
		space: space,
		data:  make([]float64, space.Dim()),
	}
	if len(name) > 0 {
		f.name = name[0]
	}
	if ms, ok := space.(*MixedFunctionSpace); ok {
		f.subs = make([]*Function, ms.NumSubSpaces())
		offset := 0
		for i := 0; i < ms.NumSubSpaces(); i++ {
			sub := ms.SubSpace(i)
			f.subs[i] = &Function{
				name:  fmt.Sprintf("%s[%d]", f.name, i),
				space: sub,
				data:  f.data[offset : offset+sub.Dim()],
			}
			offset += sub.Dim()
		}
	}
	return f, nil
}

func (f *Function) Name() string { return f.name }

func (f *Function) Rename(name string) { f.name = name }

func (f *Function) Space() Space { return f.space }

// Data returns the dof array. Mutations write through to the function.
func (f *Function) Data() []float64 { return f.data }

// Split returns the ordered component views of a mixed function, or
// nil for a plain function. The views alias the parent's storage.
func (f *Function) Split() []*Function { return f.subs }

// Zero sets every dof to zero.
func (f *Function) Zero() {
	for i := range f.data {
		f.data[i] = 0
	}
}

// Assign copies g's dofs into f. The spaces must have equal dimension.
func (f *Function) Assign(g *Function) error {
	if len(f.data) != len(g.data) {
		return fmt.Errorf("cannot assign %q (%d dofs) to %q (%d dofs)",
			g.name, len(g.data), f.name, len(f.data))
	}
	copy(f.data, g.data)
	return nil
}

// Scale multiplies every dof by a.
func (f *Function) Scale(a float64) {
	floats.Scale(a, f.data)
}

// AddScaled adds a*g to f in place.
func (f *Function) AddScaled(a float64, g *Function) error {
	if len(f.data) != len(g.data) {
		return fmt.Errorf("cannot add %q (%d dofs) to %q (%d dofs)",
			g.name, len(g.data), f.name, len(f.data))
	}
	floats.AddScaled(f.data, a, g.data)
	return nil
}

// Norm returns the Euclidean norm of the dof array.
func (f *Function) Norm() float64 {
	return floats.Norm(f.data, 2)
}

// FunctionHierarchy is an ordered sequence of functions, one per level
// of a space hierarchy.
type FunctionHierarchy struct {
	spaces *SpaceHierarchy
	fns    []*Function
}

// NewFunctionHierarchy allocates a zeroed function on every level.
func NewFunctionHierarchy(h *SpaceHierarchy, name ...string) (*FunctionHierarchy, error) {
	if h == nil {
		return nil, fmt.Errorf("function hierarchy needs a space hierarchy")
	}
	fh := &FunctionHierarchy{
		spaces: h,
		fns:    make([]*Function, h.Len()),
	}
	for l := 0; l < h.Len(); l++ {
		fn, err := NewFunction(h.Level(l), name...)
		if err != nil {
			return nil, err
		}
		fh.fns[l] = fn
	}
	return fh, nil
}

func (fh *FunctionHierarchy) Len() int { return len(fh.fns) }

// Level returns the function at level l.
func (fh *FunctionHierarchy) Level(l int) *Function { return fh.fns[l] }

// Spaces returns the space hierarchy the functions live on.
func (fh *FunctionHierarchy) Spaces() *SpaceHierarchy { return fh.spaces }
