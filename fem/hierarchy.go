package fem

import (
	"fmt"
	"sync"

	"github.com/alsgregory/firedrake/element"
	"github.com/alsgregory/firedrake/mesh"
)

// Hierarchy is a level-indexed family of function spaces: either a
// plain *SpaceHierarchy or a *MixedSpaceHierarchy.
type Hierarchy interface {
	Len() int
}

// SpaceHierarchy holds one function space per level of a mesh
// hierarchy, all sharing one finite element. Construction stamps every
// level space with a back-reference so GetLevel can recover ownership.
type SpaceHierarchy struct {
	meshes *mesh.Hierarchy
	levels []*FunctionSpace
	elem   element.Element

	// restriction weights, built lazily by the first restriction of a
	// continuous hierarchy and reused for the hierarchy lifetime
	weightsOnce sync.Once
	weights     *FunctionHierarchy
}

// NewSpaceHierarchy builds a function space on every level of the mesh
// hierarchy.
func NewSpaceHierarchy(mh *mesh.Hierarchy, el element.Element) (*SpaceHierarchy, error) {
	if mh == nil || el == nil {
		return nil, fmt.Errorf("space hierarchy needs a mesh hierarchy and an element")
	}
	h := &SpaceHierarchy{
		meshes: mh,
		levels: make([]*FunctionSpace, mh.Len()),
		elem:   el,
	}
	for l := 0; l < mh.Len(); l++ {
		fs, err := NewFunctionSpace(mh.Mesh(l), el)
		if err != nil {
			return nil, fmt.Errorf("level %d: %w", l, err)
		}
		fs.hier = h
		fs.level = l
		h.levels[l] = fs
	}
	return h, nil
}

func (h *SpaceHierarchy) Len() int { return len(h.levels) }

// Level returns the function space at level l.
func (h *SpaceHierarchy) Level(l int) *FunctionSpace { return h.levels[l] }

func (h *SpaceHierarchy) Meshes() *mesh.Hierarchy { return h.meshes }

func (h *SpaceHierarchy) Element() element.Element { return h.elem }

// Discontinuous reports whether the hierarchy's element duplicates
// boundary dofs per cell, making restriction weighting unnecessary.
func (h *SpaceHierarchy) Discontinuous() bool { return !h.elem.Continuous() }

// RestrictionWeights returns the cached restriction weight hierarchy,
// invoking build to create it on first use. The build runs at most once
// per hierarchy, even under concurrent first callers.
func (h *SpaceHierarchy) RestrictionWeights(build func() *FunctionHierarchy) *FunctionHierarchy {
	h.weightsOnce.Do(func() {
		h.weights = build()
	})
	return h.weights
}

// CachedRestrictionWeights returns the weight hierarchy if it has been
// built, else nil.
func (h *SpaceHierarchy) CachedRestrictionWeights() *FunctionHierarchy {
	return h.weights
}

// MixedSpaceHierarchy is an ordered sequence of component space
// hierarchies of equal depth, with a mixed function space per level.
type MixedSpaceHierarchy struct {
	subs   []*SpaceHierarchy
	levels []*MixedFunctionSpace
}

// NewMixedSpaceHierarchy combines component hierarchies of equal depth.
func NewMixedSpaceHierarchy(subs ...*SpaceHierarchy) (*MixedSpaceHierarchy, error) {
	if len(subs) < 2 {
		return nil, fmt.Errorf("mixed space hierarchy needs at least 2 components, got %d", len(subs))
	}
	depth := subs[0].Len()
	for i, s := range subs {
		if s.Len() != depth {
			return nil, fmt.Errorf("mixed space hierarchy components disagree on depth: component 0 has %d levels, component %d has %d",
				depth, i, s.Len())
		}
	}
	h := &MixedSpaceHierarchy{
		subs:   subs,
		levels: make([]*MixedFunctionSpace, depth),
	}
	for l := 0; l < depth; l++ {
		comps := make([]*FunctionSpace, len(subs))
		for i, s := range subs {
			comps[i] = s.Level(l)
		}
		ms, err := NewMixedFunctionSpace(comps...)
		if err != nil {
			return nil, fmt.Errorf("level %d: %w", l, err)
		}
		ms.hier = h
		ms.level = l
		h.levels[l] = ms
	}
	return h, nil
}

func (h *MixedSpaceHierarchy) Len() int { return len(h.levels) }

// Level returns the mixed function space at level l.
func (h *MixedSpaceHierarchy) Level(l int) *MixedFunctionSpace { return h.levels[l] }

// NumComponents is the number of component hierarchies.
func (h *MixedSpaceHierarchy) NumComponents() int { return len(h.subs) }

// Component returns component hierarchy i.
func (h *MixedSpaceHierarchy) Component(i int) *SpaceHierarchy { return h.subs[i] }
