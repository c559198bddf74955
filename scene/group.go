package scene

// Group is the top-level acceleration group: a fixed, index-stable list of
// object transforms plus a dirty flag for the spatial index built over them.
//
// Membership is fixed at construction. Whenever a member transform may have
// changed the group must be marked dirty; the tracer rebuilds the index
// before the next launch that reads it.
type Group struct {
	children []Object

	dirty    bool
	rebuilds uint64
}

// Create a group over objects. A new group starts dirty as it has no index yet.
func NewGroup(objects []Object) *Group {
	children := make([]Object, len(objects))
	copy(children, objects)
	return &Group{
		children: children,
		dirty:    true,
	}
}

// Get the number of children.
func (g *Group) Len() int {
	return len(g.children)
}

// Get the child at index.
func (g *Group) Child(index int) Object {
	return g.children[index]
}

// Get all children in index order.
func (g *Group) Children() []Object {
	return g.children
}

// Flag the spatial index as stale.
func (g *Group) MarkDirty() {
	g.dirty = true
}

// Returns true if the spatial index must be rebuilt before use.
func (g *Group) Dirty() bool {
	return g.dirty
}

// Rebuild the spatial index if dirty. The build callback receives the
// children in index order; the dirty flag is only cleared if it succeeds.
// Returns true if a rebuild took place.
func (g *Group) RebuildIfDirty(build func(children []Object) error) (bool, error) {
	if !g.dirty {
		return false, nil
	}
	if err := build(g.children); err != nil {
		return false, err
	}
	g.dirty = false
	g.rebuilds++
	return true, nil
}

// Number of completed rebuilds.
func (g *Group) Rebuilds() uint64 {
	return g.rebuilds
}
