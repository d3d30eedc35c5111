package stacking

import (
	"math"

	"github.com/matzehuels/stackdepth/pkg/tree"
)

// DefaultZMax is the half-width of the range owned by a root. Depths stay
// exactly representable as float32 integers up to 2^24.
const DefaultZMax = 1 << 22

// Tree is the read-only view of the scene tree used during a pass.
// *tree.Tree satisfies it.
type Tree interface {
	Parent(id tree.ID) tree.ID
	FirstChild(id tree.ID) tree.ID
	NextSibling(id tree.ID) tree.ID
	Count(id tree.ID) int
	Layer(id tree.ID) int
	ZIndex(id tree.ID) tree.ZIndex
}

// DepthSink receives the new paint depth of every node whose depth changed
// during a pass.
type DepthSink interface {
	SetDepth(id tree.ID, depth float64)
}

// DepthFunc adapts a function to [DepthSink].
type DepthFunc func(id tree.ID, depth float64)

// SetDepth calls f(id, depth).
func (f DepthFunc) SetDepth(id tree.ID, depth float64) { f(id, depth) }

// PassStats summarises one call to [Stacker.RunPass].
type PassStats struct {
	Processed int `json:"processed"` // dirty contexts reallocated
	Adjusted  int `json:"adjusted"`  // nodes visited by the rebalancer
	Changed   int `json:"changed"`   // nodes whose depth changed
	Squeezed  int `json:"squeezed"`  // contexts that ran out of room
	Pending   int `json:"pending"`   // dirty entries left for the next pass
}

// Option configures a [Stacker].
type Option func(*Stacker)

// WithZMax sets the half-width of the range owned by each root.
// Non-positive values are ignored.
func WithZMax(z float64) Option {
	return func(s *Stacker) {
		if z > 0 {
			s.zmax = z
		}
	}
}

// WithSink sets the receiver of depth changes.
func WithSink(sink DepthSink) Option {
	return func(s *Stacker) { s.sink = sink }
}

// Stacker owns the stacking state of every node of a tree and recomputes
// depths incrementally. It implements tree.Listener.
type Stacker struct {
	tree  Tree
	sink  DepthSink
	zmax  float64
	state table
	dirty dirtyBuckets

	scratch  classification
	changed  []tree.ID
	squeezed []tree.ID
	stats    PassStats
}

// New creates a Stacker reading from t. Install it as the tree's listener
// before creating nodes.
func New(t Tree, opts ...Option) *Stacker {
	s := &Stacker{
		tree:  t,
		zmax:  DefaultZMax,
		dirty: newDirtyBuckets(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ZMax returns the half-width of a root's range.
func (s *Stacker) ZMax() float64 { return s.zmax }

// NodeCreated initialises the state of id and dirties the enclosing
// stacking context. Roots receive the full range immediately.
func (s *Stacker) NodeCreated(id, parent tree.ID) {
	s.state.ensure(id)
	st := newState(s.tree.ZIndex(id))
	if parent == tree.None {
		st.PreMin, st.PreMax = -s.zmax, s.zmax
		st.Min, st.Max = -s.zmax, s.zmax
		st.changed = true
		s.changed = append(s.changed, id)
	}
	s.state[id] = st
	if parent != tree.None {
		s.setDirty(parent)
	}
}

// NodeDeleted drops the state of id. Shrinking never needs upward dirtying,
// so nothing else is marked.
func (s *Stacker) NodeDeleted(id tree.ID) {
	if id < 0 || int(id) >= len(s.state) {
		return
	}
	st := &s.state[id]
	if st.Dirty {
		s.dirty.remove(id, st.layer)
	}
	s.state[id] = State{}
}

// ZIndexChanged records the new z-index of id and dirties the enclosing
// context chain. A node that stops being AUTO becomes a context and
// reallocates its own children.
func (s *Stacker) ZIndexChanged(id, parent tree.ID) {
	if _, ok := s.state.get(id); !ok {
		return
	}
	st := &s.state[id]
	z := s.tree.ZIndex(id)
	wasAuto := st.Old.IsAuto()
	st.Old = z
	if wasAuto && !z.IsAuto() && s.tree.FirstChild(id) != tree.None && !st.Dirty {
		s.markDirty(id)
	}
	if parent != tree.None {
		s.setDirty(parent)
	}
}

// RunPass recomputes every dirty context and reports depth changes to the
// sink, once per node with its final depth.
func (s *Stacker) RunPass() PassStats {
	s.stats = PassStats{}
	s.dirty.drain(s.process)

	for _, id := range s.squeezed {
		if st, ok := s.state.get(id); ok && !st.Dirty {
			s.setDirty(id)
		}
	}
	s.stats.Squeezed = len(s.squeezed)
	s.squeezed = s.squeezed[:0]

	for _, id := range s.changed {
		st := &s.state[id]
		if !st.live || !st.changed {
			continue
		}
		st.changed = false
		s.stats.Changed++
		if s.sink != nil {
			s.sink.SetDepth(id, st.Min)
		}
	}
	s.changed = s.changed[:0]
	s.stats.Pending = s.dirty.len()
	return s.stats
}

// Reset marks every stacking context dirty so that the next pass
// recomputes all depths from the roots down.
func (s *Stacker) Reset() {
	for i := range s.state {
		id := tree.ID(i)
		st := &s.state[i]
		if !st.live || st.Dirty || !s.isContext(id) {
			continue
		}
		s.markDirty(id)
	}
}

// State returns the stacking record of id.
func (s *Stacker) State(id tree.ID) (State, bool) {
	return s.state.get(id)
}

// Depth returns the committed paint depth of id, or NaN if unknown.
func (s *Stacker) Depth(id tree.ID) float64 {
	st, ok := s.state.get(id)
	if !ok {
		return math.NaN()
	}
	return st.Min
}

// Pending returns the number of contexts waiting for the next pass.
func (s *Stacker) Pending() int { return s.dirty.len() }

// isContext reports whether id orders its own children: roots always do,
// other nodes unless their z-index is AUTO.
func (s *Stacker) isContext(id tree.ID) bool {
	return s.tree.Parent(id) == tree.None || !s.tree.ZIndex(id).IsAuto()
}

// markDirty flags id and queues it on its layer.
func (s *Stacker) markDirty(id tree.ID) {
	st := &s.state[id]
	st.Dirty = true
	st.layer = s.tree.Layer(id)
	s.dirty.mark(id, st.layer)
}

// setDirty walks up from id, dirtying stacking contexts until one has room
// for a unit slot per descendant on top of its own unit.
func (s *Stacker) setDirty(id tree.ID) {
	for id != tree.None {
		if s.isContext(id) {
			st := &s.state[id]
			if !st.Dirty {
				s.markDirty(id)
			}
			if st.Max-st.Min-1 >= float64(s.tree.Count(id)) {
				return
			}
		}
		id = s.tree.Parent(id)
	}
}

// process reallocates one dirty node. AUTO nodes are skipped: their
// children are placed by the enclosing context.
func (s *Stacker) process(id tree.ID) {
	st := &s.state[id]
	if !st.live || !st.Dirty {
		return
	}
	st.Dirty = false
	if !s.isContext(id) || math.IsNaN(st.PreMin) {
		return
	}
	s.commit(id, st.PreMin, st.PreMax)
	s.allocate(id)
	s.stats.Processed++
}

// commit stores a new committed range and records a depth change.
func (s *Stacker) commit(id tree.ID, lo, hi float64) {
	st := &s.state[id]
	if !(st.Min == lo) && !st.changed {
		st.changed = true
		s.changed = append(s.changed, id)
	}
	st.Min, st.Max = lo, hi
}
