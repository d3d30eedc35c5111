package stacking

import (
	"math"

	"github.com/matzehuels/stackdepth/pkg/tree"
)

// State is the stacking record of one node.
//
// Min and Max are NaN until the node is placed by its first pass.
type State struct {
	// Dirty is set while the node waits in a dirty bucket.
	Dirty bool
	// Old is the last z-index observed for the node.
	Old tree.ZIndex
	// PreMin and PreMax hold the range most recently handed down by the
	// enclosing context.
	PreMin, PreMax float64
	// Min and Max hold the committed range. Min is the paint depth.
	Min, Max float64

	layer   int
	live    bool
	changed bool
}

// Span returns the width of the committed range.
func (s State) Span() float64 { return s.Max - s.Min }

// Placed reports whether the node has a committed range.
func (s State) Placed() bool { return !math.IsNaN(s.Min) }

func newState(z tree.ZIndex) State {
	nan := math.NaN()
	return State{
		Old:    z,
		PreMin: nan,
		PreMax: nan,
		Min:    nan,
		Max:    nan,
		live:   true,
	}
}

// table is the arena of states indexed by node ID.
type table []State

func (t *table) ensure(id tree.ID) {
	if n := int(id) + 1; n > len(*t) {
		if n <= cap(*t) {
			*t = (*t)[:n]
		} else {
			grown := make(table, n, max(n, 2*cap(*t)))
			copy(grown, *t)
			*t = grown
		}
	}
}

func (t table) get(id tree.ID) (State, bool) {
	if id < 0 || int(id) >= len(t) || !t[id].live {
		return State{}, false
	}
	return t[id], true
}
