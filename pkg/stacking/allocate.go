package stacking

import (
	"math"

	"github.com/matzehuels/stackdepth/pkg/tree"
)

// allocate splits the committed range of context id among its flattened
// members in paint order.
//
// The context keeps one unit at the bottom for its own depth. Each AUTO
// placeholder takes a single unit and every other member takes a slice of
// split*(1+count), so the slices fill (Min+1, Max] exactly. A context that
// cannot fit its members shrinks every slice evenly and is queued as
// squeezed.
func (s *Stacker) allocate(id tree.ID) {
	count := float64(s.tree.Count(id))
	if count == 0 {
		return
	}
	c := &s.scratch
	c.reset()
	classify(s.tree, id, c)

	st := s.state[id]
	span := st.Max - st.Min
	autoLen := float64(len(c.auto))

	reserve, autoUnit := 1.0, 1.0
	avail := span - reserve
	split := 1.0
	if count > autoLen {
		split = (avail - autoLen) / (count - autoLen)
	}
	if avail < autoLen || (count > autoLen && avail <= autoLen) {
		reserve = math.Min(1, math.Max(span, 0))
		avail = math.Max(span-reserve, 0)
		split = avail / count
		autoUnit = split
		s.squeezed = append(s.squeezed, id)
	}

	nan := math.NaN()
	cursor := st.Min + reserve
	place := func(e entry) {
		next := cursor + split + split*float64(e.count)
		s.adjust(e.id, cursor, next, nan, 0)
		cursor = next
	}

	for len(c.negative) > 0 {
		place(c.negative.pop())
	}
	for _, a := range c.auto {
		s.adjust(a, cursor, cursor, nan, 0)
		cursor += autoUnit
	}
	for _, e := range c.zero {
		place(e)
	}
	for len(c.positive) > 0 {
		place(c.positive.pop())
	}
}

// adjust hands a new range to id. With a NaN rate, [lo, hi] is the range
// itself. Otherwise the node's previous range is rescaled from an ancestor
// whose committed range moved from parentMin to lo with the given rate.
//
// Dirty nodes only record the range and wait for their own turn in the
// pass. Nodes whose committed range already fits inside the new one are
// left alone together with their subtree.
func (s *Stacker) adjust(id tree.ID, lo, hi, rate, parentMin float64) {
	s.stats.Adjusted++
	st := &s.state[id]
	newLo, newHi := lo, hi
	if !math.IsNaN(rate) {
		newLo = (st.PreMin-parentMin)*rate + lo + 1
		newHi = (st.PreMax-parentMin)*rate + lo + 1
	}
	st.PreMin, st.PreMax = newLo, newHi

	if !s.isContext(id) {
		s.commit(id, newLo, newLo)
		if !math.IsNaN(rate) {
			for child := s.tree.FirstChild(id); child != tree.None; child = s.tree.NextSibling(child) {
				s.adjust(child, lo, hi, rate, parentMin)
			}
		}
		return
	}
	if st.Dirty {
		return
	}
	if newLo <= st.Min && st.Max <= newHi {
		return
	}

	oldMin, oldMax := st.Min, st.Max
	s.commit(id, newLo, newHi)
	if s.tree.FirstChild(id) == tree.None {
		return
	}
	if !(oldMax-oldMin > 0) || newHi-newLo-1 <= 0 {
		s.markDirty(id)
		return
	}
	r := (newHi - newLo - 1) / (oldMax - oldMin)
	for child := s.tree.FirstChild(id); child != tree.None; child = s.tree.NextSibling(child) {
		s.adjust(child, newLo, newHi, r, oldMin)
	}
}
