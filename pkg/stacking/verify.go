package stacking

import (
	"errors"
	"fmt"

	"github.com/matzehuels/stackdepth/pkg/tree"
)

// Errors reported by Verify. Each reported error wraps one of these.
var (
	ErrUnplaced    = errors.New("node has no committed range")
	ErrInverted    = errors.New("range is inverted")
	ErrContainment = errors.New("range escapes its allocation")
	ErrRoot        = errors.New("root range differs from zmax")
	ErrAutoWidth   = errors.New("auto node has non-zero width")
	ErrOverlap     = errors.New("sibling ranges overlap")
	ErrOrder       = errors.New("depths out of paint order")
)

// tolerance absorbs rounding from repeated rescaling.
const tolerance = 1e-6

// Verify checks the committed ranges of every live node against the
// stacking invariants and returns one error per violation. It should be
// called between passes with nothing pending; a squeezed context may report
// violations until it has been healed.
func Verify(t Tree, s *Stacker) []error {
	var errs []error
	report := func(sentinel error, id tree.ID, format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: node %d: %s", sentinel, id, fmt.Sprintf(format, args...)))
	}

	var c classification
	for i := range s.state {
		id := tree.ID(i)
		st, ok := s.state.get(id)
		if !ok {
			continue
		}
		if !st.Placed() {
			report(ErrUnplaced, id, "min=%v", st.Min)
			continue
		}
		if !(st.PreMin <= st.PreMax) || !(st.Min <= st.Max) {
			report(ErrInverted, id, "pre=[%v,%v] committed=[%v,%v]", st.PreMin, st.PreMax, st.Min, st.Max)
			continue
		}
		if st.Min < st.PreMin-tolerance || st.Max > st.PreMax+tolerance {
			report(ErrContainment, id, "committed [%v,%v] outside allocation [%v,%v]", st.Min, st.Max, st.PreMin, st.PreMax)
		}

		parent := t.Parent(id)
		if parent == tree.None {
			if st.Min != -s.zmax || st.Max != s.zmax {
				report(ErrRoot, id, "[%v,%v] with zmax %v", st.Min, st.Max, s.zmax)
			}
		} else if t.ZIndex(id).IsAuto() {
			if st.Min != st.Max {
				report(ErrAutoWidth, id, "[%v,%v]", st.Min, st.Max)
			}
			continue
		}

		c.reset()
		classify(t, id, &c)
		prev := tree.None
		for _, m := range paintOrder(&c) {
			ms, ok := s.state.get(m)
			if !ok || !ms.Placed() {
				continue
			}
			if !(st.Min < ms.Min) || ms.Max > st.Max+tolerance {
				report(ErrContainment, m, "[%v,%v] not inside context %d [%v,%v]", ms.Min, ms.Max, id, st.Min, st.Max)
			}
			if prev != tree.None {
				ps := s.state[prev]
				if ms.Min < ps.Min {
					report(ErrOrder, m, "depth %v below preceding member %d at %v", ms.Min, prev, ps.Min)
				}
				if ps.Max > ms.Min+tolerance {
					report(ErrOverlap, m, "[%v,%v] overlaps member %d [%v,%v]", ms.Min, ms.Max, prev, ps.Min, ps.Max)
				}
			}
			prev = m
		}
	}
	return errs
}

// paintOrder drains a classification into the members of one context in
// the order they are painted.
func paintOrder(c *classification) []tree.ID {
	out := make([]tree.ID, 0, len(c.negative)+len(c.auto)+len(c.zero)+len(c.positive))
	for len(c.negative) > 0 {
		out = append(out, c.negative.pop().id)
	}
	out = append(out, c.auto...)
	for _, e := range c.zero {
		out = append(out, e.id)
	}
	for len(c.positive) > 0 {
		out = append(out, c.positive.pop().id)
	}
	return out
}
