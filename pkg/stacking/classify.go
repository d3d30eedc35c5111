package stacking

import (
	"cmp"

	"github.com/matzehuels/stackdepth/pkg/tree"
)

// entry is one classified member of a stacking context.
type entry struct {
	key   int // z-index
	order int // document position within the context
	id    tree.ID
	count int // transitive descendants of id
}

// compareEntries orders by key, then by document position.
func compareEntries(a, b entry) int {
	if c := cmp.Compare(a.key, b.key); c != 0 {
		return c
	}
	return cmp.Compare(a.order, b.order)
}

// entryHeap is a binary min-heap of entries under compareEntries.
type entryHeap []entry

func (h *entryHeap) push(e entry) {
	*h = append(*h, e)
	s := *h
	i := len(s) - 1
	for i > 0 {
		parent := (i - 1) / 2
		if compareEntries(s[i], s[parent]) >= 0 {
			break
		}
		s[i], s[parent] = s[parent], s[i]
		i = parent
	}
}

func (h *entryHeap) pop() entry {
	s := *h
	top := s[0]
	last := len(s) - 1
	s[0] = s[last]
	s = s[:last]
	i := 0
	for {
		l := 2*i + 1
		if l >= len(s) {
			break
		}
		small := l
		if r := l + 1; r < len(s) && compareEntries(s[r], s[l]) < 0 {
			small = r
		}
		if compareEntries(s[i], s[small]) <= 0 {
			break
		}
		s[i], s[small] = s[small], s[i]
		i = small
	}
	*h = s
	return top
}

// classification holds the members of one context split into paint groups.
// The buffers are reused from pass to pass.
type classification struct {
	negative entryHeap
	auto     []tree.ID
	zero     []entry
	positive entryHeap
	order    int
}

func (c *classification) reset() {
	c.negative = c.negative[:0]
	c.auto = c.auto[:0]
	c.zero = c.zero[:0]
	c.positive = c.positive[:0]
	c.order = 0
}

// classify walks the children of parent in document order. AUTO children
// are recorded as placeholders and their own children are classified in
// their place.
func classify(t Tree, parent tree.ID, c *classification) {
	for child := t.FirstChild(parent); child != tree.None; child = t.NextSibling(child) {
		z := t.ZIndex(child)
		c.order++
		switch {
		case z.IsAuto():
			c.auto = append(c.auto, child)
			classify(t, child, c)
		case z < 0:
			c.negative.push(entry{key: int(z), order: c.order, id: child, count: t.Count(child)})
		case z == 0:
			c.zero = append(c.zero, entry{order: c.order, id: child, count: t.Count(child)})
		default:
			c.positive.push(entry{key: int(z), order: c.order, id: child, count: t.Count(child)})
		}
	}
}
