// Package paint turns the depths produced by package stacking into a
// back-to-front draw list.
//
// An [Order] is installed both as the stacker's depth sink and as a tree
// listener, so it learns new depths after every pass and forgets deleted
// nodes immediately:
//
//	order := paint.NewOrder()
//	s := stacking.New(t, stacking.WithSink(order))
//	t.SetListener(tree.Listeners{s, order})
package paint

import (
	"cmp"
	"slices"

	"github.com/matzehuels/stackdepth/pkg/tree"
)

// Item is one entry of the draw list.
type Item struct {
	ID    tree.ID `json:"id"`
	Depth float64 `json:"depth"`
}

// Order keeps the latest depth of every node and sorts them on demand.
type Order struct {
	depth []float64
	known []bool
	size  int

	items []Item
	stale bool
}

// NewOrder returns an empty Order.
func NewOrder() *Order {
	return &Order{}
}

// SetDepth records the paint depth of id.
func (o *Order) SetDepth(id tree.ID, depth float64) {
	if id < 0 {
		return
	}
	for int(id) >= len(o.depth) {
		o.depth = append(o.depth, 0)
		o.known = append(o.known, false)
	}
	if !o.known[id] {
		o.known[id] = true
		o.size++
	}
	o.depth[id] = depth
	o.stale = true
}

// NodeCreated does nothing: a node enters the list with its first depth.
func (o *Order) NodeCreated(tree.ID, tree.ID) {}

// ZIndexChanged does nothing: the stacker reports the resulting depths.
func (o *Order) ZIndexChanged(tree.ID, tree.ID) {}

// NodeDeleted removes id from the list.
func (o *Order) NodeDeleted(id tree.ID) {
	if id < 0 || int(id) >= len(o.known) || !o.known[id] {
		return
	}
	o.known[id] = false
	o.size--
	o.stale = true
}

// Len returns the number of nodes with a known depth.
func (o *Order) Len() int { return o.size }

// Depth returns the last depth reported for id.
func (o *Order) Depth(id tree.ID) (float64, bool) {
	if id < 0 || int(id) >= len(o.known) || !o.known[id] {
		return 0, false
	}
	return o.depth[id], true
}

// Items returns the draw list sorted back to front. Equal depths are
// ordered by ID. The returned slice is owned by the Order and valid until
// the next call that changes it.
func (o *Order) Items() []Item {
	if !o.stale {
		return o.items
	}
	o.items = o.items[:0]
	for i, ok := range o.known {
		if ok {
			o.items = append(o.items, Item{ID: tree.ID(i), Depth: o.depth[i]})
		}
	}
	slices.SortFunc(o.items, compareItems)
	o.stale = false
	return o.items
}

// IDs returns the node IDs of [Order.Items] in a new slice.
func (o *Order) IDs() []tree.ID {
	items := o.Items()
	ids := make([]tree.ID, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

func compareItems(a, b Item) int {
	if c := cmp.Compare(a.Depth, b.Depth); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
