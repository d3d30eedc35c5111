// Package stacking assigns every node of a scene tree a paint-order depth
// that follows CSS z-index stacking-context rules, and keeps those depths up
// to date incrementally as the tree changes.
//
// # Overview
//
// Each stacking context owns a numeric range [Min, Max]. A root owns
// [-ZMax, ZMax]. When a context is recomputed, its range is split among the
// nodes it orders: one unit for its own depth, then one slice per child in
// paint order, each slice proportional to the size of the child's subtree.
// A node's paint depth is the low end of its range, so painting nodes in
// ascending depth order is the back-to-front order.
//
// Paint order among the nodes of one context is:
//
//  1. negative z-index, ascending, ties in document order
//  2. AUTO nodes themselves, in document order
//  3. z-index 0, in document order
//  4. positive z-index, ascending, ties in document order
//
// An AUTO node does not start a context. Its children are classified as if
// they were children of the enclosing context, recursively, and the AUTO
// node itself receives a zero-width range.
//
// # Incremental passes
//
// [Stacker] implements tree.Listener. Tree mutations mark the enclosing
// context dirty, climbing further up only while a context lacks room for
// its descendants. [Stacker.RunPass] then processes dirty contexts shallow
// layers first. Subtrees that are not dirty but whose range moved are
// rescaled linearly instead of being re-sorted, and subtrees whose new range
// still covers their old one are left untouched.
//
// When a context is too small to give every descendant room, the pass
// squeezes the allocation and re-dirties the context so the next pass asks
// its parent for a wider range.
//
// # Usage
//
//	t := tree.New()
//	s := stacking.New(t, stacking.WithSink(order))
//	t.SetListener(s)
//
//	root, _ := t.Create(tree.None, 0)
//	_, _ = t.Create(root, 2)
//	stats := s.RunPass()
//
// [Verify] checks the containment, non-overlap and AUTO invariants of the
// committed ranges and is meant for tests and debugging tools.
//
// # Concurrency
//
// A Stacker is single-threaded: notifications and passes must not run
// concurrently. The tree must not change while a pass is running.
package stacking
