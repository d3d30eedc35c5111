// Package tree provides the arena-backed scene tree that the stacking
// subsystem reads from.
//
// # Overview
//
// Nodes live in a flat arena indexed by [ID]. Each node stores its parent,
// the head of its children linked list, its next sibling, its layer (depth
// from the root it hangs under), the number of transitive descendants
// ([Tree.Count]) and its [ZIndex]. Children keep document order: new nodes
// are appended after their last sibling.
//
// The stacking package reads the tree only through the accessors of its
// stacking.Tree interface.
//
// # Notifications
//
// A [Listener] receives every structural change after the tree has been
// updated:
//
//	t := tree.New()
//	t.SetListener(stacker)
//	root, _ := t.Create(tree.None, 0)
//	panel, _ := t.Create(root, tree.Auto)
//	_ = t.SetZIndex(panel, 3)
//
// Deleting a node deletes its whole subtree; the listener is told about every
// removed node, deepest first, before the slots are recycled. Use [Listeners]
// to fan notifications out to several consumers.
//
// # Z-index
//
// [ZIndex] is a signed integer with the sentinel [Auto]. A node with an
// integer z-index starts a stacking context; an AUTO node does not and its
// children are ordered as if they belonged to the enclosing context.
//
// # Concurrency
//
// Tree is not safe for concurrent use.
package tree
