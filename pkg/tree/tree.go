package tree

import (
	"errors"
	"iter"
	"math"
	"strconv"
)

var (
	// ErrUnknownNode is returned when an ID does not refer to a live node.
	ErrUnknownNode = errors.New("unknown node")

	// ErrUnknownParent is returned by [Tree.Create] when the parent ID is
	// neither [None] nor a live node.
	ErrUnknownParent = errors.New("unknown parent node")
)

// ID identifies a node slot in the arena. Slots are recycled after deletion.
type ID int32

// None is the null ID: the parent of a root, the end of a sibling list.
const None ID = -1

// ZIndex is a node's stacking order among its siblings, or [Auto].
type ZIndex int

// Auto is the sentinel for "no stacking context of my own".
const Auto ZIndex = math.MinInt

// IsAuto reports whether z is the [Auto] sentinel.
func (z ZIndex) IsAuto() bool { return z == Auto }

// String returns "auto" for [Auto] and the decimal value otherwise.
func (z ZIndex) String() string {
	if z.IsAuto() {
		return "auto"
	}
	return strconv.Itoa(int(z))
}

// ParseZIndex parses "auto" or a decimal integer.
func ParseZIndex(s string) (ZIndex, error) {
	if s == "auto" {
		return Auto, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if ZIndex(n) == Auto {
		return 0, strconv.ErrRange
	}
	return ZIndex(n), nil
}

// Listener receives structural notifications from a [Tree].
type Listener interface {
	// NodeCreated is called after id has been linked under parent.
	NodeCreated(id, parent ID)
	// NodeDeleted is called before the slot of id is recycled.
	NodeDeleted(id ID)
	// ZIndexChanged is called after the z-index of id has been updated.
	ZIndexChanged(id, parent ID)
}

// Listeners fans notifications out to every listener in order.
type Listeners []Listener

func (ls Listeners) NodeCreated(id, parent ID) {
	for _, l := range ls {
		l.NodeCreated(id, parent)
	}
}

func (ls Listeners) NodeDeleted(id ID) {
	for _, l := range ls {
		l.NodeDeleted(id)
	}
}

func (ls Listeners) ZIndexChanged(id, parent ID) {
	for _, l := range ls {
		l.ZIndexChanged(id, parent)
	}
}

type node struct {
	parent      ID
	firstChild  ID
	lastChild   ID
	prevSibling ID
	nextSibling ID
	count       int
	layer       int
	z           ZIndex
	live        bool
}

// Tree is an arena of nodes linked as first-child/next-sibling lists.
//
// The zero value is not usable; create trees with [New].
type Tree struct {
	nodes    []node
	free     []ID
	size     int
	listener Listener
}

// New creates an empty tree.
func New() *Tree {
	return &Tree{}
}

// SetListener installs the notification receiver. Pass nil to detach.
func (t *Tree) SetListener(l Listener) {
	t.listener = l
}

// Create appends a new node with z-index z as the last child of parent.
// Passing [None] as parent creates a new root at layer 0.
func (t *Tree) Create(parent ID, z ZIndex) (ID, error) {
	layer := 0
	if parent != None {
		if !t.Exists(parent) {
			return None, ErrUnknownParent
		}
		layer = t.nodes[parent].layer + 1
	}

	id := t.alloc()
	t.nodes[id] = node{
		parent:      parent,
		firstChild:  None,
		lastChild:   None,
		prevSibling: None,
		nextSibling: None,
		layer:       layer,
		z:           z,
		live:        true,
	}
	t.size++

	if parent != None {
		p := &t.nodes[parent]
		if p.lastChild == None {
			p.firstChild = id
		} else {
			t.nodes[p.lastChild].nextSibling = id
			t.nodes[id].prevSibling = p.lastChild
		}
		p.lastChild = id
		t.addCount(parent, 1)
	}

	if t.listener != nil {
		t.listener.NodeCreated(id, parent)
	}
	return id, nil
}

// Delete removes id and its whole subtree.
func (t *Tree) Delete(id ID) error {
	if !t.Exists(id) {
		return ErrUnknownNode
	}
	n := t.nodes[id]

	if n.parent != None {
		p := &t.nodes[n.parent]
		if n.prevSibling == None {
			p.firstChild = n.nextSibling
		} else {
			t.nodes[n.prevSibling].nextSibling = n.nextSibling
		}
		if n.nextSibling == None {
			p.lastChild = n.prevSibling
		} else {
			t.nodes[n.nextSibling].prevSibling = n.prevSibling
		}
		t.addCount(n.parent, -(n.count + 1))
	}

	t.release(id)
	return nil
}

// SetZIndex changes the z-index of id. Setting the current value is a no-op
// and does not notify the listener.
func (t *Tree) SetZIndex(id ID, z ZIndex) error {
	if !t.Exists(id) {
		return ErrUnknownNode
	}
	n := &t.nodes[id]
	if n.z == z {
		return nil
	}
	n.z = z
	if t.listener != nil {
		t.listener.ZIndexChanged(id, n.parent)
	}
	return nil
}

// Exists reports whether id refers to a live node.
func (t *Tree) Exists(id ID) bool {
	return id >= 0 && int(id) < len(t.nodes) && t.nodes[id].live
}

// Len returns the number of live nodes.
func (t *Tree) Len() int { return t.size }

// Parent returns the parent of id, or [None] for a root.
func (t *Tree) Parent(id ID) ID { return t.nodes[id].parent }

// FirstChild returns the head of the children list of id, or [None].
func (t *Tree) FirstChild(id ID) ID { return t.nodes[id].firstChild }

// NextSibling returns the sibling after id in document order, or [None].
func (t *Tree) NextSibling(id ID) ID { return t.nodes[id].nextSibling }

// Count returns the number of transitive descendants of id.
func (t *Tree) Count(id ID) int { return t.nodes[id].count }

// Layer returns the depth of id below its root.
func (t *Tree) Layer(id ID) int { return t.nodes[id].layer }

// ZIndex returns the z-index of id.
func (t *Tree) ZIndex(id ID) ZIndex { return t.nodes[id].z }

// Children iterates the direct children of id in document order.
func (t *Tree) Children(id ID) iter.Seq[ID] {
	return func(yield func(ID) bool) {
		for c := t.nodes[id].firstChild; c != None; c = t.nodes[c].nextSibling {
			if !yield(c) {
				return
			}
		}
	}
}

// Roots iterates every live node without a parent, in ID order.
func (t *Tree) Roots() iter.Seq[ID] {
	return func(yield func(ID) bool) {
		for i := range t.nodes {
			n := &t.nodes[i]
			if n.live && n.parent == None {
				if !yield(ID(i)) {
					return
				}
			}
		}
	}
}

// Walk visits id and its descendants depth-first in document order.
// Returning false from fn skips the children of the visited node.
func (t *Tree) Walk(id ID, fn func(ID) bool) {
	if !fn(id) {
		return
	}
	for c := t.nodes[id].firstChild; c != None; c = t.nodes[c].nextSibling {
		t.Walk(c, fn)
	}
}

func (t *Tree) alloc() ID {
	if n := len(t.free); n > 0 {
		id := t.free[n-1]
		t.free = t.free[:n-1]
		return id
	}
	t.nodes = append(t.nodes, node{})
	return ID(len(t.nodes) - 1)
}

// release notifies and frees the subtree rooted at id, deepest first.
func (t *Tree) release(id ID) {
	for c := t.nodes[id].firstChild; c != None; {
		next := t.nodes[c].nextSibling
		t.release(c)
		c = next
	}
	if t.listener != nil {
		t.listener.NodeDeleted(id)
	}
	t.nodes[id] = node{}
	t.free = append(t.free, id)
	t.size--
}

func (t *Tree) addCount(id ID, delta int) {
	for ; id != None; id = t.nodes[id].parent {
		t.nodes[id].count += delta
	}
}
