package scene

import (
	"github.com/matzehuels/stackdepth/pkg/errors"
	"github.com/matzehuels/stackdepth/pkg/paint"
	"github.com/matzehuels/stackdepth/pkg/stacking"
	"github.com/matzehuels/stackdepth/pkg/tree"
)

// BuildOption configures [Build].
type BuildOption func(*buildConfig)

type buildConfig struct {
	zmax float64
}

// WithZMax overrides the zmax of the scene. Non-positive values keep the
// scene's own value.
func WithZMax(z float64) BuildOption {
	return func(c *buildConfig) {
		if z > 0 {
			c.zmax = z
		}
	}
}

// Instance is a live scene: a tree, its stacker and the resulting paint
// order, addressed by node name.
//
// An Instance is not safe for concurrent use.
type Instance struct {
	Tree    *tree.Tree
	Stacker *stacking.Stacker
	Order   *paint.Order

	name  string
	ids   map[string]tree.ID
	names map[tree.ID]string
}

// Build validates sc and creates its initial nodes. No pass is run.
func Build(sc *Scene, opts ...BuildOption) (*Instance, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	cfg := buildConfig{zmax: sc.ZMax}
	for _, opt := range opts {
		opt(&cfg)
	}

	var sopts []stacking.Option
	if cfg.zmax > 0 {
		sopts = append(sopts, stacking.WithZMax(cfg.zmax))
	}

	in := &Instance{
		Tree:  tree.New(),
		Order: paint.NewOrder(),
		name:  sc.Name,
		ids:   make(map[string]tree.ID, len(sc.Nodes)),
		names: make(map[tree.ID]string, len(sc.Nodes)),
	}
	in.Stacker = stacking.New(in.Tree, append(sopts, stacking.WithSink(in.Order))...)
	in.Tree.SetListener(tree.Listeners{in.Stacker, in.Order})

	for _, n := range sc.Nodes {
		if err := in.add(n.Name, n.Parent, n.Z); err != nil {
			return nil, err
		}
	}
	return in, nil
}

// Name returns the scene title.
func (in *Instance) Name() string { return in.name }

// Len returns the number of live nodes.
func (in *Instance) Len() int { return in.Tree.Len() }

// ID returns the node ID for name.
func (in *Instance) ID(name string) (tree.ID, bool) {
	id, ok := in.ids[name]
	return id, ok
}

// NodeName returns the name of id, or "" if unknown.
func (in *Instance) NodeName(id tree.ID) string { return in.names[id] }

// Pass runs one stacking pass.
func (in *Instance) Pass() stacking.PassStats {
	return in.Stacker.RunPass()
}

// Apply performs one edit. Failed ops leave the tree unchanged.
func (in *Instance) Apply(op Op) error {
	switch op.Op {
	case OpAdd:
		if err := errors.ValidateNodeName(op.Name); err != nil {
			return err
		}
		return in.add(op.Name, op.Parent, op.Z)
	case OpDelete:
		id, err := in.lookup(op.Name)
		if err != nil {
			return err
		}
		in.Tree.Walk(id, func(n tree.ID) bool {
			delete(in.ids, in.names[n])
			delete(in.names, n)
			return true
		})
		return in.Tree.Delete(id)
	case OpSetZ:
		id, err := in.lookup(op.Name)
		if err != nil {
			return err
		}
		return in.Tree.SetZIndex(id, op.Z.ZIndex())
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown op %q", op.Op)
	}
}

// ApplyFrame applies every op of f in order and stops at the first error.
func (in *Instance) ApplyFrame(f Frame) error {
	for i, op := range f.Ops {
		if err := in.Apply(op); err != nil {
			code := errors.GetCode(err)
			if code == "" {
				code = errors.ErrCodeInvalidInput
			}
			return errors.Wrap(code, err, "op %d (%s %s)", i, op.Op, op.Name)
		}
	}
	return nil
}

// Depths returns the committed depth of every placed node by name.
func (in *Instance) Depths() map[string]float64 {
	out := make(map[string]float64, len(in.ids))
	for name, id := range in.ids {
		if st, ok := in.Stacker.State(id); ok && st.Placed() {
			out[name] = st.Min
		}
	}
	return out
}

// PaintOrder returns node names back to front.
func (in *Instance) PaintOrder() []string {
	items := in.Order.Items()
	out := make([]string, 0, len(items))
	for _, it := range items {
		if name, ok := in.names[it.ID]; ok {
			out = append(out, name)
		}
	}
	return out
}

// Verify checks the stacking invariants of the current state.
func (in *Instance) Verify() []error {
	return stacking.Verify(in.Tree, in.Stacker)
}

// Snapshot describes the current tree as a scene without frames. Nodes
// are listed parents first in document order.
func (in *Instance) Snapshot() *Scene {
	sc := &Scene{Name: in.name, ZMax: in.Stacker.ZMax()}
	for root := range in.Tree.Roots() {
		in.Tree.Walk(root, func(id tree.ID) bool {
			n := Node{Name: in.names[id], Z: Z(in.Tree.ZIndex(id))}
			if p := in.Tree.Parent(id); p != tree.None {
				n.Parent = in.names[p]
			}
			sc.Nodes = append(sc.Nodes, n)
			return true
		})
	}
	return sc
}

func (in *Instance) add(name, parent string, z Z) error {
	if _, dup := in.ids[name]; dup {
		return errors.New(errors.ErrCodeInvalidNode, "node %q already exists", name)
	}
	pid := tree.None
	if parent != "" {
		var err error
		if pid, err = in.lookup(parent); err != nil {
			return err
		}
	}
	id, err := in.Tree.Create(pid, z.ZIndex())
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create %q", name)
	}
	in.ids[name] = id
	in.names[id] = name
	return nil
}

func (in *Instance) lookup(name string) (tree.ID, error) {
	id, ok := in.ids[name]
	if !ok {
		return tree.None, errors.New(errors.ErrCodeNodeNotFound, "unknown node %q", name)
	}
	return id, nil
}
