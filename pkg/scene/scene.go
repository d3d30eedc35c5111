// Package scene describes node trees and scripted edits in TOML or JSON
// files, and materialises them into a live tree wired to a stacker.
//
// A scene declares its initial nodes by name. Each node names its parent,
// which must be declared earlier, and a z-index that is an integer or
// "auto". Frames script edits that are applied before successive passes:
//
//	name = "menu"
//	zmax = 10000
//
//	[[node]]
//	name = "root"
//
//	[[node]]
//	name = "dialog"
//	parent = "root"
//	z = 10
//
//	[[frame]]
//	[[frame.op]]
//	op = "set-z"
//	name = "dialog"
//	z = "auto"
package scene

import (
	"github.com/matzehuels/stackdepth/pkg/errors"
)

// Op kinds.
const (
	OpAdd    = "add"
	OpDelete = "delete"
	OpSetZ   = "set-z"
)

// Node declares one node of the initial tree.
type Node struct {
	Name   string `toml:"name" json:"name"`
	Parent string `toml:"parent,omitempty" json:"parent,omitempty"`
	Z      Z      `toml:"z" json:"z"`
}

// Op is one scripted edit. Add uses Name, Parent and Z; delete uses Name
// and removes the whole subtree; set-z uses Name and Z.
type Op struct {
	Op     string `toml:"op" json:"op"`
	Name   string `toml:"name" json:"name"`
	Parent string `toml:"parent,omitempty" json:"parent,omitempty"`
	Z      Z      `toml:"z" json:"z"`
}

// Frame is a batch of ops applied before one pass.
type Frame struct {
	Ops []Op `toml:"op" json:"ops"`
}

// Scene is a parsed scene file.
type Scene struct {
	Name   string  `toml:"name,omitempty" json:"name,omitempty"`
	ZMax   float64 `toml:"zmax,omitempty" json:"zmax,omitempty"`
	Nodes  []Node  `toml:"node" json:"nodes"`
	Frames []Frame `toml:"frame,omitempty" json:"frames,omitempty"`
}

// Validate checks names, parent references and the frame script without
// building a tree. Frames are simulated in order, so an op may refer to a
// node added by an earlier frame.
func (s *Scene) Validate() error {
	if err := errors.ValidateSceneName(s.Name); err != nil {
		return err
	}
	if s.ZMax < 0 {
		return errors.New(errors.ErrCodeInvalidScene, "zmax must not be negative, got %v", s.ZMax)
	}

	parents := make(map[string]string, len(s.Nodes))
	for i, n := range s.Nodes {
		if err := errors.ValidateNodeName(n.Name); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidScene, err, "node %d", i)
		}
		if _, dup := parents[n.Name]; dup {
			return errors.New(errors.ErrCodeInvalidScene, "node %q declared twice", n.Name)
		}
		if n.Parent != "" {
			if _, ok := parents[n.Parent]; !ok {
				return errors.New(errors.ErrCodeInvalidScene, "node %q: parent %q is not declared before it", n.Name, n.Parent)
			}
		}
		parents[n.Name] = n.Parent
	}

	for fi, f := range s.Frames {
		for oi, op := range f.Ops {
			if err := validateOp(parents, op); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidScene, err, "frame %d op %d", fi, oi)
			}
			applyNames(parents, op)
		}
	}
	return nil
}

// validateOp checks op against the set of live names, given as a
// name -> parent map.
func validateOp(live map[string]string, op Op) error {
	switch op.Op {
	case OpAdd:
		if err := errors.ValidateNodeName(op.Name); err != nil {
			return err
		}
		if _, dup := live[op.Name]; dup {
			return errors.New(errors.ErrCodeInvalidNode, "node %q already exists", op.Name)
		}
		if op.Parent != "" {
			if _, ok := live[op.Parent]; !ok {
				return errors.New(errors.ErrCodeNodeNotFound, "unknown parent %q", op.Parent)
			}
		}
	case OpDelete, OpSetZ:
		if _, ok := live[op.Name]; !ok {
			return errors.New(errors.ErrCodeNodeNotFound, "unknown node %q", op.Name)
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown op %q", op.Op)
	}
	return nil
}

// applyNames updates the name -> parent map for an already validated op.
func applyNames(live map[string]string, op Op) {
	switch op.Op {
	case OpAdd:
		live[op.Name] = op.Parent
	case OpDelete:
		gone := map[string]bool{op.Name: true}
		for changed := true; changed; {
			changed = false
			for name, parent := range live {
				if !gone[name] && gone[parent] {
					gone[name] = true
					changed = true
				}
			}
		}
		for name := range gone {
			delete(live, name)
		}
	}
}
