package stacking_test

import (
	"fmt"

	"github.com/matzehuels/stackdepth/pkg/stacking"
	"github.com/matzehuels/stackdepth/pkg/tree"
)

func Example() {
	t := tree.New()
	s := stacking.New(t, stacking.WithZMax(1000))
	t.SetListener(s)

	root, _ := t.Create(tree.None, 0)
	overlay, _ := t.Create(root, 10)
	content, _ := t.Create(root, 0)
	backdrop, _ := t.Create(root, -1)

	stats := s.RunPass()
	fmt.Println("changed:", stats.Changed)
	fmt.Println(s.Depth(backdrop) < s.Depth(content), s.Depth(content) < s.Depth(overlay))
	// Output:
	// changed: 4
	// true true
}

func ExampleDepthFunc() {
	t := tree.New()
	sink := stacking.DepthFunc(func(id tree.ID, depth float64) {
		fmt.Printf("node %d -> %.1f\n", id, depth)
	})
	s := stacking.New(t, stacking.WithZMax(10), stacking.WithSink(sink))
	t.SetListener(s)

	root, _ := t.Create(tree.None, 0)
	_, _ = t.Create(root, 0)
	s.RunPass()
	// Output:
	// node 0 -> -10.0
	// node 1 -> -9.0
}
