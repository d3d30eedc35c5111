// Package pkg provides the core libraries for stackdepth.
//
// # Overview
//
// Stackdepth assigns a fractional paint depth to every element of a tree of
// z-indexed nodes so that sorting by depth yields CSS paint order. Depths are
// kept up to date incrementally: edits mark nodes dirty and the next pass
// only revisits what changed.
//
// # Architecture
//
// The typical data flow:
//
//	scene file (TOML/JSON)
//	         ↓
//	    [io] + [scene] (parse, validate, build a live tree)
//	         ↓
//	    [tree] → [stacking] (dirty tracking, range allocation, passes)
//	         ↓
//	    [paint] (back-to-front draw list)
//	         ↓
//	    [pipeline] (frames, caching) → [render/nodelink] (dot/svg/png)
//
// The CLI and [api] both sit on top of [pipeline].
//
// # Quick Start
//
//	sc, _ := io.ImportFile("menu.toml")
//	in, _ := scene.Build(sc)
//	in.Pass()
//	for _, name := range in.PaintOrder() {
//	    fmt.Println(name, in.Depths()[name])
//	}
//
// # Main Packages
//
//   - [tree]: arena-backed node tree with change notifications
//   - [stacking]: the depth allocator and its invariant checker
//   - [paint]: draw list kept in sync with the allocator
//   - [scene]: scene descriptions and live instances
//   - [io]: TOML and JSON scene files
//   - [pipeline]: cached runs over all frames of a scene
//   - [render/nodelink]: Graphviz diagrams of a scene
//   - [api]: HTTP API over live scenes
//   - [cache], [config], [errors], [observability], [buildinfo]: support
package pkg
