// Package nodelink renders a scene tree as a node-link diagram.
//
// # Overview
//
// Every node is a box labelled with its name and z-index, connected to its
// parent by an arrow. Nodes with z-index auto do not form a stacking
// context and are drawn dashed. Once a pass has run, labels also carry the
// committed depth, so the diagram shows where each element lands in paint
// order.
//
// # Usage
//
// Convert a live scene to DOT, then render:
//
//	dot := nodelink.ToDOT(in, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot)
//
// [Render] dispatches on a format name ("dot", "svg" or "png").
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz], which runs Graphviz
// in-process, so no external tools are needed.
package nodelink
