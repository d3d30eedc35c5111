package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/stackdepth/pkg/scene"
	"github.com/matzehuels/stackdepth/pkg/tree"
)

// Output formats accepted by [Render].
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
	FormatPNG = "png"
)

// Formats lists the supported output formats.
var Formats = []string{FormatDOT, FormatSVG, FormatPNG}

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the committed range of stacking contexts to labels.
	// When false, only the name, z-index and depth are shown.
	Detailed bool
}

// ToDOT converts a live scene to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG] or [RenderPNG].
//
// Siblings appear left to right in document order; auto nodes are drawn
// with dashed outlines and grey fill.
func ToDOT(in *scene.Instance, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	var edges []string
	for root := range in.Tree.Roots() {
		in.Tree.Walk(root, func(id tree.ID) bool {
			name := in.NodeName(id)
			fmt.Fprintf(&buf, "  %q [%s];\n", name, strings.Join(fmtAttrs(in, id, opts.Detailed), ", "))
			if p := in.Tree.Parent(id); p != tree.None {
				edges = append(edges, fmt.Sprintf("  %q -> %q;\n", in.NodeName(p), name))
			}
			return true
		})
	}

	buf.WriteString("\n")
	for _, e := range edges {
		buf.WriteString(e)
	}
	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(in *scene.Instance, id tree.ID, detailed bool) string {
	parts := []string{in.NodeName(id), "z: " + in.Tree.ZIndex(id).String()}
	st, ok := in.Stacker.State(id)
	if !ok || !st.Placed() {
		return strings.Join(parts, "\n")
	}
	parts = append(parts, "depth: "+fmtDepth(st.Min))
	if detailed && st.Max > st.Min {
		parts = append(parts, fmt.Sprintf("range: [%s, %s]", fmtDepth(st.Min), fmtDepth(st.Max)))
	}
	return strings.Join(parts, "\n")
}

func fmtAttrs(in *scene.Instance, id tree.ID, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(in, id, detailed))}
	if in.Tree.ZIndex(id).IsAuto() {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=black")
	}
	return attrs
}

// fmtDepth prints whole depths without a fraction and others with up to
// three decimals.
func fmtDepth(d float64) string {
	if d == math.Trunc(d) && math.Abs(d) < 1e15 {
		return strconv.FormatInt(int64(d), 10)
	}
	return strconv.FormatFloat(d, 'f', 3, 64)
}

// Render renders dot in the named format. "dot" returns the source as is.
func Render(ctx context.Context, dot, format string) ([]byte, error) {
	switch format {
	case FormatDOT:
		return []byte(dot), nil
	case FormatSVG:
		return RenderSVG(ctx, dot)
	case FormatPNG:
		return RenderPNG(ctx, dot)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := run(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return run(ctx, dot, graphviz.PNG)
}

func run(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the point-sized svg header Graphviz emits with
// one that scales to its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}
