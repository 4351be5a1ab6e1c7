package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/warren/pkg/layout"
)

// DOT converts the arm tree outline of l to Graphviz DOT. Unfilled arms are
// drawn dashed and edges are labeled with the exit they leave from.
func DOT(l *layout.Layout) string {
	var buf bytes.Buffer
	buf.WriteString("digraph arms {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	if !l.Complete {
		buf.WriteString("  label=\"incomplete\";\n")
		buf.WriteString("  labelloc=t;\n")
	}
	buf.WriteString("\n")

	for _, a := range l.Arms {
		attrs := []string{fmt.Sprintf("label=%q", armLabel(a))}
		if !a.Filled {
			attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", armID(a.ID), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, a := range l.Arms {
		for i, c := range a.Children {
			fmt.Fprintf(&buf, "  %q -> %q [label=\"%d\"];\n", armID(a.ID), armID(c), i)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func armID(id int) string { return "arm" + strconv.Itoa(id) }

func armLabel(a layout.Arm) string {
	parts := []string{
		fmt.Sprintf("arm %d", a.ID),
		fmt.Sprintf("rooms %d/%d", a.Placed, a.Length+1),
	}
	if a.ItemType != "" {
		parts = append(parts, "item: "+a.ItemType)
	}
	return strings.Join(parts, "\n")
}

// DOTToSVG renders a DOT graph to SVG using Graphviz.
func DOTToSVG(ctx context.Context, dot string) ([]byte, error) {
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
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with a plain
// viewBox so the tree scales like the floor plan.
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

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
