package widget

import (
	"fmt"
	"strings"
)

// Children returns the direct children of n in layout order.
func Children(n Node) []Node {
	switch v := n.(type) {
	case *Stack:
		return v.Children
	case *Grid:
		out := make([]Node, 0, len(v.Cells))
		for _, c := range v.Cells {
			out = append(out, c.Node)
		}
		return out
	case *Border:
		if v.Content != nil {
			return []Node{v.Content}
		}
	}
	return nil
}

// Walk visits n and its descendants depth first. Returning false from fn
// skips the children of that node.
func Walk(n Node, fn func(Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range Children(n) {
		Walk(c, fn)
	}
}

// Find returns every node under n (inclusive) of type T.
func Find[T Node](n Node) []T {
	var out []T
	Walk(n, func(c Node) bool {
		if v, ok := c.(T); ok {
			out = append(out, v)
		}
		return true
	})
	return out
}

// Texts returns the text of every label under n in walk order.
func Texts(n Node) []string {
	var out []string
	for _, l := range Find[*Label](n) {
		out = append(out, l.String())
	}
	return out
}

// Dump renders an indented outline of the tree.
func Dump(n Node) string {
	var b strings.Builder
	dump(&b, n, 0)
	return b.String()
}

// Describe is the one line summary Dump prints for a node.
func Describe(n Node) string {
	switch v := n.(type) {
	case *Stack:
		return fmt.Sprintf("Stack %s (%d)", v.Orientation, len(v.Children))
	case *Grid:
		return fmt.Sprintf("Grid %dx%d", len(v.Rows), len(v.Columns))
	case *Label:
		return fmt.Sprintf("Label %q", v.String())
	case *Border:
		return "Border"
	case *Image:
		return fmt.Sprintf("Image %q", v.Ref)
	case *CheckBox:
		return fmt.Sprintf("CheckBox checked=%t", v.Checked)
	case *Divider:
		return "Divider"
	case *MathView:
		if v.Err != nil {
			return fmt.Sprintf("MathView %q error=%v", v.Source, v.Err)
		}
		return fmt.Sprintf("MathView %q", v.Source)
	case nil:
		return "<nil>"
	}
	return n.Kind()
}

func dump(b *strings.Builder, n Node, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(Describe(n))
	b.WriteByte('\n')
	for _, c := range Children(n) {
		dump(b, c, depth+1)
	}
}
