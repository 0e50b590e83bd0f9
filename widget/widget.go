// Package widget defines the toolkit-neutral widget tree produced by mdview.
//
// A host GUI toolkit walks the tree and instantiates its own primitives; the
// raster package in this module is one such host.
package widget

import (
	"image/color"
	"sync"

	"github.com/arran4/mdview/imageres"
)

// Node is a widget in the rendered tree. The set of node types is closed.
type Node interface {
	Kind() string
	widget()
}

// Thickness is a margin or padding in device independent units.
type Thickness struct {
	Left, Top, Right, Bottom float64
}

// Uniform returns a Thickness with the same value on every side.
func Uniform(v float64) Thickness { return Thickness{v, v, v, v} }

// Stack lays its children out in a single row or column.
type Stack struct {
	Orientation Orientation
	Spacing     float64
	Padding     Thickness
	Margin      Thickness
	Background  color.NRGBA
	Children    []Node
}

// Add appends non-nil children.
func (s *Stack) Add(children ...Node) {
	for _, c := range children {
		if c != nil {
			s.Children = append(s.Children, c)
		}
	}
}

// GridUnit selects how a GridLength is measured.
type GridUnit int

const (
	GridAuto GridUnit = iota
	GridStar
	GridAbsolute
)

// GridLength is the size of a grid row or column.
type GridLength struct {
	Unit  GridUnit
	Value float64
}

var (
	Auto = GridLength{Unit: GridAuto}
	Star = GridLength{Unit: GridStar, Value: 1}
)

// Absolute returns a fixed GridLength.
func Absolute(v float64) GridLength { return GridLength{Unit: GridAbsolute, Value: v} }

// GridCell places a child in a grid.
type GridCell struct {
	Row, Column int
	ColumnSpan  int
	Node        Node
}

// Grid arranges children in rows and columns.
type Grid struct {
	Columns       []GridLength
	Rows          []GridLength
	ColumnSpacing float64
	RowSpacing    float64
	Padding       Thickness
	Margin        Thickness
	Background    color.NRGBA
	Cells         []GridCell
}

// Set places node at row, column and grows the row definitions as needed.
func (g *Grid) Set(row, column int, node Node) {
	g.SetSpan(row, column, 1, node)
}

// SetSpan is Set with a column span.
func (g *Grid) SetSpan(row, column, span int, node Node) {
	if node == nil {
		return
	}
	for len(g.Rows) <= row {
		g.Rows = append(g.Rows, Auto)
	}
	if span < 1 {
		span = 1
	}
	g.Cells = append(g.Cells, GridCell{Row: row, Column: column, ColumnSpan: span, Node: node})
}

// At returns the first cell node at row, column or nil.
func (g *Grid) At(row, column int) Node {
	for _, c := range g.Cells {
		if c.Row == row && c.Column == column {
			return c.Node
		}
	}
	return nil
}

// Span is a run of uniformly styled text inside a Label.
type Span struct {
	Text        string
	Color       color.NRGBA
	FontSize    float64
	FontFamily  string
	Attributes  FontAttributes
	Decorations TextDecorations
	Background  color.NRGBA
	// OnTap is set for link spans.
	OnTap func()
}

// Label displays text, either plain Text or a formatted run of Spans.
type Label struct {
	Text          string
	Spans         []Span
	Color         color.NRGBA
	FontSize      float64
	FontFamily    string
	Attributes    FontAttributes
	LineHeight    float64
	LineBreakMode LineBreakMode
	Alignment     TextAlignment
	Padding       Thickness
	Margin        Thickness
	Background    color.NRGBA
}

// String returns the label text with spans concatenated.
func (l *Label) String() string {
	if len(l.Spans) == 0 {
		return l.Text
	}
	n := 0
	for _, s := range l.Spans {
		n += len(s.Text)
	}
	b := make([]byte, 0, n)
	for _, s := range l.Spans {
		b = append(b, s.Text...)
	}
	return string(b)
}

// Tap invokes the tap handler of span i, reporting whether one was attached.
func (l *Label) Tap(i int) bool {
	if i < 0 || i >= len(l.Spans) || l.Spans[i].OnTap == nil {
		return false
	}
	l.Spans[i].OnTap()
	return true
}

// Border draws a stroked, filled box around a single child.
type Border struct {
	Stroke          color.NRGBA
	StrokeThickness float64
	Background      color.NRGBA
	CornerRadius    float64
	Padding         Thickness
	Margin          Thickness
	Content         Node
}

// Image shows a bitmap whose source arrives asynchronously.
type Image struct {
	Alt        string
	Ref        string
	Aspect     Aspect
	Width      float64
	Height     float64
	Horizontal LayoutAlignment
	Vertical   LayoutAlignment
	Margin     Thickness
	// Background fills the image box until a source arrives.
	Background color.NRGBA

	mu     sync.RWMutex
	source *imageres.Source
}

// Source returns the current image source, nil while loading.
func (i *Image) Source() *imageres.Source {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.source
}

// SetSource replaces the image source. Call it from a Dispatcher callback.
func (i *Image) SetSource(src *imageres.Source) {
	i.mu.Lock()
	i.source = src
	i.mu.Unlock()
}

// CheckBox is a (usually read-only) task list marker.
type CheckBox struct {
	Checked bool
	Enabled bool
	Color   color.NRGBA
	Margin  Thickness
}

// Divider is a horizontal rule.
type Divider struct {
	Color  color.NRGBA
	Height float64
	Margin Thickness
}

// MathView typesets a LaTeX-like source. Err holds a parse failure that is
// shown inline in ErrorColor instead of failing the block.
type MathView struct {
	Source     string
	FontSize   float64
	TextColor  color.NRGBA
	ErrorColor color.NRGBA
	Inline     bool
	Err        error
	Margin     Thickness
}

func (*Stack) Kind() string    { return "Stack" }
func (*Grid) Kind() string     { return "Grid" }
func (*Label) Kind() string    { return "Label" }
func (*Border) Kind() string   { return "Border" }
func (*Image) Kind() string    { return "Image" }
func (*CheckBox) Kind() string { return "CheckBox" }
func (*Divider) Kind() string  { return "Divider" }
func (*MathView) Kind() string { return "MathView" }

func (*Stack) widget()    {}
func (*Grid) widget()     {}
func (*Label) widget()    {}
func (*Border) widget()   {}
func (*Image) widget()    {}
func (*CheckBox) widget() {}
func (*Divider) widget()  {}
func (*MathView) widget() {}
