package mdext

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// KindContainer is the NodeKind of Container.
var KindContainer = ast.NewNodeKind("CustomContainer")

// Container is a fenced admonition block:
//
//	::: warning Careful
//	body
//	:::
//
// An outer container must use a longer fence than the ones nested in it.
type Container struct {
	ast.BaseBlock
	// Variant is the lower-cased keyword after the fence.
	Variant string
	// Title is the rest of the opening line, if any.
	Title string

	fence int
}

// NewContainer returns a Container of the given type.
func NewContainer(typ, title string) *Container {
	return &Container{Variant: typ, Title: title}
}

func (n *Container) Kind() ast.NodeKind { return KindContainer }

func (n *Container) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Variant": n.Variant, "Title": n.Title}, nil)
}

type containerParser struct{}

func (containerParser) Trigger() []byte { return []byte{':'} }

func (containerParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, segment := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 {
		return nil, parser.NoChildren
	}
	n := fenceLength(line[pos:], ':')
	if n < 3 {
		return nil, parser.NoChildren
	}
	info := strings.TrimSpace(string(line[pos+n:]))
	if info == "" {
		return nil, parser.NoChildren
	}
	typ, title, _ := strings.Cut(info, " ")
	node := NewContainer(strings.ToLower(typ), strings.TrimSpace(title))
	node.fence = n
	reader.Advance(segment.Len() - 1)
	return node, parser.HasChildren
}

func (containerParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	line, segment := reader.PeekLine()
	c := node.(*Container)
	w, pos := util.IndentWidth(line, reader.LineOffset())
	if w < 4 {
		n := fenceLength(line[pos:], ':')
		if n >= c.fence && util.IsBlank(line[pos+n:]) {
			reader.Advance(segment.Len() - 1)
			return parser.Close
		}
	}
	return parser.Continue | parser.HasChildren
}

func (containerParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (containerParser) CanInterruptParagraph() bool { return true }

func (containerParser) CanAcceptIndentedLine() bool { return false }

func fenceLength(line []byte, c byte) int {
	n := 0
	for n < len(line) && line[n] == c {
		n++
	}
	return n
}

type containers struct{}

// Containers adds ::: custom containers.
var Containers goldmark.Extender = containers{}

func (containers) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithBlockParsers(
		util.Prioritized(containerParser{}, 690),
	))
}
