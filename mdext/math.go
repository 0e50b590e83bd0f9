package mdext

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

var (
	// KindMathBlock is the NodeKind of MathBlock.
	KindMathBlock = ast.NewNodeKind("MathBlock")
	// KindInlineMath is the NodeKind of InlineMath.
	KindInlineMath = ast.NewNodeKind("InlineMath")
)

var mathFence = []byte("$$")

// MathBlock is a $$ fenced block of TeX source. Its lines hold the raw
// source without the fences.
type MathBlock struct {
	ast.BaseBlock
	closed bool
}

// NewMathBlock returns an empty MathBlock.
func NewMathBlock() *MathBlock { return &MathBlock{} }

func (n *MathBlock) Kind() ast.NodeKind { return KindMathBlock }

func (n *MathBlock) IsRaw() bool { return true }

func (n *MathBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

// Source returns the TeX text with surrounding blank space trimmed.
func (n *MathBlock) Source(source []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(source))
	}
	return strings.TrimSpace(b.String())
}

type mathBlockParser struct{}

func (mathBlockParser) Trigger() []byte { return []byte{'$'} }

func (mathBlockParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, segment := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || !bytes.HasPrefix(line[pos:], mathFence) {
		return nil, parser.NoChildren
	}
	node := NewMathBlock()
	rest := line[pos+2:]
	start := segment.Start + pos + 2
	if i := bytes.Index(rest, mathFence); i >= 0 && util.IsBlank(rest[i+2:]) {
		// $$ x $$ on one line
		node.Lines().Append(text.NewSegment(start, start+i))
		node.closed = true
	} else if !util.IsBlank(rest) {
		node.Lines().Append(text.NewSegment(start, segment.Stop))
	}
	reader.Advance(segment.Len() - 1)
	return node, parser.NoChildren
}

func (mathBlockParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	m := node.(*MathBlock)
	if m.closed {
		return parser.Close
	}
	line, segment := reader.PeekLine()
	if line == nil {
		return parser.Close
	}
	w, pos := util.IndentWidth(line, reader.LineOffset())
	if w < 4 {
		body := util.TrimRightSpace(line[pos:])
		if bytes.HasSuffix(body, mathFence) {
			if len(body) > 2 {
				start := segment.Start + pos
				node.Lines().Append(text.NewSegment(start, start+len(body)-2))
			}
			reader.Advance(segment.Len() - 1)
			return parser.Close
		}
	}
	node.Lines().Append(segment)
	reader.Advance(segment.Len() - 1)
	return parser.Continue | parser.NoChildren
}

func (mathBlockParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (mathBlockParser) CanInterruptParagraph() bool { return true }

func (mathBlockParser) CanAcceptIndentedLine() bool { return false }

// InlineMath is $...$ (or $$...$$ inside a paragraph). Its children are raw
// text segments.
type InlineMath struct {
	ast.BaseInline
	Display bool
}

// NewInlineMath returns an empty InlineMath.
func NewInlineMath(display bool) *InlineMath { return &InlineMath{Display: display} }

func (n *InlineMath) Kind() ast.NodeKind { return KindInlineMath }

func (n *InlineMath) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

// Source returns the TeX text between the delimiters.
func (n *InlineMath) Source(source []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			b.Write(t.Segment.Value(source))
		}
	}
	return b.String()
}

type inlineMathParser struct{}

func (inlineMathParser) Trigger() []byte { return []byte{'$'} }

// Parse follows the usual TeX-in-Markdown rules: the opening delimiter may
// not be followed by a space, the closing one may not follow a space, and a
// single $ directly followed by a digit does not close.
func (inlineMathParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, segment := block.PeekLine()
	n := fenceLength(line, '$')
	if n == 0 || n > 2 {
		return nil
	}
	body := line[n:]
	if len(body) == 0 || util.IsSpace(body[0]) {
		return nil
	}
	for i := 1; i+n <= len(body); i++ {
		if body[i-1] == '\\' || body[i-1] == '$' {
			continue
		}
		if fenceLength(body[i:], '$') != n {
			continue
		}
		if util.IsSpace(body[i-1]) {
			continue
		}
		if n == 1 && i+1 < len(body) && body[i+1] >= '0' && body[i+1] <= '9' {
			continue
		}
		node := NewInlineMath(n == 2)
		inner := text.NewSegment(segment.Start+n, segment.Start+n+i)
		node.AppendChild(node, ast.NewRawTextSegment(inner))
		block.Advance(n + i + n)
		return node
	}
	return nil
}

type mathExtension struct{}

// Math adds $$ blocks and $ inline spans.
var Math goldmark.Extender = mathExtension{}

func (mathExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithBlockParsers(util.Prioritized(mathBlockParser{}, 695)),
		parser.WithInlineParsers(util.Prioritized(inlineMathParser{}, 150)),
	)
}
