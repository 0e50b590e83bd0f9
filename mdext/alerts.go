package mdext

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// KindAlert is the NodeKind of Alert.
var KindAlert = ast.NewNodeKind("Alert")

var alertMarker = regexp.MustCompile(`^\[!(?i:(NOTE|TIP|IMPORTANT|WARNING|CAUTION))\]$`)

// Alert replaces a block quote whose first line is a GitHub alert marker
// such as "[!NOTE]". Its children are the quote's remaining blocks.
type Alert struct {
	ast.BaseBlock
	// Variant is the lower-cased marker: note, tip, important, warning or caution.
	Variant string
}

// NewAlert returns an Alert of the given type.
func NewAlert(typ string) *Alert { return &Alert{Variant: typ} }

func (n *Alert) Kind() ast.NodeKind { return KindAlert }

func (n *Alert) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Variant": n.Variant}, nil)
}

// Title is the display title of the alert type, e.g. "Note".
func (n *Alert) Title() string {
	if n.Variant == "" {
		return ""
	}
	return strings.ToUpper(n.Variant[:1]) + n.Variant[1:]
}

type alertTransformer struct{}

func (alertTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()
	var quotes []*ast.Blockquote
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if bq, ok := n.(*ast.Blockquote); ok && entering {
			quotes = append(quotes, bq)
		}
		return ast.WalkContinue, nil
	})
	for _, bq := range quotes {
		convertAlert(bq, source)
	}
}

func convertAlert(bq *ast.Blockquote, source []byte) {
	para, ok := bq.FirstChild().(*ast.Paragraph)
	if !ok || para.Lines().Len() == 0 {
		return
	}
	first := para.Lines().At(0)
	m := alertMarker.FindSubmatch(bytes.TrimSpace(first.Value(source)))
	if m == nil {
		return
	}
	alert := NewAlert(strings.ToLower(string(m[1])))

	for c := para.FirstChild(); c != nil; {
		next := c.NextSibling()
		t, ok := c.(*ast.Text)
		if !ok || t.Segment.Start >= first.Stop {
			break
		}
		para.RemoveChild(para, c)
		c = next
	}
	para.Lines().SetSliced(1, para.Lines().Len())
	if para.ChildCount() == 0 {
		bq.RemoveChild(bq, para)
	}

	for c := bq.FirstChild(); c != nil; {
		next := c.NextSibling()
		alert.AppendChild(alert, c)
		c = next
	}
	parent := bq.Parent()
	parent.ReplaceChild(parent, bq, alert)
}

type alerts struct{}

// Alerts turns "> [!NOTE]" block quotes into Alert nodes.
var Alerts goldmark.Extender = alerts{}

func (alerts) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(alertTransformer{}, 100),
	))
}
