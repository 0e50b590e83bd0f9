package mdext

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

func parse(t *testing.T, cfg Config, src string) (ast.Node, []byte) {
	t.Helper()
	source := []byte(src)
	doc := New(cfg).Parser().Parse(text.NewReader(source))
	require.NotNil(t, doc)
	return doc, source
}

func collect(root ast.Node, kind ast.NodeKind) []ast.Node {
	var out []ast.Node
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && n.Kind() == kind {
			out = append(out, n)
		}
		return ast.WalkContinue, nil
	})
	return out
}

var (
	_ ast.Node = (*Alert)(nil)
	_ ast.Node = (*Container)(nil)
	_ ast.Node = (*MathBlock)(nil)
	_ ast.Node = (*InlineMath)(nil)
)

// inlineText joins the text segments under n.
func inlineText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := c.(*ast.Text); ok && entering {
			b.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

func TestContainer(t *testing.T) {
	t.Parallel()

	doc, source := parse(t, DefaultConfig(), "::: Warning Mind the gap\nBody **text**.\n\nSecond paragraph.\n:::\n\nAfter.\n")
	nodes := collect(doc, KindContainer)
	require.Len(t, nodes, 1)
	c := nodes[0].(*Container)
	assert.Equal(t, "warning", c.Variant)
	assert.Equal(t, "Mind the gap", c.Title)
	assert.Equal(t, 2, c.ChildCount())
	assert.Equal(t, "Body text.", inlineText(c.FirstChild(), source))

	last := doc.LastChild()
	require.Equal(t, ast.KindParagraph, last.Kind())
	assert.Equal(t, "After.", inlineText(last, source))
}

func TestNestedContainersNeedLongerOuterFence(t *testing.T) {
	t.Parallel()

	doc, _ := parse(t, DefaultConfig(), ":::: info\n::: danger\ninner\n:::\nouter\n::::\n")
	nodes := collect(doc, KindContainer)
	require.Len(t, nodes, 2)
	outer := nodes[0].(*Container)
	inner := nodes[1].(*Container)
	assert.Equal(t, "info", outer.Variant)
	assert.Equal(t, "danger", inner.Variant)
	assert.Same(t, outer, inner.Parent())
}

func TestContainerDisabled(t *testing.T) {
	t.Parallel()

	doc, _ := parse(t, Config{}, "::: info\nx\n:::\n")
	assert.Empty(t, collect(doc, KindContainer))
}

func TestMathBlock(t *testing.T) {
	t.Parallel()

	doc, source := parse(t, DefaultConfig(), "Before\n\n$$\n\\frac{a}{b}\n+ c\n$$\n\nAfter\n")
	nodes := collect(doc, KindMathBlock)
	require.Len(t, nodes, 1)
	assert.Equal(t, "\\frac{a}{b}\n+ c", nodes[0].(*MathBlock).Source(source))
	assert.Equal(t, "After", inlineText(doc.LastChild(), source))

	doc, source = parse(t, DefaultConfig(), "$$ x^2 $$\nnext\n")
	nodes = collect(doc, KindMathBlock)
	require.Len(t, nodes, 1)
	assert.Equal(t, "x^2", nodes[0].(*MathBlock).Source(source))
	assert.Equal(t, ast.KindParagraph, doc.LastChild().Kind())
}

func TestInlineMath(t *testing.T) {
	t.Parallel()

	doc, source := parse(t, DefaultConfig(), "Euler: $e^{i\\pi}+1=0$ done.")
	nodes := collect(doc, KindInlineMath)
	require.Len(t, nodes, 1)
	m := nodes[0].(*InlineMath)
	assert.False(t, m.Display)
	assert.Equal(t, "e^{i\\pi}+1=0", m.Source(source))

	doc, _ = parse(t, DefaultConfig(), "It costs $5 and $6 today.")
	assert.Empty(t, collect(doc, KindInlineMath))

	doc, _ = parse(t, DefaultConfig(), "Spaced $ x $ is text.")
	assert.Empty(t, collect(doc, KindInlineMath))
}

func TestAlerts(t *testing.T) {
	t.Parallel()

	doc, source := parse(t, DefaultConfig(), "> [!WARNING]\n> Back up first.\n\n> plain quote\n")
	alerts := collect(doc, KindAlert)
	require.Len(t, alerts, 1)
	a := alerts[0].(*Alert)
	assert.Equal(t, "warning", a.Variant)
	assert.Equal(t, "Warning", a.Title())
	require.NotNil(t, a.FirstChild())
	assert.Equal(t, "Back up first.", inlineText(a.FirstChild(), source))

	assert.Len(t, collect(doc, ast.KindBlockquote), 1)
}

func TestAlertMarkerAlone(t *testing.T) {
	t.Parallel()

	doc, source := parse(t, DefaultConfig(), "> [!tip]\n>\n> Use the force.\n")
	alerts := collect(doc, KindAlert)
	require.Len(t, alerts, 1)
	a := alerts[0].(*Alert)
	assert.Equal(t, "tip", a.Variant)
	assert.Equal(t, 1, a.ChildCount())
	assert.Equal(t, "Use the force.", inlineText(a.FirstChild(), source))
}

func TestImageAttributes(t *testing.T) {
	t.Parallel()

	doc, source := parse(t, DefaultConfig(), "![logo](logo.png){width=120 height=\"40\" aspect=aspect-fill} trailing")
	imgs := collect(doc, ast.KindImage)
	require.Len(t, imgs, 1)
	img := imgs[0].(*ast.Image)

	w, ok := ImageAttribute(img, AttrWidth)
	require.True(t, ok)
	assert.Equal(t, "120", w)
	h, _ := ImageAttribute(img, AttrHeight)
	assert.Equal(t, "40", h)
	a, _ := ImageAttribute(img, AttrAspect)
	assert.Equal(t, "aspect-fill", a)
	_, ok = ImageAttribute(img, AttrVertical)
	assert.False(t, ok)

	para := img.Parent()
	assert.Equal(t, "logo trailing", inlineText(para, source))
}

func TestParseAttributeBlock(t *testing.T) {
	t.Parallel()

	attrs, n, ok := parseAttributeBlock([]byte(`{.wide #id width=3 title='a b'} rest`))
	require.True(t, ok)
	assert.Equal(t, 31, n)
	assert.Equal(t, []attribute{{"width", "3"}, {"title", "a b"}}, attrs)

	_, _, ok = parseAttributeBlock([]byte("no braces"))
	assert.False(t, ok)
	_, _, ok = parseAttributeBlock([]byte("{width=1"))
	assert.False(t, ok)
}

func TestGFMExtensions(t *testing.T) {
	t.Parallel()

	src := "| a | b |\n|---|:-:|\n| 1 | 2 |\n\n- [x] done\n- [ ] todo\n\n~~gone~~ :smile: https://example.com\n\nNote[^1].\n\n[^1]: The note.\n"
	doc, _ := parse(t, DefaultConfig(), src)
	assert.Len(t, collect(doc, extast.KindTable), 1)
	assert.Len(t, collect(doc, extast.KindTaskCheckBox), 2)
	assert.Len(t, collect(doc, extast.KindStrikethrough), 1)
	assert.Len(t, collect(doc, ast.KindAutoLink), 1)
	assert.Len(t, collect(doc, extast.KindFootnoteLink), 1)

	doc, _ = parse(t, Config{}, src)
	assert.Empty(t, collect(doc, extast.KindTable))
}
