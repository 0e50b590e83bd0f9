package mdview

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/arran4/mdview/imageres"
	"github.com/arran4/mdview/internal/logger"
	"github.com/arran4/mdview/mdext"
	"github.com/arran4/mdview/style"
	"github.com/arran4/mdview/widget"
)

const testSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="8" height="4" viewBox="0 0 8 4">
  <!-- dropped before rasterizing -->
  <rect width="8" height="4" fill="#00FF00"/>
</svg>`

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{0, 0, 0xFF, 0xFF})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newView(t *testing.T, md string, opts ...Option) *View {
	t.Helper()
	v := New(opts...)
	t.Cleanup(v.Close)
	v.SetMarkdown(md)
	return v
}

func topBlocks(t *testing.T, v *View) []widget.Node {
	t.Helper()
	root, ok := v.Content().(*widget.Stack)
	require.True(t, ok, "content is %T", v.Content())
	return root.Children
}

func spanTexts(spans []widget.Span) []string {
	out := make([]string, 0, len(spans))
	for _, s := range spans {
		out = append(out, s.Text)
	}
	return out
}

func newTestRenderer(source string) *renderer {
	r := &renderer{
		ctx:        context.Background(),
		props:      style.Defaults(),
		log:        logger.Nop(),
		dispatcher: widget.Immediate{},
		loads:      &sync.WaitGroup{},
		source:     []byte(source),
	}
	r.body = r.textStyle()
	return r
}

func TestHeadingAndParagraphSpans(t *testing.T) {
	t.Parallel()

	v := newView(t, "# Title\n\nSome **bold** and _italic_ text.")
	props := v.Properties()
	blocks := topBlocks(t, v)
	require.Len(t, blocks, 2)

	h, ok := blocks[0].(*widget.Label)
	require.True(t, ok)
	assert.Equal(t, "Title", h.String())
	assert.Equal(t, props.HeadingColors[0], h.Color)
	assert.Equal(t, props.HeadingFontSizes[0], h.FontSize)
	assert.Equal(t, widget.TailTruncation, h.LineBreakMode)
	require.Len(t, h.Spans, 1)
	assert.True(t, h.Spans[0].Attributes.Has(widget.Bold))

	p, ok := blocks[1].(*widget.Label)
	require.True(t, ok)
	require.Equal(t, []string{"Some ", "bold", " and ", "italic", " text."}, spanTexts(p.Spans))
	assert.Equal(t, widget.FontAttributes(0), p.Spans[0].Attributes)
	assert.Equal(t, widget.Bold, p.Spans[1].Attributes)
	assert.Equal(t, widget.FontAttributes(0), p.Spans[2].Attributes)
	assert.Equal(t, widget.Italic, p.Spans[3].Attributes)
	assert.Equal(t, props.TextColor, p.Spans[4].Color)
}

func TestNestedEmphasisComposes(t *testing.T) {
	t.Parallel()

	v := newView(t, "**_both_** ~~gone~~")
	p := topBlocks(t, v)[0].(*widget.Label)
	require.Equal(t, []string{"both", " ", "gone"}, spanTexts(p.Spans))
	assert.True(t, p.Spans[0].Attributes.Has(widget.Bold|widget.Italic))
	assert.True(t, p.Spans[2].Decorations.Has(widget.Strikethrough))
}

func TestHeadingLevelsClamp(t *testing.T) {
	t.Parallel()

	r := newTestRenderer("deep")
	six := ast.NewHeading(6)
	six.AppendChild(six, ast.NewTextSegment(text.NewSegment(0, 4)))
	seven := ast.NewHeading(7)
	seven.AppendChild(seven, ast.NewTextSegment(text.NewSegment(0, 4)))

	l6 := r.block(six).(*widget.Label)
	l7 := r.block(seven).(*widget.Label)
	assert.Equal(t, l6.Color, l7.Color)
	assert.Equal(t, l6.FontSize, l7.FontSize)
	assert.Equal(t, l6.FontFamily, l7.FontFamily)
	assert.Equal(t, r.props.HeadingFontSizes[5], l7.FontSize)

	one := ast.NewHeading(1)
	l1 := r.block(one).(*widget.Label)
	assert.NotEqual(t, l1.FontSize, l6.FontSize)
}

func TestHeadingFamilyFallback(t *testing.T) {
	t.Parallel()

	v := newView(t, "# One\n\n## Two\n\n### Three")
	v.Update(func(p *style.Properties) {
		p.TextFontFamily = "Body"
		p.HeadingFontFamily = "Heads"
		p.HeadingFontFamilies[0] = "Big"
	})
	blocks := topBlocks(t, v)
	require.Len(t, blocks, 3)
	assert.Equal(t, "Big", blocks[0].(*widget.Label).FontFamily)
	assert.Equal(t, "Heads", blocks[1].(*widget.Label).FontFamily)

	v.Update(func(p *style.Properties) { p.HeadingFontFamily = "" })
	assert.Equal(t, "Body", topBlocks(t, v)[2].(*widget.Label).FontFamily)
}

func TestLinksRouteToCallbacks(t *testing.T) {
	t.Parallel()

	var links, emails []string
	var commanded []string
	v := newView(t, "[site](https://example.com/a) [me](mailto:me@example.com?subject=hi) <bob@example.com> [raw](carol@example.org)",
		OnHyperlink(func(url string) { links = append(links, url) }),
		OnEmail(func(addr string) { emails = append(emails, addr) }),
		WithHyperlinkCommand(CommandFunc(func(p string) { commanded = append(commanded, p) })),
	)
	p := topBlocks(t, v)[0].(*widget.Label)
	props := v.Properties()

	for i, s := range p.Spans {
		if s.OnTap == nil {
			continue
		}
		assert.Equal(t, props.HyperlinkColor, s.Color)
		assert.True(t, s.Decorations.Has(widget.Underline))
		require.True(t, p.Tap(i))
	}
	assert.Equal(t, []string{"https://example.com/a"}, links)
	assert.Equal(t, []string{"https://example.com/a"}, commanded)
	assert.Equal(t, []string{"me@example.com", "bob@example.com", "carol@example.org"}, emails)
}

func TestEmailAddress(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		addr string
		ok   bool
	}{
		"mailto:a@b.co":         {"a@b.co", true},
		"MAILTO:a@b.co?cc=x":    {"a@b.co", true},
		"first.last@example.io": {"first.last@example.io", true},
		"https://example.com":   {"", false},
		"not an address":        {"", false},
		"user@localhost":        {"", false},
	}
	for in, want := range cases {
		addr, ok := EmailAddress(in)
		assert.Equal(t, want.ok, ok, in)
		assert.Equal(t, want.addr, addr, in)
	}
}

func TestInlineCodeMathAndImage(t *testing.T) {
	t.Parallel()

	v := newView(t, "Use `x` and $y^2$ with [![i](a.png)](https://e.com).")
	props := v.Properties()
	p := topBlocks(t, v)[0].(*widget.Label)
	require.Equal(t, []string{"Use ", "x", " and ", "y^2", " with ", "[Image]", "."}, spanTexts(p.Spans))
	assert.Equal(t, style.FamilyMono, p.Spans[1].FontFamily)
	assert.Equal(t, props.InlineCodeColor, p.Spans[1].Color)
	assert.True(t, p.Spans[3].Attributes.Has(widget.Italic))
	assert.Equal(t, style.Hex(0x6A1B9A), p.Spans[3].Color)
	assert.NotNil(t, p.Spans[5].OnTap)
}

func TestHardAndSoftBreaks(t *testing.T) {
	t.Parallel()

	v := newView(t, "one\ntwo  \nthree")
	p := topBlocks(t, v)[0].(*widget.Label)
	assert.Equal(t, "one two\nthree", p.String())
}

func TestParagraphWithImagesBuildsRow(t *testing.T) {
	t.Parallel()

	data := base64.StdEncoding.EncodeToString(pngBytes(t, 2, 2))
	md := "Look ![pic](data:image/png;base64," + data + "){aspect=aspect-fill horizontal=center} here ![sized](data:image/png;base64," + data + "){width=40 height=30px}"
	v := newView(t, md)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, v.WaitImages(ctx))

	row, ok := topBlocks(t, v)[0].(*widget.Stack)
	require.True(t, ok)
	assert.Equal(t, widget.Horizontal, row.Orientation)
	require.Len(t, row.Children, 4)

	assert.Equal(t, "Look ", row.Children[0].(*widget.Label).String())
	first := row.Children[1].(*widget.Image)
	assert.Equal(t, "pic", first.Alt)
	assert.Equal(t, widget.AspectFill, first.Aspect)
	assert.Equal(t, widget.LayoutCenter, first.Horizontal)
	assert.Equal(t, v.Properties().PlaceholderBackgroundColor, first.Background)
	assert.Equal(t, 200.0, first.Width)
	assert.Equal(t, 200.0, first.Height)
	require.NotNil(t, first.Source())
	assert.Equal(t, imageres.SourceBytes, first.Source().Kind)

	assert.Equal(t, " here ", row.Children[2].(*widget.Label).String())
	second := row.Children[3].(*widget.Image)
	assert.Equal(t, 40.0, second.Width)
	assert.Equal(t, 30.0, second.Height)
	assert.Equal(t, widget.AspectFit, second.Aspect)
}

func TestRemoteSVGImageIsCachedByURL(t *testing.T) {
	t.Parallel()

	var hits int
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write([]byte(testSVG))
	}))
	defer srv.Close()

	res, err := imageres.New(imageres.Options{Client: srv.Client()})
	require.NoError(t, err)
	url := srv.URL + "/y.svg"
	v := newView(t, "![alt]("+url+")", WithResolver(res))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, v.WaitImages(ctx))

	imgs := widget.Find[*widget.Image](v.Content())
	require.Len(t, imgs, 1)
	src := imgs[0].Source()
	require.NotNil(t, src)
	assert.Equal(t, "image/png", src.MIME)
	decoded, err := src.Decode()
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 4), decoded.Bounds())

	cached, ok := res.Cached(url)
	require.True(t, ok)
	assert.Same(t, src, cached)

	// a second render reuses the cache
	v.SetMarkdown("again ![alt](" + url + ")")
	require.NoError(t, v.WaitImages(ctx))
	mu.Lock()
	assert.Equal(t, 1, hits)
	mu.Unlock()
}

func TestRepeatedImageInOneDocumentFetchesOnce(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		time.Sleep(20 * time.Millisecond)
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write([]byte(testSVG))
	}))
	defer srv.Close()

	url := srv.URL + "/twice.svg"
	v := newView(t, "![a]("+url+") and ![b]("+url+")", WithHTTPClient(srv.Client()))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, v.WaitImages(ctx))

	imgs := widget.Find[*widget.Image](v.Content())
	require.Len(t, imgs, 2)
	require.NotNil(t, imgs[0].Source())
	assert.Same(t, imgs[0].Source(), imgs[1].Source())
	assert.EqualValues(t, 1, hits.Load())
}

func TestFailedImageShowsPlaceholder(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	v := newView(t, "![gone]("+srv.URL+"/missing.png)", WithHTTPClient(srv.Client()))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, v.WaitImages(ctx))

	imgs := widget.Find[*widget.Image](v.Content())
	require.Len(t, imgs, 1)
	require.NotNil(t, imgs[0].Source())
	assert.Equal(t, imageres.SourcePlaceholder, imgs[0].Source().Kind)
}

func TestStaleImageLoadIsDropped(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	cancelled := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, req *http.Request) {
		close(started)
		<-req.Context().Done()
		close(cancelled)
	}))
	defer srv.Close()

	q := widget.NewQueue()
	v := newView(t, "![slow]("+srv.URL+"/slow.png)", WithHTTPClient(srv.Client()), WithDispatcher(q))
	imgs := widget.Find[*widget.Image](v.Content())
	require.Len(t, imgs, 1)

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("image request never reached the server")
	}
	v.SetMarkdown("replaced")
	select {
	case <-cancelled:
	case <-time.After(5 * time.Second):
		t.Fatal("image request was not cancelled")
	}
	q.Drain()
	assert.Nil(t, imgs[0].Source())
	assert.Equal(t, []string{"replaced"}, widget.Texts(v.Content()))
}

func TestListsAndTasks(t *testing.T) {
	t.Parallel()

	v := newView(t, "3. three\n4. four\n   - nested\n\n- [x] done\n- [ ] todo\n")
	props := v.Properties()
	blocks := topBlocks(t, v)
	require.Len(t, blocks, 2)

	ordered := blocks[0].(*widget.Grid)
	assert.Equal(t, "3.", ordered.At(0, 0).(*widget.Label).Text)
	assert.Equal(t, "4.", ordered.At(1, 0).(*widget.Label).Text)
	assert.Zero(t, ordered.Margin.Left)

	grids := widget.Find[*widget.Grid](ordered.At(1, 1))
	require.Len(t, grids, 1)
	assert.Equal(t, props.ListIndent, grids[0].Margin.Left)
	assert.Equal(t, "•", grids[0].At(0, 0).(*widget.Label).Text)

	tasks := blocks[1].(*widget.Grid)
	done, ok := tasks.At(0, 0).(*widget.CheckBox)
	require.True(t, ok)
	assert.True(t, done.Checked)
	assert.False(t, done.Enabled)
	assert.Equal(t, v.Properties().CheckBoxColor, done.Color)
	todo := tasks.At(1, 0).(*widget.CheckBox)
	assert.False(t, todo.Checked)
	assert.Equal(t, []string{"done"}, widget.Texts(tasks.At(0, 1)))
}

func TestQuoteCodeDividerAndMath(t *testing.T) {
	t.Parallel()

	md := "> quoted\n> > deeper\n\n```go\nfmt.Println()\n```\n\n---\n\n$$\n\\frac{a}{b}\n$$\n\n$$\n\\frac{a}{b\n$$\n"
	v := newView(t, md)
	props := v.Properties()
	blocks := topBlocks(t, v)
	require.Len(t, blocks, 5)

	quote := blocks[0].(*widget.Border)
	assert.Equal(t, props.BlockQuoteBackgroundColor, quote.Background)
	bar := quote.Content.(*widget.Grid)
	assert.Equal(t, widget.Absolute(4), bar.Columns[0])
	assert.Equal(t, props.BlockQuoteBorderColor, bar.At(0, 0).(*widget.Border).Background)
	labels := widget.Find[*widget.Label](quote)
	require.Len(t, labels, 2)
	assert.Equal(t, props.BlockQuoteTextColor, labels[0].Color)
	assert.Len(t, widget.Find[*widget.Border](quote), 4, "nested quote and both accent bars")

	code := blocks[1].(*widget.Border)
	assert.Equal(t, props.CodeBlockBackgroundColor, code.Background)
	cl := code.Content.(*widget.Label)
	assert.Equal(t, "fmt.Println()", cl.Text)
	assert.Equal(t, style.FamilyMono, cl.FontFamily)

	div := blocks[2].(*widget.Divider)
	assert.Equal(t, 1.0, div.Height)

	good := blocks[3].(*widget.MathView)
	assert.Equal(t, "\\frac{a}{b}", good.Source)
	assert.Equal(t, props.TextFontSize*props.MathFontScale, good.FontSize)
	assert.NoError(t, good.Err)

	bad := blocks[4].(*widget.MathView)
	assert.ErrorIs(t, bad.Err, ErrUnbalancedBraces)
	assert.Equal(t, props.MathErrorColor, bad.ErrorColor)
}

func TestTablePrunesEmptyColumns(t *testing.T) {
	t.Parallel()

	v := newView(t, "| a | | c |\n|---|---|--:|\n| 1 | | 3 |\n| 2 |  | 4 |\n")
	props := v.Properties()
	grid := topBlocks(t, v)[0].(*widget.Grid)
	require.Len(t, grid.Columns, 2)
	require.Len(t, grid.Rows, 3)

	head := grid.At(0, 1).(*widget.Label)
	assert.Equal(t, "c", head.String())
	assert.Equal(t, props.TableHeaderBackgroundColor, head.Background)
	assert.Equal(t, widget.AlignEnd, head.Alignment)
	assert.Equal(t, widget.Bold, head.Attributes)

	cell := grid.At(2, 0).(*widget.Label)
	assert.Equal(t, "2", cell.String())
	assert.Equal(t, props.TableRowBackgroundColor, cell.Background)
	assert.Equal(t, widget.AlignStart, cell.Alignment)
}

func TestWarningContainerUsesWarningColor(t *testing.T) {
	t.Parallel()

	v := newView(t, "::: warning All clear\nNothing *dangerous* here.\n:::\n\n> [!CAUTION]\n> Hot.\n")
	props := v.Properties()
	blocks := topBlocks(t, v)
	require.Len(t, blocks, 2)

	box := blocks[0].(*widget.Border)
	assert.Equal(t, props.WarningColor, box.Stroke)
	texts := widget.Texts(box)
	assert.Equal(t, []string{"All clear", "Nothing dangerous here."}, texts)

	alert := blocks[1].(*widget.Border)
	assert.Equal(t, props.DangerColor, alert.Stroke)
	assert.Equal(t, []string{"Caution", "Hot."}, widget.Texts(alert))
}

func TestFootnotesRenderAtEnd(t *testing.T) {
	t.Parallel()

	v := newView(t, "Claim[^1].\n\n[^1]: Source.\n")
	blocks := topBlocks(t, v)
	require.Len(t, blocks, 2)
	assert.Equal(t, "Claim[1].", blocks[0].(*widget.Label).String())

	notes := blocks[1].(*widget.Stack)
	require.Len(t, notes.Children, 2)
	assert.IsType(t, &widget.Divider{}, notes.Children[0])
	note := notes.Children[1].(*widget.Label)
	assert.Equal(t, "[1] Source.", note.String())
	assert.Equal(t, v.Properties().FootnoteTextColor, note.Spans[0].Color)
}

func TestBlockFailureIsContained(t *testing.T) {
	t.Parallel()

	r := newTestRenderer("x")
	bad := mdext.NewMathBlock()
	bad.Lines().Append(text.NewSegment(10, 50))

	out := r.block(bad)
	l, ok := out.(*widget.Label)
	require.True(t, ok)
	assert.Equal(t, "[Error rendering MathBlock]", l.Text)
	assert.Equal(t, r.props.DangerColor, l.Color)

	doc := ast.NewDocument()
	doc.AppendChild(doc, bad)
	para := ast.NewParagraph()
	para.AppendChild(para, ast.NewTextSegment(text.NewSegment(0, 1)))
	doc.AppendChild(doc, para)
	root := &widget.Stack{}
	r.blocks(root, doc)
	assert.Equal(t, []string{"[Error rendering MathBlock]", "x"}, widget.Texts(root))
}

type panicParser struct{ parser.Parser }

func (panicParser) Parse(text.Reader, ...parser.ParseOption) ast.Node { panic("parser exploded") }

type panicMarkdown struct{ goldmark.Markdown }

func (panicMarkdown) Parser() parser.Parser { return panicParser{} }

func TestParseFailureReplacesContent(t *testing.T) {
	t.Parallel()

	r := newTestRenderer("")
	out := r.render(panicMarkdown{}, []byte("# hi"))
	l, ok := out.(*widget.Label)
	require.True(t, ok)
	assert.Contains(t, l.Text, "Error rendering markdown")
	assert.Contains(t, l.Text, "parser exploded")
	assert.Equal(t, r.props.DangerColor, l.Color)
}

func TestUnknownAndEmptyBlocksRenderNothing(t *testing.T) {
	t.Parallel()

	r := newTestRenderer("")
	assert.Nil(t, r.block(ast.NewParagraph()))
	assert.Nil(t, r.block(ast.NewDocument()))
}

func TestCheckTeX(t *testing.T) {
	t.Parallel()

	assert.NoError(t, CheckTeX(`\begin{matrix} a & b \\ c & d \end{matrix}`))
	assert.NoError(t, CheckTeX(`\{ x \}`))
	assert.ErrorIs(t, CheckTeX(`\frac{a}{b`), ErrUnbalancedBraces)
	assert.ErrorIs(t, CheckTeX(`a}`), ErrUnbalancedBraces)
	assert.ErrorIs(t, CheckTeX(`\begin{a} x \end{b}`), ErrEnvironment)
	assert.ErrorIs(t, CheckTeX(`\begin{a} x`), ErrEnvironment)
	assert.ErrorIs(t, CheckTeX(`x \`), ErrTrailingBackslash)
}
