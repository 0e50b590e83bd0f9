package mdview

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/arran4/mdview/imageres"
	"github.com/arran4/mdview/internal/logger"
	"github.com/arran4/mdview/mdext"
	"github.com/arran4/mdview/style"
	"github.com/arran4/mdview/widget"
)

const (
	quoteBarWidth   = 4
	blockPadding    = 8
	cornerRadius    = 4
	dividerHeight   = 1
	footnoteScale   = 0.85
	markerSpacing   = 6
	tableCellBorder = 1
)

// renderer builds the widget tree for one render generation.
type renderer struct {
	ctx        context.Context
	props      style.Properties
	log        *logger.Logger
	resolver   *imageres.Resolver
	dispatcher widget.Dispatcher
	loads      *sync.WaitGroup
	activate   func(url string)

	source    []byte
	body      spanStyle
	listLevel int
	trimNext  bool
}

func (r *renderer) render(md goldmark.Markdown, source []byte) (out widget.Node) {
	r.source = source
	r.body = r.textStyle()
	defer func() {
		if rec := recover(); rec != nil {
			err := panicError(rec)
			r.log.Error(err, "markdown render failed")
			out = &widget.Label{
				Text:          fmt.Sprintf("Error rendering markdown: %v", err),
				Color:         r.props.DangerColor,
				FontSize:      r.props.TextFontSize,
				FontFamily:    r.props.TextFontFamily,
				LineBreakMode: widget.WordWrap,
			}
		}
	}()

	doc := md.Parser().Parse(text.NewReader(source))
	root := &widget.Stack{
		Orientation: widget.Vertical,
		Spacing:     r.props.ParagraphSpacing,
		Background:  r.props.BackgroundColor,
	}
	r.blocks(root, doc)
	return root
}

func panicError(rec any) error {
	if err, ok := rec.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", rec)
}

func (r *renderer) textStyle() spanStyle {
	return spanStyle{
		color:  r.props.TextColor,
		size:   r.props.TextFontSize,
		family: r.props.TextFontFamily,
	}
}

// blocks renders every child block of parent into dst.
func (r *renderer) blocks(dst *widget.Stack, parent ast.Node) {
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		dst.Add(r.block(c))
	}
}

// block renders one block. A failure is contained to an error label so the
// rest of the document still renders.
func (r *renderer) block(n ast.Node) (out widget.Node) {
	body, level := r.body, r.listLevel
	defer func() {
		if rec := recover(); rec != nil {
			r.body, r.listLevel, r.trimNext = body, level, false
			kind := n.Kind().String()
			r.log.WithFields(map[string]any{"block": kind}).Error(panicError(rec), "block render failed")
			out = r.errorLabel(kind)
		}
	}()
	return r.renderBlock(n)
}

func (r *renderer) renderBlock(n ast.Node) widget.Node {
	switch b := n.(type) {
	case *ast.Paragraph:
		return r.paragraph(b)
	case *ast.TextBlock:
		return r.paragraph(b)
	case *ast.Heading:
		return r.heading(b)
	case *ast.List:
		return r.list(b)
	case *ast.Blockquote:
		return r.quote(b)
	case *mdext.Alert:
		return r.admonition(b, b.Variant, b.Title())
	case *mdext.Container:
		return r.admonition(b, b.Variant, b.Title)
	case *ast.FencedCodeBlock:
		return r.code(b)
	case *ast.CodeBlock:
		return r.code(b)
	case *extast.Table:
		return r.table(b)
	case *ast.ThematicBreak:
		return r.divider()
	case *mdext.MathBlock:
		return r.math(b)
	case *extast.FootnoteList:
		return r.footnotes(b)
	case *ast.HTMLBlock:
		return r.html(b)
	}
	return nil
}

func (r *renderer) errorLabel(kind string) *widget.Label {
	return &widget.Label{
		Text:          fmt.Sprintf("[Error rendering %s]", kind),
		Color:         r.props.DangerColor,
		FontSize:      r.props.TextFontSize,
		FontFamily:    r.props.TextFontFamily,
		LineBreakMode: widget.WordWrap,
	}
}

func (r *renderer) label(spans []widget.Span, st spanStyle) *widget.Label {
	return &widget.Label{
		Spans:         spans,
		Color:         st.color,
		FontSize:      st.size,
		FontFamily:    st.family,
		Attributes:    st.attrs,
		LineHeight:    r.props.LineHeight,
		LineBreakMode: r.props.LineBreakModeText,
	}
}

func (r *renderer) paragraph(n ast.Node) widget.Node {
	st := r.body
	if !hasImage(n) {
		spans := r.inlines(n, st)
		if len(spans) == 0 {
			return nil
		}
		return r.label(spans, st)
	}

	// Text and images alternate in source order.
	row := &widget.Stack{Orientation: widget.Horizontal, Spacing: r.props.ParagraphSpacing}
	var buf []widget.Span
	flush := func() {
		spans := mergeSpans(buf)
		buf = nil
		if strings.TrimSpace(spansText(spans)) == "" {
			return
		}
		row.Add(r.label(spans, st))
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if img, ok := c.(*ast.Image); ok {
			flush()
			row.Add(r.image(img))
			continue
		}
		buf = append(buf, r.inline(c, st)...)
	}
	flush()
	return row
}

func hasImage(n ast.Node) bool {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if _, ok := c.(*ast.Image); ok {
			return true
		}
	}
	return false
}

func spansText(spans []widget.Span) string {
	var b strings.Builder
	for _, s := range spans {
		b.WriteString(s.Text)
	}
	return b.String()
}

func (r *renderer) heading(n *ast.Heading) widget.Node {
	hs := r.props.Heading(n.Level)
	st := spanStyle{color: hs.Color, size: hs.FontSize, family: hs.FontFamily, attrs: hs.Attributes}
	l := r.label(r.inlines(n, st), st)
	l.LineHeight = r.props.HeadingLineHeight
	l.LineBreakMode = r.props.LineBreakModeHeader
	return l
}

// image builds an image widget and starts loading its source.
func (r *renderer) image(n *ast.Image) *widget.Image {
	img := &widget.Image{
		Alt:        plainText(n, r.source),
		Ref:        strings.TrimSpace(string(n.Destination)),
		Aspect:     r.props.ImageAspect,
		Horizontal: widget.LayoutStart,
		Vertical:   widget.LayoutCenter,
		Background: r.props.PlaceholderBackgroundColor,
	}
	log := r.log.WithFields(map[string]any{"image": img.Ref})

	var sized, aspect bool
	if v, ok := mdext.ImageAttribute(n, mdext.AttrWidth); ok {
		if f, err := parseLength(v); err == nil {
			img.Width, sized = f, true
		} else {
			log.Warn(err, "ignoring image width")
		}
	}
	if v, ok := mdext.ImageAttribute(n, mdext.AttrHeight); ok {
		if f, err := parseLength(v); err == nil {
			img.Height, sized = f, true
		} else {
			log.Warn(err, "ignoring image height")
		}
	}
	if v, ok := mdext.ImageAttribute(n, mdext.AttrAspect); ok {
		if a, err := widget.ParseAspect(v); err == nil {
			img.Aspect, aspect = a, true
		} else {
			log.Warn(err, "ignoring image aspect")
		}
	}
	if v, ok := mdext.ImageAttribute(n, mdext.AttrHorizontal); ok {
		if a, err := widget.ParseLayoutAlignment(v); err == nil {
			img.Horizontal = a
		} else {
			log.Warn(err, "ignoring image alignment")
		}
	}
	if v, ok := mdext.ImageAttribute(n, mdext.AttrVertical); ok {
		if a, err := widget.ParseLayoutAlignment(v); err == nil {
			img.Vertical = a
		} else {
			log.Warn(err, "ignoring image alignment")
		}
	}
	if aspect && !sized {
		// fill style aspects need a box to fill
		img.Width = r.props.DefaultImageWidth
		img.Height = r.props.DefaultImageHeight
	}

	r.load(img)
	return img
}

func parseLength(v string) (float64, error) {
	v = strings.TrimSuffix(strings.TrimSpace(v), "px")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse length %q: %w", v, err)
	}
	if f < 0 {
		return 0, fmt.Errorf("parse length %q: negative", v)
	}
	return f, nil
}

// load resolves the image source off the UI thread and hands the result
// back through the dispatcher unless the render has been superseded.
func (r *renderer) load(img *widget.Image) {
	if r.resolver == nil {
		img.SetSource(imageres.Placeholder(img.Ref))
		return
	}
	ctx := r.ctx
	results := r.resolver.Resolve(ctx, img.Ref)
	r.loads.Add(1)
	go func() {
		defer r.loads.Done()
		res, ok := <-results
		if !ok {
			return
		}
		r.dispatcher.Post(func() {
			if ctx.Err() != nil {
				return
			}
			img.SetSource(res.Source)
		})
	}()
}

func (r *renderer) list(n *ast.List) widget.Node {
	level := r.listLevel
	r.listLevel++
	defer func() { r.listLevel = level }()

	g := &widget.Grid{
		Columns:       []widget.GridLength{widget.Auto, widget.Star},
		ColumnSpacing: markerSpacing,
		RowSpacing:    r.props.ListItemSpacing,
		Margin:        widget.Thickness{Left: float64(level) * r.props.ListIndent},
	}
	number := n.Start
	row := 0
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		item, ok := c.(*ast.ListItem)
		if !ok {
			continue
		}
		var marker widget.Node
		if cb := taskCheckBox(item); cb != nil {
			marker = &widget.CheckBox{Checked: cb.IsChecked, Color: r.props.CheckBoxColor}
		} else {
			text := "•"
			if n.IsOrdered() {
				text = fmt.Sprintf("%d%c", number, n.Marker)
			}
			marker = &widget.Label{
				Text:      text,
				Color:     r.props.ListBulletColor,
				FontSize:  r.props.ListBulletFontSize,
				Alignment: widget.AlignEnd,
			}
		}
		content := &widget.Stack{Orientation: widget.Vertical, Spacing: r.props.ListItemSpacing}
		r.blocks(content, item)
		g.Set(row, 0, marker)
		g.Set(row, 1, content)
		row++
		number++
	}
	return g
}

// taskCheckBox returns the check box that starts a task list item.
func taskCheckBox(item *ast.ListItem) *extast.TaskCheckBox {
	first := item.FirstChild()
	if first == nil {
		return nil
	}
	cb, _ := first.FirstChild().(*extast.TaskCheckBox)
	return cb
}

func (r *renderer) quote(n *ast.Blockquote) widget.Node {
	body := r.body
	r.body.color = r.props.BlockQuoteTextColor
	r.body.family = style.FirstFamily(r.props.BlockQuoteFontFamily, body.family)
	defer func() { r.body = body }()

	content := &widget.Stack{Orientation: widget.Vertical, Spacing: r.props.ParagraphSpacing}
	r.blocks(content, n)

	g := &widget.Grid{
		Columns:       []widget.GridLength{widget.Absolute(quoteBarWidth), widget.Star},
		ColumnSpacing: blockPadding,
	}
	g.Set(0, 0, &widget.Border{Background: r.props.BlockQuoteBorderColor})
	g.Set(0, 1, content)
	return &widget.Border{
		Background: r.props.BlockQuoteBackgroundColor,
		Padding:    widget.Thickness{Right: blockPadding, Top: blockPadding / 2, Bottom: blockPadding / 2},
		Content:    g,
	}
}

// admonition renders containers and alerts: an accent coloured box around
// the recursively rendered content.
func (r *renderer) admonition(n ast.Node, kind, title string) widget.Node {
	accent := r.props.ContainerColor(kind)
	content := &widget.Stack{Orientation: widget.Vertical, Spacing: r.props.ParagraphSpacing}
	if title != "" {
		content.Add(&widget.Label{
			Text:          title,
			Color:         accent,
			FontSize:      r.props.TextFontSize,
			FontFamily:    r.props.TextFontFamily,
			Attributes:    widget.Bold,
			LineBreakMode: r.props.LineBreakModeHeader,
		})
	}
	r.blocks(content, n)
	return &widget.Border{
		Stroke:          accent,
		StrokeThickness: 1,
		CornerRadius:    cornerRadius,
		Padding:         widget.Uniform(blockPadding),
		Content:         content,
	}
}

func (r *renderer) code(n ast.Node) widget.Node {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(r.source))
	}
	return &widget.Border{
		Stroke:          r.props.CodeBlockBorderColor,
		StrokeThickness: 1,
		Background:      r.props.CodeBlockBackgroundColor,
		CornerRadius:    cornerRadius,
		Padding:         widget.Uniform(blockPadding),
		Content: &widget.Label{
			Text:          strings.TrimRight(b.String(), "\n"),
			Color:         r.props.CodeBlockTextColor,
			FontSize:      r.props.CodeBlockFontSize,
			FontFamily:    style.FirstFamily(r.props.CodeBlockFontFamily, style.FamilyMono),
			LineBreakMode: widget.CharacterWrap,
		},
	}
}

func (r *renderer) divider() widget.Node {
	return &widget.Divider{Color: r.props.LineColor, Height: dividerHeight}
}

func (r *renderer) math(n *mdext.MathBlock) widget.Node {
	src := n.Source(r.source)
	mv := &widget.MathView{
		Source:     src,
		FontSize:   r.props.TextFontSize * r.props.MathFontScale,
		TextColor:  r.props.MathTextColor,
		ErrorColor: r.props.MathErrorColor,
	}
	if err := CheckTeX(src); err != nil {
		r.log.Warn(err, "math block has errors")
		mv.Err = err
	}
	return mv
}

type tableRow struct {
	header bool
	cells  []*extast.TableCell
}

func (r *renderer) table(n *extast.Table) widget.Node {
	var rows []tableRow
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch row := c.(type) {
		case *extast.TableHeader:
			rows = append(rows, tableRow{header: true, cells: tableCells(row)})
		case *extast.TableRow:
			rows = append(rows, tableRow{cells: tableCells(row)})
		}
	}

	// Keep only columns with at least one non-empty cell.
	var columns []int
	for col := 0; ; col++ {
		present, used := false, false
		for _, row := range rows {
			if col < len(row.cells) {
				present = true
				if strings.TrimSpace(plainText(row.cells[col], r.source)) != "" || hasImage(row.cells[col]) {
					used = true
				}
			}
		}
		if !present {
			break
		}
		if used {
			columns = append(columns, col)
		}
	}

	g := &widget.Grid{
		ColumnSpacing: tableCellBorder,
		RowSpacing:    tableCellBorder,
		Padding:       widget.Uniform(tableCellBorder),
		Background:    r.props.TableBorderColor,
	}
	for range columns {
		g.Columns = append(g.Columns, widget.Star)
	}
	for i, row := range rows {
		st := spanStyle{
			color:  r.props.TableRowTextColor,
			size:   r.props.TableRowFontSize,
			family: r.props.TableRowFontFamily,
		}
		background := r.props.TableRowBackgroundColor
		if row.header {
			st = spanStyle{
				color:  r.props.TableHeaderTextColor,
				size:   r.props.TableHeaderFontSize,
				family: r.props.TableHeaderFontFamily,
				attrs:  widget.Bold,
			}
			background = r.props.TableHeaderBackgroundColor
		}
		for j, col := range columns {
			l := r.label(nil, st)
			l.Background = background
			l.Padding = widget.Uniform(blockPadding / 2)
			l.Alignment = columnAlignment(n, row.cells, col)
			if col < len(row.cells) {
				l.Spans = r.inlines(row.cells[col], st)
			}
			g.Set(i, j, l)
		}
	}
	return g
}

func tableCells(row ast.Node) []*extast.TableCell {
	var cells []*extast.TableCell
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		if cell, ok := c.(*extast.TableCell); ok {
			cells = append(cells, cell)
		}
	}
	return cells
}

func columnAlignment(t *extast.Table, cells []*extast.TableCell, col int) widget.TextAlignment {
	align := extast.AlignNone
	if col < len(t.Alignments) {
		align = t.Alignments[col]
	} else if col < len(cells) {
		align = cells[col].Alignment
	}
	switch align {
	case extast.AlignCenter:
		return widget.AlignCenter
	case extast.AlignRight:
		return widget.AlignEnd
	}
	return widget.AlignStart
}

func (r *renderer) footnotes(n *extast.FootnoteList) widget.Node {
	out := &widget.Stack{Orientation: widget.Vertical, Spacing: r.props.ListItemSpacing}
	out.Add(r.divider())
	st := r.body
	st.size *= footnoteScale
	st.color = r.props.FootnoteTextColor
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		fn, ok := c.(*extast.Footnote)
		if !ok {
			continue
		}
		spans := []widget.Span{st.span(fmt.Sprintf("[%d] ", fn.Index))}
		for b := fn.FirstChild(); b != nil; b = b.NextSibling() {
			if b != fn.FirstChild() {
				spans = append(spans, st.span(" "))
			}
			spans = append(spans, r.inlines(b, st)...)
		}
		out.Add(r.label(mergeSpans(spans), st))
	}
	return out
}

func (r *renderer) html(n *ast.HTMLBlock) widget.Node {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(r.source))
	}
	if n.HasClosure() {
		b.Write(n.ClosureLine.Value(r.source))
	}
	s := strings.TrimRight(b.String(), "\n")
	if s == "" {
		return nil
	}
	return &widget.Label{
		Text:          s,
		Color:         r.props.TextColor,
		FontSize:      r.props.TextFontSize,
		FontFamily:    r.props.TextFontFamily,
		LineBreakMode: r.props.LineBreakModeText,
	}
}
