// Package raster paints a widget tree into an image. It is the headless
// host used by the command line tool and by tests.
package raster

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/golang/freetype"
	xdraw "golang.org/x/image/draw"

	"github.com/arran4/mdview/internal/logger"
	"github.com/arran4/mdview/style"
	"github.com/arran4/mdview/widget"
)

// Options configure Render. Zero values select defaults.
type Options struct {
	// Width of the output in pixels, 1024 by default.
	Width int
	// Margin around the content in pixels, 48 by default. A negative
	// value removes it.
	Margin int
	// Background fills the page when the root widget has none.
	Background color.NRGBA
	Fonts      *Fonts
	Logger     *logger.Logger
}

const (
	checkBoxSize      = 14
	placeholderExtent = 48
	autoColumnShare   = 3
)

var placeholderFill = color.NRGBA{0xE0, 0xE0, 0xE0, 0xFF}

// Render lays the tree out at the given width and paints it.
func Render(root widget.Node, opts Options) (*image.RGBA, error) {
	if root == nil {
		return nil, errors.New("raster: nil widget tree")
	}
	if opts.Width <= 0 {
		opts.Width = 1024
	}
	if opts.Margin < 0 {
		opts.Margin = 0
	} else if opts.Margin == 0 {
		opts.Margin = 48
	}
	if opts.Background.A == 0 {
		opts.Background = style.Hex(0xFFFFFF)
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Fonts == nil {
		fonts, err := LoadFonts(FontConfig{})
		if err != nil {
			return nil, err
		}
		opts.Fonts = fonts
	}
	inner := opts.Width - 2*opts.Margin
	if inner < 1 {
		return nil, errors.New("raster: width leaves no room inside the margins")
	}

	p := &painter{fonts: opts.Fonts, log: opts.Logger, decoded: make(map[*widget.Image]image.Image)}
	height := p.measure(root, inner) + 2*opts.Margin

	img := image.NewRGBA(image.Rect(0, 0, opts.Width, height))
	bg := opts.Background
	if s, ok := root.(*widget.Stack); ok && s.Background.A > 0 {
		bg = s.Background
	}
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	p.img = img
	p.dc = freetype.NewContext()
	p.dc.SetDPI(dpi)
	p.dc.SetClip(img.Bounds())
	p.dc.SetDst(img)
	p.node(root, opts.Margin, opts.Margin, inner)
	return img, nil
}

// painter walks the tree twice: once to measure (img is nil) and once to
// draw. Both passes share the layout code so they always agree.
type painter struct {
	img     *image.RGBA
	dc      *freetype.Context
	fonts   *Fonts
	log     *logger.Logger
	decoded map[*widget.Image]image.Image
}

func (p *painter) measure(n widget.Node, w int) int {
	saved := p.img
	p.img = nil
	defer func() { p.img = saved }()
	return p.node(n, 0, 0, w)
}

func (p *painter) dry() bool { return p.img == nil }

func (p *painter) fill(r image.Rectangle, c color.NRGBA) {
	if p.dry() || c.A == 0 || r.Empty() {
		return
	}
	op := draw.Over
	if c.A == 0xFF {
		op = draw.Src
	}
	draw.Draw(p.img, r, image.NewUniform(c), image.Point{}, op)
}

func (p *painter) stroke(r image.Rectangle, c color.NRGBA, t int) {
	if t <= 0 {
		return
	}
	p.fill(image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t), c)
	p.fill(image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y), c)
	p.fill(image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y), c)
	p.fill(image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y), c)
}

// node lays out n at x, y within width w and returns the height used,
// margins included.
func (p *painter) node(n widget.Node, x, y, w int) int {
	switch v := n.(type) {
	case *widget.Stack:
		return p.boxed(v.Margin, v.Padding, v.Background, x, y, w, func(x, y, w int) int {
			if v.Orientation == widget.Horizontal {
				return p.row(v, x, y, w)
			}
			return p.column(v, x, y, w)
		})
	case *widget.Grid:
		return p.boxed(v.Margin, v.Padding, v.Background, x, y, w, func(x, y, w int) int {
			return p.grid(v, x, y, w)
		})
	case *widget.Border:
		return p.border(v, x, y, w)
	case *widget.Label:
		return p.boxed(v.Margin, v.Padding, v.Background, x, y, w, func(x, y, w int) int {
			return p.label(v, x, y, w)
		})
	case *widget.Image:
		return p.image(v, x, y, w)
	case *widget.CheckBox:
		return p.checkBox(v, x, y)
	case *widget.Divider:
		h := int(math.Max(1, math.Round(v.Height)))
		top := y + int(v.Margin.Top)
		p.fill(image.Rect(x+int(v.Margin.Left), top, x+w-int(v.Margin.Right), top+h), v.Color)
		return h + int(v.Margin.Top+v.Margin.Bottom)
	case *widget.MathView:
		return p.math(v, x, y, w)
	}
	return 0
}

// boxed applies margin and padding around content and paints the
// background once the height is known.
func (p *painter) boxed(margin, padding widget.Thickness, bg color.NRGBA, x, y, w int, content func(x, y, w int) int) int {
	ox, oy := x+int(margin.Left), y+int(margin.Top)
	ow := w - int(margin.Left+margin.Right)
	ix, iy := ox+int(padding.Left), oy+int(padding.Top)
	iw := ow - int(padding.Left+padding.Right)
	if iw < 1 {
		iw = 1
	}
	if bg.A > 0 && !p.dry() {
		h := p.measureBox(padding, iw, content)
		p.fill(image.Rect(ox, oy, ox+ow, oy+h), bg)
	}
	h := content(ix, iy, iw) + int(padding.Top+padding.Bottom)
	return h + int(margin.Top+margin.Bottom)
}

func (p *painter) measureBox(padding widget.Thickness, w int, content func(x, y, w int) int) int {
	saved := p.img
	p.img = nil
	defer func() { p.img = saved }()
	return content(0, 0, w) + int(padding.Top+padding.Bottom)
}

func (p *painter) column(s *widget.Stack, x, y, w int) int {
	cy := y
	gap := int(s.Spacing)
	for i, c := range s.Children {
		if i > 0 {
			cy += gap
		}
		cy += p.node(c, x, cy, w)
	}
	return cy - y
}

// row gives images their own width and shares the rest between the other
// children.
func (p *painter) row(s *widget.Stack, x, y, w int) int {
	gap := int(s.Spacing)
	widths := make([]int, len(s.Children))
	fixed, flexible := 0, 0
	for i, c := range s.Children {
		if img, ok := c.(*widget.Image); ok {
			iw, _ := p.imageSize(img, w)
			widths[i] = iw + int(img.Margin.Left+img.Margin.Right)
			fixed += widths[i]
			continue
		}
		if l, ok := c.(*widget.Label); ok {
			widths[i] = int(math.Ceil(p.naturalWidth(l)))
			fixed += widths[i]
			continue
		}
		flexible++
	}
	fixed += gap * (len(s.Children) - 1)
	if flexible > 0 {
		share := (w - fixed) / flexible
		if share < 1 {
			share = 1
		}
		for i := range widths {
			if widths[i] == 0 {
				widths[i] = share
			}
		}
	}
	cx, height := x, 0
	for i, c := range s.Children {
		cw := widths[i]
		if cx+cw > x+w {
			cw = x + w - cx
		}
		if cw < 1 {
			cw = 1
		}
		if h := p.node(c, cx, y, cw); h > height {
			height = h
		}
		cx += widths[i] + gap
	}
	return height
}

// naturalWidth is the unwrapped width of a label.
func (p *painter) naturalWidth(l *widget.Label) float64 {
	lines := layoutLabel(p.fonts, l, math.MaxFloat64)
	width := 0.0
	for _, ln := range lines {
		width = math.Max(width, ln.width)
	}
	return width + l.Padding.Left + l.Padding.Right + l.Margin.Left + l.Margin.Right
}

func (p *painter) grid(g *widget.Grid, x, y, w int) int {
	cols := g.Columns
	if len(cols) == 0 {
		cols = []widget.GridLength{widget.Star}
	}
	gap := int(g.ColumnSpacing)
	avail := w - gap*(len(cols)-1)
	widths := make([]int, len(cols))
	stars := 0.0
	for i, c := range cols {
		switch c.Unit {
		case widget.GridAbsolute:
			widths[i] = int(c.Value)
		case widget.GridAuto:
			widths[i] = p.autoColumn(g, i, avail/autoColumnShare)
		default:
			stars += math.Max(c.Value, 0)
		}
	}
	used := 0
	for _, cw := range widths {
		used += cw
	}
	if stars > 0 {
		rest := float64(avail - used)
		for i, c := range cols {
			if c.Unit == widget.GridStar {
				widths[i] = int(rest * math.Max(c.Value, 0) / stars)
			}
		}
	}
	lefts := make([]int, len(cols))
	cx := x
	for i := range cols {
		lefts[i] = cx
		cx += widths[i] + gap
	}

	rowGap := int(g.RowSpacing)
	rows := len(g.Rows)
	for _, c := range g.Cells {
		if c.Row+1 > rows {
			rows = c.Row + 1
		}
	}
	cy := y
	for r := 0; r < rows; r++ {
		if r > 0 {
			cy += rowGap
		}
		height := 0
		if r < len(g.Rows) && g.Rows[r].Unit == widget.GridAbsolute {
			height = int(g.Rows[r].Value)
		}
		cells := cellsInRow(g, r)
		for _, c := range cells {
			if h := p.measure(c.Node, spanWidth(widths, gap, c)); h > height {
				height = h
			}
		}
		for _, c := range cells {
			if c.Column >= len(cols) {
				continue
			}
			cw := spanWidth(widths, gap, c)
			if b, ok := c.Node.(*widget.Border); ok && b.Content == nil {
				// an empty border stretches to the row, like a quote bar
				p.fill(image.Rect(lefts[c.Column], cy, lefts[c.Column]+cw, cy+height), b.Background)
				continue
			}
			if l, ok := c.Node.(*widget.Label); ok && l.Background.A > 0 {
				p.fill(image.Rect(lefts[c.Column], cy, lefts[c.Column]+cw, cy+height), l.Background)
			}
			p.node(c.Node, lefts[c.Column], cy, cw)
		}
		cy += height
	}
	return cy - y
}

func cellsInRow(g *widget.Grid, row int) []widget.GridCell {
	var out []widget.GridCell
	for _, c := range g.Cells {
		if c.Row == row {
			out = append(out, c)
		}
	}
	return out
}

func spanWidth(widths []int, gap int, c widget.GridCell) int {
	span := c.ColumnSpan
	if span < 1 {
		span = 1
	}
	w := 0
	for i := c.Column; i < c.Column+span && i < len(widths); i++ {
		if i > c.Column {
			w += gap
		}
		w += widths[i]
	}
	if w < 1 {
		w = 1
	}
	return w
}

// autoColumn sizes a column to its widest cell, capped at limit.
func (p *painter) autoColumn(g *widget.Grid, col, limit int) int {
	width := 0
	for _, c := range g.Cells {
		if c.Column != col || c.ColumnSpan > 1 {
			continue
		}
		var cw int
		switch v := c.Node.(type) {
		case *widget.Label:
			cw = int(math.Ceil(p.naturalWidth(v)))
		case *widget.CheckBox:
			cw = checkBoxSize + int(v.Margin.Left+v.Margin.Right)
		case *widget.Image:
			cw, _ = p.imageSize(v, limit)
		default:
			cw = limit
		}
		if cw > width {
			width = cw
		}
	}
	if width > limit {
		width = limit
	}
	return width
}

func (p *painter) border(b *widget.Border, x, y, w int) int {
	ox, oy := x+int(b.Margin.Left), y+int(b.Margin.Top)
	ow := w - int(b.Margin.Left+b.Margin.Right)
	t := int(math.Round(b.StrokeThickness))
	content := func(x, y, w int) int {
		if b.Content == nil {
			return 0
		}
		return p.node(b.Content, x, y, w)
	}
	pad := b.Padding
	pad.Left += float64(t)
	pad.Right += float64(t)
	pad.Top += float64(t)
	pad.Bottom += float64(t)

	h := p.boxed(widget.Thickness{}, pad, b.Background, ox, oy, ow, content)
	if !p.dry() {
		p.stroke(image.Rect(ox, oy, ox+ow, oy+h), b.Stroke, t)
	}
	return h + int(b.Margin.Top+b.Margin.Bottom)
}

func (p *painter) label(l *widget.Label, x, y, w int) int {
	lines := layoutLabel(p.fonts, l, float64(w))
	factor := 1.25
	if l.LineHeight > 1 {
		factor *= l.LineHeight
	}
	cy := y
	for _, ln := range lines {
		px := pixels(ln.size)
		lineHeight := int(math.Ceil(px * factor))
		if p.dry() {
			cy += lineHeight
			continue
		}
		left := x
		switch l.Alignment {
		case widget.AlignCenter:
			left += int((float64(w) - ln.width) / 2)
		case widget.AlignEnd:
			left += int(float64(w) - ln.width)
		}
		if left < x {
			left = x
		}
		baseline := cy + int(px)
		cx := float64(left)
		for _, word := range ln.words {
			p.word(word, cx, cy, baseline, lineHeight)
			cx += word.width
		}
		cy += lineHeight
	}
	return cy - y
}

func (p *painter) word(w styledWord, x float64, top, baseline, lineHeight int) {
	left, right := int(x), int(math.Ceil(x+w.width))
	if w.bg.A > 0 {
		p.fill(image.Rect(left, top, right, top+lineHeight), w.bg)
	}
	if !w.spaces && w.font != nil {
		p.dc.SetFont(w.font.Font)
		p.dc.SetFontSize(w.size)
		p.dc.SetSrc(image.NewUniform(w.color))
		if _, err := p.dc.DrawString(w.text, freetype.Pt(left, baseline)); err != nil {
			p.log.Debug("raster: " + err.Error())
		}
	}
	if w.decor.Has(widget.Underline) {
		uy := baseline + int(math.Max(1, pixels(w.size)*0.12))
		p.fill(image.Rect(left, uy, right, uy+1), w.color)
	}
	if w.decor.Has(widget.Strikethrough) {
		sy := baseline - int(pixels(w.size)*0.3)
		p.fill(image.Rect(left, sy, right, sy+1), w.color)
	}
}

// decode caches decoded bitmaps for the duration of one Render.
func (p *painter) decode(img *widget.Image) image.Image {
	if d, ok := p.decoded[img]; ok {
		return d
	}
	var out image.Image
	if src := img.Source(); src != nil {
		d, err := src.Decode()
		if err != nil {
			p.log.WithFields(map[string]any{"image": img.Ref}).Warn(err, "image decode failed")
		} else {
			out = d
		}
	}
	p.decoded[img] = out
	return out
}

// imageSize is the box an image occupies, bounded by maxWidth.
func (p *painter) imageSize(img *widget.Image, maxWidth int) (int, int) {
	w, h := int(img.Width), int(img.Height)
	if bm := p.decode(img); bm != nil && (w == 0 || h == 0) {
		b := bm.Bounds()
		switch {
		case w == 0 && h == 0:
			w, h = b.Dx(), b.Dy()
		case w == 0:
			w = b.Dx() * h / max(b.Dy(), 1)
		default:
			h = b.Dy() * w / max(b.Dx(), 1)
		}
	}
	if w == 0 {
		w = placeholderExtent
	}
	if h == 0 {
		h = placeholderExtent
	}
	if maxWidth > 0 && w > maxWidth {
		h = h * maxWidth / w
		w = maxWidth
	}
	return w, max(h, 1)
}

func (p *painter) image(img *widget.Image, x, y, w int) int {
	ox, oy := x+int(img.Margin.Left), y+int(img.Margin.Top)
	ow := w - int(img.Margin.Left+img.Margin.Right)
	bw, bh := p.imageSize(img, ow)
	height := bh + int(img.Margin.Top+img.Margin.Bottom)
	if p.dry() {
		return height
	}
	switch img.Horizontal {
	case widget.LayoutCenter:
		ox += (ow - bw) / 2
	case widget.LayoutEnd:
		ox += ow - bw
	}
	box := image.Rect(ox, oy, ox+bw, oy+bh)
	bm := p.decode(img)
	if bm == nil {
		fill := placeholderFill
		if img.Background.A > 0 {
			fill = img.Background
		}
		p.fill(box, fill)
		return height
	}
	dst := fitRect(bm.Bounds(), box, img.Aspect)
	clip := p.img.SubImage(box).(*image.RGBA)
	xdraw.CatmullRom.Scale(clip, dst, bm, bm.Bounds(), xdraw.Over, nil)
	return height
}

// fitRect places src inside box according to aspect.
func fitRect(src, box image.Rectangle, aspect widget.Aspect) image.Rectangle {
	sw, sh := float64(src.Dx()), float64(src.Dy())
	bw, bh := float64(box.Dx()), float64(box.Dy())
	if sw == 0 || sh == 0 {
		return box
	}
	var w, h float64
	switch aspect {
	case widget.Fill:
		return box
	case widget.AspectFill:
		s := math.Max(bw/sw, bh/sh)
		w, h = sw*s, sh*s
	case widget.Center:
		w, h = sw, sh
	default:
		s := math.Min(bw/sw, bh/sh)
		w, h = sw*s, sh*s
	}
	x := float64(box.Min.X) + (bw-w)/2
	y := float64(box.Min.Y) + (bh-h)/2
	return image.Rect(int(x), int(y), int(x+w), int(y+h))
}

func (p *painter) checkBox(c *widget.CheckBox, x, y int) int {
	left, top := x+int(c.Margin.Left), y+int(c.Margin.Top)+2
	box := image.Rect(left, top, left+checkBoxSize, top+checkBoxSize)
	col := c.Color
	if !c.Enabled {
		col.A = col.A / 4 * 3
	}
	p.stroke(box, col, 1)
	if c.Checked {
		p.fill(box.Inset(3), col)
	}
	return checkBoxSize + 4 + int(c.Margin.Top+c.Margin.Bottom)
}

// math draws the TeX source in the mono face; a parse error follows it in
// the error colour.
func (p *painter) math(m *widget.MathView, x, y, w int) int {
	ox, oy := x+int(m.Margin.Left), y+int(m.Margin.Top)
	ow := float64(w) - m.Margin.Left - m.Margin.Right
	size := m.FontSize
	if size <= 0 {
		size = 16
	}
	type run struct {
		face *FontAndFace
		size float64
		text string
	}
	mono := p.fonts.Face(style.FamilyMono, 0)
	var runs []run
	for _, ln := range wrapLines(mono, size, m.Source, ow) {
		runs = append(runs, run{mono, size, ln})
	}
	col := m.TextColor
	if m.Err != nil {
		col = m.ErrorColor
		for _, ln := range wrapLines(p.fonts.Italic, size*0.75, m.Err.Error(), ow) {
			runs = append(runs, run{p.fonts.Italic, size * 0.75, ln})
		}
	}
	cy := oy
	for _, r := range runs {
		px := pixels(r.size)
		if !p.dry() {
			p.dc.SetFont(r.face.Font)
			p.dc.SetFontSize(r.size)
			p.dc.SetSrc(image.NewUniform(col))
			_, _ = p.dc.DrawString(r.text, freetype.Pt(ox, cy+int(px)))
		}
		cy += int(math.Ceil(px * 1.25))
	}
	return cy - oy + int(m.Margin.Top+m.Margin.Bottom)
}
