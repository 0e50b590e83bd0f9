package mdview

import (
	"fmt"
	"image/color"
	"regexp"
	"strings"

	emojiast "github.com/yuin/goldmark-emoji/ast"
	"github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"

	"github.com/arran4/mdview/mdext"
	"github.com/arran4/mdview/style"
	"github.com/arran4/mdview/widget"
)

// inlineMathColor sets inline TeX apart from the surrounding text.
var inlineMathColor = style.Hex(0x6A1B9A)

const imagePlaceholderText = "[Image]"

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

// EmailAddress reports whether a link target is an email address and
// returns it without any mailto: prefix or query.
func EmailAddress(url string) (string, bool) {
	u := strings.TrimSpace(url)
	if len(u) >= len("mailto:") && strings.EqualFold(u[:len("mailto:")], "mailto:") {
		addr := u[len("mailto:"):]
		if i := strings.IndexByte(addr, '?'); i >= 0 {
			addr = addr[:i]
		}
		return addr, true
	}
	if emailPattern.MatchString(u) {
		return u, true
	}
	return "", false
}

// spanStyle is the formatting carried down while walking inline nodes.
type spanStyle struct {
	color      color.NRGBA
	size       float64
	family     string
	attrs      widget.FontAttributes
	decor      widget.TextDecorations
	background color.NRGBA
	onTap      func()
}

func (s spanStyle) span(text string) widget.Span {
	return widget.Span{
		Text:        text,
		Color:       s.color,
		FontSize:    s.size,
		FontFamily:  s.family,
		Attributes:  s.attrs,
		Decorations: s.decor,
		Background:  s.background,
		OnTap:       s.onTap,
	}
}

// inlines renders the inline children of parent.
func (r *renderer) inlines(parent ast.Node, st spanStyle) []widget.Span {
	var out []widget.Span
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		out = append(out, r.inline(c, st)...)
	}
	return mergeSpans(out)
}

func (r *renderer) inline(n ast.Node, st spanStyle) []widget.Span {
	switch c := n.(type) {
	case *ast.Text:
		value := string(c.Segment.Value(r.source))
		if r.trimNext {
			value = strings.TrimLeft(value, " \t")
			r.trimNext = false
		}
		switch {
		case c.HardLineBreak():
			value += "\n"
		case c.SoftLineBreak():
			value += " "
		}
		if value == "" {
			return nil
		}
		return []widget.Span{st.span(value)}
	case *ast.String:
		if len(c.Value) == 0 {
			return nil
		}
		return []widget.Span{st.span(string(c.Value))}
	case *ast.Emphasis:
		if c.Level >= 2 {
			st.attrs |= widget.Bold
		} else {
			st.attrs |= widget.Italic
		}
		return r.inlines(c, st)
	case *extast.Strikethrough:
		st.decor |= widget.Strikethrough
		return r.inlines(c, st)
	case *ast.Link:
		st = r.linkStyle(st, string(c.Destination))
		spans := r.inlines(c, st)
		if len(spans) == 0 {
			spans = []widget.Span{st.span(string(c.Destination))}
		}
		return spans
	case *ast.AutoLink:
		url := string(c.URL(r.source))
		label := string(c.Label(r.source))
		if label == "" {
			label = url
		}
		return []widget.Span{r.linkStyle(st, url).span(label)}
	case *ast.Image:
		return []widget.Span{st.span(imagePlaceholderText)}
	case *ast.CodeSpan:
		st.family = style.FirstFamily(r.props.CodeBlockFontFamily, style.FamilyMono)
		st.color = r.props.InlineCodeColor
		return []widget.Span{st.span(plainText(c, r.source))}
	case *mdext.InlineMath:
		st.attrs |= widget.Italic
		st.color = inlineMathColor
		return []widget.Span{st.span(c.Source(r.source))}
	case *emojiast.Emoji:
		if c.Value != nil && len(c.Value.Unicode) > 0 {
			return []widget.Span{st.span(string(c.Value.Unicode))}
		}
		return []widget.Span{st.span(":" + string(c.ShortName) + ":")}
	case *extast.FootnoteLink:
		st.color = r.props.HyperlinkColor
		st.size *= 0.8
		return []widget.Span{st.span(fmt.Sprintf("[%d]", c.Index))}
	case *extast.FootnoteBacklink:
		return nil
	case *extast.TaskCheckBox:
		// drawn by the list renderer
		r.trimNext = true
		return nil
	case *ast.RawHTML:
		var b strings.Builder
		for i := 0; i < c.Segments.Len(); i++ {
			seg := c.Segments.At(i)
			b.Write(seg.Value(r.source))
		}
		return []widget.Span{st.span(b.String())}
	}
	if n.HasChildren() {
		return r.inlines(n, st)
	}
	return nil
}

func (r *renderer) linkStyle(st spanStyle, url string) spanStyle {
	st.color = r.props.HyperlinkColor
	st.decor |= widget.Underline
	activate := r.activate
	st.onTap = func() {
		if activate != nil {
			activate(url)
		}
	}
	return st
}

// plainText concatenates the text of every descendant of n.
func plainText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

// mergeSpans joins neighbouring spans that look the same.
func mergeSpans(spans []widget.Span) []widget.Span {
	if len(spans) < 2 {
		return spans
	}
	out := spans[:1]
	for _, s := range spans[1:] {
		last := &out[len(out)-1]
		if sameStyle(*last, s) {
			last.Text += s.Text
			continue
		}
		out = append(out, s)
	}
	return out
}

func sameStyle(a, b widget.Span) bool {
	return a.OnTap == nil && b.OnTap == nil &&
		a.Color == b.Color &&
		a.FontSize == b.FontSize &&
		a.FontFamily == b.FontFamily &&
		a.Attributes == b.Attributes &&
		a.Decorations == b.Decorations &&
		a.Background == b.Background
}
