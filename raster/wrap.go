package raster

import (
	"image/color"
	"strings"
	"unicode"

	"github.com/arran4/mdview/widget"
)

// styledWord is a run of text that is measured and drawn as one piece.
type styledWord struct {
	text   string
	font   *FontAndFace
	size   float64
	color  color.NRGBA
	decor  widget.TextDecorations
	bg     color.NRGBA
	width  float64
	spaces bool
}

type textLine struct {
	words []styledWord
	width float64
	size  float64
}

// layoutLabel wraps the label's spans into lines no wider than maxWidth.
func layoutLabel(fonts *Fonts, l *widget.Label, maxWidth float64) []textLine {
	spans := l.Spans
	if len(spans) == 0 {
		spans = []widget.Span{{Text: l.Text}}
	}
	wrap := l.LineBreakMode == widget.WordWrap || l.LineBreakMode == widget.CharacterWrap

	var lines []textLine
	var cur textLine
	// soft is set when the current line starts after a wrap rather than a
	// newline; leading spaces are dropped only then.
	soft := false
	flush := func() {
		// trailing spaces do not count towards alignment
		for len(cur.words) > 0 && cur.words[len(cur.words)-1].spaces {
			cur.width -= cur.words[len(cur.words)-1].width
			cur.words = cur.words[:len(cur.words)-1]
		}
		if cur.size == 0 {
			cur.size = l.FontSize
		}
		lines = append(lines, cur)
		cur = textLine{}
		soft = true
	}
	add := func(w styledWord) {
		cur.words = append(cur.words, w)
		cur.width += w.width
		if w.size > cur.size {
			cur.size = w.size
		}
	}

	for _, s := range spans {
		size := s.FontSize
		if size <= 0 {
			size = l.FontSize
		}
		col := s.Color
		if col.A == 0 {
			col = l.Color
		}
		family := s.FontFamily
		if family == "" {
			family = l.FontFamily
		}
		face := fonts.Face(family, s.Attributes|l.Attributes)

		for i, part := range strings.Split(s.Text, "\n") {
			if i > 0 {
				flush()
				soft = false
			}
			for _, seg := range splitTextPreserveSpaces(part) {
				spaces := unicode.IsSpace([]rune(seg)[0])
				if spaces && len(cur.words) == 0 && soft {
					continue
				}
				w := styledWord{text: seg, font: face, size: size, color: col, decor: s.Decorations, bg: s.Background, spaces: spaces}
				w.width = measureWidth(face, size, seg)
				if !wrap || spaces {
					add(w)
					continue
				}
				if w.width > maxWidth {
					if len(cur.words) > 0 {
						flush()
					}
					for _, piece := range breakLongToken(face, size, seg, maxWidth) {
						pw := w
						pw.text = piece
						pw.width = measureWidth(face, size, piece)
						if len(cur.words) > 0 {
							flush()
						}
						add(pw)
					}
					continue
				}
				if cur.width+w.width > maxWidth && len(cur.words) > 0 {
					flush()
				}
				add(w)
			}
		}
	}
	if len(cur.words) > 0 || len(lines) == 0 {
		flush()
	}
	if l.LineBreakMode == widget.TailTruncation {
		for i := range lines {
			lines[i] = truncateTail(lines[i], maxWidth)
		}
	}
	return lines
}

// truncateTail drops words that overflow and marks the cut with an ellipsis.
func truncateTail(ln textLine, maxWidth float64) textLine {
	if ln.width <= maxWidth || len(ln.words) == 0 {
		return ln
	}
	last := ln.words[len(ln.words)-1]
	ellipsis := last
	ellipsis.text = "…"
	ellipsis.spaces = false
	ellipsis.width = measureWidth(last.font, last.size, ellipsis.text)
	for len(ln.words) > 0 && ln.width+ellipsis.width > maxWidth {
		ln.width -= ln.words[len(ln.words)-1].width
		ln.words = ln.words[:len(ln.words)-1]
	}
	ln.words = append(ln.words, ellipsis)
	ln.width += ellipsis.width
	return ln
}

// wrapLines wraps plain text line by line, keeping leading indentation.
func wrapLines(ff *FontAndFace, size float64, text string, maxWidth float64) []string {
	var lines []string
	for _, ln := range strings.Split(text, "\n") {
		if ln == "" {
			lines = append(lines, "")
			continue
		}
		if maxWidth <= 0 || measureWidth(ff, size, ln) <= maxWidth {
			lines = append(lines, ln)
			continue
		}
		lines = append(lines, wrapLinePreservingSpaces(ff, size, ln, maxWidth)...)
	}
	if len(lines) == 0 {
		lines = append(lines, "")
	}
	return lines
}

func wrapLinePreservingSpaces(ff *FontAndFace, size float64, line string, maxWidth float64) []string {
	var result []string
	var current strings.Builder
	var currentWidth float64

	flush := func() {
		result = append(result, current.String())
		current.Reset()
		currentWidth = 0
	}

	for _, token := range splitTextPreserveSpaces(line) {
		tokenWidth := measureWidth(ff, size, token)
		if tokenWidth > maxWidth {
			if current.Len() > 0 {
				flush()
			}
			result = append(result, breakLongToken(ff, size, token, maxWidth)...)
			continue
		}
		if currentWidth+tokenWidth > maxWidth && current.Len() > 0 {
			flush()
		}
		current.WriteString(token)
		currentWidth += tokenWidth
	}
	if current.Len() > 0 {
		flush()
	}
	if len(result) == 0 {
		result = append(result, "")
	}
	return result
}

func breakLongToken(ff *FontAndFace, size float64, token string, maxWidth float64) []string {
	var parts []string
	var current strings.Builder
	var width float64
	for _, r := range token {
		ch := string(r)
		charWidth := measureWidth(ff, size, ch)
		if width+charWidth > maxWidth && current.Len() > 0 {
			parts = append(parts, current.String())
			current.Reset()
			width = 0
		}
		current.WriteString(ch)
		width += charWidth
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	if len(parts) == 0 {
		parts = append(parts, token)
	}
	return parts
}

// splitTextPreserveSpaces splits s into alternating runs of space and
// non-space characters.
func splitTextPreserveSpaces(s string) []string {
	var parts []string
	var current strings.Builder
	lastSpace, started := false, false
	for _, r := range s {
		space := unicode.IsSpace(r)
		if started && space != lastSpace {
			parts = append(parts, current.String())
			current.Reset()
		}
		current.WriteRune(r)
		lastSpace, started = space, true
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}
