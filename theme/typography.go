package theme

import (
	"github.com/arran4/mdview/style"
	"github.com/arran4/mdview/widget"
)

// Typography is the font half of a theme. Empty family names mean "inherit".
type Typography struct {
	DefaultFontFamily    string
	HeadingFontFamily    string
	CodeFontFamily       string
	BlockQuoteFontFamily string

	// Per heading level; index 0 is H1.
	HeadingSizes      [6]float64
	HeadingFamilies   [6]string
	HeadingAttributes [6]widget.FontAttributes

	BodyFontSize        float64
	CodeFontSize        float64
	TableHeaderFontSize float64
	TableRowFontSize    float64

	LineHeight        float64
	HeadingLineHeight float64
	ParagraphSpacing  float64
	ListItemSpacing   float64
	ListIndent        float64

	TextLineBreakMode    widget.LineBreakMode
	HeadingLineBreakMode widget.LineBreakMode
}

// DefaultTypography returns the stock font settings.
func DefaultTypography() Typography {
	bold := widget.Bold
	return Typography{
		CodeFontFamily:       style.FamilyMono,
		BlockQuoteFontFamily: style.FamilyMono,
		HeadingSizes:         [6]float64{28, 24, 20, 18, 16, 14},
		HeadingAttributes:    [6]widget.FontAttributes{bold, bold, bold, bold, bold, bold},
		BodyFontSize:         14,
		CodeFontSize:         13,
		TableHeaderFontSize:  14,
		TableRowFontSize:     13,
		LineHeight:           1.5,
		HeadingLineHeight:    1.3,
		ParagraphSpacing:     1,
		ListItemSpacing:      4,
		ListIndent:           20,
		TextLineBreakMode:    widget.WordWrap,
		HeadingLineBreakMode: widget.TailTruncation,
	}
}

// HeadingFamily resolves the family of a heading level: the level's own
// family, then HeadingFontFamily, then DefaultFontFamily.
func (t *Typography) HeadingFamily(level int) string {
	switch {
	case level < 1:
		level = 1
	case level > 6:
		level = 6
	}
	return style.FirstFamily(t.HeadingFamilies[level-1], t.HeadingFontFamily, t.DefaultFontFamily)
}
