// Package style holds the flat set of style properties that parameterise the
// Markdown renderer.
package style

import (
	"image/color"

	"github.com/arran4/mdview/widget"
)

// Font families understood by every host.
const (
	FamilyDefault = ""
	FamilyMono    = "monospace"
)

// HeadingStyle is the resolved style of one heading level.
type HeadingStyle struct {
	Color      color.NRGBA
	FontSize   float64
	FontFamily string
	Attributes widget.FontAttributes
}

// Properties is the style property surface of the markdown view. Every
// field has a default in Defaults; a theme overwrites the palette and
// typography derived fields in one update.
type Properties struct {
	// Page
	BackgroundColor            color.NRGBA
	PlaceholderBackgroundColor color.NRGBA

	// Body text
	TextColor         color.NRGBA
	TextFontSize      float64
	TextFontFamily    string
	LineBreakModeText widget.LineBreakMode
	LineHeight        float64
	ParagraphSpacing  float64

	// Headings; index 0 is level 1.
	HeadingColors       [6]color.NRGBA
	HeadingFontSizes    [6]float64
	HeadingFontFamilies [6]string
	HeadingAttributes   [6]widget.FontAttributes
	HeadingFontFamily   string
	HeadingLineHeight   float64
	LineBreakModeHeader widget.LineBreakMode

	HyperlinkColor  color.NRGBA
	InlineCodeColor color.NRGBA

	// Code blocks
	CodeBlockBackgroundColor color.NRGBA
	CodeBlockBorderColor     color.NRGBA
	CodeBlockTextColor       color.NRGBA
	CodeBlockFontSize        float64
	CodeBlockFontFamily      string

	// Block quotes
	BlockQuoteBackgroundColor color.NRGBA
	BlockQuoteBorderColor     color.NRGBA
	BlockQuoteTextColor       color.NRGBA
	BlockQuoteFontFamily      string

	// Tables
	TableHeaderBackgroundColor color.NRGBA
	TableHeaderTextColor       color.NRGBA
	TableHeaderFontSize        float64
	TableHeaderFontFamily      string
	TableRowBackgroundColor    color.NRGBA
	TableRowTextColor          color.NRGBA
	TableRowFontSize           float64
	TableRowFontFamily         string
	TableBorderColor           color.NRGBA

	LineColor color.NRGBA

	// Lists
	ListIndent         float64
	ListItemSpacing    float64
	ListBulletColor    color.NRGBA
	ListBulletFontSize float64

	// CheckBoxColor tints the read-only task list boxes.
	CheckBoxColor     color.NRGBA
	FootnoteTextColor color.NRGBA

	// Images
	ImageAspect        widget.Aspect
	DefaultImageWidth  float64
	DefaultImageHeight float64

	// Admonitions and alerts
	InfoColor             color.NRGBA
	WarningColor          color.NRGBA
	DangerColor           color.NRGBA
	SuccessColor          color.NRGBA
	DefaultContainerColor color.NRGBA

	// Math
	MathTextColor  color.NRGBA
	MathErrorColor color.NRGBA
	MathFontScale  float64
}

// Hex builds an opaque colour from 0xRRGGBB.
func Hex(v uint32) color.NRGBA {
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}
}

// Transparent is the zero colour.
var Transparent = color.NRGBA{}

// Defaults returns the property values used before any theme is applied.
func Defaults() Properties {
	return Properties{
		BackgroundColor:            Hex(0xFFFFFF),
		PlaceholderBackgroundColor: Hex(0xFFFFFF),

		TextColor:         Hex(0x000000),
		TextFontSize:      12,
		TextFontFamily:    FamilyDefault,
		LineBreakModeText: widget.WordWrap,
		LineHeight:        1,
		ParagraphSpacing:  3,

		HeadingColors: [6]color.NRGBA{
			Hex(0x000000), Hex(0xA9A9A9), Hex(0x808080),
			Hex(0x808080), Hex(0x808080), Hex(0x808080),
		},
		HeadingFontSizes:    [6]float64{24, 20, 18, 16, 14, 12},
		HeadingAttributes:   [6]widget.FontAttributes{widget.Bold, widget.Bold, widget.Bold, widget.Bold, widget.Bold, widget.Bold},
		HeadingLineHeight:   1,
		LineBreakModeHeader: widget.TailTruncation,

		HyperlinkColor:  Hex(0x0000FF),
		InlineCodeColor: Hex(0x8A2BE2),

		CodeBlockBackgroundColor: Hex(0xD3D3D3),
		CodeBlockBorderColor:     Hex(0x8A2BE2),
		CodeBlockTextColor:       Hex(0x8A2BE2),
		CodeBlockFontSize:        12,
		CodeBlockFontFamily:      FamilyMono,

		BlockQuoteBackgroundColor: Hex(0xD3D3D3),
		BlockQuoteBorderColor:     Hex(0x8A2BE2),
		BlockQuoteTextColor:       Hex(0x8A2BE2),
		BlockQuoteFontFamily:      FamilyMono,

		TableHeaderBackgroundColor: Hex(0xD3D3D3),
		TableHeaderTextColor:       Hex(0x000000),
		TableHeaderFontSize:        14,
		TableRowBackgroundColor:    Hex(0xFFFFFF),
		TableRowTextColor:          Hex(0x000000),
		TableRowFontSize:           12,
		TableBorderColor:           Hex(0xCCCCCC),

		LineColor: Hex(0xD3D3D3),

		ListIndent:         10,
		ListItemSpacing:    2,
		ListBulletColor:    Hex(0x000000),
		ListBulletFontSize: 12,

		CheckBoxColor:     Hex(0x9E9E9E),
		FootnoteTextColor: Hex(0x4A4A4A),

		ImageAspect:        widget.AspectFit,
		DefaultImageWidth:  200,
		DefaultImageHeight: 200,

		InfoColor:             Hex(0x2196F3),
		WarningColor:          Hex(0xFF9800),
		DangerColor:           Hex(0xF44336),
		SuccessColor:          Hex(0x4CAF50),
		DefaultContainerColor: Hex(0x9E9E9E),

		MathTextColor:  Hex(0x000000),
		MathErrorColor: Hex(0xFF0000),
		MathFontScale:  1.5,
	}
}

// clampLevel maps any heading level onto 1..6.
func clampLevel(level int) int {
	if level < 1 {
		return 1
	}
	if level > 6 {
		return 6
	}
	return level
}

// Heading returns the style for a heading level; levels past 6 use level 6.
func (p *Properties) Heading(level int) HeadingStyle {
	i := clampLevel(level) - 1
	return HeadingStyle{
		Color:      p.HeadingColors[i],
		FontSize:   p.HeadingFontSizes[i],
		FontFamily: p.ResolveHeadingFamily(level),
		Attributes: p.HeadingAttributes[i],
	}
}

// ResolveHeadingFamily walks the per-level family, then the shared heading
// family, then the body text family.
func (p *Properties) ResolveHeadingFamily(level int) string {
	return FirstFamily(p.HeadingFontFamilies[clampLevel(level)-1], p.HeadingFontFamily, p.TextFontFamily)
}

// FirstFamily returns the first non-empty family name.
func FirstFamily(families ...string) string {
	for _, f := range families {
		if f != "" {
			return f
		}
	}
	return FamilyDefault
}

// ContainerColor maps an admonition keyword onto its accent colour.
func (p *Properties) ContainerColor(kind string) color.NRGBA {
	switch kind {
	case "info", "note", "important":
		return p.InfoColor
	case "warning", "warn":
		return p.WarningColor
	case "danger", "error", "caution":
		return p.DangerColor
	case "success", "tip":
		return p.SuccessColor
	}
	return p.DefaultContainerColor
}
