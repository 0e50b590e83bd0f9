package theme

import (
	"image/color"
	"sort"

	"github.com/arran4/mdview/style"
)

// Palette is the colour half of a theme.
type Palette struct {
	Primary       color.NRGBA
	Secondary     color.NRGBA
	Background    color.NRGBA
	Surface       color.NRGBA
	TextPrimary   color.NRGBA
	TextSecondary color.NRGBA
	TextDisabled  color.NRGBA

	// Headings; index 0 is H1.
	Headings [6]color.NRGBA

	Hyperlink color.NRGBA

	CodeBlockBackground color.NRGBA
	CodeBlockBorder     color.NRGBA
	CodeBlockText       color.NRGBA

	BlockQuoteBackground color.NRGBA
	BlockQuoteBorder     color.NRGBA
	BlockQuoteText       color.NRGBA

	TableHeaderBackground color.NRGBA
	TableHeaderText       color.NRGBA
	TableRowBackground    color.NRGBA
	TableRowText          color.NRGBA
	TableBorder           color.NRGBA

	Divider color.NRGBA

	Info    color.NRGBA
	Warning color.NRGBA
	Error   color.NRGBA
	Success color.NRGBA
}

// LightPalette returns the default light colours.
func LightPalette() Palette {
	return Palette{
		Primary:       style.Hex(0x512BD4),
		Secondary:     style.Hex(0xDFD8F7),
		Background:    style.Hex(0xFFFFFF),
		Surface:       style.Hex(0xF5F5F5),
		TextPrimary:   style.Hex(0x1A1A1A),
		TextSecondary: style.Hex(0x4A4A4A),
		TextDisabled:  style.Hex(0x9E9E9E),
		Headings: [6]color.NRGBA{
			style.Hex(0x1A1A1A), style.Hex(0x333333), style.Hex(0x4A4A4A),
			style.Hex(0x555555), style.Hex(0x666666), style.Hex(0x777777),
		},
		Hyperlink:             style.Hex(0x512BD4),
		CodeBlockBackground:   style.Hex(0xF5F5F5),
		CodeBlockBorder:       style.Hex(0xE0E0E0),
		CodeBlockText:         style.Hex(0xD63384),
		BlockQuoteBackground:  style.Hex(0xF8F9FA),
		BlockQuoteBorder:      style.Hex(0x512BD4),
		BlockQuoteText:        style.Hex(0x4A4A4A),
		TableHeaderBackground: style.Hex(0xE8E8E8),
		TableHeaderText:       style.Hex(0x1A1A1A),
		TableRowBackground:    style.Hex(0xFFFFFF),
		TableRowText:          style.Hex(0x1A1A1A),
		TableBorder:           style.Hex(0xCCCCCC),
		Divider:               style.Hex(0xE0E0E0),
		Info:                  style.Hex(0x2196F3),
		Warning:               style.Hex(0xFF9800),
		Error:                 style.Hex(0xF44336),
		Success:               style.Hex(0x4CAF50),
	}
}

// DarkPalette returns the default dark colours. They are chosen by hand,
// not derived from LightPalette.
func DarkPalette() Palette {
	return Palette{
		Primary:       style.Hex(0xB39DDB),
		Secondary:     style.Hex(0x7C4DFF),
		Background:    style.Hex(0x121212),
		Surface:       style.Hex(0x1E1E1E),
		TextPrimary:   style.Hex(0xFFFFFF),
		TextSecondary: style.Hex(0xB0B0B0),
		TextDisabled:  style.Hex(0x666666),
		Headings: [6]color.NRGBA{
			style.Hex(0xFFFFFF), style.Hex(0xE0E0E0), style.Hex(0xB0B0B0),
			style.Hex(0xA0A0A0), style.Hex(0x909090), style.Hex(0x808080),
		},
		Hyperlink:             style.Hex(0xB39DDB),
		CodeBlockBackground:   style.Hex(0x2D2D2D),
		CodeBlockBorder:       style.Hex(0x404040),
		CodeBlockText:         style.Hex(0xF48FB1),
		BlockQuoteBackground:  style.Hex(0x252525),
		BlockQuoteBorder:      style.Hex(0xB39DDB),
		BlockQuoteText:        style.Hex(0xB0B0B0),
		TableHeaderBackground: style.Hex(0x2D2D2D),
		TableHeaderText:       style.Hex(0xFFFFFF),
		TableRowBackground:    style.Hex(0x1E1E1E),
		TableRowText:          style.Hex(0xE0E0E0),
		TableBorder:           style.Hex(0x404040),
		Divider:               style.Hex(0x404040),
		Info:                  style.Hex(0x64B5F6),
		Warning:               style.Hex(0xFFB74D),
		Error:                 style.Hex(0xEF5350),
		Success:               style.Hex(0x81C784),
	}
}

// HeadingColor returns the colour of a heading level, clamped to 1..6.
func (p *Palette) HeadingColor(level int) color.NRGBA {
	switch {
	case level < 1:
		level = 1
	case level > 6:
		level = 6
	}
	return p.Headings[level-1]
}

// Field returns a pointer to the colour stored under name, or nil. Names
// are the snake_case keys used by theme files ("text_primary", "h3").
func (p *Palette) Field(name string) *color.NRGBA {
	switch name {
	case "primary":
		return &p.Primary
	case "secondary":
		return &p.Secondary
	case "background":
		return &p.Background
	case "surface":
		return &p.Surface
	case "text_primary":
		return &p.TextPrimary
	case "text_secondary":
		return &p.TextSecondary
	case "text_disabled":
		return &p.TextDisabled
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return &p.Headings[name[1]-'1']
	case "hyperlink":
		return &p.Hyperlink
	case "code_block_background":
		return &p.CodeBlockBackground
	case "code_block_border":
		return &p.CodeBlockBorder
	case "code_block_text":
		return &p.CodeBlockText
	case "block_quote_background":
		return &p.BlockQuoteBackground
	case "block_quote_border":
		return &p.BlockQuoteBorder
	case "block_quote_text":
		return &p.BlockQuoteText
	case "table_header_background":
		return &p.TableHeaderBackground
	case "table_header_text":
		return &p.TableHeaderText
	case "table_row_background":
		return &p.TableRowBackground
	case "table_row_text":
		return &p.TableRowText
	case "table_border":
		return &p.TableBorder
	case "divider":
		return &p.Divider
	case "info":
		return &p.Info
	case "warning":
		return &p.Warning
	case "error":
		return &p.Error
	case "success":
		return &p.Success
	}
	return nil
}

var paletteFieldNames = []string{
	"primary", "secondary", "background", "surface",
	"text_primary", "text_secondary", "text_disabled",
	"h1", "h2", "h3", "h4", "h5", "h6",
	"hyperlink",
	"code_block_background", "code_block_border", "code_block_text",
	"block_quote_background", "block_quote_border", "block_quote_text",
	"table_header_background", "table_header_text", "table_row_background", "table_row_text", "table_border",
	"divider",
	"info", "warning", "error", "success",
}

// FieldNames lists every palette key in sorted order.
func FieldNames() []string {
	out := append([]string(nil), paletteFieldNames...)
	sort.Strings(out)
	return out
}
