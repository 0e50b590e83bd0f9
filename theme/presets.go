package theme

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/arran4/mdview/style"
)

// ErrUnknownTheme is returned by ByName for names without a preset.
var ErrUnknownTheme = errors.New("theme: unknown theme")

var presets = map[string]func() *Theme{
	"light":         lightTheme,
	"dark":          darkTheme,
	"high-contrast": highContrastTheme,
	"compact":       compactTheme,
	"sepia":         sepiaTheme,
	"github":        githubTheme,
	"purple":        purpleTheme,
	"one-dark":      oneDarkTheme,
	"one-light":     oneLightTheme,
	"dracula":       draculaTheme,
	"nord":          nordTheme,
}

// ByName returns a fresh copy of a preset. The empty name selects "light".
func ByName(name string) (*Theme, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = "light"
	}
	mk, ok := presets[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTheme, name)
	}
	return mk(), nil
}

// Names lists the preset names in sorted order.
func Names() []string {
	out := make([]string, 0, len(presets))
	for name := range presets {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func lightTheme() *Theme { return New("light") }

func darkTheme() *Theme {
	t := New("dark")
	t.Light = DarkPalette()
	return t
}

func highContrastTheme() *Theme {
	t := New("high-contrast")
	black, white := style.Hex(0x000000), style.Hex(0xFFFFFF)

	t.Light.TextPrimary = black
	t.Light.Background = white
	t.Light.Headings[0], t.Light.Headings[1], t.Light.Headings[2] = black, black, black
	t.Light.Hyperlink = style.Hex(0x0000EE)

	t.Dark.TextPrimary = white
	t.Dark.Background = black
	t.Dark.Headings[0], t.Dark.Headings[1], t.Dark.Headings[2] = white, white, white
	t.Dark.Hyperlink = style.Hex(0xFFFF00)
	return t
}

func compactTheme() *Theme {
	t := New("compact")
	ty := &t.Typography
	ty.HeadingSizes = [6]float64{22, 18, 16, 14, 13, 12}
	ty.BodyFontSize = 12
	ty.CodeFontSize = 11
	ty.TableHeaderFontSize = 12
	ty.TableRowFontSize = 11
	ty.LineHeight = 1.3
	ty.ParagraphSpacing = 0.75
	ty.ListItemSpacing = 2
	ty.ListIndent = 16
	return t
}

func sepiaTheme() *Theme {
	t := New("sepia")
	p := &t.Light
	p.Background = style.Hex(0xF4ECD8)
	p.Surface = style.Hex(0xEAE0CC)
	p.TextPrimary = style.Hex(0x5C4B37)
	p.TextSecondary = style.Hex(0x7A6A56)
	p.Headings[0] = style.Hex(0x3D2E1F)
	p.Headings[1] = style.Hex(0x4A3C2B)
	p.Headings[2] = style.Hex(0x5C4B37)
	p.Hyperlink = style.Hex(0x8B4513)
	p.CodeBlockBackground = style.Hex(0xEAE0CC)
	p.CodeBlockText = style.Hex(0x704214)
	p.BlockQuoteBackground = style.Hex(0xE8DCC8)
	p.BlockQuoteBorder = style.Hex(0x8B4513)
	p.Divider = style.Hex(0xC9B896)

	d := t.Dark
	d.Background = style.Hex(0x2D2416)
	d.Surface = style.Hex(0x3D3121)
	d.TextPrimary = style.Hex(0xE8DCC8)
	d.TextSecondary = style.Hex(0xC9B896)
	d.Headings[0] = style.Hex(0xF4ECD8)
	d.Headings[1] = style.Hex(0xE8DCC8)
	d.Headings[2] = style.Hex(0xD4C4A8)
	d.Hyperlink = style.Hex(0xDEB887)
	return t
}

func githubTheme() *Theme {
	t := New("github")
	p := &t.Light
	p.Background = style.Hex(0xFFFFFF)
	p.Surface = style.Hex(0xF6F8FA)
	p.TextPrimary = style.Hex(0x24292F)
	p.TextSecondary = style.Hex(0x57606A)
	p.Headings[0], p.Headings[1], p.Headings[2] = style.Hex(0x24292F), style.Hex(0x24292F), style.Hex(0x24292F)
	p.Hyperlink = style.Hex(0x0969DA)
	p.CodeBlockBackground = style.Hex(0xF6F8FA)
	p.CodeBlockBorder = style.Hex(0xD0D7DE)
	p.CodeBlockText = style.Hex(0x24292F)
	p.BlockQuoteBackground = style.Hex(0xFFFFFF)
	p.BlockQuoteBorder = style.Hex(0xD0D7DE)
	p.BlockQuoteText = style.Hex(0x57606A)
	p.Divider = style.Hex(0xD8DEE4)

	d := t.Dark
	d.Background = style.Hex(0x0D1117)
	d.Surface = style.Hex(0x161B22)
	d.TextPrimary = style.Hex(0xC9D1D9)
	d.TextSecondary = style.Hex(0x8B949E)
	d.Headings[0], d.Headings[1], d.Headings[2] = style.Hex(0xC9D1D9), style.Hex(0xC9D1D9), style.Hex(0xC9D1D9)
	d.Hyperlink = style.Hex(0x58A6FF)
	d.CodeBlockBackground = style.Hex(0x161B22)
	d.CodeBlockBorder = style.Hex(0x30363D)
	d.CodeBlockText = style.Hex(0xC9D1D9)
	d.BlockQuoteBackground = style.Hex(0x0D1117)
	d.BlockQuoteBorder = style.Hex(0x30363D)
	d.BlockQuoteText = style.Hex(0x8B949E)
	d.Divider = style.Hex(0x21262D)
	return t
}

func purpleTheme() *Theme {
	t := New("purple")
	p := &t.Light
	p.Primary = style.Hex(0x512BD4)
	p.Secondary = style.Hex(0xDFD8F7)
	p.Hyperlink = style.Hex(0x512BD4)
	p.BlockQuoteBorder = style.Hex(0x512BD4)
	p.CodeBlockText = style.Hex(0x512BD4)

	d := t.Dark
	d.Primary = style.Hex(0xB39DDB)
	d.Secondary = style.Hex(0x7C4DFF)
	d.Hyperlink = style.Hex(0xB39DDB)
	d.BlockQuoteBorder = style.Hex(0xB39DDB)
	d.CodeBlockText = style.Hex(0xCE93D8)
	return t
}

// oneDark is shared by the one-dark preset (both appearances) and the dark
// half of one-light.
func oneDark(p *Palette) {
	p.Background = style.Hex(0x282C34)
	p.Surface = style.Hex(0x21252B)
	p.TextPrimary = style.Hex(0xABB2BF)
	p.TextSecondary = style.Hex(0x5C6370)
	p.Headings[0] = style.Hex(0xE06C75)
	p.Headings[1] = style.Hex(0xE5C07B)
	p.Headings[2] = style.Hex(0x61AFEF)
	p.Hyperlink = style.Hex(0x61AFEF)
	p.CodeBlockBackground = style.Hex(0x21252B)
	p.CodeBlockBorder = style.Hex(0x3E4451)
	p.CodeBlockText = style.Hex(0x98C379)
	p.BlockQuoteBackground = style.Hex(0x21252B)
	p.BlockQuoteBorder = style.Hex(0x56B6C2)
	p.BlockQuoteText = style.Hex(0x5C6370)
	p.TableHeaderBackground = style.Hex(0x21252B)
	p.TableHeaderText = style.Hex(0xE5C07B)
	p.TableRowBackground = style.Hex(0x282C34)
	p.TableRowText = style.Hex(0xABB2BF)
	p.Divider = style.Hex(0x3E4451)
}

func oneDarkTheme() *Theme {
	t := New("one-dark")
	oneDark(&t.Light)
	t.Light.Info = style.Hex(0x61AFEF)
	t.Light.Warning = style.Hex(0xE5C07B)
	t.Light.Error = style.Hex(0xE06C75)
	t.Light.Success = style.Hex(0x98C379)
	oneDark(t.Dark)
	return t
}

func oneLightTheme() *Theme {
	t := New("one-light")
	p := &t.Light
	p.Background = style.Hex(0xFAFAFA)
	p.Surface = style.Hex(0xF0F0F0)
	p.TextPrimary = style.Hex(0x383A42)
	p.TextSecondary = style.Hex(0xA0A1A7)
	p.Headings[0] = style.Hex(0xE45649)
	p.Headings[1] = style.Hex(0xC18401)
	p.Headings[2] = style.Hex(0x4078F2)
	p.Hyperlink = style.Hex(0x4078F2)
	p.CodeBlockBackground = style.Hex(0xF0F0F0)
	p.CodeBlockBorder = style.Hex(0xD4D4D4)
	p.CodeBlockText = style.Hex(0x50A14F)
	p.BlockQuoteBackground = style.Hex(0xF0F0F0)
	p.BlockQuoteBorder = style.Hex(0x0184BC)
	p.BlockQuoteText = style.Hex(0xA0A1A7)
	p.TableHeaderBackground = style.Hex(0xE5E5E6)
	p.TableHeaderText = style.Hex(0xC18401)
	p.TableRowBackground = style.Hex(0xFAFAFA)
	p.TableRowText = style.Hex(0x383A42)
	p.Divider = style.Hex(0xD4D4D4)
	p.Info = style.Hex(0x4078F2)
	p.Warning = style.Hex(0xC18401)
	p.Error = style.Hex(0xE45649)
	p.Success = style.Hex(0x50A14F)
	oneDark(t.Dark)
	return t
}

func draculaTheme() *Theme {
	t := New("dracula")
	p := &t.Light
	p.Background = style.Hex(0x282A36)
	p.Surface = style.Hex(0x44475A)
	p.TextPrimary = style.Hex(0xF8F8F2)
	p.TextSecondary = style.Hex(0x6272A4)
	p.Headings[0] = style.Hex(0xFF79C6)
	p.Headings[1] = style.Hex(0xBD93F9)
	p.Headings[2] = style.Hex(0x8BE9FD)
	p.Hyperlink = style.Hex(0x8BE9FD)
	p.CodeBlockBackground = style.Hex(0x44475A)
	p.CodeBlockBorder = style.Hex(0x6272A4)
	p.CodeBlockText = style.Hex(0x50FA7B)
	p.BlockQuoteBackground = style.Hex(0x44475A)
	p.BlockQuoteBorder = style.Hex(0xBD93F9)
	p.BlockQuoteText = style.Hex(0x6272A4)
	p.TableHeaderBackground = style.Hex(0x44475A)
	p.TableHeaderText = style.Hex(0xFF79C6)
	p.TableRowBackground = style.Hex(0x282A36)
	p.TableRowText = style.Hex(0xF8F8F2)
	p.Divider = style.Hex(0x6272A4)
	p.Info = style.Hex(0x8BE9FD)
	p.Warning = style.Hex(0xFFB86C)
	p.Error = style.Hex(0xFF5555)
	p.Success = style.Hex(0x50FA7B)

	copySurface(t.Dark, p)
	return t
}

// copySurface copies the page, text, heading, code, quote, table and
// divider colours; accents and H4..H6 stay as they are.
func copySurface(dst, src *Palette) {
	dst.Background, dst.Surface = src.Background, src.Surface
	dst.TextPrimary, dst.TextSecondary = src.TextPrimary, src.TextSecondary
	copy(dst.Headings[:3], src.Headings[:3])
	dst.Hyperlink = src.Hyperlink
	dst.CodeBlockBackground, dst.CodeBlockBorder, dst.CodeBlockText = src.CodeBlockBackground, src.CodeBlockBorder, src.CodeBlockText
	dst.BlockQuoteBackground, dst.BlockQuoteBorder, dst.BlockQuoteText = src.BlockQuoteBackground, src.BlockQuoteBorder, src.BlockQuoteText
	dst.TableHeaderBackground, dst.TableHeaderText = src.TableHeaderBackground, src.TableHeaderText
	dst.TableRowBackground, dst.TableRowText = src.TableRowBackground, src.TableRowText
	dst.Divider = src.Divider
}

func nordTheme() *Theme {
	t := New("nord")
	p := &t.Light
	p.Background = style.Hex(0xECEFF4)
	p.Surface = style.Hex(0xE5E9F0)
	p.TextPrimary = style.Hex(0x2E3440)
	p.TextSecondary = style.Hex(0x4C566A)
	p.Headings[0] = style.Hex(0x5E81AC)
	p.Headings[1] = style.Hex(0x81A1C1)
	p.Headings[2] = style.Hex(0x88C0D0)
	p.Hyperlink = style.Hex(0x5E81AC)
	p.CodeBlockBackground = style.Hex(0xE5E9F0)
	p.CodeBlockBorder = style.Hex(0xD8DEE9)
	p.CodeBlockText = style.Hex(0xA3BE8C)
	p.BlockQuoteBackground = style.Hex(0xE5E9F0)
	p.BlockQuoteBorder = style.Hex(0x88C0D0)
	p.BlockQuoteText = style.Hex(0x4C566A)
	p.TableHeaderBackground = style.Hex(0xD8DEE9)
	p.TableHeaderText = style.Hex(0x5E81AC)
	p.TableRowBackground = style.Hex(0xECEFF4)
	p.TableRowText = style.Hex(0x2E3440)
	p.Divider = style.Hex(0xD8DEE9)
	p.Info = style.Hex(0x5E81AC)
	p.Warning = style.Hex(0xEBCB8B)
	p.Error = style.Hex(0xBF616A)
	p.Success = style.Hex(0xA3BE8C)

	d := t.Dark
	d.Background = style.Hex(0x2E3440)
	d.Surface = style.Hex(0x3B4252)
	d.TextPrimary = style.Hex(0xECEFF4)
	d.TextSecondary = style.Hex(0xD8DEE9)
	d.Headings[0] = style.Hex(0x88C0D0)
	d.Headings[1] = style.Hex(0x81A1C1)
	d.Headings[2] = style.Hex(0x5E81AC)
	d.Hyperlink = style.Hex(0x88C0D0)
	d.CodeBlockBackground = style.Hex(0x3B4252)
	d.CodeBlockBorder = style.Hex(0x4C566A)
	d.CodeBlockText = style.Hex(0xA3BE8C)
	d.BlockQuoteBackground = style.Hex(0x3B4252)
	d.BlockQuoteBorder = style.Hex(0x88C0D0)
	d.BlockQuoteText = style.Hex(0xD8DEE9)
	d.TableHeaderBackground = style.Hex(0x3B4252)
	d.TableHeaderText = style.Hex(0x88C0D0)
	d.TableRowBackground = style.Hex(0x2E3440)
	d.TableRowText = style.Hex(0xECEFF4)
	d.Divider = style.Hex(0x4C566A)
	return t
}
