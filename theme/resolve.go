package theme

import (
	"strings"
	"sync"

	"github.com/arran4/mdview/style"
)

// Appearance is the light or dark mode a palette is chosen for.
type Appearance int

const (
	AppearanceLight Appearance = iota
	AppearanceDark
)

func (a Appearance) String() string {
	if a == AppearanceDark {
		return "dark"
	}
	return "light"
}

// ParseAppearance accepts "light" and "dark".
func ParseAppearance(s string) (Appearance, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "light", "":
		return AppearanceLight, true
	case "dark":
		return AppearanceDark, true
	}
	return AppearanceLight, false
}

// AppearanceSource reports the host's current appearance and its changes.
type AppearanceSource interface {
	Current() Appearance
	Subscribe(fn func(Appearance)) (unsubscribe func())
}

// SystemAppearance is an AppearanceSource whose value is set by the host.
type SystemAppearance struct {
	mu     sync.Mutex
	cur    Appearance
	subs   map[int]func(Appearance)
	nextID int
}

// NewSystemAppearance starts at a.
func NewSystemAppearance(a Appearance) *SystemAppearance {
	return &SystemAppearance{cur: a}
}

func (s *SystemAppearance) Current() Appearance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

func (s *SystemAppearance) Subscribe(fn func(Appearance)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs == nil {
		s.subs = make(map[int]func(Appearance))
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Set changes the appearance. Subscribers run only when the value changes.
func (s *SystemAppearance) Set(a Appearance) {
	s.mu.Lock()
	if s.cur == a {
		s.mu.Unlock()
		return
	}
	s.cur = a
	subs := make([]func(Appearance), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()
	for _, fn := range subs {
		fn(a)
	}
}

// Resolve returns base with every palette and typography value of t copied
// onto its property. Properties a theme does not describe keep their base
// value. A nil theme returns base unchanged.
func Resolve(base style.Properties, t *Theme, a Appearance) style.Properties {
	if t == nil {
		return base
	}
	t.mu.RLock()
	pal := t.palette(a)
	ty := t.Typography
	aspect, imgW, imgH := t.ImageAspect, t.DefaultImageWidth, t.DefaultImageHeight
	t.mu.RUnlock()

	p := base

	p.BackgroundColor = pal.Background
	p.PlaceholderBackgroundColor = pal.Surface

	p.TextColor = pal.TextPrimary
	p.TextFontSize = ty.BodyFontSize
	p.TextFontFamily = ty.DefaultFontFamily
	p.LineBreakModeText = ty.TextLineBreakMode
	p.LineHeight = ty.LineHeight
	p.ParagraphSpacing = ty.ParagraphSpacing

	p.HeadingColors = pal.Headings
	p.HeadingFontSizes = ty.HeadingSizes
	p.HeadingFontFamilies = ty.HeadingFamilies
	p.HeadingAttributes = ty.HeadingAttributes
	p.HeadingFontFamily = ty.HeadingFontFamily
	p.HeadingLineHeight = ty.HeadingLineHeight
	p.LineBreakModeHeader = ty.HeadingLineBreakMode

	p.HyperlinkColor = pal.Hyperlink
	p.InlineCodeColor = pal.CodeBlockText

	p.CodeBlockBackgroundColor = pal.CodeBlockBackground
	p.CodeBlockBorderColor = pal.CodeBlockBorder
	p.CodeBlockTextColor = pal.CodeBlockText
	p.CodeBlockFontSize = ty.CodeFontSize
	p.CodeBlockFontFamily = ty.CodeFontFamily

	p.BlockQuoteBackgroundColor = pal.BlockQuoteBackground
	p.BlockQuoteBorderColor = pal.BlockQuoteBorder
	p.BlockQuoteTextColor = pal.BlockQuoteText
	p.BlockQuoteFontFamily = ty.BlockQuoteFontFamily

	p.TableHeaderBackgroundColor = pal.TableHeaderBackground
	p.TableHeaderTextColor = pal.TableHeaderText
	p.TableHeaderFontSize = ty.TableHeaderFontSize
	p.TableHeaderFontFamily = ty.DefaultFontFamily
	p.TableRowBackgroundColor = pal.TableRowBackground
	p.TableRowTextColor = pal.TableRowText
	p.TableRowFontSize = ty.TableRowFontSize
	p.TableRowFontFamily = ty.DefaultFontFamily
	p.TableBorderColor = pal.TableBorder

	p.LineColor = pal.Divider

	p.ListIndent = ty.ListIndent
	p.ListItemSpacing = ty.ListItemSpacing
	p.ListBulletColor = pal.Primary
	p.ListBulletFontSize = ty.BodyFontSize
	p.CheckBoxColor = pal.TextDisabled
	p.FootnoteTextColor = pal.TextSecondary

	p.ImageAspect = aspect
	p.DefaultImageWidth = imgW
	p.DefaultImageHeight = imgH

	p.InfoColor = pal.Info
	p.WarningColor = pal.Warning
	p.DangerColor = pal.Error
	p.SuccessColor = pal.Success
	p.DefaultContainerColor = pal.Secondary

	p.MathTextColor = pal.TextPrimary
	p.MathErrorColor = pal.Error
	return p
}
