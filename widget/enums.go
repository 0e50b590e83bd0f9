package widget

import (
	"fmt"
	"strings"
)

// FontAttributes is a bitset of font styles.
type FontAttributes uint8

const (
	FontNone FontAttributes = 0
	Bold     FontAttributes = 1 << iota
	Italic
)

// Has reports whether all of attr is set.
func (a FontAttributes) Has(attr FontAttributes) bool { return a&attr == attr && attr != 0 }

func (a FontAttributes) String() string {
	switch a {
	case FontNone:
		return "none"
	case Bold:
		return "bold"
	case Italic:
		return "italic"
	case Bold | Italic:
		return "bold,italic"
	}
	return fmt.Sprintf("FontAttributes(%d)", uint8(a))
}

// ParseFontAttributes accepts "none", "bold", "italic" or a comma/pipe
// separated combination.
func ParseFontAttributes(s string) (FontAttributes, error) {
	var a FontAttributes
	for _, part := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == ',' || r == '|' || r == '+' || r == ' '
	}) {
		switch part {
		case "none", "":
		case "bold":
			a |= Bold
		case "italic":
			a |= Italic
		default:
			return 0, fmt.Errorf("unknown font attribute %q", part)
		}
	}
	return a, nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *FontAttributes) UnmarshalText(b []byte) error {
	v, err := ParseFontAttributes(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// TextDecorations is a bitset of line decorations.
type TextDecorations uint8

const (
	DecorationNone TextDecorations = 0
	Underline      TextDecorations = 1 << iota
	Strikethrough
)

// Has reports whether all of d is set.
func (t TextDecorations) Has(d TextDecorations) bool { return t&d == d && d != 0 }

// LineBreakMode controls wrapping and truncation of label text.
type LineBreakMode int

const (
	WordWrap LineBreakMode = iota
	CharacterWrap
	NoWrap
	HeadTruncation
	MiddleTruncation
	TailTruncation
)

var lineBreakNames = []string{"word-wrap", "character-wrap", "no-wrap", "head-truncation", "middle-truncation", "tail-truncation"}

func (m LineBreakMode) String() string {
	if int(m) >= 0 && int(m) < len(lineBreakNames) {
		return lineBreakNames[m]
	}
	return fmt.Sprintf("LineBreakMode(%d)", int(m))
}

// ParseLineBreakMode parses names such as "word-wrap" or "TailTruncation".
func ParseLineBreakMode(s string) (LineBreakMode, error) {
	i, err := parseName(s, lineBreakNames)
	if err != nil {
		return 0, fmt.Errorf("line break mode: %w", err)
	}
	return LineBreakMode(i), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *LineBreakMode) UnmarshalText(b []byte) error {
	v, err := ParseLineBreakMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// TextAlignment aligns text inside a label.
type TextAlignment int

const (
	AlignStart TextAlignment = iota
	AlignCenter
	AlignEnd
)

var textAlignNames = []string{"start", "center", "end"}

func (a TextAlignment) String() string {
	if int(a) >= 0 && int(a) < len(textAlignNames) {
		return textAlignNames[a]
	}
	return fmt.Sprintf("TextAlignment(%d)", int(a))
}

// LayoutAlignment positions a widget inside the space given to it.
type LayoutAlignment int

const (
	LayoutFill LayoutAlignment = iota
	LayoutStart
	LayoutCenter
	LayoutEnd
)

var layoutNames = []string{"fill", "start", "center", "end"}

func (a LayoutAlignment) String() string {
	if int(a) >= 0 && int(a) < len(layoutNames) {
		return layoutNames[a]
	}
	return fmt.Sprintf("LayoutAlignment(%d)", int(a))
}

// ParseLayoutAlignment accepts fill/start/center/end and the left/right/top/bottom aliases.
func ParseLayoutAlignment(s string) (LayoutAlignment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "top":
		return LayoutStart, nil
	case "right", "bottom":
		return LayoutEnd, nil
	case "middle", "centre":
		return LayoutCenter, nil
	}
	i, err := parseName(s, layoutNames)
	if err != nil {
		return 0, fmt.Errorf("layout alignment: %w", err)
	}
	return LayoutAlignment(i), nil
}

// Aspect controls how an image is scaled into its box.
type Aspect int

const (
	AspectFit Aspect = iota
	AspectFill
	Fill
	Center
)

var aspectNames = []string{"aspect-fit", "aspect-fill", "fill", "center"}

func (a Aspect) String() string {
	if int(a) >= 0 && int(a) < len(aspectNames) {
		return aspectNames[a]
	}
	return fmt.Sprintf("Aspect(%d)", int(a))
}

// ParseAspect parses names such as "aspect-fit" or "AspectFill".
func ParseAspect(s string) (Aspect, error) {
	i, err := parseName(s, aspectNames)
	if err != nil {
		return 0, fmt.Errorf("aspect: %w", err)
	}
	return Aspect(i), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Aspect) UnmarshalText(b []byte) error {
	v, err := ParseAspect(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Orientation of a Stack.
type Orientation int

const (
	Vertical Orientation = iota
	Horizontal
)

func (o Orientation) String() string {
	if o == Horizontal {
		return "horizontal"
	}
	return "vertical"
}

// parseName matches s against names ignoring case, dashes and underscores.
func parseName(s string, names []string) (int, error) {
	key := normalizeName(s)
	for i, n := range names {
		if normalizeName(n) == key {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown value %q", s)
}

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)
}
