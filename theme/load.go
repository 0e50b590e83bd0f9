package theme

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"github.com/arran4/mdview/widget"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	yamlLineRegex = regexp.MustCompile(`line (\d+)`)
)

// document is the on-disk shape of a theme file:
//
//	name: my-theme
//	base: github
//	light:
//	  hyperlink: "#0969DA"
//	dark:
//	  background: "#0D1117"
//	typography:
//	  body_font_size: 15
//	  headings:
//	    h1: {size: 30, family: Georgia, attributes: "bold,italic"}
//	image:
//	  aspect: aspect-fill
//	  width: 320
type document struct {
	Name       string            `yaml:"name"`
	Base       string            `yaml:"base" validate:"omitempty,preset"`
	Light      map[string]string `yaml:"light" validate:"omitempty,dive,keys,palette_key,endkeys,color"`
	Dark       map[string]string `yaml:"dark" validate:"omitempty,dive,keys,palette_key,endkeys,color"`
	Typography typographyDoc     `yaml:"typography"`
	Image      imageDoc          `yaml:"image"`
}

type typographyDoc struct {
	DefaultFontFamily    *string `yaml:"default_font_family"`
	HeadingFontFamily    *string `yaml:"heading_font_family"`
	CodeFontFamily       *string `yaml:"code_font_family"`
	BlockQuoteFontFamily *string `yaml:"block_quote_font_family"`

	BodyFontSize        *float64 `yaml:"body_font_size" validate:"omitempty,gt=0,lte=400"`
	CodeFontSize        *float64 `yaml:"code_font_size" validate:"omitempty,gt=0,lte=400"`
	TableHeaderFontSize *float64 `yaml:"table_header_font_size" validate:"omitempty,gt=0,lte=400"`
	TableRowFontSize    *float64 `yaml:"table_row_font_size" validate:"omitempty,gt=0,lte=400"`

	LineHeight        *float64 `yaml:"line_height" validate:"omitempty,gt=0"`
	HeadingLineHeight *float64 `yaml:"heading_line_height" validate:"omitempty,gt=0"`
	ParagraphSpacing  *float64 `yaml:"paragraph_spacing" validate:"omitempty,gte=0"`
	ListItemSpacing   *float64 `yaml:"list_item_spacing" validate:"omitempty,gte=0"`
	ListIndent        *float64 `yaml:"list_indent" validate:"omitempty,gte=0"`

	TextLineBreakMode    *widget.LineBreakMode `yaml:"text_line_break_mode"`
	HeadingLineBreakMode *widget.LineBreakMode `yaml:"heading_line_break_mode"`

	Headings map[string]headingDoc `yaml:"headings" validate:"omitempty,dive,keys,oneof=h1 h2 h3 h4 h5 h6,endkeys"`
}

type headingDoc struct {
	Size       *float64               `yaml:"size" validate:"omitempty,gt=0,lte=400"`
	Family     *string                `yaml:"family"`
	Attributes *widget.FontAttributes `yaml:"attributes"`
}

type imageDoc struct {
	Aspect *widget.Aspect `yaml:"aspect"`
	Width  *float64       `yaml:"width" validate:"omitempty,gt=0"`
	Height *float64       `yaml:"height" validate:"omitempty,gt=0"`
}

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("preset", func(fl validator.FieldLevel) bool {
			_, ok := presets[strings.ToLower(strings.TrimSpace(fl.Field().String()))]
			return ok
		})

		_ = v.RegisterValidation("palette_key", func(fl validator.FieldLevel) bool {
			return (&Palette{}).Field(fl.Field().String()) != nil
		})

		_ = v.RegisterValidation("color", func(fl validator.FieldLevel) bool {
			_, err := ParseColor(fl.Field().String())
			return err == nil
		})

		validateInst = v
	})

	return validateInst
}

// LoadFile reads a theme file from disk.
func LoadFile(path string) (*Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newParseError(path, 0, err)
	}
	return load(path, data)
}

// Load reads a theme document from r.
func Load(r io.Reader) (*Theme, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, newParseError("<reader>", 0, err)
	}
	return load("<reader>", data)
}

func load(path string, data []byte) (*Theme, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, newParseError(path, extractLine(err), err)
	}

	if err := validatorInstance().Struct(&doc); err != nil {
		return nil, convertValidationError(err)
	}

	t, err := ByName(doc.Base)
	if err != nil {
		return nil, &ValidationError{Field: "base", Message: err.Error(), Err: err}
	}
	if doc.Name != "" {
		t.Name = doc.Name
	} else if path != "<reader>" {
		t.Name = path
	}

	if err := applyColors(&t.Light, doc.Light, "light"); err != nil {
		return nil, err
	}
	if len(doc.Dark) > 0 {
		if t.Dark == nil {
			dark := t.Light
			t.Dark = &dark
		}
		if err := applyColors(t.Dark, doc.Dark, "dark"); err != nil {
			return nil, err
		}
	}
	doc.Typography.apply(&t.Typography)
	doc.Image.apply(t)
	return t, nil
}

func applyColors(p *Palette, overrides map[string]string, section string) error {
	for key, value := range overrides {
		c, err := ParseColor(value)
		if err != nil {
			return &ValidationError{Field: section + "." + key, Message: err.Error(), Err: err}
		}
		*p.Field(key) = c
	}
	return nil
}

func (d typographyDoc) apply(t *Typography) {
	setString(&t.DefaultFontFamily, d.DefaultFontFamily)
	setString(&t.HeadingFontFamily, d.HeadingFontFamily)
	setString(&t.CodeFontFamily, d.CodeFontFamily)
	setString(&t.BlockQuoteFontFamily, d.BlockQuoteFontFamily)
	setFloat(&t.BodyFontSize, d.BodyFontSize)
	setFloat(&t.CodeFontSize, d.CodeFontSize)
	setFloat(&t.TableHeaderFontSize, d.TableHeaderFontSize)
	setFloat(&t.TableRowFontSize, d.TableRowFontSize)
	setFloat(&t.LineHeight, d.LineHeight)
	setFloat(&t.HeadingLineHeight, d.HeadingLineHeight)
	setFloat(&t.ParagraphSpacing, d.ParagraphSpacing)
	setFloat(&t.ListItemSpacing, d.ListItemSpacing)
	setFloat(&t.ListIndent, d.ListIndent)
	if d.TextLineBreakMode != nil {
		t.TextLineBreakMode = *d.TextLineBreakMode
	}
	if d.HeadingLineBreakMode != nil {
		t.HeadingLineBreakMode = *d.HeadingLineBreakMode
	}
	for key, h := range d.Headings {
		i := int(key[1] - '1')
		setFloat(&t.HeadingSizes[i], h.Size)
		setString(&t.HeadingFamilies[i], h.Family)
		if h.Attributes != nil {
			t.HeadingAttributes[i] = *h.Attributes
		}
	}
}

func (d imageDoc) apply(t *Theme) {
	if d.Aspect != nil {
		t.ImageAspect = *d.Aspect
	}
	setFloat(&t.DefaultImageWidth, d.Width)
	setFloat(&t.DefaultImageHeight, d.Height)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// ParseColor accepts #RGB, #RRGGBB and #AARRGGBB.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(s)
	alpha := uint8(0xFF)
	if len(s) == 9 && strings.HasPrefix(s, "#") {
		a, err := strconv.ParseUint(s[1:3], 16, 8)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("color %q: %w", s, err)
		}
		alpha = uint8(a)
		s = "#" + s[3:]
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}, nil
}

func convertValidationError(err error) error {
	if ves, ok := err.(validator.ValidationErrors); ok {
		ve := ves[0]
		field := yamlishFieldName(ve)
		msg := fmt.Sprintf("%s failed validation for tag '%s'", field, ve.Tag())
		return &ValidationError{Field: field, Message: msg, Err: err}
	}
	return &ValidationError{Field: "theme", Message: err.Error(), Err: err}
}

func yamlishFieldName(fe validator.FieldError) string {
	parts := strings.Split(fe.StructNamespace(), ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, part := range parts {
		parts[i] = strings.ToLower(part)
	}
	return strings.Join(parts, ".")
}

func extractLine(err error) int {
	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}
	line, convErr := strconv.Atoi(matches[1])
	if convErr != nil {
		return 0
	}
	return line
}
