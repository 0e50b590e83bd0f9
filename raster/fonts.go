package raster

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"strings"
	"sync"

	"github.com/flopp/go-findfont"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/arran4/mdview/style"
	"github.com/arran4/mdview/widget"
)

const dpi = 96

// FontAndFace pairs a parsed font with a face at its base size.
type FontAndFace struct {
	Font     *truetype.Font
	Face     font.Face
	baseSize float64
}

// Fonts is the set of faces the painter draws with. Families other than
// the default and monospace are looked up on the system on first use.
type Fonts struct {
	Regular    *FontAndFace
	Bold       *FontAndFace
	Italic     *FontAndFace
	BoldItalic *FontAndFace
	Mono       *FontAndFace

	size     float64
	mu       sync.Mutex
	families map[string]*FontAndFace
}

// FontConfig selects font files. Empty paths use the bundled Go fonts.
type FontConfig struct {
	RegularPath string
	BoldPath    string
	ItalicPath  string
	MonoPath    string
	// Size is the base size in points the faces are built at.
	Size float64
}

func loadFontAndFace(ttf []byte, size float64) (*FontAndFace, error) {
	ft, err := truetype.Parse(ttf)
	if err != nil {
		return nil, err
	}
	face := truetype.NewFace(ft, &truetype.Options{Size: size, DPI: dpi, Hinting: font.HintingFull})
	return &FontAndFace{Font: ft, Face: face, baseSize: size}, nil
}

func loadFace(path string, fallback []byte, size float64) (*FontAndFace, error) {
	data := fallback
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("raster: font %s: %w", path, err)
		}
		data = b
	}
	f, err := loadFontAndFace(data, size)
	if err != nil {
		return nil, fmt.Errorf("raster: font %s: %w", path, err)
	}
	return f, nil
}

// LoadFonts builds a Fonts set from cfg.
func LoadFonts(cfg FontConfig) (*Fonts, error) {
	if cfg.Size <= 0 {
		cfg.Size = 16
	}
	f := &Fonts{size: cfg.Size, families: make(map[string]*FontAndFace)}
	var err error
	if f.Regular, err = loadFace(cfg.RegularPath, goregular.TTF, cfg.Size); err != nil {
		return nil, err
	}
	if f.Bold, err = loadFace(cfg.BoldPath, gobold.TTF, cfg.Size); err != nil {
		return nil, err
	}
	if f.Italic, err = loadFace(cfg.ItalicPath, goitalic.TTF, cfg.Size); err != nil {
		return nil, err
	}
	if f.BoldItalic, err = loadFace("", gobolditalic.TTF, cfg.Size); err != nil {
		return nil, err
	}
	if f.Mono, err = loadFace(cfg.MonoPath, gomono.TTF, cfg.Size); err != nil {
		return nil, err
	}
	return f, nil
}

// Face picks the face for a family and attributes.
func (f *Fonts) Face(family string, attrs widget.FontAttributes) *FontAndFace {
	switch strings.ToLower(strings.TrimSpace(family)) {
	case style.FamilyDefault:
	case style.FamilyMono, "mono", "courier", "courier new", "consolas":
		return f.Mono
	default:
		if ff := f.family(family); ff != nil && attrs == 0 {
			return ff
		}
	}
	switch {
	case attrs.Has(widget.Bold | widget.Italic):
		return f.BoldItalic
	case attrs.Has(widget.Bold):
		return f.Bold
	case attrs.Has(widget.Italic):
		return f.Italic
	}
	return f.Regular
}

// family finds a system font by name. Misses are remembered.
func (f *Fonts) family(name string) *FontAndFace {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ff, ok := f.families[name]; ok {
		return ff
	}
	var ff *FontAndFace
	for _, candidate := range []string{name, name + ".ttf", strings.ReplaceAll(name, " ", "") + ".ttf"} {
		path, err := findfont.Find(candidate)
		if err != nil || path == "" {
			continue
		}
		if loaded, err := loadFace(path, nil, f.size); err == nil {
			ff = loaded
			break
		}
	}
	if f.families == nil {
		f.families = make(map[string]*FontAndFace)
	}
	f.families[name] = ff
	return ff
}

// measureWidth returns the advance of s at size in pixels. Faces are built
// at one size and scaled.
func measureWidth(fnt *FontAndFace, size float64, s string) float64 {
	if fnt == nil || s == "" {
		return 0
	}
	d := font.Drawer{Face: fnt.Face, Src: image.NewUniform(color.Black)}
	width := float64(d.MeasureString(s).Round())
	base := fnt.baseSize
	if base <= 0 {
		base = size
	}
	if size <= 0 || base <= 0 {
		return width
	}
	return width * size / base
}

// pixels converts a point size to pixels.
func pixels(pt float64) float64 { return pt * dpi / 72 }
