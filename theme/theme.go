// Package theme groups palettes, typography and image defaults into named
// themes that can be resolved onto style.Properties.
package theme

import (
	"image/color"
	"sync"

	"github.com/arran4/mdview/widget"
)

// Change describes one theme mutation. Path names what changed, for
// example "Light.hyperlink" or "Typography".
type Change struct {
	Theme *Theme
	Path  string
}

// Theme is a light palette, an optional dark palette, typography and image
// defaults. Fields may be assigned directly until the theme is shared with a
// view; after that use Mutate so subscribers see the change.
type Theme struct {
	Name       string
	Light      Palette
	Dark       *Palette
	Typography Typography

	ImageAspect        widget.Aspect
	DefaultImageWidth  float64
	DefaultImageHeight float64

	mu     sync.RWMutex
	subMu  sync.Mutex
	subs   map[int]func(Change)
	nextID int
}

// New returns a theme with the stock light and dark palettes.
func New(name string) *Theme {
	dark := DarkPalette()
	return &Theme{
		Name:               name,
		Light:              LightPalette(),
		Dark:               &dark,
		Typography:         DefaultTypography(),
		ImageAspect:        widget.AspectFit,
		DefaultImageWidth:  200,
		DefaultImageHeight: 200,
	}
}

// Clone deep-copies the theme. Subscribers are not copied.
func (t *Theme) Clone() *Theme {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := &Theme{
		Name:               t.Name,
		Light:              t.Light,
		Typography:         t.Typography,
		ImageAspect:        t.ImageAspect,
		DefaultImageWidth:  t.DefaultImageWidth,
		DefaultImageHeight: t.DefaultImageHeight,
	}
	if t.Dark != nil {
		dark := *t.Dark
		out.Dark = &dark
	}
	return out
}

// Palette returns the palette for appearance. A theme without a dark
// palette uses its light palette in dark mode.
func (t *Theme) Palette(a Appearance) Palette {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.palette(a)
}

func (t *Theme) palette(a Appearance) Palette {
	if a == AppearanceDark && t.Dark != nil {
		return *t.Dark
	}
	return t.Light
}

// Subscribe registers fn for change notifications and returns a function
// that removes it.
func (t *Theme) Subscribe(fn func(Change)) (unsubscribe func()) {
	t.subMu.Lock()
	defer t.subMu.Unlock()
	if t.subs == nil {
		t.subs = make(map[int]func(Change))
	}
	id := t.nextID
	t.nextID++
	t.subs[id] = fn
	var once sync.Once
	return func() {
		once.Do(func() {
			t.subMu.Lock()
			delete(t.subs, id)
			t.subMu.Unlock()
		})
	}
}

// Subscribers reports how many subscriptions are live.
func (t *Theme) Subscribers() int {
	t.subMu.Lock()
	defer t.subMu.Unlock()
	return len(t.subs)
}

// Mutate runs fn with the theme locked and then notifies every subscriber
// once with path.
func (t *Theme) Mutate(path string, fn func(t *Theme)) {
	t.mu.Lock()
	fn(t)
	t.mu.Unlock()

	t.subMu.Lock()
	subs := make([]func(Change), 0, len(t.subs))
	for _, sub := range t.subs {
		subs = append(subs, sub)
	}
	t.subMu.Unlock()

	c := Change{Theme: t, Path: path}
	for _, sub := range subs {
		sub(c)
	}
}

// SetColor changes one palette colour by key and notifies subscribers.
// It reports false for unknown keys.
func (t *Theme) SetColor(a Appearance, key string, c color.NRGBA) bool {
	if (&Palette{}).Field(key) == nil {
		return false
	}
	prefix := "Light."
	if a == AppearanceDark {
		prefix = "Dark."
	}
	t.Mutate(prefix+key, func(t *Theme) {
		p := &t.Light
		if a == AppearanceDark {
			if t.Dark == nil {
				dark := t.Light
				t.Dark = &dark
			}
			p = t.Dark
		}
		*p.Field(key) = c
	})
	return true
}
