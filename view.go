// Package mdview turns Markdown text into a toolkit-neutral widget tree.
//
// A View owns the Markdown source, the style properties and an optional
// theme. Any change to one of them re-renders the whole document once and
// replaces Content. Images load in the background and are handed to their
// widgets through the configured widget.Dispatcher.
package mdview

import (
	"context"
	"net/http"
	"sync"

	"github.com/yuin/goldmark"

	"github.com/arran4/mdview/imageres"
	"github.com/arran4/mdview/internal/logger"
	"github.com/arran4/mdview/mdext"
	"github.com/arran4/mdview/style"
	"github.com/arran4/mdview/theme"
	"github.com/arran4/mdview/widget"
)

// Command is an activatable action with a parameter, such as a link target.
type Command interface {
	CanExecute(param string) bool
	Execute(param string)
}

// CommandFunc adapts a function to Command. It can always execute.
type CommandFunc func(param string)

func (f CommandFunc) CanExecute(string) bool { return f != nil }

func (f CommandFunc) Execute(param string) { f(param) }

// View is the Markdown control.
type View struct {
	mu sync.Mutex

	log        *logger.Logger
	dispatcher widget.Dispatcher
	resolver   *imageres.Resolver
	md         goldmark.Markdown

	markdown string
	props    style.Properties

	theme           *theme.Theme
	unsubTheme      func()
	followSystem    bool
	appearance      theme.AppearanceSource
	unsubAppearance func()

	onHyperlink  func(url string)
	onEmail      func(address string)
	hyperlinkCmd Command
	emailCmd     Command

	content    widget.Node
	generation uint64
	cancel     context.CancelFunc
	loads      *sync.WaitGroup
	closed     bool
}

type config struct {
	log          *logger.Logger
	dispatcher   widget.Dispatcher
	resolver     *imageres.Resolver
	client       *http.Client
	baseDir      string
	cacheSize    int
	theme        *theme.Theme
	followSystem bool
	appearance   theme.AppearanceSource
	onHyperlink  func(string)
	onEmail      func(string)
	hyperlinkCmd Command
	emailCmd     Command
	extensions   mdext.Config
	props        *style.Properties
}

// Option configures a View.
type Option func(*config)

// WithLogger sets the diagnostic sink. The default discards everything.
func WithLogger(l *logger.Logger) Option { return func(c *config) { c.log = l } }

// WithDispatcher sets how image completions reach the UI thread.
func WithDispatcher(d widget.Dispatcher) Option { return func(c *config) { c.dispatcher = d } }

// WithResolver shares an image resolver, and with it its cache, between views.
func WithResolver(r *imageres.Resolver) Option { return func(c *config) { c.resolver = r } }

// WithHTTPClient sets the client used for remote images.
func WithHTTPClient(client *http.Client) Option { return func(c *config) { c.client = client } }

// WithBaseDir resolves relative image paths against dir.
func WithBaseDir(dir string) Option { return func(c *config) { c.baseDir = dir } }

// WithImageCacheSize bounds the number of cached remote images.
func WithImageCacheSize(n int) Option { return func(c *config) { c.cacheSize = n } }

// WithTheme applies t on creation and follows its changes.
func WithTheme(t *theme.Theme) Option { return func(c *config) { c.theme = t } }

// WithSystemTheme picks the light or dark palette from src and re-renders
// when it changes.
func WithSystemTheme(src theme.AppearanceSource) Option {
	return func(c *config) {
		c.appearance = src
		c.followSystem = src != nil
	}
}

// WithProperties replaces the default style properties.
func WithProperties(p style.Properties) Option { return func(c *config) { c.props = &p } }

// WithExtensions selects the Markdown extensions.
func WithExtensions(cfg mdext.Config) Option { return func(c *config) { c.extensions = cfg } }

// OnHyperlink sets the callback for activated non-email links.
func OnHyperlink(fn func(url string)) Option { return func(c *config) { c.onHyperlink = fn } }

// OnEmail sets the callback for activated email links.
func OnEmail(fn func(address string)) Option { return func(c *config) { c.onEmail = fn } }

// WithHyperlinkCommand sets a command run alongside the hyperlink callback.
func WithHyperlinkCommand(cmd Command) Option { return func(c *config) { c.hyperlinkCmd = cmd } }

// WithEmailCommand sets a command run alongside the email callback.
func WithEmailCommand(cmd Command) Option { return func(c *config) { c.emailCmd = cmd } }

// New creates a View with empty content.
func New(opts ...Option) *View {
	cfg := config{extensions: mdext.DefaultConfig()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.log == nil {
		cfg.log = logger.Nop()
	}
	if cfg.dispatcher == nil {
		cfg.dispatcher = widget.Immediate{}
	}
	if cfg.resolver == nil {
		r, err := imageres.New(imageres.Options{
			Client:    cfg.client,
			CacheSize: cfg.cacheSize,
			BaseDir:   cfg.baseDir,
			Logger:    cfg.log,
		})
		if err != nil {
			cfg.log.Error(err, "image resolver unavailable, images will show placeholders")
		}
		cfg.resolver = r
	}

	v := &View{
		log:          cfg.log,
		dispatcher:   cfg.dispatcher,
		resolver:     cfg.resolver,
		md:           mdext.New(cfg.extensions),
		props:        style.Defaults(),
		followSystem: cfg.followSystem,
		appearance:   cfg.appearance,
		onHyperlink:  cfg.onHyperlink,
		onEmail:      cfg.onEmail,
		hyperlinkCmd: cfg.hyperlinkCmd,
		emailCmd:     cfg.emailCmd,
	}
	if cfg.props != nil {
		v.props = *cfg.props
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.followSystem {
		v.subscribeAppearance()
	}
	if cfg.theme != nil {
		v.attachTheme(cfg.theme)
		v.props = theme.Resolve(v.props, v.theme, v.currentAppearance())
	}
	v.render()
	return v
}

// SetMarkdown replaces the source text and re-renders.
func (v *View) SetMarkdown(md string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.markdown = md
	v.render()
}

// Markdown returns the current source text.
func (v *View) Markdown() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.markdown
}

// Update applies any number of property changes and renders once. fn must
// not call back into the View.
func (v *View) Update(fn func(p *style.Properties)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || fn == nil {
		return
	}
	fn(&v.props)
	v.render()
}

// Properties returns a copy of the current style properties.
func (v *View) Properties() style.Properties {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.props
}

// Theme returns the attached theme, if any.
func (v *View) Theme() *theme.Theme {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.theme
}

// SetTheme swaps the theme. The previous theme is no longer followed; a nil
// theme keeps the current property values.
func (v *View) SetTheme(t *theme.Theme) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.detachTheme()
	if t == nil {
		return
	}
	v.attachTheme(t)
	v.applyTheme()
}

// SetFollowSystemTheme toggles choosing the palette from the appearance
// source given with WithSystemTheme.
func (v *View) SetFollowSystemTheme(follow bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || follow == v.followSystem {
		return
	}
	v.followSystem = follow
	if follow {
		v.subscribeAppearance()
	} else if v.unsubAppearance != nil {
		v.unsubAppearance()
		v.unsubAppearance = nil
	}
	if v.theme != nil {
		v.applyTheme()
	}
}

// FollowsSystemTheme reports whether the palette tracks the system appearance.
func (v *View) FollowsSystemTheme() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.followSystem
}

// Content returns the widget tree of the latest render.
func (v *View) Content() widget.Node {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.content
}

// Generation counts renders. It starts at 1 after New.
func (v *View) Generation() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.generation
}

// WaitImages blocks until every image load started by the latest render has
// been delivered or abandoned, or ctx is done.
func (v *View) WaitImages(ctx context.Context) error {
	v.mu.Lock()
	wg := v.loads
	v.mu.Unlock()
	if wg == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels pending image loads, drops every subscription and empties
// the image cache. The View ignores further changes.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.detachTheme()
	if v.unsubAppearance != nil {
		v.unsubAppearance()
		v.unsubAppearance = nil
	}
	if v.resolver != nil {
		v.resolver.Purge()
	}
}

// attachTheme and the other lower-case helpers expect v.mu to be held.
func (v *View) attachTheme(t *theme.Theme) {
	v.theme = t
	v.unsubTheme = t.Subscribe(func(c theme.Change) {
		v.dispatcher.Post(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			if v.closed || v.theme != c.Theme {
				return
			}
			v.log.WithFields(map[string]any{"theme": c.Theme.Name, "path": c.Path}).Debug("theme changed")
			v.applyTheme()
		})
	})
}

func (v *View) detachTheme() {
	if v.unsubTheme != nil {
		v.unsubTheme()
		v.unsubTheme = nil
	}
	v.theme = nil
}

func (v *View) subscribeAppearance() {
	if v.appearance == nil || v.unsubAppearance != nil {
		return
	}
	v.unsubAppearance = v.appearance.Subscribe(func(a theme.Appearance) {
		v.dispatcher.Post(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			if v.closed || !v.followSystem || v.theme == nil {
				return
			}
			v.log.WithFields(map[string]any{"appearance": a.String()}).Debug("system appearance changed")
			v.applyTheme()
		})
	})
}

func (v *View) currentAppearance() theme.Appearance {
	if v.followSystem && v.appearance != nil {
		return v.appearance.Current()
	}
	return theme.AppearanceLight
}

// applyTheme overwrites the properties from the theme in one step and
// renders once.
func (v *View) applyTheme() {
	if v.theme == nil {
		return
	}
	v.props = theme.Resolve(v.props, v.theme, v.currentAppearance())
	v.render()
}

func (v *View) render() {
	if v.cancel != nil {
		v.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	v.cancel = cancel
	v.generation++

	r := &renderer{
		ctx:        ctx,
		props:      v.props,
		log:        v.log.WithFields(map[string]any{"generation": v.generation}),
		resolver:   v.resolver,
		dispatcher: v.dispatcher,
		loads:      &sync.WaitGroup{},
		activate:   v.activateLink,
	}
	v.loads = r.loads
	v.content = r.render(v.md, []byte(v.markdown))
}

// activateLink routes a tapped link to the email or hyperlink handlers.
func (v *View) activateLink(url string) {
	v.mu.Lock()
	onHyperlink, onEmail := v.onHyperlink, v.onEmail
	hyperlinkCmd, emailCmd := v.hyperlinkCmd, v.emailCmd
	v.mu.Unlock()

	if address, ok := EmailAddress(url); ok {
		if onEmail != nil {
			onEmail(address)
		}
		if emailCmd != nil && emailCmd.CanExecute(address) {
			emailCmd.Execute(address)
		}
		return
	}
	if onHyperlink != nil {
		onHyperlink(url)
	}
	if hyperlinkCmd != nil && hyperlinkCmd.CanExecute(url) {
		hyperlinkCmd.Execute(url)
	}
}

// SetOnHyperlink replaces the hyperlink callback.
func (v *View) SetOnHyperlink(fn func(url string)) {
	v.mu.Lock()
	v.onHyperlink = fn
	v.mu.Unlock()
}

// SetOnEmail replaces the email callback.
func (v *View) SetOnEmail(fn func(address string)) {
	v.mu.Lock()
	v.onEmail = fn
	v.mu.Unlock()
}
