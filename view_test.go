package mdview

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arran4/mdview/internal/logger"
	"github.com/arran4/mdview/style"
	"github.com/arran4/mdview/theme"
	"github.com/arran4/mdview/widget"
)

func TestNewRendersOnce(t *testing.T) {
	t.Parallel()

	v := New()
	defer v.Close()
	assert.EqualValues(t, 1, v.Generation())
	assert.Empty(t, widget.Texts(v.Content()))
	assert.Equal(t, style.Defaults(), v.Properties())

	v.SetMarkdown("hello")
	assert.EqualValues(t, 2, v.Generation())
	assert.Equal(t, "hello", v.Markdown())
}

func TestUpdateRendersOnceForManyChanges(t *testing.T) {
	t.Parallel()

	v := newView(t, "body")
	before := v.Generation()
	v.Update(func(p *style.Properties) {
		p.TextColor = style.Hex(0x123456)
		p.TextFontSize = 20
		p.TextFontFamily = "Serif"
	})
	assert.Equal(t, before+1, v.Generation())

	l := topBlocks(t, v)[0].(*widget.Label)
	assert.Equal(t, style.Hex(0x123456), l.Color)
	assert.Equal(t, 20.0, l.FontSize)
	assert.Equal(t, "Serif", l.FontFamily)
}

func TestThemeApplication(t *testing.T) {
	t.Parallel()

	dark, err := theme.ByName("dark")
	require.NoError(t, err)
	v := newView(t, "# Head", WithTheme(dark))

	want := theme.Resolve(style.Defaults(), dark, theme.AppearanceLight)
	assert.Equal(t, want, v.Properties())
	assert.Equal(t, theme.DarkPalette().Background, v.Properties().BackgroundColor)
	assert.Equal(t, 1, dark.Subscribers())

	root := v.Content().(*widget.Stack)
	assert.Equal(t, want.BackgroundColor, root.Background)

	v.SetTheme(dark)
	assert.Equal(t, want, v.Properties(), "applying the same theme twice is stable")
	assert.Equal(t, 1, dark.Subscribers())
}

func TestThemeMutationRerendersOnce(t *testing.T) {
	t.Parallel()

	th := theme.New("custom")
	v := newView(t, "[link](https://example.com)", WithTheme(th))
	before := v.Generation()

	require.True(t, th.SetColor(theme.AppearanceLight, "hyperlink", style.Hex(0xABCDEF)))
	assert.Equal(t, before+1, v.Generation())
	assert.Equal(t, style.Hex(0xABCDEF), v.Properties().HyperlinkColor)

	span := topBlocks(t, v)[0].(*widget.Label).Spans[0]
	assert.Equal(t, style.Hex(0xABCDEF), span.Color)
}

func TestSwappingThemeUnsubscribesOld(t *testing.T) {
	t.Parallel()

	first := theme.New("first")
	second, err := theme.ByName("sepia")
	require.NoError(t, err)

	v := newView(t, "x", WithTheme(first))
	v.SetTheme(second)
	assert.Equal(t, 0, first.Subscribers())
	assert.Equal(t, 1, second.Subscribers())
	assert.Same(t, second, v.Theme())

	gen := v.Generation()
	first.SetColor(theme.AppearanceLight, "text_primary", style.Hex(0x010203))
	assert.Equal(t, gen, v.Generation(), "old theme no longer drives the view")

	v.SetTheme(nil)
	assert.Equal(t, 0, second.Subscribers())
	assert.Nil(t, v.Theme())
}

func TestFollowSystemTheme(t *testing.T) {
	t.Parallel()

	th := theme.New("auto")
	sys := theme.NewSystemAppearance(theme.AppearanceLight)
	v := newView(t, "x", WithTheme(th), WithSystemTheme(sys))
	assert.True(t, v.FollowsSystemTheme())
	assert.Equal(t, theme.LightPalette().Background, v.Properties().BackgroundColor)

	sys.Set(theme.AppearanceDark)
	assert.Equal(t, theme.DarkPalette().Background, v.Properties().BackgroundColor)

	v.SetFollowSystemTheme(false)
	assert.Equal(t, theme.LightPalette().Background, v.Properties().BackgroundColor)

	gen := v.Generation()
	sys.Set(theme.AppearanceLight)
	sys.Set(theme.AppearanceDark)
	assert.Equal(t, gen, v.Generation())

	v.SetFollowSystemTheme(true)
	assert.Equal(t, theme.DarkPalette().Background, v.Properties().BackgroundColor)
}

func TestQueuedThemeChangesWaitForDrain(t *testing.T) {
	t.Parallel()

	th := theme.New("queued")
	q := widget.NewQueue()
	v := newView(t, "x", WithTheme(th), WithDispatcher(q))
	gen := v.Generation()

	th.SetColor(theme.AppearanceLight, "background", style.Hex(0x222222))
	assert.Equal(t, gen, v.Generation())
	assert.Equal(t, 1, q.Len())

	assert.Equal(t, 1, q.Drain())
	assert.Equal(t, gen+1, v.Generation())
	assert.Equal(t, style.Hex(0x222222), v.Properties().BackgroundColor)
}

func TestCloseTearsDownSubscriptions(t *testing.T) {
	t.Parallel()

	th := theme.New("closing")
	sys := theme.NewSystemAppearance(theme.AppearanceLight)
	v := New(WithTheme(th), WithSystemTheme(sys))
	v.SetMarkdown("x")
	v.Close()
	v.Close()

	assert.Equal(t, 0, th.Subscribers())
	gen := v.Generation()
	sys.Set(theme.AppearanceDark)
	th.SetColor(theme.AppearanceLight, "divider", style.Hex(0x000001))
	v.SetMarkdown("ignored")
	assert.Equal(t, gen, v.Generation())
	assert.Equal(t, "x", v.Markdown())
}

func TestBlockFailuresAreLogged(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log, err := logger.New(logger.Options{Level: "debug", Writer: &buf})
	require.NoError(t, err)

	v := newView(t, "$$\n\\frac{a\n$$\n", WithLogger(log))
	mv := topBlocks(t, v)[0].(*widget.MathView)
	require.Error(t, mv.Err)
	assert.Contains(t, buf.String(), "math block has errors")
	assert.Contains(t, buf.String(), `"generation":2`)
}

func TestCommandCanExecuteGuards(t *testing.T) {
	t.Parallel()

	ran := false
	v := newView(t, "[a](https://a.example)", WithHyperlinkCommand(guarded{run: &ran}))
	p := topBlocks(t, v)[0].(*widget.Label)
	require.True(t, p.Tap(0))
	assert.False(t, ran)
}

type guarded struct{ run *bool }

func (guarded) CanExecute(string) bool { return false }

func (g guarded) Execute(string) { *g.run = true }
