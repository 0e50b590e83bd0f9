package main

import (
	"context"
	"fmt"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/arran4/mdview"
	"github.com/arran4/mdview/raster"
	"github.com/arran4/mdview/theme"
)

// viewFlags are shared by every command that builds a View.
type viewFlags struct {
	in        string
	themeName string
	themeFile string
	dark      bool
	baseDir   string
	timeout   time.Duration
}

func (f *viewFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.in, "in", "", "Input Markdown file (default: stdin)")
	cmd.Flags().StringVar(&f.themeName, "theme", "light", "Built-in theme preset")
	cmd.Flags().StringVar(&f.themeFile, "theme-file", "", "YAML theme file, overrides --theme")
	cmd.Flags().BoolVar(&f.dark, "dark", false, "Use the theme's dark palette")
	cmd.Flags().StringVar(&f.baseDir, "base-dir", "", "Directory relative image paths resolve against (default: the input's directory)")
	cmd.Flags().DurationVar(&f.timeout, "image-timeout", 30*time.Second, "How long to wait for images to load")
}

func (f *viewFlags) loadTheme() (*theme.Theme, error) {
	if f.themeFile != "" {
		return theme.LoadFile(f.themeFile)
	}
	return theme.ByName(f.themeName)
}

func (f *viewFlags) read(stdin io.Reader) (string, error) {
	if f.in == "" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(f.in)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// load builds a View over the input and waits for its images.
func (f *viewFlags) load(cmd *cobra.Command, root *rootFlags) (*mdview.View, error) {
	th, err := f.loadTheme()
	if err != nil {
		return nil, err
	}
	text, err := f.read(cmd.InOrStdin())
	if err != nil {
		return nil, err
	}
	base := f.baseDir
	if base == "" && f.in != "" {
		base = filepath.Dir(f.in)
	}
	appearance := theme.AppearanceLight
	if f.dark {
		appearance = theme.AppearanceDark
	}

	v := mdview.New(
		mdview.WithLogger(root.log),
		mdview.WithBaseDir(base),
		mdview.WithTheme(th),
		mdview.WithSystemTheme(theme.NewSystemAppearance(appearance)),
	)
	v.SetMarkdown(text)

	ctx, cancel := context.WithTimeout(cmd.Context(), f.timeout)
	defer cancel()
	if err := v.WaitImages(ctx); err != nil {
		root.log.Warn(err, "images still loading, rendering placeholders")
	}
	return v, nil
}

type renderFlags struct {
	viewFlags
	out        string
	width      int
	margin     int
	pt         float64
	fontPath   string
	fontBold   string
	fontItalic string
	fontMono   string
}

func newRenderCmd(root *rootFlags) *cobra.Command {
	flags := &renderFlags{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render Markdown to a PNG or JPEG image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, root, flags)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&flags.out, "out", "out.png", "Output image file (.png or .jpg)")
	cmd.Flags().IntVar(&flags.width, "width", 1024, "Output image width in pixels")
	cmd.Flags().IntVar(&flags.margin, "margin", 48, "Margin in pixels")
	cmd.Flags().Float64Var(&flags.pt, "pt", 16, "Size in points the font faces are built at")
	cmd.Flags().StringVar(&flags.fontPath, "font", "", "TTF for regular text (default: Go Regular)")
	cmd.Flags().StringVar(&flags.fontBold, "font-bold", "", "TTF for bold text (default: Go Bold)")
	cmd.Flags().StringVar(&flags.fontItalic, "font-italic", "", "TTF for italic text (default: Go Italic)")
	cmd.Flags().StringVar(&flags.fontMono, "font-mono", "", "TTF for code (default: Go Mono)")

	return cmd
}

func runRender(cmd *cobra.Command, root *rootFlags, flags *renderFlags) error {
	ext := strings.ToLower(filepath.Ext(flags.out))
	if ext != ".png" && ext != ".jpg" && ext != ".jpeg" {
		return fmt.Errorf("unsupported output extension: %q", ext)
	}

	fonts, err := raster.LoadFonts(raster.FontConfig{
		RegularPath: flags.fontPath,
		BoldPath:    flags.fontBold,
		ItalicPath:  flags.fontItalic,
		MonoPath:    flags.fontMono,
		Size:        flags.pt,
	})
	if err != nil {
		return err
	}

	v, err := flags.load(cmd, root)
	if err != nil {
		return err
	}
	defer v.Close()

	img, err := raster.Render(v.Content(), raster.Options{
		Width:  flags.width,
		Margin: flags.margin,
		Fonts:  fonts,
		Logger: root.log,
	})
	if err != nil {
		return err
	}

	file, err := os.Create(flags.out)
	if err != nil {
		return err
	}
	defer file.Close()

	switch ext {
	case ".png":
		err = png.Encode(file, img)
	default:
		err = jpeg.Encode(file, img, &jpeg.Options{Quality: 92})
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", flags.out, err)
	}
	root.log.WithFields(map[string]any{"out": flags.out, "height": img.Bounds().Dy()}).Info("rendered")
	return nil
}
