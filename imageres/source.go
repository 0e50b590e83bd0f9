package imageres

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"sync"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// SourceKind says where the pixels of a Source live.
type SourceKind int

const (
	// SourceBytes holds encoded image bytes in memory.
	SourceBytes SourceKind = iota
	// SourceFile points at an encoded image on disk.
	SourceFile
	// SourcePlaceholder is the built-in icon used after a failed resolve.
	SourcePlaceholder
)

// Source is a displayable image handle.
type Source struct {
	Kind SourceKind
	Ref  string
	Path string
	Data []byte
	MIME string
}

// Decode decodes the source into an image.
func (s *Source) Decode() (image.Image, error) {
	if s == nil {
		return nil, ErrEmptyReference
	}
	switch s.Kind {
	case SourceFile:
		f, err := os.Open(s.Path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		img, _, err := image.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", s.Path, err)
		}
		return img, nil
	default:
		img, _, err := image.Decode(bytes.NewReader(s.Data))
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", s.Ref, err)
		}
		return img, nil
	}
}

const placeholderSize = 48

var (
	placeholderOnce sync.Once
	placeholderPNG  []byte
)

// Placeholder returns the built-in broken image icon.
func Placeholder(ref string) *Source {
	placeholderOnce.Do(func() {
		placeholderPNG = drawPlaceholder()
	})
	return &Source{Kind: SourcePlaceholder, Ref: ref, Data: placeholderPNG, MIME: "image/png"}
}

func drawPlaceholder() []byte {
	img := image.NewNRGBA(image.Rect(0, 0, placeholderSize, placeholderSize))
	frame := color.NRGBA{0x9E, 0x9E, 0x9E, 0xFF}
	fill := color.NRGBA{0xEE, 0xEE, 0xEE, 0xFF}
	draw.Draw(img, img.Bounds(), image.NewUniform(frame), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(2, 2, placeholderSize-2, placeholderSize-2), image.NewUniform(fill), image.Point{}, draw.Src)
	// diagonal cross
	for i := 6; i < placeholderSize-6; i++ {
		img.SetNRGBA(i, i, frame)
		img.SetNRGBA(i+1, i, frame)
		img.SetNRGBA(placeholderSize-1-i, i, frame)
		img.SetNRGBA(placeholderSize-2-i, i, frame)
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
