package imageres

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

const (
	defaultSVGSize = 256
	maxSVGSize     = 4096
)

// RasterizeSVG renders an SVG document to PNG bytes. Comment nodes are
// stripped before parsing.
func RasterizeSVG(data []byte) ([]byte, error) {
	cleaned, err := stripXMLComments(data)
	if err != nil {
		return nil, fmt.Errorf("svg: %w", err)
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(cleaned), oksvg.WarnErrorMode)
	if err != nil {
		return nil, fmt.Errorf("svg: %w", err)
	}
	w, h := svgSize(icon.ViewBox.W, icon.ViewBox.H)
	icon.SetTarget(0, 0, float64(w), float64(h))
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	icon.Draw(rasterx.NewDasher(w, h, rasterx.NewScannerGV(w, h, rgba, rgba.Bounds())), 1)

	var buf bytes.Buffer
	if err := png.Encode(&buf, rgba); err != nil {
		return nil, fmt.Errorf("svg: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func svgSize(w, h float64) (int, int) {
	if w <= 0 || h <= 0 || math.IsNaN(w) || math.IsNaN(h) {
		return defaultSVGSize, defaultSVGSize
	}
	iw, ih := int(math.Ceil(w)), int(math.Ceil(h))
	if iw > maxSVGSize || ih > maxSVGSize {
		scale := float64(maxSVGSize) / math.Max(w, h)
		iw, ih = int(w*scale), int(h*scale)
	}
	if iw < 1 {
		iw = 1
	}
	if ih < 1 {
		ih = 1
	}
	return iw, ih
}

// stripXMLComments removes comment nodes from data, leaving every other
// byte untouched so namespace prefixes survive.
func stripXMLComments(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	var out bytes.Buffer
	last := int64(0)
	for {
		start := dec.InputOffset()
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if _, ok := tok.(xml.Comment); ok {
			out.Write(data[last:start])
			last = dec.InputOffset()
		}
	}
	out.Write(data[last:])
	return out.Bytes(), nil
}
