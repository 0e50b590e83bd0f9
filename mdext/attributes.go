package mdext

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Image attribute names understood by the renderer.
const (
	AttrWidth      = "width"
	AttrHeight     = "height"
	AttrAspect     = "aspect"
	AttrHorizontal = "horizontal"
	AttrVertical   = "vertical"
)

type attribute struct {
	name, value string
}

// parseAttributeBlock reads a leading "{key=value key2="quoted value"}"
// from b. It returns the attributes and the number of bytes consumed.
func parseAttributeBlock(b []byte) ([]attribute, int, bool) {
	if len(b) == 0 || b[0] != '{' {
		return nil, 0, false
	}
	end := bytes.IndexByte(b, '}')
	if end < 0 {
		return nil, 0, false
	}
	body := b[1:end]
	var attrs []attribute
	for len(body) > 0 {
		body = bytes.TrimLeft(body, " \t")
		if len(body) == 0 {
			break
		}
		eq := bytes.IndexByte(body, '=')
		sp := bytes.IndexAny(body, " \t")
		if eq < 0 || (sp >= 0 && sp < eq) {
			// bare word, .class or #id; skip it
			if sp < 0 {
				break
			}
			body = body[sp:]
			continue
		}
		name := strings.ToLower(string(bytes.TrimSpace(body[:eq])))
		body = body[eq+1:]
		var value string
		if len(body) > 0 && (body[0] == '"' || body[0] == '\'') {
			q := body[0]
			closeAt := bytes.IndexByte(body[1:], q)
			if closeAt < 0 {
				return nil, 0, false
			}
			value = string(body[1 : closeAt+1])
			body = body[closeAt+2:]
		} else {
			stop := bytes.IndexAny(body, " \t")
			if stop < 0 {
				stop = len(body)
			}
			value = string(body[:stop])
			body = body[stop:]
		}
		if name != "" {
			attrs = append(attrs, attribute{name: name, value: value})
		}
	}
	return attrs, end + 1, true
}

type imageAttributeTransformer struct{}

func (imageAttributeTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()
	var images []*ast.Image
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if img, ok := n.(*ast.Image); ok && entering {
			images = append(images, img)
		}
		return ast.WalkContinue, nil
	})
	for _, img := range images {
		applyImageAttributes(img, source)
	}
}

func applyImageAttributes(img *ast.Image, source []byte) {
	t, ok := img.NextSibling().(*ast.Text)
	if !ok {
		return
	}
	// Adjacent text runs may have been split by inline triggers.
	for !bytes.ContainsRune(t.Segment.Value(source), '}') && !t.SoftLineBreak() && !t.HardLineBreak() {
		next, ok := t.NextSibling().(*ast.Text)
		if !ok || next.Segment.Start != t.Segment.Stop {
			break
		}
		t.Segment = t.Segment.WithStop(next.Segment.Stop)
		t.SetSoftLineBreak(next.SoftLineBreak())
		t.SetHardLineBreak(next.HardLineBreak())
		t.Parent().RemoveChild(t.Parent(), next)
	}

	value := t.Segment.Value(source)
	attrs, consumed, ok := parseAttributeBlock(value)
	if !ok {
		return
	}
	for _, a := range attrs {
		img.SetAttributeString(a.name, []byte(a.value))
	}
	if consumed == len(value) && !t.SoftLineBreak() && !t.HardLineBreak() {
		t.Parent().RemoveChild(t.Parent(), t)
		return
	}
	t.Segment = t.Segment.WithStart(t.Segment.Start + consumed)
}

// ImageAttribute returns the string value of an attribute set by the
// ImageAttributes extension.
func ImageAttribute(img *ast.Image, name string) (string, bool) {
	v, ok := img.AttributeString(name)
	if !ok {
		return "", false
	}
	switch v := v.(type) {
	case []byte:
		return string(v), true
	case string:
		return v, true
	}
	return "", false
}

type imageAttributes struct{}

// ImageAttributes reads "{width=120 aspect=fill}" directly after an image.
var ImageAttributes goldmark.Extender = imageAttributes{}

func (imageAttributes) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(imageAttributeTransformer{}, 110),
	))
}
