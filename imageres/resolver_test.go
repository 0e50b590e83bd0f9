package imageres

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSVG = `<?xml version="1.0"?>
<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="10" height="20" viewBox="0 0 10 20">
  <!-- a comment that must not reach the rasterizer -->
  <rect x="0" y="0" width="10" height="20" fill="#FF0000"/>
</svg>`

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{0xFF, 0, 0, 0xFF})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newResolver(t *testing.T, opts Options) *Resolver {
	t.Helper()
	r, err := New(opts)
	require.NoError(t, err)
	return r
}

func TestClassifyPrecedence(t *testing.T) {
	t.Parallel()

	cases := map[string]Kind{
		"":                                   KindEmpty,
		"data:image/png;base64,iVBORw0KGgo=": KindDataURI,
		"iVBORw0KGgo=":                       KindBase64,
		"https://example.com/a.png":          KindRemote,
		"http://example.com/a.svg":           KindRemote,
		"file:///tmp/a.png":                  KindFile,
		"images/logo.png":                    KindFile,
		"abc":                                KindFile,
		"C:\\images\\logo.png":               KindFile,
	}
	for ref, want := range cases {
		assert.Equal(t, want, Classify(ref), ref)
	}
}

func TestIsBase64(t *testing.T) {
	t.Parallel()

	assert.True(t, IsBase64("QUJD"))
	assert.True(t, IsBase64("QUI="))
	assert.False(t, IsBase64("QUJ"))
	assert.False(t, IsBase64("QU J"))
	assert.False(t, IsBase64(""))
}

func TestResolveDataURIAndBase64(t *testing.T) {
	t.Parallel()

	data := pngBytes(t, 3, 2)
	enc := base64.StdEncoding.EncodeToString(data)
	r := newResolver(t, Options{})

	res := r.ResolveSync(context.Background(), "data:image/png;base64,"+enc)
	require.NoError(t, res.Err)
	require.Equal(t, SourceBytes, res.Source.Kind)
	require.Equal(t, "image/png", res.Source.MIME)
	img, err := res.Source.Decode()
	require.NoError(t, err)
	require.Equal(t, 3, img.Bounds().Dx())

	res = r.ResolveSync(context.Background(), enc)
	require.NoError(t, res.Err)
	require.Equal(t, data, res.Source.Data)
	require.Zero(t, r.Len())
}

func TestResolveMalformedDataURIFallsBackToPlaceholder(t *testing.T) {
	t.Parallel()

	r := newResolver(t, Options{})
	res := r.ResolveSync(context.Background(), "data:image/png;base64,@@@@")
	require.Error(t, res.Err)
	require.Equal(t, SourcePlaceholder, res.Source.Kind)
	_, err := res.Source.Decode()
	require.NoError(t, err)
}

func TestResolveRemoteIsCachedByURL(t *testing.T) {
	t.Parallel()

	data := pngBytes(t, 4, 4)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	r := newResolver(t, Options{Client: srv.Client()})
	url := srv.URL + "/img.png"

	first := r.ResolveSync(context.Background(), url)
	require.NoError(t, first.Err)
	require.False(t, first.Cached)

	second := r.ResolveSync(context.Background(), url)
	require.NoError(t, second.Err)
	require.True(t, second.Cached)
	require.Same(t, first.Source, second.Source)
	require.EqualValues(t, 1, hits.Load())
}

func TestConcurrentRemoteMissesShareOneFetch(t *testing.T) {
	t.Parallel()

	data := pngBytes(t, 2, 2)
	release := make(chan struct{})
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		<-release
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	r := newResolver(t, Options{Client: srv.Client()})
	url := srv.URL + "/twice.png"
	ctx := context.Background()
	first := r.Resolve(ctx, url)
	second := r.Resolve(ctx, url)

	require.Eventually(t, func() bool { return hits.Load() == 1 }, 5*time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)

	a, b := <-first, <-second
	require.NoError(t, a.Err)
	require.NoError(t, b.Err)
	require.Same(t, a.Source, b.Source)
	require.NotEqual(t, a.Cached, b.Cached, "only one caller fetched")
	require.EqualValues(t, 1, hits.Load())
}

func TestResolveRemoteSVGIsRasterized(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(testSVG))
	}))
	defer srv.Close()

	r := newResolver(t, Options{Client: srv.Client()})
	url := srv.URL + "/y.SVG"
	res := r.ResolveSync(context.Background(), url)
	require.NoError(t, res.Err)
	require.Equal(t, "image/png", res.Source.MIME)

	img, err := res.Source.Decode()
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 10, 20), img.Bounds())

	cached, ok := r.Cached(url)
	require.True(t, ok)
	require.Same(t, res.Source, cached)
}

func TestResolveRemoteFailureUsesPlaceholder(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	r := newResolver(t, Options{Client: srv.Client()})
	res := r.ResolveSync(context.Background(), srv.URL+"/missing.png")
	require.ErrorIs(t, res.Err, ErrStatus)
	require.Equal(t, SourcePlaceholder, res.Source.Kind)
	require.Zero(t, r.Len())

	res = r.ResolveSync(context.Background(), "ftp://example.com/a.png")
	require.ErrorIs(t, res.Err, ErrUnsupported)
	require.Equal(t, SourcePlaceholder, res.Source.Kind)
}

func TestResolveAsyncDeliversOnce(t *testing.T) {
	t.Parallel()

	data := pngBytes(t, 1, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	r := newResolver(t, Options{Client: srv.Client()})
	ch := r.Resolve(context.Background(), srv.URL+"/a.png")
	res, ok := <-ch
	require.True(t, ok)
	require.NoError(t, res.Err)
	_, ok = <-ch
	require.False(t, ok)
}

func TestResolveAsyncCancelledDeliversNothing(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, req *http.Request) {
		close(started)
		<-req.Context().Done()
	}))
	defer srv.Close()

	r := newResolver(t, Options{Client: srv.Client()})
	ctx, cancel := context.WithCancel(context.Background())
	ch := r.Resolve(ctx, srv.URL+"/slow.png")
	<-started
	cancel()
	_, ok := <-ch
	require.False(t, ok)
	require.Zero(t, r.Len())
}

func TestCacheIsBounded(t *testing.T) {
	t.Parallel()

	data := pngBytes(t, 1, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	r := newResolver(t, Options{Client: srv.Client(), CacheSize: 2})
	for _, p := range []string{"/a.png", "/b.png", "/c.png"} {
		require.NoError(t, r.ResolveSync(context.Background(), srv.URL+p).Err)
	}
	require.Equal(t, 2, r.Len())
	_, ok := r.Cached(srv.URL + "/a.png")
	require.False(t, ok)

	r.Purge()
	require.Zero(t, r.Len())
}

func TestResolveLocalFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.png"), pngBytes(t, 2, 2), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.svg"), []byte(testSVG), 0o644))

	r := newResolver(t, Options{BaseDir: dir})

	res := r.ResolveSync(context.Background(), "a.png")
	require.NoError(t, res.Err)
	require.Equal(t, SourceFile, res.Source.Kind)
	require.Equal(t, filepath.Join(dir, "a.png"), res.Source.Path)

	res = r.ResolveSync(context.Background(), "b.svg")
	require.NoError(t, res.Err)
	require.Equal(t, "image/png", res.Source.MIME)

	res = r.ResolveSync(context.Background(), "missing.png")
	require.Error(t, res.Err)
	require.Equal(t, SourcePlaceholder, res.Source.Kind)
}

func TestStripXMLComments(t *testing.T) {
	t.Parallel()

	out, err := stripXMLComments([]byte(testSVG))
	require.NoError(t, err)
	require.NotContains(t, string(out), "<!--")
	require.Contains(t, string(out), `xmlns:xlink="http://www.w3.org/1999/xlink"`)
	require.Contains(t, string(out), `<rect`)
}
