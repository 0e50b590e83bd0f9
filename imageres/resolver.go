// Package imageres resolves Markdown image references (data URIs, bare
// base64, remote URLs, local paths) into displayable sources.
package imageres

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/arran4/mdview/internal/logger"
)

var (
	// ErrEmptyReference is returned for blank image references.
	ErrEmptyReference = errors.New("imageres: empty image reference")
	// ErrUnsupported is returned for absolute URIs that are not http(s).
	ErrUnsupported = errors.New("imageres: unsupported scheme")
	// ErrStatus wraps non-200 responses.
	ErrStatus = errors.New("imageres: unexpected status")
)

const (
	// DefaultCacheSize bounds the remote image cache.
	DefaultCacheSize = 256
	// DefaultMaxBytes caps the size of one remote image.
	DefaultMaxBytes = 32 << 20
)

// Options configure a Resolver. Zero values select defaults.
type Options struct {
	Client    *http.Client
	CacheSize int
	MaxBytes  int64
	BaseDir   string
	Logger    *logger.Logger
}

// Result is delivered once per Resolve call. Source is never nil; on
// failure it is the placeholder and Err carries the cause.
type Result struct {
	Source *Source
	Err    error
	Cached bool
}

// Resolver turns image references into sources and caches remote results
// by their exact URL.
type Resolver struct {
	client   *http.Client
	cache    *lru.Cache[string, *Source]
	inflight singleflight.Group
	maxBytes int64
	baseDir  string
	log      *logger.Logger
}

// New builds a Resolver.
func New(opts Options) (*Resolver, error) {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	size := opts.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, *Source](size)
	if err != nil {
		return nil, fmt.Errorf("imageres: cache: %w", err)
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Resolver{
		client:   client,
		cache:    cache,
		maxBytes: maxBytes,
		baseDir:  strings.TrimSpace(opts.BaseDir),
		log:      log,
	}, nil
}

// Resolve starts resolving ref and returns immediately. The channel yields
// at most one Result and is then closed; nothing is delivered once ctx is
// cancelled.
func (r *Resolver) Resolve(ctx context.Context, ref string) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		res := r.ResolveSync(ctx, ref)
		if ctx.Err() != nil {
			return
		}
		ch <- res
	}()
	return ch
}

// ResolveSync resolves ref on the calling goroutine.
func (r *Resolver) ResolveSync(ctx context.Context, ref string) Result {
	ref = strings.TrimSpace(ref)
	kind := Classify(ref)
	var (
		src    *Source
		err    error
		cached bool
	)
	switch kind {
	case KindEmpty:
		err = ErrEmptyReference
	case KindDataURI:
		src, err = decodeDataURI(ref)
	case KindBase64:
		src, err = decodeBase64(ref, ref)
	case KindRemote:
		src, cached, err = r.remote(ctx, ref)
	case KindFile:
		src, err = r.local(ref)
	}
	if err != nil {
		r.log.WithFields(map[string]any{"ref": truncate(ref, 120), "kind": kind.String()}).
			Warn(err, "image resolve failed, using placeholder")
		return Result{Source: Placeholder(ref), Err: err}
	}
	return Result{Source: src, Cached: cached}
}

// Cached returns the cached source for url.
func (r *Resolver) Cached(url string) (*Source, bool) {
	return r.cache.Peek(url)
}

// Len returns the number of cached remote images.
func (r *Resolver) Len() int { return r.cache.Len() }

// Purge empties the cache.
func (r *Resolver) Purge() { r.cache.Purge() }

func decodeDataURI(ref string) (*Source, error) {
	mediaType, payload := splitDataURI(ref)
	src, err := decodeBase64(ref, payload)
	if err != nil {
		return nil, err
	}
	if mediaType == "image/svg+xml" {
		png, err := RasterizeSVG(src.Data)
		if err != nil {
			return nil, err
		}
		src.Data = png
		mediaType = "image/png"
	}
	if mediaType != "" {
		src.MIME = mediaType
	}
	return src, nil
}

func decodeBase64(ref, payload string) (*Source, error) {
	payload = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, payload)
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("imageres: base64: %w", err)
	}
	return &Source{Kind: SourceBytes, Ref: ref, Data: data, MIME: mimetype.Detect(data).String()}, nil
}

func (r *Resolver) remote(ctx context.Context, ref string) (*Source, bool, error) {
	if src, ok := r.cache.Get(ref); ok {
		return src, true, nil
	}
	if u, err := url.Parse(ref); err == nil && !strings.EqualFold(u.Scheme, "http") && !strings.EqualFold(u.Scheme, "https") {
		return nil, false, fmt.Errorf("%w: %s", ErrUnsupported, u.Scheme)
	}
	// concurrent misses for one URL share a single fetch
	led := false
	v, err, _ := r.inflight.Do(ref, func() (any, error) {
		led = true
		if src, ok := r.cache.Get(ref); ok {
			return src, nil
		}
		return r.fetch(ctx, ref)
	})
	if err != nil {
		if !led && ctx.Err() == nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			// the caller that led the fetch went away; try again on our own context
			return r.remote(ctx, ref)
		}
		return nil, false, err
	}
	return v.(*Source), !led, nil
}

func (r *Resolver) fetch(ctx context.Context, ref string) (*Source, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("imageres: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("imageres: fetching %s: %w", ref, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fetching %s: %s", ErrStatus, ref, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("imageres: reading %s: %w", ref, err)
	}
	src := &Source{Kind: SourceBytes, Ref: ref, Data: data, MIME: mimetype.Detect(data).String()}
	if isSVG(ref, data) {
		png, err := RasterizeSVG(data)
		if err != nil {
			return nil, err
		}
		src.Data = png
		src.MIME = "image/png"
	}
	r.cache.Add(ref, src)
	return src, nil
}

func (r *Resolver) local(ref string) (*Source, error) {
	path := ref
	if u, err := url.Parse(ref); err == nil && strings.EqualFold(u.Scheme, "file") {
		path = u.Path
	}
	if !filepath.IsAbs(path) && r.baseDir != "" {
		path = filepath.Join(r.baseDir, path)
	}
	path = filepath.Clean(path)
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("imageres: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("imageres: %s is a directory", path)
	}
	if strings.EqualFold(filepath.Ext(path), ".svg") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("imageres: %w", err)
		}
		png, err := RasterizeSVG(data)
		if err != nil {
			return nil, err
		}
		return &Source{Kind: SourceBytes, Ref: ref, Path: path, Data: png, MIME: "image/png"}, nil
	}
	return &Source{Kind: SourceFile, Ref: ref, Path: path}, nil
}

// isSVG checks the URL path suffix first and falls back to sniffing.
func isSVG(ref string, data []byte) bool {
	if u, err := url.Parse(ref); err == nil && strings.HasSuffix(strings.ToLower(u.Path), ".svg") {
		return true
	}
	return mimetype.Detect(data).Is("image/svg+xml")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
