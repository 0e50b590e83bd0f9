package imageres

import (
	"net/url"
	"regexp"
	"strings"
)

// Kind is the classification of an image reference.
type Kind int

const (
	KindEmpty Kind = iota
	// KindDataURI is a data: URI carrying a ;base64, payload.
	KindDataURI
	// KindBase64 is a bare base64 payload without a scheme.
	KindBase64
	// KindRemote is an absolute URI fetched over the network.
	KindRemote
	// KindFile is a local file path or file: URI.
	KindFile
)

func (k Kind) String() string {
	switch k {
	case KindDataURI:
		return "data-uri"
	case KindBase64:
		return "base64"
	case KindRemote:
		return "remote"
	case KindFile:
		return "file"
	}
	return "empty"
}

const base64Marker = ";base64,"

var base64Pattern = regexp.MustCompile(`^[a-zA-Z0-9+/]*={0,3}$`)

// IsBase64 reports whether s looks like a bare base64 payload: non-empty,
// a multiple of four long and drawn from the base64 alphabet.
func IsBase64(s string) bool {
	if s == "" || len(s)%4 != 0 {
		return false
	}
	return base64Pattern.MatchString(s)
}

// Classify decides how ref is resolved. Data URIs win over bare base64,
// which wins over absolute URIs; anything else is a local path.
func Classify(ref string) Kind {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return KindEmpty
	case strings.HasPrefix(strings.ToLower(ref), "data:") && strings.Contains(ref, base64Marker):
		return KindDataURI
	case IsBase64(ref):
		return KindBase64
	}
	if u, err := url.Parse(ref); err == nil && u.IsAbs() && len(u.Scheme) > 1 {
		if strings.EqualFold(u.Scheme, "file") {
			return KindFile
		}
		return KindRemote
	}
	return KindFile
}

// splitDataURI returns the media type and base64 payload of a data URI.
func splitDataURI(ref string) (mediaType, payload string) {
	idx := strings.Index(ref, base64Marker)
	if idx < 0 {
		return "", ""
	}
	header := ref[len("data:"):idx]
	if semi := strings.IndexByte(header, ';'); semi >= 0 {
		header = header[:semi]
	}
	return strings.ToLower(strings.TrimSpace(header)), ref[idx+len(base64Marker):]
}
