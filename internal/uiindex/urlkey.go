package uiindex

import (
	"net/url"
	"strings"
)

// DefaultQueryParams are the query parameters that distinguish logical pages.
var DefaultQueryParams = []string{"lang", "page"}

// NormalizeURLKey canonicalizes raw into a cache key. raw is resolved against
// base (usually the document URL), the fragment and user info are dropped,
// scheme and host are lowercased and only the params query parameters are
// kept, sorted by name. DefaultQueryParams is used when params is empty.
// Normalizing a key again returns the same key. Input that does not parse is
// returned trimmed.
func NormalizeURLKey(raw, base string, params ...string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = strings.TrimSpace(base)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if base = strings.TrimSpace(base); base != "" {
		if b, err := url.Parse(base); err == nil {
			u = b.ResolveReference(u)
		}
	}

	u.Fragment = ""
	u.RawFragment = ""
	u.User = nil
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Host != "" && u.Path == "" && u.Opaque == "" {
		u.Path = "/"
		u.RawPath = ""
	}

	if len(params) == 0 {
		params = DefaultQueryParams
	}
	query := u.Query()
	kept := url.Values{}
	for _, p := range params {
		if vs, ok := query[p]; ok {
			kept[p] = vs
		}
	}
	u.RawQuery = kept.Encode()
	u.ForceQuery = false

	return u.String()
}
