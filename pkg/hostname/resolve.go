// Package hostname derives the canonical host used as the limiting key for a tab.
//
// A canonical host is the URL hostname lowercased, converted to its ASCII (punycode)
// form, with a single leading "www." removed. Tabs parked by a tab-suspension extension
// are resolved to the page they stand in for, not to the extension itself.
package hostname

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gobwas/glob"
	"golang.org/x/net/idna"
)

// DefaultSuspendedPagePatterns match the parking page used by The Great Suspender and
// its forks. Patterns are matched against "scheme://host/path" of the outer URL.
var DefaultSuspendedPagePatterns = []string{
	"chrome-extension://*/suspended.html",
}

// targetParam is the wrapper parameter carrying the original URI.
const targetParam = "uri"

// Resolver maps raw tab URLs to canonical hosts.
type Resolver struct {
	suspended []glob.Glob
}

// NewResolver compiles the given suspended-page patterns. An empty list disables
// wrapper unwrapping.
func NewResolver(patterns []string) (*Resolver, error) {
	r := &Resolver{}
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid suspended page pattern '%s': %w", pattern, err)
		}
		r.suspended = append(r.suspended, g)
	}
	return r, nil
}

var defaultResolver = mustResolver(DefaultSuspendedPagePatterns)

func mustResolver(patterns []string) *Resolver {
	r, err := NewResolver(patterns)
	if err != nil {
		panic(err)
	}
	return r
}

// Default returns the resolver configured with DefaultSuspendedPagePatterns.
func Default() *Resolver {
	return defaultResolver
}

// Resolve resolves raw with the default resolver.
func Resolve(raw string) (string, bool) {
	return defaultResolver.Resolve(raw)
}

// Resolve returns the canonical host for raw. The boolean is false for empty or
// unparseable input and for URLs without a hostname (about:blank, file URLs).
func (r *Resolver) Resolve(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}

	target := raw
	if inner, ok := r.SuspendedTarget(raw); ok {
		target = inner
	}

	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" {
		return "", false
	}

	host := Canonical(u.Hostname())
	if host == "" {
		return "", false
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	return host, true
}

// SuspendedTarget reports the original URI encoded in a suspended-tab wrapper URL.
// The fragment parameter wins over the query parameter; empty values count as absent.
func (r *Resolver) SuspendedTarget(raw string) (string, bool) {
	if len(r.suspended) == 0 {
		return "", false
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return "", false
	}

	page := u.Scheme + "://" + u.Host + u.Path
	if !r.isSuspendedPage(page) {
		return "", false
	}

	// ParseQuery keeps every pair it could decode alongside the first error.
	fragment, _ := url.ParseQuery(u.EscapedFragment())
	if v := fragment.Get(targetParam); v != "" {
		return v, true
	}
	query, _ := url.ParseQuery(u.RawQuery)
	if v := query.Get(targetParam); v != "" {
		return v, true
	}
	return "", false
}

func (r *Resolver) isSuspendedPage(page string) bool {
	for _, g := range r.suspended {
		if g.Match(page) {
			return true
		}
	}
	return false
}

// Canonical applies the host normalization policy to a bare hostname: lowercase,
// IDNA ASCII form, one leading "www." removed. Hosts rejected by IDNA (underscores,
// for instance) are kept in their lowercased form.
func Canonical(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return ""
	}
	if ascii, err := idna.Lookup.ToASCII(host); err == nil {
		host = ascii
	}
	return strings.TrimPrefix(host, "www.")
}
