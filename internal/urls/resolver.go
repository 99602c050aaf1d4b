// Package urls converts storage-relative resource paths into absolute,
// client-consumable URLs.
package urls

import (
	"net/http"
	"strings"
)

// Request carries the scheme and host of the inbound request, used as a
// fallback when no public base URL is configured.
type Request struct {
	Scheme string
	Host   string
}

// FromHTTP extracts the resolver fallback context from an inbound request.
// Honors X-Forwarded-Proto so the service works behind a TLS-terminating
// proxy.
func FromHTTP(r *http.Request) Request {
	if r == nil {
		return Request{}
	}

	scheme := "http"
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	} else if r.TLS != nil {
		scheme = "https"
	}

	return Request{Scheme: scheme, Host: r.Host}
}

// Resolver rewrites relative URLs against a configured public base address.
// The base is process-wide and immutable after startup.
type Resolver struct {
	base string
}

// NewResolver creates a resolver. A single trailing slash on base is
// stripped so joining never produces a double slash.
func NewResolver(base string) *Resolver {
	return &Resolver{base: strings.TrimSuffix(base, "/")}
}

// Resolve converts path into an absolute URL.
//
// Empty input stays empty, already-absolute input is returned unchanged,
// and relative paths are joined to the configured base. Without a base the
// URL is derived from the inbound request so the API stays usable without
// explicit configuration.
func (r *Resolver) Resolve(path string, req Request) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	if r.base != "" {
		return r.base + path
	}

	if req.Host == "" {
		return path
	}

	scheme := req.Scheme
	if scheme == "" {
		scheme = "http"
	}
	return scheme + "://" + req.Host + path
}
