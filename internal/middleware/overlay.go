package middleware

import (
	"context"
	"maps"
	"net/http"
	"slices"
)

// HeaderOverlay is a read-only view of a request header with a set of
// single-valued overrides layered on top. The base header is never
// written; With returns a new overlay.
type HeaderOverlay struct {
	base      http.Header
	overrides map[string]string
}

// NewHeaderOverlay returns an overlay with no overrides over base.
func NewHeaderOverlay(base http.Header) HeaderOverlay {
	return HeaderOverlay{base: base}
}

// With returns a copy of the overlay where key resolves to value.
func (o HeaderOverlay) With(key, value string) HeaderOverlay {
	overrides := make(map[string]string, len(o.overrides)+1)
	maps.Copy(overrides, o.overrides)
	overrides[http.CanonicalHeaderKey(key)] = value
	return HeaderOverlay{base: o.base, overrides: overrides}
}

// Get returns the first value for key, preferring overrides.
func (o HeaderOverlay) Get(key string) string {
	if v, ok := o.overrides[http.CanonicalHeaderKey(key)]; ok {
		return v
	}
	return o.base.Get(key)
}

// Values returns all values for key. An override replaces every base
// value.
func (o HeaderOverlay) Values(key string) []string {
	if v, ok := o.overrides[http.CanonicalHeaderKey(key)]; ok {
		return []string{v}
	}
	return o.base.Values(key)
}

// Keys returns the sorted union of base and override header names.
func (o HeaderOverlay) Keys() []string {
	keys := make(map[string]struct{}, len(o.base)+len(o.overrides))
	for k := range o.base {
		keys[k] = struct{}{}
	}
	for k := range o.overrides {
		keys[k] = struct{}{}
	}
	return slices.Sorted(maps.Keys(keys))
}

// Header materialises the merged view as an independent copy. Writes
// to it, in place or by append, never reach the base header.
func (o HeaderOverlay) Header() http.Header {
	h := make(http.Header, len(o.base)+len(o.overrides))
	for k, v := range o.base {
		h[k] = slices.Clone(v)
	}
	for k, v := range o.overrides {
		h[k] = []string{v}
	}
	return h
}

// Request returns a shallow copy of r carrying ctx and the merged
// header. r itself is left untouched.
func (o HeaderOverlay) Request(ctx context.Context, r *http.Request) *http.Request {
	decorated := r.WithContext(ctx)
	decorated.Header = o.Header()
	return decorated
}
