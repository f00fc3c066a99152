// Package suggest defines the options an autocomplete widget shows and the fetchers
// that produce them.
//
// A Fetcher turns a query into an ordered list of Options. Fetchers are decoupled
// from ranking and caching: the widget calls whichever fetcher it is given, caches
// the result per session, and never looks inside. This package ships fetchers for
// the interest catalog, for static string lists, and for a remote geocoding API.
package suggest

import (
	"context"
	"maps"
)

// Option is a single selectable suggestion. IDs are unique within one result set.
type Option struct {
	ID   string            `json:"id" msgpack:"id"`
	Name string            `json:"name" msgpack:"name"`
	Meta map[string]string `json:"meta,omitempty" msgpack:"meta,omitempty"`
}

// Subtitle returns the "subtitle" annotation, if any.
func (o Option) Subtitle() string {
	return o.Meta["subtitle"]
}

// Clone returns a copy that shares no map with o.
func (o Option) Clone() Option {
	o.Meta = maps.Clone(o.Meta)
	return o
}

// CloneAll copies a result set.
func CloneAll(opts []Option) []Option {
	if opts == nil {
		return nil
	}
	out := make([]Option, len(opts))
	for i, o := range opts {
		out[i] = o.Clone()
	}
	return out
}

// Fetcher produces candidate options for a query.
type Fetcher interface {
	Fetch(ctx context.Context, query string) ([]Option, error)
}

// FetcherFunc adapts a plain function to Fetcher.
type FetcherFunc func(ctx context.Context, query string) ([]Option, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, query string) ([]Option, error) {
	return f(ctx, query)
}
