package suggest

import (
	"context"
	"strconv"
	"strings"

	"github.com/sahilm/fuzzy"
)

// ListFetcher ranks a fixed list of strings with subsequence matching.
// Useful for small local lists such as a fallback set of locations.
type ListFetcher struct {
	entries []string
	prefix  string
	limit   int
}

// listSource implements fuzzy.Source over the lowercased entries.
type listSource []string

func (s listSource) String(i int) string { return s[i] }
func (s listSource) Len() int            { return len(s) }

// NewListFetcher creates a fetcher over entries. Option IDs are idPrefix plus the
// entry's position; limit <= 0 means no cap.
func NewListFetcher(idPrefix string, entries []string, limit int) *ListFetcher {
	return &ListFetcher{entries: entries, prefix: idPrefix, limit: limit}
}

// Fetch returns entries matching query, best match first.
func (f *ListFetcher) Fetch(ctx context.Context, query string) ([]Option, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return []Option{}, nil
	}

	lowered := make(listSource, len(f.entries))
	for i, e := range f.entries {
		lowered[i] = strings.ToLower(e)
	}

	matches := fuzzy.FindFrom(query, lowered)
	if f.limit > 0 && len(matches) > f.limit {
		matches = matches[:f.limit]
	}

	opts := make([]Option, len(matches))
	for i, m := range matches {
		opts[i] = Option{
			ID:   f.prefix + strconv.Itoa(m.Index),
			Name: f.entries[m.Index],
		}
	}
	return opts, nil
}
