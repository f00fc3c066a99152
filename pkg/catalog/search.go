package catalog

import (
	"cmp"
	"slices"
	"strings"

	"github.com/bastiangx/cvsuggest/pkg/fuzzy"
)

const (
	// SearchThreshold is the fuzzy score an item must exceed to appear in SearchInterests.
	SearchThreshold = 0.3
	// DefaultSearchLimit applies when SearchInterests is called with limit <= 0.
	DefaultSearchLimit = 50
)

type scored struct {
	item  InterestItem
	score float64
}

// FilterInterests selects items matching f and orders them.
//
// Items are restricted to f.Category, then dropped when below f.MinRelevance or
// when they carry none of f.Tags. With a query the survivors are ordered by
// 0.5*relevance + 0.5*fuzzy score; without one, by relevance alone. Sorting is
// stable, so ties keep catalog order.
func FilterInterests(c *Catalog, f Filter) []InterestItem {
	var candidates []InterestItem
	if f.Category != nil {
		candidates = c.Category(*f.Category)
	} else {
		candidates = c.Items()
	}

	tags := make([]string, 0, len(f.Tags))
	for _, t := range f.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}

	query := strings.TrimSpace(f.Query)
	kept := make([]scored, 0, len(candidates))
	for _, it := range candidates {
		if f.MinRelevance != nil && it.Relevance < *f.MinRelevance {
			continue
		}
		if len(tags) > 0 && !slices.ContainsFunc(tags, it.HasTag) {
			continue
		}
		s := it.Relevance
		if query != "" {
			s = 0.5*it.Relevance + 0.5*fuzzy.Score(query, it.Name)
		}
		kept = append(kept, scored{item: it, score: s})
	}

	return sortScored(kept, 0)
}

// SearchInterests ranks every item by fuzzy score alone, keeping only scores
// above SearchThreshold. At most limit items are returned (DefaultSearchLimit
// when limit <= 0).
func SearchInterests(c *Catalog, query string, limit int) []InterestItem {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if strings.TrimSpace(query) == "" {
		return []InterestItem{}
	}

	var kept []scored
	for _, it := range c.Items() {
		if s := fuzzy.Score(query, it.Name); s > SearchThreshold {
			kept = append(kept, scored{item: it, score: s})
		}
	}
	return sortScored(kept, limit)
}

// sortScored orders by descending score, stable, truncating when limit > 0.
func sortScored(list []scored, limit int) []InterestItem {
	slices.SortStableFunc(list, func(a, b scored) int {
		return cmp.Compare(b.score, a.score)
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	out := make([]InterestItem, len(list))
	for i, s := range list {
		out[i] = s.item
	}
	return out
}
