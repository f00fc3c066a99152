package suggest

import (
	"context"
	"strings"

	"github.com/bastiangx/cvsuggest/pkg/catalog"
	"github.com/bastiangx/cvsuggest/pkg/fuzzy"
)

// CatalogFetcher serves options from an interest catalog using catalog.SearchInterests.
type CatalogFetcher struct {
	Catalog *catalog.Catalog
	// Category restricts results to one category when non-empty.
	Category catalog.CategoryID
	// Limit caps results; <= 0 uses catalog.DefaultSearchLimit.
	Limit int
}

// NewCatalogFetcher creates a fetcher over every category of c.
func NewCatalogFetcher(c *catalog.Catalog, limit int) *CatalogFetcher {
	return &CatalogFetcher{Catalog: c, Limit: limit}
}

// Fetch ranks catalog items against query.
func (f *CatalogFetcher) Fetch(ctx context.Context, query string) ([]Option, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var items []catalog.InterestItem
	if f.Category != "" {
		cat := f.Category
		items = catalog.FilterInterests(f.Catalog, catalog.Filter{Category: &cat, Query: query})
		items = dropWeak(query, items, f.Limit)
	} else {
		items = catalog.SearchInterests(f.Catalog, query, f.Limit)
	}

	opts := make([]Option, 0, len(items))
	for _, it := range items {
		opts = append(opts, FromItem(it))
	}
	return opts, nil
}

// FromItem maps a catalog item to an Option.
func FromItem(it catalog.InterestItem) Option {
	meta := map[string]string{
		"category": string(it.Category),
		"subtitle": it.Category.DisplayName(),
	}
	if it.Subcategory != "" {
		meta["subtitle"] = it.Subcategory
	}
	if len(it.Tags) > 0 {
		meta["tags"] = strings.Join(it.Tags, ",")
	}
	return Option{ID: it.ID, Name: it.Name, Meta: meta}
}

// dropWeak keeps, in order, items whose name clears the search threshold.
func dropWeak(query string, items []catalog.InterestItem, limit int) []catalog.InterestItem {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	if limit <= 0 {
		limit = catalog.DefaultSearchLimit
	}
	out := items[:0]
	for _, it := range items {
		if len(out) == limit {
			break
		}
		if fuzzy.Score(query, it.Name) > catalog.SearchThreshold {
			out = append(out, it)
		}
	}
	return out
}
