// Package catalog holds the interest and skill catalog a CV draws from.
//
// A Catalog is built once from static seed data (see Load) and afterwards only grows
// through AddCustomInterest, which appends to the "custom" category. All query
// functions take the catalog explicitly and return fresh slices, so callers can keep
// and reorder results without touching catalog state.
package catalog

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/bastiangx/cvsuggest/internal/utils"
	"github.com/bastiangx/cvsuggest/pkg/fuzzy"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/tchap/go-patricia/v2/patricia"
)

// DefaultCustomRelevance is the static weight given to user-added interests.
const DefaultCustomRelevance = 0.5

// itemRef locates an item inside the category slices.
// Items are never removed or reordered, so refs stay valid.
type itemRef struct {
	cat int
	idx int
}

// Catalog is an ordered set of categories, one per CategoryID.
// It is safe for concurrent use.
type Catalog struct {
	mu         sync.RWMutex
	categories []InterestCategory
	index      *patricia.Trie
	revision   uint64
}

// New builds a catalog from items, placing each into its category in the given order.
// Items with an invalid category are rejected.
func New(items []InterestItem) (*Catalog, error) {
	c := &Catalog{
		categories: make([]InterestCategory, len(CategoryIDs)),
		index:      patricia.NewTrie(),
	}
	for i, id := range CategoryIDs {
		c.categories[i] = InterestCategory{ID: id, Name: id.DisplayName()}
	}

	for _, it := range items {
		pos := slices.Index(CategoryIDs, it.Category)
		if pos < 0 {
			return nil, fmt.Errorf("item %q: %w: %q", it.Name, ErrUnknownCategory, it.Category)
		}
		c.insertLocked(pos, it.clone())
	}
	return c, nil
}

func (c *Catalog) insertLocked(cat int, it InterestItem) {
	items := &c.categories[cat].Items
	*items = append(*items, it)
	key := patricia.Prefix(fuzzy.Normalize(it.Name))
	// first writer wins so lookups resolve to the earliest item with that name
	if c.index.Get(key) == nil {
		c.index.Insert(key, itemRef{cat: cat, idx: len(*items) - 1})
	}
}

func (c *Catalog) at(ref itemRef) InterestItem {
	return c.categories[ref.cat].Items[ref.idx]
}

// Revision counts the items added since the catalog was built. It changes
// whenever search results may have changed.
func (c *Catalog) Revision() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.revision
}

// Len returns the total number of items across categories.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, cat := range c.categories {
		n += len(cat.Items)
	}
	return n
}

// Categories returns a deep copy of all categories in catalog order.
func (c *Catalog) Categories() []InterestCategory {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]InterestCategory, len(c.categories))
	for i, cat := range c.categories {
		out[i] = InterestCategory{ID: cat.ID, Name: cat.Name, Items: cloneItems(cat.Items)}
	}
	return out
}

// Category returns a copy of the items in one category.
func (c *Catalog) Category(id CategoryID) []InterestItem {
	c.mu.RLock()
	defer c.mu.RUnlock()

	pos := slices.Index(CategoryIDs, id)
	if pos < 0 {
		return nil
	}
	return cloneItems(c.categories[pos].Items)
}

// Items returns every item in catalog order: categories in CategoryIDs order,
// items in insertion order.
func (c *Catalog) Items() []InterestItem {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []InterestItem
	for _, cat := range c.categories {
		out = append(out, cloneItems(cat.Items)...)
	}
	return out
}

// Lookup finds an item by name, ignoring case and surrounding whitespace.
func (c *Catalog) Lookup(name string) (InterestItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lookupLocked(name)
}

func (c *Catalog) lookupLocked(name string) (InterestItem, bool) {
	key := fuzzy.Normalize(name)
	if key == "" {
		return InterestItem{}, false
	}
	item := c.index.Get(patricia.Prefix(key))
	if item == nil {
		return InterestItem{}, false
	}
	return c.at(item.(itemRef)).clone(), true
}

// Complete returns up to limit items whose normalized name starts with prefix,
// ordered by relevance (highest first) and then by name.
// A limit <= 0 returns every match.
func (c *Catalog) Complete(prefix string, limit int) []InterestItem {
	key := fuzzy.Normalize(prefix)
	if key == "" {
		return nil
	}

	c.mu.RLock()
	var out []InterestItem
	err := c.index.VisitSubtree(patricia.Prefix(key), func(p patricia.Prefix, item patricia.Item) error {
		out = append(out, c.at(item.(itemRef)).clone())
		return nil
	})
	c.mu.RUnlock()
	if err != nil {
		log.Errorf("Error visiting catalog index: %v", err)
		return nil
	}

	slices.SortStableFunc(out, func(a, b InterestItem) int {
		if a.Relevance != b.Relevance {
			if a.Relevance > b.Relevance {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// AddCustomInterest appends a user-defined interest to the custom category.
//
// The name is trimmed; a blank name fails with ErrEmptyName. If any item in any
// category already has the same name (ignoring case) that item is returned and the
// catalog is left untouched.
func (c *Catalog) AddCustomInterest(name string, meta *CustomMetadata) (InterestItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return InterestItem{}, fmt.Errorf("add custom interest: %w", ErrEmptyName)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.lookupLocked(name); ok {
		log.Debugf("Custom interest '%s' already present as %s", name, existing.ID)
		return existing, nil
	}

	it := InterestItem{
		ID:        "custom-" + uuid.NewString(),
		Name:      name,
		Category:  Custom,
		Relevance: DefaultCustomRelevance,
		Tags:      []string{"custom"},
	}
	if meta != nil {
		it.Subcategory = meta.Subcategory
		it.Description = meta.Description
		if meta.Relevance != nil {
			it.Relevance = min(max(*meta.Relevance, 0), 1)
		}
		tags := utils.NewNameFilter(it.Tags...)
		for _, tag := range meta.Tags {
			if tag = strings.ToLower(strings.TrimSpace(tag)); tag != "" && tags.ShouldInclude(tag) {
				it.Tags = append(it.Tags, tag)
			}
		}
	}

	c.insertLocked(slices.Index(CategoryIDs, Custom), it)
	c.revision++
	log.Debugf("Added custom interest '%s' (%s)", it.Name, it.ID)
	return it.clone(), nil
}

func cloneItems(items []InterestItem) []InterestItem {
	out := make([]InterestItem, len(items))
	for i, it := range items {
		out[i] = it.clone()
	}
	return out
}
