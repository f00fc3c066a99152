package utils

import (
	"strings"
)

// NameFilter tracks names already seen, ignoring case and surrounding spaces.
// It is not safe for concurrent use.
type NameFilter struct {
	seen map[string]bool
}

// NewNameFilter creates a filter that already considers the given names seen.
func NewNameFilter(existing ...string) *NameFilter {
	f := &NameFilter{seen: make(map[string]bool, len(existing))}
	for _, name := range existing {
		f.seen[foldName(name)] = true
	}
	return f
}

// ShouldInclude reports whether name is new, and records it.
// Returns false if the name (case-insensitively) was seen before.
func (f *NameFilter) ShouldInclude(name string) bool {
	key := foldName(name)
	if f.seen[key] {
		return false
	}
	f.seen[key] = true
	return true
}

// Seen reports whether name was recorded without recording it.
func (f *NameFilter) Seen(name string) bool {
	return f.seen[foldName(name)]
}

func foldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
