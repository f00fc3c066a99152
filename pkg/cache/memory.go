package cache

import (
	"math"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
)

// DefaultMaxEntries bounds a MemoryStore created with a non-positive size.
const DefaultMaxEntries = 512

// MemoryStore is a process-lifetime Store that evicts the least recently used
// entry once full. It is safe for concurrent use.
type MemoryStore struct {
	values      map[string][]byte
	accessTime  map[string]int64
	accessCount int64
	hits        int64
	misses      int64
	maxEntries  int
	mu          sync.Mutex
}

// NewMemoryStore creates a store holding at most maxEntries keys.
func NewMemoryStore(maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &MemoryStore{
		values:     make(map[string][]byte, maxEntries),
		accessTime: make(map[string]int64, maxEntries),
		maxEntries: maxEntries,
	}
}

// Get returns a copy of the value stored under key.
func (m *MemoryStore) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.values[key]
	if !ok {
		m.misses++
		return nil, false
	}
	m.hits++
	m.markAccessed(key)
	return slices.Clone(v), true
}

// Set stores a copy of value under key, evicting the oldest entry when full.
func (m *MemoryStore) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.values[key]; !exists && len(m.values) >= m.maxEntries {
		m.evictLRU()
	}
	m.values[key] = slices.Clone(value)
	m.markAccessed(key)
	return nil
}

// Len returns the number of stored entries.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.values)
}

// Stats reports size and hit counters.
func (m *MemoryStore) Stats() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return map[string]int{
		"entries":    len(m.values),
		"maxEntries": m.maxEntries,
		"hits":       int(m.hits),
		"misses":     int(m.misses),
	}
}

func (m *MemoryStore) markAccessed(key string) {
	m.accessCount++
	m.accessTime[key] = m.accessCount
}

func (m *MemoryStore) evictLRU() {
	var oldestKey string
	var oldestTime int64 = math.MaxInt64

	for key, t := range m.accessTime {
		if t < oldestTime {
			oldestTime = t
			oldestKey = key
		}
	}

	if oldestKey != "" {
		delete(m.values, oldestKey)
		delete(m.accessTime, oldestKey)
		log.Debugf("Evicted '%s' from memory store", oldestKey)
	}
}
