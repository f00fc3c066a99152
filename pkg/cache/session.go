// Package cache memoizes suggestion results per session key.
//
// Results live in an injected Store so the lifetime of the cache is decided by the
// host: MemoryStore keeps entries for the life of the process, while an embedding
// application can back Store with whatever session storage it has. Writes are
// idempotent (the same key always maps to the same results within a session), so
// widgets sharing a session key may race to write without coordination.
package cache

import (
	"strconv"
	"strings"

	"github.com/bastiangx/cvsuggest/pkg/suggest"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// MaxEntryOptions caps the number of options stored per query.
const MaxEntryOptions = 50

// Store is a key-value capability with a host-defined lifetime.
type Store interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte) error
}

// Key builds the cache key for a query: the session key, a colon, and the
// trimmed query.
func Key(sessionKey, query string) string {
	return sessionKey + ":" + strings.TrimSpace(query)
}

// Versioned scopes every key of store under the current value of version, so
// entries written before the version changes are never read again. It suits data
// sources that grow at runtime, such as a catalog taking custom entries.
// A nil store stays nil.
func Versioned(store Store, version func() uint64) Store {
	if store == nil {
		return nil
	}
	return versionedStore{store: store, version: version}
}

type versionedStore struct {
	store   Store
	version func() uint64
}

func (v versionedStore) scoped(key string) string {
	return "v" + strconv.FormatUint(v.version(), 10) + "/" + key
}

func (v versionedStore) Get(key string) ([]byte, bool) {
	return v.store.Get(v.scoped(key))
}

func (v versionedStore) Set(key string, value []byte) error {
	return v.store.Set(v.scoped(key), value)
}

// Session scopes cache lookups to one session key.
// A Session with a nil store caches nothing.
type Session struct {
	store Store
	key   string
}

// NewSession binds store to sessionKey.
func NewSession(store Store, sessionKey string) *Session {
	return &Session{store: store, key: sessionKey}
}

// SessionKey returns the namespace this session writes under.
func (s *Session) SessionKey() string {
	return s.key
}

// Lookup returns the cached options for query. Undecodable entries count as misses.
func (s *Session) Lookup(query string) ([]suggest.Option, bool) {
	if s == nil || s.store == nil {
		return nil, false
	}
	key := Key(s.key, query)
	data, ok := s.store.Get(key)
	if !ok {
		return nil, false
	}

	var opts []suggest.Option
	if err := msgpack.Unmarshal(data, &opts); err != nil {
		log.Debugf("Ignoring unreadable cache entry '%s': %v", key, err)
		return nil, false
	}
	if opts == nil {
		opts = []suggest.Option{}
	}
	return opts, true
}

// Save stores up to MaxEntryOptions options for query. Failures are logged and
// swallowed: a cache that cannot be written only means the next lookup fetches.
func (s *Session) Save(query string, opts []suggest.Option) {
	if s == nil || s.store == nil {
		return
	}
	if len(opts) > MaxEntryOptions {
		opts = opts[:MaxEntryOptions]
	}
	if opts == nil {
		opts = []suggest.Option{}
	}

	key := Key(s.key, query)
	data, err := msgpack.Marshal(opts)
	if err != nil {
		log.Debugf("Could not encode cache entry '%s': %v", key, err)
		return
	}
	if err := s.store.Set(key, data); err != nil {
		log.Debugf("Could not write cache entry '%s': %v", key, err)
	}
}
