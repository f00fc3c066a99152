package autocomplete

import (
	"time"

	"github.com/bastiangx/cvsuggest/pkg/cache"
	"github.com/bastiangx/cvsuggest/pkg/suggest"
	"github.com/charmbracelet/log"
)

const (
	DefaultMinChars   = 2
	DefaultDebounce   = 200 * time.Millisecond
	DefaultMaxResults = cache.MaxEntryOptions
	DefaultRowHeight  = 32
	DefaultMaxHeight  = 256
	DefaultOverscan   = 3
)

// Config holds the widget's tunables. Zero fields take the defaults above;
// a negative Overscan disables overscan.
type Config struct {
	// SessionKey namespaces cached results; widgets sharing it share results.
	SessionKey string
	MinChars   int
	Debounce   time.Duration
	// MaxResults truncates each fetch. It never exceeds what the cache keeps.
	MaxResults int
	// FillOnSelect puts the chosen option's name in the query instead of clearing it.
	FillOnSelect bool

	RowHeight int
	MaxHeight int
	Overscan  int
}

// DefaultConfig returns a Config with every field set to its default.
func DefaultConfig() Config {
	return Config{
		MinChars:   DefaultMinChars,
		Debounce:   DefaultDebounce,
		MaxResults: DefaultMaxResults,
		RowHeight:  DefaultRowHeight,
		MaxHeight:  DefaultMaxHeight,
		Overscan:   DefaultOverscan,
	}
}

func (c Config) withDefaults() Config {
	if c.MinChars <= 0 {
		c.MinChars = DefaultMinChars
	}
	if c.Debounce <= 0 {
		c.Debounce = DefaultDebounce
	}
	if c.MaxResults <= 0 || c.MaxResults > DefaultMaxResults {
		c.MaxResults = DefaultMaxResults
	}
	if c.RowHeight <= 0 {
		c.RowHeight = DefaultRowHeight
	}
	if c.MaxHeight <= 0 {
		c.MaxHeight = DefaultMaxHeight
	}
	switch {
	case c.Overscan == 0:
		c.Overscan = DefaultOverscan
	case c.Overscan < 0:
		c.Overscan = 0
	}
	return c
}

// Option customizes a Widget.
type Option func(*Widget)

// WithOnSelect sets the callback invoked with the chosen option.
func WithOnSelect(fn func(suggest.Option)) Option {
	return func(w *Widget) { w.onSelect = fn }
}

// WithOnCustomAdd enables free-text entries: Enter with no active option passes
// the trimmed query to fn.
func WithOnCustomAdd(fn func(string)) Option {
	return func(w *Widget) { w.onCustomAdd = fn }
}

// WithOnChange sets a callback that receives a snapshot after every state change.
// Snapshots may arrive from the fetch goroutine; compare View.Revision to order them.
func WithOnChange(fn func(View)) Option {
	return func(w *Widget) { w.onChange = fn }
}

// WithScheduler replaces the timer source used for debouncing.
func WithScheduler(s Scheduler) Option {
	return func(w *Widget) { w.sched = s }
}

// WithLogger sets the widget's logger.
func WithLogger(l *log.Logger) Option {
	return func(w *Widget) { w.log = l }
}
