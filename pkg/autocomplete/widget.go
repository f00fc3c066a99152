// Package autocomplete implements a debounced, cached, virtualized suggestion widget.
//
// The Widget is a state machine driven by input events (SetQuery, KeyDown, Click,
// ClickOutside, Scroll). Typing schedules a debounced lookup; when it fires the
// widget either settles to idle (query too short), answers from the session cache,
// or starts a fetch in the background. Every resolved lookup is tagged with a
// request id and only the latest issued id may change what the widget shows, so a
// slow response for an old query never overwrites a newer one.
//
// Fetch failures never escape: they become an inline message in the View.
// Callbacks always run after the widget's lock is released, so they may call back
// into the widget.
package autocomplete

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/bastiangx/cvsuggest/pkg/cache"
	"github.com/bastiangx/cvsuggest/pkg/suggest"
	"github.com/charmbracelet/log"
)

// State is the widget's lifecycle state.
type State int

const (
	// Idle means the query is below the minimum length, or the last lookup found nothing.
	Idle State = iota
	Loading
	Open
	Closed
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Open:
		return "open"
	case Closed:
		return "closed"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Key is a navigation key the widget reacts to.
type Key int

const (
	KeyArrowDown Key = iota
	KeyArrowUp
	KeyEnter
	KeyEscape
)

// Row is one materialized list row.
type Row struct {
	Index  int
	Option suggest.Option
	Active bool
}

// View is a point-in-time snapshot of the widget.
type View struct {
	Revision uint64
	Query    string
	State    State
	Options  []suggest.Option
	// Active is the highlighted option index, or -1.
	Active int
	// Message is the inline error shown in place of the list.
	Message string
	// NoResults is set when the last completed lookup returned nothing.
	NoResults bool

	ScrollTop int
	Height    int
	Window    Window
	Rows      []Row
}

// Widget is safe for concurrent use.
type Widget struct {
	fetcher     suggest.Fetcher
	cache       *cache.Session
	cfg         Config
	viewport    Viewport
	sched       Scheduler
	log         *log.Logger
	onSelect    func(suggest.Option)
	onCustomAdd func(string)
	onChange    func(View)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	revision  uint64
	query     string
	state     State
	options   []suggest.Option
	active    int
	scrollTop int
	message   string
	searched  bool
	pending   Timer
	debounce  uint64 // token of the pending debounce
	requestID uint64 // latest issued lookup
	disposed  bool
}

// New creates a widget over fetcher. A nil store disables caching.
func New(fetcher suggest.Fetcher, store cache.Store, cfg Config, opts ...Option) *Widget {
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	w := &Widget{
		fetcher: fetcher,
		cache:   cache.NewSession(store, cfg.SessionKey),
		cfg:     cfg,
		viewport: Viewport{
			RowHeight: cfg.RowHeight,
			MaxHeight: cfg.MaxHeight,
			Overscan:  cfg.Overscan,
		},
		sched:  SystemScheduler,
		log:    log.Default(),
		ctx:    ctx,
		cancel: cancel,
		active: -1,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Config returns the effective configuration.
func (w *Widget) Config() Config {
	return w.cfg
}

// SetQuery records typed text and restarts the debounce.
func (w *Widget) SetQuery(query string) {
	w.mu.Lock()
	if w.disposed {
		w.mu.Unlock()
		return
	}
	w.query = query
	w.restartDebounce()
	notify := w.changed()
	w.mu.Unlock()
	notify()
}

// restartDebounce must be called with w.mu held.
func (w *Widget) restartDebounce() {
	w.stopDebounce()
	token := w.debounce
	w.pending = w.sched.AfterFunc(w.cfg.Debounce, func() { w.resolve(token) })
}

// stopDebounce cancels any pending lookup. Must be called with w.mu held.
func (w *Widget) stopDebounce() {
	if w.pending != nil {
		w.pending.Stop()
		w.pending = nil
	}
	w.debounce++
}

// resolve runs when a debounce fires.
func (w *Widget) resolve(token uint64) {
	w.mu.Lock()
	if w.disposed || token != w.debounce {
		w.mu.Unlock()
		return
	}
	w.pending = nil
	w.requestID++
	id := w.requestID
	query := strings.TrimSpace(w.query)

	if utf8.RuneCountInString(query) < w.cfg.MinChars {
		w.state = Idle
		w.options = nil
		w.active = -1
		w.scrollTop = 0
		w.message = ""
		w.searched = false
		notify := w.changed()
		w.mu.Unlock()
		notify()
		return
	}

	if opts, ok := w.cache.Lookup(query); ok {
		w.log.Debug("Serving suggestions from cache", "query", query, "count", len(opts))
		w.apply(opts)
		notify := w.changed()
		w.mu.Unlock()
		notify()
		return
	}

	w.state = Loading
	w.options = nil
	w.active = -1
	w.scrollTop = 0
	w.message = ""
	w.wg.Add(1)
	notify := w.changed()
	w.mu.Unlock()
	notify()

	go w.load(id, query)
}

func (w *Widget) load(id uint64, query string) {
	defer w.wg.Done()

	opts, err := w.fetch(query)
	if err == nil {
		if len(opts) > w.cfg.MaxResults {
			opts = opts[:w.cfg.MaxResults]
		}
		w.cache.Save(query, opts)
	}

	w.mu.Lock()
	if w.disposed || id != w.requestID {
		w.mu.Unlock()
		w.log.Debug("Discarding stale suggestions", "query", query, "request", id)
		return
	}
	if err != nil {
		w.log.Warn("Suggestion fetch failed", "query", query, "err", err)
		w.state = Error
		w.options = nil
		w.active = -1
		w.message = "Failed to load suggestions: " + err.Error()
		w.searched = false
	} else {
		w.apply(suggest.CloneAll(opts))
	}
	notify := w.changed()
	w.mu.Unlock()
	notify()
}

// fetch calls the fetcher, turning a panic into an error.
func (w *Widget) fetch(query string) (opts []suggest.Option, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fetcher panicked: %v", r)
		}
	}()
	if w.fetcher == nil {
		return nil, fmt.Errorf("no fetcher configured")
	}
	return w.fetcher.Fetch(w.ctx, query)
}

// apply shows a completed result set. Must be called with w.mu held.
func (w *Widget) apply(opts []suggest.Option) {
	w.options = opts
	w.active = -1
	w.scrollTop = 0
	w.message = ""
	w.searched = true
	if len(opts) == 0 {
		w.state = Idle
		return
	}
	w.state = Open
}

// KeyDown handles a navigation key.
func (w *Widget) KeyDown(k Key) {
	w.mu.Lock()
	if w.disposed {
		w.mu.Unlock()
		return
	}
	switch k {
	case KeyArrowDown, KeyArrowUp:
		w.move(k)
	case KeyEnter:
		if w.state == Open && w.active >= 0 && w.active < len(w.options) {
			w.selectLocked(w.options[w.active])
			return
		}
		if w.onCustomAdd != nil {
			name := strings.TrimSpace(w.query)
			if utf8.RuneCountInString(name) >= w.cfg.MinChars {
				w.customAddLocked(name)
				return
			}
		}
	case KeyEscape:
		w.dismiss()
	}
	notify := w.changed()
	w.mu.Unlock()
	notify()
}

// move must be called with w.mu held.
func (w *Widget) move(k Key) {
	n := len(w.options)
	if n == 0 {
		return
	}
	if w.state == Closed {
		w.state = Open
		return
	}
	if w.state != Open {
		return
	}
	if k == KeyArrowDown {
		w.active = min(w.active+1, n-1)
	} else {
		w.active = max(w.active-1, 0)
	}
	w.scrollTop = w.viewport.ScrollIntoView(n, w.active, w.scrollTop)
}

// Click selects the option at index, as Enter would on that row.
func (w *Widget) Click(index int) {
	w.mu.Lock()
	if w.disposed || w.state != Open || index < 0 || index >= len(w.options) {
		w.mu.Unlock()
		return
	}
	w.selectLocked(w.options[index])
}

// ClickOutside closes the list without touching the query.
func (w *Widget) ClickOutside() {
	w.mu.Lock()
	if w.disposed {
		w.mu.Unlock()
		return
	}
	w.dismiss()
	notify := w.changed()
	w.mu.Unlock()
	notify()
}

// dismiss must be called with w.mu held. A pending debounce is dropped too, so
// the list stays closed until the user types again.
func (w *Widget) dismiss() {
	w.stopDebounce()
	switch w.state {
	case Loading:
		// the pending result would reopen the list
		w.requestID++
		w.state = Closed
	case Open, Error:
		w.state = Closed
	}
	w.active = -1
}

// Scroll moves the list's scroll offset.
func (w *Widget) Scroll(offset int) {
	w.mu.Lock()
	if w.disposed {
		w.mu.Unlock()
		return
	}
	w.scrollTop = w.viewport.Clamp(len(w.options), offset)
	notify := w.changed()
	w.mu.Unlock()
	notify()
}

// selectLocked finishes a selection and releases w.mu before running callbacks.
func (w *Widget) selectLocked(opt suggest.Option) {
	if w.cfg.FillOnSelect {
		w.reset(opt.Name)
	} else {
		w.reset("")
	}
	onSelect := w.onSelect
	notify := w.changed()
	w.mu.Unlock()

	if onSelect != nil {
		onSelect(opt.Clone())
	}
	notify()
}

// customAddLocked is selectLocked for free text.
func (w *Widget) customAddLocked(name string) {
	if w.cfg.FillOnSelect {
		w.reset(name)
	} else {
		w.reset("")
	}
	onCustomAdd := w.onCustomAdd
	notify := w.changed()
	w.mu.Unlock()

	onCustomAdd(name)
	notify()
}

// reset closes the list after a choice and drops any lookup still in progress.
// Must be called with w.mu held.
func (w *Widget) reset(query string) {
	w.stopDebounce()
	w.requestID++
	w.query = query
	w.state = Closed
	w.options = nil
	w.active = -1
	w.scrollTop = 0
	w.message = ""
	w.searched = false
}

// View returns a snapshot of the widget.
func (w *Widget) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot()
}

func (w *Widget) snapshot() View {
	v := View{
		Revision:  w.revision,
		Query:     w.query,
		State:     w.state,
		Options:   suggest.CloneAll(w.options),
		Active:    w.active,
		Message:   w.message,
		NoResults: w.state == Idle && w.searched && len(w.options) == 0,
		ScrollTop: w.scrollTop,
	}
	if w.state != Open {
		return v
	}
	n := len(w.options)
	v.Height = w.viewport.Height(n)
	v.Window = w.viewport.Window(n, w.scrollTop)
	v.Rows = make([]Row, 0, v.Window.Len())
	for i := v.Window.Start; i < v.Window.End; i++ {
		v.Rows = append(v.Rows, Row{Index: i, Option: v.Options[i], Active: i == w.active})
	}
	return v
}

// changed bumps the revision and returns the change notification to run once
// w.mu is released. Must be called with w.mu held.
func (w *Widget) changed() func() {
	w.revision++
	if w.onChange == nil {
		return func() {}
	}
	v := w.snapshot()
	fn := w.onChange
	return func() { fn(v) }
}

// Close stops pending work and waits for in-flight fetches to return.
// Events after Close are ignored.
func (w *Widget) Close() {
	w.mu.Lock()
	if w.disposed {
		w.mu.Unlock()
		return
	}
	w.disposed = true
	w.stopDebounce()
	w.cancel()
	w.mu.Unlock()

	w.wg.Wait()
}
