// Package cli drives an autocomplete widget from line-based input, for trying out
// fetchers and widget behavior in a terminal.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/bastiangx/cvsuggest/pkg/autocomplete"
	"github.com/bastiangx/cvsuggest/pkg/cache"
	"github.com/bastiangx/cvsuggest/pkg/catalog"
	"github.com/bastiangx/cvsuggest/pkg/suggest"
	"github.com/charmbracelet/log"
)

// DefaultSettleTimeout bounds how long a typed query may take to produce a view.
const DefaultSettleTimeout = 10 * time.Second

const helpText = `type text to search, or one of:
  :down :up :enter :esc    navigation keys
  :click N                 select row N (1-based)
  :scroll N                scroll the list to offset N
  :out                     click outside the widget
  :view                    redraw
  :q                       quit`

// CustomAdder turns free text into a stored entry and returns its display name.
type CustomAdder func(name string) (string, error)

// InputHandler reads commands and queries from in and renders the widget to out.
type InputHandler struct {
	widget    *autocomplete.Widget
	rowHeight int
	in        *bufio.Reader
	out       io.Writer
	log       *log.Logger
	changes   chan autocomplete.View
	fired     chan struct{}
	addCustom CustomAdder
	selected  []string
	settle    time.Duration
}

// NewInputHandler builds a widget over fetcher and store. A nil addCustom disables
// free-text entries.
func NewInputHandler(fetcher suggest.Fetcher, store cache.Store, cfg autocomplete.Config, addCustom CustomAdder, in io.Reader, out io.Writer, logger *log.Logger) *InputHandler {
	if logger == nil {
		logger = log.Default()
	}
	h := &InputHandler{
		in:        bufio.NewReader(in),
		out:       out,
		log:       logger,
		changes:   make(chan autocomplete.View, 64),
		fired:     make(chan struct{}, 1),
		addCustom: addCustom,
		settle:    DefaultSettleTimeout,
	}

	opts := []autocomplete.Option{
		autocomplete.WithLogger(logger),
		autocomplete.WithScheduler(signalScheduler{fired: h.fired}),
		autocomplete.WithOnChange(h.notify),
		autocomplete.WithOnSelect(func(o suggest.Option) {
			h.selected = append(h.selected, o.Name)
			fmt.Fprintf(h.out, "selected: %s\n", o.Name)
		}),
	}
	if addCustom != nil {
		opts = append(opts, autocomplete.WithOnCustomAdd(h.onCustomAdd))
	}
	h.widget = autocomplete.New(fetcher, store, cfg, opts...)
	h.rowHeight = h.widget.Config().RowHeight
	return h
}

// NewCatalogHandler builds a handler over the interest catalog. Free text is added
// as a custom interest, and cached results are keyed by catalog revision so an
// added interest shows up in queries that were answered before.
func NewCatalogHandler(cat *catalog.Catalog, store cache.Store, cfg autocomplete.Config, limit int, in io.Reader, out io.Writer, logger *log.Logger) *InputHandler {
	fetcher := suggest.NewCatalogFetcher(cat, limit)
	add := func(name string) (string, error) {
		item, err := cat.AddCustomInterest(name, nil)
		return item.Name, err
	}
	return NewInputHandler(fetcher, cache.Versioned(store, cat.Revision), cfg, add, in, out, logger)
}

// Selected returns the names chosen so far.
func (h *InputHandler) Selected() []string {
	return h.selected
}

// signalScheduler reports each fired debounce once its lookup has been resolved.
type signalScheduler struct {
	fired chan<- struct{}
}

func (s signalScheduler) AfterFunc(d time.Duration, f func()) autocomplete.Timer {
	return autocomplete.SystemScheduler.AfterFunc(d, func() {
		f()
		select {
		case s.fired <- struct{}{}:
		default:
		}
	})
}

func (h *InputHandler) notify(v autocomplete.View) {
	select {
	case h.changes <- v:
	default:
		// a full buffer only delays a redraw
	}
}

func (h *InputHandler) onCustomAdd(name string) {
	stored, err := h.addCustom(name)
	if err != nil {
		fmt.Fprintf(h.out, "could not add %q: %v\n", name, err)
		return
	}
	h.selected = append(h.selected, stored)
	fmt.Fprintf(h.out, "added: %s\n", stored)
}

// Start runs the input loop until EOF or :q.
func (h *InputHandler) Start() error {
	defer h.widget.Close()
	fmt.Fprintln(h.out, helpText)

	for {
		fmt.Fprint(h.out, "> ")
		line, err := h.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := errors.Is(err, io.EOF)

		line = strings.TrimRight(line, "\r\n")
		if line != "" || !eof {
			if quit := h.handleInput(line); quit {
				return nil
			}
		}
		if eof {
			fmt.Fprintln(h.out)
			return nil
		}
	}
}

// handleInput applies one line and reports whether the user asked to quit.
func (h *InputHandler) handleInput(line string) bool {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	w := h.widget

	switch cmd {
	case ":q", ":quit":
		return true
	case ":down":
		w.KeyDown(autocomplete.KeyArrowDown)
	case ":up":
		w.KeyDown(autocomplete.KeyArrowUp)
	case ":enter":
		w.KeyDown(autocomplete.KeyEnter)
	case ":esc":
		w.KeyDown(autocomplete.KeyEscape)
	case ":out":
		w.ClickOutside()
	case ":view":
	case ":click":
		n, err := strconv.Atoi(strings.TrimSpace(arg))
		if err != nil {
			log.Errorf("Invalid row: %q", arg)
			return false
		}
		w.Click(n - 1)
	case ":scroll":
		n, err := strconv.Atoi(strings.TrimSpace(arg))
		if err != nil {
			log.Errorf("Invalid offset: %q", arg)
			return false
		}
		w.Scroll(n)
	default:
		if strings.HasPrefix(cmd, ":") {
			log.Errorf("Unknown command: %s", cmd)
			fmt.Fprintln(h.out, helpText)
			return false
		}
		h.query(line)
		return false
	}
	fmt.Fprintln(h.out, Render(w.View(), h.rowHeight))
	return false
}

// query types line into the widget and renders once the lookup settles: either the
// debounce resolved it synchronously, or the fetch it started has completed.
func (h *InputHandler) query(line string) {
	h.drain()
	start := time.Now()
	timeout := time.After(h.settle)
	h.widget.SetQuery(line)

	select {
	case <-h.fired:
	case <-timeout:
		log.Warnf("No response for '%s' after %v", line, h.settle)
		fmt.Fprintln(h.out, Render(h.widget.View(), h.rowHeight))
		return
	}

	v := h.widget.View()
	for v.State == autocomplete.Loading {
		select {
		case next := <-h.changes:
			if next.Revision > v.Revision {
				v = next
			}
		case <-timeout:
			log.Warnf("No response for '%s' after %v", line, h.settle)
			fmt.Fprintln(h.out, Render(h.widget.View(), h.rowHeight))
			return
		}
	}
	h.log.Debugf("Took [ %v ] for query '%s'", time.Since(start), strings.TrimSpace(line))
	fmt.Fprintln(h.out, Render(v, h.rowHeight))
}

func (h *InputHandler) drain() {
	for {
		select {
		case <-h.changes:
		case <-h.fired:
		default:
			return
		}
	}
}
