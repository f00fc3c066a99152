package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bastiangx/cvsuggest/pkg/cache"
	"github.com/bastiangx/cvsuggest/pkg/catalog"
	"github.com/bastiangx/cvsuggest/pkg/suggest"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// Limits bounds what a single request may ask for.
type Limits struct {
	// MaxLimit caps any requested "l".
	MaxLimit       int
	SearchLimit    int
	RecommendLimit int
	CompleteLimit  int
	// SessionKey is used for suggest requests that name no session.
	SessionKey string
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		MaxLimit:       100,
		SearchLimit:    catalog.DefaultSearchLimit,
		RecommendLimit: 10,
		CompleteLimit:  20,
		SessionKey:     "cvsuggest",
	}
}

// Server answers catalog requests over a msgpack stream.
type Server struct {
	catalog  *catalog.Catalog
	store    cache.Store
	limits   Limits
	dec      *msgpack.Decoder
	enc      *msgpack.Encoder
	log      *log.Logger
	requests int
}

// NewServer creates a server reading requests from r and writing responses to w.
// A nil store disables result caching for suggest.
func NewServer(c *catalog.Catalog, store cache.Store, limits Limits, r io.Reader, w io.Writer, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		catalog: c,
		store:   store,
		limits:  limits,
		dec:     msgpack.NewDecoder(r),
		enc:     msgpack.NewEncoder(w),
		log:     logger,
	}
}

// Start sends the ready handshake and serves requests until the input ends or
// ctx is cancelled. A clean EOF returns nil.
func (s *Server) Start(ctx context.Context) error {
	s.log.Debug("Starting server", "items", s.catalog.Len())
	if err := s.enc.Encode(Response{Status: StatusReady, Count: s.catalog.Len()}); err != nil {
		return fmt.Errorf("writing handshake: %w", err)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var req Request
		if err := s.dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				s.log.Debug("Input closed", "requests", s.requests)
				return nil
			}
			s.log.Errorf("Decoding request: %v", err)
			// the stream cannot be resynchronised after a bad frame
			s.send(Response{Status: StatusError, Error: "invalid msgpack request"})
			return fmt.Errorf("decoding request: %w", err)
		}
		s.requests++
		if err := s.send(s.Handle(ctx, req)); err != nil {
			return err
		}
	}
}

func (s *Server) send(resp Response) error {
	if err := s.enc.Encode(resp); err != nil {
		s.log.Errorf("Encoding response: %v", err)
		return fmt.Errorf("writing response: %w", err)
	}
	return nil
}

// Handle runs one request and builds its response. It never panics on bad input;
// problems are reported through the response status.
func (s *Server) Handle(ctx context.Context, req Request) Response {
	start := time.Now()
	resp, err := s.dispatch(ctx, req)
	resp.ID = req.ID
	if err != nil {
		s.log.Debug("Request failed", "id", req.ID, "action", req.Action, "err", err)
		resp = Response{ID: req.ID, Status: StatusError, Error: err.Error()}
	} else {
		resp.Status = StatusOK
	}
	resp.TimeTaken = time.Since(start).Microseconds()
	return resp
}

func (s *Server) dispatch(ctx context.Context, req Request) (Response, error) {
	switch req.Action {
	case ActionSearch:
		return s.handleSearch(req)
	case ActionFilter:
		return s.handleFilter(req)
	case ActionRecommend:
		return s.handleRecommend(req)
	case ActionSuggest:
		return s.handleSuggest(ctx, req)
	case ActionAddCustom:
		return s.handleAddCustom(req)
	case ActionValidate:
		return s.handleValidate(req)
	case ActionComplete:
		return s.handleComplete(req)
	case ActionHealth:
		return Response{Count: s.catalog.Len()}, nil
	case "":
		return Response{}, errors.New("missing 'action'")
	default:
		return Response{}, fmt.Errorf("unknown action: %s", req.Action)
	}
}

// limit applies the per-action default and the global cap.
func (s *Server) limit(requested, def int) int {
	if requested <= 0 {
		requested = def
	}
	if s.limits.MaxLimit > 0 && requested > s.limits.MaxLimit {
		requested = s.limits.MaxLimit
	}
	return requested
}

func itemsResponse(items []catalog.InterestItem) Response {
	return Response{Items: items, Count: len(items)}
}

func (s *Server) handleSearch(req Request) (Response, error) {
	if strings.TrimSpace(req.Query) == "" {
		return Response{}, errors.New("missing 'q' parameter")
	}
	limit := s.limit(req.Limit, s.limits.SearchLimit)
	return itemsResponse(catalog.SearchInterests(s.catalog, req.Query, limit)), nil
}

func (s *Server) handleFilter(req Request) (Response, error) {
	f := catalog.Filter{Query: req.Query, Tags: req.Tags, MinRelevance: req.MinRelevance}
	if req.Category != "" {
		cat := catalog.CategoryID(req.Category)
		if !cat.Valid() {
			return Response{}, fmt.Errorf("%w: %s", catalog.ErrUnknownCategory, req.Category)
		}
		f.Category = &cat
	}
	items := catalog.FilterInterests(s.catalog, f)
	if limit := s.limit(req.Limit, 0); limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return itemsResponse(items), nil
}

func (s *Server) handleRecommend(req Request) (Response, error) {
	if req.CV == nil {
		return Response{}, errors.New("missing 'cv' parameter")
	}
	limit := s.limit(req.Limit, s.limits.RecommendLimit)
	return itemsResponse(catalog.RecommendInterests(*req.CV, s.catalog, limit)), nil
}

// handleSuggest answers like an autocomplete widget would: from the session
// cache when possible, from the catalog otherwise. Entries always hold the full
// result set and are keyed by catalog revision; "l" only trims the reply.
func (s *Server) handleSuggest(ctx context.Context, req Request) (Response, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return Response{}, errors.New("missing 'q' parameter")
	}
	fetcher := &suggest.CatalogFetcher{
		Catalog: s.catalog,
		Limit:   cache.MaxEntryOptions,
	}
	key := req.Session
	if key == "" {
		key = s.limits.SessionKey
	}
	if req.Category != "" {
		cat := catalog.CategoryID(req.Category)
		if !cat.Valid() {
			return Response{}, fmt.Errorf("%w: %s", catalog.ErrUnknownCategory, req.Category)
		}
		fetcher.Category = cat
		key += "/" + req.Category
	}
	limit := s.limit(req.Limit, cache.MaxEntryOptions)

	session := cache.NewSession(cache.Versioned(s.store, s.catalog.Revision), key)
	if opts, ok := session.Lookup(query); ok {
		opts = truncate(opts, limit)
		return Response{Options: opts, Count: len(opts), Cached: true}, nil
	}
	opts, err := fetcher.Fetch(ctx, query)
	if err != nil {
		return Response{}, fmt.Errorf("fetching suggestions: %w", err)
	}
	session.Save(query, opts)
	opts = truncate(opts, limit)
	return Response{Options: opts, Count: len(opts)}, nil
}

func truncate(opts []suggest.Option, limit int) []suggest.Option {
	if limit > 0 && len(opts) > limit {
		return opts[:limit]
	}
	return opts
}

func (s *Server) handleAddCustom(req Request) (Response, error) {
	item, err := s.catalog.AddCustomInterest(req.Name, req.Metadata)
	if err != nil {
		return Response{}, err
	}
	return Response{Item: &item, Count: 1}, nil
}

func (s *Server) handleValidate(req Request) (Response, error) {
	var cv catalog.CVDocument
	if req.CV != nil {
		cv = *req.CV
	}
	result := catalog.ValidateInterestsForCV(cv, req.Items)
	return Response{Validation: &result, Count: len(req.Items)}, nil
}

func (s *Server) handleComplete(req Request) (Response, error) {
	if req.Query == "" {
		return Response{}, errors.New("missing 'q' parameter")
	}
	limit := s.limit(req.Limit, s.limits.CompleteLimit)
	return itemsResponse(s.catalog.Complete(req.Query, limit)), nil
}
