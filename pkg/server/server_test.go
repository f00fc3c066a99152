package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/bastiangx/cvsuggest/pkg/cache"
	"github.com/bastiangx/cvsuggest/pkg/catalog"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]catalog.InterestItem{
		{ID: "t-go", Name: "Go", Category: catalog.Technical, Relevance: 0.9, Tags: []string{"backend"}},
		{ID: "t-java", Name: "Java", Category: catalog.Technical, Relevance: 0.8},
		{ID: "t-js", Name: "JavaScript", Category: catalog.Technical, Relevance: 0.9, Tags: []string{"frontend"}},
		{ID: "t-python", Name: "Python", Category: catalog.Technical, Relevance: 0.9, Tags: []string{"backend", "data"}},
		{ID: "l-spanish", Name: "Spanish", Category: catalog.Language, Relevance: 0.6},
		{ID: "s-lead", Name: "Team Leadership", Category: catalog.Soft, Relevance: 0.7, Tags: []string{"leadership"}},
	})
	if err != nil {
		t.Fatalf("catalog.New() error: %v", err)
	}
	return c
}

func newTestServer(t *testing.T, in io.Reader, out io.Writer) *Server {
	t.Helper()
	return NewServer(testCatalog(t), cache.NewMemoryStore(0), DefaultLimits(), in, out, nil)
}

// roundTrip streams reqs through a server and returns every response after the handshake.
func roundTrip(t *testing.T, reqs ...Request) []Response {
	t.Helper()
	var in, out bytes.Buffer
	enc := msgpack.NewEncoder(&in)
	for _, r := range reqs {
		if err := enc.Encode(r); err != nil {
			t.Fatalf("encoding request: %v", err)
		}
	}
	if err := newTestServer(t, &in, &out).Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	dec := msgpack.NewDecoder(&out)
	var ready Response
	if err := dec.Decode(&ready); err != nil || ready.Status != StatusReady || ready.Count != 6 {
		t.Fatalf("bad handshake %+v: %v", ready, err)
	}
	var resps []Response
	for {
		var r Response
		if err := dec.Decode(&r); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			t.Fatalf("decoding response: %v", err)
		}
		resps = append(resps, r)
	}
	if len(resps) != len(reqs) {
		t.Fatalf("expected %d responses, got %d", len(reqs), len(resps))
	}
	return resps
}

func itemNames(items []catalog.InterestItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

func TestServerRoundTrip(t *testing.T) {
	resps := roundTrip(t,
		Request{ID: "1", Action: ActionHealth},
		Request{ID: "2", Action: ActionSearch, Query: "java"},
		Request{ID: "3", Action: ActionComplete, Query: "ja"},
		Request{ID: "4", Action: "explode"},
	)

	if resps[0].ID != "1" || resps[0].Status != StatusOK || resps[0].Count != 6 {
		t.Errorf("unexpected health response %+v", resps[0])
	}

	search := resps[1]
	if search.Status != StatusOK || search.Count != 2 {
		t.Fatalf("expected Java and JavaScript, got %+v", search)
	}
	got := strings.Join(itemNames(search.Items), ",")
	if got != "Java,JavaScript" && got != "JavaScript,Java" {
		t.Errorf("unexpected search results %s", got)
	}

	if resps[2].Count != 2 {
		t.Errorf("expected two completions for 'ja', got %v", itemNames(resps[2].Items))
	}

	if resps[3].ID != "4" || resps[3].Status != StatusError || !strings.Contains(resps[3].Error, "unknown action") {
		t.Errorf("unexpected response for unknown action %+v", resps[3])
	}
	for _, r := range resps {
		if r.TimeTaken < 0 {
			t.Errorf("negative timing in %+v", r)
		}
	}
}

func TestServerSuggestUsesCache(t *testing.T) {
	resps := roundTrip(t,
		Request{ID: "a", Action: ActionSuggest, Query: "py", Session: "skills"},
		Request{ID: "b", Action: ActionSuggest, Query: " py ", Session: "skills"},
		Request{ID: "c", Action: ActionSuggest, Query: "py", Session: "skills", Category: "language"},
		Request{ID: "d", Action: ActionSuggest, Query: "py", Category: "planets"},
	)

	first, second := resps[0], resps[1]
	if first.Cached || first.Count == 0 || first.Options[0].Name != "Python" {
		t.Fatalf("unexpected first suggest %+v", first)
	}
	if !second.Cached || second.Count != first.Count || second.Options[0].ID != first.Options[0].ID {
		t.Errorf("second identical query should come from cache, got %+v", second)
	}
	if resps[2].Cached || resps[2].Count != 0 {
		t.Errorf("category-scoped suggest should miss the cache and find nothing, got %+v", resps[2])
	}
	if resps[3].Status != StatusError || !strings.Contains(resps[3].Error, "unknown interest category") {
		t.Errorf("expected a category error, got %+v", resps[3])
	}
}

func TestServerAddCustomAndValidate(t *testing.T) {
	relevance := 0.1
	resps := roundTrip(t,
		Request{ID: "1", Action: ActionAddCustom, Name: "  Bouldering "},
		Request{ID: "2", Action: ActionAddCustom, Name: "bouldering"},
		Request{ID: "3", Action: ActionAddCustom, Name: "   "},
		Request{ID: "4", Action: ActionAddCustom, Name: "Chess", Metadata: &catalog.CustomMetadata{Relevance: &relevance}},
		Request{ID: "5", Action: ActionValidate, Items: []catalog.InterestItem{
			{Name: "Go", Relevance: 0.9},
			{Name: "go", Relevance: 0.9},
		}},
		Request{ID: "6", Action: ActionHealth},
	)

	added, again := resps[0], resps[1]
	if added.Status != StatusOK || added.Item == nil || added.Item.Name != "Bouldering" || added.Item.Category != catalog.Custom {
		t.Fatalf("unexpected add_custom response %+v", added)
	}
	if again.Item == nil || again.Item.ID != added.Item.ID {
		t.Errorf("case-insensitive duplicate should return the same item, got %+v", again)
	}
	if resps[2].Status != StatusError || !strings.Contains(resps[2].Error, "empty") {
		t.Errorf("blank name should fail, got %+v", resps[2])
	}
	if resps[3].Item == nil || resps[3].Item.Relevance != 0.1 {
		t.Errorf("metadata relevance not applied: %+v", resps[3].Item)
	}

	v := resps[4].Validation
	if v == nil || v.Valid || len(v.Errors) != 1 {
		t.Errorf("expected exactly one duplicate error, got %+v", v)
	}
	if resps[5].Count != 8 {
		t.Errorf("expected two custom items added, catalog has %d", resps[5].Count)
	}
}

func TestServerRecommendAndFilter(t *testing.T) {
	s := newTestServer(t, bytes.NewReader(nil), io.Discard)
	ctx := context.Background()

	rec := s.Handle(ctx, Request{ID: "r", Action: ActionRecommend, CV: &catalog.CVDocument{
		Summary:         "I lead a backend team.",
		TechnicalSkills: []string{"Go"},
	}})
	names := itemNames(rec.Items)
	if rec.Status != StatusOK || len(names) == 0 {
		t.Fatalf("expected recommendations, got %+v", rec)
	}
	for _, n := range names {
		if n == "Go" {
			t.Errorf("declared skill recommended: %v", names)
		}
	}
	if !strings.Contains(strings.Join(names, ","), "Team Leadership") {
		t.Errorf("expected Team Leadership from the summary, got %v", names)
	}

	if r := s.Handle(ctx, Request{Action: ActionRecommend}); r.Status != StatusError {
		t.Errorf("recommend without cv should fail, got %+v", r)
	}

	minRel := 0.85
	f := s.Handle(ctx, Request{Action: ActionFilter, Category: "technical", MinRelevance: &minRel, Limit: 2})
	if f.Count != 2 {
		t.Fatalf("expected the limit to apply, got %v", itemNames(f.Items))
	}
	for _, it := range f.Items {
		if it.Relevance < minRel || it.Category != catalog.Technical {
			t.Errorf("filter returned %+v", it)
		}
	}

	if r := s.Handle(ctx, Request{Action: ActionFilter, Category: "nope"}); r.Status != StatusError {
		t.Errorf("unknown category should fail, got %+v", r)
	}
	if r := s.Handle(ctx, Request{Action: ActionSearch}); r.Status != StatusError {
		t.Errorf("search without a query should fail, got %+v", r)
	}
	if r := s.Handle(ctx, Request{}); r.Status != StatusError {
		t.Errorf("missing action should fail, got %+v", r)
	}
}

func TestServerLimitCap(t *testing.T) {
	s := NewServer(testCatalog(t), nil, Limits{MaxLimit: 1, CompleteLimit: 20}, bytes.NewReader(nil), io.Discard, nil)
	r := s.Handle(context.Background(), Request{Action: ActionComplete, Query: "j", Limit: 50})
	if r.Count != 1 {
		t.Errorf("MaxLimit should cap results, got %v", itemNames(r.Items))
	}
}

func TestServerBadFrame(t *testing.T) {
	var out bytes.Buffer
	in := bytes.NewReader([]byte{0xc1})
	err := newTestServer(t, in, &out).Start(context.Background())
	if err == nil {
		t.Fatalf("expected a decode error")
	}

	dec := msgpack.NewDecoder(&out)
	var ready, resp Response
	if err := dec.Decode(&ready); err != nil {
		t.Fatal(err)
	}
	if err := dec.Decode(&resp); err != nil || resp.Status != StatusError {
		t.Errorf("expected an error response, got %+v (%v)", resp, err)
	}
}

func TestServerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var in bytes.Buffer
	msgpack.NewEncoder(&in).Encode(Request{Action: ActionHealth})
	if err := newTestServer(t, &in, io.Discard).Start(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestServerSuggestLimitDoesNotShrinkCache(t *testing.T) {
	resps := roundTrip(t,
		Request{ID: "1", Action: ActionSuggest, Query: "ja", Limit: 1},
		Request{ID: "2", Action: ActionSuggest, Query: "ja", Limit: 50},
	)
	if resps[0].Count != 1 || resps[0].Cached {
		t.Fatalf("first request should fetch and trim to one option, got %+v", resps[0])
	}
	if !resps[1].Cached || resps[1].Count != 2 {
		t.Errorf("cached entry should keep the full result set, got %+v", resps[1])
	}
}

func TestServerSuggestSeesCustomInterest(t *testing.T) {
	resps := roundTrip(t,
		Request{ID: "1", Action: ActionSuggest, Query: "bouldering"},
		Request{ID: "2", Action: ActionSuggest, Query: "bouldering"},
		Request{ID: "3", Action: ActionAddCustom, Name: "Bouldering"},
		Request{ID: "4", Action: ActionSuggest, Query: "bouldering"},
		Request{ID: "5", Action: ActionSuggest, Query: "bouldering"},
	)
	if resps[0].Count != 0 || !resps[1].Cached {
		t.Fatalf("expected a cached miss before the add, got %+v then %+v", resps[0], resps[1])
	}
	after := resps[3]
	if after.Cached || after.Count != 1 || after.Options[0].Name != "Bouldering" {
		t.Errorf("suggest after add_custom should find the new item, got %+v", after)
	}
	if !resps[4].Cached || resps[4].Count != 1 {
		t.Errorf("new result should be cached again, got %+v", resps[4])
	}
}
