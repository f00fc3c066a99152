package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/charmbracelet/log"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

func newTestCatalog(t *testing.T, items ...InterestItem) *Catalog {
	t.Helper()
	c, err := New(items)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return c
}

func names(items []InterestItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

func indexOf(list []string, name string) int {
	for i, n := range list {
		if n == name {
			return i
		}
	}
	return -1
}

func langItems() []InterestItem {
	return []InterestItem{
		{ID: "t-python", Name: "Python", Category: Technical, Relevance: 0.8, Tags: []string{"backend"}},
		{ID: "t-java", Name: "Java", Category: Technical, Relevance: 0.8, Tags: []string{"backend"}},
		{ID: "t-js", Name: "JavaScript", Category: Technical, Relevance: 0.8, Tags: []string{"Frontend"}},
	}
}

func TestNewRejectsUnknownCategory(t *testing.T) {
	_, err := New([]InterestItem{{Name: "Juggling", Category: "circus"}})
	if !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestCategoriesOnePerID(t *testing.T) {
	c := newTestCatalog(t, langItems()...)
	cats := c.Categories()
	if len(cats) != len(CategoryIDs) {
		t.Fatalf("expected %d categories, got %d", len(CategoryIDs), len(cats))
	}
	for i, cat := range cats {
		if cat.ID != CategoryIDs[i] {
			t.Errorf("category %d: expected %s, got %s", i, CategoryIDs[i], cat.ID)
		}
	}
	if n := len(c.Category(Custom)); n != 0 {
		t.Errorf("custom category should start empty, has %d", n)
	}
}

func TestFilterInterestsJavaScenario(t *testing.T) {
	c := newTestCatalog(t, langItems()...)
	got := names(FilterInterests(c, Filter{Query: "java"}))

	java, js, py := indexOf(got, "Java"), indexOf(got, "JavaScript"), indexOf(got, "Python")
	if java < 0 || js < 0 {
		t.Fatalf("expected Java and JavaScript in results, got %v", got)
	}
	if py >= 0 && (py < java || py < js) {
		t.Errorf("Python should rank below prefix matches, got %v", got)
	}
}

func TestFilterInterestsMinRelevance(t *testing.T) {
	c, err := Default(context.Background())
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}

	for _, minRel := range []float64{0, 0.3, 0.5, 0.75, 0.9, 1} {
		for _, query := range []string{"", "dat", "go"} {
			m := minRel
			for _, it := range FilterInterests(c, Filter{Query: query, MinRelevance: &m}) {
				if it.Relevance < minRel {
					t.Errorf("min=%v query=%q: got %s with relevance %v", minRel, query, it.Name, it.Relevance)
				}
			}
		}
	}
}

func TestFilterInterestsTagsAndCategory(t *testing.T) {
	items := append(langItems(),
		InterestItem{ID: "s-lead", Name: "Leadership", Category: Soft, Relevance: 0.9, Tags: []string{"leadership"}},
	)
	c := newTestCatalog(t, items...)

	got := names(FilterInterests(c, Filter{Tags: []string{"FRONTEND", "leadership"}}))
	if len(got) != 2 || got[0] != "Leadership" || got[1] != "JavaScript" {
		t.Errorf("tag filter: expected [Leadership JavaScript], got %v", got)
	}

	soft := Soft
	got = names(FilterInterests(c, Filter{Category: &soft}))
	if len(got) != 1 || got[0] != "Leadership" {
		t.Errorf("category filter: expected [Leadership], got %v", got)
	}
}

func TestFilterInterestsStableWithoutQuery(t *testing.T) {
	c := newTestCatalog(t, langItems()...)
	got := names(FilterInterests(c, Filter{}))
	want := []string{"Python", "Java", "JavaScript"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("equal relevance should keep catalog order: got %v, want %v", got, want)
		}
	}
}

func TestFilterInterestsDoesNotMutate(t *testing.T) {
	c := newTestCatalog(t, langItems()...)
	first := FilterInterests(c, Filter{Query: "java"})
	first[0].Name = "changed"
	first[0].Tags[0] = "changed"

	for _, it := range c.Items() {
		if it.Name == "changed" || it.HasTag("changed") {
			t.Fatalf("catalog mutated through filter result: %+v", it)
		}
	}
}

func TestSearchInterests(t *testing.T) {
	c := newTestCatalog(t, langItems()...)

	got := SearchInterests(c, "java", 0)
	if len(got) != 2 {
		t.Fatalf("expected 2 results above threshold, got %v", names(got))
	}
	if got := SearchInterests(c, "java", 1); len(got) != 1 || got[0].Name != "Java" {
		t.Errorf("limit 1: expected [Java], got %v", names(got))
	}
	if got := SearchInterests(c, "  ", 10); len(got) != 0 {
		t.Errorf("blank query should find nothing, got %v", names(got))
	}
}

func TestAddCustomInterest(t *testing.T) {
	c := newTestCatalog(t, langItems()...)

	first, err := c.AddCustomInterest("  Rock Climbing ", nil)
	if err != nil {
		t.Fatalf("AddCustomInterest error: %v", err)
	}
	second, err := c.AddCustomInterest("rock climbing", nil)
	if err != nil {
		t.Fatalf("AddCustomInterest error: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("case-insensitive duplicate returned a new item: %s vs %s", first.ID, second.ID)
	}
	if n := len(c.Category(Custom)); n != 1 {
		t.Errorf("custom category should grow by exactly one, has %d", n)
	}
	if first.Name != "Rock Climbing" || first.Relevance != DefaultCustomRelevance || !first.HasTag("custom") {
		t.Errorf("unexpected custom item: %+v", first)
	}
	if !strings.HasPrefix(first.ID, "custom-") {
		t.Errorf("custom id should be prefixed, got %s", first.ID)
	}
}

func TestAddCustomInterestExistingSeed(t *testing.T) {
	c := newTestCatalog(t, langItems()...)
	got, err := c.AddCustomInterest("PYTHON", &CustomMetadata{Tags: []string{"x"}})
	if err != nil {
		t.Fatalf("AddCustomInterest error: %v", err)
	}
	if got.ID != "t-python" || got.Category != Technical {
		t.Errorf("expected existing Python item, got %+v", got)
	}
	if n := len(c.Category(Custom)); n != 0 {
		t.Errorf("existing name must not grow custom category, has %d", n)
	}
}

func TestAddCustomInterestMetadata(t *testing.T) {
	c := newTestCatalog(t)
	rel := 1.7
	got, err := c.AddCustomInterest("Beekeeping", &CustomMetadata{
		Subcategory: "Outdoors",
		Tags:        []string{"Nature", "custom", " "},
		Relevance:   &rel,
	})
	if err != nil {
		t.Fatalf("AddCustomInterest error: %v", err)
	}
	if got.Relevance != 1 {
		t.Errorf("relevance should clamp to 1, got %v", got.Relevance)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "custom" || got.Tags[1] != "nature" {
		t.Errorf("unexpected tags %v", got.Tags)
	}
	if got.Subcategory != "Outdoors" {
		t.Errorf("subcategory not kept: %+v", got)
	}
}

func TestAddCustomInterestEmpty(t *testing.T) {
	c := newTestCatalog(t)
	for _, name := range []string{"", "   ", "\t\n"} {
		if _, err := c.AddCustomInterest(name, nil); !errors.Is(err, ErrEmptyName) {
			t.Errorf("AddCustomInterest(%q): expected ErrEmptyName, got %v", name, err)
		}
	}
	if c.Len() != 0 {
		t.Errorf("failed adds must not grow the catalog")
	}
}

func TestValidateInterestsForCV(t *testing.T) {
	cv := CVDocument{TechnicalSkills: []string{"Go"}}

	tests := []struct {
		name     string
		selected []InterestItem
		errors   int
		warnings int
	}{
		{
			name: "all unique",
			selected: []InterestItem{
				{Name: "Chess", Relevance: 0.5},
				{Name: "Hiking", Relevance: 0.5},
			},
		},
		{
			name: "duplicate in different case",
			selected: []InterestItem{
				{Name: "Chess", Relevance: 0.5},
				{Name: "chess", Relevance: 0.5},
			},
			errors: 1,
		},
		{
			name:     "name too long",
			selected: []InterestItem{{Name: strings.Repeat("x", MaxInterestNameLength+1), Relevance: 0.5}},
			errors:   1,
		},
		{
			name:     "name at the limit",
			selected: []InterestItem{{Name: strings.Repeat("é", MaxInterestNameLength), Relevance: 0.5}},
		},
		{
			name:     "low relevance",
			selected: []InterestItem{{Name: "Knitting", Relevance: 0.1}},
			warnings: 1,
		},
		{
			name:     "already on the CV",
			selected: []InterestItem{{Name: "go", Relevance: 0.8}},
			warnings: 1,
		},
		{
			name: "empty selection",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateInterestsForCV(cv, tt.selected)
			if len(res.Errors) != tt.errors {
				t.Errorf("expected %d errors, got %v", tt.errors, res.Errors)
			}
			if len(res.Warnings) != tt.warnings {
				t.Errorf("expected %d warnings, got %v", tt.warnings, res.Warnings)
			}
			if res.Valid != (tt.errors == 0) {
				t.Errorf("Valid=%v with errors %v", res.Valid, res.Errors)
			}
		})
	}
}

func TestRecommendInterests(t *testing.T) {
	c, err := Default(context.Background())
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}
	cv := CVDocument{
		Summary:         "Backend engineer who leads a small team building cloud services.",
		TechnicalSkills: []string{"Python", "Kubernetes"},
		Languages:       []string{"Spanish"},
	}

	got := RecommendInterests(cv, c, 5)
	if len(got) == 0 || len(got) > 5 {
		t.Fatalf("expected 1..5 recommendations, got %v", names(got))
	}
	list := names(got)
	for _, declared := range []string{"Python", "Kubernetes", "Spanish"} {
		if indexOf(list, declared) >= 0 {
			t.Errorf("declared item %s should not be recommended: %v", declared, list)
		}
	}
	if indexOf(list, "Certified Kubernetes Administrator") < 0 && indexOf(list, "Django") < 0 {
		t.Errorf("expected a skill-overlap recommendation, got %v", list)
	}
}

func TestRecommendInterestsEmptyCV(t *testing.T) {
	c := newTestCatalog(t, langItems()...)
	if got := RecommendInterests(CVDocument{}, c, 0); len(got) != 0 {
		t.Errorf("empty CV gives no signal, got %v", names(got))
	}
}

func TestComplete(t *testing.T) {
	c := newTestCatalog(t, langItems()...)
	got := names(c.Complete("JAV", 0))
	if len(got) != 2 || indexOf(got, "Java") < 0 || indexOf(got, "JavaScript") < 0 {
		t.Errorf("expected Java and JavaScript, got %v", got)
	}
	if got := c.Complete("", 5); len(got) != 0 {
		t.Errorf("empty prefix should return nothing, got %v", names(got))
	}
	if got := c.Complete("java", 1); len(got) != 1 {
		t.Errorf("limit not applied: %v", names(got))
	}
}

func TestLoadSeeds(t *testing.T) {
	fsys := fstest.MapFS{
		"a_tech.toml": {Data: []byte(`
category = "technical"
relevance = 0.4
tags = ["Eng"]

[[item]]
name = "C++"
relevance = 0.9
tags = ["systems", "eng"]

[[item]]
name = "C#"
`)},
		"b_lang.toml": {Data: []byte(`
category = "language"
names = ["English", " ", "c++"]
`)},
		"notes.txt": {Data: []byte("ignored")},
	}

	c, err := Load(context.Background(), fsys)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if c.Len() != 3 {
		t.Fatalf("expected 3 items (duplicate and blank dropped), got %v", names(c.Items()))
	}

	cpp, ok := c.Lookup("c++")
	if !ok {
		t.Fatalf("Lookup(c++) failed")
	}
	if cpp.ID != "technical-c-plus-plus" || cpp.Relevance != 0.9 {
		t.Errorf("unexpected C++ item: %+v", cpp)
	}
	if len(cpp.Tags) != 2 || cpp.Tags[0] != "eng" || cpp.Tags[1] != "systems" {
		t.Errorf("tags should merge and dedup lowercased: %v", cpp.Tags)
	}
	cs, _ := c.Lookup("C#")
	if cs.ID != "technical-c-sharp" || cs.Relevance != 0.4 {
		t.Errorf("unexpected C# item: %+v", cs)
	}
	en, _ := c.Lookup("english")
	if en.Category != Language || en.Relevance != DefaultSeedRelevance {
		t.Errorf("unexpected English item: %+v", en)
	}
}

func TestLoadSeedsErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"unknown category", "category = \"circus\"\nnames = [\"Juggling\"]", ErrUnknownCategory},
		{"custom not seedable", "category = \"custom\"\nnames = [\"Juggling\"]", ErrUnknownCategory},
		{"bad toml", "category = ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(context.Background(), fstest.MapFS{"x.toml": {Data: []byte(tt.data)}})
			if err == nil {
				t.Fatalf("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Load(ctx, SeedFS()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestLoaderMemoizes(t *testing.T) {
	l := NewLoader(SeedFS())
	a, err := l.Get(context.Background())
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	b, _ := l.Get(context.Background())
	if a != b {
		t.Errorf("Loader.Get should return the same catalog")
	}
	for _, id := range CategoryIDs {
		if id != Custom && len(a.Category(id)) == 0 {
			t.Errorf("embedded seeds have no items for %s", id)
		}
	}
}

func TestLoaderRetriesAfterCancel(t *testing.T) {
	l := NewLoader(SeedFS())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.Get(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	cat, err := l.Get(context.Background())
	if err != nil || cat == nil || cat.Len() == 0 {
		t.Fatalf("live context should load the catalog, got %v (%v)", cat, err)
	}
	again, _ := l.Get(context.Background())
	if again != cat {
		t.Errorf("successful load should be memoized")
	}
}

func TestLoaderKeepsSeedError(t *testing.T) {
	l := NewLoader(fstest.MapFS{
		"bad.toml": {Data: []byte("category = \"planets\"\nnames = [\"Mars\"]")},
	})
	_, first := l.Get(context.Background())
	_, second := l.Get(context.Background())
	if first == nil || second == nil || first.Error() != second.Error() {
		t.Errorf("seed errors should be memoized, got %v then %v", first, second)
	}
}

func TestRevisionTracksCustomAdds(t *testing.T) {
	c := newTestCatalog(t, langItems()...)
	if c.Revision() != 0 {
		t.Fatalf("fresh catalog should be at revision 0, got %d", c.Revision())
	}
	if _, err := c.AddCustomInterest("Bouldering", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := c.AddCustomInterest("bouldering", nil); err != nil {
		t.Fatal(err)
	}
	if c.Revision() != 1 {
		t.Errorf("only the new item should bump the revision, got %d", c.Revision())
	}
}
