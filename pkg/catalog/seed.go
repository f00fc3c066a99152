package catalog

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/bastiangx/cvsuggest/internal/utils"
	"github.com/charmbracelet/log"
)

//go:embed seeds/*.toml
var embeddedSeeds embed.FS

// DefaultSeedRelevance applies to seed items that do not declare a relevance.
const DefaultSeedRelevance = 0.5

// seedFile is the on-disk layout of one seed file.
//
//	category = "technical"
//	relevance = 0.6          # default for items below
//	tags = ["engineering"]   # added to every item
//	names = ["Go", "Rust"]   # flat list form
//
//	[[item]]                 # record form
//	name = "Python"
//	relevance = 0.9
//	tags = ["backend", "data"]
type seedFile struct {
	Category  string     `toml:"category"`
	Relevance *float64   `toml:"relevance"`
	Tags      []string   `toml:"tags"`
	Names     []string   `toml:"names"`
	Items     []seedItem `toml:"item"`
}

type seedItem struct {
	Name        string   `toml:"name"`
	Subcategory string   `toml:"subcategory"`
	Relevance   *float64 `toml:"relevance"`
	Tags        []string `toml:"tags"`
	Skills      []string `toml:"skills"`
	Description string   `toml:"description"`
}

// SeedFS returns the seed files shipped with the module.
func SeedFS() fs.FS {
	sub, err := fs.Sub(embeddedSeeds, "seeds")
	if err != nil {
		// embed guarantees the directory exists
		panic(err)
	}
	return sub
}

// SeedDir returns a seed FS rooted at a directory on disk.
func SeedDir(dir string) fs.FS {
	return os.DirFS(dir)
}

// Load builds a catalog from every *.toml file at the root of fsys, read in
// lexical file name order. Names repeated across seed files (ignoring case) keep
// their first occurrence.
func Load(ctx context.Context, fsys fs.FS) (*Catalog, error) {
	files, err := fs.Glob(fsys, "*.toml")
	if err != nil {
		return nil, fmt.Errorf("failed to scan for seed files: %w", err)
	}
	sort.Strings(files)

	seen := utils.NewNameFilter()
	ids := make(map[string]int)
	var items []InterestItem

	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read seed file %s: %w", name, err)
		}
		var sf seedFile
		if _, err := toml.Decode(string(data), &sf); err != nil {
			return nil, fmt.Errorf("failed to parse seed file %s: %w", name, err)
		}
		fileItems, err := sf.items(path.Base(name))
		if err != nil {
			return nil, err
		}
		for _, it := range fileItems {
			if !seen.ShouldInclude(it.Name) {
				log.Debugf("Skipping duplicate seed '%s' in %s", it.Name, name)
				continue
			}
			it.ID = uniqueID(ids, string(it.Category)+"-"+utils.Slugify(it.Name))
			items = append(items, it)
		}
		log.Debugf("Loaded %d seed items from %s", len(fileItems), name)
	}

	return New(items)
}

func (sf seedFile) items(file string) ([]InterestItem, error) {
	cat := CategoryID(strings.ToLower(strings.TrimSpace(sf.Category)))
	if !cat.Valid() || cat == Custom {
		return nil, fmt.Errorf("seed file %s: %w: %q", file, ErrUnknownCategory, sf.Category)
	}

	relevance := DefaultSeedRelevance
	if sf.Relevance != nil {
		relevance = *sf.Relevance
	}

	out := make([]InterestItem, 0, len(sf.Names)+len(sf.Items))
	for _, n := range sf.Names {
		if n = strings.TrimSpace(n); n == "" {
			continue
		}
		out = append(out, InterestItem{
			Name:      n,
			Category:  cat,
			Relevance: clamp01(relevance),
			Tags:      normalizeTags(sf.Tags),
		})
	}
	for _, si := range sf.Items {
		name := strings.TrimSpace(si.Name)
		if name == "" {
			continue
		}
		r := relevance
		if si.Relevance != nil {
			r = *si.Relevance
		}
		out = append(out, InterestItem{
			Name:        name,
			Category:    cat,
			Subcategory: si.Subcategory,
			Relevance:   clamp01(r),
			Tags:        normalizeTags(append(append([]string{}, sf.Tags...), si.Tags...)),
			Skills:      si.Skills,
			Description: si.Description,
		})
	}
	return out, nil
}

func uniqueID(used map[string]int, base string) string {
	used[base]++
	if n := used[base]; n > 1 {
		return fmt.Sprintf("%s-%d", base, n)
	}
	return base
}

func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	filter := utils.NewNameFilter()
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" && filter.ShouldInclude(t) {
			out = append(out, t)
		}
	}
	return out
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}

// Loader builds a catalog at most once and hands out the same instance afterwards.
type Loader struct {
	fsys fs.FS
	mu   sync.Mutex
	done bool
	cat  *Catalog
	err  error
}

// NewLoader creates a lazy loader over a seed FS.
func NewLoader(fsys fs.FS) *Loader {
	return &Loader{fsys: fsys}
}

// Get loads the catalog on first call. Later calls return the first result,
// including a seed error. A load cut short by ctx is not kept, so the next call
// with a live context tries again.
func (l *Loader) Get(ctx context.Context) (*Catalog, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done {
		return l.cat, l.err
	}

	cat, err := Load(ctx, l.fsys)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		log.Debugf("Catalog load interrupted: %v", err)
		return nil, err
	}
	l.cat, l.err, l.done = cat, err, true
	if err == nil {
		log.Debugf("Catalog ready with %d items", cat.Len())
	}
	return l.cat, l.err
}

var defaultLoader = NewLoader(SeedFS())

// Default returns the catalog built from the embedded seeds.
func Default(ctx context.Context) (*Catalog, error) {
	return defaultLoader.Get(ctx)
}
