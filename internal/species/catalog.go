// Package species builds the name → id catalog from PokéAPI and answers
// exact lookups against it.
package species

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/alpindale/tinyscripts/internal/failure"
	"github.com/alpindale/tinyscripts/internal/httpjson"
	"github.com/sahilm/fuzzy"
	"go.uber.org/zap"
)

const (
	DefaultListURL = "https://pokeapi.co/api/v2/pokemon"
	DefaultLimit   = 10000
)

// Entry is one row of the list endpoint.
type Entry struct {
	Name      string `json:"name"`
	DetailURL string `json:"url"`
}

// FailedEntry is a detail record that could not be resolved.
type FailedEntry struct {
	Name string
	Err  error
}

// Catalog is immutable once built.
type Catalog struct {
	ids   map[string]int
	names []string // sorted
}

func NewCatalog(ids map[string]int) *Catalog {
	c := &Catalog{ids: make(map[string]int, len(ids))}
	for name, id := range ids {
		key := normalize(name)
		c.ids[key] = id
	}
	for key := range c.ids {
		c.names = append(c.names, key)
	}
	sort.Strings(c.names)
	return c
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (c *Catalog) Len() int {
	return len(c.ids)
}

// Names returns the catalog keys in sorted order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Lookup is exact and case-insensitive. An unknown name is a
// failure.NotFound error, never a zero id.
func (c *Catalog) Lookup(name string) (int, error) {
	key := normalize(name)
	if id, ok := c.ids[key]; ok && key != "" {
		return id, nil
	}
	return 0, failure.NotFoundf("lookup species", "unknown species %q", name)
}

// Suggest lists up to limit names starting with prefix, alphabetically.
func (c *Catalog) Suggest(prefix string, limit int) []string {
	prefix = normalize(prefix)
	if prefix == "" || limit <= 0 {
		return nil
	}
	start := sort.SearchStrings(c.names, prefix)
	var out []string
	for _, name := range c.names[start:] {
		if !strings.HasPrefix(name, prefix) || len(out) == limit {
			break
		}
		out = append(out, name)
	}
	return out
}

// Similar ranks names by fuzzy closeness to name. It is only a hint shown
// after a failed Lookup and never stands in for one.
func (c *Catalog) Similar(name string, limit int) []string {
	name = normalize(name)
	if name == "" || limit <= 0 {
		return nil
	}
	var out []string
	for _, m := range fuzzy.Find(name, c.names) {
		if len(out) == limit {
			break
		}
		out = append(out, m.Str)
	}
	return out
}

// LoadResult keeps the successful part of a catalog build alongside the
// entries whose detail request failed.
type LoadResult struct {
	Catalog *Catalog
	Failed  []FailedEntry
}

// Loader fetches the species list and then every detail record, one by one.
type Loader struct {
	http    *httpjson.Client
	listURL string
	limit   int
	logger  *zap.Logger

	// Progress, when set, is called after every detail request.
	Progress func(done, total int)
}

func NewLoader(hc *httpjson.Client, listURL string, limit int, logger *zap.Logger) *Loader {
	if listURL == "" {
		listURL = DefaultListURL
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{http: hc, listURL: listURL, limit: limit, logger: logger}
}

func (l *Loader) Load(ctx context.Context) (LoadResult, error) {
	entries, err := l.list(ctx)
	if err != nil {
		return LoadResult{}, err
	}
	l.logger.Info("species list loaded", zap.Int("entries", len(entries)))

	ids := make(map[string]int, len(entries))
	var failed []FailedEntry
	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			return LoadResult{}, err
		}

		id, err := l.detail(ctx, e)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return LoadResult{}, err
			}
			l.logger.Warn("species detail failed", zap.String("name", e.Name), zap.Error(err))
			failed = append(failed, FailedEntry{Name: e.Name, Err: err})
		} else {
			ids[e.Name] = id
		}

		if l.Progress != nil {
			l.Progress(i+1, len(entries))
		}
	}

	return LoadResult{Catalog: NewCatalog(ids), Failed: failed}, nil
}

func (l *Loader) list(ctx context.Context) ([]Entry, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(l.limit))

	var page struct {
		Results []Entry `json:"results"`
	}
	if err := l.http.GetJSON(ctx, l.listURL, q, &page); err != nil {
		return nil, failure.Network("list species", err)
	}
	return page.Results, nil
}

func (l *Loader) detail(ctx context.Context, e Entry) (int, error) {
	if e.DetailURL == "" {
		return 0, fmt.Errorf("no detail url for %q", e.Name)
	}
	var detail struct {
		ID *int `json:"id"`
	}
	if err := l.http.GetJSON(ctx, e.DetailURL, nil, &detail); err != nil {
		return 0, failure.Network("species detail", err)
	}
	if detail.ID == nil {
		return 0, fmt.Errorf("detail for %q has no id", e.Name)
	}
	return *detail.ID, nil
}
