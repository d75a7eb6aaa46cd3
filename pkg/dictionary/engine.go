// Package dictionary holds word lists and answers prefix queries against them.
package dictionary

import (
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/bastiangx/typr/internal/utils"
	"github.com/bastiangx/typr/pkg/config"
	"github.com/bastiangx/typr/pkg/suggest"
	"github.com/tchap/go-patricia/v2/patricia"
)

// Options are the per-query matching flags.
type Options struct {
	IgnoreCase       bool
	IgnoreDiacritics bool
	Mode             config.InsertionMode
	// MinLength is the shortest query that is answered at all.
	MinLength int
}

// OptionsFromConfig derives matching flags from the user settings.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		IgnoreCase:       cfg.Words.InsertionMode.IgnoresCase(),
		IgnoreDiacritics: cfg.Words.IgnoreDiacriticsWhenFiltering,
		Mode:             cfg.Words.InsertionMode,
		MinLength:        cfg.Trigger.MinWordTriggerLength,
	}
}

type entry struct {
	word  string
	index int
}

// bucket holds every word sharing a first character.
// The trie maps each word to its entry and serves exact-case prefix lookups.
type bucket struct {
	entries []entry
	trie    *patricia.Trie
}

// queryCache remembers the last answered query. One entry only.
type queryCache struct {
	valid            bool
	query            string
	firstChar        string
	ignoreCase       bool
	ignoreDiacritics bool
	matches          []entry
}

// Engine is a bucketed dictionary with a single-entry query cache.
// Safe for concurrent use.
type Engine struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	size    int
	cache   queryCache
}

// NewEngine returns an empty dictionary.
func NewEngine() *Engine {
	return &Engine{buckets: make(map[string]*bucket)}
}

// AddWord indexes word and reports whether it was new.
func (e *Engine) AddWord(word string) bool {
	first := utils.FirstChar(word)
	if first == "" {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	b, ok := e.buckets[first]
	if !ok {
		b = &bucket{trie: patricia.NewTrie()}
		e.buckets[first] = b
	}
	ent := entry{word: word, index: e.size}
	if !b.trie.Insert(patricia.Prefix(word), ent) {
		return false
	}
	b.entries = append(b.entries, ent)
	e.size++
	e.cache = queryCache{}
	return true
}

// AddWords indexes words in order and returns how many were new.
func (e *Engine) AddWords(words []string) int {
	added := 0
	for _, w := range words {
		if e.AddWord(w) {
			added++
		}
	}
	return added
}

// Clear drops every word and the cached query.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.buckets = make(map[string]*bucket)
	e.size = 0
	e.cache = queryCache{}
}

// Size returns the number of indexed words.
func (e *Engine) Size() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.size
}

// Words returns every indexed word in insertion order.
func (e *Engine) Words() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	all := make([]entry, 0, e.size)
	for _, b := range e.buckets {
		all = append(all, b.entries...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].index < all[j].index })
	out := make([]string, len(all))
	for i, ent := range all {
		out[i] = ent.word
	}
	return out
}

// Query returns every word whose normalized form starts with the normalized
// query, shortest first and in insertion order among equal lengths.
//
// With IgnoreDiacritics every bucket whose key folds to the query's first
// character is scanned, which degrades to a scan over all buckets for
// dictionaries with many accented initials.
func (e *Engine) Query(query string, opts Options) []suggest.Suggestion {
	if query == "" || utf8.RuneCountInString(query) < opts.MinLength {
		return nil
	}
	norm := utils.Normalize(query, opts.IgnoreCase, opts.IgnoreDiacritics)
	first := utils.FirstChar(norm)

	e.mu.Lock()
	var matches []entry
	if e.cacheUsable(norm, first, opts) {
		matches = filterEntries(e.cache.matches, norm, opts)
	} else {
		matches = e.scan(query, norm, first, opts)
	}
	e.cache = queryCache{
		valid:            true,
		query:            norm,
		firstChar:        first,
		ignoreCase:       opts.IgnoreCase,
		ignoreDiacritics: opts.IgnoreDiacritics,
		matches:          matches,
	}
	e.mu.Unlock()

	return toSuggestions(matches, query, opts.Mode)
}

func (e *Engine) cacheUsable(norm, first string, opts Options) bool {
	c := &e.cache
	return c.valid &&
		c.ignoreCase == opts.IgnoreCase &&
		c.ignoreDiacritics == opts.IgnoreDiacritics &&
		c.firstChar == first &&
		len(norm) > len(c.query) &&
		strings.HasPrefix(norm, c.query)
}

func (e *Engine) scan(query, norm, first string, opts Options) []entry {
	if !opts.IgnoreCase && !opts.IgnoreDiacritics {
		b, ok := e.buckets[first]
		if !ok {
			return nil
		}
		var out []entry
		_ = b.trie.VisitSubtree(patricia.Prefix(query), func(_ patricia.Prefix, item patricia.Item) error {
			out = append(out, item.(entry))
			return nil
		})
		sortEntries(out)
		return out
	}

	var out []entry
	for _, b := range e.candidateBuckets(first, opts) {
		out = append(out, filterEntries(b.entries, norm, opts)...)
	}
	sortEntries(out)
	return out
}

func (e *Engine) candidateBuckets(first string, opts Options) []*bucket {
	var out []*bucket
	if opts.IgnoreDiacritics {
		for key, b := range e.buckets {
			if utils.Normalize(key, opts.IgnoreCase, true) == first {
				out = append(out, b)
			}
		}
		return out
	}
	if b, ok := e.buckets[first]; ok {
		out = append(out, b)
	}
	if opts.IgnoreCase {
		if upper := strings.ToUpper(first); upper != first {
			if b, ok := e.buckets[upper]; ok {
				out = append(out, b)
			}
		}
	}
	return out
}

func filterEntries(entries []entry, norm string, opts Options) []entry {
	var out []entry
	for _, ent := range entries {
		if utils.PrefixMatch(utils.Normalize(ent.word, opts.IgnoreCase, opts.IgnoreDiacritics), norm) {
			out = append(out, ent)
		}
	}
	return out
}

func sortEntries(entries []entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].index < entries[j].index })
}

func toSuggestions(matches []entry, query string, mode config.InsertionMode) []suggest.Suggestion {
	if len(matches) == 0 {
		return nil
	}
	qlen := utf8.RuneCountInString(query)
	out := make([]suggest.Suggestion, len(matches))
	for i, m := range matches {
		word := m.word
		if mode == config.IgnoreCaseAppend {
			word = query + utils.RuneTail(m.word, qlen)
		}
		out[i] = suggest.NewSuggestion(word)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return utf8.RuneCountInString(out[i].DisplayName) < utf8.RuneCountInString(out[j].DisplayName)
	})
	return out
}
