package suggest

import (
	"errors"
	"io/fs"
	"sort"
	"sync"

	"github.com/bastiangx/typr/internal/utils"
	"github.com/charmbracelet/log"
)

// WordBlacklist is a Blacklist keyed by display name, optionally backed by
// a word-per-line file.
type WordBlacklist struct {
	mu    sync.RWMutex
	words map[string]struct{}
	path  string
}

// NewWordBlacklist returns an empty in-memory blacklist.
func NewWordBlacklist(words ...string) *WordBlacklist {
	b := &WordBlacklist{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		b.words[w] = struct{}{}
	}
	return b
}

// LoadBlacklist reads path if it exists. A missing file gives an empty
// blacklist that will be created on the first Save.
func LoadBlacklist(path string) (*WordBlacklist, error) {
	b := NewWordBlacklist()
	b.path = path
	lines, err := utils.ReadLines(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return b, nil
		}
		return b, err
	}
	for _, l := range lines {
		b.words[l] = struct{}{}
	}
	log.Debugf("Loaded %d blacklisted words from %s", len(lines), path)
	return b, nil
}

// Has reports whether s is blacklisted.
func (b *WordBlacklist) Has(s Suggestion) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.words[s.DisplayName]
	return ok
}

// Add blacklists a display name and reports whether it was new.
func (b *WordBlacklist) Add(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.words[name]; ok {
		return false
	}
	b.words[name] = struct{}{}
	return true
}

// Remove drops a display name and reports whether it was present.
func (b *WordBlacklist) Remove(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.words[name]; !ok {
		return false
	}
	delete(b.words, name)
	return true
}

// Words returns the blacklisted names sorted.
func (b *WordBlacklist) Words() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.words))
	for w := range b.words {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// Save writes the blacklist back to the file it was loaded from.
// Blacklists created with NewWordBlacklist have nowhere to go and Save is a no-op.
func (b *WordBlacklist) Save() error {
	if b.path == "" {
		return nil
	}
	return utils.WriteLines(b.path, b.Words())
}
