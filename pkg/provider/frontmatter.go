package provider

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/bastiangx/typr/internal/utils"
	"github.com/bastiangx/typr/pkg/config"
	"github.com/bastiangx/typr/pkg/suggest"
	"gopkg.in/yaml.v3"
)

const frontMatterFence = "---"

var (
	builtinKeys = []string{"tags", "aliases", "cssclasses", "title", "date", "publish"}

	listItemRe = regexp.MustCompile(`^\s*-\s*`)
	bareKeyRe  = regexp.MustCompile(`^([\w-]+):\s*$`)
)

// FrontMatter completes keys and values inside a leading "---" YAML block.
// Keys and values are learned from the documents passed to ScanDocument.
type FrontMatter struct {
	mu     sync.RWMutex
	keys   map[string]bool
	values map[string]map[string]bool
}

func NewFrontMatter() *FrontMatter {
	f := &FrontMatter{
		keys:   make(map[string]bool),
		values: make(map[string]map[string]bool),
	}
	for _, k := range builtinKeys {
		f.keys[k] = true
	}
	return f
}

func (f *FrontMatter) Name() string                  { return "frontmatter" }
func (f *FrontMatter) BlocksAllOtherProviders() bool { return true }

// ScanDocument records the keys and values of text's front matter.
// Documents without front matter are ignored.
func (f *FrontMatter) ScanDocument(text string) error {
	block, ok := extractFrontMatter(text)
	if !ok {
		return nil
	}
	var data map[string]any
	if err := yaml.Unmarshal([]byte(block), &data); err != nil {
		return fmt.Errorf("parse front matter: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for key, v := range data {
		f.keys[key] = true
		for _, val := range flattenValue(v) {
			if f.values[key] == nil {
				f.values[key] = make(map[string]bool)
			}
			f.values[key][val] = true
		}
	}
	return nil
}

// Keys returns every known key, sorted.
func (f *FrontMatter) Keys() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return sortedSet(f.keys)
}

// Values returns the values seen for key, sorted.
func (f *FrontMatter) Values(key string) []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return sortedSet(f.values[key])
}

func (f *FrontMatter) Suggestions(_ context.Context, sc *suggest.Context, settings *config.Config) suggest.Result {
	if !settings.Providers.FrontMatter || sc.Editor == nil || !inFrontMatter(sc.Editor, sc.End.Line) {
		return suggest.Empty()
	}
	line := sc.LineBeforeCursor()

	if key, ok := f.valueKey(sc.Editor, sc.End.Line, line); ok {
		return suggest.Ready(f.valueSuggestions(key, line, sc))
	}

	// key position: the whole line so far is the key being typed
	if strings.TrimSpace(line) != sc.Query || sc.Query == "" {
		return suggest.Empty()
	}
	var out []suggest.Suggestion
	for _, k := range f.Keys() {
		if k != sc.Query && foldedPrefix(k, sc.Query) {
			out = append(out, suggest.Suggestion{DisplayName: k, Replacement: k + ": "})
		}
	}
	return suggest.Ready(out)
}

// valueKey finds the key whose value the cursor is in, either "key: ..." on
// the same line or a list item below a bare "key:" line.
func (f *FrontMatter) valueKey(ed suggest.Editor, lineNo int, line string) (string, bool) {
	if listItemRe.MatchString(line) {
		for n := lineNo - 1; n > 0; n-- {
			prev := ed.Line(n)
			if listItemRe.MatchString(prev) {
				continue
			}
			if m := bareKeyRe.FindStringSubmatch(prev); m != nil {
				return m[1], true
			}
			return "", false
		}
		return "", false
	}
	i := strings.Index(line, ":")
	if i <= 0 {
		return "", false
	}
	return strings.TrimSpace(line[:i]), true
}

func (f *FrontMatter) valueSuggestions(key, line string, sc *suggest.Context) []suggest.Suggestion {
	tokenStart := strings.LastIndexAny(line, ":,[") + 1
	if m := listItemRe.FindString(line); m != "" {
		tokenStart = len(m)
	}
	for tokenStart < len(line) && line[tokenStart] == ' ' {
		tokenStart++
	}
	token := line[tokenStart:]
	if token == "" {
		return nil
	}
	start := suggest.Position{Line: sc.End.Line, Ch: utf8.RuneCountInString(line[:tokenStart])}

	var out []suggest.Suggestion
	for _, v := range f.Values(key) {
		if v == token || !foldedPrefix(v, token) {
			continue
		}
		s := start
		out = append(out, suggest.Suggestion{DisplayName: v, Replacement: v, OverrideStart: &s})
	}
	return out
}

// inFrontMatter reports whether line lies inside an unterminated leading block.
func inFrontMatter(ed suggest.Editor, line int) bool {
	if line < 1 || ed.LineCount() < 2 || strings.TrimSpace(ed.Line(0)) != frontMatterFence {
		return false
	}
	for n := 1; n <= line; n++ {
		if strings.TrimSpace(ed.Line(n)) == frontMatterFence {
			return false
		}
	}
	return true
}

func extractFrontMatter(text string) (string, bool) {
	lines := strings.Split(text, "\n")
	if len(lines) < 2 || strings.TrimSpace(lines[0]) != frontMatterFence {
		return "", false
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == frontMatterFence {
			return strings.Join(lines[1:i], "\n"), true
		}
	}
	return "", false
}

func flattenValue(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		var out []string
		for _, part := range strings.Split(t, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		return out
	case []any:
		var out []string
		for _, item := range t {
			out = append(out, flattenValue(item)...)
		}
		return out
	case map[string]any:
		return nil
	default:
		return []string{fmt.Sprint(t)}
	}
}

func foldedPrefix(candidate, query string) bool {
	return utils.PrefixMatch(utils.Normalize(candidate, true, false), utils.Normalize(query, true, false))
}

func sortedSet(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
