package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"sort"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/bastiangx/typr/internal/logger"
	"github.com/bastiangx/typr/pkg/config"
	"github.com/bastiangx/typr/pkg/editor"
	"github.com/bastiangx/typr/pkg/llm"
	"github.com/bastiangx/typr/pkg/suggest"
)

var wordTail = regexp.MustCompile(`[a-zA-Z]*$`)

// contextFor builds a query context with the cursor at the end of text.
func contextFor(text string) *suggest.Context {
	buf := editor.New(text)
	end := buf.Cursor()
	line := buf.Line(end.Line)
	query := wordTail.FindString(line)
	start := suggest.Position{Line: end.Line, Ch: end.Ch - utf8.RuneCountInString(query)}
	sep := ""
	if start.Ch > 0 {
		sep = string([]rune(line)[start.Ch-1])
	}
	return &suggest.Context{Editor: buf, Start: start, End: end, Query: query, Separator: sep, Trigger: suggest.TriggerAuto}
}

func get(t *testing.T, p suggest.Provider, sc *suggest.Context, cfg *config.Config) []suggest.Suggestion {
	t.Helper()
	items, err := p.Suggestions(context.Background(), sc, cfg).Await(context.Background())
	if err != nil {
		t.Fatalf("%s: %v", p.Name(), err)
	}
	return items
}

func namesOf(items []suggest.Suggestion) []string {
	if len(items) == 0 {
		return nil
	}
	return suggest.Names(items)
}

func TestSetOrder(t *testing.T) {
	var got []string
	for _, p := range NewSet(nil).Ordered() {
		got = append(got, p.Name())
	}
	want := []string{"frontmatter", "callout", "latex", "llm", "file_scanner", "word_list"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestCallout(t *testing.T) {
	cfg := config.DefaultConfig()
	c := NewCallout()

	sc := contextFor("text\n> [!wa")
	items := get(t, c, sc, cfg)
	if !reflect.DeepEqual(namesOf(items), []string{"warning"}) {
		t.Fatalf("got %v", namesOf(items))
	}
	s := items[0]
	if s.Replacement != "[!warning] " {
		t.Errorf("replacement %q", s.Replacement)
	}
	if s.OverrideStart == nil || *s.OverrideStart != (suggest.Position{Line: 1, Ch: 2}) {
		t.Errorf("override start %v", s.OverrideStart)
	}

	sc = contextFor("> > [!")
	if got := len(get(t, c, sc, cfg)); got != len(calloutTypes) {
		t.Errorf("empty type should list all %d callouts, got %d", len(calloutTypes), got)
	}

	if got := get(t, c, contextFor("just [!no"), cfg); len(got) != 0 {
		t.Errorf("outside a quote got %v", namesOf(got))
	}

	cfg.Providers.Callout = false
	if got := get(t, c, contextFor("> [!no"), cfg); len(got) != 0 {
		t.Errorf("disabled provider got %v", namesOf(got))
	}
}

func TestCalloutSwallowsClosingBracket(t *testing.T) {
	buf := editor.New("> [!in]")
	buf.SetCursor(suggest.Position{Line: 0, Ch: 6})
	end := buf.Cursor()
	sc := &suggest.Context{Editor: buf, Start: suggest.Position{Ch: 4}, End: end, Query: "in", Separator: "!"}

	items := get(t, NewCallout(), sc, config.DefaultConfig())
	if len(items) != 1 || items[0].OverrideEnd == nil || items[0].OverrideEnd.Ch != 7 {
		t.Fatalf("want override end after ], got %+v", items)
	}
}

func TestLatex(t *testing.T) {
	cfg := config.DefaultConfig()
	l := NewLatex()

	items := get(t, l, contextFor(`$x = \fr`), cfg)
	if !reflect.DeepEqual(namesOf(items), []string{`\frac`}) {
		t.Fatalf("got %v", namesOf(items))
	}
	if items[0].Replacement != `\frac{#}{#}` {
		t.Errorf("replacement %q", items[0].Replacement)
	}
	if *items[0].OverrideStart != (suggest.Position{Line: 0, Ch: 5}) {
		t.Errorf("override start %v", *items[0].OverrideStart)
	}

	if got := namesOf(get(t, l, contextFor(`$$\Del`), cfg)); !reflect.DeepEqual(got, []string{`\Delta`}) {
		t.Errorf("case-sensitive match got %v", got)
	}
	if got := get(t, l, contextFor(`no math \fr`), cfg); len(got) != 0 {
		t.Errorf("outside math got %v", namesOf(got))
	}
	cfg.Providers.LatexRequireMathBlock = false
	if got := get(t, l, contextFor(`no math \fr`), cfg); len(got) != 1 {
		t.Errorf("math block not required, got %v", namesOf(got))
	}
}

func TestInsideMath(t *testing.T) {
	testCases := []struct {
		text string
		want bool
	}{
		{`$x`, true},
		{`$x$ y`, false},
		{`$$\n\alpha`, true},
		{"$$\na\n$$ b", false},
		{`\$ x`, false},
		{"$a\nb", false},
	}
	for _, tc := range testCases {
		if got := insideMath(tc.text); got != tc.want {
			t.Errorf("insideMath(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestFrontMatter(t *testing.T) {
	cfg := config.DefaultConfig()
	f := NewFrontMatter()
	err := f.ScanDocument("---\ntags: [golang, gopher]\nstatus: draft, done\nauthors:\n  - ada\n  - alan\n---\nbody")
	if err != nil {
		t.Fatal(err)
	}

	if got := namesOf(get(t, f, contextFor("---\nta"), cfg)); !reflect.DeepEqual(got, []string{"tags"}) {
		t.Errorf("key completion got %v", got)
	}
	items := get(t, f, contextFor("---\nst"), cfg)
	if len(items) != 1 || items[0].Replacement != "status: " {
		t.Errorf("key replacement got %+v", items)
	}

	items = get(t, f, contextFor("---\ntags: [golang, go"), cfg)
	if !reflect.DeepEqual(namesOf(items), []string{"golang", "gopher"}) {
		t.Fatalf("value completion got %v", namesOf(items))
	}
	if items[0].OverrideStart.Ch != len("tags: [golang, ") {
		t.Errorf("override start %v", *items[0].OverrideStart)
	}

	if got := namesOf(get(t, f, contextFor("---\nstatus: d"), cfg)); !reflect.DeepEqual(got, []string{"done", "draft"}) {
		t.Errorf("comma separated values got %v", got)
	}
	if got := namesOf(get(t, f, contextFor("---\nauthors:\n  - ada\n  - al"), cfg)); !reflect.DeepEqual(got, []string{"alan"}) {
		t.Errorf("list item values got %v", got)
	}

	if got := get(t, f, contextFor("---\ntitle: x\n---\nta"), cfg); len(got) != 0 {
		t.Errorf("after the block got %v", namesOf(got))
	}
	if got := get(t, f, contextFor("ta"), cfg); len(got) != 0 {
		t.Errorf("no front matter got %v", namesOf(got))
	}
}

func TestFrontMatterBadYAML(t *testing.T) {
	if err := NewFrontMatter().ScanDocument("---\nkey: [unclosed\n---\n"); err == nil {
		t.Error("want parse error")
	}
	if err := NewFrontMatter().ScanDocument("no front matter"); err != nil {
		t.Errorf("plain document: %v", err)
	}
}

func TestFileScanner(t *testing.T) {
	cfg := config.DefaultConfig()
	s := NewFileScanner()
	n, err := s.ScanText("Gophers gather. gophers go 1234 aaaa gopherish", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Errorf("indexed %d words, want 5 (%v)", n, s.Engine().Words())
	}

	got := namesOf(get(t, s, contextFor("the gop"), cfg))
	want := []string{"Gophers", "gophers", "gopherish"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	cfg.Trigger.CharacterRegex = `a-z\`
	if _, err := s.ScanText("x", cfg); err == nil {
		t.Error("invalid character class should fail")
	}
}

func TestFileScannerDir(t *testing.T) {
	dir := t.TempDir()
	write := func(name, text string) {
		t.Helper()
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(text), 0644); err != nil {
			t.Fatal(err)
		}
	}
	write("a.md", "---\ntags: [notes]\n---\nmarkdown words")
	write("sub/b.txt", "plain text")
	write("c.go", "package ignored")
	write(".hidden/d.md", "secret")

	s := NewFileScanner()
	f := NewFrontMatter()
	_, err := s.ScanDir(dir, config.DefaultConfig(), func(_, text string) {
		if err := f.ScanDocument(text); err != nil {
			t.Error(err)
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	words := s.Engine().Words()
	for _, w := range []string{"markdown", "plain"} {
		if !contains(words, w) {
			t.Errorf("%q missing from %v", w, words)
		}
	}
	for _, w := range []string{"package", "secret"} {
		if contains(words, w) {
			t.Errorf("%q should not be indexed", w)
		}
	}
	if !reflect.DeepEqual(f.Values("tags"), []string{"notes"}) {
		t.Errorf("front matter values %v", f.Values("tags"))
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestWordList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "en.txt")
	if err := os.WriteFile(path, []byte("word\nworld\nwork\n"), 0644); err != nil {
		t.Fatal(err)
	}
	w := NewWordList()
	if _, err := w.LoadFiles(path); err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultConfig()
	got := namesOf(get(t, w, contextFor("wor"), cfg))
	if !reflect.DeepEqual(got, []string{"word", "work", "world"}) {
		t.Errorf("got %v", got)
	}
	cfg.Providers.WordList = false
	if got := get(t, w, contextFor("wor"), cfg); len(got) != 0 {
		t.Errorf("disabled provider got %v", namesOf(got))
	}
}

func TestLLMProviderDisabled(t *testing.T) {
	p := NewSet(nil).LLM
	cfg := config.DefaultConfig()
	cfg.Providers.LLM = true
	res := p.Suggestions(context.Background(), contextFor("hello"), cfg)
	if res.Pending() {
		t.Error("blank endpoint must not start a request")
	}
	cfg.Providers.LLM = false
	cfg.LLM.Endpoint = "http://127.0.0.1:1/v1/chat/completions"
	if p.Suggestions(context.Background(), contextFor("hello"), cfg).Pending() {
		t.Error("disabled provider must not start a request")
	}
}

func TestFailingLLMLeavesOtherProviders(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := llm.NewClient(srv.Client())
	client.SetLogger(logger.Discard())
	set := NewSet(client)
	set.WordList.Engine().AddWords([]string{"word", "work"})

	cfg := config.DefaultConfig()
	cfg.Providers.LLM = true
	cfg.LLM.Endpoint = srv.URL

	agg := suggest.NewAggregator(nil, set.Ordered()...)
	batch, ok := agg.Suggestions(context.Background(), contextFor("the wor"), cfg)
	if !ok {
		t.Fatal("want word list suggestions")
	}
	got := namesOf(batch.Items)
	sort.Strings(got)
	if !reflect.DeepEqual(got, []string{"word", "work"}) {
		t.Errorf("got %v", got)
	}
	if batch.BlockedBy != "" {
		t.Errorf("blocked by %q", batch.BlockedBy)
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("want 1 request, got %d", n)
	}
	if st := client.Stats(); st.Failures != 1 {
		t.Errorf("want 1 failure, got %+v", st)
	}
}
