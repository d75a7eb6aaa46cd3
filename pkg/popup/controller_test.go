package popup

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bastiangx/typr/pkg/config"
	"github.com/bastiangx/typr/pkg/editor"
	"github.com/bastiangx/typr/pkg/provider"
	"github.com/bastiangx/typr/pkg/suggest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newController(t *testing.T, cfg *config.Config, words ...string) *Controller {
	t.Helper()
	set := provider.NewSet(nil)
	set.WordList.Engine().AddWords(words)
	agg := suggest.NewAggregator(nil, set.Ordered()...)
	return NewController(agg, func() *config.Config { return cfg })
}

func TestDetect(t *testing.T) {
	cfg := config.DefaultConfig()

	testCases := []struct {
		text, query, sep string
		start           int
	}{
		{"the wor", "wor", " ", 4},
		{"wor", "wor", "", 0},
		{"über grö", "grö", " ", 5},
		{"x = \\fr", "fr", "\\", 5},
		{"ends with space ", "", " ", 16},
		{"> [!no", "no", "!", 4},
	}
	for _, tc := range testCases {
		sc, err := Detect(editor.New(tc.text), cfg, suggest.TriggerAuto)
		require.NoError(t, err)
		assert.Equal(t, tc.query, sc.Query, tc.text)
		assert.Equal(t, tc.sep, sc.Separator, tc.text)
		assert.Equal(t, tc.start, sc.Start.Ch, tc.text)
		assert.Equal(t, suggest.TriggerAuto, sc.Trigger)
	}
}

func TestDetectLookBack(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Trigger.MaxLookBackDistance = 4
	sc, err := Detect(editor.New("a verylongword"), cfg, suggest.TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, "word", sc.Query)
	assert.Empty(t, sc.Separator, "query was cut inside a word")

	cfg.Trigger.MaxLookBackDistance = 5
	sc, err = Detect(editor.New("xx word"), cfg, suggest.TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, "word", sc.Query)
	assert.Equal(t, " ", sc.Separator)
}

func TestDetectBadPattern(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Trigger.CharacterRegex = `a-z\`
	_, err := Detect(editor.New("x"), cfg, suggest.TriggerAuto)
	assert.Error(t, err)
}

func TestTriggerSelectAccept(t *testing.T) {
	cfg := config.DefaultConfig()
	c := newController(t, cfg, "word", "world", "work")
	buf := editor.New("the wor")

	require.True(t, c.Trigger(context.Background(), buf, suggest.TriggerAuto))
	assert.Equal(t, Focused, c.State())
	assert.Equal(t, []string{"word", "work", "world"}, suggest.Names(c.Items()))
	assert.Equal(t, 0, c.SelectedIndex())

	c.SelectNext()
	c.SelectNext()
	c.SelectNext()
	assert.Equal(t, 0, c.SelectedIndex())
	c.SelectPrevious()
	assert.Equal(t, 2, c.SelectedIndex())
	assert.True(t, c.SetSelected(1))
	assert.False(t, c.SetSelected(3))

	require.True(t, c.Accept(buf))
	assert.Equal(t, "the work", buf.Text())
	assert.Equal(t, suggest.Position{Line: 0, Ch: 8}, buf.Cursor())
	assert.Equal(t, Closed, c.State())
	assert.Equal(t, -1, c.SelectedIndex())
	assert.False(t, c.Accept(buf))
}

func TestAcceptInsertsSpace(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Trigger.InsertSpaceAfterComplete = true
	c := newController(t, cfg, "word")
	buf := editor.New("wor")

	require.True(t, c.Trigger(context.Background(), buf, suggest.TriggerManual))
	require.True(t, c.Accept(buf))
	assert.Equal(t, "word ", buf.Text())
	assert.Equal(t, suggest.Position{Line: 0, Ch: 5}, buf.Cursor())
}

func TestJustClosedSwallowsOneAutoTrigger(t *testing.T) {
	cfg := config.DefaultConfig()
	c := newController(t, cfg, "word")
	buf := editor.New("wor")

	require.True(t, c.Trigger(context.Background(), buf, suggest.TriggerAuto))
	c.Close()

	assert.False(t, c.Trigger(context.Background(), buf, suggest.TriggerAuto))
	assert.True(t, c.Trigger(context.Background(), buf, suggest.TriggerAuto))

	c.Close()
	assert.True(t, c.Trigger(context.Background(), buf, suggest.TriggerManual), "manual triggers are never swallowed")
}

func TestAutoTriggerDisabled(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Trigger.AutoTrigger = false
	cfg.Trigger.AutoFocus = false
	c := newController(t, cfg, "word")
	buf := editor.New("wor")

	assert.False(t, c.Trigger(context.Background(), buf, suggest.TriggerAuto))
	require.True(t, c.Trigger(context.Background(), buf, suggest.TriggerManual))
	assert.Equal(t, Focused, c.State())
}

func TestOpenWithoutAutoFocus(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Trigger.AutoFocus = false
	c := newController(t, cfg, "word")

	require.True(t, c.Trigger(context.Background(), editor.New("wor"), suggest.TriggerAuto))
	assert.Equal(t, Open, c.State())
	c.Focus()
	assert.Equal(t, Focused, c.State())
}

func TestNothingFoundClosesPopup(t *testing.T) {
	cfg := config.DefaultConfig()
	c := newController(t, cfg, "word")
	assert.False(t, c.Trigger(context.Background(), editor.New("xyz"), suggest.TriggerAuto))
	assert.Equal(t, Closed, c.State())
	assert.Nil(t, c.Context())
}

func TestAcceptCalloutUsesOverrideSpan(t *testing.T) {
	cfg := config.DefaultConfig()
	c := newController(t, cfg)
	buf := editor.New("> [!no")

	require.True(t, c.Trigger(context.Background(), buf, suggest.TriggerAuto))
	assert.Equal(t, []string{"note"}, suggest.Names(c.Items()))
	assert.Equal(t, suggest.Position{Line: 0, Ch: 2}, c.Context().Start)

	require.True(t, c.Accept(buf))
	assert.Equal(t, "> [!note] ", buf.Text())
	assert.Equal(t, suggest.Position{Line: 0, Ch: 10}, buf.Cursor())
}

func TestAcceptSnippetHandsOff(t *testing.T) {
	cfg := config.DefaultConfig()
	c := newController(t, cfg)
	buf := editor.New(`$\fra`)

	var gotReplacement string
	var gotStart suggest.Position
	c.SetSnippetHandler(func(replacement string, start suggest.Position, ed suggest.Editor) bool {
		gotReplacement, gotStart = replacement, start
		return true
	})

	require.True(t, c.Trigger(context.Background(), buf, suggest.TriggerAuto))
	require.True(t, c.Accept(buf))
	assert.Equal(t, `\frac{#}{#}`, gotReplacement)
	assert.Equal(t, suggest.Position{Line: 0, Ch: 1}, gotStart)
	assert.Equal(t, `$\frac{#}{#}`, buf.Text())
}

func TestAcceptSnippetWithoutHandler(t *testing.T) {
	cfg := config.DefaultConfig()
	c := newController(t, cfg)
	buf := editor.New(`$\sqr`)

	require.True(t, c.Trigger(context.Background(), buf, suggest.TriggerAuto))
	require.True(t, c.Accept(buf))
	assert.Equal(t, `$\sqrt{#}`, buf.Text())
	assert.Equal(t, suggest.Position{Line: 0, Ch: 9}, buf.Cursor())
}

func TestWordListFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte("gopher\ngolang\n"), 0644))

	set := provider.NewSet(nil)
	_, err := set.WordList.LoadFiles(path)
	require.NoError(t, err)
	cfg := config.DefaultConfig()
	c := NewController(suggest.NewAggregator(nil, set.Ordered()...), func() *config.Config { return cfg })

	require.True(t, c.Trigger(context.Background(), editor.New("go gop"), suggest.TriggerAuto))
	assert.Equal(t, []string{"gopher"}, suggest.Names(c.Items()))
}
