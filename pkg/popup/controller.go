package popup

import (
	"context"
	"strings"
	"sync"

	"github.com/bastiangx/typr/internal/logger"
	"github.com/bastiangx/typr/pkg/config"
	"github.com/bastiangx/typr/pkg/editor"
	"github.com/bastiangx/typr/pkg/suggest"
	"github.com/charmbracelet/log"
)

// State is the popup visibility.
type State int

const (
	Closed State = iota
	// Open shows items without taking keyboard focus.
	Open
	// Focused shows items and owns selection keys.
	Focused
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case Focused:
		return "focused"
	}
	return "closed"
}

// snippetMarkers are the characters that turn a replacement into a snippet.
const snippetMarkers = "#~"

// SnippetHandler expands a snippet replacement that was just inserted at
// start. It returns false to fall back to plain cursor placement.
type SnippetHandler func(replacement string, start suggest.Position, ed suggest.Editor) bool

// Controller owns one popup session at a time. Safe for concurrent use.
type Controller struct {
	agg      *suggest.Aggregator
	settings func() *config.Config
	log      *log.Logger

	mu         sync.Mutex
	snippets   SnippetHandler
	state      State
	items      []suggest.Suggestion
	selected   int
	sc         *suggest.Context
	justClosed bool
}

// NewController returns a closed popup. settings is called on every trigger
// so reloaded configs take effect immediately.
func NewController(agg *suggest.Aggregator, settings func() *config.Config) *Controller {
	return &Controller{
		agg:      agg,
		settings: settings,
		log:      logger.New("popup"),
	}
}

// SetSnippetHandler installs the snippet expansion callback.
func (c *Controller) SetSnippetHandler(h SnippetHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snippets = h
}

// Trigger queries the providers at the cursor and opens the popup when
// anything comes back. An automatic trigger right after the popup closed is
// swallowed once so the edit that closed it does not reopen it.
func (c *Controller) Trigger(ctx context.Context, ed suggest.Editor, source suggest.TriggerSource) bool {
	cfg := c.settings()

	c.mu.Lock()
	if source != suggest.TriggerManual {
		if c.justClosed {
			c.justClosed = false
			c.mu.Unlock()
			return false
		}
		if !cfg.Trigger.AutoTrigger {
			c.mu.Unlock()
			return false
		}
	}
	c.justClosed = false
	c.mu.Unlock()

	sc, err := Detect(ed, cfg, source)
	if err != nil {
		c.log.Warn("cannot detect query", "err", err)
		c.Close()
		return false
	}

	batch, ok := c.agg.Suggestions(ctx, sc, cfg)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !ok {
		c.reset()
		return false
	}
	c.sc = sc
	c.items = batch.Items
	c.selected = 0
	c.state = Open
	if cfg.Trigger.AutoFocus || source == suggest.TriggerManual {
		c.state = Focused
	}
	return true
}

// State returns the popup state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Context returns the context of the current session, or nil when closed.
func (c *Controller) Context() *suggest.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sc
}

// Items returns the suggestions shown.
func (c *Controller) Items() []suggest.Suggestion {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items
}

// SelectedIndex returns the highlighted item, or -1 when closed.
func (c *Controller) SelectedIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Closed {
		return -1
	}
	return c.selected
}

// SetSelected highlights item i and reports whether i was in range.
func (c *Controller) SetSelected(i int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Closed || i < 0 || i >= len(c.items) {
		return false
	}
	c.selected = i
	return true
}

// SelectNext moves the highlight down, wrapping at the end.
func (c *Controller) SelectNext() {
	c.move(1)
}

// SelectPrevious moves the highlight up, wrapping at the start.
func (c *Controller) SelectPrevious() {
	c.move(-1)
}

func (c *Controller) move(delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.items)
	if c.state == Closed || n == 0 {
		return
	}
	c.selected = ((c.selected+delta)%n + n) % n
}

// Focus gives an open popup the keyboard.
func (c *Controller) Focus() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Open {
		c.state = Focused
	}
}

// Close hides the popup and suppresses the next automatic trigger.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Closed {
		c.justClosed = true
	}
	c.reset()
}

func (c *Controller) reset() {
	c.state = Closed
	c.items = nil
	c.selected = 0
	c.sc = nil
}

// Accept inserts the highlighted suggestion and closes the popup.
func (c *Controller) Accept(ed suggest.Editor) bool {
	c.mu.Lock()
	if c.state == Closed || len(c.items) == 0 {
		c.mu.Unlock()
		return false
	}
	item := c.items[c.selected]
	sc := c.sc
	handler := c.snippets
	c.justClosed = true
	c.reset()
	c.mu.Unlock()

	cfg := c.settings()
	start, end := sc.Start, sc.End
	if item.OverrideStart != nil {
		start = *item.OverrideStart
	}
	if item.OverrideEnd != nil {
		end = *item.OverrideEnd
	}
	ed.ReplaceRange(item.Replacement, start, end)

	if handler != nil && strings.ContainsAny(item.Replacement, snippetMarkers) {
		if handler(item.Replacement, start, ed) {
			return true
		}
	}

	cursor := editor.EndOf(item.Replacement, start)
	if cfg.Trigger.InsertSpaceAfterComplete && !strings.HasSuffix(item.Replacement, " ") {
		ed.ReplaceRange(" ", cursor, cursor)
		cursor.Ch++
	}
	ed.SetCursor(cursor)
	return true
}
