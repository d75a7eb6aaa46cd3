package suggest

import "fmt"

// Position is a cursor location. Ch counts runes, not bytes.
type Position struct {
	Line int `msgpack:"ln" json:"line"`
	Ch   int `msgpack:"ch" json:"ch"`
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Ch)
}

// Before reports whether p comes strictly before o.
func (p Position) Before(o Position) bool {
	return p.Line < o.Line || (p.Line == o.Line && p.Ch < o.Ch)
}

// Suggestion is a single completion candidate.
// Providers build it once and never modify it afterwards.
type Suggestion struct {
	// DisplayName is shown in the popup and is the dedup key.
	DisplayName string
	// Replacement is the text inserted into the document.
	Replacement string
	Color       string
	Icon        string
	// OverrideStart/OverrideEnd replace the default trigger span when set.
	OverrideStart *Position
	OverrideEnd   *Position
}

// NewSuggestion returns a suggestion that displays and inserts the same text.
func NewSuggestion(word string) Suggestion {
	return Suggestion{DisplayName: word, Replacement: word}
}

// Names returns the display names, mostly useful for logs and tests.
func Names(items []Suggestion) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = s.DisplayName
	}
	return out
}

// TriggerSource records why a query fired.
type TriggerSource string

const (
	TriggerManual  TriggerSource = "manual"
	TriggerAuto    TriggerSource = "auto"
	TriggerUnknown TriggerSource = "unknown"
)

// ParseTriggerSource maps wire values to a TriggerSource, defaulting to unknown.
func ParseTriggerSource(s string) TriggerSource {
	switch TriggerSource(s) {
	case TriggerManual, TriggerAuto:
		return TriggerSource(s)
	}
	return TriggerUnknown
}

// Editor is the host surface the engine reads from and writes to.
type Editor interface {
	Cursor() Position
	SetCursor(Position)
	Line(n int) string
	LineCount() int
	// Range returns the text between from (inclusive) and to (exclusive).
	Range(from, to Position) string
	ReplaceRange(text string, from, to Position)
}

// Context is the per-query snapshot handed to every provider.
// Only Start may change after construction, when a blocking provider
// matched a wider span than the query.
type Context struct {
	Editor    Editor
	Start     Position
	End       Position
	Query     string
	Separator string
	Trigger   TriggerSource
}

// TextBeforeCursor returns the whole document up to End.
func (c *Context) TextBeforeCursor() string {
	if c.Editor == nil {
		return ""
	}
	return c.Editor.Range(Position{}, c.End)
}

// LineBeforeCursor returns the cursor line up to End.
func (c *Context) LineBeforeCursor() string {
	if c.Editor == nil {
		return ""
	}
	return c.Editor.Range(Position{Line: c.End.Line}, c.End)
}
