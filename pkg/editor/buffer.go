// Package editor provides an in-memory text buffer that satisfies suggest.Editor.
package editor

import (
	"strings"
	"sync"

	"github.com/bastiangx/typr/pkg/suggest"
)

// Buffer is a line-oriented document with a single cursor.
// Columns count runes. Safe for concurrent use.
type Buffer struct {
	mu     sync.RWMutex
	lines  [][]rune
	cursor suggest.Position
}

// New returns a buffer holding text with the cursor at the end.
func New(text string) *Buffer {
	b := &Buffer{}
	b.SetText(text)
	return b
}

// SetText replaces the whole document and moves the cursor to its end.
func (b *Buffer) SetText(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	parts := strings.Split(text, "\n")
	b.lines = make([][]rune, len(parts))
	for i, p := range parts {
		b.lines[i] = []rune(p)
	}
	last := len(b.lines) - 1
	b.cursor = suggest.Position{Line: last, Ch: len(b.lines[last])}
}

// Text returns the whole document.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	parts := make([]string, len(b.lines))
	for i, l := range b.lines {
		parts[i] = string(l)
	}
	return strings.Join(parts, "\n")
}

func (b *Buffer) Cursor() suggest.Position {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cursor
}

func (b *Buffer) SetCursor(p suggest.Position) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cursor = b.clamp(p)
}

// Line returns line n, or "" when n is out of range.
func (b *Buffer) Line(n int) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if n < 0 || n >= len(b.lines) {
		return ""
	}
	return string(b.lines[n])
}

func (b *Buffer) LineCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.lines)
}

// Range returns the text from from (inclusive) to to (exclusive).
func (b *Buffer) Range(from, to suggest.Position) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	from, to = b.clamp(from), b.clamp(to)
	if to.Before(from) {
		from, to = to, from
	}
	if from.Line == to.Line {
		return string(b.lines[from.Line][from.Ch:to.Ch])
	}
	var sb strings.Builder
	sb.WriteString(string(b.lines[from.Line][from.Ch:]))
	for i := from.Line + 1; i < to.Line; i++ {
		sb.WriteByte('\n')
		sb.WriteString(string(b.lines[i]))
	}
	sb.WriteByte('\n')
	sb.WriteString(string(b.lines[to.Line][:to.Ch]))
	return sb.String()
}

// ReplaceRange swaps the text between from and to for text. A cursor at or
// after to moves with the edit.
func (b *Buffer) ReplaceRange(text string, from, to suggest.Position) {
	b.mu.Lock()
	defer b.mu.Unlock()
	from, to = b.clamp(from), b.clamp(to)
	if to.Before(from) {
		from, to = to, from
	}

	head := string(b.lines[from.Line][:from.Ch])
	tail := string(b.lines[to.Line][to.Ch:])
	parts := strings.Split(head+text+tail, "\n")
	repl := make([][]rune, len(parts))
	for i, p := range parts {
		repl[i] = []rune(p)
	}

	lines := make([][]rune, 0, len(b.lines)-(to.Line-from.Line)+len(repl)-1)
	lines = append(lines, b.lines[:from.Line]...)
	lines = append(lines, repl...)
	lines = append(lines, b.lines[to.Line+1:]...)
	b.lines = lines

	if !b.cursor.Before(to) {
		end := EndOf(text, from)
		if b.cursor.Line == to.Line {
			b.cursor = suggest.Position{Line: end.Line, Ch: end.Ch + b.cursor.Ch - to.Ch}
		} else {
			b.cursor.Line += end.Line - to.Line
		}
	}
	b.cursor = b.clamp(b.cursor)
}

// EndOf returns where text ends when inserted at start.
func EndOf(text string, start suggest.Position) suggest.Position {
	i := strings.LastIndexByte(text, '\n')
	if i < 0 {
		return suggest.Position{Line: start.Line, Ch: start.Ch + len([]rune(text))}
	}
	return suggest.Position{
		Line: start.Line + strings.Count(text, "\n"),
		Ch:   len([]rune(text[i+1:])),
	}
}

func (b *Buffer) clamp(p suggest.Position) suggest.Position {
	if p.Line < 0 {
		return suggest.Position{}
	}
	if p.Line >= len(b.lines) {
		last := len(b.lines) - 1
		return suggest.Position{Line: last, Ch: len(b.lines[last])}
	}
	if p.Ch < 0 {
		p.Ch = 0
	}
	if n := len(b.lines[p.Line]); p.Ch > n {
		p.Ch = n
	}
	return p
}
