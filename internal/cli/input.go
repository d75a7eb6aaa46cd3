// Package cli handles cmd line input and suggestions for DBG and testing various features
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/bastiangx/typr/internal/logger"
	"github.com/bastiangx/typr/internal/utils"
	"github.com/bastiangx/typr/pkg/editor"
	"github.com/bastiangx/typr/pkg/popup"
	"github.com/bastiangx/typr/pkg/suggest"
	"github.com/charmbracelet/log"
)

// InputHandler reads documents from a line-based input and prints the
// popup contents for the cursor at the end of each one.
//
// A literal `\n` in a line stands for a newline so multi-line contexts such as
// front matter or callouts can be typed. ":accept N" applies item N of the
// last popup and prints the resulting text.
type InputHandler struct {
	ctrl  *popup.Controller
	limit int
	out   io.Writer
	log   *log.Logger

	buf *editor.Buffer
}

// NewInputHandler handles initialization of the InputHandler with basic parameters
func NewInputHandler(ctrl *popup.Controller, limit int, out io.Writer) *InputHandler {
	return &InputHandler{
		ctrl:  ctrl,
		limit: limit,
		out:   out,
		log:   logger.New("cli"),
	}
}

// Start begins the interface loop and returns when in is exhausted.
func (h *InputHandler) Start(ctx context.Context, in io.Reader) error {
	h.log.Print("typr CLI [BETA]")
	h.log.Print("type something and press Enter to see the suggestions (Ctrl+C to exit):")

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if arg, ok := strings.CutPrefix(line, ":accept"); ok {
			h.accept(strings.TrimSpace(arg))
			continue
		}
		if !utils.IsValidInput(strings.TrimSpace(line)) {
			h.log.Infof("Skipping input: %q", line)
			continue
		}
		h.handleInput(ctx, strings.ReplaceAll(line, `\n`, "\n"))
	}
	return scanner.Err()
}

func (h *InputHandler) handleInput(ctx context.Context, text string) {
	h.ctrl.Close()
	h.buf = editor.New(text)

	start := time.Now()
	ok := h.ctrl.Trigger(ctx, h.buf, suggest.TriggerManual)
	h.log.Debugf("Took [ %v ] for %q", time.Since(start), text)
	if !ok {
		h.log.Warnf("No suggestions found for %q", text)
		return
	}

	sc := h.ctrl.Context()
	items := h.ctrl.Items()
	shown := len(items)
	if h.limit > 0 && shown > h.limit {
		shown = h.limit
	}
	fmt.Fprintf(h.out, "Found %d suggestions for %q at %s:\n", len(items), sc.Query, sc.Start)
	for i, s := range items[:shown] {
		label := s.DisplayName
		if s.Icon != "" {
			label = s.Icon + " " + label
		}
		if s.Replacement != s.DisplayName {
			fmt.Fprintf(h.out, "%2d. %-30s -> %q\n", i+1, label, s.Replacement)
			continue
		}
		fmt.Fprintf(h.out, "%2d. %s\n", i+1, label)
	}
}

func (h *InputHandler) accept(arg string) {
	if h.buf == nil || h.ctrl.State() == popup.Closed {
		h.log.Error("Nothing to accept")
		return
	}
	n := 1
	if arg != "" {
		v, err := strconv.Atoi(arg)
		if err != nil {
			h.log.Errorf("Invalid item number: %s", arg)
			return
		}
		n = v
	}
	if !h.ctrl.SetSelected(n-1) || !h.ctrl.Accept(h.buf) {
		h.log.Errorf("No item %d", n)
		return
	}
	fmt.Fprintf(h.out, "%s|\n", h.buf.Range(suggest.Position{}, h.buf.Cursor()))
}
