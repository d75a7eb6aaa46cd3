package provider

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/bastiangx/typr/pkg/config"
	"github.com/bastiangx/typr/pkg/suggest"
)

var calloutRe = regexp.MustCompile(`^(\s*>)+\s*\[!(\w*)$`)

type calloutType struct {
	name  string
	icon  string
	color string
}

var calloutTypes = []calloutType{
	{"note", "pencil", "#086ddd"},
	{"abstract", "clipboard-list", "#00bfbc"},
	{"info", "info", "#086ddd"},
	{"todo", "check-circle-2", "#086ddd"},
	{"tip", "flame", "#00bfbc"},
	{"success", "check", "#08b94e"},
	{"question", "help-circle", "#ec7500"},
	{"warning", "alert-triangle", "#ec7500"},
	{"failure", "x", "#e93147"},
	{"danger", "zap", "#e93147"},
	{"bug", "bug", "#e93147"},
	{"example", "list", "#7852ee"},
	{"quote", "quote", "#9e9e9e"},
}

// Callout completes the type of a "> [!" callout header.
type Callout struct{}

func NewCallout() *Callout { return &Callout{} }

func (c *Callout) Name() string                  { return "callout" }
func (c *Callout) BlocksAllOtherProviders() bool { return true }

func (c *Callout) Suggestions(_ context.Context, sc *suggest.Context, settings *config.Config) suggest.Result {
	if !settings.Providers.Callout || sc.Editor == nil {
		return suggest.Empty()
	}
	line := sc.LineBeforeCursor()
	m := calloutRe.FindStringSubmatch(line)
	if m == nil {
		return suggest.Empty()
	}
	typed := strings.ToLower(m[2])

	bracket := strings.LastIndex(line, "[!")
	start := suggest.Position{Line: sc.End.Line, Ch: utf8.RuneCountInString(line[:bracket])}
	end := sc.End
	rest := []rune(sc.Editor.Line(sc.End.Line))
	if end.Ch < len(rest) && rest[end.Ch] == ']' {
		end.Ch++
	}

	var out []suggest.Suggestion
	for _, t := range calloutTypes {
		if !strings.HasPrefix(t.name, typed) {
			continue
		}
		s, e := start, end
		out = append(out, suggest.Suggestion{
			DisplayName:   t.name,
			Replacement:   "[!" + t.name + "] ",
			Icon:          t.icon,
			Color:         t.color,
			OverrideStart: &s,
			OverrideEnd:   &e,
		})
	}
	return suggest.Ready(out)
}
