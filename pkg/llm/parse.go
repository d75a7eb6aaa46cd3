package llm

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// listFields are the object keys a flat response may carry its list under.
var listFields = []string{"suggestions", "words", "completions", "data"}

var (
	fenceRe      = regexp.MustCompile("(?s)```[A-Za-z0-9_-]*[ \t]*\\n?(.*?)```")
	listMarkerRe = regexp.MustCompile(`^\s*(?:[-*+•·]|\d+[.)]|\(\d+\))\s+`)
)

// ParseWords extracts suggestion words from a response body. It accepts a
// bare array, an object with one of the known list fields, or a chat
// completion envelope whose message content holds fenced JSON, raw JSON or
// a bulleted list. Anything else yields nil.
func ParseWords(body []byte) []string {
	if !gjson.ValidBytes(body) {
		return nil
	}
	return dedupe(fromValue(gjson.ParseBytes(body)))
}

func fromValue(v gjson.Result) []string {
	if v.IsArray() {
		return stringsOf(v)
	}
	if !v.IsObject() {
		return nil
	}
	for _, f := range listFields {
		if list := v.Get(f); list.IsArray() {
			return stringsOf(list)
		}
	}
	choices := v.Get("choices")
	if !choices.IsArray() {
		return nil
	}
	var out []string
	choices.ForEach(func(_, choice gjson.Result) bool {
		content := choice.Get("message.content")
		if content.Type != gjson.String {
			content = choice.Get("text")
		}
		if content.Type == gjson.String {
			out = append(out, parseContent(content.String())...)
		}
		return true
	})
	return out
}

func stringsOf(list gjson.Result) []string {
	var out []string
	list.ForEach(func(_, item gjson.Result) bool {
		if item.Type == gjson.String {
			if w := cleanWord(item.String()); w != "" {
				out = append(out, w)
			}
		}
		return true
	})
	return out
}

// parseContent reads the free text a chat model answered with.
func parseContent(s string) []string {
	s = strings.TrimSpace(s)
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}
	if gjson.Valid(s) {
		if v := gjson.Parse(s); v.IsArray() || v.IsObject() {
			return fromValue(v)
		}
	}

	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "```") {
			continue
		}
		line = listMarkerRe.ReplaceAllString(line, "")
		if w := cleanWord(line); w != "" {
			out = append(out, w)
		}
	}
	return out
}

func cleanWord(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, ",;")
	s = strings.Trim(s, "\"'`")
	return strings.TrimSpace(s)
}

func dedupe(words []string) []string {
	if len(words) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(words))
	out := words[:0]
	for _, w := range words {
		if seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}
