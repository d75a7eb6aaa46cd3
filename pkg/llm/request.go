package llm

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/bastiangx/typr/pkg/config"
)

const (
	// DefaultModel is used for OpenAI-compatible endpoints when no model is configured.
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = 0.7
	MaxTemperature     = 2.0

	defaultContextChars = 1500

	// keySep joins key parts. Record separators do not occur in typed text.
	keySep = "\x1e"

	systemPrompt = "You are an autocomplete engine inside a text editor. " +
		"Given the text before the cursor, reply with a JSON array of up to %d short completions " +
		"for the word being typed or the next word. Reply with the array only."
)

// Request is what a provider knows about the cursor when it asks for suggestions.
type Request struct {
	// Text is the document up to the cursor.
	Text string
	// Query is the partial word being typed, already part of Text.
	Query     string
	Separator string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Temperature float64       `json:"temperature"`
	Model       string        `json:"model,omitempty"`
	Messages    []chatMessage `json:"messages"`
}

// params is everything resolved from one Request and the settings.
type params struct {
	key         string
	context     string
	query       string
	separator   string
	model       string
	temperature float64
	maxWords    int
}

func resolveParams(req Request, cfg config.LLMConfig) params {
	budget := cfg.MaxContextChars
	if budget <= 0 {
		budget = defaultContextChars
	}
	p := params{
		context:     tailRunes(req.Text, budget),
		query:       req.Query,
		separator:   req.Separator,
		model:       resolveModel(cfg.Endpoint, cfg.Model),
		temperature: resolveTemperature(cfg.Temperature),
		maxWords:    cfg.MaxSuggestions,
	}
	p.key = requestKey(p.context, p.separator, p.model, p.temperature)
	return p
}

// resolveModel returns model, or DefaultModel when it is blank and the
// endpoint looks like an OpenAI-compatible chat completion path.
func resolveModel(endpoint, model string) string {
	if m := strings.TrimSpace(model); m != "" {
		return m
	}
	path := endpoint
	if u, err := url.Parse(strings.TrimSpace(endpoint)); err == nil {
		path = u.Path
	}
	if strings.HasSuffix(strings.TrimRight(path, "/"), "/chat/completions") {
		return DefaultModel
	}
	return ""
}

func resolveTemperature(t float64) float64 {
	switch {
	case math.IsNaN(t):
		return DefaultTemperature
	case t < 0:
		return 0
	case t > MaxTemperature:
		return MaxTemperature
	}
	return t
}

// tailRunes keeps the last n runes of s.
func tailRunes(s string, n int) string {
	count := utf8.RuneCountInString(s)
	if count <= n {
		return s
	}
	skip := count - n
	for i := range s {
		if skip == 0 {
			return s[i:]
		}
		skip--
	}
	return ""
}

func requestKey(context, separator, model string, temperature float64) string {
	return strings.Join([]string{
		context,
		separator,
		model,
		strconv.FormatFloat(temperature, 'f', -1, 64),
	}, keySep)
}

// bodyKey identifies a serialized body. The word count is part of the
// prompt, so it is part of the key.
func (p params) bodyKey() string {
	return p.key + keySep + strconv.Itoa(p.maxWords)
}

func buildBody(p params) ([]byte, error) {
	limit := p.maxWords
	if limit <= 0 {
		limit = 5
	}
	body := chatRequest{
		Temperature: p.temperature,
		Model:       p.model,
		Messages: []chatMessage{
			{Role: "system", Content: fmt.Sprintf(systemPrompt, limit)},
			{Role: "user", Content: p.context},
		},
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return data, nil
}
