package provider

import (
	"context"
	"strings"

	"github.com/bastiangx/typr/pkg/config"
	"github.com/bastiangx/typr/pkg/llm"
	"github.com/bastiangx/typr/pkg/suggest"
)

// LLM asks a remote model. Its result always arrives asynchronously.
type LLM struct {
	client *llm.Client
}

func NewLLM(client *llm.Client) *LLM {
	return &LLM{client: client}
}

func (p *LLM) Name() string                  { return "llm" }
func (p *LLM) BlocksAllOtherProviders() bool { return false }

// Client returns the underlying client, mostly for its Stats.
func (p *LLM) Client() *llm.Client { return p.client }

func (p *LLM) Suggestions(_ context.Context, sc *suggest.Context, settings *config.Config) suggest.Result {
	if !settings.Providers.LLM || strings.TrimSpace(settings.LLM.Endpoint) == "" {
		return suggest.Empty()
	}
	req := llm.Request{
		Text:      sc.TextBeforeCursor(),
		Query:     sc.Query,
		Separator: sc.Separator,
	}
	return suggest.Later(p.client.Suggest(req, settings.LLM))
}
