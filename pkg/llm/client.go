/*
Package llm asks a chat-completion style HTTP endpoint for word suggestions.

The Client keeps at most one request on the wire. A call for the key already
in flight shares its Future; a call for another key waits in a single pending
slot, where a newer call replaces an older one that never went out. The last
successful response is cached by key so repeating the same context costs no
round trip. Every failure resolves to an empty list; nothing is retried.
*/
package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bastiangx/typr/internal/logger"
	"github.com/bastiangx/typr/internal/utils"
	"github.com/bastiangx/typr/pkg/config"
	"github.com/bastiangx/typr/pkg/suggest"
	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru"
)

const (
	// preparedBodies bounds the memo of serialized request bodies.
	preparedBodies = 20
	maxResponse    = 1 << 20
	defaultTimeout = 5 * time.Second
)

var (
	ErrNoEndpoint = errors.New("llm endpoint not configured")
	ErrStatus     = errors.New("llm endpoint returned non-2xx status")
)

// Stats counts what the client did since it was created.
type Stats struct {
	Requests  int
	CacheHits int
	Coalesced int
	Dropped   int
	Failures  int
}

// call is one logical request and the future its callers wait on.
type call struct {
	params
	endpoint string
	apiKey   string
	timeout  time.Duration
	future   *suggest.Future
}

type cacheEntry struct {
	key   string
	items []suggest.Suggestion
}

// Client is safe for concurrent use. Create one per LLM provider.
type Client struct {
	http *http.Client
	log  *log.Logger

	mu       sync.Mutex
	cached   *cacheEntry
	inflight *call
	pending  *call
	prepared *lru.Cache
	stats    Stats
}

// NewClient returns a client sending requests through hc, or a default
// http.Client when hc is nil.
func NewClient(hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	prepared, err := lru.New(preparedBodies)
	if err != nil {
		// only fails for a non-positive size
		panic(err)
	}
	return &Client{
		http:     hc,
		log:      logger.New("llm"),
		prepared: prepared,
	}
}

// SetLogger replaces the component logger.
func (c *Client) SetLogger(l *log.Logger) {
	c.log = l
}

// Suggest returns a future for the suggestions matching req. The future
// always resolves with a nil error; failures resolve it with no items.
func (c *Client) Suggest(req Request, cfg config.LLMConfig) *suggest.Future {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		c.log.Debug("skipping request", "err", ErrNoEndpoint)
		return suggest.Resolved(nil)
	}

	p := resolveParams(req, cfg)
	timeout := time.Duration(cfg.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil && c.cached.key == p.key {
		c.stats.CacheHits++
		return suggest.Resolved(c.cached.items)
	}
	if c.inflight != nil && c.inflight.key == p.key {
		c.stats.Coalesced++
		return c.inflight.future
	}

	next := &call{
		params:   p,
		endpoint: endpoint,
		apiKey:   cfg.APIKey,
		timeout:  timeout,
		future:   suggest.NewFuture(),
	}

	if c.inflight == nil {
		c.start(next)
		return next.future
	}

	if c.pending != nil {
		if c.pending.key == p.key {
			c.stats.Coalesced++
			return c.pending.future
		}
		c.stats.Dropped++
		c.log.Debug("replacing pending request")
		c.pending.future.Resolve(nil, nil)
	}
	c.pending = next
	return next.future
}

// Stats returns a snapshot of the counters.
func (c *Client) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// start puts cl on the wire. Callers hold c.mu.
func (c *Client) start(cl *call) {
	c.inflight = cl
	c.stats.Requests++
	go c.run(cl)
}

func (c *Client) run(cl *call) {
	items, err := c.fetch(cl)

	c.mu.Lock()
	if err != nil {
		c.stats.Failures++
	} else {
		c.cached = &cacheEntry{key: cl.key, items: items}
	}
	c.inflight = nil
	next := c.pending
	c.pending = nil
	if next != nil {
		c.start(next)
	}
	c.mu.Unlock()

	if err != nil {
		c.log.Warn("request failed", "endpoint", cl.endpoint, "err", err)
	}
	cl.future.Resolve(items, nil)
}

// body returns the serialized request for cl, reusing an earlier identical one.
func (c *Client) body(cl *call) ([]byte, error) {
	key := cl.bodyKey()
	if v, ok := c.prepared.Get(key); ok {
		return v.([]byte), nil
	}
	data, err := buildBody(cl.params)
	if err != nil {
		return nil, err
	}
	c.prepared.Add(key, data)
	return data, nil
}

func (c *Client) fetch(cl *call) ([]suggest.Suggestion, error) {
	payload, err := c.body(cl)
	if err != nil {
		return nil, err
	}

	// the caller may stop waiting, the request still runs to completion
	ctx, cancel := context.WithTimeout(context.Background(), cl.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cl.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if cl.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+cl.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llm request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	words := ParseWords(data)
	if len(words) == 0 {
		c.log.Debug("no words in response", "bytes", len(data))
	}
	return toSuggestions(words, cl.query, cl.maxWords), nil
}

// toSuggestions keeps the words that continue query and caps the list.
func toSuggestions(words []string, query string, limit int) []suggest.Suggestion {
	folded := utils.Normalize(query, true, true)
	var out []suggest.Suggestion
	for _, w := range words {
		if limit > 0 && len(out) >= limit {
			break
		}
		if folded != "" {
			fw := utils.Normalize(w, true, true)
			if fw == folded || !utils.PrefixMatch(fw, folded) {
				continue
			}
		}
		out = append(out, suggest.NewSuggestion(w))
	}
	return out
}
