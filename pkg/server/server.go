package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bastiangx/typr/internal/logger"
	"github.com/bastiangx/typr/internal/utils"
	"github.com/bastiangx/typr/pkg/config"
	"github.com/bastiangx/typr/pkg/editor"
	"github.com/bastiangx/typr/pkg/popup"
	"github.com/bastiangx/typr/pkg/suggest"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// Server handles the IPC for completions
type Server struct {
	agg       *suggest.Aggregator
	blacklist *suggest.WordBlacklist
	config    atomic.Pointer[config.Config]
	log       *log.Logger

	dec      *msgpack.Decoder
	enc      *msgpack.Encoder
	writeMu  sync.Mutex
	requests atomic.Int64
	// completions still running
	inflight sync.WaitGroup
}

// NewServer creates a server reading requests from in and writing responses to out.
// blacklist may be nil, in which case the blacklist actions are rejected.
func NewServer(agg *suggest.Aggregator, blacklist *suggest.WordBlacklist, cfg *config.Config, in io.Reader, out io.Writer) *Server {
	s := &Server{
		agg:       agg,
		blacklist: blacklist,
		log:       logger.New("server"),
		dec:       msgpack.NewDecoder(in),
		enc:       msgpack.NewEncoder(out),
	}
	s.enc.UseCompactInts(true)
	s.config.Store(cfg)
	return s
}

// UpdateConfig swaps the settings used by subsequent requests.
func (s *Server) UpdateConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	s.config.Store(cfg)
	s.log.Debug("config updated")
}

// Config returns the active settings.
func (s *Server) Config() *config.Config {
	return s.config.Load()
}

// Start serves requests until in reaches EOF or ctx is cancelled, then waits
// for running completions to reply.
// A malformed message ends the stream since msgpack cannot resync.
func (s *Server) Start(ctx context.Context) error {
	s.log.Debug("Starting Server.")
	defer s.inflight.Wait()
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		var req Request
		if err := s.dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			s.log.Error("Decoding request", "err", err)
			s.sendError("", "invalid msgpack request", 400)
			return fmt.Errorf("decode request: %w", err)
		}
		s.handleRequest(ctx, req)
	}
}

// handleRequest runs completions concurrently so a burst of keystrokes
// reaches the providers without waiting on a slow one. Other actions wait
// for earlier completions and run in arrival order.
func (s *Server) handleRequest(ctx context.Context, req Request) {
	s.requests.Add(1)
	switch req.Action {
	case "", ActionComplete:
		s.inflight.Add(1)
		go func() {
			defer s.inflight.Done()
			s.handleComplete(ctx, req)
		}()
		return
	}

	s.inflight.Wait()
	switch req.Action {
	case ActionBlacklistAdd, ActionBlacklistRemove:
		s.handleBlacklist(req)
	case ActionHealth:
		s.handleHealth(req)
	default:
		s.sendError(req.ID, fmt.Sprintf("unknown action: %s", req.Action), 400)
	}
}

func (s *Server) handleComplete(ctx context.Context, req Request) {
	start := time.Now()
	cfg := s.Config()

	if maxText := cfg.Server.MaxText; maxText > 0 && len(req.Text) > maxText {
		s.sendError(req.ID, fmt.Sprintf("text exceeds maximum length of %d bytes", maxText), 413)
		return
	}

	buf := editor.New(req.Text)
	if req.Line != nil || req.Ch != nil {
		var pos suggest.Position
		if req.Line != nil {
			pos.Line = *req.Line
		}
		if req.Ch != nil {
			pos.Ch = *req.Ch
		}
		buf.SetCursor(pos)
	}

	sc, err := popup.Detect(buf, cfg, suggest.ParseTriggerSource(req.Trigger))
	if err != nil {
		s.sendError(req.ID, err.Error(), 400)
		return
	}

	resp := CompletionResponse{
		ID:          req.ID,
		Suggestions: []CompletionSuggestion{},
		Start:       sc.Start,
		End:         sc.End,
	}
	if batch, ok := s.agg.Suggestions(ctx, sc, cfg); ok {
		items := batch.Items
		if limit := s.limit(req.Limit, cfg); len(items) > limit {
			items = items[:limit]
		}
		ranks := utils.CreateRankList(len(items))
		resp.Suggestions = make([]CompletionSuggestion, len(items))
		for i, it := range items {
			resp.Suggestions[i] = CompletionSuggestion{
				Display:     it.DisplayName,
				Replacement: it.Replacement,
				Rank:        ranks[i],
				Color:       it.Color,
				Icon:        it.Icon,
			}
		}
		resp.Start = batch.Start
		resp.BlockedBy = batch.BlockedBy
		resp.Filtered = batch.Filtered
	}
	resp.Count = len(resp.Suggestions)
	resp.TimeTaken = time.Since(start).Microseconds()
	s.log.Debug("completed", "id", req.ID, "count", resp.Count, "us", resp.TimeTaken)
	s.sendResponse(resp)
}

// limit picks the request limit, capped by max_suggestions.
func (s *Server) limit(requested int, cfg *config.Config) int {
	ceiling := cfg.Server.MaxSuggestions
	if ceiling <= 0 {
		ceiling = config.DefaultConfig().Server.MaxSuggestions
	}
	if requested <= 0 || requested > ceiling {
		return ceiling
	}
	return requested
}

func (s *Server) handleBlacklist(req Request) {
	if s.blacklist == nil {
		s.sendError(req.ID, "blacklist is not available", 503)
		return
	}
	word := strings.TrimSpace(req.Word)
	if word == "" {
		s.sendError(req.ID, "missing 'w' parameter", 400)
		return
	}

	var changed bool
	if req.Action == ActionBlacklistAdd {
		changed = s.blacklist.Add(word)
	} else {
		changed = s.blacklist.Remove(word)
	}
	if changed {
		if err := s.blacklist.Save(); err != nil {
			s.log.Error("Saving blacklist", "err", err)
			s.sendError(req.ID, "failed to save blacklist", 500)
			return
		}
	}
	s.sendResponse(BlacklistResponse{
		ID:      req.ID,
		Status:  "ok",
		Changed: changed,
		Count:   len(s.blacklist.Words()),
	})
}

func (s *Server) handleHealth(req Request) {
	resp := HealthResponse{
		ID:       req.ID,
		Status:   "ok",
		Requests: s.requests.Load(),
	}
	for _, p := range s.agg.Providers() {
		resp.Providers = append(resp.Providers, p.Name())
	}
	if s.blacklist != nil {
		resp.Blacklisted = len(s.blacklist.Words())
	}
	s.sendResponse(resp)
}

func (s *Server) sendResponse(response any) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.enc.Encode(response); err != nil {
		s.log.Error("Encoding response", "err", err)
	}
}

func (s *Server) sendError(id, message string, code int) {
	s.sendResponse(CompletionError{ID: id, Error: message, Code: code})
}
