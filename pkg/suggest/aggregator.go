package suggest

import (
	"context"

	"github.com/bastiangx/typr/internal/logger"
	"github.com/bastiangx/typr/internal/utils"
	"github.com/bastiangx/typr/pkg/config"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// Batch is the merged outcome of one query.
type Batch struct {
	Items []Suggestion
	// Start is where replacement begins, after any blocking override.
	Start Position
	// BlockedBy names the provider whose result cut off the rest, if any.
	BlockedBy string
	// Filtered counts suggestions dropped by the blacklist.
	Filtered int
}

// Aggregator queries providers in priority order and merges what they return.
type Aggregator struct {
	providers []Provider
	blacklist Blacklist
	log       *log.Logger
}

// NewAggregator takes providers highest priority first. blacklist may be nil.
func NewAggregator(blacklist Blacklist, providers ...Provider) *Aggregator {
	return &Aggregator{
		providers: providers,
		blacklist: blacklist,
		log:       logger.New("aggregator"),
	}
}

// SetLogger replaces the component logger.
func (a *Aggregator) SetLogger(l *log.Logger) {
	a.log = l
}

// Providers returns the providers in priority order.
func (a *Aggregator) Providers() []Provider {
	return a.providers
}

// Suggestions runs one query across all providers.
//
// Providers are called in priority order. A synchronous blocking provider
// with a non-empty result stops the scan right there. Asynchronous results
// are awaited together before anything is merged, so completion order never
// matters; among blocking providers the lowest index wins. The merge keeps
// providers up to and including the blocking one, drops repeated display
// names (first wins) and then blacklisted entries.
//
// ok is false when nothing survives. The returned Batch is still non-nil in
// that case so callers can tell an empty merge from a blacklisted one.
func (a *Aggregator) Suggestions(ctx context.Context, sc *Context, settings *config.Config) (*Batch, bool) {
	results := make([]Result, 0, len(a.providers))
	blockIdx := -1

	for i, p := range a.providers {
		res := a.invoke(ctx, p, sc, settings)
		results = append(results, res)
		if res.Pending() || !p.BlocksAllOtherProviders() {
			continue
		}
		if len(res.items) > 0 {
			blockIdx = i
			a.log.Debug("provider blocks the rest", "provider", p.Name(), "index", i)
			break
		}
	}

	lists := make([][]Suggestion, len(results))
	var g errgroup.Group
	for i, res := range results {
		if !res.Pending() {
			lists[i] = res.items
			continue
		}
		i, res := i, res
		name := a.providers[i].Name()
		g.Go(func() error {
			items, err := res.Await(ctx)
			if err != nil {
				a.log.Warn("provider failed", "provider", name, "err", err)
				return nil
			}
			lists[i] = items
			return nil
		})
	}
	_ = g.Wait()

	for i, res := range results {
		if blockIdx >= 0 && i >= blockIdx {
			break
		}
		if res.Pending() && a.providers[i].BlocksAllOtherProviders() && len(lists[i]) > 0 {
			blockIdx = i
			break
		}
	}

	batch := &Batch{}
	last := len(lists) - 1
	if blockIdx >= 0 {
		last = blockIdx
		batch.BlockedBy = a.providers[blockIdx].Name()
		if first := lists[blockIdx][0]; first.OverrideStart != nil {
			sc.Start = *first.OverrideStart
		}
	}
	batch.Start = sc.Start

	total := 0
	for i := 0; i <= last; i++ {
		total += len(lists[i])
	}
	filter := utils.NewSuggestionFilter(total)
	merged := make([]Suggestion, 0, total)
	for i := 0; i <= last; i++ {
		for _, s := range lists[i] {
			if filter.ShouldInclude(s.DisplayName) {
				merged = append(merged, s)
			}
		}
	}

	if a.blacklist != nil {
		kept := merged[:0]
		for _, s := range merged {
			if a.blacklist.Has(s) {
				batch.Filtered++
				continue
			}
			kept = append(kept, s)
		}
		merged = kept
	}

	if len(merged) == 0 {
		return batch, false
	}
	batch.Items = merged
	return batch, true
}

// invoke calls a provider, turning a panic into an empty contribution.
func (a *Aggregator) invoke(ctx context.Context, p Provider, sc *Context, settings *config.Config) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Warn("provider panicked", "provider", p.Name(), "panic", r)
			res = Empty()
		}
	}()
	return p.Suggestions(ctx, sc, settings)
}
