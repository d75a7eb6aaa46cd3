// Package suggest is the core: the data model shared by every provider and the
// aggregator that merges their results under fixed precedence.
package suggest

import (
	"context"

	"github.com/bastiangx/typr/pkg/config"
)

// Provider is a pluggable source of completion candidates.
type Provider interface {
	// Name identifies the provider in logs.
	Name() string

	// Suggestions returns either a ready list or a pending one.
	// Implementations absorb their own failures; returning Empty() is
	// always acceptable.
	Suggestions(ctx context.Context, sc *Context, settings *config.Config) Result

	// BlocksAllOtherProviders reports whether a non-empty result from this
	// provider hides every lower priority provider.
	BlocksAllOtherProviders() bool
}

// Blacklist hides suggestions the user rejected.
type Blacklist interface {
	Has(s Suggestion) bool
}
