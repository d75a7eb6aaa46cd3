package provider

import (
	"context"

	"github.com/bastiangx/typr/pkg/config"
	"github.com/bastiangx/typr/pkg/dictionary"
	"github.com/bastiangx/typr/pkg/suggest"
)

// WordList suggests words from word list files.
type WordList struct {
	engine *dictionary.Engine
}

func NewWordList() *WordList {
	return &WordList{engine: dictionary.NewEngine()}
}

func (w *WordList) Name() string                  { return "word_list" }
func (w *WordList) BlocksAllOtherProviders() bool { return false }

// Engine exposes the underlying dictionary.
func (w *WordList) Engine() *dictionary.Engine { return w.engine }

// LoadFiles adds the words of every readable list. The error joins the
// failures of the lists that could not be read.
func (w *WordList) LoadFiles(paths ...string) (int, error) {
	return w.engine.LoadFiles(paths)
}

func (w *WordList) Suggestions(_ context.Context, sc *suggest.Context, settings *config.Config) suggest.Result {
	if !settings.Providers.WordList {
		return suggest.Empty()
	}
	return suggest.Ready(w.engine.Query(sc.Query, dictionary.OptionsFromConfig(settings)))
}
