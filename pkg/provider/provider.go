/*
Package provider contains the suggestion sources typr ships with.

They are queried in a fixed order, highest priority first:

	FrontMatter  blocking   keys and values inside a leading YAML block
	Callout      blocking   "> [!type" callout headers
	Latex        blocking   \commands inside math blocks
	LLM          async      remote chat completion endpoint
	FileScanner             words seen in scanned documents
	WordList                words from word list files

A blocking provider that returns anything hides every provider after it.
*/
package provider

import (
	"github.com/bastiangx/typr/pkg/llm"
	"github.com/bastiangx/typr/pkg/suggest"
)

// Set owns one instance of every provider.
type Set struct {
	FrontMatter *FrontMatter
	Callout     *Callout
	Latex       *Latex
	LLM         *LLM
	FileScanner *FileScanner
	WordList    *WordList
}

// NewSet builds all providers. client may be nil for a default LLM client.
func NewSet(client *llm.Client) *Set {
	if client == nil {
		client = llm.NewClient(nil)
	}
	return &Set{
		FrontMatter: NewFrontMatter(),
		Callout:     NewCallout(),
		Latex:       NewLatex(),
		LLM:         NewLLM(client),
		FileScanner: NewFileScanner(),
		WordList:    NewWordList(),
	}
}

// Ordered returns the providers in priority order.
func (s *Set) Ordered() []suggest.Provider {
	return []suggest.Provider{
		s.FrontMatter,
		s.Callout,
		s.Latex,
		s.LLM,
		s.FileScanner,
		s.WordList,
	}
}
