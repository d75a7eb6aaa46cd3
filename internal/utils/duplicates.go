package utils

// SuggestionFilter drops repeated display names while keeping the first one seen.
// It is not safe for concurrent use; make one per merge.
type SuggestionFilter struct {
	seen map[string]bool
}

// NewSuggestionFilter creates a filter sized for roughly n names
func NewSuggestionFilter(n int) *SuggestionFilter {
	return &SuggestionFilter{seen: make(map[string]bool, n)}
}

// ShouldInclude checks if a name should be included in results (not a duplicate)
// Returns true the first time a name is offered, false on every later call.
// Comparison is exact: "Word" and "word" are different entries.
func (f *SuggestionFilter) ShouldInclude(name string) bool {
	if f.seen[name] {
		return false
	}
	f.seen[name] = true
	return true
}

// Seen returns how many distinct names passed the filter.
func (f *SuggestionFilter) Seen() int {
	return len(f.seen)
}
