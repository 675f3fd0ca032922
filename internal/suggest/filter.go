package suggest

import (
	"sort"

	"fidelfix/internal/domain"
	"fidelfix/internal/lexicon"
	"fidelfix/internal/normalize"
	"fidelfix/internal/script"
)

// FilterOptions configure the single reconciliation policy applied to every
// suggestion batch, regardless of source.
type FilterOptions struct {
	Max          int
	TargetScript bool
	Lexicon      *lexicon.Lexicon
}

// Filter de-duplicates, drops no-op and script-incoherent suggestions, and
// truncates to Max, sorted by confidence descending. It must run exactly
// once per batch.
func Filter(suggestions []domain.CorrectionSuggestion, opts FilterOptions) []domain.CorrectionSuggestion {
	max := opts.Max
	if max <= 0 {
		max = DefaultMaxSuggestions
	}

	sorted := append([]domain.CorrectionSuggestion(nil), suggestions...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})

	seen := make(map[domain.SuggestionKey]bool, len(sorted))
	var kept []domain.CorrectionSuggestion
	for _, s := range sorted {
		original := normalize.CleanFragment(s.Original)
		corrected := normalize.CleanFragment(s.Corrected)
		if original == corrected {
			continue
		}
		if opts.TargetScript && containsLatin(corrected) && !script.IsTargetScript(corrected) {
			continue
		}
		if opts.Lexicon != nil && opts.Lexicon.ContainsTerm(original) && !opts.Lexicon.ContainsTerm(corrected) {
			continue
		}
		key := s.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, s)
		if len(kept) == max {
			break
		}
	}
	return kept
}

func containsLatin(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}
