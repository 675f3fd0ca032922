package suggest

import (
	"testing"

	"fidelfix/internal/domain"
	"fidelfix/internal/lexicon"
)

func TestFilterDropsNoOps(t *testing.T) {
	kept := Filter([]domain.CorrectionSuggestion{
		{DocumentID: "d1", Span: domain.TextSpan{Start: 0, End: 5}, Original: "ሰላም  ", Corrected: "ሰላም", Confidence: 0.95},
	}, FilterOptions{})
	if len(kept) != 0 {
		t.Fatalf("expected whitespace-only change dropped, got %+v", kept)
	}
}

func TestFilterKeepsNoiseRemovalSuggestions(t *testing.T) {
	// The exact shape the local strategy produces: stripping a symbol
	// between two Ethiopic characters. Comparison cleanup must not erase
	// the noise and drop this as a no-op.
	kept := Filter([]domain.CorrectionSuggestion{
		{DocumentID: "d1", Span: domain.TextSpan{Start: 0, End: 3}, Original: "ሰ#ላ", Corrected: "ሰ ላ", Confidence: 0.9},
	}, FilterOptions{TargetScript: true})
	if len(kept) != 1 {
		t.Fatalf("expected noise-removal suggestion kept, got %+v", kept)
	}
}

func TestFilterRejectsScriptIncoherentReplacement(t *testing.T) {
	suggestions := []domain.CorrectionSuggestion{
		{DocumentID: "d1", Span: domain.TextSpan{Start: 0, End: 3}, Original: "ሰላም", Corrected: "ABC", Confidence: 0.95},
		{DocumentID: "d1", Span: domain.TextSpan{Start: 4, End: 7}, Original: "ሰላም", Corrected: "ሠላም", Confidence: 0.9},
		{DocumentID: "d1", Span: domain.TextSpan{Start: 8, End: 15}, Original: "ሰላም ወርልድ", Corrected: "ሰላም world", Confidence: 0.8},
	}
	kept := Filter(suggestions, FilterOptions{TargetScript: true})
	if len(kept) != 2 {
		t.Fatalf("expected Latin-only replacement dropped, got %+v", kept)
	}
	for _, s := range kept {
		if s.Corrected == "ABC" {
			t.Fatalf("Latin-only replacement survived the filter")
		}
	}

	// Without the target-script constraint the same replacement is allowed.
	kept = Filter(suggestions[:1], FilterOptions{TargetScript: false})
	if len(kept) != 1 {
		t.Fatalf("expected replacement kept without script constraint, got %+v", kept)
	}
}

func TestFilterGuardsLexiconTerms(t *testing.T) {
	lex := lexicon.Default()
	suggestions := []domain.CorrectionSuggestion{
		{DocumentID: "d1", Span: domain.TextSpan{Start: 0, End: 6}, Original: "ኢትዮጵያ ሀገር", Corrected: "ኢትዬጵያ ሀገር", Confidence: 0.95},
		{DocumentID: "d1", Span: domain.TextSpan{Start: 7, End: 10}, Original: "ሰላም", Corrected: "ሠላም", Confidence: 0.9},
	}
	kept := Filter(suggestions, FilterOptions{Lexicon: lex})
	if len(kept) != 1 {
		t.Fatalf("expected lexicon-destroying suggestion dropped, got %+v", kept)
	}
	if kept[0].Corrected != "ሠላም" {
		t.Fatalf("wrong survivor: %+v", kept[0])
	}
}

func TestFilterDeduplicatesByIdentity(t *testing.T) {
	suggestions := []domain.CorrectionSuggestion{
		{DocumentID: "d1", Span: domain.TextSpan{Start: 0, End: 3}, Original: "ሰላም", Corrected: "ሳላም", Confidence: 0.6},
		{DocumentID: "d1", Span: domain.TextSpan{Start: 0, End: 3}, Original: "ሰላም", Corrected: "ሠላም", Confidence: 0.9},
	}
	kept := Filter(suggestions, FilterOptions{})
	if len(kept) != 1 {
		t.Fatalf("expected one suggestion per identity, got %+v", kept)
	}
	if kept[0].Corrected != "ሠላም" {
		t.Fatalf("expected the higher-confidence duplicate to win, got %+v", kept[0])
	}
}

func TestFilterSortsAndTruncates(t *testing.T) {
	suggestions := []domain.CorrectionSuggestion{
		{DocumentID: "d1", Span: domain.TextSpan{Start: 0, End: 1}, Original: "ሀ", Corrected: "ሐ", Confidence: 0.5},
		{DocumentID: "d1", Span: domain.TextSpan{Start: 2, End: 3}, Original: "ሰ", Corrected: "ሠ", Confidence: 0.95},
		{DocumentID: "d1", Span: domain.TextSpan{Start: 4, End: 5}, Original: "ጸ", Corrected: "ፀ", Confidence: 0.7},
	}
	kept := Filter(suggestions, FilterOptions{Max: 2})
	if len(kept) != 2 {
		t.Fatalf("expected truncation to 2, got %d", len(kept))
	}
	if kept[0].Confidence != 0.95 || kept[1].Confidence != 0.7 {
		t.Fatalf("expected confidence-descending order, got %+v", kept)
	}
}
