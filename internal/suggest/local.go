package suggest

import (
	"fidelfix/internal/detect"
	"fidelfix/internal/domain"
)

const (
	confLocalNoise    = 0.90
	confLocalFragment = 0.85
)

// LocalSuggestions is the deterministic last-resort strategy: a rule pass
// restricted to the two high-precision detector categories. It is total and
// needs no configuration.
//
// Each suggestion carries one rune of Ethiopic context on both sides so that
// first-literal-occurrence application lands on the right spot.
func LocalSuggestions(documentID, text string) []domain.CorrectionSuggestion {
	findings := detect.Detect(text)
	if len(findings) == 0 {
		return nil
	}
	runes := []rune(text)

	var out []domain.CorrectionSuggestion
	for _, f := range findings {
		var confidence float64
		var reason string
		switch f.Category {
		case domain.AsciiNoiseInScript:
			confidence = confLocalNoise
			reason = "ASCII noise between Ethiopic characters"
		case domain.IncompleteFragment:
			confidence = confLocalFragment
			reason = "Latin fragment inside an Ethiopic word"
		default:
			continue
		}

		start, end := f.Span.Start, f.Span.End
		ctxStart, ctxEnd := start, end
		if ctxStart > 0 {
			ctxStart--
		}
		if ctxEnd < len(runes) {
			ctxEnd++
		}
		out = append(out, domain.CorrectionSuggestion{
			DocumentID: documentID,
			Span:       domain.TextSpan{Start: ctxStart, End: ctxEnd},
			Original:   string(runes[ctxStart:ctxEnd]),
			Corrected:  string(runes[ctxStart:start]) + f.SuggestedFix + string(runes[end:ctxEnd]),
			Reason:     reason,
			Confidence: confidence,
		})
	}
	return out
}
