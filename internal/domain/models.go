package domain

import "time"

// Document is the unit of work supplied by the caller. The engine never
// fetches or stores documents itself.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]string
}

// TextSpan is a half-open range of rune offsets into an immutable source
// string. Offsets are code points, never bytes.
type TextSpan struct {
	Start int
	End   int
}

func (s TextSpan) Valid(textLen int) bool {
	return s.Start >= 0 && s.Start < s.End && s.End <= textLen
}

type FindingCategory string

const (
	AsciiNoiseInScript   FindingCategory = "ascii_noise_in_script"
	MixedScriptFragment  FindingCategory = "mixed_script_fragment"
	IncompleteFragment   FindingCategory = "incomplete_fragment"
	PunctuationConfusion FindingCategory = "punctuation_confusion"
)

// Finding is a deterministic pattern-rule detection of a likely OCR artifact.
type Finding struct {
	Span         TextSpan
	MatchedText  string
	Category     FindingCategory
	Confidence   float64
	SuggestedFix string
}

// CorrectionSuggestion is a candidate replacement with a confidence score.
// Records are never mutated after creation.
type CorrectionSuggestion struct {
	DocumentID string
	Span       TextSpan
	Original   string
	Corrected  string
	Reason     string
	Confidence float64
}

// SuggestionKey is the identity used for dedup and idempotent application.
type SuggestionKey struct {
	DocumentID string
	Start      int
	End        int
}

func (s CorrectionSuggestion) Key() SuggestionKey {
	return SuggestionKey{DocumentID: s.DocumentID, Start: s.Span.Start, End: s.Span.End}
}

type QualitySignals struct {
	FindingCount      int
	CorruptionDensity float64
	ScriptRatio       float64
	PrintableRatio    float64
	ReplacementRatio  float64
	TextLength        int
}

// DocumentAnalysis is one analysis run over one document. Re-analysis
// supersedes, never mutates.
type DocumentAnalysis struct {
	DocumentID   string
	QualityScore float64
	Signals      QualitySignals
	Failed       bool
	Error        string
	AnalyzedAt   time.Time
}

func (a DocumentAnalysis) QualityBucket() string {
	switch {
	case a.Failed:
		return "poor"
	case a.QualityScore >= 0.9:
		return "excellent"
	case a.QualityScore >= 0.75:
		return "good"
	case a.QualityScore >= 0.6:
		return "fair"
	default:
		return "poor"
	}
}

// PatternSummary aggregates one finding category across a batch.
type PatternSummary struct {
	Category       FindingCategory
	Occurrences    int
	Weight         float64
	Recommendation string
}

// BatchProcessingResult is owned exclusively by the caller of a batch run.
// Documents keep the caller-supplied order, including failed entries.
type BatchProcessingResult struct {
	Documents   []DocumentAnalysis
	Suggestions map[string][]CorrectionSuggestion
	Corrected   map[string]string
	AutoApplied int
	Patterns    []PatternSummary
}
