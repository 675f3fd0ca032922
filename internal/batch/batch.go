package batch

import (
	"context"
	"log"
	"sort"
	"sync"

	"fidelfix/internal/analyze"
	"fidelfix/internal/apply"
	"fidelfix/internal/detect"
	"fidelfix/internal/domain"
	"fidelfix/internal/suggest"
)

// Progress milestones for the four batch phases.
const (
	milestoneAnalyze   = 30
	milestoneGenerate  = 50
	milestoneAutoApply = 80
	milestoneFinalize  = 100
)

// Settings configure one batch run. Zero values fall back to the engine
// defaults (cap 20, threshold 0.9, concurrency bounded at 4); an
// apply-everything run therefore needs a small positive threshold, not zero.
type Settings struct {
	Model              string
	FallbackModels     []string
	MaxSuggestions     int
	AutoApplyThreshold float64
	ForceTargetScript  bool
	EnableLexiconHints bool
	Concurrency        int
	Progress           func(percent int, phase string)
}

// Coordinator drives analysis and suggestion generation across a document
// collection. It holds no state of its own between runs.
type Coordinator struct {
	generator *suggest.Generator
	ledger    apply.Ledger
}

func NewCoordinator(generator *suggest.Generator, ledger apply.Ledger) *Coordinator {
	if ledger == nil {
		ledger = apply.NewMemoryLedger()
	}
	return &Coordinator{generator: generator, ledger: ledger}
}

type docOutcome struct {
	analysis    domain.DocumentAnalysis
	findings    []domain.Finding
	suggestions []domain.CorrectionSuggestion
	source      suggest.Source
}

// Run analyzes every document, generates corrections, auto-applies the
// high-confidence ones and folds everything into one result. Documents keep
// the caller-supplied order regardless of completion order; a document that
// fails analysis stays at its index with Failed set, and the rest of the
// batch continues. The only returned error is context cancellation.
func (c *Coordinator) Run(ctx context.Context, docs []domain.Document, settings Settings) (domain.BatchProcessingResult, error) {
	report := progressReporter(settings.Progress)

	outcomes := make([]docOutcome, len(docs))

	// Phase 1: analyze. Documents share no state, so fan out with a stable
	// join keyed by input index.
	var wg sync.WaitGroup
	sem := make(chan struct{}, concurrencyLimit(settings.Concurrency, len(docs)))
	for i, doc := range docs {
		wg.Add(1)
		go func(idx int, doc domain.Document) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			findings := detect.Detect(doc.Text)
			analysis, err := analyze.FromFindings(doc, findings)
			if err != nil {
				log.Printf("batch analyze doc=%s failed: %v", doc.ID, err)
			}
			outcomes[idx] = docOutcome{analysis: analysis, findings: findings}
		}(i, doc)
	}
	wg.Wait()
	report(milestoneAnalyze, "analyze")
	if err := ctx.Err(); err != nil {
		return partialResult(outcomes), err
	}

	// Phase 2: generate corrections for the documents that analyzed cleanly.
	for i, doc := range docs {
		if outcomes[i].analysis.Failed {
			continue
		}
		if err := ctx.Err(); err != nil {
			return partialResult(outcomes), err
		}
		result, err := c.generator.Generate(ctx, doc.Text, suggest.Options{
			DocumentID:         doc.ID,
			Model:              settings.Model,
			FallbackModels:     settings.FallbackModels,
			MaxSuggestions:     settings.MaxSuggestions,
			ForceTargetScript:  settings.ForceTargetScript,
			EnableLexiconHints: settings.EnableLexiconHints,
		})
		if err != nil {
			log.Printf("batch generate doc=%s error: %v", doc.ID, err)
			continue
		}
		outcomes[i].suggestions = result.Suggestions
		outcomes[i].source = result.Source
	}
	report(milestoneGenerate, "generate-corrections")

	// Phase 3: auto-apply at or above the confidence threshold.
	corrected := make(map[string]string, len(docs))
	autoApplied := 0
	threshold := settings.AutoApplyThreshold
	if threshold <= 0 {
		threshold = apply.DefaultAutoApplyThreshold
	}
	for i, doc := range docs {
		if len(outcomes[i].suggestions) == 0 {
			continue
		}
		text, n, err := apply.AutoApply(doc.Text, outcomes[i].suggestions, threshold, c.ledger)
		if err != nil {
			log.Printf("batch auto-apply doc=%s error: %v", doc.ID, err)
			continue
		}
		if n > 0 {
			corrected[doc.ID] = text
			autoApplied += n
		}
	}
	report(milestoneAutoApply, "auto-apply-high-confidence")

	// Phase 4: aggregate.
	result := partialResult(outcomes)
	result.Corrected = corrected
	result.AutoApplied = autoApplied
	result.Patterns = aggregatePatterns(outcomes)
	report(milestoneFinalize, "finalize")
	return result, ctx.Err()
}

func partialResult(outcomes []docOutcome) domain.BatchProcessingResult {
	result := domain.BatchProcessingResult{
		Documents:   make([]domain.DocumentAnalysis, 0, len(outcomes)),
		Suggestions: make(map[string][]domain.CorrectionSuggestion),
	}
	for _, o := range outcomes {
		result.Documents = append(result.Documents, o.analysis)
		if len(o.suggestions) > 0 {
			result.Suggestions[o.analysis.DocumentID] = o.suggestions
		}
	}
	return result
}

// progressReporter wraps the caller callback so reported percentages are
// monotonically increasing even if a phase is reported twice.
func progressReporter(fn func(int, string)) func(int, string) {
	last := 0
	return func(percent int, phase string) {
		if fn == nil {
			return
		}
		if percent < last {
			percent = last
		}
		last = percent
		fn(percent, phase)
	}
}

func concurrencyLimit(configured, total int) int {
	if configured > 0 {
		return configured
	}
	if total < 1 {
		return 1
	}
	if total > 4 {
		return 4
	}
	return total
}

var recommendations = map[domain.FindingCategory]string{
	domain.AsciiNoiseInScript:   "Strip ASCII symbol noise before export; rescan pages with heavy symbol bleed-through.",
	domain.MixedScriptFragment:  "Review leading Latin tokens; the OCR engine is misreading headers or stamps as text.",
	domain.IncompleteFragment:   "Latin debris inside Ethiopic words usually means a wrong language model; rerun OCR with Amharic enabled.",
	domain.PunctuationConfusion: "Digit noise next to Ethiopic text points at punctuation misreads; review ፡ and ። usage.",
}

// aggregatePatterns groups findings across the batch by category and ranks
// them by aggregate confidence weight, heaviest first.
func aggregatePatterns(outcomes []docOutcome) []domain.PatternSummary {
	byCategory := make(map[domain.FindingCategory]*domain.PatternSummary)
	for _, o := range outcomes {
		for _, f := range o.findings {
			s := byCategory[f.Category]
			if s == nil {
				s = &domain.PatternSummary{
					Category:       f.Category,
					Recommendation: recommendations[f.Category],
				}
				byCategory[f.Category] = s
			}
			s.Occurrences++
			s.Weight += f.Confidence
		}
	}

	out := make([]domain.PatternSummary, 0, len(byCategory))
	for _, s := range byCategory {
		out = append(out, *s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// RankDocumentsByQuality orders analyses worst first; equal scores keep
// their original relative order.
func RankDocumentsByQuality(analyses []domain.DocumentAnalysis) []domain.DocumentAnalysis {
	ranked := append([]domain.DocumentAnalysis(nil), analyses...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].QualityScore < ranked[j].QualityScore
	})
	return ranked
}
