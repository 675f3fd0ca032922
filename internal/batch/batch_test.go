package batch

import (
	"context"
	"testing"

	"fidelfix/internal/domain"
	"fidelfix/internal/suggest"
)

func testCoordinator() *Coordinator {
	return NewCoordinator(suggest.NewGenerator(nil, nil), nil)
}

func TestRunKeepsDocumentOrderWithFailure(t *testing.T) {
	docs := []domain.Document{
		{ID: "clean", Text: "ሰላም ለዓለም ይህ ጽሑፍ ነው"},
		{ID: "empty", Text: "   "},
		{ID: "noisy", Text: "ሰ#ላ ውጤት ነው"},
	}

	result, err := testCoordinator().Run(context.Background(), docs, Settings{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Documents) != 3 {
		t.Fatalf("expected all documents in the result, got %d", len(result.Documents))
	}
	for i, want := range []string{"clean", "empty", "noisy"} {
		if result.Documents[i].DocumentID != want {
			t.Fatalf("expected document %d to be %s, got %s", i, want, result.Documents[i].DocumentID)
		}
	}
	if !result.Documents[1].Failed {
		t.Fatalf("expected empty document marked failed")
	}
	if result.Documents[0].Failed || result.Documents[2].Failed {
		t.Fatalf("healthy documents must not fail: %+v", result.Documents)
	}
	if len(result.Suggestions["empty"]) != 0 {
		t.Fatalf("failed document must not receive suggestions")
	}
	if len(result.Suggestions["noisy"]) == 0 {
		t.Fatalf("expected suggestions for the noisy document")
	}
}

func TestRunAutoAppliesHighConfidence(t *testing.T) {
	docs := []domain.Document{{ID: "d1", Text: "ሰ#ላ ውጤት"}}

	result, err := testCoordinator().Run(context.Background(), docs, Settings{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.AutoApplied != 1 {
		t.Fatalf("expected one auto-applied correction, got %d", result.AutoApplied)
	}
	if got := result.Corrected["d1"]; got != "ሰ ላ ውጤት" {
		t.Fatalf("unexpected corrected text %q", got)
	}
}

func TestRunThresholdBlocksAutoApply(t *testing.T) {
	docs := []domain.Document{{ID: "d1", Text: "ሰ#ላ ውጤት"}}

	result, err := testCoordinator().Run(context.Background(), docs, Settings{AutoApplyThreshold: 0.99})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.AutoApplied != 0 {
		t.Fatalf("expected nothing auto-applied at threshold 0.99, got %d", result.AutoApplied)
	}
	if len(result.Corrected) != 0 {
		t.Fatalf("expected no corrected texts, got %+v", result.Corrected)
	}
	if len(result.Suggestions["d1"]) == 0 {
		t.Fatalf("suggestions must still be reported for manual review")
	}
}

func TestRunProgressMilestones(t *testing.T) {
	var percents []int
	var phases []string
	settings := Settings{Progress: func(percent int, phase string) {
		percents = append(percents, percent)
		phases = append(phases, phase)
	}}

	if _, err := testCoordinator().Run(context.Background(), []domain.Document{{ID: "d1", Text: "ሰላም"}}, settings); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	wantPercents := []int{30, 50, 80, 100}
	wantPhases := []string{"analyze", "generate-corrections", "auto-apply-high-confidence", "finalize"}
	if len(percents) != len(wantPercents) {
		t.Fatalf("expected %d progress reports, got %v", len(wantPercents), percents)
	}
	for i := range wantPercents {
		if percents[i] != wantPercents[i] || phases[i] != wantPhases[i] {
			t.Fatalf("report %d = (%d, %s), want (%d, %s)", i, percents[i], phases[i], wantPercents[i], wantPhases[i])
		}
	}
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	docs := []domain.Document{{ID: "d1", Text: "ሰላም"}, {ID: "d2", Text: "ሰ#ላ"}}
	result, err := testCoordinator().Run(ctx, docs, Settings{})
	if err == nil {
		t.Fatalf("expected context error")
	}
	if len(result.Documents) != 2 {
		t.Fatalf("expected partial result to carry analyses, got %d", len(result.Documents))
	}
}

func TestRunAggregatesPatterns(t *testing.T) {
	docs := []domain.Document{
		{ID: "d1", Text: "ሰ#ላ ውጤት"},
		{ID: "d2", Text: "ሰ@ም ሌላ"},
		{ID: "d3", Text: "ሰላም1 ነው"},
	}

	result, err := testCoordinator().Run(context.Background(), docs, Settings{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Patterns) != 2 {
		t.Fatalf("expected two pattern categories, got %+v", result.Patterns)
	}
	first := result.Patterns[0]
	if first.Category != domain.AsciiNoiseInScript {
		t.Fatalf("expected heaviest category first, got %s", first.Category)
	}
	if first.Occurrences != 2 {
		t.Fatalf("expected two occurrences, got %d", first.Occurrences)
	}
	if first.Recommendation == "" {
		t.Fatalf("expected a recommendation string")
	}
	if result.Patterns[1].Category != domain.PunctuationConfusion {
		t.Fatalf("expected digit-noise category second, got %s", result.Patterns[1].Category)
	}
}

func TestRankDocumentsByQuality(t *testing.T) {
	analyses := []domain.DocumentAnalysis{
		{DocumentID: "a", QualityScore: 0.95},
		{DocumentID: "b", QualityScore: 0.5},
		{DocumentID: "c", QualityScore: 0.5},
		{DocumentID: "d", QualityScore: 0.9},
	}
	ranked := RankDocumentsByQuality(analyses)

	want := []string{"b", "c", "d", "a"}
	for i, id := range want {
		if ranked[i].DocumentID != id {
			t.Fatalf("rank %d = %s, want %s (full: %+v)", i, ranked[i].DocumentID, id, ranked)
		}
	}
	// Input order is untouched.
	if analyses[0].DocumentID != "a" {
		t.Fatalf("ranking must not mutate its input")
	}
}

func TestConcurrencyLimit(t *testing.T) {
	cases := []struct {
		configured, total, want int
	}{
		{0, 0, 1},
		{0, 2, 2},
		{0, 10, 4},
		{8, 10, 8},
	}
	for _, c := range cases {
		if got := concurrencyLimit(c.configured, c.total); got != c.want {
			t.Fatalf("concurrencyLimit(%d, %d) = %d, want %d", c.configured, c.total, got, c.want)
		}
	}
}
