package analyze

import (
	"errors"
	"strings"
	"testing"

	"fidelfix/internal/domain"
)

func TestAnalyzeCleanDocument(t *testing.T) {
	doc := domain.Document{ID: "d1", Text: "ሰላም ለዓለም። ይህ ንጹሕ ጽሑፍ ነው።"}
	analysis, err := Analyze(doc)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if analysis.Failed {
		t.Fatalf("unexpected failure: %+v", analysis)
	}
	if analysis.QualityScore < 0.9 {
		t.Fatalf("clean document scored %f, want >= 0.9", analysis.QualityScore)
	}
	if analysis.QualityBucket() != "excellent" {
		t.Fatalf("expected excellent bucket, got %s", analysis.QualityBucket())
	}
	if analysis.Signals.ScriptRatio != 1.0 {
		t.Fatalf("expected script ratio 1.0, got %f", analysis.Signals.ScriptRatio)
	}
	if analysis.Signals.FindingCount != 0 {
		t.Fatalf("expected no findings, got %d", analysis.Signals.FindingCount)
	}
}

func TestAnalyzeEmptyDocument(t *testing.T) {
	analysis, err := Analyze(domain.Document{ID: "d1", Text: "   \n  "})
	if !errors.Is(err, ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
	if !analysis.Failed {
		t.Fatalf("expected Failed set: %+v", analysis)
	}
	if analysis.Error == "" {
		t.Fatalf("expected error message recorded")
	}
	if analysis.DocumentID != "d1" {
		t.Fatalf("expected document id carried through, got %q", analysis.DocumentID)
	}
}

func TestAnalyzeNoisyDocumentScoresLower(t *testing.T) {
	clean, err := Analyze(domain.Document{ID: "a", Text: "ሰላም ለዓለም ይህ ጽሑፍ ነው"})
	if err != nil {
		t.Fatalf("Analyze clean failed: %v", err)
	}
	noisy, err := Analyze(domain.Document{ID: "b", Text: "ሰ#ላ@ም ለ1ዓ2ለም ይህ ጽሑፍ abc ነው"})
	if err != nil {
		t.Fatalf("Analyze noisy failed: %v", err)
	}
	if noisy.QualityScore >= clean.QualityScore {
		t.Fatalf("noisy %f must score below clean %f", noisy.QualityScore, clean.QualityScore)
	}
	if noisy.Signals.FindingCount == 0 {
		t.Fatalf("expected findings on noisy text")
	}
}

func TestAnalyzeScriptRatioPenalty(t *testing.T) {
	ethiopic, err := Analyze(domain.Document{ID: "a", Text: "ሰላም ለዓለም ይህ ጽሑፍ ነው"})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	mixed, err := Analyze(domain.Document{ID: "b", Text: "ሰላም ለዓለም this is mostly latin text now"})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if mixed.Signals.ScriptRatio >= ethiopic.Signals.ScriptRatio {
		t.Fatalf("expected lower script ratio for mixed text")
	}
	if mixed.QualityScore >= ethiopic.QualityScore {
		t.Fatalf("mixed-script %f must score below pure %f", mixed.QualityScore, ethiopic.QualityScore)
	}
}

func TestAnalyzeReplacementAndGarbagePenalty(t *testing.T) {
	degraded, err := Analyze(domain.Document{ID: "a", Text: "ሰላም �� ለዓለም "})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if degraded.Signals.ReplacementRatio == 0 {
		t.Fatalf("expected replacement runes counted")
	}
	if degraded.Signals.PrintableRatio == 1 {
		t.Fatalf("expected private-use runes counted as garbage")
	}

	clean, err := Analyze(domain.Document{ID: "b", Text: "ሰላም ለዓለም"})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if degraded.QualityScore >= clean.QualityScore {
		t.Fatalf("degraded %f must score below clean %f", degraded.QualityScore, clean.QualityScore)
	}
}

func TestAnalyzeScoreBounds(t *testing.T) {
	worst := strings.Repeat("�#1a ", 20) + "ሰ"
	analysis, err := Analyze(domain.Document{ID: "a", Text: worst})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if analysis.QualityScore < 0 || analysis.QualityScore > 1 {
		t.Fatalf("score out of bounds: %f", analysis.QualityScore)
	}
}

func TestFromFindingsIgnoresInvalidSpans(t *testing.T) {
	doc := domain.Document{ID: "d1", Text: "ሰላም"}
	findings := []domain.Finding{
		{Span: domain.TextSpan{Start: 0, End: 99}, Confidence: 1.0},
		{Span: domain.TextSpan{Start: 2, End: 1}, Confidence: 1.0},
	}
	analysis, err := FromFindings(doc, findings)
	if err != nil {
		t.Fatalf("FromFindings failed: %v", err)
	}
	if analysis.Signals.CorruptionDensity != 0 {
		t.Fatalf("invalid spans must not contribute density, got %f", analysis.Signals.CorruptionDensity)
	}
}
