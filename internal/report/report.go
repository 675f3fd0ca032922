package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fidelfix/internal/batch"
	"fidelfix/internal/domain"
)

// RenderBatchMarkdown renders a quality report: bucket counts, the ranked
// document list worst first, and the aggregated pattern recommendations.
func RenderBatchMarkdown(result domain.BatchProcessingResult, name string, reportDate time.Time) string {
	var out strings.Builder
	fmt.Fprintf(&out, "### %s OCR quality report %s\n\n", name, reportDate.Format("20060102"))

	buckets := map[string]int{}
	failed := 0
	for _, a := range result.Documents {
		buckets[a.QualityBucket()]++
		if a.Failed {
			failed++
		}
	}
	fmt.Fprintf(&out, "Documents: %d (excellent %d, good %d, fair %d, poor %d, failed %d)\n",
		len(result.Documents), buckets["excellent"], buckets["good"], buckets["fair"], buckets["poor"], failed)
	fmt.Fprintf(&out, "Auto-applied corrections: %d\n\n", result.AutoApplied)

	out.WriteString("#### Documents needing attention\n\n")
	for _, a := range batch.RankDocumentsByQuality(result.Documents) {
		if a.Failed {
			fmt.Fprintf(&out, "- **%s** - failed: %s\n", a.DocumentID, a.Error)
			continue
		}
		pending := len(result.Suggestions[a.DocumentID])
		fmt.Fprintf(&out, "- **%s** - score %.2f (%s), findings %d, suggestions %d\n",
			a.DocumentID, a.QualityScore, a.QualityBucket(), a.Signals.FindingCount, pending)
	}

	if len(result.Patterns) > 0 {
		out.WriteString("\n#### Corruption patterns\n\n")
		for _, p := range result.Patterns {
			fmt.Fprintf(&out, "- %s: %d occurrences (weight %.1f). %s\n",
				p.Category, p.Occurrences, p.Weight, p.Recommendation)
		}
	}
	return out.String()
}

// RenderQualityTrend renders per-document score movement against the
// previously recorded scores. Documents without history, and failed
// analyses, are skipped; with no movement to show the section is empty.
func RenderQualityTrend(result domain.BatchProcessingResult, previous map[string]float64) string {
	var out strings.Builder
	for _, a := range result.Documents {
		prev, ok := previous[a.DocumentID]
		if !ok || a.Failed {
			continue
		}
		if out.Len() == 0 {
			out.WriteString("\n#### Quality trend\n\n")
		}
		direction := "stable"
		switch {
		case a.QualityScore > prev+0.005:
			direction = "up"
		case a.QualityScore < prev-0.005:
			direction = "down"
		}
		fmt.Fprintf(&out, "- **%s** - %.2f to %.2f (%s)\n", a.DocumentID, prev, a.QualityScore, direction)
	}
	return out.String()
}

func WriteReportFile(content, outputDir string, reportDate time.Time, name string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", err
	}
	filename := fmt.Sprintf("%s_%s.md", name, reportDate.Format("20060102"))
	path := filepath.Join(outputDir, filename)
	return path, os.WriteFile(path, []byte(content), 0644)
}
