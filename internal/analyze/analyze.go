package analyze

import (
	"errors"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"fidelfix/internal/detect"
	"fidelfix/internal/domain"
	"fidelfix/internal/script"
)

// ErrEmptyDocument is the named analysis failure for documents with no text.
var ErrEmptyDocument = errors.New("document has no text")

// Penalty weights; the score floor for each signal keeps one noisy signal
// from zeroing out an otherwise readable document.
const (
	densityWeight      = 20.0
	densityCap         = 0.6
	scriptWeight       = 0.25
	replacementWeight  = 4.0
	replacementCap     = 0.2
	unprintableWeight  = 2.0
	unprintableCap     = 0.2
)

// Analyze runs detection and scoring over one document. Deterministic and
// pure apart from the timestamp.
func Analyze(doc domain.Document) (domain.DocumentAnalysis, error) {
	return FromFindings(doc, detect.Detect(doc.Text))
}

// FromFindings scores a document against findings the caller already holds,
// so batch runs detect only once per document.
func FromFindings(doc domain.Document, findings []domain.Finding) (domain.DocumentAnalysis, error) {
	now := time.Now()
	if strings.TrimSpace(doc.Text) == "" {
		return domain.DocumentAnalysis{
			DocumentID: doc.ID,
			Failed:     true,
			Error:      ErrEmptyDocument.Error(),
			AnalyzedAt: now,
		}, ErrEmptyDocument
	}

	textLen := utf8.RuneCountInString(doc.Text)
	weighted := 0.0
	for _, f := range findings {
		if !f.Span.Valid(textLen) {
			continue
		}
		weighted += f.Confidence
	}
	density := weighted / float64(textLen)

	signals := domain.QualitySignals{
		FindingCount:      len(findings),
		CorruptionDensity: density,
		ScriptRatio:       script.LetterRatio(doc.Text),
		PrintableRatio:    printableRatio(doc.Text),
		ReplacementRatio:  replacementRatio(doc.Text),
		TextLength:        textLen,
	}

	score := 1.0
	score -= capAt(density*densityWeight, densityCap)
	score -= (1.0 - signals.ScriptRatio) * scriptWeight
	score -= capAt(signals.ReplacementRatio*replacementWeight, replacementCap)
	score -= capAt((1.0-signals.PrintableRatio)*unprintableWeight, unprintableCap)
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	return domain.DocumentAnalysis{
		DocumentID:   doc.ID,
		QualityScore: score,
		Signals:      signals,
		AnalyzedAt:   now,
	}, nil
}

func capAt(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	return v
}

// replacementRatio is the share of U+FFFD runes, a direct encoding-failure
// signal.
func replacementRatio(text string) float64 {
	count := 0
	total := 0
	for _, r := range text {
		total++
		if r == '�' {
			count++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total)
}

func printableRatio(text string) float64 {
	total := 0
	printable := 0
	for _, r := range text {
		total++
		if isGarbageRune(r) {
			continue
		}
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' {
			printable++
		}
	}
	if total == 0 {
		return 1.0
	}
	return float64(printable) / float64(total)
}

func isGarbageRune(r rune) bool {
	// Private Use Area and replacement characters are extraction garbage;
	// control characters other than whitespace likewise.
	if r >= 0xE000 && r <= 0xF8FF {
		return true
	}
	if r == 0xFFFD {
		return true
	}
	if r < 0x0020 && r != '\n' && r != '\r' && r != '\t' {
		return true
	}
	return false
}
