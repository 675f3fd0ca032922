package detect

import (
	"sort"

	"fidelfix/internal/domain"
	"fidelfix/internal/script"
)

// Rule confidences are calibrated against hand-checked Amharic OCR samples.
const (
	confNumericNoise  = 0.80
	confIncompleteRun = 0.85
	confAsciiSymbol   = 0.92
	confCapsFragment  = 0.85
)

type ruleFunc func(runes []rune, claimed []bool) []domain.Finding

// Rules run in a fixed order; a later rule never claims runes already
// claimed by an earlier one.
var rules = []ruleFunc{
	numericNoiseRule,
	incompleteFragmentRule,
	asciiSymbolRule,
	capsFragmentRule,
}

// Detect scans text and returns every rule finding, sorted by span start
// descending so that a caller fixing matches in order never invalidates the
// offsets of findings it has not reached yet. Spans are rune offsets.
func Detect(text string) []domain.Finding {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	claimed := make([]bool, len(runes))

	var findings []domain.Finding
	for _, rule := range rules {
		for _, f := range rule(runes, claimed) {
			findings = append(findings, f)
			for i := f.Span.Start; i < f.Span.End; i++ {
				claimed[i] = true
			}
		}
	}

	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Span.Start != findings[j].Span.Start {
			return findings[i].Span.Start > findings[j].Span.Start
		}
		return findings[i].Span.End > findings[j].Span.End
	})
	return findings
}

func isASCIIDigit(r rune) bool { return r >= '0' && r <= '9' }

func isLatinLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isUpperLatin(r rune) bool { return r >= 'A' && r <= 'Z' }

// isASCIISymbol covers printable ASCII that is neither alphanumeric nor
// space.
func isASCIISymbol(r rune) bool {
	if r <= ' ' || r > '~' {
		return false
	}
	return !isASCIIDigit(r) && !isLatinLetter(r)
}

// runs returns the maximal unclaimed runs of runes satisfying pred, always
// advancing the cursor so empty candidates cannot loop.
func runs(runes []rune, claimed []bool, pred func(rune) bool) []domain.TextSpan {
	var spans []domain.TextSpan
	i := 0
	for i < len(runes) {
		if claimed[i] || !pred(runes[i]) {
			i++
			continue
		}
		start := i
		for i < len(runes) && !claimed[i] && pred(runes[i]) {
			i++
		}
		spans = append(spans, domain.TextSpan{Start: start, End: i})
	}
	return spans
}

func finding(runes []rune, span domain.TextSpan, cat domain.FindingCategory, conf float64, fix string) domain.Finding {
	return domain.Finding{
		Span:         span,
		MatchedText:  string(runes[span.Start:span.End]),
		Category:     cat,
		Confidence:   conf,
		SuggestedFix: fix,
	}
}

// numericNoiseRule flags short digit runs touching Ethiopic text. Ethiopic
// punctuation and numerals are commonly misread as ASCII digits.
func numericNoiseRule(runes []rune, claimed []bool) []domain.Finding {
	var out []domain.Finding
	for _, span := range runs(runes, claimed, isASCIIDigit) {
		if span.End-span.Start > 4 {
			continue
		}
		prevEthiopic := span.Start > 0 && script.IsEthiopicRune(runes[span.Start-1])
		nextEthiopic := span.End < len(runes) && script.IsEthiopicRune(runes[span.End])
		if prevEthiopic || nextEthiopic {
			out = append(out, finding(runes, span, domain.PunctuationConfusion, confNumericNoise, ""))
		}
	}
	return out
}

// incompleteFragmentRule flags Latin runs embedded inside an Ethiopic word.
func incompleteFragmentRule(runes []rune, claimed []bool) []domain.Finding {
	var out []domain.Finding
	for _, span := range runs(runes, claimed, isLatinLetter) {
		prevEthiopic := span.Start > 0 && script.IsEthiopicRune(runes[span.Start-1])
		nextEthiopic := span.End < len(runes) && script.IsEthiopicRune(runes[span.End])
		if prevEthiopic && nextEthiopic {
			out = append(out, finding(runes, span, domain.IncompleteFragment, confIncompleteRun, ""))
		}
	}
	return out
}

// asciiSymbolRule flags ASCII symbol runs sitting directly between two
// Ethiopic characters.
func asciiSymbolRule(runes []rune, claimed []bool) []domain.Finding {
	var out []domain.Finding
	for _, span := range runs(runes, claimed, isASCIISymbol) {
		prevEthiopic := span.Start > 0 && script.IsEthiopicRune(runes[span.Start-1])
		nextEthiopic := span.End < len(runes) && script.IsEthiopicRune(runes[span.End])
		if prevEthiopic && nextEthiopic {
			out = append(out, finding(runes, span, domain.AsciiNoiseInScript, confAsciiSymbol, " "))
		}
	}
	return out
}

// capsFragmentRule flags an all-caps Latin token that immediately precedes
// Ethiopic text without being embedded in it.
func capsFragmentRule(runes []rune, claimed []bool) []domain.Finding {
	var out []domain.Finding
	for _, span := range runs(runes, claimed, isLatinLetter) {
		if span.End-span.Start < 2 {
			continue
		}
		allCaps := true
		for i := span.Start; i < span.End; i++ {
			if !isUpperLatin(runes[i]) {
				allCaps = false
				break
			}
		}
		if !allCaps {
			continue
		}
		if span.Start > 0 && script.IsEthiopicRune(runes[span.Start-1]) {
			continue
		}
		next := span.End
		if next < len(runes) && runes[next] == ' ' {
			next++
		}
		if next < len(runes) && script.IsEthiopicRune(runes[next]) {
			out = append(out, finding(runes, span, domain.MixedScriptFragment, confCapsFragment, ""))
		}
	}
	return out
}
