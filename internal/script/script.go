package script

import "unicode"

// IsEthiopicRune reports whether r belongs to the Ethiopic script, including
// the Extended, Extended-A and Extended-B blocks.
func IsEthiopicRune(r rune) bool {
	return unicode.Is(unicode.Ethiopic, r)
}

// IsTargetScript reports whether any code point of text is Ethiopic.
func IsTargetScript(text string) bool {
	for _, r := range text {
		if IsEthiopicRune(r) {
			return true
		}
	}
	return false
}

func isLatinLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// LetterRatio returns the share of Ethiopic letters among all Ethiopic and
// Latin letters in text. Text with no letters at all counts as fully
// coherent.
func LetterRatio(text string) float64 {
	ethiopic := 0
	latin := 0
	for _, r := range text {
		switch {
		case IsEthiopicRune(r):
			ethiopic++
		case isLatinLetter(r):
			latin++
		}
	}
	total := ethiopic + latin
	if total == 0 {
		return 1.0
	}
	return float64(ethiopic) / float64(total)
}
