package suggest

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"fidelfix/internal/domain"
)

type oracleSuggestion struct {
	Original   string  `json:"original"`
	Suggestion string  `json:"suggestion"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

func buildCorrectionPrompts(text, lexiconHint string) (string, string) {
	hintBlock := ""
	if strings.TrimSpace(lexiconHint) != "" {
		hintBlock = "\n" + lexiconHint
	}

	systemPrompt := `You correct OCR recognition errors in Amharic (Ethiopic script) text.
Error classes to look for:
- script-confusable characters: ሀ/ሐ/ኀ, ሰ/ሠ, ጸ/ፀ, አ/ዐ, ው/ዉ
- wrong vowel mark (fidel order) within a word
- merged or split word boundaries
- Ethiopic punctuation (፠ ፡ ። ፣ ፤) misread as ASCII digits or symbols
- stray Latin letters or ASCII noise inside Ethiopic words

Only propose corrections you are confident about. Keep wording and style untouched.
Each "original" must be quoted verbatim from the input text.` + hintBlock + `

Respond with JSON only (no markdown):
[{"original": "...", "suggestion": "...", "reason": "...", "confidence": 0.92}, ...]`

	userPrompt := "Correct the OCR text below:\n\n" + text
	return systemPrompt, userPrompt
}

// parseOracleSuggestions parses the strict JSON array contract. A malformed
// body is an error the caller treats as zero suggestions from this attempt;
// individual entries failing the schema check are dropped, not fatal.
func parseOracleSuggestions(responseText, documentID, text string) ([]domain.CorrectionSuggestion, error) {
	responseText = strings.TrimSpace(responseText)
	responseText = strings.TrimPrefix(responseText, "```json")
	responseText = strings.TrimPrefix(responseText, "```")
	responseText = strings.TrimSuffix(responseText, "```")
	responseText = strings.TrimSpace(responseText)

	var raw []oracleSuggestion
	if err := json.Unmarshal([]byte(responseText), &raw); err != nil {
		truncated := responseText
		if len(truncated) > 512 {
			truncated = truncated[:512] + fmt.Sprintf("... [truncated, total_length=%d]", len(responseText))
		}
		return nil, fmt.Errorf("parsing oracle response: %w (response: %s)", err, truncated)
	}

	var out []domain.CorrectionSuggestion
	for _, r := range raw {
		if !validOracleSuggestion(r) {
			continue
		}
		span, ok := locate(text, r.Original)
		if !ok {
			continue
		}
		out = append(out, domain.CorrectionSuggestion{
			DocumentID: documentID,
			Span:       span,
			Original:   r.Original,
			Corrected:  r.Suggestion,
			Reason:     strings.TrimSpace(r.Reason),
			Confidence: r.Confidence,
		})
	}
	return out, nil
}

func validOracleSuggestion(r oracleSuggestion) bool {
	if strings.TrimSpace(r.Original) == "" || strings.TrimSpace(r.Suggestion) == "" {
		return false
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return false
	}
	return true
}

// locate anchors a suggestion at the first occurrence of its original text,
// in rune offsets. Suggestions whose original never occurs are useless and
// dropped.
func locate(text, original string) (domain.TextSpan, bool) {
	if original == "" {
		return domain.TextSpan{}, false
	}
	idx := strings.Index(text, original)
	if idx < 0 {
		return domain.TextSpan{}, false
	}
	start := utf8.RuneCountInString(text[:idx])
	return domain.TextSpan{Start: start, End: start + utf8.RuneCountInString(original)}, true
}
