package apply

import (
	"strings"
	"sync"

	"fidelfix/internal/domain"
)

// DefaultAutoApplyThreshold marks the confidence at or above which a
// suggestion is safe to apply without human confirmation.
const DefaultAutoApplyThreshold = 0.9

// Ledger records which suggestion identities have already been applied.
// Ownership sits with the caller; the engine only consults it.
type Ledger interface {
	Contains(key domain.SuggestionKey) (bool, error)
	MarkApplied(key domain.SuggestionKey) error
	Clear(key domain.SuggestionKey) error
}

// MemoryLedger is the in-process Ledger. Safe for concurrent membership
// checks, though batch workflows mutate it from a single goroutine.
type MemoryLedger struct {
	mu      sync.Mutex
	applied map[domain.SuggestionKey]bool
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{applied: make(map[domain.SuggestionKey]bool)}
}

func (l *MemoryLedger) Contains(key domain.SuggestionKey) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.applied[key], nil
}

func (l *MemoryLedger) MarkApplied(key domain.SuggestionKey) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.applied[key] = true
	return nil
}

func (l *MemoryLedger) Clear(key domain.SuggestionKey) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.applied, key)
	return nil
}

// Apply replaces the first literal occurrence of the suggestion's original
// text. Content anchoring keeps repeated edits from corrupting offsets.
func Apply(text string, s domain.CorrectionSuggestion) string {
	if s.Original == "" || s.Original == s.Corrected {
		return text
	}
	return strings.Replace(text, s.Original, s.Corrected, 1)
}

// ApplyWithLedger applies s unless its identity is already recorded. The
// second return reports whether the text was touched. A suggestion whose
// anchor text does not occur leaves both the text and the ledger untouched,
// so it stays pending rather than being recorded as applied.
func ApplyWithLedger(text string, s domain.CorrectionSuggestion, ledger Ledger) (string, bool, error) {
	applied, err := ledger.Contains(s.Key())
	if err != nil {
		return text, false, err
	}
	if applied {
		return text, false, nil
	}
	next := Apply(text, s)
	if next == text {
		return text, false, nil
	}
	if err := ledger.MarkApplied(s.Key()); err != nil {
		return text, false, err
	}
	return next, true, nil
}

// ApplyMany applies suggestions in caller order against the evolving buffer.
// A nil ledger still de-duplicates within the call. Callers holding
// offset-anchored suggestions should pre-sort by descending span start.
func ApplyMany(text string, suggestions []domain.CorrectionSuggestion, ledger Ledger) (string, int, error) {
	if ledger == nil {
		ledger = NewMemoryLedger()
	}
	applied := 0
	for _, s := range suggestions {
		next, changed, err := ApplyWithLedger(text, s, ledger)
		if err != nil {
			return text, applied, err
		}
		if changed {
			applied++
		}
		text = next
	}
	return text, applied, nil
}

// AutoApply applies only suggestions at or above threshold; the rest stay
// pending for explicit caller action. A zero or negative threshold selects
// the default; to apply everything, pass a small positive threshold.
func AutoApply(text string, suggestions []domain.CorrectionSuggestion, threshold float64, ledger Ledger) (string, int, error) {
	if threshold <= 0 {
		threshold = DefaultAutoApplyThreshold
	}
	var eligible []domain.CorrectionSuggestion
	for _, s := range suggestions {
		if s.Confidence >= threshold {
			eligible = append(eligible, s)
		}
	}
	return ApplyMany(text, eligible, ledger)
}

// Reject removes a suggestion from the working set; a previously applied
// identity loses its mark. Textual revert is the caller's own undo concern.
func Reject(ledger Ledger, key domain.SuggestionKey) error {
	if ledger == nil {
		return nil
	}
	return ledger.Clear(key)
}
