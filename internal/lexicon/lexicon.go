package lexicon

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lexicon holds proper nouns and fixed terms that corrections must never
// alter.
type Lexicon struct {
	Terms []string `yaml:"terms"`
}

// Built-in terms that show up constantly in Amharic documents and are a
// frequent target of bad "corrections".
var defaultTerms = []string{
	"ኢትዮጵያ",
	"አዲስ አበባ",
	"አማርኛ",
	"ግዕዝ",
	"ትግርኛ",
	"ኦሮሚያ",
	"አክሱም",
	"ላሊበላ",
	"ጎንደር",
	"ባሕር ዳር",
}

func Default() *Lexicon {
	return &Lexicon{Terms: append([]string(nil), defaultTerms...)}
}

// Load reads a lexicon yaml file and merges it with the built-in terms.
func Load(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	var l Lexicon
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("parse lexicon yaml: %w", err)
	}
	merged := Default()
	for _, term := range l.Terms {
		merged.appendUnique(term)
	}
	return merged, nil
}

func (l *Lexicon) appendUnique(term string) {
	term = strings.TrimSpace(term)
	if term == "" {
		return
	}
	for _, t := range l.Terms {
		if t == term {
			return
		}
	}
	l.Terms = append(l.Terms, term)
}

// BuildHint renders the preserve-list sentence embedded into oracle prompts.
func (l *Lexicon) BuildHint() string {
	if l == nil || len(l.Terms) == 0 {
		return ""
	}
	return "Preserve these terms exactly as written, never correct them: " +
		strings.Join(l.Terms, ", ") + "."
}

// ContainsTerm reports whether text contains any lexicon term.
func (l *Lexicon) ContainsTerm(text string) bool {
	if l == nil {
		return false
	}
	for _, term := range l.Terms {
		if term != "" && strings.Contains(text, term) {
			return true
		}
	}
	return false
}

// AppendTerm adds a term to the lexicon file at path, creating the file when
// missing. Already-known terms are left alone.
func AppendTerm(path, term string) error {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}

	var l Lexicon
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &l); err != nil {
			return fmt.Errorf("parse existing lexicon: %w", err)
		}
	}
	for _, t := range l.Terms {
		if t == term {
			return nil
		}
	}
	l.Terms = append(l.Terms, term)

	out, err := yaml.Marshal(&l)
	if err != nil {
		return fmt.Errorf("marshal lexicon: %w", err)
	}
	return os.WriteFile(path, out, 0644)
}
