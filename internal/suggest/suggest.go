package suggest

import (
	"context"
	"errors"
	"log"

	"fidelfix/internal/domain"
	"fidelfix/internal/integrations/llm"
	"fidelfix/internal/lexicon"
	"fidelfix/internal/script"
)

// Source reports which strategy produced a suggestion batch.
type Source string

const (
	SourcePrimaryModel  Source = "primary-model"
	SourceFallbackModel Source = "fallback-model"
	SourceLocal         Source = "local"
	SourceUnavailable   Source = "unavailable"
)

const (
	DefaultMaxSuggestions = 20
	defaultModel          = "claude-sonnet-4-5-20250929"
	maxFallbackModels     = 2
)

// ErrNoCredential is returned when the caller explicitly requires the oracle
// strategy but no oracle is configured.
var ErrNoCredential = errors.New("oracle strategy requested but no API credential is configured")

type Options struct {
	DocumentID         string
	Model              string
	FallbackModels     []string
	MaxSuggestions     int
	ForceTargetScript  bool
	EnableLexiconHints bool
	RequireOracle      bool
	Image              []byte
}

type Result struct {
	Suggestions []domain.CorrectionSuggestion
	Source      Source
}

// Generator produces correction suggestions from the oracle when one is
// configured, falling through preferred model, at most two alternates, and
// finally the local rule strategy. Generate never fails on oracle errors.
type Generator struct {
	oracle llm.Oracle
	lex    *lexicon.Lexicon
}

func NewGenerator(oracle llm.Oracle, lex *lexicon.Lexicon) *Generator {
	if lex == nil {
		lex = lexicon.Default()
	}
	return &Generator{oracle: oracle, lex: lex}
}

func (g *Generator) Generate(ctx context.Context, text string, opts Options) (Result, error) {
	fopts := FilterOptions{
		Max:          opts.MaxSuggestions,
		TargetScript: opts.ForceTargetScript || script.IsTargetScript(text),
	}
	if opts.EnableLexiconHints {
		fopts.Lexicon = g.lex
	}

	if g.oracle == nil {
		if opts.RequireOracle {
			return Result{Source: SourceUnavailable}, ErrNoCredential
		}
		return Result{Suggestions: Filter(LocalSuggestions(opts.DocumentID, text), fopts), Source: SourceLocal}, nil
	}

	hint := ""
	if opts.EnableLexiconHints {
		hint = g.lex.BuildHint()
	}
	systemPrompt, userPrompt := buildCorrectionPrompts(text, hint)

	models := modelChain(opts.Model, opts.FallbackModels)
	for i, model := range models {
		if ctx.Err() != nil {
			break
		}
		responseText, err := g.oracle.Generate(ctx, model, systemPrompt, userPrompt, opts.Image)
		if err != nil {
			log.Printf("suggest oracle model=%s doc=%s error: %v", model, opts.DocumentID, err)
			continue
		}
		parsed, err := parseOracleSuggestions(responseText, opts.DocumentID, text)
		if err != nil {
			log.Printf("suggest oracle model=%s doc=%s parse error: %v", model, opts.DocumentID, err)
			continue
		}
		source := SourcePrimaryModel
		if i > 0 {
			source = SourceFallbackModel
		}
		return Result{Suggestions: Filter(parsed, fopts), Source: source}, nil
	}

	log.Printf("suggest oracle exhausted models=%d doc=%s, using local rules", len(models), opts.DocumentID)
	return Result{Suggestions: Filter(LocalSuggestions(opts.DocumentID, text), fopts), Source: SourceLocal}, nil
}

// modelChain returns the preferred model followed by at most two distinct
// alternates. Unbounded retry lists are a latency hazard, not a resilience
// feature.
func modelChain(preferred string, fallbacks []string) []string {
	if preferred == "" {
		preferred = defaultModel
	}
	chain := []string{preferred}
	for _, m := range fallbacks {
		if m == "" || m == preferred {
			continue
		}
		dup := false
		for _, c := range chain {
			if c == m {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		chain = append(chain, m)
		if len(chain) == 1+maxFallbackModels {
			break
		}
	}
	return chain
}
