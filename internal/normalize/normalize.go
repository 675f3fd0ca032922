package normalize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	maxHeadingLen    = 42
	maxSubheadingLen = 60
)

// Zero-width and BOM code points that OCR engines leak into output.
var zeroWidthReplacer = strings.NewReplacer(
	"\u200B", "",
	"\u200C", "",
	"\u200D", "",
	"\u2060", "",
	"\uFEFF", "",
)

var (
	// '*' is excluded from the symbol class: the quote-conversion step emits
	// emphasis asterisks directly against Ethiopic text.
	reSymbolBetween = regexp.MustCompile(`(\p{Ethiopic})[!-)+-/:-@\[-` + "`" + `{-~]+(\p{Ethiopic})`)
	reLatinBetween  = regexp.MustCompile(`(\p{Ethiopic})[A-Za-z]+(\p{Ethiopic})`)
	reBangRun       = regexp.MustCompile(`!{2,}`)
	reQuestionRun   = regexp.MustCompile(`\?{2,}`)
	reSpaceRun      = regexp.MustCompile(` {2,}`)
	reGuillemet     = regexp.MustCompile(`«\s*([^«»\n]{2,}?)\s*»`)
	reCurlyQuote    = regexp.MustCompile(`“\s*([^“”\n]{2,}?)\s*”`)
	reBulletGlyph   = regexp.MustCompile(`^\s*[•◦]\s*`)
	reNumberedParen = regexp.MustCompile(`^(\s*)(\d+)\)\s+`)
	reListMarker    = regexp.MustCompile(`^(-\s|\d+[.)]\s)`)
	reEmphasisLine  = regexp.MustCompile(`^\*[^*]+\*$`)
	reBlankRun      = regexp.MustCompile(`\n{4,}`)
)

// Normalize runs the full cleanup pipeline. It is pure, total and idempotent:
// Normalize(Normalize(x)) == Normalize(x).
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	text = zeroWidthReplacer.Replace(text)
	text = replaceFixpoint(reSymbolBetween, "$1 $2", text)
	text = replaceFixpoint(reLatinBetween, "$1$2", text)
	text = reBangRun.ReplaceAllString(text, "!")
	text = reQuestionRun.ReplaceAllString(text, "?")
	text = reSpaceRun.ReplaceAllString(text, " ")
	text = reGuillemet.ReplaceAllString(text, "*$1*")
	text = reCurlyQuote.ReplaceAllString(text, "*$1*")
	text = reflow(text)
	text = reBlankRun.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// CleanFragment prepares a short fragment for equality comparison: zero-width
// strip, punctuation-run and space-run collapse, trim. It must not remove
// symbol noise itself, or a suggestion that fixes exactly that noise would
// compare equal to its original and be dropped as a no-op.
func CleanFragment(s string) string {
	s = zeroWidthReplacer.Replace(s)
	s = reBangRun.ReplaceAllString(s, "!")
	s = reQuestionRun.ReplaceAllString(s, "?")
	s = reSpaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Adjacent matches share their boundary rune, which a single ReplaceAll pass
// cannot see, so rewrite until stable.
func replaceFixpoint(re *regexp.Regexp, repl, text string) string {
	for i := 0; i < 64; i++ {
		next := re.ReplaceAllString(text, repl)
		if next == text {
			return text
		}
		text = next
	}
	return text
}

func isListLine(trimmed string) bool {
	return reListMarker.MatchString(trimmed)
}

// reflow rewrites line-oriented structure into Markdown. Heading promotion
// only applies to multi-line text; a lone fragment is not a document.
func reflow(text string) string {
	lines := strings.Split(text, "\n")

	nonEmpty := 0
	for i, line := range lines {
		line = reBulletGlyph.ReplaceAllString(line, "- ")
		line = reNumberedParen.ReplaceAllString(line, "$1$2. ")
		trimmed := strings.TrimSpace(line)
		if reEmphasisLine.MatchString(trimmed) {
			line = "> " + trimmed
		}
		lines[i] = line
		if trimmed != "" {
			nonEmpty++
		}
	}
	if nonEmpty >= 2 {
		promoteHeadings(lines)
	}
	return strings.Join(lines, "\n")
}

func promoteHeadings(lines []string) {
	first := -1
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			first = i
			break
		}
	}
	if first < 0 {
		return
	}

	t := strings.TrimSpace(lines[first])
	if !strings.HasPrefix(t, "#") && !strings.HasPrefix(t, ">") && !isListLine(t) &&
		utf8.RuneCountInString(t) <= maxHeadingLen {
		lines[first] = "# " + t
	}
	if !strings.HasPrefix(strings.TrimSpace(lines[first]), "# ") {
		return
	}

	for j := first + 1; j < len(lines); j++ {
		t = strings.TrimSpace(lines[j])
		if t == "" {
			continue
		}
		if !strings.HasPrefix(t, "#") && !strings.HasPrefix(t, ">") && !isListLine(t) &&
			utf8.RuneCountInString(t) <= maxSubheadingLen {
			lines[j] = "## " + t
		}
		return
	}
}
