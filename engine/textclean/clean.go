// Package textclean normalizes raw post text into a token stream suitable
// for feature extraction: strip markup artifacts, lowercase, drop noise
// tokens, and reduce plural forms.
package textclean

import (
	"regexp"
	"strings"
	"unicode"
)

// minTokenLen drops tokens too short to carry signal.
const minTokenLen = 3

var (
	markerRe = regexp.MustCompile(`\[(?:removed|deleted)\]`)
	urlRe    = regexp.MustCompile(`http\S+|www\.\S+`)
	entityRe = regexp.MustCompile(`&\w+;`)
)

// Cleaner runs the normalization pipeline. The zero value is not usable;
// construct with New.
type Cleaner struct {
	stop map[string]struct{}
}

// New creates a Cleaner with the built-in English stopword list.
func New() *Cleaner {
	return &Cleaner{stop: stopwords}
}

// Clean runs the full pipeline on raw text and returns the cleaned tokens
// joined by single spaces. Clean is idempotent: cleaning cleaned text is a
// no-op.
func (c *Cleaner) Clean(raw string) string {
	return strings.Join(c.Tokens(raw), " ")
}

// Tokens runs the pipeline and returns the cleaned tokens.
func (c *Cleaner) Tokens(raw string) []string {
	s := markerRe.ReplaceAllString(raw, " ")
	s = strings.ToLower(s)
	s = urlRe.ReplaceAllString(s, " ")
	s = entityRe.ReplaceAllString(s, " ")
	s = stripNonLetters(s)

	fields := strings.Fields(s)
	tokens := make([]string, 0, len(fields))
	for _, tok := range fields {
		if c.drop(tok) {
			continue
		}
		// Lemmatizing can shrink a token back below the filters
		// ("wills" -> "will", "axes" -> "ax"), so they apply to the
		// lemma as well; otherwise a second pass would remove it.
		lemma := Lemmatize(tok)
		if c.drop(lemma) {
			continue
		}
		tokens = append(tokens, lemma)
	}
	return tokens
}

// drop reports whether a token is too short or a stopword.
func (c *Cleaner) drop(tok string) bool {
	if len([]rune(tok)) < minTokenLen {
		return true
	}
	_, isStop := c.stop[tok]
	return isStop
}

// stripNonLetters replaces every rune that is not a letter with a space,
// removing punctuation and digits in one pass.
func stripNonLetters(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return b.String()
}
