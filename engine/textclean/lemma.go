package textclean

import "strings"

// lemmaExceptions covers common irregular plurals that suffix rules cannot
// reach.
var lemmaExceptions = map[string]string{
	"men":      "man",
	"women":    "woman",
	"children": "child",
	"people":   "person",
	"feet":     "foot",
	"teeth":    "tooth",
	"geese":    "goose",
	"mice":     "mouse",
	"wives":    "wife",
	"knives":   "knife",
	"wolves":   "wolf",
	"selves":   "self",
	"buses":    "bus",
	"viruses":  "virus",
	"quizzes":  "quiz",
	"analyses": "analysis",
	"crises":   "crisis",
}

// suffixRule rewrites a plural suffix to its singular form. MinLen guards
// short words where the suffix is part of the stem.
type suffixRule struct {
	from   string
	to     string
	minLen int
}

// Rules are ordered most-specific first; the first match wins.
var suffixRules = []suffixRule{
	{"sses", "ss", 5},
	{"ches", "ch", 5},
	{"shes", "sh", 5},
	{"xes", "x", 4},
	{"zzes", "zz", 6},
	{"ies", "y", 5},
	{"es", "e", 4},
	{"s", "", 4},
}

// Lemmatize reduces a plural noun form to its singular lemma. Words that
// match no rule pass through unchanged, and the function is idempotent:
// applying it to its own output changes nothing.
func Lemmatize(word string) string {
	if lemma, ok := lemmaExceptions[word]; ok {
		return lemma
	}
	for _, r := range suffixRules {
		if len(word) < r.minLen || !strings.HasSuffix(word, r.from) {
			continue
		}
		stem := word[:len(word)-len(r.from)]
		if r.from == "s" {
			// Not a plural: glass, virus, analysis.
			if strings.HasSuffix(word, "ss") || strings.HasSuffix(word, "us") || strings.HasSuffix(word, "is") {
				return word
			}
		}
		return stem + r.to
	}
	return word
}
