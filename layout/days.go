package layout

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// timePrefix matches text that starts with an HH:MM token
var timePrefix = regexp.MustCompile(`^\d{2}:\d{2}`)

// minFuzzyLength is the shortest folded word considered for approximate
// day matching.
const minFuzzyLength = 4

// IsTime reports whether text starts with an HH:MM token.
func IsTime(text string) bool {
	return timePrefix.MatchString(strings.TrimSpace(text))
}

// Fold prepares OCR output for comparison with day names: diacritics are
// removed, letters upper-cased and non-letters dropped.
func Fold(text string) string {
	// Transformers and casers carry state, so build them per call.
	strip := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(strip, text)
	if err != nil {
		folded = text
	}
	folded = cases.Upper(language.Und).String(folded)
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return r
		}
		return -1
	}, folded)
}

// DayMatcher recognizes day names across locales
type DayMatcher struct {
	names       []string // as configured
	folded      []string
	maxDistance int
}

// NewDayMatcher creates a matcher for the given day names. Up to
// maxDistance single-character edits are tolerated.
func NewDayMatcher(names []string, maxDistance int) *DayMatcher {
	folded := make([]string, len(names))
	for i, n := range names {
		folded[i] = Fold(n)
	}
	return &DayMatcher{names: names, folded: folded, maxDistance: maxDistance}
}

// Match returns the configured day name for text. Comparison happens on
// folded forms; exact matches win, other candidates are ranked by edit
// distance with ties going to the earlier name.
func (m *DayMatcher) Match(text string) (string, bool) {
	word := Fold(text)
	if word == "" {
		return "", false
	}
	for i, n := range m.folded {
		if word == n {
			return m.names[i], true
		}
	}
	if m.maxDistance <= 0 || len([]rune(word)) < minFuzzyLength {
		return "", false
	}

	best, bestDistance := -1, m.maxDistance+1
	for i, n := range m.folded {
		if d := fuzzy.LevenshteinDistance(word, n); d < bestDistance {
			best, bestDistance = i, d
		}
	}
	if best < 0 {
		return "", false
	}
	return m.names[best], true
}
