package extract

import (
	"strings"
)

// dashes are the separators OCR produces between start and end times
const dashes = "-–—"

func isDash(r rune) bool {
	return strings.ContainsRune(dashes, r)
}

// Tokenize splits time-axis text into time tokens, tolerating OCR noise:
// standalone dashes are dropped, dashes are trimmed from each token, empty
// tokens are dropped, and a single remaining token with an internal dash
// ("08:00-09:00") is split in two.
func Tokenize(text string) []string {
	var tokens []string
	for _, f := range strings.Fields(text) {
		if t := strings.Trim(f, dashes); t != "" {
			tokens = append(tokens, t)
		}
	}
	if len(tokens) == 1 && strings.ContainsAny(tokens[0], dashes) {
		return strings.FieldsFunc(tokens[0], isDash)
	}
	return tokens
}
