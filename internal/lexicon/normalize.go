// Package lexicon canonicalizes free-text survey answers before matching.
package lexicon

import (
	"regexp"
	"strings"
)

// Canonical answers returned for affirmations and negations.
const (
	Yes = "yes"
	No  = "no"
)

// wordNumbers maps spelled-out numbers to digits. Keys never overlap as
// whole words, so the substitution order does not matter.
var wordNumbers = map[string]string{
	"zero": "0", "one": "1", "two": "2", "three": "3", "four": "4",
	"five": "5", "six": "6", "seven": "7", "eight": "8", "nine": "9",
	"ten": "10", "eleven": "11", "twelve": "12", "thirteen": "13",
	"fourteen": "14", "fifteen": "15", "sixteen": "16", "seventeen": "17",
	"eighteen": "18", "nineteen": "19", "twenty": "20", "thirty": "30",
	"forty": "40", "fifty": "50", "sixty": "60", "seventy": "70",
	"eighty": "80", "ninety": "90", "hundred": "100", "thousand": "000",
}

var (
	affirmations = []string{"yes", "ya", "yeah", "yup", "sure", "interested"}
	negations    = []string{"no", "nope", "nah", "not interested"}
)

var (
	wordNumberRe  = wholeWords(keys(wordNumbers))
	affirmationRe = wholeWords(affirmations)
	negationRe    = wholeWords(negations)
	rangeRe       = regexp.MustCompile(`\b(\d+)\s*(?:to|too|two)\s*(\d+)\b`)
	homophoneRe   = regexp.MustCompile(`\bstate\b`)
)

// Normalize rewrites a raw answer into canonical form:
//  1. Lower-cases and trims
//  2. Replaces spelled-out numbers with digits
//  3. Collapses any affirmation to "yes", else any negation to "no"
//  4. Canonicalizes numeric ranges ("5 too 7" -> "5 to 7")
//  5. Applies the fixed homophone correction ("state" -> "stick")
func Normalize(raw string) string {
	text := strings.TrimSpace(strings.ToLower(raw))

	// "two" as a range connector has to be caught before it becomes "2".
	text = rangeRe.ReplaceAllString(text, "$1 to $2")
	text = wordNumberRe.ReplaceAllStringFunc(text, func(w string) string {
		return wordNumbers[w]
	})

	if affirmationRe.MatchString(text) {
		return Yes
	}
	if negationRe.MatchString(text) {
		return No
	}

	text = rangeRe.ReplaceAllString(text, "$1 to $2")
	text = homophoneRe.ReplaceAllString(text, "stick")
	return text
}

func wholeWords(words []string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
