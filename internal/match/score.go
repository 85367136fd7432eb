// Package match scores how closely a candidate string resembles a survey
// option.
package match

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
)

// ContainmentBonus is added when the candidate appears verbatim inside the
// option. Scores above 100 are therefore possible.
const ContainmentBonus = 10

// MaxScore is the highest value Score can return.
const MaxScore = 100 + ContainmentBonus

// ratioParams weights a substitution as a deletion plus an insertion, so
// the ratio is (len(a)+len(b)-distance) / (len(a)+len(b)).
var ratioParams = levenshtein.NewParams().SubCost(2)

// Score returns the similarity of candidate to option in [0, MaxScore]:
// the best of Ratio, PartialRatio and TokenSortRatio, plus the containment
// bonus when candidate is a substring of option.
func Score(candidate, option string) int {
	score := max(
		Ratio(candidate, option),
		PartialRatio(candidate, option),
		TokenSortRatio(candidate, option),
	)
	if strings.Contains(option, candidate) {
		score += ContainmentBonus
	}
	return score
}

// Best returns the index and score of the highest scoring option. The scan
// is ordered and only a strictly higher score replaces the current best, so
// ties go to the earliest option. The index is -1 when no option scores
// above zero.
func Best(candidate string, options []string) (int, int) {
	best, highest := -1, 0
	for i, opt := range options {
		if s := Score(candidate, opt); s > highest {
			best, highest = i, s
		}
	}
	return best, highest
}

// Ratio is the whole-string similarity of a and b in [0, 100].
func Ratio(a, b string) int {
	return ratioRunes([]rune(a), []rune(b))
}

// PartialRatio is the best Ratio of the shorter string against every
// window of the longer string with the same length.
func PartialRatio(a, b string) int {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		return 0
	}

	best := 0
	for i := 0; i+len(short) <= len(long); i++ {
		r := ratioRunes(short, long[i:i+len(short)])
		if r == 100 {
			return 100
		}
		best = max(best, r)
	}
	return best
}

// TokenSortRatio compares a and b after lower-casing, replacing
// punctuation with spaces and sorting the words, so word order is ignored.
func TokenSortRatio(a, b string) int {
	return Ratio(sortedTokens(a), sortedTokens(b))
}

func ratioRunes(a, b []rune) int {
	lensum := len(a) + len(b)
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	dist := levenshtein.Distance(string(a), string(b), ratioParams)
	return int(math.Round(100 * float64(lensum-dist) / float64(lensum)))
}

func sortedTokens(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	tokens := strings.Fields(cleaned)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
