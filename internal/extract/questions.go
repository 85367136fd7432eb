// Package extract turns document paragraphs into survey questions.
//
// Segmentation is a heuristic: a paragraph starts a new question when it
// begins with an enumeration marker ("3.") or ends with a question mark.
// Every other paragraph is an option of the most recent question.
// Paragraphs before the first question are dropped, and a question with
// neither marker is never recognized. Both behaviors are intentional.
package extract

import (
	"regexp"
	"strings"

	"github.com/sells-group/survey-cli/internal/model"
)

var enumerationRe = regexp.MustCompile(`^\d+\.`)

// IsQuestionStart reports whether a trimmed paragraph opens a new question.
func IsQuestionStart(text string) bool {
	return enumerationRe.MatchString(text) || strings.HasSuffix(text, "?")
}

// Questions segments paragraphs into questions in document order.
func Questions(paragraphs []string) []model.Question {
	var (
		out     []model.Question
		stem    string
		options []string
	)

	flush := func() {
		if stem == "" {
			return
		}
		out = append(out, model.NewQuestion(stem, options))
	}

	for _, p := range paragraphs {
		text := strings.TrimSpace(p)
		if text == "" {
			continue
		}

		if IsQuestionStart(text) {
			flush()
			stem = text
			options = nil
			continue
		}

		// Options before the first question have nowhere to go.
		if stem == "" {
			continue
		}
		options = append(options, text)
	}
	flush()

	return out
}

// ParseQuestion rebuilds a Question from its stored text. Options follow
// the first options marker and are separated by semicolons. A marker with
// nothing usable after it yields an open-ended question.
func ParseQuestion(text string) model.Question {
	text = strings.TrimSpace(text)
	stem, rest, found := strings.Cut(text, model.OptionsMarker)
	if !found {
		return model.Question{Text: text, Stem: text}
	}

	var options []string
	for _, opt := range strings.Split(rest, ";") {
		if opt = strings.TrimSpace(opt); opt != "" {
			options = append(options, opt)
		}
	}

	return model.Question{
		Text:    text,
		Stem:    strings.TrimSpace(stem),
		Options: options,
	}
}
