package model

import "strings"

// OptionsMarker separates a question stem from its option list in the
// stored question text.
const OptionsMarker = "Options:"

// Question is a single survey question extracted from a document.
type Question struct {
	Text    string   `json:"text"`
	Stem    string   `json:"stem"`
	Options []string `json:"options"`
}

// NewQuestion builds a Question from a stem and its options. When options
// are present the stored text carries them after the options marker,
// joined with semicolons.
func NewQuestion(stem string, options []string) Question {
	stem = strings.TrimSpace(stem)
	text := stem
	if len(options) > 0 {
		text = strings.TrimSpace(stem + " " + OptionsMarker + " " + strings.Join(options, "; "))
	}
	return Question{
		Text:    text,
		Stem:    stem,
		Options: append([]string(nil), options...),
	}
}

// OpenEnded reports whether the question has no options to match against.
func (q Question) OpenEnded() bool {
	return len(q.Options) == 0
}

// OptionsText returns the options as they appear after the marker.
func (q Question) OptionsText() string {
	return strings.Join(q.Options, "; ")
}
