package resolver

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sells-group/survey-cli/internal/lexicon"
	"github.com/sells-group/survey-cli/internal/model"
)

// Literal replies the model may give instead of an option.
const (
	replyOther = "other"
	replyRetry = "retry"
)

const classifyPrompt = `You are a smart survey assistant helping categorize user responses.

TASK:
From the list of options, choose the best matching option that aligns with the user's answer.
Only respond with:
- An exact option from the list (no explanation)
- Or respond with "other" if none are relevant
- Or respond with "retry" if the answer is off-topic, gibberish, or unclear.

Example:
Question: What are they using to support their mobility?
Options: stick, walker, none
User: They are using a stick for walking.
Your answer: stick

QUESTION: %s
OPTIONS: %s
USER SAID: %s

Your reply (only one word: exact option, or 'other', or 'retry'):`

// ClassifyPrompt builds the prompt asking the model to map input onto one
// of the question's options.
func ClassifyPrompt(q model.Question, input string) string {
	return fmt.Sprintf(classifyPrompt, q.Stem, strings.Join(q.Options, ", "), input)
}

var (
	thinkBlockRe = regexp.MustCompile(`(?s)<think>.*?</think>`)
	replyCharsRe = regexp.MustCompile(`[^a-zA-Z0-9 ]`)
)

// CleanReply strips reasoning blocks from a model reply, lower-cases it and
// drops every character outside [a-z0-9 ].
func CleanReply(reply string) string {
	reply = thinkBlockRe.ReplaceAllString(reply, "")
	reply = strings.ToLower(strings.TrimSpace(reply))
	return strings.TrimSpace(replyCharsRe.ReplaceAllString(reply, ""))
}

// Acknowledgement is the assistant reply recorded with every response.
func Acknowledgement(answer string) string {
	return fmt.Sprintf("Got it. You've selected '%s'. Thanks!", answer)
}

// RetryPrompt asks the respondent to answer again from the options.
func RetryPrompt(q model.Question) string {
	return "Sorry, I couldn't understand that. Please choose from the following options: " + q.OptionsText()
}

// Reply renders an outcome as the assistant's message to the respondent.
// retry reports whether the respondent should answer the question again.
func Reply(q model.Question, raw string, out model.Outcome) (reply string, retry bool) {
	switch o := out.(type) {
	case model.Matched:
		return Acknowledgement(o.Option), false
	case model.RetryRequested:
		return o.Prompt, true
	default:
		if q.OpenEnded() {
			return Acknowledgement(lexicon.Normalize(raw)), false
		}
		return Acknowledgement(model.OtherLabel), false
	}
}
