package model

// Outcome is the result of resolving one answer against a question.
// The set of implementations is closed: Matched, Other and RetryRequested.
type Outcome interface {
	outcome()
}

// Matched means the answer corresponds to Option (original casing).
type Matched struct {
	Option string
}

// Other means the answer fits none of the options, or the question is
// open-ended.
type Other struct{}

// RetryRequested means the respondent has to answer the question again.
// Prompt restates the available options.
type RetryRequested struct {
	Prompt string
}

func (Matched) outcome()        {}
func (Other) outcome()          {}
func (RetryRequested) outcome() {}

// OtherLabel is what gets recorded for an Other outcome on a question
// that has options.
const OtherLabel = "other"
