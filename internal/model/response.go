package model

import "time"

// Response records one resolved answer. Responses are appended to the
// session log and never modified.
type Response struct {
	ID             string    `json:"id"`
	Question       Question  `json:"question"`
	MatchedOption  *string   `json:"matched_option,omitempty"`
	NormalizedText string    `json:"normalized_text"`
	AssistantReply string    `json:"assistant_reply"`
	RawUserText    string    `json:"raw_user_text"`
	CreatedAt      time.Time `json:"created_at"`
}

// Answer returns the value written to the results workbook: the matched
// option, or the normalized text for an open-ended question.
func (r Response) Answer() string {
	if r.MatchedOption != nil {
		return *r.MatchedOption
	}
	return r.NormalizedText
}

// Survey identifies one extraction pass over an uploaded document.
type Survey struct {
	ID        string     `json:"id"`
	Topic     string     `json:"topic"`
	Questions []Question `json:"questions"`
	CreatedAt time.Time  `json:"created_at"`
}
