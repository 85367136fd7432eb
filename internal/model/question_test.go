package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewQuestion_WithOptions(t *testing.T) {
	q := NewQuestion("1. Do you smoke?", []string{"Yes", "No"})
	assert.Equal(t, "1. Do you smoke? Options: Yes; No", q.Text)
	assert.Equal(t, "1. Do you smoke?", q.Stem)
	assert.Equal(t, []string{"Yes", "No"}, q.Options)
	assert.False(t, q.OpenEnded())
	assert.Equal(t, "Yes; No", q.OptionsText())
}

func TestNewQuestion_OpenEnded(t *testing.T) {
	q := NewQuestion("How old are you?", nil)
	assert.Equal(t, "How old are you?", q.Text)
	assert.True(t, q.OpenEnded())
	assert.Empty(t, q.Options)
}

func TestNewQuestion_CopiesOptions(t *testing.T) {
	opts := []string{"a", "b"}
	q := NewQuestion("Pick?", opts)
	opts[0] = "changed"
	assert.Equal(t, "a", q.Options[0])
}

func TestResponseAnswer(t *testing.T) {
	opt := "stick"
	assert.Equal(t, "stick", Response{MatchedOption: &opt, NormalizedText: "a stick"}.Answer())
	assert.Equal(t, "17", Response{NormalizedText: "17"}.Answer())
}

func TestOutcomeVariants(t *testing.T) {
	for _, o := range []Outcome{Matched{Option: "x"}, Other{}, RetryRequested{Prompt: "p"}} {
		switch v := o.(type) {
		case Matched:
			assert.Equal(t, "x", v.Option)
		case Other:
		case RetryRequested:
			assert.Equal(t, "p", v.Prompt)
		default:
			t.Fatalf("unexpected outcome %T", o)
		}
	}
}
