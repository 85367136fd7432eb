package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/survey-cli/internal/model"
)

func TestSession_ResetClearsResponses(t *testing.T) {
	s := New()
	first := s.Reset("health", []model.Question{model.NewQuestion("Do you smoke?", []string{"Yes", "No"})})
	s.Append(model.Response{RawUserText: "yes"})
	require.Equal(t, 1, s.Len())

	second := s.Reset("mobility", []model.Question{model.NewQuestion("Age?", nil)})
	assert.Equal(t, 0, s.Len())
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "mobility", s.Survey().Topic)
	require.Len(t, s.Questions(), 1)
	assert.Equal(t, "Age?", s.Questions()[0].Text)
}

func TestSession_ZeroValue(t *testing.T) {
	s := New()
	assert.Empty(t, s.Survey().Topic)
	assert.Empty(t, s.Questions())
	assert.Empty(t, s.Responses())
}

func TestSession_ReturnsCopies(t *testing.T) {
	s := New()
	s.Reset("t", []model.Question{model.NewQuestion("Q?", nil)})
	s.Append(model.Response{RawUserText: "a"})

	qs := s.Questions()
	qs[0].Text = "mutated"
	rs := s.Responses()
	rs[0].RawUserText = "mutated"

	assert.Equal(t, "Q?", s.Questions()[0].Text)
	assert.Equal(t, "a", s.Responses()[0].RawUserText)
}

func TestSession_Snapshot(t *testing.T) {
	s := New()
	s.Reset("t", []model.Question{model.NewQuestion("Q?", nil)})
	s.Append(model.Response{RawUserText: "a"})
	s.Append(model.Response{RawUserText: "b"})

	survey, responses := s.Snapshot()
	assert.Equal(t, "t", survey.Topic)
	require.Len(t, responses, 2)
	assert.Equal(t, "b", responses[1].RawUserText)
}

func TestSession_ConcurrentAppend(t *testing.T) {
	s := New()
	s.Reset("t", nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Append(model.Response{RawUserText: "x"})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, s.Len())
}
