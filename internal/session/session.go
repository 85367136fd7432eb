// Package session holds the state of the survey currently being taken.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/survey-cli/internal/model"
)

// Session is the question list and response log of one survey. It is safe
// for concurrent use; every mutation is a single locked step.
type Session struct {
	mu        sync.RWMutex
	survey    model.Survey
	responses []model.Response
}

// New returns an empty session.
func New() *Session {
	return &Session{}
}

// Reset starts a new survey: the topic and questions are replaced and the
// response log is cleared in one step. Returns the new survey.
func (s *Session) Reset(topic string, questions []model.Question) model.Survey {
	survey := model.Survey{
		ID:        uuid.NewString(),
		Topic:     topic,
		Questions: append([]model.Question(nil), questions...),
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.survey = survey
	s.responses = nil
	return survey
}

// Survey returns the current survey. The zero Survey means nothing has
// been extracted yet.
func (s *Session) Survey() model.Survey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.survey
	out.Questions = append([]model.Question(nil), s.survey.Questions...)
	return out
}

// Questions returns the current questions in document order.
func (s *Session) Questions() []model.Question {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Question(nil), s.survey.Questions...)
}

// Append adds a response to the log.
func (s *Session) Append(r model.Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses = append(s.responses, r)
}

// Responses returns a copy of the response log.
func (s *Session) Responses() []model.Response {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Response(nil), s.responses...)
}

// Len returns the number of logged responses.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.responses)
}

// Snapshot returns the survey and response log as of one instant.
func (s *Session) Snapshot() (model.Survey, []model.Response) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	survey := s.survey
	survey.Questions = append([]model.Question(nil), s.survey.Questions...)
	return survey, append([]model.Response(nil), s.responses...)
}
