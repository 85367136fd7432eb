// Package explain produces short plain-language explanations of survey
// questions and caches them per question.
package explain

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/survey-cli/internal/oracle"
)

// Fallback is returned when no explanation could be generated.
const Fallback = "Sorry, I couldn't explain the question right now."

const explainPrompt = `You are a friendly survey assistant. Give a very short, clear explanation of the question so the user can understand it better. Do NOT repeat the original question. Do NOT mention or list the options in the explanation.

Question: %s
Explanation:`

// Prompt builds the explanation prompt for a stored question text.
func Prompt(question string) string {
	return fmt.Sprintf(explainPrompt, question)
}

// Explainer asks the oracle for explanations and remembers them.
type Explainer struct {
	oracle oracle.Oracle
	cache  Cache
}

// New creates an Explainer. A nil cache disables caching.
func New(o oracle.Oracle, cache Cache) *Explainer {
	if cache == nil {
		cache = nopCache{}
	}
	return &Explainer{oracle: o, cache: cache}
}

// Explain returns the explanation for question. Failures yield Fallback and
// are not cached.
func (e *Explainer) Explain(ctx context.Context, question string) string {
	log := zap.L().With(zap.String("question", question))

	if cached, ok, err := e.cache.Get(ctx, question); err != nil {
		log.Warn("explain: cache get failed", zap.Error(err))
	} else if ok {
		return cached
	}

	out, err := e.oracle.Complete(ctx, Prompt(question))
	out = strings.TrimSpace(out)
	if err != nil || out == "" {
		log.Warn("explain: completion failed", zap.Error(err))
		return Fallback
	}

	if err := e.cache.Set(ctx, question, out); err != nil {
		log.Warn("explain: cache set failed", zap.Error(err))
	}
	return out
}

// Reset drops every cached explanation.
func (e *Explainer) Reset(ctx context.Context) error {
	return e.cache.Clear(ctx)
}
