// Package resolver maps a respondent's free-text answer onto one of a
// question's options.
//
// The model's reply is tried as an exact option first, then fuzzy-matched
// against every option. Replies the model marks "other" or "retry" are
// honored; anything else unrecognized fails open to Other, as does a
// failed completion. Finally, if no
// option matched but the normalized answer itself names an option, that
// option wins.
package resolver

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/sells-group/survey-cli/internal/lexicon"
	"github.com/sells-group/survey-cli/internal/match"
	"github.com/sells-group/survey-cli/internal/model"
	"github.com/sells-group/survey-cli/internal/oracle"
)

// DefaultThreshold is the minimum fuzzy score accepted as a match.
const DefaultThreshold = 85

// Recorder receives the response for every resolution that is not a retry.
type Recorder interface {
	Append(r model.Response)
}

// Resolver resolves answers using a language model and fuzzy matching.
type Resolver struct {
	oracle    oracle.Completer
	threshold int
	now       func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithThreshold overrides DefaultThreshold. Non-positive values are ignored.
func WithThreshold(score int) Option {
	return func(r *Resolver) {
		if score > 0 {
			r.threshold = score
		}
	}
}

// New creates a Resolver that consults c for every question with options.
func New(c oracle.Completer, opts ...Option) *Resolver {
	r := &Resolver{
		oracle:    c,
		threshold: DefaultThreshold,
		now:       time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve determines which option raw corresponds to. Every outcome except
// RetryRequested is recorded to rec. Resolve never fails.
func (r *Resolver) Resolve(ctx context.Context, rec Recorder, q model.Question, raw string) model.Outcome {
	input := lexicon.Normalize(raw)
	log := zap.L().With(zap.String("question", q.Stem))

	if q.OpenEnded() {
		rec.Append(r.response(q, nil, input, Acknowledgement(input), raw))
		log.Debug("recorded open-ended answer", zap.String("answer", input))
		return model.Other{}
	}

	index := NewOptionIndex(q.Options)
	completion, ok := r.oracle.Complete(ctx, ClassifyPrompt(q, input))
	reply := CleanReply(completion)

	// A failed completion carries the fallback text, which must never
	// match an option.
	var outcome model.Outcome = model.Other{}
	if ok {
		outcome = r.decide(index, reply, q)
	}

	// The respondent may have named an option outright.
	if _, matched := outcome.(model.Matched); !matched {
		if opt, ok := index.Lookup(input); ok {
			outcome = model.Matched{Option: opt}
		}
	}

	switch o := outcome.(type) {
	case model.Matched:
		opt := o.Option
		rec.Append(r.response(q, &opt, input, Acknowledgement(opt), raw))
		log.Debug("answer matched", zap.String("reply", reply), zap.String("option", opt))
	case model.Other:
		other := model.OtherLabel
		rec.Append(r.response(q, &other, input, Acknowledgement(other), raw))
		log.Debug("answer matched no option", zap.String("reply", reply))
	case model.RetryRequested:
		log.Debug("answer needs retry", zap.String("reply", reply))
	}
	return outcome
}

// decide applies the model-reply decision tree: exact option, fuzzy option,
// literal "other", literal "retry", then Other by default.
func (r *Resolver) decide(index *OptionIndex, reply string, q model.Question) model.Outcome {
	if opt, ok := index.Lookup(reply); ok {
		return model.Matched{Option: opt}
	}

	folded := index.Keys()
	if best, score := match.Best(reply, folded); best >= 0 && score >= r.threshold {
		opt, _ := index.Lookup(folded[best])
		return model.Matched{Option: opt}
	}

	switch reply {
	case replyOther:
		return model.Other{}
	case replyRetry:
		return model.RetryRequested{Prompt: RetryPrompt(q)}
	default:
		return model.Other{}
	}
}

func (r *Resolver) response(q model.Question, matched *string, input, reply, raw string) model.Response {
	return model.Response{
		ID:             uuid.NewString(),
		Question:       q,
		MatchedOption:  matched,
		NormalizedText: input,
		AssistantReply: reply,
		RawUserText:    raw,
		CreatedAt:      r.now().UTC(),
	}
}

// OptionIndex maps case-folded options to their original form. Options that
// fold to the same key keep the last one.
type OptionIndex struct {
	keys     []string
	original map[string]string
}

// NewOptionIndex builds an index over options in order.
func NewOptionIndex(options []string) *OptionIndex {
	fold := cases.Fold()
	idx := &OptionIndex{
		keys:     make([]string, len(options)),
		original: make(map[string]string, len(options)),
	}
	for i, opt := range options {
		key := fold.String(opt)
		idx.keys[i] = key
		idx.original[key] = opt
	}
	return idx
}

// Lookup returns the original option whose folded form equals s folded.
func (x *OptionIndex) Lookup(s string) (string, bool) {
	opt, ok := x.original[cases.Fold().String(s)]
	return opt, ok
}

// Keys returns the folded options in their original order.
func (x *OptionIndex) Keys() []string {
	return x.keys
}
