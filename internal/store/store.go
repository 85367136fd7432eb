package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/survey-cli/internal/model"
)

// ResponseFilter specifies criteria for listing archived responses.
type ResponseFilter struct {
	SurveyID string `json:"survey_id,omitempty"`
	Topic    string `json:"topic,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// Store archives finalized surveys and their responses.
type Store interface {
	// Surveys
	SaveSurvey(ctx context.Context, survey model.Survey) error

	// Responses
	SaveResponses(ctx context.Context, surveyID string, responses []model.Response) error
	ListResponses(ctx context.Context, filter ResponseFilter) ([]model.Response, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open returns the Store for driver ("sqlite" or "postgres") connected to dsn.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "", "sqlite":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}

// defaultLimit caps ListResponses when the filter sets no limit.
const defaultLimit = 500

func limitOf(f ResponseFilter) int {
	if f.Limit <= 0 {
		return defaultLimit
	}
	return f.Limit
}
