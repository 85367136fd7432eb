package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/survey-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS surveys (
	id         TEXT PRIMARY KEY,
	topic      TEXT NOT NULL,
	questions  JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS responses (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	survey_id       TEXT NOT NULL REFERENCES surveys(id),
	position        INTEGER NOT NULL,
	question        JSONB NOT NULL,
	matched_option  TEXT,
	normalized_text TEXT NOT NULL,
	assistant_reply TEXT NOT NULL,
	raw_user_text   TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_surveys_topic ON surveys(topic);
CREATE INDEX IF NOT EXISTS idx_responses_survey_id ON responses(survey_id, position);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveSurvey(ctx context.Context, survey model.Survey) error {
	questionsJSON, err := json.Marshal(survey.Questions)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal questions")
	}
	createdAt := survey.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO surveys (id, topic, questions, created_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET topic = EXCLUDED.topic, questions = EXCLUDED.questions`,
		survey.ID, survey.Topic, questionsJSON, createdAt,
	)
	return eris.Wrapf(err, "postgres: save survey %s", survey.ID)
}

func (s *PostgresStore) SaveResponses(ctx context.Context, surveyID string, responses []model.Response) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin tx")
	}
	if err := insertResponses(ctx, tx, surveyID, responses); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit responses")
}

func insertResponses(ctx context.Context, tx pgx.Tx, surveyID string, responses []model.Response) error {
	var next int
	if err := tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(position), -1) + 1 FROM responses WHERE survey_id = $1`, surveyID,
	).Scan(&next); err != nil {
		return eris.Wrapf(err, "postgres: next position %s", surveyID)
	}

	for _, r := range responses {
		questionJSON, err := json.Marshal(r.Question)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal question")
		}
		tag, err := tx.Exec(ctx,
			`INSERT INTO responses (id, survey_id, position, question, matched_option, normalized_text, assistant_reply, raw_user_text, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO NOTHING`,
			responseID(r), surveyID, next, questionJSON, r.MatchedOption,
			r.NormalizedText, r.AssistantReply, r.RawUserText, createdAtOf(r),
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert response %d", next)
		}
		if tag.RowsAffected() > 0 {
			next++
		}
	}
	return nil
}

func (s *PostgresStore) ListResponses(ctx context.Context, filter ResponseFilter) ([]model.Response, error) {
	query := `SELECT r.id, r.question, r.matched_option, r.normalized_text, r.assistant_reply, r.raw_user_text, r.created_at
		FROM responses r JOIN surveys s ON s.id = r.survey_id WHERE 1=1`
	var args []any

	if filter.SurveyID != "" {
		args = append(args, filter.SurveyID)
		query += fmt.Sprintf(" AND r.survey_id = $%d", len(args))
	}
	if filter.Topic != "" {
		args = append(args, filter.Topic)
		query += fmt.Sprintf(" AND s.topic = $%d", len(args))
	}
	args = append(args, limitOf(filter))
	query += fmt.Sprintf(" ORDER BY s.created_at, r.survey_id, r.position LIMIT $%d", len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list responses")
	}
	defer rows.Close()

	var out []model.Response
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate responses")
}
