package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/survey-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS surveys (
	id         TEXT PRIMARY KEY,
	topic      TEXT NOT NULL,
	questions  TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS responses (
	id              TEXT PRIMARY KEY,
	survey_id       TEXT NOT NULL REFERENCES surveys(id),
	position        INTEGER NOT NULL,
	question        TEXT NOT NULL,
	matched_option  TEXT,
	normalized_text TEXT NOT NULL,
	assistant_reply TEXT NOT NULL,
	raw_user_text   TEXT NOT NULL,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_surveys_topic ON surveys(topic);
CREATE INDEX IF NOT EXISTS idx_responses_survey_id ON responses(survey_id, position);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveSurvey(ctx context.Context, survey model.Survey) error {
	questionsJSON, err := json.Marshal(survey.Questions)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal questions")
	}
	createdAt := survey.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO surveys (id, topic, questions, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET topic = excluded.topic, questions = excluded.questions`,
		survey.ID, survey.Topic, string(questionsJSON), createdAt,
	)
	return eris.Wrapf(err, "sqlite: save survey %s", survey.ID)
}

// SaveResponses appends responses after the survey's existing ones. A
// response whose ID is already archived is skipped.
func (s *SQLiteStore) SaveResponses(ctx context.Context, surveyID string, responses []model.Response) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	var next int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), -1) + 1 FROM responses WHERE survey_id = ?`, surveyID,
	).Scan(&next); err != nil {
		return eris.Wrapf(err, "sqlite: next position %s", surveyID)
	}

	for _, r := range responses {
		questionJSON, err := json.Marshal(r.Question)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal question")
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO responses (id, survey_id, position, question, matched_option, normalized_text, assistant_reply, raw_user_text, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING`,
			responseID(r), surveyID, next, string(questionJSON), r.MatchedOption,
			r.NormalizedText, r.AssistantReply, r.RawUserText, createdAtOf(r),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert response %d", next)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			next++
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit responses")
}

func (s *SQLiteStore) ListResponses(ctx context.Context, filter ResponseFilter) ([]model.Response, error) {
	query := `SELECT r.id, r.question, r.matched_option, r.normalized_text, r.assistant_reply, r.raw_user_text, r.created_at
		FROM responses r JOIN surveys s ON s.id = r.survey_id WHERE 1=1`
	var args []any

	if filter.SurveyID != "" {
		query += ` AND r.survey_id = ?`
		args = append(args, filter.SurveyID)
	}
	if filter.Topic != "" {
		query += ` AND s.topic = ?`
		args = append(args, filter.Topic)
	}
	query += ` ORDER BY s.created_at, r.survey_id, r.position LIMIT ?`
	args = append(args, limitOf(filter))

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list responses")
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
	return out, eris.Wrap(rows.Err(), "sqlite: iterate responses")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanResponse(row scannable) (*model.Response, error) {
	var (
		r            model.Response
		questionJSON []byte
	)
	if err := row.Scan(&r.ID, &questionJSON, &r.MatchedOption, &r.NormalizedText, &r.AssistantReply, &r.RawUserText, &r.CreatedAt); err != nil {
		return nil, eris.Wrap(err, "store: scan response")
	}
	if err := json.Unmarshal(questionJSON, &r.Question); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal question")
	}
	return &r, nil
}

// responseID is the archive key of r. Responses that already carry an ID
// are archived at most once.
func responseID(r model.Response) string {
	if r.ID != "" {
		return r.ID
	}
	return uuid.NewString()
}

func createdAtOf(r model.Response) time.Time {
	if r.CreatedAt.IsZero() {
		return time.Now().UTC()
	}
	return r.CreatedAt.UTC()
}
