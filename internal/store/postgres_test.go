package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS surveys`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveSurvey(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	survey := testSurvey("s-1", "health", time.Now().UTC())

	mock.ExpectExec(`INSERT INTO surveys .* ON CONFLICT \(id\) DO UPDATE`).
		WithArgs("s-1", "health", pgxmock.AnyArg(), survey.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.SaveSurvey(context.Background(), survey))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveResponses(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	survey := testSurvey("s-1", "health", time.Now().UTC())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(position\), -1\) \+ 1 FROM responses`).
		WithArgs("s-1").
		WillReturnRows(pgxmock.NewRows([]string{"next"}).AddRow(3))
	mock.ExpectExec(`INSERT INTO responses`).
		WithArgs(pgxmock.AnyArg(), "s-1", 3, pgxmock.AnyArg(), pgxmock.AnyArg(),
			"yes", pgxmock.AnyArg(), "yeah I do", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO responses`).
		WithArgs(pgxmock.AnyArg(), "s-1", 4, pgxmock.AnyArg(), pgxmock.AnyArg(),
			"42", pgxmock.AnyArg(), "forty two", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, s.SaveResponses(context.Background(), "s-1", testResponses(survey, "Yes")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveResponses_SkipsArchivedIDs(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	survey := testSurvey("s-1", "health", time.Now().UTC())
	responses := testResponses(survey, "Yes")
	responses[0].ID = "r-1"
	responses[1].ID = "r-2"

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COALESCE`).
		WithArgs("s-1").
		WillReturnRows(pgxmock.NewRows([]string{"next"}).AddRow(2))
	mock.ExpectExec(`INSERT INTO responses .* ON CONFLICT \(id\) DO NOTHING`).
		WithArgs("r-1", "s-1", 2, pgxmock.AnyArg(), pgxmock.AnyArg(),
			"yes", pgxmock.AnyArg(), "yeah I do", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectExec(`INSERT INTO responses`).
		WithArgs("r-2", "s-1", 2, pgxmock.AnyArg(), pgxmock.AnyArg(),
			"42", pgxmock.AnyArg(), "forty two", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, s.SaveResponses(context.Background(), "s-1", responses))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveResponses_RollsBackOnError(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	survey := testSurvey("s-1", "health", time.Now().UTC())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COALESCE`).
		WithArgs("s-1").
		WillReturnRows(pgxmock.NewRows([]string{"next"}).AddRow(0))
	mock.ExpectExec(`INSERT INTO responses`).
		WillReturnError(errors.New("violates foreign key constraint"))
	mock.ExpectRollback()

	err := s.SaveResponses(context.Background(), "s-1", testResponses(survey, "Yes"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert response 0")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListResponses(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()
	matched := "Yes"

	rows := pgxmock.NewRows([]string{"id", "question", "matched_option", "normalized_text", "assistant_reply", "raw_user_text", "created_at"}).
		AddRow("r-1", []byte(`{"text":"1. Do you smoke? Options: Yes; No","stem":"1. Do you smoke?","options":["Yes","No"]}`),
			&matched, "yes", "Got it. You've selected 'Yes'. Thanks!", "yeah", now)

	mock.ExpectQuery(`SELECT r.id, r.question, .* FROM responses r JOIN surveys s .* AND r.survey_id = \$1 .* LIMIT \$2`).
		WithArgs("s-1", defaultLimit).
		WillReturnRows(rows)

	got, err := s.ListResponses(context.Background(), ResponseFilter{SurveyID: "s-1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "r-1", got[0].ID)
	assert.Equal(t, "1. Do you smoke?", got[0].Question.Stem)
	assert.Equal(t, []string{"Yes", "No"}, got[0].Question.Options)
	assert.Equal(t, "Yes", got[0].Answer())
	assert.Equal(t, now, got[0].CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListResponses_TopicAndOffset(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`AND s.topic = \$1 .* LIMIT \$2 OFFSET \$3`).
		WithArgs("health", 10, 20).
		WillReturnRows(pgxmock.NewRows([]string{"id", "question", "matched_option", "normalized_text", "assistant_reply", "raw_user_text", "created_at"}))

	got, err := s.ListResponses(context.Background(), ResponseFilter{Topic: "health", Limit: 10, Offset: 20})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListResponses_QueryError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT r.id, r.question`).
		WithArgs(defaultLimit).
		WillReturnError(errors.New("connection reset"))

	_, err := s.ListResponses(context.Background(), ResponseFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list responses")
}
