package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/survey-cli/internal/model"
)

func newTestSQLite(t *testing.T) Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func strPtr(s string) *string { return &s }

func testSurvey(id, topic string, created time.Time) model.Survey {
	return model.Survey{
		ID:    id,
		Topic: topic,
		Questions: []model.Question{
			model.NewQuestion("1. Do you smoke?", []string{"Yes", "No"}),
			model.NewQuestion("2. How old are you?", nil),
		},
		CreatedAt: created,
	}
}

func testResponses(s model.Survey, answer string) []model.Response {
	return []model.Response{
		{
			Question:       s.Questions[0],
			MatchedOption:  strPtr(answer),
			NormalizedText: "yes",
			AssistantReply: "Got it. You've selected '" + answer + "'. Thanks!",
			RawUserText:    "yeah I do",
		},
		{
			Question:       s.Questions[1],
			NormalizedText: "42",
			AssistantReply: "Got it. You've selected '42'. Thanks!",
			RawUserText:    "forty two",
		},
	}
}

func storeTestSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("SaveAndListResponses", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		survey := testSurvey("s-1", "health", time.Now().UTC())
		require.NoError(t, s.SaveSurvey(ctx, survey))
		require.NoError(t, s.SaveResponses(ctx, survey.ID, testResponses(survey, "Yes")))

		got, err := s.ListResponses(ctx, ResponseFilter{SurveyID: survey.ID})
		require.NoError(t, err)
		require.Len(t, got, 2)

		require.NotNil(t, got[0].MatchedOption)
		assert.Equal(t, "Yes", *got[0].MatchedOption)
		assert.Equal(t, survey.Questions[0], got[0].Question)
		assert.Equal(t, "yeah I do", got[0].RawUserText)
		assert.False(t, got[0].CreatedAt.IsZero())

		assert.Nil(t, got[1].MatchedOption)
		assert.Equal(t, "42", got[1].Answer())
	})

	t.Run("AppendsKeepOrder", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		survey := testSurvey("s-1", "health", time.Now().UTC())
		require.NoError(t, s.SaveSurvey(ctx, survey))
		require.NoError(t, s.SaveResponses(ctx, survey.ID, testResponses(survey, "Yes")))
		require.NoError(t, s.SaveResponses(ctx, survey.ID, testResponses(survey, "No")))

		got, err := s.ListResponses(ctx, ResponseFilter{SurveyID: survey.ID})
		require.NoError(t, err)
		require.Len(t, got, 4)
		assert.Equal(t, "Yes", *got[0].MatchedOption)
		assert.Equal(t, "No", *got[2].MatchedOption)
	})

	t.Run("ResaveSkipsArchivedResponses", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		survey := testSurvey("s-1", "health", time.Now().UTC())
		first := testResponses(survey, "Yes")
		first[0].ID, first[1].ID = "r-1", "r-2"
		require.NoError(t, s.SaveSurvey(ctx, survey))
		require.NoError(t, s.SaveResponses(ctx, survey.ID, first))

		// The log grows by one response between two finalizes.
		later := append(first, model.Response{
			ID:             "r-3",
			Question:       survey.Questions[0],
			MatchedOption:  strPtr("No"),
			NormalizedText: "no",
			AssistantReply: "Got it. You've selected 'No'. Thanks!",
			RawUserText:    "nope",
		})
		require.NoError(t, s.SaveResponses(ctx, survey.ID, later))

		got, err := s.ListResponses(ctx, ResponseFilter{SurveyID: survey.ID})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, []string{"r-1", "r-2", "r-3"}, []string{got[0].ID, got[1].ID, got[2].ID})
	})

	t.Run("SaveSurveyIsIdempotent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		survey := testSurvey("s-1", "health", time.Now().UTC())
		require.NoError(t, s.SaveSurvey(ctx, survey))
		require.NoError(t, s.SaveSurvey(ctx, survey))
	})

	t.Run("FilterByTopic", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		health := testSurvey("s-1", "health", time.Now().UTC().Add(-time.Hour))
		mobility := testSurvey("s-2", "mobility", time.Now().UTC())
		for _, sv := range []model.Survey{health, mobility} {
			require.NoError(t, s.SaveSurvey(ctx, sv))
			require.NoError(t, s.SaveResponses(ctx, sv.ID, testResponses(sv, "Yes")))
		}

		got, err := s.ListResponses(ctx, ResponseFilter{Topic: "mobility"})
		require.NoError(t, err)
		assert.Len(t, got, 2)

		all, err := s.ListResponses(ctx, ResponseFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 4)
	})

	t.Run("LimitAndOffset", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		survey := testSurvey("s-1", "health", time.Now().UTC())
		require.NoError(t, s.SaveSurvey(ctx, survey))
		require.NoError(t, s.SaveResponses(ctx, survey.ID, testResponses(survey, "Yes")))

		got, err := s.ListResponses(ctx, ResponseFilter{Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "42", got[0].NormalizedText)
	})

	t.Run("EmptyList", func(t *testing.T) {
		s := newStore(t)
		got, err := s.ListResponses(context.Background(), ResponseFilter{SurveyID: "missing"})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestSQLiteStore(t *testing.T) {
	storeTestSuite(t, newTestSQLite)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "dsn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}

func TestOpen_SQLite(t *testing.T) {
	s, err := Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "open.db"))
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck
	assert.IsType(t, &SQLiteStore{}, s)
}

var zeroTime time.Time
