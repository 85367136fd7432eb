package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_MigrateTwice(t *testing.T) {
	st := newTestSQLiteStore(t)
	assert.NoError(t, st.Migrate(context.Background()))
}

func TestSQLite_ResponsesRequireSurvey(t *testing.T) {
	st := newTestSQLiteStore(t)
	survey := testSurvey("orphan", "health", zeroTime)

	err := st.SaveResponses(context.Background(), "orphan", testResponses(survey, "Yes"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert response")
}

func TestSQLite_SaveSurveyDefaultsCreatedAt(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveSurvey(ctx, testSurvey("s-1", "health", zeroTime)))

	var topic string
	require.NoError(t, st.db.QueryRowContext(ctx, `SELECT topic FROM surveys WHERE id = ?`, "s-1").Scan(&topic))
	assert.Equal(t, "health", topic)
}

func TestSQLite_SaveResponsesRollsBack(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	// A cancelled context fails the transaction before any row lands.
	cctx, cancel := context.WithCancel(ctx)
	cancel()
	survey := testSurvey("s-1", "health", zeroTime)
	require.NoError(t, st.SaveSurvey(ctx, survey))
	require.Error(t, st.SaveResponses(cctx, survey.ID, testResponses(survey, "Yes")))

	got, err := st.ListResponses(ctx, ResponseFilter{SurveyID: survey.ID})
	require.NoError(t, err)
	assert.Empty(t, got)
}
