package workbook

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/survey-cli/internal/model"
)

func strPtr(s string) *string { return &s }

var testQuestions = []model.Question{
	model.NewQuestion("1. Do you smoke?", []string{"Yes", "No"}),
	model.NewQuestion("2. How old are you?", nil),
}

func testResponses(answer, age string) []model.Response {
	return []model.Response{
		{
			Question:       testQuestions[0],
			MatchedOption:  strPtr(answer),
			NormalizedText: "yes",
			AssistantReply: "Got it. You've selected '" + answer + "'. Thanks!",
		},
		{
			Question:       testQuestions[1],
			NormalizedText: age,
			AssistantReply: "Got it. You've selected '" + age + "'. Thanks!",
		},
	}
}

func TestAppend_CreatesHeaderRows(t *testing.T) {
	w := NewWriter(filepath.Join(t.TempDir(), "uploads"))

	require.NoError(t, w.Append("health", testQuestions, testResponses("Yes", "42")))

	rows, err := w.Rows("health")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	require.GreaterOrEqual(t, len(rows[0]), 3)
	assert.Equal(t, "1. Do you smoke? Options: Yes; No", rows[0][0])
	assert.Equal(t, "2. How old are you?", rows[0][2])
	assert.Equal(t, []string{AnswerHeader, ReplyHeader, AnswerHeader, ReplyHeader}, rows[1])
	assert.Equal(t, []string{
		"Yes", "Got it. You've selected 'Yes'. Thanks!",
		"42", "Got it. You've selected '42'. Thanks!",
	}, rows[2])
}

func TestAppend_MergesAndCentersQuestionCells(t *testing.T) {
	w := NewWriter(t.TempDir())
	require.NoError(t, w.Append("health", testQuestions, testResponses("No", "30")))

	f, err := xlsx.OpenFile(w.Path("health"))
	require.NoError(t, err)
	cell := f.Sheet[SheetName].Rows[0].Cells[0]
	assert.Equal(t, 1, cell.HMerge)
	assert.Equal(t, "center", cell.GetStyle().Alignment.Horizontal)
}

func TestAppend_AppendsToExistingFile(t *testing.T) {
	w := NewWriter(t.TempDir())
	require.NoError(t, w.Append("health", testQuestions, testResponses("Yes", "42")))
	require.NoError(t, w.Append("health", testQuestions, testResponses("No", "17")))

	rows, err := w.Rows("health")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "No", rows[3][0])
	assert.Equal(t, "17", rows[3][2])
}

func TestAppend_EmptySurveyID(t *testing.T) {
	w := NewWriter(t.TempDir())
	err := w.Append("", testQuestions, nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrLocked)
}

func TestAppend_LockedFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores file permissions")
	}
	w := NewWriter(t.TempDir())
	require.NoError(t, w.Append("health", testQuestions, testResponses("Yes", "42")))
	require.NoError(t, os.Chmod(w.Path("health"), 0o444))

	err := w.Append("health", testQuestions, testResponses("No", "17"))
	assert.ErrorIs(t, err, ErrLocked)
}

func TestPath_StripsDirectories(t *testing.T) {
	w := NewWriter("/data")
	assert.Equal(t, filepath.Join("/data", "health.xlsx"), w.Path("../../health"))
}
