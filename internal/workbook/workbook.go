// Package workbook persists survey responses to one .xlsx file per survey.
//
// Layout: row 1 holds each question's text merged across two centered
// columns, row 2 labels those columns "User Answer" and "AI Reply", and
// every finalize appends one row with two cells per response.
package workbook

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/survey-cli/internal/model"
)

// SheetName is the sheet every results workbook writes to.
const SheetName = "Responses"

// Sub-header labels written under each question.
const (
	AnswerHeader = "User Answer"
	ReplyHeader  = "AI Reply"
)

// ErrLocked means the workbook could not be opened for writing, usually
// because a spreadsheet application holds it open.
var ErrLocked = errors.New("workbook: file is locked")

// Writer appends response rows to workbooks under a directory.
type Writer struct {
	dir string
	mu  sync.Mutex
}

// NewWriter creates a Writer rooted at dir. The directory is created on the
// first Append if it does not exist.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Path returns the workbook path for a survey.
func (w *Writer) Path(surveyID string) string {
	return filepath.Join(w.dir, filepath.Base(surveyID)+".xlsx")
}

// Append adds one row holding responses to the survey's workbook, creating
// the file with its header rows when absent.
func (w *Writer) Append(surveyID string, questions []model.Question, responses []model.Response) error {
	if surveyID == "" {
		return eris.New("workbook: empty survey id")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return eris.Wrap(err, "workbook: create dir")
	}

	path := w.Path(surveyID)
	f, sheet, err := openOrCreate(path, questions)
	if err != nil {
		return err
	}

	row := sheet.AddRow()
	for _, r := range responses {
		row.AddCell().SetString(r.Answer())
		row.AddCell().SetString(r.AssistantReply)
	}

	if err := f.Save(path); err != nil {
		if errors.Is(err, os.ErrPermission) {
			return ErrLocked
		}
		return eris.Wrap(err, "workbook: save")
	}

	zap.L().Info("workbook: appended responses",
		zap.String("path", path),
		zap.Int("responses", len(responses)),
	)
	return nil
}

// Rows reads every row of a survey's workbook as strings.
func (w *Writer) Rows(surveyID string) ([][]string, error) {
	f, err := xlsx.OpenFile(w.Path(surveyID))
	if err != nil {
		return nil, eris.Wrap(err, "workbook: open file")
	}
	sheet, ok := f.Sheet[SheetName]
	if !ok {
		return nil, eris.Errorf("workbook: sheet %q not found", SheetName)
	}

	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func openOrCreate(path string, questions []model.Question) (*xlsx.File, *xlsx.Sheet, error) {
	fh, err := os.OpenFile(path, os.O_RDWR, 0)
	switch {
	case err == nil:
		_ = fh.Close()
	case errors.Is(err, os.ErrNotExist):
		return create(questions)
	case errors.Is(err, os.ErrPermission):
		return nil, nil, ErrLocked
	default:
		return nil, nil, eris.Wrap(err, "workbook: open file")
	}

	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, nil, eris.Wrap(err, "workbook: read file")
	}
	sheet, ok := f.Sheet[SheetName]
	if !ok {
		return nil, nil, eris.Errorf("workbook: sheet %q not found", SheetName)
	}
	return f, sheet, nil
}

func create(questions []model.Question) (*xlsx.File, *xlsx.Sheet, error) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return nil, nil, eris.Wrap(err, "workbook: add sheet")
	}

	centered := xlsx.NewStyle()
	centered.Alignment.Horizontal = "center"
	centered.ApplyAlignment = true

	header := sheet.AddRow()
	for _, q := range questions {
		cell := header.AddCell()
		cell.SetString(q.Text)
		cell.SetStyle(centered)
		cell.Merge(1, 0)
		header.AddCell()
	}

	sub := sheet.AddRow()
	for range questions {
		sub.AddCell().SetString(AnswerHeader)
		sub.AddCell().SetString(ReplyHeader)
	}
	return f, sheet, nil
}
