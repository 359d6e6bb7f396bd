package store

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"classpulse/internal/model"
)

// exportHeader is the column order for classroom data exports.
var exportHeader = []string{
	"student_id", "question", "answer", "score", "feedback", "suggestions", "submitted_at",
}

// GetClassroomData returns the Student x Answer join for one classroom,
// ordered by submission time ascending, ready for export.
func (s *Store) GetClassroomData(classCode string) ([]model.AnswerRecord, error) {
	rows, err := s.db.Query(
		`SELECT st.student_id, a.question, a.answer, a.score, a.feedback, a.suggestions, a.submitted_at
		 FROM answers a
		 JOIN students st ON a.student_id = st.student_id
		 WHERE a.class_code = ?
		 ORDER BY a.submitted_at, a.id`,
		classCode,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []model.AnswerRecord
	for rows.Next() {
		rec, err := scanAnswerRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanAnswerRecord(rows *sql.Rows) (model.AnswerRecord, error) {
	var rec model.AnswerRecord
	var suggestions string
	err := rows.Scan(&rec.StudentID, &rec.Question, &rec.Answer,
		&rec.Score, &rec.Feedback, &suggestions, &rec.SubmittedAt)
	if err != nil {
		return rec, err
	}
	if suggestions != "" {
		if err := json.Unmarshal([]byte(suggestions), &rec.Suggestions); err != nil {
			return rec, fmt.Errorf("decode suggestions: %w", err)
		}
	}
	return rec, nil
}

// ExportFileName builds the download file name for a classroom export:
// classroom_{class_code}_{timestamp}.{csv|xlsx}.
func ExportFileName(classCode, format string, now time.Time) string {
	return fmt.Sprintf("classroom_%s_%s.%s", classCode, now.Format("20060102150405"), format)
}

// WriteCSV writes export records as CSV with a header row. Suggestions
// are JSON-encoded into a single cell so the file round-trips.
func WriteCSV(w io.Writer, records []model.AnswerRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, rec := range records {
		row, err := exportRow(rec)
		if err != nil {
			return err
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a CSV export back into records, inverse of WriteCSV.
func ReadCSV(r io.Reader) ([]model.AnswerRecord, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty export")
	}
	var records []model.AnswerRecord
	for _, row := range rows[1:] {
		if len(row) != len(exportHeader) {
			return nil, fmt.Errorf("expected %d columns, got %d", len(exportHeader), len(row))
		}
		score, err := strconv.ParseFloat(row[3], 64)
		if err != nil {
			return nil, fmt.Errorf("parse score %q: %w", row[3], err)
		}
		var suggestions []string
		if row[5] != "" {
			if err := json.Unmarshal([]byte(row[5]), &suggestions); err != nil {
				return nil, fmt.Errorf("decode suggestions: %w", err)
			}
		}
		submittedAt, err := time.Parse(time.RFC3339Nano, row[6])
		if err != nil {
			return nil, fmt.Errorf("parse submitted_at %q: %w", row[6], err)
		}
		records = append(records, model.AnswerRecord{
			StudentID:   row[0],
			Question:    row[1],
			Answer:      row[2],
			Score:       score,
			Feedback:    row[4],
			Suggestions: suggestions,
			SubmittedAt: submittedAt,
		})
	}
	return records, nil
}

// WriteXLSX writes export records as a single-sheet Excel workbook.
func WriteXLSX(w io.Writer, records []model.AnswerRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header := make([]any, len(exportHeader))
	for i, h := range exportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, rec := range records {
		row, err := exportRow(rec)
		if err != nil {
			return err
		}
		cells := make([]any, len(row))
		for j, c := range row {
			cells[j] = c
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return err
		}
	}
	return f.Write(w)
}

func exportRow(rec model.AnswerRecord) ([]string, error) {
	suggestions, err := json.Marshal(rec.Suggestions)
	if err != nil {
		return nil, fmt.Errorf("encode suggestions: %w", err)
	}
	return []string{
		rec.StudentID,
		rec.Question,
		rec.Answer,
		strconv.FormatFloat(rec.Score, 'g', -1, 64),
		rec.Feedback,
		string(suggestions),
		rec.SubmittedAt.Format(time.RFC3339Nano),
	}, nil
}
