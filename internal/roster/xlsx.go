package roster

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/phrazzld/classplan/internal/domain"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"
)

// SheetName is the worksheet written by ExportXLSX.
const SheetName = "Roster"

var xlsxHeader = []interface{}{"ID", "Last name", "First name", "Table"}

// ExportXLSX renders the classroom as a spreadsheet: the classroom name in A1,
// a header row, then one row per student with the 1-based table position of
// the student's seat (empty when unseated).
func ExportXLSX(c *domain.ClassRoom) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("failed to name roster sheet: %w", err)
	}
	if err := f.SetCellValue(SheetName, "A1", c.Name); err != nil {
		return nil, fmt.Errorf("failed to write classroom name: %w", err)
	}
	if err := f.SetSheetRow(SheetName, "A2", &xlsxHeader); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}

	tablePos := make(map[int64]int, len(c.Tables))
	for i, t := range c.Tables {
		tablePos[t.ID] = i + 1
	}

	for i, s := range c.Students {
		cell, err := excelize.CoordinatesToCellName(1, i+3)
		if err != nil {
			return nil, err
		}
		row := []interface{}{s.ID, s.LastName, s.FirstName, ""}
		if s.TableID != nil {
			row[3] = tablePos[*s.TableID]
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write student row %d: %w", i, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// ImportXLSX reads a workbook in the ExportXLSX layout from the first sheet.
// Rows without both a last and a first name are skipped. Student ids are
// taken from column A when numeric and numbered from 1 otherwise; seats are
// not imported.
func ImportXLSX(r io.Reader) (*domain.ClassRoom, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrMalformed)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 || len(rows[0]) == 0 || strings.TrimSpace(rows[0][0]) == "" {
		return nil, domain.ErrBlankName
	}

	c := &domain.ClassRoom{
		Name:     norm.NFC.String(strings.TrimSpace(rows[0][0])),
		Students: []domain.Student{},
		Tables:   []domain.Table{},
	}

	seen := make(map[int64]struct{})
	var nextID int64 = 1
	for i := 2; i < len(rows); i++ {
		row := rows[i]
		if len(row) < 3 || strings.TrimSpace(row[1]) == "" || strings.TrimSpace(row[2]) == "" {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(row[0]), 10, 64)
		if err != nil {
			id = nextID
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: %d", domain.ErrDuplicateStudentID, id)
		}
		seen[id] = struct{}{}
		nextID = max(nextID, id) + 1

		c.Students = append(c.Students, domain.Student{
			ID:        id,
			LastName:  norm.NFC.String(strings.TrimSpace(row[1])),
			FirstName: norm.NFC.String(strings.TrimSpace(row[2])),
		})
	}
	return c, nil
}
