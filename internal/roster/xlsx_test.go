package roster

import (
	"bytes"
	"testing"

	"github.com/phrazzld/classplan/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportXLSX(t *testing.T) {
	seat := int64(21)
	c := &domain.ClassRoom{
		ID:     5,
		Name:   "CM1",
		Tables: []domain.Table{{ID: 20}, {ID: 21}},
		Students: []domain.Student{
			{ID: 1, LastName: "Doe", FirstName: "John", TableID: &seat},
			{ID: 2, LastName: "Smith", FirstName: "Jane"},
		},
	}

	data, err := ExportXLSX(c)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "CM1", rows[0][0])
	assert.Equal(t, []string{"ID", "Last name", "First name", "Table"}, rows[1])
	assert.Equal(t, []string{"1", "Doe", "John", "2"}, rows[2])
	assert.Equal(t, []string{"2", "Smith", "Jane"}, rows[3][:3])
}

func TestXLSXRoundTrip(t *testing.T) {
	c, err := ImportCSV([]byte("Room X\nDoe,John\nSmith,Jane"))
	require.NoError(t, err)

	data, err := ExportXLSX(c)
	require.NoError(t, err)

	back, err := ImportXLSX(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "Room X", back.Name)
	assert.Equal(t, names(c), names(back))
	assert.Equal(t, c.StudentIDs(), back.StudentIDs())
}

func TestImportXLSX_SkipsIncompleteRows(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A1", "6e B"))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"ID", "Last name", "First name"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"", "Doe", "John"}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]interface{}{"9", "OnlyLast"}))
	require.NoError(t, f.SetSheetRow(sheet, "A5", &[]interface{}{"x", "Smith", "Jane"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	c, err := ImportXLSX(buf)
	require.NoError(t, err)
	assert.Equal(t, "6e B", c.Name)
	assert.Equal(t, []name{{"Doe", "John"}, {"Smith", "Jane"}}, names(c))
	assert.Equal(t, []int64{1, 2}, c.StudentIDs())
}

func TestImportXLSX_BlankName(t *testing.T) {
	f := excelize.NewFile()
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	_, err = ImportXLSX(buf)
	assert.ErrorIs(t, err, domain.ErrBlankName)
}
