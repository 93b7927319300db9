package roster

import (
	"testing"

	"github.com/phrazzld/classplan/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type name struct{ last, first string }

func names(c *domain.ClassRoom) []name {
	out := make([]name, len(c.Students))
	for i, s := range c.Students {
		out[i] = name{s.LastName, s.FirstName}
	}
	return out
}

func TestExportCSV(t *testing.T) {
	c := &domain.ClassRoom{
		ID:   12,
		Name: `Room "X"`,
		Students: []domain.Student{
			{ID: 3, FirstName: "John", LastName: "Doe"},
			{ID: 4, FirstName: "Jane", LastName: `O"Neil`},
		},
	}

	want := "12;\"Room \"\"X\"\"\"\n" +
		"3;\"Doe\";\"John\"\n" +
		"4;\"O\"\"Neil\";\"Jane\"\n"
	assert.Equal(t, want, string(ExportCSV(c)))
}

func TestExportCSV_EmptyRoster(t *testing.T) {
	c := &domain.ClassRoom{ID: 1, Name: "Empty"}
	assert.Equal(t, "1;\"Empty\"\n", string(ExportCSV(c)))
}

func TestImportCSV_Simple(t *testing.T) {
	c, err := ImportCSV([]byte("Room X\nDoe,John\nSmith,Jane"))
	require.NoError(t, err)

	assert.Equal(t, int64(0), c.ID)
	assert.Equal(t, "Room X", c.Name)
	assert.Equal(t, []name{{"Doe", "John"}, {"Smith", "Jane"}}, names(c))
	assert.Equal(t, []int64{1, 2}, c.StudentIDs())
}

func TestImportCSV_SimpleSkipsBlankAndMalformedLines(t *testing.T) {
	input := "\n\n  Room Y  \r\n" +
		"Doe, John\r\n" +
		"\r\n" +
		"lonely\r\n" +
		"Smith;Jane\r\n" +
		"\"Martin\",\"Anne\"\r\n"

	c, err := ImportCSV([]byte(input))
	require.NoError(t, err)

	assert.Equal(t, "Room Y", c.Name)
	assert.Equal(t, []name{{"Doe", "John"}, {"Smith", "Jane"}, {"Martin", "Anne"}}, names(c))
	assert.Equal(t, []int64{1, 2, 3}, c.StudentIDs())
}

func TestImportCSV_SimplePrefersComma(t *testing.T) {
	c, err := ImportCSV([]byte("Room Z\nDoe, John;x\nSmith;Jane\n"))
	require.NoError(t, err)

	assert.Equal(t, []name{{"Doe", "John;x"}, {"Smith", "Jane"}}, names(c))
}

func TestImportCSV_CanonicalHeaderNameIsTrimmedAndUnquoted(t *testing.T) {
	c, err := ImportCSV([]byte("5; \"Room\" \n1;\"Doe\";\"John\"\n"))
	require.NoError(t, err)

	assert.Equal(t, int64(5), c.ID)
	assert.Equal(t, "Room", c.Name)
	assert.Equal(t, []name{{"Doe", "John"}}, names(c))
}

func TestImportCSV_Canonical(t *testing.T) {
	input := "7;\"Room \"\"A\"\"; 2nd floor\"\n" +
		"10;\"Doe\";\"John\"\n" +
		"\n" +
		"4;\"O\"\"Neil\";\"Jane\"\n"

	c, err := ImportCSV([]byte(input))
	require.NoError(t, err)

	assert.Equal(t, int64(7), c.ID)
	assert.Equal(t, `Room "A"; 2nd floor`, c.Name)
	assert.Equal(t, []int64{10, 4}, c.StudentIDs())
	assert.Equal(t, []name{{"Doe", "John"}, {`O"Neil`, "Jane"}}, names(c))
}

func TestImportCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{name: "empty", input: "", want: ErrEmptyInput},
		{name: "only blank lines", input: "\n \n\t\n", want: ErrEmptyInput},
		{name: "bad classroom id", input: "x;\"Room\"\n", want: ErrMalformed},
		{name: "short student line", input: "1;\"Room\"\n2;\"Doe\"\n", want: ErrMalformed},
		{name: "bad student id", input: "1;\"Room\"\nabc;\"Doe\";\"John\"\n", want: ErrMalformed},
		{name: "duplicate student id", input: "1;\"Room\"\n2;\"A\";\"B\"\n2;\"C\";\"D\"\n", want: domain.ErrDuplicateStudentID},
		{name: "blank canonical name", input: "1;\"\"\n", want: domain.ErrBlankName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ImportCSV([]byte(tt.input))
			assert.Nil(t, c)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, domain.IsValidation(err))
		})
	}
}

func TestImportCSV_Encodings(t *testing.T) {
	t.Run("utf8 bom", func(t *testing.T) {
		c, err := ImportCSV([]byte("\xef\xbb\xbfCM2\nBéranger,Zoé\n"))
		require.NoError(t, err)
		assert.Equal(t, "CM2", c.Name)
		assert.Equal(t, []name{{"Béranger", "Zoé"}}, names(c))
	})

	t.Run("windows-1252", func(t *testing.T) {
		// "CM2\nBéranger,Zoé\n" encoded as cp1252
		input := []byte{'C', 'M', '2', '\n', 'B', 0xe9, 'r', 'a', 'n', 'g', 'e', 'r', ',', 'Z', 'o', 0xe9, '\n'}
		c, err := ImportCSV(input)
		require.NoError(t, err)
		assert.Equal(t, []name{{"Béranger", "Zoé"}}, names(c))
	})

	t.Run("nfc normalisation", func(t *testing.T) {
		// "e" followed by a combining acute accent
		c, err := ImportCSV([]byte("CM2\nBe\u0301ranger,Zoe\u0301\n"))
		require.NoError(t, err)
		assert.Equal(t, []name{{"B\u00e9ranger", "Zo\u00e9"}}, names(c))
	})
}

func TestCSVRoundTrip(t *testing.T) {
	inputs := []string{
		"Room X\nDoe,John\nSmith,Jane",
		"3;\"Quoted \"\"Room\"\"\"\n1;\"A;B\";\"C\"\n2;\"D\";\"E\"\"F\"\n",
		"Solo\n",
	}

	for _, input := range inputs {
		first, err := ImportCSV([]byte(input))
		require.NoError(t, err, input)

		second, err := ImportCSV(ExportCSV(first))
		require.NoError(t, err, input)

		assert.Equal(t, first.Name, second.Name)
		assert.Equal(t, names(first), names(second))
		assert.Equal(t, ExportCSV(first), ExportCSV(second))
	}
}
