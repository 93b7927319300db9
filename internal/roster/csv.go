package roster

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/phrazzld/classplan/internal/domain"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// Codec errors
var (
	// ErrEmptyInput is returned when the input holds no non-blank line.
	ErrEmptyInput = fmt.Errorf("%w: csv input is empty", domain.ErrValidation)

	// ErrMalformed is returned when a canonical line cannot be parsed.
	ErrMalformed = fmt.Errorf("%w: malformed csv", domain.ErrValidation)
)

const (
	separator = ';'
	quote     = '"'
	utf8BOM   = "\xef\xbb\xbf"
)

// ExportCSV encodes the classroom name and ordered roster in the canonical
// layout: a header line `<classroomId>;"<name>"` followed by one line
// `<studentId>;"<lastName>";"<firstName>"` per student. Every line ends with
// '\n'. Tables, groups and annotations are not part of the format.
func ExportCSV(c *domain.ClassRoom) []byte {
	var buf bytes.Buffer
	buf.WriteString(strconv.FormatInt(c.ID, 10))
	buf.WriteByte(separator)
	buf.WriteString(quoteField(c.Name))
	buf.WriteByte('\n')
	for _, s := range c.Students {
		writeStudentLine(&buf, s.ID, s.LastName, s.FirstName)
	}
	return buf.Bytes()
}

// ImportCSV decodes a classroom from either the canonical layout written by
// ExportCSV or the "simple" layout: a first line holding the bare classroom
// name followed by `lastName,firstName` lines (`;` is accepted on lines
// without a comma).
//
// The shape is chosen from the first non-blank line: if it contains a
// semicolon the input is canonical. Simple input is rewritten to canonical
// form with classroom id 0 and student ids numbered from 1, skipping blank
// lines and lines with fewer than two fields.
//
// Input may be UTF-8 (with or without BOM) or Windows-1252. Names are
// NFC-normalised. The returned classroom has no owner.
func ImportCSV(data []byte) (*domain.ClassRoom, error) {
	text := decode(data)

	first, ok := firstNonBlankLine(text)
	if !ok {
		return nil, ErrEmptyInput
	}
	if !strings.ContainsRune(first, separator) {
		text = simpleToCanonical(text)
	}
	return parseCanonical(text)
}

// decode converts raw bytes to a UTF-8 string with unix line endings.
func decode(data []byte) string {
	data = bytes.TrimPrefix(data, []byte(utf8BOM))
	var text string
	if utf8.Valid(data) {
		text = string(data)
	} else {
		// Spreadsheet exports on Windows are commonly cp1252. The decoder
		// cannot fail on single-byte input.
		decoded, _ := charmap.Windows1252.NewDecoder().Bytes(data)
		text = string(decoded)
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

func firstNonBlankLine(text string) (string, bool) {
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			return line, true
		}
	}
	return "", false
}

// simpleToCanonical rewrites simple-shape text into the canonical layout.
func simpleToCanonical(text string) string {
	var buf bytes.Buffer
	scanner := bufio.NewScanner(strings.NewReader(text))

	header := true
	var nextID int64 = 1
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if header {
			buf.WriteString("0;")
			buf.WriteString(quoteField(unquoteField(line)))
			buf.WriteByte('\n')
			header = false
			continue
		}

		fields := strings.Split(line, ",")
		if len(fields) < 2 {
			fields = strings.Split(line, string(separator))
		}
		if len(fields) < 2 {
			continue
		}
		last := unquoteField(strings.TrimSpace(fields[0]))
		first := unquoteField(strings.TrimSpace(fields[1]))
		writeStudentLine(&buf, nextID, last, first)
		nextID++
	}
	return buf.String()
}

// parseCanonical reads the canonical layout into a classroom aggregate.
func parseCanonical(text string) (*domain.ClassRoom, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = separator
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyInput
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("%w: header needs an id and a name", ErrMalformed)
	}
	classID, err := parseID(header[0])
	if err != nil {
		return nil, fmt.Errorf("%w: classroom id %q", ErrMalformed, header[0])
	}

	c := &domain.ClassRoom{
		ID:       classID,
		Name:     norm.NFC.String(unquoteField(strings.TrimSpace(header[1]))),
		Students: []domain.Student{},
		Tables:   []domain.Table{},
	}

	seen := make(map[int64]struct{})
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if len(record) < 3 {
			return nil, fmt.Errorf("%w: student line needs id, last name and first name", ErrMalformed)
		}
		id, err := parseID(record[0])
		if err != nil {
			return nil, fmt.Errorf("%w: student id %q", ErrMalformed, record[0])
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: %d", domain.ErrDuplicateStudentID, id)
		}
		seen[id] = struct{}{}

		c.Students = append(c.Students, domain.Student{
			ID:        id,
			LastName:  norm.NFC.String(record[1]),
			FirstName: norm.NFC.String(record[2]),
		})
	}

	if strings.TrimSpace(c.Name) == "" {
		return nil, domain.ErrBlankName
	}
	return c, nil
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}

func writeStudentLine(buf *bytes.Buffer, id int64, lastName, firstName string) {
	buf.WriteString(strconv.FormatInt(id, 10))
	buf.WriteByte(separator)
	buf.WriteString(quoteField(lastName))
	buf.WriteByte(separator)
	buf.WriteString(quoteField(firstName))
	buf.WriteByte('\n')
}

// quoteField wraps s in double quotes, doubling embedded quotes.
func quoteField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// unquoteField strips wrapping quotes and collapses doubled quotes. Values
// that are not wrapped are returned unchanged.
func unquoteField(s string) string {
	if len(s) >= 2 && s[0] == quote && s[len(s)-1] == quote {
		return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
	}
	return s
}
