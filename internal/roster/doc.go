// Package roster converts classroom rosters to and from their file formats:
// the canonical semicolon-delimited CSV, the "simple" one-student-per-line
// CSV teachers type by hand, and an XLSX worksheet.
package roster
