package importer

import (
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	dErrors "rollcall/pkg/domain-errors"
)

// Source file layout. Both sources share the same delimiter and the
// first two rows are a title row and a column-header row.
const (
	fieldDelimiter = ";"
	minSourceRows  = 3

	// groups source columns; column 2 is a spacer.
	groupColCode        = 0
	groupColName        = 1
	groupColCoordinator = 3

	// persons source columns.
	personColFirstName = 1
	personColPrefix    = 2
	personColSurname   = 3
	personColPhone     = 5
	personColEmail     = 6
	personColStreet    = 7
	personColZipCode   = 8
	personColCity      = 9
	personColBirthDate = 11

	// A row containing this phrase ends the groups table.
	groupStopMarker = "nieuwe groepen toevoegen boven deze rij"

	// A persons row whose first-name cell equals this is a totals row.
	summaryRowMarker = "totaal"
)

// decodeSource interprets raw source bytes. Valid UTF-8 passes through;
// anything else is treated as Windows-1252, the encoding the legacy
// exports use.
func decodeSource(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		// Windows-1252 maps every byte, so this cannot happen; keep
		// the raw bytes rather than fail the run.
		return string(raw)
	}
	return string(decoded)
}

func sourceRows(raw []byte, label string) ([][]string, error) {
	text := strings.ReplaceAll(decodeSource(raw), "\r\n", "\n")
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) < minSourceRows {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput,
			"%s source must have at least %d rows, got %d", label, minSourceRows, len(lines))
	}
	rows := make([][]string, len(lines))
	for i, line := range lines {
		rows[i] = strings.Split(line, fieldDelimiter)
	}
	return rows, nil
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// ParseGroupsSource turns the groups source into group definitions.
// Rows with a blank code or name are skipped; a row containing the
// stop marker ends the table without error.
func ParseGroupsSource(raw []byte) ([]GroupDefinition, error) {
	rows, err := sourceRows(raw, "groups")
	if err != nil {
		return nil, err
	}

	var defs []GroupDefinition
	for _, row := range rows[2:] {
		if strings.Contains(strings.ToLower(strings.Join(row, fieldDelimiter)), groupStopMarker) {
			break
		}
		code := cell(row, groupColCode)
		name := cell(row, groupColName)
		if code == "" || name == "" {
			continue
		}
		defs = append(defs, GroupDefinition{
			Code:            code,
			Name:            name,
			CoordinatorName: cell(row, groupColCoordinator),
		})
	}
	return defs, nil
}

// isAbbreviationHeader reports whether a header cell marks a group
// membership column: exactly two alphabetic characters.
func isAbbreviationHeader(s string) bool {
	if utf8.RuneCountInString(s) != 2 {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// ParsePersonsSource turns the persons source into person records.
// codeToName maps group abbreviations to full group names; header
// abbreviation columns without a match are ignored.
func ParsePersonsSource(raw []byte, codeToName map[string]string) ([]PersonRecord, error) {
	rows, err := sourceRows(raw, "persons")
	if err != nil {
		return nil, err
	}

	lowered := make(map[string]string, len(codeToName))
	for code, name := range codeToName {
		lowered[strings.ToLower(code)] = name
	}

	type groupColumn struct {
		idx  int
		code string
		name string
	}
	var columns []groupColumn
	for idx, header := range rows[1] {
		header = strings.TrimSpace(header)
		if !isAbbreviationHeader(header) {
			continue
		}
		if name, ok := lowered[strings.ToLower(header)]; ok {
			columns = append(columns, groupColumn{idx: idx, code: strings.ToLower(header), name: name})
		}
	}

	var records []PersonRecord
	for _, row := range rows[2:] {
		firstName := cell(row, personColFirstName)
		if firstName == "" || strings.EqualFold(firstName, summaryRowMarker) {
			continue
		}

		var groupNames []string
		for _, col := range columns {
			value := strings.ToLower(cell(row, col.idx))
			if value == "" {
				continue
			}
			if value == col.code || strings.HasPrefix(value, col.code) {
				groupNames = append(groupNames, col.name)
			}
		}

		records = append(records, PersonRecord{
			FirstName:    firstName,
			Prefix:       cell(row, personColPrefix),
			Surname:      cell(row, personColSurname),
			DateOfBirth:  cell(row, personColBirthDate),
			Street:       cell(row, personColStreet),
			ZipCode:      cell(row, personColZipCode),
			City:         cell(row, personColCity),
			PhoneNumber:  cell(row, personColPhone),
			EmailAddress: cell(row, personColEmail),
			GroupNames:   groupNames,
		})
	}
	return records, nil
}

// ParseDateOfBirth parses a DD-MM-YY cell. Two-digit years below 50
// map into the 2000s, the rest into the 1900s; a result in the future
// is shifted back a century since a birth date cannot lie ahead.
// Malformed or impossible dates yield the zero time, never an error.
func ParseDateOfBirth(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return time.Time{}
	}
	day, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	month, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	year, err3 := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}
	}
	if year < 0 || year > 99 {
		return time.Time{}
	}
	fullYear := 1900 + year
	if year < 50 {
		fullYear = 2000 + year
	}
	t := time.Date(fullYear, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes out-of-range components, so 31-02 would
	// silently become early March. Reject anything that moved.
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}
	}
	if t.After(time.Now()) {
		t = t.AddDate(-100, 0, 0)
	}
	return t
}
