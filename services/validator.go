package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/charmap"

	"gmaps-scraper/models"
	"gmaps-scraper/utils"
)

const (
	sniffSampleBytes = 4096
	issueSampleRunes = 100
	reportSampleSize = 5
	byteOrderMark    = "\ufeff"
)

// phoneRegexp is deliberately loose: digits and common phone punctuation.
var phoneRegexp = regexp.MustCompile(`^[\d+\-()\s.]{6,}$`)

// Validator checks a CSV export for structural and content problems.
type Validator struct {
	logger *utils.Logger
}

// NewValidator creates a Validator.
func NewValidator(logger *utils.Logger) *Validator {
	return &Validator{logger: logger}
}

// Validate reads the file at path and builds a report. It never modifies
// the file. File-level problems are recorded in the report's Errors.
func (v *Validator) Validate(path string) *models.ValidationReport {
	report := &models.ValidationReport{
		File:             path,
		MissingColumns:   []string{},
		ExtraColumns:     []string{},
		RowsWithNewlines: []models.CellIssue{},
		InvalidPhones:    []models.FieldIssue{},
		InvalidSites:     []models.FieldIssue{},
		Duplicates:       []models.DuplicatePair{},
		Errors:           []string{},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if eris.Is(err, fs.ErrNotExist) {
			report.Errors = append(report.Errors, fmt.Sprintf("File not found: %s", path))
		} else {
			report.Errors = append(report.Errors, fmt.Sprintf("Could not open file: %v", err))
		}
		return report
	}

	text, enc, err := decodeText(data)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("Could not decode file: %v", err))
		return report
	}
	report.Encoding = enc

	sample := text
	truncated := false
	if len(sample) > sniffSampleBytes {
		sample, truncated = sample[:sniffSampleBytes], true
	}
	delim, ok := SniffDelimiter(sample, truncated)
	if !ok {
		v.logger.Debug("[validate] Could not detect delimiter, using ','")
	}
	report.Delimiter = string(delim)

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		report.Errors = append(report.Errors, "CSV has no header")
		return report
	}
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("CSV parse error: %v", err))
		return report
	}

	columns := normalizeHeader(header)
	report.MissingColumns, report.ExtraColumns = compareColumns(columns)
	if len(report.MissingColumns) > 0 {
		report.Errors = append(report.Errors, fmt.Sprintf("Missing columns: %v", report.MissingColumns))
	}

	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := index[c]; !dup {
			index[c] = i
		}
	}
	cell := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	type pairKey struct{ name, address string }
	seen := make(map[pairKey]int)

	rowIndex := 1 // the header is row 1
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("CSV parse error near row %d: %v", rowIndex+1, err))
			break
		}
		rowIndex++
		report.Rows++

		for i, val := range row {
			if strings.ContainsAny(val, "\r\n") {
				report.RowsWithNewlines = append(report.RowsWithNewlines, models.CellIssue{
					Row:    rowIndex,
					Column: columnName(columns, i),
					Sample: firstRunes(val, issueSampleRunes),
				})
			}
		}

		if phone := cell(row, "phone"); phone != "" && !phoneRegexp.MatchString(phone) {
			report.InvalidPhones = append(report.InvalidPhones, models.FieldIssue{Row: rowIndex, Value: phone})
		}
		if site := cell(row, "site"); site != "" && !IsValidSite(site) {
			report.InvalidSites = append(report.InvalidSites, models.FieldIssue{Row: rowIndex, Value: site})
		}

		key := pairKey{strings.ToLower(cell(row, "name")), strings.ToLower(cell(row, "address"))}
		if first, dup := seen[key]; dup {
			report.Duplicates = append(report.Duplicates, models.DuplicatePair{
				FirstRow: first,
				DupRow:   rowIndex,
				Name:     key.name,
				Address:  key.address,
			})
		} else {
			seen[key] = rowIndex
		}
	}

	v.logger.Debug("[validate] %s: %d rows, encoding %s, delimiter %q", path, report.Rows, enc, delim)
	return report
}

// IsValidSite reports whether u parses to a host containing a dot, once
// "http://" is assumed for scheme-less values.
func IsValidSite(u string) bool {
	if u == "" {
		return true
	}
	if !strings.Contains(u, "://") {
		u = "http://" + u
	}
	parsed, err := url.Parse(u)
	if err != nil {
		return false
	}
	return parsed.Host != "" && strings.Contains(parsed.Host, ".")
}

// IsValidPhone applies the permissive phone pattern.
func IsValidPhone(p string) bool {
	return phoneRegexp.MatchString(p)
}

// Print writes a human readable report with up to five samples per finding.
func (v *Validator) Print(w io.Writer, r *models.ValidationReport) {
	fmt.Fprintln(w, "CSV Validation Report")
	fmt.Fprintln(w, "File:", r.File)
	fmt.Fprintln(w, "Encoding detected:", r.Encoding)
	if r.Delimiter != "" {
		fmt.Fprintf(w, "Delimiter detected: %q\n", r.Delimiter)
	}
	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "\nErrors:")
		for _, e := range r.Errors {
			fmt.Fprintln(w, " -", e)
		}
	}

	fmt.Fprintln(w, "\nSummary:")
	fmt.Fprintln(w, " - Rows:", r.Rows)
	fmt.Fprintln(w, " - Missing columns:", r.MissingColumns)
	fmt.Fprintln(w, " - Extra columns:", r.ExtraColumns)
	fmt.Fprintln(w, " - Rows with newline chars in cells:", len(r.RowsWithNewlines))
	fmt.Fprintln(w, " - Invalid phones:", len(r.InvalidPhones))
	fmt.Fprintln(w, " - Invalid sites:", len(r.InvalidSites))
	fmt.Fprintln(w, " - Duplicates:", len(r.Duplicates))

	if len(r.RowsWithNewlines) > 0 {
		fmt.Fprintln(w, "\nSample rows with newlines (up to 5):")
		for _, it := range head(r.RowsWithNewlines) {
			fmt.Fprintf(w, "   row %d, column %s: %q\n", it.Row, it.Column, it.Sample)
		}
	}
	if len(r.InvalidPhones) > 0 {
		fmt.Fprintln(w, "\nSample invalid phones (up to 5):")
		for _, it := range head(r.InvalidPhones) {
			fmt.Fprintf(w, "   row %d: %s\n", it.Row, it.Value)
		}
	}
	if len(r.InvalidSites) > 0 {
		fmt.Fprintln(w, "\nSample invalid sites (up to 5):")
		for _, it := range head(r.InvalidSites) {
			fmt.Fprintf(w, "   row %d: %s\n", it.Row, it.Value)
		}
	}
	if len(r.Duplicates) > 0 {
		fmt.Fprintln(w, "\nDuplicate entries (up to 5):")
		for _, it := range head(r.Duplicates) {
			fmt.Fprintf(w, "   rows %d and %d: %s | %s\n", it.FirstRow, it.DupRow, it.Name, it.Address)
		}
	}

	if r.Passed() {
		fmt.Fprintln(w, "\nVERDICT: PASS (no critical issues)")
	} else {
		fmt.Fprintln(w, "\nVERDICT: FAIL (critical issues found)")
	}
}

// decodeText returns data as UTF-8, falling back to Latin-1 when the bytes
// are not valid UTF-8.
func decodeText(data []byte) (string, string, error) {
	if utf8.Valid(data) {
		return string(data), "utf-8", nil
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", "", eris.Wrap(err, "validate: decode latin-1")
	}
	return string(out), "latin-1", nil
}

func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		h = strings.TrimLeft(h, byteOrderMark)
		out[i] = strings.TrimSpace(h)
	}
	return out
}

func compareColumns(columns []string) (missing, extra []string) {
	missing, extra = []string{}, []string{}
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}
	expected := make(map[string]bool, len(models.Columns))
	for _, c := range models.Columns {
		expected[c] = true
		if !present[c] {
			missing = append(missing, c)
		}
	}
	for _, c := range columns {
		if !expected[c] {
			extra = append(extra, c)
		}
	}
	return missing, extra
}

func columnName(columns []string, i int) string {
	if i < len(columns) {
		return columns[i]
	}
	return fmt.Sprintf("column_%d", i+1)
}

func firstRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func head[T any](items []T) []T {
	if len(items) > reportSampleSize {
		return items[:reportSampleSize]
	}
	return items
}
