package services

import (
	"regexp"
	"strings"

	"gmaps-scraper/models"
)

// controlRegexp matches ASCII control characters and the Unicode private
// use area, where icon glyphs from the detail panel land.
var controlRegexp = regexp.MustCompile(`[\x00-\x1f\x7f\x{e000}-\x{f8ff}]`)

// CleanCell makes a value safe for a single delimited cell: line breaks
// become spaces, control and private-use characters are removed, and
// whitespace is collapsed and trimmed.
func CleanCell(s string) string {
	s = strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
	s = controlRegexp.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// CleanRow returns the sanitized cells of r in column order.
func CleanRow(r models.ListingRecord) []string {
	fields := r.Fields()
	row := make([]string, len(fields))
	for i, f := range fields {
		row[i] = CleanCell(f)
	}
	return row
}
