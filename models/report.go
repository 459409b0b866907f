package models

// CellIssue points at a cell holding a raw line break.
type CellIssue struct {
	Row    int    `json:"row"`
	Column string `json:"column"`
	Sample string `json:"value_sample"`
}

// FieldIssue points at a value that failed a format check.
type FieldIssue struct {
	Row   int    `json:"row"`
	Value string `json:"value"`
}

// DuplicatePair links a repeated (name, address) row to its first occurrence.
type DuplicatePair struct {
	FirstRow int    `json:"first_row"`
	DupRow   int    `json:"dup_row"`
	Name     string `json:"name"`
	Address  string `json:"address"`
}

// ValidationReport is the outcome of validating one CSV export. Row numbers
// count the header as row 1.
type ValidationReport struct {
	File             string          `json:"file"`
	Encoding         string          `json:"encoding"`
	Delimiter        string          `json:"delimiter"`
	Rows             int             `json:"rows"`
	MissingColumns   []string        `json:"missing_columns"`
	ExtraColumns     []string        `json:"extra_columns"`
	RowsWithNewlines []CellIssue     `json:"rows_with_newlines"`
	InvalidPhones    []FieldIssue    `json:"invalid_phones"`
	InvalidSites     []FieldIssue    `json:"invalid_sites"`
	Duplicates       []DuplicatePair `json:"duplicates"`
	Errors           []string        `json:"errors"`
}

// Passed reports whether the file has no critical issues. Newlines, bad
// phones or sites and duplicates are advisory only.
func (r *ValidationReport) Passed() bool {
	return len(r.MissingColumns) == 0 && len(r.Errors) == 0
}
