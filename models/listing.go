package models

import "strings"

// NotAvailable is substituted for any field that could not be extracted.
const NotAvailable = "Not available"

// Columns is the header row of every tabular export, in field order.
var Columns = []string{"name", "address", "phone", "site", "description"}

// ListingRecord is one business entry extracted from the map search results.
// Every field holds either real data or NotAvailable; none is ever empty
// once the record leaves the extractor.
type ListingRecord struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	Site        string `json:"site"`
	Description string `json:"description"`
}

// Fields returns the record's values in Columns order.
func (r ListingRecord) Fields() []string {
	return []string{r.Name, r.Address, r.Phone, r.Site, r.Description}
}

// Key returns the deduplication key: the lowercased site when present,
// otherwise "name|address", otherwise every field joined. The sentinel
// counts as absent.
func (r ListingRecord) Key() string {
	if site := keyPart(r.Site); site != "" {
		return site
	}

	name, address := keyPart(r.Name), keyPart(r.Address)
	if name != "" || address != "" {
		return name + "|" + address
	}

	parts := make([]string, 0, len(Columns))
	for _, f := range r.Fields() {
		parts = append(parts, strings.ToLower(strings.Join(strings.Fields(f), " ")))
	}
	return strings.Join(parts, "|")
}

// Has reports whether v carries extracted data.
func Has(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && v != NotAvailable
}

func keyPart(v string) string {
	if !Has(v) {
		return ""
	}
	return strings.ToLower(strings.Join(strings.Fields(v), " "))
}

// Summary holds the run overview printed after a scrape.
type Summary struct {
	TotalRecords  int
	WithPhone     int
	WithSite      int
	WithAddress   int
	ByDescription map[string]int
	Sample        []ListingRecord
}
