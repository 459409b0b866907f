package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyPrefersSite(t *testing.T) {
	a := ListingRecord{Name: "Loja", Address: "Rua 1", Site: "http://Foo.com"}
	b := ListingRecord{Name: "Other", Address: "Rua 2", Site: " http://foo.com "}
	assert.Equal(t, "http://foo.com", a.Key())
	assert.Equal(t, a.Key(), b.Key())
}

func TestKeyFallsBackToNameAddress(t *testing.T) {
	tests := []struct {
		name string
		rec  ListingRecord
		want string
	}{
		{"empty site", ListingRecord{Name: "Loja X", Address: "Rua 1"}, "loja x|rua 1"},
		{"sentinel site", ListingRecord{Name: "Loja  X", Address: " RUA 1", Site: NotAvailable}, "loja x|rua 1"},
		{"sentinel address", ListingRecord{Name: "Loja X", Address: NotAvailable, Site: NotAvailable}, "loja x|"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rec.Key())
		})
	}
}

func TestKeyStructuralFallback(t *testing.T) {
	r := ListingRecord{
		Name:        NotAvailable,
		Address:     NotAvailable,
		Phone:       "+55 11 5555-0000",
		Site:        NotAvailable,
		Description: "Empório",
	}
	assert.Equal(t, "not available|not available|+55 11 5555-0000|not available|empório", r.Key())

	other := r
	other.Phone = "+55 11 5555-1111"
	assert.NotEqual(t, r.Key(), other.Key())
}

func TestHas(t *testing.T) {
	assert.True(t, Has("x"))
	assert.False(t, Has(""))
	assert.False(t, Has("   "))
	assert.False(t, Has(NotAvailable))
}

func TestValidationReportPassed(t *testing.T) {
	r := &ValidationReport{InvalidPhones: []FieldIssue{{Row: 2, Value: "abc"}}}
	assert.True(t, r.Passed())

	r.MissingColumns = []string{"phone"}
	assert.False(t, r.Passed())

	r = &ValidationReport{Errors: []string{"File not found: x.csv"}}
	assert.False(t, r.Passed())
}
