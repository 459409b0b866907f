package services

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gmaps-scraper/models"
	"gmaps-scraper/utils"
)

func writeTemp(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "results.csv")
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func validate(t *testing.T, content string) *models.ValidationReport {
	t.Helper()
	return NewValidator(utils.NewNopLogger()).Validate(writeTemp(t, []byte(content)))
}

func TestValidateCleanFilePasses(t *testing.T) {
	r := validate(t, "\ufeffname;address;phone;site;description\r\n"+
		"Casa A;Rua 1, 100;+55 (11) 99999-0000;http://a.com.br;Empório\r\n"+
		"Casa B;Rua 2, 200;(11) 2222-3333;www.b.com;Loja\r\n")

	assert.True(t, r.Passed())
	assert.Equal(t, "utf-8", r.Encoding)
	assert.Equal(t, ";", r.Delimiter)
	assert.Equal(t, 2, r.Rows)
	assert.Empty(t, r.MissingColumns)
	assert.Empty(t, r.ExtraColumns)
	assert.Empty(t, r.InvalidPhones)
	assert.Empty(t, r.InvalidSites)
	assert.Empty(t, r.Duplicates)
	assert.Empty(t, r.Errors)
}

func TestValidateMissingPhoneColumnFails(t *testing.T) {
	r := validate(t, "name;address;site;description;notes\nCasa;Rua;http://a.com;x;y\n")

	assert.Equal(t, []string{"phone"}, r.MissingColumns)
	assert.Equal(t, []string{"notes"}, r.ExtraColumns)
	assert.False(t, r.Passed())
}

func TestValidatePhoneChecks(t *testing.T) {
	r := validate(t, "name,address,phone,site,description\n"+
		"A,R1,abc,,\n"+
		"B,R2,+55 (11) 99999-0000,,\n"+
		"C,R3,12345,,\n")

	assert.Equal(t, ",", r.Delimiter)
	require.Len(t, r.InvalidPhones, 2)
	assert.Equal(t, models.FieldIssue{Row: 2, Value: "abc"}, r.InvalidPhones[0])
	assert.Equal(t, models.FieldIssue{Row: 4, Value: "12345"}, r.InvalidPhones[1])
	assert.True(t, r.Passed())
}

func TestValidateSiteChecks(t *testing.T) {
	r := validate(t, "name|address|phone|site|description\n"+
		"A|R1||http://ok.com|\n"+
		"B|R2||localhost|\n"+
		"C|R3||Not available|\n"+
		"D|R4||loja.com.br/contato|\n")

	assert.Equal(t, "|", r.Delimiter)
	require.Len(t, r.InvalidSites, 2)
	assert.Equal(t, 3, r.InvalidSites[0].Row)
	assert.Equal(t, 4, r.InvalidSites[1].Row)
}

func TestValidateDuplicatePairs(t *testing.T) {
	r := validate(t, "name;address;phone;site;description\n"+
		"Loja X;Rua 1;;;\n"+
		"Outra;Rua 2;;;\n"+
		" LOJA X ;rua 1;;;\n")

	require.Len(t, r.Duplicates, 1)
	assert.Equal(t, models.DuplicatePair{FirstRow: 2, DupRow: 4, Name: "loja x", Address: "rua 1"}, r.Duplicates[0])
	assert.True(t, r.Passed())
}

func TestValidateNewlinesInCells(t *testing.T) {
	r := validate(t, "name;address;phone;site;description\n"+
		"\"Casa\nA\";Rua 1;;;\n")

	require.Len(t, r.RowsWithNewlines, 1)
	assert.Equal(t, 2, r.RowsWithNewlines[0].Row)
	assert.Equal(t, "name", r.RowsWithNewlines[0].Column)
	assert.True(t, r.Passed())
}

func TestValidateLatin1Fallback(t *testing.T) {
	// "Empório" encoded as ISO-8859-1.
	content := []byte("name;address;phone;site;description\nEmp\xf3rio;Rua 1;;;\n")
	r := NewValidator(utils.NewNopLogger()).Validate(writeTemp(t, content))

	assert.Equal(t, "latin-1", r.Encoding)
	assert.Equal(t, 1, r.Rows)
	assert.True(t, r.Passed())
}

func TestValidateFileErrors(t *testing.T) {
	v := NewValidator(utils.NewNopLogger())

	r := v.Validate(filepath.Join(t.TempDir(), "missing.csv"))
	require.Len(t, r.Errors, 1)
	assert.True(t, strings.HasPrefix(r.Errors[0], "File not found"))
	assert.False(t, r.Passed())

	r = v.Validate(writeTemp(t, nil))
	assert.Equal(t, []string{"CSV has no header"}, r.Errors)
	assert.False(t, r.Passed())
}

func TestValidatePrint(t *testing.T) {
	v := NewValidator(utils.NewNopLogger())
	r := validate(t, "name;address;site;description\nLoja X;Rua 1;bad;\nLoja X;Rua 1;bad;\n")

	var buf bytes.Buffer
	v.Print(&buf, r)
	out := buf.String()

	assert.Contains(t, out, "Missing columns: [phone]")
	assert.Contains(t, out, "rows 2 and 3")
	assert.Contains(t, out, "VERDICT: FAIL")
}

func TestSniffDelimiter(t *testing.T) {
	tests := []struct {
		name      string
		sample    string
		truncated bool
		want      rune
		ok        bool
	}{
		{"semicolon with commas in text", "name;address\nA;Rua 1, 10\nB;Rua 2, 20, fundos\n", false, ';', true},
		{"comma", "a,b,c\n1,2,3\n", false, ',', true},
		{"tab", "a\tb\n1\t2\n", false, '\t', true},
		{"quoted delimiter ignored", "a;b\n\"x;y\";z\n", false, ';', true},
		{"partial last line dropped", "a;b;c\n1;2;3\n4;5", true, ';', true},
		{"nothing", "justoneword\n", false, ',', false},
		{"empty", "", false, ',', false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SniffDelimiter(tt.sample, tt.truncated)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestIsValidPhoneAndSite(t *testing.T) {
	assert.False(t, IsValidPhone("abc"))
	assert.True(t, IsValidPhone("+55 (11) 99999-0000"))
	assert.True(t, IsValidSite(""))
	assert.True(t, IsValidSite("https://loja.com.br"))
	assert.False(t, IsValidSite("http://intranet"))
}
