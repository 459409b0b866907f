package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"gmaps-scraper/models"
	"gmaps-scraper/services"
)

const (
	// Delimiter separates cells; addresses are full of commas.
	Delimiter = ';'
	// byteOrderMark lets spreadsheet tools detect UTF-8.
	byteOrderMark = "\ufeff"
)

// CSVWriter writes sanitized records as a semicolon-delimited UTF-8 file
// with a byte-order mark.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the byte-order mark and header row. Intermediate directories are
// created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, eris.Wrap(err, "csv: create output dir")
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, eris.Wrapf(err, "csv: create file %q", path)
	}

	if _, err := f.WriteString(byteOrderMark); err != nil {
		_ = f.Close()
		return nil, eris.Wrap(err, "csv: write byte-order mark")
	}

	w := csv.NewWriter(f)
	w.Comma = Delimiter
	w.UseCRLF = true

	if err := w.Write(models.Columns); err != nil {
		_ = f.Close()
		return nil, eris.Wrap(err, "csv: write header")
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// Write appends one sanitized row per record.
func (c *CSVWriter) Write(records []models.ListingRecord) error {
	for _, r := range records {
		if err := c.writer.Write(services.CleanRow(r)); err != nil {
			return eris.Wrap(err, "csv: write row")
		}
	}

	c.writer.Flush()
	return eris.Wrap(c.writer.Error(), "csv: flush")
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		_ = c.file.Close()
		return eris.Wrap(err, "csv: flush")
	}
	return eris.Wrap(c.file.Close(), "csv: close")
}

// WriteCSV writes records to a fresh file at path.
func WriteCSV(path string, records []models.ListingRecord) error {
	w, err := NewCSVWriter(path)
	if err != nil {
		return err
	}
	if err := w.Write(records); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
