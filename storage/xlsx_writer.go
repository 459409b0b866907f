package storage

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"gmaps-scraper/models"
	"gmaps-scraper/services"
)

// XLSXWriter collects sanitized rows into a workbook saved on Close.
type XLSXWriter struct {
	path  string
	file  *excelize.File
	sheet string
	next  int
}

// NewXLSXWriter prepares a workbook with the header row.
func NewXLSXWriter(path string) (*XLSXWriter, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	x := &XLSXWriter{path: path, file: f, sheet: sheet, next: 1}
	if err := x.writeRow(models.Columns); err != nil {
		_ = f.Close()
		return nil, err
	}
	for i := 1; i <= len(models.Columns); i++ {
		col, _ := excelize.ColumnNumberToName(i)
		_ = f.SetColWidth(sheet, col, col, 32)
	}
	return x, nil
}

func (x *XLSXWriter) Write(records []models.ListingRecord) error {
	for _, r := range records {
		if err := x.writeRow(services.CleanRow(r)); err != nil {
			return err
		}
	}
	return nil
}

// Close saves the workbook to disk.
func (x *XLSXWriter) Close() error {
	defer x.file.Close()
	if dir := filepath.Dir(x.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return eris.Wrap(err, "xlsx: create output dir")
		}
	}
	return eris.Wrapf(x.file.SaveAs(x.path), "xlsx: save %q", x.path)
}

func (x *XLSXWriter) writeRow(vals []string) error {
	for c, v := range vals {
		cell, err := excelize.CoordinatesToCellName(c+1, x.next)
		if err != nil {
			return eris.Wrap(err, "xlsx: cell name")
		}
		if err := x.file.SetCellStr(x.sheet, cell, v); err != nil {
			return eris.Wrapf(err, "xlsx: set cell %s", cell)
		}
	}
	x.next++
	return nil
}
