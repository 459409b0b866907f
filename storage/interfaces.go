package storage

import "gmaps-scraper/models"

// RecordWriter is the interface any output sink must satisfy.
type RecordWriter interface {
	Write(records []models.ListingRecord) error
	Close() error
}
