package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"gmaps-scraper/models"
	"gmaps-scraper/services"
)

// Supported values for the store driver setting.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const insertBatchSize = 50

// SQLWriter persists sanitized listings to PostgreSQL or SQLite. Rows are
// keyed by the listing dedup key, so re-running a scrape never duplicates a
// business.
type SQLWriter struct {
	db       *sql.DB
	driver   string
	runID    string
	location string
}

// SQLOptions controls connection behaviour.
type SQLOptions struct {
	PingAttempts int
	PingInterval time.Duration
}

// NewSQLWriter opens a connection, waits for the database to answer, runs
// the schema migration and returns a ready-to-use SQLWriter. Every row it
// writes is tagged with a fresh run id and the searched location.
func NewSQLWriter(driver, dsn, location string, opts SQLOptions) (*SQLWriter, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, eris.Errorf("sql: unsupported driver %q", driver)
	}
	if opts.PingAttempts <= 0 {
		opts.PingAttempts = 10
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = 2 * time.Second
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: open", driver)
	}

	for i := 0; i < opts.PingAttempts; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		if i < opts.PingAttempts-1 {
			time.Sleep(opts.PingInterval)
		}
	}
	if err != nil {
		db.Close()
		return nil, eris.Wrapf(err, "%s: ping failed after retries", driver)
	}

	w := &SQLWriter{
		db:       db,
		driver:   driver,
		runID:    uuid.New().String(),
		location: location,
	}
	if err := w.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return w, nil
}

// RunID identifies the rows inserted by this writer.
func (w *SQLWriter) RunID() string { return w.runID }

const postgresMigration = `
CREATE TABLE IF NOT EXISTS businesses (
	id          SERIAL PRIMARY KEY,
	run_id      UUID        NOT NULL,
	location    TEXT        NOT NULL DEFAULT '',
	name        TEXT        NOT NULL,
	address     TEXT        NOT NULL,
	phone       TEXT        NOT NULL,
	site        TEXT        NOT NULL,
	description TEXT        NOT NULL,
	dedup_key   TEXT        UNIQUE NOT NULL,
	scraped_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_businesses_run_id   ON businesses(run_id);
CREATE INDEX IF NOT EXISTS idx_businesses_location ON businesses(location);
`

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS businesses (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT     NOT NULL,
	location    TEXT     NOT NULL DEFAULT '',
	name        TEXT     NOT NULL,
	address     TEXT     NOT NULL,
	phone       TEXT     NOT NULL,
	site        TEXT     NOT NULL,
	description TEXT     NOT NULL,
	dedup_key   TEXT     UNIQUE NOT NULL,
	scraped_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_businesses_run_id   ON businesses(run_id);
CREATE INDEX IF NOT EXISTS idx_businesses_location ON businesses(location);
`

func (w *SQLWriter) migrate() error {
	ddl := postgresMigration
	if w.driver == DriverSQLite {
		ddl = sqliteMigration
	}
	_, err := w.db.Exec(ddl)
	return eris.Wrapf(err, "%s: migrate", w.driver)
}

// Write batch-inserts records. Rows whose dedup key is already stored are
// skipped.
func (w *SQLWriter) Write(records []models.ListingRecord) error {
	for i := 0; i < len(records); i += insertBatchSize {
		end := min(i+insertBatchSize, len(records))
		if err := w.insertBatch(records[i:end]); err != nil {
			return err
		}
	}
	return nil
}

const insertColumns = 8

func (w *SQLWriter) insertBatch(batch []models.ListingRecord) error {
	if len(batch) == 0 {
		return nil
	}

	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*insertColumns)

	for idx, r := range batch {
		ph := make([]string, insertColumns)
		for c := range ph {
			ph[c] = w.placeholder(idx*insertColumns + c + 1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(ph, ",")+")")

		row := services.CleanRow(r)
		valueArgs = append(valueArgs, w.runID, w.location)
		for _, v := range row {
			valueArgs = append(valueArgs, v)
		}
		valueArgs = append(valueArgs, r.Key())
	}

	query := fmt.Sprintf(`
		INSERT INTO businesses (run_id, location, name, address, phone, site, description, dedup_key)
		VALUES %s
		ON CONFLICT (dedup_key) DO NOTHING
	`, strings.Join(valueStrings, ","))

	_, err := w.db.Exec(query, valueArgs...)
	return eris.Wrapf(err, "%s: insert batch", w.driver)
}

func (w *SQLWriter) placeholder(n int) string {
	if w.driver == DriverPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// FetchAll returns every stored business in insertion order.
func (w *SQLWriter) FetchAll() ([]models.ListingRecord, error) {
	rows, err := w.db.Query(`
		SELECT name, address, phone, site, description
		FROM businesses
		ORDER BY id
	`)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: fetch all", w.driver)
	}
	defer rows.Close()

	var out []models.ListingRecord
	for rows.Next() {
		var r models.ListingRecord
		if err := rows.Scan(&r.Name, &r.Address, &r.Phone, &r.Site, &r.Description); err != nil {
			return nil, eris.Wrapf(err, "%s: scan row", w.driver)
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "rows")
}

func (w *SQLWriter) Close() error {
	return w.db.Close()
}
