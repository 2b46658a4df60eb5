// Package store persists car listings in a local sqlite database.
//
// The database is the single shared surface between the scraper (writer) and
// the dataset builder, evaluator and prediction UI (readers). Access is
// single-writer by design; no locking beyond sqlite's own is used.
package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // sqlite driver

	"carprice/internal/listing"
)

const schema = `
CREATE TABLE IF NOT EXISTS listings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ad_id TEXT UNIQUE,
	make TEXT,
	model TEXT,
	price INTEGER,
	year INTEGER,
	body_type TEXT,
	fuel TEXT,
	gearbox TEXT,
	engine_volume REAL,
	engine_power INTEGER,
	mileage INTEGER
);

CREATE INDEX IF NOT EXISTS idx_listings_make ON listings(make);
`

// Store wraps the sqlite connection used by every pipeline step.
type Store struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// Open connects to the sqlite database at path, creating the file when it
// does not exist yet. The connection is pinged so a bad path fails fast.
func Open(ctx context.Context, path string, logger *zap.Logger) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %s: %w", path, err)
	}
	// One connection: sqlite is single-writer anyway, and an :memory:
	// database exists per connection, so a second one would see no schema.
	db.SetMaxOpenConns(1)
	return &Store{db: db, logger: logger}, nil
}

// Migrate creates the listings table and its indexes. It is idempotent:
// running it against an existing database changes nothing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create listings schema: %w", err)
	}
	s.logger.Info("Listings schema ready")
	return nil
}

// InsertListing stores one listing. Duplicate ad IDs are silently ignored so
// repeated scrapes stay idempotent per advertisement; the returned bool
// reports whether a row was actually written.
func (s *Store) InsertListing(ctx context.Context, l listing.Listing) (bool, error) {
	if err := l.Validate(); err != nil {
		return false, err
	}
	res, err := s.db.NamedExecContext(ctx, `
		INSERT OR IGNORE INTO listings
			(ad_id, make, model, price, year, body_type, fuel, gearbox, engine_volume, engine_power, mileage)
		VALUES
			(:ad_id, :make, :model, :price, :year, :body_type, :fuel, :gearbox, :engine_volume, :engine_power, :mileage)
	`, l)
	if err != nil {
		return false, fmt.Errorf("insert listing %s: %w", l.AdID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected for %s: %w", l.AdID, err)
	}
	return n > 0, nil
}

// AllListings returns every stored listing in insertion order.
func (s *Store) AllListings(ctx context.Context) ([]listing.Listing, error) {
	var rows []listing.Listing
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM listings ORDER BY id`); err != nil {
		return nil, fmt.Errorf("select listings: %w", err)
	}
	return rows, nil
}

// Count returns the number of stored listings.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM listings`); err != nil {
		return 0, fmt.Errorf("count listings: %w", err)
	}
	return n, nil
}

// distinctColumns whitelists the columns the UI may enumerate. Column names
// are interpolated into SQL, so anything else is rejected.
var distinctColumns = map[string]struct{}{
	"make":      {},
	"model":     {},
	"body_type": {},
	"fuel":      {},
	"gearbox":   {},
}

// Distinct returns the sorted distinct non-null values of a categorical
// column, used to populate the prediction form's selects.
func (s *Store) Distinct(ctx context.Context, column string) ([]string, error) {
	if _, ok := distinctColumns[column]; !ok {
		return nil, fmt.Errorf("column %q is not enumerable", column)
	}
	var values []string
	query := fmt.Sprintf(`SELECT DISTINCT %s FROM listings WHERE %s IS NOT NULL ORDER BY %s`, column, column, column)
	if err := s.db.SelectContext(ctx, &values, query); err != nil {
		return nil, fmt.Errorf("distinct %s: %w", column, err)
	}
	return values, nil
}

// FormDefaults carries typical numeric values used to prefill the form.
type FormDefaults struct {
	Year          int
	MileageKM     int
	EngineLiters  float64
	EnginePowerKW int
}

// Defaults computes average numeric values over the stored listings. With an
// empty table it returns zero values and no error; the UI falls back to its
// own constants.
func (s *Store) Defaults(ctx context.Context) (FormDefaults, error) {
	var row struct {
		Year    *float64 `db:"year"`
		Mileage *float64 `db:"mileage"`
		Volume  *float64 `db:"engine_volume"`
		Power   *float64 `db:"engine_power"`
	}
	err := s.db.GetContext(ctx, &row, `
		SELECT AVG(year) AS year, AVG(mileage) AS mileage,
		       AVG(engine_volume) AS engine_volume, AVG(engine_power) AS engine_power
		FROM listings
	`)
	if err != nil {
		return FormDefaults{}, fmt.Errorf("listing defaults: %w", err)
	}
	var d FormDefaults
	if row.Year != nil {
		d.Year = int(*row.Year)
	}
	if row.Mileage != nil {
		d.MileageKM = int(*row.Mileage)
	}
	if row.Volume != nil {
		d.EngineLiters = *row.Volume
	}
	if row.Power != nil {
		d.EnginePowerKW = int(*row.Power)
	}
	return d, nil
}

// Close shuts down the underlying connection pool.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}
