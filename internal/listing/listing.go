// Package listing defines the scraped car advertisement record.
package listing

import (
	"fmt"
	"time"
)

// Listing is one scraped car advertisement. Optional fields are pointers so
// missing values survive the trip through the database as NULLs instead of
// being confused with real zeroes.
type Listing struct {
	ID            int64    `db:"id"`
	AdID          string   `db:"ad_id"`
	Make          string   `db:"make"`
	Model         *string  `db:"model"`
	Price         *int     `db:"price"`
	Year          *int     `db:"year"`
	BodyType      *string  `db:"body_type"`
	Fuel          *string  `db:"fuel"`
	Gearbox       *string  `db:"gearbox"`
	EngineLiters  *float64 `db:"engine_volume"`
	EnginePowerKW *int     `db:"engine_power"`
	MileageKM     *int     `db:"mileage"`
}

// minYear is the oldest model year a listing may plausibly carry.
const minYear = 1900

// Validate checks the record invariants: non-negative price and mileage and
// a plausible calendar year. Missing optional fields are not an error here;
// completeness is a separate concern (see Complete).
func (l Listing) Validate() error {
	if l.AdID == "" {
		return fmt.Errorf("listing missing ad id")
	}
	if l.Make == "" {
		return fmt.Errorf("listing %s missing make", l.AdID)
	}
	if l.Price != nil && *l.Price < 0 {
		return fmt.Errorf("listing %s has negative price %d", l.AdID, *l.Price)
	}
	if l.MileageKM != nil && *l.MileageKM < 0 {
		return fmt.Errorf("listing %s has negative mileage %d", l.AdID, *l.MileageKM)
	}
	if l.Year != nil {
		if y := *l.Year; y < minYear || y > time.Now().Year()+1 {
			return fmt.Errorf("listing %s has implausible year %d", l.AdID, y)
		}
	}
	return nil
}

// Complete reports whether every field the trainer consumes is present.
// Incomplete rows are stored anyway and filtered out by the dataset builder,
// matching the insert-everything-drop-later shape of the pipeline.
func (l Listing) Complete() bool {
	return l.Model != nil &&
		l.Price != nil &&
		l.Year != nil &&
		l.BodyType != nil &&
		l.Fuel != nil &&
		l.Gearbox != nil &&
		l.EngineLiters != nil &&
		l.EnginePowerKW != nil &&
		l.MileageKM != nil
}
