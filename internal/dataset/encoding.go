// Package dataset turns stored listings into a numeric feature matrix.
package dataset

import (
	"sort"

	"carprice/internal/listing"
)

// Categorical columns in the order their one-hot groups appear in the
// feature vector. Numeric columns come first.
var (
	numericColumns     = []string{"year", "mileage", "engine_volume", "engine_power"}
	categoricalColumns = []string{"make", "model", "body_type", "fuel", "gearbox"}
)

// Input is one observation to encode: either a stored listing or the
// prediction form's fields.
type Input struct {
	Make          string
	Model         string
	BodyType      string
	Fuel          string
	Gearbox       string
	Year          int
	MileageKM     int
	EngineLiters  float64
	EnginePowerKW int
}

// Encoding is the fixed categorical mapping produced at dataset-build time.
// It is persisted inside the model artifact so predictions use the exact
// mapping training used; it is never recomputed at serving time.
type Encoding struct {
	// Categories holds the sorted distinct values seen per categorical
	// column. Category order defines dummy column order, so sorting makes
	// the encoding deterministic across runs over the same rows.
	Categories map[string][]string `json:"categories"`
}

// BuildEncoding derives the categorical mapping from the complete listings.
func BuildEncoding(rows []listing.Listing) Encoding {
	seen := make(map[string]map[string]struct{}, len(categoricalColumns))
	for _, col := range categoricalColumns {
		seen[col] = make(map[string]struct{})
	}
	for _, l := range rows {
		if !l.Complete() {
			continue
		}
		in := fromListing(l)
		for _, col := range categoricalColumns {
			seen[col][in.categorical(col)] = struct{}{}
		}
	}

	enc := Encoding{Categories: make(map[string][]string, len(categoricalColumns))}
	for _, col := range categoricalColumns {
		values := make([]string, 0, len(seen[col]))
		for v := range seen[col] {
			values = append(values, v)
		}
		sort.Strings(values)
		enc.Categories[col] = values
	}
	return enc
}

// FeatureNames returns the ordered feature column names: the numeric columns
// followed by one dummy column per known category, named column_value as the
// one-hot convention goes.
func (e Encoding) FeatureNames() []string {
	names := make([]string, 0, e.width())
	names = append(names, numericColumns...)
	for _, col := range categoricalColumns {
		for _, v := range e.Categories[col] {
			names = append(names, col+"_"+v)
		}
	}
	return names
}

// Vector encodes one observation into a feature vector aligned with
// FeatureNames. A categorical value absent from the mapping contributes an
// all-zero dummy group — the defined default for unknown categories — and
// never fails.
func (e Encoding) Vector(in Input) []float64 {
	vec := make([]float64, 0, e.width())
	vec = append(vec,
		float64(in.Year),
		float64(in.MileageKM),
		in.EngineLiters,
		float64(in.EnginePowerKW),
	)
	for _, col := range categoricalColumns {
		value := in.categorical(col)
		for _, v := range e.Categories[col] {
			if v == value {
				vec = append(vec, 1)
			} else {
				vec = append(vec, 0)
			}
		}
	}
	return vec
}

// Knows reports whether the value is part of the column's mapping — callers
// use it to tell a real category from the unknown-category fallback.
func (e Encoding) Knows(column, value string) bool {
	for _, v := range e.Categories[column] {
		if v == value {
			return true
		}
	}
	return false
}

func (e Encoding) width() int {
	n := len(numericColumns)
	for _, col := range categoricalColumns {
		n += len(e.Categories[col])
	}
	return n
}

func (in Input) categorical(column string) string {
	switch column {
	case "make":
		return in.Make
	case "model":
		return in.Model
	case "body_type":
		return in.BodyType
	case "fuel":
		return in.Fuel
	case "gearbox":
		return in.Gearbox
	}
	return ""
}

// fromListing projects a complete listing onto an Input.
func fromListing(l listing.Listing) Input {
	return Input{
		Make:          l.Make,
		Model:         *l.Model,
		BodyType:      *l.BodyType,
		Fuel:          *l.Fuel,
		Gearbox:       *l.Gearbox,
		Year:          *l.Year,
		MileageKM:     *l.MileageKM,
		EngineLiters:  *l.EngineLiters,
		EnginePowerKW: *l.EnginePowerKW,
	}
}
