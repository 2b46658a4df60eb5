package dataset

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"carprice/internal/listing"
)

// Build drops incomplete listings, derives the categorical encoding from the
// survivors, and encodes them into a feature matrix plus a price target
// vector. Row i of the matrix corresponds to element i of the target and to
// exactly one complete listing. Given the same rows, the output is identical
// on every run.
func Build(rows []listing.Listing) (*mat.Dense, []float64, Encoding, error) {
	complete := make([]listing.Listing, 0, len(rows))
	for _, l := range rows {
		if l.Complete() {
			complete = append(complete, l)
		}
	}
	if len(complete) == 0 {
		return nil, nil, Encoding{}, fmt.Errorf("no complete listings to build a dataset from (%d stored)", len(rows))
	}

	enc := BuildEncoding(complete)
	features, target := encodeAll(complete, enc)
	return features, target, enc, nil
}

// BuildWithEncoding encodes the complete listings using a previously built
// mapping, as the evaluator must to avoid training/serving skew. Categories
// unseen by that mapping encode to the unknown default rather than extending
// the mapping.
func BuildWithEncoding(rows []listing.Listing, enc Encoding) (*mat.Dense, []float64, error) {
	complete := make([]listing.Listing, 0, len(rows))
	for _, l := range rows {
		if l.Complete() {
			complete = append(complete, l)
		}
	}
	if len(complete) == 0 {
		return nil, nil, fmt.Errorf("no complete listings to encode (%d stored)", len(rows))
	}
	features, target := encodeAll(complete, enc)
	return features, target, nil
}

func encodeAll(rows []listing.Listing, enc Encoding) (*mat.Dense, []float64) {
	cols := enc.width()
	features := mat.NewDense(len(rows), cols, nil)
	target := make([]float64, len(rows))
	for i, l := range rows {
		features.SetRow(i, enc.Vector(fromListing(l)))
		target[i] = float64(*l.Price)
	}
	return features, target
}
