package dataset

import (
	"testing"

	"github.com/stretchr/testify/require"

	"carprice/internal/listing"
)

func ptr[T any](v T) *T { return &v }

func completeListing(adID, carMake, model string, price, year int) listing.Listing {
	return listing.Listing{
		AdID:          adID,
		Make:          carMake,
		Model:         ptr(model),
		Price:         ptr(price),
		Year:          ptr(year),
		BodyType:      ptr("Sedanas"),
		Fuel:          ptr("Benzinas"),
		Gearbox:       ptr("Mechaninė"),
		EngineLiters:  ptr(1.6),
		EnginePowerKW: ptr(97),
		MileageKM:     ptr(50000),
	}
}

func TestBuildEncodingIsSortedAndDeterministic(t *testing.T) {
	t.Parallel()

	rows := []listing.Listing{
		completeListing("1", "Volvo", "V60", 20000, 2019),
		completeListing("2", "Audi", "A4", 18000, 2017),
		completeListing("3", "BMW", "320d", 22000, 2018),
	}

	enc := BuildEncoding(rows)
	require.Equal(t, []string{"Audi", "BMW", "Volvo"}, enc.Categories["make"])
	require.Equal(t, []string{"320d", "A4", "V60"}, enc.Categories["model"])

	// Reversed input order yields the same mapping.
	reversed := []listing.Listing{rows[2], rows[1], rows[0]}
	require.Equal(t, enc, BuildEncoding(reversed))
}

func TestBuildEncodingSkipsIncompleteRows(t *testing.T) {
	t.Parallel()

	rows := []listing.Listing{
		completeListing("1", "Audi", "A4", 18000, 2017),
		{AdID: "2", Make: "Ghost"},
	}

	enc := BuildEncoding(rows)
	require.Equal(t, []string{"Audi"}, enc.Categories["make"])
}

func TestFeatureNamesOrder(t *testing.T) {
	t.Parallel()

	enc := BuildEncoding([]listing.Listing{completeListing("1", "Audi", "A4", 18000, 2017)})
	names := enc.FeatureNames()

	require.Equal(t, []string{
		"year", "mileage", "engine_volume", "engine_power",
		"make_Audi", "model_A4", "body_type_Sedanas", "fuel_Benzinas", "gearbox_Mechaninė",
	}, names)
}

func TestVectorRoundTrip(t *testing.T) {
	t.Parallel()

	enc := BuildEncoding([]listing.Listing{
		completeListing("1", "Audi", "A4", 18000, 2017),
		completeListing("2", "BMW", "320d", 22000, 2018),
	})

	vec := enc.Vector(Input{
		Make: "BMW", Model: "320d", BodyType: "Sedanas", Fuel: "Benzinas", Gearbox: "Mechaninė",
		Year: 2018, MileageKM: 50000, EngineLiters: 1.6, EnginePowerKW: 97,
	})
	require.Len(t, vec, len(enc.FeatureNames()))
	require.Equal(t, 2018.0, vec[0])
	require.Equal(t, 50000.0, vec[1])

	names := enc.FeatureNames()
	for i, name := range names {
		switch name {
		case "make_BMW", "model_320d", "body_type_Sedanas", "fuel_Benzinas", "gearbox_Mechaninė":
			require.Equal(t, 1.0, vec[i], "expected dummy %s set", name)
		case "make_Audi", "model_A4":
			require.Equal(t, 0.0, vec[i], "expected dummy %s unset", name)
		}
	}
}

func TestVectorUnknownCategoryEncodesToZeros(t *testing.T) {
	t.Parallel()

	enc := BuildEncoding([]listing.Listing{completeListing("1", "Audi", "A4", 18000, 2017)})

	vec := enc.Vector(Input{
		Make: "Lada", Model: "Niva", BodyType: "Sedanas", Fuel: "Benzinas", Gearbox: "Mechaninė",
		Year: 1995, MileageKM: 200000, EngineLiters: 1.7, EnginePowerKW: 59,
	})

	names := enc.FeatureNames()
	for i, name := range names {
		if name == "make_Audi" || name == "model_A4" {
			require.Equal(t, 0.0, vec[i], "unknown category must leave %s at zero", name)
		}
	}
	require.False(t, enc.Knows("make", "Lada"))
	require.True(t, enc.Knows("make", "Audi"))
}

func TestBuildFiltersIncompleteAndAlignsTarget(t *testing.T) {
	t.Parallel()

	rows := []listing.Listing{
		completeListing("1", "Audi", "A4", 18000, 2017),
		{AdID: "2", Make: "Ghost"},
		completeListing("3", "BMW", "320d", 22000, 2018),
	}

	features, target, enc, err := Build(rows)
	require.NoError(t, err)

	r, c := features.Dims()
	require.Equal(t, 2, r)
	require.Equal(t, len(enc.FeatureNames()), c)
	require.Equal(t, []float64{18000, 22000}, target)
}

func TestBuildErrorsWithNoCompleteRows(t *testing.T) {
	t.Parallel()

	_, _, _, err := Build([]listing.Listing{{AdID: "1", Make: "Ghost"}})
	require.Error(t, err)

	_, _, _, err = Build(nil)
	require.Error(t, err)
}

func TestBuildWithEncodingKeepsWidth(t *testing.T) {
	t.Parallel()

	trainRows := []listing.Listing{
		completeListing("1", "Audi", "A4", 18000, 2017),
		completeListing("2", "BMW", "320d", 22000, 2018),
	}
	_, _, enc, err := Build(trainRows)
	require.NoError(t, err)

	// New rows carry a make the encoding never saw; the width must not grow.
	newRows := []listing.Listing{completeListing("3", "Lada", "Niva", 3000, 1995)}
	features, target, err := BuildWithEncoding(newRows, enc)
	require.NoError(t, err)

	_, c := features.Dims()
	require.Equal(t, len(enc.FeatureNames()), c)
	require.Equal(t, []float64{3000}, target)
}
