package scraper

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const fixturePage = `
<html><body>
<div class="announcement-list">
  <a class="announcement-item" href="/used/1">
    <div class="announcement-bookmark-button" data-id="10001"></div>
    <div class="announcement-title">Toyota Corolla</div>
    <div class="announcement-title-parameters">
      <span>2018-05</span>
      <span>Sedanas</span>
    </div>
    <div class="announcement-pricing-info">12&nbsp;500 &euro;
    </div>
    <div class="announcement-parameters-block">
      <span>Benzinas</span>
      <span>Mechaninė</span>
      <span>1.6 l., 97 kW</span>
      <span>50 000 km</span>
    </div>
  </a>
  <a class="announcement-item" href="/used/2">
    <div class="announcement-bookmark-button" data-id="10002"></div>
    <div class="announcement-title">BMW</div>
    <div class="announcement-title-parameters">
      <span>not-a-year</span>
    </div>
    <div class="announcement-parameters-block">
      <span>Dyzelinas</span>
      <span>Automatinė</span>
      <span>bad engine spec</span>
      <span>no unit here</span>
    </div>
  </a>
  <a class="announcement-item" href="/used/3">
    <div class="announcement-title">Audi A4</div>
  </a>
  <a class="announcement-item" href="/used/4">
    <div class="announcement-bookmark-button" data-id="10004"></div>
  </a>
</div>
</body></html>
`

func TestParseWellFormedBlock(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fixturePage))
	require.NoError(t, err)

	records := NewAutopliusParser(zap.NewNop()).Parse(doc)
	require.Len(t, records, 2)

	l := records[0]
	require.Equal(t, "10001", l.AdID)
	require.Equal(t, "Toyota", l.Make)
	require.NotNil(t, l.Model)
	require.Equal(t, "Corolla", *l.Model)
	require.NotNil(t, l.Price)
	require.Equal(t, 12500, *l.Price)
	require.NotNil(t, l.Year)
	require.Equal(t, 2018, *l.Year)
	require.NotNil(t, l.BodyType)
	require.Equal(t, "Sedanas", *l.BodyType)
	require.NotNil(t, l.Fuel)
	require.Equal(t, "Benzinas", *l.Fuel)
	require.NotNil(t, l.Gearbox)
	require.Equal(t, "Mechaninė", *l.Gearbox)
	require.NotNil(t, l.EngineLiters)
	require.InDelta(t, 1.6, *l.EngineLiters, 0.001)
	require.NotNil(t, l.EnginePowerKW)
	require.Equal(t, 97, *l.EnginePowerKW)
	require.NotNil(t, l.MileageKM)
	require.Equal(t, 50000, *l.MileageKM)
}

func TestParseKeepsPartialBlocks(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fixturePage))
	require.NoError(t, err)

	records := NewAutopliusParser(zap.NewNop()).Parse(doc)
	require.Len(t, records, 2)

	// Second block has unparsable year, engine and mileage: those fields stay
	// nil, the rest survives.
	l := records[1]
	require.Equal(t, "10002", l.AdID)
	require.Equal(t, "BMW", l.Make)
	require.Nil(t, l.Model)
	require.Nil(t, l.Year)
	require.Nil(t, l.EngineLiters)
	require.Nil(t, l.EnginePowerKW)
	require.Nil(t, l.MileageKM)
	require.NotNil(t, l.Fuel)
	require.Equal(t, "Dyzelinas", *l.Fuel)
}

func TestParseDropsBlocksWithoutIDOrTitle(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fixturePage))
	require.NoError(t, err)

	records := NewAutopliusParser(zap.NewNop()).Parse(doc)
	for _, l := range records {
		require.NotEqual(t, "", l.AdID)
		require.NotEqual(t, "10004", l.AdID)
	}
}

func TestParseEmptyPage(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body><p>No results</p></body></html>"))
	require.NoError(t, err)

	records := NewAutopliusParser(zap.NewNop()).Parse(doc)
	require.Empty(t, records)
}

func TestDigitsOnly(t *testing.T) {
	t.Parallel()

	require.Equal(t, "12500", digitsOnly("12 500 €"))
	require.Equal(t, "50000", digitsOnly("50 000 km"))
	require.Equal(t, "", digitsOnly("n/a"))
}
