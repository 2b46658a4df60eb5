package scraper

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"carprice/internal/listing"
)

// AutopliusParser extracts listing records from autoplius.lt search result
// pages. Each advertisement is an a.announcement-item block; malformed blocks
// are skipped without affecting the rest of the page.
type AutopliusParser struct {
	logger *zap.Logger
}

// NewAutopliusParser returns a parser for the autoplius.lt markup shape.
func NewAutopliusParser(logger *zap.Logger) *AutopliusParser {
	return &AutopliusParser{logger: logger}
}

// Parse walks the advertisement blocks on the page and returns one listing
// per well-formed block. A block without an ad ID or title is dropped; a
// block whose secondary fields fail to parse keeps those fields empty and is
// still returned, since completeness is judged by the dataset builder.
func (p *AutopliusParser) Parse(doc *goquery.Document) []listing.Listing {
	var out []listing.Listing
	doc.Find("a.announcement-item").Each(func(_ int, block *goquery.Selection) {
		l, ok := p.parseBlock(block)
		if !ok {
			return
		}
		out = append(out, l)
	})
	return out
}

func (p *AutopliusParser) parseBlock(block *goquery.Selection) (listing.Listing, bool) {
	adID, ok := block.Find("div.announcement-bookmark-button").Attr("data-id")
	if !ok || adID == "" {
		p.logger.Warn("Listing block without ad id, skipping")
		return listing.Listing{}, false
	}

	title := strings.TrimSpace(block.Find("div.announcement-title").First().Text())
	if title == "" {
		p.logger.Warn("Listing block without title, skipping", zap.String("ad_id", adID))
		return listing.Listing{}, false
	}

	l := listing.Listing{AdID: adID}
	makeAndModel := strings.SplitN(title, " ", 2)
	l.Make = makeAndModel[0]
	if len(makeAndModel) > 1 {
		model := strings.TrimSpace(makeAndModel[1])
		l.Model = &model
	}

	p.parsePrice(block, &l)
	p.parseTitleParams(block, &l)
	p.parseParamsBlock(block, &l)
	return l, true
}

func (p *AutopliusParser) parsePrice(block *goquery.Selection, l *listing.Listing) {
	raw := strings.TrimSpace(block.Find("div.announcement-pricing-info").First().Text())
	if raw == "" {
		return
	}
	// First line holds the asking price, e.g. "12 500 €".
	first := strings.TrimSpace(strings.SplitN(raw, "\n", 2)[0])
	price, err := strconv.Atoi(digitsOnly(first))
	if err != nil {
		p.logger.Warn("Unparsable price", zap.String("ad_id", l.AdID), zap.String("raw", first))
		return
	}
	l.Price = &price
}

// parseTitleParams reads the year and body type from the title parameter
// spans, e.g. "2018-05" and "Sedanas".
func (p *AutopliusParser) parseTitleParams(block *goquery.Selection, l *listing.Listing) {
	spans := block.Find("div.announcement-title-parameters span")
	if spans.Length() > 0 {
		yearText := strings.TrimSpace(spans.Eq(0).Text())
		if len(yearText) >= 4 {
			yearText = yearText[:4]
		}
		year, err := strconv.Atoi(yearText)
		if err != nil {
			p.logger.Warn("Unparsable year", zap.String("ad_id", l.AdID), zap.String("raw", yearText))
		} else {
			l.Year = &year
		}
	}
	if spans.Length() > 1 {
		bodyType := strings.TrimSpace(spans.Eq(1).Text())
		if bodyType != "" {
			l.BodyType = &bodyType
		}
	}
}

// parseParamsBlock reads fuel, gearbox, engine info and mileage from the
// parameter block spans, in the site's fixed order.
func (p *AutopliusParser) parseParamsBlock(block *goquery.Selection, l *listing.Listing) {
	var values []string
	block.Find("div.announcement-parameters-block span").Each(func(_ int, s *goquery.Selection) {
		values = append(values, strings.TrimSpace(s.Text()))
	})

	if len(values) > 0 && values[0] != "" {
		fuel := values[0]
		l.Fuel = &fuel
	}
	if len(values) > 1 && values[1] != "" {
		gearbox := values[1]
		l.Gearbox = &gearbox
	}
	if len(values) > 2 {
		p.parseEngineInfo(values[2], l)
	}
	if len(values) > 3 {
		p.parseMileage(values[3], l)
	}
}

// parseEngineInfo splits a combined engine spec, e.g. "2.0 l., 110 kW".
func (p *AutopliusParser) parseEngineInfo(raw string, l *listing.Listing) {
	if !strings.Contains(raw, ",") {
		p.logger.Warn("Engine info missing comma", zap.String("ad_id", l.AdID), zap.String("raw", raw))
		return
	}
	parts := strings.SplitN(raw, ",", 2)

	volumeText := strings.TrimSpace(strings.ReplaceAll(parts[0], "l.", ""))
	volume, err := strconv.ParseFloat(volumeText, 64)
	if err != nil {
		p.logger.Warn("Unparsable engine volume", zap.String("ad_id", l.AdID), zap.String("raw", volumeText))
	} else {
		l.EngineLiters = &volume
	}

	powerText := strings.TrimSpace(strings.ReplaceAll(parts[1], "kW", ""))
	power, err := strconv.Atoi(powerText)
	if err != nil {
		p.logger.Warn("Unparsable engine power", zap.String("ad_id", l.AdID), zap.String("raw", powerText))
	} else {
		l.EnginePowerKW = &power
	}
}

func (p *AutopliusParser) parseMileage(raw string, l *listing.Listing) {
	lower := strings.ToLower(raw)
	if !strings.Contains(lower, " km") && !strings.HasSuffix(lower, "km") {
		p.logger.Warn("Mileage missing km unit", zap.String("ad_id", l.AdID), zap.String("raw", raw))
		return
	}
	mileage, err := strconv.Atoi(digitsOnly(lower))
	if err != nil {
		p.logger.Warn("Unparsable mileage", zap.String("ad_id", l.AdID), zap.String("raw", raw))
		return
	}
	l.MileageKM = &mileage
}

// digitsOnly strips everything but ASCII digits, which also disposes of
// thousands separators and non-breaking spaces in site markup.
func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
