// Package scraper fetches car listing pages and turns them into records.
package scraper

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"

	"carprice/internal/listing"
)

// PageHTML is the raw markup of one fetched listing page.
type PageHTML []byte

// Fetcher retrieves the markup of a single listing page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (PageHTML, error)
}

// Parser extracts listing records from a page document. The markup-shape
// assumptions live entirely behind this interface so the parsing strategy
// can be swapped or stubbed without touching fetch logic. A page that does
// not match the expected shape yields zero records, never an error.
type Parser interface {
	Parse(doc *goquery.Document) []listing.Listing
}

// RetryPolicy decides whether a failed fetch is retried and how long to wait.
type RetryPolicy interface {
	ShouldRetry(err error, attempt int) bool
	Backoff(attempt int) time.Duration
}
