package scraper

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"carprice/internal/config"
	"carprice/internal/listing"
	"carprice/internal/metrics"
)

// Inserter is the slice of the listing store the runner writes through.
type Inserter interface {
	InsertListing(ctx context.Context, l listing.Listing) (bool, error)
}

// RunStats summarizes one scrape run.
type RunStats struct {
	PagesFetched int
	PagesFailed  int
	Parsed       int
	Inserted     int
	Duplicates   int
	Invalid      int
}

// Runner walks the configured makes and pages sequentially, fetching,
// parsing and storing listings. A fetch that exhausts its retries is logged
// and the run moves on to the next page; a page that parses to no listings
// is the end-of-results signal and stops paging the current make.
type Runner struct {
	cfg     config.ScraperConfig
	fetcher Fetcher
	parser  Parser
	store   Inserter
	retry   RetryPolicy
	logger  *zap.Logger
}

// NewRunner wires up a scrape run.
func NewRunner(
	cfg config.ScraperConfig,
	fetcher Fetcher,
	parser Parser,
	store Inserter,
	retry RetryPolicy,
	logger *zap.Logger,
) *Runner {
	return &Runner{
		cfg:     cfg,
		fetcher: fetcher,
		parser:  parser,
		store:   store,
		retry:   retry,
		logger:  logger,
	}
}

// Run executes the scrape. It returns an error only when the context is
// cancelled or the store becomes unavailable; per-page trouble is absorbed
// into the stats.
func (r *Runner) Run(ctx context.Context) (RunStats, error) {
	metrics.Init()
	var stats RunStats

	for _, carMake := range r.cfg.Makes {
		r.logger.Info("Collecting listings", zap.String("make", carMake))
		for page := r.cfg.StartPage; page < r.cfg.StartPage+r.cfg.PagesPerMake; page++ {
			if err := ctx.Err(); err != nil {
				return stats, err
			}

			url := r.pageURL(carMake, page)
			body, err := r.fetchWithRetry(ctx, url)
			if err != nil {
				stats.PagesFailed++
				metrics.ObservePage(carMake, "fetch_error")
				r.logger.Error("Failed to fetch page, skipping",
					zap.String("url", url), zap.Error(err))
				continue
			}
			stats.PagesFetched++

			records := r.parsePage(body)
			if len(records) == 0 {
				// End of results for this make.
				metrics.ObservePage(carMake, "parse_empty")
				r.logger.Warn("No listings found on page, ending collection for this make",
					zap.String("make", carMake), zap.Int("page", page))
				break
			}
			metrics.ObservePage(carMake, "fetched")
			stats.Parsed += len(records)

			if err := r.storeRecords(ctx, records, &stats); err != nil {
				return stats, err
			}
		}
	}

	r.logger.Info("Scrape run finished",
		zap.Int("pages_fetched", stats.PagesFetched),
		zap.Int("pages_failed", stats.PagesFailed),
		zap.Int("parsed", stats.Parsed),
		zap.Int("inserted", stats.Inserted),
		zap.Int("duplicates", stats.Duplicates),
		zap.Int("invalid", stats.Invalid),
	)
	return stats, nil
}

func (r *Runner) pageURL(carMake string, page int) string {
	return fmt.Sprintf("%s/%s?category_id=2&page_nr=%d", r.cfg.BaseURL, carMake, page)
}

func (r *Runner) fetchWithRetry(ctx context.Context, url string) (PageHTML, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		body, err := r.fetcher.Fetch(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !r.retry.ShouldRetry(err, attempt+1) {
			return nil, lastErr
		}
		wait := r.retry.Backoff(attempt)
		r.logger.Warn("Fetch failed, retrying",
			zap.String("url", url), zap.Int("attempt", attempt+1),
			zap.Duration("backoff", wait), zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

// parsePage builds a document from the page body and hands it to the parser.
// Unreadable markup is treated the same as a page with no listings.
func (r *Runner) parsePage(body PageHTML) []listing.Listing {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		r.logger.Warn("Unreadable page markup", zap.Error(err))
		return nil
	}
	return r.parser.Parse(doc)
}

// storeRecords inserts parsed listings. Validation failures skip the record;
// a database error aborts the run since the store is the one dependency the
// whole pipeline needs.
func (r *Runner) storeRecords(ctx context.Context, records []listing.Listing, stats *RunStats) error {
	for _, l := range records {
		if err := l.Validate(); err != nil {
			stats.Invalid++
			metrics.ObserveListing("invalid")
			r.logger.Warn("Dropping invalid listing", zap.Error(err))
			continue
		}
		inserted, err := r.store.InsertListing(ctx, l)
		if err != nil {
			return fmt.Errorf("store listing %s: %w", l.AdID, err)
		}
		if inserted {
			stats.Inserted++
			metrics.ObserveListing("inserted")
		} else {
			stats.Duplicates++
			metrics.ObserveListing("duplicate")
		}
	}
	return nil
}
