package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"carprice/internal/config"
	"carprice/internal/listing"
)

// stubFetcher serves canned bodies keyed by URL; URLs in failures always error.
type stubFetcher struct {
	bodies   map[string]PageHTML
	failures map[string]bool
	calls    int
}

func (f *stubFetcher) Fetch(_ context.Context, url string) (PageHTML, error) {
	f.calls++
	if f.failures[url] {
		return nil, errors.New("fetch failed")
	}
	body, ok := f.bodies[url]
	if !ok {
		return nil, fmt.Errorf("unexpected url %s", url)
	}
	return body, nil
}

// markerParser turns every <p>ad-id</p> in the page into a minimal listing.
type markerParser struct{}

func (markerParser) Parse(doc *goquery.Document) []listing.Listing {
	var out []listing.Listing
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		adID := strings.TrimSpace(s.Text())
		if adID == "" {
			return
		}
		out = append(out, listing.Listing{AdID: adID, Make: "Toyota"})
	})
	return out
}

type recordingInserter struct {
	seen map[string]bool
	err  error
}

func (r *recordingInserter) InsertListing(_ context.Context, l listing.Listing) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	if r.seen == nil {
		r.seen = make(map[string]bool)
	}
	if r.seen[l.AdID] {
		return false, nil
	}
	r.seen[l.AdID] = true
	return true, nil
}

func testScraperConfig(pages int) config.ScraperConfig {
	return config.ScraperConfig{
		BaseURL:      "https://example.test/ads",
		Makes:        []string{"toyota"},
		PagesPerMake: pages,
		StartPage:    1,
	}
}

func noRetry() RetryPolicy {
	return NewExponentialRetryPolicy(1, time.Millisecond, time.Millisecond)
}

func pageURLFor(cfg config.ScraperConfig, carMake string, page int) string {
	return fmt.Sprintf("%s/%s?category_id=2&page_nr=%d", cfg.BaseURL, carMake, page)
}

func TestRunSurvivesFailedPages(t *testing.T) {
	t.Parallel()

	cfg := testScraperConfig(10)
	fetcher := &stubFetcher{
		bodies:   map[string]PageHTML{},
		failures: map[string]bool{},
	}
	for page := 1; page <= 10; page++ {
		url := pageURLFor(cfg, "toyota", page)
		switch page {
		case 2, 5, 9:
			fetcher.failures[url] = true
		default:
			fetcher.bodies[url] = PageHTML(fmt.Sprintf("<html><body><p>ad-%d</p></body></html>", page))
		}
	}

	store := &recordingInserter{}
	r := NewRunner(cfg, fetcher, markerParser{}, store, noRetry(), zap.NewNop())

	stats, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 7, stats.PagesFetched)
	require.Equal(t, 3, stats.PagesFailed)
	require.Equal(t, 7, stats.Parsed)
	require.Equal(t, 7, stats.Inserted)
	require.Zero(t, stats.Duplicates)
}

func TestRunStopsPagingMakeOnEmptyPage(t *testing.T) {
	t.Parallel()

	cfg := testScraperConfig(3)
	fetcher := &stubFetcher{
		bodies: map[string]PageHTML{
			pageURLFor(cfg, "toyota", 1): PageHTML("<html><body><p>ad-1</p></body></html>"),
			pageURLFor(cfg, "toyota", 2): PageHTML("<html><body>no listings here</body></html>"),
			pageURLFor(cfg, "toyota", 3): PageHTML("<html><body><p>ad-3</p></body></html>"),
		},
	}

	store := &recordingInserter{}
	r := NewRunner(cfg, fetcher, markerParser{}, store, noRetry(), zap.NewNop())

	stats, err := r.Run(context.Background())
	require.NoError(t, err)

	// The empty page is the end-of-results signal: page 3 is never fetched
	// and its listing never stored.
	require.Equal(t, 2, fetcher.calls)
	require.Equal(t, 2, stats.PagesFetched)
	require.Equal(t, 1, stats.Parsed)
	require.Equal(t, 1, stats.Inserted)
	require.False(t, store.seen["ad-3"])
}

func TestRunEmptyPageOnlyEndsCurrentMake(t *testing.T) {
	t.Parallel()

	cfg := testScraperConfig(2)
	cfg.Makes = []string{"toyota", "bmw"}
	fetcher := &stubFetcher{
		bodies: map[string]PageHTML{
			pageURLFor(cfg, "toyota", 1): PageHTML("<html><body>sold out</body></html>"),
			pageURLFor(cfg, "bmw", 1):    PageHTML("<html><body><p>ad-b1</p></body></html>"),
			pageURLFor(cfg, "bmw", 2):    PageHTML("<html><body><p>ad-b2</p></body></html>"),
		},
	}

	store := &recordingInserter{}
	r := NewRunner(cfg, fetcher, markerParser{}, store, noRetry(), zap.NewNop())

	stats, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, fetcher.calls)
	require.Equal(t, 2, stats.Inserted)
	require.True(t, store.seen["ad-b1"])
	require.True(t, store.seen["ad-b2"])
}

func TestRunCountsDuplicates(t *testing.T) {
	t.Parallel()

	cfg := testScraperConfig(2)
	fetcher := &stubFetcher{
		bodies: map[string]PageHTML{
			pageURLFor(cfg, "toyota", 1): PageHTML("<html><body><p>ad-1</p></body></html>"),
			pageURLFor(cfg, "toyota", 2): PageHTML("<html><body><p>ad-1</p></body></html>"),
		},
	}

	store := &recordingInserter{}
	r := NewRunner(cfg, fetcher, markerParser{}, store, noRetry(), zap.NewNop())

	stats, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, stats.Inserted)
	require.Equal(t, 1, stats.Duplicates)
}

func TestRunAbortsOnStoreError(t *testing.T) {
	t.Parallel()

	cfg := testScraperConfig(1)
	fetcher := &stubFetcher{
		bodies: map[string]PageHTML{
			pageURLFor(cfg, "toyota", 1): PageHTML("<html><body><p>ad-1</p></body></html>"),
		},
	}

	store := &recordingInserter{err: errors.New("database gone")}
	r := NewRunner(cfg, fetcher, markerParser{}, store, noRetry(), zap.NewNop())

	_, err := r.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "database gone")
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	cfg := testScraperConfig(5)
	fetcher := &stubFetcher{bodies: map[string]PageHTML{}}
	store := &recordingInserter{}
	r := NewRunner(cfg, fetcher, markerParser{}, store, noRetry(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, fetcher.calls)
}
