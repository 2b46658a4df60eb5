package scraper

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"carprice/internal/config"
)

// CollyFetcher implements the Fetcher interface using the Colly collector.
type CollyFetcher struct {
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// NewCollyFetcher constructs a configured Colly-based Fetcher. Pages are
// fetched one at a time in pagination order, so the collector is synchronous
// and rate-limited only by the configured per-request delay.
func NewCollyFetcher(cfg config.ScraperConfig, logger *zap.Logger) (*CollyFetcher, error) {
	base := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
	)
	// Retries revisit the same URL.
	base.AllowURLRevisit = true
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          16,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.RequestTimeout(),
		ForceAttemptHTTP2:     true,
	})
	base.SetRequestTimeout(cfg.RequestTimeout())

	if err := base.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       cfg.Delay(),
	}); err != nil {
		return nil, err
	}

	return &CollyFetcher{
		baseCollector: base,
		logger:        logger,
	}, nil
}

// Fetch retrieves a page via the configured Colly collector. Cancelling the
// context unblocks the call immediately; the underlying request is abandoned
// to finish in the background.
func (f *CollyFetcher) Fetch(ctx context.Context, rawURL string) (PageHTML, error) {
	collector := f.baseCollector.Clone()
	resultCh := make(chan fetchResult, 1)
	var once sync.Once
	send := func(res fetchResult) {
		once.Do(func() {
			resultCh <- res
		})
	}

	collector.OnResponse(func(r *colly.Response) {
		send(fetchResult{body: append([]byte{}, r.Body...)})
	})

	collector.OnError(func(_ *colly.Response, err error) {
		if err == nil {
			err = errors.New("unknown colly error")
		}
		send(fetchResult{err: err})
	})

	go func() {
		if err := collector.Visit(rawURL); err != nil {
			send(fetchResult{err: err})
			return
		}
		collector.Wait()
		send(fetchResult{err: errors.New("colly fetch produced no result")})
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultCh:
		return res.body, res.err
	}
}

type fetchResult struct {
	body PageHTML
	err  error
}
