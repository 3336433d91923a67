package scraper

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/holdwatch/internal/contracts"
	"github.com/wonny/holdwatch/pkg/logger"
)

// ErrNoHoldings means the page yielded no holdings at all
var ErrNoHoldings = errors.New("no holdings found on page")

// Scraper turns the holdings page into today's Snapshot
// ⭐ SSOT: 보유종목 수집은 여기서만
type Scraper struct {
	fetcher Fetcher
	url     string
	logger  *logger.Logger
}

// New creates a scraper for url
func New(fetcher Fetcher, url string, log *logger.Logger) *Scraper {
	return &Scraper{
		fetcher: fetcher,
		url:     url,
		logger:  log.Component("scraper"),
	}
}

// Today fetches and parses the page into a normalized Snapshot for date
func (s *Scraper) Today(ctx context.Context, date string) (contracts.Snapshot, error) {
	html, err := s.fetcher.FetchHTML(ctx, s.url)
	if err != nil {
		return contracts.Snapshot{}, fmt.Errorf("failed to fetch holdings page: %w", err)
	}

	parsed, err := ParseHoldings(html)
	if err != nil {
		return contracts.Snapshot{}, err
	}

	for _, code := range parsed.Skipped {
		s.logger.WithField("code", code).Warn("Holding has no weight, skipped")
	}

	snap := contracts.NewSnapshot(date, parsed.Holdings)
	if snap.IsEmpty() {
		return contracts.Snapshot{}, fmt.Errorf("%s: %w", s.url, ErrNoHoldings)
	}

	s.logger.WithFields(map[string]interface{}{
		"date":         date,
		"count":        snap.Len(),
		"total_weight": snap.TotalWeight(),
	}).Info("Scraped holdings")

	return snap, nil
}
