package marketdata

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/holdwatch/internal/contracts"
	"github.com/wonny/holdwatch/pkg/httputil"
	"github.com/wonny/holdwatch/pkg/logger"
	"github.com/wonny/holdwatch/pkg/redis"
)

// Client resolves daily returns from a chart price API
// ⭐ SSOT: 시세 API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	cache      *redis.Cache
	logger     *logger.Logger
	baseURL    string
	now        func() time.Time
}

// NewClient creates a new market data client. cache may be nil.
func NewClient(httpClient *httputil.Client, cache *redis.Cache, baseURL string, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		cache:      cache,
		logger:     log.Component("marketdata"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		now:        time.Now,
	}
}

// ReturnOf returns the latest day-over-day fractional return of code.
// Any failure is logged and reported as 0.
func (c *Client) ReturnOf(ctx context.Context, code string) float64 {
	key := redis.ReturnKey(code, c.now().Format(contracts.DateLayout))

	if c.cache != nil {
		var cached float64
		found, err := c.cache.Get(ctx, key, &cached)
		if err != nil {
			c.logger.WithError(err).WithField("code", code).Warn("Return cache read failed")
		}
		if found {
			return cached
		}
	}

	r, err := c.FetchReturn(ctx, code)
	if err != nil {
		c.logger.WithError(err).WithField("code", code).Warn("Return lookup failed, using 0")
		return 0
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, r, redis.TTLDaily); err != nil {
			c.logger.WithError(err).WithField("code", code).Warn("Return cache write failed")
		}
	}

	return r
}

// FetchReturn queries the chart endpoint for code without caching
func (c *Client) FetchReturn(ctx context.Context, code string) (float64, error) {
	fullURL := fmt.Sprintf("%s/v8/finance/chart/%s?range=5d&interval=1d", c.baseURL, url.PathEscape(code))

	body, err := c.httpClient.GetBody(ctx, fullURL)
	if err != nil {
		return 0, fmt.Errorf("HTTP request failed: %w", err)
	}

	closes, err := parseCloses(body)
	if err != nil {
		return 0, fmt.Errorf("parse response failed: %w", err)
	}

	r, err := dailyReturn(closes)
	if err != nil {
		return 0, err
	}

	c.logger.WithFields(map[string]interface{}{
		"code":   code,
		"return": r,
	}).Debug("Fetched return")
	return r, nil
}
