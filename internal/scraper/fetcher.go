package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/wonny/holdwatch/pkg/httputil"
)

// Fetcher returns the rendered HTML of a page
type Fetcher interface {
	FetchHTML(ctx context.Context, url string) (string, error)
}

// HTTPFetcher fetches server-rendered HTML with a plain GET
type HTTPFetcher struct {
	client *httputil.Client
}

// NewHTTPFetcher creates a fetcher over the shared HTTP client
func NewHTTPFetcher(client *httputil.Client) *HTTPFetcher {
	return &HTTPFetcher{client: client}
}

// FetchHTML performs the GET and returns the body
func (f *HTTPFetcher) FetchHTML(ctx context.Context, url string) (string, error) {
	body, err := f.client.GetBody(ctx, url)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	return string(body), nil
}

// BrowserFetcher renders the page in headless Chrome and waits for the
// ticker cells to appear, for pages that build holdings client side.
type BrowserFetcher struct {
	timeout   time.Duration
	userAgent string
	waitFor   string
}

// NewBrowserFetcher creates a headless browser fetcher
func NewBrowserFetcher(timeout time.Duration, userAgent string) *BrowserFetcher {
	return &BrowserFetcher{
		timeout:   timeout,
		userAgent: userAgent,
		waitFor:   tickerSelector,
	}
}

// FetchHTML navigates to url and returns the document's outer HTML
func (f *BrowserFetcher) FetchHTML(ctx context.Context, url string) (string, error) {
	browserCtx, cancel := newBrowserContext(ctx, f.timeout, f.userAgent)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitVisible(f.waitFor, chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("browser fetch failed: %w", err)
	}

	return html, nil
}

// newBrowserContext starts a headless Chrome; cancel tears the browser down
func newBrowserContext(ctx context.Context, timeout time.Duration, userAgent string) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if userAgent != "" {
		opts = append(opts, chromedp.UserAgent(userAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	timeoutCancel := context.CancelFunc(func() {})
	if timeout > 0 {
		browserCtx, timeoutCancel = context.WithTimeout(browserCtx, timeout)
	}

	return browserCtx, func() {
		timeoutCancel()
		browserCancel()
		allocCancel()
	}
}
