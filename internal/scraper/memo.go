package scraper

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"

	"github.com/wonny/holdwatch/internal/contracts"
	"github.com/wonny/holdwatch/pkg/logger"
)

const (
	memoCardSelector  = "div[data-slot='card']"
	memoTitleSelector = "div[data-slot='card-title']"
	memoDateSelector  = "div[data-slot='card-title'] + p"
	memoBodySelector  = "div.prose"
)

// ErrNoMemo means a detail page had no memo title
var ErrNoMemo = errors.New("memo detail not found on page")

var (
	cjkDatePattern = regexp.MustCompile(`(\d{4})年(\d{1,2})月(\d{1,2})日`)
	isoDatePattern = regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})`)
	textDateLayout = []string{"January 2, 2006", "Jan 2, 2006", "2 January 2006"}
)

// ParseMemo extracts one memo from a rendered detail page
func ParseMemo(html string) (contracts.Memo, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return contracts.Memo{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	title := strings.TrimSpace(doc.Find(memoTitleSelector).First().Text())
	if title == "" {
		return contracts.Memo{}, ErrNoMemo
	}
	dateText := strings.TrimSpace(doc.Find(memoDateSelector).First().Text())

	return contracts.Memo{
		Key:      MemoKey(title, dateText),
		Title:    title,
		DateText: dateText,
		Body:     memoBody(doc.Find(memoBodySelector).First()),
	}, nil
}

// MemoKey reads a date from the title, then from the date line.
// Titles without any readable date key by the title itself.
func MemoKey(title, dateText string) string {
	for _, text := range []string{title, dateText} {
		if key, ok := parseMemoDate(text); ok {
			return key
		}
	}
	return title
}

func parseMemoDate(text string) (string, bool) {
	for _, re := range []*regexp.Regexp{cjkDatePattern, isoDatePattern} {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		if d.Month() != time.Month(month) || d.Day() != day {
			continue
		}
		return d.Format(contracts.DateLayout), true
	}

	trimmed := strings.TrimSpace(text)
	for _, layout := range textDateLayout {
		if d, err := time.Parse(layout, trimmed); err == nil {
			return d.Format(contracts.DateLayout), true
		}
	}
	return "", false
}

// memoBody keeps one paragraph per block child of the prose container
func memoBody(prose *goquery.Selection) string {
	var parts []string
	prose.Children().Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	if len(parts) == 0 {
		return strings.TrimSpace(prose.Text())
	}
	return strings.Join(parts, "\n\n")
}

// MemoPager opens every memo card on the list page and returns the
// rendered detail pages, in list order
type MemoPager interface {
	MemoPages(ctx context.Context, listURL string) ([]string, error)
}

// MemoScraper turns the memo list into parsed memos
type MemoScraper struct {
	pager  MemoPager
	url    string
	logger *logger.Logger
	now    func() time.Time
}

// NewMemoScraper creates a memo scraper for the list page at url
func NewMemoScraper(pager MemoPager, url string, log *logger.Logger) *MemoScraper {
	return &MemoScraper{
		pager:  pager,
		url:    url,
		logger: log.Component("memo_scraper"),
		now:    time.Now,
	}
}

// Memos fetches every memo on the list. Unparseable pages are skipped and
// repeated keys keep the first (newest listed) memo.
func (s *MemoScraper) Memos(ctx context.Context) ([]contracts.Memo, error) {
	pages, err := s.pager.MemoPages(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("failed to open memos: %w", err)
	}

	fetchedAt := s.now().UTC()
	seen := make(map[string]struct{}, len(pages))
	memos := make([]contracts.Memo, 0, len(pages))
	for i, page := range pages {
		memo, err := ParseMemo(page)
		if err != nil {
			s.logger.WithError(err).WithField("index", i).Warn("Memo page unreadable, skipped")
			continue
		}
		if _, dup := seen[memo.Key]; dup {
			continue
		}
		seen[memo.Key] = struct{}{}

		memo.FetchedAt = fetchedAt
		memos = append(memos, memo)
	}

	s.logger.WithFields(map[string]interface{}{
		"pages": len(pages),
		"memos": len(memos),
	}).Info("Scraped memos")

	return memos, nil
}

// BrowserMemoPager walks the memo list in headless Chrome. The list is
// reloaded before each card so the card index always matches a fresh DOM.
type BrowserMemoPager struct {
	timeout   time.Duration // per page load
	userAgent string
	settle    time.Duration // pause after each reload
	logger    *logger.Logger
}

// NewBrowserMemoPager creates a headless memo pager
func NewBrowserMemoPager(timeout time.Duration, userAgent string, settle time.Duration, log *logger.Logger) *BrowserMemoPager {
	return &BrowserMemoPager{
		timeout:   timeout,
		userAgent: userAgent,
		settle:    settle,
		logger:    log.Component("memo_pager"),
	}
}

// MemoPages opens each card in turn; a card that fails to open is logged
// and skipped
func (p *BrowserMemoPager) MemoPages(ctx context.Context, listURL string) ([]string, error) {
	browserCtx, cancel := newBrowserContext(ctx, 0, p.userAgent)
	defer cancel()

	cards, err := p.loadList(browserCtx, listURL)
	if err != nil {
		return nil, err
	}
	total := len(cards)
	p.logger.WithField("cards", total).Info("Memo list loaded")

	pages := make([]string, 0, total)
	for i := 0; i < total; i++ {
		if i > 0 {
			if cards, err = p.loadList(browserCtx, listURL); err != nil {
				p.logger.WithError(err).WithField("index", i).Warn("Memo list reload failed, skipped")
				continue
			}
		}
		if i >= len(cards) {
			p.logger.WithField("index", i).Warn("Memo card disappeared after reload, skipped")
			continue
		}

		html, err := p.openCard(browserCtx, cards[i])
		if err != nil {
			p.logger.WithError(err).WithField("index", i).Warn("Memo card failed to open, skipped")
			continue
		}
		pages = append(pages, html)
	}

	return pages, nil
}

func (p *BrowserMemoPager) loadList(ctx context.Context, listURL string) ([]*cdp.Node, error) {
	stepCtx, cancel := p.step(ctx)
	defer cancel()

	var cards []*cdp.Node
	err := chromedp.Run(stepCtx,
		chromedp.Navigate(listURL),
		chromedp.WaitVisible(memoCardSelector, chromedp.ByQuery),
		chromedp.Sleep(p.settle),
		chromedp.Nodes(memoCardSelector, &cards, chromedp.ByQueryAll),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load memo list: %w", err)
	}
	return cards, nil
}

func (p *BrowserMemoPager) openCard(ctx context.Context, card *cdp.Node) (string, error) {
	stepCtx, cancel := p.step(ctx)
	defer cancel()

	var html string
	err := chromedp.Run(stepCtx,
		chromedp.MouseClickNode(card),
		chromedp.WaitVisible(memoBodySelector, chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", err
	}
	return html, nil
}

func (p *BrowserMemoPager) step(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.timeout)
}
