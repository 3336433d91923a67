package scraper

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/holdwatch/internal/contracts"
)

const (
	tickerSelector = "div.text-xs.text-muted-foreground"
	nameSelector   = "span.font-semibold"
	maxTickerLen   = 8
	unknownName    = "Unknown"
)

var weightPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)

// ParseResult carries parsed holdings plus tickers that had no weight
type ParseResult struct {
	Holdings []contracts.Holding
	Skipped  []string
}

// ParseHoldings extracts holdings from the portfolio page.
// A ticker cell is a short muted text div; its name is a bold span under the
// same parent and its weight is the first percentage in the enclosing row.
func ParseHoldings(html string) (*ParseResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	result := &ParseResult{}
	doc.Find(tickerSelector).Each(func(_ int, s *goquery.Selection) {
		code := strings.TrimSpace(s.Text())
		if code == "" || utf8.RuneCountInString(code) > maxTickerLen {
			return
		}

		name := strings.TrimSpace(s.Parent().Find(nameSelector).First().Text())
		if name == "" {
			name = unknownName
		}

		weight, ok := parseWeight(s.Parent().Parent().Text())
		if !ok {
			result.Skipped = append(result.Skipped, code)
			return
		}

		result.Holdings = append(result.Holdings, contracts.Holding{
			Code:      code,
			Name:      name,
			WeightPct: weight,
		})
	})

	return result, nil
}

// parseWeight returns the first "NN.N%" value in text
func parseWeight(text string) (float64, bool) {
	m := weightPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}

	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
