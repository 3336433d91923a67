package marketdata

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData means fewer than two closes were available
	ErrInsufficientData = errors.New("fewer than two closing prices")
	// ErrInvalidPrice means the prior close cannot be used as a base
	ErrInvalidPrice = errors.New("non-positive prior close")
)

// chartResponse is the subset of the chart API payload we read
type chartResponse struct {
	Chart struct {
		Result []struct {
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// parseCloses extracts closing prices, skipping null entries
func parseCloses(body []byte) ([]float64, error) {
	var resp chartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode chart: %w", err)
	}

	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("chart error %s: %s", resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, ErrInsufficientData
	}

	raw := resp.Chart.Result[0].Indicators.Quote[0].Close
	closes := make([]float64, 0, len(raw))
	for _, v := range raw {
		if v != nil {
			closes = append(closes, *v)
		}
	}
	return closes, nil
}

// dailyReturn is last close / prior close - 1
func dailyReturn(closes []float64) (float64, error) {
	if len(closes) < 2 {
		return 0, ErrInsufficientData
	}

	prev := closes[len(closes)-2]
	last := closes[len(closes)-1]
	if prev <= 0 {
		return 0, ErrInvalidPrice
	}

	return last/prev - 1, nil
}
