package attribution

import (
	"errors"
	"fmt"
)

var (
	// ErrDegeneratePortfolio is returned when 1 + R_p == 0 and expected weights are undefined
	ErrDegeneratePortfolio = errors.New("degenerate portfolio return: 1 + R_p == 0")

	// ErrNonFinite is returned when an input return produces NaN or Inf
	ErrNonFinite = errors.New("non-finite attribution value")
)

// ComputationError reports which security could not be decomposed
type ComputationError struct {
	Code            string
	PortfolioReturn float64
	Err             error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("attribution of %s failed (R_p=%v): %v", e.Code, e.PortfolioReturn, e.Err)
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}
