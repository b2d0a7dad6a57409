// Package matching pairs invoices with the bank movements that most likely
// settled them.
package matching

import "github.com/shopspring/decimal"

// Options tunes scoring and classification.
type Options struct {
	// AmountTolerance is the largest difference still scored as an exact
	// amount match. Inclusive.
	AmountTolerance     decimal.Decimal `json:"amountTolerance" yaml:"amount_tolerance"`
	MaxDateDistanceDays int             `json:"maxDateDistanceDays" yaml:"max_date_distance_days"`
	MinScore            int             `json:"minScore" yaml:"min_score"`
	AutoScore           int             `json:"autoScore" yaml:"auto_score"`
}

// DefaultOptions returns the stock thresholds.
func DefaultOptions() Options {
	return Options{
		AmountTolerance:     decimal.RequireFromString("0.05"),
		MaxDateDistanceDays: 30,
		MinScore:            45,
		AutoScore:           80,
	}
}
