package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BidEvaluation is the ranked bid comparison for one package.
type BidEvaluation struct {
	Package     Package
	ProjectName string
	Submissions []Submission
	LowestPrice decimal.NullDecimal
	GeneratedAt time.Time
}

func (e BidEvaluation) PricedCount() int {
	count := 0
	for _, sub := range e.Submissions {
		if sub.Price.Valid {
			count++
		}
	}
	return count
}
