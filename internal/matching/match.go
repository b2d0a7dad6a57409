package matching

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/riconcilia/riconcilia/internal/id"
	"github.com/riconcilia/riconcilia/internal/model"
)

// SuggestionType is the confidence tier of a suggestion.
type SuggestionType string

const (
	SuggestionAuto   SuggestionType = "auto"
	SuggestionReview SuggestionType = "review"
	SuggestionWeak   SuggestionType = "weak"
)

// Suggestion pairs one invoice with the movement chosen for it.
type Suggestion struct {
	ID            string          `json:"id"`
	Type          SuggestionType  `json:"type"`
	Score         int             `json:"score"`
	Reasons       []string        `json:"reasons"`
	AmountDiff    decimal.Decimal `json:"amountDiff"`
	DayDifference *int            `json:"dayDifference"`
	CBIStatus     CBIStatus       `json:"cbiStatus"`
	Invoice       model.Invoice   `json:"invoice"`
	Movement      model.Movement  `json:"movement"`
}

// Stats summarizes a matching run.
type Stats struct {
	TotalInvoices      int `json:"totalInvoices"`
	TotalMovements     int `json:"totalMovements"`
	Matched            int `json:"matched"`
	Auto               int `json:"auto"`
	Review             int `json:"review"`
	Weak               int `json:"weak"`
	UnmatchedInvoices  int `json:"unmatchedInvoices"`
	UnmatchedMovements int `json:"unmatchedMovements"`
}

// Result is the outcome of Match.
type Result struct {
	Suggestions        []Suggestion     `json:"suggestions"`
	UnmatchedInvoices  []model.Invoice  `json:"unmatchedInvoices"`
	UnmatchedMovements []model.Movement `json:"unmatchedMovements"`
	Stats              Stats            `json:"stats"`
}

// Match assigns each invoice at most one movement and each movement at
// most one invoice. Invoices are visited by ascending due date (document
// date when there is none) and greedily claim their best-scoring unclaimed
// movement of the expected direction. Equal scores go to the movement seen
// first in movements. The inputs are not modified.
func Match(invoices []model.Invoice, movements []model.Movement, opts Options) Result {
	ordered := slices.Clone(invoices)
	slices.SortStableFunc(ordered, func(a, b model.Invoice) int {
		return a.TargetDate().Compare(b.TargetDate())
	})

	res := Result{
		Suggestions:        []Suggestion{},
		UnmatchedInvoices:  []model.Invoice{},
		UnmatchedMovements: []model.Movement{},
	}
	claimed := make([]bool, len(movements))

	for _, inv := range ordered {
		want := inv.Type.ExpectedDirection()
		best, bestIdx := candidate{}, -1
		for i, mov := range movements {
			if claimed[i] || mov.Direction != want {
				continue
			}
			c, ok := evaluate(inv, mov, opts)
			if !ok {
				continue
			}
			if bestIdx < 0 || c.score > best.score {
				best, bestIdx = c, i
			}
		}

		if bestIdx < 0 || best.score < opts.MinScore {
			res.UnmatchedInvoices = append(res.UnmatchedInvoices, inv)
			continue
		}

		claimed[bestIdx] = true
		mov := movements[bestIdx]
		res.Suggestions = append(res.Suggestions, Suggestion{
			ID:            id.FormatSuggestionID(inv.ID, mov.ID),
			Type:          classify(best.score, opts.AutoScore),
			Score:         best.score,
			Reasons:       best.reasons,
			AmountDiff:    best.amountDiff,
			DayDifference: best.dayDifference,
			CBIStatus:     best.cbiStatus,
			Invoice:       inv,
			Movement:      mov,
		})
	}

	for i, mov := range movements {
		if !claimed[i] {
			res.UnmatchedMovements = append(res.UnmatchedMovements, mov)
		}
	}

	res.Stats = Stats{
		TotalInvoices:      len(invoices),
		TotalMovements:     len(movements),
		Matched:            len(res.Suggestions),
		UnmatchedInvoices:  len(res.UnmatchedInvoices),
		UnmatchedMovements: len(res.UnmatchedMovements),
	}
	for _, s := range res.Suggestions {
		switch s.Type {
		case SuggestionAuto:
			res.Stats.Auto++
		case SuggestionReview:
			res.Stats.Review++
		case SuggestionWeak:
			res.Stats.Weak++
		}
	}
	return res
}

func classify(score, autoScore int) SuggestionType {
	switch {
	case score >= autoScore:
		return SuggestionAuto
	case score >= reviewScore:
		return SuggestionReview
	default:
		return SuggestionWeak
	}
}
