package matching

import (
	"fmt"

	"github.com/riconcilia/riconcilia/internal/id"
	"github.com/riconcilia/riconcilia/internal/model"
)

// ValidationError describes a single inconsistency in a Result.
type ValidationError struct {
	Check       string
	ID          string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s [%s]: %s", e.Check, e.ID, e.Description)
}

// Check names.
const (
	CheckMovementOnce   = "movement-once"
	CheckMovementsSplit = "movements-split"
	CheckInvoicesSplit  = "invoices-split"
	CheckDirection      = "direction"
	CheckSuggestion     = "suggestion"
	CheckStats          = "stats"
)

// Validate checks a Result against the inputs it was computed from: every
// movement is claimed at most once and is either claimed or unmatched,
// every invoice is either matched or unmatched, and the stats agree with
// the lists. Saved sessions are checked with it before use.
func Validate(res Result, invoices []model.Invoice, movements []model.Movement) []ValidationError {
	var errs []ValidationError

	claimed := make(map[string]int)
	matchedInv := make(map[string]int)
	for _, s := range res.Suggestions {
		claimed[s.Movement.ID]++
		matchedInv[s.Invoice.ID]++

		if want := id.FormatSuggestionID(s.Invoice.ID, s.Movement.ID); s.ID != want {
			errs = append(errs, ValidationError{
				Check:       CheckSuggestion,
				ID:          s.ID,
				Description: fmt.Sprintf("id does not match its pair (want %s)", want),
			})
		}
		if s.Score < 0 || s.Score > maxScore {
			errs = append(errs, ValidationError{
				Check:       CheckSuggestion,
				ID:          s.ID,
				Description: fmt.Sprintf("score %d out of range", s.Score),
			})
		}
		if s.Movement.Direction != s.Invoice.Type.ExpectedDirection() {
			errs = append(errs, ValidationError{
				Check:       CheckDirection,
				ID:          s.ID,
				Description: fmt.Sprintf("%s invoice paired with %q movement", s.Invoice.Type, s.Movement.Direction),
			})
		}
	}

	reported := make(map[string]bool)
	for _, s := range res.Suggestions {
		mid := s.Movement.ID
		if n := claimed[mid]; n > 1 && !reported[mid] {
			reported[mid] = true
			errs = append(errs, ValidationError{
				Check:       CheckMovementOnce,
				ID:          mid,
				Description: fmt.Sprintf("claimed by %d suggestions", n),
			})
		}
	}

	unmatchedMov := make(map[string]bool, len(res.UnmatchedMovements))
	for _, m := range res.UnmatchedMovements {
		unmatchedMov[m.ID] = true
		if claimed[m.ID] > 0 {
			errs = append(errs, ValidationError{
				Check:       CheckMovementsSplit,
				ID:          m.ID,
				Description: "both claimed and unmatched",
			})
		}
	}
	for _, m := range movements {
		if claimed[m.ID] == 0 && !unmatchedMov[m.ID] {
			errs = append(errs, ValidationError{
				Check:       CheckMovementsSplit,
				ID:          m.ID,
				Description: "neither claimed nor unmatched",
			})
		}
	}

	unmatchedInv := make(map[string]bool, len(res.UnmatchedInvoices))
	for _, inv := range res.UnmatchedInvoices {
		unmatchedInv[inv.ID] = true
		if matchedInv[inv.ID] > 0 {
			errs = append(errs, ValidationError{
				Check:       CheckInvoicesSplit,
				ID:          inv.ID,
				Description: "both matched and unmatched",
			})
		}
	}
	for _, inv := range invoices {
		if matchedInv[inv.ID] == 0 && !unmatchedInv[inv.ID] {
			errs = append(errs, ValidationError{
				Check:       CheckInvoicesSplit,
				ID:          inv.ID,
				Description: "neither matched nor unmatched",
			})
		}
	}

	s := res.Stats
	if s.Matched != len(res.Suggestions) ||
		s.UnmatchedInvoices != len(res.UnmatchedInvoices) ||
		s.UnmatchedMovements != len(res.UnmatchedMovements) ||
		s.Auto+s.Review+s.Weak != s.Matched ||
		s.TotalInvoices != len(invoices) ||
		s.TotalMovements != len(movements) {
		errs = append(errs, ValidationError{
			Check:       CheckStats,
			ID:          "stats",
			Description: "counts disagree with the result lists",
		})
	}

	return errs
}
