package matching

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/riconcilia/riconcilia/internal/model"
	"github.com/riconcilia/riconcilia/internal/textnorm"
)

// Evidence weights.
const (
	scoreAmountExact   = 55
	scoreAmountNear    = 40
	scoreAmountSimilar = 25
	scoreAmountLoose   = 10

	scoreDateSameDay = 20
	scoreDateNear    = 14
	scoreDateInRange = 6
	scoreDateFar     = -8

	scoreCBIMatch    = 35
	scoreCBIMismatch = -45
	scoreCBIMissing  = -5

	scoreNumberInText = 14
	scoreCounterparty = 8

	reviewScore = 55
	maxScore    = 100

	minCounterpartyToken = 4
)

var (
	amountNear    = decimal.NewFromInt(1)
	amountSimilar = decimal.NewFromInt(5)
	looseFloor    = decimal.NewFromInt(15)
	loosePercent  = decimal.RequireFromString("0.05")
)

// Evidence tags, in the order they are appended to a suggestion.
const (
	ReasonAmountExact        = "amount matches"
	ReasonAmountNear         = "amount nearly matches"
	ReasonAmountSimilar      = "amount similar"
	ReasonAmountLoose        = "amount partially compatible"
	ReasonDateSameDay        = "date in line with due date"
	ReasonDateNear           = "date close to due date"
	ReasonDateInRange        = "date compatible"
	ReasonDateFar            = "date far from due date"
	ReasonCBIMatch           = "CBI code matches"
	ReasonCBIMismatch        = "CBI code differs"
	ReasonCBIMissing         = "CBI code on invoice but not on movement"
	ReasonNumberInText       = "invoice number found in description/reference"
	ReasonCounterpartyInText = "counterparty compatible"
)

// CBIStatus reports how payment reference codes compared.
type CBIStatus string

const (
	CBIMatch    CBIStatus = "match"
	CBIMismatch CBIStatus = "mismatch"
	CBINone     CBIStatus = "none"
)

type candidate struct {
	score         int
	reasons       []string
	amountDiff    decimal.Decimal
	dayDifference *int
	cbiStatus     CBIStatus
}

// evaluate scores one pair. ok is false when the amounts are too far
// apart for the movement to be a candidate at all.
func evaluate(inv model.Invoice, mov model.Movement, opts Options) (c candidate, ok bool) {
	c.cbiStatus = CBINone
	c.amountDiff = inv.AmountDue.Sub(mov.Amount.Abs()).Abs()

	switch {
	case c.amountDiff.LessThanOrEqual(opts.AmountTolerance):
		c.add(scoreAmountExact, ReasonAmountExact)
	case c.amountDiff.LessThanOrEqual(amountNear):
		c.add(scoreAmountNear, ReasonAmountNear)
	case c.amountDiff.LessThanOrEqual(amountSimilar):
		c.add(scoreAmountSimilar, ReasonAmountSimilar)
	default:
		limit := decimal.Max(inv.AmountDue.Mul(loosePercent), looseFloor)
		if c.amountDiff.GreaterThan(limit) {
			return candidate{}, false
		}
		c.add(scoreAmountLoose, ReasonAmountLoose)
	}

	if days, ok := dayDifference(inv.TargetDate(), mov.BookingDate); ok {
		c.dayDifference = &days
		switch {
		case days <= 1:
			c.add(scoreDateSameDay, ReasonDateSameDay)
		case days <= 5:
			c.add(scoreDateNear, ReasonDateNear)
		case days <= opts.MaxDateDistanceDays:
			c.add(scoreDateInRange, ReasonDateInRange)
		default:
			c.add(scoreDateFar, ReasonDateFar)
		}
	}

	invCBI := textnorm.NormalizeCBI(inv.CBICausale)
	movCBI := MovementCBI(mov)
	switch {
	case invCBI != "" && movCBI != "" && invCBI == movCBI:
		c.cbiStatus = CBIMatch
		c.add(scoreCBIMatch, ReasonCBIMatch)
	case invCBI != "" && movCBI != "":
		c.cbiStatus = CBIMismatch
		c.add(scoreCBIMismatch, ReasonCBIMismatch)
	case invCBI != "":
		c.add(scoreCBIMissing, ReasonCBIMissing)
	}

	if containsInvoiceNumber(mov, inv.Number) {
		c.add(scoreNumberInText, ReasonNumberInText)
	}
	if counterpartyHint(mov, inv.CounterpartyName) {
		c.add(scoreCounterparty, ReasonCounterpartyInText)
	}

	c.score = min(max(c.score, 0), maxScore)
	return c, true
}

func (c *candidate) add(points int, reason string) {
	c.score += points
	c.reasons = append(c.reasons, reason)
}

// MovementCBI resolves the payment reference code of a movement: its
// normalized CBI field, else a labeled code in the reference, else one in
// the description.
func MovementCBI(mov model.Movement) string {
	if code := textnorm.NormalizeCBI(mov.CBICausale); code != "" {
		return code
	}
	if code := textnorm.ExtractCBI(mov.Reference); code != "" {
		return code
	}
	return textnorm.ExtractCBI(mov.Description)
}

func dayDifference(a, b time.Time) (int, bool) {
	if a.IsZero() || b.IsZero() {
		return 0, false
	}
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return int(math.Round(d.Hours() / 24)), true
}

func containsInvoiceNumber(mov model.Movement, number string) bool {
	token := textnorm.Alnum(number)
	if token == "" {
		return false
	}
	return strings.Contains(textnorm.Alnum(mov.Reference+" "+mov.Description), token)
}

func counterpartyHint(mov model.Movement, name string) bool {
	folded := textnorm.Fold(name)
	if folded == "" {
		return false
	}
	text := textnorm.Fold(mov.Counterparty + " " + mov.Description + " " + mov.Reference)
	for _, token := range strings.Split(folded, " ") {
		if utf8.RuneCountInString(token) >= minCounterpartyToken && strings.Contains(text, token) {
			return true
		}
	}
	return false
}
