package importer

import (
	"strings"

	"github.com/riconcilia/riconcilia/internal/model"
	"github.com/riconcilia/riconcilia/internal/textnorm"
)

// headerHints lists known header labels per canonical field, as exported by
// Italian and international home-banking portals.
var headerHints = map[model.Field][]string{
	model.FieldBookingDate:  {"data contabile", "booking date", "data operazione", "data movimento", "date"},
	model.FieldValueDate:    {"data valuta", "valuta", "value date"},
	model.FieldAmount:       {"importo", "amount", "totale", "ammontare", "valore"},
	model.FieldDebit:        {"addebito", "debit", "uscite", "dare"},
	model.FieldCredit:       {"accredito", "credit", "entrate", "avere"},
	model.FieldDescription:  {"causale", "descrizione", "descrizione operazione", "details", "description"},
	model.FieldCBICausale:   {"causale cbi", "cbi", "codice cbi", "causale abi", "causale pagamento cbi"},
	model.FieldReference:    {"riferimento", "cro", "trn", "id operazione", "transaction id", "numero documento"},
	model.FieldCounterparty: {"beneficiario", "ordinante", "controparte", "intestatario", "counterparty"},
	model.FieldBalance:      {"saldo", "balance", "saldo disponibile", "running balance"},
	model.FieldAccount:      {"iban", "conto", "account", "numero conto"},
}

// Label similarity points.
const (
	scoreExact         = 10
	scoreHeaderHasHint = 5
	scoreHintHasHeader = 2
)

// ScoreHeader rates how well header matches a list of hints. Points from
// every hint accumulate.
func ScoreHeader(header string, hints []string) int {
	h := textnorm.Label(header)
	score := 0
	for _, hint := range hints {
		n := textnorm.Label(hint)
		if h == n {
			score += scoreExact
		}
		if strings.Contains(h, n) {
			score += scoreHeaderHasHint
		}
		if strings.Contains(n, h) {
			score += scoreHintHasHeader
		}
	}
	return score
}

// InferMapping assigns each canonical field the best-scoring header not
// yet claimed by an earlier field. Fields with no positive score stay
// unmapped. The result is advisory.
func InferMapping(headers []string) model.FieldMapping {
	var mapping model.FieldMapping
	used := make(map[string]bool, len(headers))

	for _, f := range model.Fields() {
		best := ""
		bestScore := 0
		for _, h := range headers {
			if used[h] {
				continue
			}
			if score := ScoreHeader(h, headerHints[f]); score > bestScore {
				best = h
				bestScore = score
			}
		}
		if best != "" {
			mapping.Set(f, best)
			used[best] = true
		}
	}
	return mapping
}
