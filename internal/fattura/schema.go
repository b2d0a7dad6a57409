package fattura

import "encoding/xml"

// The types below bind the subset of the FatturaPA 1.2 schema the
// extractor reads. Tags carry no namespace so both namespaced roots
// (p:FatturaElettronica) and plain ones decode.

type document struct {
	XMLName xml.Name
	Header  header `xml:"FatturaElettronicaHeader"`
	Bodies  []body `xml:"FatturaElettronicaBody"`
}

type header struct {
	Supplier *party `xml:"CedentePrestatore"`
	Customer *party `xml:"CessionarioCommittente"`
}

type party struct {
	Data partyData `xml:"DatiAnagrafici"`
}

type partyData struct {
	VAT        fiscalID `xml:"IdFiscaleIVA"`
	FiscalCode string   `xml:"CodiceFiscale"`
	Registry   registry `xml:"Anagrafica"`
}

type fiscalID struct {
	Country string `xml:"IdPaese"`
	Code    string `xml:"IdCodice"`
}

type registry struct {
	Name      string `xml:"Denominazione"`
	FirstName string `xml:"Nome"`
	LastName  string `xml:"Cognome"`
}

type body struct {
	General  generalData   `xml:"DatiGenerali"`
	Payments []paymentData `xml:"DatiPagamento"`
}

type generalData struct {
	Document documentData `xml:"DatiGeneraliDocumento"`
}

type documentData struct {
	Number  string   `xml:"Numero"`
	Date    string   `xml:"Data"`
	Total   string   `xml:"ImportoTotaleDocumento"`
	Causale []string `xml:"Causale"`
}

type paymentData struct {
	Details []paymentDetail `xml:"DettaglioPagamento"`
}

type paymentDetail struct {
	DueDate string `xml:"DataScadenzaPagamento"`
	Amount  string `xml:"ImportoPagamento"`
	Code    string `xml:"CodicePagamento"`
	Causale string `xml:"CausalePagamento"`
}
