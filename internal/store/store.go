package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// Verification records that one insurer's allocation on an invoice has
// been confirmed paid.
type Verification struct {
	ReceivedAmount float64 `json:"Received Amount"`
	PaymentTo      string  `json:"Payment to"`
	Currency       string  `json:"currency"`
	Verified       bool    `json:"verified"`
}

// Invoice is a billing record under a case. Field names follow the
// persisted document format and must not change.
type Invoice struct {
	InvoiceNo     string                  `json:"invoice_no"`
	Date          string                  `json:"Date of invoice"`
	IssuingOffice string                  `json:"issuing office"`
	Status        string                  `json:"Status"`
	TotalMYR      float64                 `json:"Total amount(MYR)"`
	TotalUSD      float64                 `json:"Total amount(USD)"`
	ExchangeRate  float64                 `json:"exchange rate"`
	AmountsMYR    map[string]float64      `json:"insurer amounts(MYR)"`
	AmountsUSD    map[string]float64      `json:"insurer amounts(USD)"`
	Verified      map[string]Verification `json:"verified_insurers,omitempty"`
}

// Case is one claim file, split across insurers by percentage share.
type Case struct {
	Clients    string             `json:"clients"`
	Insured    string             `json:"insured"`
	CaseTitle  string             `json:"case_title"`
	DateOfLoss string             `json:"date_of_loss"`
	Insurers   map[string]float64 `json:"insurers"`
	Invoices   []*Invoice         `json:"invoices"`
}

// Document is the whole persisted collection, keyed by case number.
type Document map[string]*Case

// CaseStore owns the document and its load-mutate-save cycle. Every
// mutation runs inside one critical section and ends with an atomic
// whole-file overwrite.
type CaseStore struct {
	mu   sync.Mutex
	path string
	doc  Document
}

// NormalizeCaseNo trims a user-entered case number and replaces spaces
// with underscores.
func NormalizeCaseNo(caseNo string) string {
	return strings.ReplaceAll(strings.TrimSpace(caseNo), " ", "_")
}

// Open loads the document at path. Load fails soft: a missing file or
// malformed content yields an empty document, and corrupt case or
// invoice values are coerced to defaults. Repairs are reported as
// warnings, not errors.
func Open(path string) (*CaseStore, []string) {
	doc, warnings := load(path)
	return &CaseStore{path: path, doc: doc}, warnings
}

func load(path string) (Document, []string) {
	var warnings []string
	raw, err := os.ReadFile(path)
	if err != nil {
		return Document{}, nil
	}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		warnings = append(warnings, fmt.Sprintf("store file %s is not a keyed document, starting empty: %v", path, err))
		return Document{}, warnings
	}
	doc := make(Document, len(entries))
	for caseNo, rawCase := range entries {
		cse, warn := decodeCase(caseNo, rawCase)
		if warn != "" {
			warnings = append(warnings, warn)
		}
		doc[caseNo] = cse
	}
	return doc, warnings
}

// decodeCase unmarshals one stored case, coercing corrupt shapes to
// defaults instead of failing the whole load.
func decodeCase(caseNo string, raw json.RawMessage) (*Case, string) {
	var cse Case
	if err := json.Unmarshal(raw, &cse); err == nil {
		healCase(&cse)
		return &cse, ""
	}
	// The invoices field may hold a non-list value. Retry with the
	// field detached, then reset it.
	var partial struct {
		Clients    string             `json:"clients"`
		Insured    string             `json:"insured"`
		CaseTitle  string             `json:"case_title"`
		DateOfLoss string             `json:"date_of_loss"`
		Insurers   map[string]float64 `json:"insurers"`
	}
	if err := json.Unmarshal(raw, &partial); err != nil {
		return &Case{Insurers: map[string]float64{}, Invoices: []*Invoice{}},
			fmt.Sprintf("case %s is not an object, coerced to empty case", caseNo)
	}
	cse = Case{
		Clients:    partial.Clients,
		Insured:    partial.Insured,
		CaseTitle:  partial.CaseTitle,
		DateOfLoss: partial.DateOfLoss,
		Insurers:   partial.Insurers,
	}
	healCase(&cse)
	return &cse, fmt.Sprintf("case %s had an invalid invoices value, reset to empty list", caseNo)
}

func healCase(cse *Case) {
	if cse.Insurers == nil {
		cse.Insurers = map[string]float64{}
	}
	if cse.Invoices == nil {
		cse.Invoices = []*Invoice{}
	}
	for _, inv := range cse.Invoices {
		if inv.AmountsMYR == nil {
			inv.AmountsMYR = map[string]float64{}
		}
		if inv.AmountsUSD == nil {
			inv.AmountsUSD = map[string]float64{}
		}
	}
}

// View runs fn against the document under the store lock. fn must not
// retain references past its return.
func (s *CaseStore) View(fn func(Document)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.doc)
}

// Mutate runs fn against the document under the store lock and, when fn
// succeeds, persists the whole document atomically. A failed fn leaves
// nothing written.
func (s *CaseStore) Mutate(fn func(Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(s.doc); err != nil {
		return err
	}
	return s.save()
}

// save writes the document to a sibling temp file and renames it over
// the target, so readers never observe a partial write.
func (s *CaseStore) save() error {
	data, err := json.MarshalIndent(s.doc, "", "    ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace store: %w", err)
	}
	return nil
}

// DeleteCase removes a case and, with it, every invoice it holds.
func (s *CaseStore) DeleteCase(caseNo string) error {
	return s.Mutate(func(doc Document) error {
		if _, ok := doc[caseNo]; !ok {
			return fmt.Errorf("case %s not found", caseNo)
		}
		delete(doc, caseNo)
		return nil
	})
}

// DeleteInvoice removes one invoice from a case. A missing invoice
// number is reported as an error and the invoice list is untouched.
func (s *CaseStore) DeleteInvoice(caseNo, invoiceNo string) error {
	return s.Mutate(func(doc Document) error {
		cse, ok := doc[caseNo]
		if !ok {
			return fmt.Errorf("case %s not found", caseNo)
		}
		kept := cse.Invoices[:0]
		for _, inv := range cse.Invoices {
			if inv.InvoiceNo != invoiceNo {
				kept = append(kept, inv)
			}
		}
		if len(kept) == len(cse.Invoices) {
			return fmt.Errorf("invoice %s not found in case %s", invoiceNo, caseNo)
		}
		cse.Invoices = kept
		return nil
	})
}

// CaseNos returns the case numbers in sorted order.
func (d Document) CaseNos() []string {
	nos := make([]string, 0, len(d))
	for caseNo := range d {
		nos = append(nos, caseNo)
	}
	sort.Strings(nos)
	return nos
}

// FindInvoice locates an invoice by number within a case.
func (c *Case) FindInvoice(invoiceNo string) *Invoice {
	for _, inv := range c.Invoices {
		if inv.InvoiceNo == invoiceNo {
			return inv
		}
	}
	return nil
}
