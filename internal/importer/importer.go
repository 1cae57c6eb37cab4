package importer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"AblClaimsRecon/internal/config"
	"AblClaimsRecon/internal/shares"
	"AblClaimsRecon/internal/store"
)

// Row is one parsed spreadsheet line, keyed by the upload template
// columns. All values arrive as display strings; coercion happens
// during the merge.
type Row struct {
	CaseNo        string
	Clients       string
	Insured       string
	CaseTitle     string
	DateOfLoss    string
	Insurers      string
	InvoiceNo     string
	InvoiceDate   string
	IssuingOffice string
	Status        string
	AmountMYR     string
	AmountUSD     string
	FxRate        string
	AmountsMYR    string
	AmountsUSD    string
}

// Report summarizes one import batch. Duplicate skips are accumulated
// here rather than treated as errors; they never block the rows that
// did merge.
type Report struct {
	BatchID           string   `json:"batch_id"`
	CasesCreated      int      `json:"cases_created"`
	InvoicesAdded     int      `json:"invoices_added"`
	DuplicateCases    []string `json:"duplicate_cases"`
	DuplicateInvoices []string `json:"duplicate_invoices"`
	Warnings          []string `json:"warnings"`
}

// MergeRows folds spreadsheet rows into the document. An existing case
// is never altered beyond receiving new invoices; a new case is built
// from the row's fields with its insurer specification run through the
// share allocator. Failures are isolated per row.
func MergeRows(doc store.Document, rows []Row) Report {
	report := Report{
		BatchID:           uuid.New().String(),
		DuplicateCases:    []string{},
		DuplicateInvoices: []string{},
		Warnings:          []string{},
	}
	dupCases := map[string]struct{}{}
	dupInvoices := map[string]struct{}{}

	for _, row := range rows {
		caseNo := strings.TrimSpace(row.CaseNo)
		if caseNo == "" {
			report.Warnings = append(report.Warnings, "row skipped: missing case number")
			continue
		}

		cse, exists := doc[caseNo]
		if exists {
			dupCases[caseNo] = struct{}{}
		} else {
			cse = &store.Case{
				Clients:    row.Clients,
				Insured:    row.Insured,
				CaseTitle:  row.CaseTitle,
				DateOfLoss: NormalizeLossDate(row.DateOfLoss),
				Insurers:   shares.ParseSpec(row.Insurers),
				Invoices:   []*store.Invoice{},
			}
			doc[caseNo] = cse
			report.CasesCreated++
		}

		if cse.Invoices == nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("fixed invalid invoices value for case %s", caseNo))
			cse.Invoices = []*store.Invoice{}
		}

		invoiceNo := strings.TrimSpace(row.InvoiceNo)
		if invoiceNo == "" {
			continue // case-only row
		}
		if cse.FindInvoice(invoiceNo) != nil {
			dupInvoices[invoiceNo] = struct{}{}
			continue
		}
		cse.Invoices = append(cse.Invoices, buildInvoice(cse, invoiceNo, row))
		report.InvoicesAdded++
	}

	report.DuplicateCases = sortedKeys(dupCases)
	report.DuplicateInvoices = sortedKeys(dupInvoices)
	return report
}

// buildInvoice coerces one row into an invoice. Allocation blobs win
// when the row carries them; otherwise the amounts are derived from the
// case's shares and the invoice totals.
func buildInvoice(cse *store.Case, invoiceNo string, row Row) *store.Invoice {
	totalMYR := FloatOrZero(row.AmountMYR)
	totalUSD := FloatOrZero(row.AmountUSD)

	status := strings.TrimSpace(row.Status)
	if status == "" {
		status = config.StatusOutstanding
	}

	amountsMYR, _ := ParseAmountsOrDefault(row.AmountsMYR)
	amountsUSD, _ := ParseAmountsOrDefault(row.AmountsUSD)
	if len(amountsMYR) == 0 {
		amountsMYR = shares.Allocate(cse.Insurers, totalMYR)
	}
	if len(amountsUSD) == 0 {
		amountsUSD = shares.Allocate(cse.Insurers, totalUSD)
	}

	return &store.Invoice{
		InvoiceNo:     invoiceNo,
		Date:          NormalizeInvoiceDate(row.InvoiceDate),
		IssuingOffice: row.IssuingOffice,
		Status:        status,
		TotalMYR:      totalMYR,
		TotalUSD:      totalUSD,
		ExchangeRate:  FloatOrZero(row.FxRate),
		AmountsMYR:    amountsMYR,
		AmountsUSD:    amountsUSD,
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
