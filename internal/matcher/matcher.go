package matcher

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"AblClaimsRecon/internal/config"
	"AblClaimsRecon/internal/store"
)

// Match is one payment-matching candidate: an insurer's allocation on
// an outstanding invoice.
type Match struct {
	CaseNo    string  `json:"case_no"`
	InvoiceNo string  `json:"invoice_no"`
	Insurer   string  `json:"insurer"`
	Amount    float64 `json:"amount"`
}

// ScanResult splits candidates into exact matches and close matches
// needing review.
type ScanResult struct {
	Exact []Match `json:"exact_matches"`
	Close []Match `json:"close_matches"`
}

// Empty reports whether the scan produced no candidates of either kind.
func (r ScanResult) Empty() bool {
	return len(r.Exact) == 0 && len(r.Close) == 0
}

var ErrEmptyKeyword = errors.New("nothing to search: insurer keyword is empty")

// Scan walks every outstanding invoice's allocation map for the chosen
// currency, matching insurers whose name contains the keyword
// (case-insensitive). Already-verified insurers are skipped. An exact
// match ends the scan of that invoice; close matches (allocation above
// the received amount by at most the band) exist for USD only.
func Scan(doc store.Document, currency, keyword string, received float64) (ScanResult, error) {
	result := ScanResult{Exact: []Match{}, Close: []Match{}}
	kw := strings.ToLower(strings.TrimSpace(keyword))
	if kw == "" {
		return result, ErrEmptyKeyword
	}

	for _, caseNo := range doc.CaseNos() {
		for _, inv := range doc[caseNo].Invoices {
			if inv.Status != config.StatusOutstanding {
				continue
			}
			amounts := inv.AmountsMYR
			if currency == config.CurrencyUSD {
				amounts = inv.AmountsUSD
			}
			for _, insurer := range sortedNames(amounts) {
				if !strings.Contains(strings.ToLower(insurer), kw) {
					continue
				}
				if _, done := inv.Verified[insurer]; done {
					continue
				}
				amount := amounts[insurer]
				if math.Abs(amount-received) < config.ExactMatchTolerance {
					result.Exact = append(result.Exact, Match{caseNo, inv.InvoiceNo, insurer, amount})
					break // first exact match wins for this invoice
				}
				if currency == config.CurrencyUSD && amount > received && amount-received <= config.CloseMatchBandUSD {
					result.Close = append(result.Close, Match{caseNo, inv.InvoiceNo, insurer, amount})
				}
			}
		}
	}
	return result, nil
}

// Verify records a payment against one insurer's allocation, then
// re-runs the Paid promotion over the whole document. It returns how
// many invoices were promoted by this write.
func Verify(doc store.Document, caseNo, invoiceNo, insurer string, received float64, paymentTo, currency string) (int, error) {
	cse, ok := doc[caseNo]
	if !ok {
		return 0, fmt.Errorf("case %s not found", caseNo)
	}
	inv := cse.FindInvoice(invoiceNo)
	if inv == nil {
		return 0, fmt.Errorf("invoice %s not found in case %s", invoiceNo, caseNo)
	}
	_, inMYR := inv.AmountsMYR[insurer]
	_, inUSD := inv.AmountsUSD[insurer]
	if !inMYR && !inUSD {
		// A stray verification would block promotion for good: the
		// verified set could never equal the allocated set again.
		return 0, fmt.Errorf("insurer %s holds no allocation on invoice %s", insurer, invoiceNo)
	}
	if inv.Verified == nil {
		inv.Verified = map[string]store.Verification{}
	}
	inv.Verified[insurer] = store.Verification{
		ReceivedAmount: received,
		PaymentTo:      paymentTo,
		Currency:       currency,
		Verified:       true,
	}
	return PromotePaid(doc), nil
}

// PromotePaid flips an outstanding invoice to Paid once the set of
// verified insurer names equals the union of its MYR and USD allocation
// names. The pass is global and idempotent: re-running it with nothing
// new verified changes nothing.
func PromotePaid(doc store.Document) int {
	promoted := 0
	for _, cse := range doc {
		for _, inv := range cse.Invoices {
			if inv.Status != config.StatusOutstanding {
				continue
			}
			allocated := map[string]struct{}{}
			for name := range inv.AmountsMYR {
				allocated[name] = struct{}{}
			}
			for name := range inv.AmountsUSD {
				allocated[name] = struct{}{}
			}
			if len(allocated) == 0 || len(inv.Verified) != len(allocated) {
				continue
			}
			covered := true
			for name := range allocated {
				if _, ok := inv.Verified[name]; !ok {
					covered = false
					break
				}
			}
			if covered {
				inv.Status = config.StatusPaid
				promoted++
			}
		}
	}
	return promoted
}

func sortedNames(amounts map[string]float64) []string {
	names := make([]string, 0, len(amounts))
	for name := range amounts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
