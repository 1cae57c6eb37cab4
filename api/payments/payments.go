package payments

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"AblClaimsRecon/api/respond"
	"AblClaimsRecon/internal/config"
	"AblClaimsRecon/internal/logger"
	"AblClaimsRecon/internal/matcher"
	"AblClaimsRecon/internal/store"
)

type matchRequest struct {
	Currency string  `json:"currency"`
	Keyword  string  `json:"keyword"`
	Amount   float64 `json:"amount"`
}

type verifyRequest struct {
	CaseNo         string  `json:"case_no"`
	InvoiceNo      string  `json:"invoice_no"`
	Insurer        string  `json:"insurer"`
	ReceivedAmount float64 `json:"received_amount"`
	PaymentTo      string  `json:"payment_to"`
	Currency       string  `json:"currency"`
}

func validCurrency(currency string) bool {
	return currency == config.CurrencyMYR || currency == config.CurrencyUSD
}

// Handler: MatchPayments scans outstanding invoices for allocations
// matching a received amount. "Nothing to search" (empty keyword) and
// "no matches" are reported distinctly.
func MatchPayments(st *store.CaseStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req matchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if !validCurrency(req.Currency) {
			respond.Error(w, http.StatusBadRequest, "currency must be MYR or USD")
			return
		}
		if req.Amount < 0 {
			respond.Error(w, http.StatusBadRequest, "amount must not be negative")
			return
		}

		var result matcher.ScanResult
		var scanErr error
		st.View(func(doc store.Document) {
			result, scanErr = matcher.Scan(doc, req.Currency, req.Keyword, req.Amount)
		})
		if errors.Is(scanErr, matcher.ErrEmptyKeyword) {
			respond.Error(w, http.StatusBadRequest, scanErr.Error())
			return
		}

		resp := map[string]interface{}{
			"success":       true,
			"exact_matches": result.Exact,
			"close_matches": result.Close,
		}
		if result.Empty() {
			resp["message"] = "no matching invoices found for the given insurer keyword and payment amount"
		}
		respond.JSON(w, http.StatusOK, resp)
	}
}

// Handler: VerifyPayment records a verification for one insurer's
// allocation, then promotes any invoice whose insurers are all
// verified.
func VerifyPayment(st *store.CaseStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req verifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(req.CaseNo) == "" || strings.TrimSpace(req.InvoiceNo) == "" || strings.TrimSpace(req.Insurer) == "" {
			respond.Error(w, http.StatusBadRequest, "case_no, invoice_no and insurer are required")
			return
		}
		if !validCurrency(req.Currency) {
			respond.Error(w, http.StatusBadRequest, "currency must be MYR or USD")
			return
		}
		valid := false
		for _, account := range config.PaymentAccounts {
			if account == req.PaymentTo {
				valid = true
				break
			}
		}
		if !valid {
			respond.Error(w, http.StatusBadRequest, "invalid payment_to account")
			return
		}

		promoted := 0
		err := st.Mutate(func(doc store.Document) error {
			var verifyErr error
			promoted, verifyErr = matcher.Verify(doc, req.CaseNo, req.InvoiceNo, req.Insurer,
				req.ReceivedAmount, req.PaymentTo, req.Currency)
			return verifyErr
		})
		if err != nil {
			respond.Error(w, http.StatusNotFound, err.Error())
			return
		}
		logger.Audit("insurer %s verified on invoice %s (case %s), %d invoice(s) promoted to Paid",
			req.Insurer, req.InvoiceNo, req.CaseNo, promoted)
		respond.JSON(w, http.StatusOK, map[string]interface{}{
			"success":          true,
			"verified_insurer": req.Insurer,
			"promoted_to_paid": promoted,
		})
	}
}
