package cases

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"AblClaimsRecon/api/respond"
	"AblClaimsRecon/internal/config"
	"AblClaimsRecon/internal/exchange"
	"AblClaimsRecon/internal/logger"
	"AblClaimsRecon/internal/shares"
	"AblClaimsRecon/internal/store"
)

type caseRequest struct {
	CaseNo      string             `json:"case_no"`
	NewCaseNo   string             `json:"new_case_no"`
	Clients     string             `json:"clients"`
	Insured     string             `json:"insured"`
	CaseTitle   string             `json:"case_title"`
	DateOfLoss  string             `json:"date_of_loss"`
	Insurers    map[string]float64 `json:"insurers"`
	InsurerSpec string             `json:"insurer_spec"`
}

type invoiceRequest struct {
	InvoiceNo     string  `json:"invoice_no"`
	Date          string  `json:"date"`
	Status        string  `json:"status"`
	IssuingOffice string  `json:"issuing_office"`
	AmountMYR     float64 `json:"amount_myr"`
	AmountUSD     float64 `json:"amount_usd"`
	ExchangeRate  float64 `json:"exchange_rate"`
}

// resolveShares takes the explicit share map when given, else runs the
// spec string through the allocator.
func resolveShares(req caseRequest) map[string]float64 {
	if len(req.Insurers) > 0 {
		return req.Insurers
	}
	return shares.ParseSpec(req.InsurerSpec)
}

// Handler: CreateCase registers a new case after enforcing the share
// sum invariant. Nothing is written when validation fails.
func CreateCase(st *store.CaseStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req caseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		caseNo := store.NormalizeCaseNo(req.CaseNo)
		if caseNo == "" {
			respond.Error(w, http.StatusBadRequest, "case_no is required")
			return
		}
		insurers := resolveShares(req)
		if err := shares.Validate(insurers); err != nil {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		err := st.Mutate(func(doc store.Document) error {
			if _, exists := doc[caseNo]; exists {
				return errCaseExists
			}
			doc[caseNo] = &store.Case{
				Clients:    req.Clients,
				Insured:    req.Insured,
				CaseTitle:  req.CaseTitle,
				DateOfLoss: strings.TrimSpace(req.DateOfLoss),
				Insurers:   insurers,
				Invoices:   []*store.Invoice{},
			}
			return nil
		})
		if err != nil {
			status := http.StatusInternalServerError
			if err == errCaseExists {
				status = http.StatusConflict
			}
			respond.Error(w, status, err.Error())
			return
		}
		logger.Audit("case %s registered", caseNo)
		respond.JSON(w, http.StatusCreated, map[string]interface{}{
			"success": true,
			"case_no": caseNo,
		})
	}
}

// Handler: UpdateCase edits contact fields and shares, and supports
// renaming the case. Existing invoices are carried over; their
// allocation maps keep the insurer names they were created with.
func UpdateCase(st *store.CaseStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caseNo := mux.Vars(r)["caseNo"]
		var req caseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		insurers := resolveShares(req)
		if err := shares.Validate(insurers); err != nil {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		newCaseNo := caseNo
		if strings.TrimSpace(req.NewCaseNo) != "" {
			newCaseNo = store.NormalizeCaseNo(req.NewCaseNo)
		}
		err := st.Mutate(func(doc store.Document) error {
			cse, ok := doc[caseNo]
			if !ok {
				return errCaseNotFound
			}
			if newCaseNo != caseNo {
				if _, taken := doc[newCaseNo]; taken {
					return errCaseExists
				}
				delete(doc, caseNo)
			}
			doc[newCaseNo] = &store.Case{
				Clients:    req.Clients,
				Insured:    req.Insured,
				CaseTitle:  req.CaseTitle,
				DateOfLoss: strings.TrimSpace(req.DateOfLoss),
				Insurers:   insurers,
				Invoices:   cse.Invoices,
			}
			return nil
		})
		if err != nil {
			status := http.StatusInternalServerError
			switch err {
			case errCaseNotFound:
				status = http.StatusNotFound
			case errCaseExists:
				status = http.StatusConflict
			}
			respond.Error(w, status, err.Error())
			return
		}
		logger.Audit("case %s updated", newCaseNo)
		respond.JSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"case_no": newCaseNo,
		})
	}
}

// Handler: ListCases returns a summary row per case, optionally
// filtered by a case-number substring.
func ListCases(st *store.CaseStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
		rows := make([]map[string]interface{}, 0)
		st.View(func(doc store.Document) {
			for _, caseNo := range doc.CaseNos() {
				if query != "" && !strings.Contains(strings.ToLower(caseNo), query) {
					continue
				}
				cse := doc[caseNo]
				rows = append(rows, map[string]interface{}{
					"case_no":      caseNo,
					"clients":      cse.Clients,
					"insured":      cse.Insured,
					"case_title":   cse.CaseTitle,
					"date_of_loss": cse.DateOfLoss,
					"invoices":     len(cse.Invoices),
				})
			}
		})
		respond.JSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    rows,
		})
	}
}

// Handler: GetCase returns the full case record.
func GetCase(st *store.CaseStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caseNo := mux.Vars(r)["caseNo"]
		st.View(func(doc store.Document) {
			found, ok := doc[caseNo]
			if !ok {
				respond.Error(w, http.StatusNotFound, "case "+caseNo+" not found")
				return
			}
			respond.JSON(w, http.StatusOK, map[string]interface{}{
				"success": true,
				"case_no": caseNo,
				"data":    found,
			})
		})
	}
}

// Handler: DeleteCase removes the case and cascades its invoices away.
func DeleteCase(st *store.CaseStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caseNo := mux.Vars(r)["caseNo"]
		if err := st.DeleteCase(caseNo); err != nil {
			respond.Error(w, http.StatusNotFound, err.Error())
			return
		}
		logger.Audit("case %s deleted", caseNo)
		respond.JSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"deleted": caseNo,
		})
	}
}

// Handler: UpsertInvoice creates or replaces an invoice under a case.
// The currency pair is reconciled against the rate, and per-insurer
// allocations are recomputed from the case's current shares.
func UpsertInvoice(st *store.CaseStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caseNo := mux.Vars(r)["caseNo"]
		var req invoiceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		invoiceNo := strings.TrimSpace(req.InvoiceNo)
		if invoiceNo == "" {
			respond.Error(w, http.StatusBadRequest, "invoice_no is required")
			return
		}
		date, ok := parseInvoiceDate(req.Date)
		if !ok {
			respond.Error(w, http.StatusBadRequest, "invalid date: use DD-Mon-YYYY or YYYY-MM-DD")
			return
		}
		status := req.Status
		if status == "" {
			status = config.StatusOutstanding
		}
		if status != config.StatusOutstanding && status != config.StatusPaid {
			respond.Error(w, http.StatusBadRequest, "invalid status")
			return
		}
		office := req.IssuingOffice
		if office == "" {
			office = config.IssuingOffices[0]
		}
		if !contains(config.IssuingOffices, office) {
			respond.Error(w, http.StatusBadRequest, "invalid issuing office")
			return
		}

		myr, usd, warning := exchange.Calculate(req.AmountMYR, req.AmountUSD, req.ExchangeRate)

		var saved *store.Invoice
		err := st.Mutate(func(doc store.Document) error {
			cse, ok := doc[caseNo]
			if !ok {
				return errCaseNotFound
			}
			inv := &store.Invoice{
				InvoiceNo:     invoiceNo,
				Date:          date,
				IssuingOffice: office,
				Status:        status,
				TotalMYR:      myr,
				TotalUSD:      usd,
				ExchangeRate:  req.ExchangeRate,
				AmountsMYR:    shares.Allocate(cse.Insurers, myr),
				AmountsUSD:    shares.Allocate(cse.Insurers, usd),
			}
			replaced := false
			for i, existing := range cse.Invoices {
				if existing.InvoiceNo == invoiceNo {
					cse.Invoices[i] = inv
					replaced = true
					break
				}
			}
			if !replaced {
				cse.Invoices = append(cse.Invoices, inv)
			}
			saved = inv
			return nil
		})
		if err != nil {
			status := http.StatusInternalServerError
			if err == errCaseNotFound {
				status = http.StatusNotFound
			}
			respond.Error(w, status, err.Error())
			return
		}
		logger.Audit("invoice %s saved under case %s", invoiceNo, caseNo)
		resp := map[string]interface{}{
			"success": true,
			"case_no": caseNo,
			"invoice": saved,
		}
		if warning != "" {
			resp["warning"] = warning
		}
		respond.JSON(w, http.StatusOK, resp)
	}
}

// Handler: DeleteInvoice removes one invoice; a missing number is a
// reported failure and leaves the list unchanged.
func DeleteInvoice(st *store.CaseStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		caseNo, invoiceNo := vars["caseNo"], vars["invoiceNo"]
		if err := st.DeleteInvoice(caseNo, invoiceNo); err != nil {
			respond.Error(w, http.StatusNotFound, err.Error())
			return
		}
		logger.Audit("invoice %s deleted from case %s", invoiceNo, caseNo)
		respond.JSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"deleted": invoiceNo,
		})
	}
}

// Handler: ListInvoices flattens every case's invoices, optionally
// filtered by status or by an insurer holding a share of the case.
func ListInvoices(st *store.CaseStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		statusFilter := strings.TrimSpace(r.URL.Query().Get("status"))
		insurerFilter := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("insurer")))
		st.View(func(doc store.Document) {
			rows := make([]map[string]interface{}, 0)
			for _, caseNo := range doc.CaseNos() {
				cse := doc[caseNo]
				if insurerFilter != "" && !holdsShare(cse, insurerFilter) {
					continue
				}
				for _, inv := range cse.Invoices {
					if statusFilter != "" && inv.Status != statusFilter {
						continue
					}
					rows = append(rows, map[string]interface{}{
						"case_no": caseNo,
						"invoice": inv,
					})
				}
			}
			respond.JSON(w, http.StatusOK, map[string]interface{}{
				"success": true,
				"data":    rows,
			})
		})
	}
}

// Handler: AgingReport buckets outstanding invoices by days overdue.
func AgingReport(st *store.CaseStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		type agingRow struct {
			CaseNo      string  `json:"case_no"`
			InvoiceNo   string  `json:"invoice_no"`
			Date        string  `json:"date"`
			DaysOverdue int     `json:"days_overdue"`
			TotalMYR    float64 `json:"total_myr"`
			TotalUSD    float64 `json:"total_usd"`
		}
		buckets := map[string][]agingRow{
			"<=6 months":   {},
			"6-12 months":  {},
			"12-18 months": {},
			">18 months":   {},
		}
		undated := 0
		now := time.Now()
		st.View(func(doc store.Document) {
			for _, caseNo := range doc.CaseNos() {
				for _, inv := range doc[caseNo].Invoices {
					if inv.Status != config.StatusOutstanding {
						continue
					}
					t, err := time.Parse(config.DateLayoutISO, inv.Date)
					if err != nil {
						undated++
						continue
					}
					days := int(now.Sub(t).Hours() / 24)
					row := agingRow{caseNo, inv.InvoiceNo, inv.Date, days, inv.TotalMYR, inv.TotalUSD}
					switch {
					case days <= 180:
						buckets["<=6 months"] = append(buckets["<=6 months"], row)
					case days <= 365:
						buckets["6-12 months"] = append(buckets["6-12 months"], row)
					case days <= 540:
						buckets["12-18 months"] = append(buckets["12-18 months"], row)
					default:
						buckets[">18 months"] = append(buckets[">18 months"], row)
					}
				}
			}
		})
		respond.JSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"buckets": buckets,
			"undated": undated,
		})
	}
}

func parseInvoiceDate(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	for _, layout := range []string{config.DateLayoutLong, config.DateLayoutISO} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(config.DateLayoutISO), true
		}
	}
	return "", false
}

func holdsShare(cse *store.Case, insurerUpper string) bool {
	for name := range cse.Insurers {
		if strings.ToUpper(name) == insurerUpper {
			return true
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
