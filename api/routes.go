package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"AblClaimsRecon/api/cases"
	"AblClaimsRecon/api/importer"
	"AblClaimsRecon/api/payments"
	"AblClaimsRecon/api/respond"
	"AblClaimsRecon/internal/store"
)

func NewRouter(st *store.CaseStore) *mux.Router {
	router := mux.NewRouter()
	router.Use(RequestLogger)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]interface{}{"success": true, "status": "ok"})
	}).Methods("GET")

	router.HandleFunc("/cases", cases.ListCases(st)).Methods("GET")
	router.HandleFunc("/cases", cases.CreateCase(st)).Methods("POST")
	router.HandleFunc("/cases/{caseNo}", cases.GetCase(st)).Methods("GET")
	router.HandleFunc("/cases/{caseNo}", cases.UpdateCase(st)).Methods("PUT")
	router.HandleFunc("/cases/{caseNo}", cases.DeleteCase(st)).Methods("DELETE")
	router.HandleFunc("/cases/{caseNo}/invoices", cases.UpsertInvoice(st)).Methods("POST")
	router.HandleFunc("/cases/{caseNo}/invoices/{invoiceNo}", cases.DeleteInvoice(st)).Methods("DELETE")

	router.HandleFunc("/invoices", cases.ListInvoices(st)).Methods("GET")
	router.HandleFunc("/invoices/aging", cases.AgingReport(st)).Methods("GET")

	router.HandleFunc("/import", importer.UploadWorkbook(st)).Methods("POST")

	router.HandleFunc("/payments/match", payments.MatchPayments(st)).Methods("POST")
	router.HandleFunc("/payments/verify", payments.VerifyPayment(st)).Methods("POST")

	return router
}
