package api

import (
	"fmt"
	"log"
	"net/http"

	"AblClaimsRecon/internal/serviceiface"
	"AblClaimsRecon/internal/store"
)

// ReconService hosts the HTTP surface of the reconciliation engine.
type ReconService struct {
	config map[string]interface{}
	store  *store.CaseStore
}

func NewReconService(cfg map[string]interface{}, st *store.CaseStore) serviceiface.Service {
	return &ReconService{config: cfg, store: st}
}

func (s *ReconService) Name() string {
	return "recon"
}

func (s *ReconService) Start() error {
	go StartReconServer(s.config, s.store)
	return nil
}

func (s *ReconService) Stop() error {
	return nil
}

// StartReconServer builds the router and serves on the configured port.
func StartReconServer(cfg map[string]interface{}, st *store.CaseStore) {
	port := 8143
	switch v := cfg["port"].(type) {
	case int:
		port = v
	case int64:
		port = int(v)
	case float64:
		port = int(v)
	}
	log.Printf("Recon Service started on :%d", port)
	if err := http.ListenAndServe(fmt.Sprintf(":%d", port), NewRouter(st)); err != nil {
		log.Fatalf("Recon Service failed: %v", err)
	}
}
