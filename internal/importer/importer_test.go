package importer

import (
	"testing"

	"AblClaimsRecon/internal/store"
)

func newRow(caseNo, invoiceNo string) Row {
	return Row{
		CaseNo:      caseNo,
		Clients:     "Broker Ltd",
		Insured:     "Insured Co",
		CaseTitle:   "Warehouse fire",
		DateOfLoss:  "2024-01-15",
		Insurers:    "A,B,C",
		InvoiceNo:   invoiceNo,
		InvoiceDate: "15-Feb-2024",
		Status:      "Outstanding",
		AmountMYR:   "300",
		AmountUSD:   "0",
		FxRate:      "4.5",
	}
}

func TestMergeCreatesCaseAndInvoice(t *testing.T) {
	doc := store.Document{}
	report := MergeRows(doc, []Row{newRow("C1", "INV1")})

	if report.CasesCreated != 1 || report.InvoicesAdded != 1 {
		t.Fatalf("want 1 case and 1 invoice, got %+v", report)
	}
	if report.BatchID == "" {
		t.Fatalf("want a batch id")
	}
	cse, ok := doc["C1"]
	if !ok {
		t.Fatalf("case C1 not created")
	}
	if cse.Insurers["A"] != 33.33 || cse.Insurers["B"] != 33.33 || cse.Insurers["C"] != 33.34 {
		t.Fatalf("want shares from allocator, got %v", cse.Insurers)
	}
	if cse.DateOfLoss != "15-Jan-2024" {
		t.Fatalf("want canonical loss date, got %q", cse.DateOfLoss)
	}
	if len(cse.Invoices) != 1 {
		t.Fatalf("want 1 invoice, got %d", len(cse.Invoices))
	}
	inv := cse.Invoices[0]
	if inv.Date != "2024-02-15" {
		t.Fatalf("want ISO invoice date, got %q", inv.Date)
	}
	if inv.TotalMYR != 300 || inv.ExchangeRate != 4.5 {
		t.Fatalf("bad amount coercion: %+v", inv)
	}
	want := map[string]float64{"A": 99.99, "B": 99.99, "C": 100.02}
	for name, amount := range want {
		if inv.AmountsMYR[name] != amount {
			t.Fatalf("want MYR allocation %v, got %v", want, inv.AmountsMYR)
		}
	}
}

func TestMergeNeverAltersExistingCase(t *testing.T) {
	doc := store.Document{
		"C1": {
			Clients:    "Original Broker",
			Insured:    "Original Insured",
			CaseTitle:  "Original Title",
			DateOfLoss: "01-Jan-2020",
			Insurers:   map[string]float64{"Z": 100},
			Invoices:   []*store.Invoice{},
		},
	}
	row := newRow("C1", "INV9")
	report := MergeRows(doc, []Row{row})

	cse := doc["C1"]
	if cse.Clients != "Original Broker" || cse.Insured != "Original Insured" ||
		cse.CaseTitle != "Original Title" || cse.Insurers["Z"] != 100 {
		t.Fatalf("existing case fields were altered: %+v", cse)
	}
	if len(report.DuplicateCases) != 1 || report.DuplicateCases[0] != "C1" {
		t.Fatalf("want C1 in duplicate cases, got %v", report.DuplicateCases)
	}
	if len(cse.Invoices) != 1 {
		t.Fatalf("new invoice must still be appended, got %d", len(cse.Invoices))
	}
	// The invoice allocates from the stored shares, not the row's spec.
	if cse.Invoices[0].AmountsMYR["Z"] != 300 {
		t.Fatalf("want allocation from stored shares, got %v", cse.Invoices[0].AmountsMYR)
	}
}

func TestMergeSkipsDuplicateInvoice(t *testing.T) {
	existing := &store.Invoice{InvoiceNo: "INV1", TotalMYR: 1, AmountsMYR: map[string]float64{}, AmountsUSD: map[string]float64{}}
	doc := store.Document{
		"C1": {
			Insurers: map[string]float64{"A": 100},
			Invoices: []*store.Invoice{existing},
		},
	}
	report := MergeRows(doc, []Row{newRow("C1", "INV1")})

	if len(report.DuplicateInvoices) != 1 || report.DuplicateInvoices[0] != "INV1" {
		t.Fatalf("want INV1 reported duplicate, got %v", report.DuplicateInvoices)
	}
	if len(doc["C1"].Invoices) != 1 || doc["C1"].Invoices[0] != existing {
		t.Fatalf("existing invoice must be untouched")
	}
	if doc["C1"].Invoices[0].TotalMYR != 1 {
		t.Fatalf("existing invoice was overwritten: %+v", doc["C1"].Invoices[0])
	}
	if report.InvoicesAdded != 0 {
		t.Fatalf("want 0 invoices added, got %d", report.InvoicesAdded)
	}
}

func TestMergeCaseOnlyRow(t *testing.T) {
	doc := store.Document{}
	report := MergeRows(doc, []Row{newRow("C2", "")})
	if report.CasesCreated != 1 || report.InvoicesAdded != 0 {
		t.Fatalf("want case-only merge, got %+v", report)
	}
	if len(doc["C2"].Invoices) != 0 {
		t.Fatalf("want no invoices, got %d", len(doc["C2"].Invoices))
	}
}

func TestMergeSkipsMissingCaseNo(t *testing.T) {
	doc := store.Document{}
	report := MergeRows(doc, []Row{newRow("   ", "INV1")})
	if len(doc) != 0 {
		t.Fatalf("want nothing merged, got %v", doc)
	}
	if len(report.Warnings) != 1 {
		t.Fatalf("want a warning for the skipped row, got %v", report.Warnings)
	}
}

func TestMergeExplicitAmountBlobsWin(t *testing.T) {
	doc := store.Document{}
	row := newRow("C1", "INV1")
	row.AmountsMYR = `{"A": 150, "B": 150}`
	MergeRows(doc, []Row{row})

	inv := doc["C1"].Invoices[0]
	if inv.AmountsMYR["A"] != 150 || inv.AmountsMYR["B"] != 150 || len(inv.AmountsMYR) != 2 {
		t.Fatalf("want blob amounts as given, got %v", inv.AmountsMYR)
	}
}

func TestMergeHealsNilInvoiceList(t *testing.T) {
	doc := store.Document{
		"C1": {Insurers: map[string]float64{"A": 100}, Invoices: nil},
	}
	report := MergeRows(doc, []Row{newRow("C1", "INV1")})
	if len(report.Warnings) != 1 {
		t.Fatalf("want self-heal warning, got %v", report.Warnings)
	}
	if len(doc["C1"].Invoices) != 1 {
		t.Fatalf("want invoice appended after heal, got %d", len(doc["C1"].Invoices))
	}
}

func TestParseAmountsOrDefault(t *testing.T) {
	amounts, defaulted := ParseAmountsOrDefault(`{"A": 10.5}`)
	if defaulted || amounts["A"] != 10.5 {
		t.Fatalf("want clean parse, got %v defaulted=%v", amounts, defaulted)
	}

	amounts, defaulted = ParseAmountsOrDefault("{}")
	if defaulted || len(amounts) != 0 {
		t.Fatalf("empty object is genuinely empty, not defaulted: %v %v", amounts, defaulted)
	}

	amounts, defaulted = ParseAmountsOrDefault(`{"A": broken`)
	if !defaulted || len(amounts) != 0 {
		t.Fatalf("malformed blob must default: %v %v", amounts, defaulted)
	}

	amounts, defaulted = ParseAmountsOrDefault("")
	if !defaulted || len(amounts) != 0 {
		t.Fatalf("absent blob must default: %v %v", amounts, defaulted)
	}
}

func TestNormalizeInvoiceDate(t *testing.T) {
	cases := map[string]string{
		"15-Jan-2024": "2024-01-15",
		"2024-01-15":  "2024-01-15",
		"not a date":  "not a date",
		"":            "",
	}
	for in, want := range cases {
		if got := NormalizeInvoiceDate(in); got != want {
			t.Errorf("NormalizeInvoiceDate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeLossDate(t *testing.T) {
	cases := map[string]string{
		"2024-01-15":  "15-Jan-2024",
		"15-Jan-2024": "15-Jan-2024",
		"whenever":    "whenever",
	}
	for in, want := range cases {
		if got := NormalizeLossDate(in); got != want {
			t.Errorf("NormalizeLossDate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFloatOrZero(t *testing.T) {
	cases := map[string]float64{
		"300":      300,
		"1,234.50": 1234.5,
		"":         0,
		"abc":      0,
		" 4.5 ":    4.5,
	}
	for in, want := range cases {
		if got := FloatOrZero(in); got != want {
			t.Errorf("FloatOrZero(%q) = %v, want %v", in, got, want)
		}
	}
}
