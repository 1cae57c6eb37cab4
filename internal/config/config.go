package config

const (
	DefaultStorePath = "./cases_data.json"

	CurrencyMYR = "MYR"
	CurrencyUSD = "USD"

	StatusOutstanding = "Outstanding"
	StatusPaid        = "Paid"

	// A case's insurer shares must total 100% within this tolerance
	// before the case may be saved.
	ShareSumTolerance = 1e-4

	// Payment matching: a received amount within this of an allocation
	// counts as an exact match.
	ExactMatchTolerance = 0.01

	// USD-only close-match band: the allocation may exceed the received
	// amount by at most this much.
	CloseMatchBandUSD = 50.0

	// Cross-check tolerance on the USD side of a currency pair.
	ConversionTolerance = 0.01

	DateLayoutLong = "02-Jan-2006"
	DateLayoutISO  = "2006-01-02"
)

var (
	IssuingOffices  = []string{"ABL KL", "SXP", "ABL SG"}
	PaymentAccounts = []string{"SXP", "ABL KL", "ABL LDN"}
)
