package importer

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"AblClaimsRecon/internal/config"
)

// ParseAmountsOrDefault decodes an insurer-amounts JSON blob from a
// spreadsheet cell. Absent or malformed blobs yield an empty map with
// defaulted=true; a genuinely empty "{}" blob decodes cleanly with
// defaulted=false.
func ParseAmountsOrDefault(raw string) (amounts map[string]float64, defaulted bool) {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "{") {
		return map[string]float64{}, true
	}
	parsed := map[string]float64{}
	if err := json.Unmarshal([]byte(s), &parsed); err != nil {
		return map[string]float64{}, true
	}
	return parsed, false
}

// NormalizeInvoiceDate renders a parseable invoice date as ISO
// (2006-01-02), trying the long layout first. Unparseable text passes
// through unchanged.
func NormalizeInvoiceDate(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	for _, layout := range []string{config.DateLayoutLong, config.DateLayoutISO} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(config.DateLayoutISO)
		}
	}
	return s
}

// NormalizeLossDate renders a parseable loss date as 02-Jan-2006.
// Unparseable text passes through unchanged.
func NormalizeLossDate(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	for _, layout := range []string{config.DateLayoutLong, config.DateLayoutISO} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(config.DateLayoutLong)
		}
	}
	return s
}

// FloatOrZero coerces a spreadsheet cell to a float, defaulting to zero
// on blank or invalid input. Thousands separators are tolerated.
func FloatOrZero(raw string) float64 {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if s == "" {
		return 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}
