package shares

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"AblClaimsRecon/internal/config"
)

// ParseSpec turns a free-form insurer specification into a percentage
// map. Two encodings are accepted: an explicit {"name": pct, ...}
// object (single quotes tolerated) and a comma separated name list. A
// list is split evenly at two decimals with the last name absorbing the
// rounding remainder, so the result always totals exactly 100. A
// malformed explicit map yields an empty map, not an error.
func ParseSpec(spec string) map[string]float64 {
	s := strings.TrimSpace(spec)
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		parsed := map[string]float64{}
		if err := json.Unmarshal([]byte(strings.ReplaceAll(s, "'", `"`)), &parsed); err != nil {
			return map[string]float64{}
		}
		return parsed
	}

	var names []string
	for _, part := range strings.Split(s, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return map[string]float64{}
	}
	if len(names) == 1 {
		return map[string]float64{names[0]: 100.0}
	}

	hundred := decimal.NewFromInt(100)
	weight := hundred.Div(decimal.NewFromInt(int64(len(names)))).Round(2)
	out := make(map[string]float64, len(names))
	for _, name := range names {
		out[name] = weight.InexactFloat64()
	}
	remainder := hundred.Sub(weight.Mul(decimal.NewFromInt(int64(len(names) - 1))))
	out[names[len(names)-1]] = remainder.InexactFloat64()
	return out
}

// Validate enforces the case invariant: shares total 100% within
// tolerance.
func Validate(byInsurer map[string]float64) error {
	var total float64
	for _, pct := range byInsurer {
		total += pct
	}
	if math.Abs(total-100.0) > config.ShareSumTolerance {
		return fmt.Errorf("total insurer share must equal 100%%, got %.4f", total)
	}
	return nil
}

// Allocate apportions an invoice total across a share map, rounding
// each insurer's amount to two decimals.
func Allocate(byInsurer map[string]float64, total float64) map[string]float64 {
	out := make(map[string]float64, len(byInsurer))
	amount := decimal.NewFromFloat(total)
	hundred := decimal.NewFromInt(100)
	for name, pct := range byInsurer {
		out[name] = amount.Mul(decimal.NewFromFloat(pct)).Div(hundred).Round(2).InexactFloat64()
	}
	return out
}
