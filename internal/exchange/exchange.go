package exchange

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"AblClaimsRecon/internal/config"
)

// Calculate fills in whichever side of a MYR/USD pair is missing using
// the rate (MYR per USD), rounding to four decimals. When both sides
// are already present the entered values are authoritative: nothing is
// altered, and a cross-check failure comes back as an advisory warning.
// A rate of zero or less returns the inputs unchanged.
func Calculate(amountMYR, amountUSD, rate float64) (myr, usd float64, warning string) {
	myr, usd = amountMYR, amountUSD
	if rate <= 0 {
		return myr, usd, ""
	}
	switch {
	case myr > 0 && usd == 0:
		usd = round4(decimal.NewFromFloat(myr).Div(decimal.NewFromFloat(rate)))
	case usd > 0 && myr == 0:
		myr = round4(decimal.NewFromFloat(usd).Mul(decimal.NewFromFloat(rate)))
	case myr > 0 && usd > 0:
		expected := round4(decimal.NewFromFloat(myr).Div(decimal.NewFromFloat(rate)))
		if math.Abs(expected-usd) > config.ConversionTolerance {
			warning = fmt.Sprintf("amount mismatch: expected USD %.4f, entered %.4f", expected, usd)
		}
	}
	return myr, usd, warning
}

func round4(d decimal.Decimal) float64 {
	return d.Round(4).InexactFloat64()
}
