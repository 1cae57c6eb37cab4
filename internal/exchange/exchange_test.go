package exchange

import "testing"

func TestFillUSDFromMYR(t *testing.T) {
	myr, usd, warning := Calculate(450, 0, 4.5)
	if myr != 450 || usd != 100 {
		t.Fatalf("want 450/100, got %v/%v", myr, usd)
	}
	if warning != "" {
		t.Fatalf("unexpected warning: %s", warning)
	}
}

func TestFillMYRFromUSD(t *testing.T) {
	myr, usd, _ := Calculate(0, 100, 4.5)
	if myr != 450 || usd != 100 {
		t.Fatalf("want 450/100, got %v/%v", myr, usd)
	}
}

func TestBothPresentConsistent(t *testing.T) {
	myr, usd, warning := Calculate(450, 100, 4.5)
	if myr != 450 || usd != 100 {
		t.Fatalf("amounts must not change, got %v/%v", myr, usd)
	}
	if warning != "" {
		t.Fatalf("unexpected warning: %s", warning)
	}
}

func TestBothPresentMismatch(t *testing.T) {
	myr, usd, warning := Calculate(450, 95, 4.5)
	if myr != 450 || usd != 95 {
		t.Fatalf("entered values are authoritative, got %v/%v", myr, usd)
	}
	if warning == "" {
		t.Fatalf("want mismatch warning")
	}
}

func TestZeroRateUnchanged(t *testing.T) {
	myr, usd, warning := Calculate(450, 0, 0)
	if myr != 450 || usd != 0 || warning != "" {
		t.Fatalf("zero rate must be a no-op, got %v/%v/%q", myr, usd, warning)
	}
}

func TestBothZero(t *testing.T) {
	for _, rate := range []float64{0, 1, 4.5} {
		myr, usd, _ := Calculate(0, 0, rate)
		if myr != 0 || usd != 0 {
			t.Fatalf("rate %v: want 0/0, got %v/%v", rate, myr, usd)
		}
	}
}

func TestIdempotent(t *testing.T) {
	myr, usd, _ := Calculate(450, 0, 4.5)
	myr2, usd2, warning := Calculate(myr, usd, 4.5)
	if myr2 != myr || usd2 != usd {
		t.Fatalf("second pass changed output: %v/%v -> %v/%v", myr, usd, myr2, usd2)
	}
	if warning != "" {
		t.Fatalf("own output must cross-check clean, got %q", warning)
	}
}

func TestRounding(t *testing.T) {
	_, usd, _ := Calculate(100, 0, 3)
	if usd != 33.3333 {
		t.Fatalf("want 4dp rounding 33.3333, got %v", usd)
	}
}
