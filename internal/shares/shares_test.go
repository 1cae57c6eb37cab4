package shares

import (
	"math"
	"testing"
)

func TestParseSpecSingleName(t *testing.T) {
	got := ParseSpec("Allianz")
	if len(got) != 1 || got["Allianz"] != 100.0 {
		t.Fatalf("want {Allianz: 100}, got %v", got)
	}
}

func TestParseSpecEvenSplitWithRemainder(t *testing.T) {
	got := ParseSpec("A, B, C")
	if len(got) != 3 {
		t.Fatalf("want 3 insurers, got %v", got)
	}
	if got["A"] != 33.33 || got["B"] != 33.33 {
		t.Fatalf("want 33.33 for A and B, got %v", got)
	}
	if got["C"] != 33.34 {
		t.Fatalf("want last name to absorb remainder (33.34), got %v", got["C"])
	}
}

func TestParseSpecSumsToHundred(t *testing.T) {
	specs := []string{"A,B", "A,B,C", "A,B,C,D", "A,B,C,D,E,F", "A,B,C,D,E,F,G"}
	for _, spec := range specs {
		got := ParseSpec(spec)
		var total float64
		for _, pct := range got {
			total += pct
		}
		if math.Abs(total-100.0) > 1e-9 {
			t.Fatalf("spec %q: want total 100, got %.12f", spec, total)
		}
	}
}

func TestParseSpecDropsEmptyNames(t *testing.T) {
	got := ParseSpec(" A , , B ,")
	if len(got) != 2 {
		t.Fatalf("want 2 insurers, got %v", got)
	}
	if got["A"] != 50.0 || got["B"] != 50.0 {
		t.Fatalf("want 50/50, got %v", got)
	}
}

func TestParseSpecEmpty(t *testing.T) {
	for _, spec := range []string{"", "   ", ",,,"} {
		if got := ParseSpec(spec); len(got) != 0 {
			t.Fatalf("spec %q: want empty map, got %v", spec, got)
		}
	}
}

func TestParseSpecExplicitMap(t *testing.T) {
	got := ParseSpec(`{"A": 60, "B": 40}`)
	if len(got) != 2 || got["A"] != 60.0 || got["B"] != 40.0 {
		t.Fatalf("want {A:60, B:40}, got %v", got)
	}
}

func TestParseSpecExplicitMapSingleQuotes(t *testing.T) {
	got := ParseSpec("{'A': 70.5, 'B': 29.5}")
	if got["A"] != 70.5 || got["B"] != 29.5 {
		t.Fatalf("want quote-normalized parse, got %v", got)
	}
}

func TestParseSpecMalformedMap(t *testing.T) {
	got := ParseSpec(`{"A": sixty}`)
	if got == nil || len(got) != 0 {
		t.Fatalf("malformed map must yield empty map, got %v", got)
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(map[string]float64{"A": 60, "B": 40}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Validate(map[string]float64{"A": 60, "B": 40.00005}); err != nil {
		t.Fatalf("within tolerance must pass: %v", err)
	}
	if err := Validate(map[string]float64{"A": 60, "B": 39.9}); err == nil {
		t.Fatalf("want share sum error")
	}
}

func TestAllocate(t *testing.T) {
	byInsurer := ParseSpec("A,B,C")
	got := Allocate(byInsurer, 300)
	if got["A"] != 99.99 || got["B"] != 99.99 || got["C"] != 100.02 {
		t.Fatalf("want {A:99.99, B:99.99, C:100.02}, got %v", got)
	}
}

func TestAllocateZeroTotal(t *testing.T) {
	got := Allocate(map[string]float64{"A": 100}, 0)
	if got["A"] != 0 {
		t.Fatalf("want zero allocation, got %v", got)
	}
}
