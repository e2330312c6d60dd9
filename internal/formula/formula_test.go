package formula

import (
	"errors"
	"math"
	"testing"
)

func TestMass(t *testing.T) {
	cases := []struct {
		formula string
		want    float64
	}{
		{"NaOH", 39.99711},
		{"CaCl2", 40.078 + 2*35.453},
		{"Ca(OH)2", 40.078 + 2*(15.9994+1.00794)},
		{"CO3-2", 12.0107 + 3*15.9994},
		{"Ca+2", 40.078},
		{"N(5)", 14.0067},
		{"CO2(g)", 12.0107 + 2*15.9994},
		{"CaSO4:2H2O", 40.078 + 32.065 + 4*15.9994 + 2*(2*1.00794+15.9994)},
	}
	for _, tc := range cases {
		got, err := Mass(tc.formula)
		if err != nil {
			t.Fatalf("%s: %v", tc.formula, err)
		}
		if math.Abs(got-tc.want) > 1e-6 {
			t.Fatalf("%s: expected %.6f got %.6f", tc.formula, tc.want, got)
		}
	}
}

func TestMassUnknownElement(t *testing.T) {
	_, err := Mass("Alkalinity")
	var unknown ErrUnknownElement
	if !errors.As(err, &unknown) {
		t.Fatalf("expected ErrUnknownElement, got %v", err)
	}
	if unknown.Symbol != "Alkalinity" {
		t.Fatalf("unexpected symbol %q", unknown.Symbol)
	}
}

func TestElementsSyntax(t *testing.T) {
	for _, bad := range []string{"", "Ca(OH", "Ca)2", "ca"} {
		if _, err := Elements(bad); err == nil {
			t.Fatalf("expected syntax error for %q", bad)
		}
	}
}

func TestElementsStoichiometry(t *testing.T) {
	counts, err := Elements("Na2CO3")
	if err != nil {
		t.Fatalf("elements: %v", err)
	}
	if counts["Na"] != 2 || counts["C"] != 1 || counts["O"] != 3 {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func TestContainsSymbol(t *testing.T) {
	cases := []struct {
		species, symbol string
		want            bool
	}{
		{"Ca+2", "Ca", true},
		{"CaHCO3+", "Ca", true},
		{"CaCl+", "Cl", true},
		{"Cd+2", "Ca", false},
		{"Ca+2", "C", false},
		{"HCO3-", "C", false},
		{"CO3-2", "C", true},
		{"Cl-", "Cl", true},
		{"ClO4-", "C", false},
		{"Na+", "", false},
	}
	for _, tc := range cases {
		if got := ContainsSymbol(tc.species, tc.symbol); got != tc.want {
			t.Fatalf("ContainsSymbol(%q, %q) = %v, want %v", tc.species, tc.symbol, got, tc.want)
		}
	}
}
