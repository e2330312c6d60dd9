// Package units converts amounts of a chemical formula between molar and mass units.
package units

import (
	"errors"
	"fmt"

	"phreeqcore/internal/formula"
)

// Unit identifies an amount unit.
type Unit string

const (
	Mol  Unit = "mol"
	Mmol Unit = "mmol"
	Mg   Unit = "mg"
	Ug   Unit = "ug" // micrograms
)

// ErrUnsupportedConversion is returned for unit pairs outside the supported set.
var ErrUnsupportedConversion = errors.New("units: unsupported conversion")

// MassFunc returns the molar mass in g/mol of a formula.
type MassFunc func(formula string) (float64, error)

// Converter converts amounts using a molar mass lookup.
type Converter struct {
	mass MassFunc
}

// NewConverter returns a Converter using mass for lookups. A nil mass uses formula.Mass.
func NewConverter(mass MassFunc) *Converter {
	if mass == nil {
		mass = formula.Mass
	}
	return &Converter{mass: mass}
}

var defaultConverter = NewConverter(nil)

// Convert converts amount of formula from one unit to another with the default converter.
func Convert(formula string, amount float64, from, to Unit) (float64, error) {
	return defaultConverter.Convert(formula, amount, from, to)
}

// scale is the number of moles (molar family) or grams (mass family) per unit.
var scale = map[Unit]float64{
	Mol:  1,
	Mmol: 1e-3,
	Mg:   1e-3,
	Ug:   1e-6,
}

func molar(u Unit) bool { return u == Mol || u == Mmol }

// Convert converts amount of formula from one unit to another. Identity
// conversions and conversions inside one unit family never look up a mass.
func (c *Converter) Convert(formula string, amount float64, from, to Unit) (float64, error) {
	// the solver database names this species F while the mass table needs Ni
	if formula == "F" {
		formula = "Ni"
	}
	if from == to {
		return amount, nil
	}
	fromScale, okFrom := scale[from]
	toScale, okTo := scale[to]
	if !okFrom || !okTo {
		return 0, fmt.Errorf("%w: %s to %s", ErrUnsupportedConversion, from, to)
	}
	if molar(from) == molar(to) {
		return amount * fromScale / toScale, nil
	}
	mass, err := c.mass(formula)
	if err != nil {
		return 0, fmt.Errorf("molar mass of %s: %w", formula, err)
	}
	if molar(from) {
		// moles -> grams
		return amount * fromScale * mass / toScale, nil
	}
	// grams -> moles
	return amount * fromScale / mass / toScale, nil
}

// Parse validates a unit name.
func Parse(s string) (Unit, error) {
	u := Unit(s)
	if _, ok := scale[u]; !ok {
		return "", fmt.Errorf("%w: unknown unit %q", ErrUnsupportedConversion, s)
	}
	return u, nil
}
