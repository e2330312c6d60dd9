package session

import (
	"phreeqcore/internal/command"
	"phreeqcore/internal/formula"
	"phreeqcore/pkg/solver"
	"phreeqcore/pkg/units"
)

// Solution is a handle on a numbered solution. Every property read goes to
// the engine; reads on a removed number return solver.Missing or an empty
// collection.
type Solution struct {
	s      *Session
	number int
}

// Number returns the engine-side solution number.
func (sol *Solution) Number() int { return sol.number }

// Kind implements Entity.
func (sol *Solution) Kind() solver.Kind { return solver.KindSolution }

func (sol *Solution) session() *Session { return sol.s }

// Session returns the owning session.
func (sol *Solution) Session() *Session { return sol.s }

// Extraneous returns the metadata bag attached to the solution, nil if none.
func (sol *Solution) Extraneous() Extraneous { return sol.s.extraneous[sol.number] }

// SetExtraneous replaces the metadata bag.
func (sol *Solution) SetExtraneous(e Extraneous) {
	if e == nil {
		delete(sol.s.extraneous, sol.number)
		return
	}
	sol.s.extraneous[sol.number] = e.Clone()
}

// Copy duplicates the solution under a new number, carrying its extraneous
// metadata.
func (sol *Solution) Copy() (*Solution, error) {
	c, err := sol.s.CopySolution(sol.number)
	if err != nil {
		return nil, err
	}
	if bag := sol.Extraneous(); bag != nil {
		sol.s.extraneous[c.number] = bag.Clone()
	}
	return c, nil
}

// Forget removes the solution from the engine.
func (sol *Solution) Forget() error { return sol.s.RemoveSolutions([]int{sol.number}) }

// Add dissolves amount of species, given in unit.
func (sol *Solution) Add(species string, amount float64, unit units.Unit) error {
	_, err := sol.s.Change(sol.number, map[string]float64{species: amount}, unit)
	return err
}

// Remove takes amount of species, given in unit, out of the solution.
func (sol *Solution) Remove(species string, amount float64, unit units.Unit) error {
	return sol.Add(species, -amount, unit)
}

// RemoveFraction removes fraction of the current total of species.
func (sol *Solution) RemoveFraction(species string, fraction float64) error {
	current, err := sol.Total(species, units.Mmol)
	if err != nil {
		return err
	}
	return sol.Remove(species, current*fraction, units.Mmol)
}

// Saturate equilibrates the solution with phase at toSI, with amount moles of
// the phase available; it can dissolve as well as precipitate.
func (sol *Solution) Saturate(phase string, toSI, amount float64) error {
	_, err := sol.s.EqualizePhase(sol.number, phase, toSI, amount, "")
	return err
}

// Desaturate equilibrates with none of phase present, so it can only precipitate.
func (sol *Solution) Desaturate(phase string, toSI float64) error {
	_, err := sol.s.EqualizePhase(sol.number, phase, toSI, 0, "")
	return err
}

// ChangePH brings the solution to pH by dosing chemical. An empty chemical
// doses HCl to lower the pH and NaOH to raise it.
func (sol *Solution) ChangePH(pH float64, chemical string) error {
	_, err := sol.s.EqualizePhase(sol.number, "Fix_pH", -pH, command.DefaultAmount, sol.phChemical(pH, chemical))
	return err
}

func (sol *Solution) phChemical(pH float64, chemical string) string {
	if chemical != "" {
		return chemical
	}
	if pH < sol.PH() {
		return "HCl"
	}
	return "NaOH"
}

// ChangeTemperature sets the solution temperature in °C.
func (sol *Solution) ChangeTemperature(t float64) error {
	_, err := sol.s.ChangeSolutionTemperature(sol.number, t)
	return err
}

// Interact equilibrates the solution with a gas, phase assemblage or surface
// and saves both sides.
func (sol *Solution) Interact(other Entity) error {
	if surf, ok := other.(*Surface); ok {
		return sol.s.InteractSolutionSurface(sol, surf)
	}
	return sol.s.interact(sol, other)
}

// Plus mixes the solution one-to-one with other.
func (sol *Solution) Plus(other *Solution) (*Solution, error) {
	return sol.Times(1).Plus(other.Times(1))
}

func (sol *Solution) scalar(p solver.Property, name string) float64 {
	return sol.s.gw.Scalar(solver.Query{Property: p, Number: sol.number, Name: name})
}

// PH returns the pH.
func (sol *Solution) PH() float64 { return sol.scalar(solver.PropPH, "") }

// Pe returns the redox potential as pe.
func (sol *Solution) Pe() float64 { return sol.scalar(solver.PropPe, "") }

// SC returns the specific conductance in µS/cm.
func (sol *Solution) SC() float64 { return sol.scalar(solver.PropSC, "") }

// Temperature returns the temperature in °C.
func (sol *Solution) Temperature() float64 { return sol.scalar(solver.PropTemperature, "") }

// Mu returns the ionic strength.
func (sol *Solution) Mu() float64 { return sol.scalar(solver.PropMu, "") }

// Mass returns the mass of water in kg.
func (sol *Solution) Mass() float64 { return sol.scalar(solver.PropMass, "") }

// SI returns the saturation index of phase.
func (sol *Solution) SI(phase string) float64 { return sol.scalar(solver.PropSI, phase) }

// Phases returns the saturation index of every phase the engine reports.
func (sol *Solution) Phases() map[string]float64 {
	return sol.collect(solver.ListPhases, solver.PropSI)
}

// Elements returns the total of every element in the solution in mol.
func (sol *Solution) Elements() map[string]float64 {
	return sol.collect(solver.ListElements, solver.PropTotalElement)
}

// Species returns species molalities.
func (sol *Solution) Species() map[string]float64 {
	return sol.collect(solver.ListSpecies, solver.PropMolality)
}

// SpeciesMolalities is Species.
func (sol *Solution) SpeciesMolalities() map[string]float64 { return sol.Species() }

// SpeciesMoles returns species amounts in mol.
func (sol *Solution) SpeciesMoles() map[string]float64 {
	return sol.collect(solver.ListSpecies, solver.PropMoles)
}

// SpeciesActivities returns species activities.
func (sol *Solution) SpeciesActivities() map[string]float64 {
	return sol.collect(solver.ListSpecies, solver.PropActivity)
}

func (sol *Solution) collect(list solver.ListKind, p solver.Property) map[string]float64 {
	names := sol.s.gw.List(list, sol.number)
	out := make(map[string]float64, len(names))
	for _, name := range names {
		out[name] = sol.scalar(p, name)
	}
	return out
}

// Total sums the molality of every species containing element as a whole
// symbol and converts the sum from mol to unit. It scans all species; prefer
// TotalElement for plain elements.
func (sol *Solution) Total(element string, unit units.Unit) (float64, error) {
	var total float64
	for species, m := range sol.Species() {
		if formula.ContainsSymbol(species, element) {
			total += m
		}
	}
	return sol.s.convertFromMol(element, total, unit)
}

// TotalElement reads the element total directly and converts it from mol to unit.
func (sol *Solution) TotalElement(element string, unit units.Unit) (float64, error) {
	return sol.s.convertFromMol(element, sol.scalar(solver.PropTotalElement, element), unit)
}

func (s *Session) convertFromMol(species string, mol float64, unit units.Unit) (float64, error) {
	v, err := s.units.Convert(species, mol, units.Mol, unit)
	if err != nil {
		return 0, invalid("%v", err)
	}
	return v, nil
}

// TACC returns the calcite precipitation capacity in mmol at temperature:
// the calcium a copy of the solution loses when heated and brought to calcite
// saturation. The copy is removed afterwards.
func (sol *Solution) TACC(temperature float64) (tacc float64, err error) {
	tmp, err := sol.s.CopySolution(sol.number)
	if err != nil {
		return 0, err
	}
	defer func() {
		if ferr := tmp.Forget(); ferr != nil && err == nil {
			err = ferr
		}
	}()
	if err := tmp.ChangeTemperature(temperature); err != nil {
		return 0, err
	}
	before, err := tmp.TotalElement("Ca", units.Mmol)
	if err != nil {
		return 0, err
	}
	if err := tmp.Saturate("Calcite", 0, command.DefaultAmount); err != nil {
		return 0, err
	}
	after, err := tmp.TotalElement("Ca", units.Mmol)
	if err != nil {
		return 0, err
	}
	return before - after, nil
}
