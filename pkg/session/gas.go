package session

import (
	"phreeqcore/internal/command"
	"phreeqcore/pkg/solver"
)

// waterVapour is excluded from dry gas fractions.
const waterVapour = "H2O(g)"

// GasOptions configures AddGas.
type GasOptions struct {
	Pressure      float64 // atm
	Volume        float64 // L
	FixedPressure bool
	FixedVolume   bool
	// EquilibrateWith starts the gas in equilibrium with a solution. It
	// requires FixedVolume.
	EquilibrateWith *Solution
}

// DefaultGasOptions returns a 1 L fixed-pressure gas at 1 atm.
func DefaultGasOptions() GasOptions {
	return GasOptions{Pressure: 1, Volume: 1, FixedPressure: true}
}

// AddGas defines a gas phase from component partial pressures.
func (s *Session) AddGas(components map[string]float64, opts GasOptions) (*Gas, error) {
	if opts.FixedPressure && opts.FixedVolume {
		return nil, ErrInvalidGasConstraint
	}
	spec := command.GasSpec{
		Pressure:      opts.Pressure,
		Volume:        opts.Volume,
		FixedPressure: opts.FixedPressure,
		FixedVolume:   opts.FixedVolume,
		Components:    command.SortedEntries(components, command.Float),
	}
	if opts.EquilibrateWith != nil {
		if !opts.FixedVolume {
			return nil, ErrInvalidEquilibration
		}
		if err := s.owns(opts.EquilibrateWith.s); err != nil {
			return nil, err
		}
		spec.EquilibrateWith = opts.EquilibrateWith.number
	}
	n := s.nextGas()
	input := command.New().GasPhase(n, spec).End().String()
	if err := s.run("add_gas", input); err != nil {
		return nil, err
	}
	return &Gas{s: s, number: n}, nil
}

// Gas is a handle on a numbered gas phase.
type Gas struct {
	s      *Session
	number int
}

// Number returns the engine-side gas phase number.
func (g *Gas) Number() int { return g.number }

// Kind implements Entity.
func (g *Gas) Kind() solver.Kind { return solver.KindGasPhase }

func (g *Gas) session() *Session { return g.s }

// Copy duplicates the gas phase under a new number.
func (g *Gas) Copy() (*Gas, error) { return g.s.CopyGas(g.number) }

// Forget removes the gas phase from the engine.
func (g *Gas) Forget() error { return g.s.RemoveGases([]int{g.number}) }

func (g *Gas) scalar(p solver.Property, name string) float64 {
	return g.s.gw.Scalar(solver.Query{Property: p, Number: g.number, Name: name})
}

// Pressure returns the total pressure in atm.
func (g *Gas) Pressure() float64 { return g.scalar(solver.PropGasPressure, "") }

// Volume returns the volume in L.
func (g *Gas) Volume() float64 { return g.scalar(solver.PropGasVolume, "") }

// TotalMoles returns the moles of all components.
func (g *Gas) TotalMoles() float64 { return g.scalar(solver.PropGasTotalMoles, "") }

// Components returns moles per component.
func (g *Gas) Components() map[string]float64 {
	names := g.s.gw.List(solver.ListGasComponents, g.number)
	out := make(map[string]float64, len(names))
	for _, name := range names {
		out[name] = g.scalar(solver.PropGasMoles, name)
	}
	return out
}

// Fractions returns the mole fraction of every component relative to the
// engine's total moles.
func (g *Gas) Fractions() map[string]float64 {
	return fractions(g.Components(), g.TotalMoles())
}

// PartialPressures returns mole fraction times total pressure per component.
func (g *Gas) PartialPressures() map[string]float64 {
	p := g.Pressure()
	out := g.Fractions()
	for name, f := range out {
		out[name] = f * p
	}
	return out
}

// DryFractions returns mole fractions with water vapour left out.
func (g *Gas) DryFractions() map[string]float64 {
	components := g.Components()
	dry := g.TotalMoles() - components[waterVapour]
	delete(components, waterVapour)
	return fractions(components, dry)
}

func fractions(m map[string]float64, sum float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for name, v := range m {
		if sum <= 0 {
			out[name] = 0
			continue
		}
		out[name] = v / sum
	}
	return out
}
