package session

import (
	"phreeqcore/internal/command"
	"phreeqcore/pkg/solver"
)

// AddEquilibriumPhase defines an assemblage of phases. toSI and amount are
// padded like EqualizeSolution modifiers.
func (s *Session) AddEquilibriumPhase(phases []string, toSI, amount []float64) (*EquilibriumPhase, error) {
	if len(phases) == 0 {
		return nil, invalid("no phases in assemblage")
	}
	n := s.nextPhase()
	input := command.New().
		EquilibriumPhases(n, command.Broadcast(phases, toSI, amount, nil)).
		End().
		String()
	if err := s.run("add_equilibrium_phase", input); err != nil {
		return nil, err
	}
	return &EquilibriumPhase{s: s, number: n}, nil
}

// EquilibriumPhase is a handle on a numbered phase assemblage.
type EquilibriumPhase struct {
	s      *Session
	number int
}

// Number returns the engine-side assemblage number.
func (p *EquilibriumPhase) Number() int { return p.number }

// Kind implements Entity.
func (p *EquilibriumPhase) Kind() solver.Kind { return solver.KindEquilibriumPhase }

func (p *EquilibriumPhase) session() *Session { return p.s }

// Forget removes the assemblage from the engine.
func (p *EquilibriumPhase) Forget() error { return p.s.RemoveEquilibriumPhases([]int{p.number}) }

// Components returns the moles present per phase.
func (p *EquilibriumPhase) Components() map[string]float64 {
	names := p.s.gw.List(solver.ListPhaseComponents, p.number)
	out := make(map[string]float64, len(names))
	for _, name := range names {
		out[name] = p.s.gw.Scalar(solver.Query{Property: solver.PropPhaseMoles, Number: p.number, Name: name})
	}
	return out
}
