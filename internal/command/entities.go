package command

import (
	"strings"

	"phreeqcore/pkg/solver"
)

// GasSpec describes a GAS_PHASE block.
type GasSpec struct {
	Pressure      float64
	Volume        float64
	FixedPressure bool
	FixedVolume   bool
	// EquilibrateWith is the solution number the gas starts in equilibrium
	// with; zero means none.
	EquilibrateWith int
	Components      []Entry
}

// GasPhase writes a GAS_PHASE block.
func (s *Script) GasPhase(n int, spec GasSpec) *Script {
	s.line("GAS_PHASE", Int(n))
	if spec.FixedPressure {
		s.line("  -fixed_pressure")
	}
	if spec.FixedVolume {
		s.line("  -fixed_volume")
	}
	s.line("  -pressure", Float(spec.Pressure))
	s.line("  -volume", Float(spec.Volume))
	s.entries(spec.Components)
	if spec.EquilibrateWith != 0 {
		s.line("  -equilibrium", Int(spec.EquilibrateWith))
	}
	return s
}

// SurfaceSpec describes a SURFACE block.
type SurfaceSpec struct {
	EquilibrateWith int
	// Sites holds "name" -> "sites [area mass]" definitions.
	Sites        []Entry
	DensityUnits bool
	NoEDL        bool
}

// Surface writes a SURFACE block. Commas inside site definitions are treated
// as separators.
func (s *Script) Surface(n int, spec SurfaceSpec) *Script {
	s.line("SURFACE", Int(n))
	if spec.EquilibrateWith != 0 {
		s.line("  -equilibrate", Int(spec.EquilibrateWith))
	}
	if spec.DensityUnits {
		s.line("  -sites_units density")
	}
	if spec.NoEDL {
		s.line("  -no_edl")
	}
	for _, site := range spec.Sites {
		s.line("  "+site.Name, strings.Join(strings.Fields(strings.ReplaceAll(site.Value, ",", " ")), " "))
	}
	return s
}

// MasterSpecies writes a SOLUTION_MASTER_SPECIES line.
func (s *Script) MasterSpecies(element, species string, alkalinity float64, gfw string, gfwElement float64) *Script {
	s.line("SOLUTION_MASTER_SPECIES")
	return s.line("  "+element, species, Float(alkalinity), gfw, Float(gfwElement))
}

// Species writes a SOLUTION_SPECIES block with a log_k and optional extra options.
func (s *Script) Species(reaction string, logK float64, options ...string) *Script {
	s.line("SOLUTION_SPECIES")
	s.line("  " + reaction)
	s.line("    log_k", Float(logK))
	for _, opt := range options {
		s.line("    " + opt)
	}
	return s
}

// Interaction renders the two-sided equilibration of a solution with another
// entity, saving both under their numbers.
func Interaction(solution int, kind solver.Kind, other int) string {
	return New().
		Use(solver.KindSolution, solution).
		Use(kind, other).
		Save(solver.KindSolution, solution).
		Save(kind, other).
		End().
		String()
}
