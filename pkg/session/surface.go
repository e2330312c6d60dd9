package session

import (
	"fmt"

	"phreeqcore/internal/command"
	"phreeqcore/pkg/solver"
)

// Positions in the surface export.
const (
	siteStrong = 0
	siteWeak   = 1
	aggregate  = 2
)

// SurfaceOptions configures AddSurface.
type SurfaceOptions struct {
	// DensityUnits reads site amounts as sites/nm² instead of moles.
	DensityUnits bool
	// NoEDL disables the electrostatic double layer model.
	NoEDL bool
}

// AddSurface defines a surface from site definitions such as
// {"Hfo_w": "0.2e-3, 600, 88e-3"}, optionally in equilibrium with a solution.
func (s *Session) AddSurface(sites map[string]string, equilibrateWith *Solution, opts SurfaceOptions) (*Surface, error) {
	if len(sites) == 0 {
		return nil, invalid("surface needs at least one site")
	}
	spec := command.SurfaceSpec{
		Sites:        command.SortedEntries(sites, func(v string) string { return v }),
		DensityUnits: opts.DensityUnits,
		NoEDL:        opts.NoEDL,
	}
	if equilibrateWith != nil {
		if err := s.owns(equilibrateWith.s); err != nil {
			return nil, err
		}
		spec.EquilibrateWith = equilibrateWith.number
	}
	n := s.nextSurface()
	input := command.New().Surface(n, spec).End().String()
	if err := s.run("add_surface", input); err != nil {
		return nil, err
	}
	return s.surface(n), nil
}

// Surface is a handle on a numbered surface. Numeric properties come from a
// snapshot of the engine's surface export, fetched at construction and again
// after Refresh or an interaction.
type Surface struct {
	s        *Session
	number   int
	snapshot *solver.SurfaceState
	gone     bool
}

// Number returns the engine-side surface number.
func (surf *Surface) Number() int { return surf.number }

// Kind implements Entity.
func (surf *Surface) Kind() solver.Kind { return solver.KindSurface }

func (surf *Surface) session() *Session { return surf.s }

// Copy duplicates the surface under a new number.
func (surf *Surface) Copy() (*Surface, error) { return surf.s.CopySurface(surf.number) }

// Forget removes the surface from the engine.
func (surf *Surface) Forget() error {
	surf.snapshot = nil
	return surf.s.RemoveSurfaces([]int{surf.number})
}

// Refresh re-reads the snapshot. A surface the engine does not know reads as
// solver.Missing; a malformed export fails with ErrSurfaceSnapshot.
func (surf *Surface) Refresh() error {
	raw := surf.s.gw.SurfaceJSON(surf.number)
	if len(raw) == 0 {
		st := missingSurface(surf.number)
		surf.snapshot, surf.gone = &st, true
		return nil
	}
	surf.gone = false
	st, err := solver.DecodeSurface(raw)
	if err != nil {
		surf.snapshot = nil
		return fmt.Errorf("%w: surface %d: %v", ErrSurfaceSnapshot, surf.number, err)
	}
	surf.snapshot = &st
	return nil
}

// State returns the snapshot, fetching it when absent.
func (surf *Surface) State() (solver.SurfaceState, error) {
	if surf.snapshot == nil {
		if err := surf.Refresh(); err != nil {
			return solver.SurfaceState{}, err
		}
	}
	return *surf.snapshot, nil
}

func (surf *Surface) component(i int) (solver.SurfaceComponent, error) {
	st, err := surf.State()
	if err != nil {
		return solver.SurfaceComponent{}, err
	}
	return st.Components[i], nil
}

// Thickness returns the diffuse layer thickness in m.
func (surf *Surface) Thickness() (float64, error) {
	st, err := surf.State()
	return st.Thickness, err
}

// ChargeBalance returns the surface charge balance in eq.
func (surf *Surface) ChargeBalance() (float64, error) {
	st, err := surf.State()
	return st.ChargeBalance, err
}

// Sigma returns the surface charge density of the aggregate component in C/m².
func (surf *Surface) Sigma() (float64, error) {
	c, err := surf.component(aggregate)
	return c.Sigma, err
}

// Psi returns the surface potential of the aggregate component in V.
func (surf *Surface) Psi() (float64, error) {
	c, err := surf.component(aggregate)
	return c.Psi, err
}

// Sorbed returns the moles of element held by the surface.
func (surf *Surface) Sorbed(element string) (float64, error) {
	c, err := surf.component(aggregate)
	if err != nil {
		return 0, err
	}
	if surf.gone {
		return solver.Missing, nil
	}
	return c.Totals[element], nil
}

// SiteMoles returns the moles held on the first and second site component.
func (surf *Surface) SiteMoles() (first, second float64, err error) {
	st, err := surf.State()
	if err != nil {
		return 0, 0, err
	}
	return st.Components[siteStrong].Moles, st.Components[siteWeak].Moles, nil
}

func missingSurface(number int) solver.SurfaceState {
	st := solver.SurfaceState{
		Number:        number,
		Thickness:     solver.Missing,
		ChargeBalance: solver.Missing,
		Components:    make([]solver.SurfaceComponent, solver.SurfaceComponentCount),
	}
	for i := range st.Components {
		st.Components[i] = solver.SurfaceComponent{
			Moles:         solver.Missing,
			ChargeBalance: solver.Missing,
			SpecificArea:  solver.Missing,
			Grams:         solver.Missing,
			Sigma:         solver.Missing,
			Psi:           solver.Missing,
		}
	}
	return st
}
