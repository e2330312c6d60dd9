package session

import (
	"errors"
	"slices"
	"testing"

	"phreeqcore/internal/solver/sim"
	"phreeqcore/pkg/solver"
	"phreeqcore/pkg/units"
)

func TestGasConstraints(t *testing.T) {
	s, _ := newTestSession(t)
	sol := mustSolution(t, s, Composition{"Ca": "1"})

	both := GasOptions{Pressure: 1, Volume: 1, FixedPressure: true, FixedVolume: true}
	if _, err := s.AddGas(map[string]float64{"CO2(g)": 1}, both); !errors.Is(err, ErrInvalidGasConstraint) {
		t.Fatalf("both fixed: %v", err)
	}
	if !errors.Is(ErrInvalidGasConstraint, ErrInvalidArgument) {
		t.Fatalf("constraint error is not an invalid argument")
	}
	opts := DefaultGasOptions()
	opts.EquilibrateWith = sol
	if _, err := s.AddGas(map[string]float64{"CO2(g)": 1}, opts); !errors.Is(err, ErrInvalidEquilibration) {
		t.Fatalf("equilibrate at fixed pressure: %v", err)
	}
	if s.Counters().Gases != 0 {
		t.Fatalf("rejected gas consumed a number")
	}

	fixedVolume := GasOptions{Pressure: 1, Volume: 2, FixedVolume: true, EquilibrateWith: sol}
	gas, err := s.AddGas(map[string]float64{"CO2(g)": 1}, fixedVolume)
	if err != nil {
		t.Fatalf("fixed volume: %v", err)
	}
	if gas.Volume() != 2 || gas.Number() != 1 {
		t.Fatalf("gas %d volume %v", gas.Number(), gas.Volume())
	}
}

func TestGasReads(t *testing.T) {
	s, gw := newTestSession(t)
	gas, err := s.AddGas(map[string]float64{"CO2(g)": 0.5, "H2O(g)": 0.5}, DefaultGasOptions())
	if err != nil {
		t.Fatalf("add gas: %v", err)
	}
	want := "GAS_PHASE 1\n  -fixed_pressure\n  -pressure 1\n  -volume 1\n  CO2(g) 0.5\n  H2O(g) 0.5\nEND\n"
	if got := lastInput(gw); got != want {
		t.Fatalf("input = %q", got)
	}
	each := 0.5 / (0.08206 * 298.15)
	components := gas.Components()
	if len(components) != 2 || !near(components["CO2(g)"], each) {
		t.Fatalf("components = %v", components)
	}
	if !near(gas.TotalMoles(), 2*each) || gas.Pressure() != 1 {
		t.Fatalf("total %v pressure %v", gas.TotalMoles(), gas.Pressure())
	}
	if f := gas.Fractions(); !near(f["CO2(g)"], 0.5) || !near(f["H2O(g)"], 0.5) {
		t.Fatalf("fractions = %v", f)
	}
	dry := gas.DryFractions()
	if len(dry) != 1 || !near(dry["CO2(g)"], 1) {
		t.Fatalf("dry fractions = %v", dry)
	}
	if pp := gas.PartialPressures(); !near(pp["CO2(g)"], 0.5) {
		t.Fatalf("partial pressures = %v", pp)
	}

	c, err := gas.Copy()
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	if c.Number() != 2 || !near(c.TotalMoles(), gas.TotalMoles()) {
		t.Fatalf("copy %d total %v", c.Number(), c.TotalMoles())
	}
	sol := mustSolution(t, s, Composition{"Ca": "1"})
	if err := sol.Interact(gas); err != nil {
		t.Fatalf("interact: %v", err)
	}
	if err := gas.Forget(); err != nil {
		t.Fatalf("forget: %v", err)
	}
	if got := s.GasNumbers(); !slices.Equal(got, []int{2}) {
		t.Fatalf("gas numbers = %v", got)
	}
	if gas.Pressure() != solver.Missing || len(gas.Components()) != 0 {
		t.Fatalf("removed gas still reads")
	}
	if f := gas.Fractions(); len(f) != 0 {
		t.Fatalf("removed gas fractions = %v", f)
	}
}

// engineTotal reports gas total moles independently of the listed components,
// as an engine does when it tracks species the listing leaves out.
type engineTotal struct {
	*sim.Gateway
	total float64
}

func (g engineTotal) Scalar(q solver.Query) float64 {
	if q.Property == solver.PropGasTotalMoles {
		return g.total
	}
	return g.Gateway.Scalar(q)
}

func TestGasFractionsUseEngineTotal(t *testing.T) {
	each := 0.5 / (0.08206 * 298.15)
	gw := engineTotal{Gateway: sim.New(), total: 4 * each}
	s, err := New(gw, WithDatabase(testDatabase(t)))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	gas, err := s.AddGas(map[string]float64{"CO2(g)": 0.5, "H2O(g)": 0.5}, DefaultGasOptions())
	if err != nil {
		t.Fatalf("add gas: %v", err)
	}
	if f := gas.Fractions(); !near(f["CO2(g)"], 0.25) || !near(f["H2O(g)"], 0.25) {
		t.Fatalf("fractions = %v", f)
	}
	if pp := gas.PartialPressures(); !near(pp["CO2(g)"], 0.25) {
		t.Fatalf("partial pressures = %v", pp)
	}
	if dry := gas.DryFractions(); !near(dry["CO2(g)"], 1.0/3) {
		t.Fatalf("dry fractions = %v", dry)
	}
}

func TestEquilibriumPhase(t *testing.T) {
	s, gw := newTestSession(t)
	phase, err := s.AddEquilibriumPhase([]string{"Calcite", "Gypsum"}, []float64{0.1}, []float64{2})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := lastInput(gw); got != "EQUILIBRIUM_PHASES 1\n  Calcite 0.1 2\n  Gypsum 0 10\nEND\n" {
		t.Fatalf("input = %q", got)
	}
	if c := phase.Components(); c["Calcite"] != 2 || c["Gypsum"] != 10 {
		t.Fatalf("components = %v", c)
	}
	if got := s.EquilibriumPhaseNumbers(); !slices.Equal(got, []int{1}) {
		t.Fatalf("numbers = %v", got)
	}

	sol := mustSolution(t, s, Composition{"Ca": "1"})
	if err := sol.Interact(phase); err != nil {
		t.Fatalf("interact: %v", err)
	}
	if sol.SI("Calcite") != 0.1 || sol.SI("Gypsum") != 0 {
		t.Fatalf("SI after interaction = %v", sol.Phases())
	}
	if err := s.InteractSolutionPhase(sol, phase); err != nil {
		t.Fatalf("interact again: %v", err)
	}
	if _, err := s.AddEquilibriumPhase(nil, nil, nil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("empty assemblage: %v", err)
	}
	if err := phase.Forget(); err != nil {
		t.Fatalf("forget: %v", err)
	}
	if len(phase.Components()) != 0 || len(s.EquilibriumPhaseNumbers()) != 0 {
		t.Fatalf("assemblage still listed")
	}
	if err := s.InteractSolutionGas(sol, nil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("nil gas: %v", err)
	}
}

func TestSurfaceSorption(t *testing.T) {
	s, gw := newTestSession(t)
	sol := mustSolution(t, s, Composition{"Zn": "1"})
	surf, err := s.AddSurface(map[string]string{"Hfo_s": "0.5e-5, 600, 88e-3", "Hfo_w": "2e-4"}, sol, SurfaceOptions{NoEDL: true})
	if err != nil {
		t.Fatalf("add surface: %v", err)
	}
	want := "SURFACE 1\n  -equilibrate 1\n  -no_edl\n  Hfo_s 0.5e-5 600 88e-3\n  Hfo_w 2e-4\nEND\n"
	if got := lastInput(gw); got != want {
		t.Fatalf("input = %q", got)
	}
	sorbed, err := surf.Sorbed("Zn")
	if err != nil || !near(sorbed, 1e-4) {
		t.Fatalf("sorbed = %v, %v", sorbed, err)
	}
	first, second, err := surf.SiteMoles()
	if err != nil || !near(first, 5e-5) || !near(second, 5e-5) {
		t.Fatalf("site moles = %v %v, %v", first, second, err)
	}
	if th, err := surf.Thickness(); err != nil || th != 1e-8 {
		t.Fatalf("thickness = %v, %v", th, err)
	}
	if zn, _ := sol.TotalElement("Zn", units.Mol); !near(zn, 1e-3) {
		t.Fatalf("equilibration changed the solution: %v", zn)
	}

	if err := sol.Interact(surf); err != nil {
		t.Fatalf("interact: %v", err)
	}
	if zn, _ := sol.TotalElement("Zn", units.Mol); !near(zn, 9e-4) {
		t.Fatalf("Zn left = %v", zn)
	}
	if sorbed, _ := surf.Sorbed("Zn"); !near(sorbed, 2e-4) {
		t.Fatalf("sorbed after interaction = %v", sorbed)
	}
	for _, read := range []func() (float64, error){surf.Sigma, surf.Psi, surf.ChargeBalance} {
		if v, err := read(); err != nil || v != 0 {
			t.Fatalf("property = %v, %v", v, err)
		}
	}

	c, err := surf.Copy()
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	if sorbed, _ := c.Sorbed("Zn"); !near(sorbed, 2e-4) {
		t.Fatalf("copy sorbed = %v", sorbed)
	}
	if err := surf.Forget(); err != nil {
		t.Fatalf("forget: %v", err)
	}
	if got := s.SurfaceNumbers(); !slices.Equal(got, []int{2}) {
		t.Fatalf("surface numbers = %v", got)
	}
	if v, err := surf.Sorbed("Zn"); err != nil || v != solver.Missing {
		t.Fatalf("removed surface = %v, %v", v, err)
	}
	if _, err := s.Surface(2).Sorbed("Zn"); err != nil {
		t.Fatalf("handle by number: %v", err)
	}
}

func TestSurfaceMissingReadsSentinel(t *testing.T) {
	s, _ := newTestSession(t)
	surf, err := s.AddSurface(map[string]string{"Hfo_s": "1e-5", "Hfo_w": "2e-4"}, nil, SurfaceOptions{})
	if err != nil {
		t.Fatalf("add surface: %v", err)
	}
	if err := surf.Forget(); err != nil {
		t.Fatalf("forget: %v", err)
	}
	for name, h := range map[string]*Surface{"forgotten": surf, "never created": s.Surface(99)} {
		for _, read := range []func() (float64, error){h.Thickness, h.ChargeBalance, h.Sigma, h.Psi} {
			if v, err := read(); err != nil || v != solver.Missing {
				t.Fatalf("%s: property = %v, %v", name, v, err)
			}
		}
		if v, err := h.Sorbed("Zn"); err != nil || v != solver.Missing {
			t.Fatalf("%s: sorbed = %v, %v", name, v, err)
		}
		first, second, err := h.SiteMoles()
		if err != nil || first != solver.Missing || second != solver.Missing {
			t.Fatalf("%s: site moles = %v %v, %v", name, first, second, err)
		}
		if err := h.Refresh(); err != nil {
			t.Fatalf("%s: refresh: %v", name, err)
		}
	}
}

func TestSurfaceSnapshotDeferred(t *testing.T) {
	logger := &recordingLogger{}
	s, _ := newTestSession(t, WithLogger(logger))
	surf, err := s.AddSurface(map[string]string{"Hfo_w": "1e-3"}, nil, SurfaceOptions{DensityUnits: true})
	if err != nil {
		t.Fatalf("single-site surface: %v", err)
	}
	if !logger.has("warn surface snapshot deferred") {
		t.Fatalf("logs = %v", logger.entries)
	}
	if _, err := surf.Sigma(); !errors.Is(err, ErrSurfaceSnapshot) {
		t.Fatalf("sigma: %v", err)
	}
	if _, _, err := surf.SiteMoles(); !errors.Is(err, ErrSurfaceSnapshot) {
		t.Fatalf("site moles: %v", err)
	}
	if got := s.SurfaceNumbers(); !slices.Equal(got, []int{1}) {
		t.Fatalf("surface not created: %v", got)
	}
	if _, err := s.AddSurface(nil, nil, SurfaceOptions{}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("no sites: %v", err)
	}
}
