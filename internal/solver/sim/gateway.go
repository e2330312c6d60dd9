// Package sim provides an in-process solver.Gateway that interprets the
// keyword grammar and tracks entities and element totals without doing any
// speciation. Scalar reads are deterministic stand-ins: pH stays at 7 unless
// a Fix_pH equilibration sets it, conductivity and ionic strength scale with
// the dissolved totals. It backs tests and the CLI when no native engine is
// linked.
package sim

import (
	"encoding/json"
	"maps"
	"strings"
	"sync"

	"phreeqcore/pkg/solver"
)

// sorbedFraction is the share of every dissolved element a surface takes up
// when it is equilibrated with a solution.
const sorbedFraction = 0.1

// Gateway is the simulated engine.
type Gateway struct {
	mu        sync.Mutex
	database  string
	solutions map[int]*solution
	gases     map[int]*gasPhase
	phases    map[int]*phaseAssemblage
	surfaces  map[int]*surface
	masters   map[string]bool
	errText   string
	capture   bool
	dump      []byte
	inputs    []string
	closed    bool
}

var _ solver.Gateway = (*Gateway)(nil)

// New returns an empty simulated engine.
func New() *Gateway {
	return &Gateway{
		solutions: map[int]*solution{},
		gases:     map[int]*gasPhase{},
		phases:    map[int]*phaseAssemblage{},
		surfaces:  map[int]*surface{},
	}
}

// LoadDatabase records the database path; the simulator needs no data.
func (g *Gateway) LoadDatabase(path string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.database = path
	return 0
}

// Database returns the last loaded database path.
func (g *Gateway) Database() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.database
}

// Run interprets input. Interpretation stops at the first error, which is
// reported as a count of one, and every change made by input is discarded.
func (g *Gateway) Run(input string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inputs = append(g.inputs, input)
	g.errText = ""
	if g.closed {
		g.errText = "ERROR: engine instance closed"
		return 1
	}
	saved := g.checkpoint()
	if err := g.interpret(input); err != nil {
		g.restore(saved)
		g.errText = "ERROR: " + err.Error()
		return 1
	}
	return 0
}

type checkpoint struct {
	solutions map[int]*solution
	gases     map[int]*gasPhase
	phases    map[int]*phaseAssemblage
	surfaces  map[int]*surface
	masters   map[string]bool
}

// checkpoint copies the entity maps so a failing run leaves no partial state.
func (g *Gateway) checkpoint() checkpoint {
	return checkpoint{
		solutions: cloneAll(g.solutions, (*solution).clone),
		gases:     cloneAll(g.gases, (*gasPhase).clone),
		phases:    cloneAll(g.phases, (*phaseAssemblage).clone),
		surfaces:  cloneAll(g.surfaces, (*surface).clone),
		masters:   maps.Clone(g.masters),
	}
}

func (g *Gateway) restore(c checkpoint) {
	g.solutions, g.gases, g.phases, g.surfaces, g.masters = c.solutions, c.gases, c.phases, c.surfaces, c.masters
}

func cloneAll[V any](m map[int]V, clone func(V) V) map[int]V {
	out := make(map[int]V, len(m))
	for k, v := range m {
		out[k] = clone(v)
	}
	return out
}

// ErrorString returns the error text of the last Run.
func (g *Gateway) ErrorString() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.errText
}

// Inputs returns every command text submitted so far.
func (g *Gateway) Inputs() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.inputs))
	copy(out, g.inputs)
	return out
}

// Scalar implements solver.Gateway.
func (g *Gateway) Scalar(q solver.Query) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch q.Property {
	case solver.PropGasPressure, solver.PropGasVolume, solver.PropGasTotalMoles, solver.PropGasMoles:
		return g.gasScalar(q)
	case solver.PropPhaseMoles:
		p, ok := g.phases[q.Number]
		if !ok {
			return solver.Missing
		}
		v, ok := p.rows[q.Name]
		if !ok {
			return solver.Missing
		}
		return v
	}
	s, ok := g.solutions[q.Number]
	if !ok {
		return solver.Missing
	}
	switch q.Property {
	case solver.PropPH:
		return s.ph
	case solver.PropPe:
		return 4
	case solver.PropSC:
		return 1e5 * sum(s.totals) / s.mass
	case solver.PropMu:
		return 0.5 * sum(s.totals) / s.mass
	case solver.PropTemperature:
		return s.temp
	case solver.PropMass:
		return s.mass
	case solver.PropTotal, solver.PropTotalElement:
		return s.molality(q.Name)
	case solver.PropMoles:
		return s.totals[q.Name]
	case solver.PropMolality:
		return s.molality(q.Name)
	case solver.PropActivity:
		return 0.9 * s.molality(q.Name)
	case solver.PropSI:
		v, ok := s.si[q.Name]
		if !ok {
			return solver.Missing
		}
		return v
	}
	return solver.Missing
}

func (g *Gateway) gasScalar(q solver.Query) float64 {
	gas, ok := g.gases[q.Number]
	if !ok {
		return solver.Missing
	}
	switch q.Property {
	case solver.PropGasPressure:
		return gas.pressure
	case solver.PropGasVolume:
		return gas.volume
	case solver.PropGasTotalMoles:
		return sum(gas.components)
	default:
		v, ok := gas.components[q.Name]
		if !ok {
			return solver.Missing
		}
		return v
	}
}

// List implements solver.Gateway.
func (g *Gateway) List(kind solver.ListKind, number int) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch kind {
	case solver.ListGasComponents:
		if gas, ok := g.gases[number]; ok {
			return sortedNames(gas.components)
		}
		return nil
	case solver.ListPhaseComponents:
		if p, ok := g.phases[number]; ok {
			return sortedNames(p.rows)
		}
		return nil
	}
	s, ok := g.solutions[number]
	if !ok {
		return nil
	}
	switch kind {
	case solver.ListSpecies, solver.ListElements:
		return s.elements()
	case solver.ListPhases:
		return sortedNames(s.si)
	}
	return nil
}

// SurfaceJSON implements solver.Gateway. Surfaces with other than two site
// types export a component list of the wrong length on purpose: the engine
// contract only defines the two-site layout.
func (g *Gateway) SurfaceJSON(number int) []byte {
	g.mu.Lock()
	defer g.mu.Unlock()
	surf, ok := g.surfaces[number]
	if !ok {
		return nil
	}
	st := solver.SurfaceState{Number: number, Thickness: 1e-8}
	aggregate := solver.SurfaceComponent{Name: "aggregate", Totals: map[string]float64{}}
	for _, site := range surf.siteNames() {
		c := solver.SurfaceComponent{Name: site, Totals: map[string]float64{}}
		for el, v := range surf.sorbed[site] {
			c.Totals[el] = v
			c.Moles += v
			aggregate.Totals[el] += v
		}
		aggregate.Moles += c.Moles
		st.Components = append(st.Components, c)
	}
	st.Components = append(st.Components, aggregate)
	data, err := json.Marshal(st)
	if err != nil {
		return nil
	}
	return data
}

// SetDumpCapture implements solver.Gateway.
func (g *Gateway) SetDumpCapture(on bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.capture = on
	if !on {
		g.dump = nil
	}
}

// DumpString implements solver.Gateway.
func (g *Gateway) DumpString() []byte {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]byte, len(g.dump))
	copy(out, g.dump)
	return out
}

// EntityNumbers implements solver.Gateway.
func (g *Gateway) EntityNumbers(kind solver.Kind) []int {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch kind {
	case solver.KindSolution:
		return sortedKeys(g.solutions)
	case solver.KindGasPhase:
		return sortedKeys(g.gases)
	case solver.KindEquilibriumPhase:
		return sortedKeys(g.phases)
	case solver.KindSurface:
		return sortedKeys(g.surfaces)
	}
	return nil
}

// Close marks the instance unusable.
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	return nil
}

func sum(m map[string]float64) float64 {
	var total float64
	for _, v := range m {
		total += v
	}
	return total
}

func dumpSolution(b *strings.Builder, n int, s *solution) {
	b.WriteString("SOLUTION_RAW " + itoa(n) + "\n")
	b.WriteString("  -temp " + ftoa(s.temp) + "\n")
	b.WriteString("  -mass " + ftoa(s.mass) + "\n")
	b.WriteString("  -ph " + ftoa(s.ph) + "\n")
	b.WriteString("  -totals\n")
	for _, el := range sortedNames(s.totals) {
		b.WriteString("    " + el + " " + ftoa(s.totals[el]) + "\n")
	}
	for _, phase := range sortedNames(s.si) {
		b.WriteString("  -si " + phase + " " + ftoa(s.si[phase]) + "\n")
	}
}
