package sim

import (
	"maps"
	"sort"
)

// defaultPH is the pH of every solution the simulator has not titrated.
const defaultPH = 7.0

type solution struct {
	temp   float64
	mass   float64            // kg of water
	ph     float64            // set by Fix_pH equilibration
	totals map[string]float64 // element -> mol
	si     map[string]float64 // phase -> saturation index after equilibration
}

func newSolution() *solution {
	return &solution{temp: 25, mass: 1, ph: defaultPH, totals: map[string]float64{}, si: map[string]float64{}}
}

func (s *solution) clone() *solution {
	c := *s
	c.totals = maps.Clone(s.totals)
	c.si = maps.Clone(s.si)
	return &c
}

func (s *solution) molality(element string) float64 {
	if s.mass == 0 {
		return 0
	}
	return s.totals[element] / s.mass
}

func (s *solution) elements() []string {
	out := make([]string, 0, len(s.totals))
	for el, v := range s.totals {
		if v != 0 {
			out = append(out, el)
		}
	}
	sort.Strings(out)
	return out
}

type gasPhase struct {
	pressure      float64
	volume        float64
	fixedPressure bool
	fixedVolume   bool
	components    map[string]float64 // component -> mol
}

func (g *gasPhase) clone() *gasPhase {
	c := *g
	c.components = maps.Clone(g.components)
	return &c
}

type phaseAssemblage struct {
	rows map[string]float64 // phase -> mol present
	si   map[string]float64 // phase -> target saturation index
}

func (p *phaseAssemblage) clone() *phaseAssemblage {
	return &phaseAssemblage{rows: maps.Clone(p.rows), si: maps.Clone(p.si)}
}

type surface struct {
	equilibrate int
	sites       map[string]string
	sorbed      map[string]map[string]float64 // site -> element -> mol
}

func (s *surface) clone() *surface {
	c := &surface{equilibrate: s.equilibrate, sites: maps.Clone(s.sites), sorbed: map[string]map[string]float64{}}
	for site, totals := range s.sorbed {
		c.sorbed[site] = maps.Clone(totals)
	}
	return c
}

func (s *surface) siteNames() []string {
	out := make([]string, 0, len(s.sites))
	for name := range s.sites {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func sortedKeys[V any](m map[int]V) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func sortedNames[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
