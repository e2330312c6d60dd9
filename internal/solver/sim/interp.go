package sim

import (
	"fmt"
	"strconv"
	"strings"

	"phreeqcore/internal/formula"
	"phreeqcore/pkg/solver"
)

// gasConstant is R in L·atm/(mol·K).
const gasConstant = 0.08206

// minerals maps the phase names the simulator can dissolve to formulas.
var minerals = map[string]string{
	"Calcite":   "CaCO3",
	"Aragonite": "CaCO3",
	"Dolomite":  "CaMg(CO3)2",
	"Gypsum":    "CaSO4:2H2O",
	"Anhydrite": "CaSO4",
	"Halite":    "NaCl",
	"Sylvite":   "KCl",
	"Fluorite":  "CaF2",
}

var keywords = map[string]bool{
	"SOLUTION": true, "SOLUTION_RAW": true, "REACTION": true, "REACTION_TEMPERATURE": true,
	"USE": true, "SAVE": true, "MIX": true, "EQUILIBRIUM_PHASES": true, "COPY": true,
	"DELETE": true, "DUMP": true, "GAS_PHASE": true, "SURFACE": true,
	"SOLUTION_MASTER_SPECIES": true, "SOLUTION_SPECIES": true, "END": true,
	// accepted without effect
	"TITLE": true, "PRINT": true, "KNOBS": true, "SELECTED_OUTPUT": true, "PHASES": true,
}

type block struct {
	keyword string
	args    []string
	lines   [][]string
}

func parseBlocks(input string) ([]block, error) {
	var blocks []block
	for i, raw := range strings.Split(input, "\n") {
		if j := strings.IndexByte(raw, '#'); j >= 0 {
			raw = raw[:j]
		}
		fields := strings.Fields(raw)
		if len(fields) == 0 {
			continue
		}
		head := fields[0]
		if head == "EQUILIBRIUM" && len(fields) > 1 && fields[1] == "PHASES" {
			head, fields = "EQUILIBRIUM_PHASES", append([]string{"EQUILIBRIUM_PHASES"}, fields[2:]...)
		}
		if keywords[head] {
			blocks = append(blocks, block{keyword: head, args: fields[1:]})
			continue
		}
		if len(blocks) == 0 {
			return nil, fmt.Errorf("line %d: expected a keyword, found %q", i+1, head)
		}
		if len(head) > 3 && isUpperWord(head) {
			return nil, fmt.Errorf("line %d: unknown keyword %q", i+1, head)
		}
		last := &blocks[len(blocks)-1]
		last.lines = append(last.lines, fields)
	}
	return blocks, nil
}

type saveOp struct {
	kind   solver.Kind
	number int
}

// simulation collects one END-terminated unit of work.
type simulation struct {
	defined     map[int]*solution
	order       []int
	current     *solution
	reaction    map[string]float64
	temperature *float64
	phaseDef    map[int]*phaseAssemblage
	usePhases   int
	gasDef      map[int]*gasPhase
	useGas      int
	surfaceDef  map[int]*surface
	useSurface  int
	saves       []saveOp
	copies      [][3]string
	deletes     map[solver.Kind][]int
	deleteAll   bool
	dumps       [][]int
	dumpAll     bool
	empty       bool
}

// none marks an entity slot a simulation does not use.
const none = -1 << 31

func newSimulation() *simulation {
	return &simulation{
		defined:    map[int]*solution{},
		phaseDef:   map[int]*phaseAssemblage{},
		gasDef:     map[int]*gasPhase{},
		surfaceDef: map[int]*surface{},
		deletes:    map[solver.Kind][]int{},
		usePhases:  none,
		useGas:     none,
		useSurface: none,
		empty:      true,
	}
}

func (g *Gateway) interpret(input string) error {
	blocks, err := parseBlocks(input)
	if err != nil {
		return err
	}
	sim := newSimulation()
	for _, b := range blocks {
		if b.keyword == "END" {
			if err := g.finish(sim); err != nil {
				return err
			}
			sim = newSimulation()
			continue
		}
		sim.empty = false
		if err := g.apply(sim, b); err != nil {
			return fmt.Errorf("%s: %w", b.keyword, err)
		}
	}
	if !sim.empty {
		return g.finish(sim)
	}
	return nil
}

func (g *Gateway) apply(sim *simulation, b block) error {
	switch b.keyword {
	case "SOLUTION":
		n, err := headerNumber(b.args)
		if err != nil {
			return err
		}
		s, err := g.parseSolution(b.lines)
		if err != nil {
			return err
		}
		sim.define(n, s)
	case "SOLUTION_RAW":
		n, err := headerNumber(b.args)
		if err != nil {
			return err
		}
		s, err := parseRaw(b.lines)
		if err != nil {
			return err
		}
		sim.define(n, s)
	case "REACTION":
		return g.parseReaction(sim, b.lines)
	case "REACTION_TEMPERATURE":
		if len(b.lines) == 0 {
			return fmt.Errorf("missing temperature")
		}
		t, err := strconv.ParseFloat(b.lines[0][0], 64)
		if err != nil {
			return err
		}
		sim.temperature = &t
	case "USE":
		return g.use(sim, b.args)
	case "SAVE":
		kind, n, err := kindNumber(b.args)
		if err != nil {
			return err
		}
		sim.saves = append(sim.saves, saveOp{kind: kind, number: n})
	case "MIX":
		return g.mix(sim, b.lines)
	case "EQUILIBRIUM_PHASES":
		n, err := headerNumber(b.args)
		if err != nil {
			return err
		}
		p, err := parsePhases(b.lines)
		if err != nil {
			return err
		}
		sim.phaseDef[n] = p
		sim.usePhases = n
	case "COPY":
		if len(b.args) != 3 {
			return fmt.Errorf("expected entity, source and target")
		}
		sim.copies = append(sim.copies, [3]string{b.args[0], b.args[1], b.args[2]})
	case "DELETE":
		return parseDelete(sim, b.lines)
	case "DUMP":
		return parseDump(sim, b.lines)
	case "GAS_PHASE":
		n, err := headerNumber(b.args)
		if err != nil {
			return err
		}
		gas, err := g.parseGas(b.lines)
		if err != nil {
			return err
		}
		sim.gasDef[n] = gas
	case "SURFACE":
		n, err := headerNumber(b.args)
		if err != nil {
			return err
		}
		surf, err := g.parseSurface(b.lines)
		if err != nil {
			return err
		}
		sim.surfaceDef[n] = surf
	case "SOLUTION_MASTER_SPECIES":
		for _, l := range b.lines {
			g.registerMaster(l[0])
		}
	}
	return nil
}

func (sim *simulation) define(n int, s *solution) {
	if _, ok := sim.defined[n]; !ok {
		sim.order = append(sim.order, n)
	}
	sim.defined[n] = s
	sim.current = s.clone()
}

func (g *Gateway) registerMaster(element string) {
	if g.masters == nil {
		g.masters = map[string]bool{}
	}
	if i := strings.IndexByte(element, '('); i > 0 {
		element = element[:i]
	}
	g.masters[element] = true
}

// resolve turns a species, mineral or element name into element counts,
// dropping the water elements H and O.
func (g *Gateway) resolve(name string) (map[string]float64, error) {
	base := name
	if i := strings.IndexByte(base, '('); i > 0 {
		base = base[:i]
	}
	if g.masters[base] {
		return map[string]float64{base: 1}, nil
	}
	if f, ok := minerals[name]; ok {
		name = f
	}
	counts, err := formula.Elements(name)
	if err != nil {
		return nil, err
	}
	for symbol := range counts {
		if _, ok := formula.AtomicMass(symbol); !ok && !g.masters[symbol] {
			return nil, fmt.Errorf("unknown element %q in %q", symbol, name)
		}
	}
	delete(counts, "H")
	delete(counts, "O")
	return counts, nil
}

func (g *Gateway) parseSolution(lines [][]string) (*solution, error) {
	s := newSolution()
	unit := "mmol/kgw"
	type pending struct {
		name  string
		value float64
	}
	var items []pending
	for _, l := range lines {
		key := strings.ToLower(strings.TrimPrefix(l[0], "-"))
		switch key {
		case "ph":
			v, err := value(l)
			if err != nil {
				return nil, err
			}
			s.ph = v
		case "temp", "temperature":
			v, err := value(l)
			if err != nil {
				return nil, err
			}
			s.temp = v
		case "water":
			v, err := value(l)
			if err != nil {
				return nil, err
			}
			s.mass = v
		case "units", "unit":
			if len(l) > 1 {
				unit = strings.ToLower(l[1])
			}
		case "pe", "density", "redox", "isotope", "description":
		default:
			if strings.HasPrefix(l[0], "-") {
				continue
			}
			if len(l) < 2 {
				return nil, fmt.Errorf("missing concentration for %q", l[0])
			}
			v, err := strconv.ParseFloat(l[1], 64)
			if err != nil {
				if strings.EqualFold(l[1], "charge") {
					v = 0
				} else {
					return nil, fmt.Errorf("bad concentration %q for %q", l[1], l[0])
				}
			}
			items = append(items, pending{name: l[0], value: v})
		}
	}
	for _, it := range items {
		if strings.EqualFold(it.name, "alkalinity") || strings.EqualFold(it.name, "alk") {
			continue
		}
		counts, err := g.resolve(it.name)
		if err != nil {
			return nil, err
		}
		mol, err := toMoles(it.name, it.value, unit, s.mass)
		if err != nil {
			return nil, err
		}
		for el, n := range counts {
			s.totals[el] += n * mol
		}
	}
	return s, nil
}

func toMoles(name string, v float64, unit string, kg float64) (float64, error) {
	switch unit {
	case "mol/kgw", "mol/l":
		return v * kg, nil
	case "mmol/kgw", "mmol/l":
		return v * 1e-3 * kg, nil
	case "umol/kgw", "umol/l":
		return v * 1e-6 * kg, nil
	case "mg/kgw", "mg/l", "ppm":
		m, err := formula.Mass(name)
		if err != nil {
			return 0, err
		}
		return v * 1e-3 / m * kg, nil
	case "ug/kgw", "ug/l", "ppb":
		m, err := formula.Mass(name)
		if err != nil {
			return 0, err
		}
		return v * 1e-6 / m * kg, nil
	}
	return 0, fmt.Errorf("unsupported units %q", unit)
}

func parseRaw(lines [][]string) (*solution, error) {
	s := newSolution()
	section := ""
	for _, l := range lines {
		if strings.HasPrefix(l[0], "-") {
			section = strings.ToLower(strings.TrimPrefix(l[0], "-"))
			switch section {
			case "temp", "tc", "temperature":
				v, err := value(l)
				if err != nil {
					return nil, err
				}
				s.temp = v
			case "mass", "mass_water":
				v, err := value(l)
				if err != nil {
					return nil, err
				}
				s.mass = v
			case "ph":
				v, err := value(l)
				if err != nil {
					return nil, err
				}
				s.ph = v
			case "si":
				if len(l) < 3 {
					return nil, fmt.Errorf("malformed -si line")
				}
				v, err := strconv.ParseFloat(l[2], 64)
				if err != nil {
					return nil, err
				}
				s.si[l[1]] = v
			}
			continue
		}
		if section != "totals" || len(l) < 2 {
			continue
		}
		v, err := strconv.ParseFloat(l[1], 64)
		if err != nil {
			return nil, err
		}
		s.totals[l[0]] = v
	}
	return s, nil
}

func (g *Gateway) parseReaction(sim *simulation, lines [][]string) error {
	scale := 1.0
	steps := map[string]float64{}
	for _, l := range lines {
		if isNumber(l[0]) {
			v, _ := strconv.ParseFloat(l[0], 64)
			unit := "mol"
			if len(l) > 1 {
				unit = strings.ToLower(l[1])
			}
			switch unit {
			case "mol", "moles":
				scale = v
			case "mmol":
				scale = v * 1e-3
			case "umol":
				scale = v * 1e-6
			default:
				return fmt.Errorf("unsupported reaction units %q", unit)
			}
			continue
		}
		coef := 1.0
		if len(l) > 1 {
			v, err := strconv.ParseFloat(l[1], 64)
			if err != nil {
				return fmt.Errorf("bad coefficient %q for %q", l[1], l[0])
			}
			coef = v
		}
		counts, err := g.resolve(l[0])
		if err != nil {
			return err
		}
		for el, n := range counts {
			steps[el] += n * coef
		}
	}
	if sim.reaction == nil {
		sim.reaction = map[string]float64{}
	}
	for el, v := range steps {
		sim.reaction[el] += v * scale
	}
	return nil
}

func (g *Gateway) use(sim *simulation, args []string) error {
	kind, n, err := kindNumber(args)
	if err != nil {
		return err
	}
	switch kind {
	case solver.KindSolution:
		s, ok := g.solutions[n]
		if !ok {
			if d, ok := sim.defined[n]; ok {
				s = d
			} else {
				return fmt.Errorf("solution %d not found", n)
			}
		}
		sim.current = s.clone()
	case solver.KindEquilibriumPhase:
		if _, ok := g.phases[n]; !ok {
			if _, ok := sim.phaseDef[n]; !ok {
				return fmt.Errorf("equilibrium_phases %d not found", n)
			}
		}
		sim.usePhases = n
	case solver.KindGasPhase:
		if _, ok := g.gases[n]; !ok {
			return fmt.Errorf("gas_phase %d not found", n)
		}
		sim.useGas = n
	case solver.KindSurface:
		if _, ok := g.surfaces[n]; !ok {
			return fmt.Errorf("surface %d not found", n)
		}
		sim.useSurface = n
	}
	return nil
}

func (g *Gateway) mix(sim *simulation, lines [][]string) error {
	out := &solution{totals: map[string]float64{}, si: map[string]float64{}}
	var weight float64
	for _, l := range lines {
		if len(l) < 2 {
			return fmt.Errorf("malformed mix line")
		}
		n, err := strconv.Atoi(l[0])
		if err != nil {
			return err
		}
		f, err := strconv.ParseFloat(l[1], 64)
		if err != nil {
			return err
		}
		src, ok := g.solutions[n]
		if !ok {
			return fmt.Errorf("solution %d not found", n)
		}
		w := f * src.mass
		out.mass += w
		out.temp += w * src.temp
		out.ph += w * src.ph
		weight += w
		for el, v := range src.totals {
			out.totals[el] += f * v
		}
	}
	if weight == 0 {
		return fmt.Errorf("mixture has no water")
	}
	out.temp /= weight
	out.ph /= weight
	sim.current = out
	return nil
}

func parsePhases(lines [][]string) (*phaseAssemblage, error) {
	p := &phaseAssemblage{rows: map[string]float64{}, si: map[string]float64{}}
	for _, l := range lines {
		if strings.HasPrefix(l[0], "-") {
			continue
		}
		si, amount := 0.0, 10.0
		if len(l) > 1 {
			v, err := strconv.ParseFloat(l[1], 64)
			if err != nil {
				return nil, err
			}
			si = v
		}
		rest := l[min(2, len(l)):]
		if len(rest) > 0 && !isNumber(rest[0]) {
			rest = rest[1:]
		}
		if len(rest) > 0 {
			v, err := strconv.ParseFloat(rest[0], 64)
			if err != nil {
				return nil, err
			}
			amount = v
		}
		p.rows[l[0]] = amount
		p.si[l[0]] = si
	}
	return p, nil
}

func parseDelete(sim *simulation, lines [][]string) error {
	for _, l := range lines {
		opt := strings.ToLower(strings.TrimPrefix(l[0], "-"))
		if opt == "all" {
			sim.deleteAll = true
			continue
		}
		kind, ok := optionKind(opt)
		if !ok {
			return fmt.Errorf("unknown entity %q", l[0])
		}
		numbers, err := parseNumbers(l[1:])
		if err != nil {
			return err
		}
		sim.deletes[kind] = append(sim.deletes[kind], numbers...)
	}
	return nil
}

func parseDump(sim *simulation, lines [][]string) error {
	for _, l := range lines {
		switch strings.ToLower(strings.TrimPrefix(l[0], "-")) {
		case "solution", "solutions":
			numbers, err := parseNumbers(l[1:])
			if err != nil {
				return err
			}
			if len(numbers) == 0 {
				sim.dumpAll = true
				continue
			}
			sim.dumps = append(sim.dumps, numbers)
		case "all":
			sim.dumpAll = true
		}
	}
	return nil
}

func (g *Gateway) parseGas(lines [][]string) (*gasPhase, error) {
	gas := &gasPhase{pressure: 1, volume: 1, components: map[string]float64{}}
	temp := 25.0
	partial := map[string]float64{}
	for _, l := range lines {
		opt := strings.ToLower(strings.TrimPrefix(l[0], "-"))
		switch {
		case opt == "fixed_pressure":
			gas.fixedPressure = true
		case opt == "fixed_volume":
			gas.fixedVolume = true
		case opt == "pressure" || opt == "volume" || opt == "temperature" || opt == "temp":
			v, err := value(l)
			if err != nil {
				return nil, err
			}
			switch opt {
			case "pressure":
				gas.pressure = v
			case "volume":
				gas.volume = v
			default:
				temp = v
			}
		case opt == "equilibrium" || opt == "equilibrate":
			n, err := headerNumber(l[1:])
			if err != nil {
				return nil, err
			}
			if _, ok := g.solutions[n]; !ok {
				return nil, fmt.Errorf("solution %d not found for gas equilibration", n)
			}
		case strings.HasPrefix(l[0], "-"):
		default:
			p := 0.0
			if len(l) > 1 {
				v, err := strconv.ParseFloat(l[1], 64)
				if err != nil {
					return nil, err
				}
				p = v
			}
			partial[l[0]] = p
		}
	}
	rt := gasConstant * (temp + 273.15)
	for name, p := range partial {
		gas.components[name] = p * gas.volume / rt
	}
	return gas, nil
}

func (g *Gateway) parseSurface(lines [][]string) (*surface, error) {
	surf := &surface{sites: map[string]string{}, sorbed: map[string]map[string]float64{}}
	var with *solution
	for _, l := range lines {
		opt := strings.ToLower(strings.TrimPrefix(l[0], "-"))
		switch {
		case strings.HasPrefix(opt, "equil"):
			n, err := headerNumber(l[1:])
			if err != nil {
				return nil, err
			}
			s, ok := g.solutions[n]
			if !ok {
				return nil, fmt.Errorf("solution %d not found for surface equilibration", n)
			}
			surf.equilibrate = n
			with = s.clone()
		case strings.HasPrefix(l[0], "-"):
		default:
			surf.sites[l[0]] = strings.Join(l[1:], " ")
		}
	}
	if len(surf.sites) == 0 {
		return nil, fmt.Errorf("surface defines no sites")
	}
	if with != nil {
		surf.sorb(with)
	}
	return surf, nil
}

// sorb moves sorbedFraction of every element of s onto the surface, split
// equally over its site types.
func (surf *surface) sorb(s *solution) {
	sites := surf.siteNames()
	if len(sites) == 0 {
		return
	}
	for el, v := range s.totals {
		taken := v * sorbedFraction
		s.totals[el] = v - taken
		for _, site := range sites {
			if surf.sorbed[site] == nil {
				surf.sorbed[site] = map[string]float64{}
			}
			surf.sorbed[site][el] += taken / float64(len(sites))
		}
	}
}

// finish closes one simulation: definitions become entities, the current
// solution is reacted and saved, and copy, delete and dump requests run.
func (g *Gateway) finish(sim *simulation) error {
	for _, c := range sim.copies {
		if err := g.copyEntity(c); err != nil {
			return fmt.Errorf("COPY: %w", err)
		}
	}
	for _, n := range sim.order {
		g.solutions[n] = sim.defined[n].clone()
	}
	for n, p := range sim.phaseDef {
		g.phases[n] = p.clone()
	}
	for n, gas := range sim.gasDef {
		g.gases[n] = gas.clone()
	}
	for n, surf := range sim.surfaceDef {
		g.surfaces[n] = surf.clone()
	}
	if len(sim.saves) > 0 {
		if err := g.react(sim); err != nil {
			return err
		}
	}
	g.deleteEntities(sim)
	if sim.dumpAll || len(sim.dumps) > 0 {
		g.writeDump(sim)
	}
	return nil
}

func (g *Gateway) react(sim *simulation) error {
	result := sim.current
	if result != nil {
		result = result.clone()
		for el, v := range sim.reaction {
			result.totals[el] = max(result.totals[el]+v, 0)
		}
		if sim.temperature != nil {
			result.temp = *sim.temperature
		}
		if p, ok := g.phases[sim.usePhases]; ok {
			for phase, amount := range p.rows {
				if amount <= 0 {
					continue
				}
				result.si[phase] = p.si[phase]
				if phase == "Fix_pH" {
					result.ph = -p.si[phase]
				}
			}
		}
		if surf, ok := g.surfaces[sim.useSurface]; ok {
			surf.sorb(result)
		}
	}
	for _, sv := range sim.saves {
		switch sv.kind {
		case solver.KindSolution:
			if result == nil {
				return fmt.Errorf("SAVE: no solution to save as %d", sv.number)
			}
			g.solutions[sv.number] = result.clone()
		case solver.KindEquilibriumPhase:
			if p, ok := g.phases[sim.usePhases]; ok {
				g.phases[sv.number] = p.clone()
			}
		case solver.KindGasPhase:
			if gas, ok := g.gases[sim.useGas]; ok {
				g.gases[sv.number] = gas.clone()
			}
		case solver.KindSurface:
			if surf, ok := g.surfaces[sim.useSurface]; ok {
				g.surfaces[sv.number] = surf.clone()
			}
		}
	}
	return nil
}

func (g *Gateway) copyEntity(c [3]string) error {
	kind, ok := optionKind(strings.ToLower(c[0]))
	if !ok {
		return fmt.Errorf("unknown entity %q", c[0])
	}
	from, err := strconv.Atoi(c[1])
	if err != nil {
		return err
	}
	to, err := strconv.Atoi(c[2])
	if err != nil {
		return err
	}
	switch kind {
	case solver.KindSolution:
		s, ok := g.solutions[from]
		if !ok {
			return fmt.Errorf("solution %d not found", from)
		}
		g.solutions[to] = s.clone()
	case solver.KindGasPhase:
		gas, ok := g.gases[from]
		if !ok {
			return fmt.Errorf("gas_phase %d not found", from)
		}
		g.gases[to] = gas.clone()
	case solver.KindEquilibriumPhase:
		p, ok := g.phases[from]
		if !ok {
			return fmt.Errorf("equilibrium_phases %d not found", from)
		}
		g.phases[to] = p.clone()
	case solver.KindSurface:
		surf, ok := g.surfaces[from]
		if !ok {
			return fmt.Errorf("surface %d not found", from)
		}
		g.surfaces[to] = surf.clone()
	}
	return nil
}

func (g *Gateway) deleteEntities(sim *simulation) {
	if sim.deleteAll {
		clear(g.solutions)
		clear(g.gases)
		clear(g.phases)
		clear(g.surfaces)
		return
	}
	for kind, numbers := range sim.deletes {
		for _, n := range numbers {
			switch kind {
			case solver.KindSolution:
				delete(g.solutions, n)
			case solver.KindGasPhase:
				delete(g.gases, n)
			case solver.KindEquilibriumPhase:
				delete(g.phases, n)
			case solver.KindSurface:
				delete(g.surfaces, n)
			}
		}
	}
}

func (g *Gateway) writeDump(sim *simulation) {
	if !g.capture {
		return
	}
	var numbers []int
	if sim.dumpAll {
		numbers = sortedKeys(g.solutions)
	} else {
		for _, list := range sim.dumps {
			numbers = append(numbers, list...)
		}
	}
	var b strings.Builder
	for _, n := range numbers {
		if s, ok := g.solutions[n]; ok {
			dumpSolution(&b, n, s)
		}
	}
	g.dump = []byte(b.String())
}

func optionKind(opt string) (solver.Kind, bool) {
	switch opt {
	case "solution", "solutions":
		return solver.KindSolution, true
	case "gas_phase", "gas_phases":
		return solver.KindGasPhase, true
	case "equilibrium_phases", "equilibrium_phase":
		return solver.KindEquilibriumPhase, true
	case "surface", "surfaces":
		return solver.KindSurface, true
	}
	return "", false
}

func kindNumber(args []string) (solver.Kind, int, error) {
	if len(args) < 1 {
		return "", 0, fmt.Errorf("missing entity")
	}
	kind, ok := optionKind(strings.ToLower(args[0]))
	if !ok {
		return "", 0, fmt.Errorf("unknown entity %q", args[0])
	}
	n, err := headerNumber(args[1:])
	return kind, n, err
}

// headerNumber reads the entity number of a block header; it defaults to 1.
func headerNumber(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("bad entity number %q", args[0])
	}
	return n, nil
}

// parseNumbers reads entity numbers and "a-b" ranges.
func parseNumbers(fields []string) ([]int, error) {
	var out []int
	for _, f := range fields {
		if lo, hi, ok := strings.Cut(f, "-"); ok && lo != "" {
			a, err := strconv.Atoi(lo)
			if err != nil {
				return nil, err
			}
			b, err := strconv.Atoi(hi)
			if err != nil {
				return nil, err
			}
			for n := a; n <= b; n++ {
				out = append(out, n)
			}
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("bad entity number %q", f)
		}
		out = append(out, n)
	}
	return out, nil
}

func value(l []string) (float64, error) {
	if len(l) < 2 {
		return 0, fmt.Errorf("missing value for %q", l[0])
	}
	return strconv.ParseFloat(l[1], 64)
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func isUpperWord(s string) bool {
	for _, r := range s {
		if (r < 'A' || r > 'Z') && r != '_' {
			return false
		}
	}
	return s != ""
}

func itoa(n int) string { return strconv.Itoa(n) }

func ftoa(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
