package session

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/google/uuid"

	"phreeqcore/internal/blob"
	"phreeqcore/internal/command"
	"phreeqcore/internal/persistence"
	"phreeqcore/pkg/solver"
	"phreeqcore/pkg/units"
)

// scratchPhases is the EQUILIBRIUM_PHASES number used by one-off
// equilibrations. Counters start above it, so it never shadows an allocated
// assemblage.
const scratchPhases = 0

// Session owns one engine instance and the entity numbering on top of it.
// A Session is not safe for concurrent use.
type Session struct {
	id uuid.UUID
	gw solver.Gateway

	solutions int
	gases     int
	phases    int
	surfaces  int

	extraneous     map[int]Extraneous
	pendingSpecies []string

	database string
	logger   Logger
	metrics  MetricsRecorder
	blobs    blob.Store
	meta     persistence.Store
	units    *units.Converter
}

// New loads the configured database into gw and returns an empty session.
// A missing database file fails with ErrConfiguration before gw is touched.
func New(gw solver.Gateway, opts ...Option) (*Session, error) {
	if gw == nil {
		return nil, fmt.Errorf("%w: nil gateway", ErrConfiguration)
	}
	cfg := newConfig(opts)
	if cfg.database == "" {
		return nil, fmt.Errorf("%w: no database configured (set %s)", ErrConfiguration, EnvDatabase)
	}
	info, err := os.Stat(cfg.database)
	if err != nil {
		return nil, fmt.Errorf("%w: database %q: %v", ErrConfiguration, cfg.database, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: database %q is a directory", ErrConfiguration, cfg.database)
	}
	s := &Session{
		id:         uuid.New(),
		gw:         gw,
		extraneous: map[int]Extraneous{},
		database:   cfg.database,
		logger:     cfg.logger,
		metrics:    cfg.metrics,
		blobs:      cfg.blobs,
		meta:       cfg.meta,
		units:      units.NewConverter(nil),
	}
	start := time.Now()
	count := gw.LoadDatabase(cfg.database)
	err = solver.Check(gw, count, "")
	s.metrics.Observe(context.Background(), "load_database", err == nil, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("load database %q: %w", cfg.database, err)
	}
	s.logger.Info("session started", "session", s.id.String(), "database", cfg.database)
	return s, nil
}

// ID returns the session identity used to reject cross-session operations.
func (s *Session) ID() uuid.UUID { return s.id }

// Gateway returns the engine the session drives.
func (s *Session) Gateway() solver.Gateway { return s.gw }

// Close releases the engine.
func (s *Session) Close() error { return s.gw.Close() }

// run submits command text. Counters already allocated for the operation are
// kept when the engine reports errors.
func (s *Session) run(op, input string) error {
	start := time.Now()
	s.logger.Debug("engine run", "op", op, "input", input)
	count := s.gw.Run(input)
	err := solver.Check(s.gw, count, input)
	s.metrics.Observe(context.Background(), op, err == nil, time.Since(start))
	if err != nil {
		s.logger.Error("engine run failed", "op", op, "error", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Session) owns(other *Session) error {
	if other == nil || other.id != s.id {
		return ErrCrossSession
	}
	return nil
}

func (s *Session) nextSolution() int { s.solutions++; return s.solutions }
func (s *Session) nextGas() int      { s.gases++; return s.gases }
func (s *Session) nextPhase() int    { s.phases++; return s.phases }
func (s *Session) nextSurface() int  { s.surfaces++; return s.surfaces }

// Composition maps species or SOLUTION keywords to their verbatim values.
type Composition map[string]string

// Amounts builds a Composition from numeric amounts.
func Amounts(m map[string]float64) Composition {
	c := make(Composition, len(m))
	for k, v := range m {
		c[k] = command.Float(v)
	}
	return c
}

// AddSolution defines a new solution whose composition lines are written
// verbatim. An empty composition yields pure water.
func (s *Session) AddSolution(c Composition, extra Extraneous) (*Solution, error) {
	n := s.nextSolution()
	input := command.New().
		Solution(n, command.SortedEntries(c, func(v string) string { return v })).
		Save(solver.KindSolution, n).
		End().
		String()
	if err := s.run("add_solution", input); err != nil {
		return nil, err
	}
	if extra != nil {
		s.extraneous[n] = extra.Clone()
	}
	return s.solution(n), nil
}

// AddSolutionRaw is AddSolution without extraneous metadata.
func (s *Session) AddSolutionRaw(c Composition) (*Solution, error) {
	return s.AddSolution(c, nil)
}

// AddSolutionSimple starts from pure water at temperature and adds every
// component through a reaction step, converting amounts from unit to mmol.
func (s *Session) AddSolutionSimple(composition map[string]float64, temperature float64, unit units.Unit) (*Solution, error) {
	deltas, err := s.toMmol(composition, unit)
	if err != nil {
		return nil, err
	}
	n := s.nextSolution()
	script := command.New().Solution(n, nil).Temperature(temperature)
	if len(deltas) > 0 {
		script.Reaction(1, command.SortedEntries(deltas, command.Float))
	}
	input := script.Save(solver.KindSolution, n).End().String()
	if err := s.run("add_solution_simple", input); err != nil {
		return nil, err
	}
	return s.solution(n), nil
}

func (s *Session) toMmol(amounts map[string]float64, unit units.Unit) (map[string]float64, error) {
	out := make(map[string]float64, len(amounts))
	for species, v := range amounts {
		mmol, err := s.units.Convert(species, v, unit, units.Mmol)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		out[species] = mmol
	}
	return out, nil
}

// ChangeSolution adds millimole deltas to solution number. With createNew the
// result is saved under a fresh number and the original is left untouched.
func (s *Session) ChangeSolution(number int, elements map[string]float64, createNew bool) (*Solution, error) {
	target := number
	if createNew {
		target = s.nextSolution()
	}
	input := command.New().
		Use(solver.KindSolution, number).
		Reaction(1, command.SortedEntries(elements, command.Float)).
		Save(solver.KindSolution, target).
		End().
		String()
	if err := s.run("change_solution", input); err != nil {
		return nil, err
	}
	return s.solution(target), nil
}

// Change is ChangeSolution in place with amounts given in unit.
func (s *Session) Change(number int, elements map[string]float64, unit units.Unit) (*Solution, error) {
	deltas, err := s.toMmol(elements, unit)
	if err != nil {
		return nil, err
	}
	return s.ChangeSolution(number, deltas, false)
}

// ChangeSolutionTemperature sets the temperature of solution number.
func (s *Session) ChangeSolutionTemperature(number int, temperature float64) (*Solution, error) {
	input := command.New().
		Use(solver.KindSolution, number).
		ReactionTemperature(1, temperature).
		Save(solver.KindSolution, number).
		End().
		String()
	if err := s.run("change_solution_temperature", input); err != nil {
		return nil, err
	}
	return s.solution(number), nil
}

// EqualizeSolution equilibrates solution number against phases. Modifier
// lists shorter than phases are padded with the defaults of
// command.Broadcast: SI 0, amount 10, no alternative chemical.
func (s *Session) EqualizeSolution(number int, phases []string, toSI, inPhase []float64, withChemical []string) (*Solution, error) {
	if len(phases) == 0 {
		return nil, invalid("no phases to equalize")
	}
	return s.equalize(number, command.Broadcast(phases, toSI, inPhase, withChemical))
}

// EqualizePhase is the single-phase form: every modifier is taken as a
// one-element list regardless of what the list form would pad.
func (s *Session) EqualizePhase(number int, phase string, toSI, inPhase float64, withChemical string) (*Solution, error) {
	return s.equalize(number, command.Broadcast([]string{phase}, []float64{toSI}, []float64{inPhase}, []string{withChemical}))
}

func (s *Session) equalize(number int, rows []command.PhaseRow) (*Solution, error) {
	input := command.New().
		Use(solver.KindSolution, number).
		EquilibriumPhases(scratchPhases, rows).
		Save(solver.KindSolution, number).
		End().
		String()
	if err := s.run("equalize_solution", input); err != nil {
		return nil, err
	}
	return s.solution(number), nil
}

// CopySolution duplicates solution number under a new number. Extraneous
// metadata is not carried; Solution.Copy does that.
func (s *Session) CopySolution(number int) (*Solution, error) {
	n := s.nextSolution()
	if err := s.copyEntity(solver.KindSolution, number, n); err != nil {
		return nil, err
	}
	return s.solution(n), nil
}

// CopyGas duplicates gas phase number under a new number.
func (s *Session) CopyGas(number int) (*Gas, error) {
	n := s.nextGas()
	if err := s.copyEntity(solver.KindGasPhase, number, n); err != nil {
		return nil, err
	}
	return &Gas{s: s, number: n}, nil
}

// CopySurface duplicates surface number under a new number.
func (s *Session) CopySurface(number int) (*Surface, error) {
	n := s.nextSurface()
	if err := s.copyEntity(solver.KindSurface, number, n); err != nil {
		return nil, err
	}
	return s.surface(n), nil
}

func (s *Session) copyEntity(kind solver.Kind, from, to int) error {
	input := command.New().Copy(kind, from, to).End().String()
	return s.run("copy_"+string(kind), input)
}

// RemoveSolutions deletes solutions from the engine. Their numbers are never reused.
func (s *Session) RemoveSolutions(numbers []int) error {
	if err := s.remove(solver.KindSolution, numbers); err != nil {
		return err
	}
	for _, n := range numbers {
		delete(s.extraneous, n)
	}
	return nil
}

// RemoveGases deletes gas phases from the engine.
func (s *Session) RemoveGases(numbers []int) error { return s.remove(solver.KindGasPhase, numbers) }

// RemoveSurfaces deletes surfaces from the engine.
func (s *Session) RemoveSurfaces(numbers []int) error { return s.remove(solver.KindSurface, numbers) }

// RemoveEquilibriumPhases deletes equilibrium phase assemblages from the engine.
func (s *Session) RemoveEquilibriumPhases(numbers []int) error {
	return s.remove(solver.KindEquilibriumPhase, numbers)
}

func (s *Session) remove(kind solver.Kind, numbers []int) error {
	if len(numbers) == 0 {
		return nil
	}
	input := command.New().Delete(kind, numbers).End().String()
	return s.run("remove_"+string(kind), input)
}

// MixSolutions creates a new solution from the given parts. Fractions are
// passed through unnormalised; parts naming the same number are summed.
// Extraneous metadata of handle parts is merged by fraction-weighted sum.
func (s *Session) MixSolutions(parts ...MixPart) (*Solution, error) {
	if len(parts) == 0 {
		return nil, invalid("mix needs at least one part")
	}
	var (
		order    []int
		fraction = map[int]float64{}
		merged   Extraneous
	)
	for _, p := range parts {
		if err := p.validate(); err != nil {
			return nil, err
		}
		n := p.number
		if p.sol != nil {
			if err := s.owns(p.sol.s); err != nil {
				return nil, err
			}
			n = p.sol.number
			if bag := s.extraneous[n]; bag != nil {
				if merged == nil {
					merged = Extraneous{}
				}
				if err := merged.addWeighted(bag, p.fraction); err != nil {
					return nil, err
				}
			}
		}
		if _, seen := fraction[n]; !seen {
			order = append(order, n)
		}
		fraction[n] += p.fraction
	}
	entries := make([]command.MixEntry, len(order))
	for i, n := range order {
		entries[i] = command.MixEntry{Number: n, Fraction: fraction[n]}
	}
	n := s.nextSolution()
	input := command.New().Mix(1, entries).Save(solver.KindSolution, n).End().String()
	if err := s.run("mix_solutions", input); err != nil {
		return nil, err
	}
	if merged != nil {
		s.extraneous[n] = merged
	}
	return s.solution(n), nil
}

// Solution returns a handle for number without checking that it exists.
func (s *Session) Solution(number int) *Solution { return s.solution(number) }

// Gas returns a handle for gas phase number.
func (s *Session) Gas(number int) *Gas { return &Gas{s: s, number: number} }

// EquilibriumPhase returns a handle for assemblage number.
func (s *Session) EquilibriumPhase(number int) *EquilibriumPhase {
	return &EquilibriumPhase{s: s, number: number}
}

// Surface returns a handle for surface number. Its snapshot is fetched on
// first access.
func (s *Session) Surface(number int) *Surface { return &Surface{s: s, number: number} }

func (s *Session) solution(n int) *Solution { return &Solution{s: s, number: n} }

func (s *Session) surface(n int) *Surface {
	surf := &Surface{s: s, number: n}
	if err := surf.Refresh(); err != nil {
		s.logger.Warn("surface snapshot deferred", "surface", n, "error", err)
	}
	return surf
}

// SolutionNumbers lists the solutions resident in the engine.
func (s *Session) SolutionNumbers() []int { return s.gw.EntityNumbers(solver.KindSolution) }

// GasNumbers lists the gas phases resident in the engine.
func (s *Session) GasNumbers() []int { return s.gw.EntityNumbers(solver.KindGasPhase) }

// SurfaceNumbers lists the surfaces resident in the engine.
func (s *Session) SurfaceNumbers() []int { return s.gw.EntityNumbers(solver.KindSurface) }

// EquilibriumPhaseNumbers lists allocated assemblages resident in the engine.
func (s *Session) EquilibriumPhaseNumbers() []int {
	return slices.DeleteFunc(s.gw.EntityNumbers(solver.KindEquilibriumPhase), func(n int) bool {
		return n == scratchPhases
	})
}

// Counters reports the last number allocated per entity kind.
func (s *Session) Counters() persistence.Counters {
	return persistence.Counters{Solutions: s.solutions, Gases: s.gases, Phases: s.phases, Surfaces: s.surfaces}
}

// AddMasterSpecies buffers a SOLUTION_MASTER_SPECIES definition. It is
// submitted together with the next AddSpecies call.
func (s *Session) AddMasterSpecies(element, species string, alkalinity float64, gfw string, gfwElement float64) {
	s.pendingSpecies = append(s.pendingSpecies,
		command.New().MasterSpecies(element, species, alkalinity, gfw, gfwElement).String())
}

// AddSpecies submits a SOLUTION_SPECIES reaction, preceded by any buffered
// master species definitions. The buffer is cleared even on failure.
func (s *Session) AddSpecies(reaction string, logK float64, options ...string) error {
	script := command.New()
	for _, pending := range s.pendingSpecies {
		script.Raw(pending)
	}
	s.pendingSpecies = nil
	input := script.Species(reaction, logK, options...).End().String()
	return s.run("add_species", input)
}

// InteractSolutionGas equilibrates sol with gas and saves both.
func (s *Session) InteractSolutionGas(sol *Solution, gas *Gas) error {
	if gas == nil {
		return invalid("nil gas phase")
	}
	return s.interact(sol, gas)
}

// InteractSolutionPhase equilibrates sol with an equilibrium phase assemblage and saves both.
func (s *Session) InteractSolutionPhase(sol *Solution, phase *EquilibriumPhase) error {
	if phase == nil {
		return invalid("nil equilibrium phase")
	}
	return s.interact(sol, phase)
}

// InteractSolutionSurface equilibrates sol with a surface and saves both.
// The surface snapshot is refreshed afterwards.
func (s *Session) InteractSolutionSurface(sol *Solution, surf *Surface) error {
	if surf == nil {
		return invalid("nil surface")
	}
	if err := s.interact(sol, surf); err != nil {
		return err
	}
	surf.snapshot = nil
	return nil
}

func (s *Session) interact(sol *Solution, other Entity) error {
	if sol == nil || other == nil {
		return invalid("interaction needs a solution and an entity")
	}
	if err := s.owns(sol.s); err != nil {
		return err
	}
	if err := s.owns(other.session()); err != nil {
		return err
	}
	input := command.Interaction(sol.number, other.Kind(), other.Number())
	return s.run("interact_solution_"+string(other.Kind()), input)
}

// Entity is a handle that can take part in an interaction with a solution.
type Entity interface {
	Kind() solver.Kind
	Number() int
	session() *Session
}

// Extraneous is user metadata attached to a solution. Leaves are numbers or
// nested maps.
type Extraneous map[string]any

// Clone returns a deep copy.
func (e Extraneous) Clone() Extraneous {
	if e == nil {
		return nil
	}
	out := make(Extraneous, len(e))
	for k, v := range e {
		switch nested := v.(type) {
		case Extraneous:
			out[k] = nested.Clone()
		case map[string]any:
			out[k] = Extraneous(nested).Clone()
		default:
			out[k] = v
		}
	}
	return out
}

// addWeighted adds fraction*src into e, recursing through nested maps. A key
// holding a number in one bag and a map in the other is rejected.
func (e Extraneous) addWeighted(src Extraneous, fraction float64) error {
	for _, k := range slices.Sorted(maps.Keys(src)) {
		switch v := src[k].(type) {
		case Extraneous:
			child, err := e.nested(k)
			if err != nil {
				return err
			}
			if err := child.addWeighted(v, fraction); err != nil {
				return err
			}
		case map[string]any:
			child, err := e.nested(k)
			if err != nil {
				return err
			}
			if err := child.addWeighted(Extraneous(v), fraction); err != nil {
				return err
			}
		default:
			x, ok := toFloat(v)
			if !ok {
				return invalid("extraneous %q: unsupported value %T", k, v)
			}
			prev, ok := toFloat(e[k])
			if !ok {
				return invalid("extraneous %q: number merged into a nested map", k)
			}
			e[k] = prev + x*fraction
		}
	}
	return nil
}

func (e Extraneous) nested(k string) (Extraneous, error) {
	switch v := e[k].(type) {
	case Extraneous:
		return v, nil
	case map[string]any:
		e[k] = Extraneous(v)
		return Extraneous(v), nil
	case nil:
		child := Extraneous{}
		e[k] = child
		return child, nil
	default:
		return nil, invalid("extraneous %q: nested map merged into a number", k)
	}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case nil:
		return 0, true
	}
	return 0, false
}

func isNotFound(err error) bool { return errors.Is(err, persistence.ErrNotFound) }
