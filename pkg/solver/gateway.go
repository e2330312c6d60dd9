// Package solver defines the boundary to the native speciation engine. All
// command text is submitted and all entity state is read through a Gateway.
package solver

// Missing is the value scalar reads return for an entity number or name the
// engine does not hold. Callers compare against it instead of handling errors.
const Missing = -999.0

// Kind identifies a class of numbered entity held by the engine.
type Kind string

const (
	KindSolution         Kind = "solution"
	KindGasPhase         Kind = "gas_phase"
	KindEquilibriumPhase Kind = "equilibrium_phases"
	KindSurface          Kind = "surface"
)

// Keyword returns the command keyword naming the kind ("SOLUTION", "GAS_PHASE", ...).
func (k Kind) Keyword() string {
	switch k {
	case KindSolution:
		return "SOLUTION"
	case KindGasPhase:
		return "GAS_PHASE"
	case KindEquilibriumPhase:
		return "EQUILIBRIUM_PHASES"
	case KindSurface:
		return "SURFACE"
	default:
		return ""
	}
}

// Property identifies a scalar read.
type Property string

const (
	PropPH            Property = "ph"
	PropPe            Property = "pe"
	PropSC            Property = "sc"
	PropMu            Property = "mu" // ionic strength
	PropTemperature   Property = "temperature"
	PropMass          Property = "mass" // kg of water
	PropTotal         Property = "total"
	PropTotalElement  Property = "total_element"
	PropMoles         Property = "moles"
	PropMolality      Property = "molality"
	PropActivity      Property = "activity"
	PropSI            Property = "si"
	PropGasPressure   Property = "gas_pressure"
	PropGasVolume     Property = "gas_volume"
	PropGasTotalMoles Property = "gas_total_moles"
	PropGasMoles      Property = "gas_component_moles"
	PropPhaseMoles    Property = "phase_component_moles"
)

// Query addresses a scalar read. Name carries the species, element or phase
// for properties that need one and is empty otherwise.
type Query struct {
	Property Property
	Number   int
	Name     string
}

// ListKind identifies a name listing for one entity.
type ListKind string

const (
	ListSpecies         ListKind = "species"
	ListPhases          ListKind = "phases"
	ListElements        ListKind = "elements"
	ListGasComponents   ListKind = "gas_components"
	ListPhaseComponents ListKind = "phase_components"
)

// Gateway is the single channel to the engine. Implementations are stateful
// and single-owner; callers serialise access.
type Gateway interface {
	// LoadDatabase loads a thermodynamic database file and returns its error count.
	LoadDatabase(path string) int
	// Run executes command text and returns the number of errors it produced.
	Run(input string) int
	// ErrorString returns the accumulated error text of the last failing call.
	ErrorString() string
	// Scalar reads one value, returning Missing for unknown entities or names.
	Scalar(q Query) float64
	// List returns the names of the given kind for an entity, empty if unknown.
	List(kind ListKind, number int) []string
	// SurfaceJSON returns the structured state export of a surface, nil if unknown.
	SurfaceJSON(number int) []byte
	// SetDumpCapture toggles capture of DUMP output into memory.
	SetDumpCapture(on bool)
	// DumpString returns the last captured dump.
	DumpString() []byte
	// EntityNumbers lists the numbers currently held for a kind in ascending order.
	EntityNumbers(kind Kind) []int
	// Close releases the engine instance.
	Close() error
}
