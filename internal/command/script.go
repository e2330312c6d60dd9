// Package command renders the engine's line-oriented keyword grammar.
//
// A Script accumulates keyword blocks; callers finish every entity-mutating
// script with Save and End so the result is persisted under its number.
package command

import (
	"sort"
	"strconv"
	"strings"

	"phreeqcore/pkg/solver"
)

// Entry is one "name value" line inside a keyword block.
type Entry struct {
	Name  string
	Value string
}

// Script accumulates command text.
type Script struct {
	b strings.Builder
}

// New returns an empty script.
func New() *Script { return &Script{} }

// String returns the accumulated text.
func (s *Script) String() string { return s.b.String() }

// Len returns the number of bytes accumulated.
func (s *Script) Len() int { return s.b.Len() }

// Raw appends text verbatim, adding a trailing newline when missing.
func (s *Script) Raw(text string) *Script {
	s.b.WriteString(text)
	if text != "" && !strings.HasSuffix(text, "\n") {
		s.b.WriteByte('\n')
	}
	return s
}

func (s *Script) line(parts ...string) *Script {
	s.b.WriteString(strings.Join(parts, " "))
	s.b.WriteByte('\n')
	return s
}

func (s *Script) entries(entries []Entry) {
	for _, e := range entries {
		s.line("  "+e.Name, e.Value)
	}
}

// Solution opens a SOLUTION block with verbatim composition lines.
func (s *Script) Solution(n int, entries []Entry) *Script {
	s.line("SOLUTION", Int(n))
	s.entries(entries)
	return s
}

// Temperature writes a -temp option for the open SOLUTION block.
func (s *Script) Temperature(t float64) *Script {
	return s.line("  -temp", Float(t))
}

// Reaction writes a REACTION block whose entries are millimole deltas.
func (s *Script) Reaction(k int, entries []Entry) *Script {
	s.line("REACTION", Int(k))
	s.entries(entries)
	return s.line("  1 mmol")
}

// ReactionTemperature writes a REACTION_TEMPERATURE block.
func (s *Script) ReactionTemperature(k int, t float64) *Script {
	s.line("REACTION_TEMPERATURE", Int(k))
	return s.line("  " + Float(t))
}

// Use writes a USE line for an entity.
func (s *Script) Use(kind solver.Kind, n int) *Script {
	return s.line("USE", kind.Keyword(), Int(n))
}

// Save writes a SAVE line persisting the current entity under n.
func (s *Script) Save(kind solver.Kind, n int) *Script {
	return s.line("SAVE", kind.Keyword(), Int(n))
}

// End terminates the simulation block.
func (s *Script) End() *Script { return s.line("END") }

// Mix writes a MIX block of "number fraction" lines in the given order.
func (s *Script) Mix(k int, parts []MixEntry) *Script {
	s.line("MIX", Int(k))
	for _, p := range parts {
		s.line("  "+Int(p.Number), Float(p.Fraction))
	}
	return s
}

// MixEntry is one contribution to a MIX block.
type MixEntry struct {
	Number   int
	Fraction float64
}

// EquilibriumPhases writes an EQUILIBRIUM_PHASES block.
func (s *Script) EquilibriumPhases(k int, rows []PhaseRow) *Script {
	s.line("EQUILIBRIUM_PHASES", Int(k))
	for _, r := range rows {
		if r.Chemical != "" {
			s.line("  "+r.Phase, Float(r.SI), r.Chemical, Float(r.Amount))
			continue
		}
		s.line("  "+r.Phase, Float(r.SI), Float(r.Amount))
	}
	return s
}

// Copy writes a COPY line duplicating entity from into to.
func (s *Script) Copy(kind solver.Kind, from, to int) *Script {
	return s.line("COPY", kind.Keyword(), Int(from), Int(to))
}

// Delete writes a DELETE block for the given numbers.
func (s *Script) Delete(kind solver.Kind, numbers []int) *Script {
	s.line("DELETE")
	return s.line("  -"+strings.ToLower(kind.Keyword()), Ints(numbers))
}

// Dump writes a DUMP block for solutions. An empty list dumps every solution.
func (s *Script) Dump(file string, numbers []int) *Script {
	s.line("DUMP")
	s.line("  -file", file)
	if len(numbers) == 0 {
		return s.line("  -solution")
	}
	return s.line("  -solution", Ints(numbers))
}

// Int formats an entity number.
func Int(n int) string { return strconv.Itoa(n) }

// Ints formats numbers separated by spaces.
func Ints(numbers []int) string {
	parts := make([]string, len(numbers))
	for i, n := range numbers {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, " ")
}

// Float formats a value in the shortest form that round-trips.
func Float(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// SortedEntries converts a map into entries ordered by name so rendered
// scripts are deterministic.
func SortedEntries[V any](m map[string]V, format func(V) string) []Entry {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Entry, 0, len(names))
	for _, name := range names {
		out = append(out, Entry{Name: name, Value: format(m[name])})
	}
	return out
}
