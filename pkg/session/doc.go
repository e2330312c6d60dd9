// Package session is the object model over a geochemical speciation engine.
//
// A [Session] owns one [solver.Gateway] and numbers the entities it creates
// in the engine: solutions, gas phases, equilibrium phase assemblages and
// surfaces. Each kind has its own counter. Counters only grow: a removed
// number is never handed out again, and a number allocated for a command the
// engine rejects stays consumed.
//
// Factory methods render keyword commands, submit them and return handles:
//
//   - [Solution]: read-through chemistry (pH, conductivity, totals, species)
//     and mutations (add, remove, saturate, change pH or temperature).
//   - [Gas], [EquilibriumPhase]: read-through component amounts.
//   - [Surface]: properties decoded from a three-component snapshot of the
//     engine's surface export.
//
// Handles cache nothing except the surface snapshot. Reading a removed
// entity yields [solver.Missing] or an empty map, never an error.
//
// # Composition
//
// Mixing takes explicit fractions that are passed through unnormalised:
//
//	mixed, err := s.MixSolutions(session.Part(a, 0.3), session.Part(b, 0.9))
//
// The same mix written with scaled references:
//
//	mixed, err := a.Times(0.3).Plus(b.Times(0.9))
//
// A [Scaled] reference is consumed by Plus; handles never carry a scale.
// Extraneous metadata of mixed handles is combined by fraction-weighted sum.
// Entities of different sessions cannot be combined.
//
// # Transactions
//
// [Session.BeginTransaction] buffers steps on one solution and submits them
// as a single engine run on [Transaction.Commit].
//
// # Dumps
//
// [Session.DumpSolutions] writes a gzip-compressed raw dump to a blob store;
// [Restore] replays it into a fresh session.
//
// # Thread Safety
//
// A Session is not safe for concurrent use. Independent sessions, each with
// its own gateway, may run in parallel.
package session
