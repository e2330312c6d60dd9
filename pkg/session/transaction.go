package session

import (
	"phreeqcore/internal/command"
	"phreeqcore/pkg/solver"
	"phreeqcore/pkg/units"
)

// Transaction batches mutations of one solution into a single engine run.
// Steps are applied in order; each one sees the result of the previous.
// Nothing reaches the engine before Commit, and a failed Commit rejects every
// step.
//
// ChangePH with an empty chemical picks HCl or NaOH from the solution's pH at
// the time of the call, not after the steps buffered before it. Name the
// chemical explicitly when earlier steps move the pH across the target.
type Transaction struct {
	s      *Session
	number int
	script *command.Script
	steps  int
	err    error
	done   bool
}

// BeginTransaction opens a batch on solution number.
func (s *Session) BeginTransaction(number int) *Transaction {
	return &Transaction{s: s, number: number, script: command.New()}
}

// Number returns the solution the transaction mutates.
func (tx *Transaction) Number() int { return tx.number }

// Len returns the number of buffered steps.
func (tx *Transaction) Len() int { return tx.steps }

// step opens a new simulation on the solution, closing the previous one.
func (tx *Transaction) step() *command.Script {
	if tx.steps > 0 {
		tx.script.Save(solver.KindSolution, tx.number).End()
	}
	tx.steps++
	return tx.script.Use(solver.KindSolution, tx.number)
}

func (tx *Transaction) usable() bool {
	if tx.done && tx.err == nil {
		tx.err = invalid("transaction on solution %d already committed", tx.number)
	}
	return tx.err == nil
}

// Change adds millimole deltas.
func (tx *Transaction) Change(elements map[string]float64) *Transaction {
	if tx.usable() {
		tx.step().Reaction(1, command.SortedEntries(elements, command.Float))
	}
	return tx
}

// Add dissolves amount of species given in unit.
func (tx *Transaction) Add(species string, amount float64, unit units.Unit) *Transaction {
	if !tx.usable() {
		return tx
	}
	deltas, err := tx.s.toMmol(map[string]float64{species: amount}, unit)
	if err != nil {
		tx.err = err
		return tx
	}
	return tx.Change(deltas)
}

// Remove takes amount of species given in unit out of the solution.
func (tx *Transaction) Remove(species string, amount float64, unit units.Unit) *Transaction {
	return tx.Add(species, -amount, unit)
}

// ChangeTemperature sets the temperature.
func (tx *Transaction) ChangeTemperature(t float64) *Transaction {
	if tx.usable() {
		tx.step().ReactionTemperature(1, t)
	}
	return tx
}

// Equalize equilibrates against phases with padded modifiers.
func (tx *Transaction) Equalize(phases []string, toSI, inPhase []float64, withChemical []string) *Transaction {
	if !tx.usable() {
		return tx
	}
	if len(phases) == 0 {
		tx.err = invalid("no phases to equalize")
		return tx
	}
	tx.step().EquilibriumPhases(scratchPhases, command.Broadcast(phases, toSI, inPhase, withChemical))
	return tx
}

// Saturate equilibrates with phase at toSI with amount available.
func (tx *Transaction) Saturate(phase string, toSI, amount float64) *Transaction {
	return tx.Equalize([]string{phase}, []float64{toSI}, []float64{amount}, nil)
}

// Desaturate equilibrates with none of phase present.
func (tx *Transaction) Desaturate(phase string, toSI float64) *Transaction {
	return tx.Equalize([]string{phase}, []float64{toSI}, []float64{0}, nil)
}

// ChangePH fixes the pH by dosing chemical. The dosing direction for an empty
// chemical is chosen from the pH the solution has when ChangePH is called.
func (tx *Transaction) ChangePH(pH float64, chemical string) *Transaction {
	if !tx.usable() {
		return tx
	}
	chemical = tx.s.solution(tx.number).phChemical(pH, chemical)
	return tx.Equalize([]string{"Fix_pH"}, []float64{-pH}, []float64{command.DefaultAmount}, []string{chemical})
}

// Commit terminates the buffer with a final save and submits it as one run.
// A transaction can be committed once.
func (tx *Transaction) Commit() (*Solution, error) {
	if tx.done {
		return nil, invalid("transaction on solution %d already committed", tx.number)
	}
	tx.done = true
	if tx.err != nil {
		return nil, tx.err
	}
	if tx.steps == 0 {
		return tx.s.solution(tx.number), nil
	}
	input := tx.script.Save(solver.KindSolution, tx.number).End().String()
	if err := tx.s.run("transaction", input); err != nil {
		return nil, err
	}
	return tx.s.solution(tx.number), nil
}

// Err returns the first error recorded while buffering.
func (tx *Transaction) Err() error { return tx.err }
