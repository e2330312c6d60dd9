package session

import "math"

// Scaled is a solution reference weighted by a mixing factor. It is produced
// by Solution.Times or Solution.Divide and can be combined exactly once.
type Scaled struct {
	sol      *Solution
	factor   float64
	err      error
	consumed bool
}

// Times returns a reference to sol weighted by k. The handle itself is not
// modified.
func (sol *Solution) Times(k float64) *Scaled {
	sc := &Scaled{sol: sol, factor: k}
	if math.IsNaN(k) || math.IsInf(k, 0) {
		sc.err = invalid("scale factor %v is not finite", k)
	}
	return sc
}

// Divide returns a reference to sol weighted by 1/k.
func (sol *Solution) Divide(k float64) *Scaled {
	if k == 0 || math.IsNaN(k) || math.IsInf(k, 0) {
		return &Scaled{sol: sol, err: invalid("cannot divide by %v", k)}
	}
	return sol.Times(1 / k)
}

// Factor returns the weight carried by the reference.
func (sc *Scaled) Factor() float64 { return sc.factor }

// Solution returns the referenced solution.
func (sc *Scaled) Solution() *Solution { return sc.sol }

// Plus mixes both references into a new solution, weighting each by its
// factor. Both references are consumed, even when the mix fails.
func (sc *Scaled) Plus(other *Scaled) (*Solution, error) {
	if sc == nil || other == nil || sc.sol == nil || other.sol == nil {
		return nil, invalid("cannot add a nil solution")
	}
	if sc.consumed || other.consumed {
		return nil, ErrScaleConsumed
	}
	sc.consumed, other.consumed = true, true
	if sc.err != nil {
		return nil, sc.err
	}
	if other.err != nil {
		return nil, other.err
	}
	return sc.sol.s.MixSolutions(Part(sc.sol, sc.factor), Part(other.sol, other.factor))
}

// MixPart is one contribution to MixSolutions.
type MixPart struct {
	sol      *Solution
	number   int
	fraction float64
}

// Part weights a solution handle.
func Part(sol *Solution, fraction float64) MixPart {
	return MixPart{sol: sol, fraction: fraction}
}

// PartNumber weights a solution by number.
func PartNumber(number int, fraction float64) MixPart {
	return MixPart{number: number, fraction: fraction}
}

func (p MixPart) validate() error {
	if math.IsNaN(p.fraction) || math.IsInf(p.fraction, 0) {
		return invalid("mix fraction %v is not finite", p.fraction)
	}
	return nil
}
