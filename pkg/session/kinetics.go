package session

import (
	"iter"
	"math"

	"phreeqcore/pkg/units"
)

// RateFunc returns the instantaneous rate, in mmol per time unit, at which
// element enters the solution. sol is a disposable copy of the live solution
// with the amount integrated so far applied; amount is that cumulative
// amount in mmol. The copy is removed after the call returns.
type RateFunc func(sol *Solution, amount float64) (float64, error)

// KineticStep is one point of a kinetics run.
type KineticStep struct {
	Time     float64
	Amount   float64 // cumulative mmol of element applied
	Solution *Solution
}

// derivative evaluates dm/dt at cumulative amount m.
type derivative func(m float64) (float64, error)

// rk4 advances m over one interval of length h with the classic fourth-order
// Runge-Kutta scheme. The rate does not depend on time explicitly.
func rk4(f derivative, m, h float64) (float64, error) {
	k1, err := f(m)
	if err != nil {
		return 0, err
	}
	k2, err := f(m + h*k1/2)
	if err != nil {
		return 0, err
	}
	k3, err := f(m + h*k2/2)
	if err != nil {
		return 0, err
	}
	k4, err := f(m + h*k3)
	if err != nil {
		return 0, err
	}
	return m + h*(k1+2*k2+2*k3+k4)/6, nil
}

// Kinetics integrates rate over grid and applies each interval's increment of
// element to the live solution. The first step applies initial at grid[0].
// The sequence is lazy and can be ranged over once; it stops at the first
// error, which is yielded with a zero step.
func (sol *Solution) Kinetics(element string, rate RateFunc, grid []float64, initial float64) iter.Seq2[KineticStep, error] {
	used := false
	return func(yield func(KineticStep, error) bool) {
		if used {
			yield(KineticStep{}, invalid("kinetics sequence already consumed"))
			return
		}
		used = true
		if rate == nil {
			yield(KineticStep{}, invalid("nil rate function"))
			return
		}
		if err := checkGrid(grid); err != nil {
			yield(KineticStep{}, err)
			return
		}
		if len(grid) == 0 {
			return
		}
		applied := 0.0
		f := func(m float64) (float64, error) {
			return sol.rateAt(element, rate, m, m-applied)
		}
		m := initial
		for i, t := range grid {
			if i > 0 {
				next, err := rk4(f, m, t-grid[i-1])
				if err != nil {
					yield(KineticStep{}, err)
					return
				}
				m = next
			}
			if delta := m - applied; delta != 0 {
				if err := sol.Add(element, delta, units.Mmol); err != nil {
					yield(KineticStep{}, err)
					return
				}
				applied = m
			}
			if !yield(KineticStep{Time: t, Amount: applied, Solution: sol}, nil) {
				return
			}
		}
	}
}

// rateAt evaluates rate on a temporary copy of the live solution carrying
// pending extra mmol of element.
func (sol *Solution) rateAt(element string, rate RateFunc, m, pending float64) (r float64, err error) {
	tmp, err := sol.s.CopySolution(sol.number)
	if err != nil {
		return 0, err
	}
	defer func() {
		if ferr := tmp.Forget(); ferr != nil && err == nil {
			err = ferr
		}
	}()
	if pending != 0 {
		if err := tmp.Add(element, pending, units.Mmol); err != nil {
			return 0, err
		}
	}
	return rate(tmp, m)
}

func checkGrid(grid []float64) error {
	for i, t := range grid {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return invalid("time grid value %v is not finite", t)
		}
		if i > 0 && t <= grid[i-1] {
			return invalid("time grid must increase, got %v after %v", t, grid[i-1])
		}
	}
	return nil
}
