package session

import (
	"errors"
	"strings"
	"testing"

	"phreeqcore/pkg/solver"
	"phreeqcore/pkg/units"
)

func TestTransactionSubmitsOnce(t *testing.T) {
	s, gw := newTestSession(t)
	sol := mustSolution(t, s, Composition{"Ca": "1"})
	runs := len(gw.Inputs())

	tx := s.BeginTransaction(sol.Number()).
		Add("Ca", 1, units.Mmol).
		ChangeTemperature(40).
		ChangePH(5, "")
	if tx.Len() != 3 || tx.Number() != 1 || tx.Err() != nil {
		t.Fatalf("buffered %d steps on %d, err %v", tx.Len(), tx.Number(), tx.Err())
	}
	if len(gw.Inputs()) != runs {
		t.Fatalf("buffered steps reached the engine")
	}
	if ca, _ := sol.TotalElement("Ca", units.Mmol); !near(ca, 1) {
		t.Fatalf("solution changed before commit: %v", ca)
	}

	got, err := tx.Commit()
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if len(gw.Inputs()) != runs+1 {
		t.Fatalf("commit used %d runs", len(gw.Inputs())-runs)
	}
	want := "USE SOLUTION 1\nREACTION 1\n  Ca 1\n  1 mmol\nSAVE SOLUTION 1\nEND\n" +
		"USE SOLUTION 1\nREACTION_TEMPERATURE 1\n  40\nSAVE SOLUTION 1\nEND\n" +
		"USE SOLUTION 1\nEQUILIBRIUM_PHASES 0\n  Fix_pH -5 HCl 10\nSAVE SOLUTION 1\nEND\n"
	if in := lastInput(gw); in != want {
		t.Fatalf("input = %q", in)
	}
	if ca, _ := got.TotalElement("Ca", units.Mmol); !near(ca, 2) {
		t.Fatalf("Ca = %v", ca)
	}
	if got.Temperature() != 40 || got.PH() != 5 {
		t.Fatalf("T=%v pH=%v", got.Temperature(), got.PH())
	}

	if _, err := tx.Commit(); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("second commit: %v", err)
	}
	tx.Remove("Ca", 1, units.Mmol)
	if !errors.Is(tx.Err(), ErrInvalidArgument) {
		t.Fatalf("step after commit: %v", tx.Err())
	}
}

func TestTransactionSteps(t *testing.T) {
	s, gw := newTestSession(t)
	sol := mustSolution(t, s, Composition{"Ca": "4"})

	got, err := s.BeginTransaction(sol.Number()).
		Remove("Ca", 1, units.Mmol).
		Change(map[string]float64{"Na": 2}).
		Saturate("Calcite", 0.3, 1).
		Desaturate("Gypsum", 0).
		Equalize([]string{"Halite"}, nil, nil, nil).
		Commit()
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if ca, _ := got.TotalElement("Ca", units.Mmol); !near(ca, 3) {
		t.Fatalf("Ca = %v", ca)
	}
	if na, _ := got.TotalElement("Na", units.Mmol); !near(na, 2) {
		t.Fatalf("Na = %v", na)
	}
	if got.SI("Calcite") != 0.3 || got.SI("Gypsum") != solver.Missing || got.SI("Halite") != 0 {
		t.Fatalf("phases = %v", got.Phases())
	}

	runs := len(gw.Inputs())
	empty, err := s.BeginTransaction(sol.Number()).Commit()
	if err != nil || empty.Number() != sol.Number() {
		t.Fatalf("empty commit: %v", err)
	}
	if len(gw.Inputs()) != runs {
		t.Fatalf("empty transaction ran")
	}
}

func TestTransactionErrors(t *testing.T) {
	s, gw := newTestSession(t)
	sol := mustSolution(t, s, Composition{"Ca": "1"})
	runs := len(gw.Inputs())

	tx := s.BeginTransaction(sol.Number()).Add("Ca", 1, units.Unit("furlong")).ChangeTemperature(30)
	if !errors.Is(tx.Err(), ErrInvalidArgument) || tx.Len() != 0 {
		t.Fatalf("bad unit: %v, %d steps", tx.Err(), tx.Len())
	}
	if _, err := tx.Commit(); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("commit with buffered error: %v", err)
	}
	if _, err := s.BeginTransaction(sol.Number()).Equalize(nil, nil, nil, nil).Commit(); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("no phases: %v", err)
	}
	if len(gw.Inputs()) != runs {
		t.Fatalf("invalid transactions reached the engine")
	}

	_, err := s.BeginTransaction(sol.Number()).
		Change(map[string]float64{"Na": 1}).
		Change(map[string]float64{"Xx": 1}).
		Commit()
	var serr *solver.SolverError
	if !errors.As(err, &serr) {
		t.Fatalf("engine rejection: %v", err)
	}
	if na, _ := sol.TotalElement("Na", units.Mmol); na != 0 {
		t.Fatalf("partial transaction applied: Na %v", na)
	}
	if _, err := s.BeginTransaction(42).ChangeTemperature(10).Commit(); err == nil {
		t.Fatalf("transaction on a missing solution succeeded")
	}
}

func TestTransactionChangePHUsesCallTimePH(t *testing.T) {
	s, gw := newTestSession(t)
	sol := mustSolution(t, s, Composition{"Ca": "1"})

	// pH 7 at call time: raising to 8 doses NaOH even though the buffered
	// step before it brings the solution to 9.
	got, err := s.BeginTransaction(sol.Number()).
		ChangePH(9, "").
		ChangePH(8, "").
		Commit()
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	in := lastInput(gw)
	if !strings.Contains(in, "Fix_pH -9 NaOH 10\n") || !strings.Contains(in, "Fix_pH -8 NaOH 10\n") {
		t.Fatalf("input = %q", in)
	}
	if got.PH() != 8 {
		t.Fatalf("pH = %v", got.PH())
	}

	if _, err := s.BeginTransaction(sol.Number()).ChangePH(9, "").ChangePH(8, "HCl").Commit(); err != nil {
		t.Fatalf("explicit chemical: %v", err)
	}
	if in := lastInput(gw); !strings.Contains(in, "Fix_pH -8 HCl 10\n") {
		t.Fatalf("input = %q", in)
	}
}
