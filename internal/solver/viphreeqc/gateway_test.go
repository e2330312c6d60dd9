//go:build viphreeqc

package viphreeqc

import (
	"math"
	"os"
	"testing"

	"phreeqcore/pkg/session"
	"phreeqcore/pkg/units"
)

func nativeSession(t *testing.T) *session.Session {
	t.Helper()
	db := os.Getenv(session.EnvDatabase)
	if db == "" {
		t.Skipf("%s not set", session.EnvDatabase)
	}
	gw, err := New()
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}
	s, err := session.New(gw, session.WithDatabase(db))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func TestReferenceSolution(t *testing.T) {
	s := nativeSession(t)
	sol, err := s.AddSolution(session.Amounts(map[string]float64{"CaCl2": 1, "Na2CO3": 1}), nil)
	if err != nil {
		t.Fatalf("add solution: %v", err)
	}
	if sol.Number() != 1 {
		t.Fatalf("number = %d", sol.Number())
	}
	if got := round(sol.PH(), 2); got != 10.41 {
		t.Fatalf("pH = %v", got)
	}
	if got := round(sol.SC(), 2); got != 435.35 {
		t.Fatalf("SC = %v", got)
	}
	if got := round(sol.Pe(), 2); got != 7.4 {
		t.Fatalf("pe = %v", got)
	}
	if got := round(sol.SI("Calcite"), 2); got != 1.71 {
		t.Fatalf("SI(Calcite) = %v", got)
	}
	ca, err := sol.Total("Ca", units.Mol)
	if err != nil || round(ca, 4) != 0.001 {
		t.Fatalf("Ca = %v, %v", ca, err)
	}
	if len(sol.Phases()) != 10 || len(sol.Elements()) != 5 {
		t.Fatalf("phases %d elements %d", len(sol.Phases()), len(sol.Elements()))
	}
}

func TestMixing(t *testing.T) {
	s := nativeSession(t)
	a, err := s.AddSolution(session.Amounts(map[string]float64{"NaCl": 1}), nil)
	if err != nil {
		t.Fatalf("a: %v", err)
	}
	b, err := s.AddSolution(session.Composition{}, nil)
	if err != nil {
		t.Fatalf("b: %v", err)
	}
	m, err := s.MixSolutions(session.Part(a, 0.5), session.Part(b, 0.5))
	if err != nil {
		t.Fatalf("mix: %v", err)
	}
	if na, _ := m.Total("Na", units.Mol); round(na, 4) != 0.0005 {
		t.Fatalf("Na = %v", na)
	}
}

func TestClosedGateway(t *testing.T) {
	gw, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if gw.Run("END\n") == 0 {
		t.Fatalf("closed gateway accepted a run")
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
