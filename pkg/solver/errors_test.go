package solver

import (
	"errors"
	"strings"
	"testing"
)

type errGateway struct {
	Gateway
	msg string
}

func (g errGateway) ErrorString() string { return g.msg }

func TestSolverErrorPhrasing(t *testing.T) {
	cases := []struct {
		count int
		want  string
	}{
		{1, "solver: an error occurred: bad keyword"},
		{3, "solver: 3 errors occurred: bad keyword"},
		{-1, "solver: wrong error number: bad keyword"},
	}
	for _, tc := range cases {
		err := &SolverError{Count: tc.count, Message: "bad keyword\n"}
		if err.Error() != tc.want {
			t.Fatalf("count %d: expected %q got %q", tc.count, tc.want, err.Error())
		}
	}
	if got := (&SolverError{Count: 2}).Error(); got != "solver: 2 errors occurred" {
		t.Fatalf("unexpected bare message %q", got)
	}
}

func TestCheck(t *testing.T) {
	gw := errGateway{msg: "ERROR: unknown solution 9"}
	if err := Check(gw, 0, "END"); err != nil {
		t.Fatalf("expected nil for zero count, got %v", err)
	}
	err := Check(gw, 1, "USE SOLUTION 9\nEND")
	var se *SolverError
	if !errors.As(err, &se) {
		t.Fatalf("expected SolverError, got %T", err)
	}
	if se.Count != 1 || !strings.Contains(se.Error(), "unknown solution 9") || se.Input == "" {
		t.Fatalf("unexpected solver error %+v", se)
	}
}

func TestKindKeyword(t *testing.T) {
	if KindGasPhase.Keyword() != "GAS_PHASE" || KindSurface.Keyword() != "SURFACE" ||
		KindSolution.Keyword() != "SOLUTION" || KindEquilibriumPhase.Keyword() != "EQUILIBRIUM_PHASES" {
		t.Fatalf("unexpected keywords")
	}
	if Kind("other").Keyword() != "" {
		t.Fatalf("expected empty keyword for unknown kind")
	}
}
