//go:build !viphreeqc

package main

import (
	"phreeqcore/internal/solver/sim"
	"phreeqcore/pkg/solver"
)

const engineName = "sim"

func newGateway() (solver.Gateway, error) { return sim.New(), nil }
