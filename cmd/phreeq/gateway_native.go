//go:build viphreeqc

package main

import (
	"phreeqcore/internal/solver/viphreeqc"
	"phreeqcore/pkg/solver"
)

const engineName = "viphreeqc"

func newGateway() (solver.Gateway, error) { return viphreeqc.New() }
