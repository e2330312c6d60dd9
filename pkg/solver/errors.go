package solver

import (
	"fmt"
	"strings"
)

// SolverError reports errors the engine raised while running command text.
type SolverError struct {
	Count   int
	Message string
	Input   string
}

func (e *SolverError) Error() string {
	var head string
	switch {
	case e.Count > 1:
		head = fmt.Sprintf("%d errors occurred", e.Count)
	case e.Count == 1:
		head = "an error occurred"
	default:
		head = "wrong error number"
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		return "solver: " + head
	}
	return "solver: " + head + ": " + msg
}

// Check turns an error count from gw into a *SolverError, or nil when count is zero.
func Check(gw Gateway, count int, input string) error {
	if count == 0 {
		return nil
	}
	return &SolverError{Count: count, Message: gw.ErrorString(), Input: input}
}
