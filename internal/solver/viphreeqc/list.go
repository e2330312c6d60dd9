// Package viphreeqc binds the extended IPhreeqc shared library through cgo.
// The binding is compiled only with the viphreeqc build tag and links
// against libviphreeqc.
package viphreeqc

import (
	"slices"
	"strconv"
	"strings"
)

// splitList parses the comma-separated name lists the library returns.
// Empty entries are dropped.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseNumbers parses a comma-separated entity number list into ascending
// order, skipping anything that is not an integer.
func parseNumbers(raw string) []int {
	var out []int
	for _, part := range splitList(raw) {
		n, err := strconv.Atoi(part)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}
