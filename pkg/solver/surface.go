package solver

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrSurfaceShape is returned when a surface export does not match SurfaceState.
var ErrSurfaceShape = errors.New("solver: unexpected surface export shape")

// SurfaceComponentCount is the fixed number of components in a surface export:
// two site-fraction components followed by one aggregate component.
const SurfaceComponentCount = 3

// SurfaceState is the structured export of one surface.
type SurfaceState struct {
	Number        int                `json:"number"`
	Thickness     float64            `json:"thickness"`
	ChargeBalance float64            `json:"charge_balance"`
	Components    []SurfaceComponent `json:"components"`
}

// SurfaceComponent is one entry of SurfaceState.Components.
type SurfaceComponent struct {
	Name          string             `json:"name"`
	Moles         float64            `json:"moles"`
	ChargeBalance float64            `json:"charge_balance"`
	SpecificArea  float64            `json:"specific_area"`
	Grams         float64            `json:"grams"`
	Sigma         float64            `json:"sigma"`
	Psi           float64            `json:"psi"`
	Totals        map[string]float64 `json:"totals"`
}

// DecodeSurface parses a surface export and validates its shape.
func DecodeSurface(data []byte) (SurfaceState, error) {
	if len(data) == 0 {
		return SurfaceState{}, fmt.Errorf("%w: empty export", ErrSurfaceShape)
	}
	var st SurfaceState
	if err := json.Unmarshal(data, &st); err != nil {
		return SurfaceState{}, fmt.Errorf("%w: %v", ErrSurfaceShape, err)
	}
	if len(st.Components) != SurfaceComponentCount {
		return SurfaceState{}, fmt.Errorf("%w: %d components, want %d", ErrSurfaceShape, len(st.Components), SurfaceComponentCount)
	}
	return st, nil
}
