//go:build viphreeqc

package viphreeqc

/*
#cgo LDFLAGS: -lviphreeqc
#include <stdlib.h>

int CreateIPhreeqc(void);
int DestroyIPhreeqc(int id);
int LoadDatabase(int id, const char* path);
int RunString(int id, const char* input);
const char* GetErrorString(int id);
int SetDumpStringOn(int id, int on);
const char* GetDumpString(int id);

double GetPH(int id, int n);
double GetPe(int id, int n);
double GetSC(int id, int n);
double GetMu(int id, int n);
double GetTemperature(int id, int n);
double GetMass(int id, int n);
double GetTotal(int id, int n, const char* name);
double GetTotalElement(int id, int n, const char* name);
double GetMoles(int id, int n, const char* name);
double GetMolality(int id, int n, const char* name);
double GetActivity(int id, int n, const char* name);
double GetSI(int id, int n, const char* name);
const char* GetSpecies(int id, int n);
const char* GetPhases(int id, int n);
const char* GetElements(int id, int n);
const char* GetSolutionList(int id);

double GetGasPressure(int id, int n);
double GetGasVolume(int id, int n);
double GetGasTotalMoles(int id, int n);
double GetGasComponentMoles(int id, int n, const char* name);
const char* GetGasComponents(int id, int n);
const char* GetGasList(int id);

double GetEquilibriumPhaseComponentMoles(int id, int n, const char* name);
const char* GetEquilibriumPhaseComponents(int id, int n);
const char* GetEquilibriumPhaseList(int id);

const char* GetSurfaceJSON(int id, int n);
const char* GetSurfaceList(int id);
*/
import "C"

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"phreeqcore/pkg/solver"
)

// Gateway is one native engine instance.
type Gateway struct {
	mu     sync.Mutex
	id     C.int
	closed bool
}

var _ solver.Gateway = (*Gateway)(nil)

// ErrClosed is reported by calls on a closed instance.
var ErrClosed = errors.New("viphreeqc: instance closed")

// New creates an engine instance.
func New() (*Gateway, error) {
	id := C.CreateIPhreeqc()
	if id < 0 {
		return nil, fmt.Errorf("viphreeqc: create instance: code %d", int(id))
	}
	return &Gateway{id: id}, nil
}

func withCString[T any](s string, fn func(*C.char) T) T {
	cs := C.CString(s)
	defer C.free(unsafe.Pointer(cs))
	return fn(cs)
}

// LoadDatabase implements solver.Gateway.
func (g *Gateway) LoadDatabase(path string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return 1
	}
	return withCString(path, func(cs *C.char) int { return int(C.LoadDatabase(g.id, cs)) })
}

// Run implements solver.Gateway.
func (g *Gateway) Run(input string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return 1
	}
	return withCString(input, func(cs *C.char) int { return int(C.RunString(g.id, cs)) })
}

// ErrorString implements solver.Gateway.
func (g *Gateway) ErrorString() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrClosed.Error()
	}
	return C.GoString(C.GetErrorString(g.id))
}

// Scalar implements solver.Gateway.
func (g *Gateway) Scalar(q solver.Query) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return solver.Missing
	}
	n := C.int(q.Number)
	switch q.Property {
	case solver.PropPH:
		return float64(C.GetPH(g.id, n))
	case solver.PropPe:
		return float64(C.GetPe(g.id, n))
	case solver.PropSC:
		return float64(C.GetSC(g.id, n))
	case solver.PropMu:
		return float64(C.GetMu(g.id, n))
	case solver.PropTemperature:
		return float64(C.GetTemperature(g.id, n))
	case solver.PropMass:
		return float64(C.GetMass(g.id, n))
	case solver.PropGasPressure:
		return float64(C.GetGasPressure(g.id, n))
	case solver.PropGasVolume:
		return float64(C.GetGasVolume(g.id, n))
	case solver.PropGasTotalMoles:
		return float64(C.GetGasTotalMoles(g.id, n))
	}
	return withCString(q.Name, func(cs *C.char) float64 {
		switch q.Property {
		case solver.PropTotal:
			return float64(C.GetTotal(g.id, n, cs))
		case solver.PropTotalElement:
			return float64(C.GetTotalElement(g.id, n, cs))
		case solver.PropMoles:
			return float64(C.GetMoles(g.id, n, cs))
		case solver.PropMolality:
			return float64(C.GetMolality(g.id, n, cs))
		case solver.PropActivity:
			return float64(C.GetActivity(g.id, n, cs))
		case solver.PropSI:
			return float64(C.GetSI(g.id, n, cs))
		case solver.PropGasMoles:
			return float64(C.GetGasComponentMoles(g.id, n, cs))
		case solver.PropPhaseMoles:
			return float64(C.GetEquilibriumPhaseComponentMoles(g.id, n, cs))
		}
		return solver.Missing
	})
}

// List implements solver.Gateway.
func (g *Gateway) List(kind solver.ListKind, number int) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	n := C.int(number)
	var raw *C.char
	switch kind {
	case solver.ListSpecies:
		raw = C.GetSpecies(g.id, n)
	case solver.ListPhases:
		raw = C.GetPhases(g.id, n)
	case solver.ListElements:
		raw = C.GetElements(g.id, n)
	case solver.ListGasComponents:
		raw = C.GetGasComponents(g.id, n)
	case solver.ListPhaseComponents:
		raw = C.GetEquilibriumPhaseComponents(g.id, n)
	default:
		return nil
	}
	return splitList(C.GoString(raw))
}

// SurfaceJSON implements solver.Gateway.
func (g *Gateway) SurfaceJSON(number int) []byte {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	s := C.GoString(C.GetSurfaceJSON(g.id, C.int(number)))
	if s == "" {
		return nil
	}
	return []byte(s)
}

// SetDumpCapture implements solver.Gateway.
func (g *Gateway) SetDumpCapture(on bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	flag := C.int(0)
	if on {
		flag = 1
	}
	C.SetDumpStringOn(g.id, flag)
}

// DumpString implements solver.Gateway.
func (g *Gateway) DumpString() []byte {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	return []byte(C.GoString(C.GetDumpString(g.id)))
}

// EntityNumbers implements solver.Gateway.
func (g *Gateway) EntityNumbers(kind solver.Kind) []int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	var raw *C.char
	switch kind {
	case solver.KindSolution:
		raw = C.GetSolutionList(g.id)
	case solver.KindGasPhase:
		raw = C.GetGasList(g.id)
	case solver.KindEquilibriumPhase:
		raw = C.GetEquilibriumPhaseList(g.id)
	case solver.KindSurface:
		raw = C.GetSurfaceList(g.id)
	default:
		return nil
	}
	return parseNumbers(C.GoString(raw))
}

// Close destroys the engine instance. Further calls report Missing or errors.
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	g.closed = true
	if code := C.DestroyIPhreeqc(g.id); code < 0 {
		return fmt.Errorf("viphreeqc: destroy instance: code %d", int(code))
	}
	return nil
}
