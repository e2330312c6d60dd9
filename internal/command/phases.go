package command

// Defaults used when modifier lists are shorter than the phase list.
const (
	DefaultSI     = 0.0
	DefaultAmount = 10.0
)

// PhaseRow is one line of an EQUILIBRIUM_PHASES block. An empty Chemical is
// the placeholder for "no alternative reactant" and is not rendered.
type PhaseRow struct {
	Phase    string
	SI       float64
	Chemical string
	Amount   float64
}

// Broadcast pairs phases with their modifiers by index. Modifier lists shorter
// than phases are padded with DefaultSI, DefaultAmount and "" respectively;
// the last supplied value is never repeated. Extra modifiers are ignored.
func Broadcast(phases []string, toSI, amounts []float64, chemicals []string) []PhaseRow {
	si := padFloats(toSI, len(phases), DefaultSI)
	amt := padFloats(amounts, len(phases), DefaultAmount)
	chem := padStrings(chemicals, len(phases))
	rows := make([]PhaseRow, len(phases))
	for i, phase := range phases {
		rows[i] = PhaseRow{Phase: phase, SI: si[i], Chemical: chem[i], Amount: amt[i]}
	}
	return rows
}

func padFloats(in []float64, n int, def float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		if i < len(in) {
			out[i] = in[i]
			continue
		}
		out[i] = def
	}
	return out
}

func padStrings(in []string, n int) []string {
	out := make([]string, n)
	copy(out, in)
	return out
}
