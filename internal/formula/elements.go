package formula

// atomicMass holds standard atomic weights in g/mol.
var atomicMass = map[string]float64{
	"H":  1.00794,
	"He": 4.002602,
	"Li": 6.941,
	"Be": 9.012182,
	"B":  10.811,
	"C":  12.0107,
	"N":  14.0067,
	"O":  15.9994,
	"F":  18.9984032,
	"Ne": 20.1797,
	"Na": 22.98977,
	"Mg": 24.305,
	"Al": 26.981538,
	"Si": 28.0855,
	"P":  30.973761,
	"S":  32.065,
	"Cl": 35.453,
	"Ar": 39.948,
	"K":  39.0983,
	"Ca": 40.078,
	"Sc": 44.95591,
	"Ti": 47.867,
	"V":  50.9415,
	"Cr": 51.9961,
	"Mn": 54.938049,
	"Fe": 55.845,
	"Co": 58.9332,
	"Ni": 58.6934,
	"Cu": 63.546,
	"Zn": 65.409,
	"Ga": 69.723,
	"Ge": 72.64,
	"As": 74.9216,
	"Se": 78.96,
	"Br": 79.904,
	"Kr": 83.798,
	"Rb": 85.4678,
	"Sr": 87.62,
	"Y":  88.90585,
	"Zr": 91.224,
	"Nb": 92.90638,
	"Mo": 95.94,
	"Ru": 101.07,
	"Rh": 102.9055,
	"Pd": 106.42,
	"Ag": 107.8682,
	"Cd": 112.411,
	"In": 114.818,
	"Sn": 118.71,
	"Sb": 121.76,
	"Te": 127.6,
	"I":  126.90447,
	"Xe": 131.293,
	"Cs": 132.90545,
	"Ba": 137.327,
	"La": 138.9055,
	"Ce": 140.116,
	"Nd": 144.24,
	"Sm": 150.36,
	"Eu": 151.964,
	"Gd": 157.25,
	"W":  183.84,
	"Pt": 195.078,
	"Au": 196.96655,
	"Hg": 200.59,
	"Tl": 204.3833,
	"Pb": 207.2,
	"Bi": 208.98038,
	"Rn": 222,
	"Ra": 226,
	"Th": 232.0381,
	"U":  238.02891,
}

// AtomicMass returns the standard atomic weight of an element symbol.
func AtomicMass(symbol string) (float64, bool) {
	m, ok := atomicMass[symbol]
	return m, ok
}
