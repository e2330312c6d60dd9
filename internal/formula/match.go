package formula

import "unicode"

// ContainsSymbol reports whether species contains symbol as a whole token.
// A match must start the name or follow a character that is not an upper-case
// letter, and must not continue into a lower-case letter, so "Ca" matches
// "CaHCO3+" and "Ca+2" but not "Cd+2", and "C" does not match "Ca+2".
func ContainsSymbol(species, symbol string) bool {
	if symbol == "" || len(symbol) > len(species) {
		return false
	}
	for i := 0; i+len(symbol) <= len(species); i++ {
		if species[i:i+len(symbol)] != symbol {
			continue
		}
		if i > 0 && unicode.IsUpper(rune(species[i-1])) {
			continue
		}
		end := i + len(symbol)
		if end < len(species) && unicode.IsLower(rune(species[end])) {
			continue
		}
		return true
	}
	return false
}
