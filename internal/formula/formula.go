// Package formula resolves chemical formula notation: element stoichiometry,
// molar masses and whole-symbol matching inside species names.
package formula

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrUnknownElement is returned when a formula references a symbol with no known mass.
type ErrUnknownElement struct {
	Formula string
	Symbol  string
}

func (e ErrUnknownElement) Error() string {
	return fmt.Sprintf("formula %q: unknown element %q", e.Formula, e.Symbol)
}

// ErrSyntax reports malformed formula notation.
type ErrSyntax struct {
	Formula string
	Pos     int
	Reason  string
}

func (e ErrSyntax) Error() string {
	return fmt.Sprintf("formula %q: %s at offset %d", e.Formula, e.Reason, e.Pos)
}

// Mass returns the molar mass of formula in g/mol.
func Mass(formula string) (float64, error) {
	counts, err := Elements(formula)
	if err != nil {
		return 0, err
	}
	var total float64
	for symbol, n := range counts {
		m, ok := AtomicMass(symbol)
		if !ok {
			return 0, ErrUnknownElement{Formula: formula, Symbol: symbol}
		}
		total += m * n
	}
	return total, nil
}

// Elements parses formula into element counts. Hydrate separators (':' '*' '·'),
// parenthesised groups, trailing charges ("CO3-2", "Ca+2"), valence states
// ("N(5)") and phase markers ("CO2(g)") are understood.
func Elements(formula string) (map[string]float64, error) {
	body := stripCharge(strings.TrimSpace(formula))
	if body == "" {
		return nil, ErrSyntax{Formula: formula, Reason: "empty formula"}
	}
	out := make(map[string]float64)
	for _, part := range splitHydrate(body) {
		coef, rest := leadingNumber(part)
		if coef == 0 {
			coef = 1
		}
		p := &parser{src: rest, formula: formula}
		counts, err := p.group(0)
		if err != nil {
			return nil, err
		}
		if p.pos != len(p.src) {
			return nil, ErrSyntax{Formula: formula, Pos: p.pos, Reason: "unbalanced ')'"}
		}
		for symbol, n := range counts {
			out[symbol] += n * coef
		}
	}
	return out, nil
}

type parser struct {
	src     string
	pos     int
	formula string
}

func (p *parser) group(depth int) (map[string]float64, error) {
	counts := make(map[string]float64)
	for p.pos < len(p.src) {
		c := rune(p.src[p.pos])
		switch {
		case c == '(':
			end := strings.IndexByte(p.src[p.pos:], ')')
			if end > 0 && isAnnotation(p.src[p.pos+1:p.pos+end]) {
				p.pos += end + 1
				continue
			}
			p.pos++
			inner, err := p.group(depth + 1)
			if err != nil {
				return nil, err
			}
			if p.pos >= len(p.src) || p.src[p.pos] != ')' {
				return nil, ErrSyntax{Formula: p.formula, Pos: p.pos, Reason: "missing ')'"}
			}
			p.pos++
			n := p.count()
			for symbol, v := range inner {
				counts[symbol] += v * n
			}
		case c == ')':
			// the caller decides whether the group was balanced
			return counts, nil
		case unicode.IsUpper(c):
			start := p.pos
			p.pos++
			for p.pos < len(p.src) && unicode.IsLower(rune(p.src[p.pos])) {
				p.pos++
			}
			symbol := p.src[start:p.pos]
			counts[symbol] += p.count()
		default:
			return nil, ErrSyntax{Formula: p.formula, Pos: p.pos, Reason: fmt.Sprintf("unexpected %q", c)}
		}
	}
	return counts, nil
}

func (p *parser) count() float64 {
	start := p.pos
	for p.pos < len(p.src) && (isDigit(p.src[p.pos]) || p.src[p.pos] == '.') {
		p.pos++
	}
	if start == p.pos {
		return 1
	}
	n, err := strconv.ParseFloat(p.src[start:p.pos], 64)
	if err != nil {
		return 1
	}
	return n
}

// isAnnotation reports valence "(5)", "(+3)", "(-2)" or phase "(g)", "(aq)" contents.
func isAnnotation(s string) bool {
	if s == "" {
		return false
	}
	digits, lower := true, true
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !isDigit(c) && c != '+' && c != '-' {
			digits = false
		}
		if c < 'a' || c > 'z' {
			lower = false
		}
	}
	return digits || lower
}

func stripCharge(s string) string {
	i := len(s)
	for i > 0 && isDigit(s[i-1]) {
		i--
	}
	j := i
	for j > 0 && (s[j-1] == '+' || s[j-1] == '-') {
		j--
	}
	if j == i {
		return s
	}
	return s[:j]
}

func splitHydrate(s string) []string {
	s = strings.ReplaceAll(s, "·", ":")
	return strings.FieldsFunc(s, func(r rune) bool { return r == ':' || r == '*' })
}

func leadingNumber(s string) (float64, string) {
	i := 0
	for i < len(s) && (isDigit(s[i]) || s[i] == '.') {
		i++
	}
	if i == 0 {
		return 0, s
	}
	n, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return 0, s
	}
	return n, s[i:]
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
