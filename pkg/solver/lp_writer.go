package solver

import (
	"fmt"
	"io"
	"math"
	"strings"
)

// writeLP serializes the model in CPLEX LP format, the common denominator of
// the external back-ends.
func writeLP(w io.Writer, m *Model) error {
	var b strings.Builder

	b.WriteString("Minimize\n obj:")
	wrote := false
	for i, v := range m.Vars {
		if v.Obj == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf(" %+g %s", v.Obj, varName(i, v)))
		wrote = true
	}
	if !wrote {
		b.WriteString(" 0 " + varName(0, m.Vars[0]))
	}
	b.WriteString("\nSubject To\n")

	row := 0
	writeRow := func(name string, terms []Term, op string, rhs float64) {
		b.WriteString(fmt.Sprintf(" %s:", name))
		for _, t := range terms {
			b.WriteString(fmt.Sprintf(" %+g %s", t.Coef, varName(t.Var, m.Vars[t.Var])))
		}
		b.WriteString(fmt.Sprintf(" %s %g\n", op, rhs))
	}
	for _, c := range m.Constrs {
		loFin := !math.IsInf(c.Lo, -1)
		hiFin := !math.IsInf(c.Hi, 1)
		switch {
		case loFin && hiFin && c.Lo == c.Hi:
			writeRow(fmt.Sprintf("c%d", row), c.Terms, "=", c.Lo)
		default:
			if hiFin {
				writeRow(fmt.Sprintf("c%d", row), c.Terms, "<=", c.Hi)
			}
			if loFin {
				writeRow(fmt.Sprintf("c%dl", row), c.Terms, ">=", c.Lo)
			}
		}
		row++
	}

	b.WriteString("Bounds\n")
	for i, v := range m.Vars {
		if v.Kind == Binary {
			continue
		}
		lo, hi := "-inf", "+inf"
		if !math.IsInf(v.Lo, -1) {
			lo = fmt.Sprintf("%g", v.Lo)
		}
		if !math.IsInf(v.Hi, 1) {
			hi = fmt.Sprintf("%g", v.Hi)
		}
		b.WriteString(fmt.Sprintf(" %s <= %s <= %s\n", lo, varName(i, v), hi))
	}

	gens := []string{}
	bins := []string{}
	for i, v := range m.Vars {
		switch v.Kind {
		case Integer:
			gens = append(gens, varName(i, v))
		case Binary:
			bins = append(bins, varName(i, v))
		}
	}
	if len(gens) > 0 {
		b.WriteString("Generals\n " + strings.Join(gens, " ") + "\n")
	}
	if len(bins) > 0 {
		b.WriteString("Binaries\n " + strings.Join(bins, " ") + "\n")
	}
	b.WriteString("End\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// varName keeps identifiers LP-safe and unique.
func varName(i int, v Var) string {
	if v.Name == "" {
		return fmt.Sprintf("x%d", i)
	}
	return fmt.Sprintf("v%d_%s", i, sanitize(v.Name))
}

func sanitize(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
