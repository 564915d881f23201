package solver

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUnknownBackend(t *testing.T) {
	_, err := New("cplex-pro")
	assert.ErrorIs(t, err, ErrSolverUnavailable)

	s, err := New("glpk")
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestWriteLP(t *testing.T) {
	m := NewModel()
	x := m.AddVar("x", Binary, 0, 1, 2)
	y := m.AddVar("y", Continuous, 0, 5, 1)
	m.AddLE("cap", []Term{{Var: x, Coef: 1}, {Var: y, Coef: 3}}, 4)
	m.AddEQ("fix", []Term{{Var: y, Coef: 1}}, 2)
	m.AddGE("floor", []Term{{Var: x, Coef: 1}}, 0)

	var buf bytes.Buffer
	require.NoError(t, writeLP(&buf, m))
	out := buf.String()

	assert.Contains(t, out, "Minimize")
	assert.Contains(t, out, "Subject To")
	assert.Contains(t, out, "<= 4")
	assert.Contains(t, out, "= 2")
	assert.Contains(t, out, "Binaries")
	assert.Contains(t, out, "v0_x")
	assert.Contains(t, out, "Bounds")
	assert.Contains(t, out, "End")
}

func TestModelHelpers(t *testing.T) {
	m := NewModel()
	b := m.AddVar("b", Binary, -3, 7, 0)
	// binary bounds are clamped
	assert.Equal(t, 0.0, m.Vars[b].Lo)
	assert.Equal(t, 1.0, m.Vars[b].Hi)

	m.AddObj(b, 1.5)
	m.AddObj(b, 0.5)
	assert.Equal(t, 2.0, m.Vars[b].Obj)

	m.AddLE("r", []Term{{Var: b, Coef: 1}}, 1)
	assert.True(t, math.IsInf(m.Constrs[0].Lo, -1))
}
