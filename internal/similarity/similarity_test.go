// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const algoLine = "Algoritmos y Estructuras de Datos — 6 ECTS"

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"algoritmos", "estructuras", "datos"}, Tokens(algoLine))
	assert.Equal(t, []string{"calculo", "ii"}, Tokens("Cálculo II (4,5 créditos)"))
	assert.Empty(t, Tokens("6 ECTS"))
}

func TestRatio(t *testing.T) {
	assert.InDelta(t, 80.0, Ratio("algorithms", "algoritmos"), 1e-9)
	assert.InDelta(t, 100.0, Ratio("", ""), 1e-9)
	assert.InDelta(t, 0.0, Ratio("abc", ""), 1e-9)
}

func TestTokenSetRatio(t *testing.T) {
	assert.InDelta(t, 100.0, TokenSetRatio([]string{"estructuras", "datos"}, []string{"datos", "estructuras"}), 1e-9)
	assert.InDelta(t, 100.0, TokenSetRatio([]string{"fisica"}, []string{"fisica", "laboratorio"}), 1e-9)
	assert.Zero(t, TokenSetRatio(nil, []string{"x"}))
}

func TestCoverage(t *testing.T) {
	assert.InDelta(t, 80.0, Coverage([]string{"algorithms"}, Tokens(algoLine)), 1e-9)
	assert.InDelta(t, 44.44, Coverage([]string{"databases"}, Tokens(algoLine)), 0.01)
	assert.Zero(t, Coverage(nil, []string{"x"}))
}

func TestScore(t *testing.T) {
	tests := []struct {
		course, line string
		min, max     float64
	}{
		{"Algorithms", algoLine, 75, 100},
		{"Databases", algoLine, 0, 55},
		{"Estructuras de Datos", "Datos, estructuras de", 100, 100},
		{"Cálculo", "CALCULO 6 ECTS", 100, 100},
		{"", algoLine, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.course, func(t *testing.T) {
			s := Score(tt.course, tt.line)
			assert.GreaterOrEqual(t, s, tt.min)
			assert.LessOrEqual(t, s, tt.max)
		})
	}
}

func TestScoreDeterministic(t *testing.T) {
	first := Score("Sistemas Operativos", "Sistemas operativos avanzados 6 ECTS")
	for range 10 {
		assert.Equal(t, first, Score("Sistemas Operativos", "Sistemas operativos avanzados 6 ECTS"))
	}
}
