// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	assert.Equal(t, "politecnica de valencia", Fold("Politécnica de València"))
	assert.Equal(t, "guia docente", Fold("GUÍA DOCENTE"))
	assert.Equal(t, "espanola", Fold("Española"))
}

func TestSlug(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Universidad Politécnica de Madrid", "universidad_politecnica_de_madrid"},
		{"Universitat Politècnica de Catalunya (UPC)", "universitat_politecnica_de_catalunya_upc"},
		{"  --  ", "university"},
		{strings.Repeat("a", 100), strings.Repeat("a", 80)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slug(tt.in), tt.in)
	}
}

func TestCollapseSpace(t *testing.T) {
	assert.Equal(t, "Bases de Datos", CollapseSpace("  Bases \t de\n Datos "))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate(" abc ", 5))
	assert.Equal(t, "ab...", Truncate("abcdef", 2))
	assert.Equal(t, "", Truncate("abc", 0))
}
