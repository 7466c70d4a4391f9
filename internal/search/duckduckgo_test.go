// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ddgPage = `<html><body>
<div class="result result--ad"><a class="result__a" href="https://ads.example.com">Ad</a></div>
<div class="result">
  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.upv.es%2Ftitulaciones%2Fplan-estudios.pdf&rut=abc">Plan de estudios UPV</a>
  <a class="result__snippet">Asignaturas y créditos ECTS</a>
</div>
<div class="result">
  <a class="result__a" href="https://www.upv.es/noticias/2024">Noticias</a>
</div>
</body></html>`

func TestDuckDuckGoBackend_Search(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "UPV grado informática", r.URL.Query().Get("q"))
		assert.Equal(t, "es-es", r.URL.Query().Get("kl"))
		w.Write([]byte(ddgPage))
	}))
	defer ts.Close()

	old := duckDuckGoURL
	duckDuckGoURL = ts.URL + "/html/"
	defer func() { duckDuckGoURL = old }()

	b := &DuckDuckGoBackend{Client: ts.Client()}
	hits, err := b.Search(context.Background(), Query{Text: "UPV grado informática", Country: "es", Language: "es"}, testCfg())
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "https://www.upv.es/titulaciones/plan-estudios.pdf", hits[0].URL)
	assert.Equal(t, "Plan de estudios UPV", hits[0].Title)
	assert.Equal(t, "Asignaturas y créditos ECTS", hits[0].Snippet)
	assert.Equal(t, 1, hits[0].Rank)
	assert.Equal(t, 2, hits[1].Rank)
}

func TestResolveRedirect(t *testing.T) {
	assert.Equal(t, "https://a.es/x", resolveRedirect("//duckduckgo.com/l/?uddg=https%3A%2F%2Fa.es%2Fx"))
	assert.Equal(t, "https://b.es/", resolveRedirect("https://b.es/"))
	assert.Equal(t, "", resolveRedirect("javascript:void(0)"))
}
