// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerperBackend_Search(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.Header.Get("X-API-KEY"))

		var req serperRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "UPM informática (site:upm.es)", req.Q)
		assert.Equal(t, "es", req.GL)
		assert.Equal(t, 10, req.Num)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"organic":[
			{"title":"Plan de estudios","link":"https://upm.es/plan.pdf","snippet":"ECTS","position":1},
			{"title":"Noticias","link":"https://upm.es/news","position":2}
		]}`))
	}))
	defer ts.Close()

	old := serperAPIURL
	serperAPIURL = ts.URL
	defer func() { serperAPIURL = old }()

	b := &SerperBackend{Client: ts.Client(), APIKey: "secret"}
	hits, err := b.Search(context.Background(), Query{Text: "UPM informática", Country: "es", Language: "es", Sites: []string{"upm.es"}}, testCfg())
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "https://upm.es/plan.pdf", hits[0].URL)
	assert.Equal(t, 1, hits[0].Rank)
	assert.Equal(t, "serper", hits[0].Backend)
	assert.Equal(t, "UPM informática", hits[0].Query)
}

func TestSerperBackend_MissingKey(t *testing.T) {
	b := &SerperBackend{}
	_, err := b.Search(context.Background(), Query{Text: "x"}, testCfg())
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestSerperBackend_HTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("bad key"))
	}))
	defer ts.Close()

	old := serperAPIURL
	serperAPIURL = ts.URL
	defer func() { serperAPIURL = old }()

	b := &SerperBackend{Client: ts.Client(), APIKey: "k"}
	_, err := b.Search(context.Background(), Query{Text: "x"}, testCfg())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 403")
}
