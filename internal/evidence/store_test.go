// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package evidence

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/transfer-engine/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), "run-test", nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestArtifact_RoundTrip(t *testing.T) {
	s := openTestStore(t)

	in := types.DiscoveryArtifact{
		University: "UPM",
		Selected:   []string{"https://upm.es/plan.pdf"},
		Candidates: []types.CandidateURL{{URL: "https://upm.es/plan.pdf", Score: 135, Selected: true}},
	}
	assert.False(t, s.HasArtifact("upm", StageDiscovery))

	ref, err := s.WriteArtifact("upm", StageDiscovery, in)
	require.NoError(t, err)
	assert.Equal(t, "upm/discovery.json", ref)
	assert.True(t, s.HasArtifact("upm", StageDiscovery))

	var out types.DiscoveryArtifact
	require.NoError(t, s.ReadArtifact("upm", StageDiscovery, &out))
	assert.Equal(t, in.Selected, out.Selected)
	assert.Equal(t, 135.0, out.Candidates[0].Score)

	infos, err := s.Artifacts("upm")
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "run-test", infos[0].RunID)
	assert.Len(t, infos[0].SHA256, 64)
}

func TestArtifact_Missing(t *testing.T) {
	s := openTestStore(t)
	var out types.MatchArtifact
	err := s.ReadArtifact("nobody", StageMatches, &out)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestArtifact_OverwriteKeepsOneIndexRow(t *testing.T) {
	s := openTestStore(t)
	_, err := s.WriteArtifact("uv", StagePrestige, types.PrestigeArtifact{University: "UV"})
	require.NoError(t, err)
	_, err = s.WriteArtifact("uv", StagePrestige, types.PrestigeArtifact{University: "UV", Score: types.DimensionScore{Score: 70}})
	require.NoError(t, err)
	_, err = s.WriteArtifact("uv", StageDiscovery, types.DiscoveryArtifact{University: "UV"})
	require.NoError(t, err)

	infos, err := s.Artifacts("uv")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, StageDiscovery, infos[0].Stage, "stage order")
	assert.Equal(t, StagePrestige, infos[1].Stage)

	var out types.PrestigeArtifact
	require.NoError(t, s.ReadArtifact("uv", StagePrestige, &out))
	assert.Equal(t, 70.0, out.Score.Score)
}

func TestGetOrFetch_CachesAcrossCalls(t *testing.T) {
	s := openTestStore(t)
	var calls int32
	fetch := func(context.Context) (Document, error) {
		atomic.AddInt32(&calls, 1)
		return Document{Body: []byte("<html>plan</html>"), ContentType: "text/html"}, nil
	}

	first, err := s.GetOrFetch(context.Background(), "https://uv.es/plan", false, fetch)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := s.GetOrFetch(context.Background(), "https://uv.es/plan", false, fetch)
	require.NoError(t, err)
	assert.True(t, second.Cached)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, first.Body, second.Body)
	assert.Equal(t, "text/html", second.ContentType)
}

func TestGetOrFetch_ConcurrentCallersShareOneFetch(t *testing.T) {
	s := openTestStore(t)
	var calls int32
	release := make(chan struct{})
	fetch := func(context.Context) (Document, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return Document{Body: []byte("%PDF-1.4")}, nil
	}

	var wg sync.WaitGroup
	bodies := make([][]byte, 8)
	for i := range bodies {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			doc, err := s.GetOrFetch(context.Background(), "https://upc.edu/guia.pdf", false, fetch)
			assert.NoError(t, err)
			bodies[i] = doc.Body
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, b := range bodies {
		assert.Equal(t, []byte("%PDF-1.4"), b)
	}
}

func TestGetOrFetch_RefreshRefetchesOncePerStore(t *testing.T) {
	root := t.TempDir()
	var calls int32
	fetch := func(context.Context) (Document, error) {
		n := atomic.AddInt32(&calls, 1)
		return Document{Body: []byte{byte('0' + n)}}, nil
	}

	s1, err := Open(root, "run-1", nil)
	require.NoError(t, err)
	_, err = s1.GetOrFetch(context.Background(), "https://x.es", false, fetch)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(root, "run-2", nil)
	require.NoError(t, err)
	defer s2.Close()

	doc, err := s2.GetOrFetch(context.Background(), "https://x.es", true, fetch)
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), doc.Body)

	doc, err = s2.GetOrFetch(context.Background(), "https://x.es", true, fetch)
	require.NoError(t, err)
	assert.True(t, doc.Cached)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetOrFetch_ErrorIsNotCached(t *testing.T) {
	s := openTestStore(t)
	boom := errors.New("boom")
	_, err := s.GetOrFetch(context.Background(), "https://bad.es", false, func(context.Context) (Document, error) {
		return Document{}, boom
	})
	assert.ErrorIs(t, err, boom)

	doc, err := s.GetOrFetch(context.Background(), "https://bad.es", false, func(context.Context) (Document, error) {
		return Document{Body: []byte("ok")}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), doc.Body)
}

func TestSearchLines(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	lines := []types.ExtractedLine{
		{SourceURL: "https://upm.es/a", DocType: types.DocHTML, LineIndex: 0, RawText: "Algoritmos y Estructuras de Datos", IsCourseLike: true},
		{SourceURL: "https://upm.es/a", DocType: types.DocHTML, LineIndex: 1, RawText: "Aviso legal", IsCourseLike: false},
		{SourceURL: "https://upm.es/b.pdf", DocType: types.DocPDF, Page: 2, LineIndex: 7, RawText: "Bases de Datos 6 ECTS", IsCourseLike: true},
	}
	require.NoError(t, s.IndexLines(ctx, "upm", lines))

	hits, err := s.SearchLines(ctx, LineQuery{Text: "datos"})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "upm", hits[0].Slug)
	assert.Equal(t, 2, hits[1].Page)

	hits, err = s.SearchLines(ctx, LineQuery{Text: "ALGORÍTMOS", CourseLikeOnly: true})
	require.NoError(t, err)
	assert.Len(t, hits, 1, "query is accent and case folded")

	hits, err = s.SearchLines(ctx, LineQuery{Text: "aviso", CourseLikeOnly: true})
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = s.SearchLines(ctx, LineQuery{Text: "algoritmos estructuras"})
	require.NoError(t, err)
	require.Len(t, hits, 1)

	require.NoError(t, s.IndexLines(ctx, "upm", lines[:1]))
	hits, err = s.SearchLines(ctx, LineQuery{Text: "datos", Slug: "upm"})
	require.NoError(t, err)
	assert.Len(t, hits, 1, "reindexing replaces previous lines")
}

func TestPurge(t *testing.T) {
	s := openTestStore(t)
	_, err := s.WriteArtifact("upm", StageMatches, types.MatchArtifact{})
	require.NoError(t, err)
	_, err = s.GetOrFetch(context.Background(), "https://x.es", false, func(context.Context) (Document, error) {
		return Document{Body: []byte("x")}, nil
	})
	require.NoError(t, err)

	require.NoError(t, s.Purge())
	assert.False(t, s.HasArtifact("upm", StageMatches))
	_, err = s.LoadDocument(DocumentKey("https://x.es"))
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = os.Stat(filepath.Join(s.Root(), documentsDir))
	assert.NoError(t, err)
}
