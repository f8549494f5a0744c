package vectorindex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQdrantInitCreatesCollection(t *testing.T) {
	var gotPath, gotMethod string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"result": true, "status": "ok"}`))
	}))
	defer server.Close()

	q := NewQdrant(QdrantConfig{URL: server.URL, Collection: "kb"})
	require.NoError(t, q.Init(context.Background(), 1536))

	assert.Equal(t, "/collections/kb", gotPath)
	assert.Equal(t, http.MethodPut, gotMethod)
	vectors := gotBody["vectors"].(map[string]any)
	assert.Equal(t, float64(1536), vectors["size"])
	assert.Equal(t, "Cosine", vectors["distance"])

	assert.Error(t, q.Init(context.Background(), 0))
}

func TestQdrantAddSendsPointsWithPayload(t *testing.T) {
	var gotBody map[string]any
	var gotAPIKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("api-key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"result": {}, "status": "ok"}`))
	}))
	defer server.Close()

	q := NewQdrant(QdrantConfig{URL: server.URL, APIKey: "secret", Collection: "kb"})
	err := q.Add(context.Background(),
		[]string{"doc1_chunk_0"},
		[][]float32{{1, 0}},
		[]string{"chunk text"},
		[]Metadata{{DocID: "doc1", Source: "a.txt", ChunkIndex: 0, Timestamp: "2026-01-01T00:00:00Z"}},
	)
	require.NoError(t, err)
	assert.Equal(t, "secret", gotAPIKey)

	points := gotBody["points"].([]any)
	require.Len(t, points, 1)
	point := points[0].(map[string]any)
	// Chunk ids are not valid point ids; a UUID stands in and the chunk id
	// rides in the payload.
	assert.NotEqual(t, "doc1_chunk_0", point["id"])
	payload := point["payload"].(map[string]any)
	assert.Equal(t, "doc1_chunk_0", payload["chunk_id"])
	assert.Equal(t, "chunk text", payload["text"])
	assert.Equal(t, "doc1", payload["doc_id"])
}

func TestQdrantQueryConvertsScoreToDistance(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"result": [
			{"score": 0.94, "payload": {"chunk_id": "doc1_chunk_0", "text": "hit", "doc_id": "doc1", "source": "a.txt", "chunk_index": 0}}
		], "status": "ok"}`))
	}))
	defer server.Close()

	q := NewQdrant(QdrantConfig{URL: server.URL, Collection: "kb"})
	matches, err := q.Query(context.Background(), []float32{1, 0}, 5, &Filter{DocID: "doc1"})
	require.NoError(t, err)

	require.Len(t, matches, 1)
	assert.Equal(t, "doc1_chunk_0", matches[0].ID)
	assert.Equal(t, "hit", matches[0].Text)
	assert.InDelta(t, 0.06, matches[0].Distance, 1e-9)
	assert.Equal(t, "doc1", matches[0].Metadata.DocID)

	filter := gotBody["filter"].(map[string]any)
	must := filter["must"].([]any)[0].(map[string]any)
	assert.Equal(t, "doc_id", must["key"])

	_, err = q.Query(context.Background(), []float32{1, 0}, 0, nil)
	assert.Error(t, err)
}

func TestQdrantDeleteWhereReportsCount(t *testing.T) {
	deleteCalled := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/collections/kb/points/count":
			_, _ = w.Write([]byte(`{"result": {"count": 3}, "status": "ok"}`))
		case "/collections/kb/points/delete":
			deleteCalled = true
			_, _ = w.Write([]byte(`{"result": {}, "status": "ok"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	q := NewQdrant(QdrantConfig{URL: server.URL, Collection: "kb"})
	deleted, err := q.DeleteWhere(context.Background(), Filter{DocID: "doc1"})
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)
	assert.True(t, deleteCalled)
}

func TestQdrantDeleteWhereNoMatchesSkipsDelete(t *testing.T) {
	deleteCalled := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/collections/kb/points/count":
			_, _ = w.Write([]byte(`{"result": {"count": 0}, "status": "ok"}`))
		default:
			deleteCalled = true
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	q := NewQdrant(QdrantConfig{URL: server.URL, Collection: "kb"})
	deleted, err := q.DeleteWhere(context.Background(), Filter{DocID: "doc1"})
	require.NoError(t, err)
	assert.Equal(t, 0, deleted)
	assert.False(t, deleteCalled)
}

func TestQdrantAllMetadataFollowsPagination(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			_, _ = w.Write([]byte(`{"result": {"points": [
				{"payload": {"doc_id": "doc1", "source": "a.txt", "chunk_index": 0}}
			], "next_page_offset": "cursor-1"}, "status": "ok"}`))
			return
		}
		_, _ = w.Write([]byte(`{"result": {"points": [
			{"payload": {"doc_id": "doc2", "source": "b.txt", "chunk_index": 0}}
		], "next_page_offset": null}, "status": "ok"}`))
	}))
	defer server.Close()

	q := NewQdrant(QdrantConfig{URL: server.URL, Collection: "kb"})
	metas, err := q.AllMetadata(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.Len(t, metas, 2)
	assert.Equal(t, "doc1", metas[0].DocID)
	assert.Equal(t, "doc2", metas[1].DocID)
}

func TestQdrantErrorStatusSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status": {"error": "bad request"}}`))
	}))
	defer server.Close()

	q := NewQdrant(QdrantConfig{URL: server.URL, Collection: "kb"})
	_, err := q.Count(context.Background())
	assert.ErrorContains(t, err, "qdrant response status 400")
}

func TestPointIDDeterministic(t *testing.T) {
	assert.Equal(t, pointID("doc1_chunk_0"), pointID("doc1_chunk_0"))
	assert.NotEqual(t, pointID("doc1_chunk_0"), pointID("doc1_chunk_1"))
	assert.Len(t, pointID("doc1_chunk_0"), 36)
}
