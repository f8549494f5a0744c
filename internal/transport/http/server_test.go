package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"memoryai/internal/ai"
	"memoryai/internal/bootstrap"
	"memoryai/internal/config"
	"memoryai/internal/model"
	"memoryai/internal/vectorindex"
)

type stubEmbedder struct{}

func stubVector(text string) []float32 {
	v := make([]float32, 16)
	for _, b := range []byte(strings.ToLower(text)) {
		v[int(b)%16]++
	}
	return v
}

func (stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return stubVector(text), nil
}

func (stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = stubVector(text)
	}
	return vectors, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.Entity{}, &model.Relation{}, &model.Session{}, &model.Document{}))

	app := &bootstrap.App{
		Config: &config.Config{
			App:       config.AppConfig{Name: "memoryai", Env: "test", GinMode: "test"},
			Chunking:  config.ChunkingConfig{Size: 512, Overlap: 50},
			Retrieval: config.RetrievalConfig{DefaultResults: 10},
		},
		DB:          db,
		Index:       vectorindex.NewMemory(),
		Embedder:    stubEmbedder{},
		Synthesizer: ai.NewSynthesizer(),
		StartedAt:   time.Now(),
	}

	server := httptest.NewServer(NewRouter(app))
	t.Cleanup(server.Close)
	return server
}

type apiEnvelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, method, url string, body any) (*stdhttp.Response, apiEnvelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := stdhttp.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := stdhttp.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var env apiEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func TestIngestQueryDeleteOverHTTP(t *testing.T) {
	server := newTestServer(t)

	resp, env := doJSON(t, stdhttp.MethodPost, server.URL+"/ingest/text", map[string]any{
		"text":   "MemoryAI tracks $AAPL and $TSLA trends. @analyst_jane covers both.",
		"source": "demo",
	})
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, env.Code)

	var ingested struct {
		DocID         string `json:"doc_id"`
		ChunksCreated int    `json:"chunks_created"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &ingested))
	assert.Len(t, ingested.DocID, 16)
	assert.Equal(t, 1, ingested.ChunksCreated)

	resp, env = doJSON(t, stdhttp.MethodPost, server.URL+"/query", map[string]any{
		"question": "What does analyst_jane cover?",
	})
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)

	var queried struct {
		Answer               string `json:"answer"`
		TotalChunksRetrieved int    `json:"total_chunks_retrieved"`
		Sources              []struct {
			Source         string  `json:"source"`
			RelevanceScore float64 `json:"relevance_score"`
		} `json:"sources"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &queried))
	assert.Equal(t, 1, queried.TotalChunksRetrieved)
	require.Len(t, queried.Sources, 1)
	assert.Equal(t, "demo", queried.Sources[0].Source)
	assert.Greater(t, queried.Sources[0].RelevanceScore, float64(0))

	resp, env = doJSON(t, stdhttp.MethodDelete, server.URL+"/documents/"+ingested.DocID, nil)
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)

	var deleted struct {
		ChunksDeleted int `json:"chunks_deleted"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &deleted))
	assert.Equal(t, 1, deleted.ChunksDeleted)
}

func TestIngestTextValidationOverHTTP(t *testing.T) {
	server := newTestServer(t)

	resp, env := doJSON(t, stdhttp.MethodPost, server.URL+"/ingest/text", map[string]any{
		"source": "demo",
	})
	assert.Equal(t, stdhttp.StatusBadRequest, resp.StatusCode)
	assert.NotEqual(t, 0, env.Code)

	resp, _ = doJSON(t, stdhttp.MethodPost, server.URL+"/ingest/text", map[string]any{
		"text":   "   ",
		"source": "demo",
	})
	assert.Equal(t, stdhttp.StatusBadRequest, resp.StatusCode)
}

func TestQueryEmptyQuestionOverHTTP(t *testing.T) {
	// An empty question is not a validation error; the caller gets the
	// canned answer with an OK status.
	server := newTestServer(t)

	resp, env := doJSON(t, stdhttp.MethodPost, server.URL+"/query", map[string]any{
		"question": "",
	})
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)

	var queried struct {
		Answer  string        `json:"answer"`
		Sources []interface{} `json:"sources"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &queried))
	assert.Equal(t, "Please provide a question.", queried.Answer)
	assert.Empty(t, queried.Sources)
}

func TestNavigateOverHTTP(t *testing.T) {
	server := newTestServer(t)

	_, _ = doJSON(t, stdhttp.MethodPost, server.URL+"/ingest/text", map[string]any{
		"text":   "MemoryAI tracks $AAPL and $TSLA trends. @analyst_jane covers both.",
		"source": "demo",
	})

	resp, env := doJSON(t, stdhttp.MethodPost, server.URL+"/navigate", map[string]any{
		"question": "What does analyst_jane cover?",
	})
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)

	var first struct {
		SessionID    string `json:"session_id"`
		SessionTurns int    `json:"session_turns"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &first))
	assert.Len(t, first.SessionID, 12)
	assert.Equal(t, 1, first.SessionTurns)

	resp, env = doJSON(t, stdhttp.MethodPost, server.URL+"/navigate", map[string]any{
		"question":   "And the tickers?",
		"session_id": first.SessionID,
	})
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)

	var second struct {
		SessionID    string `json:"session_id"`
		SessionTurns int    `json:"session_turns"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &second))
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Equal(t, 2, second.SessionTurns)
}

func TestCollectionsOverHTTP(t *testing.T) {
	server := newTestServer(t)

	for i := 0; i < 2; i++ {
		_, _ = doJSON(t, stdhttp.MethodPost, server.URL+"/ingest/text", map[string]any{
			"text":   fmt.Sprintf("Document number %d mentions $AAPL in passing.", i),
			"source": fmt.Sprintf("doc-%d.txt", i),
		})
	}

	resp, env := doJSON(t, stdhttp.MethodGet, server.URL+"/collections", nil)
	require.Equal(t, stdhttp.StatusOK, resp.StatusCode)

	var stats struct {
		TotalChunks    int      `json:"total_chunks"`
		TotalDocuments int      `json:"total_documents"`
		Sources        []string `json:"sources"`
		UniqueEntities int64    `json:"unique_entities"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 2, stats.TotalChunks)
	assert.Equal(t, 2, stats.TotalDocuments)
	assert.Equal(t, []string{"doc-0.txt", "doc-1.txt"}, stats.Sources)
	assert.Equal(t, int64(1), stats.UniqueEntities)
}

func TestHealthzOverHTTP(t *testing.T) {
	server := newTestServer(t)

	resp, err := stdhttp.Get(server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, stdhttp.StatusOK, resp.StatusCode)

	var body struct {
		App          string         `json:"app"`
		Dependencies map[string]any `json:"dependencies"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "memoryai", body.App)
	assert.Contains(t, body.Dependencies, "database")
	assert.Contains(t, body.Dependencies, "vector_index")
	assert.NotContains(t, body.Dependencies, "redis")
}
