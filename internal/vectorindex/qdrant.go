package vectorindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Qdrant is a minimal REST adapter to a Qdrant collection configured for
// cosine distance. Chunk ids are not valid Qdrant point ids, so points use a
// deterministic UUIDv5 derived from the chunk id and keep the chunk id in the
// payload.
type Qdrant struct {
	baseURL    string
	apiKey     string
	collection string
	client     *http.Client
}

type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func NewQdrant(cfg QdrantConfig) *Qdrant {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Qdrant{
		baseURL:    cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// Init creates the collection if it does not exist. Qdrant answers 200 for an
// existing collection with the same schema.
func (q *Qdrant) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid vector dimension %d", dimension)
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	return q.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s", q.collection), body, nil)
}

func (q *Qdrant) Add(ctx context.Context, ids []string, vectors [][]float32, texts []string, metadatas []Metadata) error {
	if len(ids) != len(vectors) || len(ids) != len(texts) || len(ids) != len(metadatas) {
		return fmt.Errorf("add batch length mismatch: ids=%d vectors=%d texts=%d metadatas=%d",
			len(ids), len(vectors), len(texts), len(metadatas))
	}
	points := make([]map[string]any, len(ids))
	for i := range ids {
		points[i] = map[string]any{
			"id":     pointID(ids[i]),
			"vector": vectors[i],
			"payload": map[string]any{
				"chunk_id":    ids[i],
				"text":        texts[i],
				"doc_id":      metadatas[i].DocID,
				"source":      metadatas[i].Source,
				"chunk_index": metadatas[i].ChunkIndex,
				"timestamp":   metadatas[i].Timestamp,
				"extra":       metadatas[i].Extra,
			},
		}
	}
	body := map[string]any{"points": points}
	return q.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s/points?wait=true", q.collection), body, nil)
}

func (q *Qdrant) Query(ctx context.Context, vector []float32, k int, filter *Filter) ([]Match, error) {
	if k <= 0 {
		return nil, fmt.Errorf("query k must be positive, got %d", k)
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	if f := qdrantFilter(filter); f != nil {
		req["filter"] = f
	}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	err := q.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/search", q.collection), req, &resp)
	if err != nil {
		return nil, err
	}
	matches := make([]Match, 0, len(resp.Result))
	for _, r := range resp.Result {
		m := Match{
			// Qdrant reports cosine similarity; the port contract is distance.
			Distance: 1 - r.Score,
			Metadata: payloadMetadata(r.Payload),
		}
		if v, ok := r.Payload["chunk_id"].(string); ok {
			m.ID = v
		}
		if v, ok := r.Payload["text"].(string); ok {
			m.Text = v
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// DeleteWhere counts the matching points first, then deletes by filter. The
// count and the delete are not atomic; the count reflects what existed when
// it was read.
func (q *Qdrant) DeleteWhere(ctx context.Context, filter Filter) (int, error) {
	count, err := q.count(ctx, qdrantFilter(&filter))
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}
	req := map[string]any{"filter": map[string]any{}}
	if f := qdrantFilter(&filter); f != nil {
		req["filter"] = f
	}
	err = q.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/delete?wait=true", q.collection), req, nil)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (q *Qdrant) Count(ctx context.Context) (int, error) {
	return q.count(ctx, nil)
}

func (q *Qdrant) AllMetadata(ctx context.Context) ([]Metadata, error) {
	var metas []Metadata
	var offset any
	for {
		req := map[string]any{
			"limit":        256,
			"with_payload": true,
		}
		if offset != nil {
			req["offset"] = offset
		}
		var resp struct {
			Result struct {
				Points []struct {
					Payload map[string]any `json:"payload"`
				} `json:"points"`
				NextPageOffset any `json:"next_page_offset"`
			} `json:"result"`
		}
		err := q.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/scroll", q.collection), req, &resp)
		if err != nil {
			return nil, err
		}
		for _, p := range resp.Result.Points {
			metas = append(metas, payloadMetadata(p.Payload))
		}
		if resp.Result.NextPageOffset == nil {
			return metas, nil
		}
		offset = resp.Result.NextPageOffset
	}
}

func (q *Qdrant) count(ctx context.Context, filter map[string]any) (int, error) {
	req := map[string]any{"exact": true}
	if filter != nil {
		req["filter"] = filter
	}
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	err := q.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/count", q.collection), req, &resp)
	if err != nil {
		return 0, err
	}
	return resp.Result.Count, nil
}

func (q *Qdrant) do(ctx context.Context, method, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal qdrant request failed: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, q.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build qdrant request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}
	resp, err := q.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read qdrant response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant response status %d: %s", resp.StatusCode, string(raw))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse qdrant json failed: %w", err)
	}
	return nil
}

func qdrantFilter(filter *Filter) map[string]any {
	if filter == nil || filter.DocID == "" {
		return nil
	}
	return map[string]any{
		"must": []map[string]any{
			{"key": "doc_id", "match": map[string]any{"value": filter.DocID}},
		},
	}
}

func payloadMetadata(payload map[string]any) Metadata {
	var meta Metadata
	if v, ok := payload["doc_id"].(string); ok {
		meta.DocID = v
	}
	if v, ok := payload["source"].(string); ok {
		meta.Source = v
	}
	if v, ok := payload["chunk_index"].(float64); ok {
		meta.ChunkIndex = int(v)
	}
	if v, ok := payload["timestamp"].(string); ok {
		meta.Timestamp = v
	}
	if v, ok := payload["extra"].(map[string]any); ok && len(v) > 0 {
		meta.Extra = make(map[string]string, len(v))
		for k, raw := range v {
			if s, ok := raw.(string); ok {
				meta.Extra[k] = s
			}
		}
	}
	return meta
}

func pointID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(chunkID)).String()
}
