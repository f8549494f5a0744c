// Package vectorindex defines the port the orchestrators use to talk to the
// embedding similarity index, plus the adapters implementing it.
package vectorindex

import "context"

// Metadata carries the fixed per-chunk fields the retrieval pipeline relies
// on, plus an open extension map for caller-supplied key-values.
type Metadata struct {
	DocID      string            `json:"doc_id"`
	Source     string            `json:"source"`
	ChunkIndex int               `json:"chunk_index"`
	Timestamp  string            `json:"timestamp"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Match is one similarity-search hit. Distance is cosine distance: lower
// means more similar.
type Match struct {
	ID       string
	Text     string
	Metadata Metadata
	Distance float64
}

// Filter restricts queries and deletes. A zero Filter matches everything.
type Filter struct {
	DocID string
}

func (f Filter) matches(m Metadata) bool {
	return f.DocID == "" || f.DocID == m.DocID
}

// Index is the contract the core relies on: add is batched, query returns
// results ranked by ascending distance, DeleteWhere reports how many entries
// it removed, AllMetadata feeds aggregate stats.
type Index interface {
	Add(ctx context.Context, ids []string, vectors [][]float32, texts []string, metadatas []Metadata) error
	Query(ctx context.Context, vector []float32, k int, filter *Filter) ([]Match, error)
	DeleteWhere(ctx context.Context, filter Filter) (int, error)
	Count(ctx context.Context) (int, error)
	AllMetadata(ctx context.Context) ([]Metadata, error)
}
