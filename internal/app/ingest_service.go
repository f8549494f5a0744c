package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kataras/golog"

	"memoryai/internal/ai"
	"memoryai/internal/chunker"
	"memoryai/internal/model"
	"memoryai/internal/pkg/pdfextract"
	"memoryai/internal/pkg/webextract"
	"memoryai/internal/repository"
	"memoryai/internal/vectorindex"
)

// DocumentEventPublisher pushes document catalog records onto a queue for
// asynchronous persistence. The catalog is bookkeeping, not retrieval state,
// so it can trail ingestion.
type DocumentEventPublisher interface {
	Publish(ctx context.Context, doc model.Document) error
}

// IngestResult reports what one ingestion produced.
type IngestResult struct {
	DocID         string `json:"doc_id"`
	Source        string `json:"source"`
	ChunksCreated int    `json:"chunks_created"`
	EntitiesFound int    `json:"entities_found"`
	Timestamp     string `json:"timestamp"`
}

// DeleteResult reports the per-store outcome of removing a document.
type DeleteResult struct {
	DocID         string `json:"doc_id"`
	ChunksDeleted int    `json:"chunks_deleted"`
	GraphPurged   bool   `json:"graph_purged"`
}

// IngestService is the write-side orchestrator: it chunks text, embeds the
// chunks, stores vectors and graph state, and records the document in the
// catalog. The vector index is the system of record for chunk text.
type IngestService struct {
	index        vectorindex.Index
	embedder     ai.Embedder
	graph        *GraphService
	documentRepo *repository.DocumentRepository
	publisher    DocumentEventPublisher

	chunkSize    int
	chunkOverlap int
}

// NewIngestService wires the ingestion pipeline. publisher may be nil, in
// which case document catalog rows are written inline.
func NewIngestService(
	index vectorindex.Index,
	embedder ai.Embedder,
	graph *GraphService,
	documentRepo *repository.DocumentRepository,
	publisher DocumentEventPublisher,
	chunkSize, chunkOverlap int,
) *IngestService {
	return &IngestService{
		index:        index,
		embedder:     embedder,
		graph:        graph,
		documentRepo: documentRepo,
		publisher:    publisher,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// DocID derives the stable document identifier from its source and the head
// of its text. Re-ingesting identical content yields the same id.
func DocID(source, text string) string {
	head := text
	if len(head) > 200 {
		head = head[:200]
	}
	sum := sha256.Sum256([]byte(source + ":" + head))
	return hex.EncodeToString(sum[:])[:16]
}

// IngestText runs the full pipeline over raw text. metadata is carried
// opaquely onto every chunk of the document.
func (s *IngestService) IngestText(ctx context.Context, text, source string, metadata map[string]string) (*IngestResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if source == "" {
		source = "unknown"
	}

	docID := DocID(source, text)
	chunks := chunker.Chunk(text, s.chunkSize, s.chunkOverlap)
	if len(chunks) == 0 {
		return nil, ErrNoChunks
	}

	vectors, err := s.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("embed chunks failed: %w", err)
	}

	now := time.Now().UTC()
	ids := make([]string, len(chunks))
	metadatas := make([]vectorindex.Metadata, len(chunks))
	for i := range chunks {
		ids[i] = fmt.Sprintf("%s_chunk_%d", docID, i)
		metadatas[i] = vectorindex.Metadata{
			DocID:      docID,
			Source:     source,
			ChunkIndex: i,
			Timestamp:  now.Format(time.RFC3339),
			Extra:      metadata,
		}
	}
	if err := s.index.Add(ctx, ids, vectors, chunks, metadatas); err != nil {
		return nil, fmt.Errorf("index chunks failed: %w", err)
	}

	// The vectors are durable at this point. Graph extraction failing must
	// not fail the ingestion, retrieval still works without connections.
	entities, err := s.graph.StoreChunkEntities(docID, chunks, ids)
	if err != nil {
		golog.Warnf("graph extraction failed for doc %s: %v", docID, err)
	}

	s.recordDocument(ctx, docID, source, now, metadata)

	return &IngestResult{
		DocID:         docID,
		Source:        source,
		ChunksCreated: len(chunks),
		EntitiesFound: entities,
		Timestamp:     now.Format(time.RFC3339),
	}, nil
}

// IngestPDF extracts plain text from a PDF stream and ingests it with the
// filename as source.
func (s *IngestService) IngestPDF(ctx context.Context, r io.Reader, filename string, metadata map[string]string) (*IngestResult, error) {
	text, err := pdfextract.ExtractText(r)
	if err != nil {
		return nil, fmt.Errorf("extract pdf text failed: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoExtractedText
	}
	return s.IngestText(ctx, text, filename, metadata)
}

// IngestURL fetches a page, strips boilerplate and ingests the remaining
// text with the url as source.
func (s *IngestService) IngestURL(ctx context.Context, url string, metadata map[string]string) (*IngestResult, error) {
	if strings.TrimSpace(url) == "" {
		return nil, ErrEmptyURL
	}
	text, err := webextract.ExtractText(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("extract url text failed: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoExtractedText
	}
	return s.IngestText(ctx, text, url, metadata)
}

// Delete removes a document from every store. Vector deletion is
// authoritative for the reported chunk count; graph and catalog cleanup
// failures are logged but do not fail the call once the vectors are gone.
func (s *IngestService) Delete(ctx context.Context, docID string) (*DeleteResult, error) {
	if strings.TrimSpace(docID) == "" {
		return nil, ErrEmptyDocID
	}

	deleted, err := s.index.DeleteWhere(ctx, vectorindex.Filter{DocID: docID})
	if err != nil {
		return nil, fmt.Errorf("delete document vectors failed: %w", err)
	}

	graphPurged := true
	if err := s.graph.DeleteDocument(docID); err != nil {
		graphPurged = false
		golog.Warnf("graph cleanup failed for doc %s: %v", docID, err)
	}
	if s.documentRepo != nil {
		if err := s.documentRepo.DeleteByDocID(docID); err != nil {
			golog.Warnf("catalog cleanup failed for doc %s: %v", docID, err)
		}
	}

	return &DeleteResult{DocID: docID, ChunksDeleted: deleted, GraphPurged: graphPurged}, nil
}

// recordDocument writes the catalog row, via the queue when a publisher is
// wired and inline otherwise. Catalog failures never fail ingestion.
func (s *IngestService) recordDocument(ctx context.Context, docID, source string, ingestedAt time.Time, metadata map[string]string) {
	doc := model.Document{DocID: docID, Source: source, IngestedAt: ingestedAt}
	doc.SetMetadataMap(metadata)

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, doc); err != nil {
			golog.Warnf("publish document record failed for doc %s: %v", docID, err)
		}
		return
	}
	if s.documentRepo == nil {
		return
	}
	if err := s.documentRepo.Upsert(&doc); err != nil {
		golog.Warnf("store document record failed for doc %s: %v", docID, err)
	}
}
