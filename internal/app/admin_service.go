package app

import (
	"context"
	"fmt"
	"sort"

	"memoryai/internal/model"
	"memoryai/internal/repository"
	"memoryai/internal/vectorindex"
)

// CollectionStats is the combined view of the vector index, the graph and
// the document catalog.
type CollectionStats struct {
	TotalChunks    int              `json:"total_chunks"`
	TotalDocuments int              `json:"total_documents"`
	Sources        []string         `json:"sources"`
	UniqueEntities int64            `json:"unique_entities"`
	TotalRelations int64            `json:"total_relations"`
	Sessions       int64            `json:"sessions"`
	Documents      []model.Document `json:"documents"`
}

// AdminService serves operational views over the stores.
type AdminService struct {
	index        vectorindex.Index
	graph        *GraphService
	documentRepo *repository.DocumentRepository
}

func NewAdminService(index vectorindex.Index, graph *GraphService, documentRepo *repository.DocumentRepository) *AdminService {
	return &AdminService{index: index, graph: graph, documentRepo: documentRepo}
}

// Collections aggregates store statistics. Sources are sorted so repeated
// calls over an unchanged index report identically.
func (s *AdminService) Collections(ctx context.Context) (*CollectionStats, error) {
	count, err := s.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("collection stats failed: %w", err)
	}

	stats := &CollectionStats{TotalChunks: count, Sources: []string{}}
	if count > 0 {
		metadatas, err := s.index.AllMetadata(ctx)
		if err != nil {
			return nil, fmt.Errorf("collection stats failed: %w", err)
		}
		docIDs := make(map[string]struct{})
		sources := make(map[string]struct{})
		for _, m := range metadatas {
			docIDs[m.DocID] = struct{}{}
			sources[m.Source] = struct{}{}
		}
		stats.TotalDocuments = len(docIDs)
		for src := range sources {
			stats.Sources = append(stats.Sources, src)
		}
		sort.Strings(stats.Sources)
	}

	graphStats, err := s.graph.Stats()
	if err != nil {
		return nil, fmt.Errorf("collection stats failed: %w", err)
	}
	stats.UniqueEntities = graphStats.UniqueEntities
	stats.TotalRelations = graphStats.TotalRelations
	stats.Sessions = graphStats.Sessions

	stats.Documents = []model.Document{}
	if s.documentRepo != nil {
		docs, err := s.documentRepo.List()
		if err != nil {
			return nil, fmt.Errorf("collection stats failed: %w", err)
		}
		stats.Documents = docs
	}
	return stats, nil
}
