package app

import (
	"context"
	"fmt"
	"math"
	"strings"

	"memoryai/internal/ai"
	"memoryai/internal/model"
	"memoryai/internal/vectorindex"
)

const (
	// Response shaping limits.
	maxResponseSources  = 5
	maxSourceText       = 500
	maxConnectionChunks = 5
	maxEntitiesPerDoc   = 5
	maxRelatedPerEntity = 3
	maxConnections      = 10
	emptyQuestionAnswer = "Please provide a question."
)

// QuerySource is one retrieved chunk as reported to the caller, with text
// truncated for transport.
type QuerySource struct {
	Text           string  `json:"text"`
	Source         string  `json:"source"`
	RelevanceScore float64 `json:"relevance_score"`
}

// Connection surfaces an entity found in the retrieved documents together
// with the entities it co-occurs with elsewhere in the knowledge base.
type Connection struct {
	Entity  string   `json:"entity"`
	Type    string   `json:"type"`
	Related []string `json:"related"`
}

// QueryResult is the structured response of one retrieval.
type QueryResult struct {
	Answer               string        `json:"answer"`
	Sources              []QuerySource `json:"sources"`
	Connections          []Connection  `json:"connections"`
	TotalChunksRetrieved int           `json:"total_chunks_retrieved"`
}

// QueryService is the read-side orchestrator: embed the question, rank
// chunks by similarity, surface graph connections and synthesize an answer.
type QueryService struct {
	index          vectorindex.Index
	embedder       ai.Embedder
	graph          *GraphService
	synthesizer    *ai.Synthesizer
	defaultResults int
}

func NewQueryService(
	index vectorindex.Index,
	embedder ai.Embedder,
	graph *GraphService,
	synthesizer *ai.Synthesizer,
	defaultResults int,
) *QueryService {
	if defaultResults <= 0 {
		defaultResults = 10
	}
	return &QueryService{
		index:          index,
		embedder:       embedder,
		graph:          graph,
		synthesizer:    synthesizer,
		defaultResults: defaultResults,
	}
}

// Query answers a question from the knowledge base. docFilter, when
// non-empty, restricts retrieval to one document. turns is optional session
// context forwarded to synthesis.
func (s *QueryService) Query(ctx context.Context, question string, nResults int, docFilter string, turns []model.Turn) (*QueryResult, error) {
	if strings.TrimSpace(question) == "" {
		return &QueryResult{
			Answer:      emptyQuestionAnswer,
			Sources:     []QuerySource{},
			Connections: []Connection{},
		}, nil
	}
	if nResults <= 0 {
		nResults = s.defaultResults
	}

	vector, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question failed: %w", err)
	}

	var filter *vectorindex.Filter
	if docFilter != "" {
		filter = &vectorindex.Filter{DocID: docFilter}
	}
	matches, err := s.index.Query(ctx, vector, nResults, filter)
	if err != nil {
		return nil, fmt.Errorf("vector query failed: %w", err)
	}

	chunks := make([]ai.SourceChunk, 0, len(matches))
	for _, m := range matches {
		source := m.Metadata.Source
		if source == "" {
			source = "unknown"
		}
		chunks = append(chunks, ai.SourceChunk{
			Source: source,
			Text:   m.Text,
			Score:  roundScore(1 - m.Distance),
		})
	}

	connections, err := s.findConnections(matches)
	if err != nil {
		return nil, err
	}

	answer := s.synthesizer.Synthesize(ctx, question, chunks, turns)

	sources := make([]QuerySource, 0, maxResponseSources)
	for _, c := range chunks {
		if len(sources) == maxResponseSources {
			break
		}
		sources = append(sources, QuerySource{
			Text:           truncate(c.Text, maxSourceText),
			Source:         c.Source,
			RelevanceScore: c.Score,
		})
	}

	return &QueryResult{
		Answer:               answer,
		Sources:              sources,
		Connections:          connections,
		TotalChunksRetrieved: len(chunks),
	}, nil
}

// findConnections walks the top retrieved chunks and expands their
// documents' entities through the co-occurrence graph. An entity name is
// expanded at most once across the whole retrieved set.
func (s *QueryService) findConnections(matches []vectorindex.Match) ([]Connection, error) {
	connections := []Connection{}
	seen := make(map[string]struct{})

	for i, m := range matches {
		if i == maxConnectionChunks || len(connections) == maxConnections {
			break
		}
		if m.Metadata.DocID == "" {
			continue
		}

		entities, err := s.graph.EntitiesForDoc(m.Metadata.DocID)
		if err != nil {
			return nil, fmt.Errorf("find connections failed: %w", err)
		}
		if len(entities) > maxEntitiesPerDoc {
			entities = entities[:maxEntitiesPerDoc]
		}
		for _, ent := range entities {
			if _, dup := seen[ent.Name]; dup {
				continue
			}
			seen[ent.Name] = struct{}{}

			related, err := s.graph.RelatedEntities(ent.Name, maxRelatedPerEntity)
			if err != nil {
				return nil, fmt.Errorf("find connections failed: %w", err)
			}
			if len(related) == 0 {
				continue
			}
			names := make([]string, 0, len(related))
			for _, r := range related {
				names = append(names, r.Entity)
			}
			connections = append(connections, Connection{
				Entity:  ent.Name,
				Type:    ent.EntityType,
				Related: names,
			})
			if len(connections) == maxConnections {
				break
			}
		}
	}
	return connections, nil
}

func roundScore(v float64) float64 {
	return math.Round(v*10000) / 10000
}
