package app

import (
	"context"
	"fmt"
	"time"

	"github.com/kataras/golog"

	"memoryai/internal/cache"
	"memoryai/internal/extract"
	"memoryai/internal/model"
	"memoryai/internal/repository"
)

const (
	// Session context window limits. Oldest turns are evicted first.
	maxSessionTurns = 20
	maxTurnAnswer   = 500
	maxTurnSources  = 3
	maxTurnSource   = 100
)

// RelatedEntity is one edge of the co-occurrence graph as seen from a given
// entity: the far end, the relation type and the chunk the pair was seen in.
type RelatedEntity struct {
	Entity   string `json:"entity"`
	Relation string `json:"relation"`
	ChunkID  string `json:"chunk_id"`
}

// GraphStats summarizes the stored graph.
type GraphStats struct {
	UniqueEntities int64 `json:"unique_entities"`
	TotalRelations int64 `json:"total_relations"`
	Sessions       int64 `json:"sessions"`
}

// GraphService owns the entity/relation graph and session state. Entity
// extraction happens here rather than in ingestion so the graph stays the
// single authority on what counts as a mention.
type GraphService struct {
	entityRepo   *repository.EntityRepository
	relationRepo *repository.RelationRepository
	sessionRepo  *repository.SessionRepository
	sessionCache *cache.SessionCache
}

// NewGraphService wires the graph over its repositories. sessionCache may be
// nil, in which case session context always reads through to the database.
func NewGraphService(
	entityRepo *repository.EntityRepository,
	relationRepo *repository.RelationRepository,
	sessionRepo *repository.SessionRepository,
	sessionCache *cache.SessionCache,
) *GraphService {
	return &GraphService{
		entityRepo:   entityRepo,
		relationRepo: relationRepo,
		sessionRepo:  sessionRepo,
		sessionCache: sessionCache,
	}
}

// StoreChunkEntities extracts entities from each chunk and persists them
// together with a co-occurrence relation for every unordered pair of distinct
// entity names found in the same chunk. chunks and chunkIDs must be parallel.
func (s *GraphService) StoreChunkEntities(docID string, chunks, chunkIDs []string) (int, error) {
	if len(chunks) != len(chunkIDs) {
		return 0, fmt.Errorf("chunk/id length mismatch: %d vs %d", len(chunks), len(chunkIDs))
	}

	total := 0
	for i, chunk := range chunks {
		found := extract.Entities(chunk)
		if len(found) == 0 {
			continue
		}

		entities := make([]model.Entity, 0, len(found))
		for _, e := range found {
			entities = append(entities, model.Entity{
				Name:       e.Name,
				EntityType: e.Type,
				DocID:      docID,
				ChunkID:    chunkIDs[i],
			})
		}
		if err := s.entityRepo.InsertIgnoreBatch(entities); err != nil {
			return total, fmt.Errorf("store chunk entities failed: %w", err)
		}
		total += len(entities)

		var relations []model.Relation
		for a := 0; a < len(found); a++ {
			for b := a + 1; b < len(found); b++ {
				if found[a].Name == found[b].Name {
					continue
				}
				relations = append(relations, model.Relation{
					EntityA:      found[a].Name,
					EntityB:      found[b].Name,
					RelationType: model.RelationCoOccurs,
					DocID:        docID,
					ChunkID:      chunkIDs[i],
				})
			}
		}
		if err := s.relationRepo.CreateBatch(relations); err != nil {
			return total, fmt.Errorf("store chunk relations failed: %w", err)
		}
	}
	return total, nil
}

// ConnectedChunks returns the chunk ids the named entity appears in.
func (s *GraphService) ConnectedChunks(name string, limit int) ([]string, error) {
	return s.entityRepo.ChunkIDsByName(name, limit)
}

// RelatedEntities returns the entities co-occurring with name, deduplicated
// on the (entity, relation, chunk) triple and capped at limit.
func (s *GraphService) RelatedEntities(name string, limit int) ([]RelatedEntity, error) {
	rows, err := s.relationRepo.ListByEntity(name, 0)
	if err != nil {
		return nil, err
	}

	var related []RelatedEntity
	seen := make(map[RelatedEntity]struct{})
	for _, row := range rows {
		other := row.EntityB
		if other == name {
			other = row.EntityA
		}
		r := RelatedEntity{Entity: other, Relation: row.RelationType, ChunkID: row.ChunkID}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		related = append(related, r)
		if limit > 0 && len(related) >= limit {
			break
		}
	}
	return related, nil
}

// EntitiesForDoc lists the distinct entities extracted from a document.
func (s *GraphService) EntitiesForDoc(docID string) ([]model.Entity, error) {
	return s.entityRepo.DistinctByDocID(docID)
}

// DeleteDocument removes all graph state derived from the document.
func (s *GraphService) DeleteDocument(docID string) error {
	if err := s.entityRepo.DeleteByDocID(docID); err != nil {
		return err
	}
	return s.relationRepo.DeleteByDocID(docID)
}

func (s *GraphService) Stats() (GraphStats, error) {
	entities, err := s.entityRepo.CountDistinctNames()
	if err != nil {
		return GraphStats{}, err
	}
	relations, err := s.relationRepo.Count()
	if err != nil {
		return GraphStats{}, err
	}
	sessions, err := s.sessionRepo.Count()
	if err != nil {
		return GraphStats{}, err
	}
	return GraphStats{UniqueEntities: entities, TotalRelations: relations, Sessions: sessions}, nil
}

// CreateSession registers a session id, doing nothing if it already exists.
func (s *GraphService) CreateSession(id string) error {
	return s.sessionRepo.CreateIfAbsent(&model.Session{
		ID:        id,
		CreatedAt: time.Now(),
		Context:   "[]",
	})
}

// SessionContext returns the session's turn window, oldest first. A nil
// slice with a nil error means the session exists but has no turns yet;
// ErrSessionNotFound means the id was never created.
func (s *GraphService) SessionContext(ctx context.Context, id string) ([]model.Turn, error) {
	if s.sessionCache != nil {
		turns, hit, err := s.sessionCache.GetContext(ctx, id)
		if err != nil {
			golog.Warnf("session cache read failed for %s: %v", id, err)
		} else if hit {
			return turns, nil
		}
	}

	session, err := s.sessionRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	turns := session.Turns()
	if s.sessionCache != nil {
		if err := s.sessionCache.SetContext(ctx, id, turns); err != nil {
			golog.Warnf("session cache write failed for %s: %v", id, err)
		}
	}
	return turns, nil
}

// AppendTurn records one exchange on the session, truncating the answer and
// sources and evicting the oldest turns past the window cap. Concurrent
// appends to the same session are last-write-wins.
func (s *GraphService) AppendTurn(ctx context.Context, id, query, answer string, sources []string) error {
	session, err := s.sessionRepo.GetByID(id)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrSessionNotFound
	}

	if len(sources) > maxTurnSources {
		sources = sources[:maxTurnSources]
	}
	kept := make([]string, 0, len(sources))
	for _, src := range sources {
		kept = append(kept, truncate(src, maxTurnSource))
	}

	turns := append(session.Turns(), model.Turn{
		Query:   query,
		Answer:  truncate(answer, maxTurnAnswer),
		Sources: kept,
	})
	if len(turns) > maxSessionTurns {
		turns = turns[len(turns)-maxSessionTurns:]
	}

	session.SetTurns(turns)
	session.LastQuery = query
	if err := s.sessionRepo.UpdateContext(session); err != nil {
		return err
	}

	if s.sessionCache != nil {
		if err := s.sessionCache.Invalidate(ctx, id); err != nil {
			golog.Warnf("session cache invalidate failed for %s: %v", id, err)
		}
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
