package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kataras/golog"
)

// NavigateResult is a retrieval response enriched with session state.
type NavigateResult struct {
	QueryResult
	SessionID    string `json:"session_id"`
	SessionTurns int    `json:"session_turns"`
}

// NavigatorService layers session continuity over the query engine: it
// threads consecutive questions through a shared session, rewriting each
// follow-up to reference the previous turn.
type NavigatorService struct {
	query *QueryService
	graph *GraphService
}

func NewNavigatorService(query *QueryService, graph *GraphService) *NavigatorService {
	return &NavigatorService{query: query, graph: graph}
}

// Navigate runs one session-aware query. An empty sessionID starts a new
// session; the generated or supplied id is echoed back so the caller can
// continue the thread.
func (s *NavigatorService) Navigate(ctx context.Context, question, sessionID string, nResults int, docFilter string) (*NavigateResult, error) {
	if sessionID == "" {
		sessionID = newSessionID()
	}

	if err := s.graph.CreateSession(sessionID); err != nil {
		return nil, fmt.Errorf("navigate failed: %w", err)
	}
	turns, err := s.graph.SessionContext(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("navigate failed: %w", err)
	}

	// Follow-ups carry the previous question as a textual prefix so the
	// embedding sees the thread, not just the fragment the caller typed.
	outbound := question
	if len(turns) > 0 {
		last := turns[len(turns)-1]
		outbound = fmt.Sprintf("Context: Previously asked '%s'. Now: %s", last.Query, question)
	}

	result, err := s.query.Query(ctx, outbound, nResults, docFilter, turns)
	if err != nil {
		return nil, err
	}

	// Session history records what the caller actually asked, not the
	// augmented form.
	sources := make([]string, 0, len(result.Sources))
	for _, src := range result.Sources {
		sources = append(sources, src.Source)
	}
	if err := s.graph.AppendTurn(ctx, sessionID, question, result.Answer, sources); err != nil {
		golog.Warnf("append session turn failed for %s: %v", sessionID, err)
	}

	return &NavigateResult{
		QueryResult:  *result,
		SessionID:    sessionID,
		SessionTurns: len(turns) + 1,
	}, nil
}

// newSessionID returns a short opaque identifier. 12 hex digits of a random
// uuid is enough to make collisions implausible at session scale.
func newSessionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
