package model

import (
	"encoding/json"
	"time"
)

// Turn is one query/answer exchange kept in a session's context window.
// Answer and source strings are truncated before storage.
type Turn struct {
	Query   string   `json:"query"`
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// Session holds agent navigation state: a bounded, ordered history of turns
// keyed by an opaque identifier. Context is stored as a JSON array for
// portability across database drivers.
type Session struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	LastQuery string    `gorm:"type:text" json:"last_query"`
	Context   string    `gorm:"type:text;default:'[]'" json:"-"`
}

// Turns returns the parsed context window; empty on parse error.
func (s *Session) Turns() []Turn {
	if s.Context == "" {
		return nil
	}
	var turns []Turn
	_ = json.Unmarshal([]byte(s.Context), &turns)
	return turns
}

// SetTurns stores the context window as JSON.
func (s *Session) SetTurns(turns []Turn) {
	if len(turns) == 0 {
		s.Context = "[]"
		return
	}
	b, _ := json.Marshal(turns)
	s.Context = string(b)
}
