package model

import (
	"encoding/json"
	"time"
)

// Document is the catalog row for one ingested document. The vector index
// holds the retrievable content; this row exists for listing and audit.
// Metadata is the caller-supplied open key-value mapping, stored as JSON.
type Document struct {
	DocID      string    `gorm:"primaryKey;size:64" json:"doc_id"`
	Source     string    `gorm:"size:512;not null" json:"source"`
	IngestedAt time.Time `json:"ingested_at"`
	Metadata   string    `gorm:"type:text" json:"metadata,omitempty"`
}

// MetadataMap returns the parsed caller metadata; empty on parse error.
func (d *Document) MetadataMap() map[string]string {
	if d.Metadata == "" {
		return nil
	}
	var m map[string]string
	_ = json.Unmarshal([]byte(d.Metadata), &m)
	return m
}

// SetMetadataMap stores caller metadata as JSON.
func (d *Document) SetMetadataMap(m map[string]string) {
	if len(m) == 0 {
		d.Metadata = ""
		return
	}
	b, _ := json.Marshal(m)
	d.Metadata = string(b)
}
