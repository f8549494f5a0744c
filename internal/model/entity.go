package model

// Entity is a heuristically extracted mention tied to the chunk it was found
// in. The same name may recur across chunks, but at most once per chunk.
type Entity struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Name       string `gorm:"size:512;not null;index;uniqueIndex:idx_entity_chunk" json:"name"`
	EntityType string `gorm:"size:32;not null" json:"entity_type"`
	DocID      string `gorm:"size:64;not null;index" json:"doc_id"`
	ChunkID    string `gorm:"size:128;not null;uniqueIndex:idx_entity_chunk" json:"chunk_id"`
}
