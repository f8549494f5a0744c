package model

// RelationCoOccurs is the only relation type the extractor derives today.
const RelationCoOccurs = "co_occurs"

// Relation is an undirected co-occurrence edge between two entity names seen
// in the same chunk. Rows are intentionally not deduplicated: repeated
// co-mentions signal strength and are left for consumers to weight.
type Relation struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	EntityA      string `gorm:"size:512;not null;index" json:"entity_a"`
	EntityB      string `gorm:"size:512;not null;index" json:"entity_b"`
	RelationType string `gorm:"size:32;not null;default:co_occurs" json:"relation_type"`
	DocID        string `gorm:"size:64;not null;index" json:"doc_id"`
	ChunkID      string `gorm:"size:128;not null" json:"chunk_id"`
}
