package models

import "time"

// DerivedLearning is a curated generalization promoted from a scored
// interaction. The engine supplies the scored candidates; creation happens
// only through an explicit promotion action, or automatically when the
// caller has configured an automation threshold.
type DerivedLearning struct {
	ID                string    `json:"id"`
	Description       string    `json:"description"`
	Pattern           string    `json:"pattern,omitempty"`
	ExampleChunkID    string    `json:"example_chunk_id,omitempty"`
	Tags              []string  `json:"tags,omitempty"`
	Confidence        float64   `json:"confidence"`
	ValidationScore   *float64  `json:"validation_score,omitempty"`
	EvidenceIDs       []string  `json:"evidence_ids,omitempty"`
	SourceInteraction string    `json:"source_interaction,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}
