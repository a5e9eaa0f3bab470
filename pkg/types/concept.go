// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the shared domain types and per-stage configuration
// structs for tutor-engine.
package types

// RelationshipType tags the kind of directed edge between two concepts.
// The single kind in use today is prerequisite_for.
type RelationshipType string

// RelPrerequisiteFor marks an edge meaning "source must be learned
// before target".
const RelPrerequisiteFor RelationshipType = "prerequisite_for"

// Concept is a single unit of knowledge in the prerequisite graph.
type Concept struct {
	// ID is the unique lowercase token identifying the concept
	// (e.g. "chain_rule").
	ID string `json:"id" yaml:"id"`

	// Name is the human-readable display name (e.g. "Chain Rule").
	Name string `json:"name" yaml:"name"`

	// Description is a short free-text explanation suitable for students.
	Description string `json:"description" yaml:"description"`
}

// Edge is a directed relationship between two concepts. Both endpoints
// must reference existing concept IDs.
type Edge struct {
	SourceID         string           `json:"source_id" yaml:"source_id"`
	TargetID         string           `json:"target_id" yaml:"target_id"`
	RelationshipType RelationshipType `json:"relationship_type" yaml:"relationship_type"`
}

// ConceptInfo is a Concept together with its direct neighbours in the graph.
type ConceptInfo struct {
	Concept `yaml:",inline"`

	// Prerequisites lists the IDs of direct predecessors.
	Prerequisites []string `json:"prerequisites" yaml:"prerequisites"`

	// LeadsTo lists the IDs of direct successors.
	LeadsTo []string `json:"leads_to" yaml:"leads_to"`
}

// PathRole distinguishes requested concepts from their prerequisites in
// a learning path.
type PathRole string

const (
	RoleTarget       PathRole = "target"
	RolePrerequisite PathRole = "prerequisite"
)

// PathStep is one concept in an ordered learning path.
type PathStep struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Role        PathRole `json:"role" yaml:"role"`
}

// Priority ranks a proposal for expert attention, derived from its
// confidence score.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// PriorityFor maps a confidence score in [0,1] to a review priority:
// at least 0.9 is high, at least 0.7 is medium, anything lower is low.
func PriorityFor(confidence float64) Priority {
	switch {
	case confidence >= 0.9:
		return PriorityHigh
	case confidence >= 0.7:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// Proposal is a candidate concept awaiting human review, produced either
// by the gap detector or by analyzing a student submission.
type Proposal struct {
	// ConceptID is the proposed node identifier (lowercase, underscores).
	ConceptID string `json:"concept_id" yaml:"concept_id"`

	// ConceptName is the proposed display name.
	ConceptName string `json:"concept_name" yaml:"concept_name"`

	// Description is the proposed student-facing description.
	Description string `json:"description" yaml:"description"`

	// Confidence is the proposer's certainty, in [0,1].
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Prerequisites names concepts that should gain prerequisite_for
	// edges into this one. Entries may be names or IDs; the merger
	// resolves them against the node table.
	Prerequisites []string `json:"prerequisites" yaml:"prerequisites"`

	// LeadsTo names concepts this one should gain prerequisite_for
	// edges toward.
	LeadsTo []string `json:"leads_to" yaml:"leads_to"`

	// Priority is derived from Confidence via PriorityFor.
	Priority Priority `json:"priority" yaml:"priority"`

	// SourceQuery is the student query that surfaced the gap, if any.
	SourceQuery string `json:"source_query,omitempty" yaml:"source_query,omitempty"`

	// Reasoning records why the proposer believes the concept belongs
	// in the graph.
	Reasoning string `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`
}
