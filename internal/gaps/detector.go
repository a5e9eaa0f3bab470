// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package gaps proposes new concepts for names that failed to resolve
// against the knowledge graph. Proposals come from the Claude API when
// it cooperates and from a deterministic local fallback when it does
// not; Detect never fails for an individual name.
package gaps

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/tutor-engine/internal/graph"
	"github.com/pdiddy/tutor-engine/internal/llm"
	"github.com/pdiddy/tutor-engine/pkg/types"
)

const (
	analysisTemperature = 0.3

	// fallbackConfidence marks proposals produced without model input.
	// Low enough that PriorityFor tags them for manual review.
	fallbackConfidence = 0.3
)

// Detector turns unresolved concept names into integration proposals.
type Detector struct {
	ai         llm.Completer
	store      *graph.Store
	maxRetries int
	progress   io.Writer
}

// NewDetector wires a detector to a completion backend and the graph
// store it grounds prompts on. Progress and warnings go to w; pass
// io.Discard to silence them.
func NewDetector(ai llm.Completer, store *graph.Store, maxRetries int, w io.Writer) *Detector {
	if w == nil {
		w = io.Discard
	}
	return &Detector{ai: ai, store: store, maxRetries: maxRetries, progress: w}
}

// aiProposal mirrors the JSON shape the prompts request.
type aiProposal struct {
	ConceptID     string   `json:"concept_id"`
	ConceptName   string   `json:"concept_name"`
	Description   string   `json:"description"`
	Prerequisites []string `json:"prerequisites"`
	LeadsTo       []string `json:"leads_to"`
	Confidence    float64  `json:"confidence_score"`
	Reasoning     string   `json:"reasoning"`
}

// Detect produces one proposal per unresolved name. query is the
// student question that surfaced the gap and is recorded on each
// proposal for review context.
func (d *Detector) Detect(ctx context.Context, unresolved []string, query string) []types.Proposal {
	if len(unresolved) == 0 {
		return nil
	}

	concepts, relationships := graphSnapshot(d.store.AllConcepts(), d.store.EdgeList())

	proposals := make([]types.Proposal, 0, len(unresolved))
	for _, name := range unresolved {
		p, err := d.detectOne(ctx, name, query, concepts, relationships)
		if err != nil {
			fmt.Fprintf(d.progress, "warning: gap analysis for %q fell back to local proposal: %v\n", name, err)
			p = fallbackProposal(name, query)
		}
		proposals = append(proposals, p)
	}
	return proposals
}

func (d *Detector) detectOne(ctx context.Context, name, query, concepts, relationships string) (types.Proposal, error) {
	prompt, err := renderMissingConceptPrompt(name, query, concepts, relationships)
	if err != nil {
		return types.Proposal{}, err
	}

	reply, err := llm.CompleteWithRetry(ctx, d.ai, llm.Request{
		Prompt:      prompt,
		Temperature: analysisTemperature,
	}, d.maxRetries)
	if err != nil {
		return types.Proposal{}, err
	}

	var raw aiProposal
	if err := json.Unmarshal([]byte(stripFences(reply)), &raw); err != nil {
		return types.Proposal{}, fmt.Errorf("parsing analysis reply: %w", err)
	}
	return d.validate(raw, name, query)
}

// validate converts a model reply into a Proposal, rejecting replies
// that omit required fields or report confidence outside [0, 1].
func (d *Detector) validate(raw aiProposal, name, query string) (types.Proposal, error) {
	if strings.TrimSpace(raw.ConceptID) == "" {
		return types.Proposal{}, fmt.Errorf("reply missing concept_id")
	}
	if raw.Confidence < 0 || raw.Confidence > 1 {
		return types.Proposal{}, fmt.Errorf("confidence_score %v out of range", raw.Confidence)
	}
	conceptName := strings.TrimSpace(raw.ConceptName)
	if conceptName == "" {
		conceptName = name
	}

	return types.Proposal{
		ConceptID:     conceptID(raw.ConceptID),
		ConceptName:   conceptName,
		Description:   strings.TrimSpace(raw.Description),
		Confidence:    raw.Confidence,
		Prerequisites: raw.Prerequisites,
		LeadsTo:       raw.LeadsTo,
		Priority:      types.PriorityFor(raw.Confidence),
		SourceQuery:   query,
		Reasoning:     strings.TrimSpace(raw.Reasoning),
	}, nil
}

// fallbackProposal builds a minimal proposal when the model cannot. It
// carries no relationships and a confidence low enough to force manual
// review before integration.
func fallbackProposal(name, query string) types.Proposal {
	return types.Proposal{
		ConceptID:   conceptID(name),
		ConceptName: name,
		Description: fmt.Sprintf("Concept related to %s (automated analysis unavailable)", name),
		Confidence:  fallbackConfidence,
		Priority:    types.PriorityFor(fallbackConfidence),
		SourceQuery: query,
		Reasoning:   "Automated analysis failed; proposal generated locally and needs manual review.",
	}
}

// conceptID normalizes a name or suggested ID into node-ID form:
// lowercase with spaces and hyphens collapsed to underscores.
func conceptID(name string) string {
	id := strings.ToLower(strings.TrimSpace(name))
	id = strings.ReplaceAll(id, " ", "_")
	id = strings.ReplaceAll(id, "-", "_")
	return id
}
