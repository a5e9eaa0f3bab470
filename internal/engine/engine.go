// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine coordinates the tutoring workflow: concept
// identification, prerequisite resolution, gap handling, context
// retrieval, and explanation generation.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/tutor-engine/internal/graph"
	"github.com/pdiddy/tutor-engine/internal/llm"
	"github.com/pdiddy/tutor-engine/internal/passages"
	"github.com/pdiddy/tutor-engine/pkg/types"
)

const (
	identifyTemperature = 0.1
	explainTemperature  = 0.3

	defaultContextPassages = 3

	noConceptsMessage = "I couldn't identify any mathematical concepts in your question. Could you please be more specific?"
	llmDownMessage    = "I apologize, but I'm having trouble generating an explanation right now. Please try again."
)

// GapHandler turns unresolved concept names into proposals.
type GapHandler interface {
	Detect(ctx context.Context, unresolved []string, query string) []types.Proposal
}

// Submitter queues a proposal for expert review.
type Submitter interface {
	Create(ctx context.Context, sub *types.Submission) error
}

// Retriever finds passages relevant to a query.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]passages.Passage, error)
}

// Engine answers student questions against the knowledge graph.
type Engine struct {
	graph      *graph.Store
	ai         llm.Completer
	gapHandler GapHandler
	submitter  Submitter
	retriever  Retriever

	maxRetries      int
	contextPassages int
	progress        io.Writer
}

// Options configures optional engine collaborators. Nil fields disable
// the corresponding step rather than failing the workflow.
type Options struct {
	GapHandler GapHandler
	Submitter  Submitter
	Retriever  Retriever

	MaxRetries      int
	ContextPassages int
	Progress        io.Writer
}

// New builds an engine over the graph store and completion backend.
func New(g *graph.Store, ai llm.Completer, opts Options) *Engine {
	if opts.Progress == nil {
		opts.Progress = io.Discard
	}
	if opts.ContextPassages <= 0 {
		opts.ContextPassages = defaultContextPassages
	}
	return &Engine{
		graph:           g,
		ai:              ai,
		gapHandler:      opts.GapHandler,
		submitter:       opts.Submitter,
		retriever:       opts.Retriever,
		maxRetries:      opts.MaxRetries,
		contextPassages: opts.ContextPassages,
		progress:        opts.Progress,
	}
}

// Answer is the full result of one question workflow.
type Answer struct {
	Query string `json:"query" yaml:"query"`

	// IdentifiedConcepts are the names the model extracted that resolve
	// against the graph; MissingConcepts are those that did not and were
	// queued as gap proposals.
	IdentifiedConcepts []string `json:"identified_concepts" yaml:"identified_concepts"`
	MissingConcepts    []string `json:"missing_concepts,omitempty" yaml:"missing_concepts,omitempty"`

	LearningPath []types.PathStep   `json:"learning_path,omitempty" yaml:"learning_path,omitempty"`
	Context      []passages.Passage `json:"context,omitempty" yaml:"context,omitempty"`

	Explanation string `json:"explanation" yaml:"explanation"`
}

// Answer runs the complete workflow for one student question. Each
// step degrades independently: a failed identification yields the
// clarification message, a failed retrieval proceeds without context,
// and a failed explanation yields an apology rather than an error.
func (e *Engine) Answer(ctx context.Context, query string) (Answer, error) {
	ans := Answer{Query: query}

	names, err := e.IdentifyConcepts(ctx, query)
	if err != nil {
		fmt.Fprintf(e.progress, "warning: concept identification: %v\n", err)
	}

	existing, missing := e.splitByGraph(names)
	ans.IdentifiedConcepts = existing
	ans.MissingConcepts = missing

	if len(missing) > 0 {
		e.queueGapProposals(ctx, missing, query)
	}

	if len(existing) == 0 {
		ans.Explanation = noConceptsMessage
		return ans, nil
	}

	ans.LearningPath, _ = e.graph.LearningPath(existing)

	if e.retriever != nil {
		chunks, err := e.retriever.Search(ctx, query, e.contextPassages)
		if err != nil {
			fmt.Fprintf(e.progress, "warning: context retrieval: %v\n", err)
		} else {
			ans.Context = chunks
		}
	}

	explanation, err := e.explain(ctx, query, ans.LearningPath, ans.Context)
	if err != nil {
		fmt.Fprintf(e.progress, "warning: explanation generation: %v\n", err)
		explanation = llmDownMessage
	}
	ans.Explanation = explanation
	return ans, nil
}

// IdentifyConcepts extracts mathematical concept names from a student
// query as a comma-separated list. Failures return an error and no
// names; the caller decides how to degrade.
func (e *Engine) IdentifyConcepts(ctx context.Context, query string) ([]string, error) {
	reply, err := llm.CompleteWithRetry(ctx, e.ai, llm.Request{
		Prompt:       fmt.Sprintf("Student query: '%s'\n\nIdentified concepts:", query),
		SystemPrompt: identifySystem,
		Temperature:  identifyTemperature,
	}, e.maxRetries)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, part := range strings.Split(reply, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// splitByGraph partitions concept names into those that resolve against
// the graph and those that do not.
func (e *Engine) splitByGraph(names []string) (existing, missing []string) {
	for _, name := range names {
		if e.graph.FindConceptID(name) != "" {
			existing = append(existing, name)
		} else {
			missing = append(missing, name)
		}
	}
	return existing, missing
}

// queueGapProposals analyzes missing concepts and stores each proposal
// as a pending submission under the reserved gap-detector identity.
func (e *Engine) queueGapProposals(ctx context.Context, missing []string, query string) {
	if e.gapHandler == nil || e.submitter == nil {
		return
	}
	for _, p := range e.gapHandler.Detect(ctx, missing, query) {
		sub := &types.Submission{
			StudentID:   types.GapDetectorStudentID,
			StudentName: "Gap Detector",
			Title:       p.ConceptName,
			Description: p.Description,
			Proposal:    p,
		}
		if fb, err := json.Marshal(map[string]any{"source_query": query}); err == nil {
			sub.QualityFeedback = string(fb)
		}
		if err := e.submitter.Create(ctx, sub); err != nil {
			fmt.Fprintf(e.progress, "warning: queueing gap proposal %q: %v\n", p.ConceptID, err)
		}
	}
}

func (e *Engine) explain(ctx context.Context, query string, path []types.PathStep, chunks []passages.Passage) (string, error) {
	return llm.CompleteWithRetry(ctx, e.ai, llm.Request{
		Prompt:       explainPrompt(query, path, chunks),
		SystemPrompt: explainSystem,
		Temperature:  explainTemperature,
	}, e.maxRetries)
}
