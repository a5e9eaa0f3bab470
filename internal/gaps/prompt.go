// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gaps

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/tutor-engine/pkg/types"
)

// missingConceptTmpl asks the model to describe one concept absent from
// the graph, grounded in the current node/edge snapshot.
var missingConceptTmpl = template.Must(template.New("missing").Parse(`A student asked: "{{.Query}}"

The system identified a concept missing from its knowledge graph: "{{.Name}}"

CURRENT KNOWLEDGE GRAPH:
Concepts: {{.Concepts}}
Relationships: {{.Relationships}}

Provide a detailed analysis for adding this concept to a mathematics knowledge graph.

Respond with ONLY a JSON object in this exact format:
{"concept_id": "suggested_node_id", "concept_name": "{{.Name}}", "description": "Clear 1-2 sentence description suitable for students", "prerequisites": ["existing", "concept_ids"], "leads_to": ["concepts", "this", "enables"], "confidence_score": 0.95, "reasoning": "Why this concept is essential and how it fits the curriculum"}

Rules:
1. Use only concept IDs that exist in the current knowledge graph for prerequisites and leads_to
2. Make concept_id lowercase with underscores (e.g. "product_rule")
3. confidence_score must be between 0.0 and 1.0
`))

// analyzeSubmissionSystem instructs the model to integrate a student's
// submitted material into the graph.
const analyzeSubmissionSystem = `You are an expert mathematics curriculum designer. Analyze a student's submitted learning material and suggest how to integrate it into a knowledge graph.

EXISTING CONCEPTS IN KNOWLEDGE GRAPH:
%s

Return ONLY valid JSON in this exact format:
{"concept_id": "concept_id_here", "concept_name": "Concept Name Here", "description": "Clear, concise description here", "prerequisites": ["existing_concept_1"], "leads_to": ["existing_concept_2"], "confidence_score": 0.85, "reasoning": "Explanation of your analysis"}`

// analyzeSubmissionTmpl is the user prompt for submission analysis.
var analyzeSubmissionTmpl = template.Must(template.New("submission").Parse(`STUDENT SUBMISSION:
Title: {{.Title}}
Description: {{.Description}}
Source Material: {{.SourceMaterial}}

Analyze this submission and provide your assessment:`))

// assessQualitySystem instructs the model to gate submission quality.
const assessQualitySystem = `You are a quality assessor for educational content. Evaluate a student submission for clarity, accuracy, completeness, and uniqueness.

Return ONLY valid JSON:
{"quality_score": 0.75, "meets_standards": true, "feedback": "Specific feedback for improvement", "strengths": ["strength1"], "weaknesses": ["weakness1"]}`

// graphSnapshot renders the current concepts and relationships for
// prompt grounding.
func graphSnapshot(concepts []types.Concept, edges []types.Edge) (string, string) {
	names := make([]string, 0, len(concepts))
	for _, c := range concepts {
		names = append(names, fmt.Sprintf("%s (%s)", c.ID, c.Name))
	}

	rels := make([]string, 0, len(edges))
	for _, e := range edges {
		rels = append(rels, fmt.Sprintf("%s -> %s", e.SourceID, e.TargetID))
	}

	return strings.Join(names, ", "), strings.Join(rels, ", ")
}

func renderMissingConceptPrompt(name, query, concepts, relationships string) (string, error) {
	var buf bytes.Buffer
	err := missingConceptTmpl.Execute(&buf, struct {
		Name, Query, Concepts, Relationships string
	}{name, query, concepts, relationships})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// stripFences removes a surrounding markdown code fence from a model
// reply, if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if i := strings.Index(s, "\n"); i >= 0 {
			s = s[i+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
