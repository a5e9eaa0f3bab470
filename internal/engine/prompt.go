// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"fmt"
	"strings"

	"github.com/pdiddy/tutor-engine/internal/passages"
	"github.com/pdiddy/tutor-engine/pkg/types"
)

const identifySystem = `You are an expert in mathematics education. Your task is to identify the key mathematical concepts mentioned in a student's query.
Rules:
1. Extract only the core mathematical concepts (not general words)
2. Return concepts that would appear in a calculus curriculum
3. Format as a comma-separated list
4. Be precise and use standard mathematical terminology
5. Focus on concepts that would have prerequisite relationships

Examples:
Query: "I don't understand how to find the derivative of x^2"
Response: derivatives, power rule

Query: "What is integration by parts and when do I use it?"
Response: integration, integration by parts

Query: "I'm confused about limits and continuity"
Response: limits, continuity`

const explainSystem = `You are an expert mathematics tutor specializing in calculus. Your goal is to provide clear, educational explanations that help students understand mathematical concepts and their prerequisites.

Guidelines:
1. Start with the fundamental concepts and build up logically
2. Explain WHY prerequisites are needed, not just WHAT they are
3. Use clear, accessible language but maintain mathematical accuracy
4. Include specific examples when helpful
5. Address the student's specific question directly
6. Keep explanations focused and not too lengthy
7. Use the provided context and learning path to ground your explanation`

// explainPrompt assembles the grounded tutoring prompt from the
// learning path and retrieved course material.
func explainPrompt(query string, path []types.PathStep, chunks []passages.Passage) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Student Question: %s\n\n", query)

	if len(path) > 0 {
		names := make([]string, 0, len(path))
		for _, step := range path {
			names = append(names, step.Name)
		}
		fmt.Fprintf(&sb, "Learning path: %s\n\n", strings.Join(names, " -> "))
	}

	sb.WriteString("Relevant Course Material:\n")
	for i, chunk := range chunks {
		fmt.Fprintf(&sb, "Context %d: %s\n\n", i+1, chunk.Content)
	}

	sb.WriteString(`Please provide a clear, educational explanation that:
1. Addresses the student's question directly
2. Explains any necessary prerequisite concepts
3. Shows how the concepts connect to each other
4. Provides practical guidance for learning

Explanation:`)
	return sb.String()
}
