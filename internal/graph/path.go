// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import (
	"github.com/pdiddy/tutor-engine/pkg/types"
)

// LearningPath converts free-text concept names into an ordered learning
// path. Names that resolve become "target" steps; every transitive
// prerequisite of a target appears before it as a "prerequisite" step.
// Names that resolve to nothing are returned in unresolved — a miss is
// not an error, and a call where nothing resolves returns an empty path.
//
// When the induced subgraph contains a cycle no topological order exists;
// the path falls back to the load order of the involved concepts instead
// of failing.
func (s *Store) LearningPath(names []string) (steps []types.PathStep, unresolved []string) {
	targets := make(map[string]bool)
	for _, name := range names {
		id := s.FindConceptID(name)
		if id == "" {
			unresolved = append(unresolved, name)
			continue
		}
		targets[id] = true
	}
	if len(targets) == 0 {
		return nil, unresolved
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// Union of every target with its ancestor set.
	include := make(map[string]bool, len(targets))
	for id := range targets {
		include[id] = true
		for _, anc := range s.data.ancestors(id) {
			include[anc] = true
		}
	}

	order := s.data.topoOrder(include)

	steps = make([]types.PathStep, 0, len(order))
	for _, id := range order {
		c := s.data.concepts[s.data.byID[id]]
		role := types.RolePrerequisite
		if targets[id] {
			role = types.RoleTarget
		}
		steps = append(steps, types.PathStep{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			Role:        role,
		})
	}
	return steps, unresolved
}

// ancestors returns every node with a directed path to id, found by
// breadth-first search over reversed edges.
func (g *graphData) ancestors(id string) []string {
	var result []string
	seen := map[string]bool{id: true}
	queue := append([]string(nil), g.pred[id]...)

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		result = append(result, cur)
		queue = append(queue, g.pred[cur]...)
	}
	return result
}

// topoOrder runs Kahn's algorithm on the subgraph induced by include.
// Zero-indegree nodes are consumed in load order, keeping the result
// deterministic. If a cycle prevents a complete ordering the full
// include set is returned in load order instead.
func (g *graphData) topoOrder(include map[string]bool) []string {
	// Load-order vertex list doubles as the cycle fallback.
	vertices := make([]string, 0, len(include))
	for _, c := range g.concepts {
		if include[c.ID] {
			vertices = append(vertices, c.ID)
		}
	}

	indegree := make(map[string]int, len(vertices))
	for _, id := range vertices {
		for _, p := range g.pred[id] {
			if include[p] {
				indegree[id]++
			}
		}
	}

	var queue []string
	for _, id := range vertices {
		if indegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]string, 0, len(vertices))
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		order = append(order, cur)

		for _, next := range g.succ[cur] {
			if !include[next] {
				continue
			}
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(order) < len(vertices) {
		return vertices
	}
	return order
}
