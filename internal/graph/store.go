// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package graph loads the prerequisite concept graph from its backing CSV
// tables and answers lookup, enumeration, and learning-path queries.
package graph

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/pdiddy/tutor-engine/pkg/types"
)

// nodesColumns and edgesColumns are the required CSV headers.
var (
	nodesColumns = []string{"node_id", "concept_name", "description"}
	edgesColumns = []string{"source_id", "target_id", "relationship_type"}
)

// Store holds the in-memory concept graph. Lookups take a read lock and
// may run concurrently; Reload swaps the entire graph under the write
// lock, so readers never observe a half-loaded graph.
type Store struct {
	nodesFile string
	edgesFile string

	mu   sync.RWMutex
	data *graphData
}

// graphData is one immutable snapshot of the loaded tables.
type graphData struct {
	concepts []types.Concept // insertion order from nodes.csv
	byID     map[string]int  // concept ID → index into concepts

	// exact maps lowercased concept names and IDs to concept IDs.
	// First match in load order wins.
	exact map[string]string

	// lookup preserves load order for the substring heuristic.
	lookup []lookupEntry

	edges []types.Edge // insertion order from edges.csv
	succ  map[string][]string
	pred  map[string][]string
}

// lookupEntry is one lowercased key (a name or an ID) in load order.
type lookupEntry struct {
	key string
	id  string
}

// NewStore loads the graph from cfg.NodesFile and cfg.EdgesFile. A missing
// file or a table without the required columns is an error.
func NewStore(cfg types.GraphConfig) (*Store, error) {
	s := &Store{
		nodesFile: cfg.NodesFile,
		edgesFile: cfg.EdgesFile,
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads both tables from disk and atomically replaces the
// in-memory graph. On error the previous graph stays in place.
func (s *Store) Reload() error {
	data, err := load(s.nodesFile, s.edgesFile)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}

func load(nodesFile, edgesFile string) (*graphData, error) {
	nodeRows, err := readTable(nodesFile, nodesColumns)
	if err != nil {
		return nil, fmt.Errorf("loading nodes table: %w", err)
	}
	edgeRows, err := readTable(edgesFile, edgesColumns)
	if err != nil {
		return nil, fmt.Errorf("loading edges table: %w", err)
	}

	data := &graphData{
		byID:  make(map[string]int),
		exact: make(map[string]string),
		succ:  make(map[string][]string),
		pred:  make(map[string][]string),
	}

	for _, row := range nodeRows {
		c := types.Concept{
			ID:          row["node_id"],
			Name:        row["concept_name"],
			Description: row["description"],
		}
		if _, dup := data.byID[c.ID]; dup {
			// First row wins; later duplicates are surfaced by
			// VerifyIntegrity rather than aborting the load.
			continue
		}
		data.byID[c.ID] = len(data.concepts)
		data.concepts = append(data.concepts, c)

		for _, key := range []string{strings.ToLower(c.Name), strings.ToLower(c.ID)} {
			if _, seen := data.exact[key]; !seen {
				data.exact[key] = c.ID
			}
			data.lookup = append(data.lookup, lookupEntry{key: key, id: c.ID})
		}
	}

	for _, row := range edgeRows {
		e := types.Edge{
			SourceID:         row["source_id"],
			TargetID:         row["target_id"],
			RelationshipType: types.RelationshipType(row["relationship_type"]),
		}
		// Edges referencing unknown nodes are skipped here and reported
		// by VerifyIntegrity.
		if _, ok := data.byID[e.SourceID]; !ok {
			continue
		}
		if _, ok := data.byID[e.TargetID]; !ok {
			continue
		}
		data.edges = append(data.edges, e)
		data.succ[e.SourceID] = append(data.succ[e.SourceID], e.TargetID)
		data.pred[e.TargetID] = append(data.pred[e.TargetID], e.SourceID)
	}

	return data, nil
}

// readTable parses a CSV file into rows keyed by column name, verifying
// that every required column is present in the header.
func readTable(path string, required []string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty table, header row required", path)
	}

	header := records[0]
	colIdx := make(map[string]int, len(header))
	for i, col := range header {
		colIdx[strings.TrimSpace(col)] = i
	}
	for _, col := range required {
		if _, ok := colIdx[col]; !ok {
			return nil, fmt.Errorf("%s: missing required column %q", path, col)
		}
	}

	var rows []map[string]string
	for _, record := range records[1:] {
		row := make(map[string]string, len(required))
		for _, col := range required {
			idx := colIdx[col]
			if idx < len(record) {
				row[col] = strings.TrimSpace(record[idx])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// FindConceptID maps a free-text concept name to a node ID. Exact
// case-insensitive matches on names and IDs are tried first, then
// bidirectional substring containment. Among substring candidates the
// shortest stored key wins, with earlier load order breaking remaining
// ties. Returns "" when nothing matches.
func (s *Store) FindConceptID(name string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(name))
	if q == "" {
		return ""
	}

	if id, ok := s.data.exact[q]; ok {
		return id
	}

	best := ""
	bestLen := -1
	for _, entry := range s.data.lookup {
		if !strings.Contains(entry.key, q) && !strings.Contains(q, entry.key) {
			continue
		}
		if bestLen == -1 || len(entry.key) < bestLen {
			best = entry.id
			bestLen = len(entry.key)
		}
	}
	return best
}

// Concept returns a concept with its direct predecessor and successor
// ID lists. The second return value is false when the ID is unknown.
func (s *Store) Concept(id string) (types.ConceptInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.data.byID[id]
	if !ok {
		return types.ConceptInfo{}, false
	}
	return types.ConceptInfo{
		Concept:       s.data.concepts[idx],
		Prerequisites: append([]string(nil), s.data.pred[id]...),
		LeadsTo:       append([]string(nil), s.data.succ[id]...),
	}, true
}

// AllConcepts returns every concept in insertion order.
func (s *Store) AllConcepts() []types.Concept {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.Concept(nil), s.data.concepts...)
}

// EdgeList returns every edge in insertion order.
func (s *Store) EdgeList() []types.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.Edge(nil), s.data.edges...)
}

// NodeCount returns the number of loaded concepts.
func (s *Store) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data.concepts)
}

// EdgeCount returns the number of loaded edges.
func (s *Store) EdgeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data.edges)
}
