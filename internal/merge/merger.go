// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package merge integrates approved concept proposals into the graph's
// CSV tables. Every integration is backed up first, applied atomically
// from the caller's point of view, and rolled back if persistence
// fails partway.
package merge

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pdiddy/tutor-engine/pkg/types"
)

// Status reports the outcome of an integration attempt.
type Status string

const (
	StatusIntegrated Status = "integrated"
	StatusConflict   Status = "conflict"
	StatusFailed     Status = "failed"
)

// Result describes what an integration changed.
type Result struct {
	Status      Status
	NodesAdded  int
	EdgesAdded  int
	BackupNodes string
	BackupEdges string

	// Dropped lists relationship names that resolved to no stored
	// concept and were left out of edges.csv.
	Dropped []string
}

// Reloader refreshes an in-memory view after the CSV files change.
type Reloader interface {
	Reload() error
}

// writeFile is swapped in tests to simulate persistence failure.
var writeFile = os.WriteFile

// Merger applies proposals to the nodes and edges tables. A single
// mutex serializes integrations; concurrent readers go through the
// graph store, never through this package.
type Merger struct {
	cfg      types.GraphConfig
	reloader Reloader
	progress io.Writer

	mu sync.Mutex
}

// NewMerger wires a merger to the CSV tables in cfg. reloader may be
// nil when no in-memory view needs refreshing.
func NewMerger(cfg types.GraphConfig, reloader Reloader, w io.Writer) *Merger {
	if w == nil {
		w = io.Discard
	}
	return &Merger{cfg: cfg, reloader: reloader, progress: w}
}

// Integrate appends the proposal's concept and relationships to the
// CSV tables. A proposal whose ID already exists yields StatusConflict
// and leaves both files untouched. On persistence failure both files
// are restored from the backup taken at the start and StatusFailed is
// returned along with the error. The context is consulted only before
// the backup is taken; once mutation starts the merge runs to
// completion or rollback.
func (m *Merger) Integrate(ctx context.Context, p types.Proposal) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Result{Status: StatusFailed}, err
	}
	if strings.TrimSpace(p.ConceptID) == "" {
		return Result{Status: StatusFailed}, fmt.Errorf("proposal has no concept ID")
	}

	nodes, err := readTable(m.cfg.NodesFile, nodeHeader)
	if err != nil {
		return Result{Status: StatusFailed}, fmt.Errorf("reading nodes table: %w", err)
	}
	edges, err := readTable(m.cfg.EdgesFile, edgeHeader)
	if err != nil {
		return Result{Status: StatusFailed}, fmt.Errorf("reading edges table: %w", err)
	}

	res := Result{}
	res.BackupNodes, res.BackupEdges, err = m.backup()
	if err != nil {
		return Result{Status: StatusFailed}, fmt.Errorf("creating backup: %w", err)
	}

	for _, row := range nodes {
		if row[0] == p.ConceptID {
			fmt.Fprintf(m.progress, "concept %q already exists, skipping integration\n", p.ConceptID)
			res.Status = StatusConflict
			return res, nil
		}
	}

	nodes = append(nodes, []string{p.ConceptID, p.ConceptName, p.Description})
	res.NodesAdded = 1

	edges, res.EdgesAdded, res.Dropped = appendRelationships(edges, nodes, p)

	if err := m.persist(nodes, edges); err != nil {
		if rerr := m.restore(res.BackupNodes, res.BackupEdges); rerr != nil {
			fmt.Fprintf(m.progress, "warning: restore after failed persist: %v\n", rerr)
		}
		res = Result{Status: StatusFailed, BackupNodes: res.BackupNodes, BackupEdges: res.BackupEdges}
		return res, fmt.Errorf("persisting tables: %w", err)
	}

	if m.reloader != nil {
		if err := m.reloader.Reload(); err != nil {
			fmt.Fprintf(m.progress, "warning: graph reload after integration: %v\n", err)
		}
	}

	res.Status = StatusIntegrated
	return res, nil
}

var (
	nodeHeader = []string{"node_id", "concept_name", "description"}
	edgeHeader = []string{"source_id", "target_id", "relationship_type"}
)

// appendRelationships resolves the proposal's prerequisite and leads-to
// names and appends the edges that do not already exist. Prerequisites
// point into the new concept; leads-to point out of it. Names that
// resolve to nothing, or to the new concept itself, are dropped.
func appendRelationships(edges, nodes [][]string, p types.Proposal) ([][]string, int, []string) {
	added := 0
	var dropped []string

	add := func(source, target string) {
		for _, row := range edges {
			if row[0] == source && row[1] == target && row[2] == string(types.RelPrerequisiteFor) {
				return
			}
		}
		edges = append(edges, []string{source, target, string(types.RelPrerequisiteFor)})
		added++
	}

	for _, name := range p.Prerequisites {
		id := resolveName(nodes, name)
		if id == "" || id == p.ConceptID {
			dropped = append(dropped, name)
			continue
		}
		add(id, p.ConceptID)
	}
	for _, name := range p.LeadsTo {
		id := resolveName(nodes, name)
		if id == "" || id == p.ConceptID {
			dropped = append(dropped, name)
			continue
		}
		add(p.ConceptID, id)
	}

	return edges, added, dropped
}

// resolveName matches a relationship name against node IDs and concept
// names, exact first, then substring in either direction. Shorter
// stored values win substring ties.
func resolveName(nodes [][]string, name string) string {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return ""
	}

	for _, row := range nodes {
		if strings.ToLower(row[0]) == needle || strings.ToLower(row[1]) == needle {
			return row[0]
		}
	}

	bestID, bestLen := "", 0
	for _, row := range nodes {
		stored := strings.ToLower(row[1])
		if strings.Contains(stored, needle) || strings.Contains(needle, stored) {
			if bestID == "" || len(stored) < bestLen {
				bestID, bestLen = row[0], len(stored)
			}
		}
	}
	return bestID
}

// backup copies both tables into the backup directory under
// timestamped names and returns the backup paths.
func (m *Merger) backup() (string, string, error) {
	dir := m.cfg.BackupDir
	if dir == "" {
		dir = filepath.Join(filepath.Dir(m.cfg.NodesFile), "backups")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}

	stamp := time.Now().Format("20060102_150405")
	nodesBak := filepath.Join(dir, fmt.Sprintf("nodes_%s.csv", stamp))
	edgesBak := filepath.Join(dir, fmt.Sprintf("edges_%s.csv", stamp))

	if err := copyFile(m.cfg.NodesFile, nodesBak); err != nil {
		return "", "", err
	}
	if err := copyFile(m.cfg.EdgesFile, edgesBak); err != nil {
		return "", "", err
	}
	return nodesBak, edgesBak, nil
}

func (m *Merger) restore(nodesBak, edgesBak string) error {
	if err := copyFile(nodesBak, m.cfg.NodesFile); err != nil {
		return err
	}
	return copyFile(edgesBak, m.cfg.EdgesFile)
}

func (m *Merger) persist(nodes, edges [][]string) error {
	if err := writeTable(m.cfg.NodesFile, nodeHeader, nodes); err != nil {
		return err
	}
	return writeTable(m.cfg.EdgesFile, edgeHeader, edges)
}

func readTable(path string, header []string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty table", path)
	}
	for i, col := range header {
		if i >= len(records[0]) || records[0][i] != col {
			return nil, fmt.Errorf("%s: missing required column %q", path, col)
		}
	}
	return records[1:], nil
}

func writeTable(path string, header []string, rows [][]string) error {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return writeFile(path, []byte(sb.String()), 0o644)
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
