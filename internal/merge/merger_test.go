// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package merge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/tutor-engine/internal/graph"
	"github.com/pdiddy/tutor-engine/pkg/types"
)

const (
	nodesCSV = "node_id,concept_name,description\n" +
		"limits,Limits,Foundation of calculus\n" +
		"derivatives,Derivatives,Rates of change\n"
	edgesCSV = "source_id,target_id,relationship_type\n" +
		"limits,derivatives,prerequisite_for\n"
)

func writeTables(t *testing.T, nodes, edges string) types.GraphConfig {
	t.Helper()
	dir := t.TempDir()
	cfg := types.GraphConfig{
		NodesFile: filepath.Join(dir, "nodes.csv"),
		EdgesFile: filepath.Join(dir, "edges.csv"),
		BackupDir: filepath.Join(dir, "backups"),
	}
	if err := os.WriteFile(cfg.NodesFile, []byte(nodes), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cfg.EdgesFile, []byte(edges), 0o644); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func chainRuleProposal() types.Proposal {
	return types.Proposal{
		ConceptID:     "chain_rule",
		ConceptName:   "Chain Rule",
		Description:   "Differentiating compositions of functions.",
		Confidence:    0.9,
		Prerequisites: []string{"Derivatives"},
		LeadsTo:       []string{"limits"},
	}
}

type countingReloader struct{ calls int }

func (r *countingReloader) Reload() error {
	r.calls++
	return nil
}

func TestIntegrateAppendsNodeAndEdges(t *testing.T) {
	cfg := writeTables(t, nodesCSV, edgesCSV)
	reloader := &countingReloader{}
	m := NewMerger(cfg, reloader, nil)

	res, err := m.Integrate(context.Background(), chainRuleProposal())
	if err != nil {
		t.Fatalf("Integrate: %v", err)
	}
	if res.Status != StatusIntegrated {
		t.Fatalf("Status = %q, want %q", res.Status, StatusIntegrated)
	}
	if res.NodesAdded != 1 || res.EdgesAdded != 2 {
		t.Errorf("NodesAdded = %d, EdgesAdded = %d, want 1 and 2", res.NodesAdded, res.EdgesAdded)
	}
	if reloader.calls != 1 {
		t.Errorf("reloader called %d times, want 1", reloader.calls)
	}

	nodes := readFile(t, cfg.NodesFile)
	if !strings.Contains(nodes, "chain_rule,Chain Rule,") {
		t.Errorf("nodes.csv missing new concept:\n%s", nodes)
	}
	edges := readFile(t, cfg.EdgesFile)
	if !strings.Contains(edges, "derivatives,chain_rule,prerequisite_for") {
		t.Errorf("edges.csv missing prerequisite edge:\n%s", edges)
	}
	if !strings.Contains(edges, "chain_rule,limits,prerequisite_for") {
		t.Errorf("edges.csv missing leads-to edge:\n%s", edges)
	}
}

func TestIntegrateDuplicateIDConflict(t *testing.T) {
	cfg := writeTables(t, nodesCSV, edgesCSV)
	m := NewMerger(cfg, nil, nil)

	res, err := m.Integrate(context.Background(), types.Proposal{ConceptID: "limits", ConceptName: "Limits Again"})
	if err != nil {
		t.Fatalf("Integrate: %v", err)
	}
	if res.Status != StatusConflict {
		t.Fatalf("Status = %q, want %q", res.Status, StatusConflict)
	}
	if readFile(t, cfg.NodesFile) != nodesCSV {
		t.Error("nodes.csv changed on conflict")
	}
	if readFile(t, cfg.EdgesFile) != edgesCSV {
		t.Error("edges.csv changed on conflict")
	}
}

func TestIntegrateDropsUnresolvedAndSelfLoops(t *testing.T) {
	cfg := writeTables(t, nodesCSV, edgesCSV)
	m := NewMerger(cfg, nil, nil)

	p := chainRuleProposal()
	p.Prerequisites = []string{"Derivatives", "Galois Theory", "Chain Rule"}
	p.LeadsTo = nil

	res, err := m.Integrate(context.Background(), p)
	if err != nil {
		t.Fatalf("Integrate: %v", err)
	}
	if res.EdgesAdded != 1 {
		t.Errorf("EdgesAdded = %d, want 1", res.EdgesAdded)
	}
	if len(res.Dropped) != 2 {
		t.Errorf("Dropped = %v, want 2 entries", res.Dropped)
	}
}

func TestIntegrateIdempotentEdges(t *testing.T) {
	existing := edgesCSV + "derivatives,chain_rule,prerequisite_for\n"
	cfg := writeTables(t, nodesCSV, existing)
	m := NewMerger(cfg, nil, nil)

	p := chainRuleProposal()
	p.LeadsTo = nil

	res, err := m.Integrate(context.Background(), p)
	if err != nil {
		t.Fatalf("Integrate: %v", err)
	}
	if res.EdgesAdded != 0 {
		t.Errorf("EdgesAdded = %d, want 0 for existing edge", res.EdgesAdded)
	}
	edges := readFile(t, cfg.EdgesFile)
	if strings.Count(edges, "derivatives,chain_rule,prerequisite_for") != 1 {
		t.Errorf("duplicate edge written:\n%s", edges)
	}
}

func TestIntegrateCreatesBackups(t *testing.T) {
	cfg := writeTables(t, nodesCSV, edgesCSV)
	m := NewMerger(cfg, nil, nil)

	res, err := m.Integrate(context.Background(), chainRuleProposal())
	if err != nil {
		t.Fatalf("Integrate: %v", err)
	}
	if readFile(t, res.BackupNodes) != nodesCSV {
		t.Error("nodes backup does not match pre-merge contents")
	}
	if readFile(t, res.BackupEdges) != edgesCSV {
		t.Error("edges backup does not match pre-merge contents")
	}
}

func TestIntegrateRollsBackOnPersistFailure(t *testing.T) {
	cfg := writeTables(t, nodesCSV, edgesCSV)
	m := NewMerger(cfg, nil, nil)

	orig := writeFile
	calls := 0
	writeFile = func(name string, data []byte, perm os.FileMode) error {
		calls++
		if calls == 1 {
			return orig(name, data, perm)
		}
		return errors.New("disk full")
	}
	defer func() { writeFile = orig }()

	res, err := m.Integrate(context.Background(), chainRuleProposal())
	if err == nil {
		t.Fatal("Integrate succeeded, want persist error")
	}
	if res.Status != StatusFailed {
		t.Errorf("Status = %q, want %q", res.Status, StatusFailed)
	}
	if readFile(t, cfg.NodesFile) != nodesCSV {
		t.Error("nodes.csv not restored after failure")
	}
	if readFile(t, cfg.EdgesFile) != edgesCSV {
		t.Error("edges.csv not restored after failure")
	}
}

func TestIntegrateEmptyConceptID(t *testing.T) {
	cfg := writeTables(t, nodesCSV, edgesCSV)
	m := NewMerger(cfg, nil, nil)

	res, err := m.Integrate(context.Background(), types.Proposal{ConceptName: "Nameless"})
	if err == nil {
		t.Fatal("Integrate succeeded, want error")
	}
	if res.Status != StatusFailed {
		t.Errorf("Status = %q, want %q", res.Status, StatusFailed)
	}
}

func TestResolveName(t *testing.T) {
	nodes := [][]string{
		{"limits", "Limits", ""},
		{"derivatives", "Derivatives", ""},
		{"chain_rule", "Chain Rule", ""},
	}
	tests := []struct {
		name string
		want string
	}{
		{"Derivatives", "derivatives"},
		{"derivatives", "derivatives"},
		{"chain_rule", "chain_rule"},
		{"chain", "chain_rule"},
		{"the chain rule", "chain_rule"},
		{"topology", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := resolveName(nodes, tt.name); got != tt.want {
			t.Errorf("resolveName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestIntegrateReloadMakesConceptResolvable(t *testing.T) {
	cfg := writeTables(t, nodesCSV, edgesCSV)
	store, err := graph.NewStore(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if id := store.FindConceptID("Chain Rule"); id != "" {
		t.Fatalf("FindConceptID before merge = %q, want miss", id)
	}

	m := NewMerger(cfg, store, nil)
	res, err := m.Integrate(context.Background(), chainRuleProposal())
	if err != nil {
		t.Fatalf("Integrate: %v", err)
	}
	if res.Status != StatusIntegrated {
		t.Fatalf("Status = %q, want %q", res.Status, StatusIntegrated)
	}

	if id := store.FindConceptID("Chain Rule"); id != "chain_rule" {
		t.Errorf("FindConceptID after merge = %q, want %q", id, "chain_rule")
	}
	path, unresolved := store.LearningPath([]string{"Chain Rule"})
	if len(unresolved) != 0 {
		t.Errorf("unresolved = %v, want none", unresolved)
	}
	if len(path) == 0 || path[len(path)-1].ID != "chain_rule" {
		t.Errorf("path = %v, want chain_rule last", path)
	}
}
