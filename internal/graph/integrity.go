// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import (
	"fmt"
	"os"
)

// IntegrityReport summarizes the health of the backing CSV tables.
type IntegrityReport struct {
	NodesFileExists bool     `json:"nodes_file_exists" yaml:"nodes_file_exists"`
	EdgesFileExists bool     `json:"edges_file_exists" yaml:"edges_file_exists"`
	NodeCount       int      `json:"node_count" yaml:"node_count"`
	EdgeCount       int      `json:"edge_count" yaml:"edge_count"`
	Issues          []string `json:"issues" yaml:"issues"`
}

// OK reports whether the tables exist and no issues were found.
func (r IntegrityReport) OK() bool {
	return r.NodesFileExists && r.EdgesFileExists && len(r.Issues) == 0
}

// VerifyIntegrity inspects the backing tables on disk (not the in-memory
// graph) and reports missing files, missing columns, duplicate node IDs,
// and edges referencing unknown nodes. It never mutates anything.
func (s *Store) VerifyIntegrity() IntegrityReport {
	var report IntegrityReport

	if _, err := os.Stat(s.nodesFile); err == nil {
		report.NodesFileExists = true
	}
	if _, err := os.Stat(s.edgesFile); err == nil {
		report.EdgesFileExists = true
	}
	if !report.NodesFileExists || !report.EdgesFileExists {
		return report
	}

	nodeRows, err := readTable(s.nodesFile, nodesColumns)
	if err != nil {
		report.Issues = append(report.Issues, fmt.Sprintf("nodes table: %v", err))
		return report
	}
	report.NodeCount = len(nodeRows)

	ids := make(map[string]bool, len(nodeRows))
	for _, row := range nodeRows {
		id := row["node_id"]
		if ids[id] {
			report.Issues = append(report.Issues, fmt.Sprintf("duplicate node ID %q", id))
			continue
		}
		ids[id] = true
	}

	edgeRows, err := readTable(s.edgesFile, edgesColumns)
	if err != nil {
		report.Issues = append(report.Issues, fmt.Sprintf("edges table: %v", err))
		return report
	}
	report.EdgeCount = len(edgeRows)

	for _, row := range edgeRows {
		if src := row["source_id"]; !ids[src] {
			report.Issues = append(report.Issues, fmt.Sprintf("edge source %q not found in nodes", src))
		}
		if tgt := row["target_id"]; !ids[tgt] {
			report.Issues = append(report.Issues, fmt.Sprintf("edge target %q not found in nodes", tgt))
		}
	}

	return report
}
