// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/tutor-engine/internal/graph"
	"github.com/pdiddy/tutor-engine/pkg/types"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Inspect the knowledge graph tables",
}

var graphStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show node and edge counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := graph.NewStore(loadConfig().Graph)
		if err != nil {
			return err
		}
		fmt.Printf("concepts: %d\nedges:    %d\n", store.NodeCount(), store.EdgeCount())
		return nil
	},
}

var graphConceptsCmd = &cobra.Command{
	Use:   "concepts",
	Short: "List all concepts in load order",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := graph.NewStore(loadConfig().Graph)
		if err != nil {
			return err
		}
		for _, c := range store.AllConcepts() {
			fmt.Printf("%-28s %-28s %s\n", c.ID, c.Name, c.Description)
		}
		return nil
	},
}

var graphShowCmd = &cobra.Command{
	Use:   "show [concept]",
	Short: "Show one concept with its direct neighbors",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := graph.NewStore(loadConfig().Graph)
		if err != nil {
			return err
		}
		id := store.FindConceptID(args[0])
		if id == "" {
			return fmt.Errorf("no concept matches %q", args[0])
		}
		info, _ := store.Concept(id)
		out, err := yaml.Marshal(info)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
		return nil
	},
}

var graphReloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Re-read the CSV tables and report the refreshed counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := graph.NewStore(loadConfig().Graph)
		if err != nil {
			return err
		}
		if err := store.Reload(); err != nil {
			return err
		}
		fmt.Printf("reloaded: %d concepts, %d edges\n", store.NodeCount(), store.EdgeCount())
		return nil
	},
}

// graphExport is the document written by graph export.
type graphExport struct {
	Concepts []types.Concept `yaml:"concepts"`
	Edges    []types.Edge    `yaml:"edges"`
}

var graphExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Dump the whole graph as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := graph.NewStore(loadConfig().Graph)
		if err != nil {
			return err
		}
		doc := graphExport{Concepts: store.AllConcepts(), Edges: store.EdgeList()}
		out, err := yaml.Marshal(doc)
		if err != nil {
			return err
		}
		if path, _ := cmd.Flags().GetString("out"); path != "" {
			return os.WriteFile(path, out, 0o644)
		}
		fmt.Print(string(out))
		return nil
	},
}

var graphVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the CSV tables for structural problems",
	Long: `Verify re-reads the node and edge tables from disk and reports missing
files, malformed rows, duplicate node IDs, and edges whose endpoints do
not exist. Exits non-zero when issues are found.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := graph.NewStore(loadConfig().Graph)
		if err != nil {
			return err
		}
		report := store.VerifyIntegrity()

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
		} else {
			fmt.Printf("nodes: %d, edges: %d\n", report.NodeCount, report.EdgeCount)
			for _, issue := range report.Issues {
				fmt.Printf("issue: %s\n", issue)
			}
		}

		if !report.OK() {
			return fmt.Errorf("%d integrity issue(s) found", len(report.Issues))
		}
		fmt.Println("ok")
		return nil
	},
}

func init() {
	graphVerifyCmd.Flags().Bool("json", false, "output the report as JSON")
	graphExportCmd.Flags().String("out", "", "write the YAML to a file instead of stdout")

	graphCmd.AddCommand(graphStatsCmd, graphConceptsCmd, graphShowCmd,
		graphReloadCmd, graphExportCmd, graphVerifyCmd)
	rootCmd.AddCommand(graphCmd)
}
