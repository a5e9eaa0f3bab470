// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/tutor-engine/internal/graph"
	"github.com/pdiddy/tutor-engine/pkg/types"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [concepts...]",
	Short: "Resolve the prerequisite learning path for named concepts",
	Long: `Resolve looks up each named concept in the knowledge graph and prints
the ordered learning path covering the concepts and everything they
transitively require. Names match case-insensitively, exactly first and
by substring second.

Names that match nothing are listed separately; the path still covers
whatever did resolve.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolve,
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	store, err := graph.NewStore(cfg.Graph)
	if err != nil {
		return err
	}

	path, unresolved := store.LearningPath(args)

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Path       []types.PathStep `json:"path"`
			Unresolved []string         `json:"unresolved,omitempty"`
		}{path, unresolved})
	}

	if len(unresolved) > 0 {
		fmt.Fprintf(os.Stderr, "Not in the graph: %s\n", strings.Join(unresolved, ", "))
	}
	if len(path) == 0 {
		fmt.Println("No learning path found.")
		return nil
	}
	fmt.Print(renderPath(path))
	return nil
}

// renderPath formats a learning path as a numbered list, marking the
// requested targets.
func renderPath(path []types.PathStep) string {
	var sb strings.Builder
	for i, step := range path {
		marker := " "
		if step.Role == types.RoleTarget {
			marker = "*"
		}
		fmt.Fprintf(&sb, "%2d. %s %-28s %s\n", i+1, marker, step.Name, step.Description)
	}
	return sb.String()
}

func init() {
	resolveCmd.Flags().Bool("json", false, "output the path as JSON")

	rootCmd.AddCommand(resolveCmd)
}
