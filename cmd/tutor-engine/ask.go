// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/tutor-engine/internal/engine"
	"github.com/pdiddy/tutor-engine/internal/gaps"
	"github.com/pdiddy/tutor-engine/internal/graph"
	"github.com/pdiddy/tutor-engine/internal/passages"
	"github.com/pdiddy/tutor-engine/internal/submissions"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a student question with a grounded explanation",
	Long: `Ask runs the full tutoring workflow for one question: identify the
mathematical concepts involved, resolve the prerequisite learning path,
retrieve relevant course material, and generate an explanation.

Concepts the knowledge graph does not cover are analyzed and queued as
pending submissions for expert review.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	cfg := loadConfig()

	store, err := graph.NewStore(cfg.Graph)
	if err != nil {
		return err
	}

	subStore, err := submissions.NewStore(cfg.Submissions)
	if err != nil {
		return err
	}
	defer subStore.Close()

	passStore, err := passages.NewStore(cfg.Passages)
	if err != nil {
		return err
	}
	defer passStore.Close()

	ai := claudeClient(cfg.Engine)
	detector := gaps.NewDetector(ai, store, cfg.Engine.MaxRetries, os.Stderr)

	eng := engine.New(store, ai, engine.Options{
		GapHandler:      detector,
		Submitter:       subStore,
		Retriever:       passStore,
		MaxRetries:      cfg.Engine.MaxRetries,
		ContextPassages: cfg.Engine.ContextPassages,
		Progress:        os.Stderr,
	})

	ans, err := eng.Answer(context.Background(), query)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ans)
	}

	if len(ans.IdentifiedConcepts) > 0 {
		fmt.Printf("Concepts: %s\n", strings.Join(ans.IdentifiedConcepts, ", "))
	}
	if len(ans.MissingConcepts) > 0 {
		fmt.Printf("Not yet in the graph (queued for review): %s\n", strings.Join(ans.MissingConcepts, ", "))
	}
	if len(ans.LearningPath) > 0 {
		fmt.Println("\nLearning path:")
		fmt.Print(renderPath(ans.LearningPath))
	}
	fmt.Printf("\n%s\n", ans.Explanation)
	return nil
}

func init() {
	askCmd.Flags().Bool("json", false, "output the full answer as JSON")

	rootCmd.AddCommand(askCmd)
}
