// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/tutor-engine/internal/gaps"
	"github.com/pdiddy/tutor-engine/internal/graph"
	"github.com/pdiddy/tutor-engine/internal/submissions"
	"github.com/pdiddy/tutor-engine/pkg/types"
)

var gapsCmd = &cobra.Command{
	Use:   "gaps [concepts...]",
	Short: "Analyze missing concepts and queue integration proposals",
	Long: `Gaps analyzes concept names that the knowledge graph does not cover
and produces an integration proposal for each: a suggested node ID,
description, prerequisite links, and a confidence score. Proposals are
stored as pending submissions under the gap-detector identity unless
--dry-run is given.

Analysis failures never abort the run; affected names get a low
confidence local proposal flagged for manual review.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGaps,
}

func runGaps(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	store, err := graph.NewStore(cfg.Graph)
	if err != nil {
		return err
	}

	// Skip names the graph already covers.
	var missing []string
	for _, name := range args {
		if id := store.FindConceptID(name); id != "" {
			fmt.Fprintf(os.Stderr, "%s already resolves to %s, skipping\n", name, id)
			continue
		}
		missing = append(missing, name)
	}
	if len(missing) == 0 {
		fmt.Println("All names already resolve; nothing to analyze.")
		return nil
	}

	query, _ := cmd.Flags().GetString("query")
	ai := claudeClient(cfg.Engine)
	detector := gaps.NewDetector(ai, store, cfg.Engine.MaxRetries, os.Stderr)

	proposals := detector.Detect(context.Background(), missing, query)

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	if !dryRun {
		subStore, err := submissions.NewStore(cfg.Submissions)
		if err != nil {
			return err
		}
		defer subStore.Close()

		for _, p := range proposals {
			sub := &types.Submission{
				StudentID:   types.GapDetectorStudentID,
				StudentName: "Gap Detector",
				Title:       p.ConceptName,
				Description: p.Description,
				Proposal:    p,
			}
			if err := subStore.Create(context.Background(), sub); err != nil {
				return fmt.Errorf("queueing proposal %s: %w", p.ConceptID, err)
			}
			fmt.Printf("queued %s (%s)\n", p.ConceptID, sub.ID)
		}
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(proposals)
	}

	for _, p := range proposals {
		fmt.Printf("\n%s  (confidence %.2f, priority %s)\n", p.ConceptID, p.Confidence, p.Priority)
		fmt.Printf("  %s\n", p.Description)
		if len(p.Prerequisites) > 0 {
			fmt.Printf("  prerequisites: %s\n", strings.Join(p.Prerequisites, ", "))
		}
		if len(p.LeadsTo) > 0 {
			fmt.Printf("  leads to: %s\n", strings.Join(p.LeadsTo, ", "))
		}
	}
	return nil
}

func init() {
	gapsCmd.Flags().String("query", "", "student query that surfaced the gaps, recorded on proposals")
	gapsCmd.Flags().Bool("dry-run", false, "print proposals without queueing submissions")
	gapsCmd.Flags().Bool("json", false, "output proposals as JSON")

	rootCmd.AddCommand(gapsCmd)
}
