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
	"github.com/pdiddy/tutor-engine/internal/merge"
	"github.com/pdiddy/tutor-engine/internal/submissions"
	"github.com/pdiddy/tutor-engine/pkg/types"
)

var submissionsCmd = &cobra.Command{
	Use:   "submissions",
	Short: "Manage the concept review pipeline",
	Long: `Submissions manages concept proposals through expert review. Students
submit material with "submit"; experts inspect the queue with "pending"
and decide with "review". Approving a submission merges it into the
knowledge graph and records the change in the history log.`,
}

// --- submit ---

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit learning material for review",
	Long: `Submit analyzes student material against the knowledge graph, runs a
quality check, and stores the result as a pending submission. The
analysis suggests where the concept fits; an expert decides whether it
is integrated.`,
	RunE: runSubmit,
}

func runSubmit(cmd *cobra.Command, args []string) error {
	title, _ := cmd.Flags().GetString("title")
	description, _ := cmd.Flags().GetString("description")
	material, _ := cmd.Flags().GetString("material")
	studentID, _ := cmd.Flags().GetString("student")
	studentName, _ := cmd.Flags().GetString("student-name")
	if title == "" || description == "" {
		return fmt.Errorf("--title and --description are required")
	}

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

	ctx := context.Background()
	ai := claudeClient(cfg.Engine)
	detector := gaps.NewDetector(ai, store, cfg.Engine.MaxRetries, os.Stderr)

	quality := detector.AssessQuality(ctx, title, description, material)
	if !quality.MeetsStandards {
		fmt.Println("Submission does not meet quality standards:")
		fmt.Printf("  %s\n", quality.Feedback)
		for _, w := range quality.Weaknesses {
			fmt.Printf("  - %s\n", w)
		}
		return nil
	}

	proposal := detector.AnalyzeSubmission(ctx, title, description, material)

	sub := &types.Submission{
		StudentID:      studentID,
		StudentName:    studentName,
		Title:          title,
		Description:    description,
		SourceMaterial: material,
		Proposal:       proposal,
	}
	if fb, err := json.Marshal(quality); err == nil {
		sub.QualityFeedback = string(fb)
	}
	if err := subStore.Create(ctx, sub); err != nil {
		return err
	}

	fmt.Printf("Submitted %s as %s (suggested concept: %s, confidence %.2f)\n",
		title, sub.ID, proposal.ConceptID, proposal.Confidence)
	return nil
}

// --- pending ---

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List submissions awaiting review",
	RunE:  runPending,
}

func runPending(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	subStore, err := submissions.NewStore(cfg.Submissions)
	if err != nil {
		return err
	}
	defer subStore.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	pending, err := subStore.Pending(context.Background(), limit)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(pending)
	}

	if len(pending) == 0 {
		fmt.Println("No pending submissions.")
		return nil
	}
	for _, sub := range pending {
		fmt.Printf("%s  %-24s  %-16s  conf %.2f  %s\n",
			sub.ID, truncate(sub.Title, 24), sub.StudentID,
			sub.Proposal.Confidence, sub.SubmittedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

// --- show ---

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show one submission in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		subStore, err := submissions.NewStore(cfg.Submissions)
		if err != nil {
			return err
		}
		defer subStore.Close()

		sub, err := subStore.Get(context.Background(), args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sub)
	},
}

// --- review ---

var reviewCmd = &cobra.Command{
	Use:   "review [id]",
	Short: "Apply an expert decision to a pending submission",
	Long: `Review applies a decision (approved, rejected, or needs_revision) to a
pending submission. Approval triggers integration: the graph tables are
backed up, the concept and its resolvable relationships are appended,
the change is recorded in the history log, and the in-memory graph is
reloaded. If persistence fails the tables are restored from the backup
and the submission is marked integration_failed.`,
	Args: cobra.ExactArgs(1),
	RunE: runReview,
}

func runReview(cmd *cobra.Command, args []string) error {
	id := args[0]
	decisionFlag, _ := cmd.Flags().GetString("decision")
	reviewer, _ := cmd.Flags().GetString("reviewer")
	comments, _ := cmd.Flags().GetString("comments")

	var decision types.ReviewDecision
	switch decisionFlag {
	case "approved", "approve":
		decision = types.DecisionApprove
	case "rejected", "reject":
		decision = types.DecisionReject
	case "needs_revision", "revise":
		decision = types.DecisionRevise
	default:
		return fmt.Errorf("unsupported decision %q: use approved, rejected, or needs_revision", decisionFlag)
	}

	cfg := loadConfig()
	subStore, err := submissions.NewStore(cfg.Submissions)
	if err != nil {
		return err
	}
	defer subStore.Close()

	ctx := context.Background()
	if err := subStore.Review(ctx, id, reviewer, decision, comments); err != nil {
		return err
	}
	fmt.Printf("Submission %s: %s\n", id, decision)

	if decision != types.DecisionApprove {
		return nil
	}

	sub, err := subStore.Get(ctx, id)
	if err != nil {
		return err
	}

	store, err := graph.NewStore(cfg.Graph)
	if err != nil {
		return err
	}

	merger := merge.NewMerger(cfg.Graph, store, os.Stderr)
	res, mergeErr := merger.Integrate(ctx, sub.Proposal)

	switch res.Status {
	case merge.StatusIntegrated:
		if err := subStore.MarkIntegrated(ctx, id); err != nil {
			return err
		}
		payload, _ := json.Marshal(map[string]any{
			"proposal":     sub.Proposal,
			"backup_nodes": res.BackupNodes,
			"backup_edges": res.BackupEdges,
		})
		if err := subStore.RecordAudit(ctx, types.AuditEntry{
			ActionType:   "add_concept",
			ConceptID:    sub.Proposal.ConceptID,
			Payload:      string(payload),
			ReviewerID:   reviewer,
			SubmissionID: id,
		}); err != nil {
			return err
		}
		fmt.Printf("Integrated %s (%d edges added", sub.Proposal.ConceptID, res.EdgesAdded)
		if len(res.Dropped) > 0 {
			fmt.Printf(", dropped: %s", strings.Join(res.Dropped, ", "))
		}
		fmt.Println(")")
	case merge.StatusConflict:
		if err := subStore.MarkIntegrationFailed(ctx, id); err != nil {
			return err
		}
		fmt.Printf("Concept %s already exists; graph unchanged.\n", sub.Proposal.ConceptID)
	case merge.StatusFailed:
		if err := subStore.MarkIntegrationFailed(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("integration failed, tables restored from backup: %w", mergeErr)
	}
	return nil
}

// --- history ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the knowledge-graph change log",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		subStore, err := submissions.NewStore(cfg.Submissions)
		if err != nil {
			return err
		}
		defer subStore.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		entries, err := subStore.History(context.Background(), limit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No history entries.")
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%s  %-12s  %-20s  reviewer=%s submission=%s\n",
				e.Timestamp.Format("2006-01-02 15:04"), e.ActionType,
				e.ConceptID, e.ReviewerID, e.SubmissionID)
		}
		return nil
	},
}

// --- stats ---

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the review pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		subStore, err := submissions.NewStore(cfg.Submissions)
		if err != nil {
			return err
		}
		defer subStore.Close()

		st, err := subStore.Statistics(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("total:          %d\n", st.Total)
		fmt.Printf("pending:        %d\n", st.Pending)
		fmt.Printf("approved:       %d\n", st.Approved)
		fmt.Printf("rejected:       %d\n", st.Rejected)
		fmt.Printf("needs revision: %d\n", st.NeedsRevision)
		fmt.Printf("integrated:     %d\n", st.Integrated)
		return nil
	},
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func init() {
	submitCmd.Flags().String("title", "", "submission title")
	submitCmd.Flags().String("description", "", "what the material covers")
	submitCmd.Flags().String("material", "", "the learning material itself")
	submitCmd.Flags().String("student", "", "student identifier")
	submitCmd.Flags().String("student-name", "", "student display name")

	pendingCmd.Flags().Int("limit", 20, "maximum submissions to list")
	pendingCmd.Flags().Bool("json", false, "output as JSON")

	reviewCmd.Flags().String("decision", "", "approved, rejected, or needs_revision")
	reviewCmd.Flags().String("reviewer", "", "reviewer identifier")
	reviewCmd.Flags().String("comments", "", "feedback for the submitter")
	reviewCmd.MarkFlagRequired("decision")
	reviewCmd.MarkFlagRequired("reviewer")

	historyCmd.Flags().Int("limit", 50, "maximum entries to show")

	submissionsCmd.AddCommand(submitCmd, pendingCmd, showCmd, reviewCmd, historyCmd, statsCmd)
	rootCmd.AddCommand(submissionsCmd)
}
