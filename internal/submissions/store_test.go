// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package submissions

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/pdiddy/tutor-engine/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.SubmissionsConfig{
		DBPath: filepath.Join(t.TempDir(), "submissions.db"),
	})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleSubmission() *types.Submission {
	return &types.Submission{
		StudentID:   "student_42",
		StudentName: "Ada",
		Title:       "Chain Rule",
		Description: "How to differentiate compositions",
		Proposal: types.Proposal{
			ConceptID:     "chain_rule",
			ConceptName:   "Chain Rule",
			Description:   "Differentiating compositions of functions.",
			Confidence:    0.85,
			Prerequisites: []string{"derivatives"},
			LeadsTo:       []string{"implicit_differentiation"},
			Priority:      types.PriorityMedium,
			Reasoning:     "Core technique.",
		},
	}
}

func TestCreateAndGet(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	sub := sampleSubmission()
	if err := s.Create(ctx, sub); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sub.ID == "" {
		t.Fatal("Create did not assign an ID")
	}
	if sub.Status != types.StatusPending {
		t.Errorf("Status = %q, want pending", sub.Status)
	}

	got, err := s.Get(ctx, sub.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != sub.Title || got.StudentID != sub.StudentID {
		t.Errorf("Get = %+v", got)
	}
	if got.Proposal.ConceptID != "chain_rule" || got.Proposal.Confidence != 0.85 {
		t.Errorf("Proposal = %+v", got.Proposal)
	}
	if len(got.Proposal.Prerequisites) != 1 || got.Proposal.Prerequisites[0] != "derivatives" {
		t.Errorf("Prerequisites = %v", got.Proposal.Prerequisites)
	}
	if got.ReviewedAt != nil {
		t.Error("ReviewedAt set before review")
	}
}

func TestGetNotFound(t *testing.T) {
	s := testStore(t)
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(nope) err = %v, want ErrNotFound", err)
	}
}

func TestPendingOrderAndLimit(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, title := range []string{"first", "second", "third"} {
		sub := sampleSubmission()
		sub.Title = title
		sub.SubmittedAt = base.Add(time.Duration(i) * time.Hour)
		if err := s.Create(ctx, sub); err != nil {
			t.Fatalf("Create %s: %v", title, err)
		}
	}

	pending, err := s.Pending(ctx, 2)
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("got %d pending, want 2", len(pending))
	}
	if pending[0].Title != "third" || pending[1].Title != "second" {
		t.Errorf("order = %s, %s; want third, second", pending[0].Title, pending[1].Title)
	}
}

func TestReviewLifecycle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	sub := sampleSubmission()
	if err := s.Create(ctx, sub); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := s.Review(ctx, sub.ID, "expert_1", types.DecisionApprove, "looks good"); err != nil {
		t.Fatalf("Review: %v", err)
	}

	got, err := s.Get(ctx, sub.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != types.StatusApproved {
		t.Errorf("Status = %q, want approved", got.Status)
	}
	if got.ReviewerID != "expert_1" || got.ReviewerComments != "looks good" {
		t.Errorf("reviewer fields = %q, %q", got.ReviewerID, got.ReviewerComments)
	}
	if got.ReviewedAt == nil {
		t.Error("ReviewedAt not set")
	}

	// A decision cannot be overwritten.
	err = s.Review(ctx, sub.ID, "expert_2", types.DecisionReject, "changed my mind")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("second Review err = %v, want ErrNotFound", err)
	}
}

func TestMarkIntegrated(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	sub := sampleSubmission()
	if err := s.Create(ctx, sub); err != nil {
		t.Fatal(err)
	}

	// Integration requires approval first.
	if err := s.MarkIntegrated(ctx, sub.ID); !errors.Is(err, ErrNotApproved) {
		t.Errorf("MarkIntegrated before approval err = %v, want ErrNotApproved", err)
	}

	if err := s.Review(ctx, sub.ID, "expert_1", types.DecisionApprove, ""); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkIntegrated(ctx, sub.ID); err != nil {
		t.Fatalf("MarkIntegrated: %v", err)
	}

	got, _ := s.Get(ctx, sub.ID)
	if got.Integration != types.IntegrationCompleted {
		t.Errorf("Integration = %q, want integrated", got.Integration)
	}
}

func TestMarkIntegrationFailed(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	sub := sampleSubmission()
	if err := s.Create(ctx, sub); err != nil {
		t.Fatal(err)
	}
	if err := s.Review(ctx, sub.ID, "expert_1", types.DecisionApprove, ""); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkIntegrationFailed(ctx, sub.ID); err != nil {
		t.Fatalf("MarkIntegrationFailed: %v", err)
	}

	got, _ := s.Get(ctx, sub.ID)
	if got.Integration != types.IntegrationFailedMark {
		t.Errorf("Integration = %q, want integration_failed", got.Integration)
	}
}

func TestByStudent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	mine := sampleSubmission()
	if err := s.Create(ctx, mine); err != nil {
		t.Fatal(err)
	}
	other := sampleSubmission()
	other.StudentID = "student_99"
	if err := s.Create(ctx, other); err != nil {
		t.Fatal(err)
	}

	got, err := s.ByStudent(ctx, "student_42")
	if err != nil {
		t.Fatalf("ByStudent: %v", err)
	}
	if len(got) != 1 || got[0].ID != mine.ID {
		t.Errorf("ByStudent = %v", got)
	}
}

func TestAuditHistory(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	first := types.AuditEntry{
		ActionType:   "add_concept",
		ConceptID:    "chain_rule",
		Payload:      `{"concept_id":"chain_rule"}`,
		ReviewerID:   "expert_1",
		SubmissionID: "sub-1",
		Timestamp:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	second := first
	second.ConceptID = "product_rule"
	second.Timestamp = first.Timestamp.Add(time.Hour)

	if err := s.RecordAudit(ctx, first); err != nil {
		t.Fatalf("RecordAudit: %v", err)
	}
	if err := s.RecordAudit(ctx, second); err != nil {
		t.Fatalf("RecordAudit: %v", err)
	}

	entries, err := s.History(ctx, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].ConceptID != "product_rule" {
		t.Errorf("newest entry = %q, want product_rule", entries[0].ConceptID)
	}
	if entries[1].Payload != first.Payload {
		t.Errorf("Payload = %q", entries[1].Payload)
	}
}

func TestStatistics(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	st, err := s.Statistics(ctx)
	if err != nil {
		t.Fatalf("Statistics on empty store: %v", err)
	}
	if st.Total != 0 {
		t.Errorf("empty Total = %d", st.Total)
	}

	approve := sampleSubmission()
	reject := sampleSubmission()
	keep := sampleSubmission()
	for _, sub := range []*types.Submission{approve, reject, keep} {
		if err := s.Create(ctx, sub); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Review(ctx, approve.ID, "e", types.DecisionApprove, ""); err != nil {
		t.Fatal(err)
	}
	if err := s.MarkIntegrated(ctx, approve.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.Review(ctx, reject.ID, "e", types.DecisionReject, ""); err != nil {
		t.Fatal(err)
	}

	st, err = s.Statistics(ctx)
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	want := Statistics{Total: 3, Pending: 1, Approved: 1, Rejected: 1, Integrated: 1}
	if st != want {
		t.Errorf("Statistics = %+v, want %+v", st, want)
	}
}
