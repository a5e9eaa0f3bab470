// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// SubmissionStatus tracks a submission through expert review.
type SubmissionStatus string

const (
	StatusPending       SubmissionStatus = "pending"
	StatusApproved      SubmissionStatus = "approved"
	StatusRejected      SubmissionStatus = "rejected"
	StatusNeedsRevision SubmissionStatus = "needs_revision"
)

// IntegrationStatus tracks what happened to an approved submission when
// the merger attempted to apply it to the backing tables.
type IntegrationStatus string

const (
	IntegrationNone       IntegrationStatus = ""
	IntegrationCompleted  IntegrationStatus = "integrated"
	IntegrationFailedMark IntegrationStatus = "integration_failed"
)

// Submission is a concept proposal in the review pipeline, either
// submitted by a student or auto-generated by the gap detector.
type Submission struct {
	// ID is a UUID assigned at creation.
	ID string `json:"id" yaml:"id"`

	// StudentID and StudentName identify the submitter. Auto-generated
	// proposals use the reserved StudentID "gap_detector".
	StudentID   string `json:"student_id,omitempty" yaml:"student_id,omitempty"`
	StudentName string `json:"student_name,omitempty" yaml:"student_name,omitempty"`

	// Title and Description are the raw submitted material.
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`

	// SourceMaterial is optional supporting text supplied by the student.
	SourceMaterial string `json:"source_material,omitempty" yaml:"source_material,omitempty"`

	// Proposal is the analyzed concept awaiting review.
	Proposal Proposal `json:"proposal" yaml:"proposal"`

	// Status is the review state.
	Status SubmissionStatus `json:"status" yaml:"status"`

	// Integration records the merge outcome for approved submissions.
	Integration IntegrationStatus `json:"integration,omitempty" yaml:"integration,omitempty"`

	// ReviewerID and ReviewerComments are set by the reviewing expert.
	ReviewerID       string `json:"reviewer_id,omitempty" yaml:"reviewer_id,omitempty"`
	ReviewerComments string `json:"reviewer_comments,omitempty" yaml:"reviewer_comments,omitempty"`

	// QualityFeedback is the JSON-encoded quality assessment, if any.
	QualityFeedback string `json:"quality_feedback,omitempty" yaml:"quality_feedback,omitempty"`

	SubmittedAt time.Time  `json:"submitted_at" yaml:"submitted_at"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty" yaml:"reviewed_at,omitempty"`
}

// GapDetectorStudentID is the reserved StudentID for auto-generated
// proposals.
const GapDetectorStudentID = "gap_detector"

// ReviewDecision is an expert's verdict on a pending submission.
type ReviewDecision string

const (
	DecisionApprove ReviewDecision = "approved"
	DecisionReject  ReviewDecision = "rejected"
	DecisionRevise  ReviewDecision = "needs_revision"
)

// AuditEntry is one immutable row in the knowledge-graph history log.
type AuditEntry struct {
	ID           string    `json:"id" yaml:"id"`
	ActionType   string    `json:"action_type" yaml:"action_type"`
	ConceptID    string    `json:"concept_id" yaml:"concept_id"`
	Payload      string    `json:"payload" yaml:"payload"`
	ReviewerID   string    `json:"reviewer_id" yaml:"reviewer_id"`
	SubmissionID string    `json:"submission_id" yaml:"submission_id"`
	Timestamp    time.Time `json:"timestamp" yaml:"timestamp"`
}
