// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package submissions persists the concept review pipeline: student and
// gap-detector submissions, expert review decisions, and the append-only
// knowledge-graph change history.
package submissions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/tutor-engine/pkg/types"
)

// ErrNotFound is returned when a submission ID matches no row.
var ErrNotFound = errors.New("submission not found")

// ErrNotApproved is returned when an integration mark is attempted on a
// submission that was never approved.
var ErrNotApproved = errors.New("submission is not approved")

// Store manages the submissions SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the submissions database at cfg.DBPath,
// creating the schema if it does not exist.
func NewStore(cfg types.SubmissionsConfig) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS concept_submissions (
			id TEXT PRIMARY KEY,
			student_id TEXT,
			student_name TEXT,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			source_material TEXT,
			suggested_concept_id TEXT,
			suggested_concept_name TEXT,
			suggested_description TEXT,
			suggested_prerequisites TEXT,
			suggested_leads_to TEXT,
			confidence_score REAL,
			priority TEXT,
			source_query TEXT,
			reasoning TEXT,
			status TEXT NOT NULL DEFAULT 'pending',
			integration TEXT NOT NULL DEFAULT '',
			reviewer_id TEXT,
			reviewer_comments TEXT,
			quality_feedback TEXT,
			submitted_at TEXT NOT NULL,
			reviewed_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_status ON concept_submissions(status)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_student ON concept_submissions(student_id)`,
		`CREATE TABLE IF NOT EXISTS kg_history (
			id TEXT PRIMARY KEY,
			action_type TEXT NOT NULL,
			concept_id TEXT,
			payload TEXT,
			reviewer_id TEXT,
			submission_id TEXT,
			timestamp TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Create stores a new submission in pending state. A missing ID is
// assigned; SubmittedAt defaults to now.
func (s *Store) Create(ctx context.Context, sub *types.Submission) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now().UTC()
	}
	sub.Status = types.StatusPending
	sub.Integration = types.IntegrationNone

	prereqs, err := json.Marshal(sub.Proposal.Prerequisites)
	if err != nil {
		return fmt.Errorf("encoding prerequisites: %w", err)
	}
	leadsTo, err := json.Marshal(sub.Proposal.LeadsTo)
	if err != nil {
		return fmt.Errorf("encoding leads_to: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO concept_submissions (
			id, student_id, student_name, title, description, source_material,
			suggested_concept_id, suggested_concept_name, suggested_description,
			suggested_prerequisites, suggested_leads_to, confidence_score,
			priority, source_query, reasoning, status, integration,
			quality_feedback, submitted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.StudentID, sub.StudentName, sub.Title, sub.Description,
		sub.SourceMaterial, sub.Proposal.ConceptID, sub.Proposal.ConceptName,
		sub.Proposal.Description, string(prereqs), string(leadsTo),
		sub.Proposal.Confidence, string(sub.Proposal.Priority),
		sub.Proposal.SourceQuery, sub.Proposal.Reasoning,
		string(sub.Status), string(sub.Integration), sub.QualityFeedback,
		sub.SubmittedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting submission: %w", err)
	}
	return nil
}

const submissionColumns = `id, student_id, student_name, title, description,
	source_material, suggested_concept_id, suggested_concept_name,
	suggested_description, suggested_prerequisites, suggested_leads_to,
	confidence_score, priority, source_query, reasoning, status,
	integration, reviewer_id, reviewer_comments, quality_feedback,
	submitted_at, reviewed_at`

// Get returns the submission with the given ID, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (types.Submission, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+submissionColumns+` FROM concept_submissions WHERE id = ?`, id)
	sub, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Submission{}, ErrNotFound
	}
	return sub, err
}

// Pending returns submissions awaiting review, newest first. A limit of
// zero or less means no limit.
func (s *Store) Pending(ctx context.Context, limit int) ([]types.Submission, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+submissionColumns+` FROM concept_submissions
		WHERE status = ? ORDER BY submitted_at DESC LIMIT ?`,
		string(types.StatusPending), limit)
	if err != nil {
		return nil, fmt.Errorf("querying pending submissions: %w", err)
	}
	defer rows.Close()
	return collectSubmissions(rows)
}

// ByStudent returns all submissions by one student, newest first.
func (s *Store) ByStudent(ctx context.Context, studentID string) ([]types.Submission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+submissionColumns+` FROM concept_submissions
		WHERE student_id = ? ORDER BY submitted_at DESC`, studentID)
	if err != nil {
		return nil, fmt.Errorf("querying student submissions: %w", err)
	}
	defer rows.Close()
	return collectSubmissions(rows)
}

// Review applies an expert decision to a pending submission. Reviewing
// a submission that is not pending returns ErrNotFound so a decision
// cannot be overwritten.
func (s *Store) Review(ctx context.Context, id string, reviewerID string, decision types.ReviewDecision, comments string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE concept_submissions
		SET status = ?, reviewer_id = ?, reviewer_comments = ?, reviewed_at = ?
		WHERE id = ? AND status = ?`,
		string(decision), reviewerID, comments,
		time.Now().UTC().Format(time.RFC3339Nano),
		id, string(types.StatusPending),
	)
	if err != nil {
		return fmt.Errorf("updating review: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkIntegrated records a successful merge of an approved submission.
func (s *Store) MarkIntegrated(ctx context.Context, id string) error {
	return s.markIntegration(ctx, id, types.IntegrationCompleted)
}

// MarkIntegrationFailed records a merge that had to be rolled back.
func (s *Store) MarkIntegrationFailed(ctx context.Context, id string) error {
	return s.markIntegration(ctx, id, types.IntegrationFailedMark)
}

func (s *Store) markIntegration(ctx context.Context, id string, status types.IntegrationStatus) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE concept_submissions SET integration = ?
		WHERE id = ? AND status = ?`,
		string(status), id, string(types.StatusApproved))
	if err != nil {
		return fmt.Errorf("updating integration status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotApproved
	}
	return nil
}

// RecordAudit appends an entry to the knowledge-graph history log.
func (s *Store) RecordAudit(ctx context.Context, entry types.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kg_history (id, action_type, concept_id, payload, reviewer_id, submission_id, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.ActionType, entry.ConceptID, entry.Payload,
		entry.ReviewerID, entry.SubmissionID,
		entry.Timestamp.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}
	return nil
}

// History returns audit entries, newest first. A limit of zero or less
// means no limit.
func (s *Store) History(ctx context.Context, limit int) ([]types.AuditEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, action_type, concept_id, payload, reviewer_id, submission_id, timestamp
		FROM kg_history ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []types.AuditEntry
	for rows.Next() {
		var e types.AuditEntry
		var ts string
		if err := rows.Scan(&e.ID, &e.ActionType, &e.ConceptID, &e.Payload,
			&e.ReviewerID, &e.SubmissionID, &ts); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Statistics summarizes the review pipeline.
type Statistics struct {
	Total         int
	Pending       int
	Approved      int
	Rejected      int
	NeedsRevision int
	Integrated    int
}

// Statistics counts submissions by status.
func (s *Store) Statistics(ctx context.Context) (Statistics, error) {
	var st Statistics
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'approved' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'rejected' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'needs_revision' THEN 1 ELSE 0 END),
			SUM(CASE WHEN integration = 'integrated' THEN 1 ELSE 0 END)
		FROM concept_submissions`,
	).Scan(&st.Total,
		nullInt{&st.Pending}, nullInt{&st.Approved}, nullInt{&st.Rejected},
		nullInt{&st.NeedsRevision}, nullInt{&st.Integrated})
	if err != nil {
		return Statistics{}, fmt.Errorf("querying statistics: %w", err)
	}
	return st, nil
}

// nullInt scans a nullable SUM() into an int, treating NULL as zero.
type nullInt struct{ v *int }

func (n nullInt) Scan(src any) error {
	var ni sql.NullInt64
	if err := ni.Scan(src); err != nil {
		return err
	}
	*n.v = int(ni.Int64)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (types.Submission, error) {
	var sub types.Submission
	var studentID, studentName, sourceMaterial sql.NullString
	var conceptID, conceptName, conceptDesc sql.NullString
	var prereqs, leadsTo sql.NullString
	var confidence sql.NullFloat64
	var priority, sourceQuery, reasoning sql.NullString
	var status, integration string
	var reviewerID, reviewerComments, qualityFeedback sql.NullString
	var submittedAt string
	var reviewedAt sql.NullString

	err := row.Scan(&sub.ID, &studentID, &studentName, &sub.Title, &sub.Description,
		&sourceMaterial, &conceptID, &conceptName, &conceptDesc,
		&prereqs, &leadsTo, &confidence, &priority, &sourceQuery, &reasoning,
		&status, &integration, &reviewerID, &reviewerComments, &qualityFeedback,
		&submittedAt, &reviewedAt)
	if err != nil {
		return types.Submission{}, err
	}

	sub.StudentID = studentID.String
	sub.StudentName = studentName.String
	sub.SourceMaterial = sourceMaterial.String
	sub.Status = types.SubmissionStatus(status)
	sub.Integration = types.IntegrationStatus(integration)
	sub.ReviewerID = reviewerID.String
	sub.ReviewerComments = reviewerComments.String
	sub.QualityFeedback = qualityFeedback.String

	sub.Proposal = types.Proposal{
		ConceptID:   conceptID.String,
		ConceptName: conceptName.String,
		Description: conceptDesc.String,
		Confidence:  confidence.Float64,
		Priority:    types.Priority(priority.String),
		SourceQuery: sourceQuery.String,
		Reasoning:   reasoning.String,
	}
	if prereqs.Valid && prereqs.String != "" {
		if err := json.Unmarshal([]byte(prereqs.String), &sub.Proposal.Prerequisites); err != nil {
			return types.Submission{}, fmt.Errorf("decoding prerequisites: %w", err)
		}
	}
	if leadsTo.Valid && leadsTo.String != "" {
		if err := json.Unmarshal([]byte(leadsTo.String), &sub.Proposal.LeadsTo); err != nil {
			return types.Submission{}, fmt.Errorf("decoding leads_to: %w", err)
		}
	}

	sub.SubmittedAt, _ = time.Parse(time.RFC3339Nano, submittedAt)
	if reviewedAt.Valid && reviewedAt.String != "" {
		t, perr := time.Parse(time.RFC3339Nano, reviewedAt.String)
		if perr == nil {
			sub.ReviewedAt = &t
		}
	}
	return sub, nil
}

func collectSubmissions(rows *sql.Rows) ([]types.Submission, error) {
	var subs []types.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning submission: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
