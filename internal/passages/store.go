// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package passages stores teaching material as searchable passages.
// Markdown sources are split by headings and indexed with FTS5 so the
// engine can ground explanations in retrieved text.
package passages

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/tutor-engine/pkg/types"
)

// Passage is one indexed chunk of source material.
type Passage struct {
	ID      int64  `json:"id" yaml:"id"`
	Source  string `json:"source" yaml:"source"`
	Heading string `json:"heading,omitempty" yaml:"heading,omitempty"`
	Content string `json:"content" yaml:"content"`
}

// Store manages the passages SQLite database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the passages database at cfg.DBPath.
func NewStore(cfg types.PassagesConfig) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 3
	}

	s := &Store{db: db, maxResults: maxResults}
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
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS passages (
		rowid INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		heading TEXT,
		content TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	if _, err := s.db.Exec(
		`CREATE INDEX IF NOT EXISTS idx_passages_source ON passages(source)`,
	); err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}

	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='passages_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE passages_fts USING fts5(heading, content, content=passages, content_rowid=rowid)`,
			`CREATE TRIGGER passages_ai AFTER INSERT ON passages BEGIN
				INSERT INTO passages_fts(rowid, heading, content) VALUES (new.rowid, new.heading, new.content);
			END`,
			`CREATE TRIGGER passages_ad AFTER DELETE ON passages BEGIN
				INSERT INTO passages_fts(passages_fts, rowid, heading, content) VALUES('delete', old.rowid, old.heading, old.content);
			END`,
			`CREATE TRIGGER passages_au AFTER UPDATE ON passages BEGIN
				INSERT INTO passages_fts(passages_fts, rowid, heading, content) VALUES('delete', old.rowid, old.heading, old.content);
				INSERT INTO passages_fts(rowid, heading, content) VALUES (new.rowid, new.heading, new.content);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}
	return nil
}

// Ingest splits Markdown content into passages by heading and indexes
// them under the given source name. Re-ingesting a source replaces its
// previous passages. Returns the number of passages stored.
func (s *Store) Ingest(ctx context.Context, source string, content string, w io.Writer) (int, error) {
	if w == nil {
		w = io.Discard
	}

	sections := chunkByHeadings(content)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM passages WHERE source = ?`, source); err != nil {
		return 0, fmt.Errorf("clearing old passages: %w", err)
	}

	stored := 0
	for _, sec := range sections {
		if strings.TrimSpace(sec.body) == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO passages (source, heading, content) VALUES (?, ?, ?)`,
			source, sec.heading, strings.TrimSpace(sec.body),
		); err != nil {
			return 0, fmt.Errorf("inserting passage: %w", err)
		}
		stored++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing passages: %w", err)
	}

	fmt.Fprintf(w, "indexed %s (%d passages)\n", source, stored)
	return stored, nil
}

// IngestFile reads a Markdown file and ingests it under its base name.
func (s *Store) IngestFile(ctx context.Context, path string, w io.Writer) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	source := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return s.Ingest(ctx, source, string(data), w)
}

// Search returns the passages most relevant to the query, best first.
// A k of zero or less uses the store default.
func (s *Store) Search(ctx context.Context, query string, k int) ([]Passage, error) {
	if k <= 0 {
		k = s.maxResults
	}

	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT p.rowid, p.source, p.heading, p.content
		FROM passages_fts
		JOIN passages p ON p.rowid = passages_fts.rowid
		WHERE passages_fts MATCH ?
		ORDER BY passages_fts.rank
		LIMIT ?`, match, k)
	if err != nil {
		return nil, fmt.Errorf("querying passages: %w", err)
	}
	defer rows.Close()

	var results []Passage
	for rows.Next() {
		var p Passage
		var heading sql.NullString
		if err := rows.Scan(&p.ID, &p.Source, &heading, &p.Content); err != nil {
			return nil, fmt.Errorf("scanning passage: %w", err)
		}
		p.Heading = heading.String
		results = append(results, p)
	}
	return results, rows.Err()
}

// Count returns the number of indexed passages.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM passages`).Scan(&n)
	return n, err
}

// ftsQuery turns free-form student text into an FTS5 match expression.
// Raw queries contain punctuation FTS5 treats as syntax, so each word
// is quoted and the words are OR-ed.
func ftsQuery(query string) string {
	words := strings.FieldsFunc(query, func(r rune) bool {
		return !('a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || '0' <= r && r <= '9')
	})
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		quoted = append(quoted, `"`+w+`"`)
	}
	return strings.Join(quoted, " OR ")
}

// section is a chunk of Markdown under one heading.
type section struct {
	heading string
	body    string
}

// chunkByHeadings splits Markdown into sections at heading boundaries
// (#, ##, or ###). Text before the first heading forms its own section.
func chunkByHeadings(content string) []section {
	lines := strings.Split(content, "\n")
	var sections []section
	currentHeading := ""
	var bodyLines []string

	flush := func() {
		body := strings.Join(bodyLines, "\n")
		if currentHeading != "" || strings.TrimSpace(body) != "" {
			sections = append(sections, section{heading: currentHeading, body: body})
		}
		bodyLines = nil
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			flush()
			currentHeading = strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
			continue
		}
		bodyLines = append(bodyLines, line)
	}
	flush()

	return sections
}
