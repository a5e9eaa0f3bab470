// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package passages

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/pdiddy/tutor-engine/pkg/types"
)

const lessonMarkdown = `Introductory notes on calculus.

# Limits

A limit describes the value a function approaches as the input
approaches a point. Limits are the foundation of calculus.

## Derivatives

The derivative measures the instantaneous rate of change of a
function. It is defined as a limit of difference quotients.

### Chain Rule

The chain rule differentiates compositions: (f(g(x)))' = f'(g(x))g'(x).
`

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.PassagesConfig{
		DBPath:     filepath.Join(t.TempDir(), "passages.db"),
		MaxResults: 3,
	})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestIngestAndSearch(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	n, err := s.Ingest(ctx, "calc-notes", lessonMarkdown, io.Discard)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if n != 4 {
		t.Errorf("Ingest stored %d passages, want 4", n)
	}

	got, err := s.Search(ctx, "chain rule compositions", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("Search returned nothing")
	}
	if got[0].Heading != "Chain Rule" {
		t.Errorf("top result heading = %q, want Chain Rule", got[0].Heading)
	}
	if got[0].Source != "calc-notes" {
		t.Errorf("Source = %q", got[0].Source)
	}
}

func TestSearchHandlesPunctuation(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	if _, err := s.Ingest(ctx, "calc-notes", lessonMarkdown, io.Discard); err != nil {
		t.Fatal(err)
	}

	// Raw student questions carry FTS5 syntax characters.
	got, err := s.Search(ctx, `how do I differentiate (f(g(x)))' ? "chain rule"`, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) == 0 {
		t.Error("Search returned nothing for punctuated query")
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	s := testStore(t)
	got, err := s.Search(context.Background(), "???", 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got != nil {
		t.Errorf("Search(???) = %v, want nil", got)
	}
}

func TestReingestReplaces(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if _, err := s.Ingest(ctx, "calc-notes", lessonMarkdown, io.Discard); err != nil {
		t.Fatal(err)
	}
	n, err := s.Ingest(ctx, "calc-notes", "# Limits\n\nShorter revision.\n", io.Discard)
	if err != nil {
		t.Fatalf("re-Ingest: %v", err)
	}
	if n != 1 {
		t.Errorf("re-Ingest stored %d, want 1", n)
	}

	count, err := s.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("Count = %d, want 1 after replacement", count)
	}

	got, err := s.Search(ctx, "chain rule", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("old passages still searchable: %v", got)
	}
}

func TestChunkByHeadings(t *testing.T) {
	sections := chunkByHeadings(lessonMarkdown)
	if len(sections) != 4 {
		t.Fatalf("got %d sections, want 4", len(sections))
	}
	if sections[0].heading != "" {
		t.Errorf("preamble heading = %q, want empty", sections[0].heading)
	}
	want := []string{"", "Limits", "Derivatives", "Chain Rule"}
	for i, sec := range sections {
		if sec.heading != want[i] {
			t.Errorf("section %d heading = %q, want %q", i, sec.heading, want[i])
		}
	}
}

func TestFTSQuery(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"chain rule", `"chain" OR "rule"`},
		{"(f(g(x)))'", `"f" OR "g" OR "x"`},
		{"???", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ftsQuery(tt.in); got != tt.want {
			t.Errorf("ftsQuery(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
