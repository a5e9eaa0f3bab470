// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/pdiddy/tutor-engine/pkg/types"
)

func TestRenderPathGolden(t *testing.T) {
	path := []types.PathStep{
		{ID: "func_basics", Name: "Function Basics", Description: "Understanding functions and mathematical notation", Role: types.RolePrerequisite},
		{ID: "limits", Name: "Limits", Description: "Foundation of calculus", Role: types.RolePrerequisite},
		{ID: "derivatives", Name: "Derivatives", Description: "Rates of change", Role: types.RoleTarget},
		{ID: "integration", Name: "Integration", Description: "Accumulation and areas under curves", Role: types.RoleTarget},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "learning_path", []byte(renderPath(path)))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 24, "short"},
		{"a very long submission title indeed", 24, "a very long submissio..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
