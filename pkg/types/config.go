// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings for components that make network
// requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "tutor-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// AIConfig holds shared settings for components that call the Generative
// AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// GraphConfig holds the locations of the durable concept tables.
type GraphConfig struct {
	// NodesFile is the path to nodes.csv
	// (columns: node_id, concept_name, description).
	NodesFile string `json:"nodes_file" yaml:"nodes_file"`

	// EdgesFile is the path to edges.csv
	// (columns: source_id, target_id, relationship_type).
	EdgesFile string `json:"edges_file" yaml:"edges_file"`

	// BackupDir is where the merger snapshots the tables before mutating
	// them. Defaults to a backups/ directory next to NodesFile.
	BackupDir string `json:"backup_dir,omitempty" yaml:"backup_dir,omitempty"`
}

// SubmissionsConfig holds settings for the submission store.
type SubmissionsConfig struct {
	// DBPath is the SQLite database file for submissions and the
	// knowledge-graph history log.
	DBPath string `json:"db_path" yaml:"db_path"`
}

// PassagesConfig holds settings for the textbook passage index.
type PassagesConfig struct {
	// DBPath is the SQLite database file for the FTS passage index.
	DBPath string `json:"db_path" yaml:"db_path"`

	// MaxResults is the default maximum number of search results (default 3).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// EngineConfig holds settings for the query-answering workflow.
type EngineConfig struct {
	AIConfig `yaml:",inline"`

	// ContextPassages is the number of textbook passages retrieved per
	// query (default 3).
	ContextPassages int `json:"context_passages" yaml:"context_passages"`
}

// Config groups all component configurations.
type Config struct {
	Graph       GraphConfig       `json:"graph" yaml:"graph"`
	Submissions SubmissionsConfig `json:"submissions" yaml:"submissions"`
	Passages    PassagesConfig    `json:"passages" yaml:"passages"`
	Engine      EngineConfig      `json:"engine" yaml:"engine"`
	HTTP        HTTPConfig        `json:"http" yaml:"http"`
}
