// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"net/http"

	"github.com/spf13/viper"

	"github.com/pdiddy/tutor-engine/internal/llm"
	"github.com/pdiddy/tutor-engine/pkg/types"
)

func init() {
	viper.SetDefault("graph.nodes_file", "data/nodes.csv")
	viper.SetDefault("graph.edges_file", "data/edges.csv")
	viper.SetDefault("graph.backup_dir", "")
	viper.SetDefault("submissions.db_path", "data/submissions.db")
	viper.SetDefault("passages.db_path", "data/passages.db")
	viper.SetDefault("passages.max_results", 3)
	viper.SetDefault("engine.model", "claude-sonnet-4-5-20250929")
	viper.SetDefault("engine.max_retries", 3)
	viper.SetDefault("engine.context_passages", 3)
}

// loadConfig assembles the full configuration from the config file,
// environment, and loaded secrets.
func loadConfig() types.Config {
	return types.Config{
		Graph: types.GraphConfig{
			NodesFile: viper.GetString("graph.nodes_file"),
			EdgesFile: viper.GetString("graph.edges_file"),
			BackupDir: viper.GetString("graph.backup_dir"),
		},
		Submissions: types.SubmissionsConfig{
			DBPath: viper.GetString("submissions.db_path"),
		},
		Passages: types.PassagesConfig{
			DBPath:     viper.GetString("passages.db_path"),
			MaxResults: viper.GetInt("passages.max_results"),
		},
		Engine: types.EngineConfig{
			AIConfig: types.AIConfig{
				Model:      viper.GetString("engine.model"),
				APIKey:     secretDefault("anthropic-api-key", viper.GetString("engine.api_key")),
				MaxRetries: viper.GetInt("engine.max_retries"),
			},
			ContextPassages: viper.GetInt("engine.context_passages"),
		},
	}
}

// claudeClient builds the Messages API client from config.
func claudeClient(cfg types.EngineConfig) *llm.Claude {
	return &llm.Claude{
		APIKey: cfg.APIKey,
		Model:  cfg.Model,
		Client: http.DefaultClient,
	}
}
