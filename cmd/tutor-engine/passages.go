// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/tutor-engine/internal/passages"
)

var passagesCmd = &cobra.Command{
	Use:   "passages",
	Short: "Manage the course material index",
	Long: `Passages manages the full-text index of course material that grounds
generated explanations. Markdown files are split into passages by
heading and indexed with FTS5.`,
}

var passagesIngestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Index Markdown files as searchable passages",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := passages.NewStore(loadConfig().Passages)
		if err != nil {
			return err
		}
		defer store.Close()

		total := 0
		for _, path := range args {
			n, err := store.IngestFile(context.Background(), path, os.Stdout)
			if err != nil {
				return err
			}
			total += n
		}
		fmt.Printf("\n%d passage(s) indexed\n", total)
		return nil
	},
}

var passagesSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed passages",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := passages.NewStore(loadConfig().Passages)
		if err != nil {
			return err
		}
		defer store.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		results, err := store.Search(context.Background(), strings.Join(args, " "), limit)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Println("No results found.")
			return nil
		}
		for _, p := range results {
			heading := p.Heading
			if heading == "" {
				heading = "(preamble)"
			}
			fmt.Printf("--- %s / %s\n%s\n\n", p.Source, heading, p.Content)
		}
		return nil
	},
}

func init() {
	passagesSearchCmd.Flags().Int("limit", 0, "maximum results (0 uses the configured default)")

	passagesCmd.AddCommand(passagesIngestCmd, passagesSearchCmd)
	rootCmd.AddCommand(passagesCmd)
}
