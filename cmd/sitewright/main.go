// Package main provides the sitewright CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sitewright/sitewright/cli"
)

var (
	// Global flags
	provider string
	maxTurns int
	verbose  bool
)

// defaultDBPath is the transcript database used when SESSION_DB_PATH
// is not set and no --db flag is given.
const defaultDBPath = "sitewright.db"

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "sitewright",
		Short: "An assistant that builds and edits web projects",
		Long: `SiteWright drives a model through a bounded tool-use loop to build
and modify web projects inside a workspace directory.

File changes for one request are batched: the assistant reads what it
needs, applies every write and edit in a single round, and verifies the
result.`,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&provider, "provider", "p", "", "LLM provider (openai, anthropic, deepseek, gemini)")
	rootCmd.PersistentFlags().IntVarP(&maxTurns, "max-turns", "m", 0, "Maximum model calls per request (0 = default)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show verbose output")

	// Add commands
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(sessionsCmd())
	rootCmd.AddCommand(toolsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	var workspace string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run [request]",
		Short: "Execute a single build request against the workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.Options{
				Provider:  provider,
				MaxTurns:  maxTurns,
				Workspace: workspace,
				DryRun:    dryRun,
				Verbose:   verbose,
			}
			return opts.Run(context.Background(), args[0])
		},
	}

	cmd.Flags().StringVarP(&workspace, "workspace", "w", "", "Project directory the file tools operate under")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Describe file changes without applying them")

	return cmd
}

func chatCmd() *cobra.Command {
	var workspace string
	var dryRun bool
	var sessionID string
	var dbPath string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive build session",
		Long: `Start an interactive session against the workspace.

With --session, the conversation transcript persists in the database
and the session resumes where it left off.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.Options{
				Provider:  provider,
				MaxTurns:  maxTurns,
				Workspace: workspace,
				DryRun:    dryRun,
				Verbose:   verbose,
			}
			return opts.Chat(context.Background(), sessionID, dbPath)
		},
	}

	cmd.Flags().StringVarP(&workspace, "workspace", "w", "", "Project directory the file tools operate under")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Describe file changes without applying them")
	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID for conversation persistence")
	cmd.Flags().StringVar(&dbPath, "db", "", "Transcript database path")

	return cmd
}

func sessionsCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List persisted chat sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.ListSessions(context.Background(), resolveDBPath(dbPath))
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete [session-id]",
		Short: "Delete a persisted session and its transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.DeleteSession(context.Background(), resolveDBPath(dbPath), args[0])
		},
	}

	cmd.AddCommand(deleteCmd)
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "Transcript database path")

	return cmd
}

func toolsCmd() *cobra.Command {
	var verboseTools bool

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List available tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.ListTools(verboseTools)
		},
	}

	cmd.Flags().BoolVarP(&verboseTools, "verbose", "V", false, "Show tool parameters")

	return cmd
}

// resolveDBPath applies the flag, environment, default precedence.
func resolveDBPath(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv("SESSION_DB_PATH"); env != "" {
		return env
	}
	return defaultDBPath
}
