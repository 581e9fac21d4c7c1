// Command execution for CLI commands.
//
// Information Hiding:
// - Orchestrator assembly from settings hidden
// - Session persistence wiring hidden
// - Output formatting hidden

package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/sitewright/sitewright/agent"
	"github.com/sitewright/sitewright/config"
	"github.com/sitewright/sitewright/conversation"
	"github.com/sitewright/sitewright/llm"
	"github.com/sitewright/sitewright/storage"
	"github.com/sitewright/sitewright/tools"
	"github.com/sitewright/sitewright/verify"
)

// Options holds CLI execution options.
type Options struct {
	Provider  string
	MaxTurns  int
	Workspace string
	DryRun    bool
	Verbose   bool
}

// assembly bundles the constructed orchestrator with its collaborators
// so commands can reach the registry and settings.
type assembly struct {
	orchestrator *agent.Orchestrator
	settings     config.Settings
	log          *zap.Logger
}

// newAssembly builds a fully wired orchestrator from options and
// environment settings.
func newAssembly(opts Options) (*assembly, error) {
	if opts.Provider == "" {
		return nil, fmt.Errorf("--provider is required for this command")
	}

	settings, err := config.New(opts.Provider)
	if err != nil {
		return nil, err
	}
	if opts.Workspace != "" {
		settings.Workspace.Root = opts.Workspace
	}
	if opts.MaxTurns > 0 {
		settings.Agent.MaxTurns = opts.MaxTurns
	}

	client, err := createClient(opts.Provider, settings)
	if err != nil {
		return nil, err
	}

	log, err := newLogger(opts.Verbose)
	if err != nil {
		return nil, err
	}

	registry, err := tools.WithDefaults(settings.Workspace.Root)
	if err != nil {
		return nil, err
	}

	loopConfig := agent.ConfigFromSettings(settings, systemPrompt)
	loopConfig.DryRun = opts.DryRun

	orchestrator := agent.New(loopConfig, client, tools.NewPool(registry, log)).
		WithToolDefinitions(registry.Definitions()).
		WithVerifier(verify.NewWorkspaceRunner(settings.Workspace.Root, log)).
		WithPacing(agent.PacingFromSettings(settings)).
		WithLogger(log)

	return &assembly{
		orchestrator: orchestrator,
		settings:     settings,
		log:          log,
	}, nil
}

// Run executes a single request and exits.
func (opts Options) Run(ctx context.Context, request string) error {
	a, err := newAssembly(opts)
	if err != nil {
		return err
	}
	defer func() { _ = a.log.Sync() }()

	p := newPrinter(opts.Verbose)
	result, err := a.orchestrator.ProcessRequestWithPrefix(
		ctx, request, requestPrefix(a.settings.Workspace.Root), p.callbacks())
	if err != nil {
		return err
	}
	p.printRemainder(result)
	return nil
}

// Chat starts an interactive session, optionally persisted under a
// session ID in the transcript database.
func (opts Options) Chat(ctx context.Context, sessionID, dbPath string) error {
	a, err := newAssembly(opts)
	if err != nil {
		return err
	}
	defer func() { _ = a.log.Sync() }()

	if dbPath == "" {
		dbPath = a.settings.Workspace.DatabasePath
	}

	var store storage.TranscriptStorage
	if sessionID != "" {
		s, err := storage.OpenSqlite(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer s.Close()
		store = s

		turns, err := s.Load(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}
		if len(turns) > 0 {
			fmt.Printf("Resuming session '%s' (%d turns)\n\n", sessionID, len(turns))
			a.orchestrator.WithConversation(conversation.NewStoreFromTurns(turns))
		}
	}

	fmt.Println("SiteWright chat. Type 'exit' to quit.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		p := newPrinter(opts.Verbose)
		result, err := a.orchestrator.ProcessRequestWithPrefix(
			ctx, input, requestPrefix(a.settings.Workspace.Root), p.callbacks())
		if err != nil {
			fmt.Fprintf(os.Stderr, "\nError: %v\n\n", err)
			continue
		}
		p.printRemainder(result)
		fmt.Println()

		if store != nil {
			if err := store.Save(ctx, sessionID, a.orchestrator.Conversation().Turns()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save session: %v\n", err)
			}
		}
	}

	return scanner.Err()
}

// ListSessions prints all persisted session IDs, most recent first.
func ListSessions(ctx context.Context, dbPath string) error {
	store, err := storage.OpenSqlite(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	sessions, err := store.ListSessions(ctx)
	if err != nil {
		return err
	}

	if len(sessions) == 0 {
		fmt.Println("No sessions.")
		return nil
	}
	for _, id := range sessions {
		fmt.Println(id)
	}
	return nil
}

// DeleteSession removes one persisted session and its transcript.
func DeleteSession(ctx context.Context, dbPath, sessionID string) error {
	store, err := storage.OpenSqlite(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	exists, err := store.Exists(ctx, sessionID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("no session named %q", sessionID)
	}

	if err := store.Delete(ctx, sessionID); err != nil {
		return err
	}
	fmt.Printf("Deleted session '%s'\n", sessionID)
	return nil
}

// ListTools prints the workspace tool set.
func ListTools(verbose bool) error {
	registry, err := tools.WithDefaults(".")
	if err != nil {
		return err
	}

	fmt.Println("Available tools:")
	fmt.Println()

	for _, meta := range registry.List() {
		fmt.Printf("  %s\n", meta.Name)
		fmt.Printf("    %s\n", meta.Description)

		if verbose && len(meta.Parameters) > 0 {
			fmt.Println("    Parameters:")
			for _, param := range meta.Parameters {
				req := ""
				if param.Required {
					req = "*"
				}
				fmt.Printf("      %s%s: %s - %s\n", param.Name, req, param.ParamType, param.Description)
			}
		}
		fmt.Println()
	}
	return nil
}

// createClient builds the model client for a provider from settings.
func createClient(providerName string, settings config.Settings) (llm.Client, error) {
	providerType, err := llm.ParseProviderType(providerName)
	if err != nil {
		return nil, err
	}

	apiKey, err := config.APIKeyFor(providerName)
	if err != nil {
		return nil, err
	}

	return providerType.
		Model(settings.LLM.Model).
		MaxTokens(settings.LLM.MaxTokens).
		Temperature(settings.LLM.Temperature).
		APIKey(apiKey)
}

// newLogger builds the structured logger: human-readable in verbose
// mode, silent otherwise so log lines never interleave with streamed
// model output.
func newLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
