// Terminal rendering of streaming callbacks.
//
// Information Hiding:
// - Mapping from phase/file-op events to terminal output hidden
// - Streamed-text bookkeeping for duplicate suppression hidden

package cli

import (
	"fmt"
	"strings"

	"github.com/sitewright/sitewright/agent"
	"github.com/sitewright/sitewright/model"
)

// printer renders agent callbacks to stdout and remembers what was
// streamed so the final result is not printed twice.
type printer struct {
	verbose  bool
	streamed strings.Builder
}

func newPrinter(verbose bool) *printer {
	return &printer{verbose: verbose}
}

// callbacks returns the callback set wired to this printer.
func (p *printer) callbacks() *agent.Callbacks {
	return &agent.Callbacks{
		OnPhase:            p.onPhase,
		OnThinkingComplete: p.onThinkingComplete,
		OnReasoning:        p.onReasoning,
		OnDelta:            p.onDelta,
		OnFileOperation:    p.onFileOperation,
		OnToolStart:        p.onToolStart,
		OnToolEnd:          p.onToolEnd,
		OnComplete:         p.onComplete,
	}
}

func (p *printer) onPhase(phase agent.Phase) {
	switch phase {
	case agent.PhaseThinking:
		fmt.Println("Thinking...")
	case agent.PhaseReasoning, agent.PhaseBuilding:
		fmt.Println()
	case agent.PhaseCompleted:
		fmt.Println()
	}
}

func (p *printer) onThinkingComplete(seconds float64) {
	fmt.Printf("Thought for %.1fs\n", seconds)
}

func (p *printer) onReasoning(text string) {
	fmt.Print(text)
}

func (p *printer) onDelta(text string) {
	p.streamed.WriteString(text)
	fmt.Print(text)
}

func (p *printer) onFileOperation(state agent.FileOpState, path string) {
	switch state {
	case agent.FileOpCreating:
		fmt.Printf("\nCreating %s...\n", path)
	case agent.FileOpEditing:
		fmt.Printf("\nEditing %s...\n", path)
	case agent.FileOpCreated:
		fmt.Printf("Created %s\n", path)
	case agent.FileOpEdited:
		fmt.Printf("Edited %s\n", path)
	}
}

func (p *printer) onToolStart(name string) {
	if p.verbose {
		fmt.Printf("\n[tool] %s...\n", name)
	}
}

func (p *printer) onToolEnd(name string) {
	if p.verbose {
		fmt.Printf("[tool] %s done\n", name)
	}
}

func (p *printer) onComplete(usage model.TokenUsage) {
	if p.verbose {
		fmt.Printf("\n(%d input + %d output = %d tokens)\n",
			usage.InputTokens, usage.OutputTokens, usage.Total())
	}
}

// printRemainder prints whatever part of the final result was not
// already streamed: the mutation confirmation, a verification summary,
// or a token-budget breakdown.
func (p *printer) printRemainder(result string) {
	extra := strings.TrimSpace(strings.TrimPrefix(result, p.streamed.String()))
	if extra != "" {
		fmt.Printf("%s\n", extra)
	}
}
