// Request-scoped loop state.
//
// One runState is created per ProcessRequest invocation and discarded
// at the end; it is never shared across requests, which is what makes
// an Orchestrator safe to reuse sequentially but not concurrently.

package agent

import (
	"strings"
	"time"

	"github.com/sitewright/sitewright/model"
)

type runState struct {
	// turn counts model calls made so far this request.
	turn int

	// usage accumulates token counts across all model calls.
	usage model.TokenUsage

	// changedFiles holds every path touched by a successful mutating
	// outcome, in first-touched order.
	changedFiles []string
	changedSet   map[string]struct{}

	// fileOps records the create/edit classification per path,
	// first-write-wins for the lifetime of the request.
	fileOps map[string]model.FileOperation

	// executedTools is set once any batch has run this request.
	executedTools bool

	// thinking buffer state for the first buffered phase.
	thinkingBuf     strings.Builder
	thinkingStart   time.Time
	thinkingEmitted bool

	// summaryMode buffers text on the iteration after tool execution.
	summaryMode bool
	summaryBuf  strings.Builder
}

func newRunState() *runState {
	return &runState{
		changedSet: make(map[string]struct{}),
		fileOps:    make(map[string]model.FileOperation),
	}
}

// addUsage folds one model call's token counts into the total.
func (s *runState) addUsage(usage model.TokenUsage) {
	s.usage.InputTokens += usage.InputTokens
	s.usage.OutputTokens += usage.OutputTokens
}

// recordChanged registers a path touched by a successful mutation.
func (s *runState) recordChanged(path string) {
	if path == "" {
		return
	}
	if _, seen := s.changedSet[path]; seen {
		return
	}
	s.changedSet[path] = struct{}{}
	s.changedFiles = append(s.changedFiles, path)
}

// classifyFileOp returns the create/edit classification for a path,
// assigning it on first sight. A write to an unseen path is a create;
// everything else is an edit.
func (s *runState) classifyFileOp(toolName, path string) model.FileOperation {
	if op, ok := s.fileOps[path]; ok {
		return op
	}
	op := model.OpEdit
	if toolName == model.ToolWriteFile {
		op = model.OpCreate
	}
	s.fileOps[path] = op
	return op
}
