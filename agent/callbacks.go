// Streaming callback surface exposed to callers of ProcessRequest.
//
// Information Hiding:
// - Null-object defaulting hidden behind normalized()
// - Callers never need to nil-check individual callbacks

package agent

import (
	"github.com/sitewright/sitewright/model"
)

// Phase labels the loop stage currently visible to a human observer.
// Phases drive UI streaming only; they have no effect on control flow.
type Phase string

const (
	PhaseThinking  Phase = "thinking"
	PhaseReasoning Phase = "reasoning"
	PhaseBuilding  Phase = "building"
	PhaseCompleted Phase = "completed"
)

// FileOpState describes the progress of a file operation event.
type FileOpState string

const (
	FileOpCreating FileOpState = "creating"
	FileOpEditing  FileOpState = "editing"
	FileOpCreated  FileOpState = "created"
	FileOpEdited   FileOpState = "edited"
)

// Callbacks is the optional streaming surface for one request. All
// fields may be nil; all calls are fire-and-forget.
type Callbacks struct {
	// OnDelta receives final-answer text, either streamed directly or
	// replayed from a buffering phase.
	OnDelta func(text string)

	// OnReasoning receives chunked replays of buffered thinking text
	// ahead of tool execution.
	OnReasoning func(text string)

	// OnPhase is invoked on phase transitions.
	OnPhase func(phase Phase)

	// OnThinkingComplete reports the thinking duration in seconds.
	OnThinkingComplete func(seconds float64)

	// OnFileOperation reports file-tool progress per distinct path.
	OnFileOperation func(state FileOpState, path string)

	// OnToolStart / OnToolEnd bracket non-file tool invocations.
	OnToolStart func(name string)
	OnToolEnd   func(name string)

	// OnComplete reports cumulative token usage once per request.
	OnComplete func(usage model.TokenUsage)
}

// normalized returns a copy with every nil callback replaced by a
// no-op, so the loop can call without checking.
func (c *Callbacks) normalized() Callbacks {
	out := Callbacks{}
	if c != nil {
		out = *c
	}
	if out.OnDelta == nil {
		out.OnDelta = func(string) {}
	}
	if out.OnReasoning == nil {
		out.OnReasoning = func(string) {}
	}
	if out.OnPhase == nil {
		out.OnPhase = func(Phase) {}
	}
	if out.OnThinkingComplete == nil {
		out.OnThinkingComplete = func(float64) {}
	}
	if out.OnFileOperation == nil {
		out.OnFileOperation = func(FileOpState, string) {}
	}
	if out.OnToolStart == nil {
		out.OnToolStart = func(string) {}
	}
	if out.OnToolEnd == nil {
		out.OnToolEnd = func(string) {}
	}
	if out.OnComplete == nil {
		out.OnComplete = func(model.TokenUsage) {}
	}
	return out
}
