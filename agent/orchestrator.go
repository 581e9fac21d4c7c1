// Turn-loop orchestration.
//
// This is the canonical control loop of the assistant: it drives the
// model, the read-before-write transform, the tool executor pool and
// the reference checker through a bounded number of turns per user
// request, and decides when to stop.
//
// Information Hiding:
// - Loop internals and phase bookkeeping hidden
// - Model communication hidden behind llm.Client
// - Tool execution coordination hidden behind ToolExecutor
// - Buffering and replay of streamed text hidden

package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sitewright/sitewright/conversation"
	"github.com/sitewright/sitewright/llm"
	"github.com/sitewright/sitewright/model"
	"github.com/sitewright/sitewright/verify"
)

// mutationConfirmation is the fixed response returned after a batch
// containing a write or edit. Edits are batched per request; the model
// is not allowed to chain further edit turns after a mutation.
const mutationConfirmation = "I've applied the requested changes to your project files."

// emptyResponsePlaceholder substitutes an empty mid-loop assistant
// response; the model API rejects empty non-trailing turns.
const emptyResponsePlaceholder = "..."

// ToolExecutor executes one batch of tool invocations, returning one
// outcome per invocation in input order.
type ToolExecutor interface {
	ExecuteBatch(ctx context.Context, invocations []model.ToolInvocation) ([]model.ToolOutcome, error)
}

// Orchestrator owns one conversation and processes requests against it
// sequentially. It is not safe for concurrent ProcessRequest calls;
// callers needing parallel requests use separate instances.
type Orchestrator struct {
	config   Config
	client   llm.Client
	executor ToolExecutor
	verifier verify.Runner
	store    *conversation.Store
	toolDefs []llm.ToolDefinition
	pacing   Pacing
	log      *zap.Logger
}

// New creates an orchestrator over a fresh conversation.
func New(config Config, client llm.Client, executor ToolExecutor) *Orchestrator {
	return &Orchestrator{
		config:   config.withDefaults(),
		client:   client,
		executor: executor,
		store:    conversation.NewStore(),
		pacing:   NewFixedPacing(DefaultStreamDelay, DefaultSettleDelay),
		log:      zap.NewNop(),
	}
}

// WithConversation resumes an existing conversation.
func (o *Orchestrator) WithConversation(store *conversation.Store) *Orchestrator {
	o.store = store
	return o
}

// WithVerifier enables post-edit verification on completion.
func (o *Orchestrator) WithVerifier(runner verify.Runner) *Orchestrator {
	o.verifier = runner
	return o
}

// WithToolDefinitions sets the tool schema declared to the model.
func (o *Orchestrator) WithToolDefinitions(defs []llm.ToolDefinition) *Orchestrator {
	o.toolDefs = defs
	return o
}

// WithPacing overrides the replay pacing policy.
func (o *Orchestrator) WithPacing(pacing Pacing) *Orchestrator {
	o.pacing = pacing
	return o
}

// WithLogger sets the structured logger.
func (o *Orchestrator) WithLogger(log *zap.Logger) *Orchestrator {
	if log != nil {
		o.log = log
	}
	return o
}

// Conversation exposes the underlying store for persistence.
func (o *Orchestrator) Conversation() *conversation.Store {
	return o.store
}

// ProcessRequest appends the user message and drives the loop to a
// final response. Expected irregularities (token budget, per-tool
// failures, dangling references) surface in the returned text; only
// structural violations and collaborator faults return an error.
func (o *Orchestrator) ProcessRequest(ctx context.Context, userMessage string, callbacks *Callbacks) (string, error) {
	return o.ProcessRequestWithPrefix(ctx, userMessage, "", callbacks)
}

// ProcessRequestWithPrefix is ProcessRequest with a per-request dynamic
// prefix ahead of the static system prompt.
func (o *Orchestrator) ProcessRequestWithPrefix(ctx context.Context, userMessage, systemPrefix string, callbacks *Callbacks) (string, error) {
	cb := callbacks.normalized()
	state := newRunState()

	systemPrompt := o.config.SystemPrompt
	if systemPrefix != "" {
		systemPrompt = systemPrefix + "\n\n" + systemPrompt
	}

	o.store.Append(model.UserTurn(model.TextBlock(userMessage)))

	finalResponse, err := o.runLoop(ctx, systemPrompt, state, &cb)
	if err != nil {
		return "", err
	}

	cb.OnPhase(PhaseCompleted)
	cb.OnComplete(state.usage)
	return finalResponse, nil
}

// runLoop is the bounded turn loop. Exhausting the turn cap is a soft
// stop: the last computed response is returned as-is.
func (o *Orchestrator) runLoop(ctx context.Context, systemPrompt string, state *runState, cb *Callbacks) (string, error) {
	finalResponse := ""

	for turn := 0; turn < o.config.MaxTurns; turn++ {
		state.turn = turn
		state.summaryBuf.Reset()

		if err := o.store.Validate(o.log); err != nil {
			return "", fmt.Errorf("conversation invariant violated: %w", err)
		}

		response, err := o.client.SendMessage(ctx, llm.Request{
			System:    systemPrompt,
			Turns:     o.store.Turns(),
			Tools:     o.toolDefs,
			WebSearch: o.config.WebSearch,
			OnDelta:   o.deltaSink(state, cb),
		})
		if err != nil {
			return "", fmt.Errorf("model call failed: %w", err)
		}

		state.addUsage(response.Usage)
		if state.usage.Total() > o.config.MaxRequestTokens {
			breakdown := fmt.Sprintf(
				"Request halted: token budget exceeded. Input tokens: %d, output tokens: %d, total: %d (limit: %d).",
				state.usage.InputTokens, state.usage.OutputTokens, state.usage.Total(), o.config.MaxRequestTokens)
			o.store.Append(model.AssistantTurn(model.TextBlock(breakdown)))
			o.log.Warn("token budget exceeded",
				zap.Int("input_tokens", state.usage.InputTokens),
				zap.Int("output_tokens", state.usage.OutputTokens),
				zap.Int("limit", o.config.MaxRequestTokens))
			finalResponse = breakdown
			break
		}

		stored, invocations := EnforceReadBeforeWrite(response.Content, o.config.ForceReadBeforeEdit)

		o.resolveThinking(ctx, state, cb, len(invocations) > 0)

		if len(stored) == 0 {
			o.log.Warn("empty assistant response, substituting placeholder", zap.Int("turn", turn))
			stored = []model.ContentBlock{model.TextBlock(emptyResponsePlaceholder)}
		}
		o.store.Append(model.Turn{Role: model.RoleAssistant, Content: stored})

		// No tool calls: the request is complete.
		if len(invocations) == 0 {
			finalResponse = response.Text()
			if state.summaryMode {
				o.replaySummary(ctx, state, cb)
			}
			if state.executedTools && o.verifier != nil {
				summary, err := o.runVerification(ctx, state)
				if err != nil {
					return "", err
				}
				if summary != "" {
					finalResponse = strings.TrimSpace(finalResponse + "\n\n" + summary)
				}
			}
			break
		}

		outcomes, err := o.executeBatch(ctx, state, cb, invocations)
		if err != nil {
			return "", err
		}

		createdThisBatch := o.recordOutcomes(state, outcomes)

		if refs := CheckReferences(invocations, createdThisBatch, outcomes); len(refs) > 0 && len(outcomes) > 0 {
			outcomes[len(outcomes)-1].Content += formatDanglingWarning(refs)
			o.log.Info("dangling references detected",
				zap.Int("count", len(refs)),
				zap.Int("turn", turn))
		}

		blocks := make([]model.ContentBlock, 0, len(outcomes))
		for _, outcome := range outcomes {
			blocks = append(blocks, model.ToolResultBlock(outcome))
		}
		o.store.Append(model.Turn{Role: model.RoleUser, Content: blocks})

		// A batch containing a mutation ends the request: edits stay
		// batched within one turn rather than chained across turns.
		if anyMutating(invocations) {
			finalResponse = mutationConfirmation
			break
		}

		state.summaryMode = true
	}

	return finalResponse, nil
}

// deltaSink routes streamed text into the active buffering phase, or
// straight through when neither phase is active.
func (o *Orchestrator) deltaSink(state *runState, cb *Callbacks) func(string) {
	return func(text string) {
		switch {
		case state.summaryMode:
			state.summaryBuf.WriteString(text)
		case !state.thinkingEmitted:
			if state.thinkingBuf.Len() == 0 {
				state.thinkingStart = time.Now()
				cb.OnPhase(PhaseThinking)
			}
			state.thinkingBuf.WriteString(text)
		default:
			cb.OnDelta(text)
		}
	}
}

// resolveThinking settles the thinking buffer once the model response
// is complete. With tool calls pending the buffer replays as reasoning;
// without, it is the final answer and is emitted directly.
func (o *Orchestrator) resolveThinking(ctx context.Context, state *runState, cb *Callbacks, hasTools bool) {
	if state.summaryMode || state.thinkingEmitted {
		return
	}
	text := state.thinkingBuf.String()
	if text == "" {
		return
	}
	state.thinkingEmitted = true

	if !hasTools {
		cb.OnDelta(text)
		return
	}

	cb.OnThinkingComplete(time.Since(state.thinkingStart).Seconds())
	o.sleep(ctx, o.pacing.SettleDelay())
	cb.OnPhase(PhaseReasoning)
	replayChunks(text, o.config.StreamChunkSize, cb.OnReasoning, o.pacing,
		func() bool { return ctx.Err() != nil })
}

// replaySummary emits the building phase and replays the buffered
// summary as the final answer stream.
func (o *Orchestrator) replaySummary(ctx context.Context, state *runState, cb *Callbacks) {
	cb.OnPhase(PhaseBuilding)
	o.sleep(ctx, o.pacing.SettleDelay())
	replayChunks(state.summaryBuf.String(), o.config.StreamChunkSize, cb.OnDelta, o.pacing,
		func() bool { return ctx.Err() != nil })
}

// executeBatch emits progress events around one tool batch. Start
// events for every invocation precede execution; end events follow the
// whole batch, so the executor's same-path serialization never races
// the progress UI.
func (o *Orchestrator) executeBatch(ctx context.Context, state *runState, cb *Callbacks, invocations []model.ToolInvocation) ([]model.ToolOutcome, error) {
	o.emitProgress(state, cb, invocations, false)

	var outcomes []model.ToolOutcome
	var err error
	if o.config.DryRun {
		outcomes = o.synthesizeDryRun(state, invocations)
	} else {
		outcomes, err = o.executor.ExecuteBatch(ctx, invocations)
		if err != nil {
			return nil, fmt.Errorf("tool batch failed: %w", err)
		}
	}
	state.executedTools = true

	o.emitProgress(state, cb, invocations, true)
	return outcomes, nil
}

// emitProgress fires file-operation events for mutating invocations
// (one per distinct path) and generic start/end events for the rest.
func (o *Orchestrator) emitProgress(state *runState, cb *Callbacks, invocations []model.ToolInvocation, done bool) {
	seenPaths := make(map[string]struct{})
	for _, inv := range invocations {
		path := model.TargetPath(inv)
		if path == "" || !model.IsMutatingTool(inv.Name) {
			if done {
				cb.OnToolEnd(inv.Name)
			} else {
				cb.OnToolStart(inv.Name)
			}
			continue
		}

		if _, dup := seenPaths[path]; dup {
			continue
		}
		seenPaths[path] = struct{}{}

		op := state.classifyFileOp(inv.Name, path)
		switch {
		case done && op == model.OpCreate:
			cb.OnFileOperation(FileOpCreated, path)
		case done:
			cb.OnFileOperation(FileOpEdited, path)
		case op == model.OpCreate:
			cb.OnFileOperation(FileOpCreating, path)
		default:
			cb.OnFileOperation(FileOpEditing, path)
		}
	}
}

// synthesizeDryRun builds descriptive no-op outcomes instead of
// executing the batch.
func (o *Orchestrator) synthesizeDryRun(state *runState, invocations []model.ToolInvocation) []model.ToolOutcome {
	outcomes := make([]model.ToolOutcome, 0, len(invocations))
	for _, inv := range invocations {
		path := model.TargetPath(inv)
		content := fmt.Sprintf("[dry-run] %s was not executed", inv.Name)
		if path != "" {
			content = fmt.Sprintf("[dry-run] %s on %s was not executed", inv.Name, path)
		}
		outcome := model.SuccessOutcome(inv.ID, content)
		if path != "" && model.IsMutatingTool(inv.Name) {
			outcome = outcome.WithMeta(model.OutcomeMeta{
				Path:      path,
				Operation: state.classifyFileOp(inv.Name, path),
			})
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// recordOutcomes folds successful mutations into the changed-file set
// and returns the paths created by this batch.
func (o *Orchestrator) recordOutcomes(state *runState, outcomes []model.ToolOutcome) map[string]struct{} {
	created := make(map[string]struct{})
	for _, outcome := range outcomes {
		if outcome.IsError || outcome.Metadata == nil {
			continue
		}
		meta := outcome.Metadata
		if meta.Operation != model.OpCreate && meta.Operation != model.OpEdit {
			continue
		}
		state.recordChanged(meta.Path)
		created[meta.Path] = struct{}{}
	}
	return created
}

// runVerification runs the verifier over the changed-file set and
// formats the summary. Verifier faults propagate.
func (o *Orchestrator) runVerification(ctx context.Context, state *runState) (string, error) {
	result, err := o.verifier.Run(ctx, state.changedFiles)
	if err != nil {
		return "", fmt.Errorf("verification failed: %w", err)
	}
	return verify.FormatSummary(result), nil
}

// sleep pauses for d unless the context ends first.
func (o *Orchestrator) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// anyMutating reports whether the batch contains a write or edit.
func anyMutating(invocations []model.ToolInvocation) bool {
	for _, inv := range invocations {
		if model.IsMutatingTool(inv.Name) {
			return true
		}
	}
	return false
}
