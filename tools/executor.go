// Batched tool execution with same-target serialization.
//
// Information Hiding:
// - Concurrency and scheduling strategy hidden behind ExecuteBatch
// - Per-path serialization internalized
// - Outcome ordering guarantees maintained regardless of completion order

package tools

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sitewright/sitewright/model"
)

// defaultBatchConcurrency bounds simultaneous execution chains per batch.
const defaultBatchConcurrency = 4

// Pool executes batches of tool invocations against a registry.
//
// Invocations in one batch run concurrently, except that invocations
// targeting the same workspace path are serialized in submission order.
// The returned outcomes always match the input order, one per
// invocation, each independently success/error tagged.
type Pool struct {
	registry    *Registry
	log         *zap.Logger
	concurrency int
}

// NewPool creates an executor pool over the given registry.
func NewPool(registry *Registry, log *zap.Logger) *Pool {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pool{
		registry:    registry,
		log:         log,
		concurrency: defaultBatchConcurrency,
	}
}

// WithConcurrency overrides the per-batch concurrency limit.
func (p *Pool) WithConcurrency(n int) *Pool {
	if n > 0 {
		p.concurrency = n
	}
	return p
}

// ExecuteBatch runs all invocations and returns one outcome per
// invocation, in input order. Per-invocation tool failures are reported
// as error-tagged outcomes, not errors; the error return is reserved
// for infrastructure faults and context cancellation.
func (p *Pool) ExecuteBatch(ctx context.Context, invocations []model.ToolInvocation) ([]model.ToolOutcome, error) {
	outcomes := make([]model.ToolOutcome, len(invocations))

	// Invocations sharing a target path form one chain, executed
	// sequentially in submission order. Pathless invocations each get a
	// chain of their own. Chains run concurrently with each other.
	chainIndex := make(map[string]int)
	var chains [][]int
	for i, inv := range invocations {
		path := model.TargetPath(inv)
		if path == "" {
			chains = append(chains, []int{i})
			continue
		}
		if idx, ok := chainIndex[path]; ok {
			chains[idx] = append(chains[idx], i)
			continue
		}
		chainIndex[path] = len(chains)
		chains = append(chains, []int{i})
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for _, chain := range chains {
		g.Go(func() error {
			for _, i := range chain {
				if err := ctx.Err(); err != nil {
					return err
				}
				outcomes[i] = p.executeOne(ctx, invocations[i])
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("tool batch aborted: %w", err)
	}
	return outcomes, nil
}

// executeOne runs a single invocation, mapping every failure mode onto
// an error-tagged outcome.
func (p *Pool) executeOne(ctx context.Context, inv model.ToolInvocation) model.ToolOutcome {
	tool, ok := p.registry.Get(inv.Name)
	if !ok {
		p.log.Warn("unknown tool requested",
			zap.String("tool", inv.Name),
			zap.String("tool_use_id", inv.ID))
		return model.ErrorOutcome(inv.ID, fmt.Sprintf("unknown tool: %s", inv.Name))
	}

	if err := tool.Validate(inv.Input); err != nil {
		return model.ErrorOutcome(inv.ID, fmt.Sprintf("validation failed: %v", err))
	}

	result, err := tool.Execute(ctx, inv.Input)
	if err != nil {
		p.log.Error("tool execution fault",
			zap.String("tool", inv.Name),
			zap.String("tool_use_id", inv.ID),
			zap.Error(err))
		return model.ErrorOutcome(inv.ID, fmt.Sprintf("tool %s failed: %v", inv.Name, err))
	}

	p.log.Debug("tool executed",
		zap.String("tool", inv.Name),
		zap.String("tool_use_id", inv.ID),
		zap.Bool("success", result.Success()))

	return result.Outcome(inv.ID)
}
