package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/sitewright/sitewright/model"
)

// countingTool records executions and fails on demand.
type countingTool struct {
	BaseTool
	name  string
	fail  bool
	calls atomic.Int32
}

func (t *countingTool) Metadata() ToolMetadata {
	return ToolMetadata{Name: t.name, Description: "test tool"}
}

func (t *countingTool) Execute(ctx context.Context, args json.RawMessage) (ToolResult, error) {
	n := t.calls.Add(1)
	if t.fail {
		return FailureResultf("%s failed on call %d", t.name, n), nil
	}
	return SuccessResult(fmt.Sprintf("%s ok %d", t.name, n)), nil
}

func TestExecuteBatchPreservesOrder(t *testing.T) {
	registry := NewRegistry()
	ok := &countingTool{name: "alpha"}
	bad := &countingTool{name: "beta", fail: true}
	if err := registry.Register(ok); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.Register(bad); err != nil {
		t.Fatalf("register: %v", err)
	}

	pool := NewPool(registry, nil)

	var invocations []model.ToolInvocation
	for i := 0; i < 6; i++ {
		name := "alpha"
		if i%2 == 1 {
			name = "beta"
		}
		invocations = append(invocations, model.ToolInvocation{
			ID:    fmt.Sprintf("call-%d", i),
			Name:  name,
			Input: json.RawMessage(`{}`),
		})
	}

	outcomes, err := pool.ExecuteBatch(context.Background(), invocations)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outcomes) != len(invocations) {
		t.Fatalf("expected %d outcomes, got %d", len(invocations), len(outcomes))
	}
	for i, outcome := range outcomes {
		if outcome.ToolUseID != invocations[i].ID {
			t.Errorf("outcome %d: expected id %s, got %s", i, invocations[i].ID, outcome.ToolUseID)
		}
		wantErr := i%2 == 1
		if outcome.IsError != wantErr {
			t.Errorf("outcome %d: expected is_error=%v, got %v", i, wantErr, outcome.IsError)
		}
	}
}

func TestExecuteBatchUnknownTool(t *testing.T) {
	pool := NewPool(NewRegistry(), nil)

	outcomes, err := pool.ExecuteBatch(context.Background(), []model.ToolInvocation{
		{ID: "x", Name: "no_such_tool", Input: json.RawMessage(`{}`)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outcomes) != 1 || !outcomes[0].IsError {
		t.Fatalf("expected single error outcome, got %+v", outcomes)
	}
}

func TestExecuteBatchSamePathSerialized(t *testing.T) {
	root := t.TempDir()
	registry, err := WithDefaults(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pool := NewPool(registry, nil)

	// Two writes and an edit on the same path in one batch. Serialization
	// in submission order means the edit sees the second write's content.
	write := func(content string) json.RawMessage {
		raw, _ := json.Marshal(model.WriteFileInput{Path: "app.js", Content: content})
		return raw
	}
	editArgs, _ := json.Marshal(model.EditFileInput{Path: "app.js", Search: "two", Replace: "three"})

	outcomes, err := pool.ExecuteBatch(context.Background(), []model.ToolInvocation{
		{ID: "w1", Name: model.ToolWriteFile, Input: write("one\n")},
		{ID: "w2", Name: model.ToolWriteFile, Input: write("two\n")},
		{ID: "e1", Name: model.ToolEditFile, Input: editArgs},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, outcome := range outcomes {
		if outcome.IsError {
			t.Errorf("outcome %d unexpectedly failed: %s", i, outcome.Content)
		}
	}
}

func TestExecuteBatchEmpty(t *testing.T) {
	pool := NewPool(NewRegistry(), nil)
	outcomes, err := pool.ExecuteBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outcomes) != 0 {
		t.Errorf("expected no outcomes, got %d", len(outcomes))
	}
}
