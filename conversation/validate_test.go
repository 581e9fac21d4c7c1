package conversation

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sitewright/sitewright/model"
)

func TestValidateAcceptsWellFormedHistory(t *testing.T) {
	s := NewStore()
	s.Append(model.UserTurn(model.TextBlock("make me a page")))
	s.Append(model.AssistantTurn(model.TextBlock("on it")))

	if err := s.Validate(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsNilContent(t *testing.T) {
	s := NewStore()
	s.Append(model.Turn{Role: model.RoleUser, Content: nil})

	err := s.Validate(nil)
	if err == nil {
		t.Fatal("expected error for nil content")
	}
	if !strings.Contains(err.Error(), "content is not a sequence") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestValidateRejectsEmptyNonTrailingTurn(t *testing.T) {
	s := NewStore()
	s.Append(model.Turn{Role: model.RoleUser, Content: []model.ContentBlock{}})
	s.Append(model.AssistantTurn(model.TextBlock("reply")))

	if err := s.Validate(nil); err == nil {
		t.Fatal("expected error for empty non-trailing turn")
	}
}

func TestValidateAllowsEmptyTrailingAssistantTurn(t *testing.T) {
	s := NewStore()
	s.Append(model.UserTurn(model.TextBlock("hello")))
	s.Append(model.Turn{Role: model.RoleAssistant, Content: []model.ContentBlock{}})

	if err := s.Validate(nil); err != nil {
		t.Fatalf("trailing empty assistant turn should pass, got: %v", err)
	}
}

func TestValidateRejectsEmptyTrailingUserTurn(t *testing.T) {
	s := NewStore()
	s.Append(model.Turn{Role: model.RoleUser, Content: []model.ContentBlock{}})

	if err := s.Validate(nil); err == nil {
		t.Fatal("expected error for empty trailing user turn")
	}
}

func TestValidateUnpairedServerToolWarnsOnly(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	log := zap.New(core)

	s := NewStore()
	s.Append(model.UserTurn(model.TextBlock("search the docs")))
	s.Append(model.AssistantTurn(
		model.TextBlock("searching"),
		model.ServerToolUseBlock("srv-1", "web_search"),
	))

	if err := s.Validate(log); err != nil {
		t.Fatalf("pairing mismatch must not fail validation, got: %v", err)
	}

	entries := logs.FilterMessageSnippet("server_tool_use").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 pairing warning, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["tool_use_id"] != "srv-1" {
		t.Errorf("expected tool_use_id srv-1, got %v", fields["tool_use_id"])
	}
}

func TestValidatePairedServerToolIsQuiet(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	log := zap.New(core)

	s := NewStore()
	s.Append(model.UserTurn(model.TextBlock("search")))
	s.Append(model.AssistantTurn(
		model.ServerToolUseBlock("srv-1", "web_search"),
		model.ServerToolResultBlock("srv-1", "results here"),
	))

	if err := s.Validate(log); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := logs.Len(); n != 0 {
		t.Errorf("expected no warnings for paired server tool, got %d", n)
	}
}

func TestStoreTurnsReturnsCopy(t *testing.T) {
	s := NewStore()
	s.Append(model.UserTurn(model.TextBlock("one")))

	turns := s.Turns()
	turns = append(turns, model.AssistantTurn(model.TextBlock("rogue")))
	_ = turns

	if s.Len() != 1 {
		t.Errorf("appending to the returned slice mutated the store: len %d", s.Len())
	}
}

func TestStoreLast(t *testing.T) {
	s := NewStore()
	if _, ok := s.Last(); ok {
		t.Error("expected no last turn on empty store")
	}

	s.Append(model.UserTurn(model.TextBlock("a")))
	s.Append(model.AssistantTurn(model.TextBlock("b")))
	last, ok := s.Last()
	if !ok || last.Role != model.RoleAssistant {
		t.Errorf("unexpected last turn: %+v ok=%v", last, ok)
	}
}
