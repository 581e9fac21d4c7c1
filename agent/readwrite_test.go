package agent

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/sitewright/sitewright/model"
)

func editBlock(t *testing.T, id, path, search string) model.ContentBlock {
	t.Helper()
	input, err := json.Marshal(model.EditFileInput{Path: path, Search: search, Replace: "new"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return model.ToolUseBlock(id, model.ToolEditFile, input)
}

func readBlock(t *testing.T, id, path string) model.ContentBlock {
	t.Helper()
	input, err := json.Marshal(model.ReadFileInput{Path: path})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return model.ToolUseBlock(id, model.ToolReadFile, input)
}

func writeBlock(t *testing.T, id, path, content string) model.ContentBlock {
	t.Helper()
	input, err := json.Marshal(model.WriteFileInput{Path: path, Content: content})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return model.ToolUseBlock(id, model.ToolWriteFile, input)
}

func TestEnforceInjectsReadBeforeEdit(t *testing.T) {
	blocks := []model.ContentBlock{
		model.TextBlock("updating the file"),
		editBlock(t, "edit-1", "app.js", "old"),
	}

	stored, invocations := EnforceReadBeforeWrite(blocks, true)

	if len(stored) != 3 {
		t.Fatalf("expected 3 stored blocks, got %d", len(stored))
	}
	if stored[1].Name != model.ToolReadFile {
		t.Errorf("expected injected read before edit, got %s", stored[1].Name)
	}
	if model.TargetPath(model.ToolInvocation{ID: stored[1].ID, Name: stored[1].Name, Input: stored[1].Input}) != "app.js" {
		t.Errorf("injected read targets wrong path")
	}
	if !strings.HasPrefix(stored[1].ID, "synthetic-read-") {
		t.Errorf("expected synthetic id, got %s", stored[1].ID)
	}

	if len(invocations) != 2 {
		t.Fatalf("expected 2 invocations (read + edit), got %d", len(invocations))
	}
	if invocations[0].Name != model.ToolReadFile || invocations[1].Name != model.ToolEditFile {
		t.Errorf("unexpected invocation order: %s, %s", invocations[0].Name, invocations[1].Name)
	}
}

func TestEnforceDisabledByDefaultPolicy(t *testing.T) {
	blocks := []model.ContentBlock{editBlock(t, "edit-1", "app.js", "old")}

	stored, invocations := EnforceReadBeforeWrite(blocks, false)

	if len(stored) != 1 || len(invocations) != 1 {
		t.Fatalf("expected passthrough with enforcement off, got %d blocks, %d invocations",
			len(stored), len(invocations))
	}
}

func TestEnforceSkipsEditWithPriorRead(t *testing.T) {
	blocks := []model.ContentBlock{
		readBlock(t, "read-1", "app.js"),
		editBlock(t, "edit-1", "app.js", "old"),
	}

	stored, invocations := EnforceReadBeforeWrite(blocks, true)

	if len(stored) != 2 || len(invocations) != 2 {
		t.Fatalf("expected no injection after explicit read, got %d blocks", len(stored))
	}
}

func TestEnforceIdempotent(t *testing.T) {
	blocks := []model.ContentBlock{
		model.TextBlock("editing"),
		editBlock(t, "edit-1", "a.js", "x"),
		editBlock(t, "edit-2", "b.js", "y"),
	}

	once, _ := EnforceReadBeforeWrite(blocks, true)
	twice, _ := EnforceReadBeforeWrite(once, true)

	if len(once) != len(twice) {
		t.Fatalf("second pass changed block count: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].ID != twice[i].ID || once[i].Name != twice[i].Name {
			t.Errorf("block %d changed on second pass: %s vs %s", i, once[i], twice[i])
		}
	}
}

func TestEnforceWritePassesThrough(t *testing.T) {
	blocks := []model.ContentBlock{writeBlock(t, "write-1", "index.html", "<html></html>")}

	stored, invocations := EnforceReadBeforeWrite(blocks, true)

	if len(stored) != 1 || len(invocations) != 1 {
		t.Fatalf("expected write to pass through unchanged, got %d blocks", len(stored))
	}
}

func TestEnforceAnnotatesMissingLocator(t *testing.T) {
	blocks := []model.ContentBlock{
		readBlock(t, "read-1", "app.js"),
		editBlock(t, "edit-1", "app.js", ""),
	}

	stored, _ := EnforceReadBeforeWrite(blocks, true)

	var in model.EditFileInput
	if err := json.Unmarshal(stored[1].Input, &in); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if in.Warning == "" {
		t.Error("expected locator warning on edit without search string")
	}

	// Second pass leaves the annotation untouched.
	again, _ := EnforceReadBeforeWrite(stored, true)
	var in2 model.EditFileInput
	if err := json.Unmarshal(again[1].Input, &in2); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if in2.Warning != in.Warning {
		t.Error("annotation changed on second pass")
	}
}
