package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sitewright/sitewright/model"
)

func mustArgs(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal args: %v", err)
	}
	return raw
}

func TestWriteThenReadFile(t *testing.T) {
	root := t.TempDir()
	write := NewWriteFileTool(root, DefaultMaxFileSize)
	read := NewReadFileTool(root, DefaultMaxFileSize)

	result, err := write.Execute(context.Background(), mustArgs(t, model.WriteFileInput{
		Path:    "src/app.js",
		Content: "console.log('hi');\n",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success() {
		t.Fatalf("write failed: %v", result.Error)
	}
	if result.Meta == nil || result.Meta.Operation != model.OpCreate {
		t.Errorf("expected create metadata on first write, got %+v", result.Meta)
	}
	if result.Meta.LineCount != 1 {
		t.Errorf("expected lineCount 1, got %d", result.Meta.LineCount)
	}

	result, err = read.Execute(context.Background(), mustArgs(t, model.ReadFileInput{Path: "src/app.js"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success() {
		t.Fatalf("read failed: %v", result.Error)
	}
	if result.Output != "console.log('hi');\n" {
		t.Errorf("unexpected content: %q", result.Output)
	}
	if result.Meta == nil || result.Meta.Operation != model.OpRead {
		t.Errorf("expected read metadata, got %+v", result.Meta)
	}
}

func TestWriteExistingFileReportsEdit(t *testing.T) {
	root := t.TempDir()
	write := NewWriteFileTool(root, DefaultMaxFileSize)

	args := mustArgs(t, model.WriteFileInput{Path: "index.html", Content: "<html></html>"})
	if result, _ := write.Execute(context.Background(), args); !result.Success() {
		t.Fatalf("first write failed: %v", result.Error)
	}

	result, _ := write.Execute(context.Background(), mustArgs(t, model.WriteFileInput{
		Path:    "index.html",
		Content: "<html><body></body></html>",
	}))
	if !result.Success() {
		t.Fatalf("second write failed: %v", result.Error)
	}
	if result.Meta == nil || result.Meta.Operation != model.OpEdit {
		t.Errorf("expected edit metadata on overwrite, got %+v", result.Meta)
	}
}

func TestReadMissingFile(t *testing.T) {
	read := NewReadFileTool(t.TempDir(), DefaultMaxFileSize)

	result, err := read.Execute(context.Background(), mustArgs(t, model.ReadFileInput{Path: "nope.txt"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success() {
		t.Error("expected failure for missing file")
	}
}

func TestPathEscapeRejected(t *testing.T) {
	root := t.TempDir()
	write := NewWriteFileTool(root, DefaultMaxFileSize)

	for _, path := range []string{"../outside.txt", "/etc/passwd", "a/../../outside.txt"} {
		result, err := write.Execute(context.Background(), mustArgs(t, model.WriteFileInput{
			Path:    path,
			Content: "x",
		}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Success() {
			t.Errorf("expected rejection for path %q", path)
		}
	}

	if _, err := os.Stat(filepath.Join(filepath.Dir(root), "outside.txt")); err == nil {
		t.Error("escape write reached outside the workspace")
	}
}

func TestEditFile(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "main.js"), []byte("let x = 1;\nlet y = 1;\n"), 0644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	edit := NewEditFileTool(root, DefaultMaxFileSize)

	result, err := edit.Execute(context.Background(), mustArgs(t, model.EditFileInput{
		Path:    "main.js",
		Search:  "let x = 1;",
		Replace: "let x = 2;",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success() {
		t.Fatalf("edit failed: %v", result.Error)
	}

	content, _ := os.ReadFile(filepath.Join(root, "main.js"))
	if !strings.Contains(string(content), "let x = 2;") {
		t.Errorf("edit not applied: %q", content)
	}
}

func TestEditAmbiguousSearchFails(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("dup\ndup\n"), 0644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	edit := NewEditFileTool(root, DefaultMaxFileSize)

	result, _ := edit.Execute(context.Background(), mustArgs(t, model.EditFileInput{
		Path:    "a.txt",
		Search:  "dup",
		Replace: "uniq",
	}))
	if result.Success() {
		t.Error("expected failure for ambiguous search without replace_all")
	}

	result, _ = edit.Execute(context.Background(), mustArgs(t, model.EditFileInput{
		Path:       "a.txt",
		Search:     "dup",
		Replace:    "uniq",
		ReplaceAll: true,
	}))
	if !result.Success() {
		t.Fatalf("replace_all edit failed: %v", result.Error)
	}
	content, _ := os.ReadFile(filepath.Join(root, "a.txt"))
	if string(content) != "uniq\nuniq\n" {
		t.Errorf("unexpected content after replace_all: %q", content)
	}
}

func TestEditSearchNotFound(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello\n"), 0644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	edit := NewEditFileTool(root, DefaultMaxFileSize)

	result, _ := edit.Execute(context.Background(), mustArgs(t, model.EditFileInput{
		Path:    "a.txt",
		Search:  "missing",
		Replace: "x",
	}))
	if result.Success() {
		t.Error("expected failure when search string is absent")
	}
}

func TestRegistryDefinitions(t *testing.T) {
	registry, err := WithDefaults(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	defs := registry.Definitions()
	if len(defs) != 3 {
		t.Fatalf("expected 3 tool definitions, got %d", len(defs))
	}
	for _, def := range defs {
		props, ok := def.Parameters["properties"].(map[string]any)
		if !ok || len(props) == 0 {
			t.Errorf("tool %s has no properties in schema", def.Name)
		}
		if _, ok := def.Parameters["required"].([]string); !ok {
			t.Errorf("tool %s has no required list in schema", def.Name)
		}
	}

	names := registry.Names()
	want := []string{model.ToolEditFile, model.ToolReadFile, model.ToolWriteFile}
	if fmt.Sprint(names) != fmt.Sprint(want) {
		t.Errorf("expected sorted names %v, got %v", want, names)
	}
}
