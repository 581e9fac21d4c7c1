package verify

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunAllPass(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "index.html"), []byte("<html></html>"), 0644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	runner := NewWorkspaceRunner(root, nil)
	result, err := runner.Run(context.Background(), []string{"index.html"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Passed() {
		t.Errorf("expected pass, got %+v", result)
	}
}

func TestRunMissingFileFails(t *testing.T) {
	runner := NewWorkspaceRunner(t.TempDir(), nil)
	result, err := runner.Run(context.Background(), []string{"ghost.js"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Passed() {
		t.Error("expected failure for missing file")
	}
}

func TestRunInvalidJSONFails(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "package.json"), []byte("{not json"), 0644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	runner := NewWorkspaceRunner(root, nil)
	result, err := runner.Run(context.Background(), []string{"package.json"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Passed() {
		t.Error("expected failure for invalid JSON")
	}
}

func TestRunEmptyFileWarns(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "empty.css"), nil, 0644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	runner := NewWorkspaceRunner(root, nil)
	result, err := runner.Run(context.Background(), []string{"empty.css"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Passed() {
		t.Error("warnings should not fail the run")
	}

	summary := FormatSummary(result)
	if !strings.Contains(summary, "WARN empty.css") {
		t.Errorf("expected warning in summary, got %q", summary)
	}
}

func TestFormatSummary(t *testing.T) {
	result := Result{Checks: []Check{
		{Path: "a.js", Name: "exists", Status: StatusPass},
		{Path: "b.js", Name: "exists", Status: StatusFail, Message: "file not found in workspace"},
	}}

	summary := FormatSummary(result)
	if !strings.Contains(summary, "Verification found problems") {
		t.Errorf("expected failure header, got %q", summary)
	}
	if !strings.Contains(summary, "FAIL b.js") {
		t.Errorf("expected failure line, got %q", summary)
	}

	if FormatSummary(Result{}) != "" {
		t.Error("expected empty summary for empty result")
	}
}
