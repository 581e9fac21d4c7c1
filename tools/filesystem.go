// Workspace file tools - Read, Write, Edit.
//
// All paths are project-relative and resolved under a single workspace
// root; escapes via ".." or absolute paths are rejected before any I/O.
//
// Information Hiding:
// - File I/O implementation details hidden
// - Path validation and security checks hidden
// - Error handling for file operations abstracted

package tools

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sitewright/sitewright/model"
)

// resolveWorkspacePath maps a project-relative path to an absolute path
// under root, rejecting anything that escapes the workspace.
func resolveWorkspacePath(root, path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if filepath.IsAbs(path) {
		return "", fmt.Errorf("absolute paths are not allowed: %s", path)
	}
	cleaned := filepath.Clean(path)
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes workspace: %s", path)
	}
	return filepath.Join(root, cleaned), nil
}

// fileMeta computes the content hash and line count recorded on file
// tool outcomes.
func fileMeta(path string, op model.FileOperation, content []byte) model.OutcomeMeta {
	sum := sha256.Sum256(content)
	lines := 0
	if len(content) > 0 {
		lines = strings.Count(string(content), "\n")
		if !strings.HasSuffix(string(content), "\n") {
			lines++
		}
	}
	return model.OutcomeMeta{
		Path:      path,
		Operation: op,
		SHA256:    hex.EncodeToString(sum[:]),
		LineCount: lines,
	}
}

// ReadFileTool reads file contents from the workspace.
type ReadFileTool struct {
	BaseTool
	root         string
	maxSizeBytes int64
}

// NewReadFileTool creates a new read file tool rooted at the workspace.
func NewReadFileTool(root string, maxSizeBytes int64) *ReadFileTool {
	return &ReadFileTool{
		root:         root,
		maxSizeBytes: maxSizeBytes,
	}
}

// Metadata returns the tool metadata.
func (t *ReadFileTool) Metadata() ToolMetadata {
	return ToolMetadata{
		Name:        model.ToolReadFile,
		Description: "Read the contents of a file from the project workspace",
		Parameters: []ToolParameter{
			{Name: "path", ParamType: "string", Description: "Project-relative path to the file to read", Required: true},
		},
	}
}

// Validate validates the arguments.
func (t *ReadFileTool) Validate(args json.RawMessage) error {
	var a model.ReadFileInput
	if err := json.Unmarshal(args, &a); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	if a.Path == "" {
		return fmt.Errorf("path cannot be empty")
	}
	return nil
}

// Execute reads the file.
func (t *ReadFileTool) Execute(ctx context.Context, args json.RawMessage) (ToolResult, error) {
	var a model.ReadFileInput
	if err := json.Unmarshal(args, &a); err != nil {
		return FailureResult(fmt.Errorf("invalid arguments: %w", err)), nil
	}

	resolved, err := resolveWorkspacePath(t.root, a.Path)
	if err != nil {
		return FailureResult(err), nil
	}

	info, err := os.Stat(resolved)
	if os.IsNotExist(err) {
		return FailureResultf("file does not exist: %s", a.Path), nil
	}
	if err != nil {
		return FailureResult(fmt.Errorf("failed to read file metadata: %w", err)), nil
	}

	if info.Size() > t.maxSizeBytes {
		return FailureResultf("file too large: %d bytes (max: %d bytes)", info.Size(), t.maxSizeBytes), nil
	}

	content, err := os.ReadFile(resolved)
	if err != nil {
		return FailureResult(fmt.Errorf("failed to read file: %w", err)), nil
	}

	return SuccessResult(string(content)).
		WithMeta(fileMeta(a.Path, model.OpRead, content)), nil
}

// WriteFileTool writes a complete file into the workspace, creating
// parent directories as needed. Writing an existing path replaces it
// wholesale; the outcome metadata records whether the path existed.
type WriteFileTool struct {
	BaseTool
	root         string
	maxSizeBytes int64
}

// NewWriteFileTool creates a new write file tool rooted at the workspace.
func NewWriteFileTool(root string, maxSizeBytes int64) *WriteFileTool {
	return &WriteFileTool{
		root:         root,
		maxSizeBytes: maxSizeBytes,
	}
}

// Metadata returns the tool metadata.
func (t *WriteFileTool) Metadata() ToolMetadata {
	return ToolMetadata{
		Name:        model.ToolWriteFile,
		Description: "Write the complete content of a file in the project workspace, replacing any existing content",
		Parameters: []ToolParameter{
			{Name: "path", ParamType: "string", Description: "Project-relative path to the file to write", Required: true},
			{Name: "content", ParamType: "string", Description: "Complete file content", Required: true},
		},
	}
}

// Validate validates the arguments.
func (t *WriteFileTool) Validate(args json.RawMessage) error {
	var a model.WriteFileInput
	if err := json.Unmarshal(args, &a); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	if a.Path == "" {
		return fmt.Errorf("path cannot be empty")
	}
	return nil
}

// Execute writes the file.
func (t *WriteFileTool) Execute(ctx context.Context, args json.RawMessage) (ToolResult, error) {
	var a model.WriteFileInput
	if err := json.Unmarshal(args, &a); err != nil {
		return FailureResult(fmt.Errorf("invalid arguments: %w", err)), nil
	}

	if int64(len(a.Content)) > t.maxSizeBytes {
		return FailureResultf("content too large: %d bytes (max: %d bytes)", len(a.Content), t.maxSizeBytes), nil
	}

	resolved, err := resolveWorkspacePath(t.root, a.Path)
	if err != nil {
		return FailureResult(err), nil
	}

	op := model.OpCreate
	if _, err := os.Stat(resolved); err == nil {
		op = model.OpEdit
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0755); err != nil {
		return FailureResult(fmt.Errorf("failed to create directory: %w", err)), nil
	}

	if err := os.WriteFile(resolved, []byte(a.Content), 0644); err != nil {
		return FailureResult(fmt.Errorf("failed to write file: %w", err)), nil
	}

	return SuccessResult(fmt.Sprintf("Successfully wrote %d bytes to %s", len(a.Content), a.Path)).
		WithMeta(fileMeta(a.Path, op, []byte(a.Content))), nil
}

// EditFileTool performs search/replace operations on workspace files.
type EditFileTool struct {
	BaseTool
	root         string
	maxSizeBytes int64
}

// NewEditFileTool creates a new edit file tool rooted at the workspace.
func NewEditFileTool(root string, maxSizeBytes int64) *EditFileTool {
	return &EditFileTool{
		root:         root,
		maxSizeBytes: maxSizeBytes,
	}
}

// Metadata returns the tool metadata.
func (t *EditFileTool) Metadata() ToolMetadata {
	return ToolMetadata{
		Name:        model.ToolEditFile,
		Description: "Edit a file by replacing a target string with new content",
		Parameters: []ToolParameter{
			{Name: "path", ParamType: "string", Description: "Project-relative path to the file to edit", Required: true},
			{Name: "search", ParamType: "string", Description: "String to search for", Required: true},
			{Name: "replace", ParamType: "string", Description: "Replacement string", Required: true},
			{Name: "replace_all", ParamType: "boolean", Description: "Replace all occurrences (default: false)", Required: false},
		},
	}
}

// Validate validates the arguments.
func (t *EditFileTool) Validate(args json.RawMessage) error {
	var a model.EditFileInput
	if err := json.Unmarshal(args, &a); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	if a.Path == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if a.Search == "" {
		return fmt.Errorf("search string cannot be empty")
	}
	return nil
}

// Execute performs the edit.
func (t *EditFileTool) Execute(ctx context.Context, args json.RawMessage) (ToolResult, error) {
	var a model.EditFileInput
	if err := json.Unmarshal(args, &a); err != nil {
		return FailureResult(fmt.Errorf("invalid arguments: %w", err)), nil
	}

	if a.Search == "" {
		return FailureResultf("search string cannot be empty"), nil
	}

	resolved, err := resolveWorkspacePath(t.root, a.Path)
	if err != nil {
		return FailureResult(err), nil
	}

	if _, err := os.Stat(resolved); os.IsNotExist(err) {
		return FailureResultf("file does not exist: %s", a.Path), nil
	}

	content, err := os.ReadFile(resolved)
	if err != nil {
		return FailureResult(fmt.Errorf("failed to read file: %w", err)), nil
	}

	if int64(len(content)) > t.maxSizeBytes {
		return FailureResultf("file too large: %d bytes (max: %d bytes)", len(content), t.maxSizeBytes), nil
	}

	contentStr := string(content)
	occurrences := strings.Count(contentStr, a.Search)

	if occurrences == 0 {
		return FailureResultf("search string not found in %s", a.Path), nil
	}

	if !a.ReplaceAll && occurrences > 1 {
		return FailureResultf("search string occurs %d times; set replace_all=true to replace all", occurrences), nil
	}

	var updated string
	if a.ReplaceAll {
		updated = strings.ReplaceAll(contentStr, a.Search, a.Replace)
	} else {
		updated = strings.Replace(contentStr, a.Search, a.Replace, 1)
	}

	if int64(len(updated)) > t.maxSizeBytes {
		return FailureResultf("updated content too large: %d bytes (max: %d bytes)", len(updated), t.maxSizeBytes), nil
	}

	if err := os.WriteFile(resolved, []byte(updated), 0644); err != nil {
		return FailureResult(fmt.Errorf("failed to write file: %w", err)), nil
	}

	replacedCount := 1
	if a.ReplaceAll {
		replacedCount = occurrences
	}

	return SuccessResult(fmt.Sprintf("Replaced %d occurrence(s) in %s", replacedCount, a.Path)).
		WithMeta(fileMeta(a.Path, model.OpEdit, []byte(updated))), nil
}

// Interface checks
var (
	_ Tool = (*ReadFileTool)(nil)
	_ Tool = (*WriteFileTool)(nil)
	_ Tool = (*EditFileTool)(nil)
)
