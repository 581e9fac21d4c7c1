// Typed tool inputs, discriminated by tool name.
//
// The loop's transforms (read-before-write enforcement, reference
// integrity checking) pattern-match on these instead of probing raw
// key-value maps.

package model

import (
	"encoding/json"
	"fmt"
)

// Well-known workspace tool names.
const (
	ToolReadFile  = "read_file"
	ToolWriteFile = "write_file"
	ToolEditFile  = "edit_file"
)

// ReadFileInput is the input of the read_file tool.
type ReadFileInput struct {
	Path string `json:"path"`
}

// WriteFileInput is the input of the write_file tool. Content is the
// complete file body; write_file replaces the target wholesale.
type WriteFileInput struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// EditFileInput is the input of the edit_file tool. Search is the
// disambiguating locator; an edit without one is flagged by the
// read-before-write transform when enforcement is on.
type EditFileInput struct {
	Path       string `json:"path"`
	Search     string `json:"search"`
	Replace    string `json:"replace"`
	ReplaceAll bool   `json:"replace_all,omitempty"`
	Warning    string `json:"warning,omitempty"`
}

// ParseToolInput decodes an invocation's input into its typed form.
// Unknown tool names return (nil, nil): the loop treats them as opaque.
func ParseToolInput(inv ToolInvocation) (any, error) {
	switch inv.Name {
	case ToolReadFile:
		var in ReadFileInput
		if err := json.Unmarshal(inv.Input, &in); err != nil {
			return nil, fmt.Errorf("read_file input: %w", err)
		}
		return in, nil
	case ToolWriteFile:
		var in WriteFileInput
		if err := json.Unmarshal(inv.Input, &in); err != nil {
			return nil, fmt.Errorf("write_file input: %w", err)
		}
		return in, nil
	case ToolEditFile:
		var in EditFileInput
		if err := json.Unmarshal(inv.Input, &in); err != nil {
			return nil, fmt.Errorf("edit_file input: %w", err)
		}
		return in, nil
	default:
		return nil, nil
	}
}

// IsMutatingTool reports whether the named tool writes to the workspace.
func IsMutatingTool(name string) bool {
	return name == ToolWriteFile || name == ToolEditFile
}

// TargetPath returns the workspace path an invocation operates on,
// or "" for non-file tools and undecodable inputs.
func TargetPath(inv ToolInvocation) string {
	parsed, err := ParseToolInput(inv)
	if err != nil || parsed == nil {
		return ""
	}
	switch in := parsed.(type) {
	case ReadFileInput:
		return in.Path
	case WriteFileInput:
		return in.Path
	case EditFileInput:
		return in.Path
	default:
		return ""
	}
}
