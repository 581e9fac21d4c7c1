// Package verify runs post-edit project checks over the files an agent
// request touched and formats the result for the final response.
//
// Information Hiding:
// - Individual check implementations hidden behind Runner
// - Summary formatting separated from check execution
package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// CheckStatus classifies a single check result.
type CheckStatus string

const (
	StatusPass CheckStatus = "pass"
	StatusWarn CheckStatus = "warn"
	StatusFail CheckStatus = "fail"
)

// Check is one verification finding for one file.
type Check struct {
	Path    string      `json:"path"`
	Name    string      `json:"name"`
	Status  CheckStatus `json:"status"`
	Message string      `json:"message,omitempty"`
}

// Result aggregates all checks from one verification run.
type Result struct {
	Checks []Check `json:"checks"`
}

// Passed reports whether no check failed. Warnings do not count as
// failures.
func (r Result) Passed() bool {
	for _, c := range r.Checks {
		if c.Status == StatusFail {
			return false
		}
	}
	return true
}

// Runner runs project-level checks over a set of changed files.
type Runner interface {
	Run(ctx context.Context, changedFiles []string) (Result, error)
}

// WorkspaceRunner checks changed files against the workspace on disk.
type WorkspaceRunner struct {
	root string
	log  *zap.Logger
}

// NewWorkspaceRunner creates a runner rooted at the workspace directory.
func NewWorkspaceRunner(root string, log *zap.Logger) *WorkspaceRunner {
	if log == nil {
		log = zap.NewNop()
	}
	return &WorkspaceRunner{root: root, log: log}
}

// Run checks every changed file: it must exist, be non-empty, and parse
// when it has a machine-checked format (JSON). Paths are checked in
// sorted order so summaries are stable.
func (r *WorkspaceRunner) Run(ctx context.Context, changedFiles []string) (Result, error) {
	paths := append([]string(nil), changedFiles...)
	sort.Strings(paths)

	var result Result
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		result.Checks = append(result.Checks, r.checkFile(path)...)
	}

	r.log.Debug("verification run complete",
		zap.Int("files", len(paths)),
		zap.Int("checks", len(result.Checks)),
		zap.Bool("passed", result.Passed()))

	return result, nil
}

func (r *WorkspaceRunner) checkFile(path string) []Check {
	full := filepath.Join(r.root, filepath.Clean(path))

	info, err := os.Stat(full)
	if err != nil {
		return []Check{{
			Path:    path,
			Name:    "exists",
			Status:  StatusFail,
			Message: "file not found in workspace",
		}}
	}

	checks := []Check{{Path: path, Name: "exists", Status: StatusPass}}

	if info.Size() == 0 {
		checks = append(checks, Check{
			Path:    path,
			Name:    "non-empty",
			Status:  StatusWarn,
			Message: "file is empty",
		})
		return checks
	}
	checks = append(checks, Check{Path: path, Name: "non-empty", Status: StatusPass})

	if strings.EqualFold(filepath.Ext(path), ".json") {
		content, err := os.ReadFile(full)
		if err == nil && !json.Valid(content) {
			checks = append(checks, Check{
				Path:    path,
				Name:    "json-syntax",
				Status:  StatusFail,
				Message: "file is not valid JSON",
			})
		} else {
			checks = append(checks, Check{Path: path, Name: "json-syntax", Status: StatusPass})
		}
	}

	return checks
}

// FormatSummary renders a verification result as the human-readable
// block appended to the agent's final response.
func FormatSummary(result Result) string {
	if len(result.Checks) == 0 {
		return ""
	}

	var failures, warnings []Check
	for _, c := range result.Checks {
		switch c.Status {
		case StatusFail:
			failures = append(failures, c)
		case StatusWarn:
			warnings = append(warnings, c)
		}
	}

	var b strings.Builder
	if result.Passed() {
		b.WriteString("Verification passed")
	} else {
		b.WriteString("Verification found problems")
	}
	fmt.Fprintf(&b, " (%d checks", len(result.Checks))
	if len(failures) > 0 {
		fmt.Fprintf(&b, ", %d failed", len(failures))
	}
	if len(warnings) > 0 {
		fmt.Fprintf(&b, ", %d warnings", len(warnings))
	}
	b.WriteString(").")

	for _, c := range failures {
		fmt.Fprintf(&b, "\n- FAIL %s [%s]: %s", c.Path, c.Name, c.Message)
	}
	for _, c := range warnings {
		fmt.Fprintf(&b, "\n- WARN %s [%s]: %s", c.Path, c.Name, c.Message)
	}

	return b.String()
}

// Interface check
var _ Runner = (*WorkspaceRunner)(nil)
