// Read-before-write enforcement.
//
// A pure transform over one assistant turn's content blocks: every edit
// of a path must be preceded, within the same turn, by a read of that
// path. When enforcement is on, missing reads are synthesized and will
// actually execute; when off (the default), edits are trusted to read
// server-side.

package agent

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/sitewright/sitewright/model"
)

// editLocatorWarning is attached to edit inputs that lack a search
// locator while enforcement is on. Advisory only.
const editLocatorWarning = "edit has no search locator; read the file first and supply a unique search string"

// EnforceReadBeforeWrite scans one turn's blocks in order and returns
// the blocks to store plus the ordered tool invocations to execute.
// Synthesized reads appear in both: they are stored ahead of the edit
// they guard and they run like any other invocation.
//
// The transform is idempotent: applied to its own output it changes
// nothing, since every guarded edit is then already preceded by a read.
func EnforceReadBeforeWrite(blocks []model.ContentBlock, enforce bool) ([]model.ContentBlock, []model.ToolInvocation) {
	stored := make([]model.ContentBlock, 0, len(blocks))
	pathsRead := make(map[string]struct{})

	for _, block := range blocks {
		inv, ok := block.Invocation()
		if !ok {
			stored = append(stored, block)
			continue
		}

		switch inv.Name {
		case model.ToolReadFile:
			if path := model.TargetPath(inv); path != "" {
				pathsRead[path] = struct{}{}
			}
			stored = append(stored, block)

		case model.ToolEditFile:
			if !enforce {
				stored = append(stored, block)
				continue
			}
			path := model.TargetPath(inv)
			if path != "" {
				if _, read := pathsRead[path]; !read {
					stored = append(stored, syntheticRead(path))
					pathsRead[path] = struct{}{}
				}
			}
			stored = append(stored, annotateEditLocator(block))

		default:
			// Writes and non-file tools pass through: a full-content
			// write needs no precondition read.
			stored = append(stored, block)
		}
	}

	var invocations []model.ToolInvocation
	for _, block := range stored {
		if inv, ok := block.Invocation(); ok {
			invocations = append(invocations, inv)
		}
	}
	return stored, invocations
}

// syntheticRead builds an injected read_file invocation for a path.
func syntheticRead(path string) model.ContentBlock {
	input, _ := json.Marshal(model.ReadFileInput{Path: path})
	id := fmt.Sprintf("synthetic-read-%s", uuid.NewString())
	return model.ToolUseBlock(id, model.ToolReadFile, input)
}

// annotateEditLocator attaches a soft warning to an edit that carries
// no search locator. Inputs that already carry a warning, or that fail
// to decode, pass through untouched.
func annotateEditLocator(block model.ContentBlock) model.ContentBlock {
	var in model.EditFileInput
	if err := json.Unmarshal(block.Input, &in); err != nil {
		return block
	}
	if in.Search != "" || in.Warning != "" {
		return block
	}
	in.Warning = editLocatorWarning
	annotated, err := json.Marshal(in)
	if err != nil {
		return block
	}
	block.Input = annotated
	return block
}
