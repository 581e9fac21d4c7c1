// Conversation invariant validation.
//
// The model API rejects malformed histories outright; catching a
// violation locally with a precise diagnostic is far cheaper than
// surfacing an opaque remote rejection.

package conversation

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sitewright/sitewright/model"
)

// Validate checks every turn for structural invariants and returns an
// error on the first fatal violation:
//
//   - nil content on any turn
//   - empty content on any turn, unless it is the final turn and that
//     turn's role is assistant (a response still being finalized)
//
// Server-tool pairing (every server_tool_use in an assistant turn has a
// matching server_tool_result in the same turn) is a soft check: a
// mismatch is logged with full block diagnostics but does not fail.
func (s *Store) Validate(log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}

	for i, turn := range s.turns {
		if turn.Content == nil {
			return fmt.Errorf("conversation turn %d (%s): content is not a sequence", i, turn.Role)
		}

		if len(turn.Content) == 0 {
			trailing := i == len(s.turns)-1 && turn.Role == model.RoleAssistant
			if !trailing {
				return fmt.Errorf("conversation turn %d (%s): empty content", i, turn.Role)
			}
		}

		if turn.Role == model.RoleAssistant {
			checkServerToolPairing(log, i, turn)
		}
	}

	return nil
}

// checkServerToolPairing logs unmatched server_tool_use blocks.
// Deliberately non-fatal: providers have been observed to omit the
// result block on interrupted server tool runs, and the API tolerates it.
func checkServerToolPairing(log *zap.Logger, index int, turn model.Turn) {
	results := make(map[string]bool)
	for _, block := range turn.Content {
		if block.Type == model.BlockServerToolResult {
			results[block.ToolUseID] = true
		}
	}

	for _, block := range turn.Content {
		if block.Type != model.BlockServerToolUse {
			continue
		}
		if results[block.ID] {
			continue
		}

		blocks := make([]string, 0, len(turn.Content))
		for _, b := range turn.Content {
			blocks = append(blocks, b.String())
		}
		log.Warn("server_tool_use without matching server_tool_result",
			zap.Int("turn", index),
			zap.String("tool_use_id", block.ID),
			zap.String("tool", block.Name),
			zap.Strings("blocks", blocks),
		)
	}
}
