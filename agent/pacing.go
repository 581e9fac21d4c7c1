// Replay pacing for buffered thinking and summary text.
//
// The chunked replay delays are a presentation effect, not a
// correctness requirement; injecting the policy keeps the state machine
// testable with zero delays.

package agent

import "time"

// Pacing controls the artificial delays used when replaying buffered
// text to the caller.
type Pacing interface {
	// ChunkDelay returns the suspension after emitting one chunk.
	ChunkDelay(chunk string) time.Duration

	// SettleDelay returns the pause between a thinking-complete event
	// and the start of the replay.
	SettleDelay() time.Duration
}

type fixedPacing struct {
	chunk  time.Duration
	settle time.Duration
}

func (p fixedPacing) ChunkDelay(string) time.Duration { return p.chunk }
func (p fixedPacing) SettleDelay() time.Duration      { return p.settle }

// NewFixedPacing creates a pacing policy with constant delays.
func NewFixedPacing(chunkDelay, settleDelay time.Duration) Pacing {
	return fixedPacing{chunk: chunkDelay, settle: settleDelay}
}

// InstantPacing replays without any delay. Used in tests and dry runs.
func InstantPacing() Pacing {
	return fixedPacing{}
}

// replayChunks splits text into rune-safe chunks of at most chunkSize
// characters and feeds each to emit, pausing per the pacing policy.
// Returns early if the context is cancelled mid-replay.
func replayChunks(text string, chunkSize int, emit func(string), pacing Pacing, cancelled func() bool) {
	if chunkSize <= 0 {
		chunkSize = len(text)
	}
	runes := []rune(text)
	for start := 0; start < len(runes); start += chunkSize {
		if cancelled() {
			return
		}
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunk := string(runes[start:end])
		emit(chunk)
		if delay := pacing.ChunkDelay(chunk); delay > 0 {
			time.Sleep(delay)
		}
	}
}
