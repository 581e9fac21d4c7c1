// Agent loop configuration.
//
// Information Hiding:
// - Default value application hidden
// - Mapping from environment settings hidden

package agent

import (
	"time"

	"github.com/sitewright/sitewright/config"
)

// Default loop limits, applied when a Config field is zero.
const (
	DefaultMaxTurns         = 15
	DefaultMaxRequestTokens = 200000
	DefaultStreamChunkSize  = 80
	DefaultStreamDelay      = 24 * time.Millisecond
	DefaultSettleDelay      = 250 * time.Millisecond
)

// Config holds one orchestrator's loop limits and policies. The
// system prompt is fixed at construction; per-request variation goes
// through the request's SystemPrefix instead of mutable state.
type Config struct {
	// SystemPrompt is the static policy text sent on every model call.
	SystemPrompt string

	// MaxTurns bounds model calls per request. Soft cap: exhausting it
	// returns the best-effort response rather than failing.
	MaxTurns int

	// MaxRequestTokens caps cumulative input+output tokens per request.
	// Exceeding it is a hard stop with a token breakdown response.
	MaxRequestTokens int

	// ForceReadBeforeEdit injects a synthetic read ahead of any edit
	// lacking a prior read of the same path in the same turn.
	ForceReadBeforeEdit bool

	// DryRun replaces tool execution with descriptive no-op outcomes.
	DryRun bool

	// WebSearch advertises the provider's server-side search tool.
	WebSearch bool

	// StreamChunkSize is the character count per replayed chunk.
	StreamChunkSize int
}

// withDefaults fills zero-valued limits.
func (c Config) withDefaults() Config {
	if c.MaxTurns <= 0 {
		c.MaxTurns = DefaultMaxTurns
	}
	if c.MaxRequestTokens <= 0 {
		c.MaxRequestTokens = DefaultMaxRequestTokens
	}
	if c.StreamChunkSize <= 0 {
		c.StreamChunkSize = DefaultStreamChunkSize
	}
	return c
}

// ConfigFromSettings maps environment-driven settings onto a loop
// config. The system prompt is supplied separately by the caller.
func ConfigFromSettings(settings config.Settings, systemPrompt string) Config {
	return Config{
		SystemPrompt:        systemPrompt,
		MaxTurns:            settings.Agent.MaxTurns,
		MaxRequestTokens:    settings.Agent.MaxRequestTokens,
		ForceReadBeforeEdit: settings.Agent.ForceReadBeforeEdit,
		StreamChunkSize:     settings.Streaming.ChunkSize,
	}
}

// PacingFromSettings maps the streaming settings onto a pacing policy.
func PacingFromSettings(settings config.Settings) Pacing {
	return NewFixedPacing(
		time.Duration(settings.Streaming.DelayMS)*time.Millisecond,
		DefaultSettleDelay,
	)
}
