package config

import (
	"os"
	"testing"
)

func TestNewValidProvider(t *testing.T) {
	settings, err := New("openai")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.LLM.Provider != "openai" {
		t.Errorf("expected provider 'openai', got %q", settings.LLM.Provider)
	}
}

func TestNewWithAlias(t *testing.T) {
	settings, err := New("claude")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.LLM.Provider != "anthropic" {
		t.Errorf("expected provider 'anthropic' (normalized from 'claude'), got %q", settings.LLM.Provider)
	}
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New("unknown_provider")
	if err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestNewDefaults(t *testing.T) {
	for _, key := range []string{
		"AGENT_MAX_TURNS", "AGENT_MAX_REQUEST_TOKENS",
		"AGENT_FORCE_READ_BEFORE_EDIT",
		"REASONING_STREAM_CHUNK_SIZE", "REASONING_STREAM_DELAY_MS",
	} {
		original := os.Getenv(key)
		os.Unsetenv(key)
		defer os.Setenv(key, original)
	}

	settings, err := New("anthropic")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.Agent.MaxTurns != 15 {
		t.Errorf("expected default MaxTurns 15, got %d", settings.Agent.MaxTurns)
	}
	if settings.Agent.MaxRequestTokens != 200000 {
		t.Errorf("expected default MaxRequestTokens 200000, got %d", settings.Agent.MaxRequestTokens)
	}
	if settings.Agent.ForceReadBeforeEdit {
		t.Error("expected ForceReadBeforeEdit to default to false")
	}
	if settings.Streaming.ChunkSize != 80 {
		t.Errorf("expected default ChunkSize 80, got %d", settings.Streaming.ChunkSize)
	}
	if settings.Streaming.DelayMS != 24 {
		t.Errorf("expected default DelayMS 24, got %d", settings.Streaming.DelayMS)
	}
}

func TestNewOverrides(t *testing.T) {
	originalTurns := os.Getenv("AGENT_MAX_TURNS")
	originalForce := os.Getenv("AGENT_FORCE_READ_BEFORE_EDIT")
	os.Setenv("AGENT_MAX_TURNS", "3")
	os.Setenv("AGENT_FORCE_READ_BEFORE_EDIT", "true")
	defer os.Setenv("AGENT_MAX_TURNS", originalTurns)
	defer os.Setenv("AGENT_FORCE_READ_BEFORE_EDIT", originalForce)

	settings, err := New("anthropic")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.Agent.MaxTurns != 3 {
		t.Errorf("expected MaxTurns 3, got %d", settings.Agent.MaxTurns)
	}
	if !settings.Agent.ForceReadBeforeEdit {
		t.Error("expected ForceReadBeforeEdit true")
	}
}

func TestAPIKeyForValidProvider(t *testing.T) {
	original := os.Getenv("OPENAI_API_KEY")
	os.Setenv("OPENAI_API_KEY", "test-key")
	defer os.Setenv("OPENAI_API_KEY", original)

	key, err := APIKeyFor("openai")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "test-key" {
		t.Errorf("expected 'test-key', got %q", key)
	}
}

func TestAPIKeyForMissing(t *testing.T) {
	original := os.Getenv("OPENAI_API_KEY")
	os.Unsetenv("OPENAI_API_KEY")
	defer os.Setenv("OPENAI_API_KEY", original)

	_, err := APIKeyFor("openai")
	if err == nil {
		t.Error("expected error for missing API key")
	}
}

func TestModelFor(t *testing.T) {
	model, err := ModelFor("openai")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model == "" {
		t.Error("expected non-empty model")
	}
}

func TestNewWithInvalidEnvVar(t *testing.T) {
	original := os.Getenv("AGENT_MAX_TURNS")
	os.Setenv("AGENT_MAX_TURNS", "not-a-number")
	defer os.Setenv("AGENT_MAX_TURNS", original)

	_, err := New("openai")
	if err == nil {
		t.Error("expected error for invalid AGENT_MAX_TURNS")
	}
}
