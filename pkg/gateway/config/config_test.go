package config

import (
	"strings"
	"testing"
	"time"
)

func setValidEnv(t *testing.T) {
	t.Helper()
	t.Setenv("VOXKIT_GEMINI_API_KEY", "test-key")
}

func TestLoadFromEnvDefaults(t *testing.T) {
	setValidEnv(t)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("Addr=%q, want :8080", cfg.Addr)
	}
	if cfg.LLMProvider != LLMProviderGemini {
		t.Fatalf("LLMProvider=%q, want gemini", cfg.LLMProvider)
	}
	if cfg.Voice != "en-US-marcus" {
		t.Fatalf("Voice=%q, want en-US-marcus", cfg.Voice)
	}
	if cfg.PollInterval != 50*time.Millisecond {
		t.Fatalf("PollInterval=%v, want 50ms", cfg.PollInterval)
	}
	if cfg.TurnEndFallback != 800*time.Millisecond {
		t.Fatalf("TurnEndFallback=%v, want 800ms", cfg.TurnEndFallback)
	}
	if cfg.QueueCapacity != 256 {
		t.Fatalf("QueueCapacity=%d, want 256", cfg.QueueCapacity)
	}
	if cfg.STTSampleRate != 16000 {
		t.Fatalf("STTSampleRate=%d, want 16000", cfg.STTSampleRate)
	}
	if cfg.RedisAddr != "" {
		t.Fatalf("RedisAddr=%q, want empty", cfg.RedisAddr)
	}
}

func TestLoadFromEnvOverrides(t *testing.T) {
	setValidEnv(t)
	t.Setenv("VOXKIT_ADDR", ":9191")
	t.Setenv("VOXKIT_TRANSCRIPT_POLL_INTERVAL", "20ms")
	t.Setenv("VOXKIT_REDIS_ADDR", "localhost:6379")
	t.Setenv("VOXKIT_TTS_VOICE", "en-UK-ruby")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Addr != ":9191" {
		t.Fatalf("Addr=%q, want :9191", cfg.Addr)
	}
	if cfg.PollInterval != 20*time.Millisecond {
		t.Fatalf("PollInterval=%v, want 20ms", cfg.PollInterval)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Fatalf("RedisAddr=%q", cfg.RedisAddr)
	}
	if cfg.Voice != "en-UK-ruby" {
		t.Fatalf("Voice=%q", cfg.Voice)
	}
}

func TestLoadFromEnvInvalidProvider(t *testing.T) {
	setValidEnv(t)
	t.Setenv("VOXKIT_LLM_PROVIDER", "mystery")

	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("LoadFromEnv accepted invalid provider")
	}
}

func TestLoadFromEnvMissingGeminiKey(t *testing.T) {
	t.Setenv("VOXKIT_GEMINI_API_KEY", "")

	_, err := LoadFromEnv()
	if err == nil {
		t.Fatal("LoadFromEnv accepted gemini provider without key")
	}
	if !strings.Contains(err.Error(), "VOXKIT_GEMINI_API_KEY") {
		t.Fatalf("err=%v, want mention of VOXKIT_GEMINI_API_KEY", err)
	}
}

func TestLoadFromEnvOpenAIRequiresKey(t *testing.T) {
	t.Setenv("VOXKIT_LLM_PROVIDER", "openai")
	t.Setenv("VOXKIT_OPENAI_API_KEY", "")

	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("LoadFromEnv accepted openai provider without key")
	}

	t.Setenv("VOXKIT_OPENAI_API_KEY", "sk-test")
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.LLMProvider != LLMProviderOpenAI {
		t.Fatalf("LLMProvider=%q, want openai", cfg.LLMProvider)
	}
}

func TestLoadFromEnvPollIntervalBound(t *testing.T) {
	setValidEnv(t)
	t.Setenv("VOXKIT_TRANSCRIPT_POLL_INTERVAL", "250ms")

	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("LoadFromEnv accepted poll interval >= 100ms")
	}
}

func TestLoadFromEnvBadDurationFallsBack(t *testing.T) {
	setValidEnv(t)
	t.Setenv("VOXKIT_TURN_END_FALLBACK", "not-a-duration")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.TurnEndFallback != 800*time.Millisecond {
		t.Fatalf("TurnEndFallback=%v, want default 800ms", cfg.TurnEndFallback)
	}
}
