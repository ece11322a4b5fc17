// Package config loads gateway configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LLMProvider selects the generation backend.
type LLMProvider string

const (
	LLMProviderGemini LLMProvider = "gemini"
	LLMProviderOpenAI LLMProvider = "openai"
)

type Config struct {
	Addr string

	// Capability keys. Empty keys degrade the matching capability:
	// no STT key means no recognition, no TTS key means text-only turns.
	AssemblyAIAPIKey string
	MurfAPIKey       string
	GeminiAPIKey     string
	OpenAIAPIKey     string

	LLMProvider LLMProvider
	LLMModel    string

	Voice            string
	FallbackAudioURL string

	// Conversation history store. Empty RedisAddr selects the in-memory
	// driver.
	RedisAddr     string
	RedisPassword string
	HistoryTTL    time.Duration

	// CaptureDir enables per-session raw audio capture when non-empty.
	CaptureDir string

	// Live session tuning.
	STTSampleRate     int
	QueueCapacity     int
	PollInterval      time.Duration
	TurnEndFallback   time.Duration
	WSPingInterval    time.Duration
	WSWriteTimeout    time.Duration
	WSMaxMessageBytes int64
	SynthFlushTimeout time.Duration
	TeardownTimeout   time.Duration

	// Operational defaults.
	ReadHeaderTimeout   time.Duration
	ReadTimeout         time.Duration
	ShutdownGracePeriod time.Duration
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:                envOr("VOXKIT_ADDR", ":8080"),
		AssemblyAIAPIKey:    strings.TrimSpace(os.Getenv("VOXKIT_ASSEMBLYAI_API_KEY")),
		MurfAPIKey:          strings.TrimSpace(os.Getenv("VOXKIT_MURF_API_KEY")),
		GeminiAPIKey:        strings.TrimSpace(os.Getenv("VOXKIT_GEMINI_API_KEY")),
		OpenAIAPIKey:        strings.TrimSpace(os.Getenv("VOXKIT_OPENAI_API_KEY")),
		LLMProvider:         LLMProvider(envOr("VOXKIT_LLM_PROVIDER", string(LLMProviderGemini))),
		LLMModel:            envOr("VOXKIT_LLM_MODEL", ""),
		Voice:               envOr("VOXKIT_TTS_VOICE", "en-US-marcus"),
		FallbackAudioURL:    envOr("VOXKIT_TTS_FALLBACK_URL", "/static/fallback.mp3"),
		RedisAddr:           strings.TrimSpace(os.Getenv("VOXKIT_REDIS_ADDR")),
		RedisPassword:       os.Getenv("VOXKIT_REDIS_PASSWORD"),
		HistoryTTL:          envDurationOr("VOXKIT_HISTORY_TTL", 24*time.Hour),
		CaptureDir:          strings.TrimSpace(os.Getenv("VOXKIT_CAPTURE_DIR")),
		STTSampleRate:       envIntOr("VOXKIT_STT_SAMPLE_RATE", 16000),
		QueueCapacity:       envIntOr("VOXKIT_TRANSCRIPT_QUEUE_CAP", 256),
		PollInterval:        envDurationOr("VOXKIT_TRANSCRIPT_POLL_INTERVAL", 50*time.Millisecond),
		TurnEndFallback:     envDurationOr("VOXKIT_TURN_END_FALLBACK", 800*time.Millisecond),
		WSPingInterval:      envDurationOr("VOXKIT_WS_PING_INTERVAL", 20*time.Second),
		WSWriteTimeout:      envDurationOr("VOXKIT_WS_WRITE_TIMEOUT", 5*time.Second),
		WSMaxMessageBytes:   envInt64Or("VOXKIT_WS_MAX_MESSAGE_BYTES", 1<<20),
		SynthFlushTimeout:   envDurationOr("VOXKIT_SYNTH_FLUSH_TIMEOUT", 3*time.Second),
		TeardownTimeout:     envDurationOr("VOXKIT_TEARDOWN_TIMEOUT", 5*time.Second),
		ReadHeaderTimeout:   envDurationOr("VOXKIT_READ_HEADER_TIMEOUT", 10*time.Second),
		ReadTimeout:         envDurationOr("VOXKIT_READ_TIMEOUT", 0),
		ShutdownGracePeriod: envDurationOr("VOXKIT_SHUTDOWN_GRACE_PERIOD", 30*time.Second),
	}

	switch cfg.LLMProvider {
	case LLMProviderGemini, LLMProviderOpenAI:
	default:
		return Config{}, fmt.Errorf("VOXKIT_LLM_PROVIDER must be one of gemini|openai")
	}

	if cfg.LLMProvider == LLMProviderGemini && cfg.GeminiAPIKey == "" {
		return Config{}, fmt.Errorf("VOXKIT_GEMINI_API_KEY must be set when VOXKIT_LLM_PROVIDER=gemini")
	}
	if cfg.LLMProvider == LLMProviderOpenAI && cfg.OpenAIAPIKey == "" {
		return Config{}, fmt.Errorf("VOXKIT_OPENAI_API_KEY must be set when VOXKIT_LLM_PROVIDER=openai")
	}

	if cfg.HistoryTTL <= 0 {
		return Config{}, fmt.Errorf("VOXKIT_HISTORY_TTL must be > 0")
	}
	if cfg.STTSampleRate <= 0 {
		return Config{}, fmt.Errorf("VOXKIT_STT_SAMPLE_RATE must be > 0")
	}
	if cfg.QueueCapacity <= 0 {
		return Config{}, fmt.Errorf("VOXKIT_TRANSCRIPT_QUEUE_CAP must be > 0")
	}
	if cfg.PollInterval <= 0 || cfg.PollInterval >= 100*time.Millisecond {
		return Config{}, fmt.Errorf("VOXKIT_TRANSCRIPT_POLL_INTERVAL must be > 0 and < 100ms")
	}
	if cfg.TurnEndFallback <= 0 {
		return Config{}, fmt.Errorf("VOXKIT_TURN_END_FALLBACK must be > 0")
	}
	if cfg.WSPingInterval <= 0 {
		return Config{}, fmt.Errorf("VOXKIT_WS_PING_INTERVAL must be > 0")
	}
	if cfg.WSWriteTimeout <= 0 {
		return Config{}, fmt.Errorf("VOXKIT_WS_WRITE_TIMEOUT must be > 0")
	}
	if cfg.WSMaxMessageBytes <= 0 {
		return Config{}, fmt.Errorf("VOXKIT_WS_MAX_MESSAGE_BYTES must be > 0")
	}
	if cfg.SynthFlushTimeout <= 0 {
		return Config{}, fmt.Errorf("VOXKIT_SYNTH_FLUSH_TIMEOUT must be > 0")
	}
	if cfg.TeardownTimeout <= 0 {
		return Config{}, fmt.Errorf("VOXKIT_TEARDOWN_TIMEOUT must be > 0")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		return Config{}, fmt.Errorf("VOXKIT_READ_HEADER_TIMEOUT must be > 0")
	}
	if cfg.ReadTimeout < 0 {
		return Config{}, fmt.Errorf("VOXKIT_READ_TIMEOUT must be >= 0")
	}
	if cfg.ShutdownGracePeriod <= 0 {
		return Config{}, fmt.Errorf("VOXKIT_SHUTDOWN_GRACE_PERIOD must be > 0")
	}

	return cfg, nil
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envIntOr(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func envInt64Or(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}
