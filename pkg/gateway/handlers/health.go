package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/voxkit-go/voxkit/pkg/gateway/config"
)

type HealthHandler struct{}

func (h HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

// ReadyHandler reports configuration health and which pipeline
// capabilities are enabled.
type ReadyHandler struct {
	Config config.Config
}

func (h ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	type readyResp struct {
		OK             bool     `json:"ok"`
		LLMProvider    string   `json:"llm_provider"`
		STTConfigured  bool     `json:"stt_configured"`
		TTSConfigured  bool     `json:"tts_configured"`
		HistoryBackend string   `json:"history_backend"`
		Issues         []string `json:"issues,omitempty"`
	}

	issues := make([]string, 0, 4)

	switch h.Config.LLMProvider {
	case config.LLMProviderGemini:
		if h.Config.GeminiAPIKey == "" {
			issues = append(issues, "llm_provider=gemini but no gemini api key configured")
		}
	case config.LLMProviderOpenAI:
		if h.Config.OpenAIAPIKey == "" {
			issues = append(issues, "llm_provider=openai but no openai api key configured")
		}
	default:
		issues = append(issues, "invalid llm_provider")
	}

	if h.Config.QueueCapacity <= 0 {
		issues = append(issues, "transcript queue capacity must be > 0")
	}
	if h.Config.PollInterval <= 0 {
		issues = append(issues, "transcript poll interval must be > 0")
	}
	if h.Config.TurnEndFallback <= 0 {
		issues = append(issues, "turn end fallback must be > 0")
	}
	if h.Config.ShutdownGracePeriod <= 0 {
		issues = append(issues, "shutdown grace period must be > 0")
	}

	backend := "memory"
	if h.Config.RedisAddr != "" {
		backend = "redis"
	}

	ok := len(issues) == 0
	status := http.StatusOK
	if !ok {
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(readyResp{
		OK:             ok,
		LLMProvider:    string(h.Config.LLMProvider),
		STTConfigured:  h.Config.AssemblyAIAPIKey != "",
		TTSConfigured:  h.Config.MurfAPIKey != "",
		HistoryBackend: backend,
		Issues:         issues,
	})
}
