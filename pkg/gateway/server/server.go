// Package server wires the gateway's routes, providers, and middleware.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/voxkit-go/voxkit/pkg/core/llm"
	"github.com/voxkit-go/voxkit/pkg/core/voice/stt"
	"github.com/voxkit-go/voxkit/pkg/core/voice/tts"
	"github.com/voxkit-go/voxkit/pkg/gateway/config"
	"github.com/voxkit-go/voxkit/pkg/gateway/handlers"
	"github.com/voxkit-go/voxkit/pkg/gateway/history"
	"github.com/voxkit-go/voxkit/pkg/gateway/live/sessions"
	"github.com/voxkit-go/voxkit/pkg/gateway/mw"
)

type Server struct {
	cfg    config.Config
	logger *slog.Logger
	mux    *http.ServeMux

	httpClient *http.Client
	tracker    *sessions.Tracker

	store     history.Store
	sttProv   *stt.AssemblyAIProvider
	ttsProv   tts.Provider
	generator llm.Generator
}

func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout: 10 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	s := &Server{
		cfg:        cfg,
		logger:     logger,
		mux:        http.NewServeMux(),
		httpClient: httpClient,
		tracker:    sessions.NewTracker(),
	}

	if cfg.RedisAddr != "" {
		s.store = history.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.HistoryTTL)
	} else {
		s.store = history.NewMemory()
	}

	if cfg.AssemblyAIAPIKey != "" {
		s.sttProv = stt.NewAssemblyAI(cfg.AssemblyAIAPIKey)
	} else {
		logger.Warn("no recognition key configured, live sessions will not transcribe")
	}

	if cfg.MurfAPIKey != "" {
		s.ttsProv = tts.NewMurfWithClient(cfg.MurfAPIKey, httpClient)
	} else {
		logger.Warn("no synthesis key configured, running text-only")
		s.ttsProv = tts.NewNoop(cfg.FallbackAudioURL)
	}

	switch cfg.LLMProvider {
	case config.LLMProviderOpenAI:
		s.generator = llm.NewOpenAI(cfg.OpenAIAPIKey, cfg.LLMModel)
	default:
		gen, err := llm.NewGemini(context.Background(), cfg.GeminiAPIKey, cfg.LLMModel)
		if err != nil {
			return nil, fmt.Errorf("init generator: %w", err)
		}
		s.generator = gen
	}

	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.mux.Handle("/healthz", handlers.HealthHandler{})
	s.mux.Handle("/readyz", handlers.ReadyHandler{Config: s.cfg})

	s.mux.Handle("POST /v1/audio/speech", handlers.SpeechHandler{
		TTS:         s.ttsProv,
		Voice:       s.cfg.Voice,
		FallbackURL: s.cfg.FallbackAudioURL,
		Logger:      s.logger,
	})

	conv := handlers.ConversationsHandler{Store: s.store, Logger: s.logger}
	s.mux.HandleFunc("GET /v1/conversations/{id}", conv.Get)
	s.mux.HandleFunc("DELETE /v1/conversations/{id}", conv.Delete)
	s.mux.HandleFunc("GET /v1/conversations/{id}/persona", conv.GetPersona)
	s.mux.HandleFunc("POST /v1/conversations/{id}/persona", conv.SetPersona)

	live := handlers.LiveHandler{
		Config:       s.cfg,
		Logger:       s.logger,
		LiveSessions: s.tracker,
		STT:          s.sttProv,
		TTS:          s.ttsProv,
		LLM:          s.generator,
		History:      s.store,
	}
	s.mux.Handle("GET /ws", live)
	s.mux.Handle("GET /ws/{session_id}", live)
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = mw.Recover(s.logger, h)
	h = mw.AccessLog(s.logger, h)
	h = mw.RequestID(h)
	return h
}

// WarnLiveSessionsDraining tells connected clients the server is going
// away.
func (s *Server) WarnLiveSessionsDraining() {
	n := s.tracker.WarnAll("server shutting down")
	if n > 0 {
		s.logger.Info("warned live sessions", "count", n)
	}
}

// WaitLiveSessions blocks until live sessions drain or ctx expires.
func (s *Server) WaitLiveSessions(ctx context.Context) bool {
	return s.tracker.Wait(ctx)
}

// CancelLiveSessions force-cancels the remaining live sessions.
func (s *Server) CancelLiveSessions() {
	n := s.tracker.CancelAll()
	if n > 0 {
		s.logger.Info("canceled live sessions", "count", n)
	}
}
