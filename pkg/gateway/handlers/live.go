package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/voxkit-go/voxkit/pkg/core/llm"
	"github.com/voxkit-go/voxkit/pkg/core/voice/stt"
	"github.com/voxkit-go/voxkit/pkg/core/voice/tts"
	"github.com/voxkit-go/voxkit/pkg/gateway/config"
	"github.com/voxkit-go/voxkit/pkg/gateway/history"
	"github.com/voxkit-go/voxkit/pkg/gateway/live/session"
	"github.com/voxkit-go/voxkit/pkg/gateway/live/sessions"
	"github.com/voxkit-go/voxkit/pkg/gateway/mw"
)

// LiveHandler upgrades /ws/{session_id} to a live voice session.
type LiveHandler struct {
	Config       config.Config
	Logger       *slog.Logger
	LiveSessions *sessions.Tracker

	STT     *stt.AssemblyAIProvider // nil when no recognition key is configured
	TTS     tts.Provider
	LLM     llm.Generator
	History history.Store
}

func (h LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.PathValue("session_id"))
	if sessionID == "" {
		sessionID = "s_" + mw.RandHex(8)
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	if h.Config.WSMaxMessageBytes > 0 {
		conn.SetReadLimit(h.Config.WSMaxMessageBytes)
	}

	// The session outlives the upgrade request; the tracker owns its
	// cancellation.
	ctx := context.Background()

	var newSTT session.STTFactory
	if h.STT != nil {
		provider := h.STT
		sampleRate := h.Config.STTSampleRate
		newSTT = func(ctx context.Context, onEvent func(stt.Event)) (session.STTSession, error) {
			return provider.NewStreamingSession(ctx, stt.SessionOptions{
				SampleRate:  sampleRate,
				FormatTurns: true,
			}, onEvent)
		}
	}

	sess, err := session.New(ctx, session.Config{
		SessionID:         sessionID,
		Model:             h.Config.LLMModel,
		Voice:             h.Config.Voice,
		PollInterval:      h.Config.PollInterval,
		TurnEndFallback:   h.Config.TurnEndFallback,
		PingInterval:      h.Config.WSPingInterval,
		WriteTimeout:      h.Config.WSWriteTimeout,
		SynthFlushTimeout: h.Config.SynthFlushTimeout,
		TeardownTimeout:   h.Config.TeardownTimeout,
		QueueCapacity:     h.Config.QueueCapacity,
		CaptureDir:        h.Config.CaptureDir,
	}, session.Dependencies{
		Conn:    conn,
		NewSTT:  newSTT,
		TTS:     h.TTS,
		LLM:     h.LLM,
		History: h.History,
		Logger:  h.Logger,
	})
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("create session", "session_id", sessionID, "error", err)
		}
		return
	}

	unregister := h.LiveSessions.Register(sessionID, sessions.Handle{
		Cancel: sess.Cancel,
		Warn:   sess.Warn,
	})
	defer unregister()

	if err := sess.Run(); err != nil && h.Logger != nil {
		h.Logger.Warn("session ended with error", "session_id", sessionID, "error", err)
	}
}
