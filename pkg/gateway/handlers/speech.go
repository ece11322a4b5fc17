package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/voxkit-go/voxkit/pkg/core/voice/tts"
)

// SpeechHandler serves one-shot text-to-speech: it synthesizes the text
// to a hosted audio file and returns its URL. On synthesis failure it
// falls back to a static audio URL so clients always get something
// playable.
type SpeechHandler struct {
	TTS         tts.Provider
	Voice       string
	FallbackURL string
	Logger      *slog.Logger
}

type speechRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

type speechResponse struct {
	AudioURL string `json:"audio_url"`
	Fallback bool   `json:"fallback,omitempty"`
}

func (h SpeechHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req speechRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	voice := req.Voice
	if voice == "" {
		voice = h.Voice
	}

	synth, err := h.TTS.Synthesize(r.Context(), text, tts.SynthesizeOptions{Voice: voice})
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("synthesize", "error", err)
		}
		writeJSON(w, http.StatusOK, speechResponse{AudioURL: h.FallbackURL, Fallback: true})
		return
	}

	writeJSON(w, http.StatusOK, speechResponse{AudioURL: synth.AudioURL})
}
