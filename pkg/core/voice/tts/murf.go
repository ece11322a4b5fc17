package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	murfBaseURL   = "https://api.murf.ai"
	murfStreamURL = "wss://api.murf.ai/v1/speech/generate"

	defaultMurfVoice = "en-US-marcus"
)

// MurfProvider implements the TTS Provider interface using Murf's API.
type MurfProvider struct {
	apiKey     string
	httpClient *http.Client
}

// NewMurf creates a new Murf TTS provider.
func NewMurf(apiKey string) *MurfProvider {
	return NewMurfWithClient(apiKey, &http.Client{Timeout: 30 * time.Second})
}

// NewMurfWithClient creates a new Murf TTS provider with a custom HTTP client.
func NewMurfWithClient(apiKey string, client *http.Client) *MurfProvider {
	return &MurfProvider{apiKey: apiKey, httpClient: client}
}

// Name returns the provider identifier.
func (m *MurfProvider) Name() string { return "murf" }

type murfGenerateRequest struct {
	VoiceID string `json:"voiceId"`
	Text    string `json:"text"`
	Format  string `json:"format"`
}

type murfGenerateResponse struct {
	AudioFile string `json:"audioFile"`
}

// Synthesize converts text to a hosted audio file via Murf's REST API.
func (m *MurfProvider) Synthesize(ctx context.Context, text string, opts SynthesizeOptions) (*Synthesis, error) {
	voice := opts.Voice
	if voice == "" {
		voice = defaultMurfVoice
	}
	format := opts.Format
	if format == "" {
		format = "mp3"
	}

	body, err := json.Marshal(murfGenerateRequest{
		VoiceID: voice,
		Text:    text,
		Format:  format,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, murfBaseURL+"/v1/speech/generate-with-key", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("api-key", m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("murf request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("murf error %d: %s", resp.StatusCode, string(respBody))
	}

	var decoded murfGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if decoded.AudioFile == "" {
		return nil, fmt.Errorf("murf response missing audio file URL")
	}

	return &Synthesis{AudioURL: decoded.AudioFile}, nil
}

type murfStreamRequest struct {
	APIKey    string `json:"api_key"`
	ContextID string `json:"context_id"`
	Text      string `json:"text"`
	End       bool   `json:"end,omitempty"`
}

type murfStreamResponse struct {
	AudioBase64 string `json:"audio_base64"`
	Final       bool   `json:"final"`
	Error       string `json:"error"`
}

// NewStreamingContext opens a websocket synthesis context. Text chunks
// sent on the context are appended server-side to one utterance keyed by
// the context_id; Flush completes the utterance.
func (m *MurfProvider) NewStreamingContext(ctx context.Context, opts StreamingContextOptions) (*StreamingContext, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	conn, resp, err := dialer.DialContext(ctx, murfStreamURL, nil)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			if len(body) > 0 {
				return nil, fmt.Errorf("websocket connect (status %d): %s", resp.StatusCode, string(body))
			}
		}
		return nil, fmt.Errorf("websocket connect: %w", err)
	}

	contextID := opts.ContextID
	if contextID == "" {
		contextID = "ctx-" + uuid.NewString()
	}

	sc := NewStreamingContext()

	var writeMu sync.Mutex
	sc.SendFunc = func(text string, isFinal bool) error {
		payload, err := json.Marshal(murfStreamRequest{
			APIKey:    m.apiKey,
			ContextID: contextID,
			Text:      text,
			End:       isFinal,
		})
		if err != nil {
			return fmt.Errorf("encode stream request: %w", err)
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteMessage(websocket.TextMessage, payload)
	}
	sc.CloseFunc = func() error {
		writeMu.Lock()
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		writeMu.Unlock()
		return conn.Close()
	}

	go murfReadLoop(conn, sc)

	return sc, nil
}

func murfReadLoop(conn *websocket.Conn, sc *StreamingContext) {
	defer sc.FinishAudio()

	for {
		select {
		case <-sc.Done():
			return
		default:
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				sc.SetError(fmt.Errorf("synthesis connection lost: %w", err))
			}
			return
		}

		var msg murfStreamResponse
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		done, err := applyStreamMessage(msg, sc.PushAudio)
		if err != nil {
			sc.SetError(err)
			return
		}
		if done {
			return
		}
	}
}

// applyStreamMessage decodes one synthesis message, delivering any audio
// through push. It reports whether the utterance is complete.
func applyStreamMessage(msg murfStreamResponse, push func([]byte) bool) (done bool, err error) {
	if msg.Error != "" {
		return true, fmt.Errorf("synthesis error: %s", msg.Error)
	}
	if msg.AudioBase64 != "" {
		chunk, decodeErr := base64.StdEncoding.DecodeString(msg.AudioBase64)
		if decodeErr != nil {
			return true, fmt.Errorf("decode audio chunk: %w", decodeErr)
		}
		if !push(chunk) {
			return true, nil
		}
	}
	return msg.Final, nil
}
