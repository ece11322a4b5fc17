package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const assemblyAIStreamURL = "wss://streaming.assemblyai.com/v3/ws"

// AssemblyAIProvider creates streaming recognition sessions against
// AssemblyAI's universal streaming API.
type AssemblyAIProvider struct {
	apiKey string
}

// NewAssemblyAI creates a new AssemblyAI STT provider.
func NewAssemblyAI(apiKey string) *AssemblyAIProvider {
	return &AssemblyAIProvider{apiKey: apiKey}
}

// Name returns the provider identifier.
func (p *AssemblyAIProvider) Name() string { return "assemblyai" }

// StreamingSession is a live recognition session over a websocket.
// Audio is pushed with SendAudio; recognition events are delivered to
// the onEvent callback from the session's read goroutine. The callback
// must not block.
type StreamingSession struct {
	conn    *websocket.Conn
	onEvent func(Event)

	writeMu  sync.Mutex
	closed   atomic.Bool
	failed   atomic.Bool
	done     chan struct{}
	doneOnce sync.Once

	ctx    context.Context
	cancel context.CancelFunc
}

// NewStreamingSession dials the streaming endpoint and starts the read
// loop. onEvent is invoked for every recognition event, in order, from a
// single goroutine.
func (p *AssemblyAIProvider) NewStreamingSession(ctx context.Context, opts SessionOptions, onEvent func(Event)) (*StreamingSession, error) {
	if onEvent == nil {
		return nil, fmt.Errorf("onEvent callback is required")
	}

	u, err := url.Parse(assemblyAIStreamURL)
	if err != nil {
		return nil, fmt.Errorf("parse streaming URL: %w", err)
	}

	sampleRate := opts.SampleRate
	if sampleRate == 0 {
		sampleRate = 16000
	}
	encoding := opts.Encoding
	if encoding == "" {
		encoding = "pcm_s16le"
	}

	q := u.Query()
	q.Set("sample_rate", fmt.Sprintf("%d", sampleRate))
	q.Set("encoding", encoding)
	if opts.FormatTurns {
		q.Set("format_turns", "true")
	}
	u.RawQuery = q.Encode()

	headers := http.Header{}
	headers.Set("Authorization", p.apiKey)

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	conn, resp, err := dialer.DialContext(ctx, u.String(), headers)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			if len(body) > 0 {
				return nil, fmt.Errorf("websocket connect (status %d): %s", resp.StatusCode, string(body))
			}
			return nil, fmt.Errorf("websocket connect: status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket connect: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &StreamingSession{
		conn:    conn,
		onEvent: onEvent,
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}

	go s.readLoop()

	return s, nil
}

type streamMessage struct {
	Type string `json:"type"` // "Begin", "Turn", "Termination"

	// Turn fields.
	Transcript string `json:"transcript"`
	EndOfTurn  bool   `json:"end_of_turn"`
	Formatted  bool   `json:"turn_is_formatted"`

	// Error payload.
	Error string `json:"error"`
}

func (s *StreamingSession) readLoop() {
	defer s.doneOnce.Do(func() { close(s.done) })

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if !s.closed.Load() && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.fail(fmt.Errorf("recognizer connection lost: %w", err))
			}
			return
		}

		var msg streamMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "Turn":
			for _, ev := range turnEvents(msg) {
				s.emit(ev)
			}
		case "Termination":
			return
		case "Begin":
			continue
		default:
			if msg.Error != "" {
				s.fail(fmt.Errorf("recognizer error: %s", msg.Error))
				return
			}
		}
	}
}

// turnEvents maps one Turn message to recognition events. A final turn
// yields the final transcript followed by a synthetic turn-end so that
// downstream consumers see a turn boundary even though the wire protocol
// folds both into one message.
func turnEvents(msg streamMessage) []Event {
	if msg.EndOfTurn {
		return []Event{
			{Kind: EventFinal, Text: msg.Transcript},
			{Kind: EventTurnEnd, Text: msg.Transcript},
		}
	}
	if msg.Transcript == "" {
		return nil
	}
	return []Event{{Kind: EventPartial, Text: msg.Transcript}}
}

func (s *StreamingSession) emit(ev Event) {
	if s.closed.Load() {
		return
	}
	s.onEvent(ev)
}

// fail emits at most one error event; the session is terminal afterward.
func (s *StreamingSession) fail(err error) {
	if s.failed.Swap(true) {
		return
	}
	s.emit(Event{Kind: EventError, Err: err})
}

// SendAudio forwards a PCM frame to the recognizer. Empty frames are
// ignored. Sends after Close fail.
func (s *StreamingSession) SendAudio(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if s.closed.Load() {
		return fmt.Errorf("session closed")
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.BinaryMessage, data)
}

// Done returns a channel that's closed when the read loop ends.
func (s *StreamingSession) Done() <-chan struct{} {
	return s.done
}

// Close terminates the session.
func (s *StreamingSession) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.cancel()

	s.writeMu.Lock()
	_ = s.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"Terminate"}`))
	_ = s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	s.writeMu.Unlock()

	return s.conn.Close()
}
