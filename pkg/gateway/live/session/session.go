// Package session orchestrates one live voice conversation: client audio
// in over a websocket, streaming recognition, turn-triggered generation,
// streaming synthesis, and ordered event relay back to the client.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/voxkit-go/voxkit/pkg/core/llm"
	"github.com/voxkit-go/voxkit/pkg/core/voice/stt"
	"github.com/voxkit-go/voxkit/pkg/core/voice/tts"
	"github.com/voxkit-go/voxkit/pkg/gateway/history"
	"github.com/voxkit-go/voxkit/pkg/gateway/live/protocol"
)

const readyMessage = "Ready to receive streaming audio"

// STTSession is the session's view of a live recognition stream.
type STTSession interface {
	SendAudio(data []byte) error
	Close() error
}

// STTFactory opens a recognition stream. onEvent is invoked from the
// recognizer's read goroutine and must not block; the session wires it
// to the transcript queue.
type STTFactory func(ctx context.Context, onEvent func(stt.Event)) (STTSession, error)

// Config carries per-session tuning. Zero values take defaults.
type Config struct {
	SessionID string

	// Model and Voice select the generation model and synthesis voice.
	Model string
	Voice string

	// PollInterval bounds how long a queued transcript event can wait
	// before the forward loop picks it up.
	PollInterval time.Duration

	// TurnEndFallback triggers generation when a final transcript is
	// not followed by a turn-end within this window.
	TurnEndFallback time.Duration

	PingInterval      time.Duration
	WriteTimeout      time.Duration
	SynthFlushTimeout time.Duration
	TeardownTimeout   time.Duration

	QueueCapacity int

	// CaptureDir enables raw audio capture under this directory when
	// non-empty.
	CaptureDir string
}

// Dependencies are the session's collaborators. Conn and LLM are
// required; NewSTT, TTS, and History degrade gracefully when absent.
type Dependencies struct {
	Conn    wsConn
	NewSTT  STTFactory
	TTS     tts.Provider
	LLM     llm.Generator
	History history.Store
	Logger  *slog.Logger
}

// Session is one live voice conversation.
type Session struct {
	cfg    Config
	deps   Dependencies
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	relay *relay
	queue *transcriptQueue
	conv  *conversation

	sttSession STTSession
	capture    *captureFile
	audioBytes atomic.Int64

	activeTurn atomic.Pointer[turnTask]

	wg           sync.WaitGroup
	teardownOnce sync.Once
}

// New builds a session. Stored history for the session ID, if any, seeds
// the conversation so personas and context set before connecting apply.
func New(ctx context.Context, cfg Config, deps Dependencies) (*Session, error) {
	if deps.Conn == nil {
		return nil, errors.New("missing websocket connection")
	}
	if deps.LLM == nil {
		return nil, errors.New("missing generator")
	}
	if cfg.SessionID == "" {
		return nil, errors.New("missing session id")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 50 * time.Millisecond
	}
	if cfg.TurnEndFallback <= 0 {
		cfg.TurnEndFallback = 800 * time.Millisecond
	}
	if cfg.SynthFlushTimeout <= 0 {
		cfg.SynthFlushTimeout = 3 * time.Second
	}
	if cfg.TeardownTimeout <= 0 {
		cfg.TeardownTimeout = 5 * time.Second
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("session_id", cfg.SessionID)

	ctx, cancel := context.WithCancel(ctx)

	s := &Session{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		relay:  newRelay(ctx, deps.Conn, cfg.PingInterval, cfg.WriteTimeout),
		queue:  newTranscriptQueue(cfg.QueueCapacity),
	}

	var stored *history.Conversation
	if deps.History != nil {
		loadCtx, loadCancel := context.WithTimeout(ctx, 5*time.Second)
		var err error
		stored, err = deps.History.Get(loadCtx, cfg.SessionID)
		loadCancel()
		if err != nil {
			logger.Warn("load history", "error", err)
			stored = nil
		}
	}
	s.conv = newConversation(cfg.SessionID, stored)

	return s, nil
}

// Cancel tears the session down from outside (server drain, tracker).
func (s *Session) Cancel() { s.cancel() }

// Warn pushes an error event to the client without ending the session.
func (s *Session) Warn(message string) error {
	return s.relay.Send(protocol.NewError(message))
}

// Run drives the session until the client disconnects or the session is
// canceled. It always tears down in order: forward loop, running turn,
// recognizer, capture file, history.
func (s *Session) Run() error {
	defer s.teardown()

	relayErr := make(chan error, 1)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		relayErr <- s.relay.Run()
	}()

	// The first failed write means the client is gone; cancel everything.
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		select {
		case err := <-relayErr:
			if err != nil {
				s.logger.Warn("outbound write failed", "error", err)
				s.cancel()
			}
		case <-s.ctx.Done():
		}
	}()

	if s.deps.NewSTT != nil {
		sttSession, err := s.deps.NewSTT(s.ctx, s.queue.Push)
		if err != nil {
			s.logger.Warn("start recognizer", "error", err)
			_ = s.relay.Send(protocol.NewError("speech recognition unavailable"))
		} else {
			s.sttSession = sttSession
		}
	}

	if s.cfg.CaptureDir != "" {
		capture, err := newCaptureFile(s.cfg.CaptureDir, s.cfg.SessionID)
		if err != nil {
			s.logger.Warn("open capture file", "error", err)
		} else {
			s.capture = capture
		}
	}

	if err := s.relay.Send(protocol.NewReady(readyMessage)); err != nil {
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.forward()
	}()

	s.logger.Info("session started",
		"stt", s.sttSession != nil,
		"tts", s.deps.TTS != nil,
		"llm", s.deps.LLM.Name(),
	)

	return s.readLoop()
}

func (s *Session) readLoop() error {
	for {
		msgType, data, err := s.deps.Conn.ReadMessage()
		if err != nil {
			if s.ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Info("client disconnected", "error", err)
			}
			return nil
		}
		if s.ctx.Err() != nil {
			return nil
		}
		switch msgType {
		case websocket.BinaryMessage:
			s.handleAudio(data)
		case websocket.TextMessage:
			_ = s.relay.Send(protocol.NewAck(string(data)))
		}
	}
}

// handleAudio processes one inbound audio frame. Zero-length frames are
// keep-alives: they never reach the recognizer and are not acknowledged,
// but queued transcript events still flush through the forward loop.
func (s *Session) handleAudio(data []byte) {
	if len(data) == 0 {
		return
	}
	s.audioBytes.Add(int64(len(data)))

	if s.capture != nil {
		if err := s.capture.Write(data); err != nil {
			s.logger.Warn("capture write failed", "error", err)
			_ = s.capture.Close()
			s.capture = nil
		}
	}

	if s.sttSession != nil {
		if err := s.sttSession.SendAudio(data); err != nil {
			s.logger.Warn("forward audio to recognizer", "error", err)
		}
	}

	_ = s.relay.Send(protocol.NewAudioReceived(len(data), s.audioBytes.Load()))
}

// forward is the single consumer of the transcript queue. It relays
// interim and final transcripts in order and triggers generation on turn
// boundaries. When the queue is empty it sleeps one poll interval, which
// bounds event latency.
func (s *Session) forward() {
	var pendingFinal string
	var finalAt time.Time

	for {
		if s.ctx.Err() != nil {
			return
		}

		events := s.queue.DrainAll()
		if len(events) == 0 {
			if pendingFinal != "" && time.Since(finalAt) >= s.cfg.TurnEndFallback {
				// The recognizer settled a transcript but never closed
				// the turn; treat the silence as the boundary.
				s.startTurn(pendingFinal)
				pendingFinal = ""
			}
			select {
			case <-s.ctx.Done():
				return
			case <-time.After(s.cfg.PollInterval):
			}
			continue
		}

		for _, ev := range events {
			switch ev.Kind {
			case stt.EventPartial:
				_ = s.relay.Send(protocol.NewTranscript(false, ev.Text))
			case stt.EventFinal:
				_ = s.relay.Send(protocol.NewTranscript(true, ev.Text))
				pendingFinal = ev.Text
				finalAt = time.Now()
			case stt.EventTurnEnd:
				pendingFinal = ""
				s.startTurn(ev.Text)
			case stt.EventError:
				message := "speech recognition failed"
				if ev.Err != nil {
					message = ev.Err.Error()
				}
				_ = s.relay.Send(protocol.NewError(message))
			}
		}
	}
}

func (s *Session) persistHistory() {
	if s.deps.History == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.deps.History.Save(ctx, s.conv.export()); err != nil {
		s.logger.Warn("persist history", "error", err)
	}
}

// teardown runs every shutdown step regardless of earlier failures, each
// bounded so a stuck collaborator cannot wedge the session goroutine.
func (s *Session) teardown() {
	s.teardownOnce.Do(func() {
		// Let a running turn flush synthesis before the writers stop.
		if task := s.activeTurn.Load(); task != nil {
			if task.cancel != nil {
				task.cancel()
			}
			select {
			case <-task.done:
			case <-time.After(s.cfg.TeardownTimeout):
				s.logger.Warn("turn did not stop before teardown deadline")
			}
		}

		s.cancel()

		if s.sttSession != nil {
			if err := s.sttSession.Close(); err != nil {
				s.logger.Warn("close recognizer", "error", err)
			}
		}
		if s.capture != nil {
			if err := s.capture.Close(); err != nil {
				s.logger.Warn("close capture file", "error", err)
			}
		}
		s.persistHistory()

		done := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(s.cfg.TeardownTimeout):
			s.logger.Warn("teardown deadline exceeded")
		}

		s.logger.Info("session closed",
			"messages", s.conv.len(),
			"audio_bytes", s.audioBytes.Load(),
			"dropped_events", s.queue.Dropped(),
		)
	})
}
