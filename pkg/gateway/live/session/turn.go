package session

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/voxkit-go/voxkit/pkg/core/llm"
	"github.com/voxkit-go/voxkit/pkg/core/voice/tts"
	"github.com/voxkit-go/voxkit/pkg/gateway/live/protocol"
)

// TaskState is the lifecycle state of one generation task.
type TaskState int32

const (
	TaskRunning TaskState = iota
	TaskCompleted
	TaskCancelled
	TaskFailed
)

func (s TaskState) String() string {
	switch s {
	case TaskRunning:
		return "running"
	case TaskCompleted:
		return "completed"
	case TaskCancelled:
		return "cancelled"
	case TaskFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// turnTask is one generation pass. At most one per session holds the
// activeTurn slot at a time.
type turnTask struct {
	state     atomic.Int32
	cancel    context.CancelFunc
	done      chan struct{}
	audioDone chan struct{}
}

func (t *turnTask) setState(s TaskState) { t.state.Store(int32(s)) }

func (t *turnTask) State() TaskState { return TaskState(t.state.Load()) }

// startTurn attempts to claim the generation slot for a finished user
// turn. A turn that arrives while another is running is dropped, not
// queued: the client hears one reply at a time.
func (s *Session) startTurn(transcript string) bool {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return false
	}

	ctx, cancel := context.WithCancel(s.ctx)
	task := &turnTask{done: make(chan struct{}), cancel: cancel}
	task.state.Store(int32(TaskRunning))

	// cancel is set before the task is published so teardown can always
	// stop whatever it observes in the slot.
	if !s.activeTurn.CompareAndSwap(nil, task) {
		cancel()
		s.logger.Debug("turn dropped", "reason", "generation in progress")
		return false
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.activeTurn.CompareAndSwap(task, nil)
		defer close(task.done)
		defer cancel()
		s.runTurn(ctx, task, transcript)
	}()
	return true
}

func (s *Session) runTurn(ctx context.Context, task *turnTask, transcript string) {
	s.conv.appendUser(transcript)

	var synth *tts.StreamingContext
	if s.deps.TTS != nil {
		sc, err := s.deps.TTS.NewStreamingContext(ctx, tts.StreamingContextOptions{Voice: s.cfg.Voice})
		if err != nil {
			s.logger.Warn("open synthesis context", "error", err)
		} else {
			synth = sc
			task.audioDone = make(chan struct{})
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				defer close(task.audioDone)
				s.pumpAudio(ctx, sc)
			}()
		}
	}

	stream, err := s.deps.LLM.Stream(ctx, llm.Request{
		Messages: s.conv.snapshot(),
		Persona:  s.conv.getPersona(),
		Model:    s.cfg.Model,
	})
	if err != nil {
		s.finishTurn(ctx, task, synth, "", fmt.Errorf("start generation: %w", err))
		return
	}
	defer stream.Close()

	var reply strings.Builder
	for {
		token, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.finishTurn(ctx, task, synth, reply.String(), err)
			return
		}
		reply.WriteString(token)
		_ = s.relay.Send(protocol.NewLLMChunk(token))
		if synth != nil {
			if err := synth.SendText(token); err != nil && !errors.Is(err, tts.ErrContextClosed) {
				s.logger.Warn("synthesis send", "error", err)
			}
		}
	}
	s.finishTurn(ctx, task, synth, reply.String(), nil)
}

// finishTurn closes out a generation pass. Synthesis is flushed on every
// path, including error and cancel, so buffered text is not abandoned
// mid-utterance.
func (s *Session) finishTurn(ctx context.Context, task *turnTask, synth *tts.StreamingContext, reply string, genErr error) {
	if synth != nil {
		if err := synth.Flush(); err != nil && !errors.Is(err, tts.ErrContextClosed) {
			s.logger.Warn("synthesis flush", "error", err)
		}
		if task.audioDone != nil {
			select {
			case <-task.audioDone:
			case <-time.After(s.cfg.SynthFlushTimeout):
				s.logger.Warn("synthesis drain timed out")
			}
		}
		_ = synth.Close()
		if err := synth.Err(); err != nil {
			s.logger.Warn("synthesis", "error", err)
		}
	}

	switch {
	case genErr == nil:
		s.conv.appendAssistant(reply)
		s.persistHistory()
		if synth == nil && s.deps.TTS != nil && reply != "" {
			s.sendFallbackAudio(ctx, reply)
		}
		_ = s.relay.Send(protocol.NewComplete())
		task.setState(TaskCompleted)
		s.logger.Info("turn completed", "reply_chars", len(reply))
	case ctx.Err() != nil:
		task.setState(TaskCancelled)
		s.logger.Info("turn cancelled")
	default:
		_ = s.relay.Send(protocol.NewError("generation failed"))
		task.setState(TaskFailed)
		s.logger.Warn("turn failed", "error", genErr)
	}
}

// sendFallbackAudio covers the degraded path where no streaming
// synthesis context could be opened: the full reply is synthesized in
// one shot and the client gets a hosted audio URL instead of chunks.
func (s *Session) sendFallbackAudio(ctx context.Context, reply string) {
	synth, err := s.deps.TTS.Synthesize(ctx, reply, tts.SynthesizeOptions{Voice: s.cfg.Voice})
	if err != nil {
		s.logger.Warn("fallback synthesis", "error", err)
		return
	}
	_ = s.relay.Send(protocol.NewAudioReady(synth.AudioURL))
}

// pumpAudio forwards synthesized audio chunks to the client until the
// context ends or the utterance completes.
func (s *Session) pumpAudio(ctx context.Context, synth *tts.StreamingContext) {
	for {
		select {
		case chunk, ok := <-synth.Audio():
			if !ok {
				return
			}
			encoded := base64.StdEncoding.EncodeToString(chunk)
			timestamp := float64(time.Now().UnixNano()) / float64(time.Second)
			_ = s.relay.Send(protocol.NewAudioChunk(encoded, timestamp))
		case <-ctx.Done():
			return
		}
	}
}
