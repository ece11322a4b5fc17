package session

import (
	"context"
	"errors"
	"time"

	"github.com/gorilla/websocket"

	"github.com/voxkit-go/voxkit/pkg/gateway/live/protocol"
)

// wsConn is the subset of *websocket.Conn the session uses, split out so
// tests can substitute a fake connection.
type wsConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

var errRelayClosed = errors.New("relay closed")

// relay serializes every outbound frame through one writer goroutine so
// events reach the client in submission order regardless of which
// pipeline stage produced them.
type relay struct {
	ws           wsConn
	ctx          context.Context
	pingInterval time.Duration
	writeTimeout time.Duration
	frames       chan []byte
}

func newRelay(ctx context.Context, ws wsConn, pingInterval, writeTimeout time.Duration) *relay {
	if pingInterval <= 0 {
		pingInterval = 20 * time.Second
	}
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	return &relay{
		ws:           ws,
		ctx:          ctx,
		pingInterval: pingInterval,
		writeTimeout: writeTimeout,
		frames:       make(chan []byte, 256),
	}
}

// Send encodes event and queues it for the writer. It fails once the
// session is torn down; queued frames not yet written are discarded at
// teardown.
func (r *relay) Send(event any) error {
	data, err := protocol.Encode(event)
	if err != nil {
		return err
	}
	select {
	case <-r.ctx.Done():
		return errRelayClosed
	default:
	}
	select {
	case r.frames <- data:
		return nil
	case <-r.ctx.Done():
		return errRelayClosed
	}
}

// Run drains the frame queue to the websocket until the context is
// canceled or a write fails. The first write failure is returned so the
// session can tear down; a canceled context yields a clean close frame.
func (r *relay) Run() error {
	pingTicker := time.NewTicker(r.pingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			deadline := time.Now().Add(r.writeTimeout)
			_ = r.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			_ = r.ws.Close()
			return nil
		case <-pingTicker.C:
			deadline := time.Now().Add(r.writeTimeout)
			if err := r.ws.WriteControl(websocket.PingMessage, []byte("ping"), deadline); err != nil {
				return err
			}
		case data := <-r.frames:
			if err := r.writeFrame(data); err != nil {
				return err
			}
		}
	}
}

func (r *relay) writeFrame(data []byte) error {
	if err := r.ws.SetWriteDeadline(time.Now().Add(r.writeTimeout)); err != nil {
		return err
	}
	return r.ws.WriteMessage(websocket.TextMessage, data)
}
