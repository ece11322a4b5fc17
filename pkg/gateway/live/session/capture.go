package session

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// captureFile records the raw inbound audio of one session to disk.
// Capture is diagnostic only: failures disable it without affecting the
// pipeline.
type captureFile struct {
	f    *os.File
	size int64
}

func newCaptureFile(dir, sessionID string) (*captureFile, error) {
	sessionDir := filepath.Join(dir, "session_"+sessionID)
	if err := os.MkdirAll(sessionDir, 0o755); err != nil {
		return nil, fmt.Errorf("create capture dir: %w", err)
	}
	name := fmt.Sprintf("streaming_audio_%d.pcm", time.Now().Unix())
	f, err := os.Create(filepath.Join(sessionDir, name))
	if err != nil {
		return nil, fmt.Errorf("create capture file: %w", err)
	}
	return &captureFile{f: f}, nil
}

func (c *captureFile) Write(data []byte) error {
	n, err := c.f.Write(data)
	c.size += int64(n)
	if err != nil {
		return fmt.Errorf("write capture: %w", err)
	}
	return nil
}

func (c *captureFile) Size() int64 {
	return c.size
}

func (c *captureFile) Close() error {
	return c.f.Close()
}
