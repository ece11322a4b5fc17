// Package protocol defines the JSON envelope exchanged with live voice
// session clients. Every server-to-client text frame is one event with a
// "type" discriminator; binary client frames carry raw audio.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Server-to-client event types.
const (
	TypeReady         = "ready"
	TypeAudioReceived = "audio_received"
	TypeTranscript    = "transcript"
	TypeTurnEnd       = "turn_end" // internal pipeline event, never relayed
	TypeLLMChunk      = "llm_chunk"
	TypeAudioChunk    = "audio_chunk"
	TypeAudioReady    = "audio_ready"
	TypeComplete      = "complete"
	TypeError         = "error"
	TypeAck           = "ack"
)

// ReadyEvent tells the client the session is accepting audio.
type ReadyEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewReady builds a ready event.
func NewReady(message string) ReadyEvent {
	return ReadyEvent{Type: TypeReady, Message: message}
}

// AudioReceivedEvent acknowledges one inbound audio frame.
type AudioReceivedEvent struct {
	Type          string `json:"type"`
	BytesReceived int    `json:"bytes_received"`
	TotalFileSize int64  `json:"total_file_size"`
}

// NewAudioReceived builds an audio acknowledgement.
func NewAudioReceived(bytesReceived int, totalFileSize int64) AudioReceivedEvent {
	return AudioReceivedEvent{Type: TypeAudioReceived, BytesReceived: bytesReceived, TotalFileSize: totalFileSize}
}

// TranscriptEvent carries an interim or final transcript.
type TranscriptEvent struct {
	Type    string `json:"type"`
	Final   bool   `json:"final"`
	Content string `json:"content"`
}

// NewTranscript builds a transcript event.
func NewTranscript(final bool, content string) TranscriptEvent {
	return TranscriptEvent{Type: TypeTranscript, Final: final, Content: content}
}

// LLMChunkEvent carries one generated text increment.
type LLMChunkEvent struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// NewLLMChunk builds a generation chunk event.
func NewLLMChunk(content string) LLMChunkEvent {
	return LLMChunkEvent{Type: TypeLLMChunk, Content: content}
}

// AudioChunkEvent carries one synthesized audio chunk.
type AudioChunkEvent struct {
	Type        string  `json:"type"`
	Base64Audio string  `json:"base64_audio"`
	Timestamp   float64 `json:"timestamp"`
}

// NewAudioChunk builds a synthesized audio event.
func NewAudioChunk(base64Audio string, timestamp float64) AudioChunkEvent {
	return AudioChunkEvent{Type: TypeAudioChunk, Base64Audio: base64Audio, Timestamp: timestamp}
}

// AudioReadyEvent carries a hosted audio file URL.
type AudioReadyEvent struct {
	Type     string `json:"type"`
	AudioURL string `json:"audio_url"`
}

// NewAudioReady builds an audio-ready event.
func NewAudioReady(audioURL string) AudioReadyEvent {
	return AudioReadyEvent{Type: TypeAudioReady, AudioURL: audioURL}
}

// CompleteEvent marks the end of one assistant turn.
type CompleteEvent struct {
	Type string `json:"type"`
}

// NewComplete builds a turn-complete event.
func NewComplete() CompleteEvent {
	return CompleteEvent{Type: TypeComplete}
}

// ErrorEvent reports a pipeline failure to the client.
type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewError builds an error event.
func NewError(message string) ErrorEvent {
	return ErrorEvent{Type: TypeError, Message: message}
}

// AckEvent echoes a client control frame.
type AckEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewAck builds an ack event.
func NewAck(message string) AckEvent {
	return AckEvent{Type: TypeAck, Message: message}
}

// Encode marshals an event for the wire.
func Encode(event any) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return data, nil
}

// EventType extracts the type discriminator from an encoded frame.
// Useful for tests and clients.
func EventType(frame []byte) (string, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(frame, &envelope); err != nil {
		return "", fmt.Errorf("decode event envelope: %w", err)
	}
	if envelope.Type == "" {
		return "", fmt.Errorf("event missing type")
	}
	return envelope.Type, nil
}
