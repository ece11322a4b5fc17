package history

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreGetAbsent(t *testing.T) {
	s := NewMemory()
	conv, err := s.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if conv != nil {
		t.Fatalf("conv=%+v, want nil", conv)
	}
}

func TestMemoryStoreSaveGetDelete(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	in := &Conversation{
		ID:      "s_abc",
		Persona: "pirate",
		Messages: []Message{
			{Role: "user", Content: "hello", Timestamp: time.Now()},
			{Role: "assistant", Content: "arrr", Timestamp: time.Now()},
		},
	}
	if err := s.Save(ctx, in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Get(ctx, "s_abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("Get returned nil after Save")
	}
	if got.Persona != "pirate" {
		t.Fatalf("persona=%q, want pirate", got.Persona)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("len(messages)=%d, want 2", len(got.Messages))
	}
	if got.UpdatedAt.IsZero() {
		t.Fatal("UpdatedAt not set on save")
	}

	if err := s.Delete(ctx, "s_abc"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, err = s.Get(ctx, "s_abc")
	if err != nil {
		t.Fatalf("Get after delete: %v", err)
	}
	if got != nil {
		t.Fatalf("conv=%+v after delete, want nil", got)
	}
}

func TestMemoryStoreCopyIsolation(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	in := &Conversation{ID: "s_x", Messages: []Message{{Role: "user", Content: "one"}}}
	if err := s.Save(ctx, in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Mutating the caller's copy must not affect the stored conversation.
	in.Messages[0].Content = "mutated"
	in.Persona = "robot"

	got, err := s.Get(ctx, "s_x")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Messages[0].Content != "one" {
		t.Fatalf("stored content=%q, want %q", got.Messages[0].Content, "one")
	}
	if got.Persona != "" {
		t.Fatalf("stored persona=%q, want empty", got.Persona)
	}

	// Mutating a returned copy must not affect later reads.
	got.Messages[0].Content = "mutated again"
	got2, err := s.Get(ctx, "s_x")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got2.Messages[0].Content != "one" {
		t.Fatalf("stored content=%q after read mutation, want %q", got2.Messages[0].Content, "one")
	}
}

func TestMemoryStoreDeleteAbsent(t *testing.T) {
	s := NewMemory()
	if err := s.Delete(context.Background(), "missing"); err != nil {
		t.Fatalf("Delete absent: %v", err)
	}
}
