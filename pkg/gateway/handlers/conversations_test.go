package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/voxkit-go/voxkit/pkg/gateway/history"
)

func convRequest(method, target, id, body string) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	r.SetPathValue("id", id)
	return r
}

func TestConversationsGetAbsent(t *testing.T) {
	h := ConversationsHandler{Store: history.NewMemory()}

	rec := httptest.NewRecorder()
	h.Get(rec, convRequest(http.MethodGet, "/v1/conversations/c1", "c1", ""))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d, want 404", rec.Code)
	}
}

func TestConversationsGetAndDelete(t *testing.T) {
	store := history.NewMemory()
	h := ConversationsHandler{Store: store}

	seed := &history.Conversation{
		ID:      "c1",
		Persona: "pirate",
		Messages: []history.Message{
			{Role: "user", Content: "ahoy"},
			{Role: "assistant", Content: "ahoy matey"},
		},
	}
	if err := store.Save(context.Background(), seed); err != nil {
		t.Fatalf("save: %v", err)
	}

	rec := httptest.NewRecorder()
	h.Get(rec, convRequest(http.MethodGet, "/v1/conversations/c1", "c1", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("get status=%d, want 200", rec.Code)
	}
	var conv history.Conversation
	if err := json.Unmarshal(rec.Body.Bytes(), &conv); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if conv.Persona != "pirate" || len(conv.Messages) != 2 {
		t.Fatalf("got persona=%q messages=%d", conv.Persona, len(conv.Messages))
	}

	rec = httptest.NewRecorder()
	h.Delete(rec, convRequest(http.MethodDelete, "/v1/conversations/c1", "c1", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status=%d, want 200", rec.Code)
	}
	var cleared map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &cleared); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cleared["status"] != "cleared" || cleared["id"] != "c1" {
		t.Fatalf("delete response=%v", cleared)
	}

	rec = httptest.NewRecorder()
	h.Get(rec, convRequest(http.MethodGet, "/v1/conversations/c1", "c1", ""))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status after delete=%d, want 404", rec.Code)
	}
}

func TestGetPersonaDefault(t *testing.T) {
	h := ConversationsHandler{Store: history.NewMemory()}

	rec := httptest.NewRecorder()
	h.GetPersona(rec, convRequest(http.MethodGet, "/v1/conversations/c1/persona", "c1", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", rec.Code)
	}
	var resp personaResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Persona != "default" {
		t.Fatalf("persona=%q, want default", resp.Persona)
	}
	if len(resp.Personas) == 0 {
		t.Fatal("personas list empty")
	}
}

func TestSetPersona(t *testing.T) {
	store := history.NewMemory()
	h := ConversationsHandler{Store: store}

	rec := httptest.NewRecorder()
	h.SetPersona(rec, convRequest(http.MethodPost, "/v1/conversations/c1/persona", "c1", `{"persona":"robot"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200: %s", rec.Code, rec.Body.String())
	}

	conv, err := store.Get(context.Background(), "c1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if conv == nil || conv.Persona != "robot" {
		t.Fatalf("stored conversation=%+v, want persona robot", conv)
	}

	rec = httptest.NewRecorder()
	h.GetPersona(rec, convRequest(http.MethodGet, "/v1/conversations/c1/persona", "c1", ""))
	var resp personaResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Persona != "robot" {
		t.Fatalf("persona=%q, want robot", resp.Persona)
	}
}

func TestSetPersonaUnknown(t *testing.T) {
	h := ConversationsHandler{Store: history.NewMemory()}

	rec := httptest.NewRecorder()
	h.SetPersona(rec, convRequest(http.MethodPost, "/v1/conversations/c1/persona", "c1", `{"persona":"wizard"}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", rec.Code)
	}
}

func TestSetPersonaBadJSON(t *testing.T) {
	h := ConversationsHandler{Store: history.NewMemory()}

	rec := httptest.NewRecorder()
	h.SetPersona(rec, convRequest(http.MethodPost, "/v1/conversations/c1/persona", "c1", "{not json"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", rec.Code)
	}
}
