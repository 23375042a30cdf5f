package chat

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"bunnyfocus/internal/catalog"
)

var testItems = []catalog.Item{
	{ID: "bunny_apple", Name: "Apple Bunny", UnlockStreak: 0, Description: "Crunchy."},
	{ID: "bunny_moon", Name: "Moon Bunny", UnlockStreak: 3},
}

func TestAskReturnsReply(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","created":1,"model":"test-model",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"  You've got this!  "}}]}`)
	}))
	defer srv.Close()

	p := New(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1", Model: "test-model"})
	reply, err := p.Ask(context.Background(), "I feel stuck", testItems)
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if reply != "You've got this!" {
		t.Fatalf("reply = %q", reply)
	}
	for _, want := range []string{`"test-model"`, "I feel stuck", "bunny_moon", "3-day streak"} {
		if !strings.Contains(body, want) {
			t.Fatalf("request body missing %q: %s", want, body)
		}
	}
}

func TestAskUpstreamErrorIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":{"message":"boom","type":"server_error"}}`)
	}))
	defer srv.Close()

	p := New(Config{APIKey: "test-key", BaseURL: srv.URL})
	if _, err := p.Ask(context.Background(), "hello", testItems); err == nil {
		t.Fatal("expected error")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("upstream called %d times, want 1", n)
	}
}

func TestAskEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","created":1,"model":"m","choices":[]}`)
	}))
	defer srv.Close()

	p := New(Config{APIKey: "test-key", BaseURL: srv.URL})
	if _, err := p.Ask(context.Background(), "hello", nil); !errors.Is(err, ErrNoReply) {
		t.Fatalf("err = %v, want ErrNoReply", err)
	}
}

func TestAskValidatesMessage(t *testing.T) {
	p := New(Config{APIKey: "k", BaseURL: "http://127.0.0.1:1"})
	if _, err := p.Ask(context.Background(), "   ", nil); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("err = %v, want ErrEmptyMessage", err)
	}
	long := strings.Repeat("a", MaxMessageLength+1)
	if _, err := p.Ask(context.Background(), long, nil); !errors.Is(err, ErrMessageTooLong) {
		t.Fatalf("err = %v, want ErrMessageTooLong", err)
	}
}

func TestSystemPromptListsItems(t *testing.T) {
	prompt := SystemPrompt(testItems)
	if !strings.Contains(prompt, "Apple Bunny (bunny_apple): unlocks at a 0-day streak. Crunchy.") {
		t.Fatalf("prompt missing apple line: %s", prompt)
	}
	if strings.Contains(SystemPrompt(nil), "Bunnies in the collection") {
		t.Fatal("empty catalog should not list bunnies")
	}
}
