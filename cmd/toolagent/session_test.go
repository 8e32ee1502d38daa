// ABOUTME: End-to-end wiring test: settings -> provider -> agent -> memory tools over a fake OpenAI server
// ABOUTME: Also covers command tool registration from config

package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mauromedda/toolagent-go/internal/config"
)

func TestBuildRegistry(t *testing.T) {
	t.Parallel()

	reg, err := buildRegistry([]config.ToolSpec{
		{Name: "lookup", Command: "cat", Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{"q": map[string]any{"type": "string"}},
		}},
		{Name: "now", Command: "date"},
	})
	if err != nil {
		t.Fatalf("buildRegistry: %v", err)
	}
	if got := strings.Join(reg.Names(), ","); got != "lookup,now" {
		t.Errorf("names = %s", got)
	}

	if _, err := buildRegistry([]config.ToolSpec{{Name: "broken"}}); err == nil {
		t.Error("expected error for a tool without command")
	}
}

func TestSessionRemembersThroughOpenAIServer(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Messages []struct {
				Role string `json:"role"`
			} `json:"messages"`
			Tools []struct {
				Function struct {
					Name string `json:"name"`
				} `json:"function"`
			} `json:"tools"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("bad request body: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		switch calls.Add(1) {
		case 1:
			var names []string
			for _, tool := range req.Tools {
				names = append(names, tool.Function.Name)
			}
			if got := strings.Join(names, ","); got != "forget,recall,remember" {
				t.Errorf("advertised tools = %s", got)
			}
			_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":null,"tool_calls":[
				{"id":"call_1","type":"function","function":{"name":"remember","arguments":"{\"content\":\"likes tea\",\"key\":\"drink\"}"}}]},
				"finish_reason":"tool_calls"}]}`))
		default:
			if last := req.Messages[len(req.Messages)-1].Role; last != "tool" {
				t.Errorf("last message role = %s, want tool", last)
			}
			_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Noted."},"finish_reason":"stop"}]}`))
		}
	}))
	t.Cleanup(srv.Close)

	s := &config.Settings{
		Provider:       "openai",
		Model:          "gpt-4o-mini",
		BaseURL:        srv.URL,
		APIKey:         "test-key",
		RequestTimeout: 5 * time.Second,
		MemoryDir:      t.TempDir(),
	}
	s.ApplyDefaults()

	sess, err := newSession(context.Background(), s, nil, true)
	if err != nil {
		t.Fatalf("newSession: %v", err)
	}

	answer, err := sess.agent.Converse(context.Background(), "remember that I like tea")
	if err != nil {
		t.Fatal(err)
	}
	if answer != "Noted." {
		t.Errorf("answer = %q", answer)
	}
	if !strings.Contains(sess.memory.FormatForPrompt(), "# Memory: drink\nlikes tea") {
		t.Errorf("memory = %q", sess.memory.FormatForPrompt())
	}

	if err := sess.agent.Reset(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := len(sess.memory.Sessions()); n != 1 {
		t.Errorf("saved sessions = %d, want 1", n)
	}
}

func TestNewSessionUnknownProvider(t *testing.T) {
	t.Parallel()

	s := &config.Settings{Provider: "acme", Model: "x"}
	s.ApplyDefaults()
	if _, err := newSession(context.Background(), s, nil, false); err == nil {
		t.Error("expected error")
	}
}
