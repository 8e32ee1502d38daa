// ABOUTME: Tests for environment variable expansion and API key resolution
// ABOUTME: Validates ${VAR} replacement and the config > env > auth store order

package config

import (
	"path/filepath"
	"testing"
)

func TestExpandEnv(t *testing.T) {
	t.Setenv("TEST_MODEL", "claude-sonnet")
	t.Setenv("MY_HOST", "localhost")

	tests := []struct {
		in, want string
	}{
		{"${TEST_MODEL}", "claude-sonnet"},
		{"${DEFINITELY_NOT_SET_12345}", ""},
		{"https://${MY_HOST}:8080/v1", "https://localhost:8080/v1"},
		{"plain string", "plain string"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := expandEnv(tt.in); got != tt.want {
			t.Errorf("expandEnv(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolveEnvVars_ToolFields(t *testing.T) {
	t.Setenv("TOOLS_HOME", "/opt/tools")
	t.Setenv("TOOL_TOKEN", "tok")

	s := &Settings{Tools: []ToolSpec{{
		Name:    "lookup",
		Command: "${TOOLS_HOME}/lookup",
		Args:    []string{"--root=${TOOLS_HOME}"},
		Env:     map[string]string{"TOKEN": "${TOOL_TOKEN}"},
	}}}
	ResolveEnvVars(s)

	tool := s.Tools[0]
	if tool.Command != "/opt/tools/lookup" {
		t.Errorf("Command = %q", tool.Command)
	}
	if tool.Args[0] != "--root=/opt/tools" {
		t.Errorf("Args = %v", tool.Args)
	}
	if tool.Env["TOKEN"] != "tok" {
		t.Errorf("Env = %v", tool.Env)
	}
}

func TestAPIKeyEnvVars(t *testing.T) {
	t.Parallel()

	tests := []struct {
		provider string
		want     []string
	}{
		{"openai", []string{"TOOLAGENT_API_KEY", "OPENAI_API_KEY"}},
		{"groq", []string{"TOOLAGENT_API_KEY", "GROQ_API_KEY", "OPENAI_API_KEY"}},
		{"anthropic", []string{"TOOLAGENT_API_KEY", "ANTHROPIC_API_KEY"}},
		{"gemini", []string{"TOOLAGENT_API_KEY", "GOOGLE_API_KEY", "GEMINI_API_KEY"}},
		{"acme", nil},
	}
	for _, tt := range tests {
		got := APIKeyEnvVars(tt.provider)
		if len(got) != len(tt.want) {
			t.Errorf("%s: got %v, want %v", tt.provider, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%s: got %v, want %v", tt.provider, got, tt.want)
				break
			}
		}
	}
}

func TestResolveAPIKey(t *testing.T) {
	t.Setenv("TOOLAGENT_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	auth, err := LoadAuth(filepath.Join(t.TempDir(), "auth.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	auth.SetKey("anthropic", "from-auth")

	s := &Settings{Provider: "anthropic"}
	if got := ResolveAPIKey(s, auth); got != "from-auth" {
		t.Errorf("auth fallback = %q", got)
	}

	t.Setenv("ANTHROPIC_API_KEY", "from-env")
	if got := ResolveAPIKey(s, auth); got != "from-env" {
		t.Errorf("env = %q", got)
	}

	s.APIKey = "from-config"
	if got := ResolveAPIKey(s, auth); got != "from-config" {
		t.Errorf("config = %q", got)
	}

	if got := ResolveAPIKey(&Settings{Provider: "acme"}, nil); got != "" {
		t.Errorf("unknown provider = %q", got)
	}
}
