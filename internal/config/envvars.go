// ABOUTME: Environment variable expansion in config string fields
// ABOUTME: Replaces ${VAR} patterns with os.Getenv values; unset vars become empty

package config

import (
	"os"
	"regexp"
	"strings"

	"github.com/mauromedda/toolagent-go/pkg/ai"
)

var envVarPattern = regexp.MustCompile(`\$\{(\w+)\}`)

// ResolveEnvVars expands ${VAR} patterns in string fields of Settings.
func ResolveEnvVars(s *Settings) {
	s.Provider = expandEnv(s.Provider)
	s.Model = expandEnv(s.Model)
	s.BaseURL = expandEnv(s.BaseURL)
	s.APIKey = expandEnv(s.APIKey)
	s.SystemPrompt = expandEnv(s.SystemPrompt)
	s.MemoryDir = expandEnv(s.MemoryDir)

	for i := range s.Tools {
		t := &s.Tools[i]
		t.Command = expandEnv(t.Command)
		t.Dir = expandEnv(t.Dir)
		for j, a := range t.Args {
			t.Args[j] = expandEnv(a)
		}
		for k, v := range t.Env {
			t.Env[k] = expandEnv(v)
		}
	}
}

// expandEnv replaces ${VAR} with os.Getenv(VAR). Unset vars become "".
func expandEnv(s string) string {
	if s == "" {
		return s
	}
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// APIKeyEnvVars lists the conventional environment variables holding the
// key for provider, in lookup order.
func APIKeyEnvVars(provider string) []string {
	api, err := ai.ParseApi(provider)
	if err != nil {
		return nil
	}
	vars := []string{"TOOLAGENT_API_KEY"}
	switch strings.ToLower(provider) {
	case "groq":
		vars = append(vars, "GROQ_API_KEY")
	case "openrouter":
		vars = append(vars, "OPENROUTER_API_KEY")
	}
	switch api {
	case ai.ApiOpenAI:
		vars = append(vars, "OPENAI_API_KEY")
	case ai.ApiAnthropic:
		vars = append(vars, "ANTHROPIC_API_KEY")
	case ai.ApiGoogle:
		vars = append(vars, "GOOGLE_API_KEY", "GEMINI_API_KEY")
	}
	return vars
}

// ResolveAPIKey returns the key to use: the configured value, then the
// environment, then the auth store. auth may be nil.
func ResolveAPIKey(s *Settings, auth *AuthStore) string {
	if s.APIKey != "" {
		return s.APIKey
	}
	for _, env := range APIKeyEnvVars(s.Provider) {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}
	if auth != nil {
		return auth.Key(s.Provider)
	}
	return ""
}
