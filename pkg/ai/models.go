// ABOUTME: Built-in model definitions for the three supported provider families
// ABOUTME: Unknown IDs resolve through ParseModelRef with a provider prefix

package ai

import (
	"fmt"
	"strings"
)

// Built-in model definitions.
var (
	ModelGPT4o = Model{
		ID:              "gpt-4o",
		Name:            "GPT-4o",
		Api:             ApiOpenAI,
		MaxTokens:       128000,
		MaxOutputTokens: 16384,
	}

	ModelGPT4oMini = Model{
		ID:              "gpt-4o-mini",
		Name:            "GPT-4o Mini",
		Api:             ApiOpenAI,
		MaxTokens:       128000,
		MaxOutputTokens: 16384,
	}

	ModelClaudeSonnet = Model{
		ID:              "claude-sonnet-4-5",
		Name:            "Claude Sonnet 4.5",
		Api:             ApiAnthropic,
		MaxTokens:       200000,
		MaxOutputTokens: 16384,
	}

	ModelClaudeHaiku = Model{
		ID:              "claude-haiku-4-5",
		Name:            "Claude Haiku 4.5",
		Api:             ApiAnthropic,
		MaxTokens:       200000,
		MaxOutputTokens: 8192,
	}

	ModelGemini25Pro = Model{
		ID:              "gemini-2.5-pro",
		Name:            "Gemini 2.5 Pro",
		Api:             ApiGoogle,
		MaxTokens:       1000000,
		MaxOutputTokens: 65536,
	}

	ModelGemini25Flash = Model{
		ID:              "gemini-2.5-flash",
		Name:            "Gemini 2.5 Flash",
		Api:             ApiGoogle,
		MaxTokens:       1000000,
		MaxOutputTokens: 65536,
	}
)

// BuiltinModels returns all built-in model definitions.
func BuiltinModels() []Model {
	return []Model{
		ModelGPT4o,
		ModelGPT4oMini,
		ModelClaudeSonnet,
		ModelClaudeHaiku,
		ModelGemini25Pro,
		ModelGemini25Flash,
	}
}

var modelIndex = func() map[string]*Model {
	models := BuiltinModels()
	idx := make(map[string]*Model, len(models))
	for i := range models {
		idx[models[i].ID] = &models[i]
	}
	return idx
}()

// FindModel looks up a model by ID from the built-in list.
// Returns nil if not found.
func FindModel(id string) *Model {
	return modelIndex[id]
}

// ParseApi maps a provider name to its protocol family. OpenAI-compatible
// servers (ollama, vllm, groq, openrouter) share Family A.
func ParseApi(name string) (Api, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "openai", "ollama", "vllm", "groq", "openrouter":
		return ApiOpenAI, nil
	case "anthropic":
		return ApiAnthropic, nil
	case "google", "gemini":
		return ApiGoogle, nil
	default:
		return "", fmt.Errorf("unknown provider %q", name)
	}
}

// ResolveModel finds a model by ID. Provider-prefixed IDs ("ollama:llama3")
// and unknown IDs with an explicit provider produce a custom definition.
func ResolveModel(provider, id string) (*Model, error) {
	if id == "" {
		return nil, fmt.Errorf("model id is required")
	}
	if prefix, rest, ok := strings.Cut(id, ":"); ok {
		provider, id = prefix, rest
	}
	if m := FindModel(id); m != nil && (provider == "" || mustApi(provider) == m.Api) {
		cp := *m
		return &cp, nil
	}
	if provider == "" {
		return nil, fmt.Errorf("unknown model %q: set a provider", id)
	}
	api, err := ParseApi(provider)
	if err != nil {
		return nil, err
	}
	return &Model{
		ID:              id,
		Name:            id,
		Api:             api,
		MaxTokens:       128000,
		MaxOutputTokens: 4096,
	}, nil
}

func mustApi(provider string) Api {
	api, _ := ParseApi(provider)
	return api
}
