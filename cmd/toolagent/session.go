// ABOUTME: Wires settings into a running agent: provider, tool registry and memory store
// ABOUTME: Command tools come from config; memory tools are added when memory is enabled

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/mauromedda/toolagent-go/internal/agent"
	"github.com/mauromedda/toolagent-go/internal/config"
	"github.com/mauromedda/toolagent-go/internal/memory"
	"github.com/mauromedda/toolagent-go/internal/tools"
	"github.com/mauromedda/toolagent-go/pkg/ai"
)

// localBaseURLs are the defaults for OpenAI-compatible servers.
var localBaseURLs = map[string]string{
	"ollama":     "http://localhost:11434/v1",
	"vllm":       "http://localhost:8000/v1",
	"groq":       "https://api.groq.com/openai/v1",
	"openrouter": "https://openrouter.ai/api/v1",
}

type session struct {
	agent    *agent.Agent
	model    *ai.Model
	registry *tools.Registry
	memory   *memory.Store
}

func newSession(ctx context.Context, s *config.Settings, auth *config.AuthStore, withMemory bool) (*session, error) {
	model, err := ai.ResolveModel(s.Provider, s.Model)
	if err != nil {
		return nil, err
	}

	baseURL := s.BaseURL
	if baseURL == "" {
		baseURL = localBaseURLs[strings.ToLower(s.Provider)]
	}
	provider := ai.GetProvider(model.Api, ai.ProviderConfig{
		APIKey:  config.ResolveAPIKey(s, auth),
		BaseURL: baseURL,
		Timeout: s.RequestTimeout,
	})
	if provider == nil {
		return nil, fmt.Errorf("no provider registered for %s", model.Api)
	}

	reg, err := buildRegistry(s.Tools)
	if err != nil {
		return nil, err
	}

	sess := &session{model: model, registry: reg}
	var mem agent.Memory
	if withMemory {
		store, err := memory.Open(ctx, s.MemoryDir)
		if err != nil {
			return nil, err
		}
		for _, t := range memory.Tools(store) {
			if err := reg.Register(t); err != nil {
				return nil, err
			}
		}
		sess.memory = store
		mem = store
	}

	sess.agent, err = agent.New(agent.Config{
		Provider:               provider,
		Model:                  model,
		Executor:               reg,
		Tools:                  reg.Definitions(),
		MaxIterations:          s.MaxIterations,
		HistoryLimit:           s.HistoryLimit,
		SystemPrompt:           s.SystemPrompt,
		ToolsUnsupportedModels: s.ToolsUnsupportedModels,
		Memory:                 mem,
		Options:                &ai.Options{MaxTokens: s.MaxTokens, Temperature: s.Temperature},
	})
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// buildRegistry registers one command tool per configured entry.
func buildRegistry(specs []config.ToolSpec) (*tools.Registry, error) {
	reg := tools.NewRegistry()
	for _, spec := range specs {
		t, err := tools.NewCommandTool(tools.CommandSpec{
			Name:        spec.Name,
			Description: spec.Description,
			Parameters:  spec.Parameters,
			Command:     spec.Command,
			Args:        spec.Args,
			Dir:         spec.Dir,
			Env:         spec.Env,
			Timeout:     spec.Timeout,
		})
		if err != nil {
			return nil, err
		}
		if err := reg.Register(t); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
