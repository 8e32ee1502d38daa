// ABOUTME: CLI entry point for toolagent: flags, config, provider registration, REPL or one-shot
// ABOUTME: Flags override YAML config; env var sources follow the TOOLAGENT_* convention

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/mauromedda/toolagent-go/internal/config"
	pilog "github.com/mauromedda/toolagent-go/internal/log"
	"github.com/mauromedda/toolagent-go/pkg/ai"

	// Providers register themselves with ai.RegisterProvider.
	_ "github.com/mauromedda/toolagent-go/pkg/ai/provider/anthropic"
	_ "github.com/mauromedda/toolagent-go/pkg/ai/provider/google"
	_ "github.com/mauromedda/toolagent-go/pkg/ai/provider/openai"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:      "toolagent",
		Usage:     "chat with an LLM that can call your tools",
		Version:   fmt.Sprintf("%s (%s)", version, commit),
		ArgsUsage: "[prompt]",
		Flags:     globalFlags(),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("verbose") {
				pilog.SetLevel(pilog.LevelDebug)
			}
			return ctx, nil
		},
		Action: runChat,
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "print the effective configuration",
				Action: runConfig,
			},
			{
				Name:   "models",
				Usage:  "list built-in models",
				Action: runModels,
			},
			{
				Name:      "auth",
				Usage:     "store an API key for a provider",
				ArgsUsage: "<provider> [key]",
				Action:    runAuth,
			},
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "project config file (default ./.toolagent.yaml)", Sources: cli.EnvVars("TOOLAGENT_CONFIG")},
		&cli.StringFlag{Name: "provider", Aliases: []string{"p"}, Usage: "openai, anthropic, google, ollama, vllm, groq or openrouter", Sources: cli.EnvVars("TOOLAGENT_PROVIDER")},
		&cli.StringFlag{Name: "model", Aliases: []string{"m"}, Usage: "model id", Sources: cli.EnvVars("TOOLAGENT_MODEL")},
		&cli.StringFlag{Name: "base-url", Usage: "provider base URL", Sources: cli.EnvVars("TOOLAGENT_BASE_URL")},
		&cli.StringFlag{Name: "api-key", Usage: "provider API key", Sources: cli.EnvVars("TOOLAGENT_API_KEY")},
		&cli.IntFlag{Name: "max-iterations", Usage: "model calls per turn", Sources: cli.EnvVars("TOOLAGENT_MAX_ITERATIONS")},
		&cli.IntFlag{Name: "history-limit", Usage: "messages kept in history", Sources: cli.EnvVars("TOOLAGENT_HISTORY_LIMIT")},
		&cli.IntFlag{Name: "max-tokens", Usage: "output token cap per call", Sources: cli.EnvVars("TOOLAGENT_MAX_TOKENS")},
		&cli.FloatFlag{Name: "temperature", Usage: "sampling temperature", Sources: cli.EnvVars("TOOLAGENT_TEMPERATURE")},
		&cli.DurationFlag{Name: "timeout", Usage: "HTTP request timeout", Sources: cli.EnvVars("TOOLAGENT_TIMEOUT")},
		&cli.StringFlag{Name: "system", Usage: "system prompt", Sources: cli.EnvVars("TOOLAGENT_SYSTEM_PROMPT")},
		&cli.StringFlag{Name: "memory-dir", Usage: "memory directory", Sources: cli.EnvVars("TOOLAGENT_MEMORY_DIR")},
		&cli.BoolFlag{Name: "no-memory", Usage: "disable memory notes and session saving"},
		&cli.BoolFlag{Name: "stream", Aliases: []string{"s"}, Usage: "stream answers as they are generated", Sources: cli.EnvVars("TOOLAGENT_STREAM")},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "debug logging on stderr", Sources: cli.EnvVars("TOOLAGENT_VERBOSE")},
	}
}

// loadSettings merges config files with flags that were explicitly set.
func loadSettings(cmd *cli.Command) (*config.Settings, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	projectFile := config.ProjectConfigFile(cwd)
	if cmd.IsSet("config") {
		projectFile = cmd.String("config")
		if _, err := os.Stat(projectFile); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
	}

	s, err := config.LoadFiles(config.GlobalConfigFile(), projectFile)
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, s)
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return s, nil
}

func applyFlags(cmd *cli.Command, s *config.Settings) {
	if cmd.IsSet("provider") {
		s.Provider = cmd.String("provider")
	}
	if cmd.IsSet("model") {
		s.Model = cmd.String("model")
	}
	if cmd.IsSet("base-url") {
		s.BaseURL = cmd.String("base-url")
	}
	if cmd.IsSet("api-key") {
		s.APIKey = cmd.String("api-key")
	}
	if cmd.IsSet("max-iterations") {
		s.MaxIterations = cmd.Int("max-iterations")
	}
	if cmd.IsSet("history-limit") {
		s.HistoryLimit = cmd.Int("history-limit")
	}
	if cmd.IsSet("max-tokens") {
		s.MaxTokens = cmd.Int("max-tokens")
	}
	if cmd.IsSet("temperature") {
		s.Temperature = cmd.Float("temperature")
	}
	if cmd.IsSet("timeout") {
		s.RequestTimeout = cmd.Duration("timeout")
	}
	if cmd.IsSet("system") {
		s.SystemPrompt = cmd.String("system")
	}
	if cmd.IsSet("memory-dir") {
		s.MemoryDir = cmd.String("memory-dir")
	}
	if cmd.IsSet("stream") {
		stream := cmd.Bool("stream")
		s.Stream = &stream
	}
}

func runChat(ctx context.Context, cmd *cli.Command) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	auth, err := config.LoadAuth(config.AuthFile())
	if err != nil {
		return err
	}

	sess, err := newSession(ctx, s, auth, !cmd.Bool("no-memory"))
	if err != nil {
		return err
	}

	r := newREPL(sess.agent, os.Stdin, os.Stdout, s.Streaming())
	if cmd.Args().Len() > 0 {
		return r.oneShot(ctx, strings.Join(cmd.Args().Slice(), " "))
	}
	r.banner(sess)
	return r.run(ctx)
}

func runConfig(ctx context.Context, cmd *cli.Command) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.Root().Writer, config.Explain(s))
	return nil
}

func runModels(_ context.Context, cmd *cli.Command) error {
	models := ai.BuiltinModels()
	sort.Slice(models, func(i, j int) bool {
		if models[i].Api != models[j].Api {
			return models[i].Api < models[j].Api
		}
		return models[i].ID < models[j].ID
	})
	for _, m := range models {
		fmt.Fprintf(cmd.Root().Writer, "%-10s %-20s %s\n", m.Api, m.ID, m.Name)
	}
	return nil
}

func runAuth(_ context.Context, cmd *cli.Command) error {
	provider := cmd.Args().Get(0)
	if provider == "" {
		return errors.New("usage: toolagent auth <provider> [key]")
	}
	if _, err := ai.ParseApi(provider); err != nil {
		return err
	}
	key := cmd.Args().Get(1)

	store, err := config.LoadAuth(config.AuthFile())
	if err != nil {
		return err
	}
	store.SetKey(provider, key)
	if err := store.Save(); err != nil {
		return err
	}
	if key == "" {
		fmt.Fprintf(cmd.Root().Writer, "removed key for %s\n", provider)
	} else {
		fmt.Fprintf(cmd.Root().Writer, "saved key for %s (%s)\n", provider, config.MaskKey(key))
	}
	return nil
}
