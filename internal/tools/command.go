// ABOUTME: External command tools: argument JSON on stdin, result from stdout
// ABOUTME: Each run gets a timeout and its own process group, killed on expiry

package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
)

// DefaultCommandTimeout applies when a command tool sets no timeout.
const DefaultCommandTimeout = 30 * time.Second

// maxCommandOutput caps captured stdout so a runaway tool cannot flood history.
const maxCommandOutput = 256 * 1024

// CommandSpec describes a tool backed by an external program.
type CommandSpec struct {
	Name        string
	Description string
	// Parameters is a JSON Schema document, typically decoded from YAML.
	Parameters map[string]any
	Command    string
	Args       []string
	Dir        string
	Env        map[string]string
	Timeout    time.Duration
}

// NewCommandTool builds a Tool that runs the configured command.
func NewCommandTool(spec CommandSpec) (Tool, error) {
	if spec.Name == "" {
		return Tool{}, fmt.Errorf("command tool: name is required")
	}
	if spec.Command == "" {
		return Tool{}, fmt.Errorf("command tool %s: command is required", spec.Name)
	}

	schema, err := schemaFromMap(spec.Parameters)
	if err != nil {
		return Tool{}, fmt.Errorf("command tool %s: %w", spec.Name, err)
	}

	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}

	return Tool{
		Name:        spec.Name,
		Description: spec.Description,
		Parameters:  schema,
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			return runCommand(ctx, spec, timeout, args)
		},
	}, nil
}

func runCommand(ctx context.Context, spec CommandSpec, timeout time.Duration, args map[string]any) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	input, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("marshal arguments: %w", err)
	}

	cmd := exec.CommandContext(ctx, spec.Command, spec.Args...)
	cmd.Stdin = bytes.NewReader(input)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range spec.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}
	setProcGroup(cmd)
	cmd.Cancel = func() error {
		return killProcGroup(cmd)
	}

	stdout := &limitedBuffer{limit: maxCommandOutput}
	var stderr bytes.Buffer
	cmd.Stdout = stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("%s timed out after %v", spec.Name, timeout)
	}
	if runErr != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		if msg == "" {
			return "", fmt.Errorf("%s: %w", spec.Name, runErr)
		}
		return "", fmt.Errorf("%s: %w: %s", spec.Name, runErr, msg)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// schemaFromMap converts a decoded JSON Schema document. A nil map yields
// an empty object schema.
func schemaFromMap(m map[string]any) (*jsonschema.Schema, error) {
	if len(m) == 0 {
		return &jsonschema.Schema{Type: "object"}, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding parameters: %w", err)
	}
	var s jsonschema.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing parameters: %w", err)
	}
	return &s, nil
}

// limitedBuffer keeps the first limit bytes and discards the rest.
type limitedBuffer struct {
	buf   bytes.Buffer
	limit int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if room := b.limit - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	return b.buf.String()
}
