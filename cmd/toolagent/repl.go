// ABOUTME: Interactive loop: reads prompts, runs turns, handles /reset, /history, /tools and /exit
// ABOUTME: Ctrl-C cancels the current turn only; the session is saved on exit

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/mauromedda/toolagent-go/internal/agent"
	pilog "github.com/mauromedda/toolagent-go/internal/log"
	"github.com/mauromedda/toolagent-go/pkg/ai"
)

const maxPreview = 120

// conversation is the part of *agent.Agent the REPL drives.
type conversation interface {
	Converse(ctx context.Context, text string) (string, error)
	ConverseStreaming(ctx context.Context, text string, obs agent.Observer) (string, error)
	Reset(ctx context.Context) error
	History() []ai.Message
	ToolsSupported() bool
}

type repl struct {
	conv   conversation
	in     io.Reader
	out    io.Writer
	stream bool
	render func(string) string
	style  styles
	// interactive enables the prompt marker and per-turn Ctrl-C handling.
	interactive bool
}

func newREPL(conv conversation, in io.Reader, out io.Writer, stream bool) *repl {
	r := &repl{
		conv:        conv,
		in:          in,
		out:         out,
		stream:      stream,
		render:      markdownRenderer(out),
		style:       plainStyles(),
		interactive: isTerminal(out),
	}
	if r.interactive {
		r.style = terminalStyles()
	}
	return r
}

func (r *repl) banner(s *session) {
	tools := len(s.registry.Names())
	fmt.Fprintln(r.out, r.style.notice.Render(fmt.Sprintf("toolagent %s · %s · %d tools · /help for commands", version, s.model.ID, tools)))
	if !r.conv.ToolsSupported() {
		fmt.Fprintln(r.out, r.style.notice.Render("tools are disabled for this model"))
	}
}

// run reads lines until EOF or /exit, then saves the session.
func (r *repl) run(ctx context.Context) error {
	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		if r.interactive {
			fmt.Fprint(r.out, r.style.prompt.Render("> "))
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			quit, err := r.command(ctx, line)
			if err != nil {
				fmt.Fprintln(r.out, r.style.err.Render("error: "+err.Error()))
			}
			if quit {
				return r.save(ctx)
			}
			continue
		}
		if err := r.turn(ctx, line); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return r.save(ctx)
}

// oneShot answers a single prompt and saves the session.
func (r *repl) oneShot(ctx context.Context, prompt string) error {
	if err := r.turn(ctx, prompt); err != nil {
		return err
	}
	return r.save(ctx)
}

func (r *repl) save(ctx context.Context) error {
	if err := r.conv.Reset(ctx); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// command handles a slash command and reports whether to quit.
func (r *repl) command(ctx context.Context, line string) (bool, error) {
	name, _, _ := strings.Cut(line, " ")
	switch name {
	case "/exit", "/quit":
		return true, nil
	case "/reset":
		if err := r.conv.Reset(ctx); err != nil {
			return false, err
		}
		fmt.Fprintln(r.out, r.style.notice.Render("conversation reset"))
	case "/history":
		r.printHistory()
	case "/tools":
		state := "enabled"
		if !r.conv.ToolsSupported() {
			state = "disabled"
		}
		fmt.Fprintln(r.out, r.style.notice.Render("tools "+state))
	case "/help":
		fmt.Fprintln(r.out, "/reset    save and start a new conversation")
		fmt.Fprintln(r.out, "/history  show the conversation so far")
		fmt.Fprintln(r.out, "/tools    show whether tools are enabled")
		fmt.Fprintln(r.out, "/exit     save and quit")
	default:
		return false, fmt.Errorf("unknown command %s (try /help)", name)
	}
	return false, nil
}

// turn runs one prompt. A cancelled turn is reported and the loop goes on.
func (r *repl) turn(ctx context.Context, prompt string) error {
	turnCtx := ctx
	if r.interactive {
		var stop context.CancelFunc
		turnCtx, stop = signal.NotifyContext(ctx, os.Interrupt)
		defer stop()
	}

	var (
		answer string
		err    error
	)
	if r.stream {
		answer, err = r.streamTurn(turnCtx, prompt)
	} else {
		answer, err = r.conv.Converse(turnCtx, prompt)
		if err == nil {
			fmt.Fprintln(r.out, r.render(answer))
		}
	}

	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(r.out, r.style.notice.Render("cancelled"))
			return nil
		}
		return err
	}
	pilog.Debug("repl: answered with %d chars", len(answer))
	return nil
}

// streamTurn prints deltas as they arrive. Answers the model did not
// stream itself, such as fallback summaries, are printed at the end.
func (r *repl) streamTurn(ctx context.Context, prompt string) (string, error) {
	var segment strings.Builder
	obs := agent.ObserverFuncs{
		TextDelta: func(s string) {
			segment.WriteString(s)
			fmt.Fprint(r.out, s)
		},
		ToolCall: func(tc ai.ToolCall) {
			if segment.Len() > 0 {
				fmt.Fprintln(r.out)
			}
			segment.Reset()
			fmt.Fprintln(r.out, r.style.tool.Render(fmt.Sprintf("→ %s %s", tc.Name, preview(tc.Arguments))))
		},
		ToolResult: func(_ ai.ToolCall, result string) {
			fmt.Fprintln(r.out, r.style.result.Render("  "+preview(result)))
		},
	}

	answer, err := r.conv.ConverseStreaming(ctx, prompt, obs)
	if segment.Len() > 0 {
		fmt.Fprintln(r.out)
	}
	if err != nil {
		return "", err
	}
	if answer != segment.String() {
		fmt.Fprintln(r.out, r.render(answer))
	}
	return answer, nil
}

func (r *repl) printHistory() {
	msgs := r.conv.History()
	if len(msgs) == 0 {
		fmt.Fprintln(r.out, r.style.notice.Render("no messages yet"))
		return
	}
	for _, m := range msgs {
		switch {
		case len(m.ToolCalls) > 0:
			for _, tc := range m.ToolCalls {
				fmt.Fprintf(r.out, "[%s] → %s %s\n", m.Role, tc.Name, preview(tc.Arguments))
			}
		case m.Role == ai.RoleTool:
			fmt.Fprintf(r.out, "[%s %s] %s\n", m.Role, m.ToolCallID, preview(m.Content))
		default:
			fmt.Fprintf(r.out, "[%s] %s\n", m.Role, preview(m.Content))
		}
	}
}

// preview flattens s to one line at most maxPreview cells wide.
func preview(s string) string {
	return runewidth.Truncate(strings.Join(strings.Fields(s), " "), maxPreview, "…")
}
