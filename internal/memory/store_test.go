// ABOUTME: Tests for the memory store: notes, session log round-trip, parallel load
// ABOUTME: Every test works in its own t.TempDir

package memory

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mauromedda/toolagent-go/pkg/ai"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(context.Background(), dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s, dir
}

func TestOpenEmptyDir(t *testing.T) {
	t.Parallel()

	s, _ := openTemp(t)
	if got := s.FormatForPrompt(); got != "" {
		t.Errorf("FormatForPrompt = %q, want empty", got)
	}
	if got := s.RecentSummary(3); got != "" {
		t.Errorf("RecentSummary = %q, want empty", got)
	}
}

func TestRememberAndFormat(t *testing.T) {
	t.Parallel()

	s, dir := openTemp(t)
	if _, err := s.Remember("zeta", "last"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Remember("alpha", "  first  "); err != nil {
		t.Fatal(err)
	}

	want := "# Memory: alpha\nfirst\n\n# Memory: zeta\nlast"
	if got := s.FormatForPrompt(); got != want {
		t.Errorf("FormatForPrompt =\n%q\nwant\n%q", got, want)
	}

	data, err := os.ReadFile(filepath.Join(dir, "notes", "alpha.md"))
	if err != nil {
		t.Fatalf("note file: %v", err)
	}
	if string(data) != "first" {
		t.Errorf("file content = %q", data)
	}

	// A fresh store sees the same notes.
	reopened, err := Open(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	if got := reopened.FormatForPrompt(); got != want {
		t.Errorf("after reopen = %q", got)
	}
}

func TestRememberReplacesExistingKey(t *testing.T) {
	t.Parallel()

	s, _ := openTemp(t)
	_, _ = s.Remember("color", "blue")
	_, _ = s.Remember("color", "green")

	notes := s.Notes("")
	if len(notes) != 1 || notes[0].Content != "green" {
		t.Errorf("notes = %+v", notes)
	}
}

func TestRememberDerivesKey(t *testing.T) {
	t.Parallel()

	s, _ := openTemp(t)
	n, err := s.Remember("", "User's Favorite Color is Blue!")
	if err != nil {
		t.Fatal(err)
	}
	if n.Key != "user-s-favorite-color-is-blue" {
		t.Errorf("key = %q", n.Key)
	}
}

func TestRememberRejectsBadInput(t *testing.T) {
	t.Parallel()

	s, _ := openTemp(t)
	tests := []struct {
		name, key, content string
	}{
		{"empty content", "k", "   "},
		{"path traversal", "../etc", "x"},
		{"slash", "a/b", "x"},
		{"leading dash", "-a", "x"},
	}
	for _, tt := range tests {
		if _, err := s.Remember(tt.key, tt.content); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestKeyFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"Hello World", "hello-world"},
		{"  --  ", "note"},
		{"", "note"},
		{strings.Repeat("ab ", 40), strings.TrimRight(strings.Repeat("ab-", 16), "-")},
	}
	for _, tt := range tests {
		if got := KeyFor(tt.in); got != tt.want {
			t.Errorf("KeyFor(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNotesQuery(t *testing.T) {
	t.Parallel()

	s, _ := openTemp(t)
	_, _ = s.Remember("pets", "has a cat named Miso")
	_, _ = s.Remember("work", "writes Go")

	if got := s.Notes("CAT"); len(got) != 1 || got[0].Key != "pets" {
		t.Errorf("Notes(CAT) = %+v", got)
	}
	if got := s.Notes("work"); len(got) != 1 {
		t.Errorf("Notes(work) = %+v", got)
	}
	if got := s.Notes("nothing"); len(got) != 0 {
		t.Errorf("Notes(nothing) = %+v", got)
	}
}

func TestForget(t *testing.T) {
	t.Parallel()

	s, dir := openTemp(t)
	_, _ = s.Remember("tmp", "x")
	if err := s.Forget("tmp"); err != nil {
		t.Fatal(err)
	}
	if len(s.Notes("")) != 0 {
		t.Error("note still listed")
	}
	if _, err := os.Stat(filepath.Join(dir, "notes", "tmp.md")); !os.IsNotExist(err) {
		t.Errorf("note file still exists: %v", err)
	}
	if err := s.Forget("tmp"); err == nil {
		t.Error("forgetting a missing note should fail")
	}
}

func TestSaveSessionAndSummary(t *testing.T) {
	t.Parallel()

	s, dir := openTemp(t)
	base := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Hour)
	}

	conversations := []string{"first topic\nmore detail", "second topic", "third topic"}
	for _, c := range conversations {
		history := []ai.Message{
			ai.NewTextMessage(ai.RoleSystem, "be helpful"),
			ai.NewTextMessage(ai.RoleUser, c),
			ai.NewTextMessage(ai.RoleAssistant, "ok"),
		}
		if err := s.SaveSession(context.Background(), history); err != nil {
			t.Fatalf("SaveSession: %v", err)
		}
	}

	want := "Recent sessions:\n" +
		"- 2026-03-01 11:30: second topic (2 messages)\n" +
		"- 2026-03-01 12:30: third topic (2 messages)"
	if got := s.RecentSummary(2); got != want {
		t.Errorf("RecentSummary =\n%s\nwant\n%s", got, want)
	}

	reopened, err := Open(context.Background(), dir)
	if err != nil {
		t.Fatal(err)
	}
	sessions := reopened.Sessions()
	if len(sessions) != 3 {
		t.Fatalf("got %d sessions, want 3", len(sessions))
	}
	if sessions[0].FirstUser != "first topic" {
		t.Errorf("FirstUser = %q", sessions[0].FirstUser)
	}
	if got := reopened.RecentSummary(2); got != want {
		t.Errorf("after reopen =\n%s", got)
	}
}

func TestSaveSessionSkipsEmptyConversation(t *testing.T) {
	t.Parallel()

	s, dir := openTemp(t)
	err := s.SaveSession(context.Background(), []ai.Message{ai.NewTextMessage(ai.RoleSystem, "sys")})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "sessions")); !os.IsNotExist(err) {
		t.Errorf("sessions dir should not exist: %v", err)
	}
}

func TestSessionRecordsAreJSONL(t *testing.T) {
	t.Parallel()

	s, dir := openTemp(t)
	history := []ai.Message{
		ai.NewTextMessage(ai.RoleUser, "lookup x"),
		{Role: ai.RoleAssistant, ToolCalls: []ai.ToolCall{{ID: "c1", Name: "lookup", Arguments: `{"q":"x"}`}}},
		ai.NewToolResultMessage("c1", `{"value":1}`),
		ai.NewTextMessage(ai.RoleAssistant, "done"),
	}
	if err := s.SaveSession(context.Background(), history); err != nil {
		t.Fatal(err)
	}

	files, _ := filepath.Glob(filepath.Join(dir, "sessions", "*.jsonl"))
	if len(files) != 1 {
		t.Fatalf("got %d session files", len(files))
	}
	data, _ := os.ReadFile(files[0])
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	// start + 4 messages + end
	if len(lines) != 6 {
		t.Fatalf("got %d lines:\n%s", len(lines), data)
	}
	if !strings.Contains(lines[0], `"type":"session_start"`) || !strings.Contains(lines[0], `"v":1`) {
		t.Errorf("header = %s", lines[0])
	}
	if !strings.Contains(lines[2], `"tool_calls"`) {
		t.Errorf("assistant record = %s", lines[2])
	}
	if !strings.Contains(lines[5], `"type":"session_end"`) {
		t.Errorf("footer = %s", lines[5])
	}
}

func TestLoadSkipsCorruptSessions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sessions := filepath.Join(dir, "sessions")
	if err := os.MkdirAll(sessions, 0o755); err != nil {
		t.Fatal(err)
	}
	_ = os.WriteFile(filepath.Join(sessions, "bad.jsonl"), []byte("not json\n"), 0o644)
	_ = os.WriteFile(filepath.Join(sessions, "ignored.txt"), []byte("x"), 0o644)

	s, err := Open(context.Background(), dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if n := len(s.Sessions()); n != 0 {
		t.Errorf("got %d sessions, want 0", n)
	}
}

func TestLoadCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Open(ctx, t.TempDir()); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestRecentSummaryTruncatesLongTopics(t *testing.T) {
	t.Parallel()

	s, _ := openTemp(t)
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC) }
	long := strings.Repeat("x", 150)
	_ = s.SaveSession(context.Background(), []ai.Message{ai.NewTextMessage(ai.RoleUser, long)})

	got := s.RecentSummary(1)
	if !strings.Contains(got, strings.Repeat("x", maxSummaryLine)+"...") {
		t.Errorf("summary not truncated: %q", got)
	}
}
