// ABOUTME: JSONL session log: one file per saved conversation, append-only records
// ABOUTME: Reads line-by-line with bufio.Scanner; only the header and first user line are summarized

package memory

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mauromedda/toolagent-go/pkg/ai"
)

const recordVersion = 1

// RecordType identifies the type of JSONL record.
type RecordType string

const (
	RecordSessionStart RecordType = "session_start"
	RecordMessage      RecordType = "message"
	RecordSessionEnd   RecordType = "session_end"
)

// Record is the envelope for all JSONL entries.
type Record struct {
	Version int             `json:"v"`
	Type    RecordType      `json:"type"`
	TS      string          `json:"ts"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// SessionStartData holds session_start metadata.
type SessionStartData struct {
	ID       string `json:"id"`
	Messages int    `json:"messages"`
}

// SessionSummary describes one saved session.
type SessionSummary struct {
	ID        string
	Started   time.Time
	Messages  int
	FirstUser string
}

// writeSession stores history as a new session file and returns its summary.
// System messages are not persisted; they are rebuilt on every start.
func writeSession(dir string, history []ai.Message, now time.Time) (SessionSummary, error) {
	var msgs []ai.Message
	for _, m := range history {
		if m.Role != ai.RoleSystem {
			msgs = append(msgs, m)
		}
	}

	sum := SessionSummary{
		ID:        uuid.NewString(),
		Started:   now.UTC(),
		Messages:  len(msgs),
		FirstUser: firstUserLine(msgs),
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return sum, fmt.Errorf("creating sessions dir: %w", err)
	}
	name := sum.Started.Format("20060102T150405.000Z") + "-" + sum.ID[:8] + ".jsonl"
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND|os.O_EXCL, 0o644)
	if err != nil {
		return sum, fmt.Errorf("creating session file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	ts := sum.Started.Format(time.RFC3339Nano)

	write := func(typ RecordType, data any) error {
		raw, err := json.Marshal(data)
		if err != nil {
			return err
		}
		return enc.Encode(Record{Version: recordVersion, Type: typ, TS: ts, Data: raw})
	}

	if err := write(RecordSessionStart, SessionStartData{ID: sum.ID, Messages: sum.Messages}); err != nil {
		return sum, fmt.Errorf("writing session: %w", err)
	}
	for _, m := range msgs {
		if err := write(RecordMessage, m); err != nil {
			return sum, fmt.Errorf("writing session: %w", err)
		}
	}
	if err := enc.Encode(Record{Version: recordVersion, Type: RecordSessionEnd, TS: ts}); err != nil {
		return sum, fmt.Errorf("writing session: %w", err)
	}
	if err := w.Flush(); err != nil {
		return sum, fmt.Errorf("flushing session: %w", err)
	}
	return sum, nil
}

// loadSessions summarizes every session file in dir, oldest first.
// Unreadable or truncated files are skipped.
func loadSessions(dir string) ([]SessionSummary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading sessions dir: %w", err)
	}

	var out []SessionSummary
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".jsonl") {
			continue
		}
		sum, err := readSummary(filepath.Join(dir, de.Name()))
		if err != nil {
			continue
		}
		out = append(out, sum)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Started.Before(out[j].Started) })
	return out, nil
}

func readSummary(path string) (SessionSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return SessionSummary{}, err
	}
	defer f.Close()

	var sum SessionSummary
	var sawStart bool
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		switch rec.Type {
		case RecordSessionStart:
			var start SessionStartData
			if err := json.Unmarshal(rec.Data, &start); err != nil {
				return SessionSummary{}, fmt.Errorf("session header in %s: %w", path, err)
			}
			sum.ID = start.ID
			sum.Messages = start.Messages
			sum.Started, _ = time.Parse(time.RFC3339Nano, rec.TS)
			sawStart = true
		case RecordMessage:
			var m ai.Message
			if json.Unmarshal(rec.Data, &m) == nil && m.Role == ai.RoleUser && m.Content != "" {
				sum.FirstUser = firstLine(m.Content)
				return sum, nil
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return SessionSummary{}, err
	}
	if !sawStart {
		return SessionSummary{}, fmt.Errorf("%s: missing session header", path)
	}
	return sum, nil
}

func firstUserLine(msgs []ai.Message) string {
	for _, m := range msgs {
		if m.Role == ai.RoleUser && m.Content != "" {
			return firstLine(m.Content)
		}
	}
	return ""
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}
