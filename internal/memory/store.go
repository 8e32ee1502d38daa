// ABOUTME: File-backed memory: notes for the system prompt plus a log of past sessions
// ABOUTME: Notes and session summaries load in parallel; all methods are safe for concurrent use

package memory

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mauromedda/toolagent-go/pkg/ai"
)

const maxSummaryLine = 100

// Store persists notes under <dir>/notes and sessions under <dir>/sessions.
type Store struct {
	notesDir    string
	sessionsDir string
	now         func() time.Time

	mu       sync.RWMutex
	notes    []Note
	sessions []SessionSummary
}

// Open creates a Store rooted at dir and loads its contents.
func Open(ctx context.Context, dir string) (*Store, error) {
	s := &Store{
		notesDir:    filepath.Join(dir, "notes"),
		sessionsDir: filepath.Join(dir, "sessions"),
		now:         time.Now,
	}
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Load rereads notes and session summaries from disk.
func (s *Store) Load(ctx context.Context) error {
	var (
		notes    []Note
		sessions []SessionSummary
	)
	if err := ctx.Err(); err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		notes, err = loadNotes(s.notesDir)
		if err == nil {
			err = gctx.Err()
		}
		return err
	})
	g.Go(func() error {
		var err error
		sessions, err = loadSessions(s.sessionsDir)
		if err == nil {
			err = gctx.Err()
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("loading memory: %w", err)
	}

	s.mu.Lock()
	s.notes = notes
	s.sessions = sessions
	s.mu.Unlock()
	return nil
}

// FormatForPrompt renders every note as a system prompt section.
func (s *Store) FormatForPrompt() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.notes) == 0 {
		return ""
	}

	var b strings.Builder
	for _, n := range s.notes {
		fmt.Fprintf(&b, "# Memory: %s\n%s\n\n", n.Key, n.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}

// RecentSummary lists the last n sessions, most recent last.
func (s *Store) RecentSummary(n int) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 || len(s.sessions) == 0 {
		return ""
	}

	recent := s.sessions[max(len(s.sessions)-n, 0):]
	var b strings.Builder
	b.WriteString("Recent sessions:")
	for _, sess := range recent {
		topic := sess.FirstUser
		if topic == "" {
			topic = "(no user messages)"
		}
		if len(topic) > maxSummaryLine {
			topic = strings.ToValidUTF8(topic[:maxSummaryLine], "") + "..."
		}
		fmt.Fprintf(&b, "\n- %s: %s (%d messages)", sess.Started.Format("2006-01-02 15:04"), topic, sess.Messages)
	}
	return b.String()
}

// SaveSession appends history as a new session. Empty conversations are
// not recorded.
func (s *Store) SaveSession(_ context.Context, history []ai.Message) error {
	if firstUserLine(history) == "" {
		return nil
	}
	sum, err := writeSession(s.sessionsDir, history, s.now())
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.sessions = append(s.sessions, sum)
	s.mu.Unlock()
	return nil
}

// Remember stores content under key, replacing any previous note.
func (s *Store) Remember(key, content string) (Note, error) {
	if key == "" {
		key = KeyFor(content)
	}
	n := Note{Key: key, Content: strings.TrimSpace(content)}
	if n.Content == "" {
		return Note{}, fmt.Errorf("memory content is empty")
	}
	if err := writeNote(s.notesDir, n); err != nil {
		return Note{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notes {
		if s.notes[i].Key == key {
			s.notes[i] = n
			return n, nil
		}
	}
	s.notes = append(s.notes, n)
	sortNotes(s.notes)
	return n, nil
}

// Forget deletes the note stored under key.
func (s *Store) Forget(key string) error {
	if err := removeNote(s.notesDir, key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notes {
		if s.notes[i].Key == key {
			s.notes = append(s.notes[:i], s.notes[i+1:]...)
			break
		}
	}
	return nil
}

// Notes returns the notes whose key or content contains query
// (case-insensitive); an empty query matches everything.
func (s *Store) Notes(query string) []Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q := strings.ToLower(strings.TrimSpace(query))
	var out []Note
	for _, n := range s.notes {
		if q == "" || strings.Contains(strings.ToLower(n.Key), q) || strings.Contains(strings.ToLower(n.Content), q) {
			out = append(out, n)
		}
	}
	return out
}

// Sessions returns the loaded session summaries, oldest first.
func (s *Store) Sessions() []SessionSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]SessionSummary(nil), s.sessions...)
}

func sortNotes(notes []Note) {
	sort.Slice(notes, func(i, j int) bool { return notes[i].Key < notes[j].Key })
}
