// ABOUTME: Memory notes stored as individual .md files under <dir>/notes
// ABOUTME: Keys are sanitized to alphanumeric, dash and underscore

package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// validKey matches keys containing only alphanumeric, dash, or underscore characters.
var validKey = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

var nonKeyChars = regexp.MustCompile(`[^a-z0-9]+`)

const maxKeyLen = 48

// Note is one remembered fact.
type Note struct {
	Key     string
	Content string
}

func validateKey(key string) error {
	if !validKey.MatchString(key) {
		return fmt.Errorf("invalid memory key %q: use letters, digits, dash or underscore", key)
	}
	return nil
}

// KeyFor derives a file-safe key from free text.
func KeyFor(text string) string {
	key := strings.Trim(nonKeyChars.ReplaceAllString(strings.ToLower(text), "-"), "-")
	if len(key) > maxKeyLen {
		key = strings.TrimRight(key[:maxKeyLen], "-")
	}
	if key == "" {
		key = "note"
	}
	return key
}

func writeNote(dir string, n Note) error {
	if err := validateKey(n.Key); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating notes dir: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, n.Key+".md"), []byte(n.Content), 0o644)
}

func removeNote(dir, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	return os.Remove(filepath.Join(dir, key+".md"))
}

// loadNotes reads every .md file in dir, sorted by key. A missing
// directory holds no notes.
func loadNotes(dir string) ([]Note, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading notes dir: %w", err)
	}

	var notes []Note
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".md") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, de.Name()))
		if err != nil {
			continue
		}
		notes = append(notes, Note{
			Key:     strings.TrimSuffix(de.Name(), ".md"),
			Content: strings.TrimSpace(string(data)),
		})
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].Key < notes[j].Key })
	return notes, nil
}
