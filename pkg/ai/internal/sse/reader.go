// ABOUTME: Server-Sent Events parser that reads from an io.Reader
// ABOUTME: Supports event, data, id fields; multi-line data; comments; pooled line buffers

package sse

import (
	"bufio"
	"io"
	"strings"
	"sync"
)

// DoneSentinel is the data payload OpenAI-compatible servers send last.
const DoneSentinel = "[DONE]"

// Event represents a single Server-Sent Event.
type Event struct {
	Type string
	Data string
	ID   string
}

// IsDone reports whether the event carries the terminal sentinel.
func (e *Event) IsDone() bool {
	return strings.TrimSpace(e.Data) == DoneSentinel
}

const (
	initialBufSize = 64 * 1024
	maxLineSize    = 1024 * 1024 // 1MB max line size
)

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, initialBufSize)
		return &b
	},
}

// Reader parses Server-Sent Events from an io.Reader.
type Reader struct {
	scanner *bufio.Scanner
	buf     *[]byte
}

// NewReader creates a new SSE reader from the given io.Reader.
// Call Close to return the line buffer to the pool.
func NewReader(r io.Reader) *Reader {
	buf := bufPool.Get().(*[]byte)
	s := bufio.NewScanner(r)
	s.Buffer((*buf)[:0], maxLineSize)
	return &Reader{scanner: s, buf: buf}
}

// Close releases the reader's buffer. Safe to call more than once.
func (r *Reader) Close() {
	if r.buf == nil {
		return
	}
	bufPool.Put(r.buf)
	r.buf = nil
}

// Next reads and returns the next SSE event.
// Returns nil, io.EOF when the stream ends.
func (r *Reader) Next() (*Event, error) {
	var ev Event
	var dataLines []string
	var hasContent bool

	for r.scanner.Scan() {
		line := strings.TrimSuffix(r.scanner.Text(), "\r")

		if line == "" {
			if hasContent {
				ev.Data = strings.Join(dataLines, "\n")
				return &ev, nil
			}
			continue
		}

		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value := parseLine(line)
		switch field {
		case "event":
			ev.Type = value
			hasContent = true
		case "data":
			dataLines = append(dataLines, value)
			hasContent = true
		case "id":
			ev.ID = value
			hasContent = true
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	if hasContent {
		ev.Data = strings.Join(dataLines, "\n")
		return &ev, nil
	}

	return nil, io.EOF
}

// parseLine splits an SSE line into field name and value.
func parseLine(line string) (string, string) {
	field, value, ok := strings.Cut(line, ":")
	if !ok {
		return line, ""
	}
	return field, strings.TrimPrefix(value, " ")
}
