// ABOUTME: Channel-based event streaming for LLM responses
// ABOUTME: EventStream is a single-pass, forward-only sequence of TextDelta/ToolCallComplete/Done

package ai

import (
	"context"
	"sync"
)

// StreamEventType identifies the kind of stream event.
type StreamEventType int

const (
	EventTextDelta StreamEventType = iota
	EventToolCallComplete
	EventDone
)

// String returns a readable name for the event type.
func (t StreamEventType) String() string {
	switch t {
	case EventTextDelta:
		return "text_delta"
	case EventToolCallComplete:
		return "tool_call_complete"
	case EventDone:
		return "done"
	default:
		return "unknown"
	}
}

// StreamEvent is a tagged union: Text is set for EventTextDelta, ToolCall for
// EventToolCallComplete and FinishReason for EventDone.
type StreamEvent struct {
	Type         StreamEventType
	Text         string
	ToolCall     *ToolCall
	FinishReason FinishReason
	Usage        *Usage
}

// TextDelta builds a text delta event.
func TextDelta(text string) StreamEvent {
	return StreamEvent{Type: EventTextDelta, Text: text}
}

// ToolCallComplete builds a completed tool call event.
func ToolCallComplete(tc ToolCall) StreamEvent {
	return StreamEvent{Type: EventToolCallComplete, ToolCall: &tc}
}

// Done builds the terminal event.
func Done(reason FinishReason, usage *Usage) StreamEvent {
	return StreamEvent{Type: EventDone, FinishReason: reason, Usage: usage}
}

// EventStream carries events from one producer goroutine to one consumer.
// Consumers range over Events() and check Err() once the channel closes.
//
// Send and Finish must only be called by the producing goroutine; Finish
// closes the events channel, so no Send may follow it.
type EventStream struct {
	events chan StreamEvent
	done   chan struct{}
	err    error
	once   sync.Once
}

// NewEventStream creates a new EventStream with the given buffer size.
func NewEventStream(bufSize int) *EventStream {
	return &EventStream{
		events: make(chan StreamEvent, bufSize),
		done:   make(chan struct{}),
	}
}

// Events returns a read-only channel of stream events.
// The channel is closed when the stream is complete.
func (s *EventStream) Events() <-chan StreamEvent {
	return s.events
}

// Send delivers an event. Returns false when ctx is cancelled first, in
// which case the producer must stop and call Finish with ctx.Err().
func (s *EventStream) Send(ctx context.Context, ev StreamEvent) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case s.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// Finish completes the stream. A nil err means the provider finished
// normally; the producer is expected to have sent a Done event first.
func (s *EventStream) Finish(err error) {
	s.once.Do(func() {
		s.err = err
		close(s.done)
		close(s.events)
	})
}

// Err blocks until the stream is complete and returns its failure, if any.
func (s *EventStream) Err() error {
	<-s.done
	return s.err
}

// Done returns a channel that is closed when the stream completes.
func (s *EventStream) Done() <-chan struct{} {
	return s.done
}

// Collect drains the stream into a Response. It is the streaming
// counterpart of Provider.Send and reports the stream's failure, if any.
// Each onEvent callback sees every event before it is accumulated.
func Collect(s *EventStream, onEvent ...func(StreamEvent)) (*Response, error) {
	resp := &Response{}
	for ev := range s.Events() {
		for _, fn := range onEvent {
			fn(ev)
		}
		switch ev.Type {
		case EventTextDelta:
			resp.Content += ev.Text
		case EventToolCallComplete:
			resp.ToolCalls = append(resp.ToolCalls, *ev.ToolCall)
		case EventDone:
			resp.FinishReason = ev.FinishReason
			if ev.Usage != nil {
				resp.Usage = *ev.Usage
			}
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return resp, nil
}
