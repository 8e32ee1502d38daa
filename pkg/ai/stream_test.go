// ABOUTME: Tests for EventStream send/receive, finish, cancellation, and Collect
// ABOUTME: Validates the single-pass streaming lifecycle and error retrieval

package ai

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestEventStreamSendAndReceive(t *testing.T) {
	t.Parallel()

	stream := NewEventStream(10)

	if !stream.Send(context.Background(), TextDelta("hello")) {
		t.Fatal("Send returned false; expected true")
	}

	select {
	case got := <-stream.Events():
		if got.Type != EventTextDelta {
			t.Errorf("got Type %v, want %v", got.Type, EventTextDelta)
		}
		if got.Text != "hello" {
			t.Errorf("got Text %q, want %q", got.Text, "hello")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestEventStreamFinishClosesEvents(t *testing.T) {
	t.Parallel()

	stream := NewEventStream(10)
	stream.Finish(nil)

	if err := stream.Err(); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}
	if _, open := <-stream.Events(); open {
		t.Error("Events channel still open after Finish")
	}
	select {
	case <-stream.Done():
	default:
		t.Error("Done channel not closed after Finish")
	}
}

func TestEventStreamFinishWithError(t *testing.T) {
	t.Parallel()

	stream := NewEventStream(10)
	testErr := errors.New("test error")
	stream.Finish(testErr)
	stream.Finish(nil) // second call is a no-op

	if err := stream.Err(); !errors.Is(err, testErr) {
		t.Errorf("Err() = %v, want %v", err, testErr)
	}
}

func TestEventStreamSendAfterCancel(t *testing.T) {
	t.Parallel()

	stream := NewEventStream(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if stream.Send(ctx, TextDelta("x")) {
		t.Error("Send succeeded on a cancelled context")
	}
}

func TestEventStreamSendBlocksUntilCancel(t *testing.T) {
	t.Parallel()

	stream := NewEventStream(0)
	ctx, cancel := context.WithCancel(context.Background())

	result := make(chan bool, 1)
	go func() { result <- stream.Send(ctx, TextDelta("x")) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case ok := <-result:
		if ok {
			t.Error("Send reported delivery with no consumer")
		}
	case <-time.After(time.Second):
		t.Fatal("Send did not return after cancel")
	}
}

func TestCollect(t *testing.T) {
	t.Parallel()

	stream := NewEventStream(8)
	ctx := context.Background()
	go func() {
		stream.Send(ctx, TextDelta("Hel"))
		stream.Send(ctx, TextDelta("lo"))
		stream.Send(ctx, ToolCallComplete(ToolCall{ID: "1", Name: "lookup", Arguments: `{}`}))
		stream.Send(ctx, Done(FinishToolUse, &Usage{InputTokens: 3, OutputTokens: 2}))
		stream.Finish(nil)
	}()

	resp, err := Collect(stream)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if resp.Content != "Hello" {
		t.Errorf("Content = %q, want %q", resp.Content, "Hello")
	}
	if len(resp.ToolCalls) != 1 || resp.ToolCalls[0].Name != "lookup" {
		t.Errorf("ToolCalls = %+v", resp.ToolCalls)
	}
	if resp.FinishReason != FinishToolUse {
		t.Errorf("FinishReason = %q, want %q", resp.FinishReason, FinishToolUse)
	}
	if resp.Usage.OutputTokens != 2 {
		t.Errorf("OutputTokens = %d, want 2", resp.Usage.OutputTokens)
	}
}

func TestCollectReturnsStreamError(t *testing.T) {
	t.Parallel()

	stream := NewEventStream(1)
	stream.Finish(context.Canceled)

	if _, err := Collect(stream); !errors.Is(err, context.Canceled) {
		t.Errorf("Collect error = %v, want context.Canceled", err)
	}
}

func TestCollectCallsOnEventInOrder(t *testing.T) {
	t.Parallel()

	stream := NewEventStream(8)
	ctx := context.Background()
	go func() {
		stream.Send(ctx, TextDelta("a"))
		stream.Send(ctx, ToolCallComplete(ToolCall{ID: "1", Name: "lookup"}))
		stream.Send(ctx, Done(FinishToolUse, nil))
		stream.Finish(nil)
	}()

	var seen []StreamEventType
	resp, err := Collect(stream, func(ev StreamEvent) { seen = append(seen, ev.Type) })
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	want := []StreamEventType{EventTextDelta, EventToolCallComplete, EventDone}
	if len(seen) != len(want) {
		t.Fatalf("seen = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, seen[i], want[i])
		}
	}
	if resp.Content != "a" || len(resp.ToolCalls) != 1 {
		t.Errorf("resp = %+v", resp)
	}
}
