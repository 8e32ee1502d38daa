// ABOUTME: Tests for fallback answer synthesis: error payloads, family renderers, generic tables
// ABOUTME: Verifies output is byte-identical across repeated calls

package fallback

import (
	"fmt"
	"strings"
	"testing"
)

func TestFormatEmpty(t *testing.T) {
	t.Parallel()
	if got := Format(nil); got != "" {
		t.Errorf("Format(nil) = %q, want empty", got)
	}
}

func TestFormatIsDeterministic(t *testing.T) {
	t.Parallel()

	results := []Result{
		{Name: "lookup", Payload: `{"z":1,"a":"x","m":{"b":2,"a":1}}`},
		{Name: "calculate", Payload: `{"expression":"2+2","result":4}`},
		{Name: "weird", Payload: `plain text`},
	}
	first := Format(results)
	for range 50 {
		if got := Format(results); got != first {
			t.Fatalf("output changed between calls:\n%s\n---\n%s", first, got)
		}
	}
}

func TestFormatSingleResultHasNoNumbering(t *testing.T) {
	t.Parallel()

	got := Format([]Result{{Name: "status", Payload: `{"state":"ok"}`}})
	want := "Here is what the tools returned:\n\nstatus:\n  state: ok"
	if got != want {
		t.Errorf("Format =\n%q\nwant\n%q", got, want)
	}
}

func TestFormatErrorShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"error string", `{"error":"division by zero"}`, "calc failed: division by zero"},
		{"error object", `{"error":{"code":3,"message":"bad input"}}`, "calc failed: bad input"},
		{"success false", `{"success":false,"message":"not found"}`, "calc failed: not found"},
		{"is_error", `{"is_error":true,"content":"timeout"}`, "calc failed: timeout"},
		{"text prefix", `Error: tool crashed`, "calc failed: tool crashed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Format([]Result{{Name: "calc", Payload: tt.payload}})
			if !strings.Contains(got, tt.want) {
				t.Errorf("Format = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestFormatNotErrorShapes(t *testing.T) {
	t.Parallel()

	for _, payload := range []string{`{"error":null,"value":1}`, `{"error":"","value":1}`, `{"success":true,"value":1}`} {
		if got := Format([]Result{{Name: "x", Payload: payload}}); strings.Contains(got, "failed") {
			t.Errorf("payload %s rendered as error: %q", payload, got)
		}
	}
}

func TestRenderers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		result  Result
		want    []string
		notWant []string
	}{
		{
			name:   "calculation with expression and unit",
			result: Result{Name: "calculate_energy", Payload: `{"expression":"E = m*c^2","result":8.98755e16,"unit":"J"}`},
			want:   []string{"E = m*c^2 = 8.98755e16 J"},
		},
		{
			name:   "calculation keeps extra keys",
			result: Result{Name: "compute", Payload: `{"value":42,"steps":3}`},
			want:   []string{"Result: 42", "steps: 3"},
		},
		{
			name:   "memory list",
			result: Result{Name: "recall_memory", Payload: `{"memories":[{"key":"color","value":"blue"},"plain note"]}`},
			want:   []string{"- color: blue", "- plain note"},
		},
		{
			name:   "memory saved",
			result: Result{Name: "remember", Payload: `{"saved":true,"content":"likes tea"}`},
			want:   []string{"Saved: likes tea"},
		},
		{
			name:   "search results",
			result: Result{Name: "web_search", Payload: `{"results":[{"title":"Go","snippet":"A language"},{"title":"Rust"}]}`},
			want:   []string{"- Go: A language", "- Rust"},
		},
		{
			name:   "search empty",
			result: Result{Name: "lookup", Payload: `[]`},
			want:   []string{"No results."},
		},
		{
			name:   "generic aligned",
			result: Result{Name: "status", Payload: `{"temperature":21,"ok":true,"nested":{"b":1,"a":2}}`},
			want:   []string{"nested:      {\"a\":2,\"b\":1}", "ok:          yes", "temperature: 21"},
		},
		{
			name:   "plain text",
			result: Result{Name: "echo", Payload: "line one\n\nline two\n"},
			want:   []string{"  line one\n  line two"},
		},
		{
			name:   "empty payload",
			result: Result{Name: "noop", Payload: ""},
			want:   []string{"(no output)"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Format([]Result{tt.result})
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("Format =\n%s\nmissing %q", got, w)
				}
			}
		})
	}
}

func TestFormatMultipleResultsNumbered(t *testing.T) {
	t.Parallel()

	got := Format([]Result{
		{Name: "lookup", Payload: `{"city":"Rome"}`},
		{Name: "lookup", Payload: `{"error":"rate limited"}`},
	})
	if !strings.Contains(got, "1. lookup:\n  city: Rome") {
		t.Errorf("first result missing:\n%s", got)
	}
	if !strings.Contains(got, "2. lookup failed: rate limited") {
		t.Errorf("second result missing:\n%s", got)
	}
}

func TestTruncateIsGraphemeSafe(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("👍🏽", maxValueWidth+10)
	got := truncate(long)
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("expected ellipsis, got %q", got)
	}
	body := strings.TrimSuffix(got, "…")
	if body != strings.Repeat("👍🏽", maxValueWidth-1) {
		t.Error("truncation split a grapheme cluster")
	}
	if short := truncate("short"); short != "short" {
		t.Errorf("truncate(short) = %q", short)
	}
}

func TestListIsCapped(t *testing.T) {
	t.Parallel()

	items := make([]string, maxListItems+5)
	for i := range items {
		items[i] = `"x"`
	}
	got := Format([]Result{{Name: "search", Payload: "[" + strings.Join(items, ",") + "]"}})
	if !strings.Contains(got, "... and 5 more") {
		t.Errorf("list not capped:\n%s", got)
	}
}

func TestTextLinesMarksOnlyRealCuts(t *testing.T) {
	t.Parallel()

	lines := func(n int) string {
		out := make([]string, n)
		for i := range out {
			out[i] = fmt.Sprintf("line %d", i)
		}
		return strings.Join(out, "\n")
	}

	tests := []struct {
		name    string
		payload string
		want    int
		cut     bool
	}{
		{"exactly at cap", lines(maxListItems), maxListItems, false},
		{"blank lines ignored", lines(maxListItems) + "\n\n\n", maxListItems, false},
		{"one over cap", lines(maxListItems + 1), maxListItems + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := textLines(tt.payload)
			if len(got) != tt.want {
				t.Fatalf("got %d lines, want %d", len(got), tt.want)
			}
			if cut := got[len(got)-1] == "..."; cut != tt.cut {
				t.Errorf("cut marker = %v, want %v", cut, tt.cut)
			}
		})
	}
}
