// ABOUTME: Deterministic answer synthesis from tool results when the model returns no text
// ABOUTME: Per-family renderers (calculate, memory, search) plus a generic key/value renderer

package fallback

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// maxValueWidth caps rendered scalar values, in grapheme clusters.
const maxValueWidth = 160

// maxListItems caps how many array elements a renderer prints.
const maxListItems = 20

// Result is one executed tool call and its raw result payload.
type Result struct {
	Name    string
	Payload string
}

// renderer turns a decoded success payload into indented lines.
type renderer func(v any) []string

// families maps name fragments to renderers; first match wins, so order
// them from most to least specific.
var families = []struct {
	keywords []string
	render   renderer
}{
	{[]string{"calc", "compute", "eval", "math"}, renderCalculation},
	{[]string{"memory", "remember", "recall", "note"}, renderMemory},
	{[]string{"search", "lookup", "find", "query"}, renderSearch},
}

// Format renders results as a plain-text answer. The output depends only
// on its input: object keys are sorted and no clock or randomness is read.
func Format(results []Result) string {
	if len(results) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Here is what the tools returned:\n")
	for i, r := range results {
		b.WriteString("\n")
		title := r.Name
		if len(results) > 1 {
			title = fmt.Sprintf("%d. %s", i+1, r.Name)
		}

		v, isJSON := decode(r.Payload)
		if msg, failed := errorMessage(r.Payload, v, isJSON); failed {
			fmt.Fprintf(&b, "%s failed: %s\n", title, truncate(msg))
			continue
		}

		b.WriteString(title + ":\n")
		var lines []string
		if !isJSON {
			lines = textLines(r.Payload)
		} else {
			lines = rendererFor(r.Name)(v)
		}
		if len(lines) == 0 {
			lines = []string{"(no output)"}
		}
		for _, l := range lines {
			b.WriteString("  " + l + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func rendererFor(name string) renderer {
	lower := strings.ToLower(name)
	for _, f := range families {
		for _, k := range f.keywords {
			if strings.Contains(lower, k) {
				return f.render
			}
		}
	}
	return renderGeneric
}

// decode parses payload as JSON, keeping numbers in their original form.
func decode(payload string) (any, bool) {
	trimmed := strings.TrimSpace(payload)
	if trimmed == "" {
		return nil, false
	}
	dec := json.NewDecoder(strings.NewReader(trimmed))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return nil, false
	}
	return v, true
}

// errorMessage reports whether the payload is error-shaped: an "error" key,
// success=false, is_error=true, or a plain-text "Error:" prefix.
func errorMessage(raw string, v any, isJSON bool) (string, bool) {
	if !isJSON {
		trimmed := strings.TrimSpace(raw)
		if len(trimmed) >= 6 && strings.EqualFold(trimmed[:6], "error:") {
			return strings.TrimSpace(trimmed[6:]), true
		}
		return "", false
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	if e, ok := obj["error"]; ok && e != nil && e != false && e != "" {
		switch e := e.(type) {
		case string:
			return e, true
		case map[string]any:
			if m, ok := e["message"].(string); ok {
				return m, true
			}
		}
		return compact(e), true
	}
	if s, ok := obj["success"].(bool); ok && !s {
		return messageOf(obj), true
	}
	if s, ok := obj["is_error"].(bool); ok && s {
		return messageOf(obj), true
	}
	return "", false
}

func messageOf(obj map[string]any) string {
	for _, k := range []string{"message", "reason", "content", "detail"} {
		if s, ok := obj[k].(string); ok && s != "" {
			return s
		}
	}
	return compact(obj)
}

func renderCalculation(v any) []string {
	obj, ok := v.(map[string]any)
	if !ok {
		return renderGeneric(v)
	}
	value, key := firstOf(obj, "result", "value", "answer", "output")
	if key == "" {
		return renderGeneric(v)
	}
	line := "Result: " + scalar(value)
	if expr, k := firstOf(obj, "expression", "formula", "input"); k != "" {
		line = scalar(expr) + " = " + scalar(value)
	}
	if unit, k := firstOf(obj, "unit", "units"); k != "" {
		line += " " + scalar(unit)
	}

	rest := without(obj, key, "expression", "formula", "input", "unit", "units")
	return append([]string{line}, renderObject(rest)...)
}

func renderMemory(v any) []string {
	obj, ok := v.(map[string]any)
	if !ok {
		return renderGeneric(v)
	}
	if items, k := firstOf(obj, "memories", "items", "results", "notes", "entries"); k != "" {
		if list, ok := items.([]any); ok {
			if len(list) == 0 {
				return []string{"No stored memories."}
			}
			return renderList(list)
		}
	}
	if s, ok := obj["saved"].(bool); ok && s {
		line := "Saved."
		if content, k := firstOf(obj, "content", "text", "memory", "key"); k != "" {
			line = "Saved: " + scalar(content)
		}
		return []string{line}
	}
	return renderGeneric(v)
}

func renderSearch(v any) []string {
	list, ok := v.([]any)
	if obj, isObj := v.(map[string]any); isObj {
		items, k := firstOf(obj, "results", "matches", "items", "hits")
		if k == "" {
			return renderGeneric(v)
		}
		list, ok = items.([]any)
	}
	if !ok {
		return renderGeneric(v)
	}
	if len(list) == 0 {
		return []string{"No results."}
	}
	return renderList(list)
}

func renderGeneric(v any) []string {
	switch t := v.(type) {
	case map[string]any:
		return renderObject(t)
	case []any:
		if len(t) == 0 {
			return []string{"(empty list)"}
		}
		return renderList(t)
	default:
		return []string{scalar(t)}
	}
}

// renderObject prints sorted keys with values aligned in one column.
func renderObject(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	width := 0
	for k := range obj {
		keys = append(keys, k)
		width = max(width, runewidth.StringWidth(k))
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, runewidth.FillRight(k+":", width+1)+" "+scalar(obj[k]))
	}
	return lines
}

// renderList prints one bullet per element, objects as "title: summary".
func renderList(list []any) []string {
	lines := make([]string, 0, min(len(list), maxListItems)+1)
	for i, item := range list {
		if i == maxListItems {
			lines = append(lines, fmt.Sprintf("... and %d more", len(list)-maxListItems))
			break
		}
		lines = append(lines, "- "+summary(item))
	}
	return lines
}

// summary renders a list element, preferring a title-like field.
func summary(item any) string {
	obj, ok := item.(map[string]any)
	if !ok {
		return scalar(item)
	}
	title, tk := firstOf(obj, "title", "name", "key", "id")
	body, bk := firstOf(obj, "snippet", "content", "text", "value", "summary", "description")
	switch {
	case tk != "" && bk != "":
		return truncate(scalar(title) + ": " + scalar(body))
	case tk != "":
		return scalar(title)
	case bk != "":
		return scalar(body)
	default:
		return truncate(compact(obj))
	}
}

func firstOf(obj map[string]any, keys ...string) (any, string) {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v, k
		}
	}
	return nil, ""
}

func without(obj map[string]any, keys ...string) map[string]any {
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// scalar renders a value on one line.
func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return truncate(strings.Join(strings.Fields(t), " "))
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "yes"
		}
		return "no"
	default:
		return truncate(compact(t))
	}
}

// compact marshals v; map keys come out sorted.
func compact(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimSpace(buf.String())
}

func textLines(payload string) []string {
	var lines []string
	for _, l := range strings.Split(strings.TrimSpace(payload), "\n") {
		l = strings.TrimRight(l, " \t\r")
		if l == "" {
			continue
		}
		if len(lines) == maxListItems {
			return append(lines, "...")
		}
		lines = append(lines, truncate(l))
	}
	return lines
}

// truncate shortens s to maxValueWidth grapheme clusters.
func truncate(s string) string {
	if uniseg.GraphemeClusterCount(s) <= maxValueWidth {
		return s
	}
	var b strings.Builder
	g := uniseg.NewGraphemes(s)
	for n := 0; n < maxValueWidth-1 && g.Next(); n++ {
		b.WriteString(g.Str())
	}
	b.WriteString("…")
	return b.String()
}
