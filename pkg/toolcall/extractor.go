// Package toolcall extracts tool invocations from LLM response text. Calls
// ride inside the response either as <tool_call> XML tags or as fenced JSON
// code blocks; the XML form always wins when present.
package toolcall

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ToolCall is one structured tool request recovered from response text.
// Argument values are carried in string form; the executor rebuilds typed
// values from the target tool's parameter descriptors.
type ToolCall struct {
	Name      string
	Arguments map[string]string
}

var (
	xmlPattern    = regexp.MustCompile(`(?s)<tool_call>\s*(.*?)\s*</tool_call>`)
	fencedPattern = regexp.MustCompile("(?s)```(?:json)?\\s*\n(.*?)\n```")
)

// Extract returns the tool calls found in response, in document order.
// XML-tagged calls take precedence; fenced JSON blocks are consulted only
// when no XML form is present, with duplicate names suppressed.
func Extract(response string) []ToolCall {
	if calls := extractXML(response); len(calls) > 0 {
		return calls
	}
	return extractFenced(response)
}

// HasToolCalls reports whether response carries any extractable tool call.
func HasToolCalls(response string) bool {
	if xmlPattern.MatchString(response) {
		return true
	}
	return len(Extract(response)) > 0
}

// RemoveToolCalls strips every XML-tagged call and trims the remainder.
func RemoveToolCalls(response string) string {
	return strings.TrimSpace(xmlPattern.ReplaceAllString(response, ""))
}

func extractXML(response string) []ToolCall {
	var calls []ToolCall
	for _, match := range xmlPattern.FindAllStringSubmatch(response, -1) {
		if call, ok := parseCall(match[1]); ok {
			calls = append(calls, call)
		}
	}
	return calls
}

func extractFenced(response string) []ToolCall {
	var calls []ToolCall
	seen := make(map[string]bool)
	for _, match := range fencedPattern.FindAllStringSubmatch(response, -1) {
		call, ok := parseCall(match[1])
		if !ok || seen[call.Name] {
			continue
		}
		seen[call.Name] = true
		calls = append(calls, call)
	}
	return calls
}

// parseCall decodes a {"name": ..., "arguments": {...}} JSON object.
// Malformed JSON yields no call rather than an error.
func parseCall(raw string) (ToolCall, bool) {
	var envelope struct {
		Name      string                     `json:"name"`
		Arguments map[string]json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil || envelope.Name == "" {
		return ToolCall{}, false
	}

	call := ToolCall{Name: envelope.Name, Arguments: make(map[string]string, len(envelope.Arguments))}
	for key, value := range envelope.Arguments {
		call.Arguments[key] = coerceToString(value)
	}
	return call, true
}

// coerceToString flattens a JSON value to its string form. Primitives become
// their content; objects and arrays keep their JSON serialization so the
// dispatcher can re-parse them against the tool's parameter descriptor.
func coerceToString(raw json.RawMessage) string {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return string(raw)
	}
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return formatNumber(v)
	case nil:
		return ""
	default:
		return string(raw)
	}
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return fmt.Sprintf("%g", f)
}
