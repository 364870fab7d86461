package toolcall

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_SingleXMLCall(t *testing.T) {
	response := `Let me check that.
<tool_call>
{"name": "list_files", "arguments": {"path": "src"}}
</tool_call>`

	calls := Extract(response)
	require.Len(t, calls, 1)
	assert.Equal(t, "list_files", calls[0].Name)
	assert.Equal(t, "src", calls[0].Arguments["path"])
}

func TestExtract_MultipleXMLCalls(t *testing.T) {
	response := `<tool_call>
{"name": "read_file", "arguments": {"path": "a.txt"}}
</tool_call>
and also
<tool_call>
{"name": "read_file", "arguments": {"path": "b.txt"}}
</tool_call>`

	calls := Extract(response)
	require.Len(t, calls, 2)
	assert.Equal(t, "a.txt", calls[0].Arguments["path"])
	assert.Equal(t, "b.txt", calls[1].Arguments["path"])
}

func TestExtract_XMLPreferredOverFenced(t *testing.T) {
	response := "<tool_call>\n{\"name\": \"list_files\", \"arguments\": {}}\n</tool_call>\n" +
		"```json\n{\"name\": \"read_file\", \"arguments\": {\"path\": \"x\"}}\n```"

	calls := Extract(response)
	require.Len(t, calls, 1)
	assert.Equal(t, "list_files", calls[0].Name)
}

func TestExtract_FencedJSON(t *testing.T) {
	response := "Here is my call:\n```json\n{\"name\": \"send_message\", \"arguments\": {\"content\": \"hi\"}}\n```"

	calls := Extract(response)
	require.Len(t, calls, 1)
	assert.Equal(t, "send_message", calls[0].Name)
	assert.Equal(t, "hi", calls[0].Arguments["content"])
}

func TestExtract_FencedDuplicateSuppression(t *testing.T) {
	response := "```json\n{\"name\": \"read_file\", \"arguments\": {\"path\": \"a\"}}\n```\n" +
		"```json\n{\"name\": \"read_file\", \"arguments\": {\"path\": \"b\"}}\n```\n" +
		"```json\n{\"name\": \"list_files\", \"arguments\": {}}\n```"

	calls := Extract(response)
	require.Len(t, calls, 2)
	assert.Equal(t, "read_file", calls[0].Name)
	assert.Equal(t, "a", calls[0].Arguments["path"])
	assert.Equal(t, "list_files", calls[1].Name)
}

func TestExtract_ArgumentCoercion(t *testing.T) {
	response := `<tool_call>
{"name": "create_agent", "arguments": {"count": 3, "ratio": 0.5, "active": true, "tags": ["a","b"], "meta": {"k": "v"}, "none": null}}
</tool_call>`

	calls := Extract(response)
	require.Len(t, calls, 1)
	args := calls[0].Arguments
	assert.Equal(t, "3", args["count"])
	assert.Equal(t, "0.5", args["ratio"])
	assert.Equal(t, "true", args["active"])
	assert.JSONEq(t, `["a","b"]`, args["tags"])
	assert.JSONEq(t, `{"k":"v"}`, args["meta"])
	assert.Equal(t, "", args["none"])
}

func TestExtract_MalformedJSONSkipped(t *testing.T) {
	response := `<tool_call>
{not valid json}
</tool_call>
<tool_call>
{"name": "list_files", "arguments": {}}
</tool_call>`

	calls := Extract(response)
	require.Len(t, calls, 1)
	assert.Equal(t, "list_files", calls[0].Name)
}

func TestExtract_NoCalls(t *testing.T) {
	assert.Empty(t, Extract("plain prose with no calls"))
	assert.Empty(t, Extract("```\nnot a tool call, just code\n```"))
}

func TestHasToolCalls(t *testing.T) {
	assert.True(t, HasToolCalls("<tool_call>\n{\"name\": \"x\", \"arguments\": {}}\n</tool_call>"))
	assert.True(t, HasToolCalls("```json\n{\"name\": \"x\", \"arguments\": {}}\n```"))
	assert.False(t, HasToolCalls("nothing here"))
}

func TestRemoveToolCalls(t *testing.T) {
	response := "Before.\n<tool_call>\n{\"name\": \"x\", \"arguments\": {}}\n</tool_call>\nAfter."
	assert.Equal(t, "Before.\n\nAfter.", RemoveToolCalls(response))

	assert.Equal(t, "untouched", RemoveToolCalls("untouched"))
}
