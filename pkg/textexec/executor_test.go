package textexec

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routa-ai/routa/pkg/agenttools"
	"github.com/routa-ai/routa/pkg/toolcall"
)

func newWorkdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "a.txt"), []byte("alpha"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "b.txt"), []byte("beta"), 0o644))
	return dir
}

func TestReadFile(t *testing.T) {
	e := New(newWorkdir(t), nil)

	result := e.Execute(context.Background(), toolcall.ToolCall{
		Name:      "read_file",
		Arguments: map[string]string{"path": "src/a.txt"},
	})
	require.True(t, result.Success, result.Error)
	assert.Equal(t, "alpha", result.Output)
}

func TestReadFile_PathEscapeDenied(t *testing.T) {
	e := New(newWorkdir(t), nil)

	result := e.Execute(context.Background(), toolcall.ToolCall{
		Name:      "read_file",
		Arguments: map[string]string{"path": "../etc/passwd"},
	})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "ACCESS_DENIED")
}

func TestReadFile_AbsoluteEscapeDenied(t *testing.T) {
	e := New(newWorkdir(t), nil)

	result := e.Execute(context.Background(), toolcall.ToolCall{
		Name:      "read_file",
		Arguments: map[string]string{"path": "/etc/passwd"},
	})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "ACCESS_DENIED")
}

func TestReadFile_NotFound(t *testing.T) {
	e := New(newWorkdir(t), nil)

	result := e.Execute(context.Background(), toolcall.ToolCall{
		Name:      "read_file",
		Arguments: map[string]string{"path": "missing.txt"},
	})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "NOT_FOUND")
}

func TestReadFile_Directory(t *testing.T) {
	e := New(newWorkdir(t), nil)

	result := e.Execute(context.Background(), toolcall.ToolCall{
		Name:      "read_file",
		Arguments: map[string]string{"path": "src"},
	})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "not a file")
}

func TestListFiles_SortedWithPrefixes(t *testing.T) {
	e := New(newWorkdir(t), nil)

	result := e.Execute(context.Background(), toolcall.ToolCall{
		Name:      "list_files",
		Arguments: map[string]string{"path": "src"},
	})
	require.True(t, result.Success, result.Error)
	assert.Equal(t, "[file] a.txt\n[file] b.txt", result.Output)
}

func TestListFiles_DefaultsToCwd(t *testing.T) {
	e := New(newWorkdir(t), nil)

	result := e.Execute(context.Background(), toolcall.ToolCall{Name: "list_files", Arguments: map[string]string{}})
	require.True(t, result.Success, result.Error)
	assert.Contains(t, result.Output, "[dir] src")
}

func TestWriteFileDisabled(t *testing.T) {
	e := New(newWorkdir(t), nil)

	result := e.Execute(context.Background(), toolcall.ToolCall{
		Name:      "write_file",
		Arguments: map[string]string{"path": "x.txt", "content": "data"},
	})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "@@@task")
}

func TestUnknownToolListsAvailable(t *testing.T) {
	e := New(newWorkdir(t), agenttools.NewRegistry())

	result := e.Execute(context.Background(), toolcall.ToolCall{Name: "teleport", Arguments: map[string]string{}})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, `unknown tool "teleport"`)
	assert.Contains(t, result.Error, "read_file")
	assert.Contains(t, result.Error, "list_files")
}

type echoTool struct {
	lastArgs map[string]interface{}
}

func (t *echoTool) GetInfo() agenttools.ToolInfo {
	return agenttools.ToolInfo{
		Name: "echo",
		Parameters: []agenttools.ToolParameter{
			{Name: "count", Type: agenttools.TypeInteger},
			{Name: "ratio", Type: agenttools.TypeFloat},
			{Name: "flag", Type: agenttools.TypeBoolean},
			{Name: "items", Type: agenttools.TypeList},
			{Name: "meta", Type: agenttools.TypeObject},
			{Name: "note", Type: agenttools.TypeString},
		},
	}
}

func (t *echoTool) Execute(ctx context.Context, args map[string]interface{}) (agenttools.ToolResult, error) {
	t.lastArgs = args
	return agenttools.ToolResult{ToolName: "echo", Success: true, Output: "ok"}, nil
}

func TestDispatch_TypedArgumentRebuild(t *testing.T) {
	reg := agenttools.NewRegistry()
	tool := &echoTool{}
	require.NoError(t, reg.Register("echo", tool))
	e := New(newWorkdir(t), reg)

	result := e.Execute(context.Background(), toolcall.ToolCall{
		Name: "echo",
		Arguments: map[string]string{
			"count": "42",
			"ratio": "0.25",
			"flag":  "TRUE",
			"items": `["a","b"]`,
			"meta":  `{"k":"v"}`,
			"note":  "hello",
		},
	})
	require.True(t, result.Success, result.Error)

	assert.Equal(t, int64(42), tool.lastArgs["count"])
	assert.Equal(t, 0.25, tool.lastArgs["ratio"])
	assert.Equal(t, true, tool.lastArgs["flag"])
	assert.Equal(t, []interface{}{"a", "b"}, tool.lastArgs["items"])
	assert.Equal(t, map[string]interface{}{"k": "v"}, tool.lastArgs["meta"])
	assert.Equal(t, "hello", tool.lastArgs["note"])
}

func TestDispatch_CoercionFallbacks(t *testing.T) {
	reg := agenttools.NewRegistry()
	tool := &echoTool{}
	require.NoError(t, reg.Register("echo", tool))
	e := New(newWorkdir(t), reg)

	e.Execute(context.Background(), toolcall.ToolCall{
		Name: "echo",
		Arguments: map[string]string{
			"count": "not-a-number",
			"ratio": "nope",
			"flag":  "maybe",
			"items": "single",
			"meta":  "not-json",
		},
	})

	assert.Equal(t, int64(0), tool.lastArgs["count"])
	assert.Equal(t, float64(0), tool.lastArgs["ratio"])
	assert.Equal(t, false, tool.lastArgs["flag"])
	assert.Equal(t, []interface{}{"single"}, tool.lastArgs["items"])
	assert.Equal(t, "not-json", tool.lastArgs["meta"])
}

func TestFormatResults(t *testing.T) {
	results := []agenttools.ToolResult{
		{ToolName: "list_files", Success: true, Output: "[file] a.txt"},
		{ToolName: "read_file", Success: false, Error: "NOT_FOUND: file \"x\" not found"},
	}

	formatted := FormatResults(results)
	assert.Contains(t, formatted, "<tool_result>\n<tool_name>list_files</tool_name>\n<status>success</status>\n<output>\n[file] a.txt\n</output>\n</tool_result>")
	assert.Contains(t, formatted, "<tool_name>read_file</tool_name>\n<status>error</status>")
}

func TestExecuteAll_ContinuesPastFailures(t *testing.T) {
	e := New(newWorkdir(t), nil)

	results := e.ExecuteAll(context.Background(), []toolcall.ToolCall{
		{Name: "read_file", Arguments: map[string]string{"path": "missing.txt"}},
		{Name: "read_file", Arguments: map[string]string{"path": "src/b.txt"}},
	})
	require.Len(t, results, 2)
	assert.False(t, results[0].Success)
	assert.True(t, results[1].Success)
	assert.Equal(t, "beta", results[1].Output)
}
