// Package textexec executes tool calls extracted from LLM text. It provides
// path-safe built-in file tools and dispatches everything else to registered
// typed tools, rebuilding typed arguments from string extractions.
package textexec

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/routa-ai/routa/pkg/agenttools"
	"github.com/routa-ai/routa/pkg/coordination"
	"github.com/routa-ai/routa/pkg/observability"
	"github.com/routa-ai/routa/pkg/toolcall"
)

// Executor resolves built-in file tools against a working directory and
// additional tools against a registry. A nil registry disables additional
// tools.
type Executor struct {
	cwd   string
	tools *agenttools.Registry
}

func New(cwd string, tools *agenttools.Registry) *Executor {
	abs, err := filepath.Abs(cwd)
	if err != nil {
		abs = filepath.Clean(cwd)
	}
	return &Executor{cwd: abs, tools: tools}
}

// Execute runs a single tool call. Failures are always captured into the
// result; the returned error is reserved for context cancellation.
func (e *Executor) Execute(ctx context.Context, call toolcall.ToolCall) agenttools.ToolResult {
	tracer := observability.GetTracer("textexec")
	ctx, span := tracer.Start(ctx, observability.SpanToolExecution)
	span.SetAttributes(attribute.String(observability.AttrToolName, call.Name))
	defer span.End()

	result := e.execute(ctx, call)
	if !result.Success {
		span.SetStatus(codes.Error, result.Error)
		span.SetAttributes(attribute.String(observability.AttrErrorType, "tool_error"))
	}
	return result
}

// ExecuteAll runs calls in order, never stopping on a failed call.
func (e *Executor) ExecuteAll(ctx context.Context, calls []toolcall.ToolCall) []agenttools.ToolResult {
	results := make([]agenttools.ToolResult, 0, len(calls))
	for _, call := range calls {
		results = append(results, e.Execute(ctx, call))
	}
	return results
}

func (e *Executor) execute(ctx context.Context, call toolcall.ToolCall) agenttools.ToolResult {
	switch call.Name {
	case "read_file":
		return e.readFile(call)
	case "list_files":
		return e.listFiles(call)
	case "write_file":
		return agenttools.ToolResult{
			ToolName: "write_file",
			Success:  false,
			Error:    "write_file is disabled here. Delegate file modifications by emitting an @@@task block instead.",
		}
	}

	if e.tools != nil {
		if tool, ok := e.tools.Get(call.Name); ok {
			return e.dispatch(ctx, tool, call)
		}
	}

	return agenttools.ToolResult{
		ToolName: call.Name,
		Success:  false,
		Error:    fmt.Sprintf("unknown tool %q. Available tools: %s", call.Name, strings.Join(e.availableTools(), ", ")),
	}
}

func (e *Executor) availableTools() []string {
	names := []string{"read_file", "list_files", "write_file"}
	if e.tools != nil {
		names = append(names, e.tools.Names()...)
	}
	sort.Strings(names)
	return names
}

// dispatch rebuilds typed arguments from the call's string values using the
// tool's parameter descriptors, then invokes the tool. Tool errors become
// failed results, never panics or escaping errors.
func (e *Executor) dispatch(ctx context.Context, tool agenttools.Tool, call toolcall.ToolCall) agenttools.ToolResult {
	args := rebuildArguments(tool.GetInfo(), call.Arguments)

	result, err := tool.Execute(ctx, args)
	if err != nil {
		return agenttools.ToolResult{
			ToolName: call.Name,
			Success:  false,
			Error:    "Error: " + err.Error(),
		}
	}
	if result.ToolName == "" {
		result.ToolName = call.Name
	}
	return result
}

// resolvePath joins a relative path against cwd and rejects any resolution
// escaping it.
func (e *Executor) resolvePath(raw string) (string, error) {
	joined := raw
	if !filepath.IsAbs(joined) {
		joined = filepath.Join(e.cwd, joined)
	}
	resolved := filepath.Clean(joined)

	if resolved != e.cwd && !strings.HasPrefix(resolved, e.cwd+string(filepath.Separator)) {
		return "", coordination.NewError(coordination.KindAccessDenied,
			"path %q resolves outside the working directory", raw)
	}
	return resolved, nil
}

func (e *Executor) readFile(call toolcall.ToolCall) agenttools.ToolResult {
	raw := strings.TrimSpace(call.Arguments["path"])
	if raw == "" {
		return agenttools.ToolResult{ToolName: "read_file", Success: false, Error: "missing required argument \"path\""}
	}

	resolved, err := e.resolvePath(raw)
	if err != nil {
		return agenttools.ToolResult{ToolName: "read_file", Success: false, Error: err.Error()}
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return agenttools.ToolResult{
			ToolName: "read_file", Success: false,
			Error: coordination.NewError(coordination.KindNotFound, "file %q not found", raw).Error(),
		}
	}
	if info.IsDir() {
		return agenttools.ToolResult{ToolName: "read_file", Success: false, Error: fmt.Sprintf("%q is not a file", raw)}
	}

	content, err := os.ReadFile(resolved)
	if err != nil {
		return agenttools.ToolResult{ToolName: "read_file", Success: false, Error: "Error: " + err.Error()}
	}
	return agenttools.ToolResult{ToolName: "read_file", Success: true, Output: string(content)}
}

func (e *Executor) listFiles(call toolcall.ToolCall) agenttools.ToolResult {
	raw := strings.TrimSpace(call.Arguments["path"])
	if raw == "" {
		raw = "."
	}

	resolved, err := e.resolvePath(raw)
	if err != nil {
		return agenttools.ToolResult{ToolName: "list_files", Success: false, Error: err.Error()}
	}

	entries, err := os.ReadDir(resolved)
	if err != nil {
		return agenttools.ToolResult{
			ToolName: "list_files", Success: false,
			Error: coordination.NewError(coordination.KindNotFound, "directory %q not found", raw).Error(),
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	var sb strings.Builder
	for _, entry := range entries {
		kind := "[file]"
		if entry.IsDir() {
			kind = "[dir]"
		}
		fmt.Fprintf(&sb, "%s %s\n", kind, entry.Name())
	}
	return agenttools.ToolResult{ToolName: "list_files", Success: true, Output: strings.TrimRight(sb.String(), "\n")}
}

// FormatResults renders results in the tool-result grammar the agent loop
// feeds back to the LLM.
func FormatResults(results []agenttools.ToolResult) string {
	var sb strings.Builder
	for _, result := range results {
		status := "success"
		output := result.Output
		if !result.Success {
			status = "error"
			output = result.Error
		}
		sb.WriteString("<tool_result>\n")
		sb.WriteString("<tool_name>" + result.ToolName + "</tool_name>\n")
		sb.WriteString("<status>" + status + "</status>\n")
		sb.WriteString("<output>\n")
		sb.WriteString(output)
		sb.WriteString("\n</output>\n")
		sb.WriteString("</tool_result>\n")
	}
	return sb.String()
}
