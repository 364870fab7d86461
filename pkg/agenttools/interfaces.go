// Package agenttools is the typed coordination surface: the tools agents use
// to create each other, exchange messages, delegate tasks, and observe the
// event bus. Each tool carries a self-describing parameter descriptor so the
// text-based dispatcher can rebuild typed arguments from string extractions.
package agenttools

import (
	"context"
)

// Parameter types understood by the text-based dispatcher.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
	TypeFloat   = "float"
	TypeList    = "list"
	TypeObject  = "object"
	TypeEnum    = "enum"
)

type ToolParameter struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Required    bool     `json:"required"`
	Enum        []string `json:"enum,omitempty"`
}

type ToolInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ToolParameter `json:"parameters,omitempty"`
}

type ToolResult struct {
	ToolName string `json:"tool_name"`
	Success  bool   `json:"success"`
	Output   string `json:"output,omitempty"`
	Error    string `json:"error,omitempty"`
}

type Tool interface {
	GetInfo() ToolInfo

	Execute(ctx context.Context, args map[string]interface{}) (ToolResult, error)
}

func successResult(name, output string) ToolResult {
	return ToolResult{ToolName: name, Success: true, Output: output}
}

func errorResult(name string, err error) ToolResult {
	return ToolResult{ToolName: name, Success: false, Error: err.Error()}
}
