// Package workspace runs the text-based agent loop: prompt an LLM, extract
// tool calls from its reply, execute them, feed results back, repeat until
// the model answers without calling tools.
package workspace

import (
	"github.com/routa-ai/routa/pkg/coordination"
)

type ChunkKind string

const (
	ChunkText             ChunkKind = "TEXT"
	ChunkThinking         ChunkKind = "THINKING"
	ChunkToolCall         ChunkKind = "TOOL_CALL"
	ChunkError            ChunkKind = "ERROR"
	ChunkCompleted        ChunkKind = "COMPLETED"
	ChunkHeartbeat        ChunkKind = "HEARTBEAT"
	ChunkCompletionReport ChunkKind = "COMPLETION_REPORT"
)

type ThinkingPhase string

const (
	ThinkingStart ThinkingPhase = "START"
	ThinkingChunk ThinkingPhase = "CHUNK"
	ThinkingEnd   ThinkingPhase = "END"
)

type ToolCallStatus string

const (
	ToolStarted    ToolCallStatus = "STARTED"
	ToolInProgress ToolCallStatus = "IN_PROGRESS"
	ToolCompleted  ToolCallStatus = "COMPLETED"
	ToolFailed     ToolCallStatus = "FAILED"
)

// Stop reasons carried by Completed chunks.
const (
	StopEndTurn       = "end_turn"
	StopCancelled     = "cancelled"
	StopMaxIterations = "max_iterations"
)

// StreamChunk is one unit of the streaming output protocol. Kind selects
// which fields are meaningful.
type StreamChunk struct {
	Kind ChunkKind

	Content       string
	ThinkingPhase ThinkingPhase

	ToolName   string
	ToolStatus ToolCallStatus
	Arguments  map[string]string
	Result     string

	ErrorMessage string
	Recoverable  bool

	StopReason string

	Report *coordination.CompletionReport
}

func TextChunk(content string) StreamChunk {
	return StreamChunk{Kind: ChunkText, Content: content}
}

func ThinkingChunkOf(phase ThinkingPhase, content string) StreamChunk {
	return StreamChunk{Kind: ChunkThinking, ThinkingPhase: phase, Content: content}
}

func ToolCallChunk(name string, status ToolCallStatus, arguments map[string]string, result string) StreamChunk {
	return StreamChunk{Kind: ChunkToolCall, ToolName: name, ToolStatus: status, Arguments: arguments, Result: result}
}

func ErrorChunk(message string, recoverable bool) StreamChunk {
	return StreamChunk{Kind: ChunkError, ErrorMessage: message, Recoverable: recoverable}
}

func CompletedChunk(stopReason string) StreamChunk {
	return StreamChunk{Kind: ChunkCompleted, StopReason: stopReason}
}

func HeartbeatChunk() StreamChunk {
	return StreamChunk{Kind: ChunkHeartbeat}
}

func CompletionReportChunk(report coordination.CompletionReport) StreamChunk {
	return StreamChunk{Kind: ChunkCompletionReport, Report: &report}
}
