package workspace

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/routa-ai/routa/pkg/agenttools"
	"github.com/routa-ai/routa/pkg/coordination"
	"github.com/routa-ai/routa/pkg/llms"
	"github.com/routa-ai/routa/pkg/observability"
	"github.com/routa-ai/routa/pkg/textexec"
	"github.com/routa-ai/routa/pkg/toolcall"
)

// DefaultMaxIterations bounds the tool loop.
const DefaultMaxIterations = 20

// Sentinel responses when the loop ends without a model answer.
const (
	CancelledResponse     = "[Agent cancelled]"
	MaxIterationsResponse = "[Agent reached max iterations]"
)

// LoopConfig wires one agent loop instance.
type LoopConfig struct {
	Executor     llms.Executor
	Model        string
	SystemPrompt string
	Tools        *textexec.Executor
	Cancels      *CancelRegistry

	// MaxIterations defaults to DefaultMaxIterations when zero.
	MaxIterations int

	// Store, when set, records the conversation under the agent id.
	Store coordination.Store
}

// Loop drives the text-based tool protocol for one agent.
type Loop struct {
	cfg LoopConfig
}

func NewLoop(cfg LoopConfig) *Loop {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.Cancels == nil {
		cfg.Cancels = NewCancelRegistry()
	}
	return &Loop{cfg: cfg}
}

// Run executes the loop to completion and returns the final model answer.
// A CANCELLED or MAX_ITERATIONS error accompanies the partial result when
// the loop ends early.
func (l *Loop) Run(ctx context.Context, agentID, userPrompt string) (string, error) {
	tracer := observability.GetTracer("workspace")
	ctx, span := tracer.Start(ctx, observability.SpanAgentLoop)
	span.SetAttributes(attribute.String(observability.AttrAgentID, agentID))
	defer span.End()

	l.cfg.Cancels.Activate(agentID)
	defer l.cfg.Cancels.Deactivate(agentID)

	conversation := []llms.Message{{Role: llms.RoleUser, Content: userPrompt}}
	l.record(agentID, coordination.MessageUser, userPrompt)

	lastResponse := ""
	for iteration := 1; iteration <= l.cfg.MaxIterations; iteration++ {
		if l.cancelled(ctx, agentID) {
			return orFallback(lastResponse, CancelledResponse),
				coordination.NewError(coordination.KindCancelled, "agent %s cancelled at iteration %d", agentID, iteration)
		}

		response, err := l.cfg.Executor.Execute(ctx, l.request(conversation))
		if err != nil {
			return lastResponse, coordination.WrapError(coordination.KindUpstreamError, err, "agent %s iteration %d", agentID, iteration)
		}

		calls := toolcall.Extract(response)
		if len(calls) == 0 {
			l.record(agentID, coordination.MessageAssistant, response)
			return response, nil
		}

		slog.Debug("Agent loop executing tool calls",
			"agent", agentID, "iteration", iteration, "calls", len(calls))

		conversation = append(conversation, llms.Message{Role: llms.RoleAssistant, Content: response})
		l.record(agentID, coordination.MessageToolCall, response)

		results := l.cfg.Tools.ExecuteAll(ctx, calls)
		formatted := textexec.FormatResults(results)
		conversation = append(conversation, llms.Message{Role: llms.RoleUser, Content: formatted})
		l.record(agentID, coordination.MessageToolResult, formatted)

		lastResponse = response
	}

	return orFallback(lastResponse, MaxIterationsResponse),
		coordination.NewError(coordination.KindMaxIterations, "agent %s exhausted %d iterations", agentID, l.cfg.MaxIterations)
}

// RunStreaming is Run with every model token and tool transition surfaced
// as stream chunks. The returned channel closes after a Completed chunk.
func (l *Loop) RunStreaming(ctx context.Context, agentID, userPrompt string) <-chan StreamChunk {
	out := make(chan StreamChunk)
	go func() {
		defer close(out)

		l.cfg.Cancels.Activate(agentID)
		defer l.cfg.Cancels.Deactivate(agentID)

		conversation := []llms.Message{{Role: llms.RoleUser, Content: userPrompt}}
		l.record(agentID, coordination.MessageUser, userPrompt)

		for iteration := 1; iteration <= l.cfg.MaxIterations; iteration++ {
			if l.cancelled(ctx, agentID) {
				out <- CompletedChunk(StopCancelled)
				return
			}

			if iteration > 1 {
				if !l.emit(ctx, agentID, out, TextChunk("\n\n")) {
					return
				}
			}

			response, ok := l.streamOnce(ctx, agentID, conversation, out)
			if !ok {
				return
			}

			calls := toolcall.Extract(response)
			if len(calls) == 0 {
				l.record(agentID, coordination.MessageAssistant, response)
				out <- CompletedChunk(StopEndTurn)
				return
			}

			conversation = append(conversation, llms.Message{Role: llms.RoleAssistant, Content: response})
			l.record(agentID, coordination.MessageToolCall, response)

			results := make([]agenttools.ToolResult, 0, len(calls))
			for _, call := range calls {
				if !l.emit(ctx, agentID, out, ToolCallChunk(call.Name, ToolStarted, call.Arguments, "")) {
					return
				}
				result := l.cfg.Tools.Execute(ctx, call)
				status := ToolCompleted
				output := result.Output
				if !result.Success {
					status = ToolFailed
					output = result.Error
				}
				if !l.emit(ctx, agentID, out, ToolCallChunk(call.Name, status, call.Arguments, output)) {
					return
				}
				results = append(results, result)
			}

			formatted := textexec.FormatResults(results)
			conversation = append(conversation, llms.Message{Role: llms.RoleUser, Content: formatted})
			l.record(agentID, coordination.MessageToolResult, formatted)
		}

		out <- CompletedChunk(StopMaxIterations)
	}()
	return out
}

// streamOnce consumes one streamed completion, forwarding text chunks.
// It returns the accumulated response and whether the loop should continue.
func (l *Loop) streamOnce(ctx context.Context, agentID string, conversation []llms.Message, out chan<- StreamChunk) (string, bool) {
	stream, err := l.cfg.Executor.ExecuteStreaming(ctx, l.request(conversation))
	if err != nil {
		out <- ErrorChunk(err.Error(), false)
		out <- CompletedChunk(StopEndTurn)
		return "", false
	}

	var accumulated strings.Builder
	for delta := range stream {
		switch delta.Kind {
		case llms.DeltaAppend:
			accumulated.WriteString(delta.Text)
			if !l.emit(ctx, agentID, out, TextChunk(delta.Text)) {
				return "", false
			}
		case llms.DeltaError:
			out <- ErrorChunk(delta.Err.Error(), true)
		case llms.DeltaEnd:
		}
	}
	return accumulated.String(), true
}

// emit delivers a chunk unless the agent was cancelled first.
func (l *Loop) emit(ctx context.Context, agentID string, out chan<- StreamChunk, chunk StreamChunk) bool {
	if l.cancelled(ctx, agentID) {
		out <- CompletedChunk(StopCancelled)
		return false
	}
	out <- chunk
	return true
}

func (l *Loop) cancelled(ctx context.Context, agentID string) bool {
	if ctx.Err() != nil {
		return true
	}
	return l.cfg.Cancels.IsCancelled(agentID)
}

func (l *Loop) request(conversation []llms.Message) llms.Request {
	messages := make([]llms.Message, 0, len(conversation)+1)
	if l.cfg.SystemPrompt != "" {
		messages = append(messages, llms.Message{Role: llms.RoleSystem, Content: l.cfg.SystemPrompt})
	}
	messages = append(messages, conversation...)
	return llms.Request{Model: l.cfg.Model, Messages: messages}
}

func (l *Loop) record(agentID string, kind coordination.MessageKind, content string) {
	if l.cfg.Store == nil {
		return
	}
	if err := l.cfg.Store.AppendMessage(agentID, coordination.ConversationMessage{
		Content: content,
		Kind:    kind,
	}); err != nil {
		slog.Debug("Conversation record skipped", "agent", agentID, "error", err)
	}
}

func orFallback(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
