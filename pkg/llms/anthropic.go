package llms

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/routa-ai/routa/pkg/coordination"
	"github.com/routa-ai/routa/pkg/httpclient"
)

const anthropicVersion = "2023-06-01"

// Anthropic caps max_tokens; requests without a limit get this default.
const anthropicDefaultMaxTokens = 4096

// AnthropicExecutor speaks the Anthropic messages protocol.
type AnthropicExecutor struct {
	baseURL      string
	apiKey       string
	defaultModel string
	client       *httpclient.Client
}

func NewAnthropicExecutor(baseURL, apiKey, defaultModel string) *AnthropicExecutor {
	if baseURL == "" {
		baseURL = GetDefaultBaseURL(ProviderAnthropic)
	}
	return &AnthropicExecutor{
		baseURL:      NormalizeBaseURL(baseURL),
		apiKey:       apiKey,
		defaultModel: defaultModel,
		client:       httpclient.New(),
	}
}

func (e *AnthropicExecutor) DefaultModel() string { return e.defaultModel }

func (e *AnthropicExecutor) Close() error { return nil }

type anthropicRequest struct {
	Model       string    `json:"model"`
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// splitSystem hoists system-role turns into Anthropic's top-level system
// field, which does not accept system messages inline.
func splitSystem(messages []Message) (string, []Message) {
	var system []string
	rest := make([]Message, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == RoleSystem {
			system = append(system, msg.Content)
			continue
		}
		rest = append(rest, msg)
	}
	return strings.Join(system, "\n\n"), rest
}

func (e *AnthropicExecutor) newRequest(ctx context.Context, req Request, stream bool) (*http.Request, error) {
	model := req.Model
	if model == "" {
		model = e.defaultModel
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}

	system, messages := splitSystem(req.Messages)
	body, err := json.Marshal(anthropicRequest{
		Model:       model,
		System:      system,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
		Stream:      stream,
	})
	if err != nil {
		return nil, coordination.WrapError(coordination.KindBadInput, err, "encode messages request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"messages", bytes.NewReader(body))
	if err != nil {
		return nil, coordination.WrapError(coordination.KindBadInput, err, "build messages request")
	}
	httpReq.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", e.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	return httpReq, nil
}

func (e *AnthropicExecutor) Execute(ctx context.Context, req Request) (string, error) {
	httpReq, err := e.newRequest(ctx, req, false)
	if err != nil {
		return "", err
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return "", coordination.WrapError(coordination.KindUpstreamError, err, "messages request failed")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", coordination.WrapError(coordination.KindUpstreamError, err, "read messages response")
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", coordination.WrapError(coordination.KindUpstreamError, err, "decode messages response")
	}
	if parsed.Error != nil {
		return "", coordination.NewError(coordination.KindUpstreamError, "provider error: %s", parsed.Error.Message)
	}

	var sb strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

type anthropicStreamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
}

func (e *AnthropicExecutor) ExecuteStreaming(ctx context.Context, req Request) (<-chan StreamDelta, error) {
	httpReq, err := e.newRequest(ctx, req, true)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, coordination.WrapError(coordination.KindUpstreamError, err, "streaming messages request failed")
	}

	out := make(chan StreamDelta)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case <-ctx.Done():
				out <- StreamDelta{Kind: DeltaError, Err: coordination.WrapError(coordination.KindCancelled, ctx.Err(), "stream cancelled")}
				return
			default:
			}

			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))

			var event anthropicStreamEvent
			if err := json.Unmarshal([]byte(payload), &event); err != nil {
				continue
			}
			switch event.Type {
			case "content_block_delta":
				if event.Delta.Text != "" {
					out <- StreamDelta{Kind: DeltaAppend, Text: event.Delta.Text}
				}
			case "message_stop":
				out <- StreamDelta{Kind: DeltaEnd}
				return
			}
		}
		if err := scanner.Err(); err != nil {
			out <- StreamDelta{Kind: DeltaError, Err: coordination.WrapError(coordination.KindUpstreamError, err, "stream read failed")}
			return
		}
		out <- StreamDelta{Kind: DeltaEnd}
	}()
	return out, nil
}

var _ Executor = (*AnthropicExecutor)(nil)
