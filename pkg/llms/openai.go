package llms

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/routa-ai/routa/pkg/coordination"
	"github.com/routa-ai/routa/pkg/httpclient"
)

// OpenAIExecutor speaks the OpenAI chat-completions protocol. It also serves
// every OpenAI-compatible backend (DeepSeek, Ollama, OpenRouter, GLM, Qwen,
// Kimi, MiniMax, Copilot, custom bases) via its base URL and extra headers.
type OpenAIExecutor struct {
	baseURL      string
	apiKey       string
	defaultModel string
	extraHeaders map[string]string
	client       *httpclient.Client
}

type OpenAIOption func(*OpenAIExecutor)

// WithExtraHeaders adds per-request headers, e.g. Copilot editor metadata.
func WithExtraHeaders(headers map[string]string) OpenAIOption {
	return func(e *OpenAIExecutor) {
		e.extraHeaders = headers
	}
}

func WithClient(client *httpclient.Client) OpenAIOption {
	return func(e *OpenAIExecutor) {
		e.client = client
	}
}

func NewOpenAIExecutor(baseURL, apiKey, defaultModel string, opts ...OpenAIOption) *OpenAIExecutor {
	e := &OpenAIExecutor{
		baseURL:      NormalizeBaseURL(baseURL),
		apiKey:       apiKey,
		defaultModel: defaultModel,
		client:       httpclient.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *OpenAIExecutor) DefaultModel() string { return e.defaultModel }

func (e *OpenAIExecutor) Close() error { return nil }

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (e *OpenAIExecutor) newRequest(ctx context.Context, req Request, stream bool) (*http.Request, error) {
	model := req.Model
	if model == "" {
		model = e.defaultModel
	}

	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      stream,
	})
	if err != nil {
		return nil, coordination.WrapError(coordination.KindBadInput, err, "encode chat request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, coordination.WrapError(coordination.KindBadInput, err, "build chat request")
	}
	httpReq.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+e.apiKey)
	}
	for key, value := range e.extraHeaders {
		httpReq.Header.Set(key, value)
	}
	return httpReq, nil
}

func (e *OpenAIExecutor) Execute(ctx context.Context, req Request) (string, error) {
	httpReq, err := e.newRequest(ctx, req, false)
	if err != nil {
		return "", err
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return "", coordination.WrapError(coordination.KindUpstreamError, err, "chat completion request failed")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", coordination.WrapError(coordination.KindUpstreamError, err, "read chat completion response")
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", coordination.WrapError(coordination.KindUpstreamError, err, "decode chat completion response")
	}
	if parsed.Error != nil {
		return "", coordination.NewError(coordination.KindUpstreamError, "provider error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", coordination.NewError(coordination.KindUpstreamError, "provider returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

func (e *OpenAIExecutor) ExecuteStreaming(ctx context.Context, req Request) (<-chan StreamDelta, error) {
	httpReq, err := e.newRequest(ctx, req, true)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, coordination.WrapError(coordination.KindUpstreamError, err, "streaming chat request failed")
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
			if payload == "[DONE]" {
				out <- StreamDelta{Kind: DeltaEnd}
				return
			}

			var chunk chatResponse
			if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
				continue
			}
			if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
				out <- StreamDelta{Kind: DeltaAppend, Text: chunk.Choices[0].Delta.Content}
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

var _ Executor = (*OpenAIExecutor)(nil)

func (e *OpenAIExecutor) String() string {
	return fmt.Sprintf("openai-compatible executor (%s)", e.baseURL)
}
