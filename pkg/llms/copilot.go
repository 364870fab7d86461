package llms

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/routa-ai/routa/pkg/coordination"
	"github.com/routa-ai/routa/pkg/httpclient"
)

const (
	copilotTokenURL  = "https://api.github.com/copilot_internal/v2/token"
	copilotModelsURL = "https://api.githubcopilot.com/models"
	copilotAPIBase   = "https://api.githubcopilot.com/"

	// API tokens are re-exchanged when this little lifetime remains.
	copilotTokenRefreshThreshold = 5 * time.Minute

	copilotModelsCacheTTL = time.Hour
)

var copilotHeaders = map[string]string{
	"Editor-Version":         "Zed/Unknown",
	"Copilot-Integration-Id": "vscode-chat",
}

// CopilotAPIToken is the short-lived token returned by the exchange endpoint.
type CopilotAPIToken struct {
	Token     string
	ExpiresAt time.Time
}

// CopilotProvider serves GitHub Copilot through the runtime provider
// registry. It reads the OAuth token written by a local Copilot client,
// exchanges it for short-lived API tokens and caches the model catalog.
// The token and model caches are guarded by independent mutexes.
type CopilotProvider struct {
	client *httpclient.Client

	// Overridable for tests.
	tokenURL   string
	modelsURL  string
	configPath string

	tokenMu  sync.Mutex
	apiToken *CopilotAPIToken

	modelsMu    sync.Mutex
	models      []Model
	modelsStamp time.Time
}

func NewCopilotProvider() *CopilotProvider {
	return &CopilotProvider{
		client:    httpclient.New(),
		tokenURL:  copilotTokenURL,
		modelsURL: copilotModelsURL,
	}
}

// RegisterCopilotProvider installs the Copilot handler into the process-wide
// provider registry.
func RegisterCopilotProvider() *CopilotProvider {
	p := NewCopilotProvider()
	RegisterProvider(ProviderCopilot, p)
	return p
}

// copilotConfigPath locates apps.json written by an external Copilot client.
func (p *CopilotProvider) copilotConfigPath() string {
	if p.configPath != "" {
		return p.configPath
	}
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "github-copilot", "apps.json")
		}
	}
	home := os.Getenv("HOME")
	if home == "" {
		home = os.Getenv("USERPROFILE")
	}
	return filepath.Join(home, ".config", "github-copilot", "apps.json")
}

// oauthToken recursively searches apps.json for any oauth_token value.
func (p *CopilotProvider) oauthToken() (string, error) {
	path := p.copilotConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		return "", coordination.WrapError(coordination.KindProviderUnavailable, err,
			"Copilot config %s not readable; sign in with a Copilot client first", path)
	}

	var parsed interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", coordination.WrapError(coordination.KindProviderUnavailable, err, "Copilot config %s is not valid JSON", path)
	}

	if token := findOAuthToken(parsed); token != "" {
		return token, nil
	}
	return "", coordination.NewError(coordination.KindProviderUnavailable, "no oauth_token found in %s", path)
}

func findOAuthToken(value interface{}) string {
	switch v := value.(type) {
	case map[string]interface{}:
		if token, ok := v["oauth_token"].(string); ok && token != "" {
			return token
		}
		for _, nested := range v {
			if token := findOAuthToken(nested); token != "" {
				return token
			}
		}
	case []interface{}:
		for _, nested := range v {
			if token := findOAuthToken(nested); token != "" {
				return token
			}
		}
	}
	return ""
}

func (p *CopilotProvider) IsAvailable() bool {
	_, err := os.Stat(p.copilotConfigPath())
	return err == nil
}

// GetAPIToken returns a valid short-lived API token, exchanging the OAuth
// token when the cache is empty or under five minutes from expiry.
func (p *CopilotProvider) GetAPIToken(ctx context.Context) (string, error) {
	p.tokenMu.Lock()
	defer p.tokenMu.Unlock()

	if p.apiToken != nil && time.Until(p.apiToken.ExpiresAt) >= copilotTokenRefreshThreshold {
		return p.apiToken.Token, nil
	}

	oauth, err := p.oauthToken()
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.tokenURL, nil)
	if err != nil {
		return "", coordination.WrapError(coordination.KindBadInput, err, "build token exchange request")
	}
	req.Header.Set("Authorization", "token "+oauth)
	for key, value := range copilotHeaders {
		req.Header.Set(key, value)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", coordination.WrapError(coordination.KindUpstreamError, err, "Copilot token exchange failed")
	}
	defer resp.Body.Close()

	var payload struct {
		Token     string `json:"token"`
		ExpiresAt int64  `json:"expires_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", coordination.WrapError(coordination.KindUpstreamError, err, "decode Copilot token response")
	}
	if payload.Token == "" {
		return "", coordination.NewError(coordination.KindUpstreamError, "Copilot token exchange returned an empty token")
	}

	p.apiToken = &CopilotAPIToken{
		Token:     payload.Token,
		ExpiresAt: time.Unix(payload.ExpiresAt, 0),
	}
	return p.apiToken.Token, nil
}

// SetCachedToken seeds the token cache; used by tests and warm restores.
func (p *CopilotProvider) SetCachedToken(token CopilotAPIToken) {
	p.tokenMu.Lock()
	defer p.tokenMu.Unlock()
	p.apiToken = &token
}

func (p *CopilotProvider) GetDefaultBaseURL() string { return copilotAPIBase }

func (p *CopilotProvider) GetAvailableModels() []Model {
	p.modelsMu.Lock()
	defer p.modelsMu.Unlock()
	return append([]Model(nil), p.models...)
}

// FetchAvailableModels refreshes the catalog when the hour-long cache has
// expired, filtering to enabled, non-embedding models.
func (p *CopilotProvider) FetchAvailableModels(ctx context.Context) ([]Model, error) {
	p.modelsMu.Lock()
	defer p.modelsMu.Unlock()

	if len(p.models) > 0 && time.Since(p.modelsStamp) < copilotModelsCacheTTL {
		return append([]Model(nil), p.models...), nil
	}

	token, err := p.GetAPIToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.modelsURL, nil)
	if err != nil {
		return nil, coordination.WrapError(coordination.KindBadInput, err, "build model catalog request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	for key, value := range copilotHeaders {
		req.Header.Set(key, value)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, coordination.WrapError(coordination.KindUpstreamError, err, "Copilot model catalog fetch failed")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, coordination.WrapError(coordination.KindUpstreamError, err, "read Copilot model catalog")
	}

	var catalog struct {
		Data []struct {
			ID                 string `json:"id"`
			ModelPickerEnabled bool   `json:"model_picker_enabled"`
			Capabilities       struct {
				Type string `json:"type"`
			} `json:"capabilities"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, coordination.WrapError(coordination.KindUpstreamError, err, "decode Copilot model catalog")
	}

	models := make([]Model, 0, len(catalog.Data))
	for _, entry := range catalog.Data {
		if !entry.ModelPickerEnabled || strings.Contains(entry.Capabilities.Type, "embed") {
			continue
		}
		models = append(models, CreateModel(ProviderCopilot, entry.ID))
	}

	p.models = models
	p.modelsStamp = time.Now()
	return append([]Model(nil), models...), nil
}

func (p *CopilotProvider) CreateExecutor(ctx context.Context, cfg NamedModelConfig) (Executor, error) {
	// Validate credentials up front so misconfiguration surfaces at build
	// time rather than on the first request.
	if _, err := p.GetAPIToken(ctx); err != nil {
		return nil, err
	}
	return &copilotExecutor{provider: p, model: cfg.Model}, nil
}

// copilotExecutor resolves a fresh API token before every request, then
// delegates to the OpenAI-compatible protocol against the Copilot API base.
type copilotExecutor struct {
	provider *CopilotProvider
	model    string
}

func (e *copilotExecutor) inner(ctx context.Context) (*OpenAIExecutor, error) {
	token, err := e.provider.GetAPIToken(ctx)
	if err != nil {
		return nil, err
	}
	return NewOpenAIExecutor(copilotAPIBase, token, e.model,
		WithExtraHeaders(copilotHeaders),
		WithClient(e.provider.client),
	), nil
}

func (e *copilotExecutor) Execute(ctx context.Context, req Request) (string, error) {
	inner, err := e.inner(ctx)
	if err != nil {
		return "", err
	}
	return inner.Execute(ctx, req)
}

func (e *copilotExecutor) ExecuteStreaming(ctx context.Context, req Request) (<-chan StreamDelta, error) {
	inner, err := e.inner(ctx)
	if err != nil {
		return nil, err
	}
	return inner.ExecuteStreaming(ctx, req)
}

func (e *copilotExecutor) DefaultModel() string { return e.model }

func (e *copilotExecutor) Close() error { return nil }

var (
	_ ProviderHandler = (*CopilotProvider)(nil)
	_ Executor        = (*copilotExecutor)(nil)
)
