package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/clintonboys/lit/internal/errs"
)

const anthropicEndpoint = "https://api.anthropic.com/v1/messages"

// Anthropic calls the Anthropic Messages API.
type Anthropic struct {
	APIKey     string
	HTTPClient *http.Client
}

// NewAnthropic returns an Anthropic provider using apiKey, with a
// reasonable default request timeout.
func NewAnthropic(apiKey string) *Anthropic {
	return &Anthropic{
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 120 * time.Second},
	}
}

func (a *Anthropic) Name() string { return "anthropic" }

type anthropicRequestBody struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	System      string             `json:"system"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponseBody struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  uint64 `json:"input_tokens"`
		OutputTokens uint64 `json:"output_tokens"`
	} `json:"usage"`
	Model string `json:"model"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate implements Provider.
func (a *Anthropic) Generate(ctx context.Context, req Request) (*Response, error) {
	userContent := req.UserPrompt
	if req.Context != "" {
		userContent = req.Context + "\n\n" + req.UserPrompt
	}

	body := anthropicRequestBody{
		Model:       req.Model,
		MaxTokens:   8192,
		Temperature: req.Temperature,
		System:      req.SystemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: userContent},
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &errs.ProviderError{Kind: errs.ProviderTransport, Provider: a.Name(), Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicEndpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &errs.ProviderError{Kind: errs.ProviderTransport, Provider: a.Name(), Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.APIKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := a.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, &errs.ProviderError{Kind: errs.ProviderTransport, Provider: a.Name(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errs.ProviderError{Kind: errs.ProviderTransport, Provider: a.Name(), Err: err}
	}

	if kind, ok := classifyStatus(resp.StatusCode); ok {
		return nil, &errs.ProviderError{Kind: kind, Provider: a.Name(), Err: fmt.Errorf("http %d: %s", resp.StatusCode, string(raw))}
	}

	var parsed anthropicResponseBody
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &errs.ProviderError{Kind: errs.ProviderUnparseable, Provider: a.Name(), Err: err}
	}
	if parsed.Error != nil {
		return nil, &errs.ProviderError{Kind: errs.ProviderServer, Provider: a.Name(), Err: fmt.Errorf("%s: %s", parsed.Error.Type, parsed.Error.Message)}
	}
	if len(parsed.Content) == 0 || parsed.Content[0].Text == "" {
		return nil, &errs.ProviderError{Kind: errs.ProviderEmptyResponse, Provider: a.Name()}
	}

	return &Response{
		Content:   parsed.Content[0].Text,
		TokensIn:  parsed.Usage.InputTokens,
		TokensOut: parsed.Usage.OutputTokens,
		Model:     parsed.Model,
	}, nil
}

// classifyStatus maps an HTTP status code to a ProviderErrorKind. ok is
// false for successful (2xx) responses.
func classifyStatus(status int) (errs.ProviderErrorKind, bool) {
	switch {
	case status >= 200 && status < 300:
		return 0, false
	case status == 401 || status == 403:
		return errs.ProviderAuth, true
	case status == 429:
		return errs.ProviderRateLimit, true
	case status == 529 || status == 503:
		return errs.ProviderOverload, true
	case status >= 500:
		return errs.ProviderServer, true
	default:
		return errs.ProviderTransport, true
	}
}
