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

const openAIEndpoint = "https://api.openai.com/v1/chat/completions"

// OpenAI calls the OpenAI chat-completions API.
type OpenAI struct {
	APIKey     string
	HTTPClient *http.Client
}

// NewOpenAI returns an OpenAI provider using apiKey.
func NewOpenAI(apiKey string) *OpenAI {
	return &OpenAI{
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 120 * time.Second},
	}
}

func (o *OpenAI) Name() string { return "openai" }

type openAIRequestBody struct {
	Model       string          `json:"model"`
	Temperature float64         `json:"temperature"`
	Seed        *uint64         `json:"seed,omitempty"`
	Messages    []openAIMessage `json:"messages"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponseBody struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     uint64 `json:"prompt_tokens"`
		CompletionTokens uint64 `json:"completion_tokens"`
	} `json:"usage"`
	Model string `json:"model"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate implements Provider.
func (o *OpenAI) Generate(ctx context.Context, req Request) (*Response, error) {
	userContent := req.UserPrompt
	if req.Context != "" {
		userContent = req.Context + "\n\n" + req.UserPrompt
	}

	body := openAIRequestBody{
		Model:       req.Model,
		Temperature: req.Temperature,
		Seed:        req.Seed,
		Messages: []openAIMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: userContent},
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &errs.ProviderError{Kind: errs.ProviderTransport, Provider: o.Name(), Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, openAIEndpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &errs.ProviderError{Kind: errs.ProviderTransport, Provider: o.Name(), Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.APIKey)

	resp, err := o.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, &errs.ProviderError{Kind: errs.ProviderTransport, Provider: o.Name(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errs.ProviderError{Kind: errs.ProviderTransport, Provider: o.Name(), Err: err}
	}

	if kind, ok := classifyStatus(resp.StatusCode); ok {
		return nil, &errs.ProviderError{Kind: kind, Provider: o.Name(), Err: fmt.Errorf("http %d: %s", resp.StatusCode, string(raw))}
	}

	var parsed openAIResponseBody
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &errs.ProviderError{Kind: errs.ProviderUnparseable, Provider: o.Name(), Err: err}
	}
	if parsed.Error != nil {
		return nil, &errs.ProviderError{Kind: errs.ProviderServer, Provider: o.Name(), Err: fmt.Errorf("%s: %s", parsed.Error.Type, parsed.Error.Message)}
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return nil, &errs.ProviderError{Kind: errs.ProviderEmptyResponse, Provider: o.Name()}
	}

	return &Response{
		Content:   parsed.Choices[0].Message.Content,
		TokensIn:  parsed.Usage.PromptTokens,
		TokensOut: parsed.Usage.CompletionTokens,
		Model:     parsed.Model,
	}, nil
}
