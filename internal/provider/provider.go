// Package provider defines the model-provider capability the pipeline
// calls on a cache miss, plus concrete HTTP-backed implementations and a
// test double. No example repo in the corpus ships an Anthropic or OpenAI
// SDK, so these clients are built directly on net/http — see DESIGN.md for
// why a bare net/http client is used here.
package provider

import "context"

// Request is what the pipeline sends to a provider for a single prompt.
type Request struct {
	SystemPrompt string
	Context      string
	UserPrompt   string
	Model        string
	Temperature  float64
	Seed         *uint64
}

// Response is what a provider returns for a single generation call.
type Response struct {
	Content   string
	TokensIn  uint64
	TokensOut uint64
	Model     string
}

// Provider is the abstract capability the pipeline depends on. Selection
// among concrete variants is runtime-resolved from configuration.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	Name() string
}
