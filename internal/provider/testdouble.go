package provider

import "context"

// TestDouble is a deterministic, in-memory Provider used by the test suite:
// it never makes a network call.
type TestDouble struct {
	// Responses maps a prompt's user content to the response to return. If
	// absent, Generate returns a stub response whose content is the user
	// prompt itself.
	Responses map[string]*Response

	// Calls records every request passed to Generate, in order, for test
	// assertions.
	Calls []Request
}

// NewTestDouble returns an empty TestDouble.
func NewTestDouble() *TestDouble {
	return &TestDouble{Responses: make(map[string]*Response)}
}

func (t *TestDouble) Name() string { return "testdouble" }

// Generate implements Provider.
func (t *TestDouble) Generate(_ context.Context, req Request) (*Response, error) {
	t.Calls = append(t.Calls, req)
	if resp, ok := t.Responses[req.UserPrompt]; ok {
		return resp, nil
	}
	return &Response{
		Content:   req.UserPrompt,
		TokensIn:  uint64(len(req.SystemPrompt) + len(req.UserPrompt)),
		TokensOut: uint64(len(req.UserPrompt)),
		Model:     req.Model,
	}, nil
}
