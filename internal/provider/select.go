package provider

import (
	"fmt"

	"github.com/clintonboys/lit/internal/config"
	"github.com/clintonboys/lit/internal/errs"
)

// FromConfig resolves the configured provider into a concrete client,
// reading the API key from the environment per cfg.ResolveAPIKey.
func FromConfig(cfg *config.Config) (Provider, error) {
	apiKey, err := cfg.ResolveAPIKey()
	if err != nil {
		return nil, err
	}

	switch cfg.Model.Provider {
	case "anthropic":
		return NewAnthropic(apiKey), nil
	case "openai":
		return NewOpenAI(apiKey), nil
	default:
		return nil, &errs.ConfigError{
			Field:  "model.provider",
			Reason: fmt.Sprintf("unknown provider %q", cfg.Model.Provider),
		}
	}
}
