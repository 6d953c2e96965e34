package ai

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Registry holds the configured TTS providers. Built once at startup,
// read-only afterwards.
type Registry struct {
	providers map[string]Synthesizer
	eleven    *ElevenLabsService
	logger    *zap.Logger
}

// NewRegistry creates a registry over the given providers.
func NewRegistry(openai Synthesizer, eleven *ElevenLabsService, logger *zap.Logger) *Registry {
	r := &Registry{
		providers: make(map[string]Synthesizer),
		eleven:    eleven,
		logger:    logger,
	}

	r.providers[openai.Name()] = openai
	if eleven != nil {
		r.providers[eleven.Name()] = eleven
	}

	return r
}

// Get returns the named provider, defaulting to openai when name is
// empty. Unknown or unconfigured providers are an error.
func (r *Registry) Get(name string) (Synthesizer, error) {
	if name == "" {
		name = "openai"
	}

	provider, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown TTS provider: %s", name)
	}
	if !provider.IsAvailable() {
		return nil, fmt.Errorf("TTS provider %s is not configured", name)
	}

	return provider, nil
}

// AvailableVoices lists the OpenAI voice set plus any ElevenLabs voices
// the account exposes. An ElevenLabs lookup failure is logged and the
// OpenAI voices still return.
func (r *Registry) AvailableVoices(ctx context.Context) []Voice {
	voices := OpenAIVoices()

	if r.eleven != nil && r.eleven.IsAvailable() {
		elevenVoices, err := r.eleven.ListVoices(ctx)
		if err != nil {
			r.logger.Warn("Failed to fetch ElevenLabs voices", zap.Error(err))
		} else {
			voices = append(voices, elevenVoices...)
		}
	}

	return voices
}
