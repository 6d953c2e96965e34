package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// OpenAITTSService handles Text-to-Speech using the OpenAI TTS API.
// Output is MP3.
type OpenAITTSService struct {
	apiKey       string
	model        string
	defaultVoice string
	timeout      time.Duration
	logger       *zap.Logger
	baseURL      string
}

// NewOpenAITTSService creates a new OpenAI TTS service
func NewOpenAITTSService(apiKey, model, defaultVoice string, timeout time.Duration, logger *zap.Logger) *OpenAITTSService {
	if apiKey == "" {
		return &OpenAITTSService{logger: logger}
	}

	return &OpenAITTSService{
		apiKey:       apiKey,
		model:        model,
		defaultVoice: defaultVoice,
		timeout:      timeout,
		logger:       logger,
		baseURL:      "https://api.openai.com/v1",
	}
}

// Name returns the provider name
func (s *OpenAITTSService) Name() string {
	return "openai"
}

// IsAvailable checks if OpenAI TTS service is available
func (s *OpenAITTSService) IsAvailable() bool {
	return s.apiKey != ""
}

// OpenAIVoices is the fixed voice set the OpenAI TTS API offers.
func OpenAIVoices() []Voice {
	return []Voice{
		{ID: "alloy", Name: "Alloy", Provider: "openai"},
		{ID: "echo", Name: "Echo", Provider: "openai"},
		{ID: "fable", Name: "Fable", Provider: "openai"},
		{ID: "onyx", Name: "Onyx", Provider: "openai"},
		{ID: "nova", Name: "Nova", Provider: "openai"},
		{ID: "shimmer", Name: "Shimmer", Provider: "openai"},
	}
}

// Synthesize converts text to MP3 speech audio.
func (s *OpenAITTSService) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if !s.IsAvailable() {
		return nil, fmt.Errorf("OpenAI TTS service not available. Set OPENAI_API_KEY environment variable")
	}

	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	model := s.model
	if model == "" {
		model = "tts-1"
	}

	if voice == "" {
		voice = s.defaultVoice
	}
	if voice == "" {
		voice = "nova"
	}

	requestBody := map[string]interface{}{
		"model": model,
		"input": text,
		"voice": voice,
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/audio/speech", s.baseURL)

	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)

	client := &http.Client{Timeout: s.timeout}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("OpenAI TTS API error: %d - %s", resp.StatusCode, string(body))
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	if len(audioData) == 0 {
		return nil, fmt.Errorf("no audio data received")
	}

	return audioData, nil
}
