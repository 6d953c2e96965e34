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

// ElevenLabsService handles Text-to-Speech using ElevenLabs
type ElevenLabsService struct {
	apiKey         string
	defaultVoiceID string
	modelID        string
	timeout        time.Duration
	logger         *zap.Logger
	baseURL        string
}

// NewElevenLabsService creates a new ElevenLabs TTS service
func NewElevenLabsService(apiKey, voiceID, modelID string, timeout time.Duration, logger *zap.Logger) *ElevenLabsService {
	if apiKey == "" {
		return &ElevenLabsService{logger: logger}
	}

	return &ElevenLabsService{
		apiKey:         apiKey,
		defaultVoiceID: voiceID,
		modelID:        modelID,
		timeout:        timeout,
		logger:         logger,
		baseURL:        "https://api.elevenlabs.io/v1",
	}
}

// Name returns the provider name
func (s *ElevenLabsService) Name() string {
	return "elevenlabs"
}

// IsAvailable checks if ElevenLabs TTS service is available
func (s *ElevenLabsService) IsAvailable() bool {
	return s.apiKey != "" && s.defaultVoiceID != ""
}

// Synthesize converts text to MP3 speech audio.
func (s *ElevenLabsService) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if !s.IsAvailable() {
		return nil, fmt.Errorf("ElevenLabs API key or voice ID not configured")
	}

	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	voiceID := voice
	if voiceID == "" {
		voiceID = s.defaultVoiceID
	}

	modelID := s.modelID
	if modelID == "" {
		modelID = "eleven_monolingual_v1"
	}

	requestBody := map[string]interface{}{
		"text":     text,
		"model_id": modelID,
		"voice_settings": map[string]interface{}{
			"stability":        0.5,
			"similarity_boost": 0.5,
		},
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s", s.baseURL, voiceID)

	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Accept", "audio/mpeg")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("xi-api-key", s.apiKey)

	client := &http.Client{Timeout: s.timeout}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ElevenLabs API error: %d - %s", resp.StatusCode, string(body))
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

// ListVoices fetches the voices available on the ElevenLabs account.
func (s *ElevenLabsService) ListVoices(ctx context.Context) ([]Voice, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("ElevenLabs API key not configured")
	}

	httpReq, err := http.NewRequestWithContext(ctx, "GET", s.baseURL+"/voices", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("xi-api-key", s.apiKey)

	client := &http.Client{Timeout: s.timeout}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ElevenLabs API error: %d - %s", resp.StatusCode, string(body))
	}

	var voicesResp struct {
		Voices []struct {
			VoiceID string `json:"voice_id"`
			Name    string `json:"name"`
		} `json:"voices"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&voicesResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	voices := make([]Voice, 0, len(voicesResp.Voices))
	for _, v := range voicesResp.Voices {
		voices = append(voices, Voice{ID: v.VoiceID, Name: v.Name, Provider: "elevenlabs"})
	}

	return voices, nil
}
