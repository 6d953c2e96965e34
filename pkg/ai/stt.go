package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Whisper reports no confidence score, so transcriptions carry a fixed
// estimate.
const whisperConfidence = 0.9

// WhisperService handles Speech-to-Text using OpenAI Whisper
type WhisperService struct {
	apiKey          string
	model           string
	defaultLanguage string
	timeout         time.Duration
	logger          *zap.Logger
	baseURL         string
}

// NewWhisperService creates a new Whisper STT service
func NewWhisperService(apiKey, model, language string, timeout time.Duration, logger *zap.Logger) *WhisperService {
	if apiKey == "" {
		return &WhisperService{logger: logger}
	}

	return &WhisperService{
		apiKey:          apiKey,
		model:           model,
		defaultLanguage: language,
		timeout:         timeout,
		logger:          logger,
		baseURL:         "https://api.openai.com/v1",
	}
}

// IsAvailable checks if the STT service is available
func (s *WhisperService) IsAvailable() bool {
	return s.apiKey != ""
}

// Transcription is a completed speech-to-text result.
type Transcription struct {
	Text       string
	Language   string
	Confidence float64
}

// TranscribeFile transcribes a local audio file.
func (s *WhisperService) TranscribeFile(ctx context.Context, path string) (*Transcription, error) {
	if !s.IsAvailable() {
		return nil, fmt.Errorf("STT service not available. Set OPENAI_API_KEY environment variable")
	}

	audioData, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("audio file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read audio file: %w", err)
	}

	return s.transcribe(ctx, audioData, filepath.Base(path))
}

func (s *WhisperService) transcribe(ctx context.Context, audioData []byte, filename string) (*Transcription, error) {
	if len(audioData) == 0 {
		return nil, fmt.Errorf("audio data cannot be empty")
	}

	model := s.model
	if model == "" {
		model = "whisper-1"
	}

	var requestBody bytes.Buffer
	writer := multipart.NewWriter(&requestBody)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(audioData); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}

	if err := writer.WriteField("model", model); err != nil {
		return nil, fmt.Errorf("failed to write model field: %w", err)
	}

	if s.defaultLanguage != "" {
		if err := writer.WriteField("language", s.defaultLanguage); err != nil {
			return nil, fmt.Errorf("failed to write language field: %w", err)
		}
	}

	if err := writer.WriteField("response_format", "json"); err != nil {
		return nil, fmt.Errorf("failed to write response_format field: %w", err)
	}

	writer.Close()

	url := fmt.Sprintf("%s/audio/transcriptions", s.baseURL)

	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, &requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)

	client := &http.Client{Timeout: s.timeout}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("OpenAI Whisper API error: %d - %s", resp.StatusCode, string(body))
	}

	var whisperResp struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&whisperResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	language := whisperResp.Language
	if language == "" {
		language = s.defaultLanguage
	}

	return &Transcription{
		Text:       strings.TrimSpace(whisperResp.Text),
		Language:   language,
		Confidence: whisperConfidence,
	}, nil
}
