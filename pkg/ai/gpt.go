package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// GPTService generates SAATHI replies using OpenAI chat completions.
type GPTService struct {
	apiKey  string
	model   string
	timeout time.Duration
	logger  *zap.Logger
	baseURL string
}

// NewGPTService creates a new GPT response service
func NewGPTService(apiKey, model string, timeout time.Duration, logger *zap.Logger) *GPTService {
	if apiKey == "" {
		return &GPTService{logger: logger}
	}

	return &GPTService{
		apiKey:  apiKey,
		model:   model,
		timeout: timeout,
		logger:  logger,
		baseURL: "https://api.openai.com/v1",
	}
}

// IsAvailable checks if the response service is available
func (s *GPTService) IsAvailable() bool {
	return s.apiKey != ""
}

// ResponseRequest carries one user message plus the caller's context.
// History is ordered most recent first, the way the store returns it.
type ResponseRequest struct {
	Message   string
	UserName  string
	UserPhone string
	History   []Turn
	Mode      Mode
}

// ResponseResult is the generated assistant reply.
type ResponseResult struct {
	Reply string
}

// GenerateResponse produces a SAATHI reply for the given message.
func (s *GPTService) GenerateResponse(ctx context.Context, req *ResponseRequest) (*ResponseResult, error) {
	if !s.IsAvailable() {
		return nil, fmt.Errorf("GPT service not available. Set OPENAI_API_KEY environment variable")
	}

	if req.Message == "" {
		return nil, fmt.Errorf("message cannot be empty")
	}

	maxTokens := 150
	temperature := 0.7
	if req.Mode == ModeChat {
		maxTokens = 500
		temperature = 0.6
	}

	messages := []map[string]interface{}{
		{"role": "system", "content": s.buildSystemPrompt(req)},
		{"role": "user", "content": req.Message},
	}

	requestBody := map[string]interface{}{
		"model":       s.model,
		"messages":    messages,
		"max_tokens":  maxTokens,
		"temperature": temperature,
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
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
		return nil, fmt.Errorf("OpenAI API error: %d - %s", resp.StatusCode, string(body))
	}

	var openAIResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&openAIResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(openAIResp.Choices) == 0 {
		return nil, fmt.Errorf("no response generated")
	}

	reply := strings.TrimSpace(openAIResp.Choices[0].Message.Content)
	if reply == "" {
		return nil, fmt.Errorf("failed to generate response")
	}

	return &ResponseResult{Reply: reply}, nil
}

// buildSystemPrompt assembles the SAATHI persona with user context and
// the recent conversation, oldest exchange first.
func (s *GPTService) buildSystemPrompt(req *ResponseRequest) string {
	name := req.UserName
	if name == "" {
		name = "Unknown"
	}

	var conversationContext string
	if len(req.History) > 0 {
		lines := make([]string, 0, len(req.History))
		for i := len(req.History) - 1; i >= 0; i-- {
			turn := req.History[i]
			lines = append(lines, fmt.Sprintf("User: %s\nSAATHI: %s", turn.UserMessage, turn.Reply))
		}
		conversationContext = strings.Join(lines, "\n\n")
	}

	return fmt.Sprintf(`You are SAATHI, an AI voice assistant for CallGenie.

User Context:
- Name: %s
- Phone: %s

Instructions:
1. Be conversational, friendly, and helpful
2. Keep responses concise (under 100 words) for voice interaction
3. Use natural, spoken language
4. If this is a new conversation, introduce yourself briefly
5. Remember previous context from the conversation history
6. If the user asks about CallGenie services, provide relevant information
7. If unsure, ask clarifying questions

Previous conversation:
%s

Current user message: "%s"

Respond naturally as SAATHI:`, name, req.UserPhone, conversationContext, req.Message)
}
