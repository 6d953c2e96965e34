package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestGPT(t *testing.T, handler http.HandlerFunc) *GPTService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc := NewGPTService("sk-test", "gpt-4-turbo-preview", 5*time.Second, zap.NewNop())
	svc.baseURL = srv.URL
	return svc
}

func chatCompletion(reply string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": reply}},
			},
		})
	}
}

func TestGenerateResponse(t *testing.T) {
	var captured map[string]interface{}
	svc := newTestGPT(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		chatCompletion(" Hello! ")(w, r)
	})

	result, err := svc.GenerateResponse(context.Background(), &ResponseRequest{
		Message:   "hi",
		UserName:  "Asha",
		UserPhone: "+911234567890",
		Mode:      ModeVoice,
	})
	if err != nil {
		t.Fatalf("GenerateResponse: %v", err)
	}
	if result.Reply != "Hello!" {
		t.Errorf("reply = %q, want trimmed content", result.Reply)
	}

	if captured["max_tokens"] != float64(150) {
		t.Errorf("max_tokens = %v, want 150 for voice mode", captured["max_tokens"])
	}
	if captured["temperature"] != 0.7 {
		t.Errorf("temperature = %v, want 0.7 for voice mode", captured["temperature"])
	}
	if captured["model"] != "gpt-4-turbo-preview" {
		t.Errorf("model = %v", captured["model"])
	}
}

func TestGenerateResponse_ChatModeTuning(t *testing.T) {
	var captured map[string]interface{}
	svc := newTestGPT(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		chatCompletion("ok")(w, r)
	})

	if _, err := svc.GenerateResponse(context.Background(), &ResponseRequest{
		Message: "hi",
		Mode:    ModeChat,
	}); err != nil {
		t.Fatalf("GenerateResponse: %v", err)
	}

	if captured["max_tokens"] != float64(500) {
		t.Errorf("max_tokens = %v, want 500 for chat mode", captured["max_tokens"])
	}
	if captured["temperature"] != 0.6 {
		t.Errorf("temperature = %v, want 0.6 for chat mode", captured["temperature"])
	}
}

func TestGenerateResponse_EmptyMessage(t *testing.T) {
	svc := NewGPTService("sk-test", "gpt-4-turbo-preview", time.Second, zap.NewNop())
	if _, err := svc.GenerateResponse(context.Background(), &ResponseRequest{}); err == nil {
		t.Fatal("expected error for empty message")
	}
}

func TestGenerateResponse_NotConfigured(t *testing.T) {
	svc := NewGPTService("", "", time.Second, zap.NewNop())
	if svc.IsAvailable() {
		t.Fatal("service without key reports available")
	}
	if _, err := svc.GenerateResponse(context.Background(), &ResponseRequest{Message: "hi"}); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestGenerateResponse_EmptyChoices(t *testing.T) {
	svc := newTestGPT(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	})

	if _, err := svc.GenerateResponse(context.Background(), &ResponseRequest{Message: "hi"}); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestGenerateResponse_UpstreamError(t *testing.T) {
	svc := newTestGPT(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	})

	_, err := svc.GenerateResponse(context.Background(), &ResponseRequest{Message: "hi"})
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("err = %v, want status in message", err)
	}
}

func TestBuildSystemPrompt(t *testing.T) {
	svc := NewGPTService("sk-test", "gpt-4-turbo-preview", time.Second, zap.NewNop())

	prompt := svc.buildSystemPrompt(&ResponseRequest{
		Message:   "what next?",
		UserName:  "Asha",
		UserPhone: "+911234567890",
		History: []Turn{
			{UserMessage: "newest question", Reply: "newest answer"},
			{UserMessage: "oldest question", Reply: "oldest answer"},
		},
	})

	for _, want := range []string{
		"You are SAATHI, an AI voice assistant for CallGenie.",
		"- Name: Asha",
		"- Phone: +911234567890",
		`Current user message: "what next?"`,
		"Respond naturally as SAATHI:",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	// History renders oldest exchange first.
	oldest := strings.Index(prompt, "User: oldest question\nSAATHI: oldest answer")
	newest := strings.Index(prompt, "User: newest question\nSAATHI: newest answer")
	if oldest == -1 || newest == -1 {
		t.Fatalf("history missing from prompt:\n%s", prompt)
	}
	if oldest > newest {
		t.Error("history not reversed into chronological order")
	}
}

func TestBuildSystemPrompt_UnknownName(t *testing.T) {
	svc := NewGPTService("sk-test", "gpt-4-turbo-preview", time.Second, zap.NewNop())

	prompt := svc.buildSystemPrompt(&ResponseRequest{Message: "hi", UserPhone: "+911234567890"})
	if !strings.Contains(prompt, "- Name: Unknown") {
		t.Error("missing Unknown fallback for empty name")
	}
}

func TestEstimateDurationSec(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"hi", 1},
		{strings.Repeat("a", 15), 1},
		{strings.Repeat("a", 16), 2},
		{strings.Repeat("a", 150), 10},
	}
	for _, tt := range tests {
		if got := EstimateDurationSec(tt.text); got != tt.want {
			t.Errorf("EstimateDurationSec(len %d) = %d, want %d", len(tt.text), got, tt.want)
		}
	}
}
