package ai

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestRegistry(openaiKey, elevenKey string) *Registry {
	log := zap.NewNop()
	openai := NewOpenAITTSService(openaiKey, "tts-1", "nova", time.Second, log)
	eleven := NewElevenLabsService(elevenKey, "voice-1", "eleven_monolingual_v1", time.Second, log)
	return NewRegistry(openai, eleven, log)
}

func TestRegistryGet(t *testing.T) {
	r := newTestRegistry("sk-test", "el-test")

	provider, err := r.Get("")
	if err != nil {
		t.Fatalf("Get(\"\"): %v", err)
	}
	if provider.Name() != "openai" {
		t.Errorf("default provider = %q, want openai", provider.Name())
	}

	provider, err = r.Get("elevenlabs")
	if err != nil {
		t.Fatalf("Get(elevenlabs): %v", err)
	}
	if provider.Name() != "elevenlabs" {
		t.Errorf("provider = %q", provider.Name())
	}
}

func TestRegistryGet_Unknown(t *testing.T) {
	r := newTestRegistry("sk-test", "")

	_, err := r.Get("polly")
	if err == nil || !strings.Contains(err.Error(), "unknown TTS provider: polly") {
		t.Fatalf("err = %v", err)
	}
}

func TestRegistryGet_Unconfigured(t *testing.T) {
	r := newTestRegistry("sk-test", "")

	_, err := r.Get("elevenlabs")
	if err == nil || !strings.Contains(err.Error(), "not configured") {
		t.Fatalf("err = %v", err)
	}
}

func TestAvailableVoices_OpenAIOnly(t *testing.T) {
	r := newTestRegistry("sk-test", "")

	voices := r.AvailableVoices(context.Background())
	if len(voices) != 6 {
		t.Fatalf("got %d voices, want the 6 static OpenAI voices", len(voices))
	}
	for _, v := range voices {
		if v.Provider != "openai" {
			t.Errorf("voice %q provider = %q", v.ID, v.Provider)
		}
	}
}

func TestAvailableVoices_ElevenLabsFailureDegrades(t *testing.T) {
	// Key is set but the endpoint is unreachable, so the lookup fails
	// and only the static voices come back.
	log := zap.NewNop()
	openai := NewOpenAITTSService("sk-test", "tts-1", "nova", time.Second, log)
	eleven := NewElevenLabsService("el-test", "voice-1", "eleven_monolingual_v1", time.Second, log)
	eleven.baseURL = "http://127.0.0.1:1"
	r := NewRegistry(openai, eleven, log)

	voices := r.AvailableVoices(context.Background())
	if len(voices) != 6 {
		t.Fatalf("got %d voices, want fallback to static set", len(voices))
	}
}
