package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestWhisper(t *testing.T, handler http.HandlerFunc) *WhisperService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc := NewWhisperService("sk-test", "whisper-1", "en", 5*time.Second, zap.NewNop())
	svc.baseURL = srv.URL
	return svc
}

func writeTempAudio(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write temp audio: %v", err)
	}
	return path
}

func TestTranscribeFile(t *testing.T) {
	var gotModel, gotLanguage, gotFilename string
	svc := newTestWhisper(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotModel = r.FormValue("model")
		gotLanguage = r.FormValue("language")
		if _, header, err := r.FormFile("file"); err == nil {
			gotFilename = header.Filename
		}
		json.NewEncoder(w).Encode(map[string]string{"text": "  namaste saathi  "})
	})

	path := writeTempAudio(t, "call.mp3", []byte("fake-mp3"))
	result, err := svc.TranscribeFile(context.Background(), path)
	if err != nil {
		t.Fatalf("TranscribeFile: %v", err)
	}

	if result.Text != "namaste saathi" {
		t.Errorf("text = %q, want trimmed transcription", result.Text)
	}
	if result.Confidence != whisperConfidence {
		t.Errorf("confidence = %v, want %v", result.Confidence, whisperConfidence)
	}
	if result.Language != "en" {
		t.Errorf("language = %q, want default fallback", result.Language)
	}

	if gotModel != "whisper-1" || gotLanguage != "en" {
		t.Errorf("request fields = %q/%q", gotModel, gotLanguage)
	}
	if gotFilename != "call.mp3" {
		t.Errorf("uploaded filename = %q", gotFilename)
	}
}

func TestTranscribeFile_MissingFile(t *testing.T) {
	svc := NewWhisperService("sk-test", "whisper-1", "en", time.Second, zap.NewNop())

	_, err := svc.TranscribeFile(context.Background(), "/nowhere/missing.mp3")
	if err == nil || !strings.Contains(err.Error(), "audio file not found") {
		t.Fatalf("err = %v", err)
	}
}

func TestTranscribeFile_NotConfigured(t *testing.T) {
	svc := NewWhisperService("", "", "", time.Second, zap.NewNop())
	if svc.IsAvailable() {
		t.Fatal("service without key reports available")
	}
	if _, err := svc.TranscribeFile(context.Background(), "x.mp3"); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestTranscribe_EmptyAudio(t *testing.T) {
	svc := newTestWhisper(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request reached upstream for empty audio")
	})

	path := writeTempAudio(t, "empty.mp3", nil)
	if _, err := svc.TranscribeFile(context.Background(), path); err == nil {
		t.Fatal("expected error for empty audio file")
	}
}

func TestTranscribe_UpstreamError(t *testing.T) {
	svc := newTestWhisper(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad audio", http.StatusBadRequest)
	})

	path := writeTempAudio(t, "call.mp3", []byte("fake-mp3"))
	_, err := svc.TranscribeFile(context.Background(), path)
	if err == nil || !strings.Contains(err.Error(), "400") {
		t.Fatalf("err = %v", err)
	}
}

func TestOpenAITTSSynthesize(t *testing.T) {
	var captured map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()

	svc := NewOpenAITTSService("sk-test", "tts-1", "nova", 5*time.Second, zap.NewNop())
	svc.baseURL = srv.URL

	audio, err := svc.Synthesize(context.Background(), "hello", "")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(audio) != "mp3-bytes" {
		t.Errorf("audio = %q", audio)
	}
	if captured["voice"] != "nova" {
		t.Errorf("voice = %v, want configured default", captured["voice"])
	}
	if captured["model"] != "tts-1" {
		t.Errorf("model = %v", captured["model"])
	}

	// An explicit voice wins over the default.
	if _, err := svc.Synthesize(context.Background(), "hello", "onyx"); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if captured["voice"] != "onyx" {
		t.Errorf("voice = %v, want onyx", captured["voice"])
	}
}

func TestOpenAITTSSynthesize_EmptyText(t *testing.T) {
	svc := NewOpenAITTSService("sk-test", "tts-1", "nova", time.Second, zap.NewNop())
	if _, err := svc.Synthesize(context.Background(), "", ""); err == nil {
		t.Fatal("expected error for empty text")
	}
}
