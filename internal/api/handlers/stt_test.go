package handlers

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func audioUpload(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("audio", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write(content)
	writer.Close()

	req := httptest.NewRequest("POST", "/api/stt/transcribe", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestTranscribe(t *testing.T) {
	h, deps := newTestHandler(t)
	deps.transcriber.text = "namaste"

	c, w := newTestContext(t)
	c.Request = audioUpload(t, "clip.mp3", []byte("fake-mp3"))
	h.Transcribe(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["text"] != "namaste" {
		t.Errorf("text = %v", body["text"])
	}
	if body["confidence"] != 0.9 {
		t.Errorf("confidence = %v", body["confidence"])
	}

	// The stored upload is removed once transcription finishes.
	if _, err := os.Stat(deps.transcriber.lastPath); !os.IsNotExist(err) {
		t.Errorf("uploaded file still present at %s", deps.transcriber.lastPath)
	}
}

func TestTranscribe_NoFile(t *testing.T) {
	h, _ := newTestHandler(t)

	c, w := newTestContext(t)
	c.Request = httptest.NewRequest("POST", "/api/stt/transcribe", nil)
	h.Transcribe(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if body := decodeBody(t, w); body["error"] != "No audio file provided" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestTranscribe_RejectsUnknownExtension(t *testing.T) {
	h, _ := newTestHandler(t)

	c, w := newTestContext(t)
	c.Request = audioUpload(t, "payload.exe", []byte("not audio"))
	h.Transcribe(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if body := decodeBody(t, w); body["error"] != "Only audio files are allowed" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestTranscribe_UpstreamFailure(t *testing.T) {
	h, deps := newTestHandler(t)
	deps.transcriber.err = errors.New("whisper down")

	c, w := newTestContext(t)
	c.Request = audioUpload(t, "clip.wav", []byte("fake-wav"))
	h.Transcribe(c)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}

func TestSTTHealth(t *testing.T) {
	h, _ := newTestHandler(t)

	c, w := newTestContext(t)
	c.Request = httptest.NewRequest("GET", "/api/stt/health", nil)
	h.STTHealth(c)

	body := decodeBody(t, w)
	if body["configured"] != true {
		t.Errorf("configured = %v", body["configured"])
	}
	formats, _ := body["supportedFormats"].([]interface{})
	if len(formats) != 5 {
		t.Errorf("supportedFormats = %v", body["supportedFormats"])
	}
}
