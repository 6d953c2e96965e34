package handlers

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/callgenie/saathi-backend/pkg/httpx"
)

const maxAudioUploadBytes = 10 << 20 // 10MB

var allowedAudioExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".m4a":  true,
	".webm": true,
	".ogg":  true,
}

// Transcribe accepts a multipart audio upload and returns its text.
func (h *Handler) Transcribe(c *gin.Context) {
	file, err := c.FormFile("audio")
	if err != nil {
		httpx.BadRequest(c, "No audio file provided")
		return
	}

	if file.Size > maxAudioUploadBytes {
		httpx.BadRequest(c, "Audio file exceeds 10MB limit")
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedAudioExtensions[ext] {
		httpx.BadRequest(c, "Only audio files are allowed")
		return
	}

	dest := h.uploads.UploadPath(fmt.Sprintf("stt-%d%s", time.Now().UnixMilli(), ext))
	if err := c.SaveUploadedFile(file, dest); err != nil {
		httpx.InternalError(c, err, "Failed to store audio file", h.logger)
		return
	}
	// Uploaded file is transient, gone once transcription finishes.
	defer h.uploads.Remove(dest)

	h.logger.Info("STT request",
		zap.String("filename", file.Filename),
		zap.Int64("size", file.Size),
	)

	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(h.cfg.AITimeoutMs)*time.Millisecond)
	defer cancel()

	result, err := h.transcriber.TranscribeFile(ctx, dest)
	if err != nil {
		httpx.InternalError(c, err, "Transcription failed", h.logger)
		return
	}

	httpx.OK(c, gin.H{
		"text":       result.Text,
		"confidence": result.Confidence,
	})
}

// STTHealth reports transcription service status.
func (h *Handler) STTHealth(c *gin.Context) {
	httpx.OK(c, gin.H{
		"status":           "healthy",
		"service":          "STT (Whisper)",
		"configured":       h.transcriber.IsAvailable(),
		"supportedFormats": []string{"mp3", "wav", "m4a", "webm", "ogg"},
	})
}
