package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/callgenie/saathi-backend/pkg/httpx"
)

type SynthesizeRequest struct {
	Text     string `json:"text"`
	Voice    string `json:"voice"`
	Provider string `json:"provider"`
}

// Synthesize converts text to speech and streams the MP3 back.
func (h *Handler) Synthesize(c *gin.Context) {
	var req SynthesizeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Text == "" {
		httpx.BadRequest(c, "Text is required")
		return
	}

	provider, err := h.tts.Get(req.Provider)
	if err != nil {
		httpx.BadRequest(c, err.Error())
		return
	}

	h.logger.Info("TTS request",
		zap.Int("text_len", len(req.Text)),
		zap.String("voice", req.Voice),
		zap.String("provider", provider.Name()),
	)

	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(h.cfg.AITimeoutMs)*time.Millisecond)
	defer cancel()

	audioData, err := provider.Synthesize(ctx, req.Text, req.Voice)
	if err != nil {
		httpx.InternalError(c, err, "TTS generation failed", h.logger)
		return
	}

	filename := fmt.Sprintf("tts-%d.mp3", time.Now().UnixMilli())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "audio/mpeg", audioData)
}

// Voices lists the selectable TTS voices.
func (h *Handler) Voices(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	httpx.OK(c, gin.H{"voices": h.tts.AvailableVoices(ctx)})
}

// TTSHealth reports speech synthesis status.
func (h *Handler) TTSHealth(c *gin.Context) {
	httpx.OK(c, gin.H{
		"status":       "healthy",
		"service":      "TTS",
		"providers":    []string{"openai", "elevenlabs"},
		"defaultVoice": h.cfg.OpenAITTSVoice,
	})
}
