package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/callgenie/saathi-backend/internal/conversation"
	"github.com/callgenie/saathi-backend/pkg/ai"
	"github.com/callgenie/saathi-backend/pkg/httpx"
	"github.com/callgenie/saathi-backend/pkg/logger"
	"github.com/callgenie/saathi-backend/pkg/metrics"
	"github.com/callgenie/saathi-backend/pkg/middleware"
	"github.com/callgenie/saathi-backend/pkg/otel"
	"github.com/callgenie/saathi-backend/pkg/postgres"
	"github.com/callgenie/saathi-backend/pkg/webhook"
)

const webhookDedupTTL = 24 * time.Hour

type CallWebhookPayload struct {
	CallSid           string `json:"CallSid" form:"CallSid"`
	From              string `json:"From" form:"From"`
	To                string `json:"To" form:"To"`
	RecordingUrl      string `json:"RecordingUrl" form:"RecordingUrl"`
	RecordingDuration string `json:"RecordingDuration" form:"RecordingDuration"`
	CallStatus        string `json:"CallStatus" form:"CallStatus"`
}

// CallWebhook runs the call pipeline for one completed-call event:
// download and transcribe the recording, generate a reply, synthesize
// it, log the exchange, and schedule temp file cleanup.
func (h *Handler) CallWebhook(c *gin.Context) {
	var payload CallWebhookPayload
	if err := c.ShouldBind(&payload); err != nil {
		httpx.BadRequest(c, "Invalid payload")
		return
	}

	if err := webhook.VerifyExotelSignature(
		h.cfg.ExotelWebhookSecret,
		payload.formValues(),
		c.GetHeader("X-Exotel-Signature"),
	); err != nil {
		httpx.Unauthorized(c, "invalid webhook signature")
		return
	}

	if payload.CallSid == "" || payload.From == "" || payload.RecordingUrl == "" {
		httpx.BadRequest(c, "Missing required fields: CallSid, From, or RecordingUrl")
		return
	}

	// Only process completed calls.
	if payload.CallStatus != "completed" {
		httpx.OK(c, gin.H{"message": "Call not completed, skipping processing"})
		return
	}

	if !h.claimCallSid(c.Request.Context(), payload.CallSid) {
		httpx.OK(c, gin.H{"message": "webhook already processed"})
		return
	}

	h.logger.Info("Processing call",
		zap.String("call_sid", payload.CallSid),
		logger.MaskPhone("caller", payload.From),
		zap.String("duration", payload.RecordingDuration),
	)

	audioPath := h.uploads.RecordingPath(payload.CallSid)
	ttsPath := h.uploads.TTSPath(payload.CallSid)

	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(h.cfg.AITimeoutMs)*time.Millisecond)
	defer cancel()

	// Stage 1: download and transcribe the recording. The downloaded
	// file is removed whether or not transcription succeeds.
	transcription, err := h.transcribeRecording(ctx, payload.RecordingUrl, audioPath)
	if err != nil {
		h.stageError(c, "Audio transcription failed", err)
		return
	}

	// Stage 2: generate the SAATHI reply.
	var result *conversation.Result
	start := time.Now()
	err = otel.WithServiceSpan(ctx, "gpt", "generate", func(spanCtx context.Context) error {
		var genErr error
		result, genErr = h.conv.Generate(spanCtx, transcription.Text, payload.From, ai.ModeVoice)
		return genErr
	})
	metrics.RecordServiceCall("gpt", err == nil, time.Since(start))
	if err != nil {
		if errors.Is(err, conversation.ErrUserNotFound) {
			h.stageError(c, "AI response generation failed", conversation.ErrUserNotFound)
			return
		}
		h.stageError(c, "AI response generation failed", err)
		return
	}

	// Stage 3: synthesize the reply.
	var audioData []byte
	start = time.Now()
	err = otel.WithServiceSpan(ctx, "tts", "synthesize", func(spanCtx context.Context) error {
		provider, provErr := h.tts.Get("openai")
		if provErr != nil {
			return provErr
		}
		var synthErr error
		audioData, synthErr = provider.Synthesize(spanCtx, result.Reply, h.cfg.OpenAITTSVoice)
		return synthErr
	})
	if err == nil {
		err = h.uploads.Write(ttsPath, audioData)
	}
	metrics.RecordServiceCall("tts", err == nil, time.Since(start))
	if err != nil {
		h.stageError(c, "Text-to-speech conversion failed", err)
		return
	}

	// Stage 4: log the exchange. A write failure is a warning, not an abort.
	if _, err := h.conv.Log(ctx, &postgres.ConversationLog{
		UserID:      result.UserID,
		CallSid:     payload.CallSid,
		UserMessage: transcription.Text,
		AIResponse:  result.Reply,
		AudioURL:    ttsPath,
		Confidence:  transcription.Confidence,
	}); err != nil {
		h.logger.Warn("Failed to save conversation log",
			zap.String("call_sid", payload.CallSid),
			zap.Error(err),
		)
	}

	// Stage 5: schedule cleanup, leaving the reply audio long enough for
	// the telephony provider to fetch it.
	h.uploads.ScheduleRemove(audioPath)
	h.uploads.ScheduleRemove(ttsPath)

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"callId":        payload.CallSid,
		"caller":        payload.From,
		"transcription": transcription.Text,
		"aiResponse":    result.Reply,
		"audioFile":     ttsPath,
		"duration":      ai.EstimateDurationSec(result.Reply),
		"timestamp":     time.Now().Format(time.RFC3339),
	})
}

// WebhookHealth reports the webhook service is up.
func (h *Handler) WebhookHealth(c *gin.Context) {
	httpx.OK(c, gin.H{
		"message":   "SAATHI webhook service is running",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

type WebhookTestRequest struct {
	Message     string `json:"message"`
	PhoneNumber string `json:"phoneNumber"`
}

// WebhookTest exercises the text half of the pipeline without telephony
// fields: generate a reply, synthesize it, log the exchange.
func (h *Handler) WebhookTest(c *gin.Context) {
	var req WebhookTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "Missing message or phoneNumber")
		return
	}
	req.Message = middleware.SanitizeString(req.Message)
	if req.Message == "" || req.PhoneNumber == "" {
		httpx.BadRequest(c, "Missing message or phoneNumber")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(h.cfg.AITimeoutMs)*time.Millisecond)
	defer cancel()

	result, err := h.conv.Generate(ctx, req.Message, req.PhoneNumber, ai.ModeVoice)
	if err != nil {
		if errors.Is(err, conversation.ErrUserNotFound) {
			httpx.NotFound(c, "User not found")
			return
		}
		httpx.InternalError(c, err, "Failed to generate response", h.logger)
		return
	}

	provider, err := h.tts.Get("openai")
	if err != nil {
		httpx.InternalError(c, err, "TTS generation failed", h.logger)
		return
	}

	audioData, err := provider.Synthesize(ctx, result.Reply, h.cfg.OpenAITTSVoice)
	if err != nil {
		httpx.InternalError(c, err, "TTS generation failed", h.logger)
		return
	}

	ttsPath := h.uploads.UploadPath(fmt.Sprintf("test_tts_%d.mp3", time.Now().UnixMilli()))
	if err := h.uploads.Write(ttsPath, audioData); err != nil {
		httpx.InternalError(c, err, "TTS generation failed", h.logger)
		return
	}
	h.uploads.ScheduleRemove(ttsPath)

	if _, err := h.conv.Log(ctx, &postgres.ConversationLog{
		UserID:      result.UserID,
		UserMessage: req.Message,
		AIResponse:  result.Reply,
	}); err != nil {
		h.logger.Warn("Failed to save conversation log", zap.Error(err))
	}

	httpx.OK(c, gin.H{
		"userMessage": req.Message,
		"aiResponse":  result.Reply,
		"audioFile":   ttsPath,
	})
}

// transcribeRecording downloads the recording and transcribes it,
// removing the downloaded file in every case.
func (h *Handler) transcribeRecording(ctx context.Context, recordingURL, audioPath string) (*ai.Transcription, error) {
	var transcription *ai.Transcription

	start := time.Now()
	err := otel.WithServiceSpan(ctx, "whisper", "transcribe", func(spanCtx context.Context) error {
		if err := h.uploads.Download(spanCtx, recordingURL, audioPath); err != nil {
			return err
		}
		defer h.uploads.Remove(audioPath)

		var trErr error
		transcription, trErr = h.transcriber.TranscribeFile(spanCtx, audioPath)
		return trErr
	})
	metrics.RecordServiceCall("whisper", err == nil, time.Since(start))
	if err != nil {
		return nil, err
	}

	return transcription, nil
}

// callDeduper is the slice of redis used for CallSid dedup.
type callDeduper interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// claimCallSid marks the CallSid as processed. Returns false when a
// previous event already claimed it. Without redis every event is fresh.
func (h *Handler) claimCallSid(ctx context.Context, callSid string) bool {
	if h.dedup == nil {
		return true
	}

	key := "webhook:callsid:" + callSid
	ok, err := h.dedup.SetNX(ctx, key, "1", webhookDedupTTL).Result()
	if err != nil {
		// Fail open on redis errors.
		return true
	}
	return ok
}

// stageError reports a pipeline stage failure with the stage named in
// the error and the underlying cause in details.
func (h *Handler) stageError(c *gin.Context, stage string, err error) {
	h.logger.Error(stage,
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error":   stage,
		"details": err.Error(),
	})
}

func (p *CallWebhookPayload) formValues() url.Values {
	values := url.Values{}
	set := func(k, v string) {
		if v != "" {
			values.Set(k, v)
		}
	}
	set("CallSid", p.CallSid)
	set("From", p.From)
	set("To", p.To)
	set("RecordingUrl", p.RecordingUrl)
	set("RecordingDuration", p.RecordingDuration)
	set("CallStatus", p.CallStatus)
	return values
}
