package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/callgenie/saathi-backend/internal/conversation"
	"github.com/callgenie/saathi-backend/pkg/ai"
	"github.com/callgenie/saathi-backend/pkg/httpx"
	"github.com/callgenie/saathi-backend/pkg/logger"
	"github.com/callgenie/saathi-backend/pkg/middleware"
	"github.com/callgenie/saathi-backend/pkg/postgres"
	"github.com/callgenie/saathi-backend/pkg/utils"
)

// defaultTestPhone is the fallback caller identity for chat requests
// that carry no user context.
const defaultTestPhone = "+91-9876543210"

type ChatRequest struct {
	Message             string `json:"message"`
	ConversationHistory string `json:"conversationHistory"`
	VoiceMode           string `json:"voiceMode"`
	UserContext         struct {
		Name        string `json:"name"`
		PhoneNumber string `json:"phoneNumber"`
	} `json:"userContext"`
}

// Chat generates a SAATHI reply for a dashboard or voice-UI message.
func (h *Handler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "Message is required")
		return
	}
	req.Message = middleware.SanitizeString(req.Message)
	if req.Message == "" {
		httpx.BadRequest(c, "Message is required")
		return
	}

	phoneNumber := req.UserContext.PhoneNumber
	if phoneNumber == "" {
		phoneNumber = defaultTestPhone
	}

	mode := ai.ModeVoice
	if req.VoiceMode == string(ai.ModeChat) {
		mode = ai.ModeChat
	}

	h.logger.Info("GPT chat request",
		zap.Int("message_len", len(req.Message)),
		zap.String("mode", string(mode)),
		logger.MaskPhone("phone_number", phoneNumber),
	)

	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(h.cfg.AITimeoutMs)*time.Millisecond)
	defer cancel()

	result, err := h.conv.Generate(ctx, req.Message, phoneNumber, mode)
	if err != nil {
		if errors.Is(err, conversation.ErrUserNotFound) {
			httpx.NotFound(c, "User not found")
			return
		}
		httpx.InternalError(c, err, "Failed to generate response", h.logger)
		return
	}

	conversationID, err := h.conv.Log(ctx, &postgres.ConversationLog{
		UserID:      result.UserID,
		UserMessage: req.Message,
		AIResponse:  result.Reply,
	})
	if err != nil {
		h.logger.Warn("Failed to save conversation log", zap.Error(err))
	}

	httpx.OK(c, gin.H{
		"response":       result.Reply,
		"conversationId": conversationID,
	})
}

// ChatHealth smoke-tests the chat pipeline with a one-word prompt.
func (h *Handler) ChatHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(h.cfg.AITimeoutMs)*time.Millisecond)
	defer cancel()

	_, err := h.conv.Generate(ctx, "Hello", defaultTestPhone, ai.ModeChat)

	httpx.OK(c, gin.H{
		"status":     "healthy",
		"gptWorking": err == nil,
	})
}

// History lists a user's conversation log, most recent first.
func (h *Handler) History(c *gin.Context) {
	userID := c.Param("user_id")

	params := utils.ParsePagination(c)
	offset := (params.Page - 1) * params.Limit

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if _, err := h.store.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			httpx.NotFound(c, "User not found")
			return
		}
		httpx.InternalError(c, err, "Failed to load history", h.logger)
		return
	}

	logs, err := h.store.GetHistory(ctx, userID, params.Limit, offset)
	if err != nil {
		httpx.InternalError(c, err, "Failed to load history", h.logger)
		return
	}

	httpx.OK(c, gin.H{
		"history": logs,
		"page":    params.Page,
		"limit":   params.Limit,
		"count":   len(logs),
	})
}
