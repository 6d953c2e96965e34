package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/callgenie/saathi-backend/pkg/httpx"
	"github.com/callgenie/saathi-backend/pkg/logger"
	"github.com/callgenie/saathi-backend/pkg/postgres"
)

type OnboardRequest struct {
	UserID string `json:"user_id"`
}

// Onboard assigns a pool phone number to the user. Repeat calls return
// the already-assigned number unchanged.
func (h *Handler) Onboard(c *gin.Context) {
	var req OnboardRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		httpx.BadRequest(c, "Missing user_id")
		return
	}

	// When Supabase auth is enabled the token subject must match.
	if sub := c.GetString("auth_user_id"); sub != "" && sub != req.UserID {
		httpx.Unauthorized(c, "token does not match user_id")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	number, err := h.store.AssignPhoneNumber(ctx, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, postgres.ErrNotFound):
			httpx.BadRequest(c, "User not found")
		case errors.Is(err, postgres.ErrNoFreeNumbers):
			httpx.BadRequest(c, "No available phone numbers")
		default:
			httpx.InternalError(c, err, "Failed to assign phone number", h.logger)
		}
		return
	}

	h.logger.Info("Assigned phone number",
		logger.MaskPhone("phone_number", number),
		zap.String("user_id", req.UserID),
	)

	httpx.OK(c, gin.H{"phone_number": number})
}

// GetPhoneNumber returns the user's assigned number.
func (h *Handler) GetPhoneNumber(c *gin.Context) {
	userID := c.Param("user_id")

	// When Supabase auth is enabled the token subject must match.
	if sub := c.GetString("auth_user_id"); sub != "" && sub != userID {
		httpx.Unauthorized(c, "token does not match user_id")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	user, err := h.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			httpx.NotFound(c, "User not found")
			return
		}
		httpx.InternalError(c, err, "Failed to get phone number", h.logger)
		return
	}

	// phone_number is null until onboarding assigns one.
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"phone_number": user.PhoneNumber,
	})
}
