package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/callgenie/saathi-backend/internal/conversation"
	"github.com/callgenie/saathi-backend/pkg/ai"
	"github.com/callgenie/saathi-backend/pkg/audio"
	"github.com/callgenie/saathi-backend/pkg/logger"
	"github.com/callgenie/saathi-backend/pkg/postgres"
)

var voiceUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// voiceEvent is one client message on the voice websocket.
type voiceEvent struct {
	Event       string `json:"event"`
	UserID      string `json:"user_id,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	// Audio is a base64 chunk of raw PCM16, 16kHz mono.
	Audio string `json:"audio,omitempty"`
}

type voiceReply struct {
	Event      string `json:"event"`
	Text       string `json:"text,omitempty"`
	Transcript string `json:"transcript,omitempty"`
	Stage      string `json:"stage,omitempty"`
}

// VoiceSession runs a browser voice conversation over a websocket.
// The client streams media chunks, commits the buffer, and receives the
// reply as JSON followed by one binary MP3 message. A failed stage
// reports an error event and keeps the session open.
func (h *Handler) VoiceSession(c *gin.Context) {
	conn, err := voiceUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Voice websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	var phoneNumber string
	var buf bytes.Buffer

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var ev voiceEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			h.sendVoiceError(conn, "protocol")
			continue
		}

		switch ev.Event {
		case "start":
			phoneNumber = ev.PhoneNumber
			buf.Reset()
			h.logger.Info("Voice session started",
				logger.MaskPhoneIfPresent("phone_number", phoneNumber),
			)

		case "media":
			chunk, err := audio.DecodeBase64PCM(ev.Audio)
			if err != nil {
				h.sendVoiceError(conn, "protocol")
				continue
			}
			buf.Write(chunk)

		case "commit":
			h.handleVoiceCommit(conn, phoneNumber, buf.Bytes())
			buf.Reset()

		case "stop":
			return
		}
	}
}

// handleVoiceCommit runs the committed audio through the pipeline and
// writes the reply back on the socket.
func (h *Handler) handleVoiceCommit(conn *websocket.Conn, phoneNumber string, pcm []byte) {
	if len(pcm) == 0 {
		h.sendVoiceError(conn, "transcription")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.cfg.AITimeoutMs)*time.Millisecond)
	defer cancel()

	// Whisper needs a container, so the raw PCM is wrapped as WAV and
	// staged on disk like every other transcription input.
	wavPath := h.uploads.UploadPath(fmt.Sprintf("ws_%d.wav", time.Now().UnixMilli()))
	if err := h.uploads.Write(wavPath, audio.PCMToWAV(pcm, 16000)); err != nil {
		h.logger.Warn("Failed to stage voice audio", zap.Error(err))
		h.sendVoiceError(conn, "transcription")
		return
	}
	defer h.uploads.Remove(wavPath)

	transcription, err := h.transcriber.TranscribeFile(ctx, wavPath)
	if err != nil {
		h.logger.Warn("Voice transcription failed", zap.Error(err))
		h.sendVoiceError(conn, "transcription")
		return
	}

	result, err := h.conv.Generate(ctx, transcription.Text, phoneNumber, ai.ModeVoice)
	if err != nil {
		if !errors.Is(err, conversation.ErrUserNotFound) {
			h.logger.Warn("Voice response generation failed", zap.Error(err))
		}
		h.sendVoiceError(conn, "response")
		return
	}

	provider, err := h.tts.Get("openai")
	if err != nil {
		h.sendVoiceError(conn, "tts")
		return
	}
	audioData, err := provider.Synthesize(ctx, result.Reply, h.cfg.OpenAITTSVoice)
	if err != nil {
		h.logger.Warn("Voice synthesis failed", zap.Error(err))
		h.sendVoiceError(conn, "tts")
		return
	}

	if _, err := h.conv.Log(ctx, &postgres.ConversationLog{
		UserID:      result.UserID,
		UserMessage: transcription.Text,
		AIResponse:  result.Reply,
		Confidence:  transcription.Confidence,
	}); err != nil {
		h.logger.Warn("Failed to save conversation log", zap.Error(err))
	}

	reply := voiceReply{
		Event:      "reply",
		Text:       result.Reply,
		Transcript: transcription.Text,
	}
	if err := conn.WriteJSON(reply); err != nil {
		return
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, audioData); err != nil {
		return
	}
}

func (h *Handler) sendVoiceError(conn *websocket.Conn, stage string) {
	_ = conn.WriteJSON(voiceReply{Event: "error", Stage: stage})
}
