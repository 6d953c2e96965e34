package handlers

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/callgenie/saathi-backend/internal/conversation"
	"github.com/callgenie/saathi-backend/pkg/ai"
	"github.com/callgenie/saathi-backend/pkg/env"
	"github.com/callgenie/saathi-backend/pkg/logger"
	"github.com/callgenie/saathi-backend/pkg/postgres"
	"github.com/callgenie/saathi-backend/pkg/uploads"
)

type Handler struct {
	cfg         *env.Config
	redisClient *redis.Client
	dedup       callDeduper
	store       postgres.Store
	logger      *zap.Logger
	transcriber ai.Transcriber
	conv        *conversation.Service
	tts         *ai.Registry
	uploads     *uploads.Manager
}

func NewHandler(
	cfg *env.Config,
	redisClient *redis.Client,
	store postgres.Store,
	transcriber ai.Transcriber,
	conv *conversation.Service,
	tts *ai.Registry,
	uploadsMgr *uploads.Manager,
) *Handler {
	var dedup callDeduper
	if redisClient != nil {
		dedup = redisClient
	}
	return &Handler{
		cfg:         cfg,
		redisClient: redisClient,
		dedup:       dedup,
		store:       store,
		logger:      logger.Log,
		transcriber: transcriber,
		conv:        conv,
		tts:         tts,
		uploads:     uploadsMgr,
	}
}
