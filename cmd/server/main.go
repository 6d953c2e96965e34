package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/callgenie/saathi-backend/internal/api/handlers"
	"github.com/callgenie/saathi-backend/internal/conversation"
	"github.com/callgenie/saathi-backend/pkg/ai"
	"github.com/callgenie/saathi-backend/pkg/env"
	"github.com/callgenie/saathi-backend/pkg/logger"
	"github.com/callgenie/saathi-backend/pkg/middleware"
	"github.com/callgenie/saathi-backend/pkg/otel"
	"github.com/callgenie/saathi-backend/pkg/postgres"
	"github.com/callgenie/saathi-backend/pkg/uploads"
)

// Server wires the HTTP API, the call webhook pipeline and the
// background upload janitor into a single process.
type Server struct {
	cfg         *env.Config
	redisClient *redis.Client
	handler     *handlers.Handler
}

func main() {
	cfg, err := env.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.LogLevel, cfg.AppEnv); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Log.Sync()

	if cfg.OTELEnabled {
		shutdown, err := otel.InitTracing("saathi-backend", "1.0.0", cfg.OTELEndpoint)
		if err != nil {
			logger.Log.Warn("Failed to initialize tracing, continuing without", zap.Error(err))
		} else {
			defer shutdown()
			logger.Log.Info("OpenTelemetry tracing enabled", zap.String("endpoint", cfg.OTELEndpoint))
		}
	}

	logger.Log.Info("Starting SAATHI backend",
		zap.String("env", cfg.AppEnv),
		zap.String("port", cfg.AppPort),
	)

	// Redis is optional: without it, webhook dedup, idempotency and
	// rate limiting pass everything through.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Log.Fatal("Failed to parse Redis URL", zap.Error(err))
		}
		redisClient = redis.NewClient(opt)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		cancel()
	} else {
		logger.Log.Warn("REDIS_URL not set, running without Redis")
	}

	db, err := postgres.Connect(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	if err := postgres.AutoMigrate(db); err != nil {
		logger.Log.Fatal("Failed to run migrations", zap.Error(err))
	}
	store := postgres.NewGormStore(db)

	timeout := time.Duration(cfg.AITimeoutMs) * time.Millisecond
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	whisper := ai.NewWhisperService(cfg.OpenAIApiKey, cfg.OpenAIWhisperModel, cfg.WhisperLanguage, timeout, logger.Log)
	if whisper.IsAvailable() {
		logger.Log.Info("Whisper STT initialized", zap.String("model", cfg.OpenAIWhisperModel))
	}

	gpt := ai.NewGPTService(cfg.OpenAIApiKey, cfg.OpenAIModel, timeout, logger.Log)
	if gpt.IsAvailable() {
		logger.Log.Info("GPT service initialized", zap.String("model", cfg.OpenAIModel))
	}

	openaiTTS := ai.NewOpenAITTSService(cfg.OpenAIApiKey, cfg.OpenAITTSModel, cfg.OpenAITTSVoice, timeout, logger.Log)
	eleven := ai.NewElevenLabsService(cfg.ElevenLabsApiKey, cfg.ElevenLabsVoiceID, cfg.ElevenLabsModel, timeout, logger.Log)
	if eleven.IsAvailable() {
		logger.Log.Info("ElevenLabs TTS initialized", zap.String("voice_id", cfg.ElevenLabsVoiceID))
	}
	ttsRegistry := ai.NewRegistry(openaiTTS, eleven, logger.Log)

	downloadTimeout := time.Duration(cfg.DownloadTimeoutMs) * time.Millisecond
	uploadMgr := uploads.NewManager(
		cfg.AudioUploadPath,
		cfg.AudioProcessedPath,
		time.Duration(cfg.CleanupDelaySec)*time.Second,
		downloadTimeout,
		logger.Log,
	)
	if err := uploadMgr.EnsureDirs(); err != nil {
		logger.Log.Fatal("Failed to create upload directories", zap.Error(err))
	}

	janitorCtx, janitorCancel := context.WithCancel(context.Background())
	defer janitorCancel()
	go uploadMgr.RunJanitor(janitorCtx,
		time.Duration(cfg.UploadsSweepMin)*time.Minute,
		time.Duration(cfg.UploadsMaxAgeMin)*time.Minute,
	)

	conv := conversation.NewService(store, gpt, logger.Log)

	apiHandler := handlers.NewHandler(cfg, redisClient, store, whisper, conv, ttsRegistry, uploadMgr)

	server := &Server{
		cfg:         cfg,
		redisClient: redisClient,
		handler:     apiHandler,
	}

	router := server.setupRouter()

	srv := &http.Server{
		Addr:         ":" + cfg.AppPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Log.Info("SAATHI backend listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Log.Info("Server exited")
}

func (s *Server) setupRouter() *gin.Engine {
	if s.cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.TraceMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.SecurityHeaders())

	if s.cfg.OTELEnabled {
		router.Use(otel.GinMiddleware())
	}

	router.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("[%s] %s %s %d %s\n",
			param.TimeStamp.Format(time.RFC3339),
			param.Method,
			param.Path,
			param.StatusCode,
			param.Latency,
		)
	}))

	corsConfig := cors.DefaultConfig()
	if s.cfg.CORSAllowedOrigins == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = []string{s.cfg.CORSAllowedOrigins}
	}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	rateLimiter := middleware.NewRateLimiter(s.redisClient, s.cfg.APIRateLimitRPM)

	router.GET("/health", s.handler.HealthCheck)
	router.GET("/metrics", s.handler.GetMetrics)
	router.GET("/metrics/prometheus", s.handler.GetPrometheusMetrics)

	api := router.Group("/api")
	api.Use(rateLimiter.Middleware())
	{
		// Onboarding requires a Supabase JWT when a secret is configured.
		auth := api.Group("/auth")
		auth.Use(middleware.AuthMiddleware(s.cfg.SupabaseJWTSecret))
		auth.Use(middleware.IdempotencyMiddleware(s.redisClient))
		{
			auth.POST("/onboard", middleware.RequestSizeLimit(1<<20), s.handler.Onboard)
			auth.GET("/phone/:user_id", middleware.ValidateUUIDParam("user_id"), s.handler.GetPhoneNumber)
		}

		gpt := api.Group("/gpt")
		{
			gpt.POST("/chat", middleware.RequestSizeLimit(1<<20), s.handler.Chat)
			gpt.GET("/health", s.handler.ChatHealth)
			gpt.GET("/history/:user_id", middleware.ValidateUUIDParam("user_id"), s.handler.History)
		}

		stt := api.Group("/stt")
		{
			// Multipart audio uploads get a larger body cap than JSON routes.
			stt.POST("/transcribe", middleware.RequestSizeLimit(12<<20), s.handler.Transcribe)
			stt.GET("/health", s.handler.STTHealth)
		}

		tts := api.Group("/tts")
		{
			tts.POST("/synthesize", middleware.RequestSizeLimit(1<<20), s.handler.Synthesize)
			tts.GET("/voices", s.handler.Voices)
			tts.GET("/health", s.handler.TTSHealth)
		}

		wh := api.Group("/webhook")
		{
			wh.POST("/webhook", middleware.RequestSizeLimit(1<<20), s.handler.CallWebhook)
			wh.GET("/health", s.handler.WebhookHealth)
			wh.POST("/test", middleware.RequestSizeLimit(1<<20), s.handler.WebhookTest)
		}

		api.GET("/voice/ws", s.handler.VoiceSession)
	}

	// Synthesized call audio is served from the processed directory.
	router.Static("/audio", s.cfg.AudioProcessedPath)

	return router
}
