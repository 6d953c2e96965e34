package env

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv  string
	AppPort string

	// Supabase signs the access tokens the front-end sends. When empty,
	// token verification on the auth routes is disabled.
	SupabaseJWTSecret string

	RedisURL string

	DBHost         string
	DBPort         int
	DBUser         string
	DBPassword     string
	DBName         string
	DBSSLMode      string
	DBMaxOpenConns int
	DBMaxIdleConns int

	// OpenAI (chat + whisper + tts)
	OpenAIApiKey       string
	OpenAIModel        string
	OpenAIWhisperModel string
	WhisperLanguage    string
	OpenAITTSModel     string
	OpenAITTSVoice     string

	// TTS Service (ElevenLabs, optional)
	ElevenLabsApiKey  string
	ElevenLabsVoiceID string
	ElevenLabsModel   string

	AudioUploadPath    string
	AudioProcessedPath string
	CleanupDelaySec    int
	UploadsSweepMin    int
	UploadsMaxAgeMin   int

	AITimeoutMs       int
	DownloadTimeoutMs int

	APIRateLimitRPM int

	ExotelWebhookSecret string

	LogLevel           string
	CORSAllowedOrigins string

	OTELEndpoint string
	OTELEnabled  bool
}

func Load(envFile string) (*Config, error) {
	if envFile != "" {
		// Try to load .env file, but don't fail if it doesn't exist
		// This allows the app to work with environment variables only (e.g., in production)
		if err := godotenv.Load(envFile); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load .env file: %w", err)
			}
			// File doesn't exist - continue without it, use environment variables
		}
	}

	cfg := &Config{
		AppEnv:  getEnv("APP_ENV", "development"),
		AppPort: getEnv("APP_PORT", "4000"),

		SupabaseJWTSecret: getEnv("SUPABASE_JWT_SECRET", ""),

		RedisURL: getEnv("REDIS_URL", ""),

		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnvInt("DB_PORT", 5432),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", "callgenie"),
		DBSSLMode:      getEnv("DB_SSLMODE", "disable"),
		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),

		OpenAIApiKey:       getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:        getEnv("OPENAI_MODEL", "gpt-4-turbo-preview"),
		OpenAIWhisperModel: getEnv("OPENAI_WHISPER_MODEL", "whisper-1"),
		WhisperLanguage:    getEnv("WHISPER_LANGUAGE", "en"),
		OpenAITTSModel:     getEnv("OPENAI_TTS_MODEL", "tts-1"),
		OpenAITTSVoice:     getEnv("OPENAI_TTS_VOICE", "nova"),

		ElevenLabsApiKey:  getEnv("ELEVENLABS_API_KEY", ""),
		ElevenLabsVoiceID: getEnv("ELEVENLABS_VOICE_ID", "21m00Tcm4TlvDq8ikWAM"),
		ElevenLabsModel:   getEnv("ELEVENLABS_MODEL", "eleven_monolingual_v1"),

		AudioUploadPath:    getEnv("AUDIO_UPLOAD_PATH", "./uploads/audio"),
		AudioProcessedPath: getEnv("AUDIO_PROCESSED_PATH", "./uploads/processed"),
		CleanupDelaySec:    getEnvInt("CLEANUP_DELAY_SEC", 60),
		UploadsSweepMin:    getEnvInt("UPLOADS_SWEEP_MIN", 5),
		UploadsMaxAgeMin:   getEnvInt("UPLOADS_MAX_AGE_MIN", 15),

		AITimeoutMs:       getEnvInt("AI_TIMEOUT_MS", 30000),
		DownloadTimeoutMs: getEnvInt("DOWNLOAD_TIMEOUT_MS", 30000),

		APIRateLimitRPM: getEnvInt("API_RATE_LIMIT_RPM", 180),

		ExotelWebhookSecret: getEnv("EXOTEL_WEBHOOK_SIGNATURE_SECRET", ""),

		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),

		OTELEndpoint: getEnv("OTEL_ENDPOINT", ""),
		OTELEnabled:  getEnvBool("OTEL_ENABLED", false),
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	strValue := os.Getenv(key)
	if strValue == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	strValue := os.Getenv(key)
	if strValue == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(strValue)
	if err != nil {
		return defaultValue
	}
	return value
}
