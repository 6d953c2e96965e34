package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/callgenie/saathi-backend/pkg/ai"
)

// smoke-openai runs one live round-trip against the OpenAI APIs the
// backend depends on. It costs a few tokens; run it after rotating keys
// or changing models.
func main() {
	if err := godotenv.Load(".env"); err == nil {
		fmt.Println("✅ Loaded .env file")
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		fmt.Println("❌ ERROR: OPENAI_API_KEY environment variable not set")
		fmt.Println("Set it with: export OPENAI_API_KEY=your-key-here")
		os.Exit(1)
	}

	fmt.Println("🔍 Testing OpenAI integration...")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	fmt.Println("1️⃣  Checking API key format...")
	if len(apiKey) < 20 {
		fmt.Println("   ⚠️  WARNING: API key seems too short")
	} else {
		fmt.Printf("   ✅ API key found (length: %d)\n", len(apiKey))
	}
	fmt.Println()

	log := zap.NewNop()
	timeout := 15 * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4-turbo-preview"
	}

	fmt.Printf("2️⃣  Testing chat completions (%s)...\n", model)
	gpt := ai.NewGPTService(apiKey, model, timeout, log)
	result, err := gpt.GenerateResponse(ctx, &ai.ResponseRequest{
		Message:   "Say OK if you can hear me.",
		UserName:  "Smoke Test",
		UserPhone: "+10000000000",
		Mode:      ai.ModeChat,
	})
	if err != nil {
		fmt.Printf("   ❌ FAILED: %v\n", err)
	} else {
		fmt.Printf("   ✅ SUCCESS: %q\n", result.Reply)
	}
	fmt.Println()

	fmt.Println("3️⃣  Testing text-to-speech (tts-1, nova)...")
	tts := ai.NewOpenAITTSService(apiKey, "tts-1", "nova", timeout, log)
	audio, err := tts.Synthesize(ctx, "Hello, this is a SAATHI voice check.", "")
	if err != nil {
		fmt.Printf("   ❌ FAILED: %v\n", err)
	} else {
		fmt.Printf("   ✅ SUCCESS: received %d bytes of MP3 audio\n", len(audio))
	}
	fmt.Println()

	fmt.Println("4️⃣  Testing speech-to-text (whisper-1)...")
	fmt.Println("   ⏭️  SKIPPED: requires an audio file (POST /api/stt/transcribe to test)")
	fmt.Println()

	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println("✅ OpenAI integration check complete")
}
