package ai

import "context"

// Mode selects response tuning. Voice replies stay short for playback,
// chat replies may run longer.
type Mode string

const (
	ModeVoice Mode = "voice"
	ModeChat  Mode = "chat"
)

// Turn is one past exchange, as stored in conversation_logs.
type Turn struct {
	UserMessage string
	Reply       string
}

// Voice describes a selectable TTS voice.
type Voice struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// Transcriber converts recorded audio into text.
type Transcriber interface {
	TranscribeFile(ctx context.Context, path string) (*Transcription, error)
	IsAvailable() bool
}

// Responder turns a user message plus history into an assistant reply.
type Responder interface {
	GenerateResponse(ctx context.Context, req *ResponseRequest) (*ResponseResult, error)
	IsAvailable() bool
}

// Synthesizer renders text into MP3 audio.
type Synthesizer interface {
	Name() string
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
	IsAvailable() bool
}

// EstimateDurationSec is the rough playback length of spoken text,
// about fifteen characters per second, rounded up.
func EstimateDurationSec(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 14) / 15
}
