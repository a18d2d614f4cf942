package tts

import (
	"bytes"
	"context"
)

// silentFrame is one MPEG-1 Layer III frame of silence (128 kbps, 44.1 kHz).
var silentFrame = append([]byte{0xFF, 0xFB, 0x90, 0x64}, make([]byte, 413)...)

// Mock returns a short silent clip. It stands in for ElevenLabs in
// development when no API key is configured.
type Mock struct{}

func (Mock) Name() string { return "mock" }

func (Mock) Synthesize(ctx context.Context, text, gender string) ([]byte, error) {
	// roughly a frame per word, capped at ~5s
	frames := len(bytes.Fields([]byte(text)))
	if frames < 1 {
		frames = 1
	}
	if frames > 190 {
		frames = 190
	}
	return bytes.Repeat(silentFrame, frames), nil
}
