package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hivoco/flipbook-api/internal/apperr"
)

const (
	defaultElevenLabsBase = "https://api.elevenlabs.io"
	elevenLabsModel       = "eleven_multilingual_v2"

	// upstream error bodies are kept for diagnostics, up to this size
	maxErrorBody = 4 << 10
)

var voiceByGender = map[string]string{
	GenderMale:   "UzYWd2rD2PPFPjXRG3Ul",
	GenderFemale: "CoQByuTrT9gbKYx6QFL6",
}

// ElevenLabs calls the ElevenLabs text-to-speech REST API.
type ElevenLabs struct {
	Client  *http.Client
	BaseURL string
	APIKey  string
}

func NewElevenLabs(apiKey, baseURL string, timeout time.Duration) *ElevenLabs {
	if baseURL == "" {
		baseURL = defaultElevenLabsBase
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ElevenLabs{
		Client:  &http.Client{Timeout: timeout},
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
	}
}

func (e *ElevenLabs) Name() string { return "elevenlabs" }

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type synthesisReq struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

func (e *ElevenLabs) Synthesize(ctx context.Context, text, gender string) ([]byte, error) {
	voice, ok := voiceByGender[gender]
	if !ok {
		return nil, apperr.Validation("Gender must be 'male' or 'female'")
	}

	body, err := json.Marshal(synthesisReq{
		Text:          text,
		ModelID:       elevenLabsModel,
		VoiceSettings: voiceSettings{Stability: 0.5, SimilarityBoost: 0.75},
	})
	if err != nil {
		return nil, fmt.Errorf("encode tts request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL+"/v1/text-to-speech/"+voice, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build tts request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", e.APIKey)

	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, apperr.Upstream("Text-to-speech request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, apperr.UpstreamStatus("Text-to-speech provider rejected the request", resp.StatusCode, string(b))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Upstream("Failed to read synthesized audio", err)
	}
	if len(audio) == 0 {
		return nil, apperr.Upstream("Text-to-speech provider returned no audio", nil)
	}
	return audio, nil
}
