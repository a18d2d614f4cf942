package tts

import (
	"context"
	"strings"
)

const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// Provider turns text into MP3 audio for the given voice gender.
type Provider interface {
	Name() string
	Synthesize(ctx context.Context, text, gender string) ([]byte, error)
}

// NormalizeGender lowercases g and reports whether it is supported.
func NormalizeGender(g string) (string, bool) {
	g = strings.ToLower(strings.TrimSpace(g))
	return g, g == GenderMale || g == GenderFemale
}
