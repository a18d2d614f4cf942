package tts

import (
	"bytes"
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/hivoco/flipbook-api/internal/apperr"
	"github.com/hivoco/flipbook-api/internal/brochure"
	"github.com/hivoco/flipbook-api/internal/live"
	"github.com/hivoco/flipbook-api/internal/objectstore"
	"github.com/hivoco/flipbook-api/pkg/logging"
)

// unassignedFolder holds narration generated without a brochure.
const unassignedFolder = "unassigned"

type Service struct {
	provider Provider
	objects  objectstore.Gateway
	events   live.Publisher
	log      *logrus.Entry
}

func NewService(p Provider, objects objectstore.Gateway, events live.Publisher, log *logrus.Entry) *Service {
	return &Service{provider: p, objects: objects, events: events, log: logging.OrDiscard(log)}
}

type Audio struct {
	AudioURL string `json:"audioUrl"`
	Key      string `json:"key"`
	Gender   string `json:"gender"`
	Provider string `json:"provider"`
}

// Generate synthesizes text and stores the MP3 under the brochure's audio
// folder.
func (s *Service) Generate(ctx context.Context, text, gender, brochureName string) (*Audio, error) {
	text = strings.TrimSpace(text)
	if text == "" || strings.TrimSpace(gender) == "" {
		return nil, apperr.Validation("Both text and gender are required")
	}
	gender, ok := NormalizeGender(gender)
	if !ok {
		return nil, apperr.Validation(`Invalid gender. Use "male" or "female"`)
	}

	folder := brochure.Slugify(brochureName)
	if folder == "" {
		folder = unassignedFolder
	}
	log := s.log.WithField("brochure", folder).WithField("gender", gender).WithField("provider", s.provider.Name())
	log.WithField("chars", len(text)).Info("generating narration")

	audio, err := s.provider.Synthesize(ctx, text, gender)
	if err != nil {
		if _, typed := apperr.As(err); typed {
			return nil, err
		}
		return nil, apperr.Upstream("Text-to-speech request failed", err)
	}

	key := objectstore.AudioKey(folder, "tts_"+gender)
	url, err := s.objects.Put(ctx, key, bytes.NewReader(audio), int64(len(audio)), "audio/mpeg")
	if err != nil {
		return nil, apperr.Upstream("Failed to upload audio", err)
	}

	log.WithField("key", key).Info("narration stored")
	live.Emit(s.events, live.Event{Type: live.AudioGenerated, BrochureName: folder, Data: map[string]string{"audioUrl": url}})
	return &Audio{AudioURL: url, Key: key, Gender: gender, Provider: s.provider.Name()}, nil
}
