package tts

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivoco/flipbook-api/internal/apperr"
	"github.com/hivoco/flipbook-api/internal/httpx"
	"github.com/hivoco/flipbook-api/internal/objectstore"
	"github.com/hivoco/flipbook-api/pkg/logging"
)

type fakeElevenLabs struct {
	status int
	body   string

	gotPath  string
	gotKey   string
	gotModel string
	gotVoice voiceSettings
}

func (f *fakeElevenLabs) server(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.gotPath = r.URL.Path
		f.gotKey = r.Header.Get("xi-api-key")

		var req synthesisReq
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.gotModel = req.ModelID
		f.gotVoice = req.VoiceSettings

		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, f.body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestElevenLabsRequest(t *testing.T) {
	fake := &fakeElevenLabs{status: http.StatusOK, body: "ID3-audio"}
	srv := fake.server(t)

	el := NewElevenLabs("secret-key", srv.URL, 5*time.Second)
	audio, err := el.Synthesize(context.Background(), "Hello there", GenderFemale)
	require.NoError(t, err)

	assert.Equal(t, []byte("ID3-audio"), audio)
	assert.Equal(t, "/v1/text-to-speech/CoQByuTrT9gbKYx6QFL6", fake.gotPath)
	assert.Equal(t, "secret-key", fake.gotKey)
	assert.Equal(t, "eleven_multilingual_v2", fake.gotModel)
	assert.Equal(t, voiceSettings{Stability: 0.5, SimilarityBoost: 0.75}, fake.gotVoice)
}

func TestElevenLabsUpstreamError(t *testing.T) {
	fake := &fakeElevenLabs{status: http.StatusUnauthorized, body: `{"detail":"invalid api key"}`}
	srv := fake.server(t)

	_, err := NewElevenLabs("bad", srv.URL, 5*time.Second).Synthesize(context.Background(), "Hi", GenderMale)
	require.True(t, apperr.IsUpstream(err))
	ae, _ := apperr.As(err)
	assert.Equal(t, http.StatusUnauthorized, ae.Status)
	assert.Contains(t, ae.Body, "invalid api key")
	assert.Equal(t, "/v1/text-to-speech/UzYWd2rD2PPFPjXRG3Ul", fake.gotPath)
}

func TestGenerate(t *testing.T) {
	objects := objectstore.NewMemoryGateway("https://cdn.test")
	svc := NewService(Mock{}, objects, nil, logging.Discard())
	ctx := context.Background()

	audio, err := svc.Generate(ctx, "Welcome to the tour", " FEMALE ", "Spring Catalogue")
	require.NoError(t, err)
	assert.Equal(t, "female", audio.Gender)
	assert.Regexp(t, `^audio/spring-catalogue/tts_female_[0-9a-f]{8}\.mp3$`, audio.Key)
	assert.Equal(t, objects.PublicURL(audio.Key), audio.AudioURL)

	data, ct, ok := objects.Get(audio.Key)
	require.True(t, ok)
	assert.Equal(t, "audio/mpeg", ct)
	assert.NotEmpty(t, data)

	audio, err = svc.Generate(ctx, "No home", "male", "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(audio.Key, "audio/unassigned/tts_male_"))
}

func TestGenerateValidation(t *testing.T) {
	svc := NewService(Mock{}, objectstore.NewMemoryGateway(""), nil, nil)
	ctx := context.Background()

	_, err := svc.Generate(ctx, "", "male", "x")
	assert.True(t, apperr.IsValidation(err))
	_, err = svc.Generate(ctx, "hello", "", "x")
	assert.True(t, apperr.IsValidation(err))
	_, err = svc.Generate(ctx, "hello", "robot", "x")
	require.True(t, apperr.IsValidation(err))
	ae, _ := apperr.As(err)
	assert.Equal(t, `Invalid gender. Use "male" or "female"`, ae.Message)
}

func TestHandlerSurfacesUpstreamDetailInDevMode(t *testing.T) {
	fake := &fakeElevenLabs{status: http.StatusTooManyRequests, body: "quota exceeded"}
	srv := fake.server(t)
	svc := NewService(NewElevenLabs("k", srv.URL, time.Second), objectstore.NewMemoryGateway(""), nil, nil)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(httpx.DevMode(true))
	NewHandler(svc, nil).RegisterRoutes(r.Group("/brochure"))

	req := httptest.NewRequest(http.MethodPost, "/brochure/api/tts", strings.NewReader(`{"text":"hi","gender":"male"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, float64(http.StatusTooManyRequests), body["upstreamStatus"])
	assert.Equal(t, "quota exceeded", body["upstreamBody"])
}

func TestHandlerReturnsAudioURL(t *testing.T) {
	objects := objectstore.NewMemoryGateway("https://cdn.test")
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(NewService(Mock{}, objects, nil, nil), nil).RegisterRoutes(r.Group("/brochure"))

	req := httptest.NewRequest(http.MethodPost, "/brochure/api/tts",
		strings.NewReader(`{"text":"hi","gender":"female","brochureName":"deck"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Success  bool   `json:"success"`
		AudioURL string `json:"audioUrl"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.True(t, strings.HasPrefix(body.AudioURL, "https://cdn.test/audio/deck/tts_female_"))
}
