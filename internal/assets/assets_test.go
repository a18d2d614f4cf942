package assets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivoco/flipbook-api/internal/apperr"
	"github.com/hivoco/flipbook-api/internal/httpx"
	"github.com/hivoco/flipbook-api/internal/objectstore"
)

func TestUploadCategorizes(t *testing.T) {
	objects := objectstore.NewMemoryGateway("https://cdn.test")
	svc := NewService(objects, nil)
	ctx := context.Background()

	cases := []struct {
		name, contentType, category string
	}{
		{"Intro.MP4", "video/mp4", objectstore.CategoryVideos},
		{"jingle.mp3", "audio/mpeg", objectstore.CategoryAudio},
		{"logo.svg", "image/svg+xml", objectstore.CategoryImages},
		{"price list.pdf", "application/pdf", objectstore.CategoryFiles},
	}
	for _, tc := range cases {
		a, err := svc.Upload(ctx, "Spring Deck", objectstore.BytesFile(tc.name, tc.contentType, []byte("x")))
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.category, a.Category, tc.name)
		assert.True(t, strings.HasPrefix(a.Key, "spring-deck/"+tc.category+"/"), a.Key)
		assert.True(t, objects.Has(a.Key))
		assert.Equal(t, int64(1), a.Size)
	}

	_, err := svc.Upload(ctx, "", objectstore.BytesFile("a.pdf", "application/pdf", nil))
	assert.True(t, apperr.IsValidation(err))
}

func TestUploadAllCleansUp(t *testing.T) {
	objects := objectstore.NewMemoryGateway("https://cdn.test")
	objects.FailPut = func(key string) error {
		if strings.Contains(key, "/videos/") {
			return errors.New("too big")
		}
		return nil
	}
	svc := NewService(objects, nil)

	_, err := svc.UploadAll(context.Background(), "deck", []objectstore.File{
		objectstore.BytesFile("a.mp3", "audio/mpeg", []byte("a")),
		objectstore.BytesFile("b.mp4", "video/mp4", []byte("b")),
	}, 2)
	require.True(t, apperr.IsUpstream(err))
	assert.Empty(t, objects.Keys())
}

func TestUploadFileHandler(t *testing.T) {
	objects := objectstore.NewMemoryGateway("https://cdn.test")
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(NewService(objects, nil), httpx.UploadLimits{MaxFiles: 50, MaxFileSize: 1 << 20}, 4, nil).
		RegisterRoutes(r.Group("/brochure"))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("brochureName", "deck"))
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="clip.mp4"`)
	h.Set("Content-Type", "video/mp4")
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte("mp4"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/brochure/upload-file", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var env struct {
		Data Asset `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, objectstore.CategoryVideos, env.Data.Category)
	assert.Equal(t, "clip.mp4", env.Data.OriginalName)
	assert.True(t, objects.Has(env.Data.Key))
}
