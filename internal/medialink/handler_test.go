package medialink

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivoco/flipbook-api/internal/httpx"
)

type envelope struct {
	Success bool            `json:"success"`
	Msg     string          `json:"msg"`
	Count   *int            `json:"count"`
	Data    json.RawMessage `json:"data"`
	Errors  json.RawMessage `json:"errors"`
}

func newRouter(f *fixture) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(f.svc, httpx.UploadLimits{MaxFiles: 5, MaxFileSize: 1 << 20}, nil).RegisterRoutes(r.Group("/link"))
	return r
}

func serve(t *testing.T, r http.Handler, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func TestHandlerLifecycle(t *testing.T) {
	f := newFixture(t)
	r := newRouter(f)

	code, env := serve(t, r, http.MethodPost, "/link/media-link",
		`{"brochureName":"deck","pageNumber":2,"link":"https://example.com","linkType":"video","coordinates":{"x":10,"y":20}}`)
	require.Equal(t, http.StatusCreated, code, string(env.Data))
	assert.Equal(t, "Media link created successfully", env.Msg)

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	code, env = serve(t, r, http.MethodGet, "/link/media-links/deck?isActive=true", "")
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, env.Count)
	assert.Equal(t, 1, *env.Count)

	code, env = serve(t, r, http.MethodGet, "/link/media-links/deck/page/2", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Media links for page 2 retrieved successfully", env.Msg)
	assert.Equal(t, 1, *env.Count)

	code, env = serve(t, r, http.MethodGet, "/link/media-links/deck/page/abc", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Page number must be between 1 and 3", env.Msg)

	code, env = serve(t, r, http.MethodPut, "/link/media-link/"+created.ID, `{"coordinates":"{\"x\":1,\"y\":2,\"height\":12}","clickCount":99}`)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"height":12`)
	assert.Contains(t, string(env.Data), `"clickCount":0`)

	code, env = serve(t, r, http.MethodPost, "/link/media-link/"+created.ID+"/click", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"clickCount":1`)

	code, _ = serve(t, r, http.MethodDelete, "/link/media-link/"+created.ID, "")
	assert.Equal(t, http.StatusOK, code)

	code, env = serve(t, r, http.MethodDelete, "/link/media-link/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Media link not found", env.Msg)
}

func TestHandlerValidationEnvelope(t *testing.T) {
	f := newFixture(t)
	r := newRouter(f)

	code, env := serve(t, r, http.MethodPost, "/link/media-link",
		`{"brochureName":"deck","pageNumber":1,"link":"https://example.com","coordinates":{"x":1,"y":1,"width":80}}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, env.Success)
	assert.Equal(t, "Validation failed", env.Msg)
	assert.JSONEq(t, `["Width must be between 1 and 50"]`, string(env.Errors))

	code, env = serve(t, r, http.MethodPost, "/link/media-link", `{"brochureName":"deck"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "brochureName, pageNumber, link, and coordinates are required", env.Msg)

	code, _ = serve(t, r, http.MethodPost, "/link/media-link", `{not json`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHandlerUploadImageLink(t *testing.T) {
	f := newFixture(t)
	r := newRouter(f)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("brochureName", "deck"))
	require.NoError(t, mw.WriteField("pageNumber", "3"))
	require.NoError(t, mw.WriteField("coordinates", `{"x":5,"y":5,"width":12,"height":9}`))
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="images"; filename="photo.png"`)
	h.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte("png"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/link/upload-image-link", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"isImage":true`)
	assert.Len(t, f.objects.Keys(), 1)
}
