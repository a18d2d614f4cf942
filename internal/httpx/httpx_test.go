package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivoco/flipbook-api/internal/apperr"
	"github.com/hivoco/flipbook-api/pkg/logging"
	"github.com/hivoco/flipbook-api/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func failWith(t *testing.T, dev bool, err error) (int, map[string]any) {
	t.Helper()
	r := gin.New()
	r.Use(DevMode(dev))
	r.GET("/", func(c *gin.Context) { Fail(c, err) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestFailStatusByKind(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{apperr.Validation("bad"), http.StatusBadRequest},
		{apperr.NotFound("gone"), http.StatusNotFound},
		{apperr.Unauthorized("who"), http.StatusUnauthorized},
		{apperr.Upstream("s3 down", errors.New("timeout")), http.StatusInternalServerError},
		{apperr.Internal("db", errors.New("locked")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		code, body := failWith(t, false, tc.err)
		assert.Equal(t, tc.status, code, tc.err.Error())
		assert.Equal(t, false, body["success"])
	}
}

func TestFailFieldsAndFailures(t *testing.T) {
	_, body := failWith(t, false, apperr.Validation("Validation failed", "a is required", "b is required"))
	assert.Equal(t, []any{"a is required", "b is required"}, body["errors"])

	failures := []models.FailedObject{{Key: "book/x/1.png", Error: "denied"}}
	_, body = failWith(t, false, apperr.Upstream("Failed to delete brochure files", nil).WithFailures(failures))
	require.IsType(t, []any{}, body["errors"])
	assert.Len(t, body["errors"], 1)
}

func TestFailRedactsOutsideDevMode(t *testing.T) {
	err := apperr.Internal("Failed to load brochure", errors.New("sql: connection refused"))

	_, body := failWith(t, false, err)
	assert.Equal(t, "Internal server error", body["msg"])
	assert.NotContains(t, body, "error")

	_, body = failWith(t, true, err)
	assert.Equal(t, "Failed to load brochure", body["msg"])
	assert.Contains(t, body["error"], "connection refused")

	// upstream messages are safe to show; the cause is not
	_, body = failWith(t, false, apperr.Upstream("Failed to upload audio", errors.New("secret bucket")))
	assert.Equal(t, "Failed to upload audio", body["msg"])
	assert.NotContains(t, body, "error")
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Logger(logging.Discard()))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Body.String())
}

func TestMetricsLabelsByRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/brochure/:name", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, name := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/brochure/"+name, nil))
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/brochure/:name", "204")))

	_, err = NewMetrics(reg)
	assert.Error(t, err, "second registration on the same registry")
}

func TestParams(t *testing.T) {
	assert.Equal(t, 5, ParseInt(" 5 ", 1))
	assert.Equal(t, 1, ParseInt("", 1))
	assert.Equal(t, 1, ParseInt("five", 1))

	r := gin.New()
	r.GET("/", func(c *gin.Context) {
		if QueryBool(c, "flag") {
			c.Status(http.StatusOK)
			return
		}
		c.Status(http.StatusAccepted)
	})
	for q, want := range map[string]int{"?flag=true": 200, "?flag=1": 200, "?flag=yes": 202, "": 202} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/"+q, nil))
		assert.Equal(t, want, w.Code, q)
	}
}

func multipartRequest(t *testing.T, parts map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, ct := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="images"; filename="`+name+`"`)
		if ct != "" {
			h.Set("Content-Type", ct)
		}
		p, err := mw.CreatePart(h)
		require.NoError(t, err)
		var data []byte
		if strings.HasSuffix(name, ".png") {
			// PNG signature so sniffing has something to find
			data = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
		} else {
			data = []byte("hello")
		}
		_, err = p.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestFiles(t *testing.T) {
	var got map[string]string
	r := gin.New()
	limits := UploadLimits{MaxFiles: 2, MaxFileSize: 1 << 10}
	r.POST("/", func(c *gin.Context) {
		files, err := Files(c, "images", limits)
		if err != nil {
			Fail(c, err)
			return
		}
		got = map[string]string{}
		for _, f := range files {
			got[f.Name] = f.ContentType
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, multipartRequest(t, map[string]string{"a.png": "application/octet-stream", "b.txt": "text/plain"}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image/png", got["a.png"], "octet-stream is sniffed")
	assert.Equal(t, "text/plain", got["b.txt"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, multipartRequest(t, map[string]string{"1.png": "image/png", "2.png": "image/png", "3.png": "image/png"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Too many files")

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
