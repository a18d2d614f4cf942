package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTokens() TokenService {
	return TokenService{Secret: []byte("test-secret"), Issuer: "flipbook-api", Duration: time.Hour}
}

func TestSignAndParse(t *testing.T) {
	ts := testTokens()
	tok, exp, err := ts.Sign("ops@example.com", RoleAdmin)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := ts.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Role)

	other := testTokens()
	other.Secret = []byte("different")
	_, err = other.Parse(tok)
	assert.Error(t, err)

	wrongIssuer := testTokens()
	wrongIssuer.Issuer = "someone-else"
	_, err = wrongIssuer.Parse(tok)
	assert.Error(t, err)

	expired := testTokens()
	expired.Duration = -time.Minute
	old, _, err := expired.Sign("x", RoleAdmin)
	require.NoError(t, err)
	_, err = ts.Parse(old)
	assert.Error(t, err)

	_, _, err = TokenService{}.Sign("x", RoleAdmin)
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ts := testTokens()

	r := gin.New()
	r.POST("/write", Middleware(ts, nil), func(c *gin.Context) {
		c.String(http.StatusOK, MustGetClaims(c).Subject)
	})

	call := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/write", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, call("").Code)
	assert.Equal(t, http.StatusUnauthorized, call("Bearer garbage").Code)

	viewer, _, err := ts.Sign("viewer", "viewer")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call("Bearer "+viewer).Code)

	admin, _, err := ts.Sign("ops", RoleAdmin)
	require.NoError(t, err)
	w := call("Bearer " + admin)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ops", w.Body.String())
}

func TestMiddlewareDisabledWithoutSecret(t *testing.T) {
	assert.Nil(t, Middleware(TokenService{}, nil))
}
