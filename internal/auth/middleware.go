package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/hivoco/flipbook-api/internal/apperr"
	"github.com/hivoco/flipbook-api/internal/httpx"
)

const CtxClaimsKey = "auth_claims"

// Middleware requires an admin bearer token. It returns nil when tokens has
// no secret, which leaves the routes open.
func Middleware(tokens TokenService, log *logrus.Entry) gin.HandlerFunc {
	if !tokens.Enabled() {
		return nil
	}
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" || !strings.HasPrefix(strings.ToLower(h), "bearer ") {
			httpx.Fail(c, apperr.Unauthorized("Missing bearer token"))
			c.Abort()
			return
		}

		raw := strings.TrimSpace(h[len("Bearer "):])
		claims, err := tokens.Parse(raw)
		if err != nil {
			if log != nil {
				log.WithError(err).WithField("path", c.FullPath()).Warn("rejected token")
			}
			httpx.Fail(c, apperr.Unauthorized("Invalid token"))
			c.Abort()
			return
		}
		if claims.Role != RoleAdmin {
			httpx.Fail(c, apperr.Unauthorized("Admin role required"))
			c.Abort()
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Next()
	}
}

func MustGetClaims(c *gin.Context) *Claims {
	v, ok := c.Get(CtxClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}
