package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hivoco/flipbook-api/internal/apperr"
)

const devModeKey = "flipbook.dev"

type Envelope struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
	Error   string `json:"error,omitempty"`
}

// DevMode marks requests so that Fail exposes internal error detail.
func DevMode(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(devModeKey, enabled)
		c.Next()
	}
}

func OK(c *gin.Context, status int, msg string, data any) {
	c.JSON(status, Envelope{Success: true, Msg: msg, Data: data})
}

// OKList is OK for collections; count is always written.
func OKList(c *gin.Context, msg string, count int, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Msg: msg, Count: &count, Data: data})
}

// Fail writes err using the status of its apperr kind. Untyped errors are
// treated as internal.
func Fail(c *gin.Context, err error) {
	ae, ok := apperr.As(err)
	if !ok {
		ae = apperr.Internal("Internal server error", err)
	}
	status := ae.Kind.HTTPStatus()
	_ = c.Error(err)

	body := gin.H{"success": false, "msg": ae.Message}
	if len(ae.Fields) > 0 {
		body["errors"] = ae.Fields
	}
	if ae.Failures != nil {
		body["errors"] = ae.Failures
	}

	if status >= http.StatusInternalServerError {
		if c.GetBool(devModeKey) {
			body["error"] = err.Error()
			if ae.Status != 0 {
				body["upstreamStatus"] = ae.Status
				body["upstreamBody"] = ae.Body
			}
		} else if ae.Kind == apperr.KindInternal {
			body["msg"] = "Internal server error"
		}
	}

	c.JSON(status, body)
}

// BadRequest is a shortcut for request-shape problems caught in handlers.
func BadRequest(c *gin.Context, msg string, fields ...string) {
	Fail(c, apperr.Validation(msg, fields...))
}
