package httpx

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func ParseInt(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// QueryBool reads "true"/"1" style flags; anything unparsable is false.
func QueryBool(c *gin.Context, key string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(c.Query(key)))
	return err == nil && v
}

// Guard returns mw, or a pass-through handler when mw is nil.
func Guard(mw gin.HandlerFunc) gin.HandlerFunc {
	if mw == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return mw
}
