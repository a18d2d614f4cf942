package live

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler subscribes the caller to change events for :name.
func WSHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := strings.ToLower(strings.TrimSpace(c.Param("name")))
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "msg": "brochure name is required"})
			return
		}

		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			hub.log.WithError(err).Debug("websocket upgrade failed")
			return
		}

		replayed := hub.Join(name, ws)
		hub.log.WithField("brochure", name).WithField("replayed", replayed).Debug("live subscriber joined")

		// subscribers only listen; reading detects the close
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}

		hub.Leave(name, ws)
	}
}
