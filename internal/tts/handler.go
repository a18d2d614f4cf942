package tts

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hivoco/flipbook-api/internal/httpx"
)

type Handler struct {
	Service *Service
	Auth    gin.HandlerFunc
}

func NewHandler(svc *Service, auth gin.HandlerFunc) *Handler {
	return &Handler{Service: svc, Auth: auth}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/api/tts", httpx.Guard(h.Auth), h.generate)
}

type generateReq struct {
	Text         string `json:"text"`
	Gender       string `json:"gender"`
	BrochureName string `json:"brochureName"`
}

func (h *Handler) generate(c *gin.Context) {
	var req generateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "Invalid JSON body")
		return
	}

	audio, err := h.Service.Generate(c.Request.Context(), req.Text, req.Gender, req.BrochureName)
	if err != nil {
		httpx.Fail(c, err)
		return
	}

	// audioUrl stays at the top level for existing players
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"msg":      "TTS audio generated and uploaded successfully",
		"audioUrl": audio.AudioURL,
		"data":     audio,
	})
}
