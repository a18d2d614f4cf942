package assets

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hivoco/flipbook-api/internal/httpx"
)

type Handler struct {
	Service     *Service
	Limits      httpx.UploadLimits
	FanoutLimit int
	Auth        gin.HandlerFunc
}

func NewHandler(svc *Service, limits httpx.UploadLimits, fanoutLimit int, auth gin.HandlerFunc) *Handler {
	return &Handler{Service: svc, Limits: limits, FanoutLimit: fanoutLimit, Auth: auth}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	guard := httpx.Guard(h.Auth)
	rg.POST("/upload-file", guard, h.upload)
	rg.POST("/upload-files", guard, h.uploadMany)
}

// upload takes a single multipart file under "file" and the brochureName
// form field.
func (h *Handler) upload(c *gin.Context) {
	files, err := httpx.Files(c, "file", h.Limits)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	if len(files) == 0 {
		httpx.BadRequest(c, "No file uploaded")
		return
	}

	asset, err := h.Service.Upload(c.Request.Context(), c.PostForm("brochureName"), files[0])
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "File uploaded successfully", asset)
}

func (h *Handler) uploadMany(c *gin.Context) {
	files, err := httpx.Files(c, "files", h.Limits)
	if err != nil {
		httpx.Fail(c, err)
		return
	}

	assets, err := h.Service.UploadAll(c.Request.Context(), c.PostForm("brochureName"), files, h.FanoutLimit)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OKList(c, "Files uploaded successfully", len(assets), assets)
}
