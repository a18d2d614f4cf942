package brochure

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hivoco/flipbook-api/internal/httpx"
	"github.com/hivoco/flipbook-api/pkg/models"
)

type Handler struct {
	Service *Service
	Limits  httpx.UploadLimits
	// Auth guards the mutating routes; nil leaves them open.
	Auth gin.HandlerFunc
}

func NewHandler(svc *Service, limits httpx.UploadLimits, auth gin.HandlerFunc) *Handler {
	return &Handler{Service: svc, Limits: limits, Auth: auth}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	guard := httpx.Guard(h.Auth)

	rg.POST("/upload-brochure", guard, h.upload)
	rg.GET("/brochure/:name", h.get)
	rg.GET("/brochures", h.list)
	rg.PATCH("/brochure/:name", guard, h.update)
	rg.PATCH("/brochure/:name/toggle-landscape", guard, h.toggleLandscape)
	rg.DELETE("/brochure/:name", guard, h.remove)
}

func (h *Handler) upload(c *gin.Context) {
	files, err := httpx.Files(c, "images", h.Limits)
	if err != nil {
		httpx.Fail(c, err)
		return
	}

	b, err := h.Service.Create(c.Request.Context(), c.PostForm("displayName"), c.PostForm("personName"), files)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusCreated, "Brochure uploaded successfully", b)
}

func (h *Handler) get(c *gin.Context) {
	b, err := h.Service.Get(c.Request.Context(), c.Param("name"), httpx.QueryBool(c, "generateSignedUrls"))
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "", b)
}

func (h *Handler) list(c *gin.Context) {
	page, err := h.Service.List(c.Request.Context(), ListParams{
		Page:      httpx.ParseInt(c.Query("page"), 1),
		Limit:     httpx.ParseInt(c.Query("limit"), 10),
		SortBy:    strings.TrimSpace(c.Query("sortBy")),
		SortOrder: strings.TrimSpace(c.Query("sortOrder")),
		Signed:    httpx.QueryBool(c, "generateSignedUrls"),
	})
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "", page)
}

func (h *Handler) update(c *gin.Context) {
	var patch models.BrochurePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		httpx.BadRequest(c, "Invalid JSON body")
		return
	}

	b, err := h.Service.Update(c.Request.Context(), c.Param("name"), patch)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "Brochure updated successfully", b)
}

func (h *Handler) toggleLandscape(c *gin.Context) {
	b, err := h.Service.ToggleLandscape(c.Request.Context(), c.Param("name"))
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "Landscape mode updated", b)
}

func (h *Handler) remove(c *gin.Context) {
	summary, err := h.Service.Delete(c.Request.Context(), c.Param("name"), httpx.QueryBool(c, "forceDelete"))
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "Brochure deleted successfully", summary)
}
