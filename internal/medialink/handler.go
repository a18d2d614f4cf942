package medialink

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hivoco/flipbook-api/internal/httpx"
	"github.com/hivoco/flipbook-api/internal/store"
)

type Handler struct {
	Service *Service
	Limits  httpx.UploadLimits
	// Auth guards the mutating routes; nil leaves them open. Click tracking
	// stays public because viewers call it.
	Auth gin.HandlerFunc
}

func NewHandler(svc *Service, limits httpx.UploadLimits, auth gin.HandlerFunc) *Handler {
	return &Handler{Service: svc, Limits: limits, Auth: auth}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	guard := httpx.Guard(h.Auth)

	rg.POST("/media-link", guard, h.create)
	rg.POST("/upload-image-link", guard, h.createImage)
	rg.GET("/media-links/:brochureName", h.list)
	rg.GET("/media-links/:brochureName/page/:pageNumber", h.listPage)
	rg.PUT("/media-link/:id", guard, h.update)
	rg.DELETE("/media-link/:id", guard, h.remove)
	rg.POST("/media-link/:id/click", h.click)
}

type createReq struct {
	BrochureName string          `json:"brochureName"`
	PageNumber   int             `json:"pageNumber"`
	Link         string          `json:"link"`
	LinkType     string          `json:"linkType"`
	Coordinates  json.RawMessage `json:"coordinates"`
	Priority     int             `json:"priority"`
	IsActive     *bool           `json:"isActive"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "Invalid JSON body")
		return
	}

	ml, err := h.Service.Create(c.Request.Context(), CreateInput{
		BrochureName: req.BrochureName,
		PageNumber:   req.PageNumber,
		Link:         req.Link,
		LinkType:     req.LinkType,
		Coordinates:  req.Coordinates,
		Priority:     req.Priority,
		IsActive:     req.IsActive,
	})
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusCreated, "Media link created successfully", ml)
}

// createImage takes multipart form fields brochureName, pageNumber,
// coordinates (JSON text), optional linkType/link/priority and the files
// under "images".
func (h *Handler) createImage(c *gin.Context) {
	files, err := httpx.Files(c, "images", h.Limits)
	if err != nil {
		httpx.Fail(c, err)
		return
	}

	in := CreateInput{
		BrochureName: c.PostForm("brochureName"),
		PageNumber:   httpx.ParseInt(c.PostForm("pageNumber"), 0),
		Link:         c.PostForm("link"),
		LinkType:     c.PostForm("linkType"),
		Coordinates:  c.PostForm("coordinates"),
		Priority:     httpx.ParseInt(c.PostForm("priority"), 0),
	}
	if v, ok := c.GetPostForm("isActive"); ok {
		active, _ := strconv.ParseBool(strings.TrimSpace(v))
		in.IsActive = &active
	}

	ml, err := h.Service.CreateImage(c.Request.Context(), in, files)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusCreated, "Image link created successfully", ml)
}

func (h *Handler) list(c *gin.Context) {
	var f store.MediaLinkFilter
	if v := strings.TrimSpace(c.Query("pageNumber")); v != "" {
		n := httpx.ParseInt(v, 0)
		f.PageNumber = &n
	}
	if v, ok := c.GetQuery("isActive"); ok {
		active := v == "true"
		f.IsActive = &active
	}
	f.LinkType = c.Query("linkType")

	links, err := h.Service.ListForBrochure(c.Request.Context(), c.Param("brochureName"), f)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OKList(c, "Media links retrieved successfully", len(links), links)
}

func (h *Handler) listPage(c *gin.Context) {
	raw := c.Param("pageNumber")
	links, err := h.Service.ListForPage(c.Request.Context(), c.Param("brochureName"), httpx.ParseInt(raw, 0))
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OKList(c, fmt.Sprintf("Media links for page %s retrieved successfully", raw), len(links), links)
}

func (h *Handler) update(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		httpx.BadRequest(c, "Invalid JSON body")
		return
	}

	ml, err := h.Service.Update(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "Media link updated successfully", ml)
}

func (h *Handler) remove(c *gin.Context) {
	ml, err := h.Service.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "Media link deleted successfully", ml)
}

func (h *Handler) click(c *gin.Context) {
	ml, err := h.Service.RecordClick(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, "Click recorded", gin.H{
		"id":            ml.ID,
		"clickCount":    ml.ClickCount,
		"lastClickedAt": ml.LastClickedAt,
	})
}
