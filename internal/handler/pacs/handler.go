package pacs

import (
	"github.com/gin-gonic/gin"

	"github.com/luckypig3400/NEC-Backend/internal/handler"
	"github.com/luckypig3400/NEC-Backend/internal/model"
	"github.com/luckypig3400/NEC-Backend/internal/service/pacs"
	"github.com/luckypig3400/NEC-Backend/pkg/httputil"
)

type Handler struct {
	service pacs.PacsService
}

func NewHandler(service pacs.PacsService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	settings := r.Group("/pacs")
	{
		settings.GET("", h.List)
		settings.POST("", h.Insert)
		settings.PATCH("/sort", h.BulkReorder)
		settings.GET("/:id", h.Get)
		settings.PATCH("/:id", h.PatchOne)
		settings.DELETE("/:id", h.DeleteOne)
	}
}

func (h *Handler) List(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithList(c, list.Results, list.Count)
}

func (h *Handler) Get(c *gin.Context) {
	cfg, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, cfg)
}

func (h *Handler) Insert(c *gin.Context) {
	var cfg model.DeviceConfig
	if !handler.BindJSON(c, &cfg) {
		return
	}

	created, err := h.service.Insert(c.Request.Context(), &cfg)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, created)
}

func (h *Handler) BulkReorder(c *gin.Context) {
	var entries []map[string]interface{}
	if !handler.BindJSON(c, &entries) {
		return
	}

	list, err := h.service.BulkReorder(c.Request.Context(), entries)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithList(c, list.Results, list.Count)
}

func (h *Handler) PatchOne(c *gin.Context) {
	var fields map[string]interface{}
	if !handler.BindJSON(c, &fields) {
		return
	}

	cfg, err := h.service.PatchOne(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, cfg)
}

func (h *Handler) DeleteOne(c *gin.Context) {
	cfg, err := h.service.DeleteOne(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, cfg)
}
