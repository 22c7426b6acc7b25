package schedule

import (
	"github.com/gin-gonic/gin"

	"github.com/luckypig3400/NEC-Backend/internal/handler"
	"github.com/luckypig3400/NEC-Backend/internal/model"
	"github.com/luckypig3400/NEC-Backend/internal/service/schedule"
	"github.com/luckypig3400/NEC-Backend/pkg/httputil"
)

type UpdateStatusRequest struct {
	ScheduleID string               `json:"scheduleID" binding:"required"`
	PatientID  string               `json:"patientID"`
	Status     model.ScheduleStatus `json:"status" binding:"required"`
}

type DeleteRequest struct {
	ScheduleID string `json:"scheduleID" binding:"required"`
}

type Handler struct {
	service schedule.ScheduleService
}

func NewHandler(service schedule.ScheduleService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	schedules := r.Group("/schedule")
	{
		schedules.GET("", h.List)
		schedules.POST("", h.Create)
		schedules.PATCH("", h.UpdateStatus)
		schedules.DELETE("", h.DeleteByScheduleID)
		schedules.PATCH("/:_id", h.PatchByID)
		schedules.DELETE("/:_id", h.DeleteByID)
	}
}

func (h *Handler) List(c *gin.Context) {
	var params schedule.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		httputil.RespondWithBadRequest(c, handler.BindingMessage(err), err)
		return
	}

	result, err := h.service.List(c.Request.Context(), params)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithList(c, result.Results, result.Count)
}

func (h *Handler) Create(c *gin.Context) {
	var s model.Schedule
	if !handler.BindJSON(c, &s) {
		return
	}

	created, err := h.service.Create(c.Request.Context(), &s)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, created)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	updated, err := h.service.UpdateStatus(c.Request.Context(), req.ScheduleID, req.Status, req.PatientID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, updated)
}

func (h *Handler) DeleteByScheduleID(c *gin.Context) {
	var req DeleteRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	deleted, err := h.service.DeleteByScheduleID(c.Request.Context(), req.ScheduleID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, deleted)
}

func (h *Handler) PatchByID(c *gin.Context) {
	var fields map[string]interface{}
	if !handler.BindJSON(c, &fields) {
		return
	}

	updated, err := h.service.PatchByID(c.Request.Context(), c.Param("_id"), fields)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, updated)
}

func (h *Handler) DeleteByID(c *gin.Context) {
	deleted, err := h.service.DeleteByID(c.Request.Context(), c.Param("_id"))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, deleted)
}
