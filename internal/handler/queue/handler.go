package queue

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/meditrax/clinical-core/internal/handler"
	"github.com/meditrax/clinical-core/internal/service/queue"
)

type Handler struct {
	service *queue.Service
}

func NewHandler(service *queue.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/appointments/:id/check-in", h.CheckIn)

	queues := r.Group("/queues")
	{
		queues.POST("/advance", h.Advance)
		queues.POST("/close", h.Close)
		queues.POST("/:id/skip", h.Skip)
		queues.GET("/:id/position", h.Position)
	}
}

func (h *Handler) CheckIn(c *gin.Context) {
	appointmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment ID"))
		return
	}

	entry, err := h.service.CheckIn(c.Request.Context(), appointmentID)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(entry))
}

type advanceRequest struct {
	DoctorID uuid.UUID `json:"doctor_id" binding:"required"`
	Date     string    `json:"date" binding:"required,datetime=2006-01-02"`
}

func (h *Handler) Advance(c *gin.Context) {
	var req advanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	date, _ := time.Parse("2006-01-02", req.Date)

	entry, err := h.service.Advance(c.Request.Context(), req.DoctorID, date)
	if err != nil {
		handler.Error(c, err)
		return
	}
	if entry == nil {
		c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"queue_empty": true}))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(entry))
}

func (h *Handler) Close(c *gin.Context) {
	var req advanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	date, _ := time.Parse("2006-01-02", req.Date)

	skipped, err := h.service.CloseQueue(c.Request.Context(), req.DoctorID, date)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"skipped": skipped}))
}

func (h *Handler) Skip(c *gin.Context) {
	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid queue entry ID"))
		return
	}

	entry, err := h.service.Skip(c.Request.Context(), entryID)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(entry))
}

func (h *Handler) Position(c *gin.Context) {
	entryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid queue entry ID"))
		return
	}

	position, err := h.service.Position(c.Request.Context(), entryID)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(position))
}
