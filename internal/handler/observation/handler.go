package observation

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/meditrax/clinical-core/internal/handler"
	"github.com/meditrax/clinical-core/internal/model"
	"github.com/meditrax/clinical-core/internal/service/observation"
)

type Handler struct {
	service *observation.Service
}

func NewHandler(service *observation.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	observations := r.Group("/observations")
	{
		observations.POST("", h.RecordObservation)
		observations.GET("/:id", h.GetObservation)
	}
}

func (h *Handler) RecordObservation(c *gin.Context) {
	var req model.RecordObservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	result, err := h.service.Record(c.Request.Context(), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(result))
}

func (h *Handler) GetObservation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid observation ID"))
		return
	}

	obs, err := h.service.GetObservation(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(obs))
}
