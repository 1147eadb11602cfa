package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/placement-prep/learning-service/internal/services"
	"github.com/placement-prep/learning-service/internal/utils"
)

type PlacementHandler struct {
	BaseHandler
	placementService services.PlacementService
}

func NewPlacementHandler(placementService services.PlacementService, logger utils.Logger) *PlacementHandler {
	return &PlacementHandler{
		BaseHandler:      NewBaseHandler(logger),
		placementService: placementService,
	}
}

// StartPlacementExam builds a placement exam instance from a stored format
// @Summary Start placement exam
// @Description Instantiates a placement exam for the student from an active exam format
// @Tags placements
// @Accept json
// @Produce json
// @Param request body services.StartPlacementExamRequest true "Placement exam request"
// @Success 201 {object} models.Assessment
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /placements/start [post]
func (h *PlacementHandler) StartPlacementExam(c *gin.Context) {
	h.LogRequest(c, "Starting placement exam")

	var req services.StartPlacementExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	assessment, err := h.placementService.StartPlacementExam(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, assessment)
}
