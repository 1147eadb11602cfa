package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/placement-prep/learning-service/internal/services"
	"github.com/placement-prep/learning-service/internal/utils"
)

type PracticeHandler struct {
	BaseHandler
	generationService services.GenerationService
}

func NewPracticeHandler(generationService services.GenerationService, logger utils.Logger) *PracticeHandler {
	return &PracticeHandler{
		BaseHandler:       NewBaseHandler(logger),
		generationService: generationService,
	}
}

// GenerateAssessment builds a targeted practice assessment
// @Summary Generate targeted assessment
// @Description Builds a practice assessment from the student's weak areas for one company
// @Tags practice
// @Accept json
// @Produce json
// @Param request body services.GenerateAssessmentRequest true "Generation request"
// @Success 201 {object} models.Assessment
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /practice/generate [post]
func (h *PracticeHandler) GenerateAssessment(c *gin.Context) {
	h.LogRequest(c, "Generating targeted assessment")

	var req services.GenerateAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	assessment, err := h.generationService.GenerateTargetedAssessment(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, assessment)
}

// GetRecommendations lists recommended practice areas per active company
// @Summary Get practice recommendations
// @Description Lists topic-grouped weak areas with practice progress for each active company
// @Tags practice
// @Accept json
// @Produce json
// @Param student_id path string true "Student ID"
// @Success 200 {object} []services.Recommendation
// @Failure 400 {object} ErrorResponse
// @Router /practice/recommendations/{student_id} [get]
func (h *PracticeHandler) GetRecommendations(c *gin.Context) {
	studentID := ParseStringIDParam(c, "student_id")
	if studentID == "" {
		return
	}

	h.LogRequest(c, "Getting practice recommendations", "student_id", studentID)

	recommendations, err := h.generationService.GetRecommendedAssessments(c.Request.Context(), studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, recommendations)
}

// GetTargetedAssessments lists generated assessments grouped by source exam
// @Summary Get targeted assessments
// @Description Lists the student's generated practice assessments grouped by the exam they were derived from
// @Tags practice
// @Accept json
// @Produce json
// @Param student_id path string true "Student ID"
// @Success 200 {object} []services.TargetedAssessmentGroup
// @Failure 400 {object} ErrorResponse
// @Router /practice/assessments/{student_id} [get]
func (h *PracticeHandler) GetTargetedAssessments(c *gin.Context) {
	studentID := ParseStringIDParam(c, "student_id")
	if studentID == "" {
		return
	}

	h.LogRequest(c, "Getting targeted assessments", "student_id", studentID)

	groups, err := h.generationService.GetTargetedAssessments(c.Request.Context(), studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, groups)
}
