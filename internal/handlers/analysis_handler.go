package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/placement-prep/learning-service/internal/repositories"
	"github.com/placement-prep/learning-service/internal/services"
	"github.com/placement-prep/learning-service/internal/utils"
)

type AnalysisHandler struct {
	BaseHandler
	analysisService services.AnalysisService
}

func NewAnalysisHandler(analysisService services.AnalysisService, logger utils.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		BaseHandler:     NewBaseHandler(logger),
		analysisService: analysisService,
	}
}

// AnalyzeAttempt runs the weak-area analysis for a submitted attempt
// @Summary Analyze attempt
// @Description Scores a submitted placement or resume attempt section by section and stores the analysis
// @Tags analyses
// @Accept json
// @Produce json
// @Param attempt_id path uint true "Attempt ID"
// @Success 200 {object} models.ExamAnalysis
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /analyses/attempts/{attempt_id} [post]
func (h *AnalysisHandler) AnalyzeAttempt(c *gin.Context) {
	attemptID := h.parseIDParam(c, "attempt_id")
	if attemptID == 0 {
		return
	}

	h.LogRequest(c, "Analyzing attempt", "attempt_id", attemptID)

	analysis, err := h.analysisService.AnalyzeAttempt(c.Request.Context(), attemptID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, analysis)
}

// RecordPracticeResult folds a submitted practice attempt into the practice state
// @Summary Record practice result
// @Description Updates practice counters, topic status and difficulty from a submitted practice attempt
// @Tags analyses
// @Accept json
// @Produce json
// @Param attempt_id path uint true "Attempt ID"
// @Success 200 {object} services.PracticeFeedback
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /analyses/practice/{attempt_id} [post]
func (h *AnalysisHandler) RecordPracticeResult(c *gin.Context) {
	attemptID := h.parseIDParam(c, "attempt_id")
	if attemptID == 0 {
		return
	}

	h.LogRequest(c, "Recording practice result", "attempt_id", attemptID)

	feedback, err := h.analysisService.RecordPracticeResult(c.Request.Context(), attemptID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, feedback)
}

// GetLatestAnalysis returns the most recent analysis for a student and company
// @Summary Get latest analysis
// @Description Returns the most recent stored analysis for a student and company
// @Tags analyses
// @Accept json
// @Produce json
// @Param student_id path string true "Student ID"
// @Param company query string true "Company name"
// @Success 200 {object} models.ExamAnalysis
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /analyses/student/{student_id}/latest [get]
func (h *AnalysisHandler) GetLatestAnalysis(c *gin.Context) {
	studentID := ParseStringIDParam(c, "student_id")
	if studentID == "" {
		return
	}

	company := strings.TrimSpace(c.Query("company"))
	if company == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Company parameter is required",
		})
		return
	}

	h.LogRequest(c, "Getting latest analysis", "student_id", studentID, "company", company)

	analysis, err := h.analysisService.GetLatestAnalysis(c.Request.Context(), studentID, company)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, analysis)
}

// ListAnalyses lists a student's recent analyses
// @Summary List analyses
// @Description Lists recent analyses for a student, optionally filtered by company
// @Tags analyses
// @Accept json
// @Produce json
// @Param student_id path string true "Student ID"
// @Param company query string false "Company name"
// @Param limit query int false "Max results" default(5)
// @Success 200 {object} []models.ExamAnalysis
// @Failure 400 {object} ErrorResponse
// @Router /analyses/student/{student_id} [get]
func (h *AnalysisHandler) ListAnalyses(c *gin.Context) {
	studentID := ParseStringIDParam(c, "student_id")
	if studentID == "" {
		return
	}

	h.LogRequest(c, "Listing analyses", "student_id", studentID)

	filters := repositories.AnalysisFilters{
		Limit: h.parseIntQuery(c, "limit", 5),
	}
	if company := strings.TrimSpace(c.Query("company")); company != "" {
		filters.CompanyName = &company
	}

	analyses, err := h.analysisService.ListAnalyses(c.Request.Context(), studentID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, analyses)
}
