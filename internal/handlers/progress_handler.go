package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/placement-prep/learning-service/internal/services"
	"github.com/placement-prep/learning-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ProgressHandler struct {
	BaseHandler
	progressService services.ProgressService
	exportService   services.ExportService
}

func NewProgressHandler(progressService services.ProgressService, exportService services.ExportService, logger utils.Logger) *ProgressHandler {
	return &ProgressHandler{
		BaseHandler:     NewBaseHandler(logger),
		progressService: progressService,
		exportService:   exportService,
	}
}

// GetProgress returns the student's learning progress across companies
// @Summary Get learning progress
// @Description Returns per-company progress timelines and aggregate stats
// @Tags progress
// @Accept json
// @Produce json
// @Param student_id path string true "Student ID"
// @Success 200 {object} services.ProgressReport
// @Failure 400 {object} ErrorResponse
// @Router /progress/{student_id} [get]
func (h *ProgressHandler) GetProgress(c *gin.Context) {
	studentID := ParseStringIDParam(c, "student_id")
	if studentID == "" {
		return
	}

	h.LogRequest(c, "Getting learning progress", "student_id", studentID)

	report, err := h.progressService.GetLearningProgress(c.Request.Context(), studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// ExportProgress downloads the progress report as an xlsx workbook
// @Summary Export learning progress
// @Description Renders the student's progress report as an xlsx workbook download
// @Tags progress
// @Accept json
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param student_id path string true "Student ID"
// @Success 200 {file} binary
// @Failure 400 {object} ErrorResponse
// @Router /progress/{student_id}/export [get]
func (h *ProgressHandler) ExportProgress(c *gin.Context) {
	studentID := ParseStringIDParam(c, "student_id")
	if studentID == "" {
		return
	}

	h.LogRequest(c, "Exporting learning progress", "student_id", studentID)

	content, filename, err := h.exportService.ExportProgress(c.Request.Context(), studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, content)
}
